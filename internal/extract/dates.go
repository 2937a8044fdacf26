package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ISODate is a calendar date in "YYYY-MM-DD" form. The zero value ""
// means the date was absent or unparseable.
type ISODate string

// IsZero reports whether the date is absent.
func (d ISODate) IsZero() bool { return d == "" }

// Year returns the four-digit year, or 0 for an absent date.
func (d ISODate) Year() int {
	if len(d) < 4 {
		return 0
	}
	y, err := strconv.Atoi(string(d[:4]))
	if err != nil {
		return 0
	}
	return y
}

// Time converts the date to a UTC time.Time at midnight.
func (d ISODate) Time() (time.Time, bool) {
	t, err := time.Parse("2006-01-02", string(d))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatDateAR renders an ISODate as DD/MM/YYYY for display. Round-trip
// invariant: FormatDateAR(ToISODate("15/03/2024")) == "15/03/2024".
func FormatDateAR(d ISODate) string {
	t, ok := d.Time()
	if !ok {
		return ""
	}
	return t.Format("02/01/2006")
}

// ocrGlyphs maps glyphs that low-quality scans routinely confuse with
// digits.
var ocrGlyphs = strings.NewReplacer(
	"O", "0", "o", "0",
	"I", "1", "l", "1", "i", "1",
	"S", "5", "s", "5",
	"B", "8",
	"Z", "2", "z", "2",
)

// dateSeparators unifies every separator a scanned date may carry into
// a single "/".
var dateSeparators = strings.NewReplacer(".", "/", "·", "/", ",", "/", "-", "/", " ", "/")

// NormalizeDigits repairs OCR digit confusion inside a date token and
// collapses the separator variants to "/".
func NormalizeDigits(s string) string {
	s = strings.TrimSpace(s)
	s = ocrGlyphs.Replace(s)
	s = dateSeparators.Replace(s)
	// Collapse runs left by multi-space or dotted separators.
	for strings.Contains(s, "//") {
		s = strings.ReplaceAll(s, "//", "/")
	}
	return strings.Trim(s, "/")
}

var (
	dayFirstPattern  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2,4})$`)
	yearFirstPattern = regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})$`)
)

// ToISODate normalizes a free-form date token to ISODate, using the
// wall-clock year for plausibility repair. Returns "" when the token
// cannot be read as a calendar date; it never panics.
func ToISODate(raw string) ISODate {
	return ToISODateAt(raw, time.Now().Year())
}

// ToISODateAt is ToISODate with an explicit reference year, so the
// repair heuristics stay a pure function of their arguments.
//
// Accepted shapes after glyph normalization: dd/mm/yyyy, dd/mm/yy,
// yyyy/mm/dd and yyyy-mm-dd (already ISO). Implausible day/month pairs
// get one day/month swap attempt before giving up.
func ToISODateAt(raw string, refYear int) ISODate {
	s := NormalizeDigits(raw)
	if s == "" {
		return ""
	}

	if m := dayFirstPattern.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if len(m[3]) <= 2 {
			year = FixYear(year, refYear)
		} else {
			year = repairYear(year, refYear)
		}
		return buildDate(year, month, day)
	}

	if m := yearFirstPattern.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return buildDate(repairYear(year, refYear), month, day)
	}

	return ""
}

// FixYear expands a two-digit year: prefix "20", and when that lands
// past refYear+1 assume a century rollover and subtract 100.
func FixYear(year, refYear int) int {
	if year >= 100 {
		return year
	}
	year += 2000
	if year > refYear+1 {
		year -= 100
	}
	return year
}

// repairYear repairs a four-digit year that OCR may have corrupted by
// a 0/5 digit confusion. A year already inside the plausible band
// [2018, refYear+2] is kept untouched; otherwise the single-digit
// 0↔5 variant closest to refYear wins, provided it lands in the band.
func repairYear(year, refYear int) int {
	lo, hi := 2018, refYear+2
	if year >= lo && year <= hi {
		return year
	}
	best := year
	bestDist := -1
	for _, v := range yearVariants(year) {
		if v < lo || v > hi {
			continue
		}
		d := abs(v - refYear)
		if bestDist < 0 || d < bestDist || (d == bestDist && v < best) {
			best, bestDist = v, d
		}
	}
	return best
}

// yearVariants returns every year reachable from y by flipping exactly
// one 0↔5 digit, in digit order. y itself is not included.
func yearVariants(year int) []int {
	if year < 1000 || year > 9999 {
		return nil
	}
	digits := []byte(strconv.Itoa(year))
	var out []int
	for i, d := range digits {
		var flip byte
		switch d {
		case '0':
			flip = '5'
		case '5':
			flip = '0'
		default:
			continue
		}
		digits[i] = flip
		v, _ := strconv.Atoi(string(digits))
		digits[i] = d
		out = append(out, v)
	}
	return out
}

// buildDate validates a candidate by reconstructing the calendar date
// and checking every component survives the round trip, which rejects
// overflows like 31/02. When the month slot is implausible but the day
// slot is not, one day/month swap is attempted.
func buildDate(year, month, day int) ISODate {
	if iso, ok := calendarDate(year, month, day); ok {
		return iso
	}
	if month > 12 && day <= 12 {
		if iso, ok := calendarDate(year, day, month); ok {
			return iso
		}
	}
	return ""
}

func calendarDate(year, month, day int) (ISODate, bool) {
	if year < 1000 || month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return "", false
	}
	return ISODate(fmt.Sprintf("%04d-%02d-%02d", year, month, day)), true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
