package extract

import "strings"

// SettlementRecord is the structured output for one grain settlement
// ("liquidación de granos") page. Absent or unreadable fields stay
// nil so consumers can tell "unknown" from "known zero".
type SettlementRecord struct {
	Comprador            *string  `json:"comprador,omitempty"`
	CUITComprador        *string  `json:"cuitComprador,omitempty"`
	Fecha                ISODate  `json:"fecha,omitempty"`
	COE                  *string  `json:"coe,omitempty"`
	NroComprobante       *string  `json:"nroComprobante,omitempty"`
	Grano                *string  `json:"grano,omitempty"`
	CantidadKg           *float64 `json:"cantidadKg,omitempty"`
	PrecioKg             *float64 `json:"precioKg,omitempty"`
	TotalOperacion       *float64 `json:"totalOperacion,omitempty"`
	PagoSegunCondiciones *float64 `json:"pagoSegunCondiciones,omitempty"`
	IVARG4310            *float64 `json:"ivaRg4310,omitempty"`
	ImporteNetoAPagar    *float64 `json:"importeNetoAPagar,omitempty"`
}

const (
	coeLabel       = `c\.?\s*o\.?\s*e\.?\s*:?`
	cuitPattern    = `c\.?\s*u\.?\s*i\.?\s*t\.?\s*(?:n(?:ro|º|°)?\.?)?\s*:?\s*(\d{2}[-\s.]?\d{8}[-\s.]?\d)`
	granoPattern   = `(?:grano|producto|cereal)\s*:\s*([A-Za-zÁÉÍÓÚÑáéíóúñ][A-Za-zÁÉÍÓÚÑáéíóúñ /]{1,30})`
	fechaPattern   = `fecha\s*(?:de\s*(?:emisi[oó]n|liquidaci[oó]n))?\s*:?\s*([0-9OIlSBZ]{1,4}[./·, -][0-9OIlSBZ]{1,2}[./·, -][0-9OIlSBZ]{2,4})`
	cantidadLabel  = `(?:cantidad|kilos|peso\s*neto)\s*:?`
	precioLabel    = `precio\s*(?:por\s*)?(?:kg|quintal|unidad)?\s*:?`
	totalOpLabel   = `total\s*operaci[oó]n\s*:?`
	pagoCondLabel  = `pago\s*seg[uú]n\s*condiciones\s*:?`
	ivaRG4310Label = `iva\s*r\.?\s*g\.?\s*\.?\s*4[-.]?310\s*:?`
	netoPagarLabel = `importe\s*neto\s*a\s*pagar\s*:?`
)

// ExtractSettlement turns the OCR text of one settlement page into a
// SettlementRecord. Pure and deterministic: the same text and options
// always produce the same record, and no input makes it panic.
func ExtractSettlement(text string, opts Options) SettlementRecord {
	opts = opts.normalized()
	var rec SettlementRecord
	if strings.TrimSpace(text) == "" {
		return rec
	}

	rec.Comprador = strPtr(cleanLine(Get(text, `comprador\s*:?\s*([^\n]{3,70})`, 1)))
	rec.CUITComprador = strPtr(digitsOnly(Get(text, cuitPattern, 1)))
	rec.Fecha = ToISODateAt(Get(text, fechaPattern, 1), opts.ReferenceYear)
	rec.Grano = strPtr(cleanLine(Get(text, granoPattern, 1)))

	coe := NextDigitsAfter(text, coeLabel, pickerWindow)
	if coe == "" {
		coe = opts.KnownCOE
	}
	rec.COE = strPtr(coe)
	rec.NroComprobante = strPtr(PickComprobanteAt(text, coe, opts.ReferenceYear))

	rec.CantidadKg = numPtr(NextAmountAfter(text, cantidadLabel, opts.noUnits()))
	rec.PrecioKg = numPtr(NextAmountAfter(text, precioLabel, opts.noUnits()))
	rec.TotalOperacion = numPtr(LastAmountAfter(text, totalOpLabel, opts.Window))
	rec.PagoSegunCondiciones = numPtr(NextAmountAfter(text, pagoCondLabel, opts.Window))
	rec.IVARG4310 = numPtr(NextAmountAfter(text, ivaRG4310Label, opts.Window))
	rec.ImporteNetoAPagar = numPtr(LastAmountAfter(text, netoPagarLabel, opts.Window))

	reconcileSettlementTotals(&rec)
	return rec
}

// reconcileSettlementTotals applies the deterministic override rules
// between the settlement totals.
//
// The net amount payable is defined as "pago según condiciones" plus
// "IVA RG 4310" whenever both source figures are present: they sit in
// a cleaner region of the form than the printed net total, so their
// sum overrides any directly extracted value. The operation total is
// recomputed from quantity × unit price only when it was not read at
// all.
func reconcileSettlementTotals(rec *SettlementRecord) {
	if rec.PagoSegunCondiciones != nil && rec.IVARG4310 != nil {
		neto := *rec.PagoSegunCondiciones + *rec.IVARG4310
		rec.ImporteNetoAPagar = &neto
	}
	if rec.TotalOperacion == nil && rec.CantidadKg != nil && rec.PrecioKg != nil {
		total := *rec.CantidadKg * *rec.PrecioKg
		rec.TotalOperacion = &total
	}
}

// digitsOnly strips everything but digits, for CUIT-style identifiers
// that OCR renders with dashes, dots or spaces.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// cleanLine trims a captured free-text value down to its first line
// and collapses the trailing label noise OCR appends.
func cleanLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.Trim(strings.TrimSpace(s), ":;,")
}
