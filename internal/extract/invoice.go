package extract

import "strings"

// InvoiceRecord is the structured output for one generic invoice
// page. Absent fields stay nil; dates stay "" when unreadable.
type InvoiceRecord struct {
	Emisor           *string  `json:"emisor,omitempty"`
	CUIT             *string  `json:"cuit,omitempty"`
	NroComprobante   *string  `json:"nroComprobante,omitempty"`
	FechaEmision     ISODate  `json:"fechaEmision,omitempty"`
	FechaVencimiento ISODate  `json:"fechaVencimiento,omitempty"`
	Cantidad         *float64 `json:"cantidad,omitempty"`
	PrecioUnitario   *float64 `json:"precioUnitario,omitempty"`
	Neto             *float64 `json:"neto,omitempty"`
	IVA              *float64 `json:"iva,omitempty"`
	Total            *float64 `json:"total,omitempty"`
}

const (
	emisionDatePattern = `fecha\s*(?:de\s*emisi[oó]n)?\s*:?\s*([0-9OIlSBZ]{1,4}[./·, -][0-9OIlSBZ]{1,2}[./·, -][0-9OIlSBZ]{2,4})`
	vencDatePattern    = `(?:fecha\s*de\s*)?(?:vencimiento|vto\.?)\s*:?\s*([0-9OIlSBZ]{1,4}[./·, -][0-9OIlSBZ]{1,2}[./·, -][0-9OIlSBZ]{2,4})`
	facturaNroPattern  = `(?:factura|comp\.?|comprobante)\s*(?:[ABCEM]\s+)?(?:n(?:ro|º|°|o)?\.?)?\s*:?\s*(\d{4,5}\s*[-–]\s*\d{6,8})`
	netoLabel          = `(?:importe\s*)?neto(?:\s*gravado)?\s*:?`
	ivaLabel           = `iva\s*(?:21\s*%|10[,.]5\s*%)?\s*:?`
	totalLabel         = `total\s*:?`
	totalConIVALabel   = `total\s*(?:c\s*/\s*iva|con\s*iva|final)\s*:?`
	cantidadInvLabel   = `cantidad\s*:?`
	precioUnitLabel    = `precio\s*unit(?:ario)?\.?\s*:?`
)

// ExtractInvoice turns the OCR text of one invoice page into an
// InvoiceRecord, reconciling the emission/due date pair and repairing
// an implausible total. Pure, deterministic, panic-free on any input.
func ExtractInvoice(text string, opts Options) InvoiceRecord {
	opts = opts.normalized()
	var rec InvoiceRecord
	if strings.TrimSpace(text) == "" {
		return rec
	}

	rec.Emisor = strPtr(headerLine(text))
	rec.CUIT = strPtr(digitsOnly(Get(text, cuitPattern, 1)))

	nro := Get(text, facturaNroPattern, 1)
	if nro == "" {
		nro = NextDigitsAfter(text, comprobanteLabel, pickerWindow)
	}
	rec.NroComprobante = strPtr(compactNumber(nro))

	pair := ReconcileOCRDates(
		Get(text, emisionDatePattern, 1),
		Get(text, vencDatePattern, 1),
		ReconcileOptions{ReferenceYear: opts.ReferenceYear, BiasYear: opts.BiasYear},
	)
	rec.FechaEmision = pair.Emision
	rec.FechaVencimiento = pair.Venc

	rec.Cantidad = numPtr(NextAmountAfter(text, cantidadInvLabel, opts.noUnits()))
	rec.PrecioUnitario = numPtr(NextAmountAfter(text, precioUnitLabel, opts.noUnits()))
	rec.Neto = numPtr(NextAmountAfter(text, netoLabel, opts.Window))
	rec.IVA = numPtr(NextAmountAfter(text, ivaLabel, opts.Window))
	rec.Total = numPtr(LastAmountAfter(text, totalLabel, opts.Window))

	repairInvoiceTotal(text, &rec, opts)
	return rec
}

// repairInvoiceTotal re-derives the invoice total when the extracted
// value is missing or implausibly small against the independently
// computed subtotal (quantity × unit price, falling back to the
// printed neto). Derivation chain: neto-plus-IVA, then a distinct
// "total con IVA" label, then subtotal × (1 + tax rate). Every step
// is a deterministic override, the same input always yields the same
// correction.
func repairInvoiceTotal(text string, rec *InvoiceRecord, opts Options) {
	subtotal, ok := computedSubtotal(rec)
	if !ok {
		return
	}
	if rec.Total != nil && *rec.Total >= subtotal {
		return
	}

	if rec.IVA != nil {
		total := subtotal + *rec.IVA
		rec.Total = &total
		return
	}
	if total, ok := LastAmountAfter(text, totalConIVALabel, opts.Window); ok && total >= subtotal {
		rec.Total = &total
		return
	}
	total := subtotal * (1 + opts.TaxRate)
	rec.Total = &total
}

// computedSubtotal prefers the independently computed quantity × unit
// price, which does not depend on the totals block being readable.
func computedSubtotal(rec *InvoiceRecord) (float64, bool) {
	if rec.Cantidad != nil && rec.PrecioUnitario != nil {
		return *rec.Cantidad * *rec.PrecioUnitario, true
	}
	if rec.Neto != nil {
		return *rec.Neto, true
	}
	return 0, false
}

// headerLine returns the first line of the page that reads like a
// business name: the issuer sits in the letterhead on every layout
// this service is calibrated for.
func headerLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 3 {
			continue
		}
		letters := 0
		for _, r := range line {
			if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= 'À' && r <= 'ÿ' {
				letters++
			}
		}
		if letters >= 3 {
			return cleanLine(line)
		}
	}
	return ""
}

// compactNumber strips spacing noise out of a comprobante number while
// keeping the punto-de-venta dash.
func compactNumber(s string) string {
	s = strings.ReplaceAll(s, " ", "")
	return strings.ReplaceAll(s, "–", "-")
}
