package derivation

import (
	"fmt"
	"math"
	"strings"
)

// ComputeVAT decides whether a VAT component exists and, if so, splits the
// gross amount into net and VAT at the configured standard rate.
//
// VAT is assumed present only if the serialized OCR text carries an explicit
// indicator token. Silently assuming a tax rate when none is shown on the
// source document would fabricate financial data, so absence of a token
// means a zero-rate breakdown.
func ComputeVAT(gross float64, ocrText string, standardRate float64) VATBreakdown {
	if gross < 0 {
		gross = 0
	}

	if !hasVATIndicator(ocrText, standardRate) {
		return VATBreakdown{
			NetAmount:   round2(gross),
			VATAmount:   0,
			GrossAmount: round2(gross),
			VATRate:     0,
		}
	}

	net := gross / (1 + standardRate)
	return VATBreakdown{
		NetAmount:   round2(net),
		VATAmount:   round2(gross - net),
		GrossAmount: round2(gross),
		VATRate:     standardRate,
	}
}

// hasVATIndicator reports whether the text carries an explicit VAT token:
// "vat", "tax", or the literal standard-rate percentage (e.g. "19%").
func hasVATIndicator(text string, standardRate float64) bool {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "vat") || strings.Contains(lower, "tax") {
		return true
	}
	return strings.Contains(lower, ratePercent(standardRate))
}

// ratePercent formats a rate as its receipt-style percentage string,
// e.g. 0.19 -> "19%".
func ratePercent(rate float64) string {
	return fmt.Sprintf("%g%%", math.Round(rate*10000)/100)
}
