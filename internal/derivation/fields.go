package derivation

import (
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ledgerlens/backend/internal/ocr"
)

// ExtractedFields are the candidates pulled out of a raw OCR result.
// Amount always resolves to a value; Date may be zero (caller substitutes the
// current date); Merchant falls back to the UnknownMerchant sentinel.
type ExtractedFields struct {
	Amount   float64
	Date     time.Time
	Merchant string
}

// UnknownMerchant is substituted when no merchant candidate is found.
const UnknownMerchant = "Unknown Merchant"

// Vendor key priority lists. Earlier keys are trusted over later ones, and
// structured lookups are always preferred over free-text scanning — the
// serialized scan is prone to picking up line-item prices, phone numbers,
// or dates, so it is a last resort.
var (
	amountKeys = []string{"total", "total_amount", "grand_total", "amount", "amount_due", "sum"}

	dateKeys = []string{"date", "invoice_date", "receipt_date", "transaction_date", "issued_at"}

	merchantKeys = []string{"establishment", "merchant", "merchant_name", "vendor", "vendor_name", "store", "store_name", "company"}
)

var (
	// non-numeric noise stripped before parsing an amount-looking string
	amountNoiseRe = regexp.MustCompile(`[^0-9.]`)

	// decimal-looking substrings in the serialized result
	decimalScanRe = regexp.MustCompile(`\d{1,7}\.\d{1,2}`)
	integerScanRe = regexp.MustCompile(`\b\d{1,5}\b`)

	// date-shaped substrings: digit groups separated by / - or .
	dateScanRe = regexp.MustCompile(`\d{1,4}[/\-.]\d{1,2}[/\-.]\d{1,4}`)

	// runs of capitalized words, e.g. "Cafe Milano" or "Office World GmbH"
	merchantRunRe = regexp.MustCompile(`[A-Z][A-Za-z&'.-]+(?:\s+[A-Z&][A-Za-z&'.-]*)*`)

	// single-quoted substrings sometimes emitted by OCR vendors
	merchantQuoteRe = regexp.MustCompile(`'([^']{4,49})'`)
)

// dateFormats to try when parsing extracted dates, day-first per the
// configured locale.
var dateFormats = []string{
	"02/01/2006", // DD/MM/YYYY
	"2/1/2006",   // D/M/YYYY
	"02-01-2006", // DD-MM-YYYY
	"02.01.2006", // DD.MM.YYYY
	"2006-01-02", // YYYY-MM-DD
	"2006/01/02", // YYYY/MM/DD
	"02/01/06",   // DD/MM/YY
	"2/1/06",     // D/M/YY
}

// FieldExtractor pulls amount, date and merchant candidates out of an
// arbitrarily-shaped OCR result. Every resolution path degrades to a safe
// default: extraction must never block construction of a valid entry.
type FieldExtractor struct {
	// DefaultAmount is substituted when no numeric token exists anywhere.
	DefaultAmount float64
}

// NewFieldExtractor creates an extractor with the configured default amount.
func NewFieldExtractor(defaultAmount float64) *FieldExtractor {
	return &FieldExtractor{DefaultAmount: defaultAmount}
}

// Extract resolves all three field candidates from the OCR result.
func (fe *FieldExtractor) Extract(res ocr.Result) ExtractedFields {
	serialized := res.Serialize()
	return ExtractedFields{
		Amount:   fe.extractAmount(res, serialized),
		Date:     extractDate(res, serialized),
		Merchant: extractMerchant(res, serialized),
	}
}

// extractAmount resolves the document total, in order: known keys as numbers,
// known keys as numeric-looking text, the maximum decimal-looking substring
// in the whole serialized result (the largest number on a receipt is usually
// the grand total), then the configured default.
func (fe *FieldExtractor) extractAmount(res ocr.Result, serialized string) float64 {
	for _, key := range amountKeys {
		v, ok := res[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			if n > 0 {
				return n
			}
		case int:
			if n > 0 {
				return float64(n)
			}
		case string:
			if amount, ok := parseAmountString(n); ok {
				return amount
			}
		}
	}

	if amount, ok := scanMaxAmount(serialized); ok {
		return amount
	}

	log.Printf("[FieldExtractor] no parseable amount found, using default %.2f", fe.DefaultAmount)
	return fe.DefaultAmount
}

// parseAmountString parses a numeric-looking string after stripping currency
// symbols and other non-digit noise.
func parseAmountString(s string) (float64, bool) {
	cleaned := amountNoiseRe.ReplaceAllString(s, "")
	if cleaned == "" {
		return 0, false
	}
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || amount <= 0 {
		return 0, false
	}
	return amount, true
}

// scanMaxAmount finds all decimal-looking substrings and returns the maximum.
// Substrings with a decimal point are preferred; bare integers (length-capped
// to avoid phone numbers) are only considered when no decimal exists.
func scanMaxAmount(serialized string) (float64, bool) {
	max := 0.0
	found := false
	for _, m := range decimalScanRe.FindAllString(serialized, -1) {
		if v, err := strconv.ParseFloat(m, 64); err == nil && v > max {
			max = v
			found = true
		}
	}
	if found {
		return max, true
	}
	for _, m := range integerScanRe.FindAllString(serialized, -1) {
		if v, err := strconv.ParseFloat(m, 64); err == nil && v > max {
			max = v
			found = true
		}
	}
	return max, found
}

// extractDate resolves the document date: known keys first, then the first
// date-shaped substring anywhere in the serialized result that parses.
// Returns the zero time when nothing parses — the caller supplies a default
// rather than the extractor inventing one.
func extractDate(res ocr.Result, serialized string) time.Time {
	for _, key := range dateKeys {
		if s, ok := res[key].(string); ok {
			if t := parseFlexibleDate(s); !t.IsZero() {
				return t
			}
		}
	}

	for _, m := range dateScanRe.FindAllString(serialized, -1) {
		if t := parseFlexibleDate(m); !t.IsZero() {
			return t
		}
	}

	log.Printf("[FieldExtractor] no parseable date found, leaving absent")
	return time.Time{}
}

// parseFlexibleDate tries the configured day-first formats and returns the
// parsed time, or the zero time if nothing matches.
func parseFlexibleDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// extractMerchant resolves the merchant name: known keys first, then a scan
// for capitalized-word runs or quoted substrings within a plausible length
// window, then the UnknownMerchant sentinel.
func extractMerchant(res ocr.Result, serialized string) string {
	for _, key := range merchantKeys {
		if s, ok := res[key].(string); ok {
			if name := strings.TrimSpace(s); name != "" {
				return formatMerchantName(name)
			}
		}
	}

	for _, m := range merchantRunRe.FindAllString(serialized, -1) {
		if len(m) >= 4 && len(m) <= 49 {
			return formatMerchantName(m)
		}
	}
	if m := merchantQuoteRe.FindStringSubmatch(serialized); m != nil {
		return formatMerchantName(m[1])
	}

	log.Printf("[FieldExtractor] no merchant candidate found, using sentinel")
	return UnknownMerchant
}
