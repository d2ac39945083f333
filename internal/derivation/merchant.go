package derivation

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// Patterns for cleaning merchant names
	prefixPattern = regexp.MustCompile(`(?i)^(pos |eftpos |visa |mastercard |amex |paypal \*)`)
	suffixPattern = regexp.MustCompile(`(?i)\s+(gmbh|pty|ltd|inc|corp|llc|ag|kg)\.?$`)
	longNumbers   = regexp.MustCompile(`\d{6,}`)
	specialChars  = regexp.MustCompile(`[*#"\\]+`)
)

// formatMerchantName cleans a raw merchant candidate for display: payment
// processor prefixes, legal-form suffixes and register noise are stripped,
// then each word is title-cased.
func formatMerchantName(raw string) string {
	cleaned := prefixPattern.ReplaceAllString(raw, "")
	cleaned = suffixPattern.ReplaceAllString(cleaned, "")
	cleaned = longNumbers.ReplaceAllString(cleaned, "")
	cleaned = specialChars.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return UnknownMerchant
	}

	caser := cases.Title(language.English)
	words := strings.Fields(cleaned)
	for i, word := range words {
		if len(word) > 2 {
			words[i] = caser.String(strings.ToLower(word))
		} else {
			words[i] = strings.ToUpper(word)
		}
	}

	result := strings.Join(words, " ")
	if len(result) > 50 {
		result = result[:50]
	}

	return result
}
