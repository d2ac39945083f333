// Package ocr provides the client boundary to the external OCR vendor and
// the loosely-typed result document it produces.
package ocr

import (
	"encoding/json"
	"fmt"
)

// Result is the vendor's recognition output. The vendor guarantees no schema:
// keys, nesting and value types vary per document, so every consumer must be
// defensive. A Result is read-only after recognition.
type Result map[string]any

// Serialize returns the canonical JSON text of the result. Text-scanning
// fallbacks and the VAT token check all operate on this serialization.
func (r Result) Serialize() string {
	b, err := json.Marshal(r)
	if err != nil {
		// Marshal only fails on non-JSON-representable values, which a
		// decoded vendor payload never contains. Degrade rather than block.
		return fmt.Sprintf("%v", map[string]any(r))
	}
	return string(b)
}
