package derivation

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// journalEntrySchema is the JSON-Schema (draft 2020-12 subset) that a
// generative response must satisfy before it is accepted. Cross-field
// arithmetic (balance, breakdown consistency) is outside what a schema can
// express and is enforced by JournalEntry.Validate.
func journalEntrySchema() map[string]any {
	money := map[string]any{"type": "number", "minimum": 0.0}

	ledgerLine := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type":        map[string]any{"type": "string", "enum": []string{"debit", "credit"}},
			"account":     map[string]any{"type": "string", "minLength": 1},
			"amount":      money,
			"description": map[string]any{"type": "string"},
		},
		"required": []string{"type", "account", "amount"},
	}

	lineItem := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description": map[string]any{"type": "string"},
			"quantity":    map[string]any{"type": "number"},
			"unitPrice":   map[string]any{"type": "number"},
			"total":       map[string]any{"type": "number"},
			"vatRate":     map[string]any{"type": "number"},
			"category":    map[string]any{"type": "string"},
		},
		"required": []string{"description", "total"},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"date":        map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
			"merchant":    map[string]any{"type": "string", "minLength": 1},
			"description": map[string]any{"type": "string"},
			"reference":   map[string]any{"type": "string"},
			"entries":     map[string]any{"type": "array", "minItems": 2, "items": ledgerLine},
			"lineItems":   map[string]any{"type": "array", "minItems": 1, "items": lineItem},
			"vatBreakdown": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"netAmount":   money,
					"vatAmount":   money,
					"grossAmount": money,
					"vatRate":     map[string]any{"type": "number"},
				},
				"required": []string{"netAmount", "vatAmount", "grossAmount"},
			},
			"totalDebit":  money,
			"totalCredit": money,
		},
		"required": []string{"date", "merchant", "entries", "lineItems", "vatBreakdown", "totalDebit", "totalCredit"},
	}
}

// compiledEntrySchema is compiled once; every candidate payload of every
// derivation validates against the same instance.
var compiledEntrySchema = mustCompileEntrySchema()

func mustCompileEntrySchema() *jsonschema.Schema {
	b, err := json.Marshal(journalEntrySchema())
	if err != nil {
		panic(fmt.Sprintf("marshal journal entry schema: %v", err))
	}
	return jsonschema.MustCompileString("journal_entry.json", string(b))
}

// validateEntryJSON validates raw JSON against the journal entry schema.
func validateEntryJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := compiledEntrySchema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
