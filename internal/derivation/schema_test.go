package derivation

import "testing"

func TestValidateEntryJSON(t *testing.T) {
	if err := validateEntryJSON([]byte(validEntryJSON)); err != nil {
		t.Fatalf("complete entry should pass the schema: %v", err)
	}

	rejects := []struct {
		name    string
		payload string
	}{
		{"not an object", `[1, 2, 3]`},
		{"bad date shape", `{
			"date": "15/01/2024", "merchant": "M",
			"entries": [
				{"type": "debit", "account": "A", "amount": 1},
				{"type": "credit", "account": "B", "amount": 1}
			],
			"lineItems": [{"description": "x", "total": 1}],
			"vatBreakdown": {"netAmount": 1, "vatAmount": 0, "grossAmount": 1},
			"totalDebit": 1, "totalCredit": 1
		}`},
		{"single ledger line", `{
			"date": "2024-01-15", "merchant": "M",
			"entries": [{"type": "debit", "account": "A", "amount": 1}],
			"lineItems": [{"description": "x", "total": 1}],
			"vatBreakdown": {"netAmount": 1, "vatAmount": 0, "grossAmount": 1},
			"totalDebit": 1, "totalCredit": 1
		}`},
		{"missing line items", `{
			"date": "2024-01-15", "merchant": "M",
			"entries": [
				{"type": "debit", "account": "A", "amount": 1},
				{"type": "credit", "account": "B", "amount": 1}
			],
			"vatBreakdown": {"netAmount": 1, "vatAmount": 0, "grossAmount": 1},
			"totalDebit": 1, "totalCredit": 1
		}`},
	}

	for _, tc := range rejects {
		t.Run(tc.name, func(t *testing.T) {
			if err := validateEntryJSON([]byte(tc.payload)); err == nil {
				t.Fatal("payload should be rejected by the schema")
			}
		})
	}
}
