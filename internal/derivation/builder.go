package derivation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Ledger accounts used by the deterministic builder.
const (
	vatInputAccount = "VAT Input Tax"
	cashAccount     = "Cash/Bank Account"
)

// FallbackBuilder deterministically assembles a complete, balanced journal
// entry from extracted fields, a category and a VAT breakdown. It is total:
// every input yields a structurally valid entry, because the construction
// order enforces balance algebraically rather than checking it afterwards.
type FallbackBuilder struct {
	now func() time.Time
}

// NewFallbackBuilder creates a builder using the system clock for missing
// dates.
func NewFallbackBuilder() *FallbackBuilder {
	return &FallbackBuilder{now: time.Now}
}

// Build produces the fallback journal entry: one debit for the net expense
// in the classified account, an additional VAT input-tax debit when a VAT
// component exists, and one credit for the full gross amount against the
// cash/bank account. A single synthetic line item mirrors the net expense.
func (b *FallbackBuilder) Build(fields ExtractedFields, cat Category, vat VATBreakdown) *JournalEntry {
	date := fields.Date
	if date.IsZero() {
		date = b.now()
	}

	merchant := fields.Merchant
	if merchant == "" {
		merchant = UnknownMerchant
	}

	net := round2(vat.NetAmount)
	vatAmount := round2(vat.VATAmount)
	gross := round2(vat.GrossAmount)

	entries := []LedgerLine{
		{
			Type:        Debit,
			Account:     cat.Account,
			Amount:      net,
			Description: fmt.Sprintf("%s - %s", cat.Description, merchant),
		},
	}
	if vatAmount > 0 {
		entries = append(entries, LedgerLine{
			Type:        Debit,
			Account:     vatInputAccount,
			Amount:      vatAmount,
			Description: fmt.Sprintf("Input VAT %s", ratePercent(vat.VATRate)),
		})
	}
	entries = append(entries, LedgerLine{
		Type:        Credit,
		Account:     cashAccount,
		Amount:      gross,
		Description: fmt.Sprintf("Payment to %s", merchant),
	})

	return &JournalEntry{
		Date:        date.Format("2006-01-02"),
		Merchant:    merchant,
		Description: fmt.Sprintf("%s - %s", cat.Description, merchant),
		Reference:   newReference(),
		LineItems: []LineItem{
			{
				Description: cat.Description,
				Quantity:    1,
				UnitPrice:   net,
				Total:       net,
				VATRate:     vat.VATRate,
				Category:    cat.Account,
			},
		},
		Entries:      entries,
		VATBreakdown: vat,
		TotalDebit:   gross,
		TotalCredit:  gross,
	}
}

// newReference generates a short journal entry reference, e.g. "JE-9F2C41AB".
func newReference() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "JE-" + id[:8]
}
