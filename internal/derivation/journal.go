// Package derivation converts loosely-typed OCR results into balanced
// double-entry journal entries, preferring a generative model and falling
// back to a deterministic builder that always succeeds.
package derivation

import (
	"fmt"
	"math"
)

// balanceTolerance is the rounding tolerance, in currency units, within which
// debit and credit totals are considered equal.
const balanceTolerance = 0.01

// LedgerLineType is the side of a ledger line.
type LedgerLineType string

const (
	Debit  LedgerLineType = "debit"
	Credit LedgerLineType = "credit"
)

// LedgerLine is one debit or credit row within a journal entry.
type LedgerLine struct {
	Type        LedgerLineType `json:"type"`
	Account     string         `json:"account"`
	Amount      float64        `json:"amount"`
	Description string         `json:"description"`
}

// LineItem is one priced item or service on the source document.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Total       float64 `json:"total"`
	VATRate     float64 `json:"vatRate"`
	Category    string  `json:"category"`
}

// VATBreakdown splits a gross amount into net and VAT components.
// Invariant: NetAmount + VATAmount == GrossAmount within balanceTolerance.
type VATBreakdown struct {
	NetAmount   float64 `json:"netAmount"`
	VATAmount   float64 `json:"vatAmount"`
	GrossAmount float64 `json:"grossAmount"`
	VATRate     float64 `json:"vatRate"`
}

// JournalEntry is the engine's sole output type: a double-entry accounting
// record derived from one uploaded document. It is constructed fresh per
// request and never mutated after construction.
type JournalEntry struct {
	Date         string       `json:"date"` // YYYY-MM-DD
	Merchant     string       `json:"merchant"`
	Description  string       `json:"description"`
	Reference    string       `json:"reference"`
	LineItems    []LineItem   `json:"lineItems"`
	Entries      []LedgerLine `json:"entries"`
	VATBreakdown VATBreakdown `json:"vatBreakdown"`
	TotalDebit   float64      `json:"totalDebit"`
	TotalCredit  float64      `json:"totalCredit"`
}

// Validate checks the balance and required-field invariants. It is the
// defensive gate every derivation path passes before an entry reaches the
// caller: debits must equal credits, per-type sums must match the recorded
// totals, header fields must be present, and the VAT breakdown must add up
// and cover the credited amount.
func (e *JournalEntry) Validate() error {
	if e.Date == "" {
		return invalidEntry("missing date")
	}
	if e.Merchant == "" {
		return invalidEntry("missing merchant")
	}
	if len(e.Entries) == 0 {
		return invalidEntry("no ledger lines")
	}

	var debits, credits float64
	for i, line := range e.Entries {
		if line.Type != Debit && line.Type != Credit {
			return invalidEntry("ledger line %d has unknown type %q", i, line.Type)
		}
		if line.Amount < 0 {
			return invalidEntry("ledger line %d has negative amount %.2f", i, line.Amount)
		}
		if line.Account == "" {
			return invalidEntry("ledger line %d has no account", i)
		}
		if line.Type == Debit {
			debits += line.Amount
		} else {
			credits += line.Amount
		}
	}

	if math.Abs(debits-credits) > balanceTolerance {
		return invalidEntry("entry is unbalanced: debits %.2f, credits %.2f", debits, credits)
	}
	if math.Abs(debits-e.TotalDebit) > balanceTolerance {
		return invalidEntry("totalDebit %.2f does not match debit sum %.2f", e.TotalDebit, debits)
	}
	if math.Abs(credits-e.TotalCredit) > balanceTolerance {
		return invalidEntry("totalCredit %.2f does not match credit sum %.2f", e.TotalCredit, credits)
	}

	vb := e.VATBreakdown
	if math.Abs(vb.NetAmount+vb.VATAmount-vb.GrossAmount) > balanceTolerance {
		return invalidEntry("vat breakdown does not add up: net %.2f + vat %.2f != gross %.2f",
			vb.NetAmount, vb.VATAmount, vb.GrossAmount)
	}
	// A zero-valued breakdown means none was recorded; a recorded one must
	// cover the full credited amount.
	if vb.GrossAmount != 0 && math.Abs(vb.GrossAmount-credits) > balanceTolerance {
		return invalidEntry("vat breakdown gross %.2f does not match credit total %.2f", vb.GrossAmount, credits)
	}

	return nil
}

func invalidEntry(format string, args ...any) error {
	return &DerivationError{
		Code:    ErrInvalidEntry,
		Message: fmt.Sprintf(format, args...),
	}
}

// round2 rounds a monetary value to 2 decimal places. Applied at the point
// of output only, so rounding error does not compound through the pipeline.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
