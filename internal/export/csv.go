// Package export serializes journal entries for download collaborators.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ledgerlens/backend/internal/derivation"
)

// WriteCSV serializes a journal entry as CSV: one row per ledger line joined
// with the entry header fields, followed by a separate line-items block.
func WriteCSV(w io.Writer, entry *derivation.JournalEntry) error {
	cw := csv.NewWriter(w)

	header := []string{"Date", "Merchant", "Description", "Reference", "Type", "Account", "Amount", "LineDescription"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, line := range entry.Entries {
		record := []string{
			entry.Date,
			entry.Merchant,
			entry.Description,
			entry.Reference,
			string(line.Type),
			line.Account,
			money(line.Amount),
			line.Description,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write ledger line: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush ledger lines: %w", err)
	}

	if _, err := fmt.Fprintln(w); err != nil {
		return fmt.Errorf("write separator: %w", err)
	}

	iw := csv.NewWriter(w)
	itemHeader := []string{"ItemDescription", "Quantity", "UnitPrice", "Total", "VATRate", "Category"}
	if err := iw.Write(itemHeader); err != nil {
		return fmt.Errorf("write item header: %w", err)
	}

	for _, item := range entry.LineItems {
		record := []string{
			item.Description,
			strconv.FormatFloat(item.Quantity, 'f', -1, 64),
			money(item.UnitPrice),
			money(item.Total),
			strconv.FormatFloat(item.VATRate, 'f', -1, 64),
			item.Category,
		}
		if err := iw.Write(record); err != nil {
			return fmt.Errorf("write line item: %w", err)
		}
	}

	iw.Flush()
	if err := iw.Error(); err != nil {
		return fmt.Errorf("flush line items: %w", err)
	}

	return nil
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
