package ledger

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/teller/internal/model"
)

const reportTimeFormat = "2006-01-02 15:04:05"

// WriteReport writes txns as a fixed-column text ledger followed by per-type
// totals.
func WriteReport(w io.Writer, title string, txns []model.Transaction) error {
	if _, err := fmt.Fprintf(w, "%s\n\n", title); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	if len(txns) == 0 {
		_, err := fmt.Fprintln(w, "No transactions.")
		return err
	}

	line := "%-20s %-13s %-17s %12s %8s  %-19s  %s\n"
	if _, err := fmt.Fprintf(w, line, "ID", "CARD", "TYPE", "AMOUNT", "FEE", "TIMESTAMP", "DETAIL"); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	for _, txn := range txns {
		_, err := fmt.Fprintf(w, line,
			txn.ID,
			txn.Card,
			txn.Type,
			decimal.NewFromInt(txn.Amount).StringFixed(2),
			decimal.NewFromInt(txn.Fee).StringFixed(2),
			txn.Timestamp.Format(reportTimeFormat),
			txn.Detail,
		)
		if err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}

	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	for _, tot := range Summarize(txns) {
		_, err := fmt.Fprintf(w, "%-17s %4d  amount %14s  fees %12s\n",
			tot.Type, tot.Count, tot.Amount.StringFixed(2), tot.Fees.StringFixed(2))
		if err != nil {
			return fmt.Errorf("writing totals: %w", err)
		}
	}
	return nil
}

// Totals aggregates one transaction type.
type Totals struct {
	Type   model.TransactionType
	Count  int
	Amount decimal.Decimal
	Fees   decimal.Decimal
}

// Summarize returns totals for each type present, in ledger order.
func Summarize(txns []model.Transaction) []Totals {
	byType := make(map[model.TransactionType]*Totals)
	for _, txn := range txns {
		tot, ok := byType[txn.Type]
		if !ok {
			tot = &Totals{Type: txn.Type}
			byType[txn.Type] = tot
		}
		tot.Count++
		tot.Amount = tot.Amount.Add(decimal.NewFromInt(txn.Amount))
		tot.Fees = tot.Fees.Add(decimal.NewFromInt(txn.Fee))
	}

	var out []Totals
	for _, typ := range model.TransactionTypes {
		if tot, ok := byType[typ]; ok {
			out = append(out, *tot)
		}
	}
	return out
}
