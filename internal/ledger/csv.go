// Package ledger exports terminal transaction history as CSV and as a
// fixed-column text report.
package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/teller/internal/model"
)

// Header is the CSV header for a transaction export.
const Header = "transaction_id,card,type,amount,fee,timestamp,detail"

const (
	numFields    = 7
	colID        = 0
	colCard      = 1
	colType      = 2
	colAmount    = 3
	colFee       = 4
	colTimestamp = 5
	colDetail    = 6
)

// ReadTransactions reads a transaction export, skipping the header row.
func ReadTransactions(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading ledger CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var txns []model.Transaction
	for i, rec := range records[1:] {
		txn, err := UnmarshalTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// WriteTransactions writes txns with a header row.
func WriteTransactions(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, txn := range txns {
		if err := cw.Write(MarshalTransaction(txn)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalTransaction converts a Transaction to a CSV row.
func MarshalTransaction(txn model.Transaction) []string {
	row := make([]string, numFields)
	row[colID] = txn.ID
	row[colCard] = txn.Card
	row[colType] = string(txn.Type)
	row[colAmount] = decimal.NewFromInt(txn.Amount).StringFixed(2)
	row[colFee] = decimal.NewFromInt(txn.Fee).StringFixed(2)
	row[colTimestamp] = txn.Timestamp.Format(time.RFC3339)
	row[colDetail] = txn.Detail
	return row
}

// UnmarshalTransaction converts a CSV row to a Transaction.
func UnmarshalTransaction(record []string) (model.Transaction, error) {
	if len(record) != numFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	typ, err := model.ParseTransactionType(record[colType])
	if err != nil {
		return model.Transaction{}, err
	}

	amount, err := parseUnits(record[colAmount])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}
	fee, err := parseUnits(record[colFee])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing fee %q: %w", record[colFee], err)
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	return model.Transaction{
		ID:        record[colID],
		Card:      record[colCard],
		Type:      typ,
		Amount:    amount,
		Fee:       fee,
		Timestamp: ts,
		Detail:    record[colDetail],
	}, nil
}

// parseUnits reads a decimal amount that must be a whole number of units.
func parseUnits(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("fractional amount %s", s)
	}
	return d.IntPart(), nil
}

// Export writes txns to path, replacing any existing file.
func Export(path string, txns []model.Transaction) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := WriteTransactions(f, txns); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing export: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing export: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing export: %w", err)
	}
	return nil
}
