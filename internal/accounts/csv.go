package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Header is the CSV header for an account seed or balance export.
const Header = "bank,owner,account_number,pin,balance"

const (
	numFields  = 5
	colBank    = 0
	colOwner   = 1
	colNumber  = 2
	colPIN     = 3
	colBalance = 4
)

// ReadAccounts reads account rows. The first row is the header.
func ReadAccounts(r io.Reader) ([]Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []Account
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes account rows with a header. PINs are written only
// when withPIN is set.
func WriteAccounts(w io.Writer, accounts []Account, withPIN bool) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		row := MarshalAccount(acct)
		if !withPIN {
			row[colPIN] = ""
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct Account) []string {
	row := make([]string, numFields)
	row[colBank] = acct.Bank
	row[colOwner] = acct.Owner
	row[colNumber] = acct.Number
	row[colPIN] = acct.PIN
	row[colBalance] = strconv.FormatInt(acct.Balance, 10)
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (Account, error) {
	if len(record) != numFields {
		return Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	balance, err := strconv.ParseInt(record[colBalance], 10, 64)
	if err != nil {
		return Account{}, fmt.Errorf("parsing balance %q: %w", record[colBalance], err)
	}

	return Account{
		Bank:    record[colBank],
		Owner:   record[colOwner],
		Number:  record[colNumber],
		PIN:     record[colPIN],
		Balance: balance,
	}, nil
}

// Import opens every account in the registry, adding banks as needed.
func Import(r *Registry, accounts []Account) error {
	for _, a := range accounts {
		b, ok := r.Bank(a.Bank)
		if !ok {
			var err error
			if b, err = r.AddBank(a.Bank); err != nil {
				return fmt.Errorf("adding bank %s: %w", a.Bank, err)
			}
		}
		if _, err := b.CreateAccount(a.Owner, a.Number, a.PIN, a.Balance); err != nil {
			return fmt.Errorf("opening account %s at %s: %w", a.Number, a.Bank, err)
		}
	}
	return nil
}
