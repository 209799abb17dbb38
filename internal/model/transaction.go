package model

import (
	"fmt"
	"time"
)

// TransactionType is the kind of operation a Transaction records.
type TransactionType string

const (
	TypeDeposit         TransactionType = "deposit"
	TypeWithdrawal      TransactionType = "withdrawal"
	TypeCashTransfer    TransactionType = "cash-transfer"
	TypeAccountTransfer TransactionType = "account-transfer"
)

// TransactionTypes lists every type in ledger order.
var TransactionTypes = []TransactionType{TypeDeposit, TypeWithdrawal, TypeCashTransfer, TypeAccountTransfer}

// ParseTransactionType validates a serialized transaction type.
func ParseTransactionType(s string) (TransactionType, error) {
	for _, t := range TransactionTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown transaction type %q", s)
}

// Transaction is an immutable record of a completed operation.
// It is passed and stored by value.
type Transaction struct {
	ID        string
	Card      string
	Type      TransactionType
	Amount    int64
	Fee       int64
	Timestamp time.Time
	Detail    string
}
