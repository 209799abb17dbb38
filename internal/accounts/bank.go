package accounts

import (
	"math"
	"slices"
	"sync"

	"github.com/cleared-dev/teller/internal/model"
)

// Account is a customer account. Bank names its owning bank; accounts are
// only ever mutated through that Bank.
type Account struct {
	Bank         string
	Owner        string
	Number       string
	PIN          string
	Balance      int64
	Transactions []model.Transaction
}

func (a *Account) clone() Account {
	c := *a
	c.Transactions = slices.Clone(a.Transactions)
	return c
}

// Bank owns its accounts, indexed by number and by owner name.
// Balance changes are serialized per bank.
type Bank struct {
	mu       sync.Mutex
	name     string
	accounts map[string]*Account
	order    []string
	byOwner  map[string][]string
}

// NewBank creates an empty bank.
func NewBank(name string) *Bank {
	return &Bank{
		name:     name,
		accounts: make(map[string]*Account),
		byOwner:  make(map[string][]string),
	}
}

// Name returns the bank name.
func (b *Bank) Name() string {
	return b.name
}

// CreateAccount opens an account. Numbers must be 12 digits and unique
// within the bank; PINs must be 4 digits.
func (b *Bank) CreateAccount(owner, number, pin string, balance int64) (Account, error) {
	if !model.ValidCard(number) {
		return Account{}, &model.Error{Kind: model.KindInvalidCardFormat}
	}
	if !model.ValidPIN(pin) {
		return Account{}, &model.Error{Kind: model.KindInvalidPinFormat}
	}
	if balance < 0 {
		return Account{}, model.Errorf(model.KindInvalidAmount, 0, balance)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.accounts[number]; ok {
		return Account{}, &model.Error{Kind: model.KindDuplicateAccount}
	}
	acct := &Account{
		Bank:    b.name,
		Owner:   owner,
		Number:  number,
		PIN:     pin,
		Balance: balance,
	}
	b.accounts[number] = acct
	b.order = append(b.order, number)
	b.byOwner[owner] = append(b.byOwner[owner], number)
	return acct.clone(), nil
}

// Account returns a copy of an account by number.
func (b *Bank) Account(number string) (Account, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accounts[number]
	if !ok {
		return Account{}, false
	}
	return a.clone(), true
}

// Has reports whether the bank holds number.
func (b *Bank) Has(number string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.accounts[number]
	return ok
}

// Accounts returns copies of all accounts in creation order.
func (b *Bank) Accounts() []Account {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Account, 0, len(b.order))
	for _, n := range b.order {
		out = append(out, b.accounts[n].clone())
	}
	return out
}

// AccountsOf returns the account numbers held by owner, in creation order.
func (b *Bank) AccountsOf(owner string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.byOwner[owner])
}

// VerifyPIN reports whether pin matches the account's PIN.
func (b *Bank) VerifyPIN(number, pin string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accounts[number]
	return ok && a.PIN == pin
}

// Balance returns the current balance.
func (b *Bank) Balance(number string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accounts[number]
	if !ok {
		return 0, &model.Error{Kind: model.KindAccountNotFound}
	}
	return a.Balance, nil
}

// Credit adds amount to the balance and returns the new balance.
func (b *Bank) Credit(number string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, model.Errorf(model.KindInvalidAmount, 1, amount)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	a, ok := b.accounts[number]
	if !ok {
		return 0, &model.Error{Kind: model.KindAccountNotFound}
	}
	if a.Balance > math.MaxInt64-amount {
		return 0, model.Errorf(model.KindBalanceOverflow, math.MaxInt64-a.Balance, amount)
	}
	a.Balance += amount
	return a.Balance, nil
}

// Debit subtracts amount from the balance and returns the new balance.
// The balance never goes negative.
func (b *Bank) Debit(number string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, model.Errorf(model.KindInvalidAmount, 1, amount)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	a, ok := b.accounts[number]
	if !ok {
		return 0, &model.Error{Kind: model.KindAccountNotFound}
	}
	if a.Balance < amount {
		return 0, model.Errorf(model.KindInsufficientFunds, amount, a.Balance)
	}
	a.Balance -= amount
	return a.Balance, nil
}

// Record appends a transaction to the account's own history.
func (b *Bank) Record(number string, txn model.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accounts[number]
	if !ok {
		return &model.Error{Kind: model.KindAccountNotFound}
	}
	a.Transactions = append(a.Transactions, txn)
	return nil
}
