// Package atm is the terminal transaction engine: account routing, fees,
// cash inventory, the card and PIN flow, and deposit, withdrawal and
// transfer operations.
package atm

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cleared-dev/teller/internal/accounts"
	"github.com/cleared-dev/teller/internal/cash"
	"github.com/cleared-dev/teller/internal/fee"
	"github.com/cleared-dev/teller/internal/id"
	"github.com/cleared-dev/teller/internal/model"
	"github.com/cleared-dev/teller/internal/session"
	"github.com/cleared-dev/teller/internal/validator"
)

// Config describes one terminal. Zero Fees or Limits mean the defaults.
type Config struct {
	Serial    string
	Mode      model.BankMode
	Language  model.LanguageMode
	Primary   string
	Connected []string
	Cash      model.Cash
	Fees      fee.Schedule
	Limits    model.Limits
}

// Option configures a Terminal.
type Option func(*Terminal)

// WithLogger sets the logger. The default discards.
func WithLogger(l *zap.Logger) Option {
	return func(t *Terminal) { t.log = l }
}

// WithClock sets the time source for sessions and transactions.
func WithClock(now func() time.Time) Option {
	return func(t *Terminal) { t.now = now }
}

// Terminal is one ATM. All operations are serialized on the terminal, and
// balance changes are serialized per bank, so several terminals may share a
// registry.
type Terminal struct {
	mu        sync.Mutex
	serial    string
	mode      model.BankMode
	language  model.LanguageMode
	primary   *accounts.Bank
	connected []*accounts.Bank
	inventory *cash.Inventory
	fees      fee.Schedule
	limits    model.Limits
	ids       *id.Sequencer
	now       func() time.Time
	log       *zap.Logger

	// Balance postings go through these so a failing bank can be simulated.
	credit func(b *accounts.Bank, number string, amount int64) (int64, error)
	debit  func(b *accounts.Bank, number string, amount int64) (int64, error)

	card     *pendingCard
	session  *session.Session
	history  []model.Transaction
	retained []string
	last     *session.Summary
}

type pendingCard struct {
	number   string
	bank     *accounts.Bank
	primary  bool
	attempts *session.PinAttempts
}

// New builds a terminal over the banks in reg.
func New(reg *accounts.Registry, cfg Config, opts ...Option) (*Terminal, error) {
	if !id.ValidSerial(cfg.Serial) {
		return nil, fmt.Errorf("invalid terminal serial %q", cfg.Serial)
	}
	mode, err := model.ParseBankMode(string(cfg.Mode))
	if err != nil {
		return nil, fmt.Errorf("terminal %s: %w", cfg.Serial, err)
	}
	lang, err := model.ParseLanguageMode(string(cfg.Language))
	if err != nil {
		return nil, fmt.Errorf("terminal %s: %w", cfg.Serial, err)
	}

	primary, ok := reg.Bank(cfg.Primary)
	if !ok {
		return nil, fmt.Errorf("terminal %s: primary bank %q not found", cfg.Serial, cfg.Primary)
	}

	var connected []*accounts.Bank
	if mode == model.ModeSingleBank && len(cfg.Connected) > 0 {
		return nil, fmt.Errorf("terminal %s: single-bank terminal cannot have connected banks", cfg.Serial)
	}
	for _, name := range cfg.Connected {
		if name == cfg.Primary {
			continue
		}
		b, ok := reg.Bank(name)
		if !ok {
			return nil, fmt.Errorf("terminal %s: connected bank %q not found", cfg.Serial, name)
		}
		if slices.Contains(connected, b) {
			continue
		}
		connected = append(connected, b)
	}

	fees := cfg.Fees
	if fees == (fee.Schedule{}) {
		fees = fee.DefaultSchedule()
	}
	if err := fees.Validate(); err != nil {
		return nil, fmt.Errorf("terminal %s: %w", cfg.Serial, err)
	}
	limits := cfg.Limits
	if limits == (model.Limits{}) {
		limits = model.DefaultLimits()
	}
	if err := validator.Struct(limits); err != nil {
		return nil, fmt.Errorf("terminal %s: limits: %w", cfg.Serial, err)
	}

	inv, err := cash.NewInventory(cfg.Cash)
	if err != nil {
		return nil, fmt.Errorf("terminal %s: %w", cfg.Serial, err)
	}

	t := &Terminal{
		serial:    cfg.Serial,
		mode:      mode,
		language:  lang,
		primary:   primary,
		connected: connected,
		inventory: inv,
		fees:      fees,
		limits:    limits,
		ids:       id.NewSequencer(cfg.Serial),
		now:       time.Now,
		log:       zap.NewNop(),
		credit:    (*accounts.Bank).Credit,
		debit:     (*accounts.Bank).Debit,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.log = t.log.With(zap.String("serial", t.serial))
	return t, nil
}

func (t *Terminal) Serial() string { return t.serial }
func (t *Terminal) Mode() model.BankMode { return t.mode }
func (t *Terminal) LanguageMode() model.LanguageMode { return t.language }
func (t *Terminal) PrimaryBank() string { return t.primary.Name() }
func (t *Terminal) Limits() model.Limits { return t.limits }
func (t *Terminal) Fees() fee.Schedule { return t.fees }

// ConnectedBanks returns the connected bank names in routing order.
func (t *Terminal) ConnectedBanks() []string {
	names := make([]string, len(t.connected))
	for i, b := range t.connected {
		names[i] = b.Name()
	}
	return names
}

// Route is where an account number resolved to.
type Route struct {
	Bank    *accounts.Bank
	Account accounts.Account
	Primary bool
}

// Route finds an account in the primary bank, then in connected banks in
// order on a multi-bank terminal.
func (t *Terminal) Route(number string) (Route, error) {
	if a, ok := t.primary.Account(number); ok {
		return Route{Bank: t.primary, Account: a, Primary: true}, nil
	}
	if t.mode == model.ModeMultiBank {
		for _, b := range t.connected {
			if a, ok := b.Account(number); ok {
				return Route{Bank: b, Account: a}, nil
			}
		}
	}
	return Route{}, &model.Error{Kind: model.KindAccountNotFound}
}

// Fee returns the fee for a transaction type and bank classification.
func (t *Terminal) Fee(typ model.TransactionType, srcPrimary, dstPrimary bool) (int64, error) {
	return t.fees.Compute(typ, srcPrimary, dstPrimary)
}

// Quote routes the accounts an operation would touch and returns its fee.
// dest is only used for transfers.
func (t *Terminal) Quote(typ model.TransactionType, source, dest string) (int64, error) {
	switch typ {
	case model.TypeDeposit, model.TypeWithdrawal:
		src, err := t.Route(source)
		if err != nil {
			return 0, err
		}
		return t.Fee(typ, src.Primary, false)
	case model.TypeCashTransfer:
		if _, err := t.routeDestination(dest); err != nil {
			return 0, err
		}
		return t.Fee(typ, false, false)
	case model.TypeAccountTransfer:
		src, err := t.Route(source)
		if err != nil {
			return 0, err
		}
		dst, err := t.routeDestination(dest)
		if err != nil {
			return 0, err
		}
		return t.Fee(typ, src.Primary, dst.Primary)
	default:
		return 0, fmt.Errorf("no fee for transaction type %q", typ)
	}
}

func (t *Terminal) routeDestination(number string) (Route, error) {
	r, err := t.Route(number)
	if errors.Is(err, model.ErrAccountNotFound) {
		return Route{}, &model.Error{Kind: model.KindInvalidDestinationAccount, Err: err}
	}
	return r, err
}

// Inventory returns a copy of the bill counts.
func (t *Terminal) Inventory() model.Cash {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inventory.Snapshot()
}

// CashTotal returns the value of bills held.
func (t *Terminal) CashTotal() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inventory.Total()
}

// HasSufficientCash reports whether the held value covers amount.
func (t *Terminal) HasSufficientCash(amount int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inventory.HasSufficient(amount)
}

// CashBreakdown returns the bills that would be dispensed for amount.
func (t *Terminal) CashBreakdown(amount int64) (model.Cash, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inventory.Breakdown(amount)
}

// AddCash restocks the terminal.
func (t *Terminal) AddCash(c model.Cash) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.inventory.Add(c); err != nil {
		return fmt.Errorf("restocking: %w", err)
	}
	t.log.Info("cash restocked", zap.Int64("amount", c.Total()), zap.Int("bills", c.Bills()))
	return nil
}

// History returns a copy of every transaction the terminal has recorded.
func (t *Terminal) History() []model.Transaction {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.history)
}

// Retained returns the card numbers kept after PIN exhaustion.
func (t *Terminal) Retained() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.retained)
}

// Session returns a summary of the active session, if any.
func (t *Terminal) Session() (session.Summary, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return session.Summary{}, false
	}
	return t.session.Summary(t.now()), true
}

// LastSession returns the summary of the most recently ended session.
func (t *Terminal) LastSession() (session.Summary, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.last == nil {
		return session.Summary{}, false
	}
	return *t.last, true
}
