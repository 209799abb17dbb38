// Package session holds the state of one card-in-terminal interaction.
package session

import (
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/cleared-dev/teller/internal/model"
)

// State is the session lifecycle state. A terminal without a session is in
// the no-session state.
type State string

const (
	StateActive State = "active"
	StateEnded  State = "ended"
)

// End reasons.
const (
	ReasonExit          = "exit"
	ReasonCardRetained  = "card-retained"
	ReasonAdminComplete = "admin-complete"
	ReasonFatalError    = "fatal-error"
	ReasonTerminated    = "terminated"
)

// Status is the error flag block a session accumulates.
type Status struct {
	InsufficientFunds bool
	InsufficientCash  bool
	CardError         bool
	SystemError       bool
	LastError         string
}

// Params is everything a session needs from its terminal at creation.
type Params struct {
	ID      string
	Card    string
	Account string
	Bank    string
	Primary bool
	Admin   bool
	Limits  model.Limits
	Start   time.Time
}

// Session is owned by exactly one terminal and holds no reference back to it.
type Session struct {
	p            Params
	state        State
	end          time.Time
	endReason    string
	withdrawals  int
	checks       int
	transactions []model.Transaction
	status       Status
}

// NewID returns a random session ID.
func NewID() string {
	return uuid.NewString()
}

// New starts an active session.
func New(p Params) *Session {
	if p.ID == "" {
		p.ID = NewID()
	}
	return &Session{p: p, state: StateActive}
}

func (s *Session) ID() string { return s.p.ID }
func (s *Session) Card() string { return s.p.Card }
func (s *Session) Account() string { return s.p.Account }
func (s *Session) Bank() string { return s.p.Bank }
func (s *Session) Primary() bool { return s.p.Primary }
func (s *Session) Admin() bool { return s.p.Admin }
func (s *Session) Start() time.Time { return s.p.Start }
func (s *Session) State() State { return s.state }
func (s *Session) Active() bool { return s.state == StateActive }
func (s *Session) Withdrawals() int { return s.withdrawals }
func (s *Session) CheckDeposits() int { return s.checks }
func (s *Session) Status() Status { return s.status }
func (s *Session) EndReason() string { return s.endReason }

// Transactions returns a copy of the transactions recorded so far.
func (s *Session) Transactions() []model.Transaction {
	return slices.Clone(s.transactions)
}

// CanWithdraw reports whether another withdrawal is allowed.
func (s *Session) CanWithdraw() error {
	if !s.Active() {
		return model.ErrSessionEnded
	}
	if limit := s.p.Limits.MaxWithdrawalsPerSession; s.withdrawals >= limit {
		return model.Errorf(model.KindMaxWithdrawalsExceeded, int64(limit), int64(s.withdrawals+1))
	}
	return nil
}

// CanDepositCheck reports whether another check deposit is allowed.
func (s *Session) CanDepositCheck() error {
	if !s.Active() {
		return model.ErrSessionEnded
	}
	if limit := s.p.Limits.MaxChecksPerSession; s.checks >= limit {
		return model.Errorf(model.KindMaxCheckDepositsExceeded, int64(limit), int64(s.checks+1))
	}
	return nil
}

// Record appends a completed transaction. Withdrawals count toward the
// session cap.
func (s *Session) Record(txn model.Transaction) error {
	if !s.Active() {
		return model.ErrSessionEnded
	}
	if txn.Type == model.TypeWithdrawal {
		if err := s.CanWithdraw(); err != nil {
			return err
		}
		s.withdrawals++
	}
	s.transactions = append(s.transactions, txn)
	return nil
}

// RecordCheckDeposit appends a check deposit and counts it.
func (s *Session) RecordCheckDeposit(txn model.Transaction) error {
	if err := s.CanDepositCheck(); err != nil {
		return err
	}
	s.checks++
	s.transactions = append(s.transactions, txn)
	return nil
}

// Fail sets the status flags for a failed operation.
func (s *Session) Fail(err error) {
	if err == nil {
		return
	}
	s.status.LastError = err.Error()
	kind, ok := model.KindOf(err)
	if !ok {
		s.status.SystemError = true
		return
	}
	switch kind {
	case model.KindInsufficientFunds:
		s.status.InsufficientFunds = true
	case model.KindInsufficientCash, model.KindInfeasibleDenomination:
		s.status.InsufficientCash = true
	case model.KindWrongPin, model.KindPinAttemptsExceeded, model.KindInvalidPinFormat:
		s.status.CardError = true
	case model.KindBalanceOverflow:
		s.status.SystemError = true
	}
}

// End moves the session to the ended state. Ending twice keeps the first
// reason.
func (s *Session) End(reason string, at time.Time) {
	if s.state == StateEnded {
		return
	}
	s.state = StateEnded
	s.end = at
	s.endReason = reason
	switch reason {
	case ReasonCardRetained:
		s.status.CardError = true
	case ReasonFatalError:
		s.status.SystemError = true
	}
}

// Summary describes a session for the exit screen.
type Summary struct {
	ID           string
	Card         string
	Bank         string
	Admin        bool
	Start        time.Time
	Duration     time.Duration
	Transactions int
	EndReason    string
	Status       Status
}

// Summary reports the session as of now, or as of its end if ended.
func (s *Session) Summary(now time.Time) Summary {
	until := now
	if s.state == StateEnded {
		until = s.end
	}
	return Summary{
		ID:           s.p.ID,
		Card:         s.p.Card,
		Bank:         s.p.Bank,
		Admin:        s.p.Admin,
		Start:        s.p.Start,
		Duration:     until.Sub(s.p.Start),
		Transactions: len(s.transactions),
		EndReason:    s.endReason,
		Status:       s.status,
	}
}

// ErrNoAttemptsLeft is returned by PinAttempts.Fail once the limit is hit.
var ErrNoAttemptsLeft = errors.New("no PIN attempts left")

// PinAttempts counts failed PIN entries for one inserted card.
type PinAttempts struct {
	limit  int
	failed int
}

// NewPinAttempts allows limit failed attempts.
func NewPinAttempts(limit int) *PinAttempts {
	return &PinAttempts{limit: limit}
}

// Fail records a failed attempt and returns the attempts left. The card is
// retained when it returns zero.
func (p *PinAttempts) Fail() (int, error) {
	if p.failed >= p.limit {
		return 0, ErrNoAttemptsLeft
	}
	p.failed++
	return p.limit - p.failed, nil
}

// Remaining returns attempts left.
func (p *PinAttempts) Remaining() int {
	return p.limit - p.failed
}
