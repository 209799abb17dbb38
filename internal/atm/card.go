package atm

import (
	"go.uber.org/zap"

	"github.com/cleared-dev/teller/internal/model"
	"github.com/cleared-dev/teller/internal/session"
)

// CardResult describes an accepted card.
type CardResult struct {
	Admin     bool
	SessionID string
	Bank      string
	Primary   bool
}

// InsertCard accepts a card. The admin card opens an admin session at once;
// any other card is routed and waits for EnterPIN.
func (t *Terminal) InsertCard(card string) (CardResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session != nil || t.card != nil {
		return CardResult{}, model.ErrSessionActive
	}
	if !model.ValidCard(card) {
		t.log.Warn("card rejected", zap.String("reason", "format"))
		return CardResult{}, &model.Error{Kind: model.KindInvalidCardFormat}
	}

	if card == model.AdminCard {
		t.session = session.New(session.Params{
			Card:   card,
			Admin:  true,
			Limits: t.limits,
			Start:  t.now(),
		})
		t.log.Info("admin session started", zap.String("session", t.session.ID()))
		return CardResult{Admin: true, SessionID: t.session.ID()}, nil
	}

	r, err := t.Route(card)
	if err != nil {
		t.log.Warn("card rejected", zap.String("card", card), zap.Error(err))
		return CardResult{}, err
	}
	t.card = &pendingCard{
		number:   card,
		bank:     r.Bank,
		primary:  r.Primary,
		attempts: session.NewPinAttempts(t.limits.MaxPinAttempts),
	}
	return CardResult{Bank: r.Bank.Name(), Primary: r.Primary}, nil
}

// EnterPIN verifies the PIN for the inserted card and starts a session.
// A malformed PIN counts as a failed attempt. On the last failed attempt
// the card is retained and PinAttemptsExceeded is returned.
func (t *Terminal) EnterPIN(pin string) (CardResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c := t.card
	if c == nil {
		return CardResult{}, model.ErrNoCardInserted
	}

	var kind model.ErrorKind
	switch {
	case !model.ValidPIN(pin):
		kind = model.KindInvalidPinFormat
	case !c.bank.VerifyPIN(c.number, pin):
		kind = model.KindWrongPin
	}
	if kind != "" {
		left, _ := c.attempts.Fail()
		if left > 0 {
			t.log.Warn("pin rejected", zap.String("card", c.number), zap.Int("remaining", left))
			return CardResult{}, &model.Error{Kind: kind, Remaining: left}
		}
		t.retainCard()
		return CardResult{}, &model.Error{Kind: model.KindPinAttemptsExceeded, Err: &model.Error{Kind: kind}}
	}

	t.card = nil
	t.session = session.New(session.Params{
		Card:    c.number,
		Account: c.number,
		Bank:    c.bank.Name(),
		Primary: c.primary,
		Limits:  t.limits,
		Start:   t.now(),
	})
	t.log.Info("session started",
		zap.String("session", t.session.ID()),
		zap.String("card", c.number),
		zap.String("bank", c.bank.Name()),
	)
	return CardResult{SessionID: t.session.ID(), Bank: c.bank.Name(), Primary: c.primary}, nil
}

// retainCard keeps the pending card and ends any session with a card error.
func (t *Terminal) retainCard() {
	number := t.card.number
	t.card = nil
	t.retained = append(t.retained, number)
	if t.session != nil {
		t.session.End(session.ReasonCardRetained, t.now())
		t.session = nil
	}
	t.log.Warn("card retained", zap.String("card", number))
}

// Exit is returned when a session ends.
type Exit struct {
	Summary session.Summary
	Balance int64
}

// EndSession ends the active session, or ejects a card still waiting for
// its PIN.
func (t *Terminal) EndSession() (Exit, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		if t.card != nil {
			number := t.card.number
			t.card = nil
			t.log.Info("card ejected", zap.String("card", number))
			return Exit{Summary: session.Summary{Card: number, EndReason: session.ReasonExit}}, nil
		}
		return Exit{}, model.ErrNoActiveSession
	}
	return t.endSession(session.ReasonExit), nil
}

// Terminate ends whatever interaction is in progress.
func (t *Terminal) Terminate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.card = nil
	if t.session != nil {
		t.endSession(session.ReasonTerminated)
	}
}

func (t *Terminal) endSession(reason string) Exit {
	s := t.session
	s.End(reason, t.now())
	t.session = nil

	exit := Exit{Summary: s.Summary(t.now())}
	t.last = &exit.Summary
	if !s.Admin() {
		if r, err := t.Route(s.Account()); err == nil {
			exit.Balance = r.Account.Balance
		}
	}
	t.log.Info("session ended",
		zap.String("session", s.ID()),
		zap.String("reason", reason),
		zap.Int("transactions", exit.Summary.Transactions),
		zap.Duration("duration", exit.Summary.Duration),
	)
	return exit
}

// AdminHistory returns the terminal's transaction history to an admin
// session and ends that session.
func (t *Terminal) AdminHistory() ([]model.Transaction, Exit, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil || !t.session.Admin() {
		return nil, Exit{}, model.ErrAdminRequired
	}
	history := make([]model.Transaction, len(t.history))
	copy(history, t.history)
	exit := t.endSession(session.ReasonAdminComplete)
	return history, exit, nil
}
