package scenario

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/cleared-dev/teller/internal/atm"
	"github.com/cleared-dev/teller/internal/i18n"
	"github.com/cleared-dev/teller/internal/model"
	"github.com/cleared-dev/teller/internal/session"
)

// Built-in actions.
const (
	ActionSelectLanguage  = "select_language"
	ActionInsertCard      = "insert_card"
	ActionEnterPIN        = "enter_pin"
	ActionDepositCash     = "deposit_cash"
	ActionDepositCheck    = "deposit_check"
	ActionWithdraw        = "withdraw"
	ActionTransferCash    = "transfer_cash"
	ActionTransferAccount = "transfer_account"
	ActionQuote           = "quote"
	ActionRestock         = "restock"
	ActionAdminHistory    = "admin_history"
	ActionExit            = "exit"
)

// Amount is a message argument rendered as currency.
type Amount int64

// Message is a catalog key with its arguments.
type Message struct {
	Key  string
	Args []any
}

// Render formats m in the printer's language.
func (m Message) Render(p *i18n.Printer) string {
	args := make([]any, len(m.Args))
	for i, a := range m.Args {
		if v, ok := a.(Amount); ok {
			args[i] = p.Currency(int64(v))
		} else {
			args[i] = a
		}
	}
	return p.Message(m.Key, args...)
}

// Outcome is what one step produced.
type Outcome struct {
	Index    int
	Action   string
	Messages []Message
	History  []model.Transaction
	Err      error
}

// Kind returns the error kind of a failed step, or "".
func (o Outcome) Kind() model.ErrorKind {
	kind, _ := model.KindOf(o.Err)
	return kind
}

// Handler performs one step on a terminal.
type Handler func(term *atm.Terminal, st Step) ([]Message, error)

// Runner executes scenarios through a table of named handlers.
type Runner struct {
	handlers map[string]Handler
	catalog  *i18n.Catalog
	log      *zap.Logger

	history  []model.Transaction
	sessions []session.Summary
}

// NewRunner returns a Runner with every built-in action registered.
func NewRunner(log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Runner{
		handlers: make(map[string]Handler),
		catalog:  i18n.Default(),
		log:      log,
	}
	r.Register(ActionInsertCard, insertCard)
	r.Register(ActionEnterPIN, enterPIN)
	r.Register(ActionDepositCash, depositCash)
	r.Register(ActionDepositCheck, depositCheck)
	r.Register(ActionWithdraw, withdraw)
	r.Register(ActionTransferCash, transferCash)
	r.Register(ActionTransferAccount, transferAccount)
	r.Register(ActionQuote, quote)
	r.Register(ActionRestock, restock)
	r.Register(ActionAdminHistory, r.adminHistory)
	r.Register(ActionExit, r.exit)
	return r
}

// Register adds or replaces a handler.
func (r *Runner) Register(action string, h Handler) {
	r.handlers[action] = h
}

// Actions returns the registered action names, sorted. select_language is
// handled by the runner itself.
func (r *Runner) Actions() []string {
	names := make([]string, 0, len(r.handlers)+1)
	for name := range r.handlers {
		names = append(names, name)
	}
	names = append(names, ActionSelectLanguage)
	slices.Sort(names)
	return names
}

// Result is a completed run.
type Result struct {
	Outcomes []Outcome
	Printer  *i18n.Printer
	// History holds the transactions returned by admin_history steps.
	History  []model.Transaction
	// Sessions holds a summary of every session the run ended.
	Sessions []session.Summary
}

// ExpectationError reports a step whose outcome differed from its Expect.
type ExpectationError struct {
	Index  int
	Action string
	Want   string
	Got    string
}

func (e *ExpectationError) Error() string {
	want, got := e.Want, e.Got
	if want == "" {
		want = "success"
	}
	if got == "" {
		got = "success"
	}
	return fmt.Sprintf("step %d (%s): expected %s, got %s", e.Index+1, e.Action, want, got)
}

// Run executes sc against term. It stops at the first step whose outcome
// does not match its expectation and returns the outcomes so far.
func (r *Runner) Run(ctx context.Context, term *atm.Terminal, sc *Scenario) (*Result, error) {
	lang := model.English
	if sc.Language != "" {
		l, err := model.ParseLanguage(sc.Language)
		if err != nil {
			return nil, err
		}
		lang = l
	}
	r.history, r.sessions = nil, nil
	res := &Result{Printer: i18n.ForTerminal(r.catalog, term.LanguageMode(), lang)}

	for i, st := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		out := Outcome{Index: i, Action: st.Action}

		if st.Action == ActionSelectLanguage {
			l, err := model.ParseLanguage(st.Language)
			if err != nil {
				return res, fmt.Errorf("step %d: %w", i+1, err)
			}
			res.Printer = i18n.ForTerminal(r.catalog, term.LanguageMode(), l)
			out.Messages = []Message{{Key: i18n.KeyWelcome, Args: []any{term.Serial()}}}
			res.Outcomes = append(res.Outcomes, out)
			continue
		}

		h, ok := r.handlers[st.Action]
		if !ok {
			return res, fmt.Errorf("step %d: unknown action %q", i+1, st.Action)
		}
		out.Messages, out.Err = h(term, st)
		if st.Action == ActionAdminHistory && out.Err == nil {
			out.History = r.history
			res.History = append(res.History, r.history...)
		}
		res.Outcomes = append(res.Outcomes, out)
		res.Sessions = r.sessions

		got := string(out.Kind())
		if out.Err != nil && got == "" {
			got = out.Err.Error()
		}
		if !strings.EqualFold(got, st.Expect) {
			r.log.Warn("scenario step mismatch",
				zap.Int("step", i+1),
				zap.String("action", st.Action),
				zap.String("expect", st.Expect),
				zap.Error(out.Err),
			)
			return res, &ExpectationError{Index: i, Action: st.Action, Want: st.Expect, Got: got}
		}
		r.log.Debug("scenario step", zap.Int("step", i+1), zap.String("action", st.Action))
	}
	return res, nil
}

func insertCard(term *atm.Terminal, st Step) ([]Message, error) {
	res, err := term.InsertCard(st.Card)
	if err != nil {
		return nil, err
	}
	if res.Admin {
		return []Message{{Key: i18n.KeyAdminSession}}, nil
	}
	return []Message{
		{Key: i18n.KeyCardAccepted, Args: []any{res.Bank}},
		{Key: i18n.KeyEnterPIN},
	}, nil
}

func enterPIN(term *atm.Terminal, st Step) ([]Message, error) {
	res, err := term.EnterPIN(st.PIN)
	if err != nil {
		return nil, err
	}
	return []Message{{Key: i18n.KeySessionStarted, Args: []any{res.SessionID}}}, nil
}

func cashArg(m map[int]int) (model.Cash, error) {
	if len(m) == 0 {
		return nil, nil
	}
	c, err := model.CashFromInts(m)
	if err != nil {
		return nil, &model.Error{Kind: model.KindInvalidDenomination, Err: err}
	}
	return c, nil
}

func tender(st Step) (atm.FeeTender, error) {
	c, err := cashArg(st.Fee)
	if err != nil {
		return atm.FeeTender{}, err
	}
	return atm.FeeTender{Cash: c, AcceptChange: st.AcceptChange}, nil
}

func receipt(key string, rc atm.Receipt, args ...any) []Message {
	msgs := []Message{{Key: key, Args: append([]any{Amount(rc.Transaction.Amount)}, args...)}}
	if len(rc.Dispensed) > 0 {
		msgs = append(msgs, Message{Key: i18n.KeyDispensed, Args: []any{rc.Dispensed.String()}})
	}
	msgs = append(msgs, Message{Key: i18n.KeyFeeCharged, Args: []any{Amount(rc.Transaction.Fee)}})
	if rc.Change.Total() > 0 {
		msgs = append(msgs, Message{Key: i18n.KeyChangeAmount, Args: []any{Amount(rc.Change.Total())}})
	}
	return append(msgs, Message{Key: i18n.KeyCurrentBalance, Args: []any{Amount(rc.Balance)}})
}

func depositCash(term *atm.Terminal, st Step) ([]Message, error) {
	c, err := cashArg(st.Cash)
	if err != nil {
		return nil, err
	}
	fee, err := tender(st)
	if err != nil {
		return nil, err
	}
	rc, err := term.CashDeposit(atm.CashDepositRequest{Account: st.Account, Cash: c, Fee: fee})
	if err != nil {
		return nil, err
	}
	return receipt(i18n.KeyDepositSuccess, rc), nil
}

func depositCheck(term *atm.Terminal, st Step) ([]Message, error) {
	fee, err := tender(st)
	if err != nil {
		return nil, err
	}
	rc, err := term.CheckDeposit(atm.CheckDepositRequest{Account: st.Account, Amount: st.Amount, Fee: fee})
	if err != nil {
		return nil, err
	}
	return receipt(i18n.KeyDepositSuccess, rc), nil
}

func withdraw(term *atm.Terminal, st Step) ([]Message, error) {
	account := st.Account
	if account == "" {
		if s, ok := term.Session(); ok {
			account = s.Card
		}
	}
	rc, err := term.Withdraw(account, st.Amount)
	if err != nil {
		return nil, err
	}
	return receipt(i18n.KeyWithdrawalSuccess, rc), nil
}

func transferCash(term *atm.Terminal, st Step) ([]Message, error) {
	c, err := cashArg(st.Cash)
	if err != nil {
		return nil, err
	}
	fee, err := tender(st)
	if err != nil {
		return nil, err
	}
	rc, err := term.CashTransfer(atm.CashTransferRequest{Destination: st.Destination, Cash: c, Fee: fee})
	if err != nil {
		return nil, err
	}
	return receipt(i18n.KeyTransferSuccess, rc, st.Destination), nil
}

func transferAccount(term *atm.Terminal, st Step) ([]Message, error) {
	rc, err := term.AccountTransfer(st.Account, st.Destination, st.Amount)
	if err != nil {
		return nil, err
	}
	return receipt(i18n.KeyTransferSuccess, rc, st.Destination), nil
}

func quote(term *atm.Terminal, st Step) ([]Message, error) {
	typ, err := model.ParseTransactionType(st.Type)
	if err != nil {
		return nil, err
	}
	fee, err := term.Quote(typ, st.Account, st.Destination)
	if err != nil {
		return nil, err
	}
	return []Message{{Key: i18n.KeyFeeCharged, Args: []any{Amount(fee)}}}, nil
}

func restock(term *atm.Terminal, st Step) ([]Message, error) {
	c, err := cashArg(st.Cash)
	if err != nil {
		return nil, err
	}
	if err := term.AddCash(c); err != nil {
		return nil, err
	}
	return []Message{{Key: i18n.KeyCashRestocked, Args: []any{term.Inventory().String()}}}, nil
}

func (r *Runner) adminHistory(term *atm.Terminal, _ Step) ([]Message, error) {
	txns, ex, err := term.AdminHistory()
	if err != nil {
		return nil, err
	}
	r.history = txns
	r.sessions = append(r.sessions, ex.Summary)
	return append([]Message{{Key: i18n.KeyHistoryExported, Args: []any{len(txns)}}}, exitMessages(ex)...), nil
}

func (r *Runner) exit(term *atm.Terminal, _ Step) ([]Message, error) {
	ex, err := term.EndSession()
	if err != nil {
		return nil, err
	}
	if ex.Summary.ID != "" {
		r.sessions = append(r.sessions, ex.Summary)
	}
	return exitMessages(ex), nil
}

func exitMessages(ex atm.Exit) []Message {
	var msgs []Message
	if ex.Summary.ID != "" {
		msgs = append(msgs, Message{
			Key:  i18n.KeySessionSummary,
			Args: []any{ex.Summary.ID, ex.Summary.Duration.String(), ex.Summary.Transactions},
		})
		if !ex.Summary.Admin {
			msgs = append(msgs, Message{Key: i18n.KeyCurrentBalance, Args: []any{Amount(ex.Balance)}})
		}
	}
	return append(msgs, Message{Key: i18n.KeyGoodbye})
}

// IsExpectation reports whether err is a step mismatch rather than a
// malformed scenario.
func IsExpectation(err error) bool {
	var e *ExpectationError
	return errors.As(err, &e)
}
