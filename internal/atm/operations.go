package atm

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cleared-dev/teller/internal/accounts"
	"github.com/cleared-dev/teller/internal/cash"
	"github.com/cleared-dev/teller/internal/model"
	"github.com/cleared-dev/teller/internal/session"
)

// FeeTender is the cash a customer inserts to pay a fee. Tendering more
// than the fee needs AcceptChange; otherwise the operation is cancelled
// with ChangeDeclined carrying the fee and the amount tendered.
type FeeTender struct {
	Cash         model.Cash
	AcceptChange bool
}

// CashDepositRequest deposits bills into an account.
type CashDepositRequest struct {
	Account string
	Cash    model.Cash
	Fee     FeeTender
}

// CheckDepositRequest deposits a check into an account.
type CheckDepositRequest struct {
	Account string
	Amount  int64
	Fee     FeeTender
}

// CashTransferRequest pays bills into another account.
type CashTransferRequest struct {
	Destination string
	Cash        model.Cash
	Fee         FeeTender
}

// Receipt is the result of a completed operation.
type Receipt struct {
	Transaction model.Transaction
	Balance     int64
	Dispensed   model.Cash
	Change      model.Cash
}

// CashDeposit credits the inserted bills to an account. The fee is paid
// from a separate cash tender.
func (t *Terminal) CashDeposit(req CashDepositRequest) (Receipt, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.customerSession()
	if err != nil {
		return Receipt{}, err
	}
	r, err := t.Route(req.Account)
	if err != nil {
		return Receipt{}, t.fail(s, "cash deposit", err)
	}
	fee, err := t.Fee(model.TypeDeposit, r.Primary, false)
	if err != nil {
		return Receipt{}, t.fail(s, "cash deposit", err)
	}
	if err := t.checkBills(req.Cash); err != nil {
		return Receipt{}, t.fail(s, "cash deposit", err)
	}
	amount := req.Cash.Total()
	if amount <= 0 {
		return Receipt{}, t.fail(s, "cash deposit", model.Errorf(model.KindInvalidAmount, 1, amount))
	}
	change, err := t.settleFee(fee, req.Fee, req.Cash)
	if err != nil {
		return Receipt{}, t.fail(s, "cash deposit", err)
	}

	balance, err := t.credit(r.Bank, req.Account, amount)
	if err != nil {
		return Receipt{}, t.fail(s, "cash deposit", err)
	}
	if err := t.restock(change, req.Cash, req.Fee.Cash); err != nil {
		if rerr := t.reverseCredit(r.Bank, req.Account, amount); rerr != nil {
			return Receipt{}, t.fatal(s, "cash deposit", errors.Join(err, rerr))
		}
		return Receipt{}, t.fail(s, "cash deposit", err)
	}

	txn := t.record(s, model.TypeDeposit, amount, fee, "cash deposit", false, ref{r.Bank, req.Account})
	t.log.Info("cash deposit", fields(txn, req.Account)...)
	return Receipt{Transaction: txn, Balance: balance, Change: change}, nil
}

// CheckDeposit credits a check to an account. Checks under the minimum are
// rejected before the fee is computed.
func (t *Terminal) CheckDeposit(req CheckDepositRequest) (Receipt, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.customerSession()
	if err != nil {
		return Receipt{}, err
	}
	r, err := t.Route(req.Account)
	if err != nil {
		return Receipt{}, t.fail(s, "check deposit", err)
	}
	if req.Amount < t.limits.MinCheckAmount {
		return Receipt{}, t.fail(s, "check deposit", model.Errorf(model.KindInvalidCheckAmount, t.limits.MinCheckAmount, req.Amount))
	}
	if err := s.CanDepositCheck(); err != nil {
		return Receipt{}, t.fail(s, "check deposit", err)
	}
	fee, err := t.Fee(model.TypeDeposit, r.Primary, false)
	if err != nil {
		return Receipt{}, t.fail(s, "check deposit", err)
	}
	change, err := t.settleFee(fee, req.Fee, nil)
	if err != nil {
		return Receipt{}, t.fail(s, "check deposit", err)
	}

	balance, err := t.credit(r.Bank, req.Account, req.Amount)
	if err != nil {
		return Receipt{}, t.fail(s, "check deposit", err)
	}
	if err := t.restock(change, req.Fee.Cash); err != nil {
		if rerr := t.reverseCredit(r.Bank, req.Account, req.Amount); rerr != nil {
			return Receipt{}, t.fatal(s, "check deposit", errors.Join(err, rerr))
		}
		return Receipt{}, t.fail(s, "check deposit", err)
	}

	txn := t.record(s, model.TypeDeposit, req.Amount, fee, "check deposit", true, ref{r.Bank, req.Account})
	t.log.Info("check deposit", fields(txn, req.Account)...)
	return Receipt{Transaction: txn, Balance: balance, Change: change}, nil
}

// Withdraw dispenses amount from the session's account, which is debited
// amount plus the fee.
func (t *Terminal) Withdraw(account string, amount int64) (Receipt, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.customerSession()
	if err != nil {
		return Receipt{}, err
	}
	r, err := t.Route(account)
	if err != nil {
		return Receipt{}, t.fail(s, "withdrawal", err)
	}
	if account != s.Account() {
		return Receipt{}, t.fail(s, "withdrawal", model.ErrInvalidAccount)
	}
	fee, err := t.Fee(model.TypeWithdrawal, r.Primary, false)
	if err != nil {
		return Receipt{}, t.fail(s, "withdrawal", err)
	}

	if err := s.CanWithdraw(); err != nil {
		return Receipt{}, t.fail(s, "withdrawal", err)
	}
	if amount <= 0 {
		return Receipt{}, t.fail(s, "withdrawal", model.Errorf(model.KindInvalidAmount, 1, amount))
	}
	if amount > t.limits.MaxWithdrawalAmount {
		return Receipt{}, t.fail(s, "withdrawal", model.Errorf(model.KindMaxWithdrawalAmountExceeded, t.limits.MaxWithdrawalAmount, amount))
	}

	if !t.inventory.HasSufficient(amount) {
		return Receipt{}, t.fail(s, "withdrawal", model.Errorf(model.KindInsufficientCash, amount, t.inventory.Total()))
	}
	bills, ok := t.inventory.Breakdown(amount)
	if !ok {
		return Receipt{}, t.fail(s, "withdrawal", model.Errorf(model.KindInfeasibleDenomination, amount, t.inventory.Total()))
	}
	if n := bills.Bills(); n > t.limits.MaxBillsPerOperation {
		return Receipt{}, t.fail(s, "withdrawal", model.Errorf(model.KindMaxBillsExceeded, int64(t.limits.MaxBillsPerOperation), int64(n)))
	}

	total := amount + fee
	if r.Account.Balance < total {
		return Receipt{}, t.fail(s, "withdrawal", model.Errorf(model.KindInsufficientFunds, total, r.Account.Balance))
	}
	balance, err := t.debit(r.Bank, account, total)
	if err != nil {
		return Receipt{}, t.fail(s, "withdrawal", err)
	}
	if err := t.inventory.Remove(bills); err != nil {
		if rerr := t.reverseDebit(r.Bank, account, total); rerr != nil {
			return Receipt{}, t.fatal(s, "withdrawal", errors.Join(err, rerr))
		}
		return Receipt{}, t.fail(s, "withdrawal", err)
	}

	txn := t.record(s, model.TypeWithdrawal, amount, fee, "cash withdrawal "+bills.String(), false, ref{r.Bank, account})
	t.log.Info("withdrawal", fields(txn, account)...)
	return Receipt{Transaction: txn, Balance: balance, Dispensed: bills}, nil
}

// CashTransfer credits inserted bills to a destination account for a fixed
// fee paid from a separate tender.
func (t *Terminal) CashTransfer(req CashTransferRequest) (Receipt, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.customerSession()
	if err != nil {
		return Receipt{}, err
	}
	dst, err := t.routeDestination(req.Destination)
	if err != nil {
		return Receipt{}, t.fail(s, "cash transfer", err)
	}
	fee, err := t.Fee(model.TypeCashTransfer, s.Primary(), dst.Primary)
	if err != nil {
		return Receipt{}, t.fail(s, "cash transfer", err)
	}
	if err := t.checkBills(req.Cash); err != nil {
		return Receipt{}, t.fail(s, "cash transfer", err)
	}
	amount := req.Cash.Total()
	if amount <= 0 {
		return Receipt{}, t.fail(s, "cash transfer", model.Errorf(model.KindInvalidAmount, 1, amount))
	}
	change, err := t.settleFee(fee, req.Fee, req.Cash)
	if err != nil {
		return Receipt{}, t.fail(s, "cash transfer", err)
	}

	if _, err := t.credit(dst.Bank, req.Destination, amount); err != nil {
		return Receipt{}, t.fail(s, "cash transfer", err)
	}
	if err := t.restock(change, req.Cash, req.Fee.Cash); err != nil {
		if rerr := t.reverseCredit(dst.Bank, req.Destination, amount); rerr != nil {
			return Receipt{}, t.fatal(s, "cash transfer", errors.Join(err, rerr))
		}
		return Receipt{}, t.fail(s, "cash transfer", err)
	}

	txn := t.record(s, model.TypeCashTransfer, amount, fee, "cash transfer to "+req.Destination, false, ref{dst.Bank, req.Destination})
	t.log.Info("cash transfer", fields(txn, req.Destination)...)

	// The receipt shows the cardholder's balance, not the recipient's.
	rec := Receipt{Transaction: txn, Change: change}
	if own, err := t.Route(s.Account()); err == nil {
		rec.Balance = own.Account.Balance
	}
	return rec, nil
}

// AccountTransfer moves amount from the session's account to dest. The
// source pays amount plus the fee; the destination receives amount. If the
// destination cannot be credited the source is refunded in full and nothing
// is recorded. A refund that also fails ends the session as fatal-error.
func (t *Terminal) AccountTransfer(source, dest string, amount int64) (Receipt, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.customerSession()
	if err != nil {
		return Receipt{}, err
	}
	src, err := t.Route(source)
	if err != nil {
		return Receipt{}, t.fail(s, "account transfer", err)
	}
	if source != s.Account() {
		return Receipt{}, t.fail(s, "account transfer", model.ErrInvalidAccount)
	}
	if dest == source {
		return Receipt{}, t.fail(s, "account transfer", &model.Error{Kind: model.KindInvalidDestinationAccount})
	}
	dst, err := t.routeDestination(dest)
	if err != nil {
		return Receipt{}, t.fail(s, "account transfer", err)
	}
	fee, err := t.Fee(model.TypeAccountTransfer, src.Primary, dst.Primary)
	if err != nil {
		return Receipt{}, t.fail(s, "account transfer", err)
	}
	if amount <= 0 {
		return Receipt{}, t.fail(s, "account transfer", model.Errorf(model.KindInvalidAmount, 1, amount))
	}

	total := amount + fee
	if src.Account.Balance < total {
		return Receipt{}, t.fail(s, "account transfer", model.Errorf(model.KindInsufficientFunds, total, src.Account.Balance))
	}
	balance, err := t.debit(src.Bank, source, total)
	if err != nil {
		return Receipt{}, t.fail(s, "account transfer", err)
	}
	if _, err := t.credit(dst.Bank, dest, amount); err != nil {
		err = fmt.Errorf("crediting %s: %w", dest, err)
		if rerr := t.reverseDebit(src.Bank, source, total); rerr != nil {
			return Receipt{}, t.fatal(s, "account transfer", errors.Join(err, rerr))
		}
		return Receipt{}, t.fail(s, "account transfer", err)
	}

	txn := t.record(s, model.TypeAccountTransfer, amount, fee, "transfer to "+dest, false,
		ref{src.Bank, source}, ref{dst.Bank, dest})
	t.log.Info("account transfer", append(fields(txn, source), zap.String("destination", dest))...)
	return Receipt{Transaction: txn, Balance: balance}, nil
}

// customerSession returns the active non-admin session.
func (t *Terminal) customerSession() (*session.Session, error) {
	if t.session == nil || !t.session.Active() {
		return nil, model.ErrNoActiveSession
	}
	if t.session.Admin() {
		return nil, &model.Error{Kind: model.KindNoActiveSession, Err: errors.New("admin session cannot transact")}
	}
	return t.session, nil
}

// checkBills validates inserted bills against the denomination set and the
// per-operation bill cap.
func (t *Terminal) checkBills(c model.Cash) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if n := c.Bills(); n > t.limits.MaxBillsPerOperation {
		return model.Errorf(model.KindMaxBillsExceeded, int64(t.limits.MaxBillsPerOperation), int64(n))
	}
	return nil
}

// settleFee checks a fee tender and returns the change bills owed. Change
// is drawn from the inventory plus everything inserted in this operation.
func (t *Terminal) settleFee(fee int64, tender FeeTender, incoming model.Cash) (model.Cash, error) {
	if err := t.checkBills(tender.Cash); err != nil {
		return nil, err
	}
	paid := tender.Cash.Total()
	if paid < fee {
		return nil, model.Errorf(model.KindInsufficientFee, fee, paid)
	}
	if paid == fee {
		return nil, nil
	}
	if !tender.AcceptChange {
		return nil, model.Errorf(model.KindChangeDeclined, fee, paid)
	}
	avail := cash.Merge(cash.Merge(t.inventory.Snapshot(), incoming), tender.Cash)
	change, ok := cash.Breakdown(avail, paid-fee)
	if !ok {
		return nil, model.Errorf(model.KindInfeasibleDenomination, paid-fee, avail.Total())
	}
	return change, nil
}

// restock adds every inserted bill set, then pays out change.
func (t *Terminal) restock(change model.Cash, in ...model.Cash) error {
	before := t.inventory.Snapshot()
	for _, c := range in {
		if err := t.inventory.Add(c); err != nil {
			t.resetInventory(before)
			return err
		}
	}
	if err := t.inventory.Remove(change); err != nil {
		t.resetInventory(before)
		return err
	}
	return nil
}

func (t *Terminal) resetInventory(c model.Cash) {
	inv, err := cash.NewInventory(c)
	if err != nil {
		t.log.Error("restoring inventory", zap.Error(err))
		return
	}
	t.inventory = inv
}

func (t *Terminal) reverseCredit(b *accounts.Bank, number string, amount int64) error {
	if _, err := t.debit(b, number, amount); err != nil {
		t.log.Error("reversing credit", zap.String("account", number), zap.Int64("amount", amount), zap.Error(err))
		return fmt.Errorf("reclaiming %s: %w", number, err)
	}
	t.log.Info("credit reversed", zap.String("account", number), zap.Int64("amount", amount))
	return nil
}

func (t *Terminal) reverseDebit(b *accounts.Bank, number string, amount int64) error {
	if _, err := t.credit(b, number, amount); err != nil {
		t.log.Error("reversing debit", zap.String("account", number), zap.Int64("amount", amount), zap.Error(err))
		return fmt.Errorf("refunding %s: %w", number, err)
	}
	t.log.Info("debit reversed", zap.String("account", number), zap.Int64("amount", amount))
	return nil
}

type ref struct {
	bank   *accounts.Bank
	number string
}

// record builds the transaction and appends it to the session, the
// terminal history and each touched account.
func (t *Terminal) record(s *session.Session, typ model.TransactionType, amount, fee int64, detail string, check bool, refs ...ref) model.Transaction {
	txn := model.Transaction{
		ID:        t.ids.Next(),
		Card:      s.Card(),
		Type:      typ,
		Amount:    amount,
		Fee:       fee,
		Timestamp: t.now(),
		Detail:    detail,
	}
	var err error
	if check {
		err = s.RecordCheckDeposit(txn)
	} else {
		err = s.Record(txn)
	}
	if err != nil {
		t.log.Error("recording in session", zap.String("id", txn.ID), zap.Error(err))
	}
	t.history = append(t.history, txn)
	for _, r := range refs {
		if err := r.bank.Record(r.number, txn); err != nil {
			t.log.Error("recording on account", zap.String("id", txn.ID), zap.String("account", r.number), zap.Error(err))
		}
	}
	return txn
}

// fail notes a failed operation on the session and logs it.
func (t *Terminal) fail(s *session.Session, op string, err error) error {
	s.Fail(err)
	t.log.Warn(op+" failed", zap.String("session", s.ID()), zap.Error(err))
	return err
}

// fatal notes an unrecoverable failure, where balances could not be put
// back, and ends the session.
func (t *Terminal) fatal(s *session.Session, op string, err error) error {
	s.Fail(err)
	t.log.Error(op+" failed, ending session", zap.String("session", s.ID()), zap.Error(err))
	t.endSession(session.ReasonFatalError)
	return err
}

func fields(txn model.Transaction, account string) []zap.Field {
	return []zap.Field{
		zap.String("id", txn.ID),
		zap.String("account", account),
		zap.Int64("amount", txn.Amount),
		zap.Int64("fee", txn.Fee),
	}
}
