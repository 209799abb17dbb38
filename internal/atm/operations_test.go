package atm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/teller/internal/accounts"
	"github.com/cleared-dev/teller/internal/cash"
	"github.com/cleared-dev/teller/internal/model"
	"github.com/cleared-dev/teller/internal/session"
)

func feeCash(n int) FeeTender {
	return FeeTender{Cash: model.Cash{model.Bill1000: n}}
}

func TestWithdrawScenario(t *testing.T) {
	reg := newRegistry(t)
	term := newTerminal(t, reg, model.ModeSingleBank, fullCash())
	login(t, term, cardJane, "1234")
	before := term.Inventory()

	rec, err := term.Withdraw(cardJane, 30000)
	require.NoError(t, err)

	assert.Equal(t, model.Cash{model.Bill10000: 3}, rec.Dispensed)
	assert.Equal(t, int64(30000), rec.Dispensed.Total())
	assert.Equal(t, int64(1000), rec.Transaction.Fee)
	assert.Equal(t, int64(1_000_000-31_000), rec.Balance)
	assert.Equal(t, int64(1_000_000-31_000), balance(t, reg, "Kakao", cardJane))

	after := term.Inventory()
	for _, d := range model.Denominations {
		assert.Equal(t, before[d]-rec.Dispensed[d], after[d], "denomination %d", d)
	}
}

func TestWithdrawNonPrimaryFee(t *testing.T) {
	reg := newRegistry(t)
	term := newTerminal(t, reg, model.ModeMultiBank, fullCash())
	login(t, term, cardMin, "4321")

	rec, err := term.Withdraw(cardMin, 10000)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), rec.Transaction.Fee)
	assert.Equal(t, int64(300_000-12_000), balance(t, reg, "Shinhan", cardMin))
}

func TestWithdrawInsufficientCashLeavesStateUnchanged(t *testing.T) {
	reg := newRegistry(t)
	term := newTerminal(t, reg, model.ModeSingleBank, model.Cash{model.Bill10000: 2})
	login(t, term, cardJane, "1234")

	_, err := term.Withdraw(cardJane, 30000)
	var e *model.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, model.KindInsufficientCash, e.Kind)
	assert.Equal(t, int64(30000), e.Expected)
	assert.Equal(t, int64(20000), e.Supplied)

	assert.Equal(t, model.Cash{model.Bill10000: 2}, term.Inventory())
	assert.Equal(t, int64(1_000_000), balance(t, reg, "Kakao", cardJane))
	assert.Empty(t, term.History())
}

func TestWithdrawInfeasibleDenomination(t *testing.T) {
	reg := newRegistry(t)
	term := newTerminal(t, reg, model.ModeSingleBank, model.Cash{model.Bill50000: 4})
	login(t, term, cardJane, "1234")

	assert.True(t, term.HasSufficientCash(30000))
	_, err := term.Withdraw(cardJane, 30000)
	assert.ErrorIs(t, err, model.ErrInfeasibleDenomination)

	assert.Equal(t, model.Cash{model.Bill50000: 4}, term.Inventory())
	assert.Equal(t, int64(1_000_000), balance(t, reg, "Kakao", cardJane))

	sum, _ := term.Session()
	assert.True(t, sum.Status.InsufficientCash)
}

func TestWithdrawInsufficientFunds(t *testing.T) {
	reg := newRegistry(t)
	term := newTerminal(t, reg, model.ModeSingleBank, fullCash())
	login(t, term, cardJoon, "1111")

	_, err := term.Withdraw(cardJoon, 50000)
	var e *model.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, model.KindInsufficientFunds, e.Kind)
	assert.Equal(t, int64(51000), e.Expected)
	assert.Equal(t, int64(50000), e.Supplied)
	assert.Equal(t, fullCash(), term.Inventory())
}

func TestWithdrawLimits(t *testing.T) {
	reg := newRegistry(t)
	term := newTerminal(t, reg, model.ModeSingleBank, fullCash())
	login(t, term, cardJane, "1234")

	_, err := term.Withdraw(cardJane, 0)
	assert.ErrorIs(t, err, model.ErrInvalidAmount)

	_, err = term.Withdraw(cardJane, 501_000)
	assert.ErrorIs(t, err, model.ErrMaxWithdrawalAmountExceeded)

	_, err = term.Withdraw(cardJoon, 10000)
	assert.ErrorIs(t, err, model.ErrInvalidAccount)

	_, err = term.Withdraw(cardWoori, 10000)
	assert.ErrorIs(t, err, model.ErrAccountNotFound)
}

func TestWithdrawBillCap(t *testing.T) {
	reg := newRegistry(t)
	term := newTerminal(t, reg, model.ModeSingleBank, model.Cash{model.Bill1000: 100})
	login(t, term, cardJane, "1234")

	_, err := term.Withdraw(cardJane, 51000)
	assert.ErrorIs(t, err, model.ErrMaxBillsExceeded)
	assert.Equal(t, 100, term.Inventory()[model.Bill1000])
}

func TestWithdrawCountCapBeforeBalanceAndCash(t *testing.T) {
	reg := newRegistry(t)
	term := newTerminal(t, reg, model.ModeSingleBank, model.Cash{model.Bill10000: 3})
	login(t, term, cardJane, "1234")

	for range 3 {
		_, err := term.Withdraw(cardJane, 10000)
		require.NoError(t, err)
	}
	assert.Empty(t, term.Inventory())
	before := balance(t, reg, "Kakao", cardJane)

	// The terminal is empty, so a cash check would fail first if it ran.
	_, err := term.Withdraw(cardJane, 10000)
	var e *model.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, model.KindMaxWithdrawalsExceeded, e.Kind)
	assert.Equal(t, int64(3), e.Expected)

	assert.Equal(t, before, balance(t, reg, "Kakao", cardJane))
	assert.Len(t, term.History(), 3)

	_, err = term.EndSession()
	require.NoError(t, err)
	login(t, term, cardJane, "1234")
	_, err = term.Withdraw(cardJane, 10000)
	assert.ErrorIs(t, err, model.ErrInsufficientCash)
}

func TestCheckDepositMinimum(t *testing.T) {
	reg := newRegistry(t)
	term := newTerminal(t, reg, model.ModeSingleBank, fullCash())
	login(t, term, cardJane, "1234")

	_, err := term.CheckDeposit(CheckDepositRequest{Account: cardJane, Amount: 99_999, Fee: feeCash(1)})
	var e *model.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, model.KindInvalidCheckAmount, e.Kind)
	assert.Equal(t, int64(100_000), e.Expected)
	assert.Equal(t, int64(99_999), e.Supplied)

	rec, err := term.CheckDeposit(CheckDepositRequest{Account: cardJane, Amount: 100_000, Fee: feeCash(1)})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), rec.Transaction.Fee)
	assert.Equal(t, int64(1_100_000), rec.Balance)
	assert.Equal(t, "check deposit", rec.Transaction.Detail)
	assert.Equal(t, 11, term.Inventory()[model.Bill1000])
}

func TestCheckDepositCap(t *testing.T) {
	reg := newRegistry(t)
	limits := model.DefaultLimits()
	limits.MaxChecksPerSession = 1
	term, err := New(reg, Config{
		Serial:   "100001",
		Mode:     model.ModeSingleBank,
		Language: model.LanguageUnilingual,
		Primary:  "Kakao",
		Limits:   limits,
	})
	require.NoError(t, err)
	login(t, term, cardJane, "1234")

	_, err = term.CheckDeposit(CheckDepositRequest{Account: cardJane, Amount: 100_000, Fee: feeCash(1)})
	require.NoError(t, err)
	_, err = term.CheckDeposit(CheckDepositRequest{Account: cardJane, Amount: 100_000, Fee: feeCash(1)})
	assert.ErrorIs(t, err, model.ErrMaxCheckDepositsExceeded)
	assert.Equal(t, int64(1_100_000), balance(t, reg, "Kakao", cardJane))
}

func TestCashDeposit(t *testing.T) {
	reg := newRegistry(t)
	term := newTerminal(t, reg, model.ModeMultiBank, fullCash())
	login(t, term, cardMin, "4321")

	rec, err := term.CashDeposit(CashDepositRequest{
		Account: cardMin,
		Cash:    model.Cash{model.Bill50000: 1, model.Bill10000: 2},
		Fee:     feeCash(2),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(70000), rec.Transaction.Amount)
	assert.Equal(t, int64(2000), rec.Transaction.Fee)
	assert.Equal(t, int64(370_000), balance(t, reg, "Shinhan", cardMin))

	inv := term.Inventory()
	assert.Equal(t, 11, inv[model.Bill50000])
	assert.Equal(t, 12, inv[model.Bill10000])
	assert.Equal(t, 12, inv[model.Bill1000])
}

func TestCashDepositFeeShortCancels(t *testing.T) {
	reg := newRegistry(t)
	term := newTerminal(t, reg, model.ModeMultiBank, fullCash())
	login(t, term, cardMin, "4321")

	_, err := term.CashDeposit(CashDepositRequest{
		Account: cardMin,
		Cash:    model.Cash{model.Bill10000: 1},
		Fee:     feeCash(1),
	})
	var e *model.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, model.KindInsufficientFee, e.Kind)
	assert.Equal(t, int64(2000), e.Expected)
	assert.Equal(t, int64(1000), e.Supplied)

	assert.Equal(t, int64(300_000), balance(t, reg, "Shinhan", cardMin))
	assert.Equal(t, fullCash(), term.Inventory())
	assert.Empty(t, term.History())
}

func TestCashDepositChange(t *testing.T) {
	reg := newRegistry(t)
	term := newTerminal(t, reg, model.ModeSingleBank, fullCash())
	login(t, term, cardJane, "1234")

	req := CashDepositRequest{
		Account: cardJane,
		Cash:    model.Cash{model.Bill10000: 1},
		Fee:     FeeTender{Cash: model.Cash{model.Bill5000: 1}},
	}
	_, err := term.CashDeposit(req)
	var e *model.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, model.KindChangeDeclined, e.Kind)
	assert.Equal(t, int64(1000), e.Expected)
	assert.Equal(t, int64(5000), e.Supplied)
	assert.Equal(t, fullCash(), term.Inventory())

	req.Fee.AcceptChange = true
	rec, err := term.CashDeposit(req)
	require.NoError(t, err)
	assert.Equal(t, model.Cash{model.Bill1000: 4}, rec.Change)
	assert.Equal(t, int64(1_010_000), rec.Balance)

	inv := term.Inventory()
	assert.Equal(t, 6, inv[model.Bill1000])
	assert.Equal(t, 11, inv[model.Bill5000])
	assert.Equal(t, 11, inv[model.Bill10000])
}

func TestCashDepositChangeInfeasible(t *testing.T) {
	reg := newRegistry(t)
	term := newTerminal(t, reg, model.ModeSingleBank, model.Cash{model.Bill50000: 1})
	login(t, term, cardJane, "1234")

	_, err := term.CashDeposit(CashDepositRequest{
		Account: cardJane,
		Cash:    model.Cash{model.Bill10000: 1},
		Fee:     FeeTender{Cash: model.Cash{model.Bill5000: 1}, AcceptChange: true},
	})
	assert.ErrorIs(t, err, model.ErrInfeasibleDenomination)
	assert.Equal(t, int64(1_000_000), balance(t, reg, "Kakao", cardJane))
}

func TestCashDepositBillCap(t *testing.T) {
	reg := newRegistry(t)
	term := newTerminal(t, reg, model.ModeSingleBank, nil)
	login(t, term, cardJane, "1234")

	_, err := term.CashDeposit(CashDepositRequest{
		Account: cardJane,
		Cash:    model.Cash{model.Bill1000: 51},
		Fee:     feeCash(1),
	})
	assert.ErrorIs(t, err, model.ErrMaxBillsExceeded)

	_, err = term.CashDeposit(CashDepositRequest{
		Account: cardJane,
		Cash:    model.Cash{model.Bill1000: 50},
		Fee:     FeeTender{Cash: model.Cash{model.Bill1000: 51}, AcceptChange: true},
	})
	assert.ErrorIs(t, err, model.ErrMaxBillsExceeded)

	_, err = term.CashDeposit(CashDepositRequest{
		Account: cardJane,
		Cash:    model.Cash{model.Denomination(2000): 1},
		Fee:     feeCash(1),
	})
	assert.ErrorIs(t, err, model.ErrInvalidDenomination)

	_, err = term.CashDeposit(CashDepositRequest{Account: cardJane, Fee: feeCash(1)})
	assert.ErrorIs(t, err, model.ErrInvalidAmount)
	assert.Empty(t, term.Inventory())
}

func TestCashTransfer(t *testing.T) {
	reg := newRegistry(t)
	term := newTerminal(t, reg, model.ModeMultiBank, fullCash())
	login(t, term, cardJane, "1234")

	rec, err := term.CashTransfer(CashTransferRequest{
		Destination: cardMin,
		Cash:        model.Cash{model.Bill10000: 5},
		Fee:         feeCash(1),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), rec.Transaction.Fee)
	assert.Equal(t, cardJane, rec.Transaction.Card)
	assert.Equal(t, model.TypeCashTransfer, rec.Transaction.Type)
	assert.Equal(t, int64(350_000), balance(t, reg, "Shinhan", cardMin))
	assert.Equal(t, int64(1_000_000), balance(t, reg, "Kakao", cardJane))
	assert.Equal(t, int64(1_000_000), rec.Balance)

	_, err = term.CashTransfer(CashTransferRequest{
		Destination: cardWoori,
		Cash:        model.Cash{model.Bill10000: 1},
		Fee:         feeCash(1),
	})
	assert.ErrorIs(t, err, model.ErrInvalidDestinationAccount)
}

func TestAccountTransferFees(t *testing.T) {
	reg := newRegistry(t)
	term := newTerminal(t, reg, model.ModeMultiBank, nil)
	login(t, term, cardJane, "1234")

	rec, err := term.AccountTransfer(cardJane, cardJoon, 20000)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), rec.Transaction.Fee)
	assert.Equal(t, int64(1_000_000-22_000), balance(t, reg, "Kakao", cardJane))
	assert.Equal(t, int64(70_000), balance(t, reg, "Kakao", cardJoon))

	rec, err = term.AccountTransfer(cardJane, cardMin, 20000)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), rec.Transaction.Fee)
	assert.Equal(t, int64(1_000_000-22_000-23_000), rec.Balance)
	assert.Equal(t, int64(320_000), balance(t, reg, "Shinhan", cardMin))

	_, err = term.EndSession()
	require.NoError(t, err)
	login(t, term, cardMin, "4321")

	rec, err = term.AccountTransfer(cardMin, cardSoo, 20000)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), rec.Transaction.Fee)
	assert.Equal(t, int64(320_000-24_000), balance(t, reg, "Shinhan", cardMin))
}

func TestAccountTransferValidation(t *testing.T) {
	reg := newRegistry(t)
	term := newTerminal(t, reg, model.ModeSingleBank, nil)
	login(t, term, cardJoon, "1111")

	_, err := term.AccountTransfer(cardJoon, cardJoon, 1000)
	assert.ErrorIs(t, err, model.ErrInvalidDestinationAccount)

	_, err = term.AccountTransfer(cardJoon, cardMin, 1000)
	assert.ErrorIs(t, err, model.ErrInvalidDestinationAccount)

	_, err = term.AccountTransfer(cardJane, cardJoon, 1000)
	assert.ErrorIs(t, err, model.ErrInvalidAccount)

	_, err = term.AccountTransfer(cardJoon, cardJane, -5)
	assert.ErrorIs(t, err, model.ErrInvalidAmount)

	_, err = term.AccountTransfer(cardJoon, cardJane, 49_000)
	var e *model.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, model.KindInsufficientFunds, e.Kind)
	assert.Equal(t, int64(51_000), e.Expected)
	assert.Equal(t, int64(50_000), balance(t, reg, "Kakao", cardJoon))
}

func TestAccountTransferRollback(t *testing.T) {
	reg := newRegistry(t)
	kakao, _ := reg.Bank("Kakao")
	_, err := kakao.CreateAccount("Rich", "444444444444", "4444", math.MaxInt64-10)
	require.NoError(t, err)

	term := newTerminal(t, reg, model.ModeSingleBank, nil)
	login(t, term, cardJane, "1234")
	before := balance(t, reg, "Kakao", cardJane)

	_, err = term.AccountTransfer(cardJane, "444444444444", 20000)
	assert.ErrorIs(t, err, model.ErrBalanceOverflow)

	assert.Equal(t, before, balance(t, reg, "Kakao", cardJane))
	assert.Equal(t, int64(math.MaxInt64-10), balance(t, reg, "Kakao", "444444444444"))
	assert.Empty(t, term.History())
	sum, ok := term.Session()
	require.True(t, ok, "a refunded transfer keeps the session open")
	assert.Equal(t, 0, sum.Transactions)
	assert.True(t, sum.Status.SystemError)
}

func failingCredit(_ *accounts.Bank, _ string, amount int64) (int64, error) {
	return 0, model.Errorf(model.KindBalanceOverflow, 0, amount)
}

func TestAccountTransferFailedRefundEndsSession(t *testing.T) {
	reg := newRegistry(t)
	term := newTerminal(t, reg, model.ModeSingleBank, fullCash())
	login(t, term, cardJane, "1234")
	fee, err := term.Fee(model.TypeAccountTransfer, true, true)
	require.NoError(t, err)
	term.credit = failingCredit

	_, err = term.AccountTransfer(cardJane, cardJoon, 20000)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrBalanceOverflow)

	_, ok := term.Session()
	assert.False(t, ok)
	last, ok := term.LastSession()
	require.True(t, ok)
	assert.Equal(t, session.ReasonFatalError, last.EndReason)
	assert.True(t, last.Status.SystemError)
	assert.Equal(t, 0, last.Transactions)

	// The debit stands; the ledger is left for an operator to reconcile.
	assert.Equal(t, int64(1_000_000-20_000)-fee, balance(t, reg, "Kakao", cardJane))
	assert.Equal(t, int64(50_000), balance(t, reg, "Kakao", cardJoon))
	assert.Empty(t, term.History())

	_, err = term.Withdraw(cardJane, 10000)
	assert.ErrorIs(t, err, model.ErrNoActiveSession)
}

func TestWithdrawFailedRefundEndsSession(t *testing.T) {
	reg := newRegistry(t)
	term := newTerminal(t, reg, model.ModeSingleBank, fullCash())
	login(t, term, cardJane, "1234")

	// The cassette jams between the debit and the dispense.
	term.debit = func(b *accounts.Bank, number string, amount int64) (int64, error) {
		bal, err := b.Debit(number, amount)
		term.inventory, _ = cash.NewInventory(nil)
		return bal, err
	}
	term.credit = failingCredit

	_, err := term.Withdraw(cardJane, 30000)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInsufficientCash)
	assert.ErrorIs(t, err, model.ErrBalanceOverflow)

	_, ok := term.Session()
	assert.False(t, ok)
	last, ok := term.LastSession()
	require.True(t, ok)
	assert.Equal(t, session.ReasonFatalError, last.EndReason)
	assert.True(t, last.Status.SystemError)
	assert.Empty(t, term.History())
}

func TestLastSessionAfterExit(t *testing.T) {
	reg := newRegistry(t)
	term := newTerminal(t, reg, model.ModeSingleBank, fullCash())
	_, ok := term.LastSession()
	assert.False(t, ok)

	login(t, term, cardJane, "1234")
	_, err := term.EndSession()
	require.NoError(t, err)

	last, ok := term.LastSession()
	require.True(t, ok)
	assert.Equal(t, session.ReasonExit, last.EndReason)
	assert.False(t, last.Status.SystemError)
}
