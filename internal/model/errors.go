package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a recoverable failure. Values double as message keys.
type ErrorKind string

const (
	KindAccountNotFound             ErrorKind = "ACCOUNT_NOT_FOUND"
	KindInvalidAccount              ErrorKind = "INVALID_ACCOUNT"
	KindInvalidCardFormat           ErrorKind = "INVALID_CARD_FORMAT"
	KindInvalidPinFormat            ErrorKind = "INVALID_PIN_FORMAT"
	KindWrongPin                    ErrorKind = "WRONG_PIN"
	KindPinAttemptsExceeded         ErrorKind = "PIN_ATTEMPTS_EXCEEDED"
	KindInsufficientFunds           ErrorKind = "INSUFFICIENT_FUNDS"
	KindInsufficientCash            ErrorKind = "INSUFFICIENT_CASH"
	KindInfeasibleDenomination      ErrorKind = "INFEASIBLE_DENOMINATION"
	KindInsufficientFee             ErrorKind = "INSUFFICIENT_FEE"
	KindMaxBillsExceeded            ErrorKind = "MAX_BILLS_EXCEEDED"
	KindMaxWithdrawalsExceeded      ErrorKind = "MAX_WITHDRAWALS_EXCEEDED"
	KindMaxCheckDepositsExceeded    ErrorKind = "MAX_CHECK_DEPOSITS_EXCEEDED"
	KindInvalidCheckAmount          ErrorKind = "INVALID_CHECK_AMOUNT"
	KindInvalidDestinationAccount   ErrorKind = "INVALID_DESTINATION_ACCOUNT"
	KindMaxWithdrawalAmountExceeded ErrorKind = "MAX_WITHDRAWAL_AMOUNT_EXCEEDED"
	KindInvalidAmount               ErrorKind = "INVALID_AMOUNT"
	KindInvalidDenomination         ErrorKind = "INVALID_DENOMINATION"
	KindChangeDeclined              ErrorKind = "CHANGE_DECLINED"
	KindNoCardInserted              ErrorKind = "NO_CARD_INSERTED"
	KindNoActiveSession             ErrorKind = "NO_ACTIVE_SESSION"
	KindSessionActive               ErrorKind = "SESSION_ACTIVE"
	KindSessionEnded                ErrorKind = "SESSION_ENDED"
	KindAdminRequired               ErrorKind = "ADMIN_REQUIRED"
	KindDuplicateAccount            ErrorKind = "DUPLICATE_ACCOUNT"
	KindBalanceOverflow             ErrorKind = "BALANCE_OVERFLOW"
)

// Error is a recoverable domain failure with the values a caller needs to
// render a message and retry.
type Error struct {
	Kind      ErrorKind
	Expected  int64
	Supplied  int64
	Remaining int
	Err       error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(strings.ToLower(strings.ReplaceAll(string(e.Kind), "_", " ")))
	if e.Expected != 0 || e.Supplied != 0 {
		fmt.Fprintf(&b, " (expected %d, supplied %d)", e.Expected, e.Supplied)
	}
	if e.Kind == KindWrongPin || e.Kind == KindInvalidPinFormat {
		fmt.Fprintf(&b, " (%d attempts remaining)", e.Remaining)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the Err* values work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Errorf builds an Error carrying expected and supplied values.
func Errorf(kind ErrorKind, expected, supplied int64) *Error {
	return &Error{Kind: kind, Expected: expected, Supplied: supplied}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

var (
	ErrAccountNotFound             = &Error{Kind: KindAccountNotFound}
	ErrInvalidAccount              = &Error{Kind: KindInvalidAccount}
	ErrInvalidCardFormat           = &Error{Kind: KindInvalidCardFormat}
	ErrInvalidPinFormat            = &Error{Kind: KindInvalidPinFormat}
	ErrWrongPin                    = &Error{Kind: KindWrongPin}
	ErrPinAttemptsExceeded         = &Error{Kind: KindPinAttemptsExceeded}
	ErrInsufficientFunds           = &Error{Kind: KindInsufficientFunds}
	ErrInsufficientCash            = &Error{Kind: KindInsufficientCash}
	ErrInfeasibleDenomination      = &Error{Kind: KindInfeasibleDenomination}
	ErrInsufficientFee             = &Error{Kind: KindInsufficientFee}
	ErrMaxBillsExceeded            = &Error{Kind: KindMaxBillsExceeded}
	ErrMaxWithdrawalsExceeded      = &Error{Kind: KindMaxWithdrawalsExceeded}
	ErrMaxCheckDepositsExceeded    = &Error{Kind: KindMaxCheckDepositsExceeded}
	ErrInvalidCheckAmount          = &Error{Kind: KindInvalidCheckAmount}
	ErrInvalidDestinationAccount   = &Error{Kind: KindInvalidDestinationAccount}
	ErrMaxWithdrawalAmountExceeded = &Error{Kind: KindMaxWithdrawalAmountExceeded}
	ErrInvalidAmount               = &Error{Kind: KindInvalidAmount}
	ErrInvalidDenomination         = &Error{Kind: KindInvalidDenomination}
	ErrChangeDeclined              = &Error{Kind: KindChangeDeclined}
	ErrNoCardInserted              = &Error{Kind: KindNoCardInserted}
	ErrNoActiveSession             = &Error{Kind: KindNoActiveSession}
	ErrSessionActive               = &Error{Kind: KindSessionActive}
	ErrSessionEnded                = &Error{Kind: KindSessionEnded}
	ErrAdminRequired               = &Error{Kind: KindAdminRequired}
	ErrDuplicateAccount            = &Error{Kind: KindDuplicateAccount}
	ErrBalanceOverflow             = &Error{Kind: KindBalanceOverflow}
)
