package fee

import (
	"fmt"

	"github.com/cleared-dev/teller/internal/model"
)

// Schedule is the fee table, in currency units.
type Schedule struct {
	DepositPrimary       int64 `yaml:"deposit_primary"`
	DepositNonPrimary    int64 `yaml:"deposit_non_primary"`
	WithdrawalPrimary    int64 `yaml:"withdrawal_primary"`
	WithdrawalNonPrimary int64 `yaml:"withdrawal_non_primary"`
	TransferPrimary      int64 `yaml:"transfer_primary"`
	TransferMixed        int64 `yaml:"transfer_mixed"`
	TransferNonPrimary   int64 `yaml:"transfer_non_primary"`
	TransferCash         int64 `yaml:"transfer_cash"`
}

// DefaultSchedule returns the standard network fees.
func DefaultSchedule() Schedule {
	return Schedule{
		DepositPrimary:       1000,
		DepositNonPrimary:    2000,
		WithdrawalPrimary:    1000,
		WithdrawalNonPrimary: 2000,
		TransferPrimary:      2000,
		TransferMixed:        3000,
		TransferNonPrimary:   4000,
		TransferCash:         1000,
	}
}

// Compute returns the fee for a transaction type given whether the source
// and destination accounts live in the terminal's primary bank. dstPrimary
// only matters for account transfers; cash transfers ignore both flags.
func (s Schedule) Compute(t model.TransactionType, srcPrimary, dstPrimary bool) (int64, error) {
	switch t {
	case model.TypeDeposit:
		if srcPrimary {
			return s.DepositPrimary, nil
		}
		return s.DepositNonPrimary, nil
	case model.TypeWithdrawal:
		if srcPrimary {
			return s.WithdrawalPrimary, nil
		}
		return s.WithdrawalNonPrimary, nil
	case model.TypeAccountTransfer:
		switch {
		case srcPrimary && dstPrimary:
			return s.TransferPrimary, nil
		case !srcPrimary && !dstPrimary:
			return s.TransferNonPrimary, nil
		default:
			return s.TransferMixed, nil
		}
	case model.TypeCashTransfer:
		return s.TransferCash, nil
	default:
		return 0, fmt.Errorf("no fee for transaction type %q", t)
	}
}

// Validate rejects negative fees.
func (s Schedule) Validate() error {
	fees := map[string]int64{
		"deposit_primary":        s.DepositPrimary,
		"deposit_non_primary":    s.DepositNonPrimary,
		"withdrawal_primary":     s.WithdrawalPrimary,
		"withdrawal_non_primary": s.WithdrawalNonPrimary,
		"transfer_primary":       s.TransferPrimary,
		"transfer_mixed":         s.TransferMixed,
		"transfer_non_primary":   s.TransferNonPrimary,
		"transfer_cash":          s.TransferCash,
	}
	for name, v := range fees {
		if v < 0 {
			return fmt.Errorf("fee %s is negative: %d", name, v)
		}
	}
	return nil
}
