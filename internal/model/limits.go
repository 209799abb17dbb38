package model

// Limits are the per-operation and per-session caps a terminal enforces.
// Every limit must be positive.
type Limits struct {
	MinCheckAmount           int64 `yaml:"min_check_amount" validate:"gt=0"`
	MaxBillsPerOperation     int   `yaml:"max_bills_per_operation" validate:"gt=0"`
	MaxWithdrawalAmount      int64 `yaml:"max_withdrawal_amount" validate:"gt=0"`
	MaxWithdrawalsPerSession int   `yaml:"max_withdrawals_per_session" validate:"gt=0"`
	MaxChecksPerSession      int   `yaml:"max_checks_per_session" validate:"gt=0"`
	MaxPinAttempts           int   `yaml:"max_pin_attempts" validate:"gt=0"`
}

// DefaultLimits returns the standard network limits.
func DefaultLimits() Limits {
	return Limits{
		MinCheckAmount:           100_000,
		MaxBillsPerOperation:     50,
		MaxWithdrawalAmount:      500_000,
		MaxWithdrawalsPerSession: 3,
		MaxChecksPerSession:      50,
		MaxPinAttempts:           3,
	}
}
