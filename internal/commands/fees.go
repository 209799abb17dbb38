package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFeesCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "fees",
		Short: "Print the configured fee schedule and limits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			f := cfg.Fees
			rows := []struct {
				name  string
				value int64
			}{
				{"deposit, primary bank", f.DepositPrimary},
				{"deposit, other bank", f.DepositNonPrimary},
				{"withdrawal, primary bank", f.WithdrawalPrimary},
				{"withdrawal, other bank", f.WithdrawalNonPrimary},
				{"transfer, primary to primary", f.TransferPrimary},
				{"transfer, primary and other", f.TransferMixed},
				{"transfer, other to other", f.TransferNonPrimary},
				{"cash transfer", f.TransferCash},
			}
			fmt.Fprintln(out, "Fees")
			for _, r := range rows {
				fmt.Fprintf(out, "  %-30s %8d\n", r.name, r.value)
			}

			l := cfg.Limits
			fmt.Fprintln(out, "\nLimits")
			fmt.Fprintf(out, "  %-30s %8d\n", "minimum check", l.MinCheckAmount)
			fmt.Fprintf(out, "  %-30s %8d\n", "bills per operation", l.MaxBillsPerOperation)
			fmt.Fprintf(out, "  %-30s %8d\n", "withdrawal amount", l.MaxWithdrawalAmount)
			fmt.Fprintf(out, "  %-30s %8d\n", "withdrawals per session", l.MaxWithdrawalsPerSession)
			fmt.Fprintf(out, "  %-30s %8d\n", "check deposits per session", l.MaxChecksPerSession)
			fmt.Fprintf(out, "  %-30s %8d\n", "PIN attempts", l.MaxPinAttempts)
			return nil
		},
	}
}
