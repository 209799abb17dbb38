package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/teller/internal/accounts"
)

func newSnapshotCommand(configPath *string) *cobra.Command {
	var asCSV bool

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Show every terminal's cash and every account's balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sys, log, err := loadSystem(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if asCSV {
				return accounts.WriteAccounts(cmd.OutOrStdout(), sys.Registry.All(), false)
			}
			return sys.WriteSnapshot(cmd.OutOrStdout(), time.Now())
		},
	}

	cmd.Flags().BoolVar(&asCSV, "csv", false, "write account balances as CSV (PINs omitted)")

	return cmd
}
