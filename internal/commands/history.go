package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/teller/internal/ledger"
	"github.com/cleared-dev/teller/internal/model"
)

func newHistoryCommand() *cobra.Command {
	var typeFilter string

	cmd := &cobra.Command{
		Use:   "history <export.csv>",
		Short: "Print an exported transaction history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening history: %w", err)
			}
			defer f.Close()

			txns, err := ledger.ReadTransactions(f)
			if err != nil {
				return err
			}
			if typeFilter != "" {
				typ, err := model.ParseTransactionType(typeFilter)
				if err != nil {
					return err
				}
				var filtered []model.Transaction
				for _, txn := range txns {
					if txn.Type == typ {
						filtered = append(filtered, txn)
					}
				}
				txns = filtered
			}
			return ledger.WriteReport(cmd.OutOrStdout(), "History "+args[0], txns)
		},
	}

	cmd.Flags().StringVar(&typeFilter, "type", "", "only show one transaction type")

	return cmd
}
