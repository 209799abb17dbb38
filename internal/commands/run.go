package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/teller/internal/i18n"
	"github.com/cleared-dev/teller/internal/ledger"
	"github.com/cleared-dev/teller/internal/scenario"
	"github.com/cleared-dev/teller/internal/sessionlog"
)

func newRunCommand(configPath *string) *cobra.Command {
	var lang string
	var export string
	var report bool

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scripted visit against a terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sys, log, err := loadSystem(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			sc, err := scenario.Load(args[0])
			if err != nil {
				return err
			}
			if lang != "" {
				sc.Language = lang
			}
			term, ok := sys.Terminal(sc.Terminal)
			if !ok {
				return fmt.Errorf("terminal %s is not configured", sc.Terminal)
			}

			res, runErr := scenario.NewRunner(log).Run(cmd.Context(), term, sc)
			if res == nil {
				return runErr
			}
			out := cmd.OutOrStdout()
			if err := printOutcomes(out, sc, res); err != nil {
				return err
			}

			entries := make([]sessionlog.Entry, len(res.Sessions))
			for i, s := range res.Sessions {
				entries[i] = sessionlog.FromSummary(term.Serial(), s)
			}
			if len(entries) > 0 {
				root := filepath.Dir(resolveConfigPath(*configPath))
				if err := sessionlog.Append(root, entries); err != nil {
					return err
				}
			}

			history := term.History()
			if export != "" {
				if err := ledger.Export(export, history); err != nil {
					return err
				}
				fmt.Fprintf(out, "\n%s\n", res.Printer.Message(i18n.KeyHistoryExported, len(history)))
			}
			if report {
				fmt.Fprintln(out)
				if err := ledger.WriteReport(out, "Terminal "+term.Serial(), history); err != nil {
					return err
				}
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "", "display language on bilingual terminals (en or ko)")
	cmd.Flags().StringVar(&export, "export", "", "write the terminal's transactions to this CSV file")
	cmd.Flags().BoolVar(&report, "report", false, "print the terminal's transactions after the run")

	return cmd
}

func printOutcomes(w io.Writer, sc *scenario.Scenario, res *scenario.Result) error {
	for _, o := range res.Outcomes {
		if _, err := fmt.Fprintf(w, "[%d] %s\n", o.Index+1, o.Action); err != nil {
			return err
		}
		for _, m := range o.Messages {
			fmt.Fprintf(w, "    %s\n", m.Render(res.Printer))
		}
		if o.Err != nil {
			status := "error"
			if strings.EqualFold(string(o.Kind()), sc.Steps[o.Index].Expect) {
				status = "expected"
			}
			fmt.Fprintf(w, "    %s: %s\n", status, res.Printer.Error(o.Err))
		}
	}
	return nil
}
