package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/teller/internal/accounts"
	"github.com/cleared-dev/teller/internal/config"
	"github.com/cleared-dev/teller/internal/id"
	"github.com/cleared-dev/teller/internal/scenario"
)

func newInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a sample network config and scenario",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			if err := runInit(absDir, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized teller network at %s\n", absDir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")

	return cmd
}

func runInit(dir string, force bool) error {
	cfgPath := filepath.Join(dir, defaultConfigFile)
	if _, err := os.Stat(cfgPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	}

	for _, d := range []string{"logs", "scenarios", "exports"} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	taken := make(map[string]bool)
	single, err := id.NewSerial(taken)
	if err != nil {
		return err
	}
	taken[single] = true
	multi, err := id.NewSerial(taken)
	if err != nil {
		return err
	}

	// Inline accounts open the network; accounts.csv adds the rest.
	cfg := config.Default(single, multi)
	cfg.AccountsFile = "accounts.csv"
	cfg.Logging.File = filepath.Join("logs", "teller.log")
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if err := writeAccounts(filepath.Join(dir, "accounts.csv"), []accounts.Account{
		{Bank: "Shinhan", Owner: "Soo", Number: "222222222223", PIN: "2222", Balance: 80_000},
		{Bank: "Woori", Owner: "Hana", Number: "333333333333", PIN: "0000", Balance: 300_000},
	}); err != nil {
		return err
	}

	if err := scenario.Save(filepath.Join(dir, "scenarios", "visit.yaml"), scenario.Sample(multi)); err != nil {
		return err
	}

	gitignore := "logs/\nexports/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	return nil
}

func writeAccounts(path string, accts []accounts.Account) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating accounts file: %w", err)
	}
	if err := accounts.WriteAccounts(f, accts, true); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
