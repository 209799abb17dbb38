package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleared-dev/teller/internal/buildinfo"
	"github.com/cleared-dev/teller/internal/config"
	"github.com/cleared-dev/teller/internal/logging"
	"github.com/cleared-dev/teller/internal/system"
)

const defaultConfigFile = "teller.yaml"

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "teller",
		Short:   "ATM network simulator",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "system config file (default $"+config.EnvConfigPath+" or "+defaultConfigFile+")")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newRunCommand(&configPath))
	rootCmd.AddCommand(newSnapshotCommand(&configPath))
	rootCmd.AddCommand(newFeesCommand(&configPath))
	rootCmd.AddCommand(newHistoryCommand())

	return rootCmd
}

func resolveConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(config.EnvConfigPath); env != "" {
		return env
	}
	return defaultConfigFile
}

func loadConfig(flag string) (*config.Config, error) {
	cfg, err := config.Load(resolveConfigPath(flag))
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)
	cfg.Logging.File = cfg.LogPath()
	return cfg, nil
}

// loadSystem reads the config and boots the network it describes.
func loadSystem(flag string) (*system.System, *zap.Logger, error) {
	cfg, err := loadConfig(flag)
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	sys, err := system.Build(cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, nil, fmt.Errorf("building system: %w", err)
	}
	return sys, log, nil
}
