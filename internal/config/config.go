package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/teller/internal/fee"
	"github.com/cleared-dev/teller/internal/model"
	"github.com/cleared-dev/teller/internal/validator"
)

// Environment overrides.
const (
	EnvConfigPath = "TELLER_CONFIG"
	EnvLogLevel   = "TELLER_LOG_LEVEL"
	EnvLogFile    = "TELLER_LOG_FILE"
)

// Config represents the top-level teller.yaml configuration.
type Config struct {
	Banks        []BankConfig  `yaml:"banks" validate:"required,min=1,dive"`
	AccountsFile string        `yaml:"accounts_file,omitempty"`
	ATMs         []ATMConfig   `yaml:"atms" validate:"required,min=1,dive"`
	Fees         fee.Schedule  `yaml:"fees"`
	Limits       model.Limits  `yaml:"limits"`
	Logging      LoggingConfig `yaml:"logging"`

	dir string
}

// BankConfig declares a bank and its opening accounts.
type BankConfig struct {
	Name     string          `yaml:"name" validate:"required,notblank"`
	Accounts []AccountConfig `yaml:"accounts,omitempty" validate:"dive"`
}

// AccountConfig is an account opened at bootstrap.
type AccountConfig struct {
	Owner   string `yaml:"owner" validate:"required,notblank"`
	Number  string `yaml:"number" validate:"len=12,digits"`
	PIN     string `yaml:"pin" validate:"len=4,digits"`
	Balance int64  `yaml:"balance" validate:"gte=0"`
}

// ATMConfig declares a terminal.
type ATMConfig struct {
	Serial    string             `yaml:"serial" validate:"serial"`
	Mode      model.BankMode     `yaml:"mode" validate:"oneof=single-bank multi-bank"`
	Language  model.LanguageMode `yaml:"language" validate:"oneof=unilingual bilingual"`
	Primary   string             `yaml:"primary" validate:"required"`
	Connected []string           `yaml:"connected,omitempty"`
	Cash      map[int]int        `yaml:"cash" validate:"dive,keys,denomination,endkeys,gte=0"`
}

// LoggingConfig controls log level and optional rotating file output.
type LoggingConfig struct {
	Level      string `yaml:"level" validate:"oneof=debug info warn error"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `yaml:"max_age_days" validate:"gte=0"`
	Compress   bool   `yaml:"compress"`
}

// Load reads a teller.yaml file from disk. Omitted fee, limit and logging
// sections keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Config{
		Fees:    fee.DefaultSchedule(),
		Limits:  model.DefaultLimits(),
		Logging: defaultLogging(),
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.dir = filepath.Dir(path)
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// AccountsPath resolves AccountsFile against the config file's directory.
func (c *Config) AccountsPath() string {
	return c.resolve(c.AccountsFile)
}

// LogPath resolves Logging.File against the config file's directory.
func (c *Config) LogPath() string {
	return c.resolve(c.Logging.File)
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.dir, p)
}

// ApplyEnv overrides logging settings from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := getenv(EnvLogFile); v != "" {
		c.Logging.File = v
	}
}

// Validate checks field formats and the references between banks and
// terminals.
func (c *Config) Validate() error {
	if err := validator.Struct(c); err != nil {
		return err
	}
	if err := c.Fees.Validate(); err != nil {
		return err
	}

	var errs []error
	banks := make(map[string]bool)
	for _, b := range c.Banks {
		if banks[b.Name] {
			errs = append(errs, fmt.Errorf("bank %q declared twice", b.Name))
		}
		banks[b.Name] = true

		numbers := make(map[string]bool)
		for _, a := range b.Accounts {
			if numbers[a.Number] {
				errs = append(errs, fmt.Errorf("bank %q: account %s declared twice", b.Name, a.Number))
			}
			numbers[a.Number] = true
			if a.Number == model.AdminCard {
				errs = append(errs, fmt.Errorf("bank %q: account number %s is reserved", b.Name, a.Number))
			}
		}
	}

	serials := make(map[string]bool)
	for _, a := range c.ATMs {
		if serials[a.Serial] {
			errs = append(errs, fmt.Errorf("atm %s declared twice", a.Serial))
		}
		serials[a.Serial] = true

		if !banks[a.Primary] {
			errs = append(errs, fmt.Errorf("atm %s: unknown primary bank %q", a.Serial, a.Primary))
		}
		if a.Mode == model.ModeSingleBank && len(a.Connected) > 0 {
			errs = append(errs, fmt.Errorf("atm %s: single-bank terminal lists connected banks", a.Serial))
		}
		for _, name := range a.Connected {
			if !banks[name] {
				errs = append(errs, fmt.Errorf("atm %s: unknown connected bank %q", a.Serial, name))
			}
		}
	}
	return errors.Join(errs...)
}

// Serials returns the configured terminal serials.
func (c *Config) Serials() map[string]bool {
	m := make(map[string]bool, len(c.ATMs))
	for _, a := range c.ATMs {
		m[a.Serial] = true
	}
	return m
}

func defaultLogging() LoggingConfig {
	return LoggingConfig{
		Level:      "info",
		MaxSizeMB:  10,
		MaxBackups: 7,
		MaxAgeDays: 28,
		Compress:   true,
	}
}

func fullCassette() map[int]int {
	return map[int]int{1000: 50, 5000: 50, 10000: 50, 50000: 20}
}

// Default returns a two-bank network with one terminal of each mode.
func Default(singleSerial, multiSerial string) *Config {
	return &Config{
		Banks: []BankConfig{
			{
				Name: "Kakao",
				Accounts: []AccountConfig{
					{Owner: "Jane", Number: "111111111111", PIN: "1234", Balance: 1_000_000},
					{Owner: "Jane", Number: "111111111112", PIN: "1234", Balance: 250_000},
				},
			},
			{
				Name: "Shinhan",
				Accounts: []AccountConfig{
					{Owner: "Min", Number: "222222222222", PIN: "4321", Balance: 500_000},
				},
			},
		},
		ATMs: []ATMConfig{
			{
				Serial:   singleSerial,
				Mode:     model.ModeSingleBank,
				Language: model.LanguageUnilingual,
				Primary:  "Kakao",
				Cash:     fullCassette(),
			},
			{
				Serial:    multiSerial,
				Mode:      model.ModeMultiBank,
				Language:  model.LanguageBilingual,
				Primary:   "Kakao",
				Connected: []string{"Shinhan"},
				Cash:      fullCassette(),
			},
		},
		Fees:    fee.DefaultSchedule(),
		Limits:  model.DefaultLimits(),
		Logging: defaultLogging(),
	}
}
