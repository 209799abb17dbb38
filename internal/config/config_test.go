package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/teller/internal/fee"
	"github.com/cleared-dev/teller/internal/model"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default("100001", "100002")
	cfg.AccountsFile = "accounts.csv"
	cfg.Logging.File = "logs/teller.log"

	dir := t.TempDir()
	path := filepath.Join(dir, "teller.yaml")
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Banks, got.Banks)
	assert.Equal(t, cfg.ATMs, got.ATMs)
	assert.Equal(t, cfg.Fees, got.Fees)
	assert.Equal(t, cfg.Limits, got.Limits)
	assert.Equal(t, cfg.Logging, got.Logging)
	assert.Equal(t, filepath.Join(dir, "accounts.csv"), got.AccountsPath())
	assert.Equal(t, filepath.Join(dir, "logs", "teller.log"), got.LogPath())
	require.NoError(t, got.Validate())
}

func TestDefaults(t *testing.T) {
	cfg := Default("100001", "100002")

	require.Len(t, cfg.Banks, 2)
	require.Len(t, cfg.ATMs, 2)
	assert.Equal(t, model.ModeSingleBank, cfg.ATMs[0].Mode)
	assert.Equal(t, model.ModeMultiBank, cfg.ATMs[1].Mode)
	assert.Equal(t, []string{"Shinhan"}, cfg.ATMs[1].Connected)
	assert.Equal(t, fee.DefaultSchedule(), cfg.Fees)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.AccountsPath())
	require.NoError(t, cfg.Validate())
}

func TestLoadKeepsDefaultSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "teller.yaml")
	yml := `banks:
  - name: Kakao
atms:
  - serial: "100001"
    mode: single-bank
    language: unilingual
    primary: Kakao
limits:
  max_withdrawals_per_session: 5
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, fee.DefaultSchedule(), cfg.Fees)
	assert.Equal(t, 5, cfg.Limits.MaxWithdrawalsPerSession)
	assert.Equal(t, int64(100_000), cfg.Limits.MinCheckAmount)
	assert.Equal(t, 10, cfg.Logging.MaxSizeMB)
	require.NoError(t, cfg.Validate())
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestYAMLFormat(t *testing.T) {
	cfg := Default("100001", "100002")
	path := filepath.Join(t.TempDir(), "teller.yaml")
	require.NoError(t, Save(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "name: Kakao")
	assert.Contains(t, contents, `serial: "100001"`)
	assert.Contains(t, contents, "mode: multi-bank")
	assert.Contains(t, contents, "transfer_mixed: 3000")
	assert.Contains(t, contents, "max_bills_per_operation: 50")
}

func TestValidateFormats(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
		want string
	}{
		{"short account", func(c *Config) { c.Banks[0].Accounts[0].Number = "1111" }, "Number"},
		{"pin letters", func(c *Config) { c.Banks[0].Accounts[0].PIN = "12ab" }, "PIN"},
		{"negative balance", func(c *Config) { c.Banks[0].Accounts[0].Balance = -1 }, "Balance"},
		{"bad serial", func(c *Config) { c.ATMs[0].Serial = "12345" }, "Serial"},
		{"leading zero serial", func(c *Config) { c.ATMs[0].Serial = "000123" }, "Serial"},
		{"zero pin attempts", func(c *Config) { c.Limits.MaxPinAttempts = 0 }, "MaxPinAttempts"},
		{"negative bill cap", func(c *Config) { c.Limits.MaxBillsPerOperation = -1 }, "MaxBillsPerOperation"},
		{"zero check minimum", func(c *Config) { c.Limits.MinCheckAmount = 0 }, "MinCheckAmount"},
		{"bad mode", func(c *Config) { c.ATMs[0].Mode = "both" }, "Mode"},
		{"bad bill", func(c *Config) { c.ATMs[0].Cash = map[int]int{3000: 1} }, "denomination"},
		{"no banks", func(c *Config) { c.Banks = nil }, "Banks"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "Level"},
	}
	for _, tt := range tests {
		cfg := Default("100001", "100002")
		tt.mod(cfg)
		err := cfg.Validate()
		require.Error(t, err, tt.name)
		assert.Contains(t, err.Error(), tt.want, tt.name)
	}
}

func TestValidateReferences(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
		want string
	}{
		{"duplicate bank", func(c *Config) { c.Banks = append(c.Banks, BankConfig{Name: "Kakao"}) }, "declared twice"},
		{"duplicate serial", func(c *Config) { c.ATMs[1].Serial = c.ATMs[0].Serial }, "atm 100001 declared twice"},
		{"unknown primary", func(c *Config) { c.ATMs[0].Primary = "Nope" }, "unknown primary bank"},
		{"unknown connected", func(c *Config) { c.ATMs[1].Connected = []string{"Nope"} }, "unknown connected bank"},
		{"single with connected", func(c *Config) { c.ATMs[0].Connected = []string{"Shinhan"} }, "single-bank"},
		{"admin number", func(c *Config) { c.Banks[0].Accounts[0].Number = model.AdminCard }, "reserved"},
		{"negative fee", func(c *Config) { c.Fees.DepositPrimary = -5 }, "deposit_primary"},
	}
	for _, tt := range tests {
		cfg := Default("100001", "100002")
		tt.mod(cfg)
		err := cfg.Validate()
		require.Error(t, err, tt.name)
		assert.Contains(t, err.Error(), tt.want, tt.name)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default("100001", "100002")
	env := map[string]string{EnvLogLevel: "debug", EnvLogFile: "/tmp/teller.log"}
	cfg.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/tmp/teller.log", cfg.Logging.File)
}

func TestSerials(t *testing.T) {
	cfg := Default("100001", "100002")
	assert.Equal(t, map[string]bool{"100001": true, "100002": true}, cfg.Serials())
}

func TestLoadRejectsZeroLimits(t *testing.T) {
	cfg := Default("100001", "100002")
	cfg.Limits.MaxPinAttempts = 0
	cfg.Limits.MaxBillsPerOperation = -1

	path := filepath.Join(t.TempDir(), "teller.yaml")
	require.NoError(t, Save(path, cfg))
	got, err := Load(path)
	require.NoError(t, err)

	err = got.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Config.Limits.MaxPinAttempts: failed gt=0")
	assert.Contains(t, err.Error(), "Config.Limits.MaxBillsPerOperation: failed gt=0")
}
