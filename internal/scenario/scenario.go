// Package scenario drives a terminal through a scripted customer visit.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/teller/internal/validator"
)

// Scenario is a YAML script of steps run against one terminal.
type Scenario struct {
	Terminal string `yaml:"terminal" validate:"serial"`
	Language string `yaml:"language,omitempty" validate:"omitempty,oneof=en ko"`
	Steps    []Step `yaml:"steps" validate:"required,min=1,dive"`
}

// Step is one customer or administrator action. Expect names the error
// kind the step must fail with; empty means it must succeed.
type Step struct {
	Action       string      `yaml:"action" validate:"required"`
	Card         string      `yaml:"card,omitempty"`
	PIN          string      `yaml:"pin,omitempty"`
	Account      string      `yaml:"account,omitempty"`
	Destination  string      `yaml:"destination,omitempty"`
	Amount       int64       `yaml:"amount,omitempty"`
	Cash         map[int]int `yaml:"cash,omitempty"`
	Fee          map[int]int `yaml:"fee,omitempty"`
	AcceptChange bool        `yaml:"accept_change,omitempty"`
	Type         string      `yaml:"type,omitempty"`
	Language     string      `yaml:"language,omitempty"`
	Expect       string      `yaml:"expect,omitempty"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a scenario.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if err := validator.Struct(&sc); err != nil {
		return nil, fmt.Errorf("validating scenario: %w", err)
	}
	return &sc, nil
}

// Save writes a scenario as YAML.
func Save(path string, sc *Scenario) error {
	data, err := yaml.Marshal(sc)
	if err != nil {
		return fmt.Errorf("marshaling scenario: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing scenario: %w", err)
	}
	return nil
}

// Sample returns a walkthrough of a multi-bank terminal: a withdrawal, a
// rejected check, a transfer and the admin history.
func Sample(serial string) *Scenario {
	return &Scenario{
		Terminal: serial,
		Language: "en",
		Steps: []Step{
			{Action: ActionInsertCard, Card: "111111111111"},
			{Action: ActionEnterPIN, PIN: "0000", Expect: "WRONG_PIN"},
			{Action: ActionEnterPIN, PIN: "1234"},
			{Action: ActionWithdraw, Account: "111111111111", Amount: 70_000},
			{Action: ActionDepositCheck, Account: "111111111111", Amount: 50_000, Fee: map[int]int{1000: 1}, Expect: "INVALID_CHECK_AMOUNT"},
			{Action: ActionDepositCash, Account: "111111111111", Cash: map[int]int{50000: 2}, Fee: map[int]int{5000: 1}, AcceptChange: true},
			{Action: ActionQuote, Type: "account-transfer", Account: "111111111111", Destination: "222222222222"},
			{Action: ActionTransferAccount, Account: "111111111111", Destination: "222222222222", Amount: 30_000},
			{Action: ActionExit},
			{Action: ActionInsertCard, Card: "999999999999"},
			{Action: ActionAdminHistory},
		},
	}
}
