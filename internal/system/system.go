// Package system wires a configured network of banks and terminals.
package system

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cleared-dev/teller/internal/accounts"
	"github.com/cleared-dev/teller/internal/atm"
	"github.com/cleared-dev/teller/internal/config"
	"github.com/cleared-dev/teller/internal/model"
)

// System is the bootstrapped network: one registry shared by every terminal.
type System struct {
	Registry  *accounts.Registry
	terminals []*atm.Terminal
	bySerial  map[string]*atm.Terminal
}

// Build validates cfg, opens its banks and accounts, imports the optional
// accounts file, and creates every terminal.
func Build(cfg *config.Config, log *zap.Logger, opts ...atm.Option) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}

	reg := accounts.NewRegistry()
	for _, bc := range cfg.Banks {
		b, err := reg.AddBank(bc.Name)
		if err != nil {
			return nil, err
		}
		for _, ac := range bc.Accounts {
			if _, err := b.CreateAccount(ac.Owner, ac.Number, ac.PIN, ac.Balance); err != nil {
				return nil, fmt.Errorf("bank %s: %w", bc.Name, err)
			}
		}
	}

	if path := cfg.AccountsPath(); path != "" {
		n, err := importAccounts(reg, path)
		if err != nil {
			return nil, err
		}
		log.Info("accounts imported", zap.String("file", path), zap.Int("accounts", n))
	}

	s := &System{Registry: reg, bySerial: make(map[string]*atm.Terminal)}
	opts = append([]atm.Option{atm.WithLogger(log)}, opts...)
	for _, ac := range cfg.ATMs {
		c, err := model.CashFromInts(ac.Cash)
		if err != nil {
			return nil, fmt.Errorf("atm %s: %w", ac.Serial, err)
		}
		t, err := atm.New(reg, atm.Config{
			Serial:    ac.Serial,
			Mode:      ac.Mode,
			Language:  ac.Language,
			Primary:   ac.Primary,
			Connected: ac.Connected,
			Cash:      c,
			Fees:      cfg.Fees,
			Limits:    cfg.Limits,
		}, opts...)
		if err != nil {
			return nil, err
		}
		s.terminals = append(s.terminals, t)
		s.bySerial[ac.Serial] = t
	}
	log.Info("system ready",
		zap.Int("banks", len(reg.Banks())),
		zap.Int("terminals", len(s.terminals)),
	)
	return s, nil
}

func importAccounts(reg *accounts.Registry, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening accounts file: %w", err)
	}
	defer f.Close()

	accts, err := accounts.ReadAccounts(f)
	if err != nil {
		return 0, err
	}
	if err := accounts.Import(reg, accts); err != nil {
		return 0, err
	}
	return len(accts), nil
}

// Terminal returns a terminal by serial.
func (s *System) Terminal(serial string) (*atm.Terminal, bool) {
	t, ok := s.bySerial[serial]
	return t, ok
}

// Terminals returns every terminal in config order.
func (s *System) Terminals() []*atm.Terminal {
	out := make([]*atm.Terminal, len(s.terminals))
	copy(out, s.terminals)
	return out
}

// History returns every terminal's transactions ordered by time, then ID.
func (s *System) History() []model.Transaction {
	var out []model.Transaction
	for _, t := range s.terminals {
		out = append(out, t.History()...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// WriteSnapshot prints every terminal's cash and every account's balance.
func (s *System) WriteSnapshot(w io.Writer, at time.Time) error {
	p := &printer{w: w}
	p.printf("Snapshot at %s\n\n", at.Format("2006-01-02 15:04:05"))

	p.printf("%-8s %-12s %-10s %-20s %12s  %s\n", "SERIAL", "MODE", "PRIMARY", "CONNECTED", "CASH", "BILLS")
	for _, t := range s.terminals {
		connected := "-"
		if names := t.ConnectedBanks(); len(names) > 0 {
			connected = strings.Join(names, ",")
		}
		inv := t.Inventory()
		p.printf("%-8s %-12s %-10s %-20s %12d  %s\n",
			t.Serial(), t.Mode(), t.PrimaryBank(), connected, inv.Total(), inv.String())
	}

	p.printf("\n%-10s %-12s %-14s %14s\n", "BANK", "OWNER", "ACCOUNT", "BALANCE")
	for _, a := range s.Registry.All() {
		p.printf("%-10s %-12s %-14s %14d\n", a.Bank, a.Owner, a.Number, a.Balance)
	}
	return p.err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
