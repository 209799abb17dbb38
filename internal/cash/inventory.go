// Package cash tracks a terminal's bill inventory and computes dispensable
// denomination breakdowns.
package cash

import (
	"fmt"

	"github.com/cleared-dev/teller/internal/model"
)

// Inventory is a terminal's bill count per denomination. Counts are never
// negative. It is not safe for concurrent use; the owning terminal
// serializes access.
type Inventory struct {
	counts model.Cash
}

// NewInventory returns an inventory loaded with initial bills.
func NewInventory(initial model.Cash) (*Inventory, error) {
	if err := initial.Validate(); err != nil {
		return nil, fmt.Errorf("loading inventory: %w", err)
	}
	return &Inventory{counts: initial.Clone()}, nil
}

// Count returns the bills held for d.
func (inv *Inventory) Count(d model.Denomination) int {
	return inv.counts[d]
}

// Snapshot returns a copy of the current counts.
func (inv *Inventory) Snapshot() model.Cash {
	return inv.counts.Clone()
}

// Total returns the value held.
func (inv *Inventory) Total() int64 {
	return inv.counts.Total()
}

// HasSufficient reports whether the total value covers amount. A true result
// does not mean the amount can be dispensed; see Breakdown.
func (inv *Inventory) HasSufficient(amount int64) bool {
	return inv.counts.Total() >= amount
}

// Breakdown returns the greedy bill allocation for amount from the current
// counts, or false if the amount cannot be made exactly.
func (inv *Inventory) Breakdown(amount int64) (model.Cash, bool) {
	return Breakdown(inv.counts, amount)
}

// Add puts bills into the inventory.
func (inv *Inventory) Add(c model.Cash) error {
	if err := c.Validate(); err != nil {
		return err
	}
	for d, n := range c {
		if n > 0 {
			inv.counts[d] += n
		}
	}
	return nil
}

// Remove takes bills out of the inventory. Nothing changes if any
// denomination would go negative.
func (inv *Inventory) Remove(c model.Cash) error {
	if err := c.Validate(); err != nil {
		return err
	}
	for d, n := range c {
		if inv.counts[d] < n {
			return model.Errorf(model.KindInsufficientCash, int64(n), int64(inv.counts[d]))
		}
	}
	for d, n := range c {
		inv.counts[d] -= n
		if inv.counts[d] == 0 {
			delete(inv.counts, d)
		}
	}
	return nil
}

// Dispense checks sufficiency, computes a breakdown, and removes the bills.
func (inv *Inventory) Dispense(amount int64) (model.Cash, error) {
	if !inv.HasSufficient(amount) {
		return nil, model.Errorf(model.KindInsufficientCash, amount, inv.Total())
	}
	bills, ok := inv.Breakdown(amount)
	if !ok {
		return nil, model.Errorf(model.KindInfeasibleDenomination, amount, inv.Total())
	}
	if err := inv.Remove(bills); err != nil {
		return nil, err
	}
	return bills, nil
}

// Breakdown allocates amount from avail, largest denomination first, taking
// as many of each bill as fit. It reports false when a remainder is left.
func Breakdown(avail model.Cash, amount int64) (model.Cash, bool) {
	if amount < 0 {
		return nil, false
	}
	out := make(model.Cash)
	remaining := amount
	for _, d := range model.Denominations {
		n := min(remaining/int64(d), int64(avail[d]))
		if n > 0 {
			out[d] = int(n)
			remaining -= n * int64(d)
		}
	}
	if remaining != 0 {
		return nil, false
	}
	return out, true
}

// Merge returns the sum of two bill sets.
func Merge(a, b model.Cash) model.Cash {
	out := a.Clone()
	for d, n := range b {
		out[d] += n
	}
	return out
}
