package accounts

import (
	"errors"
	"fmt"
	"sync"
)

// Registry holds every bank in the network for the process lifetime.
type Registry struct {
	mu     sync.RWMutex
	banks  []*Bank
	byName map[string]*Bank
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Bank)}
}

// AddBank registers a new bank. Names are unique.
func (r *Registry) AddBank(name string) (*Bank, error) {
	if name == "" {
		return nil, errors.New("bank name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; ok {
		return nil, fmt.Errorf("bank %q already exists", name)
	}
	b := NewBank(name)
	r.banks = append(r.banks, b)
	r.byName[name] = b
	return b, nil
}

// Bank returns a bank by name.
func (r *Registry) Bank(name string) (*Bank, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byName[name]
	return b, ok
}

// Banks returns all banks in registration order.
func (r *Registry) Banks() []*Bank {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Bank, len(r.banks))
	copy(out, r.banks)
	return out
}

// All returns copies of every account across all banks.
func (r *Registry) All() []Account {
	var out []Account
	for _, b := range r.Banks() {
		out = append(out, b.Accounts()...)
	}
	return out
}
