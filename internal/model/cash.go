package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Denomination is a bill value in currency units.
type Denomination int64

const (
	Bill1000  Denomination = 1000
	Bill5000  Denomination = 5000
	Bill10000 Denomination = 10000
	Bill50000 Denomination = 50000
)

// Denominations lists the accepted bills, largest first.
var Denominations = []Denomination{Bill50000, Bill10000, Bill5000, Bill1000}

// Valid reports whether d is an accepted bill.
func (d Denomination) Valid() bool {
	for _, v := range Denominations {
		if d == v {
			return true
		}
	}
	return false
}

// Cash maps a denomination to a bill count.
type Cash map[Denomination]int

// Total returns the value of all bills.
func (c Cash) Total() int64 {
	var total int64
	for d, n := range c {
		total += int64(d) * int64(n)
	}
	return total
}

// Bills returns the number of bills.
func (c Cash) Bills() int {
	var n int
	for _, count := range c {
		n += count
	}
	return n
}

// Validate rejects unknown denominations and negative counts.
func (c Cash) Validate() error {
	for d, n := range c {
		if !d.Valid() {
			return &Error{Kind: KindInvalidDenomination, Supplied: int64(d)}
		}
		if n < 0 {
			return &Error{Kind: KindInvalidAmount, Supplied: int64(n)}
		}
	}
	return nil
}

// Clone returns a copy without zero entries.
func (c Cash) Clone() Cash {
	out := make(Cash, len(c))
	for d, n := range c {
		if n != 0 {
			out[d] = n
		}
	}
	return out
}

// String renders "50000x1 10000x3", largest bill first.
func (c Cash) String() string {
	keys := make([]Denomination, 0, len(c))
	for d, n := range c {
		if n != 0 {
			keys = append(keys, d)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] > keys[j] })
	parts := make([]string, len(keys))
	for i, d := range keys {
		parts[i] = strconv.FormatInt(int64(d), 10) + "x" + strconv.Itoa(c[d])
	}
	return strings.Join(parts, " ")
}

// CashFromInts converts a config-style map into Cash.
func CashFromInts(m map[int]int) (Cash, error) {
	c := make(Cash, len(m))
	for d, n := range m {
		c[Denomination(d)] = n
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("cash %v: %w", m, err)
	}
	return c, nil
}

// Ints converts Cash back into a config-style map.
func (c Cash) Ints() map[int]int {
	m := make(map[int]int, len(c))
	for d, n := range c {
		m[int(d)] = n
	}
	return m
}
