package id

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync/atomic"
)

const (
	serialMin = 100000
	serialMax = 999999
	txPrefix  = "TX"
)

// FormatTransactionID returns a transaction ID like "TX-100001-000042".
func FormatTransactionID(serial string, seq int64) string {
	return fmt.Sprintf("%s-%s-%06d", txPrefix, serial, seq)
}

// ParseTransactionID parses "TX-100001-000042" into serial and sequence.
func ParseTransactionID(id string) (serial string, seq int64, err error) {
	parts := strings.SplitN(id, "-", 3)
	if len(parts) != 3 || parts[0] != txPrefix {
		return "", 0, fmt.Errorf("invalid transaction ID format: %q", id)
	}
	if !ValidSerial(parts[1]) {
		return "", 0, fmt.Errorf("invalid serial in transaction ID %q", id)
	}
	seq, err = strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid sequence in transaction ID %q: %w", id, err)
	}
	return parts[1], seq, nil
}

// ValidSerial reports whether s is a 6-digit terminal serial.
func ValidSerial(s string) bool {
	n, err := strconv.Atoi(s)
	return err == nil && len(s) == 6 && n >= serialMin && n <= serialMax
}

// NewSerial picks a random 6-digit serial not present in taken.
func NewSerial(taken map[string]bool) (string, error) {
	if len(taken) >= serialMax-serialMin+1 {
		return "", errors.New("serial space exhausted")
	}
	for range 1000 {
		s := strconv.Itoa(serialMin + rand.IntN(serialMax-serialMin+1))
		if !taken[s] {
			return s, nil
		}
	}
	return "", errors.New("no free serial found")
}

// Sequencer hands out monotonic transaction IDs for one terminal.
type Sequencer struct {
	serial string
	last   atomic.Int64
}

// NewSequencer returns a Sequencer whose first ID has sequence 1.
func NewSequencer(serial string) *Sequencer {
	return &Sequencer{serial: serial}
}

// Next returns the next transaction ID.
func (s *Sequencer) Next() string {
	return FormatTransactionID(s.serial, s.last.Add(1))
}
