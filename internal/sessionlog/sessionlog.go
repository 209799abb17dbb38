// Package sessionlog keeps an append-only CSV of ended sessions.
package sessionlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cleared-dev/teller/internal/session"
)

// Entry is one row in the session log.
type Entry struct {
	Start        time.Time
	Terminal     string
	SessionID    string
	Card         string
	Bank         string
	Admin        bool
	Duration     time.Duration
	Transactions int
	Reason       string
	LastError    string
}

// Header is the CSV header for sessions.csv.
const Header = "start,terminal,session_id,card,bank,admin,duration,transactions,reason,last_error"

const (
	numFields       = 10
	logDir          = "logs"
	logFile         = "logs/sessions.csv"
	colStart        = 0
	colTerminal     = 1
	colSessionID    = 2
	colCard         = 3
	colBank         = 4
	colAdmin        = 5
	colDuration     = 6
	colTransactions = 7
	colReason       = 8
	colLastError    = 9
)

// FromSummary builds an entry for a session that ended on terminal.
func FromSummary(terminal string, s session.Summary) Entry {
	return Entry{
		Start:        s.Start,
		Terminal:     terminal,
		SessionID:    s.ID,
		Card:         s.Card,
		Bank:         s.Bank,
		Admin:        s.Admin,
		Duration:     s.Duration,
		Transactions: s.Transactions,
		Reason:       s.EndReason,
		LastError:    s.Status.LastError,
	}
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colStart] = e.Start.Format(time.RFC3339)
	row[colTerminal] = e.Terminal
	row[colSessionID] = e.SessionID
	row[colCard] = e.Card
	row[colBank] = e.Bank
	row[colAdmin] = strconv.FormatBool(e.Admin)
	row[colDuration] = e.Duration.String()
	row[colTransactions] = strconv.Itoa(e.Transactions)
	row[colReason] = e.Reason
	row[colLastError] = e.LastError
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	start, err := time.Parse(time.RFC3339, record[colStart])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing start %q: %w", record[colStart], err)
	}
	admin, err := strconv.ParseBool(record[colAdmin])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing admin %q: %w", record[colAdmin], err)
	}
	dur, err := time.ParseDuration(record[colDuration])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing duration %q: %w", record[colDuration], err)
	}
	n, err := strconv.Atoi(record[colTransactions])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing transactions %q: %w", record[colTransactions], err)
	}

	return Entry{
		Start:        start,
		Terminal:     record[colTerminal],
		SessionID:    record[colSessionID],
		Card:         record[colCard],
		Bank:         record[colBank],
		Admin:        admin,
		Duration:     dur,
		Transactions: n,
		Reason:       record[colReason],
		LastError:    record[colLastError],
	}, nil
}

// Append writes entries to <root>/logs/sessions.csv, creating the file and header if needed.
func Append(root string, entries []Entry) error {
	dir := filepath.Join(root, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(root, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening session log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	return cw.Error()
}

// Read returns all entries from <root>/logs/sessions.csv.
// Returns an empty slice if the file does not exist.
func Read(root string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(root, logFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening session log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading session log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
