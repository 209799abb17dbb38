package sessionlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/teller/internal/session"
)

var testTime = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func testEntry() Entry {
	return FromSummary("100001", session.Summary{
		ID:           "6f1c2d3e-0000-4000-8000-000000000001",
		Card:         "111111111111",
		Bank:         "Kakao",
		Start:        testTime,
		Duration:     90 * time.Second,
		Transactions: 2,
		EndReason:    session.ReasonExit,
		Status:       session.Status{InsufficientFunds: true, LastError: "insufficient funds, with detail"},
	})
}

func TestFromSummary(t *testing.T) {
	e := testEntry()
	assert.Equal(t, "100001", e.Terminal)
	assert.Equal(t, "Kakao", e.Bank)
	assert.Equal(t, 2, e.Transactions)
	assert.Equal(t, session.ReasonExit, e.Reason)
	assert.Equal(t, "insufficient funds, with detail", e.LastError)
}

func TestAppend_NewFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, testEntry(), entries[0])
}

func TestAppend_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	e2 := testEntry()
	e2.Admin = true
	e2.Card = "999999999999"
	e2.Reason = session.ReasonAdminComplete
	require.NoError(t, Append(dir, []Entry{e2}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.False(t, entries[0].Admin)
	assert.True(t, entries[1].Admin)
	assert.Equal(t, session.ReasonAdminComplete, entries[1].Reason)
}

func TestRead_NotFound(t *testing.T) {
	entries, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestRead_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logs", "sessions.csv"), []byte(Header+"\n"), 0o644))

	entries, err := Read(dir)
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestMarshalEntry(t *testing.T) {
	row := MarshalEntry(testEntry())
	require.Len(t, row, 10)
	assert.Equal(t, "2025-01-15T10:30:00Z", row[colStart])
	assert.Equal(t, "1m30s", row[colDuration])
	assert.Equal(t, "false", row[colAdmin])
}

func TestUnmarshalEntry_Errors(t *testing.T) {
	_, err := UnmarshalEntry([]string{"one", "two"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 10 fields")

	row := MarshalEntry(testEntry())
	row[colDuration] = "soon"
	_, err = UnmarshalEntry(row)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing duration")
}
