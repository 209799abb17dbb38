package accounts

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/teller/internal/model"
)

func TestCSVRoundTrip(t *testing.T) {
	accounts := []Account{
		{Bank: "Kakao", Owner: "Jane", Number: "111111111111", PIN: "1234", Balance: 500000},
		{Bank: "Shinhan", Owner: "Min", Number: "222222222222", PIN: "4321", Balance: 0},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, accounts, true))

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, accounts[0], got[0])
	assert.Equal(t, accounts[1], got[1])
}

func TestWriteAccountsHidesPIN(t *testing.T) {
	accounts := []Account{{Bank: "Kakao", Owner: "Jane", Number: "111111111111", PIN: "1234", Balance: 10}}

	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, accounts, false))

	assert.Equal(t, Header+"\nKakao,Jane,111111111111,,10\n", buf.String())
}

func TestReadAccountsBadBalance(t *testing.T) {
	input := Header + "\nKakao,Jane,111111111111,1234,lots\n"
	_, err := ReadAccounts(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestReadAccountsEmpty(t *testing.T) {
	got, err := ReadAccounts(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestImport(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.AddBank("Kakao")
	require.NoError(t, err)

	err = Import(reg, []Account{
		{Bank: "Kakao", Owner: "Jane", Number: "111111111111", PIN: "1234", Balance: 100},
		{Bank: "Shinhan", Owner: "Min", Number: "222222222222", PIN: "4321", Balance: 200},
	})
	require.NoError(t, err)

	require.Len(t, reg.Banks(), 2)
	b, ok := reg.Bank("Shinhan")
	require.True(t, ok)
	bal, err := b.Balance("222222222222")
	require.NoError(t, err)
	assert.Equal(t, int64(200), bal)

	err = Import(reg, []Account{{Bank: "Kakao", Owner: "X", Number: "111111111111", PIN: "0000"}})
	assert.ErrorIs(t, err, model.ErrDuplicateAccount)
}
