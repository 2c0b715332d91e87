package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/lendkit/internal/config"
	"github.com/mrz1836/lendkit/internal/output"
	lenderr "github.com/mrz1836/lendkit/pkg/errors"
)

func TestBalance_JSON(t *testing.T) {
	setupTestEnv(t, output.FormatJSON)
	fc := newFakeChain()
	fc.balances[config.DefaultStableToken] = 100_000_000
	fc.allowances[config.DefaultStableToken] = 50_000_000
	fc.balances[config.DefaultNativeToken] = 1_500_000
	fc.allowances[config.DefaultNativeToken] = 9_000_000
	dial := withFakeLending(t, fc)

	cmd, buf := newTestCmd()
	require.NoError(t, runBalance(cmd, nil))
	assert.False(t, dial.unlock)

	var res balanceResult
	decodeJSON(t, buf, &res)
	assert.Equal(t, testAccount, res.Account)
	require.Len(t, res.Tokens, 2)

	stable := res.Tokens[0]
	assert.Equal(t, "stable", stable.Token)
	assert.Equal(t, config.DefaultStableToken, stable.Contract)
	assert.Equal(t, "100000000", stable.Balance.Raw)
	assert.Equal(t, "50000000", stable.Spendable.Raw)
	assert.Equal(t, "50.0", stable.Spendable.Display)
	assert.Equal(t, "USD", stable.Spendable.Symbol)

	native := res.Tokens[1]
	assert.Equal(t, "native", native.Token)
	assert.Equal(t, "1500000", native.Spendable.Raw)
	assert.Equal(t, "OM", native.Spendable.Symbol)

	assert.Empty(t, fc.recordedActions())
}

func TestBalance_TextOneToken(t *testing.T) {
	setupTestEnv(t, output.FormatText)
	fc := newFakeChain()
	fc.balances[config.DefaultNativeToken] = 2_000_000
	fc.allowances[config.DefaultNativeToken] = 2_000_000
	withFakeLending(t, fc)
	balanceToken = "native"

	cmd, buf := newTestCmd()
	require.NoError(t, runBalance(cmd, nil))

	text := buf.String()
	assert.Contains(t, text, "Account: "+testAccount)
	assert.Contains(t, text, "SPENDABLE")
	assert.Contains(t, text, "2.0 OM")
	assert.NotContains(t, text, "stable")
}

func TestBalance_Address(t *testing.T) {
	setupTestEnv(t, output.FormatJSON)
	dial := withFakeLending(t, newFakeChain())
	balanceAddress = "mantra1someoneelse"

	cmd, buf := newTestCmd()
	require.NoError(t, runBalance(cmd, nil))
	assert.Equal(t, "mantra1someoneelse", dial.account)

	var res balanceResult
	decodeJSON(t, buf, &res)
	assert.Equal(t, "mantra1someoneelse", res.Account)
}

func TestBalance_InvalidToken(t *testing.T) {
	setupTestEnv(t, output.FormatJSON)
	withFakeLending(t, newFakeChain())
	balanceToken = "usdc"

	cmd, _ := newTestCmd()
	err := runBalance(cmd, nil)
	require.ErrorIs(t, err, lenderr.ErrInvalidAddress)
}

func TestBalance_QueryError(t *testing.T) {
	setupTestEnv(t, output.FormatJSON)
	fc := newFakeChain()
	fc.queryErr = assert.AnError
	withFakeLending(t, fc)

	cmd, _ := newTestCmd()
	err := runBalance(cmd, nil)
	require.ErrorIs(t, err, lenderr.ErrQuery)
}
