package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/lendkit/internal/chain"
	"github.com/mrz1836/lendkit/internal/config"
	"github.com/mrz1836/lendkit/internal/output"
	lenderr "github.com/mrz1836/lendkit/pkg/errors"
)

func findTxAction(t *testing.T, use string) txAction {
	t.Helper()
	for _, a := range txActions {
		if a.use == use {
			return a
		}
	}
	t.Fatalf("no tx action %q", use)
	return txAction{}
}

func TestTxCommandsRegistered(t *testing.T) {
	for _, use := range []string{"stake", "unstake", "borrow", "repay"} {
		cmd, _, err := rootCmd.Find([]string{use})
		require.NoError(t, err)
		assert.Equal(t, use, cmd.Name())
		assert.NotNil(t, cmd.Flags().Lookup("amount"))
		assert.NotNil(t, cmd.Flags().ShorthandLookup("y"))
	}
}

func TestStake_RaisesAllowanceThenStakes(t *testing.T) {
	setupTestEnv(t, output.FormatJSON)
	withMockPrompts(t, testPassword, false)
	fc := newFakeChain()
	fc.balances[config.DefaultStableToken] = 100
	fc.allowances[config.DefaultStableToken] = 50
	dial := withFakeLending(t, fc)

	cmd, buf := newTestCmd()
	require.NoError(t, runTx(cmd, findTxAction(t, "stake"), "80", true))
	assert.True(t, dial.unlock)

	assert.Equal(t, []string{"increase_allowance", "stake"}, fc.recordedActions())
	assert.Empty(t, fc.funds[1])

	var res txResult
	decodeJSON(t, buf, &res)
	assert.Equal(t, "stake", res.Action)
	assert.Equal(t, testAccount, res.Account)
	assert.Equal(t, "80", res.Amount.Raw)
	assert.Equal(t, "HASH2", res.Hash)
	assert.Equal(t, int64(42), res.Height)
}

func TestStake_AttachesFundsWithStableDenom(t *testing.T) {
	setupTestEnv(t, output.FormatJSON)
	cfg.Contracts.StableDenom = "usd"
	fc := newFakeChain()
	fc.balances[config.DefaultStableToken] = 100
	fc.allowances[config.DefaultStableToken] = 100
	withFakeLending(t, fc)

	cmd, _ := newTestCmd()
	require.NoError(t, runTx(cmd, findTxAction(t, "stake"), "80", true))

	assert.Equal(t, []string{"stake"}, fc.recordedActions())
	assert.Equal(t, []chain.Coin{{Denom: "usd", Amount: "80"}}, fc.funds[0])
}

func TestRepay_NoAllowanceNeeded(t *testing.T) {
	setupTestEnv(t, output.FormatText)
	fc := newFakeChain()
	fc.balances[config.DefaultNativeToken] = 100
	fc.allowances[config.DefaultNativeToken] = 100
	withFakeLending(t, fc)

	cmd, buf := newTestCmd()
	require.NoError(t, runTx(cmd, findTxAction(t, "repay"), "100", true))

	assert.Equal(t, []string{"repay"}, fc.recordedActions())
	assert.Contains(t, buf.String(), "Transaction confirmed.")
	assert.Contains(t, buf.String(), "0.0001 OM")
	assert.Contains(t, buf.String(), "150000 / 200000")
}

func TestBorrowAndUnstake_Direct(t *testing.T) {
	for _, use := range []string{"borrow", "unstake"} {
		t.Run(use, func(t *testing.T) {
			setupTestEnv(t, output.FormatJSON)
			fc := newFakeChain()
			withFakeLending(t, fc)

			cmd, _ := newTestCmd()
			require.NoError(t, runTx(cmd, findTxAction(t, use), "5000000", true))
			assert.Equal(t, []string{use}, fc.recordedActions())
		})
	}
}

func TestTx_ConfirmDeclined(t *testing.T) {
	setupTestEnv(t, output.FormatText)
	withMockPrompts(t, testPassword, false)
	fc := newFakeChain()
	withFakeLending(t, fc)

	cmd, buf := newTestCmd()
	require.NoError(t, runTx(cmd, findTxAction(t, "borrow"), "5000000", false))
	assert.Equal(t, "Transaction canceled.\n", buf.String())
	assert.Empty(t, fc.recordedActions())
}

func TestTx_ConfirmAccepted(t *testing.T) {
	setupTestEnv(t, output.FormatJSON)
	withMockPrompts(t, testPassword, true)
	var asked string
	promptConfirmFn = func(q string) bool {
		asked = q
		return true
	}
	fc := newFakeChain()
	withFakeLending(t, fc)

	cmd, _ := newTestCmd()
	require.NoError(t, runTx(cmd, findTxAction(t, "borrow"), "5000000", false))
	assert.Equal(t, "Borrow 5.0 OM (5000000)?", asked)
	assert.Equal(t, []string{"borrow"}, fc.recordedActions())
}

func TestTx_Errors(t *testing.T) {
	tests := []struct {
		name   string
		action string
		amount string
		want   error
	}{
		{"empty amount", "stake", "", lenderr.ErrAmountRequired},
		{"negative amount", "stake", "-5", lenderr.ErrInvalidAmount},
		{"decimal amount", "borrow", "1.5", lenderr.ErrInvalidAmount},
		{"zero amount", "repay", "0", lenderr.ErrInvalidAmount},
		{"stake beyond balance", "stake", "101", lenderr.ErrInsufficientBalance},
		{"repay beyond balance", "repay", "101", lenderr.ErrInsufficientBalance},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setupTestEnv(t, output.FormatJSON)
			fc := newFakeChain()
			fc.balances[config.DefaultStableToken] = 100
			fc.balances[config.DefaultNativeToken] = 100
			withFakeLending(t, fc)

			cmd, _ := newTestCmd()
			err := runTx(cmd, findTxAction(t, tc.action), tc.amount, true)
			require.ErrorIs(t, err, tc.want)
			assert.Empty(t, fc.recordedActions())
		})
	}
}

func TestAllowanceEnsure(t *testing.T) {
	setupTestEnv(t, output.FormatJSON)
	fc := newFakeChain()
	fc.allowances[config.DefaultStableToken] = 500
	withFakeLending(t, fc)
	allowanceToken = "stable"

	allowanceAmount = "400"
	cmd, buf := newTestCmd()
	require.NoError(t, runAllowanceEnsure(cmd, nil))

	var covered allowanceResult
	decodeJSON(t, buf, &covered)
	assert.False(t, covered.Submitted)
	assert.Empty(t, fc.recordedActions())

	allowanceAmount = "600"
	cmd, buf = newTestCmd()
	require.NoError(t, runAllowanceEnsure(cmd, nil))

	var raised allowanceResult
	decodeJSON(t, buf, &raised)
	assert.True(t, raised.Submitted)
	assert.Equal(t, "HASH1", raised.Hash)
	assert.Equal(t, "600", raised.Amount.Raw)
	assert.Equal(t, []string{"increase_allowance"}, fc.recordedActions())
	assert.Equal(t, int64(1100), fc.allowances[config.DefaultStableToken])
}

func TestAllowanceEnsure_Text(t *testing.T) {
	setupTestEnv(t, output.FormatText)
	fc := newFakeChain()
	withFakeLending(t, fc)
	allowanceToken = "native"
	allowanceAmount = "2500000"

	cmd, buf := newTestCmd()
	require.NoError(t, runAllowanceEnsure(cmd, nil))
	assert.Contains(t, buf.String(), "Allowance raised by 2.5 OM.")
	assert.Contains(t, buf.String(), "Hash:   HASH1")
}
