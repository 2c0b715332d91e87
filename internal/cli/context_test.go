package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/lendkit/internal/config"
	"github.com/mrz1836/lendkit/internal/output"
	lenderr "github.com/mrz1836/lendkit/pkg/errors"
)

func TestResolveToken(t *testing.T) {
	c := config.Defaults()

	tests := []struct {
		name    string
		input   string
		want    tokenRef
		wantErr error
	}{
		{"empty is stable", "", tokenRef{Name: "stable", Address: config.DefaultStableToken, Symbol: "USD"}, nil},
		{"stable", "stable", tokenRef{Name: "stable", Address: config.DefaultStableToken, Symbol: "USD"}, nil},
		{"native", "native", tokenRef{Name: "native", Address: config.DefaultNativeToken, Symbol: "OM"}, nil},
		{"configured address", config.DefaultNativeToken, tokenRef{Name: config.DefaultNativeToken, Address: config.DefaultNativeToken, Symbol: "OM"}, nil},
		{"other address", config.DefaultLendingContract, tokenRef{Name: config.DefaultLendingContract, Address: config.DefaultLendingContract}, nil},
		{"unknown name", "usdc", tokenRef{}, lenderr.ErrInvalidAddress},
		{"uppercase address", "MANTRA1ABC", tokenRef{}, lenderr.ErrInvalidAddress},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := resolveToken(c, tc.input)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := withTimeout(context.Background(), 0)
	_, ok := ctx.Deadline()
	assert.False(t, ok)
	cancel()
	assert.Error(t, ctx.Err())

	ctx, cancel = withTimeout(context.Background(), time.Minute)
	defer cancel()
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}

func TestTxTimeout(t *testing.T) {
	c := config.Defaults()
	assert.Equal(t, c.Client.Timeout+c.Client.ConfirmTimeout, txTimeout(c))
}

func TestCommandContext(t *testing.T) {
	setupTestEnv(t, output.FormatJSON)

	cmd, buf := newTestCmd()
	cc := commandContext(cmd)
	assert.Same(t, cfg, cc.Config)
	assert.Same(t, collector, cc.Metrics)
	assert.True(t, cc.Formatter.IsJSON())
	assert.Same(t, buf, cc.Formatter.Writer())

	formatter, logger = nil, nil
	cc = commandContext(cmd)
	assert.Equal(t, output.FormatText, cc.Formatter.Format())
	assert.NotNil(t, cc.Logger)
}

func TestDialLending_Validation(t *testing.T) {
	setupTestEnv(t, output.FormatJSON)
	cmd, _ := newTestCmd()

	cfg.Network.GasPrice = "cheap"
	_, err := dialLending(context.Background(), commandContext(cmd), dialOptions{})
	require.ErrorIs(t, err, lenderr.ErrInvalidGasPrice)
}

func TestDialLending_AccountOverride(t *testing.T) {
	setupTestEnv(t, output.FormatJSON)
	cmd, _ := newTestCmd()

	_, err := dialLending(context.Background(), commandContext(cmd), dialOptions{account: "cosmos1notmantra"})
	require.ErrorIs(t, err, lenderr.ErrInvalidAddress)

	s, err := dialLending(context.Background(), commandContext(cmd), dialOptions{account: config.DefaultLendingContract})
	require.NoError(t, err)
	defer s.close()
	assert.Equal(t, config.DefaultLendingContract, s.client.Session().Account)
}

func TestDialLending_NoKeyfile(t *testing.T) {
	setupTestEnv(t, output.FormatJSON)
	cmd, _ := newTestCmd()

	_, err := dialLending(context.Background(), commandContext(cmd), dialOptions{})
	require.ErrorIs(t, err, lenderr.ErrWalletNotFound)
}
