package cli

import (
	"context"
	"math/big"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/lendkit/internal/chain"
	"github.com/mrz1836/lendkit/internal/chain/cosmwasm"
	"github.com/mrz1836/lendkit/internal/config"
	"github.com/mrz1836/lendkit/internal/lending"
	"github.com/mrz1836/lendkit/internal/metrics"
	"github.com/mrz1836/lendkit/internal/output"
	"github.com/mrz1836/lendkit/internal/wallet"
	lenderr "github.com/mrz1836/lendkit/pkg/errors"
)

// CommandContext holds dependencies for CLI commands.
type CommandContext struct {
	Config    *config.Config
	Logger    *config.Logger
	Formatter *output.Formatter
	Printer   *output.Printer
	Metrics   *metrics.Metrics
}

// commandContext snapshots the globals set up by initGlobals, with results
// written to the command's output.
func commandContext(cmd *cobra.Command) *CommandContext {
	format := output.FormatText
	if formatter != nil {
		format = formatter.Format()
	}
	log := logger
	if log == nil {
		log = config.NullLogger()
	}
	return &CommandContext{
		Config:    cfg,
		Logger:    log,
		Formatter: output.NewFormatter(format, cmd.OutOrStdout()),
		Printer:   printer,
		Metrics:   collector,
	}
}

// dialOptions selects how the lending client binds an account.
type dialOptions struct {
	// unlock decrypts the keyfile and binds it as the transaction signer.
	unlock bool
	// account overrides the keyfile address for read-only commands.
	account string
}

// session is a dialed lending client and its release.
type session struct {
	client *lending.Client
	close  func()
}

// dialLendingFn builds the lending client for a command. Tests replace it.
//
//nolint:gochecknoglobals // swapped by tests
var dialLendingFn = dialLending

func dialLending(ctx context.Context, cc *CommandContext, opts dialOptions) (*session, error) {
	c := cc.Config
	if err := c.Validate(); err != nil {
		return nil, err
	}

	gasPrice, err := cosmwasm.ParseGasPrice(c.Network.GasPrice)
	if err != nil {
		return nil, err
	}

	cw, err := cosmwasm.New(cosmwasm.Options{
		ChainID:        c.Network.ChainID,
		RPC:            c.Network.RPC,
		REST:           c.Network.REST,
		Prefix:         c.Network.Bech32Prefix,
		GasPrice:       gasPrice,
		GasMultiplier:  c.Network.GasMultiplier,
		PollInterval:   c.Client.PollInterval,
		ConfirmTimeout: c.Client.ConfirmTimeout,
		Retry:          chain.QueryRetryConfig(c.Client.QueryAttempts),
		RateLimiter:    chain.NewRateLimiter(c.Client.RateLimit, c.Client.RateBurst),
		Recorder:       cc.Metrics,
		Logger:         cc.Logger,
	})
	if err != nil {
		return nil, err
	}

	s := lending.Session{
		Account: opts.account,
		Contracts: lending.Contracts{
			Lending:     c.Contracts.Lending,
			StableToken: c.Contracts.StableToken,
			NativeToken: c.Contracts.NativeToken,
			StableDenom: c.Contracts.StableDenom,
		},
	}

	release := func() {}
	store := wallet.NewKeyStore(c.KeyFilePath())
	switch {
	case opts.unlock:
		kr := wallet.NewKeyring(store, wallet.KeyringOptions{
			ChainID:      c.Network.ChainID,
			Prefix:       c.Network.Bech32Prefix,
			CoinType:     wallet.CosmosCoinType,
			AccountIndex: c.Wallet.AccountIndex,
			Password:     keyfilePassword,
		})
		acct, err := cw.Connect(ctx, kr)
		if err != nil {
			kr.Lock()
			return nil, err
		}
		s.Account = acct.Address
		release = kr.Lock
	case s.Account != "":
		if err := cosmwasm.ValidateAddress(s.Account, c.Network.Bech32Prefix); err != nil {
			return nil, err
		}
	default:
		info, err := store.Info()
		if err != nil {
			return nil, err
		}
		s.Account = info.Address
	}

	client, err := lending.New(cw, s,
		lending.WithLogger(cc.Logger),
		lending.WithRecorder(cc.Metrics),
		lending.WithBusyObserver(func(busy bool) { cc.Logger.Debug("busy=%t", busy) }),
	)
	if err != nil {
		release()
		return nil, err
	}
	return &session{client: client, close: release}, nil
}

// contextWithTimeout returns a timeout context rooted in the command context.
func contextWithTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	return withTimeout(base, d)
}

// withTimeout is context.WithTimeout where a non-positive d means no deadline.
func withTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d)
}

// txTimeout bounds a submission: the request timeout plus the confirmation wait.
func txTimeout(c *config.Config) time.Duration {
	return c.Client.Timeout + c.Client.ConfirmTimeout
}

// tokenRef is a CW20 token resolved from a --token value.
type tokenRef struct {
	Name    string
	Address string
	Symbol  string
}

// resolveToken maps "stable", "native" or a contract address to a token.
// An empty name is the stable token.
func resolveToken(c *config.Config, name string) (tokenRef, error) {
	switch name {
	case "", "stable":
		return tokenRef{Name: "stable", Address: c.Contracts.StableToken, Symbol: c.Contracts.StableSymbol}, nil
	case "native":
		return tokenRef{Name: "native", Address: c.Contracts.NativeToken, Symbol: c.Contracts.NativeSymbol}, nil
	}

	if err := cosmwasm.ValidateAddress(name, c.Network.Bech32Prefix); err != nil {
		return tokenRef{}, lenderr.WithSuggestion(err, "use 'stable', 'native' or a token contract address")
	}
	ref := tokenRef{Name: name, Address: name}
	switch name {
	case c.Contracts.StableToken:
		ref.Symbol = c.Contracts.StableSymbol
	case c.Contracts.NativeToken:
		ref.Symbol = c.Contracts.NativeSymbol
	}
	return ref, nil
}

// amount renders v with the configured decimals and symbol.
func (cc *CommandContext) amount(v *big.Int, symbol string) output.Amount {
	return output.NewAmount(v, cc.Config.Contracts.Decimals, symbol)
}
