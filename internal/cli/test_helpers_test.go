package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/lendkit/internal/chain"
	"github.com/mrz1836/lendkit/internal/config"
	"github.com/mrz1836/lendkit/internal/lending"
	"github.com/mrz1836/lendkit/internal/metrics"
	"github.com/mrz1836/lendkit/internal/output"
	"github.com/mrz1836/lendkit/internal/wallet"
	lenderr "github.com/mrz1836/lendkit/pkg/errors"
)

const (
	testPassword = "correct horse battery"
	testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	testAccount  = "mantra1testaccount"
)

func TestMain(m *testing.M) {
	wallet.SetScryptWorkFactor(10)
	os.Exit(m.Run())
}

// setupTestEnv points the CLI globals at a fresh home directory and restores them afterwards.
func setupTestEnv(t *testing.T, format output.Format) string {
	t.Helper()

	origCfg, origLogger, origFormatter := cfg, logger, formatter
	origPrinter, origCollector := printer, collector
	origWords, origForce := walletWords, walletForce
	origBalanceToken, origBalanceAddress := balanceToken, balanceAddress
	origPositionAddress := positionAddress
	origConfigForce := configForce
	origAllowanceToken, origAllowanceAmount := allowanceToken, allowanceAmount
	t.Cleanup(func() {
		cfg, logger, formatter = origCfg, origLogger, origFormatter
		printer, collector = origPrinter, origCollector
		walletWords, walletForce = origWords, origForce
		balanceToken, balanceAddress = origBalanceToken, origBalanceAddress
		positionAddress = origPositionAddress
		configForce = origConfigForce
		allowanceToken, allowanceAmount = origAllowanceToken, origAllowanceAmount
	})

	home := t.TempDir()
	testCfg := config.Defaults()
	testCfg.Home = home
	cfg = testCfg
	logger = config.NullLogger()
	formatter = output.NewFormatter(format, io.Discard)
	printer = output.NewPrinter(io.Discard, false)
	collector = metrics.New()

	walletWords = 24
	walletForce = false
	balanceToken, balanceAddress = "", ""
	positionAddress = ""
	configForce = false

	t.Setenv(config.EnvPassword, "")
	return home
}

// withMockPrompts replaces prompt functions for testing and restores on cleanup.
func withMockPrompts(t *testing.T, password string, confirm bool) {
	t.Helper()
	origPW := promptPasswordFn
	origNewPW := promptNewPasswordFn
	origMnemonic := promptMnemonicFn
	origConfirm := promptConfirmFn
	t.Cleanup(func() {
		promptPasswordFn = origPW
		promptNewPasswordFn = origNewPW
		promptMnemonicFn = origMnemonic
		promptConfirmFn = origConfirm
	})
	promptPasswordFn = func(string) ([]byte, error) { return []byte(password), nil }
	promptNewPasswordFn = func() ([]byte, error) { return []byte(password), nil }
	promptMnemonicFn = func() (string, error) { return testMnemonic, nil }
	promptConfirmFn = func(string) bool { return confirm }
}

// newTestCmd returns a command whose output is captured.
func newTestCmd() (*cobra.Command, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetContext(context.Background())
	return cmd, buf
}

// decodeJSON unmarshals command output into v.
func decodeJSON(t *testing.T, buf *bytes.Buffer, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(buf.Bytes(), v), buf.String())
}

// fakeChain is an in-memory SigningClient keyed by contract address.
type fakeChain struct {
	mu sync.Mutex

	balances   map[string]int64
	allowances map[string]int64
	responses  map[string]any
	queryErrs  map[string]error // query kind -> error
	queryErr   error

	actions []string
	funds   [][]chain.Coin
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		balances:   map[string]int64{},
		allowances: map[string]int64{},
		responses:  map[string]any{},
		queryErrs:  map[string]error{},
	}
}

func topLevelKey(msg any) string {
	raw, _ := json.Marshal(msg)
	var obj map[string]json.RawMessage
	_ = json.Unmarshal(raw, &obj)
	for k := range obj {
		return k
	}
	return ""
}

func (f *fakeChain) QueryContractSmart(_ context.Context, contract string, query, out any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queryErr != nil {
		return f.queryErr
	}

	kind := topLevelKey(query)
	if err := f.queryErrs[kind]; err != nil {
		return err
	}

	var resp any
	switch kind {
	case "balance":
		resp = map[string]string{"balance": fmt.Sprint(f.balances[contract])}
	case "allowance":
		resp = map[string]any{"allowance": fmt.Sprint(f.allowances[contract]), "expires": map[string]any{"never": struct{}{}}}
	default:
		var ok bool
		if resp, ok = f.responses[kind]; !ok {
			return fmt.Errorf("no response for %s", kind)
		}
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (f *fakeChain) Execute(_ context.Context, _, contract string, msg any, _ chain.FeeMode, _ string, funds []chain.Coin) (*chain.ExecuteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	action := topLevelKey(msg)
	f.actions = append(f.actions, action)
	f.funds = append(f.funds, funds)
	if action == "increase_allowance" {
		var m struct {
			IncreaseAllowance struct {
				Amount string `json:"amount"`
			} `json:"increase_allowance"`
		}
		raw, _ := json.Marshal(msg)
		_ = json.Unmarshal(raw, &m)
		add, _ := new(big.Int).SetString(m.IncreaseAllowance.Amount, 10)
		f.allowances[contract] += add.Int64()
	}
	return &chain.ExecuteResult{Hash: fmt.Sprintf("HASH%d", len(f.actions)), Height: 42, GasWanted: 200000, GasUsed: 150000}, nil
}

func (f *fakeChain) Instantiate(_ context.Context, _ string, _ uint64, _ any, _ string, _ chain.FeeMode) (*chain.InstantiateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, "instantiate")
	return &chain.InstantiateResult{
		ExecuteResult:   chain.ExecuteResult{Hash: "INSTHASH", Height: 43},
		ContractAddress: "mantra1newcontract",
	}, nil
}

func (f *fakeChain) recordedActions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.actions...)
}

// withFakeLending makes every command dial a lending client over fc.
// It records the dial options of the last dial.
func withFakeLending(t *testing.T, fc *fakeChain) *dialOptions {
	t.Helper()
	orig := dialLendingFn
	t.Cleanup(func() { dialLendingFn = orig })

	last := &dialOptions{}
	dialLendingFn = func(_ context.Context, cc *CommandContext, opts dialOptions) (*session, error) {
		*last = opts
		account := testAccount
		if opts.account != "" {
			account = opts.account
		}
		c := cc.Config
		client, err := lending.New(fc, lending.Session{
			Account: account,
			Contracts: lending.Contracts{
				Lending:     c.Contracts.Lending,
				StableToken: c.Contracts.StableToken,
				NativeToken: c.Contracts.NativeToken,
				StableDenom: c.Contracts.StableDenom,
			},
		}, lending.WithRecorder(cc.Metrics))
		if err != nil {
			return nil, err
		}
		return &session{client: client, close: func() {}}, nil
	}
	return last
}

// suggestionOf returns the suggestion carried by a LendError.
func suggestionOf(err error) string {
	var le *lenderr.LendError
	if lenderr.As(err, &le) {
		return le.Suggestion
	}
	return ""
}
