package lending_test

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"

	"github.com/mrz1836/lendkit/internal/chain"
	"github.com/mrz1836/lendkit/internal/lending"
)

const (
	testAccount = "mantra1account"
	testLending = "mantra1lending"
	testStable  = "mantra1stable"
	testNative  = "mantra1native"
)

func testSession() lending.Session {
	return lending.Session{
		Account: testAccount,
		Contracts: lending.Contracts{
			Lending:     testLending,
			StableToken: testStable,
			NativeToken: testNative,
			StableDenom: "usd",
		},
	}
}

// submission is one recorded Execute or Instantiate call.
type submission struct {
	Action   string
	Contract string
	Msg      string
	Funds    []chain.Coin
	Label    string
	CodeID   uint64
}

// fakeChain is an in-memory SigningClient backed by per-token balances and allowances.
type fakeChain struct {
	mu sync.Mutex

	balances   map[string]*big.Int
	allowances map[string]*big.Int
	responses  map[string]any   // query kind -> canned response for contract queries
	queryErrs  map[string]error // query kind -> error
	execErrs   map[string]error // action -> error

	queryHook func(kind string) error
	execHook  func(action string)

	queries     []string
	submissions []submission
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		balances:   map[string]*big.Int{},
		allowances: map[string]*big.Int{},
		responses:  map[string]any{},
		queryErrs:  map[string]error{},
		execErrs:   map[string]error{},
	}
}

func (f *fakeChain) set(token string, balance, allowance int64) {
	f.balances[token] = big.NewInt(balance)
	f.allowances[token] = big.NewInt(allowance)
}

func (f *fakeChain) setBig(token, balance, allowance string) {
	b, _ := new(big.Int).SetString(balance, 10)
	a, _ := new(big.Int).SetString(allowance, 10)
	f.balances[token] = b
	f.allowances[token] = a
}

// topKey returns the single top-level key of a JSON message and its encoding.
func topKey(msg any) (string, string) {
	raw, err := json.Marshal(msg)
	if err != nil {
		panic(err)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		panic(err)
	}
	for k := range obj {
		return k, string(raw)
	}
	return "", string(raw)
}

func (f *fakeChain) QueryContractSmart(_ context.Context, contract string, query, out any) error {
	kind, _ := topKey(query)

	f.mu.Lock()
	f.queries = append(f.queries, kind)
	hook := f.queryHook
	err := f.queryErrs[kind]
	var resp any
	switch kind {
	case "balance":
		resp = map[string]string{"balance": valueOr(f.balances[contract]).String()}
	case "allowance":
		resp = map[string]any{"allowance": valueOr(f.allowances[contract]).String(), "expires": map[string]any{"never": struct{}{}}}
	default:
		resp = f.responses[kind]
	}
	f.mu.Unlock()

	if hook != nil {
		if hookErr := hook(kind); hookErr != nil {
			return hookErr
		}
	}
	if err != nil {
		return err
	}
	if resp == nil {
		return fmt.Errorf("no canned response for %s", kind)
	}

	raw, mErr := json.Marshal(resp)
	if mErr != nil {
		return mErr
	}
	return json.Unmarshal(raw, out)
}

func (f *fakeChain) Execute(_ context.Context, sender, contract string, msg any, fee chain.FeeMode, _ string, funds []chain.Coin) (*chain.ExecuteResult, error) {
	action, raw := topKey(msg)
	if sender != testAccount || fee != chain.FeeAuto {
		return nil, fmt.Errorf("unexpected sender %q or fee %q", sender, fee)
	}

	f.mu.Lock()
	f.submissions = append(f.submissions, submission{Action: action, Contract: contract, Msg: raw, Funds: funds})
	hook := f.execHook
	err := f.execErrs[action]
	if err == nil && action == "increase_allowance" {
		var m struct {
			IncreaseAllowance struct {
				Amount string `json:"amount"`
			} `json:"increase_allowance"`
		}
		_ = json.Unmarshal([]byte(raw), &m)
		add, _ := new(big.Int).SetString(m.IncreaseAllowance.Amount, 10)
		f.allowances[contract] = new(big.Int).Add(valueOr(f.allowances[contract]), add)
	}
	n := len(f.submissions)
	f.mu.Unlock()

	if hook != nil {
		hook(action)
	}
	if err != nil {
		return nil, err
	}
	return &chain.ExecuteResult{Hash: fmt.Sprintf("HASH%d", n), Height: int64(100 + n), GasWanted: 200000, GasUsed: 150000}, nil
}

func (f *fakeChain) Instantiate(_ context.Context, sender string, codeID uint64, msg any, label string, fee chain.FeeMode) (*chain.InstantiateResult, error) {
	_, raw := topKey(msg)
	if sender != testAccount || fee != chain.FeeAuto {
		return nil, fmt.Errorf("unexpected sender %q or fee %q", sender, fee)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions = append(f.submissions, submission{Action: "instantiate", Msg: raw, Label: label, CodeID: codeID})
	if err := f.execErrs["instantiate"]; err != nil {
		return nil, err
	}
	return &chain.InstantiateResult{
		ExecuteResult:   chain.ExecuteResult{Hash: "INSTHASH"},
		ContractAddress: "mantra1newcontract",
	}, nil
}

func (f *fakeChain) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.submissions))
	for _, s := range f.submissions {
		out = append(out, s.Action)
	}
	return out
}

func (f *fakeChain) recorded() []submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]submission(nil), f.submissions...)
}

func (f *fakeChain) queryKinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func valueOr(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

// busyLog collects busy transitions from the observer.
type busyLog struct {
	mu    sync.Mutex
	trans []bool
}

func (b *busyLog) observe(busy bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trans = append(b.trans, busy)
}

func (b *busyLog) transitions() []bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]bool(nil), b.trans...)
}
