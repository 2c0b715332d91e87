// Package lending implements the lending client: balance and allowance snapshots for
// the connected account, and the stake, borrow, repay and unstake flows against the
// lending contract, each guarded by an affordability check and a conditional allowance raise.
package lending

import (
	"context"
	"math/big"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/lendkit/internal/chain"
	lenderr "github.com/mrz1836/lendkit/pkg/errors"
)

// DefaultInstantiateLabel labels contracts created by Instantiate when no label is given.
const DefaultInstantiateLabel = "Instantiate Lending Contract"

// Query and action names used in logs and metrics.
const (
	kindBalance   = "balance"
	kindAllowance = "allowance"
	kindConfig    = "config"
	kindStaker    = "staker"
	kindBorrower  = "borrower"

	actionIncreaseAllowance = "increase_allowance"
	actionStake             = "stake"
	actionBorrow            = "borrow"
	actionRepay             = "repay"
	actionUnstake           = "unstake"
	actionInstantiate       = "instantiate"
)

// Contracts names the lending contract and the two CW20 tokens it moves.
type Contracts struct {
	Lending     string
	StableToken string
	NativeToken string

	// StableDenom, when set, attaches the staked amount as funds of this denom.
	StableDenom string
}

// Session binds one connected account to the contracts it acts on.
// An empty Account means no wallet is connected.
type Session struct {
	Account   string
	Contracts Contracts
}

// Connected reports whether an account is bound.
func (s Session) Connected() bool {
	return s.Account != ""
}

// Recorder receives query, transaction and busy-state observations.
// *metrics.Metrics satisfies it.
type Recorder interface {
	RecordQuery(kind string, err error)
	RecordTx(action string, err error)
	SetBusy(busy bool)
	SetPosition(field string, value float64)
}

// Client is the lending client for one session.
type Client struct {
	chain    chain.SigningClient
	session  Session
	logger   chain.Logger
	recorder Recorder
	observer func(busy bool)

	busy atomic.Bool
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the operation logger.
func WithLogger(l chain.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithBusyObserver registers fn to be called on every busy/idle transition.
func WithBusyObserver(fn func(busy bool)) Option {
	return func(c *Client) {
		c.observer = fn
	}
}

// New returns a client acting for session through sc.
func New(sc chain.SigningClient, session Session, opts ...Option) (*Client, error) {
	if sc == nil {
		return nil, lenderr.WithDetails(lenderr.ErrConfigInvalid, map[string]string{"reason": "signing client is required"})
	}
	for key, addr := range map[string]string{
		"contracts.lending":      session.Contracts.Lending,
		"contracts.stable_token": session.Contracts.StableToken,
		"contracts.native_token": session.Contracts.NativeToken,
	} {
		if addr == "" {
			return nil, lenderr.WithDetails(lenderr.ErrConfigInvalid, map[string]string{"key": key, "reason": "must not be empty"})
		}
	}

	c := &Client{
		chain:    sc,
		session:  session,
		logger:   nopLogger{},
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Session returns the bound session.
func (c *Client) Session() Session {
	return c.session
}

// Busy reports whether a submitting operation is in flight.
func (c *Client) Busy() bool {
	return c.busy.Load()
}

// begin marks the client busy and returns the matching release, meant for defer.
// The flag is advisory: a second operation started while busy is not rejected.
func (c *Client) begin() func() {
	c.setBusy(true)
	return func() { c.setBusy(false) }
}

func (c *Client) setBusy(busy bool) {
	c.busy.Store(busy)
	c.recorder.SetBusy(busy)
	if c.observer != nil {
		c.observer(busy)
	}
}

// QuerySpendableBalance reads the account's balance of token and the allowance granted to
// the lending contract, concurrently, and returns both with their minimum.
// It returns (nil, nil) when no account is connected.
func (c *Client) QuerySpendableBalance(ctx context.Context, token string) (*SpendableBalance, error) {
	if !c.session.Connected() {
		return nil, nil //nolint:nilnil // not connected is a no-op, not a failure
	}

	var balance, allowance *big.Int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		balance, err = c.queryBalance(gctx, token)
		return err
	})
	g.Go(func() error {
		var err error
		allowance, err = c.queryAllowance(gctx, token)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &SpendableBalance{
		Token:     token,
		Balance:   balance,
		Allowance: allowance,
		Spendable: chain.MinAmount(balance, allowance),
	}, nil
}

// EnsureAllowance raises the lending contract's allowance on token to cover amount.
// When the current allowance is already sufficient nothing is submitted and the result is nil.
// Otherwise exactly one increase_allowance for amount is submitted and confirmed.
func (c *Client) EnsureAllowance(ctx context.Context, token string, amount *big.Int) (*chain.ExecuteResult, error) {
	if err := chain.ValidateAmount(amount); err != nil {
		return nil, err
	}
	if !c.session.Connected() {
		return nil, nil //nolint:nilnil // not connected is a no-op, not a failure
	}

	defer c.begin()()
	return c.ensureAllowance(ctx, uuid.NewString(), token, amount)
}

func (c *Client) ensureAllowance(ctx context.Context, opID, token string, amount *big.Int) (*chain.ExecuteResult, error) {
	allowance, err := c.queryAllowance(ctx, token)
	if err != nil {
		return nil, err
	}
	if allowance.Cmp(amount) >= 0 {
		c.logger.Debug("op=%s allowance %s on %s covers %s", opID, allowance, token, amount)
		return nil, nil //nolint:nilnil // nothing to submit
	}

	msg := increaseAllowanceMsg{IncreaseAllowance: increaseAllowanceParams{
		Spender: c.session.Contracts.Lending,
		Amount:  NewUint128(amount),
	}}
	return c.execute(ctx, opID, actionIncreaseAllowance, token, msg, nil)
}

// Stake stakes amount of the stable token. The balance must cover amount; the allowance
// is raised first when short.
func (c *Client) Stake(ctx context.Context, amount *big.Int) (*chain.ExecuteResult, error) {
	var funds []chain.Coin
	if denom := c.session.Contracts.StableDenom; denom != "" && amount != nil {
		funds = chain.Coins(denom, amount)
	}
	return c.transferOut(ctx, actionStake, c.session.Contracts.StableToken, amount, stakeMsg{}, funds)
}

// Repay repays amount of the native token. The balance must cover amount; the allowance
// is raised first when short.
func (c *Client) Repay(ctx context.Context, amount *big.Int) (*chain.ExecuteResult, error) {
	return c.transferOut(ctx, actionRepay, c.session.Contracts.NativeToken, amount,
		repayMsg{Repay: amountParam{Amount: NewUint128(amount)}}, nil)
}

// Borrow borrows amount of the native token. The contract enforces the collateral ratio.
func (c *Client) Borrow(ctx context.Context, amount *big.Int) (*chain.ExecuteResult, error) {
	return c.direct(ctx, actionBorrow, amount, borrowMsg{Borrow: amountParam{Amount: NewUint128(amount)}})
}

// Unstake withdraws amount of staked stable token. The contract owns the staked balance.
func (c *Client) Unstake(ctx context.Context, amount *big.Int) (*chain.ExecuteResult, error) {
	return c.direct(ctx, actionUnstake, amount, unstakeMsg{Unstake: amountParam{Amount: NewUint128(amount)}})
}

// transferOut runs the guarded flow: balance check, allowance raise, then msg.
func (c *Client) transferOut(ctx context.Context, action, token string, amount *big.Int, msg any, funds []chain.Coin) (*chain.ExecuteResult, error) {
	if err := chain.ValidateAmount(amount); err != nil {
		return nil, err
	}
	if !c.session.Connected() {
		return nil, nil //nolint:nilnil // not connected is a no-op, not a failure
	}

	defer c.begin()()

	opID := uuid.NewString()
	c.logger.Info("op=%s %s amount=%s account=%s", opID, action, amount, c.session.Account)

	snapshot, err := c.QuerySpendableBalance(ctx, token)
	if err != nil {
		c.logger.Error("op=%s %s balance check failed: %v", opID, action, err)
		return nil, err
	}
	if snapshot.Balance.Cmp(amount) < 0 {
		err := lenderr.WithDetails(lenderr.ErrInsufficientBalance, map[string]string{
			"token":    token,
			"balance":  snapshot.Balance.String(),
			"required": amount.String(),
		})
		c.logger.Error("op=%s %s rejected: balance %s < %s", opID, action, snapshot.Balance, amount)
		return nil, err
	}

	if _, err := c.ensureAllowance(ctx, opID, token, amount); err != nil {
		return nil, err
	}

	return c.execute(ctx, opID, action, c.session.Contracts.Lending, msg, funds)
}

// direct submits msg to the lending contract with no caller-side precheck.
func (c *Client) direct(ctx context.Context, action string, amount *big.Int, msg any) (*chain.ExecuteResult, error) {
	if err := chain.ValidateAmount(amount); err != nil {
		return nil, err
	}
	if !c.session.Connected() {
		return nil, nil //nolint:nilnil // not connected is a no-op, not a failure
	}

	defer c.begin()()

	opID := uuid.NewString()
	c.logger.Info("op=%s %s amount=%s account=%s", opID, action, amount, c.session.Account)
	return c.execute(ctx, opID, action, c.session.Contracts.Lending, msg, nil)
}

// Instantiate creates a new lending contract from codeID and returns its address in the result.
func (c *Client) Instantiate(ctx context.Context, codeID uint64, msg InstantiateMsg, label string) (*chain.InstantiateResult, error) {
	if codeID == 0 {
		return nil, lenderr.WithDetails(lenderr.ErrInvalidInput, map[string]string{"code_id": "must be positive"})
	}
	if !c.session.Connected() {
		return nil, nil //nolint:nilnil // not connected is a no-op, not a failure
	}
	if label == "" {
		label = DefaultInstantiateLabel
	}

	defer c.begin()()

	opID := uuid.NewString()
	c.logger.Info("op=%s instantiate code_id=%d label=%q", opID, codeID, label)

	res, err := c.chain.Instantiate(ctx, c.session.Account, codeID, msg, label, chain.FeeAuto)
	c.recorder.RecordTx(actionInstantiate, err)
	if err != nil {
		c.logger.Error("op=%s instantiate failed: %v", opID, err)
		return nil, transactionError(err)
	}
	c.logger.Info("op=%s instantiate confirmed tx=%s contract=%s", opID, res.Hash, res.ContractAddress)
	return res, nil
}

func (c *Client) execute(ctx context.Context, opID, action, contract string, msg any, funds []chain.Coin) (*chain.ExecuteResult, error) {
	c.logger.Debug("op=%s submitting %s to %s", opID, action, contract)

	res, err := c.chain.Execute(ctx, c.session.Account, contract, msg, chain.FeeAuto, "", funds)
	c.recorder.RecordTx(action, err)
	if err != nil {
		c.logger.Error("op=%s %s failed: %v", opID, action, err)
		return nil, transactionError(err)
	}

	c.logger.Info("op=%s %s confirmed tx=%s height=%d gas=%d/%d", opID, action, res.Hash, res.Height, res.GasUsed, res.GasWanted)
	return res, nil
}

func (c *Client) queryBalance(ctx context.Context, token string) (*big.Int, error) {
	var resp balanceResponse
	if err := c.query(ctx, kindBalance, token, balanceQuery{Balance: addressParam{Address: c.session.Account}}, &resp); err != nil {
		return nil, err
	}
	return resp.Balance.Big(), nil
}

func (c *Client) queryAllowance(ctx context.Context, token string) (*big.Int, error) {
	q := allowanceQuery{Allowance: allowanceParams{
		Owner:   c.session.Account,
		Spender: c.session.Contracts.Lending,
	}}
	var resp allowanceResponse
	if err := c.query(ctx, kindAllowance, token, q, &resp); err != nil {
		return nil, err
	}
	return resp.Allowance.Big(), nil
}

func (c *Client) query(ctx context.Context, kind, contract string, q, out any) error {
	err := c.chain.QueryContractSmart(ctx, contract, q, out)
	c.recorder.RecordQuery(kind, err)
	if err != nil {
		c.logger.Debug("%s query on %s failed: %v", kind, contract, err)
		return queryError(err)
	}
	return nil
}

// queryError keeps query failures from the chain client and wraps anything else,
// structured or not, as a query failure with the original as its cause.
func queryError(err error) error {
	if lenderr.Is(err, lenderr.ErrQuery) {
		return err
	}
	return lenderr.WithCause(lenderr.ErrQuery, err)
}

// transactionError keeps structured errors from the chain client and wraps anything else as a transaction failure.
func transactionError(err error) error {
	var le *lenderr.LendError
	if lenderr.As(err, &le) {
		return err
	}
	return lenderr.WithCause(lenderr.ErrTransaction, err)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

type nopRecorder struct{}

func (nopRecorder) RecordQuery(string, error)   {}
func (nopRecorder) RecordTx(string, error)      {}
func (nopRecorder) SetBusy(bool)                {}
func (nopRecorder) SetPosition(string, float64) {}
