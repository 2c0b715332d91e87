// Package cosmwasm implements the chain query and signing clients over a Cosmos SDK
// node's REST (LCD) gateway, with transactions encoded as protobuf and signed in
// SIGN_MODE_DIRECT by a wallet signer.
package cosmwasm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/mrz1836/lendkit/internal/chain"
	lenderr "github.com/mrz1836/lendkit/pkg/errors"
)

// Defaults for transaction confirmation polling.
const (
	DefaultPollInterval   = 3 * time.Second
	DefaultConfirmTimeout = 60 * time.Second
)

// ErrAccountNotFound indicates the signer's account does not exist on chain yet.
var ErrAccountNotFound = &lenderr.LendError{
	Code:       "ACCOUNT_NOT_FOUND",
	Message:    "account not found on chain",
	Suggestion: "fund the address before sending transactions",
	ExitCode:   lenderr.ExitNotFound,
}

// Options configures a Client.
type Options struct {
	ChainID        string
	RPC            string // Tendermint RPC, used for the node identity check; optional
	REST           string // LCD gateway, used for queries and transactions
	Prefix         string
	GasPrice       GasPrice
	GasMultiplier  float64
	PollInterval   time.Duration
	ConfirmTimeout time.Duration
	Retry          chain.RetryConfig // applies to reads only

	HTTPClient  *http.Client
	RateLimiter *chain.RateLimiter
	Recorder    Recorder
	Logger      chain.Logger
}

// Client is a CosmWasm client bound to one node. It can query without a signer;
// Execute and Instantiate require a prior Connect.
type Client struct {
	opts Options
	rest *restClient
	rpc  *restClient

	mu      sync.RWMutex
	signer  chain.OfflineSigner
	account chain.AccountData
}

var _ chain.SigningClient = (*Client)(nil)

// New creates a client for the configured node. No network calls are made.
func New(opts Options) (*Client, error) {
	if opts.ChainID == "" {
		return nil, lenderr.WithDetails(lenderr.ErrConfigInvalid, map[string]string{"field": "chain_id"})
	}
	if opts.REST == "" {
		return nil, lenderr.WithDetails(lenderr.ErrConfigInvalid, map[string]string{"field": "rest"})
	}
	if opts.Prefix == "" {
		opts.Prefix = "mantra"
	}
	if opts.GasMultiplier <= 0 {
		opts.GasMultiplier = DefaultGasMultiplier
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.ConfirmTimeout <= 0 {
		opts.ConfirmTimeout = DefaultConfirmTimeout
	}
	if opts.Retry.MaxAttempts < 1 {
		opts.Retry = chain.DefaultRetryConfig()
	}
	if opts.RateLimiter == nil {
		opts.RateLimiter = chain.DefaultRateLimiter()
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}

	c := &Client{
		opts: opts,
		rest: newRESTClient(opts.REST, opts.HTTPClient, opts.RateLimiter, opts.Recorder),
	}
	if opts.RPC != "" {
		c.rpc = newRESTClient(opts.RPC, opts.HTTPClient, opts.RateLimiter, opts.Recorder)
	}
	return c, nil
}

// ChainID returns the configured chain id.
func (c *Client) ChainID() string {
	return c.opts.ChainID
}

// Connect enables the wallet for the configured chain, checks that the node serves
// that chain, and binds the wallet's first account as the transaction signer.
func (c *Client) Connect(ctx context.Context, wallet chain.WalletSigner) (chain.AccountData, error) {
	if wallet == nil {
		return chain.AccountData{}, lenderr.ErrWalletNotFound
	}
	if err := wallet.Enable(ctx, c.opts.ChainID); err != nil {
		return chain.AccountData{}, err
	}
	signer, err := wallet.OfflineSigner(c.opts.ChainID)
	if err != nil {
		return chain.AccountData{}, err
	}
	accounts, err := signer.Accounts(ctx)
	if err != nil {
		return chain.AccountData{}, err
	}
	if len(accounts) == 0 {
		return chain.AccountData{}, lenderr.WithDetails(lenderr.ErrWalletNotFound, map[string]string{
			"reason": "signer exposes no accounts",
		})
	}

	if err := c.CheckNode(ctx); err != nil {
		return chain.AccountData{}, err
	}

	c.mu.Lock()
	c.signer = signer
	c.account = accounts[0]
	c.mu.Unlock()

	c.opts.Logger.Debug("connected %s on %s", accounts[0].Address, c.opts.ChainID)
	return accounts[0], nil
}

// CheckNode verifies that the RPC node reports the configured chain id.
// It is a no-op when no RPC endpoint is configured.
func (c *Client) CheckNode(ctx context.Context) error {
	if c.rpc == nil {
		return nil
	}

	var status struct {
		Result *struct {
			NodeInfo struct {
				Network string `json:"network"`
			} `json:"node_info"`
		} `json:"result"`
		NodeInfo *struct {
			Network string `json:"network"`
		} `json:"node_info"`
	}

	_, err := chain.RetryWithConfig(ctx, c.opts.Retry, func() (struct{}, error) {
		return struct{}{}, c.rpc.get(ctx, RouteStatus, "/status", &status)
	})
	if err != nil {
		return lenderr.WithCause(lenderr.ErrNetworkError, err)
	}

	network := ""
	switch {
	case status.Result != nil:
		network = status.Result.NodeInfo.Network
	case status.NodeInfo != nil:
		network = status.NodeInfo.Network
	}
	if network != c.opts.ChainID {
		return lenderr.WithDetails(lenderr.ErrChainMismatch, map[string]string{
			"expected": c.opts.ChainID,
			"node":     network,
		})
	}
	return nil
}

// QueryContractSmart runs a smart query against contract and decodes the response into out.
func (c *Client) QueryContractSmart(ctx context.Context, contract string, query, out any) error {
	if err := ValidateAddress(contract, c.opts.Prefix); err != nil {
		return err
	}
	payload, err := json.Marshal(query)
	if err != nil {
		return lenderr.WithCause(lenderr.ErrQuery, fmt.Errorf("encoding query: %w", err))
	}

	path := fmt.Sprintf("/cosmwasm/wasm/v1/contract/%s/smart/%s",
		url.PathEscape(contract), base64.URLEncoding.EncodeToString(payload))

	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	_, err = chain.RetryWithConfig(ctx, c.opts.Retry, func() (struct{}, error) {
		return struct{}{}, c.rest.get(ctx, RouteSmart, path, &resp)
	})
	if err != nil {
		c.opts.Logger.Debug("smart query %s on %s failed: %v", payload, contract, err)
		return lenderr.WithCause(lenderr.ErrQuery, err)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return lenderr.WithCause(lenderr.ErrQuery, fmt.Errorf("decoding %s response: %w", contract, err))
	}
	return nil
}

// Execute signs and broadcasts a MsgExecuteContract and waits for it to be committed.
func (c *Client) Execute(ctx context.Context, sender, contract string, msg any, fee chain.FeeMode, memo string, funds []chain.Coin) (*chain.ExecuteResult, error) {
	if err := ValidateAddress(contract, c.opts.Prefix); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, lenderr.WithCause(lenderr.ErrTransaction, fmt.Errorf("encoding execute message: %w", err))
	}
	return c.signAndBroadcast(ctx, sender, encodeMsgExecuteContract(sender, contract, payload, funds), fee, memo)
}

// Instantiate signs and broadcasts a MsgInstantiateContract without an admin and
// returns the address of the new contract.
func (c *Client) Instantiate(ctx context.Context, sender string, codeID uint64, msg any, label string, fee chain.FeeMode) (*chain.InstantiateResult, error) {
	if codeID == 0 {
		return nil, lenderr.WithDetails(lenderr.ErrInvalidInput, map[string]string{"code_id": "0"})
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, lenderr.WithCause(lenderr.ErrTransaction, fmt.Errorf("encoding instantiate message: %w", err))
	}

	res, err := c.signAndBroadcast(ctx, sender, encodeMsgInstantiateContract(sender, "", codeID, label, payload, nil), fee, "")
	if err != nil {
		return nil, err
	}

	addr, ok := res.Attribute("instantiate", "_contract_address")
	if !ok {
		return nil, lenderr.WithDetails(lenderr.ErrTransaction, map[string]string{
			"txhash": res.Hash,
			"reason": "no contract address in instantiate events",
		})
	}
	return &chain.InstantiateResult{ExecuteResult: *res, ContractAddress: addr}, nil
}

func (c *Client) connected() (chain.OfflineSigner, chain.AccountData, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.signer, c.account, c.signer != nil
}

func (c *Client) signAndBroadcast(ctx context.Context, sender string, msg anyMsg, fee chain.FeeMode, memo string) (*chain.ExecuteResult, error) {
	signer, account, ok := c.connected()
	if !ok {
		return nil, lenderr.ErrWalletLocked
	}
	if sender != account.Address {
		return nil, lenderr.WithDetails(lenderr.ErrInvalidInput, map[string]string{
			"sender":    sender,
			"connected": account.Address,
		})
	}
	if fee != chain.FeeAuto {
		return nil, lenderr.WithDetails(lenderr.ErrInvalidInput, map[string]string{"fee": string(fee)})
	}

	acct, err := c.accountInfo(ctx, sender)
	if err != nil {
		return nil, err
	}

	body := encodeTxBody([]anyMsg{msg}, memo)

	gasUsed, err := c.simulate(ctx, body, account.PubKey, acct.Sequence)
	if err != nil {
		return nil, err
	}
	gasLimit := GasLimit(gasUsed, c.opts.GasMultiplier)
	feeCoin := c.opts.GasPrice.Fee(gasLimit)
	c.opts.Logger.Debug("simulated gas_used=%d gas_limit=%d fee=%s%s", gasUsed, gasLimit, feeCoin.Amount, feeCoin.Denom)

	authInfo := encodeAuthInfo(account.PubKey, signModeDirect, acct.Sequence, []chain.Coin{feeCoin}, gasLimit)
	signed, err := signer.SignDirect(ctx, sender, chain.SignDoc{
		BodyBytes:     body,
		AuthInfoBytes: authInfo,
		ChainID:       c.opts.ChainID,
		AccountNumber: acct.AccountNumber,
	})
	if err != nil {
		return nil, lenderr.WithCause(lenderr.ErrTransaction, fmt.Errorf("signing: %w", err))
	}

	txBytes := encodeTxRaw(signed.Signed.BodyBytes, signed.Signed.AuthInfoBytes, signed.Signature)
	hash, err := c.broadcast(ctx, txBytes)
	if err != nil {
		return nil, err
	}
	c.opts.Logger.Debug("broadcast %s, waiting for confirmation", hash)

	return c.waitForTx(ctx, hash)
}

type accountInfo struct {
	AccountNumber uint64
	Sequence      uint64
}

func (c *Client) accountInfo(ctx context.Context, address string) (accountInfo, error) {
	var resp struct {
		Account json.RawMessage `json:"account"`
	}

	_, err := chain.RetryWithConfig(ctx, c.opts.Retry, func() (struct{}, error) {
		return struct{}{}, c.rest.get(ctx, RouteAccount, "/cosmos/auth/v1beta1/accounts/"+url.PathEscape(address), &resp)
	})
	if err != nil {
		if IsNotFound(err) {
			return accountInfo{}, lenderr.WithDetails(ErrAccountNotFound, map[string]string{"address": address})
		}
		return accountInfo{}, lenderr.WithCause(lenderr.ErrTransaction, fmt.Errorf("fetching account: %w", err))
	}

	info, err := parseAccount(resp.Account)
	if err != nil {
		return accountInfo{}, lenderr.WithCause(lenderr.ErrTransaction, err)
	}
	return info, nil
}

var errNoAccountNumber = errors.New("parsing account: no account_number")

type baseAccount struct {
	AccountNumber string       `json:"account_number"`
	Sequence      string       `json:"sequence"`
	BaseAccount   *baseAccount `json:"base_account"`
	BaseVesting   *baseAccount `json:"base_vesting_account"`
}

// parseAccount reads account number and sequence from a BaseAccount or a
// vesting account wrapping one.
func parseAccount(raw json.RawMessage) (accountInfo, error) {
	var acct baseAccount
	if err := json.Unmarshal(raw, &acct); err != nil {
		return accountInfo{}, fmt.Errorf("parsing account: %w", err)
	}

	cur := &acct
	for cur.AccountNumber == "" {
		switch {
		case cur.BaseVesting != nil:
			cur = cur.BaseVesting
		case cur.BaseAccount != nil:
			cur = cur.BaseAccount
		default:
			return accountInfo{}, errNoAccountNumber
		}
	}

	number, err := strconv.ParseUint(cur.AccountNumber, 10, 64)
	if err != nil {
		return accountInfo{}, fmt.Errorf("parsing account_number: %w", err)
	}
	var sequence uint64
	if cur.Sequence != "" {
		if sequence, err = strconv.ParseUint(cur.Sequence, 10, 64); err != nil {
			return accountInfo{}, fmt.Errorf("parsing sequence: %w", err)
		}
	}
	return accountInfo{AccountNumber: number, Sequence: sequence}, nil
}

func (c *Client) simulate(ctx context.Context, body, pubKey []byte, sequence uint64) (uint64, error) {
	authInfo := encodeAuthInfo(pubKey, signModeUnspecified, sequence, nil, 0)
	txBytes := encodeTxRaw(body, authInfo, []byte{})

	var resp struct {
		GasInfo struct {
			GasUsed string `json:"gas_used"`
		} `json:"gas_info"`
	}
	req := map[string]string{"tx_bytes": base64.StdEncoding.EncodeToString(txBytes)}
	if err := c.rest.post(ctx, RouteSimulate, "/cosmos/tx/v1beta1/simulate", req, &resp); err != nil {
		return 0, lenderr.WithCause(lenderr.ErrTransaction, fmt.Errorf("simulating: %w", err))
	}

	gasUsed, err := strconv.ParseUint(resp.GasInfo.GasUsed, 10, 64)
	if err != nil {
		return 0, lenderr.WithCause(lenderr.ErrTransaction, fmt.Errorf("parsing gas_used: %w", err))
	}
	return gasUsed, nil
}

type txResponse struct {
	Height    int64         `json:"height,string"`
	TxHash    string        `json:"txhash"`
	Codespace string        `json:"codespace"`
	Code      uint32        `json:"code"`
	RawLog    string        `json:"raw_log"`
	GasWanted uint64        `json:"gas_wanted,string"`
	GasUsed   uint64        `json:"gas_used,string"`
	Events    []chain.Event `json:"events"`
}

func (r *txResponse) failure() error {
	return lenderr.WithDetails(lenderr.ErrTransaction, map[string]string{
		"txhash":    r.TxHash,
		"code":      strconv.FormatUint(uint64(r.Code), 10),
		"codespace": r.Codespace,
		"log":       truncateBody(r.RawLog, 512),
	})
}

func (c *Client) broadcast(ctx context.Context, txBytes []byte) (string, error) {
	req := map[string]string{
		"tx_bytes": base64.StdEncoding.EncodeToString(txBytes),
		"mode":     "BROADCAST_MODE_SYNC",
	}
	var resp struct {
		TxResponse txResponse `json:"tx_response"`
	}
	if err := c.rest.post(ctx, RouteBroadcast, "/cosmos/tx/v1beta1/txs", req, &resp); err != nil {
		return "", lenderr.WithCause(lenderr.ErrTransaction, fmt.Errorf("broadcasting: %w", err))
	}
	if resp.TxResponse.Code != 0 {
		return "", resp.TxResponse.failure()
	}
	return resp.TxResponse.TxHash, nil
}

// waitForTx polls for the transaction until it is committed or the confirm timeout elapses.
func (c *Client) waitForTx(ctx context.Context, hash string) (*chain.ExecuteResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.ConfirmTimeout)
	defer cancel()

	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	path := "/cosmos/tx/v1beta1/txs/" + url.PathEscape(hash)
	for {
		var resp struct {
			TxResponse *txResponse `json:"tx_response"`
		}
		err := c.rest.get(ctx, RouteTx, path, &resp)
		switch {
		case err == nil && resp.TxResponse != nil:
			tx := resp.TxResponse
			if tx.Code != 0 {
				return nil, tx.failure()
			}
			return &chain.ExecuteResult{
				Hash:      tx.TxHash,
				Height:    tx.Height,
				GasWanted: tx.GasWanted,
				GasUsed:   tx.GasUsed,
				Events:    tx.Events,
			}, nil
		case err != nil && !IsNotFound(err) && ctx.Err() == nil:
			c.opts.Logger.Debug("polling %s: %v", hash, err)
		}

		select {
		case <-ctx.Done():
			return nil, lenderr.WithDetails(lenderr.WithCause(lenderr.ErrTransaction, lenderr.ErrTimeout), map[string]string{
				"txhash": hash,
				"reason": "not committed within " + c.opts.ConfirmTimeout.String(),
			})
		case <-ticker.C:
		}
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
