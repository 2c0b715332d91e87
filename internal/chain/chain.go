// Package chain defines the boundary between lendkit and a CosmWasm chain:
// the wallet signer, the read-only contract query client, and the signed
// execution client, plus the value types that cross those boundaries.
package chain

import (
	"context"
	"math/big"
)

// FeeMode selects how a transaction fee is computed.
type FeeMode string

// FeeAuto simulates the transaction and derives gas and fee from the
// simulation result and the configured gas price.
const FeeAuto FeeMode = "auto"

// Coin is an amount of a single native denomination.
type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// NewCoin builds a coin from an integer amount in the smallest unit.
func NewCoin(denom string, amount *big.Int) Coin {
	return Coin{Denom: denom, Amount: amount.String()}
}

// Coins builds the single-coin funds list attached to an execute message.
func Coins(denom string, amount *big.Int) []Coin {
	return []Coin{NewCoin(denom, amount)}
}

// EventAttribute is a key/value pair emitted by a transaction event.
type EventAttribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Event is an ABCI event emitted while executing a transaction.
type Event struct {
	Type       string           `json:"type"`
	Attributes []EventAttribute `json:"attributes"`
}

// ExecuteResult is the outcome of a confirmed transaction.
type ExecuteResult struct {
	Hash      string  `json:"hash"`
	Height    int64   `json:"height"`
	GasWanted uint64  `json:"gas_wanted"`
	GasUsed   uint64  `json:"gas_used"`
	Events    []Event `json:"events,omitempty"`
}

// Attribute returns the first attribute value with the given key on an event of
// the given type, and whether it was found.
func (r *ExecuteResult) Attribute(eventType, key string) (string, bool) {
	if r == nil {
		return "", false
	}
	for _, ev := range r.Events {
		if ev.Type != eventType {
			continue
		}
		for _, attr := range ev.Attributes {
			if attr.Key == key {
				return attr.Value, true
			}
		}
	}
	return "", false
}

// InstantiateResult is the outcome of a confirmed contract instantiation.
type InstantiateResult struct {
	ExecuteResult

	ContractAddress string `json:"contract_address"`
}

// QueryClient performs read-only smart queries against contracts.
type QueryClient interface {
	// QueryContractSmart JSON-encodes query, sends it to contract and decodes
	// the contract's JSON response into out.
	QueryContractSmart(ctx context.Context, contract string, query, out any) error
}

// ExecClient submits signed transactions against contract entry points and
// waits for them to be included in a block.
type ExecClient interface {
	// Execute runs msg on contract as sender, optionally attaching funds.
	Execute(ctx context.Context, sender, contract string, msg any, fee FeeMode, memo string, funds []Coin) (*ExecuteResult, error)

	// Instantiate creates a new contract from an uploaded code id.
	Instantiate(ctx context.Context, sender string, codeID uint64, msg any, label string, fee FeeMode) (*InstantiateResult, error)
}

// SigningClient combines queries and signed execution over one connection.
type SigningClient interface {
	QueryClient
	ExecClient
}

// AccountData describes one account exposed by an offline signer.
type AccountData struct {
	Address string `json:"address"`
	Algo    string `json:"algo"`
	PubKey  []byte `json:"pubkey"`
}

// SignDoc is the SIGN_MODE_DIRECT document a signer signs.
type SignDoc struct {
	BodyBytes     []byte
	AuthInfoBytes []byte
	ChainID       string
	AccountNumber uint64
}

// DirectSignResponse carries the signed document and its signature.
type DirectSignResponse struct {
	Signed    SignDoc
	Signature []byte // 64-byte compact secp256k1 signature (r || s)
	PubKey    []byte // 33-byte compressed public key
}

// OfflineSigner signs transactions without network access.
type OfflineSigner interface {
	// Accounts lists the accounts this signer can sign for.
	Accounts(ctx context.Context) ([]AccountData, error)

	// SignDirect signs doc for signerAddress.
	SignDirect(ctx context.Context, signerAddress string, doc SignDoc) (*DirectSignResponse, error)
}

// Logger is the leveled printf-style logger used across the client stack.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// WalletSigner supplies signing capability for a chain.
// Enable must succeed before OfflineSigner is called for the same chain.
type WalletSigner interface {
	Enable(ctx context.Context, chainID string) error
	OfflineSigner(chainID string) (OfflineSigner, error)
}
