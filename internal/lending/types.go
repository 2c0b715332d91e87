package lending

import (
	"bytes"
	"encoding/json"
	"math/big"

	"github.com/mrz1836/lendkit/internal/chain"
)

// Uint128 is a CosmWasm Uint128: a decimal string on the wire, an arbitrary-precision
// integer in Go. The zero value is 0.
type Uint128 struct {
	v *big.Int
}

// NewUint128 copies v. A nil v is zero.
func NewUint128(v *big.Int) Uint128 {
	if v == nil {
		return Uint128{}
	}
	return Uint128{v: new(big.Int).Set(v)}
}

// Big returns a copy of the value.
func (u Uint128) Big() *big.Int {
	if u.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(u.v)
}

func (u Uint128) String() string {
	return u.Big().String()
}

// IsZero reports whether the value is 0.
func (u Uint128) IsZero() bool {
	return u.v == nil || u.v.Sign() == 0
}

// MarshalJSON encodes the value as a decimal string.
func (u Uint128) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// UnmarshalJSON accepts a decimal string or a bare JSON number.
func (u *Uint128) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		u.v = nil
		return nil
	}

	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}

	v, err := chain.ParseUint128(s)
	if err != nil {
		return err
	}
	u.v = v
	return nil
}

// SpendableBalance is a snapshot of one token for the connected account.
// Spendable is min(Balance, Allowance): what the lending contract can pull right now.
type SpendableBalance struct {
	Token     string   `json:"token"`
	Balance   *big.Int `json:"balance"`
	Allowance *big.Int `json:"allowance"`
	Spendable *big.Int `json:"spendable"`
}

// PoolConfig is the lending contract's configuration.
type PoolConfig struct {
	USDToken        string  `json:"usd_token"`
	OMToken         string  `json:"om_token"`
	InterestRate    Uint128 `json:"interest_rate"`
	CollateralRatio Uint128 `json:"collateral_ratio"`
}

// StakerInfo is an account's staking record.
type StakerInfo struct {
	StakedAmount   Uint128 `json:"staked_amount"`
	LastUpdateTime uint64  `json:"last_update_time"`
}

// BorrowerInfo is an account's loan record.
type BorrowerInfo struct {
	BorrowedAmount   Uint128 `json:"borrowed_amount"`
	CollateralAmount Uint128 `json:"collateral_amount"`
	LastUpdateTime   uint64  `json:"last_update_time"`
}

// InstantiateMsg creates a new lending contract.
type InstantiateMsg struct {
	USDToken        string  `json:"usd_token"`
	OMToken         string  `json:"om_token"`
	CollateralRatio Uint128 `json:"collateral_ratio"`
	InterestRate    Uint128 `json:"interest_rate"`
}

// Position is one account's full view of the pool.
type Position struct {
	Account  string            `json:"account"`
	Stable   *SpendableBalance `json:"stable"`
	Native   *SpendableBalance `json:"native"`
	Staker   StakerInfo        `json:"staker"`
	Borrower BorrowerInfo      `json:"borrower"`
}
