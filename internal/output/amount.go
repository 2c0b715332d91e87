package output

import (
	"math/big"

	"github.com/mrz1836/lendkit/internal/chain"
)

// Amount is a token amount in its smallest unit with the display metadata to
// render it. JSON carries the exact integer; text carries the decimal form.
type Amount struct {
	Raw      string `json:"raw"`
	Display  string `json:"display"`
	Symbol   string `json:"symbol,omitempty"`
	Decimals int    `json:"decimals"`
}

// NewAmount converts v for output.
func NewAmount(v *big.Int, decimals int, symbol string) Amount {
	if v == nil {
		v = new(big.Int)
	}
	return Amount{
		Raw:      v.String(),
		Display:  chain.FormatDecimalAmount(v, decimals),
		Symbol:   symbol,
		Decimals: decimals,
	}
}

func (a Amount) String() string {
	if a.Symbol == "" {
		return a.Display
	}
	return a.Display + " " + a.Symbol
}
