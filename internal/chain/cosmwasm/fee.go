package cosmwasm

import (
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mrz1836/lendkit/internal/chain"
	lenderr "github.com/mrz1836/lendkit/pkg/errors"
)

// DefaultGasMultiplier scales simulated gas usage into the gas limit of the real transaction.
const DefaultGasMultiplier = 1.4

var gasPricePattern = regexp.MustCompile(`^([0-9]+(?:\.[0-9]+)?)([a-zA-Z][a-zA-Z0-9/:._-]{1,127})$`)

// GasPrice is a price per unit of gas in a single denomination, e.g. "0.025uom".
type GasPrice struct {
	Amount decimal.Decimal
	Denom  string
}

// ParseGasPrice parses a gas price string such as "0.025uom".
func ParseGasPrice(s string) (GasPrice, error) {
	m := gasPricePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return GasPrice{}, lenderr.WithDetails(lenderr.ErrInvalidGasPrice, map[string]string{"gas_price": s})
	}
	amount, err := decimal.NewFromString(m[1])
	if err != nil {
		return GasPrice{}, lenderr.WithDetails(lenderr.ErrInvalidGasPrice, map[string]string{
			"gas_price": s,
			"reason":    err.Error(),
		})
	}
	return GasPrice{Amount: amount, Denom: m[2]}, nil
}

// String renders the gas price in its canonical string form.
func (p GasPrice) String() string {
	return p.Amount.String() + p.Denom
}

// GasLimit returns round(gasUsed * multiplier). A non-positive multiplier
// falls back to DefaultGasMultiplier.
func GasLimit(gasUsed uint64, multiplier float64) uint64 {
	if multiplier <= 0 {
		multiplier = DefaultGasMultiplier
	}
	limit := decimal.NewFromUint64(gasUsed).Mul(decimal.NewFromFloat(multiplier)).Round(0)
	if limit.GreaterThan(decimal.NewFromUint64(math.MaxUint64)) {
		return math.MaxUint64
	}
	return limit.BigInt().Uint64()
}

// Fee returns ceil(price * gasLimit) as a single coin in the gas price denom.
func (p GasPrice) Fee(gasLimit uint64) chain.Coin {
	amount := p.Amount.Mul(decimal.NewFromUint64(gasLimit)).Ceil()
	return chain.Coin{Denom: p.Denom, Amount: amount.BigInt().String()}
}
