package chain

import (
	"math/big"
	"strings"

	"github.com/holiman/uint256"

	lenderr "github.com/mrz1836/lendkit/pkg/errors"
)

// uint128Bits is the width of a CosmWasm Uint128.
const uint128Bits = 128

// ParseAmount parses a base-10 integer amount in the token's smallest unit.
// The amount must be positive and fit in a Uint128.
func ParseAmount(amount string) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, lenderr.ErrAmountRequired
	}
	if strings.HasPrefix(amount, "+") || strings.HasPrefix(amount, "-") {
		return nil, lenderr.WithDetails(lenderr.ErrInvalidAmount, map[string]string{"amount": amount})
	}

	v, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return nil, lenderr.WithDetails(lenderr.ErrInvalidAmount, map[string]string{"amount": amount})
	}
	if err := ValidateAmount(v); err != nil {
		return nil, err
	}
	return v, nil
}

// ValidateAmount checks that amount is a positive integer representable as Uint128.
func ValidateAmount(amount *big.Int) error {
	if amount == nil {
		return lenderr.ErrAmountRequired
	}
	if amount.Sign() <= 0 {
		return lenderr.WithDetails(lenderr.ErrInvalidAmount, map[string]string{"amount": amount.String()})
	}
	if exceedsUint128(amount) {
		return lenderr.WithDetails(lenderr.ErrInvalidAmount, map[string]string{
			"amount": amount.String(),
			"reason": "exceeds uint128",
		})
	}
	return nil
}

func exceedsUint128(v *big.Int) bool {
	u, overflow := uint256.FromBig(v)
	return overflow || u.BitLen() > uint128Bits
}

// ParseUint128 parses a decimal-string integer as returned by a contract
// (balances, allowances, staked amounts). Zero is allowed; values above
// 2^128-1 are rejected.
func ParseUint128(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, lenderr.WithDetails(lenderr.ErrInvalidAmount, map[string]string{"value": s})
	}
	if exceedsUint128(v) {
		return nil, lenderr.WithDetails(lenderr.ErrInvalidAmount, map[string]string{
			"value":  s,
			"reason": "exceeds uint128",
		})
	}
	return v, nil
}

// MinAmount returns the smaller of a and b. Neither argument is modified.
func MinAmount(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}

// ParseDecimalAmount parses a decimal amount string to big.Int with the given decimal places.
// For example, "1.5" with 6 decimals returns 1500000.
//
//nolint:gocognit,gocyclo // Decimal parsing requires sequential validation steps
func ParseDecimalAmount(amount string, decimalPlaces int, invalidAmountErr error) (*big.Int, error) {
	if amount == "" {
		return nil, invalidAmountErr
	}

	if strings.HasPrefix(amount, "-") {
		return nil, invalidAmountErr
	}

	parts := strings.Split(amount, ".")
	if len(parts) > 2 {
		return nil, invalidAmountErr
	}

	intPart := parts[0]
	decPart := ""
	if len(parts) == 2 {
		decPart = parts[1]
	}

	if intPart == "" {
		intPart = "0"
	}
	intVal, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		return nil, invalidAmountErr
	}

	multiplier := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimalPlaces)), nil)
	result := new(big.Int).Mul(intVal, multiplier)

	if decPart != "" {
		for _, c := range decPart {
			if c < '0' || c > '9' {
				return nil, invalidAmountErr
			}
		}

		// Precision beyond the token's decimals is rejected, not truncated
		if len(decPart) > decimalPlaces {
			return nil, invalidAmountErr
		}
		for len(decPart) < decimalPlaces {
			decPart += "0"
		}

		decVal, ok := new(big.Int).SetString(decPart, 10)
		if !ok {
			return nil, invalidAmountErr
		}

		result = result.Add(result, decVal)
	}

	return result, nil
}

// FormatDecimalAmount converts a big.Int to a human-readable string with the given decimal places.
// Trailing zeros after the decimal point are removed.
// For example, 1500000 with 6 decimals returns "1.5".
func FormatDecimalAmount(amount *big.Int, decimalPlaces int) string {
	if amount == nil {
		return "0"
	}
	if decimalPlaces <= 0 {
		return amount.String()
	}

	str := amount.String()

	for len(str) <= decimalPlaces {
		str = "0" + str
	}

	decimalPos := len(str) - decimalPlaces
	result := str[:decimalPos] + "." + str[decimalPos:]

	for len(result) > 1 && result[len(result)-1] == '0' && result[len(result)-2] != '.' {
		result = result[:len(result)-1]
	}

	return result
}
