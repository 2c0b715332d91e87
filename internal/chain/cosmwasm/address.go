package cosmwasm

import (
	"crypto/sha256"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck,gosec // G507: RIPEMD-160 is part of the Cosmos address derivation

	lenderr "github.com/mrz1836/lendkit/pkg/errors"
)

// Address payload sizes accepted on chain: 20 bytes for accounts, 32 bytes for contracts.
const (
	accountAddressLen  = 20
	contractAddressLen = 32
)

// ValidateAddress checks that addr is a bech32 address with the given human-readable
// prefix and a 20- or 32-byte payload.
func ValidateAddress(addr, prefix string) error {
	if addr == "" {
		return lenderr.WithDetails(lenderr.ErrInvalidAddress, map[string]string{"address": "(empty)"})
	}
	if strings.ToLower(addr) != addr {
		return lenderr.WithDetails(lenderr.ErrInvalidAddress, map[string]string{
			"address": addr,
			"reason":  "address must be lowercase",
		})
	}

	hrp, data, err := bech32.Decode(addr)
	if err != nil {
		return lenderr.WithDetails(lenderr.ErrInvalidAddress, map[string]string{
			"address": addr,
			"reason":  err.Error(),
		})
	}
	if hrp != prefix {
		return lenderr.WithDetails(lenderr.ErrInvalidAddress, map[string]string{
			"address":  addr,
			"expected": prefix,
			"prefix":   hrp,
		})
	}

	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return lenderr.WithDetails(lenderr.ErrInvalidAddress, map[string]string{
			"address": addr,
			"reason":  err.Error(),
		})
	}
	if len(payload) != accountAddressLen && len(payload) != contractAddressLen {
		return lenderr.WithDetails(lenderr.ErrInvalidAddress, map[string]string{
			"address": addr,
			"reason":  "unexpected payload length",
		})
	}
	return nil
}

// EncodeAddress encodes a raw address payload as bech32 with the given prefix.
func EncodeAddress(prefix string, payload []byte) (string, error) {
	conv, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(prefix, conv)
}

// AddressFromPubKey derives the account address of a compressed secp256k1 public key:
// bech32(prefix, ripemd160(sha256(pubkey))).
func AddressFromPubKey(prefix string, compressedPubKey []byte) (string, error) {
	if len(compressedPubKey) != 33 {
		return "", lenderr.WithDetails(lenderr.ErrInvalidInput, map[string]string{
			"reason": "public key must be 33 bytes compressed",
		})
	}
	sha := sha256.Sum256(compressedPubKey)
	h := ripemd160.New() //nolint:gosec // G406: required by the address format
	_, _ = h.Write(sha[:])
	return EncodeAddress(prefix, h.Sum(nil))
}
