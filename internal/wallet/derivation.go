package wallet

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"

	"github.com/mrz1836/lendkit/internal/chain/cosmwasm"
	lenderr "github.com/mrz1836/lendkit/pkg/errors"
)

// CosmosCoinType is the SLIP-44 coin type used by Cosmos SDK chains.
const CosmosCoinType uint32 = 118

// Key is a derived account key.
type Key struct {
	Path    string
	Index   uint32
	Address string
	PubKey  []byte // 33-byte compressed secp256k1 public key

	priv *ecdsa.PrivateKey
}

// DerivationPath returns the BIP44 path m/44'/coin'/0'/0/index.
func DerivationPath(coinType, index uint32) string {
	return fmt.Sprintf("m/44'/%d'/0'/0/%d", coinType, index)
}

// DeriveKey derives the account key at m/44'/coin'/0'/0/index from a BIP39 seed
// and encodes its address with prefix.
func DeriveKey(seed []byte, prefix string, coinType, index uint32) (*Key, error) {
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("creating master key: %w", err)
	}

	path := []uint32{
		bip32.FirstHardenedChild + 44,
		bip32.FirstHardenedChild + coinType,
		bip32.FirstHardenedChild,
		0,
		index,
	}

	key := master
	for _, child := range path {
		if key, err = key.NewChildKey(child); err != nil {
			return nil, fmt.Errorf("deriving %s: %w", DerivationPath(coinType, index), err)
		}
	}

	// Private keys may come back shorter than 32 bytes when they have leading zeros
	raw := make([]byte, 32)
	copy(raw[32-len(key.Key):], key.Key)
	defer zero(raw)

	priv, err := crypto.ToECDSA(raw)
	if err != nil {
		return nil, fmt.Errorf("loading private key: %w", err)
	}

	pub := crypto.CompressPubkey(&priv.PublicKey)
	address, err := cosmwasm.AddressFromPubKey(prefix, pub)
	if err != nil {
		return nil, err
	}

	return &Key{
		Path:    DerivationPath(coinType, index),
		Index:   index,
		Address: address,
		PubKey:  pub,
		priv:    priv,
	}, nil
}

// Sign signs a 32-byte digest and returns the 64-byte compact r || s signature.
func (k *Key) Sign(digest []byte) ([]byte, error) {
	if k.priv == nil {
		return nil, lenderr.ErrWalletLocked
	}
	sig, err := crypto.Sign(digest, k.priv)
	if err != nil {
		return nil, err
	}
	return sig[:64], nil
}

// Wipe drops the private key. The Key cannot sign afterwards.
func (k *Key) Wipe() {
	if k.priv != nil && k.priv.D != nil {
		k.priv.D.SetInt64(0)
	}
	k.priv = nil
}
