package wallet

import (
	"context"
	"crypto/sha256"
	"sync"

	"github.com/mrz1836/lendkit/internal/chain"
	"github.com/mrz1836/lendkit/internal/chain/cosmwasm"
	lenderr "github.com/mrz1836/lendkit/pkg/errors"
)

// PasswordFunc supplies the keyfile password when the keyring is enabled.
// The keyring zeroes the returned slice after use.
type PasswordFunc func(ctx context.Context) ([]byte, error)

// KeyringOptions configures a Keyring.
type KeyringOptions struct {
	ChainID      string
	Prefix       string
	CoinType     uint32
	AccountIndex uint32
	Password     PasswordFunc
}

// Keyring is a file-backed wallet signer. It holds at most one unlocked key,
// for the single chain it was configured with.
type Keyring struct {
	store *KeyStore
	opts  KeyringOptions

	mu  sync.Mutex
	key *Key
}

var _ chain.WalletSigner = (*Keyring)(nil)

// NewKeyring returns a locked keyring over store.
func NewKeyring(store *KeyStore, opts KeyringOptions) *Keyring {
	if opts.CoinType == 0 {
		opts.CoinType = CosmosCoinType
	}
	return &Keyring{store: store, opts: opts}
}

// Enable unlocks the keyfile for chainID. It is idempotent once unlocked.
func (k *Keyring) Enable(ctx context.Context, chainID string) error {
	if chainID != k.opts.ChainID {
		return lenderr.WithDetails(lenderr.ErrChainMismatch, map[string]string{
			"requested":  chainID,
			"configured": k.opts.ChainID,
		})
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if k.key != nil {
		return nil
	}

	exists, err := k.store.Exists()
	if err != nil {
		return lenderr.Wrap(err, "checking keyfile")
	}
	if !exists {
		return lenderr.WithSuggestion(
			lenderr.WithDetails(lenderr.ErrWalletNotFound, map[string]string{"path": k.store.Path()}),
			"run 'lend wallet create' or 'lend wallet import'",
		)
	}
	if k.opts.Password == nil {
		return lenderr.ErrWalletLocked
	}

	raw, err := k.opts.Password(ctx)
	if err != nil {
		return err
	}
	password := newSecureBytes(raw)
	defer password.Destroy()

	mnemonic, _, err := k.store.Load(password.Bytes())
	if err != nil {
		return err
	}

	key, err := KeyFromMnemonic(mnemonic, k.opts.Prefix, k.opts.CoinType, k.opts.AccountIndex)
	if err != nil {
		return err
	}
	k.key = key
	return nil
}

// OfflineSigner returns the direct signer for chainID. Enable must have succeeded first.
func (k *Keyring) OfflineSigner(chainID string) (chain.OfflineSigner, error) {
	if chainID != k.opts.ChainID {
		return nil, lenderr.WithDetails(lenderr.ErrChainMismatch, map[string]string{
			"requested":  chainID,
			"configured": k.opts.ChainID,
		})
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if k.key == nil {
		return nil, lenderr.ErrWalletLocked
	}
	return &directSigner{key: k.key}, nil
}

// Lock wipes the unlocked key.
func (k *Keyring) Lock() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.key != nil {
		k.key.Wipe()
		k.key = nil
	}
}

// KeyFromMnemonic validates mnemonic and derives the account key at index.
func KeyFromMnemonic(mnemonic, prefix string, coinType, index uint32) (*Key, error) {
	raw, err := MnemonicToSeed(mnemonic, "")
	if err != nil {
		return nil, err
	}
	seed := newSecureBytes(raw)
	defer seed.Destroy()

	return DeriveKey(seed.Bytes(), prefix, coinType, index)
}

// directSigner signs SIGN_MODE_DIRECT documents with one key.
type directSigner struct {
	key *Key
}

func (s *directSigner) Accounts(context.Context) ([]chain.AccountData, error) {
	return []chain.AccountData{{
		Address: s.key.Address,
		Algo:    "secp256k1",
		PubKey:  append([]byte(nil), s.key.PubKey...),
	}}, nil
}

func (s *directSigner) SignDirect(_ context.Context, signerAddress string, doc chain.SignDoc) (*chain.DirectSignResponse, error) {
	if signerAddress != s.key.Address {
		return nil, lenderr.WithDetails(lenderr.ErrInvalidInput, map[string]string{
			"signer":  signerAddress,
			"account": s.key.Address,
		})
	}

	digest := sha256.Sum256(cosmwasm.SignBytes(doc))
	sig, err := s.key.Sign(digest[:])
	if err != nil {
		return nil, err
	}
	return &chain.DirectSignResponse{
		Signed:    doc,
		Signature: sig,
		PubKey:    append([]byte(nil), s.key.PubKey...),
	}, nil
}
