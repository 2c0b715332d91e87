package wallet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"filippo.io/age"

	"github.com/mrz1836/lendkit/internal/fileutil"
	lenderr "github.com/mrz1836/lendkit/pkg/errors"
)

const (
	// keyfileVersion is the current keyfile format.
	keyfileVersion = 1

	// keyfilePermissions is the permission mode for the keyfile.
	keyfilePermissions = 0o600
)

// KeyfileInfo is the plaintext metadata stored next to the encrypted mnemonic.
type KeyfileInfo struct {
	Version   int       `json:"version"`
	Address   string    `json:"address"`
	Path      string    `json:"path"`
	Prefix    string    `json:"prefix"`
	CreatedAt time.Time `json:"created_at"`
}

type keyfile struct {
	KeyfileInfo

	// EncryptedMnemonic is the age (scrypt) ciphertext of the mnemonic.
	EncryptedMnemonic []byte `json:"encrypted_mnemonic"`
}

// KeyStore persists one encrypted mnemonic at a fixed path.
type KeyStore struct {
	path       string
	workFactor int // scrypt log2(N); zero keeps age's default
}

//nolint:gochecknoglobals // process-wide override, set once by tests
var scryptWorkFactor int

// SetScryptWorkFactor sets the scrypt log2(N) used by stores created afterwards.
// Zero restores age's default. Only tests should lower it.
func SetScryptWorkFactor(n int) {
	scryptWorkFactor = n
}

// NewKeyStore returns a store for the keyfile at path.
func NewKeyStore(path string) *KeyStore {
	return &KeyStore{path: path, workFactor: scryptWorkFactor}
}

// Path returns the keyfile location.
func (s *KeyStore) Path() string {
	return s.path
}

// Exists reports whether the keyfile is present.
func (s *KeyStore) Exists() (bool, error) {
	return fileutil.Exists(s.path)
}

// Save encrypts mnemonic with password and writes the keyfile atomically.
// An existing keyfile is only replaced when overwrite is set.
func (s *KeyStore) Save(info KeyfileInfo, mnemonic string, password []byte, overwrite bool) error {
	if len(password) == 0 {
		return lenderr.WithDetails(lenderr.ErrInvalidInput, map[string]string{"reason": "password is empty"})
	}
	exists, err := s.Exists()
	if err != nil {
		return fmt.Errorf("checking keyfile: %w", err)
	}
	if exists && !overwrite {
		return lenderr.WithDetails(lenderr.ErrWalletExists, map[string]string{"path": s.path})
	}

	ciphertext, err := encrypt([]byte(mnemonic), string(password), s.workFactor)
	if err != nil {
		return err
	}

	info.Version = keyfileVersion
	if info.CreatedAt.IsZero() {
		info.CreatedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(keyfile{KeyfileInfo: info, EncryptedMnemonic: ciphertext}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling keyfile: %w", err)
	}

	if err := fileutil.WriteAtomic(s.path, data, keyfilePermissions); err != nil {
		return fmt.Errorf("writing keyfile: %w", err)
	}
	return nil
}

// Info reads the keyfile metadata without decrypting.
func (s *KeyStore) Info() (*KeyfileInfo, error) {
	kf, err := s.read()
	if err != nil {
		return nil, err
	}
	return &kf.KeyfileInfo, nil
}

// Load decrypts and returns the stored mnemonic.
func (s *KeyStore) Load(password []byte) (string, *KeyfileInfo, error) {
	kf, err := s.read()
	if err != nil {
		return "", nil, err
	}

	plaintext, err := decrypt(kf.EncryptedMnemonic, string(password))
	if err != nil {
		return "", nil, lenderr.WithCause(lenderr.ErrDecryptionFailed, err)
	}
	defer zero(plaintext)

	return string(plaintext), &kf.KeyfileInfo, nil
}

func (s *KeyStore) read() (*keyfile, error) {
	data, err := os.ReadFile(s.path) //nolint:gosec // G304: keyfile path comes from config
	if os.IsNotExist(err) {
		return nil, lenderr.WithSuggestion(
			lenderr.WithDetails(lenderr.ErrWalletNotFound, map[string]string{"path": s.path}),
			"run 'lend wallet create' or 'lend wallet import'",
		)
	}
	if err != nil {
		return nil, fmt.Errorf("reading keyfile: %w", err)
	}

	var kf keyfile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parsing keyfile: %w", err)
	}
	if kf.Version != keyfileVersion {
		return nil, lenderr.WithDetails(lenderr.ErrInvalidInput, map[string]string{
			"keyfile_version": fmt.Sprint(kf.Version),
		})
	}
	return &kf, nil
}

func encrypt(plaintext []byte, password string, workFactor int) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(password)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt recipient: %w", err)
	}
	if workFactor > 0 {
		recipient.SetWorkFactor(workFactor)
	}

	buf := &bytes.Buffer{}
	w, err := age.Encrypt(buf, recipient)
	if err != nil {
		return nil, fmt.Errorf("initializing encryption: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing encrypted data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}
	return buf.Bytes(), nil
}

func decrypt(ciphertext []byte, password string) ([]byte, error) {
	identity, err := age.NewScryptIdentity(password)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, fmt.Errorf("initializing decryption: %w", err)
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted data: %w", err)
	}
	return plaintext, nil
}
