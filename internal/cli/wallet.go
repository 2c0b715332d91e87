package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/lendkit/internal/output"
	"github.com/mrz1836/lendkit/internal/wallet"
	lenderr "github.com/mrz1836/lendkit/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage the encrypted keyfile",
	Long: `Create, import and inspect the keyfile that signs lending transactions.

The keyfile holds one BIP39 recovery phrase encrypted with a password (age,
scrypt). The account key is derived at m/44'/118'/0'/0/<wallet.account_index>.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Generate a new recovery phrase and keyfile",
	Long: `Generate a new BIP39 recovery phrase, derive the account and write the
encrypted keyfile.

The phrase is shown once. Write it down; it is the only way to recover the key.
The password is read from LEND_PASSWORD when set, otherwise prompted.`,
	Example: `  lend wallet create
  lend wallet create --words 12`,
	Args: cobra.NoArgs,
	RunE: runWalletCreate,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import an existing recovery phrase",
	Long: `Read a BIP39 recovery phrase from stdin, validate it and write the
encrypted keyfile. Misspelled words are reported with suggestions.`,
	Example: `  lend wallet import
  echo "$PHRASE" | LEND_PASSWORD=... lend wallet import`,
	Args: cobra.NoArgs,
	RunE: runWalletImport,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the account address",
	Long: `Show the address, derivation path and keyfile location. The keyfile is
not decrypted.`,
	Example: `  lend wallet show
  lend wallet show -o json`,
	Args: cobra.NoArgs,
	RunE: runWalletShow,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	walletWords int
	walletForce bool
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	walletCmd.GroupID = groupAccount
	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(walletCreateCmd, walletImportCmd, walletShowCmd)

	walletCreateCmd.Flags().IntVar(&walletWords, "words", 24, "recovery phrase length: 12 or 24")
	walletCreateCmd.Flags().BoolVar(&walletForce, "force", false, "overwrite an existing keyfile")
	walletImportCmd.Flags().BoolVar(&walletForce, "force", false, "overwrite an existing keyfile")

	enrichParentLong(walletCmd)
}

// walletResult is the JSON shape of create, import and show.
type walletResult struct {
	Address   string    `json:"address"`
	Path      string    `json:"path"`
	Prefix    string    `json:"prefix"`
	Keyfile   string    `json:"keyfile"`
	CreatedAt time.Time `json:"created_at"`
	Mnemonic  string    `json:"mnemonic,omitempty"`
}

func runWalletCreate(cmd *cobra.Command, _ []string) error {
	cc := commandContext(cmd)

	mnemonic, err := wallet.GenerateMnemonic(walletWords)
	if err != nil {
		return err
	}

	res, err := saveKeyfile(cc, mnemonic)
	if err != nil {
		return err
	}
	res.Mnemonic = mnemonic
	cc.Logger.Info("created keyfile %s for %s", res.Keyfile, res.Address)

	return cc.Formatter.Result(res, func(w io.Writer) error {
		displayMnemonic(w, mnemonic)
		displayWallet(w, res)
		return nil
	})
}

func runWalletImport(cmd *cobra.Command, _ []string) error {
	cc := commandContext(cmd)

	mnemonic, err := promptMnemonicFn()
	if err != nil {
		return err
	}
	if err := wallet.ValidateMnemonic(mnemonic); err != nil {
		return err
	}

	res, err := saveKeyfile(cc, wallet.NormalizeMnemonicInput(mnemonic))
	if err != nil {
		return err
	}
	cc.Logger.Info("imported keyfile %s for %s", res.Keyfile, res.Address)

	return cc.Formatter.Result(res, func(w io.Writer) error {
		displayWallet(w, res)
		return nil
	})
}

func runWalletShow(cmd *cobra.Command, _ []string) error {
	cc := commandContext(cmd)
	store := wallet.NewKeyStore(cc.Config.KeyFilePath())

	info, err := store.Info()
	if err != nil {
		return err
	}

	res := walletResult{
		Address:   info.Address,
		Path:      info.Path,
		Prefix:    info.Prefix,
		Keyfile:   store.Path(),
		CreatedAt: info.CreatedAt,
	}
	return cc.Formatter.Result(res, func(w io.Writer) error {
		displayWallet(w, res)
		return nil
	})
}

// saveKeyfile derives the account for mnemonic and writes it encrypted.
func saveKeyfile(cc *CommandContext, mnemonic string) (walletResult, error) {
	c := cc.Config
	store := wallet.NewKeyStore(c.KeyFilePath())

	if exists, err := store.Exists(); err != nil {
		return walletResult{}, err
	} else if exists && !walletForce {
		return walletResult{}, lenderr.WithSuggestion(
			lenderr.WithDetails(lenderr.ErrWalletExists, map[string]string{"path": store.Path()}),
			"pass --force to replace it; back up the current recovery phrase first",
		)
	}

	key, err := wallet.KeyFromMnemonic(mnemonic, c.Network.Bech32Prefix, wallet.CosmosCoinType, c.Wallet.AccountIndex)
	if err != nil {
		return walletResult{}, err
	}
	defer key.Wipe()

	password, err := newKeyfilePassword()
	if err != nil {
		return walletResult{}, err
	}
	defer zeroBytes(password)

	info := wallet.KeyfileInfo{
		Address: key.Address,
		Path:    key.Path,
		Prefix:  c.Network.Bech32Prefix,
	}
	if err := store.Save(info, mnemonic, password, walletForce); err != nil {
		return walletResult{}, err
	}

	saved, err := store.Info()
	if err != nil {
		return walletResult{}, err
	}
	return walletResult{
		Address:   saved.Address,
		Path:      saved.Path,
		Prefix:    saved.Prefix,
		Keyfile:   store.Path(),
		CreatedAt: saved.CreatedAt,
	}, nil
}

func displayMnemonic(w io.Writer, mnemonic string) {
	outln(w, "Recovery phrase (write it down, it is shown only once):")
	outln(w)

	words := strings.Fields(mnemonic)
	table := output.NewTable()
	table.SetNoHeader(true)
	for i := 0; i < len(words); i += 4 {
		row := make([]string, 0, 4)
		for j := i; j < i+4 && j < len(words); j++ {
			row = append(row, fmt.Sprintf("%2d. %s", j+1, words[j]))
		}
		table.AddRow(row...)
	}
	_ = table.Render(w)
	outln(w)
}

func displayWallet(w io.Writer, res walletResult) {
	table := output.NewTable()
	table.SetNoHeader(true)
	table.AddRow("Address:", res.Address)
	table.AddRow("Derivation:", res.Path)
	table.AddRow("Keyfile:", res.Keyfile)
	if !res.CreatedAt.IsZero() {
		table.AddRow("Created:", res.CreatedAt.Format(time.RFC3339))
	}
	_ = table.Render(w)
}
