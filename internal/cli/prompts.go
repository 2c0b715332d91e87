package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/mrz1836/lendkit/internal/config"
	"github.com/mrz1836/lendkit/internal/wallet"
	lenderr "github.com/mrz1836/lendkit/pkg/errors"
)

// minPasswordLength is the shortest keyfile password accepted at creation.
const minPasswordLength = 8

// Prompt hooks, replaced in tests.
//
//nolint:gochecknoglobals // swapped by tests
var (
	promptPasswordFn    = promptPassword
	promptNewPasswordFn = promptNewPassword
	promptMnemonicFn    = promptMnemonic
	promptConfirmFn     = promptConfirm
)

// promptPassword prompts for a password with hidden input.
// The caller is responsible for zeroing the returned bytes after use.
func promptPassword(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd()) //nolint:gosec // G115: Fd() returns uintptr, safe conversion for term
	if !term.IsTerminal(fd) {
		return nil, lenderr.WithSuggestion(lenderr.ErrWalletLocked,
			fmt.Sprintf("no terminal for a password prompt; set %s", config.EnvPassword))
	}

	out(os.Stderr, "%s", prompt)
	password, err := term.ReadPassword(fd)
	outln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	return password, nil
}

// promptNewPassword prompts for a new password twice.
// The caller is responsible for zeroing the returned bytes after use.
func promptNewPassword() ([]byte, error) {
	password, err := promptPasswordFn("Enter keyfile password: ")
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		zeroBytes(password)
		return nil, lenderr.WithSuggestion(lenderr.ErrInvalidInput,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	confirm, err := promptPasswordFn("Confirm password: ")
	if err != nil {
		zeroBytes(password)
		return nil, err
	}
	defer zeroBytes(confirm)

	if string(password) != string(confirm) {
		zeroBytes(password)
		return nil, lenderr.WithSuggestion(lenderr.ErrInvalidInput, "passwords do not match")
	}
	return password, nil
}

// promptMnemonic reads a recovery phrase from one line of stdin.
func promptMnemonic() (string, error) {
	out(os.Stderr, "Enter your recovery phrase (all words on one line): ")

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", lenderr.WithSuggestion(lenderr.ErrInvalidInput, "no recovery phrase provided")
	}
	return wallet.NormalizeMnemonicInput(line), nil
}

// promptConfirm asks a yes/no question; anything but y/yes is no.
func promptConfirm(question string) bool {
	out(os.Stderr, "%s [y/N]: ", question)

	var response string
	if _, err := fmt.Scanln(&response); err != nil {
		return false
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

// keyfilePassword supplies the unlock password: LEND_PASSWORD when set, else a prompt.
func keyfilePassword(context.Context) ([]byte, error) {
	if pw, ok := os.LookupEnv(config.EnvPassword); ok && pw != "" {
		return []byte(pw), nil
	}
	return promptPasswordFn("Enter keyfile password: ")
}

// newKeyfilePassword supplies the password for a new keyfile: LEND_PASSWORD when
// set, else a confirmed prompt.
func newKeyfilePassword() ([]byte, error) {
	if pw, ok := os.LookupEnv(config.EnvPassword); ok && pw != "" {
		if len(pw) < minPasswordLength {
			return nil, lenderr.WithSuggestion(lenderr.ErrInvalidInput,
				fmt.Sprintf("%s must be at least %d characters", config.EnvPassword, minPasswordLength))
		}
		return []byte(pw), nil
	}
	return promptNewPasswordFn()
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
