package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/lendkit/internal/config"
	lenderr "github.com/mrz1836/lendkit/pkg/errors"
)

// scriptPasswords makes successive password prompts return answers in order.
func scriptPasswords(t *testing.T, answers ...string) {
	t.Helper()
	orig := promptPasswordFn
	t.Cleanup(func() { promptPasswordFn = orig })
	promptPasswordFn = func(string) ([]byte, error) {
		require.NotEmpty(t, answers, "unexpected password prompt")
		next := answers[0]
		answers = answers[1:]
		return []byte(next), nil
	}
}

func TestPromptNewPassword(t *testing.T) {
	tests := []struct {
		name    string
		answers []string
		want    string
		wantErr string
	}{
		{"matching", []string{testPassword, testPassword}, testPassword, ""},
		{"mismatch", []string{testPassword, "something else"}, "", "passwords do not match"},
		{"too short", []string{"short"}, "", "at least 8 characters"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			scriptPasswords(t, tc.answers...)

			got, err := promptNewPassword()
			if tc.wantErr != "" {
				require.ErrorIs(t, err, lenderr.ErrInvalidInput)
				assert.Contains(t, suggestionOf(err), tc.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(got))
		})
	}
}

func TestKeyfilePassword(t *testing.T) {
	t.Setenv(config.EnvPassword, "from-environment")
	pw, err := keyfilePassword(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-environment", string(pw))

	t.Setenv(config.EnvPassword, "")
	scriptPasswords(t, "from-prompt")
	pw, err = keyfilePassword(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-prompt", string(pw))
}

func TestNewKeyfilePassword(t *testing.T) {
	t.Setenv(config.EnvPassword, "long-enough-password")
	pw, err := newKeyfilePassword()
	require.NoError(t, err)
	assert.Equal(t, "long-enough-password", string(pw))

	t.Setenv(config.EnvPassword, "short")
	_, err = newKeyfilePassword()
	require.ErrorIs(t, err, lenderr.ErrInvalidInput)
	assert.Contains(t, suggestionOf(err), config.EnvPassword)
}

func TestZeroBytes(t *testing.T) {
	b := []byte("secret")
	zeroBytes(b)
	assert.Equal(t, make([]byte, 6), b)
	zeroBytes(nil)
}
