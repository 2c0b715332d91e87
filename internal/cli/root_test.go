package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/lendkit/internal/config"
	"github.com/mrz1836/lendkit/internal/output"
	lenderr "github.com/mrz1836/lendkit/pkg/errors"
)

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		name string
		info BuildInfo
		want string
	}{
		{"all fields populated", BuildInfo{Version: "v1.2.3", Commit: "abc1234", Date: "2026-01-15"}, "v1.2.3 (commit: abc1234, built: 2026-01-15)"},
		{"all fields empty", BuildInfo{}, "dev (commit: unknown, built: unknown)"},
		{"only version empty", BuildInfo{Commit: "def5678", Date: "2026-02-20"}, "dev (commit: def5678, built: 2026-02-20)"},
		{"only commit empty", BuildInfo{Version: "v2.0.0", Date: "2026-03-25"}, "v2.0.0 (commit: unknown, built: 2026-03-25)"},
		{"only date empty", BuildInfo{Version: "v3.0.0", Commit: "ghi9012"}, "v3.0.0 (commit: ghi9012, built: unknown)"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, formatVersion(tc.info))
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error returns success", nil, lenderr.ExitSuccess},
		{"general error", lenderr.ErrGeneral, lenderr.ExitGeneral},
		{"invalid amount", lenderr.ErrInvalidAmount, lenderr.ExitInput},
		{"wallet not found", lenderr.ErrWalletNotFound, lenderr.ExitNotFound},
		{"insufficient balance", lenderr.ErrInsufficientBalance, lenderr.ExitPermission},
		{"transaction failed", lenderr.ErrTransaction, lenderr.ExitGeneral},
		{"query failed", lenderr.ErrQuery, lenderr.ExitGeneral},
		{"wrapped", lenderr.WithCause(lenderr.ErrWalletNotFound, os.ErrNotExist), lenderr.ExitNotFound},
		{"plain error", assert.AnError, lenderr.ExitGeneral},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCode(tc.err))
		})
	}
}

func TestVersionCommand(t *testing.T) {
	setupTestEnv(t, output.FormatText)
	orig := buildInfo
	t.Cleanup(func() { buildInfo = orig })
	SetBuildInfo(BuildInfo{Version: "v0.3.0", Commit: "abc", Date: "2026-10-01"})

	cmd, buf := newTestCmd()
	require.NoError(t, versionCmd.RunE(cmd, nil))
	assert.Equal(t, "lend v0.3.0 (commit: abc, built: 2026-10-01)\n", buf.String())

	formatter = output.NewFormatter(output.FormatJSON, &bytes.Buffer{})
	cmd, buf = newTestCmd()
	require.NoError(t, versionCmd.RunE(cmd, nil))

	var got BuildInfo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, buildInfo, got)
}

func TestInitGlobals(t *testing.T) {
	setupTestEnv(t, output.FormatText)
	origHome, origFormat, origVerbose := homeDir, outputFormat, verbose
	t.Cleanup(func() { homeDir, outputFormat, verbose = origHome, origFormat, origVerbose })

	home := t.TempDir()
	fileCfg := config.Defaults()
	fileCfg.Network.GasPrice = "0.05uom"
	fileCfg.Logging.Level = "off"
	require.NoError(t, config.Save(fileCfg, config.Path(home)))

	homeDir, outputFormat, verbose = home, "json", false
	t.Setenv(config.EnvREST, "https://rest.example.com")

	require.NoError(t, initGlobals(&bytes.Buffer{}))
	t.Cleanup(cleanup)

	assert.Equal(t, home, cfg.Home)
	assert.Equal(t, "0.05uom", cfg.Network.GasPrice)
	assert.Equal(t, "https://rest.example.com", cfg.Network.REST)
	assert.True(t, formatter.IsJSON())
	assert.NotNil(t, collector)
	assert.NotNil(t, logger)
}

func TestInitGlobals_MissingConfigUsesDefaults(t *testing.T) {
	setupTestEnv(t, output.FormatText)
	origHome, origFormat, origVerbose := homeDir, outputFormat, verbose
	t.Cleanup(func() { homeDir, outputFormat, verbose = origHome, origFormat, origVerbose })

	homeDir, outputFormat, verbose = t.TempDir(), "text", true
	require.NoError(t, initGlobals(&bytes.Buffer{}))
	t.Cleanup(cleanup)

	assert.Equal(t, config.DefaultChainID, cfg.Network.ChainID)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.IsVerbose())
	assert.Equal(t, output.FormatText, formatter.Format())
}

func TestInitGlobals_InvalidConfig(t *testing.T) {
	setupTestEnv(t, output.FormatText)
	origHome := homeDir
	t.Cleanup(func() { homeDir = origHome })

	homeDir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(homeDir, "config.yaml"), []byte("network: [oops"), 0o600))

	err := initGlobals(&bytes.Buffer{})
	require.ErrorIs(t, err, lenderr.ErrConfigInvalid)
}
