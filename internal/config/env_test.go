package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"1", "1", true},
		{"true", "true", true},
		{"TRUE", "TRUE", true},
		{"yes", "yes", true},
		{"on", "on", true},
		{"with spaces", "  true  ", true},
		{"0", "0", false},
		{"false", "false", false},
		{"no", "no", false},
		{"off", "off", false},
		{"empty", "", false},
		{"random", "random", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, parseBool(tc.input))
		})
	}
}

func TestSanitizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"clean URL", "https://api.hongbai.mantrachain.io", "https://api.hongbai.mantrachain.io"},
		{"surrounding spaces", "  https://api.example.com  ", "https://api.example.com"},
		{"trailing slash", "https://api.example.com/", "https://api.example.com"},
		{"embedded newline", "https://api.exam\nple.com", "https://api.example.com"},
		{"tab and slashes", "\thttps://rpc.example.com:26657//", "https://rpc.example.com:26657"},
		{"empty", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, SanitizeURL(tc.input))
		})
	}
}

func TestApplyEnvironment(t *testing.T) {
	t.Setenv(EnvHome, "/custom/home")
	t.Setenv(EnvChainID, " mantra-1 ")
	t.Setenv(EnvRPC, "https://rpc.example.com/ ")
	t.Setenv(EnvREST, " https://rest.example.com")
	t.Setenv(EnvGasPrice, "0.01uom")
	t.Setenv(EnvOutputFormat, "JSON")
	t.Setenv(EnvVerbose, "yes")
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvNoColor, "")

	cfg := Defaults()
	ApplyEnvironment(cfg)

	assert.Equal(t, "/custom/home", cfg.Home)
	assert.Equal(t, "mantra-1", cfg.Network.ChainID)
	assert.Equal(t, "https://rpc.example.com", cfg.Network.RPC)
	assert.Equal(t, "https://rest.example.com", cfg.Network.REST)
	assert.Equal(t, "0.01uom", cfg.Network.GasPrice)
	assert.Equal(t, "json", cfg.Output.DefaultFormat)
	assert.True(t, cfg.Output.Verbose)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "never", cfg.Output.Color)
}

func TestApplyEnvironment_Unset(t *testing.T) {
	for _, name := range []string{EnvHome, EnvChainID, EnvRPC, EnvREST, EnvGasPrice, EnvOutputFormat, EnvVerbose, EnvLogLevel} {
		t.Setenv(name, "")
	}

	cfg := Defaults()
	ApplyEnvironment(cfg)

	expected := Defaults()
	if _, ok := os.LookupEnv(EnvNoColor); ok {
		expected.Output.Color = "never"
	}
	assert.Equal(t, expected, cfg)
}
