package config

import (
	"os"
	"strconv"
	"strings"
	"unicode"
)

// Environment variable names.
const (
	EnvHome         = "LEND_HOME"
	EnvChainID      = "LEND_CHAIN_ID"
	EnvRPC          = "LEND_RPC"
	EnvREST         = "LEND_REST"
	EnvGasPrice     = "LEND_GAS_PRICE"
	EnvOutputFormat = "LEND_OUTPUT_FORMAT"
	EnvVerbose      = "LEND_VERBOSE"
	EnvLogLevel     = "LEND_LOG_LEVEL"
	EnvPassword     = "LEND_PASSWORD" // #nosec G101 -- false positive, this is a const name not a credential
	EnvNoColor      = "NO_COLOR"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
//
//nolint:gocognit,gocyclo // Environment variable overrides require sequential checks
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvChainID); v != "" {
		cfg.Network.ChainID = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvRPC); v != "" {
		cfg.Network.RPC = SanitizeURL(v)
	}

	if v := os.Getenv(EnvREST); v != "" {
		cfg.Network.REST = SanitizeURL(v)
	}

	if v := os.Getenv(EnvGasPrice); v != "" {
		cfg.Network.GasPrice = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	// NO_COLOR disables colored output
	if _, ok := os.LookupEnv(EnvNoColor); ok {
		cfg.Output.Color = "never"
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

// SanitizeURL cleans a user-provided endpoint URL: surrounding whitespace, embedded
// control or space characters from copy-paste, and trailing slashes are removed.
func SanitizeURL(url string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, url)
	return strings.TrimRight(cleaned, "/")
}
