// Package config provides configuration management for lend.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mrz1836/lendkit/internal/fileutil"
	lenderr "github.com/mrz1836/lendkit/pkg/errors"
)

// Config represents the application configuration.
type Config struct {
	Version   int             `yaml:"version"`
	Home      string          `yaml:"home"`
	Network   NetworkConfig   `yaml:"network"`
	Contracts ContractsConfig `yaml:"contracts"`
	Client    ClientConfig    `yaml:"client"`
	Wallet    WalletConfig    `yaml:"wallet"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// NetworkConfig defines the chain endpoints and fee settings.
type NetworkConfig struct {
	ChainID       string  `yaml:"chain_id"`
	RPC           string  `yaml:"rpc"`
	REST          string  `yaml:"rest"`
	Bech32Prefix  string  `yaml:"bech32_prefix"`
	GasPrice      string  `yaml:"gas_price"`
	GasMultiplier float64 `yaml:"gas_multiplier"`
}

// ContractsConfig defines the lending contract and its two CW20 tokens.
type ContractsConfig struct {
	Lending      string `yaml:"lending"`
	StableToken  string `yaml:"stable_token"`
	NativeToken  string `yaml:"native_token"`
	StableDenom  string `yaml:"stable_denom"`
	StableSymbol string `yaml:"stable_symbol"`
	NativeSymbol string `yaml:"native_symbol"`
	Decimals     int    `yaml:"decimals"`
}

// ClientConfig defines request timing, retry and rate limiting.
type ClientConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	ConfirmTimeout time.Duration `yaml:"confirm_timeout"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	QueryAttempts  int           `yaml:"query_attempts"`
	RateLimit      float64       `yaml:"rate_limit"`
	RateBurst      int           `yaml:"rate_burst"`
}

// WalletConfig defines where the encrypted keyfile lives and which account to use.
type WalletConfig struct {
	KeyFile      string `yaml:"key_file"`
	AccountIndex uint32 `yaml:"account_index"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Color         string `yaml:"color"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Load reads configuration from the specified file, layered over Defaults.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, lenderr.WithDetails(lenderr.WithCause(lenderr.ErrConfigNotFound, err), map[string]string{"path": path})
	}
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, lenderr.WithDetails(lenderr.WithCause(lenderr.ErrConfigInvalid, err), map[string]string{"path": path})
	}

	return cfg, nil
}

// Save writes configuration to the specified file, creating its directory.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return fileutil.WriteAtomic(path, data, 0o600)
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(ExpandPath(home), "config.yaml")
}

// DefaultHome returns the default lend home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lend"
	}
	return filepath.Join(home, ".lend")
}

// ExpandPath replaces a leading "~/" with the user's home directory.
func ExpandPath(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// GetHome returns the expanded lend home directory.
func (c *Config) GetHome() string {
	return ExpandPath(c.Home)
}

// KeyFilePath returns the keyfile location. An empty wallet.key_file means keyfile.json under home.
func (c *Config) KeyFilePath() string {
	if c.Wallet.KeyFile == "" {
		return filepath.Join(c.GetHome(), "keyfile.json")
	}
	return ExpandPath(c.Wallet.KeyFile)
}

// GetLoggingLevel returns the configured logging level.
func (c *Config) GetLoggingLevel() string {
	return c.Logging.Level
}

// GetLoggingFile returns the log file location. An empty logging.file means lend.log under home.
func (c *Config) GetLoggingFile() string {
	if c.Logging.File == "" {
		return filepath.Join(c.GetHome(), "lend.log")
	}
	return ExpandPath(c.Logging.File)
}

// GetOutputFormat returns the default output format.
func (c *Config) GetOutputFormat() string {
	return c.Output.DefaultFormat
}

// IsVerbose returns true if verbose output is enabled.
func (c *Config) IsVerbose() bool {
	return c.Output.Verbose
}
