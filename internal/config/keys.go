package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	lenderr "github.com/mrz1836/lendkit/pkg/errors"
)

// field binds one dotted config key to its getter and setter.
type field struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringField(ptr func(c *Config) *string) field {
	return field{
		get: func(c *Config) string { return *ptr(c) },
		set: func(c *Config, v string) error { *ptr(c) = v; return nil },
	}
}

func urlField(ptr func(c *Config) *string) field {
	return field{
		get: func(c *Config) string { return *ptr(c) },
		set: func(c *Config, v string) error { *ptr(c) = SanitizeURL(v); return nil },
	}
}

func intField(ptr func(c *Config) *int) field {
	return field{
		get: func(c *Config) string { return strconv.Itoa(*ptr(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return err
			}
			*ptr(c) = n
			return nil
		},
	}
}

func floatField(ptr func(c *Config) *float64) field {
	return field{
		get: func(c *Config) string { return strconv.FormatFloat(*ptr(c), 'f', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return err
			}
			*ptr(c) = f
			return nil
		},
	}
}

func durationField(ptr func(c *Config) *time.Duration) field {
	return field{
		get: func(c *Config) string { return ptr(c).String() },
		set: func(c *Config, v string) error {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				return err
			}
			*ptr(c) = d
			return nil
		},
	}
}

func enumField(ptr func(c *Config) *string, allowed ...string) field {
	return field{
		get: func(c *Config) string { return *ptr(c) },
		set: func(c *Config, v string) error {
			v = strings.ToLower(strings.TrimSpace(v))
			for _, a := range allowed {
				if v == a {
					*ptr(c) = v
					return nil
				}
			}
			return fmt.Errorf("must be one of %s", strings.Join(allowed, ", "))
		},
	}
}

//nolint:gochecknoglobals // Static key table
var fields = map[string]field{
	"home":                    stringField(func(c *Config) *string { return &c.Home }),
	"network.chain_id":        stringField(func(c *Config) *string { return &c.Network.ChainID }),
	"network.rpc":             urlField(func(c *Config) *string { return &c.Network.RPC }),
	"network.rest":            urlField(func(c *Config) *string { return &c.Network.REST }),
	"network.bech32_prefix":   stringField(func(c *Config) *string { return &c.Network.Bech32Prefix }),
	"network.gas_price":       stringField(func(c *Config) *string { return &c.Network.GasPrice }),
	"network.gas_multiplier":  floatField(func(c *Config) *float64 { return &c.Network.GasMultiplier }),
	"contracts.lending":       stringField(func(c *Config) *string { return &c.Contracts.Lending }),
	"contracts.stable_token":  stringField(func(c *Config) *string { return &c.Contracts.StableToken }),
	"contracts.native_token":  stringField(func(c *Config) *string { return &c.Contracts.NativeToken }),
	"contracts.stable_denom":  stringField(func(c *Config) *string { return &c.Contracts.StableDenom }),
	"contracts.stable_symbol": stringField(func(c *Config) *string { return &c.Contracts.StableSymbol }),
	"contracts.native_symbol": stringField(func(c *Config) *string { return &c.Contracts.NativeSymbol }),
	"contracts.decimals":      intField(func(c *Config) *int { return &c.Contracts.Decimals }),
	"client.timeout":          durationField(func(c *Config) *time.Duration { return &c.Client.Timeout }),
	"client.confirm_timeout":  durationField(func(c *Config) *time.Duration { return &c.Client.ConfirmTimeout }),
	"client.poll_interval":    durationField(func(c *Config) *time.Duration { return &c.Client.PollInterval }),
	"client.query_attempts":   intField(func(c *Config) *int { return &c.Client.QueryAttempts }),
	"client.rate_limit":       floatField(func(c *Config) *float64 { return &c.Client.RateLimit }),
	"client.rate_burst":       intField(func(c *Config) *int { return &c.Client.RateBurst }),
	"wallet.key_file":         stringField(func(c *Config) *string { return &c.Wallet.KeyFile }),
	"wallet.account_index":    accountIndexField(),
	"output.default_format":   enumField(func(c *Config) *string { return &c.Output.DefaultFormat }, "auto", "text", "json"),
	"output.color":            enumField(func(c *Config) *string { return &c.Output.Color }, "auto", "always", "never"),
	"output.verbose":          verboseField(),
	"logging.level":           enumField(func(c *Config) *string { return &c.Logging.Level }, "off", "error", "info", "debug"),
	"logging.file":            stringField(func(c *Config) *string { return &c.Logging.File }),
	"logging.max_size_mb":     intField(func(c *Config) *int { return &c.Logging.MaxSizeMB }),
	"logging.max_backups":     intField(func(c *Config) *int { return &c.Logging.MaxBackups }),
}

func accountIndexField() field {
	return field{
		get: func(c *Config) string { return strconv.FormatUint(uint64(c.Wallet.AccountIndex), 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 31)
			if err != nil {
				return err
			}
			c.Wallet.AccountIndex = uint32(n)
			return nil
		},
	}
}

func verboseField() field {
	return field{
		get: func(c *Config) string { return strconv.FormatBool(c.Output.Verbose) },
		set: func(c *Config, v string) error { c.Output.Verbose = parseBool(v); return nil },
	}
}

// Keys returns every settable key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value at a dotted key such as "network.rest".
func (c *Config) Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", unknownKey(key)
	}
	return f.get(c), nil
}

// Set parses value into the dotted key. It does not run Validate.
func (c *Config) Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return unknownKey(key)
	}
	if err := f.set(c, value); err != nil {
		return lenderr.WithDetails(lenderr.WithCause(lenderr.ErrConfigInvalid, err), map[string]string{
			"key":   key,
			"value": value,
		})
	}
	return nil
}

func unknownKey(key string) error {
	return lenderr.WithSuggestion(
		lenderr.WithDetails(lenderr.ErrUnknownConfigKey, map[string]string{"key": key}),
		"run 'lend config show' to list valid keys",
	)
}
