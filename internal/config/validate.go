package config

import (
	"fmt"
	"net/url"

	"github.com/mrz1836/lendkit/internal/chain/cosmwasm"
	lenderr "github.com/mrz1836/lendkit/pkg/errors"
)

// maxDecimals bounds contracts.decimals; CW20 tokens never exceed 18.
const maxDecimals = 18

// Validate checks that the configuration can drive a client: endpoints parse as
// http(s) URLs, contract addresses are bech32 under the configured prefix, and the
// gas price is "<amount><denom>".
func (c *Config) Validate() error {
	if c.Network.ChainID == "" {
		return invalid("network.chain_id", "", "must not be empty")
	}
	if err := validateURL("network.rest", c.Network.REST, true); err != nil {
		return err
	}
	if err := validateURL("network.rpc", c.Network.RPC, false); err != nil {
		return err
	}
	if c.Network.Bech32Prefix == "" {
		return invalid("network.bech32_prefix", "", "must not be empty")
	}
	if _, err := cosmwasm.ParseGasPrice(c.Network.GasPrice); err != nil {
		return err
	}
	if c.Network.GasMultiplier < 1 {
		return invalid("network.gas_multiplier", fmt.Sprint(c.Network.GasMultiplier), "must be at least 1")
	}

	for key, addr := range map[string]string{
		"contracts.lending":      c.Contracts.Lending,
		"contracts.stable_token": c.Contracts.StableToken,
		"contracts.native_token": c.Contracts.NativeToken,
	} {
		if err := cosmwasm.ValidateAddress(addr, c.Network.Bech32Prefix); err != nil {
			return lenderr.WithDetails(err, map[string]string{"key": key})
		}
	}
	if c.Contracts.Decimals < 0 || c.Contracts.Decimals > maxDecimals {
		return invalid("contracts.decimals", fmt.Sprint(c.Contracts.Decimals), "must be between 0 and 18")
	}

	if c.Client.QueryAttempts < 1 {
		return invalid("client.query_attempts", fmt.Sprint(c.Client.QueryAttempts), "must be at least 1")
	}
	if c.Client.Timeout <= 0 || c.Client.ConfirmTimeout <= 0 || c.Client.PollInterval <= 0 {
		return invalid("client", "", "timeout, confirm_timeout and poll_interval must be positive")
	}

	switch c.Output.DefaultFormat {
	case "auto", "text", "json":
	default:
		return invalid("output.default_format", c.Output.DefaultFormat, "must be text, json, or auto")
	}
	if _, ok := parseLogLevel(c.Logging.Level); !ok {
		return invalid("logging.level", c.Logging.Level, "must be off, error, info, or debug")
	}
	return nil
}

func validateURL(key, raw string, required bool) error {
	if raw == "" {
		if required {
			return invalid(key, "", "must not be empty")
		}
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid(key, raw, "must be an http(s) URL")
	}
	return nil
}

func invalid(key, value, reason string) error {
	details := map[string]string{"key": key, "reason": reason}
	if value != "" {
		details["value"] = value
	}
	return lenderr.WithDetails(lenderr.ErrConfigInvalid, details)
}
