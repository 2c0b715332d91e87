package config

import "time"

// MANTRA Hongbai testnet endpoints and the deployed lending contracts.
const (
	DefaultChainID      = "mantra-hongbai-1"
	DefaultRPCURL       = "https://rpc.hongbai.mantrachain.io"
	DefaultRESTURL      = "https://api.hongbai.mantrachain.io"
	DefaultBech32Prefix = "mantra"
	DefaultGasPrice     = "0.025uom"

	DefaultLendingContract = "mantra13g564ecvdexf9f4xdap32qh428zdd6g47de0j4nw0gp3nnf53spsuztan8"
	DefaultStableToken     = "mantra1nfwgkq7hkpgdkcpy0phy7h25j5q6hhcewh77fzekjtrmyp34txrqdkxdah"
	DefaultNativeToken     = "mantra1fha3z7tj26ynusrjg8zc2xm2jnuvq43k0gs66pc0s0ndacje3rnsurdc5z"
)

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.lend",
		Network: NetworkConfig{
			ChainID:       DefaultChainID,
			RPC:           DefaultRPCURL,
			REST:          DefaultRESTURL,
			Bech32Prefix:  DefaultBech32Prefix,
			GasPrice:      DefaultGasPrice,
			GasMultiplier: 1.4,
		},
		Contracts: ContractsConfig{
			Lending:      DefaultLendingContract,
			StableToken:  DefaultStableToken,
			NativeToken:  DefaultNativeToken,
			StableDenom:  "", // set to attach bank funds to stake
			StableSymbol: "USD",
			NativeSymbol: "OM",
			Decimals:     6,
		},
		Client: ClientConfig{
			Timeout:        2 * time.Minute,
			ConfirmTimeout: 60 * time.Second,
			PollInterval:   3 * time.Second,
			QueryAttempts:  1, // single attempt, no retry
			RateLimit:      5,
			RateBurst:      10,
		},
		Wallet: WalletConfig{
			KeyFile:      "", // <home>/keyfile.json
			AccountIndex: 0,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level:      "error",
			File:       "", // <home>/lend.log
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}
