package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/lendkit/internal/config"
	"github.com/mrz1836/lendkit/internal/fileutil"
	"github.com/mrz1836/lendkit/internal/output"
	lenderr "github.com/mrz1836/lendkit/pkg/errors"
)

// configCmd is the parent command for configuration operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and modify lend configuration settings in <home>/config.yaml.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Write the default configuration file for the MANTRA Hongbai testnet.

An existing file is kept unless --force is given.`,
	Example: `  lend config init
  lend config init --force --home ./testnet`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Show every settable key with its effective value, after environment overrides.`,
	Example: `  lend config show
  lend config show -o json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long:  `Print one effective configuration value. Keys use dot notation.`,
	Example: `  lend config get network.rest
  lend config get contracts.lending`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set one value in the configuration file. The value is parsed for the key's
type and the file is rewritten immediately. Environment overrides are not
written to the file.`,
	Example: `  lend config set network.gas_price 0.03uom
  lend config set client.query_attempts 3
  lend config set logging.level debug`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var configForce bool

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	configCmd.GroupID = groupConfig
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configGetCmd, configSetCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite existing configuration")

	enrichParentLong(configCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	cc := commandContext(cmd)
	path := config.Path(cc.Config.Home)

	exists, err := fileutil.Exists(path)
	if err != nil {
		return err
	}
	if exists && !configForce {
		return lenderr.WithSuggestion(
			lenderr.WithDetails(lenderr.ErrGeneral, map[string]string{"path": path}),
			fmt.Sprintf("configuration already exists at %s; use --force to overwrite", path),
		)
	}

	defaults := config.Defaults()
	defaults.Home = cc.Config.Home
	if err := config.Save(defaults, path); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return cc.Formatter.Result(map[string]string{"path": path}, func(w io.Writer) error {
		out(w, "Configuration initialized at %s\n", path)
		outln(w)
		outln(w, "Review before use:")
		outln(w, "  - network.rest / network.rpc: chain endpoints")
		outln(w, "  - contracts.lending: lending contract address")
		outln(w, "  - contracts.stable_token / contracts.native_token: CW20 tokens")
		outln(w, "  - network.gas_price: price per gas unit with denom")
		return nil
	})
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cc := commandContext(cmd)

	values := make(map[string]string, len(config.Keys()))
	table := output.NewTable("KEY", "VALUE")
	for _, key := range config.Keys() {
		v, err := cc.Config.Get(key)
		if err != nil {
			return err
		}
		values[key] = v
		table.AddRow(key, v)
	}

	return cc.Formatter.Result(values, func(w io.Writer) error {
		out(w, "Home: %s\n\n", cc.Config.Home)
		return table.Render(w)
	})
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cc := commandContext(cmd)

	value, err := cc.Config.Get(args[0])
	if err != nil {
		return err
	}
	return cc.Formatter.Result(map[string]string{args[0]: value}, func(w io.Writer) error {
		outln(w, value)
		return nil
	})
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	cc := commandContext(cmd)
	key, value := args[0], args[1]
	path := config.Path(cc.Config.Home)

	// Edit the file, not the effective config, so env overrides stay out of it.
	fileCfg, err := config.Load(path)
	if err != nil {
		if !lenderr.Is(err, lenderr.ErrConfigNotFound) {
			return err
		}
		fileCfg = config.Defaults()
		fileCfg.Home = cc.Config.Home
	}

	if err := fileCfg.Set(key, value); err != nil {
		return err
	}
	if err := config.Save(fileCfg, path); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	if err := fileCfg.Validate(); err != nil {
		cc.Printer.Warnf("configuration saved but not usable yet: %v", err)
	}

	stored, _ := fileCfg.Get(key)
	return cc.Formatter.Result(map[string]string{key: stored}, func(w io.Writer) error {
		out(w, "Set %s = %s\n", key, stored)
		return nil
	})
}
