// Package cli implements the lend command-line interface.
//
// Command state lives in package-level variables, the usual Cobra layout: they are
// initialized in PersistentPreRunE and released in PersistentPostRun.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrz1836/lendkit/internal/config"
	"github.com/mrz1836/lendkit/internal/metrics"
	"github.com/mrz1836/lendkit/internal/output"
	lenderr "github.com/mrz1836/lendkit/pkg/errors"
)

var (
	// Global flags
	homeDir      string
	outputFormat string
	verbose      bool

	// Global state initialized in PersistentPreRunE
	cfg       *config.Config
	logger    *config.Logger
	formatter *output.Formatter
	printer   *output.Printer
	collector *metrics.Metrics

	buildInfo BuildInfo
)

// BuildInfo is stamped into the binary at link time.
type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// SetBuildInfo records the build metadata reported by 'lend version'.
func SetBuildInfo(info BuildInfo) {
	buildInfo = info
}

// Help groups for top-level commands.
const (
	groupAccount = "account"
	groupLending = "lending"
	groupConfig  = "config"
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "lend",
	Short: "Stake, borrow and repay against a CosmWasm lending pool",
	Long: `lend drives a CosmWasm lending contract on a Cosmos chain.

It keeps one encrypted key, checks spendable balances (the smaller of the
account's CW20 balance and the allowance granted to the pool) before moving
tokens, raises allowances only when they fall short, and waits for every
transaction to be included in a block.

Amounts are integers in the token's smallest unit.`,
	Example: `  lend wallet create
  lend balance
  lend stake --amount 80000000
  lend position -o json`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initGlobals(cmd.ErrOrStderr())
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
}

// versionCmd prints the build metadata.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Show the version, commit and build date of this binary.`,
	Example: `  lend version
  lend version -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if formatter != nil && formatter.IsJSON() {
			return output.NewFormatter(output.FormatJSON, cmd.OutOrStdout()).Print(buildInfo)
		}
		outln(cmd.OutOrStdout(), "lend", formatVersion(buildInfo))
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		format := output.FormatText
		if formatter != nil {
			format = formatter.Format()
		}
		_ = output.FormatError(os.Stderr, err, format)
		return err
	}
	return nil
}

// ExitCode returns the process exit code for an error.
func ExitCode(err error) int {
	return lenderr.ExitCode(err)
}

// initGlobals loads configuration and builds the logger, formatter and metrics.
func initGlobals(stderr io.Writer) error {
	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}

	var err error
	cfg, err = config.Load(config.Path(home))
	if err != nil {
		if !lenderr.Is(err, lenderr.ErrConfigNotFound) {
			return err
		}
		cfg = config.Defaults()
	}
	cfg.Home = home

	config.ApplyEnvironment(cfg)

	if homeDir != "" {
		cfg.Home = homeDir
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = config.LogLevelDebug.String()
	}
	if outputFormat != "" && outputFormat != string(output.FormatAuto) {
		cfg.Output.DefaultFormat = outputFormat
	}

	logger, err = config.NewRotatingLogger(
		config.ParseLogLevel(cfg.GetLoggingLevel()),
		cfg.GetLoggingFile(),
		cfg.Logging.MaxSizeMB,
		cfg.Logging.MaxBackups,
	)
	if err != nil {
		logger = config.NullLogger()
	}

	formatter = output.NewFormatter(output.ParseFormat(cfg.GetOutputFormat()), os.Stdout)
	_, noColor := os.LookupEnv(config.EnvNoColor)
	printer = output.NewPrinter(stderr, output.UseColor(stderr, cfg.Output.Color, noColor))
	collector = metrics.New()

	return nil
}

// cleanup releases resources.
func cleanup() {
	if logger != nil {
		_ = logger.Close()
	}
}

// Config returns the global configuration.
func Config() *config.Config {
	return cfg
}

// Logger returns the global logger.
func Logger() *config.Logger {
	return logger
}

// Formatter returns the global output formatter.
func Formatter() *output.Formatter {
	return formatter
}

func formatVersion(info BuildInfo) string {
	v, commit, date := info.Version, info.Commit, info.Date
	if v == "" {
		v = "dev"
	}
	if commit == "" {
		commit = "unknown"
	}
	if date == "" {
		date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", v, commit, date)
}

// out writes formatted text, ignoring write errors on the terminal.
func out(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

// outln writes a line of text.
func outln(w io.Writer, args ...any) {
	_, _ = fmt.Fprintln(w, args...)
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "lend data directory (default: ~/.lend)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to the log file")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupAccount, Title: "Account:"},
		&cobra.Group{ID: groupLending, Title: "Lending:"},
		&cobra.Group{ID: groupConfig, Title: "Configuration:"},
	)
	versionCmd.GroupID = groupConfig
	rootCmd.AddCommand(versionCmd)
	rootCmd.SetHelpCommandGroupID(groupConfig)
}
