package cli

import (
	"context"
	"fmt"
	"io"
	"math/big"

	"github.com/spf13/cobra"

	"github.com/mrz1836/lendkit/internal/chain"
	"github.com/mrz1836/lendkit/internal/config"
	"github.com/mrz1836/lendkit/internal/lending"
	"github.com/mrz1836/lendkit/internal/output"
)

// txAction is one amount-taking lending command.
type txAction struct {
	use     string
	short   string
	long    string
	example string
	verb    string
	token   func(c *config.Config) tokenRef
	run     func(client *lending.Client, ctx context.Context, amount *big.Int) (*chain.ExecuteResult, error) //nolint:revive // method expression
}

func stableToken(c *config.Config) tokenRef {
	ref, _ := resolveToken(c, "stable")
	return ref
}

func nativeToken(c *config.Config) tokenRef {
	ref, _ := resolveToken(c, "native")
	return ref
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var txActions = []txAction{
	{
		use:   "stake",
		short: "Stake stable tokens into the pool",
		long: `Stake stable tokens. The balance must cover the amount; the allowance
granted to the lending contract is raised first when it falls short.`,
		example: `  lend stake --amount 80000000`,
		verb:    "Stake",
		token:   stableToken,
		run:     (*lending.Client).Stake,
	},
	{
		use:   "unstake",
		short: "Withdraw staked stable tokens",
		long: `Withdraw previously staked stable tokens. The contract checks the staked
balance.`,
		example: `  lend unstake --amount 80000000`,
		verb:    "Unstake",
		token:   stableToken,
		run:     (*lending.Client).Unstake,
	},
	{
		use:   "borrow",
		short: "Borrow native tokens against staked collateral",
		long: `Borrow native tokens. The contract enforces the collateral ratio; no
balance is checked here.`,
		example: `  lend borrow --amount 5000000`,
		verb:    "Borrow",
		token:   nativeToken,
		run:     (*lending.Client).Borrow,
	},
	{
		use:   "repay",
		short: "Repay borrowed native tokens",
		long: `Repay native tokens. The balance must cover the amount; the allowance
granted to the lending contract is raised first when it falls short.`,
		example: `  lend repay --amount 5000000`,
		verb:    "Repay",
		token:   nativeToken,
		run:     (*lending.Client).Repay,
	},
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	for _, a := range txActions {
		rootCmd.AddCommand(newTxCmd(a))
	}
}

func newTxCmd(a txAction) *cobra.Command {
	var (
		amount string
		yes    bool
	)
	cmd := &cobra.Command{
		Use:   a.use,
		Short: a.short,
		Long:    a.long,
		Example: a.example,
		GroupID: groupLending,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTx(cmd, a, amount, yes)
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "amount in the token's smallest unit")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

// txResult is the JSON shape of a confirmed lending transaction.
type txResult struct {
	Action    string        `json:"action"`
	Account   string        `json:"account"`
	Amount    output.Amount `json:"amount"`
	Hash      string        `json:"hash"`
	Height    int64         `json:"height"`
	GasWanted uint64        `json:"gas_wanted"`
	GasUsed   uint64        `json:"gas_used"`
}

func runTx(cmd *cobra.Command, a txAction, rawAmount string, yes bool) error {
	cc := commandContext(cmd)

	value, err := chain.ParseAmount(rawAmount)
	if err != nil {
		return err
	}
	ref := a.token(cc.Config)
	amt := cc.amount(value, ref.Symbol)

	if !yes {
		if !promptConfirmFn(fmt.Sprintf("%s %s (%s)?", a.verb, amt, amt.Raw)) {
			outln(cmd.OutOrStdout(), "Transaction canceled.")
			return nil
		}
	}

	ctx, cancel := contextWithTimeout(cmd, txTimeout(cc.Config))
	defer cancel()

	s, err := dialLendingFn(ctx, cc, dialOptions{unlock: true})
	if err != nil {
		return err
	}
	defer s.close()

	res, err := a.run(s.client, ctx, value)
	if err != nil {
		return err
	}
	if res == nil {
		return nil
	}

	result := txResult{
		Action:    a.use,
		Account:   s.client.Session().Account,
		Amount:    amt,
		Hash:      res.Hash,
		Height:    res.Height,
		GasWanted: res.GasWanted,
		GasUsed:   res.GasUsed,
	}
	return cc.Formatter.Result(result, func(w io.Writer) error {
		displayTxResult(w, result)
		return nil
	})
}

func displayTxResult(w io.Writer, r txResult) {
	outln(w, "Transaction confirmed.")
	outln(w)
	table := output.NewTable()
	table.SetNoHeader(true)
	table.AddRow("Action:", r.Action)
	table.AddRow("Amount:", r.Amount.String())
	table.AddRow("Account:", r.Account)
	table.AddRow("Hash:", r.Hash)
	table.AddRow("Height:", fmt.Sprint(r.Height))
	table.AddRow("Gas:", fmt.Sprintf("%d / %d", r.GasUsed, r.GasWanted))
	_ = table.Render(w)
}
