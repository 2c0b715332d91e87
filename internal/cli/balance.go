package cli

import (
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/lendkit/internal/lending"
	"github.com/mrz1836/lendkit/internal/output"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show spendable token balances",
	Long: `Show the account's CW20 balance, the allowance granted to the lending
contract, and the spendable amount (the smaller of the two) for the stable
and native tokens, or for one token with --token.

The account is the keyfile address unless --address is given. The keyfile is
not decrypted.`,
	Example: `  lend balance
  lend balance --token native
  lend balance --token mantra1... --address mantra1...`,
	Args: cobra.NoArgs,
	RunE: runBalance,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	balanceToken   string
	balanceAddress string
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	balanceCmd.GroupID = groupAccount
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringVar(&balanceToken, "token", "", "stable, native or a token contract address (default: both)")
	balanceCmd.Flags().StringVar(&balanceAddress, "address", "", "account to inspect (default: keyfile address)")
}

// balanceRow is one token snapshot as printed.
type balanceRow struct {
	Token     string        `json:"token"`
	Contract  string        `json:"contract"`
	Balance   output.Amount `json:"balance"`
	Allowance output.Amount `json:"allowance"`
	Spendable output.Amount `json:"spendable"`
}

type balanceResult struct {
	Account string       `json:"account"`
	Tokens  []balanceRow `json:"tokens"`
}

func runBalance(cmd *cobra.Command, _ []string) error {
	cc := commandContext(cmd)

	tokens := []string{"stable", "native"}
	if balanceToken != "" {
		tokens = []string{balanceToken}
	}
	refs := make([]tokenRef, 0, len(tokens))
	for _, name := range tokens {
		ref, err := resolveToken(cc.Config, name)
		if err != nil {
			return err
		}
		refs = append(refs, ref)
	}

	ctx, cancel := contextWithTimeout(cmd, cc.Config.Client.Timeout)
	defer cancel()

	s, err := dialLendingFn(ctx, cc, dialOptions{account: balanceAddress})
	if err != nil {
		return err
	}
	defer s.close()

	rows := make([]balanceRow, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		g.Go(func() error {
			snap, err := s.client.QuerySpendableBalance(gctx, ref.Address)
			if err != nil {
				return err
			}
			rows[i] = cc.balanceRow(ref, snap)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	res := balanceResult{Account: s.client.Session().Account, Tokens: rows}
	return cc.Formatter.Result(res, func(w io.Writer) error {
		out(w, "Account: %s\n\n", res.Account)
		table := output.NewTable("TOKEN", "BALANCE", "ALLOWANCE", "SPENDABLE")
		table.AlignRight(1, 2, 3)
		for _, r := range rows {
			table.AddRow(r.Token, r.Balance.String(), r.Allowance.String(), r.Spendable.String())
		}
		return table.Render(w)
	})
}

func (cc *CommandContext) balanceRow(ref tokenRef, snap *lending.SpendableBalance) balanceRow {
	return balanceRow{
		Token:     ref.Name,
		Contract:  ref.Address,
		Balance:   cc.amount(snap.Balance, ref.Symbol),
		Allowance: cc.amount(snap.Allowance, ref.Symbol),
		Spendable: cc.amount(snap.Spendable, ref.Symbol),
	}
}
