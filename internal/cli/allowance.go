package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/lendkit/internal/chain"
	"github.com/mrz1836/lendkit/internal/output"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var allowanceCmd = &cobra.Command{
	Use:   "allowance",
	Short: "Manage token allowances granted to the lending contract",
	Long:  `Inspect and raise the CW20 allowances the lending contract may draw on.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var allowanceEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Raise the allowance to cover an amount",
	Long: `Make sure the lending contract may draw at least --amount of a token.
Nothing is submitted when the current allowance already covers it; otherwise
one increase_allowance for exactly --amount is submitted and confirmed.`,
	Example: `  lend allowance ensure --amount 80000000
  lend allowance ensure --token native --amount 5000000`,
	Args: cobra.NoArgs,
	RunE: runAllowanceEnsure,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	allowanceToken  string
	allowanceAmount string
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	allowanceCmd.GroupID = groupAccount
	allowanceCmd.GroupID = groupAccount
	rootCmd.AddCommand(allowanceCmd)
	allowanceCmd.AddCommand(allowanceEnsureCmd)

	allowanceEnsureCmd.Flags().StringVar(&allowanceToken, "token", "stable", "stable, native or a token contract address")
	allowanceEnsureCmd.Flags().StringVar(&allowanceAmount, "amount", "", "amount in the token's smallest unit")
	_ = allowanceEnsureCmd.MarkFlagRequired("amount")

	enrichParentLong(allowanceCmd)
}

type allowanceResult struct {
	Token     string        `json:"token"`
	Contract  string        `json:"contract"`
	Amount    output.Amount `json:"amount"`
	Submitted bool          `json:"submitted"`
	Hash      string        `json:"hash,omitempty"`
	Height    int64         `json:"height,omitempty"`
}

func runAllowanceEnsure(cmd *cobra.Command, _ []string) error {
	cc := commandContext(cmd)

	ref, err := resolveToken(cc.Config, allowanceToken)
	if err != nil {
		return err
	}
	value, err := chain.ParseAmount(allowanceAmount)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, txTimeout(cc.Config))
	defer cancel()

	s, err := dialLendingFn(ctx, cc, dialOptions{unlock: true})
	if err != nil {
		return err
	}
	defer s.close()

	res, err := s.client.EnsureAllowance(ctx, ref.Address, value)
	if err != nil {
		return err
	}

	result := allowanceResult{
		Token:    ref.Name,
		Contract: ref.Address,
		Amount:   cc.amount(value, ref.Symbol),
	}
	if res != nil {
		result.Submitted = true
		result.Hash = res.Hash
		result.Height = res.Height
	}

	return cc.Formatter.Result(result, func(w io.Writer) error {
		if !result.Submitted {
			out(w, "Allowance already covers %s.\n", result.Amount)
			return nil
		}
		out(w, "Allowance raised by %s.\n", result.Amount)
		out(w, "  Hash:   %s\n", result.Hash)
		out(w, "  Height: %s\n", fmt.Sprint(result.Height))
		return nil
	})
}
