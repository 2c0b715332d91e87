package cli

import (
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/lendkit/internal/lending"
	"github.com/mrz1836/lendkit/internal/output"
	lenderr "github.com/mrz1836/lendkit/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var positionCmd = &cobra.Command{
	Use:   "position",
	Short: "Show balances, stake and loan for an account",
	Long: `Show one snapshot of an account's position in the pool: spendable
balances of both tokens, the staking record and the loan record. Accounts
that never staked or borrowed show zero.`,
	Example: `  lend position
  lend position --address mantra1... -o json`,
	Args: cobra.NoArgs,
	RunE: runPosition,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var positionAddress string

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	positionCmd.GroupID = groupLending
	rootCmd.AddCommand(positionCmd)
	positionCmd.Flags().StringVar(&positionAddress, "address", "", "account to inspect (default: keyfile address)")
}

// positionResult is the printed form of lending.Position.
type positionResult struct {
	Account    string        `json:"account"`
	Stable     balanceRow    `json:"stable"`
	Native     balanceRow    `json:"native"`
	Staked     output.Amount `json:"staked"`
	Borrowed   output.Amount `json:"borrowed"`
	Collateral output.Amount `json:"collateral"`
	StakedAt   *time.Time    `json:"staked_at,omitempty"`
	BorrowedAt *time.Time    `json:"borrowed_at,omitempty"`
}

func runPosition(cmd *cobra.Command, _ []string) error {
	cc := commandContext(cmd)

	ctx, cancel := contextWithTimeout(cmd, cc.Config.Client.Timeout)
	defer cancel()

	s, err := dialLendingFn(ctx, cc, dialOptions{account: positionAddress})
	if err != nil {
		return err
	}
	defer s.close()

	pos, err := s.client.Position(ctx)
	if err != nil {
		return err
	}
	if pos == nil {
		return lenderr.WithSuggestion(lenderr.ErrWalletNotFound, "create one with 'lend wallet create' or pass --address")
	}

	res := cc.positionResult(pos)
	return cc.Formatter.Result(res, func(w io.Writer) error {
		displayPosition(w, res)
		return nil
	})
}

func (cc *CommandContext) positionResult(pos *lending.Position) positionResult {
	c := cc.Config
	stable := tokenRef{Name: "stable", Address: c.Contracts.StableToken, Symbol: c.Contracts.StableSymbol}
	native := tokenRef{Name: "native", Address: c.Contracts.NativeToken, Symbol: c.Contracts.NativeSymbol}

	return positionResult{
		Account:    pos.Account,
		Stable:     cc.balanceRow(stable, pos.Stable),
		Native:     cc.balanceRow(native, pos.Native),
		Staked:     cc.amount(pos.Staker.StakedAmount.Big(), stable.Symbol),
		Borrowed:   cc.amount(pos.Borrower.BorrowedAmount.Big(), native.Symbol),
		Collateral: cc.amount(pos.Borrower.CollateralAmount.Big(), stable.Symbol),
		StakedAt:   unixTime(pos.Staker.LastUpdateTime),
		BorrowedAt: unixTime(pos.Borrower.LastUpdateTime),
	}
}

// unixTime converts contract seconds to a time, nil for zero.
func unixTime(sec uint64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(int64(sec), 0).UTC() //nolint:gosec // G115: contract timestamps fit in int64
	return &t
}

func displayPosition(w io.Writer, r positionResult) {
	out(w, "Account: %s\n\n", r.Account)

	balances := output.NewTable("TOKEN", "BALANCE", "ALLOWANCE", "SPENDABLE")
	balances.AlignRight(1, 2, 3)
	for _, b := range []balanceRow{r.Stable, r.Native} {
		balances.AddRow(b.Token, b.Balance.String(), b.Allowance.String(), b.Spendable.String())
	}
	_ = balances.Render(w)
	outln(w)

	pool := output.NewTable()
	pool.SetNoHeader(true)
	pool.AlignRight(1)
	pool.AddRow("Staked:", r.Staked.String())
	pool.AddRow("Borrowed:", r.Borrowed.String())
	pool.AddRow("Collateral:", r.Collateral.String())
	if r.StakedAt != nil {
		pool.AddRow("Stake updated:", r.StakedAt.Format(time.RFC3339))
	}
	if r.BorrowedAt != nil {
		pool.AddRow("Loan updated:", r.BorrowedAt.Format(time.RFC3339))
	}
	_ = pool.Render(w)
}
