package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/lendkit/internal/chain"
	"github.com/mrz1836/lendkit/internal/chain/cosmwasm"
	"github.com/mrz1836/lendkit/internal/lending"
	"github.com/mrz1836/lendkit/internal/output"
	lenderr "github.com/mrz1836/lendkit/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Inspect or create the lending contract",
	Long:  `Read the lending contract's configuration or instantiate a new lending contract from uploaded code.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var poolConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the lending contract configuration",
	Long: `Show the token contracts, interest rate and collateral ratio the lending
contract was instantiated with.`,
	Example: `  lend pool config -o json`,
	Args: cobra.NoArgs,
	RunE: runPoolConfig,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var poolInstantiateCmd = &cobra.Command{
	Use:   "instantiate",
	Short: "Instantiate a new lending contract",
	Long: `Instantiate a lending contract from an uploaded code id, signed by the
keyfile account. Token addresses default to the configured stable and native
tokens. Point contracts.lending at the new address to use it.`,
	Example: `  lend pool instantiate --code-id 412 --collateral-ratio 150 --interest-rate 5`,
	Args: cobra.NoArgs,
	RunE: runPoolInstantiate,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	instCodeID          uint64
	instUSDToken        string
	instOMToken         string
	instCollateralRatio string
	instInterestRate    string
	instLabel           string
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	poolCmd.GroupID = groupLending
	rootCmd.AddCommand(poolCmd)
	poolCmd.AddCommand(poolConfigCmd)
	poolCmd.AddCommand(poolInstantiateCmd)

	poolInstantiateCmd.Flags().Uint64Var(&instCodeID, "code-id", 0, "uploaded lending contract code id")
	poolInstantiateCmd.Flags().StringVar(&instUSDToken, "usd-token", "", "stable token contract (default: contracts.stable_token)")
	poolInstantiateCmd.Flags().StringVar(&instOMToken, "om-token", "", "native token contract (default: contracts.native_token)")
	poolInstantiateCmd.Flags().StringVar(&instCollateralRatio, "collateral-ratio", "", "collateral ratio")
	poolInstantiateCmd.Flags().StringVar(&instInterestRate, "interest-rate", "", "interest rate")
	poolInstantiateCmd.Flags().StringVar(&instLabel, "label", lending.DefaultInstantiateLabel, "contract label")
	_ = poolInstantiateCmd.MarkFlagRequired("code-id")
	_ = poolInstantiateCmd.MarkFlagRequired("collateral-ratio")
	_ = poolInstantiateCmd.MarkFlagRequired("interest-rate")

	enrichParentLong(poolCmd)
}

type poolConfigResult struct {
	Lending         string `json:"lending"`
	USDToken        string `json:"usd_token"`
	OMToken         string `json:"om_token"`
	InterestRate    string `json:"interest_rate"`
	CollateralRatio string `json:"collateral_ratio"`
}

func runPoolConfig(cmd *cobra.Command, _ []string) error {
	cc := commandContext(cmd)

	ctx, cancel := contextWithTimeout(cmd, cc.Config.Client.Timeout)
	defer cancel()

	s, err := dialLendingFn(ctx, cc, dialOptions{})
	if err != nil {
		return err
	}
	defer s.close()

	pc, err := s.client.PoolConfig(ctx)
	if err != nil {
		return err
	}

	res := poolConfigResult{
		Lending:         cc.Config.Contracts.Lending,
		USDToken:        pc.USDToken,
		OMToken:         pc.OMToken,
		InterestRate:    pc.InterestRate.String(),
		CollateralRatio: pc.CollateralRatio.String(),
	}
	return cc.Formatter.Result(res, func(w io.Writer) error {
		table := output.NewTable()
		table.SetNoHeader(true)
		table.AddRow("Lending:", res.Lending)
		table.AddRow("USD token:", res.USDToken)
		table.AddRow("OM token:", res.OMToken)
		table.AddRow("Interest rate:", res.InterestRate)
		table.AddRow("Collateral ratio:", res.CollateralRatio)
		return table.Render(w)
	})
}

type instantiateResult struct {
	Contract  string `json:"contract"`
	CodeID    uint64 `json:"code_id"`
	Label     string `json:"label"`
	Hash      string `json:"hash"`
	Height    int64  `json:"height"`
	GasWanted uint64 `json:"gas_wanted"`
	GasUsed   uint64 `json:"gas_used"`
}

func runPoolInstantiate(cmd *cobra.Command, _ []string) error {
	cc := commandContext(cmd)

	msg, err := instantiateMsg(cc)
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

	r, err := s.client.Instantiate(ctx, instCodeID, msg, instLabel)
	if err != nil {
		return err
	}

	res := instantiateResult{
		Contract:  r.ContractAddress,
		CodeID:    instCodeID,
		Label:     instLabel,
		Hash:      r.Hash,
		Height:    r.Height,
		GasWanted: r.GasWanted,
		GasUsed:   r.GasUsed,
	}
	return cc.Formatter.Result(res, func(w io.Writer) error {
		out(w, "Instantiated %s\n\n", res.Contract)
		table := output.NewTable()
		table.SetNoHeader(true)
		table.AddRow("Code ID:", fmt.Sprint(res.CodeID))
		table.AddRow("Label:", res.Label)
		table.AddRow("Hash:", res.Hash)
		table.AddRow("Height:", fmt.Sprint(res.Height))
		return table.Render(w)
	})
}

func instantiateMsg(cc *CommandContext) (lending.InstantiateMsg, error) {
	c := cc.Config
	if instCodeID == 0 {
		return lending.InstantiateMsg{}, lenderr.WithDetails(lenderr.ErrInvalidInput, map[string]string{"code_id": "must be positive"})
	}

	usd, om := instUSDToken, instOMToken
	if usd == "" {
		usd = c.Contracts.StableToken
	}
	if om == "" {
		om = c.Contracts.NativeToken
	}
	for _, addr := range []string{usd, om} {
		if err := cosmwasm.ValidateAddress(addr, c.Network.Bech32Prefix); err != nil {
			return lending.InstantiateMsg{}, err
		}
	}

	ratio, err := chain.ParseUint128(instCollateralRatio)
	if err != nil {
		return lending.InstantiateMsg{}, err
	}
	rate, err := chain.ParseUint128(instInterestRate)
	if err != nil {
		return lending.InstantiateMsg{}, err
	}

	return lending.InstantiateMsg{
		USDToken:        usd,
		OMToken:         om,
		CollateralRatio: lending.NewUint128(ratio),
		InterestRate:    lending.NewUint128(rate),
	}, nil
}
