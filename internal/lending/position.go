package lending

import (
	"context"
	"math/big"

	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/lendkit/internal/chain/cosmwasm"
)

// PoolConfig reads the lending contract's configuration.
func (c *Client) PoolConfig(ctx context.Context) (*PoolConfig, error) {
	var cfg PoolConfig
	if err := c.query(ctx, kindConfig, c.session.Contracts.Lending, configQuery{}, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// StakerInfo reads the staking record of address, or of the session account when address
// is empty. It returns (nil, nil) when neither is set.
func (c *Client) StakerInfo(ctx context.Context, address string) (*StakerInfo, error) {
	if address == "" {
		address = c.session.Account
	}
	if address == "" {
		return nil, nil //nolint:nilnil // not connected is a no-op, not a failure
	}

	var info StakerInfo
	q := stakerInfoQuery{GetStakerInfo: addressParam{Address: address}}
	if err := c.query(ctx, kindStaker, c.session.Contracts.Lending, q, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// BorrowerInfo reads the loan record of address, or of the session account when address
// is empty. It returns (nil, nil) when neither is set.
func (c *Client) BorrowerInfo(ctx context.Context, address string) (*BorrowerInfo, error) {
	if address == "" {
		address = c.session.Account
	}
	if address == "" {
		return nil, nil //nolint:nilnil // not connected is a no-op, not a failure
	}

	var info BorrowerInfo
	q := borrowerInfoQuery{GetBorrowerInfo: addressParam{Address: address}}
	if err := c.query(ctx, kindBorrower, c.session.Contracts.Lending, q, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Position gathers both spendable balances and the staker and borrower records of the
// session account in one concurrent pass. A contract "not found" for either record is
// reported as a zero record. It returns (nil, nil) when no account is connected.
func (c *Client) Position(ctx context.Context) (*Position, error) {
	if !c.session.Connected() {
		return nil, nil //nolint:nilnil // not connected is a no-op, not a failure
	}

	pos := &Position{Account: c.session.Account}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pos.Stable, err = c.QuerySpendableBalance(gctx, c.session.Contracts.StableToken)
		return err
	})
	g.Go(func() error {
		var err error
		pos.Native, err = c.QuerySpendableBalance(gctx, c.session.Contracts.NativeToken)
		return err
	})
	g.Go(func() error {
		info, err := c.StakerInfo(gctx, "")
		if cosmwasm.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		pos.Staker = *info
		return nil
	})
	g.Go(func() error {
		info, err := c.BorrowerInfo(gctx, "")
		if cosmwasm.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		pos.Borrower = *info
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.recordPosition(pos)
	return pos, nil
}

func (c *Client) recordPosition(pos *Position) {
	fields := map[string]*big.Int{
		"stable_balance":   pos.Stable.Balance,
		"stable_allowance": pos.Stable.Allowance,
		"native_balance":   pos.Native.Balance,
		"native_allowance": pos.Native.Allowance,
		"staked":           pos.Staker.StakedAmount.Big(),
		"borrowed":         pos.Borrower.BorrowedAmount.Big(),
		"collateral":       pos.Borrower.CollateralAmount.Big(),
	}
	for name, v := range fields {
		f, _ := new(big.Float).SetInt(v).Float64()
		c.recorder.SetPosition(name, f)
	}
}
