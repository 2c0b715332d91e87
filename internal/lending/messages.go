package lending

// CW20 token queries and execute messages.

type addressParam struct {
	Address string `json:"address"`
}

type balanceQuery struct {
	Balance addressParam `json:"balance"`
}

type balanceResponse struct {
	Balance Uint128 `json:"balance"`
}

type allowanceParams struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
}

type allowanceQuery struct {
	Allowance allowanceParams `json:"allowance"`
}

type allowanceResponse struct {
	Allowance Uint128 `json:"allowance"`
}

type increaseAllowanceParams struct {
	Spender string  `json:"spender"`
	Amount  Uint128 `json:"amount"`
}

type increaseAllowanceMsg struct {
	IncreaseAllowance increaseAllowanceParams `json:"increase_allowance"`
}

// Lending contract execute messages.

type amountParam struct {
	Amount Uint128 `json:"amount"`
}

type stakeMsg struct {
	Stake struct{} `json:"stake"`
}

type borrowMsg struct {
	Borrow amountParam `json:"borrow"`
}

type repayMsg struct {
	Repay amountParam `json:"repay"`
}

type unstakeMsg struct {
	Unstake amountParam `json:"unstake"`
}

// Lending contract queries.

type configQuery struct {
	GetConfig struct{} `json:"get_config"`
}

type stakerInfoQuery struct {
	GetStakerInfo addressParam `json:"get_staker_info"`
}

type borrowerInfoQuery struct {
	GetBorrowerInfo addressParam `json:"get_borrower_info"`
}
