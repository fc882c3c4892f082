package abicodec

// Router and ERC-20 selectors, fixed for this design. Derived once at init
// from the canonical signatures rather than hard-coded hex so a typo fails
// tests instead of producing silently wrong calldata.
var (
	// Router, read path.
	GetAmountsOut = NewSelector("getAmountsOut(uint256,address[])")

	// Router, swap entrypoints.
	SwapExactETHForTokens    = NewSelector("swapExactETHForTokens(uint256,address[],address,uint256)")
	SwapExactTokensForETH    = NewSelector("swapExactTokensForETH(uint256,uint256,address[],address,uint256)")
	SwapExactTokensForTokens = NewSelector("swapExactTokensForTokens(uint256,uint256,address[],address,uint256)")

	// Router, liquidity entrypoints.
	AddLiquidity       = NewSelector("addLiquidity(address,address,uint256,uint256,uint256,uint256,address,uint256)")
	AddLiquidityETH    = NewSelector("addLiquidityETH(address,uint256,uint256,uint256,address,uint256)")
	RemoveLiquidity    = NewSelector("removeLiquidity(address,address,uint256,uint256,uint256,address,uint256)")
	RemoveLiquidityETH = NewSelector("removeLiquidityETH(address,uint256,uint256,uint256,address,uint256)")

	// ERC-20.
	BalanceOf = NewSelector("balanceOf(address)")
	Allowance = NewSelector("allowance(address,address)")
	Approve   = NewSelector("approve(address,uint256)")
)
