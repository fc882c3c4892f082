package entity

import "errors"

// Classified failure categories. The quote engine and orchestrator map every
// provider/contract error onto one of these before it crosses a layer
// boundary; raw transport errors never reach callers unclassified.
var (
	// ErrUserRejected: the wallet declined a prompt (provider code 4001).
	// Not a system fault.
	ErrUserRejected = errors.New("request rejected by user")

	// ErrNoLiquidity: the router reverted in a way that indicates no pool or
	// insufficient output for the pair. Distinct from transport failure.
	ErrNoLiquidity = errors.New("no liquidity for this pair")

	// ErrInsufficientFunds: the sender cannot cover value + gas.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrExecutionReverted: a generic contract revert.
	ErrExecutionReverted = errors.New("transaction reverted")

	// ErrConfirmationTimeout: receipt polling exhausted its attempt budget.
	ErrConfirmationTimeout = errors.New("confirmation timed out")

	// ErrNetwork: the RPC endpoint is unreachable or misbehaving. Retryable
	// by re-triggering the action.
	ErrNetwork = errors.New("network error")

	// ErrStaleQuote: the quote backing an intent has expired or is missing.
	ErrStaleQuote = errors.New("quote is stale or missing")

	// ErrSelfSwap: input and output resolve to the same asset.
	ErrSelfSwap = errors.New("cannot swap asset for itself")

	// ErrEmptyRoute: no route exists between the requested assets.
	ErrEmptyRoute = errors.New("no route for pair")

	// ErrNotConnected: a mutating call was requested without a connected
	// account.
	ErrNotConnected = errors.New("wallet not connected")
)
