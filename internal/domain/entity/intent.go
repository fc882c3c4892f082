package entity

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TxStage is the lifecycle position of an in-flight intent.
type TxStage string

const (
	StageIdle              TxStage = "idle"
	StageCheckingAllowance TxStage = "checking_allowance"
	StageApproving         TxStage = "approving"
	StageAwaitingApproval  TxStage = "awaiting_approval"
	StageSubmitting        TxStage = "submitting"
	StagePending           TxStage = "pending"
	StageConfirmed         TxStage = "confirmed"
	StageFailed            TxStage = "failed"
)

// SwapIntent is a single-use request to execute a swap. Consumed exactly
// once by the orchestrator, then discarded. Sender is the connected account
// paying for and signing the transaction; Recipient only receives the
// output and may be any address.
type SwapIntent struct {
	Quote            *Quote
	SlippageBps      int64
	Sender           common.Address
	Recipient        common.Address
	DeadlineEpochSec int64
}

// AddLiquidityIntent supplies both sides of a pool position. A native side
// is expressed with the sentinel descriptor.
type AddLiquidityIntent struct {
	TokenA           TokenDescriptor
	TokenB           TokenDescriptor
	AmountA          *big.Int
	AmountB          *big.Int
	SlippageBps      int64
	Sender           common.Address
	Recipient        common.Address
	DeadlineEpochSec int64
}

// RemoveLiquidityIntent burns LP tokens back into the underlying pair.
type RemoveLiquidityIntent struct {
	TokenA           TokenDescriptor
	TokenB           TokenDescriptor
	PairAddress      common.Address
	Liquidity        *big.Int
	AmountAMin       *big.Int
	AmountBMin       *big.Int
	Sender           common.Address
	Recipient        common.Address
	DeadlineEpochSec int64
}

// TxResult is the terminal report for a submitted intent. Hash is set as
// soon as the transaction enters the mempool, before confirmation resolves.
type TxResult struct {
	Hash  common.Hash `json:"hash"`
	Stage TxStage     `json:"stage"`
}
