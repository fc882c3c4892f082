package port

import (
	"context"

	"dexgate/internal/domain/entity"
)

// QuoteService produces read-only swap quotes. A (nil, nil) return means
// "no quote" and is a normal state (empty input, still typing, self-swap);
// classified errors cover liquidity and transport failures.
type QuoteService interface {
	Quote(ctx context.Context, input, output entity.TokenDescriptor, amountDecimal string, slippageBps int64) (*entity.Quote, error)
}

// StatusFunc receives lifecycle updates while the orchestrator works an
// intent. txHash is empty until the transaction reaches the mempool.
type StatusFunc func(stage entity.TxStage, txHash string)

// TxOrchestrator sequences on-chain mutations: allowance check, approval,
// then the dependent router call, each confirmed before the next step.
type TxOrchestrator interface {
	Swap(ctx context.Context, intent entity.SwapIntent, onStatus StatusFunc) (*entity.TxResult, error)
	AddLiquidity(ctx context.Context, intent entity.AddLiquidityIntent, onStatus StatusFunc) (*entity.TxResult, error)
	RemoveLiquidity(ctx context.Context, intent entity.RemoveLiquidityIntent, onStatus StatusFunc) (*entity.TxResult, error)
}

// BalanceService reports holdings of the connected address across the
// registry's tokens.
type BalanceService interface {
	GetBalances(ctx context.Context, address string) ([]entity.TokenBalance, error)
}

// ConnectionStore persists the silent-reconnect blob across restarts.
type ConnectionStore interface {
	Load() (entity.PersistedConnection, bool, error)
	Save(entity.PersistedConnection) error
	Clear() error
}
