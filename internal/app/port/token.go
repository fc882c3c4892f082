package port

import (
	"context"

	"dexgate/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
)

// TokenSource resolves symbols and addresses to canonical token metadata.
// Implementations cache the upstream list and fall back to a bundled copy,
// so lookups stay answerable when the list endpoint is down.
type TokenSource interface {
	// List returns the current token list document.
	List(ctx context.Context) (*entity.TokenList, error)

	// ByAddress resolves a token by its address, the unique key within a
	// chain. The native sentinel resolves to the native descriptor.
	ByAddress(ctx context.Context, address common.Address) (entity.TokenDescriptor, bool)

	// BySymbol resolves a token by display symbol, case-insensitive.
	BySymbol(ctx context.Context, symbol string) (entity.TokenDescriptor, bool)

	// Native returns the synthesized descriptor for the chain's native asset.
	Native() entity.TokenDescriptor
}
