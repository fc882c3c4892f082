package quote

import (
	"dexgate/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
)

// SubstituteNative maps the native sentinel onto the wrapped-asset address.
// Idempotent: a wrapped address passes through unchanged, and the sentinel
// itself never survives substitution.
func SubstituteNative(address, wrapped common.Address) common.Address {
	if address == entity.NativeSentinel {
		return wrapped
	}
	return address
}

// BuildRoute resolves both endpoints into a wrapped-asset-compatible swap
// route. Identical resolved endpoints mean a self-swap and short-circuit
// before any contract call.
func BuildRoute(input, output entity.TokenDescriptor, wrapped common.Address) ([]common.Address, error) {
	from := SubstituteNative(input.Address, wrapped)
	to := SubstituteNative(output.Address, wrapped)

	if from == to {
		return nil, entity.ErrSelfSwap
	}
	return []common.Address{from, to}, nil
}
