package quote

import (
	"testing"

	"dexgate/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	wrapped = common.HexToAddress("0xbb4CdB9CBd36B01bD1cBaEF60aF814a3f6F0Ee75")
	tokenA  = common.HexToAddress("0xaa00000000000000000000000000000000000001")
	tokenB  = common.HexToAddress("0xbb00000000000000000000000000000000000002")
)

func desc(addr common.Address, symbol string, decimals uint8) entity.TokenDescriptor {
	return entity.TokenDescriptor{ChainID: 56, Address: addr, Symbol: symbol, Decimals: decimals}
}

func TestSubstituteNativeIdempotent(t *testing.T) {
	once := SubstituteNative(entity.NativeSentinel, wrapped)
	assert.Equal(t, wrapped, once)
	// substituting twice yields the same address
	assert.Equal(t, once, SubstituteNative(once, wrapped))
	// non-sentinel addresses pass through
	assert.Equal(t, tokenA, SubstituteNative(tokenA, wrapped))
}

func TestBuildRouteNativeInput(t *testing.T) {
	route, err := BuildRoute(desc(entity.NativeSentinel, "BNB", 18), desc(tokenA, "AAA", 18), wrapped)
	require.NoError(t, err)
	require.Len(t, route, 2)
	assert.Equal(t, wrapped, route[0])
	assert.Equal(t, tokenA, route[1])
	// the sentinel must never survive into a route
	for _, hop := range route {
		assert.NotEqual(t, entity.NativeSentinel, hop)
	}
}

func TestBuildRouteTokenToToken(t *testing.T) {
	route, err := BuildRoute(desc(tokenA, "AAA", 18), desc(tokenB, "BBB", 6), wrapped)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{tokenA, tokenB}, route)
}

func TestBuildRouteRejectsSelfSwap(t *testing.T) {
	_, err := BuildRoute(desc(tokenA, "AAA", 18), desc(tokenA, "AAA", 18), wrapped)
	assert.ErrorIs(t, err, entity.ErrSelfSwap)

	// native vs wrapped resolve to the same address
	_, err = BuildRoute(desc(entity.NativeSentinel, "BNB", 18), desc(wrapped, "WBNB", 18), wrapped)
	assert.ErrorIs(t, err, entity.ErrSelfSwap)
}
