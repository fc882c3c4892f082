package entity

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMinReceived(t *testing.T) {
	out := big.NewInt(1_000_000)

	assert.Equal(t, int64(1_000_000), MinReceived(out, 0).Int64())
	assert.Equal(t, int64(995_000), MinReceived(out, 50).Int64())
	assert.Equal(t, int64(990_000), MinReceived(out, 100).Int64())
	assert.Equal(t, int64(0), MinReceived(out, 10000).Int64())

	// monotonic: more slippage tolerance never raises the floor
	prev := MinReceived(out, 0)
	for _, bps := range []int64{1, 50, 100, 500, 9999} {
		cur := MinReceived(out, bps)
		assert.LessOrEqual(t, cur.Cmp(prev), 0, "bps %d", bps)
		prev = cur
	}

	// input must not be mutated
	assert.Equal(t, int64(1_000_000), out.Int64())
}

func TestQuoteExpired(t *testing.T) {
	now := time.Now()
	q := &Quote{ExpiresAtEpochMs: now.Add(45 * time.Second).UnixMilli()}

	assert.False(t, q.Expired(now))
	assert.False(t, q.Expired(now.Add(44*time.Second)))
	assert.True(t, q.Expired(now.Add(46*time.Second)))
}
