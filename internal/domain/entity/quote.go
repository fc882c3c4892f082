package entity

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ProtocolFeePct is the constant router fee surfaced on quotes, in percent.
const ProtocolFeePct = 0.3

// PriceImpactCapPct bounds the reported price impact. The impact figure is a
// heuristic, not an exact AMM-curve calculation; values beyond the cap carry
// no information for the caller.
const PriceImpactCapPct = 5.0

// Quote is an expected swap outcome for one concrete input amount. Created
// fresh per input change, never mutated, discarded once expired.
type Quote struct {
	InputToken       TokenDescriptor  `json:"inputToken"`
	OutputToken      TokenDescriptor  `json:"outputToken"`
	InputAmount      string           `json:"inputAmount"`
	OutputAmount     string           `json:"outputAmount"`
	PriceImpactPct   float64          `json:"priceImpactPct"`
	FeePct           float64          `json:"feePct"`
	Route            []common.Address `json:"route"`
	MinimumReceived  string           `json:"minimumReceived"`
	ExpiresAtEpochMs int64            `json:"expiresAtEpochMs"`

	// Integer-space amounts kept alongside the display strings so the
	// orchestrator never re-derives wei values from formatted output.
	InputAmountWei  *big.Int `json:"-"`
	OutputAmountWei *big.Int `json:"-"`
	MinReceivedWei  *big.Int `json:"-"`
}

// Expired reports whether the quote may no longer back a transaction.
func (q *Quote) Expired(now time.Time) bool {
	return now.UnixMilli() > q.ExpiresAtEpochMs
}

// MinReceived computes out × (10000 − slippageBps) / 10000 in integer space.
func MinReceived(out *big.Int, slippageBps int64) *big.Int {
	min := new(big.Int).Mul(out, big.NewInt(10000-slippageBps))
	return min.Quo(min, big.NewInt(10000))
}
