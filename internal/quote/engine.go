package quote

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"dexgate/internal/abicodec"
	"dexgate/internal/app/port"
	"dexgate/internal/domain/entity"
	"dexgate/internal/pkg/metrics"
	"dexgate/internal/pkg/utils"
	"dexgate/internal/provider"

	"github.com/ethereum/go-ethereum/common"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Options configure the quote engine.
type Options struct {
	Router  common.Address
	Wrapped common.Address
	TTL     time.Duration
	// ProbeExponent sets the probe amount for the price-impact heuristic
	// to 10^(decimals - ProbeExponent), i.e. 3 probes with 0.001 token.
	ProbeExponent int
}

// Engine computes swap quotes through the router's read-only getAmountsOut.
// Absence of a quote is a normal state; only liquidity and transport
// problems surface as classified errors.
type Engine struct {
	gateway *provider.Gateway
	opts    Options
	logger  *zap.Logger
	quotes  *gocache.Cache

	mu     sync.Mutex
	seq    uint64
	latest *entity.Quote
}

// NewEngine builds the quote engine.
func NewEngine(gateway *provider.Gateway, opts Options, logger *zap.Logger) *Engine {
	return &Engine{
		gateway: gateway,
		opts:    opts,
		logger:  logger.Named("QuoteEngine"),
		quotes:  gocache.New(opts.TTL, 2*opts.TTL),
	}
}

// Quote implements port.QuoteService. A (nil, nil) return is "no quote":
// empty or unparsable amount, non-positive amount, or a self-swap. No
// network call is made in any of those cases.
func (e *Engine) Quote(ctx context.Context, input, output entity.TokenDescriptor, amountDecimal string, slippageBps int64) (*entity.Quote, error) {
	if slippageBps < 0 || slippageBps > 10000 {
		return nil, fmt.Errorf("slippage %d bps out of range [0,10000]", slippageBps)
	}

	amountDecimal = strings.TrimSpace(amountDecimal)
	if amountDecimal == "" {
		return nil, nil
	}
	// Conversion always uses the input token's resolved decimals; nothing in
	// this path may assume 18.
	amountWei, err := utils.ParseUnits(amountDecimal, input.Decimals)
	if err != nil || amountWei.Sign() <= 0 {
		e.logger.Debug("No quote for unparsable or non-positive amount", zap.String("amount", amountDecimal))
		metrics.QuotesTotal.WithLabelValues("no_quote").Inc()
		return nil, nil
	}

	route, err := BuildRoute(input, output, e.opts.Wrapped)
	if err != nil {
		e.logger.Debug("No quote: route rejected", zap.Error(err))
		metrics.QuotesTotal.WithLabelValues("no_quote").Inc()
		return nil, nil
	}

	cacheKey := quoteKey(input, output, amountDecimal, slippageBps)
	if cached, found := e.quotes.Get(cacheKey); found {
		q := cached.(*entity.Quote)
		if !q.Expired(time.Now()) {
			return q, nil
		}
	}

	seq := e.nextSeq()
	started := time.Now()

	outWei, err := e.amountOut(ctx, amountWei, route)
	if err != nil {
		if errors.Is(err, entity.ErrNoLiquidity) {
			metrics.QuotesTotal.WithLabelValues("no_liquidity").Inc()
			return nil, entity.ErrNoLiquidity
		}
		metrics.QuotesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	impact := e.priceImpact(ctx, amountWei, outWei, route, input.Decimals)

	minWei := entity.MinReceived(outWei, slippageBps)
	q := &entity.Quote{
		InputToken:       input,
		OutputToken:      output,
		InputAmount:      amountDecimal,
		OutputAmount:     utils.FormatUnits(outWei, output.Decimals),
		PriceImpactPct:   impact,
		FeePct:           entity.ProtocolFeePct,
		Route:            route,
		MinimumReceived:  utils.FormatUnits(minWei, output.Decimals),
		ExpiresAtEpochMs: time.Now().Add(e.opts.TTL).UnixMilli(),
		InputAmountWei:   amountWei,
		OutputAmountWei:  outWei,
		MinReceivedWei:   minWei,
	}

	metrics.QuoteDuration.Observe(time.Since(started).Seconds())
	metrics.QuotesTotal.WithLabelValues("ok").Inc()
	e.quotes.SetDefault(cacheKey, q)
	e.applyIfCurrent(seq, q)

	e.logger.Debug("Quote computed",
		zap.String("in", input.Symbol),
		zap.String("out", output.Symbol),
		zap.String("amount", amountDecimal),
		zap.String("outputAmount", q.OutputAmount),
		zap.Float64("priceImpactPct", q.PriceImpactPct))
	return q, nil
}

// Latest returns the most recent non-superseded quote, or nil.
func (e *Engine) Latest() *entity.Quote {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.latest != nil && e.latest.Expired(time.Now()) {
		return nil
	}
	return e.latest
}

func (e *Engine) nextSeq() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq++
	return e.seq
}

// applyIfCurrent drops a result that a newer request superseded while it was
// in flight; a stale quote must never become the shared latest state.
func (e *Engine) applyIfCurrent(seq uint64, q *entity.Quote) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if seq == e.seq {
		e.latest = q
	}
}

// amountOut performs the read-only getAmountsOut router call.
func (e *Engine) amountOut(ctx context.Context, amountIn *big.Int, route []common.Address) (*big.Int, error) {
	data, err := abicodec.NewCall(abicodec.GetAmountsOut).
		Uint256(amountIn).
		AddressSlice(route).
		Encode()
	if err != nil {
		// Codec failures are programmer errors; never folded into "no quote".
		return nil, fmt.Errorf("encode getAmountsOut: %w", err)
	}

	result, err := e.gateway.Call(ctx, e.opts.Router, data)
	if err != nil {
		return nil, err
	}

	amounts, ok := abicodec.DecodeUint256SliceHex(result)
	if !ok || len(amounts) != len(route) {
		return nil, fmt.Errorf("malformed getAmountsOut response %q for %d-hop route", result, len(route))
	}
	return amounts[len(amounts)-1], nil
}

// priceImpact estimates rate degradation by comparing the requested trade's
// rate against a small probe trade's rate. A heuristic with a hard cap, not
// an AMM-curve calculation; probe failures degrade to zero impact rather
// than failing the quote.
func (e *Engine) priceImpact(ctx context.Context, amountIn, amountOut *big.Int, route []common.Address, inputDecimals uint8) float64 {
	probeExp := int(inputDecimals) - e.opts.ProbeExponent
	if probeExp < 0 {
		probeExp = 0
	}
	probeIn := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(probeExp)), nil)
	if probeIn.Cmp(amountIn) >= 0 {
		return 0
	}

	probeOut, err := e.amountOut(ctx, probeIn, route)
	if err != nil || probeOut.Sign() == 0 {
		e.logger.Debug("Price impact probe failed", zap.Error(err))
		return 0
	}

	execRate := new(big.Float).Quo(new(big.Float).SetInt(amountOut), new(big.Float).SetInt(amountIn))
	probeRate := new(big.Float).Quo(new(big.Float).SetInt(probeOut), new(big.Float).SetInt(probeIn))
	if probeRate.Sign() == 0 {
		return 0
	}

	ratio, _ := new(big.Float).Quo(execRate, probeRate).Float64()
	impact := (1 - ratio) * 100
	if impact < 0 {
		impact = 0
	}
	if impact > entity.PriceImpactCapPct {
		impact = entity.PriceImpactCapPct
	}
	return impact
}

func quoteKey(input, output entity.TokenDescriptor, amount string, slippageBps int64) string {
	return fmt.Sprintf("%s|%s|%s|%d", input.Address.Hex(), output.Address.Hex(), amount, slippageBps)
}

var _ port.QuoteService = (*Engine)(nil)
