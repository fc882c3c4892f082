// Package orchestrator sequences on-chain mutations. Every flow walks the
// same ladder: validate the intent, settle ERC-20 allowances, submit the
// router transaction through the wallet, then poll until the receipt lands.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"dexgate/internal/abicodec"
	"dexgate/internal/app/port"
	"dexgate/internal/domain/entity"
	"dexgate/internal/pkg/metrics"
	"dexgate/internal/provider"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

// maxUint256 is the unlimited approval amount. One approval per token and
// spender, then never again for that pair.
var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Options fixes the orchestrator's chain-level parameters.
type Options struct {
	Router  common.Address
	Wrapped common.Address

	// GasLimit is attached to every sendTransaction. The wallet may lower
	// it from its own estimate but never exceeds it.
	GasLimit uint64

	// DefaultDeadline fills intents that carry no explicit deadline.
	DefaultDeadline time.Duration

	PollInterval    time.Duration
	PollMaxAttempts int
}

// Orchestrator implements port.TxOrchestrator against a single router.
type Orchestrator struct {
	gateway *provider.Gateway
	opts    Options
	logger  *zap.Logger
}

func New(gateway *provider.Gateway, opts Options, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		gateway: gateway,
		opts:    opts,
		logger:  logger.Named("TxOrchestrator"),
	}
}

func notify(onStatus port.StatusFunc, stage entity.TxStage, hash string) {
	if onStatus != nil {
		onStatus(stage, hash)
	}
}

// outcome maps a terminal error to its metrics label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "confirmed"
	case errors.Is(err, entity.ErrUserRejected):
		return "rejected"
	case errors.Is(err, entity.ErrExecutionReverted):
		return "reverted"
	case errors.Is(err, entity.ErrConfirmationTimeout):
		return "timeout"
	default:
		return "error"
	}
}

// Swap executes a swap backed by a still-fresh quote.
func (o *Orchestrator) Swap(ctx context.Context, intent entity.SwapIntent, onStatus port.StatusFunc) (result *entity.TxResult, err error) {
	defer func() { metrics.TransactionsTotal.WithLabelValues("swap", outcome(err)).Inc() }()

	q := intent.Quote
	if q == nil {
		return nil, fmt.Errorf("swap intent carries no quote")
	}
	if q.Expired(time.Now()) {
		return nil, entity.ErrStaleQuote
	}
	if len(q.Route) < 2 {
		return nil, entity.ErrEmptyRoute
	}
	if intent.Sender == (common.Address{}) {
		return nil, entity.ErrNotConnected
	}

	// Slippage on the intent wins over the one the quote was shown with;
	// the user may have adjusted tolerance after quoting.
	minOut := entity.MinReceived(q.OutputAmountWei, intent.SlippageBps)
	deadline := o.deadline(intent.DeadlineEpochSec)

	if !q.InputToken.IsNative() {
		if err = o.ensureAllowance(ctx, q.InputToken.Address, intent.Sender, q.InputAmountWei, onStatus); err != nil {
			return nil, err
		}
	}

	var data []byte
	var value *big.Int
	switch {
	case q.InputToken.IsNative():
		data, err = abicodec.NewCall(abicodec.SwapExactETHForTokens).
			Uint256(minOut).
			AddressSlice(q.Route).
			Address(intent.Recipient).
			Uint256(deadline).
			Encode()
		value = q.InputAmountWei
	case q.OutputToken.IsNative():
		data, err = abicodec.NewCall(abicodec.SwapExactTokensForETH).
			Uint256(q.InputAmountWei).
			Uint256(minOut).
			AddressSlice(q.Route).
			Address(intent.Recipient).
			Uint256(deadline).
			Encode()
	default:
		data, err = abicodec.NewCall(abicodec.SwapExactTokensForTokens).
			Uint256(q.InputAmountWei).
			Uint256(minOut).
			AddressSlice(q.Route).
			Address(intent.Recipient).
			Uint256(deadline).
			Encode()
	}
	if err != nil {
		return nil, fmt.Errorf("encode swap calldata: %w", err)
	}

	o.logger.Info("submitting swap",
		zap.String("input", q.InputToken.Symbol),
		zap.String("output", q.OutputToken.Symbol),
		zap.String("amountIn", q.InputAmountWei.String()),
		zap.String("minOut", minOut.String()))

	return o.submitAndConfirm(ctx, o.routerTx(intent.Sender, value, data), onStatus)
}

// deadline resolves an intent deadline, applying the default window when the
// caller left it unset.
func (o *Orchestrator) deadline(epochSec int64) *big.Int {
	if epochSec <= 0 {
		epochSec = time.Now().Add(o.opts.DefaultDeadline).Unix()
	}
	return big.NewInt(epochSec)
}

func (o *Orchestrator) routerTx(from common.Address, value *big.Int, data []byte) provider.TxArgs {
	tx := provider.TxArgs{
		From: from,
		To:   o.opts.Router,
		Gas:  hexutil.Uint64(o.opts.GasLimit),
		Data: data,
	}
	if value != nil && value.Sign() > 0 {
		tx.Value = (*hexutil.Big)(value)
	}
	return tx
}

// submitAndConfirm sends a prepared transaction and waits for its receipt.
// After submission the returned result always carries the hash, so a caller
// can surface an explorer link even for reverted or timed-out transactions.
func (o *Orchestrator) submitAndConfirm(ctx context.Context, tx provider.TxArgs, onStatus port.StatusFunc) (*entity.TxResult, error) {
	notify(onStatus, entity.StageSubmitting, "")

	hash, err := o.gateway.SendTransaction(ctx, tx)
	if err != nil {
		notify(onStatus, entity.StageFailed, "")
		return nil, err
	}
	notify(onStatus, entity.StagePending, hash.Hex())

	receipt, err := o.waitMined(ctx, hash)
	if err != nil {
		notify(onStatus, entity.StageFailed, hash.Hex())
		return &entity.TxResult{Hash: hash, Stage: entity.StageFailed}, err
	}
	if !receipt.Succeeded() {
		notify(onStatus, entity.StageFailed, hash.Hex())
		return &entity.TxResult{Hash: hash, Stage: entity.StageFailed}, entity.ErrExecutionReverted
	}

	notify(onStatus, entity.StageConfirmed, hash.Hex())
	return &entity.TxResult{Hash: hash, Stage: entity.StageConfirmed}, nil
}
