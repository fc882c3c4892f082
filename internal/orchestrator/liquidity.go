package orchestrator

import (
	"context"
	"fmt"
	"math/big"

	"dexgate/internal/abicodec"
	"dexgate/internal/app/port"
	"dexgate/internal/domain/entity"
	"dexgate/internal/pkg/metrics"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// AddLiquidity supplies both sides of a pair. A native side is wrapped by the
// router itself through the ETH entrypoint; at most one side may be native.
func (o *Orchestrator) AddLiquidity(ctx context.Context, intent entity.AddLiquidityIntent, onStatus port.StatusFunc) (result *entity.TxResult, err error) {
	defer func() { metrics.TransactionsTotal.WithLabelValues("add_liquidity", outcome(err)).Inc() }()

	if intent.AmountA == nil || intent.AmountA.Sign() <= 0 || intent.AmountB == nil || intent.AmountB.Sign() <= 0 {
		return nil, fmt.Errorf("add liquidity amounts must be positive")
	}
	if intent.TokenA.IsNative() && intent.TokenB.IsNative() {
		return nil, fmt.Errorf("both liquidity sides are native")
	}
	if intent.Sender == (common.Address{}) {
		return nil, entity.ErrNotConnected
	}

	minA := entity.MinReceived(intent.AmountA, intent.SlippageBps)
	minB := entity.MinReceived(intent.AmountB, intent.SlippageBps)
	deadline := o.deadline(intent.DeadlineEpochSec)

	if intent.TokenA.IsNative() || intent.TokenB.IsNative() {
		// Normalize so the ERC-20 side is always "token" below.
		token, amountToken, minToken := intent.TokenA, intent.AmountA, minA
		amountNative, minNative := intent.AmountB, minB
		if intent.TokenA.IsNative() {
			token, amountToken, minToken = intent.TokenB, intent.AmountB, minB
			amountNative, minNative = intent.AmountA, minA
		}

		if err = o.ensureAllowance(ctx, token.Address, intent.Sender, amountToken, onStatus); err != nil {
			return nil, err
		}
		data, encErr := abicodec.NewCall(abicodec.AddLiquidityETH).
			Address(token.Address).
			Uint256(amountToken).
			Uint256(minToken).
			Uint256(minNative).
			Address(intent.Recipient).
			Uint256(deadline).
			Encode()
		if encErr != nil {
			return nil, fmt.Errorf("encode addLiquidityETH calldata: %w", encErr)
		}
		o.logger.Info("submitting addLiquidityETH",
			zap.String("token", token.Symbol),
			zap.String("amountToken", amountToken.String()),
			zap.String("amountNative", amountNative.String()))
		return o.submitAndConfirm(ctx, o.routerTx(intent.Sender, amountNative, data), onStatus)
	}

	if err = o.ensureAllowance(ctx, intent.TokenA.Address, intent.Sender, intent.AmountA, onStatus); err != nil {
		return nil, err
	}
	if err = o.ensureAllowance(ctx, intent.TokenB.Address, intent.Sender, intent.AmountB, onStatus); err != nil {
		return nil, err
	}
	data, encErr := abicodec.NewCall(abicodec.AddLiquidity).
		Address(intent.TokenA.Address).
		Address(intent.TokenB.Address).
		Uint256(intent.AmountA).
		Uint256(intent.AmountB).
		Uint256(minA).
		Uint256(minB).
		Address(intent.Recipient).
		Uint256(deadline).
		Encode()
	if encErr != nil {
		return nil, fmt.Errorf("encode addLiquidity calldata: %w", encErr)
	}
	o.logger.Info("submitting addLiquidity",
		zap.String("tokenA", intent.TokenA.Symbol),
		zap.String("tokenB", intent.TokenB.Symbol))
	return o.submitAndConfirm(ctx, o.routerTx(intent.Sender, nil, data), onStatus)
}

// RemoveLiquidity burns LP tokens back into the underlying assets. The pair
// contract itself is the ERC-20 the router must be allowed to spend.
func (o *Orchestrator) RemoveLiquidity(ctx context.Context, intent entity.RemoveLiquidityIntent, onStatus port.StatusFunc) (result *entity.TxResult, err error) {
	defer func() { metrics.TransactionsTotal.WithLabelValues("remove_liquidity", outcome(err)).Inc() }()

	if intent.Liquidity == nil || intent.Liquidity.Sign() <= 0 {
		return nil, fmt.Errorf("liquidity amount must be positive")
	}
	if intent.TokenA.IsNative() && intent.TokenB.IsNative() {
		return nil, fmt.Errorf("both liquidity sides are native")
	}
	if intent.Sender == (common.Address{}) {
		return nil, entity.ErrNotConnected
	}

	deadline := o.deadline(intent.DeadlineEpochSec)
	minA, minB := orZero(intent.AmountAMin), orZero(intent.AmountBMin)

	if err = o.ensureAllowance(ctx, intent.PairAddress, intent.Sender, intent.Liquidity, onStatus); err != nil {
		return nil, err
	}

	var data []byte
	if intent.TokenA.IsNative() || intent.TokenB.IsNative() {
		token, minToken, minNative := intent.TokenA, minA, minB
		if intent.TokenA.IsNative() {
			token, minToken, minNative = intent.TokenB, minB, minA
		}
		data, err = abicodec.NewCall(abicodec.RemoveLiquidityETH).
			Address(token.Address).
			Uint256(intent.Liquidity).
			Uint256(minToken).
			Uint256(minNative).
			Address(intent.Recipient).
			Uint256(deadline).
			Encode()
	} else {
		data, err = abicodec.NewCall(abicodec.RemoveLiquidity).
			Address(intent.TokenA.Address).
			Address(intent.TokenB.Address).
			Uint256(intent.Liquidity).
			Uint256(minA).
			Uint256(minB).
			Address(intent.Recipient).
			Uint256(deadline).
			Encode()
	}
	if err != nil {
		return nil, fmt.Errorf("encode removeLiquidity calldata: %w", err)
	}
	o.logger.Info("submitting removeLiquidity",
		zap.String("pair", intent.PairAddress.Hex()),
		zap.String("liquidity", intent.Liquidity.String()))
	return o.submitAndConfirm(ctx, o.routerTx(intent.Sender, nil, data), onStatus)
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

var _ port.TxOrchestrator = (*Orchestrator)(nil)

