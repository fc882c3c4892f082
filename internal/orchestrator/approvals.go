package orchestrator

import (
	"context"
	"fmt"
	"math/big"

	"dexgate/internal/abicodec"
	"dexgate/internal/app/port"
	"dexgate/internal/domain/entity"
	"dexgate/internal/provider"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

// allowance reads the router's spending allowance for owner on an ERC-20.
func (o *Orchestrator) allowance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	data, err := abicodec.NewCall(abicodec.Allowance).
		Address(owner).
		Address(o.opts.Router).
		Encode()
	if err != nil {
		return nil, fmt.Errorf("encode allowance calldata: %w", err)
	}

	result, err := o.gateway.Call(ctx, token, data)
	if err != nil {
		return nil, err
	}
	raw, err := hexutil.Decode(result)
	if err != nil {
		return nil, fmt.Errorf("decode allowance result %q: %w", result, err)
	}
	value, ok := abicodec.DecodeUint256(raw)
	if !ok {
		return nil, fmt.Errorf("allowance result too short: %q", result)
	}
	return value, nil
}

// ensureAllowance makes the router spendable for owner's token. A sufficient
// existing allowance is a no-op; otherwise an unlimited approval is submitted
// and confirmed before the dependent transaction may proceed.
func (o *Orchestrator) ensureAllowance(ctx context.Context, token, owner common.Address, needed *big.Int, onStatus port.StatusFunc) error {
	notify(onStatus, entity.StageCheckingAllowance, "")

	current, err := o.allowance(ctx, token, owner)
	if err != nil {
		return err
	}
	if current.Cmp(needed) >= 0 {
		return nil
	}

	data, err := abicodec.NewCall(abicodec.Approve).
		Address(o.opts.Router).
		Uint256(maxUint256).
		Encode()
	if err != nil {
		return fmt.Errorf("encode approve calldata: %w", err)
	}

	notify(onStatus, entity.StageApproving, "")
	hash, err := o.gateway.SendTransaction(ctx, provider.TxArgs{
		From: owner,
		To:   token,
		Gas:  hexutil.Uint64(o.opts.GasLimit),
		Data: data,
	})
	if err != nil {
		return err
	}
	o.logger.Info("approval submitted",
		zap.String("token", token.Hex()),
		zap.String("hash", hash.Hex()))

	notify(onStatus, entity.StageAwaitingApproval, hash.Hex())
	receipt, err := o.waitMined(ctx, hash)
	if err != nil {
		return err
	}
	if !receipt.Succeeded() {
		return fmt.Errorf("approve %s: %w", token.Hex(), entity.ErrExecutionReverted)
	}
	return nil
}
