package orchestrator

import (
	"context"
	"errors"

	"dexgate/internal/domain/entity"
	"dexgate/internal/pkg/metrics"
	"dexgate/internal/provider"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

var errNotMined = errors.New("transaction not yet mined")

// waitMined polls for a receipt at a fixed interval until it appears or the
// attempt budget runs out. Transient RPC failures consume attempts like
// not-mined responses do, so a dead endpoint cannot stall a flow forever.
func (o *Orchestrator) waitMined(ctx context.Context, hash common.Hash) (*provider.Receipt, error) {
	attempts := 0
	operation := func() (*provider.Receipt, error) {
		attempts++
		receipt, found, err := o.gateway.TransactionReceipt(ctx, hash)
		if err != nil {
			o.logger.Debug("receipt poll failed",
				zap.String("hash", hash.Hex()),
				zap.Int("attempt", attempts),
				zap.Error(err))
			return nil, err
		}
		if !found {
			return nil, errNotMined
		}
		return receipt, nil
	}

	receipt, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(o.opts.PollInterval)),
		backoff.WithMaxTries(uint(o.opts.PollMaxAttempts)),
	)
	metrics.ReceiptPollAttempts.Observe(float64(attempts))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, errNotMined) {
			return nil, entity.ErrConfirmationTimeout
		}
		return nil, err
	}
	return receipt, nil
}
