package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dexgate/internal/domain/entity"
)

// EIP-1193 / wallet provider error codes.
const (
	codeUserRejected  = 4001
	codeChainNotAdded = 4902
)

// errChainNotRecognized marks a wallet_switchEthereumChain failure the
// connection machine should retry as wallet_addEthereumChain. Internal to
// the provider layer; never crosses to the UI-facing taxonomy.
var errChainNotRecognized = errors.New("chain not recognized by wallet")

// ChainNotRecognized reports whether a classified error calls for the
// add-chain fallback.
func ChainNotRecognized(err error) bool {
	return errors.Is(err, errChainNotRecognized)
}

type coded interface {
	ErrorCode() int
}

// Classify maps a raw provider error onto the domain taxonomy. Every
// network/provider error crosses this boundary before a caller sees it; the
// original message is preserved in the wrap for logs.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var c coded
	if errors.As(err, &c) {
		switch c.ErrorCode() {
		case codeUserRejected:
			return fmt.Errorf("%w: %s", entity.ErrUserRejected, err.Error())
		case codeChainNotAdded:
			return fmt.Errorf("%w: %s", errChainNotRecognized, err.Error())
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "insufficient_liquidity"),
		strings.Contains(msg, "insufficient_output_amount"),
		strings.Contains(msg, "insufficient_input_amount"),
		strings.Contains(msg, "ds-math-sub-underflow"):
		return fmt.Errorf("%w: %s", entity.ErrNoLiquidity, err.Error())
	case strings.Contains(msg, "insufficient funds"):
		return fmt.Errorf("%w: %s", entity.ErrInsufficientFunds, err.Error())
	case strings.Contains(msg, "user rejected"), strings.Contains(msg, "user denied"):
		return fmt.Errorf("%w: %s", entity.ErrUserRejected, err.Error())
	case strings.Contains(msg, "execution reverted"), strings.Contains(msg, "revert"):
		return fmt.Errorf("%w: %s", entity.ErrExecutionReverted, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %s", entity.ErrNetwork, err.Error())
	default:
		return fmt.Errorf("%w: %s", entity.ErrNetwork, err.Error())
	}
}
