// Package service holds application services composed from the domain ports.
package service

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"dexgate/internal/abicodec"
	"dexgate/internal/app/port"
	"dexgate/internal/domain/entity"
	"dexgate/internal/pkg/utils"
	"dexgate/internal/provider"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BalancesService reports the connected address's holdings across the
// registry's tokens. Reads fan out concurrently with a bounded limit; a
// single failing token is skipped rather than failing the whole sweep.
type BalancesService struct {
	gateway       *provider.Gateway
	tokens        port.TokenSource
	maxConcurrent int
	logger        *zap.Logger
}

func NewBalancesService(gateway *provider.Gateway, tokens port.TokenSource, maxConcurrent int, logger *zap.Logger) *BalancesService {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &BalancesService{
		gateway:       gateway,
		tokens:        tokens,
		maxConcurrent: maxConcurrent,
		logger:        logger.Named("BalancesService"),
	}
}

// GetBalances returns non-zero holdings for the address, native asset first,
// the rest ordered by symbol.
func (s *BalancesService) GetBalances(ctx context.Context, address string) ([]entity.TokenBalance, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid address %q", address)
	}
	owner := common.HexToAddress(address)

	list, err := s.tokens.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load token list: %w", err)
	}

	var mu sync.Mutex
	var balances []entity.TokenBalance

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.maxConcurrent)

	group.Go(func() error {
		amount, err := s.gateway.GetBalance(groupCtx, owner)
		if err != nil {
			return err
		}
		if amount.Sign() == 0 {
			return nil
		}
		native := s.tokens.Native()
		mu.Lock()
		balances = append(balances, entity.TokenBalance{
			Token:     native,
			Amount:    amount,
			Formatted: utils.FormatUnits(amount, native.Decimals),
		})
		mu.Unlock()
		return nil
	})

	for _, token := range list.Tokens {
		group.Go(func() error {
			amount, err := s.erc20Balance(groupCtx, token.Address, owner)
			if err != nil {
				// One broken token contract must not sink the sweep.
				s.logger.Warn("balance read failed",
					zap.String("token", token.Symbol),
					zap.String("address", token.Address.Hex()),
					zap.Error(err))
				return nil
			}
			if amount.Sign() == 0 {
				return nil
			}
			mu.Lock()
			balances = append(balances, entity.TokenBalance{
				Token:     token,
				Amount:    amount,
				Formatted: utils.FormatUnits(amount, token.Decimals),
			})
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(balances, func(i, j int) bool {
		a, b := balances[i].Token, balances[j].Token
		if a.IsNative() != b.IsNative() {
			return a.IsNative()
		}
		return a.Symbol < b.Symbol
	})
	return balances, nil
}

func (s *BalancesService) erc20Balance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	data, err := abicodec.NewCall(abicodec.BalanceOf).Address(owner).Encode()
	if err != nil {
		return nil, fmt.Errorf("encode balanceOf calldata: %w", err)
	}
	result, err := s.gateway.Call(ctx, token, data)
	if err != nil {
		return nil, err
	}
	raw, err := hexutil.Decode(result)
	if err != nil {
		return nil, fmt.Errorf("decode balanceOf result %q: %w", result, err)
	}
	value, ok := abicodec.DecodeUint256(raw)
	if !ok {
		return nil, fmt.Errorf("balanceOf result too short: %q", result)
	}
	return value, nil
}

var _ port.BalanceService = (*BalancesService)(nil)
