package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"dexgate/internal/app/port"
	"dexgate/internal/pkg/metrics"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// TxArgs is the eth_sendTransaction parameter object. Gas is always set by
// the orchestrator to its bounded limit.
type TxArgs struct {
	From  common.Address `json:"from"`
	To    common.Address `json:"to"`
	Gas   hexutil.Uint64 `json:"gas,omitempty"`
	Value *hexutil.Big   `json:"value,omitempty"`
	Data  hexutil.Bytes  `json:"data"`
}

// Receipt is the subset of eth_getTransactionReceipt the gateway consumes.
type Receipt struct {
	TransactionHash common.Hash    `json:"transactionHash"`
	Status          hexutil.Uint64 `json:"status"`
	BlockNumber     *hexutil.Big   `json:"blockNumber"`
}

// Succeeded reports whether the mined transaction executed without revert.
func (r *Receipt) Succeeded() bool {
	return r != nil && r.Status == 1
}

// ChainParams is the wallet_addEthereumChain parameter object.
type ChainParams struct {
	ChainID           string         `json:"chainId"`
	ChainName         string         `json:"chainName"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency"`
	RpcUrls           []string       `json:"rpcUrls"`
	BlockExplorerUrls []string       `json:"blockExplorerUrls,omitempty"`
}

// NativeCurrency describes the chain's native asset for add-chain requests.
type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// Gateway is the thin typed surface over the single injected wallet
// provider. Constructed once and handed to the quote engine, orchestrator
// and connection machine; it never holds connection state of its own.
type Gateway struct {
	provider port.WalletProvider
	limiter  *rate.Limiter
	timeout  time.Duration
	logger   *zap.Logger
}

// NewGateway wraps the injected provider with rate limiting and request
// timeouts.
func NewGateway(p port.WalletProvider, requestTimeout time.Duration, rateLimit, burst int, logger *zap.Logger) *Gateway {
	return &Gateway{
		provider: p,
		limiter:  rate.NewLimiter(rate.Limit(rateLimit), burst),
		timeout:  requestTimeout,
		logger:   logger.Named("ProviderGateway"),
	}
}

// On exposes provider event subscription to the connection machine.
func (g *Gateway) On(event port.ProviderEvent, handler func(payload json.RawMessage)) (remove func()) {
	return g.provider.On(event, handler)
}

func (g *Gateway) request(ctx context.Context, method string, out any, params ...any) error {
	if err := g.limiter.Wait(ctx); err != nil {
		metrics.RPCRequestsTotal.WithLabelValues(method, "error").Inc()
		return Classify(err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.provider.Request(reqCtx, method, params...)
	if err != nil {
		metrics.RPCRequestsTotal.WithLabelValues(method, "error").Inc()
		g.logger.Debug("provider request failed", zap.String("method", method), zap.Error(err))
		return Classify(err)
	}
	metrics.RPCRequestsTotal.WithLabelValues(method, "ok").Inc()

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	return nil
}

// RequestAccounts prompts the wallet for account access.
func (g *Gateway) RequestAccounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := g.request(ctx, "eth_requestAccounts", &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Accounts returns already-authorized accounts without prompting.
func (g *Gateway) Accounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := g.request(ctx, "eth_accounts", &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// ChainID returns the provider's current chain id.
func (g *Gateway) ChainID(ctx context.Context) (int64, error) {
	var raw string
	if err := g.request(ctx, "eth_chainId", &raw); err != nil {
		return 0, err
	}
	id, err := hexutil.DecodeBig(raw)
	if err != nil {
		return 0, fmt.Errorf("decode chain id %q: %w", raw, err)
	}
	return id.Int64(), nil
}

// GetBalance returns the native balance of an address at the latest block.
func (g *Gateway) GetBalance(ctx context.Context, address common.Address) (*big.Int, error) {
	var raw string
	if err := g.request(ctx, "eth_getBalance", &raw, address, "latest"); err != nil {
		return nil, err
	}
	balance, err := hexutil.DecodeBig(raw)
	if err != nil {
		return nil, fmt.Errorf("decode balance %q: %w", raw, err)
	}
	return balance, nil
}

// Call performs a read-only contract call and returns the raw hex result.
func (g *Gateway) Call(ctx context.Context, to common.Address, data hexutil.Bytes) (string, error) {
	callArgs := map[string]any{
		"to":   to,
		"data": data,
	}
	var result string
	if err := g.request(ctx, "eth_call", &result, callArgs, "latest"); err != nil {
		return "", err
	}
	return result, nil
}

// SendTransaction submits a mutating transaction through the wallet.
func (g *Gateway) SendTransaction(ctx context.Context, tx TxArgs) (common.Hash, error) {
	var raw string
	if err := g.request(ctx, "eth_sendTransaction", &raw, tx); err != nil {
		return common.Hash{}, err
	}
	return common.HexToHash(raw), nil
}

// TransactionReceipt fetches a receipt. found=false (with nil error) means
// the transaction is not yet mined; the poller treats that as "keep waiting".
func (g *Gateway) TransactionReceipt(ctx context.Context, hash common.Hash) (*Receipt, bool, error) {
	var receipt *Receipt
	if err := g.request(ctx, "eth_getTransactionReceipt", &receipt, hash); err != nil {
		return nil, false, err
	}
	if receipt == nil {
		return nil, false, nil
	}
	return receipt, true, nil
}

// SwitchChain asks the wallet to move to the given chain.
// ChainNotRecognized on the returned error signals the add-chain fallback.
func (g *Gateway) SwitchChain(ctx context.Context, chainID int64) error {
	param := map[string]string{"chainId": hexutil.EncodeBig(big.NewInt(chainID))}
	return g.request(ctx, "wallet_switchEthereumChain", nil, param)
}

// AddChain asks the wallet to register a chain it does not know yet.
func (g *Gateway) AddChain(ctx context.Context, params ChainParams) error {
	return g.request(ctx, "wallet_addEthereumChain", nil, params)
}
