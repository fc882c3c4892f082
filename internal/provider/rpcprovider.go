package provider

import (
	"context"
	"encoding/json"
	"sync"

	"dexgate/internal/app/port"

	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// RPCProvider implements port.WalletProvider over a go-ethereum RPC client,
// for running the gateway against a node whose signer handles
// eth_sendTransaction (an external signer or a wallet-backed endpoint).
// Event streams are driven through Emit by whichever transport embeds this
// provider; a plain HTTP node emits nothing.
type RPCProvider struct {
	client *rpc.Client
	logger *zap.Logger

	mu       sync.Mutex
	nextID   int
	handlers map[port.ProviderEvent]map[int]func(json.RawMessage)
}

// DialRPC connects the provider to a JSON-RPC endpoint.
func DialRPC(ctx context.Context, url string, logger *zap.Logger) (*RPCProvider, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return &RPCProvider{
		client:   client,
		logger:   logger.Named("RPCProvider"),
		handlers: make(map[port.ProviderEvent]map[int]func(json.RawMessage)),
	}, nil
}

// Request performs one JSON-RPC round trip.
func (p *RPCProvider) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := p.client.CallContext(ctx, &raw, method, params...); err != nil {
		return nil, err
	}
	return raw, nil
}

// On registers an event handler and returns its detach function.
func (p *RPCProvider) On(event port.ProviderEvent, handler func(json.RawMessage)) (remove func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handlers[event] == nil {
		p.handlers[event] = make(map[int]func(json.RawMessage))
	}
	id := p.nextID
	p.nextID++
	p.handlers[event][id] = handler

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.handlers[event], id)
	}
}

// Emit fans a provider event out to the registered handlers.
func (p *RPCProvider) Emit(event port.ProviderEvent, payload json.RawMessage) {
	p.mu.Lock()
	fns := make([]func(json.RawMessage), 0, len(p.handlers[event]))
	for _, fn := range p.handlers[event] {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(payload)
	}
}

// Close tears down the underlying RPC client.
func (p *RPCProvider) Close() {
	p.client.Close()
}
