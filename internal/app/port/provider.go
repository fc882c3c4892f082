package port

import (
	"context"
	"encoding/json"
)

// ProviderEvent names a wallet provider notification stream.
type ProviderEvent string

const (
	EventAccountsChanged ProviderEvent = "accountsChanged"
	EventChainChanged    ProviderEvent = "chainChanged"
	EventDisconnect      ProviderEvent = "disconnect"
)

// WalletProvider is the single injected wallet-like JSON-RPC provider. The
// connection state machine owns its lifecycle; every other component treats
// it as a read-only capability reached through the provider gateway.
type WalletProvider interface {
	// Request performs one JSON-RPC round trip.
	Request(ctx context.Context, method string, params ...any) (json.RawMessage, error)

	// On registers a handler for a provider event stream and returns a
	// function detaching it.
	On(event ProviderEvent, handler func(payload json.RawMessage)) (remove func())
}
