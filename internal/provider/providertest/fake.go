// Package providertest holds a scripted port.WalletProvider for tests.
package providertest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"dexgate/internal/app/port"
)

// Handler produces the response for one scripted method. The returned value
// is marshaled to JSON the way a real provider response would arrive.
type Handler func(params []any) (any, error)

// RPCError mimics a provider error with an EIP-1193/JSON-RPC code.
type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string  { return e.Message }
func (e *RPCError) ErrorCode() int { return e.Code }

// Call records one Request invocation.
type Call struct {
	Method string
	Params []any
}

// FakeProvider is a scripted wallet provider. Methods without a handler fail
// the request, so tests notice unexpected traffic.
type FakeProvider struct {
	mu       sync.Mutex
	handlers map[string]Handler
	calls    []Call
	events   map[port.ProviderEvent]map[int]func(json.RawMessage)
	nextID   int
}

func New() *FakeProvider {
	return &FakeProvider{
		handlers: make(map[string]Handler),
		events:   make(map[port.ProviderEvent]map[int]func(json.RawMessage)),
	}
}

// Handle scripts the response for a method.
func (f *FakeProvider) Handle(method string, h Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method] = h
}

// Respond scripts a fixed successful response for a method.
func (f *FakeProvider) Respond(method string, value any) {
	f.Handle(method, func([]any) (any, error) { return value, nil })
}

// Fail scripts a fixed error for a method.
func (f *FakeProvider) Fail(method string, err error) {
	f.Handle(method, func([]any) (any, error) { return nil, err })
}

// Request implements port.WalletProvider.
func (f *FakeProvider) Request(_ context.Context, method string, params ...any) (json.RawMessage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Method: method, Params: params})
	h, ok := f.handlers[method]
	f.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("providertest: unscripted method %s", method)
	}
	value, err := h(params)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// On implements port.WalletProvider.
func (f *FakeProvider) On(event port.ProviderEvent, handler func(json.RawMessage)) (remove func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.events[event] == nil {
		f.events[event] = make(map[int]func(json.RawMessage))
	}
	id := f.nextID
	f.nextID++
	f.events[event][id] = handler
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.events[event], id)
	}
}

// Emit delivers an event payload to subscribed handlers, synchronously.
func (f *FakeProvider) Emit(event port.ProviderEvent, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	f.mu.Lock()
	fns := make([]func(json.RawMessage), 0, len(f.events[event]))
	for _, fn := range f.events[event] {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(raw)
	}
}

// Calls returns the recorded requests for a method, in order.
func (f *FakeProvider) Calls(method string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// CallCount returns how many times a method was requested.
func (f *FakeProvider) CallCount(method string) int {
	return len(f.Calls(method))
}
