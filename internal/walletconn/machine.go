// Package walletconn owns the wallet connection lifecycle: connect and
// disconnect flows, network switching, silent reconnect after restart, and
// reactions to provider-side account and chain changes.
package walletconn

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"dexgate/internal/app/port"
	"dexgate/internal/domain/entity"
	"dexgate/internal/pkg/utils"
	"dexgate/internal/provider"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

// Options fixes the network the machine considers "correct".
type Options struct {
	ChainID     int64
	NetworkName string

	// NativeDecimals formats the connected account's native balance.
	NativeDecimals uint8

	// Chain is the add-chain fallback payload for wallets that do not know
	// the target network yet.
	Chain provider.ChainParams

	// WalletID tags the persisted blob; only a matching id resumes.
	WalletID string

	// ReconnectMaxAge bounds how old a persisted connection may be before
	// silent reconnect refuses to use it.
	ReconnectMaxAge time.Duration
}

// Machine is the single writer of the process-wide connection snapshot.
type Machine struct {
	gateway *provider.Gateway
	store   port.ConnectionStore
	opts    Options
	logger  *zap.Logger

	mu       sync.Mutex
	state    entity.WalletConnection
	removers []func()
}

func New(gateway *provider.Gateway, store port.ConnectionStore, opts Options, logger *zap.Logger) *Machine {
	m := &Machine{
		gateway: gateway,
		store:   store,
		opts:    opts,
		logger:  logger.Named("WalletConn"),
	}
	m.removers = append(m.removers,
		gateway.On(port.EventAccountsChanged, m.onAccountsChanged),
		gateway.On(port.EventChainChanged, m.onChainChanged),
		gateway.On(port.EventDisconnect, m.onDisconnect),
	)
	return m
}

// Close detaches the machine from provider events.
func (m *Machine) Close() {
	for _, remove := range m.removers {
		remove()
	}
}

// Snapshot returns a copy of the current connection state.
func (m *Machine) Snapshot() entity.WalletConnection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connect runs the interactive connection flow. A wallet-side rejection
// leaves the machine disconnected with the error recorded on the snapshot.
func (m *Machine) Connect(ctx context.Context) (entity.WalletConnection, error) {
	m.setConnecting()

	accounts, err := m.gateway.RequestAccounts(ctx)
	if err != nil {
		return m.failConnect(err)
	}
	if len(accounts) == 0 {
		return m.failConnect(entity.ErrNotConnected)
	}
	return m.establish(ctx, accounts[0], true)
}

// Resume restores a connection without prompting. It only succeeds when a
// fresh persisted blob exists and the wallet still lists the same account;
// anything else quietly clears the blob and stays disconnected.
func (m *Machine) Resume(ctx context.Context) entity.WalletConnection {
	persisted, found, err := m.store.Load()
	if err != nil || !found {
		return m.Snapshot()
	}
	if persisted.WalletID != m.opts.WalletID ||
		time.Since(time.Unix(persisted.Timestamp, 0)) > m.opts.ReconnectMaxAge {
		_ = m.store.Clear()
		return m.Snapshot()
	}

	accounts, err := m.gateway.Accounts(ctx)
	if err != nil {
		m.logger.Debug("silent reconnect skipped", zap.Error(err))
		return m.Snapshot()
	}
	for _, account := range accounts {
		if strings.EqualFold(account, persisted.Address) {
			state, err := m.establish(ctx, account, false)
			if err != nil {
				return m.Snapshot()
			}
			m.logger.Info("silent reconnect", zap.String("address", account))
			return state
		}
	}
	_ = m.store.Clear()
	return m.Snapshot()
}

// Disconnect drops the connection and forgets the persisted blob.
func (m *Machine) Disconnect() entity.WalletConnection {
	_ = m.store.Clear()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = entity.WalletConnection{}
	m.logger.Info("disconnected")
	return m.state
}

// SwitchNetwork moves the wallet to the configured chain, registering it
// first when the wallet does not know it yet.
func (m *Machine) SwitchNetwork(ctx context.Context) (entity.WalletConnection, error) {
	err := m.gateway.SwitchChain(ctx, m.opts.ChainID)
	if provider.ChainNotRecognized(err) {
		m.logger.Info("chain unknown to wallet, adding", zap.Int64("chainId", m.opts.ChainID))
		err = m.gateway.AddChain(ctx, m.opts.Chain)
	}
	if err != nil {
		return m.Snapshot(), err
	}
	m.applyChain(m.opts.ChainID)
	return m.Snapshot(), nil
}

// establish fills the snapshot for a known-good account and, when persist is
// set, records the connection for silent reconnect.
func (m *Machine) establish(ctx context.Context, address string, persist bool) (entity.WalletConnection, error) {
	chainID, err := m.gateway.ChainID(ctx)
	if err != nil {
		return m.failConnect(err)
	}

	state := entity.WalletConnection{
		IsConnected:      true,
		Address:          address,
		ChainID:          chainID,
		IsCorrectNetwork: chainID == m.opts.ChainID,
		NetworkName:      m.opts.NetworkName,
	}
	if balance, err := m.gateway.GetBalance(ctx, common.HexToAddress(address)); err == nil {
		state.Balance = utils.FormatUnits(balance, m.opts.NativeDecimals)
	}

	m.mu.Lock()
	m.state = state
	m.mu.Unlock()

	if persist {
		if err := m.store.Save(entity.PersistedConnection{
			WalletID:  m.opts.WalletID,
			Address:   address,
			ChainID:   chainID,
			Timestamp: time.Now().Unix(),
		}); err != nil {
			m.logger.Warn("persist connection failed", zap.Error(err))
		}
	}

	m.logger.Info("connected",
		zap.String("address", address),
		zap.Int64("chainId", chainID),
		zap.Bool("correctNetwork", state.IsCorrectNetwork))
	return state, nil
}

func (m *Machine) setConnecting() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = entity.WalletConnection{IsConnecting: true, NetworkName: m.opts.NetworkName}
}

func (m *Machine) failConnect(err error) (entity.WalletConnection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = entity.WalletConnection{Error: err.Error()}
	return m.state, err
}

func (m *Machine) applyChain(chainID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.ChainID = chainID
	m.state.IsCorrectNetwork = chainID == m.opts.ChainID
}

// onAccountsChanged reacts to the wallet-side account switch. An empty list
// means the user disconnected from the wallet UI.
func (m *Machine) onAccountsChanged(payload json.RawMessage) {
	var accounts []string
	if err := json.Unmarshal(payload, &accounts); err != nil {
		m.logger.Warn("bad accountsChanged payload", zap.Error(err))
		return
	}
	if len(accounts) == 0 {
		m.Disconnect()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := m.establish(ctx, accounts[0], true); err != nil {
		m.logger.Warn("account switch failed", zap.Error(err))
	}
}

func (m *Machine) onChainChanged(payload json.RawMessage) {
	var raw string
	if err := json.Unmarshal(payload, &raw); err != nil {
		m.logger.Warn("bad chainChanged payload", zap.Error(err))
		return
	}
	chainID, err := hexutil.DecodeBig(raw)
	if err != nil {
		m.logger.Warn("bad chainChanged chain id", zap.String("value", raw))
		return
	}
	m.applyChain(chainID.Int64())
	m.logger.Info("chain changed", zap.Int64("chainId", chainID.Int64()))
}

func (m *Machine) onDisconnect(json.RawMessage) {
	m.Disconnect()
}
