package walletconn

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"dexgate/internal/app/port"
	"dexgate/internal/domain/entity"
	"dexgate/internal/provider"
	"dexgate/internal/provider/providertest"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	userAddress = "0xCc00000000000000000000000000000000000003"
	otherUser   = "0xDd00000000000000000000000000000000000004"
)

type memStore struct {
	persisted entity.PersistedConnection
	found     bool
	saves     int
	clears    int
}

func (s *memStore) Load() (entity.PersistedConnection, bool, error) { return s.persisted, s.found, nil }
func (s *memStore) Save(p entity.PersistedConnection) error {
	s.persisted, s.found = p, true
	s.saves++
	return nil
}
func (s *memStore) Clear() error {
	s.persisted, s.found = entity.PersistedConnection{}, false
	s.clears++
	return nil
}

func newTestMachine(fake *providertest.FakeProvider, store port.ConnectionStore) *Machine {
	gw := provider.NewGateway(fake, 2*time.Second, 1000, 1000, zap.NewNop())
	return New(gw, store, Options{
		ChainID:         56,
		NetworkName:     "BNB Smart Chain",
		NativeDecimals:  18,
		WalletID:        "injected",
		ReconnectMaxAge: 24 * time.Hour,
	}, zap.NewNop())
}

func scriptConnectedWallet(fake *providertest.FakeProvider, chainHex string) {
	fake.Respond("eth_requestAccounts", []string{userAddress})
	fake.Respond("eth_accounts", []string{userAddress})
	fake.Respond("eth_chainId", chainHex)
	fake.Respond("eth_getBalance", hexutil.EncodeBig(new(big.Int).Mul(big.NewInt(5), big.NewInt(1e18))))
}

func TestConnectCorrectNetwork(t *testing.T) {
	fake := providertest.New()
	scriptConnectedWallet(fake, "0x38")
	store := &memStore{}
	m := newTestMachine(fake, store)
	defer m.Close()

	state, err := m.Connect(context.Background())
	require.NoError(t, err)

	assert.True(t, state.IsConnected)
	assert.False(t, state.IsConnecting)
	assert.Equal(t, userAddress, state.Address)
	assert.Equal(t, int64(56), state.ChainID)
	assert.True(t, state.IsCorrectNetwork)
	assert.Equal(t, "5", state.Balance)
	assert.Equal(t, "BNB Smart Chain", state.NetworkName)

	assert.Equal(t, 1, store.saves)
	assert.Equal(t, userAddress, store.persisted.Address)
	assert.Equal(t, "injected", store.persisted.WalletID)
}

func TestConnectWrongNetwork(t *testing.T) {
	fake := providertest.New()
	scriptConnectedWallet(fake, "0x1") // mainnet, not the configured chain
	m := newTestMachine(fake, &memStore{})
	defer m.Close()

	state, err := m.Connect(context.Background())
	require.NoError(t, err)

	assert.True(t, state.IsConnected)
	assert.False(t, state.IsCorrectNetwork)
	assert.Equal(t, int64(1), state.ChainID)
}

func TestConnectUserRejected(t *testing.T) {
	fake := providertest.New()
	fake.Fail("eth_requestAccounts", &providertest.RPCError{Code: 4001, Message: "User rejected the request."})
	store := &memStore{}
	m := newTestMachine(fake, store)
	defer m.Close()

	state, err := m.Connect(context.Background())
	assert.ErrorIs(t, err, entity.ErrUserRejected)
	assert.False(t, state.IsConnected)
	assert.False(t, state.IsConnecting)
	assert.NotEmpty(t, state.Error)
	assert.Equal(t, 0, store.saves)
}

func TestDisconnectClearsStateAndBlob(t *testing.T) {
	fake := providertest.New()
	scriptConnectedWallet(fake, "0x38")
	store := &memStore{}
	m := newTestMachine(fake, store)
	defer m.Close()

	_, err := m.Connect(context.Background())
	require.NoError(t, err)

	state := m.Disconnect()
	assert.Equal(t, entity.WalletConnection{}, state)
	assert.False(t, store.found)
	assert.Equal(t, 1, store.clears)
}

func TestResumeFreshBlob(t *testing.T) {
	fake := providertest.New()
	scriptConnectedWallet(fake, "0x38")
	store := &memStore{
		persisted: entity.PersistedConnection{
			WalletID:  "injected",
			Address:   userAddress,
			ChainID:   56,
			Timestamp: time.Now().Unix(),
		},
		found: true,
	}
	m := newTestMachine(fake, store)
	defer m.Close()

	state := m.Resume(context.Background())
	assert.True(t, state.IsConnected)
	assert.Equal(t, userAddress, state.Address)

	// silent: no interactive prompt may have fired
	assert.Equal(t, 0, fake.CallCount("eth_requestAccounts"))
	assert.Equal(t, 1, fake.CallCount("eth_accounts"))
}

func TestResumeExpiredBlob(t *testing.T) {
	fake := providertest.New()
	store := &memStore{
		persisted: entity.PersistedConnection{
			WalletID:  "injected",
			Address:   userAddress,
			Timestamp: time.Now().Add(-25 * time.Hour).Unix(),
		},
		found: true,
	}
	m := newTestMachine(fake, store)
	defer m.Close()

	state := m.Resume(context.Background())
	assert.False(t, state.IsConnected)
	assert.False(t, store.found)
	assert.Equal(t, 0, fake.CallCount("eth_accounts"))
}

func TestResumeAccountNoLongerAuthorized(t *testing.T) {
	fake := providertest.New()
	fake.Respond("eth_accounts", []string{otherUser})
	store := &memStore{
		persisted: entity.PersistedConnection{
			WalletID:  "injected",
			Address:   userAddress,
			Timestamp: time.Now().Unix(),
		},
		found: true,
	}
	m := newTestMachine(fake, store)
	defer m.Close()

	state := m.Resume(context.Background())
	assert.False(t, state.IsConnected)
	assert.False(t, store.found)
}

func TestSwitchNetworkAddChainFallback(t *testing.T) {
	fake := providertest.New()
	fake.Fail("wallet_switchEthereumChain", &providertest.RPCError{Code: 4902, Message: "Unrecognized chain ID."})
	fake.Respond("wallet_addEthereumChain", nil)
	m := newTestMachine(fake, &memStore{})
	defer m.Close()

	state, err := m.SwitchNetwork(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(56), state.ChainID)
	assert.True(t, state.IsCorrectNetwork)
	assert.Equal(t, 1, fake.CallCount("wallet_addEthereumChain"))
}

func TestSwitchNetworkUserRejected(t *testing.T) {
	fake := providertest.New()
	fake.Fail("wallet_switchEthereumChain", &providertest.RPCError{Code: 4001, Message: "User rejected the request."})
	m := newTestMachine(fake, &memStore{})
	defer m.Close()

	_, err := m.SwitchNetwork(context.Background())
	assert.ErrorIs(t, err, entity.ErrUserRejected)
	assert.Equal(t, 0, fake.CallCount("wallet_addEthereumChain"))
}

func TestAccountsChangedEmptyDisconnects(t *testing.T) {
	fake := providertest.New()
	scriptConnectedWallet(fake, "0x38")
	store := &memStore{}
	m := newTestMachine(fake, store)
	defer m.Close()

	_, err := m.Connect(context.Background())
	require.NoError(t, err)

	fake.Emit(port.EventAccountsChanged, []string{})
	assert.False(t, m.Snapshot().IsConnected)
	assert.False(t, store.found)
}

func TestAccountsChangedSwitchesAccount(t *testing.T) {
	fake := providertest.New()
	scriptConnectedWallet(fake, "0x38")
	m := newTestMachine(fake, &memStore{})
	defer m.Close()

	_, err := m.Connect(context.Background())
	require.NoError(t, err)

	fake.Emit(port.EventAccountsChanged, []string{otherUser})
	state := m.Snapshot()
	assert.True(t, state.IsConnected)
	assert.Equal(t, otherUser, state.Address)
}

func TestChainChangedUpdatesSnapshot(t *testing.T) {
	fake := providertest.New()
	scriptConnectedWallet(fake, "0x38")
	m := newTestMachine(fake, &memStore{})
	defer m.Close()

	_, err := m.Connect(context.Background())
	require.NoError(t, err)
	require.True(t, m.Snapshot().IsCorrectNetwork)

	fake.Emit(port.EventChainChanged, "0x1")
	state := m.Snapshot()
	assert.Equal(t, int64(1), state.ChainID)
	assert.False(t, state.IsCorrectNetwork)
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "state", "wallet_connection.json"))

	_, found, err := store.Load()
	require.NoError(t, err)
	assert.False(t, found)

	want := entity.PersistedConnection{
		WalletID:  "injected",
		Address:   userAddress,
		ChainID:   56,
		Timestamp: time.Now().Unix(),
	}
	require.NoError(t, store.Save(want))

	got, found, err := store.Load()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, want, got)

	require.NoError(t, store.Clear())
	_, found, err = store.Load()
	require.NoError(t, err)
	assert.False(t, found)

	// clearing an already-absent blob is fine
	require.NoError(t, store.Clear())
}
