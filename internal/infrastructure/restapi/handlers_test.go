package restapi

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dexgate/internal/app/port"
	"dexgate/internal/domain/entity"
	"dexgate/internal/provider"
	"dexgate/internal/provider/providertest"
	"dexgate/internal/walletconn"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	tokenA    = common.HexToAddress("0xaa00000000000000000000000000000000000001")
	tokenB    = common.HexToAddress("0xbb00000000000000000000000000000000000002")
	recipient = "0xCc00000000000000000000000000000000000003"
)

const senderAddr = "0xEe00000000000000000000000000000000000005"

func descA() entity.TokenDescriptor {
	return entity.TokenDescriptor{ChainID: 56, Address: tokenA, Symbol: "AAA", Decimals: 18}
}

func descB() entity.TokenDescriptor {
	return entity.TokenDescriptor{ChainID: 56, Address: tokenB, Symbol: "BBB", Decimals: 18}
}

type fakeTokens struct{}

func (fakeTokens) List(context.Context) (*entity.TokenList, error) {
	return &entity.TokenList{Name: "Test", Tokens: []entity.TokenDescriptor{descA(), descB()}}, nil
}

func (fakeTokens) ByAddress(_ context.Context, address common.Address) (entity.TokenDescriptor, bool) {
	switch address {
	case tokenA:
		return descA(), true
	case tokenB:
		return descB(), true
	}
	return entity.TokenDescriptor{}, false
}

func (f fakeTokens) BySymbol(_ context.Context, symbol string) (entity.TokenDescriptor, bool) {
	switch strings.ToUpper(symbol) {
	case "AAA":
		return descA(), true
	case "BBB":
		return descB(), true
	}
	return entity.TokenDescriptor{}, false
}

func (fakeTokens) Native() entity.TokenDescriptor {
	return entity.TokenDescriptor{ChainID: 56, Symbol: "BNB", Decimals: 18}
}

type fakeQuotes struct {
	quote       *entity.Quote
	err         error
	gotSlippage int64
}

func (f *fakeQuotes) Quote(_ context.Context, _ entity.TokenDescriptor, _ entity.TokenDescriptor, _ string, slippageBps int64) (*entity.Quote, error) {
	f.gotSlippage = slippageBps
	return f.quote, f.err
}

type fakeOrchestrator struct {
	result *entity.TxResult
	err    error
	swaps  int
}

func (f *fakeOrchestrator) Swap(_ context.Context, _ entity.SwapIntent, _ port.StatusFunc) (*entity.TxResult, error) {
	f.swaps++
	return f.result, f.err
}

func (f *fakeOrchestrator) AddLiquidity(context.Context, entity.AddLiquidityIntent, port.StatusFunc) (*entity.TxResult, error) {
	return f.result, f.err
}

func (f *fakeOrchestrator) RemoveLiquidity(context.Context, entity.RemoveLiquidityIntent, port.StatusFunc) (*entity.TxResult, error) {
	return f.result, f.err
}

type fakeBalances struct{}

func (fakeBalances) GetBalances(context.Context, string) ([]entity.TokenBalance, error) {
	return []entity.TokenBalance{}, nil
}

type memStore struct {
	persisted entity.PersistedConnection
	found     bool
}

func (s *memStore) Load() (entity.PersistedConnection, bool, error) { return s.persisted, s.found, nil }
func (s *memStore) Save(p entity.PersistedConnection) error {
	s.persisted, s.found = p, true
	return nil
}
func (s *memStore) Clear() error {
	s.persisted, s.found = entity.PersistedConnection{}, false
	return nil
}

func newWallet(fake *providertest.FakeProvider) *walletconn.Machine {
	gw := provider.NewGateway(fake, time.Second, 1000, 1000, zap.NewNop())
	return walletconn.New(gw, &memStore{}, walletconn.Options{
		ChainID:        56,
		NetworkName:    "BNB Smart Chain",
		NativeDecimals: 18,
		WalletID:       "injected",
	}, zap.NewNop())
}

// connectedWallet returns a machine with an established session, the
// precondition for the mutating endpoints.
func connectedWallet(t *testing.T) *walletconn.Machine {
	t.Helper()
	fake := providertest.New()
	fake.Respond("eth_requestAccounts", []string{senderAddr})
	fake.Respond("eth_chainId", "0x38")
	fake.Respond("eth_getBalance", hexutil.EncodeBig(big.NewInt(1e18)))

	m := newWallet(fake)
	state, err := m.Connect(context.Background())
	require.NoError(t, err)
	require.True(t, state.IsConnected)
	return m
}

func testRouter(t *testing.T, quotes *fakeQuotes, orch *fakeOrchestrator) *gin.Engine {
	t.Helper()
	h := NewHandlers(fakeTokens{}, quotes, orch, fakeBalances{}, connectedWallet(t), 50, zap.NewNop())
	return SetupRouter(h)
}

func disconnectedRouter(quotes *fakeQuotes, orch *fakeOrchestrator) *gin.Engine {
	h := NewHandlers(fakeTokens{}, quotes, orch, fakeBalances{}, newWallet(providertest.New()), 50, zap.NewNop())
	return SetupRouter(h)
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	router := testRouter(t, &fakeQuotes{}, &fakeOrchestrator{})
	w := doJSON(t, router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListTokens(t *testing.T) {
	router := testRouter(t, &fakeQuotes{}, &fakeOrchestrator{})
	w := doJSON(t, router, http.MethodGet, "/api/v1/tokens", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data entity.TokenList `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data.Tokens, 2)
}

func TestResolveTokenBySymbolAndAddress(t *testing.T) {
	router := testRouter(t, &fakeQuotes{}, &fakeOrchestrator{})

	w := doJSON(t, router, http.MethodGet, "/api/v1/tokens/aaa", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/tokens/"+tokenA.Hex(), "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/tokens/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetQuoteNoQuoteIsOK(t *testing.T) {
	router := testRouter(t, &fakeQuotes{quote: nil}, &fakeOrchestrator{})
	w := doJSON(t, router, http.MethodPost, "/api/v1/quote",
		`{"inputToken":"AAA","outputToken":"BBB","amount":"0"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data *entity.Quote `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Nil(t, body.Data)
}

func TestGetQuoteNoLiquidity(t *testing.T) {
	router := testRouter(t, &fakeQuotes{err: entity.ErrNoLiquidity}, &fakeOrchestrator{})
	w := doJSON(t, router, http.MethodPost, "/api/v1/quote",
		`{"inputToken":"AAA","outputToken":"BBB","amount":"10"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestGetQuoteUnknownToken(t *testing.T) {
	router := testRouter(t, &fakeQuotes{}, &fakeOrchestrator{})
	w := doJSON(t, router, http.MethodPost, "/api/v1/quote",
		`{"inputToken":"NOPE","outputToken":"BBB","amount":"10"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSwapInvalidRecipient(t *testing.T) {
	orch := &fakeOrchestrator{}
	router := testRouter(t, &fakeQuotes{}, orch)
	w := doJSON(t, router, http.MethodPost, "/api/v1/swap",
		`{"inputToken":"AAA","outputToken":"BBB","amount":"10","recipient":"garbage"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, orch.swaps)
}

func TestSwapHappyPath(t *testing.T) {
	hash := common.HexToHash("0x11f75c44ef7eec0aaa9e3ebcbebf3a5a6dfed24c48e1e5eb251dfe20d9fd5cf9")
	quotes := &fakeQuotes{quote: &entity.Quote{
		InputToken:       descA(),
		OutputToken:      descB(),
		ExpiresAtEpochMs: time.Now().Add(45 * time.Second).UnixMilli(),
	}}
	orch := &fakeOrchestrator{result: &entity.TxResult{Hash: hash, Stage: entity.StageConfirmed}}
	router := testRouter(t, quotes, orch)

	w := doJSON(t, router, http.MethodPost, "/api/v1/swap",
		`{"inputToken":"AAA","outputToken":"BBB","amount":"10","recipient":"`+recipient+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, orch.swaps)

	var body struct {
		Data entity.TxResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, hash, body.Data.Hash)
	assert.Equal(t, entity.StageConfirmed, body.Data.Stage)
}

func TestSwapTimeoutKeepsHash(t *testing.T) {
	hash := common.HexToHash("0x11f75c44ef7eec0aaa9e3ebcbebf3a5a6dfed24c48e1e5eb251dfe20d9fd5cf9")
	quotes := &fakeQuotes{quote: &entity.Quote{
		ExpiresAtEpochMs: time.Now().Add(45 * time.Second).UnixMilli(),
	}}
	orch := &fakeOrchestrator{
		result: &entity.TxResult{Hash: hash, Stage: entity.StageFailed},
		err:    entity.ErrConfirmationTimeout,
	}
	router := testRouter(t, quotes, orch)

	w := doJSON(t, router, http.MethodPost, "/api/v1/swap",
		`{"inputToken":"AAA","outputToken":"BBB","amount":"10","recipient":"`+recipient+`"}`)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Contains(t, w.Body.String(), hash.Hex())
}

func TestAddLiquidityBadAmount(t *testing.T) {
	router := testRouter(t, &fakeQuotes{}, &fakeOrchestrator{})
	w := doJSON(t, router, http.MethodPost, "/api/v1/liquidity/add",
		`{"tokenA":"AAA","tokenB":"BBB","amountA":"abc","amountB":"1","recipient":"`+recipient+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBalancesInvalidAddress(t *testing.T) {
	router := testRouter(t, &fakeQuotes{}, &fakeOrchestrator{})
	w := doJSON(t, router, http.MethodGet, "/api/v1/balances/garbage", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWalletStateStartsDisconnected(t *testing.T) {
	router := disconnectedRouter(&fakeQuotes{}, &fakeOrchestrator{})
	w := doJSON(t, router, http.MethodGet, "/api/v1/wallet", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data entity.WalletConnection `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Data.IsConnected)
}

func TestSwapRequiresConnectedWallet(t *testing.T) {
	orch := &fakeOrchestrator{}
	router := disconnectedRouter(&fakeQuotes{}, orch)
	w := doJSON(t, router, http.MethodPost, "/api/v1/swap",
		`{"inputToken":"AAA","outputToken":"BBB","amount":"10","recipient":"`+recipient+`"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 0, orch.swaps)
}

func TestQuoteSlippageDefaultAndExplicitZero(t *testing.T) {
	quotes := &fakeQuotes{}
	router := testRouter(t, quotes, &fakeOrchestrator{})

	// omitted slippage falls back to the configured default
	w := doJSON(t, router, http.MethodPost, "/api/v1/quote",
		`{"inputToken":"AAA","outputToken":"BBB","amount":"10"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(50), quotes.gotSlippage)

	// an explicit 0 means exactly 0 bps, not "use the default"
	quotes.gotSlippage = -1
	w = doJSON(t, router, http.MethodPost, "/api/v1/quote",
		`{"inputToken":"AAA","outputToken":"BBB","amount":"10","slippageBps":0}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(0), quotes.gotSlippage)
}
