package restapi

import (
	"errors"
	"net/http"
	"strings"

	"dexgate/internal/app/port"
	"dexgate/internal/domain/entity"
	"dexgate/internal/pkg/utils"
	"dexgate/internal/walletconn"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers carries the application services behind the HTTP surface.
type Handlers struct {
	tokens             port.TokenSource
	quotes             port.QuoteService
	orchestrator       port.TxOrchestrator
	balances           port.BalanceService
	wallet             *walletconn.Machine
	defaultSlippageBps int64
	logger             *zap.Logger
}

func NewHandlers(
	tokens port.TokenSource,
	quotes port.QuoteService,
	orchestrator port.TxOrchestrator,
	balances port.BalanceService,
	wallet *walletconn.Machine,
	defaultSlippageBps int64,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		tokens:             tokens,
		quotes:             quotes,
		orchestrator:       orchestrator,
		balances:           balances,
		wallet:             wallet,
		defaultSlippageBps: defaultSlippageBps,
		logger:             logger.Named("RestAPI"),
	}
}

// statusFor maps the domain error taxonomy to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrUserRejected):
		return http.StatusConflict
	case errors.Is(err, entity.ErrNoLiquidity),
		errors.Is(err, entity.ErrSelfSwap),
		errors.Is(err, entity.ErrEmptyRoute),
		errors.Is(err, entity.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, entity.ErrStaleQuote), errors.Is(err, entity.ErrNotConnected):
		return http.StatusConflict
	case errors.Is(err, entity.ErrConfirmationTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, entity.ErrNetwork):
		return http.StatusBadGateway
	case errors.Is(err, entity.ErrExecutionReverted):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

// resolveToken accepts an address, the empty/zero value for the native asset,
// or a display symbol.
func (h *Handlers) resolveToken(c *gin.Context, key string) (entity.TokenDescriptor, bool) {
	key = strings.TrimSpace(key)
	if key == "" || strings.EqualFold(key, "native") {
		return h.tokens.Native(), true
	}
	if common.IsHexAddress(key) {
		return h.tokens.ByAddress(c.Request.Context(), common.HexToAddress(key))
	}
	return h.tokens.BySymbol(c.Request.Context(), key)
}

// ListTokens returns the current registry document.
func (h *Handlers) ListTokens(c *gin.Context) {
	list, err := h.tokens.List(c.Request.Context())
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

// ResolveToken resolves one token by address or symbol.
func (h *Handlers) ResolveToken(c *gin.Context) {
	token, ok := h.resolveToken(c, c.Param("key"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": token})
}

// QuoteRequest asks for an expected swap outcome. Tokens are addresses or
// symbols; empty means the native asset. SlippageBps is a pointer so an
// explicit 0 (exact-output, no tolerance) stays distinct from "use the
// configured default".
type QuoteRequest struct {
	InputToken  string `json:"inputToken"`
	OutputToken string `json:"outputToken"`
	Amount      string `json:"amount" binding:"required"`
	SlippageBps *int64 `json:"slippageBps"`
}

// slippageOrDefault resolves an optional request slippage against the
// configured default.
func (h *Handlers) slippageOrDefault(bps *int64) int64 {
	if bps == nil {
		return h.defaultSlippageBps
	}
	return *bps
}

// connectedSender resolves the account that signs and pays for a mutating
// transaction. Requests without a connected wallet are rejected.
func (h *Handlers) connectedSender(c *gin.Context) (common.Address, bool) {
	state := h.wallet.Snapshot()
	if !state.IsConnected {
		fail(c, statusFor(entity.ErrNotConnected), entity.ErrNotConnected)
		return common.Address{}, false
	}
	return common.HexToAddress(state.Address), true
}

func (h *Handlers) GetQuote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	quote, _, ok := h.quoteFor(c, req)
	if !ok {
		return
	}
	if quote == nil {
		// normal "no quote" state, not an error
		c.JSON(http.StatusOK, gin.H{"data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": quote})
}

// quoteFor resolves tokens and runs the quote engine, writing the error
// response itself on failure. Returns the resolved slippage so swap
// execution uses exactly the tolerance the quote was computed with.
func (h *Handlers) quoteFor(c *gin.Context, req QuoteRequest) (*entity.Quote, int64, bool) {
	input, ok := h.resolveToken(c, req.InputToken)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown input token"})
		return nil, 0, false
	}
	output, ok := h.resolveToken(c, req.OutputToken)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown output token"})
		return nil, 0, false
	}
	slippage := h.slippageOrDefault(req.SlippageBps)

	quote, err := h.quotes.Quote(c.Request.Context(), input, output, req.Amount, slippage)
	if err != nil {
		fail(c, statusFor(err), err)
		return nil, 0, false
	}
	return quote, slippage, true
}

// SwapRequest executes a swap. The quote is recomputed server-side right
// before submission so the executed terms are never older than one request.
type SwapRequest struct {
	QuoteRequest
	Recipient        string `json:"recipient" binding:"required"`
	DeadlineEpochSec int64  `json:"deadlineEpochSec"`
}

func (h *Handlers) Swap(c *gin.Context) {
	var req SwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	if !common.IsHexAddress(req.Recipient) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipient address"})
		return
	}
	sender, ok := h.connectedSender(c)
	if !ok {
		return
	}

	quote, slippage, ok := h.quoteFor(c, req.QuoteRequest)
	if !ok {
		return
	}
	if quote == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no quote for the requested swap"})
		return
	}

	result, err := h.orchestrator.Swap(c.Request.Context(), entity.SwapIntent{
		Quote:            quote,
		SlippageBps:      slippage,
		Sender:           sender,
		Recipient:        common.HexToAddress(req.Recipient),
		DeadlineEpochSec: req.DeadlineEpochSec,
	}, h.logStage("swap"))
	if err != nil {
		h.writeTxError(c, result, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

// AddLiquidityRequest supplies both pool sides in decimal amounts.
type AddLiquidityRequest struct {
	TokenA           string `json:"tokenA"`
	TokenB           string `json:"tokenB"`
	AmountA          string `json:"amountA" binding:"required"`
	AmountB          string `json:"amountB" binding:"required"`
	SlippageBps      *int64 `json:"slippageBps"`
	Recipient        string `json:"recipient" binding:"required"`
	DeadlineEpochSec int64  `json:"deadlineEpochSec"`
}

func (h *Handlers) AddLiquidity(c *gin.Context) {
	var req AddLiquidityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	if !common.IsHexAddress(req.Recipient) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipient address"})
		return
	}
	sender, ok := h.connectedSender(c)
	if !ok {
		return
	}
	tokenA, ok := h.resolveToken(c, req.TokenA)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown token A"})
		return
	}
	tokenB, ok := h.resolveToken(c, req.TokenB)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown token B"})
		return
	}
	amountA, err := utils.ParseUnits(req.AmountA, tokenA.Decimals)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	amountB, err := utils.ParseUnits(req.AmountB, tokenB.Decimals)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	result, err := h.orchestrator.AddLiquidity(c.Request.Context(), entity.AddLiquidityIntent{
		TokenA:           tokenA,
		TokenB:           tokenB,
		AmountA:          amountA,
		AmountB:          amountB,
		SlippageBps:      h.slippageOrDefault(req.SlippageBps),
		Sender:           sender,
		Recipient:        common.HexToAddress(req.Recipient),
		DeadlineEpochSec: req.DeadlineEpochSec,
	}, h.logStage("add_liquidity"))
	if err != nil {
		h.writeTxError(c, result, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

// RemoveLiquidityRequest burns an LP position. Liquidity and the minimums
// are decimal amounts; LP tokens always carry 18 decimals.
type RemoveLiquidityRequest struct {
	TokenA           string `json:"tokenA"`
	TokenB           string `json:"tokenB"`
	PairAddress      string `json:"pairAddress" binding:"required"`
	Liquidity        string `json:"liquidity" binding:"required"`
	AmountAMin       string `json:"amountAMin"`
	AmountBMin       string `json:"amountBMin"`
	Recipient        string `json:"recipient" binding:"required"`
	DeadlineEpochSec int64  `json:"deadlineEpochSec"`
}

func (h *Handlers) RemoveLiquidity(c *gin.Context) {
	var req RemoveLiquidityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	if !common.IsHexAddress(req.Recipient) || !common.IsHexAddress(req.PairAddress) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipient or pair address"})
		return
	}
	sender, ok := h.connectedSender(c)
	if !ok {
		return
	}
	tokenA, ok := h.resolveToken(c, req.TokenA)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown token A"})
		return
	}
	tokenB, ok := h.resolveToken(c, req.TokenB)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown token B"})
		return
	}

	liquidity, err := utils.ParseUnits(req.Liquidity, 18)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	intent := entity.RemoveLiquidityIntent{
		TokenA:           tokenA,
		TokenB:           tokenB,
		PairAddress:      common.HexToAddress(req.PairAddress),
		Liquidity:        liquidity,
		Sender:           sender,
		Recipient:        common.HexToAddress(req.Recipient),
		DeadlineEpochSec: req.DeadlineEpochSec,
	}
	if req.AmountAMin != "" {
		if intent.AmountAMin, err = utils.ParseUnits(req.AmountAMin, tokenA.Decimals); err != nil {
			fail(c, http.StatusBadRequest, err)
			return
		}
	}
	if req.AmountBMin != "" {
		if intent.AmountBMin, err = utils.ParseUnits(req.AmountBMin, tokenB.Decimals); err != nil {
			fail(c, http.StatusBadRequest, err)
			return
		}
	}

	result, err := h.orchestrator.RemoveLiquidity(c.Request.Context(), intent, h.logStage("remove_liquidity"))
	if err != nil {
		h.writeTxError(c, result, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

// writeTxError reports a failed intent, keeping the hash visible when the
// transaction reached the mempool before failing.
func (h *Handlers) writeTxError(c *gin.Context, result *entity.TxResult, err error) {
	body := gin.H{"error": err.Error()}
	if result != nil {
		body["data"] = result
	}
	c.JSON(statusFor(err), body)
}

func (h *Handlers) logStage(kind string) port.StatusFunc {
	return func(stage entity.TxStage, txHash string) {
		h.logger.Info("transaction stage",
			zap.String("kind", kind),
			zap.String("stage", string(stage)),
			zap.String("txHash", txHash))
	}
}

func (h *Handlers) WalletState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.wallet.Snapshot()})
}

func (h *Handlers) WalletConnect(c *gin.Context) {
	state, err := h.wallet.Connect(c.Request.Context())
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "data": state})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": state})
}

func (h *Handlers) WalletDisconnect(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.wallet.Disconnect()})
}

func (h *Handlers) WalletSwitchNetwork(c *gin.Context) {
	state, err := h.wallet.SwitchNetwork(c.Request.Context())
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "data": state})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": state})
}

func (h *Handlers) GetBalances(c *gin.Context) {
	if !common.IsHexAddress(c.Param("address")) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address"})
		return
	}
	balances, err := h.balances.GetBalances(c.Request.Context(), c.Param("address"))
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": balances})
}
