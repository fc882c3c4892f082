// Package restapi exposes the HTTP surface of the gateway.
package restapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter wires the HTTP surface: the v1 API, health and metrics.
func SetupRouter(h *Handlers) *gin.Engine {
	router := gin.Default()
	router.Use(cors.Default())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/tokens", h.ListTokens)
		v1.GET("/tokens/:key", h.ResolveToken)

		v1.POST("/quote", h.GetQuote)
		v1.POST("/swap", h.Swap)
		v1.POST("/liquidity/add", h.AddLiquidity)
		v1.POST("/liquidity/remove", h.RemoveLiquidity)

		v1.GET("/wallet", h.WalletState)
		v1.POST("/wallet/connect", h.WalletConnect)
		v1.POST("/wallet/disconnect", h.WalletDisconnect)
		v1.POST("/wallet/switch-network", h.WalletSwitchNetwork)

		v1.GET("/balances/:address", h.GetBalances)
	}

	return router
}
