package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dexgate/internal/app/service"
	"dexgate/internal/config"
	"dexgate/internal/infrastructure/restapi"
	"dexgate/internal/orchestrator"
	"dexgate/internal/pkg/logger"
	"dexgate/internal/pkg/metrics"
	"dexgate/internal/provider"
	"dexgate/internal/quote"
	"dexgate/internal/registry"
	"dexgate/internal/walletconn"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

const maxConcurrentBalanceReads = 8

func main() {
	configPath := flag.String("config", "config/config.yml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	zapLogger, err := logger.New(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	metrics.MustRegister()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rpcProvider, err := provider.DialRPC(ctx, cfg.Network.RPCURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to dial RPC endpoint", zap.String("url", cfg.Network.RPCURL), zap.Error(err))
	}
	defer rpcProvider.Close()

	gateway := provider.NewGateway(
		rpcProvider,
		time.Duration(cfg.RpcClient.RequestTimeoutMillis)*time.Millisecond,
		cfg.RpcClient.RateLimit,
		cfg.RpcClient.BurstLimit,
		zapLogger,
	)

	routerAddr := common.HexToAddress(cfg.Contracts.Router)
	wrappedAddr := common.HexToAddress(cfg.Contracts.WrappedNative)

	tokenRegistry := registry.New(
		registry.NewTokenListClient(cfg.TokenList.URL, time.Duration(cfg.TokenList.RequestTimeoutMillis)*time.Millisecond, zapLogger),
		registry.Options{
			ChainID:        cfg.Network.ChainID,
			NativeSymbol:   cfg.Network.NativeSymbol,
			NativeName:     cfg.Network.NativeName,
			NativeDecimals: cfg.Network.CurrencyDecimals,
			CacheTTL:       time.Duration(cfg.TokenList.CacheTTLMinutes) * time.Minute,
		},
		zapLogger,
	)

	quoteEngine := quote.NewEngine(gateway, quote.Options{
		Router:        routerAddr,
		Wrapped:       wrappedAddr,
		TTL:           time.Duration(cfg.Quote.TTLSeconds) * time.Second,
		ProbeExponent: cfg.Quote.ProbeAmountExponent,
	}, zapLogger)

	txOrchestrator := orchestrator.New(gateway, orchestrator.Options{
		Router:          routerAddr,
		Wrapped:         wrappedAddr,
		GasLimit:        cfg.Transactions.GasLimit,
		DefaultDeadline: time.Duration(cfg.Transactions.DeadlineMinutes) * time.Minute,
		PollInterval:    time.Duration(cfg.Transactions.PollIntervalSeconds) * time.Second,
		PollMaxAttempts: cfg.Transactions.PollMaxAttempts,
	}, zapLogger)

	wallet := walletconn.New(gateway, walletconn.NewFileStore(cfg.Wallet.StatePath), walletconn.Options{
		ChainID:        cfg.Network.ChainID,
		NetworkName:    cfg.Network.Name,
		NativeDecimals: cfg.Network.CurrencyDecimals,
		Chain: provider.ChainParams{
			ChainID:   hexutil.EncodeBig(big.NewInt(cfg.Network.ChainID)),
			ChainName: cfg.Network.Name,
			NativeCurrency: provider.NativeCurrency{
				Name:     cfg.Network.NativeName,
				Symbol:   cfg.Network.NativeSymbol,
				Decimals: cfg.Network.CurrencyDecimals,
			},
			RpcUrls:           []string{cfg.Network.RPCURL},
			BlockExplorerUrls: []string{cfg.Network.ExplorerURL},
		},
		WalletID:        "injected",
		ReconnectMaxAge: time.Duration(cfg.Wallet.ReconnectMaxAgeHours) * time.Hour,
	}, zapLogger)
	defer wallet.Close()

	// Silent reconnect: restores the previous session when the persisted
	// blob is fresh and the account is still authorized. Never prompts.
	if state := wallet.Resume(ctx); state.IsConnected {
		zapLogger.Info("restored wallet connection", zap.String("address", state.Address))
	}

	balancesService := service.NewBalancesService(gateway, tokenRegistry, maxConcurrentBalanceReads, zapLogger)

	handlers := restapi.NewHandlers(
		tokenRegistry,
		quoteEngine,
		txOrchestrator,
		balancesService,
		wallet,
		int64(cfg.Quote.DefaultSlippageBps),
		zapLogger,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      restapi.SetupRouter(handlers),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		zapLogger.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	<-signalChan

	zapLogger.Info("shutdown signal received")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	zapLogger.Info("stopped")
}
