package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the overall configuration for the application.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Network      NetworkConfig      `yaml:"network"`
	Contracts    ContractsConfig    `yaml:"contracts"`
	TokenList    TokenListConfig    `yaml:"tokenList"`
	Quote        QuoteConfig        `yaml:"quote"`
	Transactions TransactionsConfig `yaml:"transactions"`
	Wallet       WalletConfig       `yaml:"wallet"`
	RpcClient    RpcClientConfig    `yaml:"rpcClient"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// NetworkConfig identifies the single chain this gateway serves.
type NetworkConfig struct {
	ChainID          int64  `yaml:"chainID"`
	Name             string `yaml:"name"`
	NativeSymbol     string `yaml:"nativeSymbol"`
	NativeName       string `yaml:"nativeName"`
	RPCURL           string `yaml:"rpcURL"`
	ExplorerURL      string `yaml:"explorerURL"`
	CurrencyDecimals uint8  `yaml:"currencyDecimals"`
}

// ContractsConfig holds the deployed addresses the gateway talks to.
type ContractsConfig struct {
	Router        string `yaml:"router"`
	Factory       string `yaml:"factory"`
	WrappedNative string `yaml:"wrappedNative"`
}

// TokenListConfig configures the token registry document source.
type TokenListConfig struct {
	URL                  string `yaml:"url"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
	CacheTTLMinutes      int    `yaml:"cacheTTLMinutes"`
}

// QuoteConfig tunes the quote engine.
type QuoteConfig struct {
	TTLSeconds          int `yaml:"ttlSeconds"`
	DefaultSlippageBps  int `yaml:"defaultSlippageBps"`
	ProbeAmountExponent int `yaml:"probeAmountExponent"`
}

// TransactionsConfig tunes submission and receipt polling.
type TransactionsConfig struct {
	GasLimit            uint64 `yaml:"gasLimit"`
	DeadlineMinutes     int    `yaml:"deadlineMinutes"`
	PollIntervalSeconds int    `yaml:"pollIntervalSeconds"`
	PollMaxAttempts     int    `yaml:"pollMaxAttempts"`
}

// WalletConfig configures connection persistence.
type WalletConfig struct {
	StatePath            string `yaml:"statePath"`
	ReconnectMaxAgeHours int    `yaml:"reconnectMaxAgeHours"`
}

// RpcClientConfig holds configuration for the RPC transport.
type RpcClientConfig struct {
	RequestTimeoutMillis int64 `yaml:"requestTimeoutMillis"`
	RateLimit            int   `yaml:"rateLimit"`
	BurstLimit           int   `yaml:"burstLimit"`
}

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // e.g., "debug", "info", "warn", "error"
}

// LoadConfig loads configuration from a YAML file and applies defaults for
// unset tunables.
func LoadConfig(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logrus.Errorf("Failed to unmarshal config data from %s: %v", path, err)
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	if cfg.Network.ChainID == 0 {
		return nil, fmt.Errorf("network.chainID must be set")
	}
	if cfg.Contracts.Router == "" || cfg.Contracts.WrappedNative == "" {
		return nil, fmt.Errorf("contracts.router and contracts.wrappedNative must be set")
	}

	if cfg.Network.CurrencyDecimals == 0 {
		cfg.Network.CurrencyDecimals = 18
	}
	if cfg.TokenList.CacheTTLMinutes == 0 {
		cfg.TokenList.CacheTTLMinutes = 5
		logrus.Infof("tokenList.cacheTTLMinutes not set, defaulting to %d", cfg.TokenList.CacheTTLMinutes)
	}
	if cfg.TokenList.RequestTimeoutMillis == 0 {
		cfg.TokenList.RequestTimeoutMillis = 10000
		logrus.Infof("tokenList.requestTimeoutMillis not set, defaulting to %d ms", cfg.TokenList.RequestTimeoutMillis)
	}
	if cfg.Quote.TTLSeconds == 0 {
		cfg.Quote.TTLSeconds = 45
		logrus.Infof("quote.ttlSeconds not set, defaulting to %d", cfg.Quote.TTLSeconds)
	}
	if cfg.Quote.DefaultSlippageBps == 0 {
		cfg.Quote.DefaultSlippageBps = 50
	}
	if cfg.Quote.ProbeAmountExponent == 0 {
		// probe amount = 10^(decimals-3), i.e. 0.001 of a token
		cfg.Quote.ProbeAmountExponent = 3
	}
	if cfg.Transactions.GasLimit == 0 {
		cfg.Transactions.GasLimit = 300000
	}
	if cfg.Transactions.DeadlineMinutes == 0 {
		cfg.Transactions.DeadlineMinutes = 20
	}
	if cfg.Transactions.PollIntervalSeconds == 0 {
		cfg.Transactions.PollIntervalSeconds = 3
	}
	if cfg.Transactions.PollMaxAttempts == 0 {
		cfg.Transactions.PollMaxAttempts = 40
	}
	if cfg.Wallet.StatePath == "" {
		cfg.Wallet.StatePath = "data/wallet_connection.json"
	}
	if cfg.Wallet.ReconnectMaxAgeHours == 0 {
		cfg.Wallet.ReconnectMaxAgeHours = 24
	}
	if cfg.RpcClient.RequestTimeoutMillis == 0 {
		cfg.RpcClient.RequestTimeoutMillis = 15000
	}
	if cfg.RpcClient.RateLimit == 0 {
		cfg.RpcClient.RateLimit = 20
	}
	if cfg.RpcClient.BurstLimit == 0 {
		cfg.RpcClient.BurstLimit = 40
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}
