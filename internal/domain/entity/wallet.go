package entity

// WalletConnection is the process-wide connection snapshot. Mutated only by
// the connection state machine; everyone else receives copies.
type WalletConnection struct {
	IsConnected      bool   `json:"isConnected"`
	Address          string `json:"address,omitempty"`
	ChainID          int64  `json:"chainId,omitempty"`
	Balance          string `json:"balance,omitempty"`
	IsConnecting     bool   `json:"isConnecting"`
	Error            string `json:"error,omitempty"`
	IsCorrectNetwork bool   `json:"isCorrectNetwork"`
	NetworkName      string `json:"networkName,omitempty"`
}

// PersistedConnection is the small blob written to local storage for the
// silent-reconnect heuristic. Never trusted as an authorization source.
type PersistedConnection struct {
	WalletID  string `json:"walletId"`
	Address   string `json:"address"`
	ChainID   int64  `json:"chainId"`
	Timestamp int64  `json:"timestamp"`
}
