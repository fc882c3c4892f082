package entity

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// NativeSentinel is the reserved zero address meaning "the chain's native
// asset". It must be substituted with the wrapped-asset address before being
// placed in any swap route.
var NativeSentinel = common.Address{}

// TokenDescriptor holds the canonical metadata of a token. Immutable once
// resolved from the registry; Address is the unique key within a chain.
type TokenDescriptor struct {
	ChainID  int64          `json:"chainId"`
	Address  common.Address `json:"address"`
	Symbol   string         `json:"symbol"`
	Name     string         `json:"name"`
	Decimals uint8          `json:"decimals"`
	LogoURI  string         `json:"logoURI,omitempty"`
}

// IsNative reports whether the descriptor stands for the native asset.
func (t TokenDescriptor) IsNative() bool {
	return t.Address == NativeSentinel
}

// TokenList is the versioned registry document shape.
type TokenList struct {
	Name     string            `json:"name"`
	LogoURI  string            `json:"logoURI"`
	Keywords []string          `json:"keywords"`
	Version  TokenListVersion  `json:"version"`
	Tokens   []TokenDescriptor `json:"tokens"`
}

// TokenListVersion identifies a token list revision.
type TokenListVersion struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

func (v TokenListVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}
