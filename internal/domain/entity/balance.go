package entity

import "math/big"

// TokenBalance is one holding of the connected address.
type TokenBalance struct {
	Token     TokenDescriptor `json:"token"`
	Amount    *big.Int        `json:"-"`
	Formatted string          `json:"balance"`
}
