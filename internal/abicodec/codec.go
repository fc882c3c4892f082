package abicodec

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Calldata codec for the narrow ABI surface the router and ERC-20 calls
// need: uint256, address and address[] arguments, uint256 and uint256[]
// return values. Pure; never touches the network. Every failure here is a
// deterministic "invalid input shape" programmer error, distinguishable from
// the transport errors higher layers classify.

const wordSize = 32

var (
	errNilUint      = errors.New("abicodec: nil uint256 value")
	errNegativeUint = errors.New("abicodec: uint256 value is negative")
	errUintOverflow = errors.New("abicodec: value does not fit in 256 bits")
)

// Selector is the first 4 bytes of calldata, identifying the function.
type Selector [4]byte

// NewSelector derives a selector from a canonical signature string.
func NewSelector(signature string) Selector {
	var sel Selector
	copy(sel[:], crypto.Keccak256([]byte(signature))[:4])
	return sel
}

func (s Selector) Hex() string {
	return hexutil.Encode(s[:])
}

// Call assembles calldata for one function invocation: selector, then one
// 32-byte head slot per parameter in order, then the tail region holding
// dynamic data. Argument methods are chainable; the first error sticks and
// is reported by Encode.
type Call struct {
	selector Selector
	head     [][]byte // one word per parameter; nil marks a dynamic slot
	tail     [][]byte // encoded dynamic blobs, in parameter order
	err      error
}

// NewCall starts a calldata build for the given selector.
func NewCall(selector Selector) *Call {
	return &Call{selector: selector}
}

// Uint256 appends a static uint256 parameter. Negative values and values
// that need more than 256 bits fail loudly rather than truncate.
func (c *Call) Uint256(v *big.Int) *Call {
	if c.err != nil {
		return c
	}
	switch {
	case v == nil:
		c.err = errNilUint
	case v.Sign() < 0:
		c.err = errNegativeUint
	case v.BitLen() > 256:
		c.err = errUintOverflow
	default:
		c.head = append(c.head, common.LeftPadBytes(v.Bytes(), wordSize))
	}
	return c
}

// Address appends a static address parameter, right-aligned in its word.
func (c *Call) Address(a common.Address) *Call {
	if c.err != nil {
		return c
	}
	c.head = append(c.head, common.LeftPadBytes(a.Bytes(), wordSize))
	return c
}

// AddressSlice appends a dynamic address[] parameter. Its head slot receives
// the byte offset of the array's length word, computed at Encode time once
// the full head size is known.
func (c *Call) AddressSlice(addrs []common.Address) *Call {
	if c.err != nil {
		return c
	}
	blob := make([]byte, 0, wordSize*(len(addrs)+1))
	blob = append(blob, common.LeftPadBytes(big.NewInt(int64(len(addrs))).Bytes(), wordSize)...)
	for _, a := range addrs {
		blob = append(blob, common.LeftPadBytes(a.Bytes(), wordSize)...)
	}
	c.head = append(c.head, nil)
	c.tail = append(c.tail, blob)
	return c
}

// Encode produces the final calldata. Offsets for dynamic parameters advance
// cumulatively: each one points past the head region plus every dynamic blob
// already placed before it.
func (c *Call) Encode() ([]byte, error) {
	if c.err != nil {
		return nil, c.err
	}

	headSize := wordSize * len(c.head)
	out := make([]byte, 0, 4+headSize)
	out = append(out, c.selector[:]...)

	offset := headSize
	tailIdx := 0
	for _, slot := range c.head {
		if slot != nil {
			out = append(out, slot...)
			continue
		}
		out = append(out, common.LeftPadBytes(big.NewInt(int64(offset)).Bytes(), wordSize)...)
		offset += len(c.tail[tailIdx])
		tailIdx++
	}
	for _, blob := range c.tail {
		out = append(out, blob...)
	}
	return out, nil
}

// EncodeHex is Encode rendered as 0x-prefixed hex for eth_call payloads.
func (c *Call) EncodeHex() (string, error) {
	raw, err := c.Encode()
	if err != nil {
		return "", err
	}
	return hexutil.Encode(raw), nil
}

// DecodeUint256 reads a single static uint256 return value (balanceOf,
// allowance). ok=false for payloads shorter than one word.
func DecodeUint256(data []byte) (*big.Int, bool) {
	if len(data) < wordSize {
		return nil, false
	}
	return new(big.Int).SetBytes(data[:wordSize]), true
}

// DecodeUint256Slice reads a single dynamic uint256[] return value, the
// getAmountsOut shape: offset word, length word, then the elements in order.
// Malformed or truncated payloads yield ok=false ("no result"), never a
// partial slice.
func DecodeUint256Slice(data []byte) ([]*big.Int, bool) {
	if len(data) < 2*wordSize {
		return nil, false
	}

	offsetWord := new(big.Int).SetBytes(data[:wordSize])
	if !offsetWord.IsInt64() {
		return nil, false
	}
	offset := int(offsetWord.Int64())
	if offset < 0 || offset+wordSize > len(data) {
		return nil, false
	}

	lengthWord := new(big.Int).SetBytes(data[offset : offset+wordSize])
	if !lengthWord.IsInt64() {
		return nil, false
	}
	length := int(lengthWord.Int64())
	if length < 0 {
		return nil, false
	}
	elemsStart := offset + wordSize
	// Division keeps the check overflow-proof for absurd length words.
	if length > (len(data)-elemsStart)/wordSize {
		return nil, false
	}

	amounts := make([]*big.Int, length)
	for i := 0; i < length; i++ {
		start := elemsStart + i*wordSize
		amounts[i] = new(big.Int).SetBytes(data[start : start+wordSize])
	}
	return amounts, true
}

// DecodeUint256SliceHex is DecodeUint256Slice over an eth_call hex result.
func DecodeUint256SliceHex(result string) ([]*big.Int, bool) {
	raw, err := hexutil.Decode(result)
	if err != nil {
		return nil, false
	}
	return DecodeUint256Slice(raw)
}

func (s Selector) String() string {
	return fmt.Sprintf("Selector(%s)", s.Hex())
}
