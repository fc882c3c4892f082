package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"dexgate/internal/domain/entity"
	"dexgate/internal/provider/providertest"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestGateway(fake *providertest.FakeProvider) *Gateway {
	return NewGateway(fake, 2*time.Second, 100, 100, zap.NewNop())
}

func TestGatewayChainID(t *testing.T) {
	fake := providertest.New()
	fake.Respond("eth_chainId", "0x38")

	id, err := newTestGateway(fake).ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(56), id)
}

func TestGatewayGetBalance(t *testing.T) {
	fake := providertest.New()
	fake.Respond("eth_getBalance", "0xde0b6b3a7640000") // 1 ether

	balance, err := newTestGateway(fake).GetBalance(context.Background(), common.HexToAddress("0xabc0000000000000000000000000000000000001"))
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", balance.String())

	calls := fake.Calls("eth_getBalance")
	require.Len(t, calls, 1)
	assert.Equal(t, "latest", calls[0].Params[1])
}

func TestGatewayReceiptNotMined(t *testing.T) {
	fake := providertest.New()
	fake.Respond("eth_getTransactionReceipt", nil)

	receipt, found, err := newTestGateway(fake).TransactionReceipt(context.Background(), common.HexToHash("0x01"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, receipt)
}

func TestGatewayReceiptMined(t *testing.T) {
	fake := providertest.New()
	fake.Respond("eth_getTransactionReceipt", map[string]any{
		"transactionHash": "0x0100000000000000000000000000000000000000000000000000000000000000",
		"status":          "0x1",
		"blockNumber":     "0x10",
	})

	receipt, found, err := newTestGateway(fake).TransactionReceipt(context.Background(), common.HexToHash("0x01"))
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, receipt.Succeeded())
}

func TestGatewaySendTransaction(t *testing.T) {
	fake := providertest.New()
	hash := "0x0200000000000000000000000000000000000000000000000000000000000000"
	fake.Respond("eth_sendTransaction", hash)

	got, err := newTestGateway(fake).SendTransaction(context.Background(), TxArgs{
		From: common.HexToAddress("0x01"),
		To:   common.HexToAddress("0x02"),
		Data: hexutil.Bytes{0x01},
	})
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash(hash), got)
}

func TestClassifyUserRejection(t *testing.T) {
	fake := providertest.New()
	fake.Fail("eth_requestAccounts", &providertest.RPCError{Code: 4001, Message: "User rejected the request."})

	_, err := newTestGateway(fake).RequestAccounts(context.Background())
	assert.ErrorIs(t, err, entity.ErrUserRejected)
}

func TestClassifyChainNotRecognized(t *testing.T) {
	fake := providertest.New()
	fake.Fail("wallet_switchEthereumChain", &providertest.RPCError{Code: 4902, Message: "Unrecognized chain ID"})

	err := newTestGateway(fake).SwitchChain(context.Background(), 56)
	assert.True(t, ChainNotRecognized(err))
	assert.NotErrorIs(t, err, entity.ErrUserRejected)
}

func TestClassifyByMessage(t *testing.T) {
	cases := []struct {
		msg  string
		want error
	}{
		{"execution reverted: UniswapV2Library: INSUFFICIENT_LIQUIDITY", entity.ErrNoLiquidity},
		{"execution reverted: UniswapV2Router: INSUFFICIENT_OUTPUT_AMOUNT", entity.ErrNoLiquidity},
		{"insufficient funds for gas * price + value", entity.ErrInsufficientFunds},
		{"execution reverted", entity.ErrExecutionReverted},
		{"connection refused", entity.ErrNetwork},
	}
	for _, tc := range cases {
		t.Run(tc.msg, func(t *testing.T) {
			assert.ErrorIs(t, Classify(errors.New(tc.msg)), tc.want)
		})
	}
	assert.NoError(t, Classify(nil))
}
