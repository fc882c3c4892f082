package registry

import (
	"context"
	"fmt"
	"time"

	"dexgate/internal/domain/entity"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// TokenListClient fetches the upstream token list document.
type TokenListClient interface {
	FetchTokenList(ctx context.Context) (*entity.TokenList, error)
}

// tokenListClientImpl fetches the list over HTTPS with fasthttp.
type tokenListClientImpl struct {
	client  *fasthttp.Client
	url     string
	timeout time.Duration
	logger  *zap.Logger
}

// NewTokenListClient creates the HTTPS token list client.
func NewTokenListClient(url string, timeout time.Duration, logger *zap.Logger) TokenListClient {
	return &tokenListClientImpl{
		client:  &fasthttp.Client{},
		url:     url,
		timeout: timeout,
		logger:  logger.Named("TokenListClient"),
	}
}

// FetchTokenList implements TokenListClient.
func (c *tokenListClientImpl) FetchTokenList(ctx context.Context) (*entity.TokenList, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("Requesting token list", zap.String("url", c.url))

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("token list request failed: %w", err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("token list request returned status %d", resp.StatusCode())
	}

	var list entity.TokenList
	if err := json.Unmarshal(resp.Body(), &list); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token list: %w", err)
	}
	if len(list.Tokens) == 0 {
		return nil, fmt.Errorf("token list contains no tokens")
	}

	c.logger.Debug("Fetched token list",
		zap.String("name", list.Name),
		zap.String("version", list.Version.String()),
		zap.Int("tokens", len(list.Tokens)))
	return &list, nil
}
