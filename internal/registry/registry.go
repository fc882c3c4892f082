package registry

import (
	"context"
	_ "embed"
	"strings"
	"sync"
	"time"

	"dexgate/internal/app/port"
	"dexgate/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

//go:embed fallback_tokens.json
var fallbackTokenList []byte

const listCacheKey = "tokenList"

// Options configure a Registry.
type Options struct {
	ChainID        int64
	NativeSymbol   string
	NativeName     string
	NativeDecimals uint8
	CacheTTL       time.Duration
}

// Registry implements port.TokenSource: a cached view over the upstream
// token list with a bundled fallback. Tokens from other chains are dropped
// at load time.
type Registry struct {
	client TokenListClient
	cache  *cache.Cache
	opts   Options
	logger *zap.Logger

	mu        sync.RWMutex
	byAddress map[common.Address]entity.TokenDescriptor
	bySymbol  map[string]entity.TokenDescriptor
}

// New builds the registry. The bundled fallback must parse; a broken bundle
// is a build defect, so New panics on it.
func New(client TokenListClient, opts Options, logger *zap.Logger) *Registry {
	r := &Registry{
		client: client,
		cache:  cache.New(opts.CacheTTL, 10*time.Minute),
		opts:   opts,
		logger: logger.Named("TokenRegistry"),
	}
	var probe entity.TokenList
	if err := json.Unmarshal(fallbackTokenList, &probe); err != nil {
		panic("registry: bundled fallback token list is invalid: " + err.Error())
	}
	return r
}

// Native implements port.TokenSource.
func (r *Registry) Native() entity.TokenDescriptor {
	return entity.TokenDescriptor{
		ChainID:  r.opts.ChainID,
		Address:  entity.NativeSentinel,
		Symbol:   r.opts.NativeSymbol,
		Name:     r.opts.NativeName,
		Decimals: r.opts.NativeDecimals,
	}
}

// List implements port.TokenSource. Resolution order: fresh cache entry,
// then upstream fetch, then the bundled fallback when the fetch fails and
// nothing is cached.
func (r *Registry) List(ctx context.Context) (*entity.TokenList, error) {
	if cached, found := r.cache.Get(listCacheKey); found {
		return cached.(*entity.TokenList), nil
	}

	list, err := r.client.FetchTokenList(ctx)
	if err != nil {
		r.logger.Warn("Token list fetch failed, using bundled fallback", zap.Error(err))
		list = r.fallback()
	} else {
		list = r.filterChain(list)
		r.cache.SetDefault(listCacheKey, list)
	}

	r.index(list)
	return list, nil
}

// ByAddress implements port.TokenSource.
func (r *Registry) ByAddress(ctx context.Context, address common.Address) (entity.TokenDescriptor, bool) {
	if address == entity.NativeSentinel {
		return r.Native(), true
	}
	r.ensureLoaded(ctx)

	r.mu.RLock()
	defer r.mu.RUnlock()
	token, ok := r.byAddress[address]
	return token, ok
}

// BySymbol implements port.TokenSource.
func (r *Registry) BySymbol(ctx context.Context, symbol string) (entity.TokenDescriptor, bool) {
	key := strings.ToUpper(strings.TrimSpace(symbol))
	if key == strings.ToUpper(r.opts.NativeSymbol) {
		return r.Native(), true
	}
	r.ensureLoaded(ctx)

	r.mu.RLock()
	defer r.mu.RUnlock()
	token, ok := r.bySymbol[key]
	return token, ok
}

func (r *Registry) ensureLoaded(ctx context.Context) {
	r.mu.RLock()
	loaded := r.byAddress != nil
	r.mu.RUnlock()
	if loaded {
		if _, fresh := r.cache.Get(listCacheKey); fresh {
			return
		}
	}
	if _, err := r.List(ctx); err != nil {
		r.logger.Warn("Token list refresh failed", zap.Error(err))
	}
}

func (r *Registry) fallback() *entity.TokenList {
	var list entity.TokenList
	// Validated in New; cannot fail here.
	_ = json.Unmarshal(fallbackTokenList, &list)
	return r.filterChain(&list)
}

func (r *Registry) filterChain(list *entity.TokenList) *entity.TokenList {
	kept := make([]entity.TokenDescriptor, 0, len(list.Tokens))
	for _, token := range list.Tokens {
		if token.ChainID != r.opts.ChainID {
			r.logger.Debug("Dropping token from another chain",
				zap.String("symbol", token.Symbol),
				zap.Int64("tokenChainId", token.ChainID),
				zap.Int64("expectedChainId", r.opts.ChainID))
			continue
		}
		kept = append(kept, token)
	}
	filtered := *list
	filtered.Tokens = kept
	return &filtered
}

func (r *Registry) index(list *entity.TokenList) {
	byAddress := make(map[common.Address]entity.TokenDescriptor, len(list.Tokens))
	bySymbol := make(map[string]entity.TokenDescriptor, len(list.Tokens))
	for _, token := range list.Tokens {
		byAddress[token.Address] = token
		bySymbol[strings.ToUpper(token.Symbol)] = token
	}

	r.mu.Lock()
	r.byAddress = byAddress
	r.bySymbol = bySymbol
	r.mu.Unlock()
}

var _ port.TokenSource = (*Registry)(nil)
