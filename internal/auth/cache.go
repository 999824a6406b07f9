package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/placemaking/walletpass/internal/logging"
	"github.com/placemaking/walletpass/internal/metrics"
)

// Source mints fresh access tokens for a single scope.
type Source interface {
	Scope() string
	Exchange(ctx context.Context) (Token, error)
}

// Store is an optional shared cache level so several replicas reuse one token.
type Store interface {
	Load(ctx context.Context, scope string) (Token, bool, error)
	Save(ctx context.Context, scope string, token Token, ttl time.Duration) error
	Delete(ctx context.Context, scope string) error
}

// TokenCache is the process-wide access token cache, keyed by scope. A token is
// reused until refreshBuffer before its expiry; concurrent misses for the same
// scope share one refresh.
type TokenCache struct {
	buffer time.Duration
	store  Store
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	entries map[string]Token
	group   singleflight.Group
}

// NewTokenCache builds a cache. store may be nil.
func NewTokenCache(refreshBuffer time.Duration, store Store, logger *slog.Logger) *TokenCache {
	if logger == nil {
		logger = logging.Discard()
	}
	return &TokenCache{
		buffer:  refreshBuffer,
		store:   store,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]Token),
	}
}

// Token returns a usable access token for src's scope, refreshing it when needed.
func (c *TokenCache) Token(ctx context.Context, src Source) (string, error) {
	scope := src.Scope()
	if tok, ok := c.cached(scope); ok {
		return tok.AccessToken, nil
	}

	v, err, _ := c.group.Do(scope, func() (any, error) {
		if tok, ok := c.cached(scope); ok {
			return tok, nil
		}
		return c.refresh(context.WithoutCancel(ctx), src)
	})
	if err != nil {
		return "", err
	}
	return v.(Token).AccessToken, nil
}

// Invalidate drops the token for scope from every cache level.
func (c *TokenCache) Invalidate(ctx context.Context, scope string) {
	c.mu.Lock()
	delete(c.entries, scope)
	c.mu.Unlock()
	if c.store != nil {
		if err := c.store.Delete(ctx, scope); err != nil {
			c.logger.Warn("token store delete failed", slog.String("scope", scope), slog.Any("error", err))
		}
	}
}

// Bind ties the cache to one source.
func (c *TokenCache) Bind(src Source) *BoundSource {
	return &BoundSource{cache: c, src: src}
}

func (c *TokenCache) cached(scope string) (Token, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tok, ok := c.entries[scope]
	if !ok || !c.fresh(tok) {
		return Token{}, false
	}
	return tok, true
}

func (c *TokenCache) fresh(tok Token) bool {
	return c.now().Before(tok.Expiry.Add(-c.buffer))
}

func (c *TokenCache) refresh(ctx context.Context, src Source) (Token, error) {
	scope := src.Scope()

	if c.store != nil {
		tok, ok, err := c.store.Load(ctx, scope)
		switch {
		case err != nil:
			c.logger.Warn("token store load failed", slog.String("scope", scope), slog.Any("error", err))
		case ok && c.fresh(tok):
			c.put(scope, tok)
			metrics.RecordTokenRefresh("store")
			return tok, nil
		}
	}

	tok, err := src.Exchange(ctx)
	if err != nil {
		return Token{}, err
	}
	c.put(scope, tok)
	metrics.RecordTokenRefresh("issuer")
	c.logger.Debug("access token refreshed", slog.String("scope", scope), slog.Time("expiry", tok.Expiry))

	if c.store != nil {
		if ttl := tok.Expiry.Add(-c.buffer).Sub(c.now()); ttl > 0 {
			if err := c.store.Save(ctx, scope, tok, ttl); err != nil {
				c.logger.Warn("token store save failed", slog.String("scope", scope), slog.Any("error", err))
			}
		}
	}
	return tok, nil
}

func (c *TokenCache) put(scope string, tok Token) {
	c.mu.Lock()
	c.entries[scope] = tok
	c.mu.Unlock()
}

// BoundSource serves tokens for a single source out of a shared cache.
type BoundSource struct {
	cache *TokenCache
	src   Source
}

// Token returns the cached or refreshed access token.
func (b *BoundSource) Token(ctx context.Context) (string, error) {
	return b.cache.Token(ctx, b.src)
}

// Invalidate forces the next Token call to refresh.
func (b *BoundSource) Invalidate(ctx context.Context) {
	b.cache.Invalidate(ctx, b.src.Scope())
}
