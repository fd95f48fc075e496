package reputation

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CachedClient wraps another Client with short-lived LRU caches, since
// the same domain or invite tends to appear in every message of a flood.
// Errors are not cached.
type CachedClient struct {
	inner   Client
	domains *expirable.LRU[string, Category]
	invites *expirable.LRU[string, *GuildInfo]
}

func NewCachedClient(inner Client, capacity int, ttl time.Duration) *CachedClient {
	return &CachedClient{
		inner:   inner,
		domains: expirable.NewLRU[string, Category](capacity, nil, ttl),
		invites: expirable.NewLRU[string, *GuildInfo](capacity, nil, ttl),
	}
}

func (c *CachedClient) ClassifyDomain(ctx context.Context, host string) (Category, error) {
	if cat, ok := c.domains.Get(host); ok {
		return cat, nil
	}
	cat, err := c.inner.ClassifyDomain(ctx, host)
	if err != nil {
		return cat, err
	}
	c.domains.Add(host, cat)
	return cat, nil
}

func (c *CachedClient) ResolveInvite(ctx context.Context, code string) (*GuildInfo, error) {
	if info, ok := c.invites.Get(code); ok {
		return info, nil
	}
	info, err := c.inner.ResolveInvite(ctx, code)
	if err != nil {
		return nil, err
	}
	c.invites.Add(code, info)
	return info, nil
}
