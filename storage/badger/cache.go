package badger

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/fedibtc/minimint/model/mint"
)

// responseCache is a read-through LRU cache for signature responses. Responses
// never change once written, so entries are only added after they are
// committed and never invalidated.
type responseCache struct {
	cache    *lru.Cache
	retrieve func(mint.Identifier) (*mint.SigResponse, error)
}

func newResponseCache(size uint, retrieve func(mint.Identifier) (*mint.SigResponse, error)) *responseCache {
	if size == 0 {
		size = 1
	}
	// lru.New only fails for non-positive sizes
	cache, _ := lru.New(int(size))
	return &responseCache{cache: cache, retrieve: retrieve}
}

func (c *responseCache) Get(requestID mint.Identifier) (*mint.SigResponse, error) {
	if cached, ok := c.cache.Get(requestID); ok {
		return cached.(*mint.SigResponse), nil
	}
	resp, err := c.retrieve(requestID)
	if err != nil {
		return nil, err
	}
	c.cache.Add(requestID, resp)
	return resp, nil
}

func (c *responseCache) Insert(resp *mint.SigResponse) {
	c.cache.Add(resp.RequestID, resp)
}
