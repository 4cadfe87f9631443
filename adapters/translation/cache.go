package translation

import (
	"context"
	"sync"

	"github.com/golang/groupcache/lru"

	"github.com/satriahrh/lingua/domain/repositories"
)

// DefaultCacheSize is how many translations CachedTranslator remembers
const DefaultCacheSize = 128

type cacheKey struct {
	source, target, text string
}

// CachedTranslator memoizes successful translations in an LRU
type CachedTranslator struct {
	next  repositories.Translator
	mu    sync.Mutex
	cache *lru.Cache
}

var _ repositories.Translator = (*CachedTranslator)(nil)

// NewCachedTranslator wraps next with an LRU of size entries
func NewCachedTranslator(next repositories.Translator, size int) *CachedTranslator {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &CachedTranslator{next: next, cache: lru.New(size)}
}

// Translate implements repositories.Translator
func (c *CachedTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	if source == target {
		return text, nil
	}

	key := cacheKey{source: source, target: target, text: text}
	c.mu.Lock()
	cached, ok := c.cache.Get(key)
	c.mu.Unlock()
	if ok {
		return cached.(string), nil
	}

	translated, err := c.next.Translate(ctx, text, source, target)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.cache.Add(key, translated)
	c.mu.Unlock()
	return translated, nil
}

// Len reports the number of cached translations
func (c *CachedTranslator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}
