/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vdr

import (
	"errors"
	"time"

	"github.com/bluele/gcache"

	"github.com/trustbloc/did-auth-jose-go/pkg/common/log"
	"github.com/trustbloc/did-auth-jose-go/pkg/doc/did"
)

var logger = log.New("didauth/vdr")

// CachingResolver caches successful resolutions of another Resolver. Failures are never cached.
// The underlying gcache is thread safe.
type CachingResolver struct {
	next  Resolver
	cache gcache.Cache
}

// NewCachingResolver caches up to size documents from next for ttl. A size of zero or less makes
// the cache unbounded; a ttl of zero or less keeps entries until evicted.
func NewCachingResolver(next Resolver, size int, ttl time.Duration) *CachingResolver {
	var builder *gcache.CacheBuilder

	if size > 0 {
		builder = gcache.New(size).LRU()
	} else {
		builder = gcache.New(0).Simple()
	}

	if ttl > 0 {
		builder = builder.Expiration(ttl)
	}

	return &CachingResolver{next: next, cache: builder.Build()}
}

// Resolve returns the cached document for didID or resolves and caches it.
func (c *CachingResolver) Resolve(didID string) (*did.DocResolution, error) {
	cached, err := c.cache.Get(didID)
	if err == nil {
		if docResolution, ok := cached.(*did.DocResolution); ok {
			return docResolution, nil
		}
	} else if !errors.Is(err, gcache.KeyNotFoundError) {
		logger.Warnf("resolver cache get %s: %v", didID, err)
	}

	docResolution, err := c.next.Resolve(didID)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(didID, docResolution); err != nil {
		logger.Warnf("resolver cache set %s: %v", didID, err)
	}

	return docResolution, nil
}

// Purge removes every cached document.
func (c *CachingResolver) Purge() {
	c.cache.Purge()
}
