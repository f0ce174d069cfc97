// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"time"

	cache "github.com/patrickmn/go-cache"
)

const (
	defaultExpiration = 10 * time.Minute
	cleanupInterval   = 15 * time.Minute
)

// read cache shared by the write-once pools of one store
//
// keys are the full prefixed engine keys so pools cannot collide
type readCache struct {
	cache *cache.Cache
}

func newReadCache() *readCache {
	return &readCache{
		cache: cache.New(defaultExpiration, cleanupInterval),
	}
}

func (c *readCache) get(key []byte) ([]byte, bool) {
	obj, found := c.cache.Get(string(key))
	if !found {
		return nil, false
	}
	return obj.([]byte), true
}

func (c *readCache) set(key []byte, value []byte) {
	c.cache.Set(string(key), value, cache.DefaultExpiration)
}

func (c *readCache) clear() {
	c.cache.Flush()
}
