// Copyright © 2025 Kaleido, Inc.
//
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import (
	"sync/atomic"
	"time"

	cacheimpl "github.com/Code-Hex/go-generics-cache"
	"github.com/Code-Hex/go-generics-cache/policy/lru"
	"github.com/ntclick/GmGM/pkg/gmtypes"
)

// Cache is a bounded LRU whose entries are only returned within a fixed
// time-to-live from the moment they were stored.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, val V)
	Delete(key K)
	Capacity() int
	TTL() time.Duration
	Clear()
}

type entry[V any] struct {
	value    V
	storedAt time.Time
}

type cache[K comparable, V any] struct {
	cache    atomic.Pointer[cacheimpl.Cache[K, *entry[V]]]
	capacity int
	ttl      time.Duration
	clock    gmtypes.Clock
}

func NewCache[K comparable, V any](capacity int, ttl time.Duration, clock gmtypes.Clock) Cache[K, V] {
	c := &cache[K, V]{
		capacity: capacity,
		ttl:      ttl,
		clock:    clock,
	}
	c.Clear()
	return c
}

func (c *cache[K, V]) Get(key K) (V, bool) {
	var zero V
	e, ok := c.cache.Load().Get(key)
	if !ok {
		return zero, false
	}
	if c.clock.Now().Sub(e.storedAt) > c.ttl {
		c.cache.Load().Delete(key)
		return zero, false
	}
	return e.value, true
}

func (c *cache[K, V]) Set(key K, val V) {
	c.cache.Load().Set(key, &entry[V]{value: val, storedAt: c.clock.Now()})
}

func (c *cache[K, V]) Delete(key K) {
	c.cache.Load().Delete(key)
}

// Clear swaps in a fresh underlying cache, as go-generics-cache has no clear
func (c *cache[K, V]) Clear() {
	c.cache.Store(cacheimpl.New[K, *entry[V]](cacheimpl.AsLRU[K, *entry[V]](
		lru.WithCapacity(c.capacity),
	)))
}

func (c *cache[K, V]) Capacity() int {
	return c.capacity
}

func (c *cache[K, V]) TTL() time.Duration {
	return c.ttl
}
