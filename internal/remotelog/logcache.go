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

package remotelog

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ntclick/GmGM/pkg/cache"
	"github.com/ntclick/GmGM/pkg/gmtypes"
	"github.com/ntclick/GmGM/pkg/log"
	"golang.org/x/sync/singleflight"
)

// LogCache shields the rate-limited event log from repeated reads of the same
// logical query within the TTL. Failures are never cached, and concurrent
// misses on one key share a single fetch.
type LogCache[T any] struct {
	entries    cache.Cache[string, T]
	group      singleflight.Group
	generation atomic.Uint64
}

func NewLogCache[T any](capacity int, ttl time.Duration, clock gmtypes.Clock) *LogCache[T] {
	return &LogCache[T]{
		entries: cache.NewCache[string, T](capacity, ttl, clock),
	}
}

func (lc *LogCache[T]) GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	if v, ok := lc.entries.Get(key); ok {
		log.L(ctx).Debugf("Cache hit for %s", key)
		return v, nil
	}
	gen := lc.generation.Load()
	v, err, _ := lc.group.Do(key, func() (interface{}, error) {
		v, err := fetch(ctx)
		// a Clear() while the fetch was in flight means the result may predate it
		if err == nil && lc.generation.Load() == gen {
			lc.entries.Set(key, v)
		}
		return v, err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Clear invalidates every entry, so the next read goes to the remote log
func (lc *LogCache[T]) Clear() {
	lc.generation.Add(1)
	lc.entries.Clear()
	log.L(context.Background()).Debugf("Event log cache cleared")
}
