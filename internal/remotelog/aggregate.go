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
	"time"

	"github.com/ntclick/GmGM/internal/etherscan"
	"github.com/ntclick/GmGM/internal/metrics"
	"github.com/ntclick/GmGM/pkg/confutil"
	"github.com/ntclick/GmGM/pkg/gmconf"
	"github.com/ntclick/GmGM/pkg/gmtypes"
	"github.com/ntclick/GmGM/pkg/log"
)

const (
	cacheKeyTotal = "total"
	cacheKeyToday = "today"
)

// AggregateClient derives the aggregates the streak engine reconciles against.
// Every operation degrades to zero or empty on failure.
type AggregateClient interface {
	TotalCount(ctx context.Context) int64
	TodayCount(ctx context.Context) int64
	RawEvents(ctx context.Context, address string) []*gmtypes.Event
	InvalidateCache()
}

type aggregateClient struct {
	logs     etherscan.Client
	contract string
	cache    *LogCache[int64]
	policy   *ProbePolicy
	clock    gmtypes.Clock
	metrics  metrics.Metrics
	// sleep is swapped in tests
	sleep func(ctx context.Context, d time.Duration) bool
}

func NewAggregateClient(logs etherscan.Client, contract string, conf *gmconf.GMStreakConfig, clock gmtypes.Clock, m metrics.Metrics) AggregateClient {
	ttl := confutil.DurationMin(conf.Sync.CacheTTL, 0, *gmconf.SyncDefaults.CacheTTL)
	return &aggregateClient{
		logs:     logs,
		contract: contract,
		cache:    NewLogCache[int64](confutil.IntMin(conf.Sync.CacheSize, 1, *gmconf.SyncDefaults.CacheSize), ttl, clock),
		policy:   NewProbePolicy(&conf.Etherscan),
		clock:    clock,
		metrics:  m,
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (ac *aggregateClient) queryAll(ctx context.Context, query string) ([]*gmtypes.Event, error) {
	events, err := ac.logs.QueryLogs(ctx, ac.contract, "")
	if err != nil {
		ac.metrics.IncRemoteQuery(query, "error")
		return nil, err
	}
	ac.metrics.IncRemoteQuery(query, "ok")
	return events, nil
}

func (ac *aggregateClient) TotalCount(ctx context.Context) int64 {
	ctx = log.WithComponent(ctx, "remotelog")
	total, err := ac.cache.GetOrFetch(ctx, cacheKeyTotal, func(ctx context.Context) (int64, error) {
		events, err := ac.queryAll(ctx, cacheKeyTotal)
		return int64(len(events)), err
	})
	if err != nil {
		log.L(ctx).Warnf("Total count unavailable, using 0: %s", err)
		return 0
	}
	return total
}

func (ac *aggregateClient) TodayCount(ctx context.Context) int64 {
	ctx = log.WithComponent(ctx, "remotelog")
	today, err := ac.cache.GetOrFetch(ctx, cacheKeyToday, func(ctx context.Context) (int64, error) {
		events, err := ac.queryAll(ctx, cacheKeyToday)
		if err != nil {
			return 0, err
		}
		start := gmtypes.StartOfUTCDay(ac.clock.Now())
		end := start.Add(24 * time.Hour)
		var count int64
		for _, e := range events {
			ts, ok := e.Time()
			if !ok {
				log.L(ctx).Debugf("Skipping event %s with unparseable timestamp '%s'", e.TransactionHash, e.TimeStamp)
				continue
			}
			if !ts.Before(start) && ts.Before(end) {
				count++
			}
		}
		return count, nil
	})
	if err != nil {
		log.L(ctx).Warnf("Today count unavailable, using 0: %s", err)
		return 0
	}
	return today
}

// RawEvents is deliberately uncached, as it is per-caller
func (ac *aggregateClient) RawEvents(ctx context.Context, address string) []*gmtypes.Event {
	ctx = log.WithLogField(log.WithComponent(ctx, "remotelog"), "user", address)
	for i, s := range ac.policy.Strategies {
		if i > 0 && !ac.sleep(ctx, ac.policy.Delay) {
			return []*gmtypes.Event{}
		}
		events, err := ac.logs.QueryLogs(ctx, ac.contract, s.Topic0)
		switch {
		case err != nil:
			ac.metrics.IncRemoteQuery("raw", "error")
			log.L(ctx).Debugf("Probe %s failed: %s", s.Name, err)
		case len(events) == 0:
			ac.metrics.IncRemoteQuery("raw", "empty")
			log.L(ctx).Debugf("Probe %s returned no events", s.Name)
		default:
			ac.metrics.IncRemoteQuery("raw", "ok")
			log.L(ctx).Debugf("Probe %s returned %d events", s.Name, len(events))
			return events
		}
	}

	if len(ac.policy.Strategies) > 0 && !ac.sleep(ctx, ac.policy.FallbackDelay) {
		return []*gmtypes.Event{}
	}
	events, err := ac.logs.QueryLogs(ctx, ac.contract, ac.policy.Fallback.Topic0)
	if err != nil {
		ac.metrics.IncRemoteQuery("raw", "error")
		log.L(ctx).Warnf("Raw events unavailable, using empty list: %s", err)
		return []*gmtypes.Event{}
	}
	ac.metrics.IncRemoteQuery("raw", "ok")
	return events
}

func (ac *aggregateClient) InvalidateCache() {
	ac.cache.Clear()
}
