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

package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/ntclick/GmGM/internal/metrics"
	"github.com/ntclick/GmGM/internal/msgs"
	"github.com/ntclick/GmGM/internal/recordstore"
	"github.com/ntclick/GmGM/internal/remotelog"
	"github.com/ntclick/GmGM/pkg/confutil"
	"github.com/ntclick/GmGM/pkg/gmconf"
	"github.com/ntclick/GmGM/pkg/gmtypes"
	"github.com/ntclick/GmGM/pkg/log"
)

// Engine owns every mutation of a StreakRecord: the optimistic local
// increment, and the merge of the local record with remote aggregates.
// No operation returns an error for remote or storage trouble; the local
// record is returned unchanged instead.
type Engine interface {
	Get(ctx context.Context, address string) *gmtypes.StreakRecord
	IncrementLocal(ctx context.Context, address, category string) *gmtypes.StreakRecord
	SyncWithOnchain(ctx context.Context, address string) *gmtypes.StreakRecord
	SilentSync(ctx context.Context, address string) *gmtypes.StreakRecord
	// ForceRefreshAfterGM only errors if the refresh could not run at all
	ForceRefreshAfterGM(ctx context.Context, address string) (*gmtypes.StreakRecord, error)
}

type engine struct {
	store       recordstore.RecordStore
	remote      remotelog.AggregateClient
	clock       gmtypes.Clock
	metrics     metrics.Metrics
	settleDelay time.Duration
	// serializes read-modify-write of records, across the pipeline and background syncs
	recordLock sync.Mutex
}

type remoteAggregates struct {
	total  int64
	today  int64
	events int64
}

func NewEngine(conf *gmconf.SyncConfig, store recordstore.RecordStore, remote remotelog.AggregateClient, clock gmtypes.Clock, m metrics.Metrics) Engine {
	return &engine{
		store:       store,
		remote:      remote,
		clock:       clock,
		metrics:     m,
		settleDelay: confutil.DurationMin(conf.SettleDelay, 0, *gmconf.SyncDefaults.SettleDelay),
	}
}

func (e *engine) Get(ctx context.Context, address string) *gmtypes.StreakRecord {
	return e.store.Get(ctx, address)
}

func (e *engine) IncrementLocal(ctx context.Context, address, category string) *gmtypes.StreakRecord {
	ctx = log.WithLogField(log.WithComponent(ctx, "reconcile"), "user", address)
	e.recordLock.Lock()
	defer e.recordLock.Unlock()

	r := e.store.Get(ctx, address)
	now := e.clock.Now()
	today := gmtypes.Day(now)
	yesterday := gmtypes.Day(now.Add(-24 * time.Hour))

	if r.LastGMDay == today {
		log.L(ctx).Debugf("Already counted for %s", today)
		return r
	}
	if r.LastGMDay != yesterday {
		if r.CurrentStreak > 0 {
			log.L(ctx).Infof("Streak of %d broken (last day %s)", r.CurrentStreak, r.LastGMDay)
		}
		r.CurrentStreak = 0
	}
	r.CurrentStreak++
	r.TotalGMs++
	r.TodayGMs++
	r.LastGMDay = today
	r.LastGMTime = now.UnixMilli()
	r.LastCategory = category
	if r.CurrentStreak > r.BestStreak {
		r.BestStreak = r.CurrentStreak
	}

	e.store.Put(ctx, address, r)
	log.L(ctx).Infof("Streak now %d (best=%d total=%d)", r.CurrentStreak, r.BestStreak, r.TotalGMs)
	return r.Copy()
}

func (e *engine) fetchRemote(ctx context.Context, address string) *remoteAggregates {
	return &remoteAggregates{
		total:  e.remote.TotalCount(ctx),
		today:  e.remote.TodayCount(ctx),
		events: int64(len(e.remote.RawEvents(ctx, address))),
	}
}

// merge applies the remote aggregates to the current local record. Called
// after the remote reads complete, so increments made meanwhile are kept.
func (e *engine) merge(ctx context.Context, address string, remote *remoteAggregates, allowBootstrap bool) (merged *gmtypes.StreakRecord, err error) {
	e.recordLock.Lock()
	defer e.recordLock.Unlock()

	local := e.store.Get(ctx, address)
	defer func() {
		if panicked := recover(); panicked != nil {
			log.L(ctx).Errorf("Merge failed, keeping local record: %v", panicked)
			merged, err = local, fmt.Errorf("%v", panicked)
		}
	}()

	now := e.clock.Now()
	r := local.Copy()
	if allowBootstrap && r.IsPristine() {
		started := remote.today > 0
		r = &gmtypes.StreakRecord{
			TotalGMs: remote.total,
			TodayGMs: remote.today,
		}
		if started {
			r.CurrentStreak = 1
			r.BestStreak = 1
			r.LastGMDay = gmtypes.Day(now)
			r.LastGMTime = now.UnixMilli()
			r.LastCategory = "onchain"
		}
		log.L(ctx).Infof("Bootstrapped record from event log (total=%d today=%d)", remote.total, remote.today)
	} else {
		r.TotalGMs = remote.total
		r.TodayGMs = remote.today
	}
	r.OnchainEvents = remote.events
	r.LastSync = now.UnixMilli()
	if r.TotalGMs < r.TodayGMs {
		r.TotalGMs = r.TodayGMs
	}
	if r.BestStreak < r.CurrentStreak {
		r.BestStreak = r.CurrentStreak
	}

	e.store.Put(ctx, address, r)
	return r.Copy(), nil
}

func (e *engine) SyncWithOnchain(ctx context.Context, address string) *gmtypes.StreakRecord {
	ctx = log.WithLogField(log.WithComponent(ctx, "reconcile"), "user", address)
	r, err := e.merge(ctx, address, e.fetchRemote(ctx, address), true)
	e.countSync("sync", err)
	return r
}

func (e *engine) SilentSync(ctx context.Context, address string) (r *gmtypes.StreakRecord) {
	ctx = log.WithLogField(log.WithComponent(ctx, "reconcile"), "user", address)
	defer func() {
		if panicked := recover(); panicked != nil {
			log.L(ctx).Debugf("Silent sync failed: %v", panicked)
			r = e.store.Get(ctx, address)
			e.countSync("silent", fmt.Errorf("%v", panicked))
		}
	}()
	r, err := e.merge(ctx, address, e.fetchRemote(ctx, address), true)
	e.countSync("silent", err)
	return r
}

func (e *engine) ForceRefreshAfterGM(ctx context.Context, address string) (*gmtypes.StreakRecord, error) {
	ctx = log.WithLogField(log.WithComponent(ctx, "reconcile"), "user", address)
	e.remote.InvalidateCache()

	log.L(ctx).Debugf("Waiting %s for the indexer before refreshing", e.settleDelay)
	t := time.NewTimer(e.settleDelay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
		e.countSync("refresh", ctx.Err())
		return e.store.Get(ctx, address), i18n.NewError(ctx, msgs.MsgContextCanceled)
	}

	r, err := e.merge(ctx, address, e.fetchRemote(ctx, address), false)
	e.countSync("refresh", err)
	return r, err
}

func (e *engine) countSync(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	e.metrics.IncSync(kind, outcome)
}
