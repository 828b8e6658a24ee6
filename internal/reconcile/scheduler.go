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
	"time"

	"github.com/ntclick/GmGM/pkg/gmtypes"
	"github.com/ntclick/GmGM/pkg/log"
)

type SilentSyncer interface {
	SilentSync(ctx context.Context, address string) *gmtypes.StreakRecord
}

// Scheduler keeps one address fresh in the background: on start, on every
// interval tick, and whenever Trigger is called (for example when the user
// returns to the app). Triggers arriving while a sync runs coalesce into one.
type Scheduler struct {
	syncer   SilentSyncer
	address  string
	interval time.Duration
	trigger  chan struct{}
	cancel   context.CancelFunc
	done     chan struct{}
	onSync   func(*gmtypes.StreakRecord)
}

func NewScheduler(syncer SilentSyncer, address string, interval time.Duration, onSync func(*gmtypes.StreakRecord)) *Scheduler {
	return &Scheduler{
		syncer:   syncer,
		address:  address,
		interval: interval,
		trigger:  make(chan struct{}, 1),
		onSync:   onSync,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(log.WithComponent(ctx, "scheduler"))
	s.done = make(chan struct{})
	go s.loop(ctx)
}

func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Stop cancels both timers and waits for any in-progress sync to return
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runSync(ctx, "start")
	for {
		select {
		case <-ticker.C:
			s.runSync(ctx, "interval")
		case <-s.trigger:
			s.runSync(ctx, "trigger")
		case <-ctx.Done():
			log.L(ctx).Debugf("Scheduler stopped")
			return
		}
	}
}

func (s *Scheduler) runSync(ctx context.Context, reason string) {
	log.L(ctx).Debugf("Background sync (%s)", reason)
	r := s.syncer.SilentSync(ctx, s.address)
	if s.onSync != nil && r != nil {
		s.onSync(r)
	}
}
