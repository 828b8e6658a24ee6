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

package session

import (
	"context"
	"strings"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-signer/pkg/ethtypes"
	"github.com/ntclick/GmGM/internal/msgs"
	"github.com/ntclick/GmGM/internal/pipeline"
	"github.com/ntclick/GmGM/internal/reconcile"
	"github.com/ntclick/GmGM/pkg/gmtypes"
	"github.com/ntclick/GmGM/pkg/log"
)

// Session binds one user address to the engine, the pipeline, and a
// background scheduler keeping the record fresh
type Session struct {
	rt        *runtime
	address   string
	scheduler *reconcile.Scheduler
}

// NewSession creates a session for the address, or for the signer when the
// address is empty. The scheduler is not started until Start.
func (r *runtime) NewSession(ctx context.Context, address string, onSync func(*gmtypes.StreakRecord)) (*Session, error) {
	if address == "" {
		if r.signer == nil {
			return nil, i18n.NewError(ctx, msgs.MsgCLIAddressRequired)
		}
		address = r.signer.Address().String()
	}
	if _, err := ethtypes.NewAddress(address); err != nil {
		return nil, i18n.WrapError(ctx, err, msgs.MsgSessionInvalidAddress, address)
	}
	s := &Session{
		rt:      r,
		address: gmtypes.NormalizeAddress(address),
	}
	if onSync == nil {
		onSync = func(*gmtypes.StreakRecord) {}
	}
	s.scheduler = reconcile.NewScheduler(r.engine, s.address, r.syncInterval, onSync)
	return s, nil
}

func (s *Session) Address() string {
	return s.address
}

func (s *Session) Record(ctx context.Context) *gmtypes.StreakRecord {
	return s.rt.engine.Get(ctx, s.address)
}

func (s *Session) Sync(ctx context.Context) *gmtypes.StreakRecord {
	return s.rt.engine.SyncWithOnchain(ctx, s.address)
}

func (s *Session) Start(ctx context.Context) {
	log.L(ctx).Infof("Background sync for %s every %s", s.address, s.rt.syncInterval)
	s.scheduler.Start(ctx)
}

// Trigger requests an immediate background sync, as when the user returns
func (s *Session) Trigger() {
	s.scheduler.Trigger()
}

// Submit applies the optimistic local increment and runs the confidential
// submission pipeline. A call while a run is active is ignored.
func (s *Session) Submit(ctx context.Context, action *pipeline.Action, listener pipeline.StatusListener) (*pipeline.Result, error) {
	p := s.rt.pipeline
	if p == nil {
		return nil, i18n.NewError(ctx, msgs.MsgConfigSignerKeyMissing)
	}
	signer := s.rt.signer.Address().String()
	if !strings.EqualFold(signer, s.address) {
		return nil, i18n.NewError(ctx, msgs.MsgSessionAddressMismatch, s.address, signer)
	}
	if p.Running() {
		log.L(ctx).Warnf("Submission already in progress, ignoring")
		return nil, nil
	}
	a := *action
	if a.Category == "" {
		a.Category = gmtypes.CategoryForTime(s.rt.clock.Now())
	}
	if a.Count > 0 {
		s.rt.engine.IncrementLocal(ctx, s.address, a.Category)
	}
	return p.Submit(ctx, &a, listener)
}

// Close cancels the background timers and waits for a running sync
func (s *Session) Close() {
	s.scheduler.Stop()
}
