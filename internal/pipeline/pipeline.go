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

package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-signer/pkg/ethtypes"
	"github.com/ntclick/GmGM/internal/broadcast"
	"github.com/ntclick/GmGM/internal/compute"
	"github.com/ntclick/GmGM/internal/metrics"
	"github.com/ntclick/GmGM/internal/msgs"
	"github.com/ntclick/GmGM/internal/signing"
	"github.com/ntclick/GmGM/pkg/confutil"
	"github.com/ntclick/GmGM/pkg/gmconf"
	"github.com/ntclick/GmGM/pkg/gmtypes"
	"github.com/ntclick/GmGM/pkg/log"
)

const encryptedCountBits = 32

// Reconciler is the part of the streak engine the pipeline drives once a
// submission is confirmed
type Reconciler interface {
	IncrementLocal(ctx context.Context, address, category string) *gmtypes.StreakRecord
	SyncWithOnchain(ctx context.Context, address string) *gmtypes.StreakRecord
	ForceRefreshAfterGM(ctx context.Context, address string) (*gmtypes.StreakRecord, error)
}

type Components struct {
	Compute     compute.Provider
	Signer      signing.Signer
	Broadcaster broadcast.Broadcaster
	Reconciler  Reconciler
	Metrics     metrics.Metrics
	Clock       gmtypes.Clock
}

type Action struct {
	Count    int64  `json:"count"`
	Category string `json:"category,omitempty"`
	Message  string `json:"message,omitempty"`
}

type Result struct {
	RunID     string
	TxHash    string
	Signature ethtypes.HexBytes0xPrefix
	Receipt   *broadcast.Receipt
	Record    *gmtypes.StreakRecord
	// receives the record after the post-submission refresh, then closes
	Refreshed <-chan *gmtypes.StreakRecord
}

type Pipeline interface {
	// Submit runs one submission to completion. While a run is active further
	// calls are ignored, returning a nil Result and nil error.
	Submit(ctx context.Context, action *Action, listener StatusListener) (*Result, error)
	Running() bool
	Status() *Status
	Close()
}

type pipeline struct {
	c              *Components
	contract       *ethtypes.Address0xHex
	defaultMessage string
	initTimeout    time.Duration
	encryptTimeout time.Duration
	signTimeout    time.Duration
	fees           *broadcast.FeeParams

	running   atomic.Bool
	statusMux sync.Mutex
	status    *Status

	bgCtx    context.Context
	bgCancel context.CancelFunc
	bgDone   sync.WaitGroup
}

// SubmissionContext carries one run through the steps
type SubmissionContext struct {
	context.Context
	RunID    string
	Action   *Action
	User     *ethtypes.Address0xHex
	listener StatusListener
	txHash   string
}

func NewPipeline(ctx context.Context, conf *gmconf.GMStreakConfig, c *Components) (Pipeline, error) {
	contractStr := confutil.StringNotEmpty(conf.Pipeline.ContractAddress, *gmconf.PipelineDefaults.ContractAddress)
	contract, err := ethtypes.NewAddress(contractStr)
	if err != nil {
		return nil, i18n.WrapError(ctx, err, msgs.MsgConfigInvalidAddress, "contract", contractStr)
	}
	defs := gmconf.PipelineDefaults
	p := &pipeline{
		c:              c,
		contract:       contract,
		defaultMessage: confutil.StringNotEmpty(conf.Pipeline.DefaultMessage, *defs.DefaultMessage),
		initTimeout:    confutil.DurationMin(conf.Pipeline.InitTimeout, time.Millisecond, *defs.InitTimeout),
		encryptTimeout: confutil.DurationMin(conf.Pipeline.EncryptTimeout, time.Millisecond, *defs.EncryptTimeout),
		signTimeout:    confutil.DurationMin(conf.Pipeline.SignTimeout, time.Millisecond, *defs.SignTimeout),
		fees:           broadcast.FeesFromConfig(&conf.Blockchain.Fees),
		status:         &Status{Phase: PhaseIdle},
	}
	p.bgCtx, p.bgCancel = context.WithCancel(log.WithComponent(context.WithoutCancel(ctx), "pipeline"))
	return p, nil
}

func (p *pipeline) Running() bool {
	return p.running.Load()
}

func (p *pipeline) Status() *Status {
	p.statusMux.Lock()
	defer p.statusMux.Unlock()
	s := *p.status
	return &s
}

// Close stops any post-submission refresh still running
func (p *pipeline) Close() {
	p.bgCancel()
	p.bgDone.Wait()
}

func (p *pipeline) setStatus(sc *SubmissionContext, phase Phase, category Category, err error) {
	s := &Status{RunID: sc.RunID, Phase: phase, TxHash: sc.txHash, Category: category, Err: err}
	p.statusMux.Lock()
	p.status = s
	p.statusMux.Unlock()
	if err != nil {
		log.L(sc).Errorf("Submission %s (%s): %s", phase, category, err)
	} else {
		log.L(sc).Infof("Submission %s", phase)
	}
	if sc.listener != nil {
		c := *s
		sc.listener(&c)
	}
}

func (p *pipeline) Submit(ctx context.Context, action *Action, listener StatusListener) (*Result, error) {
	if !p.running.CompareAndSwap(false, true) {
		log.L(ctx).Warnf("Submission already in progress, ignoring")
		return nil, nil
	}
	defer p.running.Store(false)

	runID := uuid.New().String()
	sc := &SubmissionContext{
		Context:  log.WithLogField(log.WithComponent(ctx, "pipeline"), "run", runID[0:8]),
		RunID:    runID,
		Action:   action,
		User:     p.c.Signer.Address(),
		listener: listener,
	}
	res, step, err := p.run(sc)
	if err != nil {
		category := Classify(step, err)
		p.setStatus(sc, PhaseFailed, category, err)
		p.c.Metrics.IncSubmission(string(category))
		return nil, &SubmissionError{Step: step, Category: category, Err: err}
	}
	p.setStatus(sc, PhaseSucceeded, "", nil)
	p.c.Metrics.IncSubmission("succeeded")
	return res, nil
}

func (p *pipeline) step(sc *SubmissionContext, phase Phase) func() {
	p.setStatus(sc, phase, "", nil)
	start := time.Now()
	return func() {
		p.c.Metrics.ObserveStep(string(phase), time.Since(start))
	}
}

func (p *pipeline) run(sc *SubmissionContext) (_ *Result, failedStep Phase, err error) {
	action := *sc.Action
	if action.Count <= 0 || action.Count >= 1<<encryptedCountBits {
		return nil, PhaseIdle, i18n.NewError(sc, msgs.MsgPipelineInvalidCount, action.Count)
	}
	if action.Category == "" {
		action.Category = gmtypes.CategoryForTime(p.c.Clock.Now())
	}
	if action.Message == "" {
		action.Message = p.defaultMessage
	}
	sc.Action = &action

	capability, err := p.acquireCapability(sc)
	if err != nil {
		return nil, PhaseInitializing, err
	}

	stepDone := p.step(sc, PhaseEncrypting)
	encrypted, err := WithTimeout(sc, "encryption", p.encryptTimeout, func(ctx context.Context) (*compute.EncryptedInput, error) {
		return capability.CreateEncryptedInput(p.contract, sc.User).
			AddUint(encryptedCountBits, uint64(action.Count)).
			Encrypt(ctx)
	})
	stepDone()
	if err == nil && len(encrypted.Handles) == 0 {
		err = i18n.NewError(sc, msgs.MsgComputeNoHandles)
	}
	if err != nil {
		return nil, PhaseEncrypting, err
	}
	handle := encrypted.Handles[0]

	stepDone = p.step(sc, PhaseSigning)
	signature, err := WithTimeout(sc, "signature", p.signTimeout, func(ctx context.Context) (ethtypes.HexBytes0xPrefix, error) {
		kp, err := capability.GenerateKeypair(ctx)
		if err != nil {
			return nil, err
		}
		return p.c.Signer.SignAttestation(ctx, &signing.Attestation{
			Handle:     handle,
			InputProof: encrypted.InputProof,
			PublicKey:  kp.PublicKey,
			User:       sc.User,
		})
	})
	stepDone()
	if err != nil {
		return nil, PhaseSigning, err
	}

	stepDone = p.step(sc, PhaseBroadcasting)
	pending, err := p.c.Broadcaster.Submit(sc, p.contract, broadcast.SubmitEncryptedGMSimple, []interface{}{
		handle.String(),
		encrypted.InputProof.String(),
		action.Category,
		action.Message,
	}, p.fees)
	stepDone()
	if err != nil {
		return nil, PhaseBroadcasting, err
	}
	sc.txHash = pending.Hash().String()

	stepDone = p.step(sc, PhaseConfirming)
	receipt, err := pending.Wait(sc)
	stepDone()
	if err != nil {
		return nil, PhaseConfirming, err
	}

	return p.done(sc, signature, receipt), "", nil
}

func (p *pipeline) acquireCapability(sc *SubmissionContext) (compute.Capability, error) {
	if !p.c.Compute.Ready() {
		defer p.step(sc, PhaseInitializing)()
	}
	acq, err := WithTimeout(sc, "SDK initialization", p.initTimeout, func(ctx context.Context) (*compute.Acquisition, error) {
		a := p.c.Compute.Acquire(ctx)
		if a.State != compute.Ready {
			log.L(ctx).Warnf("Confidential-compute capability %s", a.State)
			return nil, a.Err
		}
		return a, nil
	})
	if err != nil {
		return nil, err
	}
	return acq.Capability, nil
}

// done applies the optimistic increment and starts the post-submission refresh
func (p *pipeline) done(sc *SubmissionContext, signature ethtypes.HexBytes0xPrefix, receipt *broadcast.Receipt) *Result {
	user := sc.User.String()
	record := p.c.Reconciler.IncrementLocal(sc, user, sc.Action.Category)

	refreshed := make(chan *gmtypes.StreakRecord, 1)
	refreshCtx := log.WithLogField(p.bgCtx, "run", sc.RunID[0:8])
	p.bgDone.Add(1)
	go func() {
		defer p.bgDone.Done()
		defer close(refreshed)
		r, err := p.c.Reconciler.ForceRefreshAfterGM(refreshCtx, user)
		if err != nil {
			log.L(refreshCtx).Warnf("Post-submission refresh failed, falling back to a plain sync: %s", err)
			r = p.c.Reconciler.SyncWithOnchain(refreshCtx, user)
		}
		refreshed <- r
	}()

	return &Result{
		RunID:     sc.RunID,
		TxHash:    sc.txHash,
		Signature: signature,
		Receipt:   receipt,
		Record:    record,
		Refreshed: refreshed,
	}
}
