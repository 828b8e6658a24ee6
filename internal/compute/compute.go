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

package compute

import (
	"context"
	"encoding/hex"
	"sync"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-signer/pkg/ethtypes"
	"github.com/ntclick/GmGM/internal/msgs"
	"github.com/ntclick/GmGM/pkg/log"
)

// Handle references a ciphertext held by the confidential-compute runtime
type Handle [32]byte

func (h Handle) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

type EncryptedInput struct {
	Handles    []Handle
	InputProof ethtypes.HexBytes0xPrefix
}

type Keypair struct {
	PublicKey  ethtypes.HexBytes0xPrefix `json:"publicKey"`
	PrivateKey ethtypes.HexBytes0xPrefix `json:"privateKey"`
}

// InputBuilder collects plaintext values bound to one contract and user.
// Validation errors are held and returned from Encrypt.
type InputBuilder interface {
	AddUint(bits int, value uint64) InputBuilder
	Encrypt(ctx context.Context) (*EncryptedInput, error)
}

type Capability interface {
	CreateEncryptedInput(contractAddress, userAddress *ethtypes.Address0xHex) InputBuilder
	GenerateKeypair(ctx context.Context) (*Keypair, error)
}

// Initializer performs the one-time, potentially slow, runtime start-up
type Initializer func(ctx context.Context) (Capability, error)

type State int

const (
	Ready State = iota
	NotReady
	Unavailable
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case NotReady:
		return "not-ready"
	default:
		return "unavailable"
	}
}

// Acquisition is the result of asking a Provider for the capability.
// Capability is only set when State is Ready.
type Acquisition struct {
	State      State
	Capability Capability
	Err        error
}

// Provider memoizes a Capability. At most one initialization runs at a time;
// callers arriving while it runs get NotReady. A failed initialization is
// reported as Unavailable and retried by the next caller.
type Provider interface {
	Acquire(ctx context.Context) *Acquisition
	Ready() bool
}

type provider struct {
	init       Initializer
	mux        sync.Mutex
	capability Capability
	inflight   bool
}

func NewProvider(init Initializer) Provider {
	return &provider{init: init}
}

func (p *provider) Ready() bool {
	p.mux.Lock()
	defer p.mux.Unlock()
	return p.capability != nil
}

func (p *provider) Acquire(ctx context.Context) *Acquisition {
	p.mux.Lock()
	if p.capability != nil {
		c := p.capability
		p.mux.Unlock()
		return &Acquisition{State: Ready, Capability: c}
	}
	if p.inflight {
		p.mux.Unlock()
		return &Acquisition{State: NotReady, Err: i18n.NewError(ctx, msgs.MsgComputeNotReady)}
	}
	p.inflight = true
	p.mux.Unlock()

	// The initialization outlives a caller that gives up waiting, so a later
	// Acquire can pick up the result.
	done := make(chan *Acquisition, 1)
	go p.initialize(context.WithoutCancel(ctx), done)

	select {
	case a := <-done:
		return a
	case <-ctx.Done():
		return &Acquisition{State: NotReady, Err: i18n.NewError(ctx, msgs.MsgComputeNotReady)}
	}
}

func (p *provider) initialize(ctx context.Context, done chan<- *Acquisition) {
	var a *Acquisition
	defer func() {
		if panicked := recover(); panicked != nil {
			log.L(ctx).Errorf("Confidential-compute initialization panicked: %v", panicked)
			a = &Acquisition{State: Unavailable, Err: i18n.NewError(ctx, msgs.MsgComputeUnavailable, panicked)}
		}
		p.mux.Lock()
		p.inflight = false
		if a.State == Ready {
			p.capability = a.Capability
		}
		p.mux.Unlock()
		done <- a
	}()

	log.L(ctx).Infof("Initializing confidential-compute capability")
	c, err := p.init(ctx)
	if err == nil && c == nil {
		err = i18n.NewError(ctx, msgs.MsgComputeUnavailable, "no capability returned")
	}
	if err != nil {
		log.L(ctx).Errorf("Confidential-compute initialization failed: %s", err)
		a = &Acquisition{State: Unavailable, Err: err}
		return
	}
	log.L(ctx).Infof("Confidential-compute capability ready")
	a = &Acquisition{State: Ready, Capability: c}
}
