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
	"time"

	"github.com/ntclick/GmGM/pkg/confutil"
	"github.com/ntclick/GmGM/pkg/gmconf"
)

// ProbeStrategy is one event-signature filter to try. An empty Topic0 is the
// unfiltered query over every event of the contract.
type ProbeStrategy struct {
	Name   string
	Topic0 string
}

// ProbePolicy orders the strategies tried when listing raw events: each
// filtered strategy in turn until one returns events, then the fallback.
type ProbePolicy struct {
	Strategies    []ProbeStrategy
	Fallback      ProbeStrategy
	Delay         time.Duration
	FallbackDelay time.Duration
}

func NewProbePolicy(conf *gmconf.EtherscanConfig) *ProbePolicy {
	topics := confutil.StringSlice(conf.TopicCandidates, gmconf.EtherscanDefaults.TopicCandidates)
	p := &ProbePolicy{
		Fallback:      ProbeStrategy{Name: "unfiltered"},
		Delay:         confutil.DurationMin(conf.ProbeDelay, 0, *gmconf.EtherscanDefaults.ProbeDelay),
		FallbackDelay: confutil.DurationMin(conf.FallbackDelay, 0, *gmconf.EtherscanDefaults.FallbackDelay),
	}
	seen := map[string]bool{}
	for _, t := range topics {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		p.Strategies = append(p.Strategies, ProbeStrategy{Name: "topic0=" + t, Topic0: t})
	}
	return p
}
