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

package retry

import (
	"context"
	"time"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/ntclick/GmGM/internal/msgs"
	"github.com/ntclick/GmGM/pkg/confutil"
	"github.com/ntclick/GmGM/pkg/gmconf"
	"github.com/ntclick/GmGM/pkg/log"
)

type Retry struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	factor       float64
	maxAttempts  int
}

func NewRetryLimited(conf *gmconf.RetryConfigWithMax, defs *gmconf.RetryConfigWithMax) *Retry {
	return &Retry{
		initialDelay: confutil.DurationMin(conf.InitialDelay, 0, *defs.InitialDelay),
		maxDelay:     confutil.DurationMin(conf.MaxDelay, 0, *defs.MaxDelay),
		factor:       confutil.Float64Min(conf.Factor, 1.0, *defs.Factor),
		maxAttempts:  confutil.IntMin(conf.MaxAttempts, 0, *defs.MaxAttempts),
	}
}

// Do invokes the function until it succeeds, returns retryable=false, or the
// attempts are exhausted. Values are passed out through the closure.
func (r *Retry) Do(ctx context.Context, do func(attempt int) (retryable bool, err error)) error {
	for attempt := 1; ; attempt++ {
		retryable, err := do(attempt)
		if err == nil || !retryable || (r.maxAttempts > 0 && attempt >= r.maxAttempts) {
			return err
		}
		log.L(ctx).Debugf("%s (attempt=%d)", err, attempt)
		if err := r.WaitDelay(ctx, attempt); err != nil {
			return err
		}
	}
}

func (r *Retry) WaitDelay(ctx context.Context, failureCount int) error {
	delay := r.initialDelay
	for i := 1; i < failureCount; i++ {
		delay = time.Duration(float64(delay) * r.factor)
		if delay > r.maxDelay {
			delay = r.maxDelay
			break
		}
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return i18n.NewError(ctx, msgs.MsgContextCanceled)
	}
}
