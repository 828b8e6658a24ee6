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
	"fmt"
	"time"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/ntclick/GmGM/internal/msgs"
)

type TimeoutError struct {
	Operation string
	Timeout   time.Duration
	err       error
}

func (te *TimeoutError) Error() string {
	return te.err.Error()
}

func (te *TimeoutError) Unwrap() error {
	return te.err
}

// WithTimeout races op against a timer. The operation receives the caller's
// context rather than one bounded by the timeout: when the timer wins, op is
// left to finish in the background and its result is discarded.
func WithTimeout[T any](ctx context.Context, operation string, timeout time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if panicked := recover(); panicked != nil {
				var zero T
				ch <- result{zero, fmt.Errorf("%s: %v", operation, panicked)}
			}
		}()
		v, err := op(ctx)
		ch <- result{v, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	var zero T
	select {
	case r := <-ch:
		return r.v, r.err
	case <-timer.C:
		return zero, &TimeoutError{
			Operation: operation,
			Timeout:   timeout,
			err:       i18n.NewError(ctx, msgs.MsgPipelineStepTimeout, operation, timeout),
		}
	case <-ctx.Done():
		return zero, i18n.NewError(ctx, msgs.MsgContextCanceled)
	}
}
