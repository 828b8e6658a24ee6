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
	"fmt"
	"testing"

	"github.com/ntclick/GmGM/pkg/confutil"
	"github.com/ntclick/GmGM/pkg/gmconf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRetry(maxAttempts int) *Retry {
	return NewRetryLimited(&gmconf.RetryConfigWithMax{
		RetryConfig: gmconf.RetryConfig{
			InitialDelay: confutil.P("1ms"),
			MaxDelay:     confutil.P("2ms"),
		},
		MaxAttempts: confutil.P(maxAttempts),
	}, gmconf.RetryDefaults)
}

func TestRetrySucceedsEventually(t *testing.T) {
	calls := 0
	err := newTestRetry(5).Do(context.Background(), func(attempt int) (bool, error) {
		calls++
		if attempt < 3 {
			return true, fmt.Errorf("pop")
		}
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryExhausted(t *testing.T) {
	calls := 0
	err := newTestRetry(2).Do(context.Background(), func(attempt int) (bool, error) {
		calls++
		return true, fmt.Errorf("pop")
	})
	assert.EqualError(t, err, "pop")
	assert.Equal(t, 2, calls)
}

func TestRetryUnlimited(t *testing.T) {
	calls := 0
	err := newTestRetry(0).Do(context.Background(), func(attempt int) (bool, error) {
		calls++
		if attempt < 8 {
			return true, fmt.Errorf("pop")
		}
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 8, calls)
}

func TestRetryUnlimitedStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := newTestRetry(0).Do(ctx, func(attempt int) (bool, error) {
		calls++
		if attempt == 3 {
			cancel()
		}
		return true, fmt.Errorf("pop")
	})
	assert.Regexp(t, "GM010602", err)
	assert.Equal(t, 3, calls)
}

func TestRetryNotRetryable(t *testing.T) {
	calls := 0
	err := newTestRetry(5).Do(context.Background(), func(attempt int) (bool, error) {
		calls++
		return false, fmt.Errorf("fatal")
	})
	assert.EqualError(t, err, "fatal")
	assert.Equal(t, 1, calls)
}

func TestRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := newTestRetry(5).Do(ctx, func(attempt int) (bool, error) {
		return true, fmt.Errorf("pop")
	})
	assert.Regexp(t, "GM010602", err)
}
