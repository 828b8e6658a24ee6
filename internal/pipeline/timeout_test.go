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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTimeoutResult(t *testing.T) {
	v, err := WithTimeout(context.Background(), "op", time.Second, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	_, err = WithTimeout(context.Background(), "op", time.Second, func(ctx context.Context) (string, error) {
		return "", fmt.Errorf("pop")
	})
	assert.EqualError(t, err, "pop")
}

func TestWithTimeoutExpires(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	var opCtx context.Context
	started := make(chan struct{})

	v, err := WithTimeout(context.Background(), "encryption", 10*time.Millisecond, func(ctx context.Context) (*int, error) {
		opCtx = ctx
		close(started)
		<-release
		return nil, nil
	})
	<-started
	assert.Nil(t, v)
	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "encryption", te.Operation)
	assert.Equal(t, 10*time.Millisecond, te.Timeout)
	assert.Regexp(t, "GM010600.*encryption timed out after 10ms", err)
	// the operation is not cancelled by the timeout
	assert.NoError(t, opCtx.Err())
}

func TestWithTimeoutPanic(t *testing.T) {
	_, err := WithTimeout(context.Background(), "signature", time.Second, func(ctx context.Context) (bool, error) {
		panic("boom")
	})
	assert.EqualError(t, err, "signature: boom")
}

func TestWithTimeoutCallerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	release := make(chan struct{})
	defer close(release)

	_, err := WithTimeout(ctx, "op", time.Hour, func(ctx context.Context) (int, error) {
		<-release
		return 1, nil
	})
	assert.Regexp(t, "GM010602", err)
}
