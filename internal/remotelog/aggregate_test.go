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
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ntclick/GmGM/internal/metrics"
	"github.com/ntclick/GmGM/pkg/confutil"
	"github.com/ntclick/GmGM/pkg/gmconf"
	"github.com/ntclick/GmGM/pkg/gmtypes"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type queryCall struct {
	contract string
	topic0   string
}

type mockLogs struct {
	mux         sync.Mutex
	calls       []queryCall
	queryLogs   func(topic0 string) ([]*gmtypes.Event, error)
	blockNumber func() (uint64, error)
}

func (m *mockLogs) QueryLogs(ctx context.Context, contractAddress, topic0 string) ([]*gmtypes.Event, error) {
	m.mux.Lock()
	m.calls = append(m.calls, queryCall{contract: contractAddress, topic0: topic0})
	m.mux.Unlock()
	return m.queryLogs(topic0)
}

func (m *mockLogs) BlockNumber(ctx context.Context) (uint64, error) {
	return m.blockNumber()
}

func (m *mockLogs) callCount() int {
	m.mux.Lock()
	defer m.mux.Unlock()
	return len(m.calls)
}

func eventAt(t time.Time, tx string) *gmtypes.Event {
	return &gmtypes.Event{TimeStamp: fmt.Sprintf("0x%x", t.Unix()), TransactionHash: tx}
}

var testNow = time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)

func newTestAggregateClient(t *testing.T, conf *gmconf.GMStreakConfig) (context.Context, *aggregateClient, *mockLogs, *gmtypes.ManualClock, *[]time.Duration) {
	ctx := context.Background()
	if conf == nil {
		conf = &gmconf.GMStreakConfig{}
	}
	logs := &mockLogs{}
	clock := gmtypes.NewManualClock(testNow)
	ac := NewAggregateClient(logs, "0xcontract", conf, clock, metrics.InitMetrics(ctx, prometheus.NewRegistry())).(*aggregateClient)
	sleeps := []time.Duration{}
	ac.sleep = func(ctx context.Context, d time.Duration) bool {
		sleeps = append(sleeps, d)
		return ctx.Err() == nil
	}
	return ctx, ac, logs, clock, &sleeps
}

func TestTotalCountCachedWithinTTL(t *testing.T) {
	ctx, ac, logs, clock, _ := newTestAggregateClient(t, nil)
	logs.queryLogs = func(topic0 string) ([]*gmtypes.Event, error) {
		assert.Empty(t, topic0)
		return []*gmtypes.Event{eventAt(testNow, "0x1"), eventAt(testNow, "0x2")}, nil
	}

	assert.Equal(t, int64(2), ac.TotalCount(ctx))
	clock.Advance(29 * time.Second)
	assert.Equal(t, int64(2), ac.TotalCount(ctx))
	assert.Equal(t, 1, logs.callCount())
	assert.Equal(t, "0xcontract", logs.calls[0].contract)

	clock.Advance(2 * time.Second)
	assert.Equal(t, int64(2), ac.TotalCount(ctx))
	assert.Equal(t, 2, logs.callCount())
}

func TestTotalCountFailureNotCached(t *testing.T) {
	ctx, ac, logs, _, _ := newTestAggregateClient(t, nil)
	fail := true
	logs.queryLogs = func(topic0 string) ([]*gmtypes.Event, error) {
		if fail {
			return nil, fmt.Errorf("Max rate limit reached")
		}
		return []*gmtypes.Event{eventAt(testNow, "0x1")}, nil
	}

	assert.Zero(t, ac.TotalCount(ctx))
	fail = false
	assert.Equal(t, int64(1), ac.TotalCount(ctx))
	assert.Equal(t, 2, logs.callCount())
}

func TestTodayCountWindow(t *testing.T) {
	ctx, ac, logs, _, _ := newTestAggregateClient(t, nil)
	startOfDay := gmtypes.StartOfUTCDay(testNow)
	logs.queryLogs = func(topic0 string) ([]*gmtypes.Event, error) {
		return []*gmtypes.Event{
			eventAt(startOfDay.Add(-time.Second), "yesterday"),
			eventAt(startOfDay, "midnight"),
			eventAt(testNow, "now"),
			eventAt(startOfDay.Add(24*time.Hour-time.Second), "last second"),
			eventAt(startOfDay.Add(24*time.Hour), "tomorrow"),
			{TimeStamp: "garbage", TransactionHash: "bad"},
		}, nil
	}

	assert.Equal(t, int64(3), ac.TodayCount(ctx))
	// total and today are cached under separate keys
	assert.Equal(t, int64(6), ac.TotalCount(ctx))
	assert.Equal(t, int64(3), ac.TodayCount(ctx))
	assert.Equal(t, 2, logs.callCount())
}

func TestTodayCountFailure(t *testing.T) {
	ctx, ac, logs, _, _ := newTestAggregateClient(t, nil)
	logs.queryLogs = func(topic0 string) ([]*gmtypes.Event, error) {
		return nil, fmt.Errorf("pop")
	}
	assert.Zero(t, ac.TodayCount(ctx))
}

func TestInvalidateCache(t *testing.T) {
	ctx, ac, logs, _, _ := newTestAggregateClient(t, nil)
	logs.queryLogs = func(topic0 string) ([]*gmtypes.Event, error) {
		return []*gmtypes.Event{}, nil
	}
	ac.TotalCount(ctx)
	ac.InvalidateCache()
	ac.TotalCount(ctx)
	assert.Equal(t, 2, logs.callCount())
}

func TestRawEventsFirstMatchingTopicWins(t *testing.T) {
	ctx, ac, logs, _, sleeps := newTestAggregateClient(t, &gmconf.GMStreakConfig{
		Etherscan: gmconf.EtherscanConfig{
			TopicCandidates: []string{"0xaaaa", "0xbbbb", "0xcccc"},
		},
	})
	logs.queryLogs = func(topic0 string) ([]*gmtypes.Event, error) {
		switch topic0 {
		case "0xaaaa":
			return []*gmtypes.Event{}, nil
		case "0xbbbb":
			return []*gmtypes.Event{eventAt(testNow, "0x1")}, nil
		}
		t.Fatalf("unexpected query %q", topic0)
		return nil, nil
	}

	events := ac.RawEvents(ctx, "0xuser")
	require.Len(t, events, 1)
	assert.Equal(t, []queryCall{{"0xcontract", "0xaaaa"}, {"0xcontract", "0xbbbb"}}, logs.calls)
	assert.Equal(t, []time.Duration{500 * time.Millisecond}, *sleeps)
}

func TestRawEventsFallsBackToUnfiltered(t *testing.T) {
	ctx, ac, logs, _, sleeps := newTestAggregateClient(t, &gmconf.GMStreakConfig{
		Etherscan: gmconf.EtherscanConfig{
			TopicCandidates: []string{"0xaaaa", "0xbbbb"},
			ProbeDelay:      confutil.P("100ms"),
			FallbackDelay:   confutil.P("200ms"),
		},
	})
	logs.queryLogs = func(topic0 string) ([]*gmtypes.Event, error) {
		switch topic0 {
		case "0xaaaa":
			return nil, fmt.Errorf("NOTOK")
		case "0xbbbb":
			return []*gmtypes.Event{}, nil
		default:
			return []*gmtypes.Event{eventAt(testNow, "0x1"), eventAt(testNow, "0x2")}, nil
		}
	}

	events := ac.RawEvents(ctx, "0xuser")
	assert.Len(t, events, 2)
	assert.Equal(t, []queryCall{{"0xcontract", "0xaaaa"}, {"0xcontract", "0xbbbb"}, {"0xcontract", ""}}, logs.calls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, *sleeps)
}

func TestRawEventsTotalFailureIsEmpty(t *testing.T) {
	ctx, ac, logs, _, _ := newTestAggregateClient(t, nil)
	logs.queryLogs = func(topic0 string) ([]*gmtypes.Event, error) {
		return nil, fmt.Errorf("pop")
	}
	events := ac.RawEvents(ctx, "0xuser")
	assert.NotNil(t, events)
	assert.Empty(t, events)
	// three default candidates plus the unfiltered fallback
	assert.Equal(t, 4, logs.callCount())
}

func TestRawEventsCancelledDuringDelay(t *testing.T) {
	_, ac, logs, _, _ := newTestAggregateClient(t, nil)
	logs.queryLogs = func(topic0 string) ([]*gmtypes.Event, error) {
		return []*gmtypes.Event{}, nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Empty(t, ac.RawEvents(ctx, "0xuser"))
	assert.Equal(t, 1, logs.callCount())
}

func TestNewProbePolicyDefaults(t *testing.T) {
	p := NewProbePolicy(&gmconf.EtherscanConfig{
		TopicCandidates: []string{"0x1", "", "0x1", "0x2"},
	})
	require.Len(t, p.Strategies, 2)
	assert.Equal(t, "0x1", p.Strategies[0].Topic0)
	assert.Equal(t, "0x2", p.Strategies[1].Topic0)
	assert.Empty(t, p.Fallback.Topic0)
	assert.Equal(t, 500*time.Millisecond, p.Delay)
	assert.Equal(t, time.Second, p.FallbackDelay)

	p = NewProbePolicy(&gmconf.EtherscanConfig{})
	assert.Len(t, p.Strategies, len(gmconf.EtherscanDefaults.TopicCandidates))
}

func TestSleepCtx(t *testing.T) {
	assert.True(t, sleepCtx(context.Background(), 0))
	assert.True(t, sleepCtx(context.Background(), time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleepCtx(ctx, time.Hour))
}
