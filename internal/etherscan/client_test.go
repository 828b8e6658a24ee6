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

package etherscan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ntclick/GmGM/pkg/confutil"
	"github.com/ntclick/GmGM/pkg/gmconf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (context.Context, Client, func()) {
	ctx := context.Background()
	server := httptest.NewServer(handler)
	c, err := NewClient(ctx, &gmconf.EtherscanConfig{
		HTTPClientConfig:  gmconf.HTTPClientConfig{URL: server.URL + "/api"},
		APIKey:            "key1",
		RequestsPerSecond: confutil.P(0.0),
	})
	require.NoError(t, err)
	return ctx, c, server.Close
}

func TestQueryLogsOK(t *testing.T) {
	ctx, c, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/api", r.URL.Path)
		assert.Equal(t, "logs", q.Get("module"))
		assert.Equal(t, "getLogs", q.Get("action"))
		assert.Equal(t, "0xcontract", q.Get("address"))
		assert.Equal(t, "0xtopic", q.Get("topic0"))
		assert.Equal(t, "key1", q.Get("apikey"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"1","message":"OK","result":[
			{"address":"0xcontract","topics":["0xtopic"],"data":"0x","timeStamp":"0x65a0b0c0","transactionHash":"0xtx1"},
			{"address":"0xcontract","topics":["0xtopic"],"data":"0x","timeStamp":"0x65a0b0c1","transactionHash":"0xtx2"}
		]}`))
	})
	defer done()

	events, err := c.QueryLogs(ctx, "0xcontract", "0xtopic")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "0xtx2", events[1].TransactionHash)
	ts, ok := events[0].Time()
	assert.True(t, ok)
	assert.Equal(t, int64(0x65a0b0c0), ts.Unix())
}

func TestQueryLogsUnfiltered(t *testing.T) {
	ctx, c, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, hasTopic := r.URL.Query()["topic0"]
		assert.False(t, hasTopic)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"1","message":"OK","result":[]}`))
	})
	defer done()

	events, err := c.QueryLogs(ctx, "0xcontract", "")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestQueryLogsNoRecords(t *testing.T) {
	ctx, c, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"0","message":"No records found","result":[]}`))
	})
	defer done()

	events, err := c.QueryLogs(ctx, "0xcontract", "0xtopic")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestQueryLogsRateLimited(t *testing.T) {
	ctx, c, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"0","message":"NOTOK","result":"Max rate limit reached"}`))
	})
	defer done()

	_, err := c.QueryLogs(ctx, "0xcontract", "")
	assert.Regexp(t, "GM010201.*Max rate limit reached", err)
}

func TestQueryLogsMalformed(t *testing.T) {
	ctx, c, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"1","message":"OK","result":{"not":"a list"}}`))
	})
	defer done()

	_, err := c.QueryLogs(ctx, "0xcontract", "")
	assert.Regexp(t, "GM010204", err)
}

func TestQueryLogsHTTPError(t *testing.T) {
	ctx, c, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer done()

	_, err := c.QueryLogs(ctx, "0xcontract", "")
	assert.Regexp(t, "GM010200", err)
}

func TestBlockNumber(t *testing.T) {
	var calls atomic.Int32
	ctx, c, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "proxy", r.URL.Query().Get("module"))
		w.Header().Set("Content-Type", "application/json")
		if calls.Load() == 1 {
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":83,"result":"0x6c1b2a"}`))
		} else {
			_, _ = w.Write([]byte(`{"status":"0","message":"NOTOK","result":"Invalid API Key"}`))
		}
	})
	defer done()

	n, err := c.BlockNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x6c1b2a), n)

	_, err = c.BlockNumber(ctx)
	assert.Regexp(t, "GM010201.*Invalid API Key", err)
}

func TestRateLimitWaitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c, err := NewClient(ctx, &gmconf.EtherscanConfig{
		HTTPClientConfig:  gmconf.HTTPClientConfig{URL: "http://localhost:1"},
		RequestsPerSecond: confutil.P(0.001),
	})
	require.NoError(t, err)
	// consume the single burst token
	c.(*client).limiter.Allow()
	cancel()
	_, err = c.QueryLogs(ctx, "0xcontract", "")
	assert.Regexp(t, "GM010203", err)
}
