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

package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := InitMetrics(context.Background(), registry)
	assert.Equal(t, registry, m.Registry())

	m.IncRemoteQuery("total", "ok")
	m.IncRemoteQuery("total", "ok")
	m.IncRemoteQuery("today", "error")
	m.IncSync("silent", "ok")
	m.IncSubmission("succeeded")
	m.ObserveStep("encrypt", 2*time.Second)

	families, err := registry.Gather()
	require.NoError(t, err)

	// gathered families are sorted by name
	byName := map[string]int{}
	for i, f := range families {
		byName[f.GetName()] = i
	}
	rq := families[byName["gmstreak_remotelog_queries_total"]]
	require.Len(t, rq.GetMetric(), 2)
	counts := map[string]float64{}
	for _, m := range rq.GetMetric() {
		labels := map[string]string{}
		for _, l := range m.GetLabel() {
			labels[l.GetName()] = l.GetValue()
		}
		counts[labels["query"]+"/"+labels["outcome"]] = m.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{"total/ok": 2, "today/error": 1}, counts)

	sub := families[byName["gmstreak_pipeline_submissions_total"]]
	assert.Equal(t, "succeeded", sub.GetMetric()[0].GetLabel()[0].GetValue())

	steps := families[byName["gmstreak_pipeline_step_seconds"]]
	assert.Equal(t, uint64(1), steps.GetMetric()[0].GetHistogram().GetSampleCount())

	_, ok := byName["gmstreak_reconcile_syncs_total"]
	assert.True(t, ok)
}
