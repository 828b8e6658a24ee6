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
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "gmstreak"

type Metrics interface {
	IncRemoteQuery(query, outcome string)
	IncSync(kind, outcome string)
	IncSubmission(outcome string)
	ObserveStep(step string, duration time.Duration)
	Registry() *prometheus.Registry
}

type gmMetrics struct {
	registry      *prometheus.Registry
	remoteQueries *prometheus.CounterVec
	syncs         *prometheus.CounterVec
	submissions   *prometheus.CounterVec
	stepSeconds   *prometheus.HistogramVec
}

func InitMetrics(ctx context.Context, registry *prometheus.Registry) Metrics {
	m := &gmMetrics{registry: registry}

	m.remoteQueries = prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: metricsNamespace,
		Subsystem: "remotelog", Name: "queries_total",
		Help: "Queries against the remote event log by outcome"}, []string{"query", "outcome"})
	m.syncs = prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: metricsNamespace,
		Subsystem: "reconcile", Name: "syncs_total",
		Help: "Reconciliations of local streak records with the remote event log"}, []string{"kind", "outcome"})
	m.submissions = prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: metricsNamespace,
		Subsystem: "pipeline", Name: "submissions_total",
		Help: "Confidential submission pipeline runs by outcome"}, []string{"outcome"})
	m.stepSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: metricsNamespace,
		Subsystem: "pipeline", Name: "step_seconds",
		Help:    "Duration of each confidential submission pipeline step",
		Buckets: []float64{0.05, 0.25, 1, 5, 15, 60, 300}}, []string{"step"})

	registry.MustRegister(m.remoteQueries, m.syncs, m.submissions, m.stepSeconds)
	return m
}

func (m *gmMetrics) IncRemoteQuery(query, outcome string) {
	m.remoteQueries.With(prometheus.Labels{"query": query, "outcome": outcome}).Inc()
}

func (m *gmMetrics) IncSync(kind, outcome string) {
	m.syncs.With(prometheus.Labels{"kind": kind, "outcome": outcome}).Inc()
}

func (m *gmMetrics) IncSubmission(outcome string) {
	m.submissions.With(prometheus.Labels{"outcome": outcome}).Inc()
}

func (m *gmMetrics) ObserveStep(step string, duration time.Duration) {
	m.stepSeconds.With(prometheus.Labels{"step": step}).Observe(duration.Seconds())
}

func (m *gmMetrics) Registry() *prometheus.Registry {
	return m.registry
}
