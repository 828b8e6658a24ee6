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

package metricsserver

import (
	"context"
	"net"

	"github.com/gorilla/mux"
	"github.com/ntclick/GmGM/pkg/confutil"
	"github.com/ntclick/GmGM/pkg/gmconf"
	"github.com/ntclick/GmGM/pkg/httpserver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MetricsServer interface {
	Start() error
	Stop()
	Addr() net.Addr
}

// NewMetricsServer returns a server with nothing listening when metrics are disabled
func NewMetricsServer(ctx context.Context, registry *prometheus.Registry, conf *gmconf.MetricsConfig) (_ MetricsServer, err error) {
	s := &metricsServer{}
	if confutil.Bool(conf.Enabled, *gmconf.MetricsDefaults.Enabled) {
		r := mux.NewRouter()
		r.Handle(confutil.StringNotEmpty(conf.Path, *gmconf.MetricsDefaults.Path), promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		s.httpServer, err = httpserver.NewServer(ctx, "Metrics", confutil.StringNotEmpty(conf.Address, *gmconf.MetricsDefaults.Address), r)
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

var _ MetricsServer = &metricsServer{}

type metricsServer struct {
	httpServer httpserver.Server
}

func (s *metricsServer) Start() (err error) {
	if s.httpServer != nil {
		err = s.httpServer.Start()
	}
	return err
}

func (s *metricsServer) Stop() {
	if s.httpServer != nil {
		s.httpServer.Stop()
	}
}

func (s *metricsServer) Addr() (a net.Addr) {
	if s.httpServer != nil {
		a = s.httpServer.Addr()
	}
	return a
}
