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

package gmconf

import "github.com/ntclick/GmGM/pkg/confutil"

type MetricsConfig struct {
	Enabled *bool   `json:"enabled"`
	Address *string `json:"address"`
	Path    *string `json:"path"`
}

var MetricsDefaults = &MetricsConfig{
	Enabled: confutil.P(false),
	Address: confutil.P("127.0.0.1:9464"),
	Path:    confutil.P("/metrics"),
}
