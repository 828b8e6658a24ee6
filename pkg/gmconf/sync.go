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

type SyncConfig struct {
	Interval    *string `json:"interval"`
	SettleDelay *string `json:"settleDelay"`
	CacheTTL    *string `json:"cacheTTL"`
	CacheSize   *int    `json:"cacheSize"`
}

var SyncDefaults = &SyncConfig{
	Interval:    confutil.P("10m"),
	SettleDelay: confutil.P("3s"),
	CacheTTL:    confutil.P("30s"),
	CacheSize:   confutil.P(64),
}
