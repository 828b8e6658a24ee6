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

type EtherscanConfig struct {
	HTTPClientConfig `json:",inline"`
	APIKey           string `json:"apiKey"`
	// client side rate limit, to stay inside the API key quota
	RequestsPerSecond *float64 `json:"requestsPerSecond"`
	Burst             *int     `json:"burst"`
	// event signature filters probed in order when listing raw events
	TopicCandidates []string `json:"topicCandidates"`
	ProbeDelay      *string  `json:"probeDelay"`
	FallbackDelay   *string  `json:"fallbackDelay"`
}

var EtherscanDefaults = &EtherscanConfig{
	HTTPClientConfig: HTTPClientConfig{
		URL: "https://api-sepolia.etherscan.io/api",
	},
	RequestsPerSecond: confutil.P(4.0),
	Burst:             confutil.P(1),
	TopicCandidates: []string{
		"0xEncryptedGMSubmitted",
		"0xGMSubmitted",
		"0xEncryptedGM",
	},
	ProbeDelay:    confutil.P("500ms"),
	FallbackDelay: confutil.P("1s"),
}
