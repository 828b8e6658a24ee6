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

type BlockchainConfig struct {
	HTTP    HTTPClientConfig `json:"http"`
	ChainID *int64           `json:"chainId"`
	// hex secp256k1 private key of the submitting account
	SignerKey string     `json:"signerKey"`
	Fees      FeesConfig `json:"fees"`
	// polling for the receipt of a broadcast transaction
	ReceiptPoll RetryConfigWithMax `json:"receiptPoll"`
}

type FeesConfig struct {
	GasLimit *uint64 `json:"gasLimit"`
	// in gwei
	MaxFeePerGas *string `json:"maxFeePerGas"`
	// in gwei
	MaxPriorityFeePerGas *string `json:"maxPriorityFeePerGas"`
}

var BlockchainDefaults = &BlockchainConfig{
	HTTP: HTTPClientConfig{
		URL: "https://ethereum-sepolia-rpc.publicnode.com",
	},
	ChainID: confutil.P(int64(11155111)),
	Fees: FeesConfig{
		GasLimit:             confutil.P(uint64(600000)),
		MaxFeePerGas:         confutil.P("30"),
		MaxPriorityFeePerGas: confutil.P("5"),
	},
	ReceiptPoll: RetryConfigWithMax{
		RetryConfig: RetryConfig{
			InitialDelay: confutil.P("1s"),
			MaxDelay:     confutil.P("12s"),
			Factor:       confutil.P(1.5),
		},
		// 0 polls until the receipt arrives or the context is cancelled
		MaxAttempts: confutil.P(0),
	},
}
