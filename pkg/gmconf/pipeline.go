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

type PipelineConfig struct {
	ContractAddress *string           `json:"contractAddress"`
	DefaultMessage  *string           `json:"defaultMessage"`
	InitTimeout     *string           `json:"initTimeout"`
	EncryptTimeout  *string           `json:"encryptTimeout"`
	SignTimeout     *string           `json:"signTimeout"`
	Attestation     AttestationConfig `json:"attestation"`
}

// EIP-712 domain of the attestation signature
type AttestationConfig struct {
	Name              *string `json:"name"`
	Version           *string `json:"version"`
	VerifyingContract *string `json:"verifyingContract"`
}

var PipelineDefaults = &PipelineConfig{
	ContractAddress: confutil.P("0x72eEA702E909599bC92f75774c5f1cE41b8B59BA"),
	DefaultMessage:  confutil.P("GM"),
	InitTimeout:     confutil.P("60s"),
	EncryptTimeout:  confutil.P("15s"),
	SignTimeout:     confutil.P("10s"),
	Attestation: AttestationConfig{
		Name:              confutil.P("Zama FHE"),
		Version:           confutil.P("1"),
		VerifyingContract: confutil.P("0x0000000000000000000000000000000000000000"),
	},
}
