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

import (
	"context"
	"os"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/ntclick/GmGM/internal/msgs"

	"sigs.k8s.io/yaml"
)

type GMStreakConfig struct {
	// the version of the local data layout; a change wipes stored streak records
	AppVersion *string          `json:"appVersion"`
	Log        LogConfig        `json:"log"`
	DB         DBConfig         `json:"db"`
	Etherscan  EtherscanConfig  `json:"etherscan"`
	Blockchain BlockchainConfig `json:"blockchain"`
	Compute    ComputeConfig    `json:"compute"`
	Pipeline   PipelineConfig   `json:"pipeline"`
	Sync       SyncConfig       `json:"sync"`
	Metrics    MetricsConfig    `json:"metrics"`
}

var AppVersionDefault = "1.0.0"

// ReadAndParseYAMLFile uses the k8s YAML parser, so the json tags on the config structs apply.
func ReadAndParseYAMLFile(ctx context.Context, filePath string, config interface{}) error {
	data, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return i18n.NewError(ctx, msgs.MsgConfigFileMissing, filePath)
	} else if err != nil {
		return i18n.NewError(ctx, msgs.MsgConfigFileReadError, filePath, err.Error())
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return i18n.NewError(ctx, msgs.MsgConfigFileParseError, err.Error())
	}
	return nil
}
