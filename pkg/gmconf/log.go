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

type LogConfig struct {
	// the logging level
	Level *string `json:"level"`
	// 'simple' or 'json'
	Format *string `json:"format"`
	// 'stderr', 'stdout' or 'file'
	Output       *string       `json:"output"`
	DisableColor *bool         `json:"disableColor"`
	TimeFormat   *string       `json:"timeFormat"`
	UTC          *bool         `json:"utc"`
	File         LogFileConfig `json:"file"`
}

type LogFileConfig struct {
	Filename   *string `json:"filename"`
	MaxSize    *string `json:"maxSize"`
	MaxBackups *int    `json:"maxBackups"`
	MaxAge     *string `json:"maxAge"`
	Compress   *bool   `json:"compress"`
}

var LogDefaults = &LogConfig{
	Level:        confutil.P("info"),
	Format:       confutil.P("simple"),
	Output:       confutil.P("stderr"),
	DisableColor: confutil.P(false),
	TimeFormat:   confutil.P("2006-01-02T15:04:05.000Z07:00"),
	UTC:          confutil.P(true),
	File: LogFileConfig{
		Filename:   confutil.P("gmstreak.log"),
		MaxSize:    confutil.P("50Mb"),
		MaxBackups: confutil.P(3),
		MaxAge:     confutil.P("72h"),
		Compress:   confutil.P(true),
	},
}
