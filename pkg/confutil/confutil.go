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

package confutil

import (
	"math/big"
	"time"

	"github.com/docker/go-units"
)

// Helpers for resolving optional pointer config fields against their defaults.
// The log package depends on this package, so nothing here may log.

func Int(iVal *int, def int) int {
	if iVal == nil {
		return def
	}
	return *iVal
}

func IntMin(iVal *int, min int, def int) int {
	v := Int(iVal, def)
	if v < min {
		return min
	}
	return v
}

func Int64(iVal *int64, def int64) int64 {
	if iVal == nil {
		return def
	}
	return *iVal
}

func Uint64(iVal *uint64, def uint64) uint64 {
	if iVal == nil {
		return def
	}
	return *iVal
}

func Float64Min(fVal *float64, min float64, def float64) float64 {
	if fVal == nil {
		return def
	} else if *fVal < min {
		return min
	}
	return *fVal
}

func Bool(bVal *bool, def bool) bool {
	if bVal == nil {
		return def
	}
	return *bVal
}

func StringNotEmpty(sVal *string, def string) string {
	if sVal == nil || *sVal == "" {
		return def
	}
	return *sVal
}

func StringSlice(sVal []string, def []string) []string {
	if sVal == nil {
		return def
	}
	return sVal
}

// DurationMin parses a Go duration string, falling back to def when unset or
// unparseable, and clamping to min.
func DurationMin(sVal *string, min time.Duration, def string) time.Duration {
	defDuration, _ := time.ParseDuration(def)
	d := defDuration
	if sVal != nil {
		if parsed, err := time.ParseDuration(*sVal); err == nil {
			d = parsed
		}
	}
	if d < min {
		return min
	}
	return d
}

// BigInt accepts decimal or 0x prefixed hex.
func BigInt(sVal *string, def string) *big.Int {
	if sVal != nil {
		if bi, ok := new(big.Int).SetString(*sVal, 0); ok {
			return bi
		}
	}
	bi, _ := new(big.Int).SetString(def, 0)
	return bi
}

// Gwei resolves a fee value expressed in gwei (decimal, fractional allowed) to wei.
func Gwei(sVal *string, def string) *big.Int {
	parse := func(s string) (*big.Int, bool) {
		f, ok := new(big.Float).SetString(s)
		if !ok || f.Sign() < 0 {
			return nil, false
		}
		wei, _ := f.Mul(f, big.NewFloat(1e9)).Int(nil)
		return wei, true
	}
	if sVal != nil {
		if wei, ok := parse(*sVal); ok {
			return wei
		}
	}
	wei, _ := parse(def)
	return wei
}

func ByteSize(sVal *string, min int64, def string) int64 {
	b, _ := units.RAMInBytes(def)
	if sVal != nil {
		if parsed, err := units.RAMInBytes(*sVal); err == nil {
			b = parsed
		}
	}
	if b < min {
		return min
	}
	return b
}

func P[T any](v T) *T {
	return &v
}
