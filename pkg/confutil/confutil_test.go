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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIntHelpers(t *testing.T) {
	assert.Equal(t, 5, Int(nil, 5))
	assert.Equal(t, 3, Int(P(3), 5))
	assert.Equal(t, 10, IntMin(P(1), 10, 20))
	assert.Equal(t, 20, IntMin(nil, 10, 20))
	assert.Equal(t, int64(7), Int64(nil, 7))
	assert.Equal(t, uint64(9), Uint64(P(uint64(9)), 1))
}

func TestFloatAndBool(t *testing.T) {
	assert.Equal(t, 1.5, Float64Min(nil, 0, 1.5))
	assert.Equal(t, 0.1, Float64Min(P(0.01), 0.1, 1.5))
	assert.True(t, Bool(nil, true))
	assert.False(t, Bool(P(false), true))
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "def", StringNotEmpty(nil, "def"))
	assert.Equal(t, "def", StringNotEmpty(P(""), "def"))
	assert.Equal(t, "val", StringNotEmpty(P("val"), "def"))
	assert.Equal(t, []string{"a"}, StringSlice(nil, []string{"a"}))
	assert.Equal(t, []string{}, StringSlice([]string{}, []string{"a"}))
}

func TestDurationMin(t *testing.T) {
	assert.Equal(t, 30*time.Second, DurationMin(nil, 0, "30s"))
	assert.Equal(t, 30*time.Second, DurationMin(P("bad"), 0, "30s"))
	assert.Equal(t, 5*time.Second, DurationMin(P("1ms"), 5*time.Second, "30s"))
	assert.Equal(t, time.Minute, DurationMin(P("1m"), 0, "30s"))
}

func TestBigIntAndGwei(t *testing.T) {
	assert.Equal(t, big.NewInt(255), BigInt(P("0xff"), "0"))
	assert.Equal(t, big.NewInt(10), BigInt(P("nope"), "10"))
	assert.Equal(t, big.NewInt(30_000_000_000), Gwei(nil, "30"))
	assert.Equal(t, big.NewInt(1_500_000_000), Gwei(P("1.5"), "30"))
	assert.Equal(t, big.NewInt(5_000_000_000), Gwei(P("-1"), "5"))
}

func TestByteSize(t *testing.T) {
	assert.Equal(t, int64(100*1024*1024), ByteSize(nil, 0, "100Mb"))
	assert.Equal(t, int64(1024), ByteSize(P("1Kb"), 0, "100Mb"))
	assert.Equal(t, int64(4096), ByteSize(P("1Kb"), 4096, "100Mb"))
}
