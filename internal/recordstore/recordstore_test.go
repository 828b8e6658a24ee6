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

package recordstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/ntclick/GmGM/pkg/gmtypes"
	"github.com/ntclick/GmGM/pkg/persistence"
	"github.com/ntclick/GmGM/pkg/persistence/mockpersistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecordStore(t *testing.T) (context.Context, *recordStore, func()) {
	ctx := context.Background()
	p, done, err := persistence.NewUnitTestPersistence(ctx)
	require.NoError(t, err)
	return ctx, NewRecordStore(p).(*recordStore), done
}

func TestGetDefaultRecord(t *testing.T) {
	ctx, rs, done := newTestRecordStore(t)
	defer done()

	r := rs.Get(ctx, "0xAbC")
	assert.Equal(t, &gmtypes.StreakRecord{}, r)
	assert.True(t, r.IsPristine())
}

func TestPutGetRoundTripThroughDB(t *testing.T) {
	ctx, rs, done := newTestRecordStore(t)
	defer done()

	rec := &gmtypes.StreakRecord{
		CurrentStreak: 3,
		BestStreak:    5,
		TotalGMs:      10,
		TodayGMs:      1,
		LastGMDay:     "2025-03-01",
		LastGMTime:    1740787200000,
		LastCategory:  "morning",
		LastSync:      1740787201000,
		OnchainEvents: 9,
	}
	rs.Put(ctx, "0xAbC", rec)
	rec.CurrentStreak = 99 // caller mutation does not leak in

	// a second store over the same DB has no memory, so reads the row
	rs2 := NewRecordStore(rs.p)
	r := rs2.Get(ctx, "0xabc")
	assert.Equal(t, 3, r.CurrentStreak)
	assert.Equal(t, "morning", r.LastCategory)
	assert.Equal(t, int64(9), r.OnchainEvents)

	// upsert
	r.CurrentStreak = 4
	rs2.Put(ctx, "0xABC", r)
	r = NewRecordStore(rs.p).Get(ctx, "0xabc")
	assert.Equal(t, 4, r.CurrentStreak)
}

func TestGetReturnsCopy(t *testing.T) {
	ctx, rs, done := newTestRecordStore(t)
	defer done()

	rs.Put(ctx, "0x1", &gmtypes.StreakRecord{CurrentStreak: 1})
	r := rs.Get(ctx, "0x1")
	r.CurrentStreak = 50
	assert.Equal(t, 1, rs.Get(ctx, "0x1").CurrentStreak)
}

func TestPersistenceFailuresSwallowed(t *testing.T) {
	ctx := context.Background()
	mp, err := mockpersistence.NewSQLMockProvider()
	require.NoError(t, err)
	rs := NewRecordStore(mp.P)

	mp.Mock.ExpectQuery("SELECT.*streak_records").WillReturnError(fmt.Errorf("pop"))
	r := rs.Get(ctx, "0x1")
	assert.Equal(t, &gmtypes.StreakRecord{}, r)

	mp.Mock.ExpectExec("INSERT.*streak_records").WillReturnError(fmt.Errorf("disk full"))
	rs.Put(ctx, "0x1", &gmtypes.StreakRecord{CurrentStreak: 2, LastGMDay: "2025-03-01"})

	// the in-memory copy is authoritative, with no further DB read
	r = rs.Get(ctx, "0x1")
	assert.Equal(t, 2, r.CurrentStreak)
	assert.NoError(t, mp.Mock.ExpectationsWereMet())
}

func TestResetOnVersionChange(t *testing.T) {
	ctx, rs, done := newTestRecordStore(t)
	defer done()

	assert.True(t, rs.ResetOnVersionChange(ctx, "1.0.0"))
	rs.Put(ctx, "0x1", &gmtypes.StreakRecord{CurrentStreak: 2, LastGMDay: "2025-03-01"})

	assert.False(t, rs.ResetOnVersionChange(ctx, "1.0.0"))
	assert.Equal(t, 2, rs.Get(ctx, "0x1").CurrentStreak)

	assert.True(t, rs.ResetOnVersionChange(ctx, "1.1.0"))
	assert.True(t, rs.Get(ctx, "0x1").IsPristine())
	assert.True(t, NewRecordStore(rs.p).Get(ctx, "0x1").IsPristine())
}

func TestResetOnVersionChangeDBFailure(t *testing.T) {
	ctx := context.Background()
	mp, err := mockpersistence.NewSQLMockProvider()
	require.NoError(t, err)
	rs := NewRecordStore(mp.P)

	mp.Mock.ExpectBegin()
	mp.Mock.ExpectQuery("SELECT.*app_meta").WillReturnError(fmt.Errorf("pop"))
	mp.Mock.ExpectRollback()
	assert.False(t, rs.ResetOnVersionChange(ctx, "1.0.0"))
	assert.NoError(t, mp.Mock.ExpectationsWereMet())
}
