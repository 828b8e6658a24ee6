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
	"sync"
	"time"

	"github.com/ntclick/GmGM/pkg/gmtypes"
	"github.com/ntclick/GmGM/pkg/log"
	"github.com/ntclick/GmGM/pkg/persistence"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const appVersionKey = "app_version"

// RecordStore holds one StreakRecord per address. Reads never fail and writes
// are best-effort: the in-memory copy written by Put stays authoritative for
// the life of the process even if the database rejects it.
type RecordStore interface {
	Get(ctx context.Context, address string) *gmtypes.StreakRecord
	Put(ctx context.Context, address string, record *gmtypes.StreakRecord)
	// ResetOnVersionChange wipes all records when the stored app version differs
	ResetOnVersionChange(ctx context.Context, version string) (reset bool)
}

type streakRecordRow struct {
	Address       string `gorm:"column:address;primaryKey"`
	CurrentStreak int    `gorm:"column:current_streak"`
	BestStreak    int    `gorm:"column:best_streak"`
	TotalGMs      int64  `gorm:"column:total_gms"`
	TodayGMs      int64  `gorm:"column:today_gms"`
	LastGMDay     string `gorm:"column:last_gm_day"`
	LastGMTime    int64  `gorm:"column:last_gm_time"`
	LastCategory  string `gorm:"column:last_category"`
	LastSync      int64  `gorm:"column:last_sync"`
	OnchainEvents int64  `gorm:"column:onchain_events"`
	Updated       int64  `gorm:"column:updated"`
}

func (streakRecordRow) TableName() string {
	return "streak_records"
}

type appMetaRow struct {
	Key   string `gorm:"column:key;primaryKey"`
	Value string `gorm:"column:value"`
}

func (appMetaRow) TableName() string {
	return "app_meta"
}

type recordStore struct {
	p      persistence.Persistence
	mux    sync.Mutex
	memory map[string]*gmtypes.StreakRecord
}

func NewRecordStore(p persistence.Persistence) RecordStore {
	return &recordStore{
		p:      p,
		memory: make(map[string]*gmtypes.StreakRecord),
	}
}

func (rs *recordStore) Get(ctx context.Context, address string) *gmtypes.StreakRecord {
	key := gmtypes.NormalizeAddress(address)
	rs.mux.Lock()
	defer rs.mux.Unlock()
	if r, ok := rs.memory[key]; ok {
		return r.Copy()
	}

	var rows []*streakRecordRow
	err := rs.p.DB().WithContext(ctx).
		Where("address = ?", key).
		Limit(1).
		Find(&rows).
		Error
	if err != nil {
		log.L(ctx).Warnf("Failed to read streak record for %s (using defaults): %s", key, err)
		return &gmtypes.StreakRecord{}
	}
	if len(rows) == 0 {
		return &gmtypes.StreakRecord{}
	}
	r := rows[0].toRecord()
	rs.memory[key] = r
	return r.Copy()
}

func (rs *recordStore) Put(ctx context.Context, address string, record *gmtypes.StreakRecord) {
	key := gmtypes.NormalizeAddress(address)
	rs.mux.Lock()
	defer rs.mux.Unlock()
	rs.memory[key] = record.Copy()

	row := newRow(key, record)
	err := rs.p.DB().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "address"}},
			UpdateAll: true,
		}).
		Create(row).
		Error
	if err != nil {
		log.L(ctx).Warnf("Failed to persist streak record for %s (kept in memory): %s", key, err)
	}
}

func (rs *recordStore) ResetOnVersionChange(ctx context.Context, version string) (reset bool) {
	err := rs.p.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var meta []*appMetaRow
		if err := tx.Where(`"key" = ?`, appVersionKey).Limit(1).Find(&meta).Error; err != nil {
			return err
		}
		if len(meta) > 0 && meta[0].Value == version {
			return nil
		}
		previous := ""
		if len(meta) > 0 {
			previous = meta[0].Value
		}
		log.L(ctx).Infof("App version changed from '%s' to '%s': clearing streak records", previous, version)
		if err := tx.Where("1 = 1").Delete(&streakRecordRow{}).Error; err != nil {
			return err
		}
		reset = true
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			UpdateAll: true,
		}).Create(&appMetaRow{Key: appVersionKey, Value: version}).Error
	})
	if err != nil {
		log.L(ctx).Warnf("Failed to check app version: %s", err)
		return false
	}
	if reset {
		rs.mux.Lock()
		rs.memory = make(map[string]*gmtypes.StreakRecord)
		rs.mux.Unlock()
	}
	return reset
}

func newRow(key string, r *gmtypes.StreakRecord) *streakRecordRow {
	return &streakRecordRow{
		Address:       key,
		CurrentStreak: r.CurrentStreak,
		BestStreak:    r.BestStreak,
		TotalGMs:      r.TotalGMs,
		TodayGMs:      r.TodayGMs,
		LastGMDay:     r.LastGMDay,
		LastGMTime:    r.LastGMTime,
		LastCategory:  r.LastCategory,
		LastSync:      r.LastSync,
		OnchainEvents: r.OnchainEvents,
		Updated:       time.Now().UnixMilli(),
	}
}

func (row *streakRecordRow) toRecord() *gmtypes.StreakRecord {
	return &gmtypes.StreakRecord{
		CurrentStreak: row.CurrentStreak,
		BestStreak:    row.BestStreak,
		TotalGMs:      row.TotalGMs,
		TodayGMs:      row.TodayGMs,
		LastGMDay:     row.LastGMDay,
		LastGMTime:    row.LastGMTime,
		LastCategory:  row.LastCategory,
		LastSync:      row.LastSync,
		OnchainEvents: row.OnchainEvents,
	}
}
