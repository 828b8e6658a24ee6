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

package gmtypes

import (
	"strconv"
	"strings"
	"time"
)

const DayFormat = "2006-01-02"

// StreakRecord is the per-address view of a user's streak, as returned to callers
type StreakRecord struct {
	CurrentStreak int    `json:"currentStreak"`
	BestStreak    int    `json:"bestStreak"`
	TotalGMs      int64  `json:"totalGMs"`
	TodayGMs      int64  `json:"todayGMs"`
	LastGMDay     string `json:"lastGMDay"`
	LastGMTime    int64  `json:"lastGMTime"`
	LastCategory  string `json:"lastCategory"`
	LastSync      int64  `json:"lastSync"`
	OnchainEvents int64  `json:"onchainEvents"`
}

// IsPristine is true for a record that has never been incremented or bootstrapped
func (r *StreakRecord) IsPristine() bool {
	return r.CurrentStreak == 0 && r.LastGMDay == ""
}

func (r *StreakRecord) Copy() *StreakRecord {
	c := *r
	return &c
}

// Day is the UTC calendar day of a timestamp, the unit streaks are counted in
func Day(t time.Time) string {
	return t.UTC().Format(DayFormat)
}

func StartOfUTCDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NormalizeAddress gives the storage key form of an address
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// Event is one entry of the remote event log, as returned by the indexer
type Event struct {
	Address          string   `json:"address"`
	Topics           []string `json:"topics"`
	Data             string   `json:"data"`
	BlockNumber      string   `json:"blockNumber"`
	TimeStamp        string   `json:"timeStamp"`
	LogIndex         string   `json:"logIndex"`
	TransactionHash  string   `json:"transactionHash"`
	TransactionIndex string   `json:"transactionIndex"`
}

// Time parses the hex unix seconds of the event, with or without the 0x prefix
func (e *Event) Time() (time.Time, bool) {
	s := strings.TrimSpace(e.TimeStamp)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	secs, err := strconv.ParseInt(s, 16, 64)
	if err != nil || s == "" {
		return time.Time{}, false
	}
	return time.Unix(secs, 0).UTC(), true
}
