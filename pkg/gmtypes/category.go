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

import "time"

const (
	CategoryMorning   = "morning"
	CategoryAfternoon = "afternoon"
	CategoryEvening   = "evening"
	CategoryNight     = "night"
)

// CategoryForTime buckets the UTC hour of t
func CategoryForTime(t time.Time) string {
	switch h := t.UTC().Hour(); {
	case h >= 6 && h < 12:
		return CategoryMorning
	case h >= 12 && h < 18:
		return CategoryAfternoon
	case h >= 18:
		return CategoryEvening
	default:
		return CategoryNight
	}
}
