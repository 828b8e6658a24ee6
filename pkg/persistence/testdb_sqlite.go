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

package persistence

import (
	"context"

	"github.com/ntclick/GmGM/pkg/confutil"
	"github.com/ntclick/GmGM/pkg/gmconf"
)

// NewUnitTestPersistence returns a migrated in-memory sqlite DB, for tests at
// a package depth of two below the repository root.
func NewUnitTestPersistence(ctx context.Context) (Persistence, func(), error) {
	p, err := NewPersistence(ctx, &gmconf.DBConfig{
		Type: TypeSQLite,
		SQLite: gmconf.SQLDBConfig{
			DSN:           ":memory:",
			AutoMigrate:   confutil.P(true),
			MigrationsDir: "../../db/migrations/sqlite",
		},
	})
	if err != nil {
		return nil, func() {}, err
	}
	return p, p.Close, nil
}
