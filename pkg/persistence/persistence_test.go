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
	"fmt"
	"os"
	"testing"

	"github.com/ntclick/GmGM/pkg/confutil"
	"github.com/ntclick/GmGM/pkg/gmconf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNewPersistenceBadType(t *testing.T) {
	_, err := NewPersistence(context.Background(), &gmconf.DBConfig{Type: "wrong"})
	assert.Regexp(t, "GM010100", err)
}

func TestUnitTestPersistenceMigrated(t *testing.T) {
	ctx := context.Background()
	p, done, err := NewUnitTestPersistence(ctx)
	require.NoError(t, err)
	defer done()

	var count int64
	err = p.DB().Table("streak_records").Count(&count).Error
	require.NoError(t, err)
	assert.Zero(t, count)

	err = p.DB().Table("app_meta").Count(&count).Error
	require.NoError(t, err)
}

func TestTransactionRollback(t *testing.T) {
	ctx := context.Background()
	p, done, err := NewUnitTestPersistence(ctx)
	require.NoError(t, err)
	defer done()

	err = p.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := tx.Exec(`INSERT INTO app_meta ("key", "value") VALUES ('k1', 'v1')`).Error; err != nil {
			return err
		}
		return fmt.Errorf("pop")
	})
	assert.EqualError(t, err, "pop")

	var count int64
	require.NoError(t, p.DB().Table("app_meta").Count(&count).Error)
	assert.Zero(t, count)
}

func TestMigrationMissingDir(t *testing.T) {
	_, err := NewSQLProvider(context.Background(), &sqliteProvider{}, &gmconf.SQLDBConfig{
		DSN:         ":memory:",
		AutoMigrate: confutil.P(true),
	}, &gmconf.SQLDBConfig{
		MaxOpenConns:    confutil.P(1),
		MaxIdleConns:    confutil.P(1),
		ConnMaxIdleTime: confutil.P("0"),
		ConnMaxLifetime: confutil.P("0"),
		AutoMigrate:     confutil.P(false),
	})
	assert.Regexp(t, "GM010104", err)
}

func TestMigrationFail(t *testing.T) {
	tempFile := t.TempDir() + "/wrong"
	require.NoError(t, os.WriteFile(tempFile, []byte{}, 0664))
	_, err := NewPersistence(context.Background(), &gmconf.DBConfig{
		Type: TypeSQLite,
		SQLite: gmconf.SQLDBConfig{
			DSN:           ":memory:",
			AutoMigrate:   confutil.P(true),
			MigrationsDir: tempFile,
		},
	})
	assert.Regexp(t, "GM010103", err)
}

func TestMissingDSN(t *testing.T) {
	_, err := NewPersistence(context.Background(), &gmconf.DBConfig{
		Type: TypePostgres,
	})
	assert.Regexp(t, "GM010101", err)
}
