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
	"database/sql"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/google/uuid"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/ntclick/GmGM/internal/msgs"
	"github.com/ntclick/GmGM/pkg/confutil"
	"github.com/ntclick/GmGM/pkg/gmconf"
	"github.com/ntclick/GmGM/pkg/log"
	"gorm.io/gorm"

	// file:// migration source
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

type provider struct {
	p    SQLDBProvider
	gdb  *gorm.DB
	db   *sql.DB
	conf *gmconf.SQLDBConfig
}

// SQLDBProvider is the per-database part of opening a connection and migrating it
type SQLDBProvider interface {
	DBName() string
	Open(dsn string) gorm.Dialector
	GetMigrationDriver(*sql.DB) (migratedb.Driver, error)
}

func NewSQLProvider(ctx context.Context, p SQLDBProvider, conf *gmconf.SQLDBConfig, defs *gmconf.SQLDBConfig) (Persistence, error) {
	dsn := conf.DSN
	if dsn == "" {
		dsn = defs.DSN
	}
	if dsn == "" {
		return nil, i18n.NewError(ctx, msgs.MsgPersistenceMissingDSN)
	}

	gdb, err := gorm.Open(p.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	var gp *provider
	if err == nil {
		gp = &provider{p: p, gdb: gdb, conf: conf}
		gp.db, err = gdb.DB()
	}
	if err != nil {
		return nil, i18n.WrapError(ctx, err, msgs.MsgPersistenceInitFailed)
	}
	if conf.DebugQueries {
		gp.gdb = gp.gdb.Debug()
	}
	gp.db.SetMaxOpenConns(confutil.IntMin(conf.MaxOpenConns, 1, *defs.MaxOpenConns))
	gp.db.SetMaxIdleConns(confutil.Int(conf.MaxIdleConns, *defs.MaxIdleConns))
	gp.db.SetConnMaxIdleTime(confutil.DurationMin(conf.ConnMaxIdleTime, 0, *defs.ConnMaxIdleTime))
	gp.db.SetConnMaxLifetime(confutil.DurationMin(conf.ConnMaxLifetime, 0, *defs.ConnMaxLifetime))

	if confutil.Bool(conf.AutoMigrate, *defs.AutoMigrate) {
		migrationsDir := conf.MigrationsDir
		if migrationsDir == "" {
			migrationsDir = defs.MigrationsDir
		}
		if err := gp.runMigrations(ctx, migrationsDir); err != nil {
			gp.Close()
			return nil, err
		}
	}
	return gp, nil
}

func (gp *provider) runMigrations(ctx context.Context, migrationsDir string) error {
	if migrationsDir == "" {
		return i18n.NewError(ctx, msgs.MsgPersistenceMissingMigrationDir)
	}
	driver, err := gp.p.GetMigrationDriver(gp.db)
	var m *migrate.Migrate
	if err == nil {
		log.L(ctx).Infof("Running migrations in: file://%s", migrationsDir)
		m, err = migrate.NewWithDatabaseInstance("file://"+migrationsDir, gp.p.DBName(), driver)
	}
	if err == nil {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return i18n.WrapError(ctx, err, msgs.MsgPersistenceMigrationFailed)
	}
	version, dirty, _ := m.Version()
	log.L(ctx).Infof("Migrations now at: v=%d dirty=%t", version, dirty)
	return nil
}

func (gp *provider) DB() *gorm.DB {
	return gp.gdb
}

func (gp *provider) Close() {
	err := gp.db.Close()
	log.L(context.Background()).Debugf("DB closed (err=%v)", err)
}

func (gp *provider) Transaction(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error {
	txCtx := log.WithLogField(ctx, "dbtx", uuid.New().String()[0:8])
	return gp.gdb.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
		return fn(txCtx, tx)
	})
}
