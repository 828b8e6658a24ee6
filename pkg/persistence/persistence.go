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

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/ntclick/GmGM/internal/msgs"
	"github.com/ntclick/GmGM/pkg/gmconf"
	"gorm.io/gorm"
)

type Persistence interface {
	DB() *gorm.DB
	Close()
	// Transaction runs fn inside a database transaction, with the gorm handle bound to the context
	Transaction(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error
}

const (
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
)

func NewPersistence(ctx context.Context, conf *gmconf.DBConfig) (Persistence, error) {
	switch conf.Type {
	case "", TypeSQLite:
		return NewSQLProvider(ctx, &sqliteProvider{}, &conf.SQLite, gmconf.SQLiteDefaults)
	case TypePostgres:
		return NewSQLProvider(ctx, &postgresProvider{}, &conf.Postgres, gmconf.PostgresDefaults)
	default:
		return nil, i18n.NewError(ctx, msgs.MsgPersistenceInvalidType, conf.Type)
	}
}
