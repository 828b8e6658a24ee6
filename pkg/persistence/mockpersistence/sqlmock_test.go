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

package mockpersistence

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLMockProvider(t *testing.T) {
	mp, err := NewSQLMockProvider()
	require.NoError(t, err)

	mp.Mock.ExpectExec("DELETE.*").WillReturnError(fmt.Errorf("pop"))
	err = mp.P.DB().Exec("DELETE FROM streak_records").Error
	assert.Regexp(t, "pop", err)
	assert.NoError(t, mp.Mock.ExpectationsWereMet())

	_, err = mp.GetMigrationDriver(mp.DB)
	assert.Regexp(t, "not supported", err)
	assert.Equal(t, "sqlmock", mp.DBName())
}
