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

package msgs

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"golang.org/x/text/language"
)

const gmStreakPrefix = "GM01"

var registered sync.Once
var ffe = func(key, translation string, statusHint ...int) i18n.ErrorMessageKey {
	registered.Do(func() {
		i18n.RegisterPrefix(gmStreakPrefix, "GM Streak")
	})
	if !strings.HasPrefix(key, gmStreakPrefix) {
		panic(fmt.Errorf("must have prefix '%s': %s", gmStreakPrefix, key))
	}
	return i18n.FFE(language.AmericanEnglish, key, translation, statusHint...)
}

var (
	// Config GM0100XX
	MsgConfigFileMissing       = ffe("GM010001", "Config file not found at path: %s")
	MsgConfigFileReadError     = ffe("GM010002", "Failed to read config file %s with error: %s")
	MsgConfigFileParseError    = ffe("GM010003", "Failed to parse config: %s")
	MsgConfigInvalidAddress    = ffe("GM010004", "Invalid %s address '%s'")
	MsgConfigSignerKeyInvalid  = ffe("GM010005", "Invalid signer key")
	MsgConfigSignerKeyMissing  = ffe("GM010006", "A signer key is required to submit transactions")
	MsgConfigInvalidURL        = ffe("GM010007", "Invalid HTTP URL: %s")
	MsgConfigNoTopicCandidates = ffe("GM010008", "At least one topic candidate is required")

	// Persistence GM0101XX
	MsgPersistenceInvalidType         = ffe("GM010100", "Invalid database type: %s")
	MsgPersistenceMissingDSN          = ffe("GM010101", "Missing database connection DSN")
	MsgPersistenceInitFailed          = ffe("GM010102", "Database init failed")
	MsgPersistenceMigrationFailed     = ffe("GM010103", "Database migration failed")
	MsgPersistenceMissingMigrationDir = ffe("GM010104", "Missing database migration directory for autoMigrate")

	// Remote event log GM0102XX
	MsgEtherscanRequestFailed    = ffe("GM010200", "Event log request failed: %s")
	MsgEtherscanErrorStatus      = ffe("GM010201", "Event log query returned status '%s': %s")
	MsgEtherscanInvalidTimestamp = ffe("GM010202", "Invalid event timestamp '%s'")
	MsgEtherscanRateLimitWait    = ffe("GM010203", "Interrupted waiting for event log rate limit")
	MsgEtherscanInvalidResult    = ffe("GM010204", "Unexpected event log result: %s")

	// Confidential compute GM0103XX
	MsgComputeNotReady        = ffe("GM010300", "Confidential-compute capability is not ready (initialization in progress)")
	MsgComputeUnavailable     = ffe("GM010301", "Confidential-compute capability unavailable: %s")
	MsgComputeRequestFailed   = ffe("GM010302", "Confidential-compute request failed: %s")
	MsgComputeNoHandles       = ffe("GM010303", "Encryption returned no ciphertext handles")
	MsgComputeInvalidUintBits = ffe("GM010304", "Unsupported unsigned integer width %d")
	MsgComputeValueOverflow   = ffe("GM010305", "Value %d does not fit in %d bits")
	MsgComputeInvalidHandle   = ffe("GM010306", "Invalid ciphertext handle '%s'")

	// Signing and broadcast GM0104XX
	MsgSigningFailed            = ffe("GM010400", "Failed to sign attestation")
	MsgBroadcastEncodeFailed    = ffe("GM010401", "Failed to encode call to %s")
	MsgBroadcastSignFailed      = ffe("GM010402", "Failed to sign transaction")
	MsgBroadcastSendFailed      = ffe("GM010403", "Failed to send transaction: %s")
	MsgBroadcastReceiptPending  = ffe("GM010404", "Receipt for transaction %s not yet available")
	MsgBroadcastReverted        = ffe("GM010405", "Transaction %s reverted in block %s")
	MsgBroadcastNonceFailed     = ffe("GM010406", "Failed to get nonce for %s: %s")
	MsgBroadcastReceiptFailed   = ffe("GM010407", "Failed to get receipt for %s: %s")
	MsgBroadcastUnknownFunction = ffe("GM010408", "Unknown contract function '%s'")

	// JSON/RPC GM0105XX
	MsgRPCClientRequestFailed     = ffe("GM010500", "Backend RPC request failed: %s")
	MsgRPCClientResultParseFailed = ffe("GM010501", "Failed to parse result (expected=%T): %s")
	MsgRPCClientInvalidParam      = ffe("GM010502", "Invalid parameter at position %d for method %s: %s")

	// Pipeline GM0106XX
	MsgPipelineStepTimeout  = ffe("GM010600", "%s timed out after %s")
	MsgPipelineInvalidCount = ffe("GM010601", "Invalid count %d")
	MsgContextCanceled      = ffe("GM010602", "Context canceled")

	// CLI GM0107XX
	MsgCLIAddressRequired = ffe("GM010700", "An address is required (--address, or a configured signer key)")
	MsgCLICheckFailed     = ffe("GM010701", "Connectivity check failed: %s")
	MsgCLISubmitFailed    = ffe("GM010702", "Submission failed (%s)")

	// HTTP server GM0108XX
	MsgHTTPServerStartFailed = ffe("GM010800", "Failed to start server on '%s'")

	// Session GM0109XX
	MsgSessionInitFailed      = ffe("GM010900", "Failed to initialize %s")
	MsgSessionAddressMismatch = ffe("GM010901", "Session address %s is not the signer address %s")
	MsgSessionInvalidAddress  = ffe("GM010902", "Invalid session address '%s'")
)
