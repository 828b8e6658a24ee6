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

package pipeline

type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseInitializing Phase = "initializing"
	PhaseEncrypting   Phase = "encrypting"
	PhaseSigning      Phase = "signing"
	PhaseBroadcasting Phase = "broadcasting"
	PhaseConfirming   Phase = "confirming"
	PhaseSucceeded    Phase = "succeeded"
	PhaseFailed       Phase = "failed"
)

func (p Phase) Terminal() bool {
	return p == PhaseSucceeded || p == PhaseFailed
}

// Status is a snapshot delivered to listeners on every transition.
// TxHash is set from broadcasting onwards, Category and Err only on failure.
type Status struct {
	RunID    string   `json:"runId,omitempty"`
	Phase    Phase    `json:"phase"`
	TxHash   string   `json:"txHash,omitempty"`
	Category Category `json:"category,omitempty"`
	Err      error    `json:"-"`
}

type StatusListener func(*Status)
