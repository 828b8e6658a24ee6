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

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/ntclick/GmGM/pkg/rpcclient"
)

type Category string

const (
	CategoryTimeout           Category = "timeout"
	CategoryInsufficientFunds Category = "insufficient-funds"
	CategoryUserRejected      Category = "user-rejected"
	CategoryNetwork           Category = "network"
	CategorySDK               Category = "sdk"
	CategoryOther             Category = "other"
)

// SubmissionError is the only error a pipeline run returns
type SubmissionError struct {
	Step     Phase
	Category Category
	Err      error
}

func (se *SubmissionError) Error() string {
	return fmt.Sprintf("%s failed (%s): %s", se.Step, se.Category, se.Err)
}

func (se *SubmissionError) Unwrap() error {
	return se.Err
}

// Classify maps a failure in a step to a user-facing category. Typed errors
// are checked first, message text second.
func Classify(step Phase, err error) Category {
	if step == PhaseInitializing {
		return CategorySDK
	}
	var te *TimeoutError
	if errors.As(err, &te) {
		return CategoryTimeout
	}
	if step == PhaseEncrypting {
		return CategorySDK
	}

	msg := strings.ToLower(err.Error())
	var rpcErr rpcclient.ErrorRPC
	isRPC := errors.As(err, &rpcErr)
	switch {
	case strings.Contains(msg, "insufficient funds"):
		return CategoryInsufficientFunds
	case isRPC && rpcErr.RPCError().Code == int64(rpcclient.RPCCodeUserRejected),
		strings.Contains(msg, "user rejected"),
		strings.Contains(msg, "user denied"),
		strings.Contains(msg, "request denied"):
		return CategoryUserRejected
	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "timed out"),
		strings.Contains(msg, "deadline exceeded"):
		return CategoryTimeout
	case isNetworkError(err),
		isRPC && rpcErr.RPCError().Code == int64(rpcclient.RPCCodeInternalError),
		strings.Contains(msg, "network"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no such host"):
		return CategoryNetwork
	case strings.Contains(msg, "sdk"):
		return CategorySDK
	default:
		return CategoryOther
	}
}

func isNetworkError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}
