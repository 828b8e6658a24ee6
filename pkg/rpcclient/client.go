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

package rpcclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/ntclick/GmGM/internal/msgs"
	"github.com/ntclick/GmGM/pkg/gmconf"
	"github.com/ntclick/GmGM/pkg/gmresty"
	"github.com/ntclick/GmGM/pkg/log"
)

type RPCCode int64

const (
	RPCCodeParseError     RPCCode = -32700
	RPCCodeInvalidRequest RPCCode = -32600
	RPCCodeInternalError  RPCCode = -32603
	// EIP-1193 code returned by wallets and signing proxies when the user declines
	RPCCodeUserRejected RPCCode = 4001
)

type ErrorRPC interface {
	error
	RPCError() *RPCError
}

type Client interface {
	CallRPC(ctx context.Context, result interface{}, method string, params ...interface{}) ErrorRPC
}

func NewHTTPClient(ctx context.Context, conf *gmconf.HTTPClientConfig) (Client, error) {
	rc, err := gmresty.New(ctx, conf)
	if err != nil {
		return nil, err
	}
	return WrapRestyClient(rc), nil
}

func WrapRestyClient(rc *resty.Client) Client {
	return &rpcClient{client: rc}
}

type rpcClient struct {
	client         *resty.Client
	requestCounter int64
}

type RPCRequest struct {
	JSONRpc string            `json:"jsonrpc"`
	ID      json.RawMessage   `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params,omitempty"`
}

type RPCError struct {
	Code    int64           `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return e.Message
}

func (e *RPCError) RPCError() *RPCError {
	return e
}

type RPCResponse struct {
	JSONRpc string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

func (rc *rpcClient) CallRPC(ctx context.Context, result interface{}, method string, params ...interface{}) ErrorRPC {
	req := &RPCRequest{
		JSONRpc: "2.0",
		Method:  method,
		Params:  make([]json.RawMessage, len(params)),
	}
	for i, param := range params {
		b, err := json.Marshal(param)
		if err != nil {
			return &RPCError{Code: int64(RPCCodeInvalidRequest), Message: i18n.NewError(ctx, msgs.MsgRPCClientInvalidParam, i, method, err).Error()}
		}
		req.Params[i] = b
	}
	reqID := fmt.Sprintf(`%.9d`, atomic.AddInt64(&rc.requestCounter, 1))
	req.ID = json.RawMessage(`"` + reqID + `"`)

	log.L(ctx).Debugf("RPC[%s] --> %s", reqID, method)
	start := time.Now()
	rpcRes := new(RPCResponse)
	res, err := rc.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(rpcRes).
		SetError(rpcRes).
		Post("")
	if err != nil {
		err := i18n.NewError(ctx, msgs.MsgRPCClientRequestFailed, err)
		log.L(ctx).Errorf("RPC[%s] <-- ERROR: %s", reqID, err)
		return &RPCError{Code: int64(RPCCodeInternalError), Message: err.Error()}
	}
	// JSON/RPC errors can arrive with a 200 status code as well as others
	if rpcRes.Error != nil && rpcRes.Error.Code != 0 {
		log.L(ctx).Errorf("RPC[%s] <-- [%d]: %s", reqID, res.StatusCode(), rpcRes.Error.Message)
		return rpcRes.Error
	}
	if res.IsError() {
		log.L(ctx).Errorf("RPC[%s] <-- [%d]: %s", reqID, res.StatusCode(), res.Body())
		return &RPCError{Code: int64(RPCCodeInternalError), Message: i18n.NewError(ctx, msgs.MsgRPCClientRequestFailed, res.Status()).Error()}
	}
	log.L(ctx).Debugf("RPC[%s] <-- %s [%d] OK (%.2fms)", reqID, method, res.StatusCode(), float64(time.Since(start))/float64(time.Millisecond))

	if len(rpcRes.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(rpcRes.Result, &result); err != nil {
		err = i18n.NewError(ctx, msgs.MsgRPCClientResultParseFailed, result, err)
		return &RPCError{Code: int64(RPCCodeParseError), Message: err.Error()}
	}
	return nil
}
