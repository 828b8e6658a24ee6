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

package etherscan

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/ntclick/GmGM/internal/msgs"
	"github.com/ntclick/GmGM/pkg/confutil"
	"github.com/ntclick/GmGM/pkg/gmconf"
	"github.com/ntclick/GmGM/pkg/gmresty"
	"github.com/ntclick/GmGM/pkg/gmtypes"
	"github.com/ntclick/GmGM/pkg/log"
	"golang.org/x/time/rate"
)

// Client is the query interface onto the remote indexer's event log.
// An empty topic0 lists every event emitted by the contract.
type Client interface {
	QueryLogs(ctx context.Context, contractAddress, topic0 string) ([]*gmtypes.Event, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

const (
	statusOK         = "1"
	noRecordsMessage = "No records found"
)

type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type client struct {
	rest    *resty.Client
	apiKey  string
	limiter *rate.Limiter
}

func NewClient(ctx context.Context, conf *gmconf.EtherscanConfig) (Client, error) {
	httpConf := conf.HTTPClientConfig
	if httpConf.URL == "" {
		httpConf.URL = gmconf.EtherscanDefaults.URL
	}
	rest, err := gmresty.New(ctx, &httpConf)
	if err != nil {
		return nil, err
	}
	rps := confutil.Float64Min(conf.RequestsPerSecond, 0, *gmconf.EtherscanDefaults.RequestsPerSecond)
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &client{
		rest:    rest,
		apiKey:  conf.APIKey,
		limiter: rate.NewLimiter(limit, confutil.IntMin(conf.Burst, 1, *gmconf.EtherscanDefaults.Burst)),
	}, nil
}

func (c *client) get(ctx context.Context, params map[string]string) (*apiResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, i18n.WrapError(ctx, err, msgs.MsgEtherscanRateLimitWait)
	}
	var body apiResponse
	res, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("apikey", c.apiKey).
		SetResult(&body).
		Get("")
	if err != nil || res.IsError() {
		return nil, gmresty.WrapRestErr(ctx, res, err, msgs.MsgEtherscanRequestFailed)
	}
	return &body, nil
}

func (c *client) QueryLogs(ctx context.Context, contractAddress, topic0 string) ([]*gmtypes.Event, error) {
	params := map[string]string{
		"module":    "logs",
		"action":    "getLogs",
		"address":   contractAddress,
		"fromBlock": "0",
		"toBlock":   "latest",
	}
	if topic0 != "" {
		params["topic0"] = topic0
	}
	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}
	if body.Status != statusOK {
		if strings.EqualFold(body.Message, noRecordsMessage) {
			return []*gmtypes.Event{}, nil
		}
		return nil, i18n.NewError(ctx, msgs.MsgEtherscanErrorStatus, body.Status, resultText(body))
	}
	events := []*gmtypes.Event{}
	if err := json.Unmarshal(body.Result, &events); err != nil {
		return nil, i18n.WrapError(ctx, err, msgs.MsgEtherscanInvalidResult, resultText(body))
	}
	log.L(ctx).Debugf("Event log query topic0=%q returned %d events", topic0, len(events))
	return events, nil
}

// BlockNumber proves the API key works, through the proxy module
func (c *client) BlockNumber(ctx context.Context) (uint64, error) {
	body, err := c.get(ctx, map[string]string{
		"module": "proxy",
		"action": "eth_blockNumber",
	})
	if err != nil {
		return 0, err
	}
	var hexNumber string
	if err := json.Unmarshal(body.Result, &hexNumber); err != nil || !strings.HasPrefix(hexNumber, "0x") {
		return 0, i18n.NewError(ctx, msgs.MsgEtherscanErrorStatus, body.Status, resultText(body))
	}
	n, err := strconv.ParseUint(hexNumber[2:], 16, 64)
	if err != nil {
		return 0, i18n.WrapError(ctx, err, msgs.MsgEtherscanInvalidResult, hexNumber)
	}
	return n, nil
}

// resultText gives the error text Etherscan puts in "result" on failures
func resultText(body *apiResponse) string {
	var s string
	if err := json.Unmarshal(body.Result, &s); err == nil {
		return s
	}
	if len(body.Result) > 256 {
		return string(body.Result[0:256]) + "..."
	}
	if len(body.Result) == 0 {
		return body.Message
	}
	return string(body.Result)
}
