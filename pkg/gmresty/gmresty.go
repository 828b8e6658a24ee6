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

package gmresty

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/ntclick/GmGM/internal/msgs"
	"github.com/ntclick/GmGM/pkg/confutil"
	"github.com/ntclick/GmGM/pkg/gmconf"
	"github.com/ntclick/GmGM/pkg/log"
	"github.com/sirupsen/logrus"
)

type reqCtxKey struct{}

type reqCtx struct {
	id    string
	start time.Time
}

// New builds a resty client from config, with request/response logging hooks.
// Callers add per-client behavior with the normal resty builder methods.
func New(ctx context.Context, conf *gmconf.HTTPClientConfig) (*resty.Client, error) {
	u, err := url.Parse(conf.URL)
	if err != nil {
		return nil, i18n.WrapError(ctx, err, msgs.MsgConfigInvalidURL, conf.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, i18n.NewError(ctx, msgs.MsgConfigInvalidURL, conf.URL)
	}

	connTimeout := confutil.DurationMin(conf.ConnectionTimeout, 0, *gmconf.DefaultHTTPConfig.ConnectionTimeout)
	client := resty.NewWithClient(&http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   connTimeout,
				KeepAlive: connTimeout,
			}).DialContext,
			ForceAttemptHTTP2: true,
		},
	})

	baseURL := strings.TrimSuffix(conf.URL, "/")
	client.SetBaseURL(baseURL)
	client.SetTimeout(confutil.DurationMin(conf.RequestTimeout, 0, *gmconf.DefaultHTTPConfig.RequestTimeout))
	log.L(ctx).Debugf("Created REST client to %s", baseURL)

	client.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		rCtx := req.Context()
		if rCtx.Value(reqCtxKey{}) == nil {
			rc := &reqCtx{id: uuid.New().String()[0:8], start: time.Now()}
			rCtx = context.WithValue(rCtx, reqCtxKey{}, rc)
			rCtx = log.WithLogField(rCtx, "breq", rc.id)
			req.SetContext(rCtx)
		}
		log.L(rCtx).Debugf("==> %s %s%s", req.Method, baseURL, req.URL)
		return nil
	})
	client.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		rCtx := resp.Request.Context()
		level := logrus.DebugLevel
		if resp.StatusCode() >= 300 {
			level = logrus.ErrorLevel
		}
		var elapsed time.Duration
		if rc, ok := rCtx.Value(reqCtxKey{}).(*reqCtx); ok {
			elapsed = time.Since(rc.start)
		}
		log.L(rCtx).Logf(level, "<== %s %s [%d] (%dms)", resp.Request.Method, resp.Request.URL, resp.StatusCode(), elapsed.Milliseconds())
		return nil
	})

	for k, v := range conf.HTTPHeaders {
		if vs, ok := v.(string); ok {
			client.SetHeader(k, vs)
		}
	}
	if conf.Auth.Username != "" && conf.Auth.Password != "" {
		client.SetBasicAuth(conf.Auth.Username, conf.Auth.Password)
	}
	return client, nil
}

// WrapRestErr builds an error from a failed call, including a truncated copy of the body
func WrapRestErr(ctx context.Context, res *resty.Response, err error, key i18n.ErrorMessageKey) error {
	var respData string
	if res != nil {
		if res.RawBody() != nil {
			defer func() { _ = res.RawBody().Close() }()
			if r, err := io.ReadAll(res.RawBody()); err == nil {
				respData = string(r)
			}
		}
		if respData == "" {
			respData = res.String()
		}
		if len(respData) > 256 {
			respData = respData[0:256] + "..."
		}
	}
	if err != nil {
		return i18n.WrapError(ctx, err, key, respData)
	}
	return i18n.NewError(ctx, key, respData)
}
