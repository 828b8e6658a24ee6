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

package compute

import (
	"context"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-signer/pkg/ethtypes"
	"github.com/ntclick/GmGM/internal/msgs"
	"github.com/ntclick/GmGM/pkg/gmconf"
	"github.com/ntclick/GmGM/pkg/gmresty"
	"github.com/ntclick/GmGM/pkg/log"
)

var supportedUintBits = map[int]bool{8: true, 16: true, 32: true, 64: true, 128: true, 256: true}

type initRequest struct {
	ChainID int64 `json:"chainId"`
}

type encryptValue struct {
	Bits  int    `json:"bits"`
	Value string `json:"value"`
}

type encryptRequest struct {
	ContractAddress *ethtypes.Address0xHex `json:"contractAddress"`
	UserAddress     *ethtypes.Address0xHex `json:"userAddress"`
	Values          []*encryptValue        `json:"values"`
}

type encryptResponse struct {
	Handles    []ethtypes.HexBytes0xPrefix `json:"handles"`
	InputProof ethtypes.HexBytes0xPrefix   `json:"inputProof"`
}

type gateway struct {
	client *resty.Client
}

// NewGatewayInitializer returns an Initializer for a confidential-compute
// runtime fronted by an HTTP gateway. The gateway is asked to load its key
// material for the chain during initialization.
func NewGatewayInitializer(conf *gmconf.ComputeConfig, chainID int64) Initializer {
	return func(ctx context.Context) (Capability, error) {
		ctx = log.WithComponent(ctx, "compute")
		httpConf := conf.HTTP
		if httpConf.URL == "" {
			httpConf.URL = gmconf.ComputeDefaults.HTTP.URL
		}
		client, err := gmresty.New(ctx, &httpConf)
		if err != nil {
			return nil, err
		}
		res, err := client.R().
			SetContext(ctx).
			SetBody(&initRequest{ChainID: chainID}).
			Post("/init")
		if err != nil || res.IsError() {
			return nil, gmresty.WrapRestErr(ctx, res, err, msgs.MsgComputeRequestFailed)
		}
		return &gateway{client: client}, nil
	}
}

func (g *gateway) GenerateKeypair(ctx context.Context) (*Keypair, error) {
	var kp Keypair
	res, err := g.client.R().
		SetContext(ctx).
		SetResult(&kp).
		Post("/keypair")
	if err != nil || res.IsError() {
		return nil, gmresty.WrapRestErr(ctx, res, err, msgs.MsgComputeRequestFailed)
	}
	return &kp, nil
}

func (g *gateway) CreateEncryptedInput(contractAddress, userAddress *ethtypes.Address0xHex) InputBuilder {
	return &gatewayInput{
		g: g,
		req: &encryptRequest{
			ContractAddress: contractAddress,
			UserAddress:     userAddress,
		},
	}
}

type gatewayInput struct {
	g   *gateway
	req *encryptRequest

	// first validation failure, reported by Encrypt
	bits     int
	overflow uint64
	badBits  bool
	tooLarge bool
}

func (gi *gatewayInput) AddUint(bits int, value uint64) InputBuilder {
	switch {
	case gi.badBits || gi.tooLarge:
	case !supportedUintBits[bits]:
		gi.badBits, gi.bits = true, bits
	case bits < 64 && value >= uint64(1)<<bits:
		gi.tooLarge, gi.bits, gi.overflow = true, bits, value
	default:
		gi.req.Values = append(gi.req.Values, &encryptValue{
			Bits:  bits,
			Value: strconv.FormatUint(value, 10),
		})
	}
	return gi
}

func (gi *gatewayInput) Encrypt(ctx context.Context) (*EncryptedInput, error) {
	if gi.badBits {
		return nil, i18n.NewError(ctx, msgs.MsgComputeInvalidUintBits, gi.bits)
	}
	if gi.tooLarge {
		return nil, i18n.NewError(ctx, msgs.MsgComputeValueOverflow, gi.overflow, gi.bits)
	}

	var out encryptResponse
	res, err := gi.g.client.R().
		SetContext(ctx).
		SetBody(gi.req).
		SetResult(&out).
		Post("/encrypt")
	if err != nil || res.IsError() {
		return nil, gmresty.WrapRestErr(ctx, res, err, msgs.MsgComputeRequestFailed)
	}
	if len(out.Handles) == 0 {
		return nil, i18n.NewError(ctx, msgs.MsgComputeNoHandles)
	}

	ei := &EncryptedInput{
		Handles:    make([]Handle, len(out.Handles)),
		InputProof: out.InputProof,
	}
	for i, h := range out.Handles {
		if len(h) != 32 {
			return nil, i18n.NewError(ctx, msgs.MsgComputeInvalidHandle, h)
		}
		copy(ei.Handles[i][:], h)
	}
	log.L(ctx).Debugf("Encrypted %d value(s) into %d handle(s)", len(gi.req.Values), len(ei.Handles))
	return ei, nil
}
