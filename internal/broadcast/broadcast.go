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

package broadcast

import (
	"context"
	"encoding/json"
	"math/big"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-signer/pkg/abi"
	"github.com/hyperledger/firefly-signer/pkg/ethsigner"
	"github.com/hyperledger/firefly-signer/pkg/ethtypes"
	"github.com/ntclick/GmGM/internal/msgs"
	"github.com/ntclick/GmGM/internal/signing"
	"github.com/ntclick/GmGM/pkg/confutil"
	"github.com/ntclick/GmGM/pkg/gmconf"
	"github.com/ntclick/GmGM/pkg/log"
	"github.com/ntclick/GmGM/pkg/retry"
	"github.com/ntclick/GmGM/pkg/rpcclient"
	"golang.org/x/crypto/sha3"
)

const SubmitEncryptedGMSimple = "submitEncryptedGMSimple"

// GMContractABI is the subset of the GM contract the broadcaster can call
var GMContractABI = abi.ABI{
	{
		Type: abi.Function,
		Name: SubmitEncryptedGMSimple,
		Inputs: abi.ParameterArray{
			{Name: "encryptedCount", Type: "bytes32"},
			{Name: "inputProof", Type: "bytes"},
			{Name: "category", Type: "string"},
			{Name: "message", Type: "string"},
		},
	},
}

type FeeParams struct {
	GasLimit             uint64
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

func FeesFromConfig(conf *gmconf.FeesConfig) *FeeParams {
	defs := &gmconf.BlockchainDefaults.Fees
	return &FeeParams{
		GasLimit:             confutil.Uint64(conf.GasLimit, *defs.GasLimit),
		MaxFeePerGas:         confutil.Gwei(conf.MaxFeePerGas, *defs.MaxFeePerGas),
		MaxPriorityFeePerGas: confutil.Gwei(conf.MaxPriorityFeePerGas, *defs.MaxPriorityFeePerGas),
	}
}

type Receipt struct {
	TransactionHash ethtypes.HexBytes0xPrefix `json:"transactionHash"`
	BlockHash       ethtypes.HexBytes0xPrefix `json:"blockHash"`
	BlockNumber     *ethtypes.HexInteger      `json:"blockNumber"`
	GasUsed         *ethtypes.HexInteger      `json:"gasUsed"`
	Status          *ethtypes.HexInteger      `json:"status"`
}

func (r *Receipt) Success() bool {
	return r.Status != nil && r.Status.BigInt().Sign() > 0
}

type PendingTransaction interface {
	Hash() ethtypes.HexBytes0xPrefix
	// Wait polls until the transaction is mined, and fails if it reverted
	Wait(ctx context.Context) (*Receipt, error)
}

type Broadcaster interface {
	From() *ethtypes.Address0xHex
	ChainID(ctx context.Context) (int64, error)
	Submit(ctx context.Context, contract *ethtypes.Address0xHex, function string, args []interface{}, fees *FeeParams) (PendingTransaction, error)
}

type broadcaster struct {
	rpc       rpcclient.Client
	signer    signing.Signer
	chainID   int64
	functions map[string]*abi.Entry
	poll      *retry.Retry
}

func NewBroadcaster(ctx context.Context, conf *gmconf.BlockchainConfig, signer signing.Signer) (Broadcaster, error) {
	httpConf := conf.HTTP
	if httpConf.URL == "" {
		httpConf.URL = gmconf.BlockchainDefaults.HTTP.URL
	}
	rpc, err := rpcclient.NewHTTPClient(ctx, &httpConf)
	if err != nil {
		return nil, err
	}
	return WrapRPCClient(rpc, signer,
		confutil.Int64(conf.ChainID, *gmconf.BlockchainDefaults.ChainID),
		retry.NewRetryLimited(&conf.ReceiptPoll, &gmconf.BlockchainDefaults.ReceiptPoll),
	), nil
}

func WrapRPCClient(rpc rpcclient.Client, signer signing.Signer, chainID int64, poll *retry.Retry) Broadcaster {
	b := &broadcaster{
		rpc:       rpc,
		signer:    signer,
		chainID:   chainID,
		functions: make(map[string]*abi.Entry),
		poll:      poll,
	}
	for _, e := range GMContractABI {
		b.functions[e.Name] = e
	}
	return b
}

func (b *broadcaster) From() *ethtypes.Address0xHex {
	return b.signer.Address()
}

func (b *broadcaster) ChainID(ctx context.Context) (int64, error) {
	var chainID ethtypes.HexUint64
	if rpcErr := b.rpc.CallRPC(ctx, &chainID, "eth_chainId"); rpcErr != nil {
		log.L(ctx).Errorf("eth_chainId failed: %+v", rpcErr)
		return -1, rpcErr
	}
	return int64(chainID.Uint64()), nil
}

func (b *broadcaster) Submit(ctx context.Context, contract *ethtypes.Address0xHex, function string, args []interface{}, fees *FeeParams) (PendingTransaction, error) {
	ctx = log.WithComponent(ctx, "broadcast")
	entry := b.functions[function]
	if entry == nil {
		return nil, i18n.NewError(ctx, msgs.MsgBroadcastUnknownFunction, function)
	}
	jsonArgs, err := json.Marshal(args)
	if err == nil {
		var callData []byte
		callData, err = entry.EncodeCallDataJSONCtx(ctx, jsonArgs)
		if err == nil {
			return b.submitCallData(ctx, contract, callData, fees)
		}
	}
	return nil, i18n.WrapError(ctx, err, msgs.MsgBroadcastEncodeFailed, function)
}

func (b *broadcaster) submitCallData(ctx context.Context, contract *ethtypes.Address0xHex, callData []byte, fees *FeeParams) (PendingTransaction, error) {
	from := b.signer.Address()

	// the node's pending view includes our own unmined transactions
	var nonce ethtypes.HexUint64
	if rpcErr := b.rpc.CallRPC(ctx, &nonce, "eth_getTransactionCount", from, "pending"); rpcErr != nil {
		log.L(ctx).Errorf("eth_getTransactionCount(%s) failed: %+v", from, rpcErr)
		return nil, rpcErr
	}

	tx := &ethsigner.Transaction{
		Nonce:                ethtypes.NewHexIntegerU64(nonce.Uint64()),
		GasLimit:             ethtypes.NewHexIntegerU64(fees.GasLimit),
		MaxFeePerGas:         ethtypes.NewHexInteger(fees.MaxFeePerGas),
		MaxPriorityFeePerGas: ethtypes.NewHexInteger(fees.MaxPriorityFeePerGas),
		To:                   contract,
		Value:                ethtypes.NewHexInteger64(0),
		Data:                 callData,
	}
	sigPayload := tx.SignaturePayloadEIP1559(b.chainID)
	hash := sha3.NewLegacyKeccak256()
	_, _ = hash.Write(sigPayload.Bytes())
	sig, err := b.signer.SignHash(ctx, hash.Sum(nil))
	var rawTX ethtypes.HexBytes0xPrefix
	if err == nil {
		rawTX, err = tx.FinalizeEIP1559WithSignature(sigPayload, sig)
	}
	if err != nil {
		log.L(ctx).Errorf("Signing failed (from=%s nonce=%d): %s", from, nonce.Uint64(), err)
		return nil, i18n.WrapError(ctx, err, msgs.MsgBroadcastSignFailed)
	}

	var txHash ethtypes.HexBytes0xPrefix
	if rpcErr := b.rpc.CallRPC(ctx, &txHash, "eth_sendRawTransaction", rawTX); rpcErr != nil {
		log.L(ctx).Errorf("eth_sendRawTransaction failed (from=%s nonce=%d): %+v", from, nonce.Uint64(), rpcErr)
		return nil, rpcErr
	}
	log.L(ctx).Infof("Submitted transaction %s (from=%s nonce=%d)", txHash, from, nonce.Uint64())
	return &pendingTransaction{b: b, hash: txHash}, nil
}

type pendingTransaction struct {
	b    *broadcaster
	hash ethtypes.HexBytes0xPrefix
}

func (pt *pendingTransaction) Hash() ethtypes.HexBytes0xPrefix {
	return pt.hash
}

func (pt *pendingTransaction) Wait(ctx context.Context) (receipt *Receipt, err error) {
	ctx = log.WithLogField(log.WithComponent(ctx, "broadcast"), "tx", pt.hash.String())
	err = pt.b.poll.Do(ctx, func(attempt int) (retryable bool, err error) {
		var r *Receipt
		if rpcErr := pt.b.rpc.CallRPC(ctx, &r, "eth_getTransactionReceipt", pt.hash); rpcErr != nil {
			return true, i18n.NewError(ctx, msgs.MsgBroadcastReceiptFailed, pt.hash, rpcErr)
		}
		if r == nil {
			return true, i18n.NewError(ctx, msgs.MsgBroadcastReceiptPending, pt.hash)
		}
		receipt = r
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	if !receipt.Success() {
		log.L(ctx).Errorf("Transaction reverted in block %s", receipt.BlockNumber)
		return receipt, i18n.NewError(ctx, msgs.MsgBroadcastReverted, pt.hash, receipt.BlockNumber)
	}
	log.L(ctx).Infof("Transaction confirmed in block %s", receipt.BlockNumber)
	return receipt, nil
}
