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

package session

import (
	"context"
	"time"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-signer/pkg/ethtypes"
	"github.com/ntclick/GmGM/internal/broadcast"
	"github.com/ntclick/GmGM/internal/compute"
	"github.com/ntclick/GmGM/internal/etherscan"
	"github.com/ntclick/GmGM/internal/metrics"
	"github.com/ntclick/GmGM/internal/msgs"
	"github.com/ntclick/GmGM/internal/pipeline"
	"github.com/ntclick/GmGM/internal/reconcile"
	"github.com/ntclick/GmGM/internal/recordstore"
	"github.com/ntclick/GmGM/internal/remotelog"
	"github.com/ntclick/GmGM/internal/signing"
	"github.com/ntclick/GmGM/pkg/confutil"
	"github.com/ntclick/GmGM/pkg/gmconf"
	"github.com/ntclick/GmGM/pkg/gmtypes"
	"github.com/ntclick/GmGM/pkg/log"
	"github.com/ntclick/GmGM/pkg/persistence"
	"github.com/ntclick/GmGM/pkg/retry"
	"github.com/ntclick/GmGM/pkg/rpcclient"
	"github.com/prometheus/client_golang/prometheus"
)

// Runtime owns every long-lived component. Sessions are cheap views onto it
// for a single address.
type Runtime interface {
	Engine() reconcile.Engine
	// Pipeline is nil when no signer key is configured
	Pipeline() pipeline.Pipeline
	Signer() signing.Signer
	Metrics() metrics.Metrics
	Check(ctx context.Context) (*CheckResult, error)
	NewSession(ctx context.Context, address string, onSync func(*gmtypes.StreakRecord)) (*Session, error)
	Close()
}

type CheckResult struct {
	BlockNumber uint64 `json:"blockNumber"`
	ChainID     int64  `json:"chainId"`
	Contract    string `json:"contract"`
	TotalEvents int64  `json:"totalEvents"`
}

type runtime struct {
	conf         *gmconf.GMStreakConfig
	clock        gmtypes.Clock
	contract     string
	chainID      int64
	syncInterval time.Duration

	metrics     metrics.Metrics
	persistence persistence.Persistence
	store       recordstore.RecordStore
	logs        etherscan.Client
	remote      remotelog.AggregateClient
	engine      reconcile.Engine
	rpc         rpcclient.Client
	signer      signing.Signer
	broadcaster broadcast.Broadcaster
	compute     compute.Provider
	pipeline    pipeline.Pipeline
}

func NewRuntime(ctx context.Context, conf *gmconf.GMStreakConfig, clock gmtypes.Clock) (Runtime, error) {
	r := &runtime{
		conf:         conf,
		clock:        clock,
		contract:     confutil.StringNotEmpty(conf.Pipeline.ContractAddress, *gmconf.PipelineDefaults.ContractAddress),
		chainID:      confutil.Int64(conf.Blockchain.ChainID, *gmconf.BlockchainDefaults.ChainID),
		syncInterval: confutil.DurationMin(conf.Sync.Interval, time.Millisecond, *gmconf.SyncDefaults.Interval),
	}
	ctx = log.WithComponent(ctx, "runtime")
	if err := r.init(ctx); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *runtime) init(ctx context.Context) (err error) {
	r.metrics = metrics.InitMetrics(ctx, prometheus.NewRegistry())

	r.persistence, err = persistence.NewPersistence(ctx, &r.conf.DB)
	err = r.wrapIfErr(ctx, err, "persistence")

	if err == nil {
		r.store = recordstore.NewRecordStore(r.persistence)
		if r.store.ResetOnVersionChange(ctx, confutil.StringNotEmpty(r.conf.AppVersion, gmconf.AppVersionDefault)) {
			log.L(ctx).Infof("Stored streak records cleared for a new app version")
		}
		r.logs, err = etherscan.NewClient(ctx, &r.conf.Etherscan)
		err = r.wrapIfErr(ctx, err, "event log client")
	}

	if err == nil {
		r.remote = remotelog.NewAggregateClient(r.logs, r.contract, r.conf, r.clock, r.metrics)
		r.engine = reconcile.NewEngine(&r.conf.Sync, r.store, r.remote, r.clock, r.metrics)
		httpConf := r.conf.Blockchain.HTTP
		if httpConf.URL == "" {
			httpConf.URL = gmconf.BlockchainDefaults.HTTP.URL
		}
		r.rpc, err = rpcclient.NewHTTPClient(ctx, &httpConf)
		err = r.wrapIfErr(ctx, err, "blockchain client")
	}

	if err == nil && r.conf.Blockchain.SignerKey != "" {
		err = r.initSubmission(ctx)
	}
	return err
}

func (r *runtime) initSubmission(ctx context.Context) error {
	domain, err := signing.NewDomain(ctx, &r.conf.Pipeline.Attestation, r.chainID)
	if err == nil {
		r.signer, err = signing.NewKeySigner(ctx, r.conf.Blockchain.SignerKey, domain)
	}
	if err == nil {
		r.broadcaster = broadcast.WrapRPCClient(r.rpc, r.signer, r.chainID,
			retry.NewRetryLimited(&r.conf.Blockchain.ReceiptPoll, &gmconf.BlockchainDefaults.ReceiptPoll))
		r.compute = compute.NewProvider(compute.NewGatewayInitializer(&r.conf.Compute, r.chainID))
		r.pipeline, err = pipeline.NewPipeline(ctx, r.conf, &pipeline.Components{
			Compute:     r.compute,
			Signer:      r.signer,
			Broadcaster: r.broadcaster,
			Reconciler:  r.engine,
			Metrics:     r.metrics,
			Clock:       r.clock,
		})
	}
	if err == nil {
		log.L(ctx).Infof("Submissions enabled for %s on chain %d", r.signer.Address(), r.chainID)
	}
	return r.wrapIfErr(ctx, err, "submission pipeline")
}

func (r *runtime) wrapIfErr(ctx context.Context, err error, component string) error {
	if err != nil {
		return i18n.WrapError(ctx, err, msgs.MsgSessionInitFailed, component)
	}
	return nil
}

func (r *runtime) Engine() reconcile.Engine {
	return r.engine
}

func (r *runtime) Pipeline() pipeline.Pipeline {
	return r.pipeline
}

func (r *runtime) Signer() signing.Signer {
	return r.signer
}

func (r *runtime) Metrics() metrics.Metrics {
	return r.metrics
}

// Check proves connectivity to the event log indexer and the JSON-RPC node
func (r *runtime) Check(ctx context.Context) (*CheckResult, error) {
	ctx = log.WithComponent(ctx, "check")
	blockNumber, err := r.logs.BlockNumber(ctx)
	if err != nil {
		return nil, i18n.WrapError(ctx, err, msgs.MsgCLICheckFailed, "event log")
	}
	var chainID ethtypes.HexUint64
	if rpcErr := r.rpc.CallRPC(ctx, &chainID, "eth_chainId"); rpcErr != nil {
		return nil, i18n.WrapError(ctx, rpcErr, msgs.MsgCLICheckFailed, "blockchain")
	}
	if int64(chainID.Uint64()) != r.chainID {
		log.L(ctx).Warnf("Node reports chain %d, configured chain is %d", chainID.Uint64(), r.chainID)
	}
	return &CheckResult{
		BlockNumber: blockNumber,
		ChainID:     int64(chainID.Uint64()),
		Contract:    r.contract,
		TotalEvents: r.remote.TotalCount(ctx),
	}, nil
}

func (r *runtime) Close() {
	if r.pipeline != nil {
		r.pipeline.Close()
	}
	if r.persistence != nil {
		r.persistence.Close()
	}
}
