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

package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ntclick/GmGM/internal/session"
	"github.com/ntclick/GmGM/pkg/gmconf"
	"github.com/ntclick/GmGM/pkg/gmtypes"
	"github.com/ntclick/GmGM/pkg/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "GMSTREAK"

// swapped in tests
var newRuntime = session.NewRuntime

type rootOptions struct {
	configFile string
	env        *viper.Viper
}

func NewRootCommand() *cobra.Command {
	opts := &rootOptions{
		env: viper.New(),
	}
	opts.env.SetEnvPrefix(envPrefix)
	opts.env.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "gmstreak",
		Short:         "Daily confidential GM streaks, reconciled with the on-chain event log",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "YAML config file")

	cmd.AddCommand(newStatusCommand(opts))
	cmd.AddCommand(newSyncCommand(opts))
	cmd.AddCommand(newSubmitCommand(opts))
	cmd.AddCommand(newWatchCommand(opts))
	cmd.AddCommand(newCheckCommand(opts))
	return cmd
}

// loadConfig reads the config file, when one is given, then applies the
// environment overrides for secrets
func (opts *rootOptions) loadConfig(ctx context.Context) (*gmconf.GMStreakConfig, error) {
	var conf gmconf.GMStreakConfig
	if opts.configFile != "" {
		if err := gmconf.ReadAndParseYAMLFile(ctx, opts.configFile, &conf); err != nil {
			return nil, err
		}
	}
	if apiKey := opts.env.GetString("etherscan_apikey"); apiKey != "" {
		conf.Etherscan.APIKey = apiKey
	}
	if signerKey := opts.env.GetString("signer_key"); signerKey != "" {
		conf.Blockchain.SignerKey = signerKey
	}
	log.InitConfig(&conf.Log)
	return &conf, nil
}

func (opts *rootOptions) runtime(ctx context.Context) (*gmconf.GMStreakConfig, session.Runtime, error) {
	conf, err := opts.loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	rt, err := newRuntime(ctx, conf, gmtypes.RealClock())
	if err != nil {
		return nil, nil, err
	}
	return conf, rt, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}
