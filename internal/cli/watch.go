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
	"os"
	"os/signal"
	"syscall"

	"github.com/ntclick/GmGM/internal/metricsserver"
	"github.com/ntclick/GmGM/pkg/gmtypes"
	"github.com/ntclick/GmGM/pkg/log"
	"github.com/spf13/cobra"
)

func newWatchCommand(opts *rootOptions) *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the streak record in sync until interrupted (SIGUSR1 forces a sync)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conf, rt, err := opts.runtime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			ms, err := metricsserver.NewMetricsServer(ctx, rt.Metrics().Registry(), &conf.Metrics)
			if err == nil {
				err = ms.Start()
			}
			if err != nil {
				return err
			}
			defer ms.Stop()

			s, err := rt.NewSession(ctx, address, func(r *gmtypes.StreakRecord) {
				_ = printJSON(cmd, r)
			})
			if err != nil {
				return err
			}
			s.Start(ctx)
			defer s.Close()

			signals := make(chan os.Signal, 1)
			signal.Notify(signals, syscall.SIGUSR1, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(signals)
			for {
				select {
				case sig := <-signals:
					if sig == syscall.SIGUSR1 {
						s.Trigger()
						continue
					}
					log.L(ctx).Infof("Stopping due to signal %s", sig)
					return nil
				case <-ctx.Done():
					return nil
				}
			}
		},
	}
	cmd.Flags().StringVarP(&address, "address", "a", "", "user address (defaults to the signer)")
	return cmd
}
