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
	"github.com/spf13/cobra"
)

func newStatusCommand(opts *rootOptions) *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the locally stored streak record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, rt, err := opts.runtime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()
			s, err := rt.NewSession(ctx, address, nil)
			if err != nil {
				return err
			}
			return printJSON(cmd, s.Record(ctx))
		},
	}
	cmd.Flags().StringVarP(&address, "address", "a", "", "user address (defaults to the signer)")
	return cmd
}

func newSyncCommand(opts *rootOptions) *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the streak record with the on-chain event log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, rt, err := opts.runtime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()
			s, err := rt.NewSession(ctx, address, nil)
			if err != nil {
				return err
			}
			return printJSON(cmd, s.Sync(ctx))
		},
	}
	cmd.Flags().StringVarP(&address, "address", "a", "", "user address (defaults to the signer)")
	return cmd
}

func newCheckCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check connectivity to the event log indexer and the blockchain node",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, rt, err := opts.runtime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()
			res, err := rt.Check(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
}
