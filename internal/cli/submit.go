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
	"errors"
	"fmt"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/ntclick/GmGM/internal/msgs"
	"github.com/ntclick/GmGM/internal/pipeline"
	"github.com/spf13/cobra"
)

func newSubmitCommand(opts *rootOptions) *cobra.Command {
	action := &pipeline.Action{}
	var noWait bool
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit today's confidential GM from the signer account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, rt, err := opts.runtime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()
			s, err := rt.NewSession(ctx, "", nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			res, err := s.Submit(ctx, action, func(st *pipeline.Status) {
				if st.TxHash != "" {
					fmt.Fprintf(out, "%-13s %s\n", st.Phase, st.TxHash)
				} else {
					fmt.Fprintf(out, "%s\n", st.Phase)
				}
			})
			if err != nil {
				var se *pipeline.SubmissionError
				if errors.As(err, &se) {
					return i18n.WrapError(ctx, se, msgs.MsgCLISubmitFailed, se.Category)
				}
				return err
			}
			if res == nil {
				// another submission owned the pipeline
				return nil
			}
			record := res.Record
			if !noWait {
				if refreshed := <-res.Refreshed; refreshed != nil {
					record = refreshed
				}
			}
			return printJSON(cmd, record)
		},
	}
	cmd.Flags().Int64VarP(&action.Count, "count", "n", 1, "value to encrypt and submit")
	cmd.Flags().StringVar(&action.Category, "category", "", "morning, afternoon, evening or night (default from the UTC hour)")
	cmd.Flags().StringVarP(&action.Message, "message", "m", "", "message stored with the GM (default from config)")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "do not wait for the post-submission refresh")
	return cmd
}
