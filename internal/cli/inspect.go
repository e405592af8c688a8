// SPDX-License-Identifier: MIT

package cli

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/katalvlaran/lvlearn/checkpoint"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <checkpoint>",
		Short: "Print a checkpoint header without rebuilding the model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := checkpoint.Inspect(args[0])
			if err != nil {
				return err
			}
			b, err := sonic.ConfigStd.MarshalIndent(h, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal header: %w", err)
			}
			a.log.Debug().Str("path", args[0]).Int("tensors", len(h.Tensors)).Msg("inspected checkpoint")
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))

			return err
		},
	}
}
