// SPDX-License-Identifier: MIT

package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/lvlearn/checkpoint"
	"github.com/katalvlaran/lvlearn/serve"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve a checkpoint over HTTP",
		Example: `  lvlearn serve --model model.lvm --address 0.0.0.0:8080`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			model, err := checkpoint.Load(a.v.GetString("model"), checkpoint.WithLogger(a.log))
			if err != nil {
				return err
			}

			cfg := serve.Config{
				Address:       a.v.GetString("address"),
				BodySizeLimit: a.v.GetInt("body-limit"),
				ClientTimeout: a.cfg.ClientTimeout,
				RetryMax:      a.cfg.RetryMax,
				RetryWait:     a.cfg.RetryWait,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve.NewServer(model, cfg, a.log).Start(ctx)
		},
	}

	f := cmd.Flags()
	f.String("model", a.cfg.ModelPath, "checkpoint to serve")
	f.String("address", a.cfg.Address, "listen address")
	f.Int("body-limit", a.cfg.BodySizeLimit, "maximum request body in bytes")

	return cmd
}
