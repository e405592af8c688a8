// SPDX-License-Identifier: MIT

// Package cli implements the lvlearn command tree.
package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/katalvlaran/lvlearn/internal/config"
	"github.com/katalvlaran/lvlearn/internal/logger"
)

// app is shared by every subcommand of one root.
type app struct {
	cfg     *config.AppConfig
	v       *viper.Viper
	log     zerolog.Logger
	cfgFile string
	verbose bool
}

// NewRootCmd builds the command tree. Flag defaults come from cfg (environment
// and .env); a --config file and explicit flags override them, in that order.
func NewRootCmd(cfg *config.AppConfig) *cobra.Command {
	a := &app{cfg: cfg, v: viper.New(), log: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "lvlearn",
		Short: "PCA walkthroughs and persistent sequence models",
		Long: `lvlearn reproduces two workflows from the command line:

  pca      mean -> center -> covariance -> eigendecomposition -> projection
  train    fit a sequence classifier and save it to a single checkpoint file
  predict  reload a checkpoint and run inference on CSV input
  serve    expose a checkpoint over HTTP`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (yaml, json or toml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().String("log-level", cfg.LogLevel, "log level (trace, debug, info, warn, error)")

	root.AddCommand(
		newPCACmd(a),
		newTrainCmd(a),
		newPredictCmd(a),
		newServeCmd(a),
		newInspectCmd(a),
	)

	return root
}

// Execute loads configuration from the environment, installs the global
// logger and runs the root command.
func Execute() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger.Init(cfg.Environment, cfg.LogLevel)

	return NewRootCmd(cfg).Execute()
}

// init binds the running command's flags, reads the config file and sets up logging.
func (a *app) init(cmd *cobra.Command) error {
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", a.cfgFile, err)
		}
	}

	level := a.v.GetString("log-level")
	if a.verbose {
		level = zerolog.DebugLevel.String()
	}
	a.log = logger.New(cmd.ErrOrStderr(), a.cfg.Environment, level)
	if used := a.v.ConfigFileUsed(); used != "" {
		a.log.Debug().Str("file", used).Msg("using config file")
	}

	return nil
}
