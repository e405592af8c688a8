// SPDX-License-Identifier: MIT

package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/lvlearn/checkpoint"
	"github.com/katalvlaran/lvlearn/dataset"
	"github.com/katalvlaran/lvlearn/nn"
)

func newTrainCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a classifier on the full dataset and save it as a checkpoint",
		Long: `Without --data, train a SimpleRNN on synthetic "rising vs falling"
sequences. With --data, train a dense classifier on a CSV file whose label
column holds integer classes.`,
		Example: `  lvlearn train --out model.lvm --epochs 30
  lvlearn train --data iris.csv --header --label-col -1 --out iris.db`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.runTrain(ctx, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.String("out", a.cfg.ModelPath, "checkpoint path (.db/.sqlite select the SQLite codec)")
	f.String("format", a.cfg.Format, "checkpoint codec: auto, archive or sqlite")
	f.String("data", "", "CSV training data (default: synthetic sequences)")
	f.Bool("header", false, "first CSV line holds column names")
	f.Int("label-col", -1, "label column index, negative counts from the end")
	f.Int("epochs", a.cfg.Epochs, "training epochs")
	f.Int("batch-size", a.cfg.BatchSize, "mini-batch size")
	f.Float64("lr", a.cfg.LearningRate, "learning rate")
	f.String("optimizer", a.cfg.Optimizer, "optimizer: adam or sgd")
	f.Float64("momentum", 0, "SGD momentum")
	f.Int("units", a.cfg.Units, "hidden units")
	f.Int("samples", a.cfg.Samples, "synthetic sequences to generate")
	f.Int("timesteps", a.cfg.Timesteps, "synthetic sequence length")
	f.Uint64("seed", a.cfg.Seed, "seed for data generation and shuffling")

	return cmd
}

func (a *app) runTrain(ctx context.Context, out io.Writer) error {
	model, X, y, err := a.trainingSetup()
	if err != nil {
		return err
	}

	opt, err := nn.NewOptimizer(nn.OptimizerConfig{
		Kind:         a.v.GetString("optimizer"),
		LearningRate: a.v.GetFloat64("lr"),
		Momentum:     a.v.GetFloat64("momentum"),
	})
	if err != nil {
		return err
	}
	lossName := nn.BinaryCrossentropy
	if model.OutputUnits() > 1 {
		lossName = nn.CategoricalCrossentropy
	}
	if err = model.Compile(lossName, opt); err != nil {
		return err
	}

	seed := a.v.GetUint64("seed")
	hist, err := model.Fit(ctx, X, y,
		nn.WithEpochs(a.v.GetInt("epochs")),
		nn.WithBatchSize(a.v.GetInt("batch-size")),
		nn.WithShuffle(seed),
		nn.WithLogger(a.log),
	)
	if err != nil {
		return err
	}

	format, err := checkpoint.ParseFormat(a.v.GetString("format"))
	if err != nil {
		return err
	}
	path := a.v.GetString("out")
	meta := map[string]string{
		"seed":   strconv.FormatUint(seed, 10),
		"epochs": strconv.Itoa(len(hist.Loss)),
	}
	if data := a.v.GetString("data"); data != "" {
		meta["data"] = data
	}
	if err = checkpoint.Save(path, model,
		checkpoint.WithFormat(format),
		checkpoint.WithMetadata(meta),
		checkpoint.WithLogger(a.log),
	); err != nil {
		return err
	}

	last := len(hist.Loss) - 1
	fmt.Fprintf(out, "trained %d epochs: loss=%.4f accuracy=%.4f\n", len(hist.Loss), hist.Loss[last], hist.Accuracy[last])
	fmt.Fprintf(out, "saved %s (%d params)\n", path, model.ParamCount())

	return nil
}

// trainingSetup builds the model and the (X, y) pair for the selected data source.
func (a *app) trainingSetup() (*nn.Sequential, *mat.Dense, *mat.Dense, error) {
	units := a.v.GetInt("units")
	data := a.v.GetString("data")

	if data == "" {
		steps := a.v.GetInt("timesteps")
		X, y, err := dataset.Sequences(a.v.GetInt("samples"), steps, a.v.GetUint64("seed"))
		if err != nil {
			return nil, nil, nil, err
		}
		m, err := nn.NewSequential(nn.Shape{Timesteps: steps, Features: 1},
			nn.SimpleRNN(units, nn.Tanh),
			nn.Dense(1, nn.Sigmoid),
		)
		return m, X, y, err
	}

	var opts []dataset.Option
	if a.v.GetBool("header") {
		opts = append(opts, dataset.WithHeader())
	}
	tbl, err := dataset.LoadCSV(data, opts...)
	if err != nil {
		return nil, nil, nil, err
	}
	features, labels, err := tbl.Split(a.v.GetInt("label-col"))
	if err != nil {
		return nil, nil, nil, err
	}

	X := features.ToGonum()
	classes, err := dataset.CountClasses(labels)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("labels in column %d: %w", a.v.GetInt("label-col"), err)
	}
	head, y := nn.Dense(1, nn.Sigmoid), dataset.Column(labels)
	if classes > 2 {
		if y, err = dataset.OneHot(labels, classes); err != nil {
			return nil, nil, nil, err
		}
		head = nn.Dense(classes, nn.Softmax)
	}
	m, err := nn.NewSequential(nn.Shape{Timesteps: 1, Features: features.Cols()},
		nn.Dense(units, nn.ReLU),
		head,
	)

	return m, X, y, err
}
