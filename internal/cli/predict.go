// SPDX-License-Identifier: MIT

package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/lvlearn/checkpoint"
	"github.com/katalvlaran/lvlearn/dataset"
	"github.com/katalvlaran/lvlearn/nn"
)

// Prediction output modes.
const (
	modeRaw     = "raw"
	modeClasses = "classes"
	modeProba   = "proba"
)

func newPredictCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Reload a checkpoint and predict on CSV rows",
		Long: `Each CSV row is one sample flattened to timesteps*features values.
Without --input, a fresh batch of synthetic sequences is scored instead.`,
		Example: `  lvlearn predict --model model.lvm --input rows.csv --mode classes`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runPredict(cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.String("model", a.cfg.ModelPath, "checkpoint to load")
	f.String("input", "", "CSV file with one flattened sample per row")
	f.Bool("header", false, "first CSV line holds column names")
	f.String("mode", modeClasses, "output: raw, classes or proba")
	f.Int("samples", 8, "synthetic sequences to score when --input is empty")
	f.Uint64("seed", a.cfg.Seed+1, "seed for synthetic sequences")

	return cmd
}

func (a *app) runPredict(out io.Writer) error {
	mode := strings.ToLower(a.v.GetString("mode"))
	if mode != modeRaw && mode != modeClasses && mode != modeProba {
		return fmt.Errorf("unknown mode %q (want raw, classes or proba)", mode)
	}

	model, err := checkpoint.Load(a.v.GetString("model"), checkpoint.WithLogger(a.log))
	if err != nil {
		return err
	}
	X, err := a.predictInput(model)
	if err != nil {
		return err
	}

	if mode == modeClasses {
		classes, err := model.PredictClasses(X)
		if err != nil {
			return err
		}
		for _, c := range classes {
			fmt.Fprintln(out, c)
		}
		return nil
	}

	var res *mat.Dense
	if mode == modeProba {
		res, err = model.PredictProba(X)
	} else {
		res, err = model.Predict(X)
	}
	if err != nil {
		return err
	}
	writeRows(out, res)

	return nil
}

func (a *app) predictInput(model *nn.Sequential) (*mat.Dense, error) {
	path := a.v.GetString("input")
	if path == "" {
		X, _, err := dataset.Sequences(a.v.GetInt("samples"), model.InputShape().Timesteps, a.v.GetUint64("seed"))
		return X, err
	}

	var opts []dataset.Option
	if a.v.GetBool("header") {
		opts = append(opts, dataset.WithHeader())
	}
	tbl, err := dataset.LoadCSV(path, opts...)
	if err != nil {
		return nil, err
	}

	return tbl.ToGonum(), nil
}

// writeRows prints m as comma separated rows.
func writeRows(w io.Writer, m *mat.Dense) {
	r, c := m.Dims()
	cells := make([]string, c)
	for i := 0; i < r; i++ {
		for j := range cells {
			cells[j] = strconv.FormatFloat(m.At(i, j), 'g', 6, 64)
		}
		fmt.Fprintln(w, strings.Join(cells, ","))
	}
}
