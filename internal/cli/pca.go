// SPDX-License-Identifier: MIT

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/lvlearn/dataset"
	"github.com/katalvlaran/lvlearn/matrix"
	"github.com/katalvlaran/lvlearn/pca"
)

// walkthroughRows is the 3×2 matrix used when no --input is given.
var walkthroughRows = [][]float64{{1, 2}, {3, 4}, {5, 6}}

func newPCACmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pca",
		Short: "Run the covariance-method PCA recipe and print every step",
		Example: `  lvlearn pca
  lvlearn pca --input data.csv --header --components 2 --backend gonum`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runPCA(cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.String("input", "", "CSV file, rows are samples (default: the 3x2 walkthrough matrix)")
	f.Bool("header", false, "first CSV line holds column names")
	f.Int("components", a.cfg.Components, "components to keep (0 keeps all)")
	f.String("backend", a.cfg.Backend, "eigen solver: jacobi or gonum")
	f.Bool("whiten", false, "scale scores to unit variance")

	return cmd
}

func (a *app) runPCA(out io.Writer) error {
	X, err := a.pcaInput()
	if err != nil {
		return err
	}
	backend, err := pca.ParseBackend(a.v.GetString("backend"))
	if err != nil {
		return err
	}
	k := a.v.GetInt("components")
	if k == 0 {
		k = X.Cols()
	}
	opts := []pca.Option{pca.WithBackend(backend), pca.WithLogger(a.log)}

	steps, err := pca.Decompose(X, k, opts...)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "means:\n%v\n", steps.Means)
	fmt.Fprintf(out, "centered:\n%v", steps.Centered)
	fmt.Fprintf(out, "covariance:\n%v", steps.Covariance)
	fmt.Fprintf(out, "eigenvalues:\n%v\n", steps.Eigenvalues)
	fmt.Fprintf(out, "eigenvectors (columns):\n%v", steps.Eigenvectors)
	fmt.Fprintf(out, "projection (k×n):\n%v", steps.Projection)

	if a.v.GetBool("whiten") {
		opts = append(opts, pca.WithWhiten())
	}
	est := pca.New(append(opts, pca.WithComponents(k))...)
	scores, err := est.FitTransform(X)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "scores (n×k):\n%v", scores)
	fmt.Fprintf(out, "explained variance ratio: %s\n", formatFloats(est.ExplainedVarianceRatio()))

	return nil
}

func (a *app) pcaInput() (*matrix.Dense, error) {
	path := a.v.GetString("input")
	if path == "" {
		return matrix.NewDenseFrom(walkthroughRows)
	}

	var opts []dataset.Option
	if a.v.GetBool("header") {
		opts = append(opts, dataset.WithHeader())
	}
	tbl, err := dataset.LoadCSV(path, opts...)
	if err != nil {
		return nil, err
	}

	return tbl.ToMatrix()
}

func formatFloats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprintf("%.4f", v)
	}

	return "[" + strings.Join(parts, " ") + "]"
}
