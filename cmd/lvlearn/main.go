// SPDX-License-Identifier: MIT

// Command lvlearn runs the PCA walkthrough and trains, reloads, inspects and
// serves sequence classifiers.
package main

import (
	"fmt"
	"os"

	"github.com/katalvlaran/lvlearn/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "lvlearn:", err)
		os.Exit(1)
	}
}
