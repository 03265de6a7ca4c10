// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"github.com/mlops-lab/dsingest/internal/cli"
)

func main() {
	err := cli.NewRootCmd().Execute()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
	}
	os.Exit(cli.ExitCode(err))
}
