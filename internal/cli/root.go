// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"github.com/spf13/cobra"
)

// Exit codes of the run command. NoMembersFound is distinguished from
// "ran but produced nothing" so callers can tell an empty source from
// an unproductive one.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitNoMembers     = 2
	ExitNothingStored = 3
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "dsingest",
		Short:         "Stream a remote archive dataset into canonical object storage",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("env", "", "named configuration environment")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewRegisterCmd())

	return cmd
}
