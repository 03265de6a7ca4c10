// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mlops-lab/dsingest/internal/utils"
)

// NewRegisterCmd persists the current environment variables into the
// INI file as a named configuration environment.
func NewRegisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Persist the current env configuration into " + utils.IniName,
		RunE: func(cmd *cobra.Command, _ []string) error {
			envName, _ := cmd.Flags().GetString("env")
			if err := utils.RegisterIniCfgWithViper(envName); err != nil {
				return err
			}
			if envName == "" {
				envName = "default"
			}
			if err := utils.UpdateIniFromStruct(utils.IniPath(), envName); err != nil {
				return fmt.Errorf("failed to update ini: %w", err)
			}
			fmt.Printf("Environment [%s] saved to %s\n", envName, utils.IniPath())
			return nil
		},
	}
}
