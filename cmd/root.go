/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "toa-permit",
	Short: "Work permit and prevention plan API server",
	Long: `TOA Permit is a REST API server for HSE work permit management.
It handles the permit lifecycle from draft through chef de projet and HSE
validation to field execution and closure, with daily control sheets and
Take 5 checklists recorded against active permits.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// GetRootCmd returns the root command for tests.
func GetRootCmd() *cobra.Command {
	return rootCmd
}
