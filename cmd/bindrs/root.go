package main

import (
	"github.com/spf13/cobra"

	"github.com/daveallie/bindrs/internal/bindrs"
	"github.com/daveallie/bindrs/internal/cli"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:     "bindrs",
	Short:   "Bidirectional directory synchronization over SSH",
	Version: bindrs.Version,
}

// Execute runs the root command, exiting 1 on any error it returns.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		cli.Fatal(err)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(slaveCmd)
}
