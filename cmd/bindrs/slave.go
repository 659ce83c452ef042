package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/daveallie/bindrs/internal/bindrs"
	"github.com/daveallie/bindrs/internal/ignore"
	"github.com/daveallie/bindrs/internal/logging"
	"github.com/daveallie/bindrs/internal/session"
)

var slaveIgnorePatterns []string

var slaveCmd = &cobra.Command{
	Use:   "slave BASE_DIR",
	Short: "Run as the remote half of a synchronization session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSlave,
}

func init() {
	slaveCmd.Flags().StringArrayVar(&slaveIgnorePatterns, "ignore", nil, "ignore pattern, may be repeated")
	slaveCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "raise the log threshold to debug")
}

func runSlave(cmd *cobra.Command, args []string) error {
	baseDir := args[0]

	ignores, err := ignore.Compile(slaveIgnorePatterns)
	if err != nil {
		return err
	}

	log, closeLog, err := logging.NewSessionLogger(baseDir, bindrs.Version, "slave")
	if err != nil {
		return err
	}
	defer closeLog()
	logging.DebugEnabled = verbose

	sess, err := session.New(baseDir, ignores, os.Stdin, os.Stdout, log)
	if err != nil {
		return err
	}

	return sess.Run()
}
