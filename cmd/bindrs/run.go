package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/daveallie/bindrs/internal/bindrs"
	"github.com/daveallie/bindrs/internal/bootstrap"
	"github.com/daveallie/bindrs/internal/cli"
	"github.com/daveallie/bindrs/internal/ignore"
	"github.com/daveallie/bindrs/internal/logging"
	"github.com/daveallie/bindrs/internal/remote"
	"github.com/daveallie/bindrs/internal/session"
)

var (
	runPort           string
	runIgnorePatterns []string
)

var runCmd = &cobra.Command{
	Use:   "run BASE_DIR REMOTE_DIR",
	Short: "Start a synchronization session as the master",
	Args:  cobra.ExactArgs(2),
	RunE:  runMaster,
}

func init() {
	runCmd.Flags().StringVar(&runPort, "port", "", "SSH port for the remote host (default 22)")
	runCmd.Flags().StringArrayVar(&runIgnorePatterns, "ignore", nil, "ignore pattern, may be repeated")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "raise the log threshold to debug")
}

func runMaster(cmd *cobra.Command, args []string) error {
	baseDir, remoteDir := args[0], args[1]

	ignores, err := ignore.Compile(runIgnorePatterns)
	if err != nil {
		return err
	}

	log, closeLog, err := logging.NewSessionLogger(baseDir, bindrs.Version, "master")
	if err != nil {
		return err
	}
	defer closeLog()
	logging.DebugEnabled = verbose

	target := remote.Parse(remoteDir, runPort)

	ctx := context.Background()
	slave, err := bootstrap.Run(ctx, bootstrap.Options{
		BaseDir:    baseDir,
		Target:     target,
		Ignores:    ignores,
		BinaryPath: "bindrs",
		Verbose:    verbose,
	}, log)
	if err != nil {
		cli.Error(err)
		return err
	}

	sess, err := session.New(baseDir, ignores, slave.Reader, slave.Writer, log)
	if err != nil {
		return err
	}

	return sess.Run()
}
