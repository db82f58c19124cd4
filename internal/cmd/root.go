package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root cobra command with all subcommands, mirroring
// the teacher's tree-of-subcommands style.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ptyd",
		Short: "PTY automation daemon and client",
		Long:  "ptyd drives interactive terminal applications on behalf of programmatic clients: a daemon owns PTY child processes and exposes them over a local JSON protocol, and this CLI is a thin front-end onto that protocol.",
	}

	rootCmd.AddCommand(
		newDaemonCmd(),
		newSpawnCmd(),
		newListCmd(),
		newKillCmd(),
		newSnapshotCmd(),
		newTypeCmd(),
		newKeyCmd(),
		newClickCmd(),
		newScrollCmd(),
		newWaitForCmd(),
		newResizeCmd(),
		newShutdownCmd(),
		newRunCmd(),
		newVersionCmd(),
	)

	return rootCmd
}
