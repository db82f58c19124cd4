// Command ptyd is the CLI front-end for the PTY automation daemon: it
// starts the daemon in the foreground (`ptyd daemon`) and translates
// client subcommands into protocol requests over the daemon's socket.
package main

import (
	"fmt"
	"os"

	"ptyd/internal/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
