package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"ptyd/internal/config"
	"ptyd/internal/daemonserver"
	"ptyd/internal/pathresolve"
)

func newDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "daemon",
		Short:  "Run the ptyd daemon in the foreground (internal)",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			dir, err := pathresolve.Dir()
			if err != nil {
				return fmt.Errorf("resolve socket dir: %w", err)
			}
			name := daemonInstanceName()
			sockPath := pathresolve.SocketPath(dir, name)
			pidPath := pathresolve.PIDPath(dir, name)

			srv, err := daemonserver.New(cfg, sockPath, pidPath)
			if err != nil {
				return fmt.Errorf("bind: %w", err)
			}
			log.Printf("ptyd: listening on %s (pid %d)", sockPath, os.Getpid())
			return srv.Run()
		},
	}
	return cmd
}
