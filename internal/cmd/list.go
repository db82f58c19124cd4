package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ptyd/internal/protocol"
	"ptyd/internal/termemu"
	"ptyd/internal/version"
)

func versionString() string {
	return "ptyd " + version.DisplayVersion()
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List live sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(protocol.Command{Action: protocol.ActionListSessions})
			if err != nil {
				return err
			}
			data, err := mustSucceed(resp)
			if err != nil {
				return err
			}
			raw, err := json.Marshal(data)
			if err != nil {
				return err
			}
			var sessions protocol.Sessions
			if err := json.Unmarshal(raw, &sessions); err != nil {
				return err
			}
			if len(sessions.Sessions) == 0 {
				fmt.Println("No live sessions.")
				return nil
			}
			for _, s := range sessions.Sessions {
				fmt.Printf("  \033[32m●\033[0m %-12s %-8s %-6s %s\n", s.ID[:8], s.Name, sessionAge(s.CreatedAt), s.Command)
			}
			return nil
		},
	}
}

// sessionAge formats a session's RFC3339 creation timestamp as a compact
// human-readable age; a timestamp that fails to parse renders as "?" rather
// than failing the whole listing.
func sessionAge(createdAt string) string {
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return "?"
	}
	return termemu.FormatDuration(time.Since(t))
}

func newKillCmd() *cobra.Command {
	var session string
	cmd := &cobra.Command{
		Use:   "kill",
		Short: "Kill a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(protocol.Command{Action: protocol.ActionKill, Session: session})
			if err != nil {
				return err
			}
			data, err := mustSucceed(resp)
			if err != nil {
				return err
			}
			return printJSON(data)
		},
	}
	cmd.Flags().StringVar(&session, "session", "", "session id or name (defaults to \"default\")")
	return cmd
}

func newShutdownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shutdown",
		Short: "Shut down the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(protocol.Command{Action: protocol.ActionShutdown})
			if err != nil {
				return err
			}
			data, err := mustSucceed(resp)
			if err != nil {
				return err
			}
			return printJSON(data)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(versionString())
			return nil
		},
	}
}
