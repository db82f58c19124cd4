package cmd

import (
	"github.com/spf13/cobra"

	"ptyd/internal/protocol"
)

func newSnapshotCmd() *cobra.Command {
	var session, format string
	var awaitChange uint64
	var haveAwaitChange bool
	var settleMs, timeoutMs uint64

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Take a snapshot of a session's screen",
		RunE: func(cmd *cobra.Command, args []string) error {
			snapCmd := protocol.Command{
				Action:    protocol.ActionSnapshot,
				Session:   session,
				Format:    format,
				SettleMs:  settleMs,
				TimeoutMs: timeoutMs,
			}
			if haveAwaitChange {
				snapCmd.AwaitChange = &awaitChange
			}
			resp, err := roundTrip(snapCmd)
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

	cmd.Flags().StringVar(&session, "session", "", "session id or name")
	cmd.Flags().StringVar(&format, "format", protocol.FormatFull, "full|compact|text")
	cmd.Flags().Uint64Var(&awaitChange, "await-change", 0, "block until the content hash differs from this value")
	cmd.Flags().Uint64Var(&settleMs, "settle-ms", 0, "wait for output to stop changing for this many ms before returning")
	cmd.Flags().Uint64Var(&timeoutMs, "timeout-ms", 0, "overall timeout for await-change/settle-ms (ms)")
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		haveAwaitChange = cmd.Flags().Changed("await-change")
		return nil
	}
	return cmd
}
