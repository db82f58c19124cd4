package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"ptyd/internal/protocol"
)

var errNoPattern = errors.New("wait-for requires a pattern, either positionally or via --pattern")

func newTypeCmd() *cobra.Command {
	var session string
	cmd := &cobra.Command{
		Use:   "type <text>",
		Short: "Type literal text into a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(protocol.Command{Action: protocol.ActionType, Text: args[0], Session: session})
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
	return cmd
}

func newKeyCmd() *cobra.Command {
	var session string
	var delayMs uint32
	cmd := &cobra.Command{
		Use:   "key <key-sequence>",
		Short: "Send a named key, modifier combo, or key sequence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(protocol.Command{
				Action:  protocol.ActionKey,
				Key:     args[0],
				DelayMs: delayMs,
				Session: session,
			})
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
	cmd.Flags().Uint32Var(&delayMs, "delay-ms", 0, "delay between tokens in a multi-key sequence")
	return cmd
}

func newClickCmd() *cobra.Command {
	var session string
	var row, col uint16
	cmd := &cobra.Command{
		Use:   "click",
		Short: "Click at a 0-indexed row/column",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(protocol.Command{Action: protocol.ActionClick, Row: row, Col: col, Session: session})
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
	cmd.Flags().Uint16Var(&row, "row", 0, "0-indexed row")
	cmd.Flags().Uint16Var(&col, "col", 0, "0-indexed column")
	return cmd
}

func newScrollCmd() *cobra.Command {
	var session, direction string
	var amount uint32
	cmd := &cobra.Command{
		Use:   "scroll",
		Short: "Scroll the screen up or down",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(protocol.Command{
				Action:    protocol.ActionScroll,
				Direction: direction,
				Amount:    amount,
				Session:   session,
			})
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
	cmd.Flags().StringVar(&direction, "direction", "down", "up|down")
	cmd.Flags().Uint32Var(&amount, "amount", 1, "number of wheel events (max 1000)")
	return cmd
}

func newWaitForCmd() *cobra.Command {
	var session, pattern string
	var regex bool
	var timeoutMs uint64
	cmd := &cobra.Command{
		Use:   "wait-for <pattern>",
		Short: "Block until the screen matches a literal string or regex",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := pattern
			if len(args) == 1 {
				p = args[0]
			}
			if p == "" {
				return errNoPattern
			}
			resp, err := roundTrip(protocol.Command{
				Action:    protocol.ActionWaitFor,
				Pattern:   p,
				Regex:     regex,
				TimeoutMs: timeoutMs,
				Session:   session,
			})
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
	cmd.Flags().StringVar(&pattern, "pattern", "", "pattern to wait for (alternative to positional arg)")
	cmd.Flags().BoolVar(&regex, "regex", false, "treat pattern as a regular expression")
	cmd.Flags().Uint64Var(&timeoutMs, "timeout-ms", 5000, "timeout in ms")
	return cmd
}

func newResizeCmd() *cobra.Command {
	var session string
	var rows, cols uint16
	cmd := &cobra.Command{
		Use:   "resize",
		Short: "Resize a session's PTY and emulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(protocol.Command{Action: protocol.ActionResize, Rows: rows, Cols: cols, Session: session})
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
	cmd.Flags().Uint16Var(&rows, "rows", 24, "terminal rows")
	cmd.Flags().Uint16Var(&cols, "cols", 80, "terminal columns")
	return cmd
}
