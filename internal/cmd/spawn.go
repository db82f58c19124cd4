package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/google/shlex"
	"github.com/spf13/cobra"

	"ptyd/internal/protocol"
)

func newSpawnCmd() *cobra.Command {
	var name, cwd, commandLine string
	var withColors bool

	cmd := &cobra.Command{
		Use:   "spawn <command> [args...]",
		Short: "Spawn a new PTY session",
		RunE: func(cmd *cobra.Command, args []string) error {
			argv := args
			if commandLine != "" {
				split, err := shlex.Split(commandLine)
				if err != nil {
					return fmt.Errorf("parse --command: %w", err)
				}
				argv = split
			}
			if len(argv) == 0 {
				return fmt.Errorf("no command given; pass argv or --command")
			}

			spawnCmd := protocol.Command{
				Action:      protocol.ActionSpawn,
				Command:     argv,
				SessionName: name,
				Cwd:         cwd,
			}
			if withColors {
				hints := detectTerminalHints()
				spawnCmd.OSCFg = hints.OscFg
				spawnCmd.OSCBg = hints.OscBg
			}

			resp, err := roundTrip(spawnCmd)
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

	cmd.Flags().StringVar(&name, "name", "", "session name (defaults to \"default\")")
	cmd.Flags().StringVar(&cwd, "cwd", "", "working directory for the spawned command")
	cmd.Flags().StringVar(&commandLine, "command", "", "shell-style command line, split with shlex instead of passing argv directly")
	cmd.Flags().BoolVar(&withColors, "match-terminal-colors", true, "answer the child's OSC 10/11 color queries with this terminal's actual palette")

	return cmd
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
