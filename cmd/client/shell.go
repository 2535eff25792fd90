package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/atinyakov/donorlink/internal/client/prompt"
)

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run commands interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return repl(cmd.Context(), cmd.Root(), a)
		},
	}
}

// resetFlags restores every subcommand flag to its default so values do not
// leak from one shell command into the next.
func resetFlags(root *cobra.Command) {
	for _, c := range root.Commands() {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
}

// repl runs the interactive shell loop, dispatching each line to the
// command tree.
func repl(ctx context.Context, root *cobra.Command, a *app) error {
	fmt.Fprintln(a.out, "Type 'help' for a list of commands, 'exit' to quit.")
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := a.prompt.Line("donorlink")
		if errors.Is(err, prompt.ErrClosed) {
			return nil
		}
		if err != nil {
			return err
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye")
			return nil
		case "shell":
			fmt.Fprintln(a.out, "Already in the shell.")
			continue
		}

		resetFlags(root)
		root.SetArgs(args)
		if err := root.ExecuteContext(ctx); err != nil {
			fmt.Fprintln(a.out, "error:", message(err))
		}
	}
}
