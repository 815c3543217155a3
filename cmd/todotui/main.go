package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"todotui/app"
	"todotui/store"
	"todotui/tui"
)

func newRootCmd() *cobra.Command {
	var execScript string

	cmd := &cobra.Command{
		Use:   "todotui <todo-file>",
		Short: "Terminal todo.txt viewer with context panels and pipe streaming",
		Long: "todotui browses and edits a todo.txt file: context-scoped views,\n" +
			"sorting and grouping, completion toggling, and archival.\n\n" +
			"When <todo-file> is a named pipe, todotui switches to streaming mode:\n" +
			"lines written to the pipe appear as new todos and the file is never\n" +
			"written back.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], execScript)
		},
	}
	cmd.Flags().StringVar(&execScript, "exec", "", "executable invoked with \"<Event>: <text>\" on mutations")
	return cmd
}

func run(path, execScript string) error {
	streaming, err := store.IsNamedPipe(path)
	if err != nil {
		return err
	}

	svc := app.NewService(path, streaming, app.NewNotifier(execScript))
	if !streaming {
		if err := svc.Load(); err != nil {
			return err
		}
	}

	p := tea.NewProgram(tui.NewModel(svc, path), tea.WithAltScreen())
	if streaming {
		go app.RunPipeReader(path, svc, func() {
			p.Send(tui.RecordAppendedMsg{})
		})
	}

	_, err = p.Run()
	return err
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "todotui:", err)
		os.Exit(1)
	}
}
