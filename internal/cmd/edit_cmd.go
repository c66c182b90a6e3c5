package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stateful/canvas/internal/tui"
)

func editCmd(cFlags *commonFlags) *cobra.Command {
	cmd := cobra.Command{
		Use:   "edit NAME",
		Short: "Edit a stored document in the terminal.",
		Long: `Edit opens the document NAME in an interactive editor. A document
that does not exist yet starts empty and is created on the first save.

Press ? to list the key bindings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			resolver, err := cFlags.resolver()
			if err != nil {
				return err
			}

			s, err := cFlags.openSession(ctx, args[0])
			if err != nil {
				return err
			}

			model := tui.NewEditorModel(ctx, s, tui.WithEditorResolver(resolver))
			final, err := newProgram(cmd, tui.NewModel(model, tui.FrameKeyMap, tui.DefaultStyles)).Run()
			if err != nil {
				return errors.WithStack(err)
			}

			if m, ok := final.(tui.Model); ok {
				if e, ok := m.Child.(tui.EditorModel); ok && e.Dirty() {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s has unsaved changes\n", s.Key())
				}
			}
			return nil
		},
	}

	return &cmd
}
