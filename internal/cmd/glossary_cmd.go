package cmd

import (
	"strings"

	"github.com/cli/go-gh/v2/pkg/tableprinter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stateful/canvas/internal/glossary"
	"github.com/stateful/canvas/internal/term"
)

func glossaryCmd(cFlags *commonFlags) *cobra.Command {
	cmd := cobra.Command{
		Use:   "glossary",
		Short: "Manage the glossary keywords resolve against.",
	}

	cmd.AddCommand(glossaryPutCmd(cFlags))
	cmd.AddCommand(glossaryListCmd(cFlags))
	cmd.AddCommand(glossaryDeleteCmd(cFlags))

	return &cmd
}

func glossaryPutCmd(cFlags *commonFlags) *cobra.Command {
	var entry glossary.Entry

	cmd := cobra.Command{
		Use:   "put TERM",
		Short: "Add or update a term.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry.Term = args[0]
			if !glossary.ValidMastery(entry.Mastery) {
				return errors.Errorf(
					"invalid mastery %q, expected one of: %s",
					entry.Mastery,
					strings.Join(glossary.MasteryLevels(), ", "),
				)
			}
			return cFlags.invoke(func(store glossary.Store) error {
				return store.Put(cmd.Context(), entry)
			})
		},
	}

	cmd.Flags().StringVar(&entry.Definition, "definition", "", "Definition shown next to the keyword")
	cmd.Flags().StringVar(&entry.Mastery, "mastery", glossary.MasteryNew, "Mastery level (new, learning, review, mastered)")
	cmd.Flags().StringArrayVar(&entry.Prompts, "prompt", nil, "Study prompt; can be repeated")

	return &cmd
}

func glossaryListCmd(cFlags *commonFlags) *cobra.Command {
	var format string

	cmd := cobra.Command{
		Use:   "list",
		Short: "List the terms of the glossary.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []glossary.Entry
			err := cFlags.invoke(func(store glossary.Store) error {
				var err error
				entries, err = store.List(cmd.Context())
				return err
			})
			if err != nil {
				return err
			}

			switch format {
			case "json":
				return writeJSON(cmd, entries)
			case "table":
				t := terminal(cmd)
				table := tableprinter.New(t.Out(), t.IsTTY(), term.Width(t, 80))
				table.AddField("TERM")
				table.AddField("MASTERY")
				table.AddField("DEFINITION")
				table.EndRow()
				for _, e := range entries {
					table.AddField(e.Term)
					table.AddField(e.Mastery)
					table.AddField(e.Definition)
					table.EndRow()
				}
				return errors.WithStack(table.Render())
			default:
				return errors.Errorf("invalid format: %s", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format (table, json)")

	return &cmd
}

func glossaryDeleteCmd(cFlags *commonFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete TERM",
		Short: "Remove a term.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cFlags.invoke(func(store glossary.Store) error {
				return store.Delete(cmd.Context(), args[0])
			})
		},
	}
}
