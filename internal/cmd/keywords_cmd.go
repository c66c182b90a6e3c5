package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cli/go-gh/v2/pkg/tableprinter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stateful/canvas/internal/term"
	"github.com/stateful/canvas/pkg/document/keyword"
)

type keywordSummary struct {
	Term       string   `json:"term"`
	Mastery    string   `json:"mastery"`
	Definition string   `json:"definition,omitempty"`
	Blocks     []string `json:"blocks"`
	Found      bool     `json:"found"`
}

func keywordsCmd(cFlags *commonFlags) *cobra.Command {
	var (
		format string
		retag  bool
		output string
	)

	cmd := cobra.Command{
		Use:   "keywords [file]",
		Short: "List the keywords tagged in a document.",
		Long: `Keywords lists every term tagged in the document together with the
mastery level and definition found in the glossary.

With --retag the mastery stored in each tag is refreshed from the
glossary and the updated document is written instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			blocks, err := readBlocks(cmd, args)
			if err != nil {
				return err
			}

			resolver, err := cFlags.resolver()
			if err != nil {
				return err
			}

			if retag {
				updated, changed := keyword.Retag(ctx, blocks, resolver)
				if err := writeBlocks(cmd, output, "json", updated); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "retagged %d blocks\n", changed)
				return nil
			}

			var result []keywordSummary
			index := keyword.Index(blocks)
			for el := index.Front(); el != nil; el = el.Next() {
				detail := resolver.Resolve(ctx, el.Key.(string))
				result = append(result, keywordSummary{
					Term:       el.Key.(string),
					Mastery:    detail.Mastery,
					Definition: detail.Definition,
					Blocks:     el.Value.([]string),
					Found:      detail.Found,
				})
			}

			switch format {
			case "json":
				return writeJSON(cmd, result)
			case "table":
				return renderKeywordsTable(cmd, result)
			default:
				return errors.Errorf("invalid format: %s", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format (table, json)")
	cmd.Flags().BoolVar(&retag, "retag", false, "Refresh the mastery of every tag and write the document")
	cmd.Flags().StringVarP(&output, "output", "o", "", "With --retag, write to a file instead of stdout")

	return &cmd
}

func renderKeywordsTable(cmd *cobra.Command, keywords []keywordSummary) error {
	t := terminal(cmd)
	table := tableprinter.New(t.Out(), t.IsTTY(), term.Width(t, 80))

	table.AddField(strings.ToUpper("Term"))
	table.AddField(strings.ToUpper("Mastery"))
	table.AddField(strings.ToUpper("Blocks"))
	table.AddField(strings.ToUpper("Definition"))
	table.EndRow()

	for _, kw := range keywords {
		table.AddField(kw.Term)
		table.AddField(kw.Mastery)
		table.AddField(strconv.Itoa(len(kw.Blocks)))
		table.AddField(kw.Definition)
		table.EndRow()
	}

	return errors.WithStack(table.Render())
}
