package cmd

import (
	"github.com/spf13/cobra"

	"github.com/stateful/canvas/pkg/document/importer"
)

func importCmd(*commonFlags) *cobra.Command {
	var (
		format string
		markup bool
		output string
	)

	cmd := cobra.Command{
		Use:   "import [file]",
		Short: "Convert plain text into blocks.",
		Long: `Import converts plain text into a block document. Lines starting with
"# " and "## " become headings, "- " and "1. " lists, "> " quotes,
"---" dividers and "[!color]" callouts. Other lines are paragraphs.
Bold, italic and strikethrough use the Markdown syntax.

With --markup the input is HTML-like inline markup, as produced by
a generator or copied from a web page. It is sanitized first.`,
		Example: `Import notes and store them as JSON:
  canvas import notes.txt -o notes.json

Import from stdin and print the flattened text:
  cat notes.txt | canvas import --format text`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			blocks := importer.Import(string(data))
			if markup {
				blocks = importer.ImportMarkup(string(data))
			}

			return writeBlocks(cmd, output, format, blocks)
		},
	}

	addBlockFormatFlag(cmd.Flags(), &format)
	cmd.Flags().BoolVar(&markup, "markup", false, "Treat the input as inline markup")
	addOutputFlag(cmd.Flags(), &output)

	return &cmd
}
