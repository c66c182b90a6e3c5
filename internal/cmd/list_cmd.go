package cmd

import (
	"strconv"
	"strings"

	"github.com/cli/go-gh/v2/pkg/tableprinter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stateful/canvas/internal/config"
	"github.com/stateful/canvas/internal/term"
	"github.com/stateful/canvas/pkg/document"
	"github.com/stateful/canvas/pkg/document/inline"
)

func listCmd(cFlags *commonFlags) *cobra.Command {
	var (
		format     string
		conditions []string
	)

	cmd := cobra.Command{
		Use:   "list [file]",
		Short: "List the blocks of a document.",
		Long: `List prints the blocks of a document. Blocks are filtered by the
filters from canvas.yaml and by the conditions passed with --filter.

A condition is an expression evaluated for every block, for example:
  type == 'heading'
  column_group != '' && column_width > 40
  'femur' in keywords`,
		Example: `List the headings of a document:
  canvas list notes.json --filter "type == 'heading'"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blocks, err := readBlocks(cmd, args)
			if err != nil {
				return err
			}

			return cFlags.invoke(func(cfg *config.Config, logger *zap.Logger) error {
				filters := append([]*config.Filter(nil), cfg.Filters...)
				for _, c := range conditions {
					filters = append(filters, &config.Filter{Type: config.FilterTypeBlock, Condition: c})
				}

				blocks, err := config.FilterBlocks(filters, blocks)
				if err != nil {
					return err
				}
				logger.Info("filtered blocks", zap.Int("count", len(blocks)))

				switch format {
				case "json":
					raw, err := document.MarshalJSON(blocks)
					if err != nil {
						return err
					}
					return writePrettyJSON(cmd, raw)
				case "table":
					return renderBlocksTable(cmd, blocks)
				default:
					return errors.Errorf("invalid format: %s", format)
				}
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format (table, json)")
	cmd.Flags().StringArrayVar(&conditions, "filter", nil, "Block condition; can be repeated")

	return &cmd
}

func renderBlocksTable(cmd *cobra.Command, blocks document.Blocks) error {
	t := terminal(cmd)
	table := tableprinter.New(t.Out(), t.IsTTY(), term.Width(t, 80))

	table.AddField(strings.ToUpper("ID"))
	table.AddField(strings.ToUpper("Type"))
	table.AddField(strings.ToUpper("Column"))
	table.AddField(strings.ToUpper("Text"))
	table.EndRow()

	for _, b := range blocks {
		column := ""
		if b.Grouped() {
			column = b.Group()
			if slot, ok := b.Meta.Column.SlotValue(); ok {
				column += "#" + strconv.Itoa(slot)
			}
		}

		table.AddField(b.ID)
		table.AddField(b.Type.String())
		table.AddField(column)
		table.AddField(firstLine(inline.Parse(b.Content).PlainText()))
		table.EndRow()
	}

	return errors.WithStack(table.Render())
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + "…"
	}
	return s
}
