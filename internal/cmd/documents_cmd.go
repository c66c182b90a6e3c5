package cmd

import (
	"strconv"
	"strings"
	"time"

	"github.com/cli/go-gh/v2/pkg/tableprinter"
	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stateful/canvas/internal/config"
	"github.com/stateful/canvas/internal/persist"
	"github.com/stateful/canvas/internal/term"
)

type documentSummary struct {
	Document        string    `json:"document"`
	Version         int       `json:"version"`
	UpdatedAt       time.Time `json:"updatedAt"`
	EditTimeMinutes int       `json:"editTimeMinutes"`
	Tags            []string  `json:"tags"`
}

func documentsCmd(cFlags *commonFlags) *cobra.Command {
	var (
		format string
		match  string
	)

	cmd := cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs"},
		Short:   "List the stored documents of the collection.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var pattern glob.Glob
			if match != "" {
				var err error
				pattern, err = glob.Compile(match)
				if err != nil {
					return errors.Wrapf(err, "invalid pattern %q", match)
				}
			}

			var records []persist.Record
			err := cFlags.invoke(func(cfg *config.Config, p *persist.SQLite) error {
				var err error
				records, err = p.List(cmd.Context(), cfg.Storage.Collection)
				return err
			})
			if err != nil {
				return err
			}

			result := make([]documentSummary, 0, len(records))
			for _, r := range records {
				if pattern != nil && !pattern.Match(r.Document) {
					continue
				}
				result = append(result, documentSummary{
					Document:        r.Document,
					Version:         r.Version,
					UpdatedAt:       r.UpdatedAt,
					EditTimeMinutes: r.EditTimeMinutes,
					Tags:            r.Tags,
				})
			}

			switch format {
			case "json":
				return writeJSON(cmd, result)
			case "table":
				return renderDocumentsTable(cmd, result)
			default:
				return errors.Errorf("invalid format: %s", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format (table, json)")
	cmd.Flags().StringVar(&match, "match", "", "Only documents whose name matches the glob pattern")

	return &cmd
}

func renderDocumentsTable(cmd *cobra.Command, docs []documentSummary) error {
	t := terminal(cmd)
	table := tableprinter.New(t.Out(), t.IsTTY(), term.Width(t, 80))

	table.AddField(strings.ToUpper("Document"))
	table.AddField(strings.ToUpper("Version"))
	table.AddField(strings.ToUpper("Updated"))
	table.AddField(strings.ToUpper("Minutes"))
	table.AddField(strings.ToUpper("Tags"))
	table.EndRow()

	for _, d := range docs {
		table.AddField(d.Document)
		table.AddField(strconv.Itoa(d.Version))
		table.AddField(d.UpdatedAt.Format(time.DateTime))
		table.AddField(strconv.Itoa(d.EditTimeMinutes))
		table.AddField(strings.Join(d.Tags, ", "))
		table.EndRow()
	}

	return errors.WithStack(table.Render())
}
