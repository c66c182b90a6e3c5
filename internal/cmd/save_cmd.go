package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stateful/canvas/pkg/document"
)

func saveCmd(cFlags *commonFlags) *cobra.Command {
	cmd := cobra.Command{
		Use:   "save NAME [file]",
		Short: "Store a document in the database.",
		Long: `Save stores the blocks read from the file, or stdin, as the document
NAME of the configured collection. Each save bumps the version.
Documents with duplicate block ids or broken column groups are rejected.`,
		Example: `Import notes and store them:
  canvas import notes.txt | canvas save anatomy-1`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			blocks, err := readBlocks(cmd, args[1:])
			if err != nil {
				return err
			}
			if err := document.Validate(blocks); err != nil {
				return errors.Wrap(err, "invalid document")
			}

			s, err := cFlags.openSession(ctx, args[0])
			if err != nil {
				return err
			}
			s.Load(blocks)

			record, err := s.Save(ctx)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "saved %s version %d\n", record.Key, record.Version)
			return nil
		},
	}

	return &cmd
}
