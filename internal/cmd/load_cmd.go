package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stateful/canvas/internal/persist"
)

func loadCmd(cFlags *commonFlags) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := cobra.Command{
		Use:   "load NAME",
		Short: "Print a stored document.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cFlags.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if s.Version() == 0 {
				return errors.Wrap(persist.ErrNotFound, s.Key().String())
			}
			if err := s.Damaged(); err != nil {
				return errors.Wrap(err, s.Key().String())
			}
			return writeBlocks(cmd, output, format, s.Blocks())
		},
	}

	addBlockFormatFlag(cmd.Flags(), &format)
	addOutputFlag(cmd.Flags(), &output)

	return &cmd
}
