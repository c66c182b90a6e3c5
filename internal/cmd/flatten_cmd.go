package cmd

import (
	"github.com/spf13/cobra"
)

func flattenCmd(*commonFlags) *cobra.Command {
	cmd := cobra.Command{
		Use:   "flatten [file]",
		Short: "Print a document as plain text.",
		Long:  "Flatten prints one line per block, with the block type as a Markdown-like prefix.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blocks, err := readBlocks(cmd, args)
			if err != nil {
				return err
			}
			return writeBlocks(cmd, "", "text", blocks)
		},
	}
	return &cmd
}
