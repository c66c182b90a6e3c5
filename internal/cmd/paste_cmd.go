package cmd

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stateful/canvas/internal/config"
	"github.com/stateful/canvas/pkg/document"
	"github.com/stateful/canvas/pkg/document/editor"
	"github.com/stateful/canvas/pkg/document/inline"
)

var readClipboard = clipboard.ReadAll

func pasteCmd(cFlags *commonFlags) *cobra.Command {
	var (
		text    string
		blockID string
		format  string
		output  string
	)

	cmd := cobra.Command{
		Use:   "paste [file]",
		Short: "Paste text into a block of a document.",
		Long: `Paste inserts text into a block. Text made of several paragraphs is
imported and spread over new blocks after the target; an empty target
block is replaced. Single paragraphs are appended to the target.

The text comes from --text, or from the system clipboard.`,
		Example: `Paste the clipboard after the last block:
  canvas paste notes.json -o notes.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blocks, err := readBlocks(cmd, args)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("text") {
				text, err = readClipboard()
				if err != nil {
					return errors.Wrap(err, "failed to read clipboard")
				}
			}

			var cfg *config.Config
			if err := cFlags.invoke(func(c *config.Config) { cfg = c }); err != nil {
				return err
			}

			store := editor.New(blocks, cfg.EditorOptions()...)
			if blockID == "" {
				if store.Len() == 0 {
					store.Create(-1, document.TypeText, "", nil)
				}
				b := store.Blocks()
				blockID = b[len(b)-1].ID
			}

			target, ok := store.Block(blockID)
			if !ok {
				return errors.Errorf("block %q not found", blockID)
			}

			if result, ok := store.SmartPaste(blockID, text, nil); ok {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "pasted %d blocks\n", len(result.Blocks))
			} else {
				content := inline.Canonical(target.Content + inline.FromPlainText(text).String())
				store.Update(blockID, editor.Patch{Content: &content})
			}

			return writeBlocks(cmd, output, format, store.Blocks())
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to paste instead of the clipboard")
	cmd.Flags().StringVar(&blockID, "block", "", "Block to paste into; defaults to the last one")
	addBlockFormatFlag(cmd.Flags(), &format)
	addOutputFlag(cmd.Flags(), &output)

	return &cmd
}
