package cmd

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stateful/canvas/internal/surface"
	"github.com/stateful/canvas/internal/term"
	"github.com/stateful/canvas/pkg/document"
	"github.com/stateful/canvas/pkg/document/editor"
)

const (
	surfaceEditor  = "editor"
	surfacePreview = "preview"
	surfaceExport  = "export"
)

func renderCmd(cFlags *commonFlags) *cobra.Command {
	var (
		surfaceName string
		width       int
		title       string
		name        string
		focus       string
		output      string
	)

	cmd := cobra.Command{
		Use:   "render [file]",
		Short: "Render a document.",
		Long: `Render shows a document on one of its surfaces:

  preview  read-only terminal text, columns side by side
  editor   like preview, with the focused block marked
  export   a standalone HTML page

Keywords are colored by their mastery level in the glossary.
Damaged documents render as a notice instead of failing.`,
		Example: `Preview a document in the terminal:
  canvas render notes.json

Export a stored document to HTML:
  canvas render --document legs --surface export -o legs.html`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch surfaceName {
			case surfaceEditor, surfacePreview, surfaceExport:
			default:
				return errors.Errorf("invalid surface: %s", surfaceName)
			}

			ctx := cmd.Context()

			resolver, err := cFlags.resolver()
			if err != nil {
				return err
			}

			var (
				rows   []surface.Row
				blocks document.Blocks
				buf    bytes.Buffer
			)

			if name != "" {
				s, err := cFlags.openSession(ctx, name)
				if err != nil {
					return err
				}
				if title == "" {
					title = name
				}
				if surfaceName == surfaceExport {
					if err := s.Export(ctx, &buf, title); err != nil {
						return err
					}
					return writeOutput(cmd, output, buf.Bytes())
				}
				blocks = s.Blocks()
				rows = surface.Build(ctx, blocks, resolver)
				if err := s.Damaged(); err != nil {
					rows = []surface.Row{surface.NoticeRow(err)}
				}
			} else {
				data, err := readInput(cmd, args)
				if err != nil {
					return err
				}
				if editor.DetectFormat(data) == editor.FormatJSON {
					rows = surface.BuildData(ctx, data, resolver)
					blocks, _ = document.UnmarshalJSON(data)
				} else if blocks, err = editor.Decode(data); err != nil {
					rows = []surface.Row{surface.NoticeRow(err)}
				} else {
					rows = surface.Build(ctx, blocks, resolver)
				}
			}

			if surfaceName == surfaceExport {
				if err := surface.Export(&buf, rows, title); err != nil {
					return err
				}
				return writeOutput(cmd, output, buf.Bytes())
			}

			if width <= 0 {
				width = term.Width(terminal(cmd), surface.DefaultWidth)
			}

			var text string
			if surfaceName == surfaceEditor {
				if focus == "" && len(blocks) > 0 {
					focus = blocks[0].ID
				}
				text = surface.Editor(rows, width, focus)
			} else {
				text = surface.Preview(rows, width)
			}
			return writeOutput(cmd, output, []byte(fmt.Sprintln(text)))
		},
	}

	cmd.Flags().StringVar(&surfaceName, "surface", surfacePreview, "Surface to render (editor, preview, export)")
	cmd.Flags().IntVar(&width, "width", 0, "Width in columns; defaults to the terminal width")
	cmd.Flags().StringVar(&title, "title", "", "Title of the exported page")
	cmd.Flags().StringVar(&name, "document", "", "Render a stored document instead of a file")
	cmd.Flags().StringVar(&focus, "focus", "", "Block to mark on the editor surface; defaults to the first one")
	addOutputFlag(cmd.Flags(), &output)

	return &cmd
}
