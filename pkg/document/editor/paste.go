package editor

import (
	"strings"

	"go.uber.org/zap"

	"github.com/stateful/canvas/pkg/document"
	"github.com/stateful/canvas/pkg/document/importer"
	"github.com/stateful/canvas/pkg/document/inline"
)

// PasteResult describes what SmartPaste did.
type PasteResult struct {
	Blocks document.Blocks
	// Replaced is true when the target block was empty and got replaced.
	Replaced bool
}

// SmartPaste spreads a multi-paragraph paste into the block with id over
// several blocks. pending, when not nil, is the content being edited in
// the block that has not been committed yet.
//
// It returns false when the paste is not multi-paragraph or does not
// import into at least two blocks; the caller should then fall back to
// a plain single-block paste. The whole operation undoes as one step.
func (s *Store) SmartPaste(id, text string, pending *string) (PasteResult, bool) {
	if len(importer.Paragraphs(text)) < 2 {
		return PasteResult{}, false
	}

	idx := s.blocks.Index(id)
	if idx < 0 {
		return PasteResult{}, false
	}

	parsed := importer.Import(text)
	if len(parsed) < 2 {
		return PasteResult{}, false
	}

	target := s.blocks[idx]
	current := target.Content
	if pending != nil {
		current = *pending
	}

	var result PasteResult

	s.Batch(func() {
		if strings.TrimSpace(inline.Parse(current).PlainText()) == "" {
			if column := target.Meta.Column; column != nil && column.Group != "" {
				for i := range parsed {
					parsed[i].Meta.Column = column.Clone()
				}
			}
			s.Replace(id, parsed...)
			result.Replaced = true
		} else {
			if current != target.Content {
				s.Update(id, Patch{Content: &current})
			}
			s.InsertAfter(id, parsed...)
		}
	})

	result.Blocks = parsed.Clone()

	s.log.Debug(
		"smart paste",
		zap.String("id", id),
		zap.Int("blocks", len(parsed)),
		zap.Bool("replaced", result.Replaced),
	)

	return result, true
}
