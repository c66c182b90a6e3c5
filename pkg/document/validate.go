package document

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// WidthTolerance is how far the column widths of a group may stray
// from 100 before Validate reports it.
const WidthTolerance = 1.5

// Validate checks document invariants and reports every violation.
func Validate(blocks Blocks) error {
	var err error

	if len(blocks) == 0 {
		err = multierr.Append(err, errors.New("document has no blocks"))
	}

	seen := make(map[string]bool, len(blocks))
	for _, block := range blocks {
		if block.ID == "" {
			err = multierr.Append(err, errors.New("block without id"))
			continue
		}
		if seen[block.ID] {
			err = multierr.Append(err, errors.Errorf("duplicate block id %q", block.ID))
		}
		seen[block.ID] = true

		if !block.Type.Valid() {
			err = multierr.Append(err, errors.Errorf("block %q has unknown type %q", block.ID, block.Type))
		}
	}

	for _, row := range Rows(blocks) {
		if !row.Grouped() {
			continue
		}

		var sum float64
		for _, col := range row.Columns {
			sum += col.Width
			for _, block := range col.Blocks[1:] {
				if w := block.Meta.Column.Width; w > 0 && w != col.Width {
					err = multierr.Append(err, errors.Errorf("block %q width %.2f differs from its column width %.2f", block.ID, w, col.Width))
				}
			}
		}
		if math.Abs(sum-100) > WidthTolerance {
			err = multierr.Append(err, errors.Errorf("column group %q widths sum to %.2f", row.GroupID, sum))
		}
	}

	return err
}
