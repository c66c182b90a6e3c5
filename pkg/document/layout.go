package document

import (
	"math"
	"sort"
)

// ColumnSlot is one column of a row.
type ColumnSlot struct {
	Slot int
	// Width is a percentage of the row.
	Width  float64
	Blocks Blocks
}

// RowGroup is a derived visual row. GroupID is empty for a
// full-width row holding a single ungrouped block.
type RowGroup struct {
	GroupID string
	Columns []ColumnSlot
}

func (r RowGroup) Grouped() bool { return r.GroupID != "" }

// Blocks returns the blocks of the row, column by column.
func (r RowGroup) Blocks() Blocks {
	var result Blocks
	for _, col := range r.Columns {
		result = append(result, col.Blocks...)
	}
	return result
}

// Rows projects a flat block sequence onto visual rows.
//
// A grouped block pulls in every not yet visited member of its column
// group, including members appearing later in the sequence, so a group
// is rendered at the position of its first member. Rows is pure and
// deterministic; it never modifies blocks.
func Rows(blocks Blocks) []RowGroup {
	var rows []RowGroup
	consumed := make(map[string]bool, len(blocks))

	for i, block := range blocks {
		if consumed[block.ID] {
			continue
		}

		if !block.Grouped() {
			consumed[block.ID] = true
			rows = append(rows, RowGroup{
				Columns: []ColumnSlot{{Slot: 0, Width: 100, Blocks: Blocks{block}}},
			})
			continue
		}

		group := block.Group()
		var members Blocks
		for _, candidate := range blocks[i:] {
			if candidate.Group() == group && !consumed[candidate.ID] {
				consumed[candidate.ID] = true
				members = append(members, candidate)
			}
		}

		rows = append(rows, RowGroup{
			GroupID: group,
			Columns: partition(members),
		})
	}

	return rows
}

// partition splits group members into slots. Members with a missing
// slot get the next free index in encounter order, skipping indexes
// that are explicitly used by other members.
func partition(members Blocks) []ColumnSlot {
	explicit := make(map[int]bool)
	for _, block := range members {
		if slot, ok := block.Meta.Column.SlotValue(); ok {
			explicit[slot] = true
		}
	}

	bySlot := make(map[int]*ColumnSlot)
	var order []int
	next := 0

	for _, block := range members {
		slot, ok := block.Meta.Column.SlotValue()
		if !ok {
			for explicit[next] {
				next++
			}
			slot = next
			next++
		}

		col, found := bySlot[slot]
		if !found {
			col = &ColumnSlot{Slot: slot, Width: block.Meta.Column.Width}
			bySlot[slot] = col
			order = append(order, slot)
		}
		col.Blocks = append(col.Blocks, block)
	}

	sort.Ints(order)

	equal := math.Floor(100 / float64(len(order)))
	result := make([]ColumnSlot, 0, len(order))
	for _, slot := range order {
		col := *bySlot[slot]
		if col.Width <= 0 {
			col.Width = equal
		}
		result = append(result, col)
	}
	return result
}

// SlotCount returns the number of distinct slots used by group members.
func SlotCount(blocks Blocks, group string) int {
	for _, row := range Rows(blocks) {
		if row.GroupID == group {
			return len(row.Columns)
		}
	}
	return 0
}
