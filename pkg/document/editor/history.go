package editor

import (
	"github.com/stateful/canvas/pkg/document"
)

// DefaultHistoryLimit is the number of undo steps kept by default.
const DefaultHistoryLimit = 20

// History keeps bounded undo and redo stacks of whole-document snapshots.
type History struct {
	limit int
	undo  []document.Blocks
	redo  []document.Blocks
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

func (h *History) Limit() int { return h.limit }

func (h *History) appendUndo(snapshot document.Blocks) {
	h.undo = append(h.undo, snapshot)
	if len(h.undo) > h.limit {
		h.undo = h.undo[len(h.undo)-h.limit:]
	}
}

// Push records the state before a mutation and clears the redo stack.
// The snapshot is copied.
func (h *History) Push(snapshot document.Blocks) {
	h.appendUndo(snapshot.Clone())
	h.redo = nil
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }

func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Undo moves current onto the redo stack and returns the most
// recent undo snapshot.
func (h *History) Undo(current document.Blocks) (document.Blocks, bool) {
	if len(h.undo) == 0 {
		return nil, false
	}

	i := len(h.undo) - 1
	prev := h.undo[i]
	h.undo = h.undo[:i]
	h.redo = append(h.redo, current.Clone())

	return prev.Clone(), true
}

// Redo is the inverse of Undo.
func (h *History) Redo(current document.Blocks) (document.Blocks, bool) {
	if len(h.redo) == 0 {
		return nil, false
	}

	i := len(h.redo) - 1
	next := h.redo[i]
	h.redo = h.redo[:i]
	h.appendUndo(current.Clone())

	return next.Clone(), true
}

func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
}

// Depth returns the sizes of the undo and redo stacks.
func (h *History) Depth() (undo, redo int) {
	return len(h.undo), len(h.redo)
}
