package editor

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/stateful/canvas/internal/log"
	"github.com/stateful/canvas/internal/ulid"
	"github.com/stateful/canvas/pkg/document"
)

const (
	DefaultMaxColumns     = 3
	DefaultMinColumnWidth = 15
	DefaultMaxColumnWidth = 85
)

type Option func(*Store)

func WithHistory(h *History) Option {
	return func(s *Store) {
		s.history = h
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.log = logger
	}
}

func WithMaxColumns(n int) Option {
	return func(s *Store) {
		if n >= 2 {
			s.maxColumns = n
		}
	}
}

// WithColumnWidthBounds limits the width of a column created by AddBeside
// and the smallest width any column can be resized to.
func WithColumnWidthBounds(minWidth, maxWidth float64) Option {
	return func(s *Store) {
		if minWidth > 0 && maxWidth > minWidth && maxWidth < 100 {
			s.minWidth, s.maxWidth = minWidth, maxWidth
		}
	}
}

// WithOnChange registers a listener called after every mutation,
// undo and redo.
func WithOnChange(fn func(document.Blocks)) Option {
	return func(s *Store) {
		s.onChange = fn
	}
}

// Patch describes an update. Nil fields are left untouched;
// Meta is merged shallowly.
type Patch struct {
	Type    *document.Type
	Content *string
	Meta    *document.Meta
}

// Store owns the block sequence of one document. Every mutation
// records an undo snapshot before it changes anything. Operations
// referencing unknown ids are no-ops.
//
// Store is not safe for concurrent use.
type Store struct {
	blocks  document.Blocks
	focused string

	history      *History
	gesture      int
	gestureSaved bool

	maxColumns int
	minWidth   float64
	maxWidth   float64

	onChange func(document.Blocks)
	log      *zap.Logger
}

// New creates a store for blocks. An empty sequence is replaced by a
// single empty text block.
func New(blocks document.Blocks, opts ...Option) *Store {
	s := &Store{
		maxColumns: DefaultMaxColumns,
		minWidth:   DefaultMinColumnWidth,
		maxWidth:   DefaultMaxColumnWidth,
		log:        log.Get(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.history == nil {
		s.history = NewHistory(DefaultHistoryLimit)
	}
	s.log = s.log.Named("editor.Store")

	s.reset(blocks)
	return s
}

func (s *Store) reset(blocks document.Blocks) {
	s.blocks = blocks.Clone()
	if len(s.blocks) == 0 {
		s.blocks = document.Blocks{document.NewBlock(document.TypeText, "")}
	}
	s.focused = s.blocks[0].ID
}

// Load replaces the document and clears the history.
func (s *Store) Load(blocks document.Blocks) {
	s.reset(blocks)
	s.history.Clear()
	s.changed()
}

func (s *Store) Blocks() document.Blocks { return s.blocks.Clone() }

func (s *Store) Rows() []document.RowGroup { return document.Rows(s.blocks) }

func (s *Store) Len() int { return len(s.blocks) }

func (s *Store) Block(id string) (document.Block, bool) {
	idx := s.blocks.Index(id)
	if idx < 0 {
		return document.Block{}, false
	}
	return s.blocks[idx].Clone(), true
}

func (s *Store) Index(id string) int { return s.blocks.Index(id) }

func (s *Store) Focused() string { return s.focused }

func (s *Store) Focus(id string) bool {
	if s.blocks.Index(id) < 0 {
		return false
	}
	s.focused = id
	return true
}

func (s *Store) History() *History { return s.history }

func (s *Store) pushUndo() {
	if s.gesture > 0 {
		if s.gestureSaved {
			return
		}
		s.gestureSaved = true
	}
	s.history.Push(s.blocks)
}

// BeginGesture starts a batch: all mutations until the matching
// EndGesture undo as one step. Gestures nest.
func (s *Store) BeginGesture() {
	s.gesture++
}

func (s *Store) EndGesture() {
	if s.gesture == 0 {
		return
	}
	s.gesture--
	if s.gesture == 0 {
		s.gestureSaved = false
	}
}

// Batch runs fn as a single gesture.
func (s *Store) Batch(fn func()) {
	s.BeginGesture()
	defer s.EndGesture()
	fn()
}

func (s *Store) changed() {
	if s.onChange != nil {
		s.onChange(s.blocks.Clone())
	}
}

func (s *Store) CanUndo() bool { return s.history.CanUndo() }

func (s *Store) CanRedo() bool { return s.history.CanRedo() }

func (s *Store) Undo() bool {
	prev, ok := s.history.Undo(s.blocks)
	if !ok {
		return false
	}
	s.restore(prev)
	s.log.Debug("undo", zap.Int("blocks", len(s.blocks)))
	return true
}

func (s *Store) Redo() bool {
	next, ok := s.history.Redo(s.blocks)
	if !ok {
		return false
	}
	s.restore(next)
	s.log.Debug("redo", zap.Int("blocks", len(s.blocks)))
	return true
}

func (s *Store) restore(blocks document.Blocks) {
	s.blocks = blocks
	if s.blocks.Index(s.focused) < 0 && len(s.blocks) > 0 {
		s.focused = s.blocks[0].ID
	}
	s.changed()
}

func (s *Store) insertAt(pos int, blocks ...document.Block) {
	pos = clampInt(pos, 0, len(s.blocks))

	result := make(document.Blocks, 0, len(s.blocks)+len(blocks))
	result = append(result, s.blocks[:pos]...)
	result = append(result, blocks...)
	result = append(result, s.blocks[pos:]...)
	s.blocks = result
}

// Create inserts a new block after the block at index after (-1 inserts
// at the start) and focuses it.
func (s *Store) Create(after int, t document.Type, content string, column *document.ColumnPlacement) document.Block {
	if !t.Valid() {
		t = document.TypeText
	}

	s.pushUndo()

	block := document.NewBlock(t, content)
	if column != nil && column.Group != "" {
		block.Meta.Column = column.Clone()
	}

	s.insertAt(after+1, block)
	s.focused = block.ID
	s.log.Debug("created block", zap.String("id", block.ID), zap.Stringer("type", block.Type))
	s.changed()

	return block.Clone()
}

func (s *Store) Update(id string, patch Patch) bool {
	idx := s.blocks.Index(id)
	if idx < 0 {
		return false
	}

	s.pushUndo()

	block := &s.blocks[idx]
	if patch.Type != nil && patch.Type.Valid() {
		block.Type = *patch.Type
	}
	if patch.Content != nil {
		block.Content = *patch.Content
	}
	if patch.Meta != nil {
		block.Meta = block.Meta.Merge(*patch.Meta)
	}

	s.changed()
	return true
}

// Delete removes a block. Deleting the last block leaves a single empty
// text block. When the column group of the removed block is left with at
// most one slot, the group is dissolved; otherwise the remaining slots
// share the width equally if a slot disappeared.
func (s *Store) Delete(id string) bool {
	idx := s.blocks.Index(id)
	if idx < 0 {
		return false
	}

	s.pushUndo()

	removed := s.blocks[idx]
	slotsBefore := document.SlotCount(s.blocks, removed.Group())

	result := make(document.Blocks, 0, len(s.blocks)-1)
	result = append(result, s.blocks[:idx]...)
	result = append(result, s.blocks[idx+1:]...)
	s.blocks = result

	if group := removed.Group(); group != "" {
		slots := document.SlotCount(s.blocks, group)
		switch {
		case slots <= 1:
			s.stripGroup(group)
			s.log.Debug("dissolved column group", zap.String("group", group))
		case slots < slotsBefore:
			s.splitEqually(group)
		}
	}

	if len(s.blocks) == 0 {
		s.blocks = document.Blocks{document.NewBlock(document.TypeText, "")}
	}

	if s.focused == id {
		s.focused = s.blocks[clampInt(idx-1, 0, len(s.blocks)-1)].ID
	}

	s.log.Debug("deleted block", zap.String("id", id))
	s.changed()
	return true
}

// Duplicate inserts a copy of the block, with a new id, right after it.
func (s *Store) Duplicate(id string) (document.Block, bool) {
	idx := s.blocks.Index(id)
	if idx < 0 {
		return document.Block{}, false
	}

	s.pushUndo()

	clone := s.blocks[idx].Clone()
	clone.ID = ulid.GenerateID()
	s.insertAt(idx+1, clone)
	s.focused = clone.ID

	s.changed()
	return clone.Clone(), true
}

// Move swaps the block with its neighbor in direction (negative is up).
// A grouped block only moves among the blocks of its own column.
func (s *Store) Move(id string, direction int) bool {
	idx := s.blocks.Index(id)
	if idx < 0 || direction == 0 {
		return false
	}
	step := 1
	if direction < 0 {
		step = -1
	}

	var target int
	if group := s.blocks[idx].Group(); group != "" {
		slots := effectiveSlots(s.blocks, group)
		var peers []int
		for _, i := range s.blocks.Members(group) {
			if slots[s.blocks[i].ID] == slots[id] {
				peers = append(peers, i)
			}
		}
		pos := indexOf(peers, idx) + step
		if pos < 0 || pos >= len(peers) {
			return false
		}
		target = peers[pos]
	} else {
		target = idx + step
		if target < 0 || target >= len(s.blocks) {
			return false
		}
	}

	s.pushUndo()
	s.blocks[idx], s.blocks[target] = s.blocks[target], s.blocks[idx]
	s.changed()
	return true
}

// AddBeside places a new empty text block in a new column next to the
// block. A full-width block becomes a two-column group; hintWidth, when
// positive, is the width of the original column for that first split.
// Growing an existing group splits the width equally.
func (s *Store) AddBeside(id string, hintWidth float64) (document.Block, bool) {
	idx := s.blocks.Index(id)
	if idx < 0 {
		return document.Block{}, false
	}

	source := s.blocks[idx]
	block := document.NewBlock(document.TypeText, "")

	if group := source.Group(); group != "" {
		slots := effectiveSlots(s.blocks, group)
		distinct := distinctSlots(slots)
		if len(distinct) >= s.maxColumns {
			return document.Block{}, false
		}

		s.pushUndo()
		s.materializeSlots(group, slots)

		next := distinct[len(distinct)-1] + 1
		block.Meta.Column = &document.ColumnPlacement{Group: group, Slot: intPtr(next)}
		s.insertAt(idx+1, block)
		s.splitEqually(group)
	} else {
		width := 50.0
		if hintWidth > 0 {
			width = clampFloat(hintWidth, s.minWidth, s.maxWidth)
		}
		width = round2(width)

		s.pushUndo()

		group := ulid.GenerateID()
		s.blocks[idx].Meta.Column = &document.ColumnPlacement{Group: group, Slot: intPtr(0), Width: width}
		block.Meta.Column = &document.ColumnPlacement{Group: group, Slot: intPtr(1), Width: round2(100 - width)}
		s.insertAt(idx+1, block)
	}

	s.focused = block.ID
	created := s.blocks[s.blocks.Index(block.ID)]

	s.log.Debug("added column", zap.String("source", id), zap.String("group", created.Group()))
	s.changed()
	return created.Clone(), true
}

// Ungroup dissolves the column group of the block.
func (s *Store) Ungroup(id string) bool {
	idx := s.blocks.Index(id)
	if idx < 0 || !s.blocks[idx].Grouped() {
		return false
	}

	s.pushUndo()
	s.stripGroup(s.blocks[idx].Group())
	s.changed()
	return true
}

// ChangeType switches the block type and fills in the metadata the new
// type needs.
func (s *Store) ChangeType(id string, t document.Type) bool {
	idx := s.blocks.Index(id)
	if idx < 0 || !t.Valid() || s.blocks[idx].Type == t {
		return false
	}

	s.pushUndo()
	s.blocks[idx].Type = t
	s.blocks[idx].Meta = s.blocks[idx].Meta.WithDefaults(t)
	s.changed()
	return true
}

// ResizeColumn sets the width of the block's column and splits the
// remaining width equally among the other columns of the group.
// Widths are clamped so that no column falls below the minimum width.
// A width that is not a finite number changes nothing.
func (s *Store) ResizeColumn(id string, width float64) bool {
	if math.IsNaN(width) || math.IsInf(width, 0) {
		return false
	}
	idx := s.blocks.Index(id)
	if idx < 0 || !s.blocks[idx].Grouped() {
		return false
	}

	group := s.blocks[idx].Group()
	slots := effectiveSlots(s.blocks, group)
	distinct := distinctSlots(slots)
	if len(distinct) < 2 {
		return false
	}

	others := float64(len(distinct) - 1)
	width = round2(clampFloat(width, s.minWidth, 100-s.minWidth*others))
	rest := round2((100 - width) / others)

	s.pushUndo()
	s.materializeSlots(group, slots)

	own := slots[id]
	for _, i := range s.blocks.Members(group) {
		if slots[s.blocks[i].ID] == own {
			s.blocks[i].Meta.Column.Width = width
		} else {
			s.blocks[i].Meta.Column.Width = rest
		}
	}

	s.changed()
	return true
}

// InsertAfter inserts blocks after the block with id and focuses the
// last one.
func (s *Store) InsertAfter(id string, blocks ...document.Block) bool {
	idx := s.blocks.Index(id)
	if idx < 0 || len(blocks) == 0 {
		return false
	}

	s.pushUndo()
	s.insertAt(idx+1, document.Blocks(blocks).Clone()...)
	s.focused = blocks[len(blocks)-1].ID
	s.changed()
	return true
}

// Replace swaps the block with id for blocks and focuses the last one.
func (s *Store) Replace(id string, blocks ...document.Block) bool {
	idx := s.blocks.Index(id)
	if idx < 0 || len(blocks) == 0 {
		return false
	}

	s.pushUndo()

	result := make(document.Blocks, 0, len(s.blocks)+len(blocks)-1)
	result = append(result, s.blocks[:idx]...)
	result = append(result, document.Blocks(blocks).Clone()...)
	result = append(result, s.blocks[idx+1:]...)
	s.blocks = result
	s.focused = blocks[len(blocks)-1].ID

	s.changed()
	return true
}

func (s *Store) stripGroup(group string) {
	for _, i := range s.blocks.Members(group) {
		s.blocks[i].Meta.Column = nil
	}
}

// materializeSlots writes the slots computed by the layout back to
// members that lacked an explicit one.
func (s *Store) materializeSlots(group string, slots map[string]int) {
	for _, i := range s.blocks.Members(group) {
		slot := slots[s.blocks[i].ID]
		s.blocks[i].Meta.Column.Slot = intPtr(slot)
	}
}

func (s *Store) splitEqually(group string) {
	slots := effectiveSlots(s.blocks, group)
	if len(slots) == 0 {
		return
	}
	s.materializeSlots(group, slots)

	width := round2(100 / float64(len(distinctSlots(slots))))
	for _, i := range s.blocks.Members(group) {
		s.blocks[i].Meta.Column.Width = width
	}
}

// effectiveSlots maps member ids to the slot the layout puts them in.
func effectiveSlots(blocks document.Blocks, group string) map[string]int {
	result := make(map[string]int)
	for _, row := range document.Rows(blocks) {
		if row.GroupID != group {
			continue
		}
		for _, col := range row.Columns {
			for _, b := range col.Blocks {
				result[b.ID] = col.Slot
			}
		}
	}
	return result
}

func distinctSlots(slots map[string]int) []int {
	seen := make(map[int]bool)
	var result []int
	for _, slot := range slots {
		if !seen[slot] {
			seen[slot] = true
			result = append(result, slot)
		}
	}
	sort.Ints(result)
	return result
}

func indexOf(items []int, v int) int {
	for i, item := range items {
		if item == v {
			return i
		}
	}
	return -1
}

func intPtr(v int) *int { return &v }

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
