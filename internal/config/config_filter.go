package config

import (
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/pkg/errors"

	"github.com/stateful/canvas/pkg/document"
	"github.com/stateful/canvas/pkg/document/inline"
	"github.com/stateful/canvas/pkg/document/keyword"
)

const (
	FilterTypeBlock    = "block"
	FilterTypeDocument = "document"
)

type Filter struct {
	Type      string `yaml:"type" validate:"oneof=block document"`
	Condition string `yaml:"condition" validate:"required"`

	once       sync.Once
	program    *vm.Program
	compileErr error
}

// FilterDocumentEnv is the environment a document filter runs against.
type FilterDocumentEnv struct {
	Blocks   int      `expr:"blocks"`
	Text     string   `expr:"text"`
	Keywords []string `expr:"keywords"`
}

// FilterBlockEnv is the environment a block filter runs against.
//
// The `expr` tag is used to map the field to the corresponding variable.
// Without it, all variables start with capitalized letters.
type FilterBlockEnv struct {
	Type         string   `expr:"type"`
	Content      string   `expr:"content"`
	Text         string   `expr:"text"`
	ColumnGroup  string   `expr:"column_group"`
	ColumnSlot   int      `expr:"column_slot"`
	ColumnWidth  float64  `expr:"column_width"`
	ListStyle    string   `expr:"list_style"`
	CalloutColor string   `expr:"callout_color"`
	Keywords     []string `expr:"keywords"`
}

func NewFilterBlockEnv(b document.Block) FilterBlockEnv {
	env := FilterBlockEnv{
		Type:       b.Type.String(),
		Content:    b.Content,
		Text:       inline.Parse(b.Content).PlainText(),
		ColumnSlot: -1,
		Keywords:   keyword.Extract(document.Blocks{b}),
	}
	if b.Grouped() {
		env.ColumnGroup = b.Group()
		env.ColumnWidth = b.Meta.Column.Width
		if slot, ok := b.Meta.Column.SlotValue(); ok {
			env.ColumnSlot = slot
		}
	}
	if b.Type == document.TypeList {
		env.ListStyle = string(b.ListStyle())
	}
	if b.Type == document.TypeCallout {
		env.CalloutColor = string(b.CalloutColor())
	}
	return env
}

func NewFilterDocumentEnv(blocks document.Blocks) FilterDocumentEnv {
	return FilterDocumentEnv{
		Blocks:   len(blocks),
		Text:     strings.TrimSpace(document.Flatten(blocks)),
		Keywords: keyword.Extract(blocks),
	}
}

func (f *Filter) Evaluate(env interface{}) (bool, error) {
	f.once.Do(func() {
		program, err := expr.Compile(
			f.Condition,
			expr.Env(env),
			expr.AsBool(),
		)
		f.program, f.compileErr = program, errors.Wrap(err, "failed to compile filter program")
	})

	if f.program == nil {
		return false, f.compileErr
	}

	result, err := expr.Run(f.program, env)
	if err != nil {
		return false, errors.Wrap(err, "failed to run filter program")
	}
	return result.(bool), nil
}

// FilterBlocks keeps the blocks every block filter accepts. If a
// document filter rejects the whole document, the result is empty.
func FilterBlocks(filters []*Filter, blocks document.Blocks) (document.Blocks, error) {
	docEnv := NewFilterDocumentEnv(blocks)
	for _, f := range filters {
		if f.Type != FilterTypeDocument {
			continue
		}
		ok, err := f.Evaluate(docEnv)
		if err != nil {
			return nil, errors.Wrapf(err, "document filter %q", f.Condition)
		}
		if !ok {
			return nil, nil
		}
	}

	var result document.Blocks
outer:
	for _, b := range blocks {
		env := NewFilterBlockEnv(b)
		for _, f := range filters {
			if f.Type != FilterTypeBlock {
				continue
			}
			ok, err := f.Evaluate(env)
			if err != nil {
				return nil, errors.Wrapf(err, "block filter %q", f.Condition)
			}
			if !ok {
				continue outer
			}
		}
		result = append(result, b.Clone())
	}
	return result, nil
}
