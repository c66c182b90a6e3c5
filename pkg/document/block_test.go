package document

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestBlock_Clone(t *testing.T) {
	block := Block{
		ID:      "id",
		Type:    TypeImage,
		Content: "https://example.com/a.png",
		Meta: Meta{
			Align: AlignCenter,
			Image: &ImageMeta{Width: 50, Fit: FitContain, Caption: "caption"},
			Column: &ColumnPlacement{
				Group: "g",
				Slot:  intPtr(1),
				Width: 40,
			},
		},
	}
	clone := block.Clone()
	assert.True(t, cmp.Equal(block, clone), "expected %v, got %v", block, clone)

	block.Meta.Image.Caption = "changed"
	assert.Equal(t, "caption", clone.Meta.Image.Caption)

	*block.Meta.Column.Slot = 2
	slot, ok := clone.Meta.Column.SlotValue()
	require.True(t, ok)
	assert.Equal(t, 1, slot)
}

func TestBlocks_Clone(t *testing.T) {
	blocks := Blocks{NewBlock(TypeCallout, "a"), NewBlock(TypeText, "b")}
	clone := blocks.Clone()

	blocks[0].Meta.Callout.Color = CalloutRed
	blocks[1].Content = "changed"

	assert.Equal(t, CalloutBlue, clone[0].Meta.Callout.Color)
	assert.Equal(t, "b", clone[1].Content)
	assert.Nil(t, Blocks(nil).Clone())
}

func TestMeta_WithDefaults(t *testing.T) {
	t.Run("Callout", func(t *testing.T) {
		meta := Meta{}.WithDefaults(TypeCallout)
		require.NotNil(t, meta.Callout)
		assert.Equal(t, CalloutBlue, meta.Callout.Color)
	})

	t.Run("KeepsExisting", func(t *testing.T) {
		meta := Meta{List: &ListMeta{Style: ListNumbered}}.WithDefaults(TypeList)
		assert.Equal(t, ListNumbered, meta.List.Style)
	})

	t.Run("Image", func(t *testing.T) {
		meta := Meta{Image: &ImageMeta{MaxHeight: 300}}.WithDefaults(TypeImage)
		assert.Equal(t, ImageMeta{Width: 100, Fit: FitCover, AspectRatio: "auto", MaxHeight: 300}, *meta.Image)
	})

	t.Run("Text", func(t *testing.T) {
		assert.Equal(t, Meta{}, Meta{}.WithDefaults(TypeText))
	})
}

func TestMeta_Merge(t *testing.T) {
	meta := Meta{
		Align:  AlignLeft,
		List:   &ListMeta{Style: ListBullet},
		Column: &ColumnPlacement{Group: "g", Width: 50},
	}

	merged := meta.Merge(Meta{Align: AlignRight, List: &ListMeta{Style: ListNumbered}})

	assert.Equal(t, AlignRight, merged.Align)
	assert.Equal(t, ListNumbered, merged.List.Style)
	assert.Equal(t, "g", merged.Column.Group)
	// The receiver is left untouched.
	assert.Equal(t, ListBullet, meta.List.Style)
}

func TestParseType(t *testing.T) {
	typ, ok := ParseType(" Callout ")
	assert.True(t, ok)
	assert.Equal(t, TypeCallout, typ)

	_, ok = ParseType("table")
	assert.False(t, ok)

	assert.Len(t, Types(), 8)
}

func TestBlocks_Index(t *testing.T) {
	blocks := Blocks{{ID: "a"}, {ID: "b"}}
	assert.Equal(t, 1, blocks.Index("b"))
	assert.Equal(t, -1, blocks.Index("c"))
	assert.Equal(t, []string{"a", "b"}, blocks.IDs())
}
