package document

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBlocks() Blocks {
	return Blocks{
		{ID: "h", Type: TypeHeading, Content: "Title", Meta: Meta{Align: AlignCenter}},
		{ID: "c", Type: TypeCallout, Content: "<b>Note</b>", Meta: Meta{Callout: &CalloutMeta{Color: CalloutYellow}}},
		{
			ID:      "i",
			Type:    TypeImage,
			Content: "https://example.com/bone.png",
			Meta: Meta{
				Image:  &ImageMeta{Width: 80, Fit: FitContain, AspectRatio: "16:9", MaxHeight: 240, Caption: "Bone"},
				Column: &ColumnPlacement{Group: "g", Slot: intPtr(0), Width: 40},
			},
		},
		{
			ID:      "l",
			Type:    TypeList,
			Content: "a<br>b",
			Meta: Meta{
				List:   &ListMeta{Style: ListNumbered},
				Column: &ColumnPlacement{Group: "g", Slot: intPtr(1), Width: 60},
			},
		},
		{ID: "d", Type: TypeDivider},
	}
}

func TestMarshalJSON(t *testing.T) {
	blocks := testBlocks()

	data, err := MarshalJSON(blocks)
	require.NoError(t, err)

	t.Run("FlatMeta", func(t *testing.T) {
		assert.Contains(t, string(data), `"meta":{"color":"yellow"}`)
		assert.Contains(t, string(data), `"columnGroup":"g","columnSlot":1,"columnWidth":60`)
		assert.Contains(t, string(data), `{"id":"d","type":"divider","content":""}`)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		result, err := UnmarshalJSON(data)
		require.NoError(t, err)
		assert.Equal(t, blocks, result)
	})
}

func TestUnmarshalJSON_Malformed(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{"Syntax", `[{"id":`},
		{"NotArray", `{"id":"a"}`},
		{"MissingID", `[{"type":"text"}]`},
		{"UnknownType", `[{"id":"a","type":"table"}]`},
		{"DuplicateID", `[{"id":"a","type":"text"},{"id":"a","type":"quote"}]`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := UnmarshalJSON([]byte(tc.data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed))
		})
	}
}

func TestUnmarshalJSON_UnknownMeta(t *testing.T) {
	blocks, err := UnmarshalJSON([]byte(`[
		{"id":"a","type":"text","content":"hi","meta":{"align":"x\"><script>"}},
		{"id":"b","type":"image","content":"https://example.com/a.png","meta":{"width":50,"fit":"fill\"","aspectRatio":"1;background:red"}},
		{"id":"c","type":"callout","meta":{"color":"orange"}},
		{"id":"d","type":"list","meta":{"listStyle":"roman"}},
		{"id":"e","type":"image","meta":{"fit":"cover","aspectRatio":"4/3"}}
	]`))
	require.NoError(t, err)
	require.Len(t, blocks, 5)

	assert.Equal(t, Align(""), blocks[0].Meta.Align)
	require.NotNil(t, blocks[1].Meta.Image)
	assert.Equal(t, 50, blocks[1].Meta.Image.Width)
	assert.Equal(t, ImageFit(""), blocks[1].Meta.Image.Fit)
	assert.Equal(t, "", blocks[1].Meta.Image.AspectRatio)
	assert.Nil(t, blocks[2].Meta.Callout)
	assert.Nil(t, blocks[3].Meta.List)
	assert.Equal(t, FitCover, blocks[4].Meta.Image.Fit)
	assert.Equal(t, "4/3", blocks[4].Meta.Image.AspectRatio)
}

func TestValidAspectRatio(t *testing.T) {
	for _, s := range []string{"auto", "16:9", "4/3", "1.5:1"} {
		assert.True(t, ValidAspectRatio(s), s)
	}
	for _, s := range []string{"", "16x9", "1:", "1:1;color:red", "auto "} {
		assert.False(t, ValidAspectRatio(s), s)
	}
}

func TestMarshalCBOR(t *testing.T) {
	blocks := testBlocks()

	data, err := MarshalCBOR(blocks)
	require.NoError(t, err)

	result, err := UnmarshalCBOR(data)
	require.NoError(t, err)
	assert.Equal(t, blocks, result)

	_, err = UnmarshalCBOR([]byte{0xff, 0x00})
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestFlatten(t *testing.T) {
	blocks := Blocks{
		{ID: "1", Type: TypeHeading, Content: "Title"},
		{ID: "2", Type: TypeSubheading, Content: "Part"},
		{ID: "3", Type: TypeText, Content: "Some <b>bold</b> text"},
		{ID: "4", Type: TypeList, Content: "one<br>two", Meta: Meta{List: &ListMeta{Style: ListNumbered}}},
		{ID: "5", Type: TypeDivider},
		{ID: "6", Type: TypeQuote, Content: "Quoted"},
		{ID: "7", Type: TypeText, Content: ""},
		{ID: "8", Type: TypeCallout, Content: "Careful", Meta: Meta{Callout: &CalloutMeta{Color: CalloutRed}}},
	}

	assert.Equal(
		t,
		"# Title\n## Part\nSome **bold** text\n1. one 2. two\n---\n> Quoted\n[red] Careful",
		Flatten(blocks),
	)
}

func TestListItems(t *testing.T) {
	t.Run("Lines", func(t *testing.T) {
		assert.Equal(t, []string{"a", "<b>b</b>"}, ListItems("a<br><b>b</b><br>"))
	})

	t.Run("ItemMarkup", func(t *testing.T) {
		assert.Equal(t, []string{"one", "<i>two</i>"}, ListItems("<ul><li>one</li><li><em>two</em></li></ul>"))
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Empty(t, ListItems(""))
	})

	assert.Equal(t, "a<br>b", ListContent([]string{"a", "b"}))
}
