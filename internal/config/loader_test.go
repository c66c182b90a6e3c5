package config

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewLoader(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		NewLoader("", "yaml", fstest.MapFS{})
	}, "config name is not set")
}

func TestLoader_RootConfig(t *testing.T) {
	t.Parallel()

	t.Run("without root config", func(t *testing.T) {
		t.Parallel()

		loader := NewLoader("canvas", "yaml", fstest.MapFS{}, WithLogger(zaptest.NewLogger(t)))
		result, err := loader.RootConfig()
		require.ErrorIs(t, err, ErrRootConfigNotFound)
		require.Nil(t, result)
	})

	t.Run("with root config", func(t *testing.T) {
		t.Parallel()

		data := []byte("version: v1\n")
		fsys := fstest.MapFS{"canvas.yaml": {Data: data}}
		loader := NewLoader("canvas", "yaml", fsys, WithLogger(zaptest.NewLogger(t)))
		result, err := loader.RootConfig()
		require.NoError(t, err)
		require.Equal(t, data, result)
	})
}

func TestLoader_FindConfigChain(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"canvas.yaml":             {Data: []byte("path:canvas.yaml")},
		"notes/canvas.yaml":       {Data: []byte("path:notes/canvas.yaml")},
		"notes/bio/canvas.yaml":   {Data: []byte("path:notes/bio/canvas.yaml")},
		"notes/bio/legs.md":       {Data: []byte("# Legs")},
		"other/canvas.yaml":       {Data: []byte("path:other/canvas.yaml")},
		"without/config":          {Mode: fs.ModeDir},
		"without/config/notes.md": {Data: []byte("text")},
	}
	loader := NewLoader("canvas", "yaml", fsys, WithLogger(zaptest.NewLogger(t)))

	testCases := []struct {
		name     string
		path     string
		expected []string
	}{
		{name: "root", path: "", expected: []string{"path:canvas.yaml"}},
		{name: "dir", path: "notes", expected: []string{"path:canvas.yaml", "path:notes/canvas.yaml"}},
		{
			name:     "file",
			path:     "notes/bio/legs.md",
			expected: []string{"path:canvas.yaml", "path:notes/canvas.yaml", "path:notes/bio/canvas.yaml"},
		},
		{name: "without config", path: "without/config/notes.md", expected: []string{"path:canvas.yaml"}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			chain, err := loader.FindConfigChain(tc.path)
			require.NoError(t, err)

			var result []string
			for _, data := range chain {
				result = append(result, string(data))
			}
			assert.Equal(t, tc.expected, result)
		})
	}

	t.Run("missing path", func(t *testing.T) {
		t.Parallel()
		_, err := loader.FindConfigChain("missing.md")
		require.Error(t, err)
	})
}

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"canvas.yaml": {Data: []byte("version: v1\nhistory:\n  limit: 50\nstorage:\n  path: notes.db\n")},
		"bio/canvas.yaml": {Data: []byte(`version: v1
layout:
  max_columns: 2
filters:
  - type: block
    condition: "type == 'callout'"
`)},
		"bio/legs.md": {Data: []byte("# Legs")},
	}
	loader := NewLoader("canvas", "yaml", fsys)

	cfg, err := loader.Load("bio/legs.md")
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.History.Limit)
	assert.Equal(t, "notes.db", cfg.Storage.Path)
	assert.Equal(t, 2, cfg.Layout.MaxColumns)
	assert.Equal(t, 15.0, cfg.Layout.MinColumnWidth)
	require.Len(t, cfg.Filters, 1)
	assert.Equal(t, FilterTypeBlock, cfg.Filters[0].Type)

	cfg, err = loader.Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Layout.MaxColumns)
	assert.Empty(t, cfg.Filters)
}
