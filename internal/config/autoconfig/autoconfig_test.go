package autoconfig

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stateful/canvas/internal/config"
	"github.com/stateful/canvas/internal/glossary"
	"github.com/stateful/canvas/internal/persist"
	"github.com/stateful/canvas/pkg/document/keyword"
)

func newTestBuilder(t *testing.T, data string) *Builder {
	t.Helper()

	builder := NewBuilder()
	fsys := fstest.MapFS{"canvas.yaml": {Data: []byte(data)}}
	err := builder.Decorate(func() (*config.Loader, error) {
		return config.NewLoader(ConfigName, ConfigType, fsys), nil
	})
	require.NoError(t, err)
	return builder
}

func TestBuilder_Config(t *testing.T) {
	builder := newTestBuilder(t, "version: v1\nhistory:\n  limit: 7\n")

	err := builder.Invoke(func(cfg *config.Config, logger *zap.Logger) error {
		assert.Equal(t, 7, cfg.History.Limit)
		assert.Equal(t, "canvas.db", cfg.Storage.Path)
		assert.NotNil(t, logger)
		return nil
	})
	require.NoError(t, err)
}

func TestBuilder_InvalidConfig(t *testing.T) {
	builder := newTestBuilder(t, "version: v0\n")

	err := builder.Invoke(func(*config.Config) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown version: "v0"`)
}

func TestBuilder_Stores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "canvas.db")
	builder := newTestBuilder(t, "version: v1\nstorage:\n  path: "+path+"\n")

	err := builder.Invoke(func(
		g glossary.Store,
		r *keyword.Resolver,
		p *persist.SQLite,
	) error {
		ctx := context.Background()

		require.NoError(t, g.Put(ctx, glossary.Entry{Term: "Femur", Mastery: glossary.MasteryReview}))
		assert.Equal(t, glossary.MasteryReview, r.Resolve(ctx, "femur").Mastery)

		_, err := p.Save(ctx, persist.Key{Collection: "c", Document: "d"}, persist.Payload{})
		return err
	})
	require.NoError(t, err)
	assert.FileExists(t, path)
}
