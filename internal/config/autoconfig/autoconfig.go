// autoconfig wires the instances commands need, like [config.Config],
// [zap.Logger], the SQLite database and the stores on top of it, from
// the canvas.yaml files in the working directory.
//
// For example, to get the glossary store, write:
//
//	autoconfig.InvokeForCommand(func(g glossary.Store) error {
//	    ...
//	})
//
// Treat it as a dependency injection mechanism.
package autoconfig

import (
	"context"
	"database/sql"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/stateful/canvas/internal/config"
	"github.com/stateful/canvas/internal/dbopen"
	"github.com/stateful/canvas/internal/glossary"
	"github.com/stateful/canvas/internal/log"
	"github.com/stateful/canvas/internal/persist"
	"github.com/stateful/canvas/pkg/document/keyword"
)

const (
	ConfigName = "canvas"
	ConfigType = "yaml"
)

type Builder struct {
	*dig.Container
}

func NewBuilder() *Builder {
	c := dig.New()

	mustProvide(c.Provide(getLoader))
	mustProvide(c.Provide(getConfig))
	mustProvide(c.Provide(getLogger))
	mustProvide(c.Provide(getDB))
	mustProvide(c.Provide(getGlossary))
	mustProvide(c.Provide(getResolver))
	mustProvide(c.Provide(getPersister))

	return &Builder{Container: c}
}

// Invoke calls function with its dependencies. Errors from providers
// are reported by their root cause.
func (b *Builder) Invoke(function interface{}, opts ...dig.InvokeOption) error {
	err := b.Container.Invoke(function, opts...)
	return dig.RootCause(err)
}

var defaultBuilder = NewBuilder()

// InvokeForCommand is Invoke on the process wide builder. Instances are
// created once and shared by the calls.
func InvokeForCommand(function interface{}, opts ...dig.InvokeOption) error {
	return defaultBuilder.Invoke(function, opts...)
}

// DecorateForCommand replaces an instance of the process wide builder.
// It must be called before the instance is used.
func DecorateForCommand(decorator interface{}) error {
	return errors.WithStack(defaultBuilder.Decorate(decorator))
}

func mustProvide(err error) {
	if err != nil {
		panic("failed to provide: " + err.Error())
	}
}

func getLoader() (*config.Loader, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return config.NewLoader(ConfigName, ConfigType, os.DirFS(cwd)), nil
}

func getConfig(loader *config.Loader) (*config.Config, error) {
	return loader.Load("")
}

func getLogger(c *config.Config) (*zap.Logger, error) {
	if c == nil || !c.Log.Enabled {
		return zap.NewNop(), nil
	}

	if err := log.Set(c.Log.Path, c.Log.Verbose); err != nil {
		return nil, errors.WithStack(err)
	}
	return log.Get(), nil
}

func getDB(c *config.Config, logger *zap.Logger) (*sql.DB, error) {
	db, err := dbopen.Open(c.Storage.Path, dbopen.WithMkdirAll())
	if err != nil {
		return nil, err
	}
	logger.Debug("opened database", zap.String("path", c.Storage.Path))
	return db, nil
}

func getGlossary(db *sql.DB) (glossary.Store, error) {
	return glossary.NewSQLite(context.Background(), db)
}

func getResolver(c *config.Config, store glossary.Store) *keyword.Resolver {
	return keyword.NewResolver(store, c.Glossary.CacheSize)
}

func getPersister(db *sql.DB) (*persist.SQLite, error) {
	return persist.NewSQLite(context.Background(), db)
}
