package config

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/stateful/canvas/pkg/document/editor"
)

const Version = "v1"

// Config is the configuration of the canvas command and the editor.
type Config struct {
	Version  string         `yaml:"version" validate:"eq=v1"`
	History  HistoryConfig  `yaml:"history"`
	Layout   LayoutConfig   `yaml:"layout"`
	Storage  StorageConfig  `yaml:"storage"`
	Glossary GlossaryConfig `yaml:"glossary"`
	Log      LogConfig      `yaml:"log"`
	Filters  []*Filter      `yaml:"filters" validate:"dive"`
}

type HistoryConfig struct {
	Limit int `yaml:"limit" validate:"min=1,max=500"`
}

type LayoutConfig struct {
	MaxColumns     int     `yaml:"max_columns" validate:"min=2,max=6"`
	MinColumnWidth float64 `yaml:"min_column_width" validate:"gt=0,ltfield=MaxColumnWidth"`
	MaxColumnWidth float64 `yaml:"max_column_width" validate:"lt=100"`
}

type StorageConfig struct {
	// Path is the SQLite database holding documents and the glossary.
	Path       string `yaml:"path" validate:"required"`
	Collection string `yaml:"collection" validate:"required"`
}

type GlossaryConfig struct {
	CacheSize int `yaml:"cache_size" validate:"min=1"`
}

type LogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Verbose bool   `yaml:"verbose"`
}

var validate = validator.New()

// ParseYAML reads a configuration. Fields missing from data keep their
// default values.
func ParseYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := parseInto(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseInto(data []byte, cfg *Config) error {
	var version struct {
		Version string `yaml:"version"`
	}
	if err := yaml.Unmarshal(data, &version); err != nil {
		return errors.Wrap(err, "failed to unmarshal version")
	}
	if version.Version != Version {
		return errors.Errorf("unknown version: %q", version.Version)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrap(err, "failed to unmarshal yaml")
	}

	if err := validate.Struct(cfg); err != nil {
		return errors.Wrap(err, "failed to validate config")
	}
	return nil
}

// EditorOptions turns the history and layout settings into store options.
func (c *Config) EditorOptions() []editor.Option {
	return []editor.Option{
		editor.WithHistory(editor.NewHistory(c.History.Limit)),
		editor.WithMaxColumns(c.Layout.MaxColumns),
		editor.WithColumnWidthBounds(c.Layout.MinColumnWidth, c.Layout.MaxColumnWidth),
	}
}
