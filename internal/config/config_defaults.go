package config

var defaults Config

func init() {
	yaml := []byte(`version: v1

# Number of undo steps kept per document.
history:
  limit: 20

layout:
  # A column group holds at most this many columns.
  max_columns: 3
  # Bounds for the first split of a full-width block and for resizing.
  min_column_width: 15
  max_column_width: 85

storage:
  path: "canvas.db"
  collection: "default"

glossary:
  cache_size: 256

log:
  enabled: false
  path: "/tmp/canvas.log"
  verbose: false

# Filters select blocks for "canvas list".
# "condition" must return a boolean value.
# You can learn about the syntax at https://expr-lang.org/docs/language-definition.
# Available fields are defined in [config.FilterBlockEnv] and [config.FilterDocumentEnv].
# filters:
#   # Only callouts.
#   - type: "block"
#     condition: "type == 'callout'"
#   # Only blocks in a column group.
#   - type: "block"
#     condition: "column_group != ''"
`)

	cfg := &Config{}
	if err := parseInto(yaml, cfg); err != nil {
		panic(err)
	}

	defaults = *cfg
}

// Default returns a copy of the default configuration.
func Default() *Config {
	cfg := defaults
	cfg.Filters = nil
	return &cfg
}
