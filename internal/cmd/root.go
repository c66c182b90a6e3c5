package cmd

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stateful/canvas/internal/config"
	"github.com/stateful/canvas/internal/config/autoconfig"
	"github.com/stateful/canvas/internal/log"
)

type commonFlags struct {
	chdir      string
	dbPath     string
	collection string
	silent     bool

	builder *autoconfig.Builder
}

// invoke calls fn with instances built from the configuration.
func (f *commonFlags) invoke(fn interface{}) error {
	return f.builder.Invoke(fn)
}

func Root() *cobra.Command {
	cFlags := &commonFlags{builder: autoconfig.NewBuilder()}

	cmd := cobra.Command{
		Use:   "canvas",
		Short: "Edit structured block documents.",
		Long: `canvas edits documents made of typed blocks: headings, text, lists,
callouts, quotes, images and dividers. Blocks can sit side by side in
column groups and words can be tagged as glossary keywords.

Documents are stored in a SQLite database configured in canvas.yaml.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cFlags.silent {
				cmd.SetErr(io.Discard)
			}

			if cFlags.chdir != "" {
				if err := os.Chdir(cFlags.chdir); err != nil {
					return errors.WithStack(err)
				}
			}

			// Flags override the configuration file. The configuration is
			// shared, so everything built from it later sees the overrides.
			return cFlags.invoke(func(cfg *config.Config, logger *zap.Logger) {
				if cFlags.dbPath != "" {
					cfg.Storage.Path = cFlags.dbPath
				}
				if cFlags.collection != "" {
					cfg.Storage.Collection = cFlags.collection
				}
				logger.Debug(
					"final configuration",
					zap.String("storage", cfg.Storage.Path),
					zap.String("collection", cfg.Storage.Collection),
					zap.Int("filters", len(cfg.Filters)),
				)
			})
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			log.Flush()
		},
	}

	pFlags := cmd.PersistentFlags()
	pFlags.StringVar(&cFlags.chdir, "chdir", "", "Switch to a different working directory before executing the command.")
	pFlags.StringVar(&cFlags.dbPath, "db", "", "Path of the SQLite database. Overrides storage.path.")
	pFlags.StringVar(&cFlags.collection, "collection", "", "Collection of stored documents. Overrides storage.collection.")
	pFlags.BoolVar(&cFlags.silent, "silent", false, "Silent mode. Do not print messages to stderr.")

	cmd.AddCommand(importCmd(cFlags))
	cmd.AddCommand(renderCmd(cFlags))
	cmd.AddCommand(flattenCmd(cFlags))
	cmd.AddCommand(keywordsCmd(cFlags))
	cmd.AddCommand(listCmd(cFlags))
	cmd.AddCommand(saveCmd(cFlags))
	cmd.AddCommand(loadCmd(cFlags))
	cmd.AddCommand(documentsCmd(cFlags))
	cmd.AddCommand(editCmd(cFlags))
	cmd.AddCommand(pasteCmd(cFlags))
	cmd.AddCommand(glossaryCmd(cFlags))

	return &cmd
}
