package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/cli/go-gh/v2/pkg/jsonpretty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/stateful/canvas/internal/config"
	"github.com/stateful/canvas/internal/persist"
	"github.com/stateful/canvas/internal/session"
	"github.com/stateful/canvas/internal/term"
	"github.com/stateful/canvas/pkg/document"
	"github.com/stateful/canvas/pkg/document/editor"
	"github.com/stateful/canvas/pkg/document/keyword"
)

// readInput reads the file named by the first argument, or stdin when
// there is none or it is "-".
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return data, errors.Wrap(err, "failed to read stdin")
	}
	data, err := os.ReadFile(args[0])
	return data, errors.WithStack(err)
}

func readBlocks(cmd *cobra.Command, args []string) (document.Blocks, error) {
	data, err := readInput(cmd, args)
	if err != nil {
		return nil, err
	}
	return editor.Decode(data)
}

// writeOutput writes data to path, or to stdout when path is empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return errors.Wrap(err, "failed to write to stdout")
	}
	return errors.WithStack(os.WriteFile(path, data, 0o644))
}

func addOutputFlag(fs *pflag.FlagSet, p *string) {
	fs.StringVarP(p, "output", "o", "", "Write to a file instead of stdout")
}

func addBlockFormatFlag(fs *pflag.FlagSet, p *string) {
	fs.StringVar(p, "format", "json", "Output format (json, cbor, text)")
}

func writeBlocks(cmd *cobra.Command, path, format string, blocks document.Blocks) error {
	f, err := editor.ParseFormat(format)
	if err != nil {
		return err
	}
	data, err := editor.Encode(blocks, f)
	if err != nil {
		return err
	}
	if f == editor.FormatText && path == "" {
		data = append(data, '\n')
	}
	return writeOutput(cmd, path, data)
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.WithStack(err)
	}
	return writePrettyJSON(cmd, raw)
}

func writePrettyJSON(cmd *cobra.Command, raw []byte) error {
	return errors.WithStack(
		jsonpretty.Format(cmd.OutOrStdout(), bytes.NewReader(raw), "  ", false),
	)
}

func terminal(cmd *cobra.Command) term.Term {
	return term.FromIO(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// openSession opens the stored document name in the configured collection.
func (f *commonFlags) openSession(ctx context.Context, name string, opts ...session.Option) (*session.Session, error) {
	var result *session.Session
	err := f.invoke(func(cfg *config.Config, p *persist.SQLite, r *keyword.Resolver) error {
		key := persist.Key{Collection: cfg.Storage.Collection, Document: name}
		if !key.Valid() {
			return errors.Errorf("invalid document name %q", name)
		}

		sessionOpts := []session.Option{
			session.WithResolver(r),
			session.WithStoreOptions(cfg.EditorOptions()...),
		}

		var err error
		result, err = session.Open(ctx, key, p, append(sessionOpts, opts...)...)
		return err
	})
	return result, err
}

func (f *commonFlags) resolver() (*keyword.Resolver, error) {
	var result *keyword.Resolver
	err := f.invoke(func(r *keyword.Resolver) {
		result = r
	})
	return result, err
}
