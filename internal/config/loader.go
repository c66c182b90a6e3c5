package config

import (
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrRootConfigNotFound = errors.New("root configuration file not found")

// Loader finds configuration files in a file system. A file in the
// root applies everywhere; files in nested directories apply to the
// documents below them and override the ones above.
type Loader struct {
	fsys       fs.FS
	configName string
	configType string
	logger     *zap.Logger
}

type LoaderOption func(*Loader)

func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

func NewLoader(configName, configType string, fsys fs.FS, opts ...LoaderOption) *Loader {
	if configName == "" {
		panic("config name is not set")
	}

	l := &Loader{
		fsys:       fsys,
		configName: configName,
		configType: configType,
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.logger == nil {
		l.logger = zap.NewNop()
	}

	return l
}

func (l *Loader) fileName() string {
	if l.configType == "" {
		return l.configName
	}
	return l.configName + "." + l.configType
}

func (l *Loader) RootConfig() ([]byte, error) {
	data, err := fs.ReadFile(l.fsys, l.fileName())
	if err != nil {
		return nil, ErrRootConfigNotFound
	}
	return data, nil
}

// FindConfigChain returns the contents of the configuration files that
// apply to name, from the root down.
func (l *Loader) FindConfigChain(name string) ([][]byte, error) {
	dir, err := l.dirOf(name)
	if err != nil {
		return nil, err
	}

	candidates := []string{l.fileName()}
	if dir != "." {
		cur := ""
		for _, fragment := range strings.Split(filepath.ToSlash(dir), "/") {
			cur = path.Join(cur, fragment)
			candidates = append(candidates, path.Join(cur, l.fileName()))
		}
	}

	var result [][]byte
	for _, candidate := range candidates {
		data, err := fs.ReadFile(l.fsys, candidate)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", candidate)
		}
		l.logger.Debug("found config file", zap.String("path", candidate))
		result = append(result, data)
	}
	return result, nil
}

func (l *Loader) dirOf(name string) (string, error) {
	if name == "" {
		return ".", nil
	}

	info, err := fs.Stat(l.fsys, name)
	if err != nil {
		return "", errors.Wrapf(err, "failed to get the path info for %q", name)
	}
	if info.IsDir() {
		return path.Clean(filepath.ToSlash(name)), nil
	}
	return path.Dir(filepath.ToSlash(name)), nil
}

// Load layers the configuration chain for name over the defaults.
func (l *Loader) Load(name string) (*Config, error) {
	chain, err := l.FindConfigChain(name)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	for _, data := range chain {
		if err := parseInto(data, cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
