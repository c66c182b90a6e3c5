// Package session ties one edited document to its collaborators:
// persistence, text generation, export and the glossary.
//
// Saving, generating and exporting each run at most once at a time. A
// second trigger of the same operation while the first is in flight
// fails with ErrBusy; the other operations and the editor stay usable.
package session

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/canvas/internal/log"
	"github.com/stateful/canvas/internal/persist"
	"github.com/stateful/canvas/internal/surface"
	"github.com/stateful/canvas/pkg/document"
	"github.com/stateful/canvas/pkg/document/editor"
	"github.com/stateful/canvas/pkg/document/importer"
	"github.com/stateful/canvas/pkg/document/keyword"
)

var ErrBusy = errors.New("operation already in progress")

// RetryableError is a collaborator failure the user can retry. The
// in-memory document is left untouched.
type RetryableError struct {
	Op  string
	Err error
}

func (e *RetryableError) Error() string {
	return e.Op + " failed, please try again: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error { return e.Err }

func IsRetryable(err error) bool {
	var target *RetryableError
	return errors.As(err, &target)
}

// Generator produces importable text for a topic.
type Generator interface {
	Generate(ctx context.Context, topic, background string) (string, error)
}

type GeneratorFunc func(ctx context.Context, topic, background string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, topic, background string) (string, error) {
	return f(ctx, topic, background)
}

type Option func(*Session)

func WithGenerator(g Generator) Option {
	return func(s *Session) { s.generator = g }
}

func WithResolver(r *keyword.Resolver) Option {
	return func(s *Session) { s.resolver = r }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func WithStoreOptions(opts ...editor.Option) Option {
	return func(s *Session) { s.storeOpts = append(s.storeOpts, opts...) }
}

type Session struct {
	key       persist.Key
	persister persist.Store
	generator Generator
	resolver  *keyword.Resolver
	storeOpts []editor.Option

	mu          sync.Mutex
	store       *editor.Store
	notes       map[string]string
	annotations json.RawMessage
	version     int
	damaged     error

	saving     atomic.Bool
	generating atomic.Bool
	exporting  atomic.Bool

	now         func() time.Time
	started     time.Time
	baseMinutes int

	log *zap.Logger
}

func newSession(key persist.Key, persister persist.Store, opts ...Option) *Session {
	s := &Session{
		key:       key,
		persister: persister,
		notes:     make(map[string]string),
		now:       time.Now,
		log:       log.Get().Named("session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.started = s.now()
	return s
}

// New starts a session over blocks that have not been saved yet.
func New(key persist.Key, persister persist.Store, blocks document.Blocks, opts ...Option) *Session {
	s := newSession(key, persister, opts...)
	s.store = editor.New(blocks, s.storeOpts...)
	return s
}

// Open loads the document stored under key. A document that does not
// exist yet starts empty. A document whose block data cannot be decoded
// opens empty and reports the problem through Damaged.
func Open(ctx context.Context, key persist.Key, persister persist.Store, opts ...Option) (*Session, error) {
	s := newSession(key, persister, opts...)

	record, err := persister.Load(ctx, key)
	if errors.Is(err, persist.ErrNotFound) {
		s.store = editor.New(nil, s.storeOpts...)
		return s, nil
	}
	if err != nil {
		return nil, &RetryableError{Op: "load", Err: err}
	}

	var blocks document.Blocks
	if len(record.SerializedBlocks) > 0 {
		blocks, err = document.UnmarshalJSON(record.SerializedBlocks)
		if errors.Is(err, document.ErrMalformed) {
			s.log.Warn("stored document is damaged", zap.Stringer("key", s.key), zap.Error(err))
			s.store = editor.New(nil, s.storeOpts...)
			s.version = record.Version
			s.damaged = err
			return s, nil
		}
		if err != nil {
			return nil, err
		}
	}
	// Documents saved before blocks existed only carry their text.
	if len(blocks) == 0 && record.Content != "" {
		blocks = importer.Import(record.Content)
	}

	s.store = editor.New(blocks, s.storeOpts...)
	s.baseMinutes = record.EditTimeMinutes
	s.version = record.Version
	s.annotations = record.Annotations
	for term, note := range record.KeywordNotes {
		s.notes[term] = note
	}

	s.log.Debug("opened document", zap.Stringer("key", s.key), zap.Int("version", record.Version))
	return s, nil
}

func (s *Session) Key() persist.Key { return s.key }

// Damaged returns the decoding error of the stored document, or nil.
// The blocks of a damaged session are empty and Save refuses to
// overwrite the stored data until Load replaces them.
func (s *Session) Damaged() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.damaged
}

// Load replaces the whole document and clears any damage.
func (s *Session) Load(blocks document.Blocks) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Load(blocks)
	s.damaged = nil
}

// Edit runs fn with exclusive access to the store.
func (s *Session) Edit(fn func(*editor.Store)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.store)
}

// Blocks returns a snapshot of the document.
func (s *Session) Blocks() document.Blocks {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Blocks()
}

func (s *Session) Version() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func (s *Session) SetKeywordNote(term, note string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if note == "" {
		delete(s.notes, term)
		return
	}
	s.notes[term] = note
}

func (s *Session) SetAnnotations(data json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.annotations = append(json.RawMessage(nil), data...)
}

// EditMinutes is the editing time stored with the document plus the
// whole minutes spent in this session.
func (s *Session) EditMinutes() int {
	return s.baseMinutes + int(s.now().Sub(s.started)/time.Minute)
}

// Saving, Generating and Exporting report the busy flags.
func (s *Session) Saving() bool     { return s.saving.Load() }
func (s *Session) Generating() bool { return s.generating.Load() }
func (s *Session) Exporting() bool  { return s.exporting.Load() }

// Payload builds what Save persists from the current document.
func (s *Session) Payload(ctx context.Context) (persist.Payload, error) {
	s.mu.Lock()
	blocks := s.store.Blocks()
	notes := make(map[string]string, len(s.notes))
	for k, v := range s.notes {
		notes[k] = v
	}
	annotations := s.annotations
	s.mu.Unlock()

	data, err := document.MarshalJSON(blocks)
	if err != nil {
		return persist.Payload{}, err
	}

	tags := keyword.Extract(blocks)
	if tags == nil {
		tags = []string{}
	}

	payload := persist.Payload{
		Content:          document.Flatten(blocks),
		SerializedBlocks: data,
		Tags:             tags,
		EditTimeMinutes:  s.EditMinutes(),
		Annotations:      annotations,
		KeywordMastery:   keyword.Mastery(ctx, blocks, s.resolver),
	}
	if len(notes) > 0 {
		payload.KeywordNotes = notes
	}
	return payload, nil
}

// Save persists the document. Failures are returned as RetryableError.
func (s *Session) Save(ctx context.Context) (persist.Record, error) {
	if !s.saving.CompareAndSwap(false, true) {
		return persist.Record{}, errors.WithStack(ErrBusy)
	}
	defer s.saving.Store(false)

	if err := s.Damaged(); err != nil {
		return persist.Record{}, errors.Wrap(err, "refusing to overwrite damaged document")
	}

	payload, err := s.Payload(ctx)
	if err != nil {
		return persist.Record{}, err
	}

	record, err := s.persister.Save(ctx, s.key, payload)
	if err != nil {
		s.log.Warn("failed to save document", zap.Stringer("key", s.key), zap.Error(err))
		return persist.Record{}, &RetryableError{Op: "save", Err: err}
	}

	s.mu.Lock()
	s.version = record.Version
	s.mu.Unlock()

	s.log.Info("saved document", zap.Stringer("key", s.key), zap.Int("version", record.Version))
	return record, nil
}

// Generate asks the generator for text on topic and inserts the imported
// blocks after the focused block as one undoable step.
func (s *Session) Generate(ctx context.Context, topic, background string) (document.Blocks, error) {
	if s.generator == nil {
		return nil, errors.New("no generator configured")
	}
	if !s.generating.CompareAndSwap(false, true) {
		return nil, errors.WithStack(ErrBusy)
	}
	defer s.generating.Store(false)

	text, err := s.generator.Generate(ctx, topic, background)
	if err != nil {
		s.log.Warn("failed to generate", zap.String("topic", topic), zap.Error(err))
		return nil, &RetryableError{Op: "generate", Err: err}
	}

	blocks := importer.ImportMarkup(text)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Batch(func() {
		focused := s.store.Focused()
		if b, ok := s.store.Block(focused); ok && s.store.Len() == 1 && b.Content == "" {
			s.store.Replace(focused, blocks...)
			return
		}
		s.store.InsertAfter(focused, blocks...)
	})

	s.log.Debug("generated blocks", zap.String("topic", topic), zap.Int("blocks", len(blocks)))
	return blocks.Clone(), nil
}

// Export writes the document as HTML.
func (s *Session) Export(ctx context.Context, w io.Writer, title string) error {
	if !s.exporting.CompareAndSwap(false, true) {
		return errors.WithStack(ErrBusy)
	}
	defer s.exporting.Store(false)

	rows := surface.Build(ctx, s.Blocks(), s.resolver)
	if err := s.Damaged(); err != nil {
		rows = []surface.Row{surface.NoticeRow(err)}
	}
	if err := surface.Export(w, rows, title); err != nil {
		return &RetryableError{Op: "export", Err: err}
	}
	return nil
}
