// Package glossary resolves keyword terms to their definitions and the
// reader's mastery level. Terms match case-insensitively.
package glossary

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("term not found")

// Mastery levels, from least to most familiar.
const (
	MasteryNew      = "new"
	MasteryLearning = "learning"
	MasteryReview   = "review"
	MasteryMastered = "mastered"
)

var masteryLevels = []string{MasteryNew, MasteryLearning, MasteryReview, MasteryMastered}

func MasteryLevels() []string {
	return append([]string(nil), masteryLevels...)
}

func ValidMastery(level string) bool {
	for _, l := range masteryLevels {
		if l == level {
			return true
		}
	}
	return false
}

type Entry struct {
	Term       string   `json:"term"`
	Definition string   `json:"definition"`
	Mastery    string   `json:"mastery"`
	Prompts    []string `json:"prompts,omitempty"`
}

// Lookup finds a term. It returns ErrNotFound when the glossary has no
// entry for it.
type Lookup interface {
	Lookup(ctx context.Context, term string) (Entry, error)
}

// Store is a glossary that can be edited.
type Store interface {
	Lookup
	Put(ctx context.Context, entry Entry) error
	Delete(ctx context.Context, term string) error
	List(ctx context.Context) ([]Entry, error)
}

// Normalize returns the key a term is matched by.
func Normalize(term string) string {
	return strings.ToLower(strings.Join(strings.Fields(term), " "))
}

// Memory is an in-memory Store.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

var _ Store = (*Memory)(nil)

func NewMemory(entries ...Entry) *Memory {
	m := &Memory{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		_ = m.Put(context.Background(), e)
	}
	return m
}

func (m *Memory) Lookup(_ context.Context, term string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[Normalize(term)]
	if !ok {
		return Entry{}, errors.WithStack(ErrNotFound)
	}
	entry.Prompts = append([]string(nil), entry.Prompts...)
	return entry, nil
}

func (m *Memory) Put(_ context.Context, entry Entry) error {
	key := Normalize(entry.Term)
	if key == "" {
		return errors.New("empty term")
	}
	if entry.Mastery == "" {
		entry.Mastery = MasteryNew
	}
	if !ValidMastery(entry.Mastery) {
		return errors.Errorf("invalid mastery level %q", entry.Mastery)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	entry.Prompts = append([]string(nil), entry.Prompts...)
	m.entries[key] = entry
	return nil
}

func (m *Memory) Delete(_ context.Context, term string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := Normalize(term)
	if _, ok := m.entries[key]; !ok {
		return errors.WithStack(ErrNotFound)
	}
	delete(m.entries, key)
	return nil
}

func (m *Memory) List(_ context.Context) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		return Normalize(result[i].Term) < Normalize(result[j].Term)
	})
	return result, nil
}
