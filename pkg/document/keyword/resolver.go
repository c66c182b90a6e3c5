package keyword

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/canvas/internal/glossary"
	"github.com/stateful/canvas/internal/log"
	"github.com/stateful/canvas/internal/lru"
)

const DefaultCacheSize = 256

// Detail is what a surface shows for a tag.
type Detail struct {
	Term       string
	Definition string
	Mastery    string
	Prompts    []string
	// Found is false when the glossary has no entry for the term.
	Found bool
}

// Resolver looks terms up in a glossary and caches the answers,
// including misses. A nil *Resolver resolves everything to the default
// mastery.
type Resolver struct {
	lookup glossary.Lookup
	cache  *lru.Cache[string, Detail]
	log    *zap.Logger
}

func NewResolver(lookup glossary.Lookup, cacheSize int) *Resolver {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	return &Resolver{
		lookup: lookup,
		cache:  lru.NewCache[string, Detail](cacheSize),
		log:    log.Get().Named("keyword.Resolver"),
	}
}

// Resolve never fails. Lookup errors other than a miss are logged and
// not cached, so the next call tries again.
func (r *Resolver) Resolve(ctx context.Context, term string) Detail {
	missing := Detail{Term: term, Mastery: DefaultMastery}
	if r == nil || r.lookup == nil {
		return missing
	}

	key := glossary.Normalize(term)
	if key == "" {
		return missing
	}

	detail, err := r.cache.GetOrLoad(key, func() (Detail, error) {
		entry, err := r.lookup.Lookup(ctx, key)
		if errors.Is(err, glossary.ErrNotFound) {
			return Detail{Mastery: DefaultMastery}, nil
		}
		if err != nil {
			return Detail{}, err
		}

		mastery := entry.Mastery
		if mastery == "" {
			mastery = DefaultMastery
		}
		return Detail{
			Term:       entry.Term,
			Definition: entry.Definition,
			Mastery:    mastery,
			Prompts:    entry.Prompts,
			Found:      true,
		}, nil
	})
	if err != nil {
		r.log.Warn("failed to resolve term", zap.String("term", term), zap.Error(err))
		return missing
	}

	if !detail.Found {
		detail.Term = term
	}
	detail.Prompts = append([]string(nil), detail.Prompts...)
	return detail
}

// Forget drops the cached answer for term.
func (r *Resolver) Forget(term string) {
	if r != nil {
		r.cache.Delete(glossary.Normalize(term))
	}
}

// Reset drops all cached answers.
func (r *Resolver) Reset() {
	if r != nil {
		r.cache.Purge()
	}
}
