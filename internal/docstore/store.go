package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// SkipWrite may be returned by a Mutate func to leave the collection as is.
var SkipWrite = errors.New("skip write")

type Store struct {
	backend Backend
	locks   *LockManager
	log     zerolog.Logger
}

func New(backend Backend, locks *LockManager, log zerolog.Logger) *Store {
	if locks == nil {
		locks = NewLockManager()
	}
	return &Store{
		backend: backend,
		locks:   locks,
		log:     log,
	}
}

// load must be called with the collection lock held. Corrupt collections
// degrade to empty.
func (s *Store) load(ctx context.Context, collection string) ([]Document, error) {
	docs, err := s.backend.Load(ctx, collection)
	if err != nil {
		if errors.Is(err, ErrCorrupt) {
			s.log.Warn().Err(err).Str("collection", collection).Msg("collection unreadable, treating as empty")
			return nil, nil
		}
		return nil, err
	}
	return docs, nil
}

// ReadAll returns every document in store order. A missing, corrupt or
// unreadable collection yields an empty result.
func (s *Store) ReadAll(ctx context.Context, collection string) []Document {
	unlock, err := s.locks.Lock(ctx, collection)
	if err != nil {
		s.log.Warn().Err(err).Str("collection", collection).Msg("lock collection failed")
		return nil
	}
	defer unlock()

	docs, err := s.load(ctx, collection)
	if err != nil {
		s.log.Warn().Err(err).Str("collection", collection).Msg("read collection failed")
		return nil
	}
	return docs
}

// WriteAll replaces the whole collection.
func (s *Store) WriteAll(ctx context.Context, collection string, docs []Document) error {
	unlock, err := s.locks.Lock(ctx, collection)
	if err != nil {
		return err
	}
	defer unlock()

	normalized := make([]Document, 0, len(docs))
	for _, doc := range docs {
		normalized = append(normalized, normalizeDocument(doc))
	}
	return s.backend.Save(ctx, collection, normalized)
}

// Mutate runs fn on the current collection and persists its result, all in
// one critical section. fn may return SkipWrite to persist nothing.
func (s *Store) Mutate(ctx context.Context, collection string, fn func(docs []Document) ([]Document, error)) error {
	unlock, err := s.locks.Lock(ctx, collection)
	if err != nil {
		return err
	}
	defer unlock()

	docs, err := s.load(ctx, collection)
	if err != nil {
		return fmt.Errorf("load %s: %w", collection, err)
	}

	next, err := fn(docs)
	if err != nil {
		if errors.Is(err, SkipWrite) {
			return nil
		}
		return err
	}
	return s.backend.Save(ctx, collection, next)
}

// Append adds doc at the end of the collection.
func (s *Store) Append(ctx context.Context, collection string, doc Document) error {
	item := normalizeDocument(doc)
	return s.Mutate(ctx, collection, func(docs []Document) ([]Document, error) {
		return append(docs, item), nil
	})
}

// FindOne returns the first document whose key field equals value.
func (s *Store) FindOne(ctx context.Context, collection string, key string, value any) (Document, bool) {
	filter := Filter{key: value}
	for _, doc := range s.ReadAll(ctx, collection) {
		if doc.Matches(filter) {
			return doc, true
		}
	}
	return nil, false
}

// FindMany returns every document matching all of filter, in store order.
func (s *Store) FindMany(ctx context.Context, collection string, filter Filter) []Document {
	var out []Document
	for _, doc := range s.ReadAll(ctx, collection) {
		if doc.Matches(filter) {
			out = append(out, doc)
		}
	}
	return out
}

// Update merges patch into the first document whose key field equals value.
// It returns ErrNotFound when nothing matches.
func (s *Store) Update(ctx context.Context, collection string, key string, value any, patch Document) error {
	filter := Filter{key: value}
	fields := normalizeDocument(patch)

	return s.Mutate(ctx, collection, func(docs []Document) ([]Document, error) {
		for _, doc := range docs {
			if !doc.Matches(filter) {
				continue
			}
			for k, v := range fields {
				doc[k] = v
			}
			return docs, nil
		}
		return nil, fmt.Errorf("%s %s=%v: %w", collection, key, value, ErrNotFound)
	})
}
