package docstore

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("document not found")
	ErrCorrupt  = errors.New("collection corrupt")
)

// Backend persists whole collections. Save must replace the collection
// atomically: a concurrent or post-crash Load sees either the previous or the
// new sequence, never a mix. Load returns an empty sequence for a collection
// that was never saved and wraps ErrCorrupt when stored bytes cannot be parsed.
type Backend interface {
	Load(ctx context.Context, collection string) ([]Document, error)
	Save(ctx context.Context, collection string, docs []Document) error
}
