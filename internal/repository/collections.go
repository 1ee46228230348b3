package repository

import (
	"context"

	"attendance/internal/docstore"
)

const (
	CollectionUsers     = "users"
	CollectionSessions  = "sessions"
	CollectionLocations = "locations"
	CollectionReports   = "reports"
	CollectionSettings  = "settings"
)

// Collections lists every collection the application persists.
var Collections = []string{
	CollectionUsers,
	CollectionSessions,
	CollectionLocations,
	CollectionReports,
	CollectionSettings,
}

func decodeAll[T any](docs []docstore.Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var item T
		if err := docstore.Decode(doc, &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func findFirst[T any](ctx context.Context, store *docstore.Store, collection string, filter docstore.Filter, notFound error) (T, error) {
	var item T
	docs := store.FindMany(ctx, collection, filter)
	if len(docs) == 0 {
		return item, notFound
	}
	if err := docstore.Decode(docs[0], &item); err != nil {
		return item, err
	}
	return item, nil
}

// claim runs fn against the first document matching filter (nil when there
// is none) while the collection is locked. When fn reports a change its result
// is merged into the matched document, or appended if nothing matched.
func claim[T any](ctx context.Context, store *docstore.Store, collection string, filter docstore.Filter, fn func(existing *T) (T, bool, error)) (T, error) {
	var result T
	err := store.Mutate(ctx, collection, func(docs []docstore.Document) ([]docstore.Document, error) {
		idx := -1
		var existing *T
		for i, doc := range docs {
			if !doc.Matches(filter) {
				continue
			}
			var item T
			if err := docstore.Decode(doc, &item); err != nil {
				return nil, err
			}
			idx, existing = i, &item
			break
		}

		next, changed, err := fn(existing)
		if err != nil {
			return nil, err
		}
		result = next
		if !changed {
			return nil, docstore.SkipWrite
		}

		doc, err := docstore.Encode(next)
		if err != nil {
			return nil, err
		}
		if idx < 0 {
			return append(docs, doc), nil
		}
		for k, v := range doc {
			docs[idx][k] = v
		}
		return docs, nil
	})
	return result, err
}
