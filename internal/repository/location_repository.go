package repository

import (
	"context"
	"fmt"

	"attendance/internal/docstore"
	"attendance/internal/models"
)

type LocationRepository struct {
	store *docstore.Store
}

func NewLocationRepository(store *docstore.Store) *LocationRepository {
	return &LocationRepository{store: store}
}

func (r *LocationRepository) Create(ctx context.Context, location models.Location) error {
	doc, err := docstore.Encode(location)
	if err != nil {
		return err
	}
	if err := r.store.Append(ctx, CollectionLocations, doc); err != nil {
		return fmt.Errorf("append location: %w", err)
	}
	return nil
}

func (r *LocationRepository) ListBySession(ctx context.Context, sessionID string) ([]models.Location, error) {
	return decodeAll[models.Location](r.store.FindMany(ctx, CollectionLocations, docstore.Filter{"session_id": sessionID}))
}
