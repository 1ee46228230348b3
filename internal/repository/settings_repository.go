package repository

import (
	"context"
	"fmt"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"attendance/internal/docstore"
	"attendance/internal/models"
)

// SettingsRepository keeps the settings singleton as the only document of the
// settings collection.
type SettingsRepository struct {
	store *docstore.Store
	clock quartz.Clock
	log   zerolog.Logger
}

func NewSettingsRepository(store *docstore.Store, clock quartz.Clock, log zerolog.Logger) *SettingsRepository {
	return &SettingsRepository{store: store, clock: clock, log: log}
}

// Get returns the stored settings, persisting the defaults first when the
// collection is absent or corrupt. Any other read or decode failure is
// returned so callers never save over settings they could not read.
func (r *SettingsRepository) Get(ctx context.Context) (models.Settings, error) {
	settings := models.DefaultSettings()
	initialized := false
	err := r.store.Mutate(ctx, CollectionSettings, func(docs []docstore.Document) ([]docstore.Document, error) {
		if len(docs) > 0 {
			if err := docstore.Decode(docs[0], &settings); err != nil {
				return nil, err
			}
			return nil, docstore.SkipWrite
		}
		doc, err := docstore.Encode(settings)
		if err != nil {
			return nil, err
		}
		initialized = true
		return []docstore.Document{doc}, nil
	})
	if err != nil {
		return models.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	if initialized {
		r.log.Info().Msg("settings initialized with defaults")
	}
	return settings, nil
}

// Save stamps updated_at and overwrites the singleton.
func (r *SettingsRepository) Save(ctx context.Context, settings models.Settings) (models.Settings, error) {
	now := r.clock.Now()
	settings.UpdatedAt = &now

	doc, err := docstore.Encode(settings)
	if err != nil {
		return models.Settings{}, err
	}
	if err := r.store.WriteAll(ctx, CollectionSettings, []docstore.Document{doc}); err != nil {
		return models.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	return settings, nil
}
