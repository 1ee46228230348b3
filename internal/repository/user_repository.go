package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"attendance/internal/docstore"
	"attendance/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository struct {
	store *docstore.Store
}

func NewUserRepository(store *docstore.Store) *UserRepository {
	return &UserRepository{store: store}
}

// Claim runs fn against the user with the given id inside the users lock.
func (r *UserRepository) Claim(ctx context.Context, id int64, fn func(existing *models.User) (models.User, bool, error)) (models.User, error) {
	return claim(ctx, r.store, CollectionUsers, docstore.Filter{"id": id}, fn)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (models.User, error) {
	return findFirst[models.User](ctx, r.store, CollectionUsers, docstore.Filter{"id": id}, ErrUserNotFound)
}

func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	users, err := decodeAll[models.User](r.store.ReadAll(ctx, CollectionUsers))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (r *UserRepository) ListByStatus(ctx context.Context, status models.UserStatus) ([]models.User, error) {
	return decodeAll[models.User](r.store.FindMany(ctx, CollectionUsers, docstore.Filter{"status": string(status)}))
}

func (r *UserRepository) UpdateStatus(ctx context.Context, id int64, status models.UserStatus, now time.Time) error {
	return r.update(ctx, id, docstore.Document{
		"status":     string(status),
		"updated_at": now,
	})
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string, now time.Time) error {
	return r.update(ctx, id, docstore.Document{
		"password":   hash,
		"updated_at": now,
	})
}

func (r *UserRepository) update(ctx context.Context, id int64, patch docstore.Document) error {
	err := r.store.Update(ctx, CollectionUsers, "id", id, patch)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("update user %d: %w", id, err)
	}
	return nil
}
