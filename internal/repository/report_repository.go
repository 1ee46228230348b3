package repository

import (
	"context"
	"errors"

	"attendance/internal/docstore"
	"attendance/internal/models"
)

var ErrReportNotFound = errors.New("report not found")

type ReportRepository struct {
	store *docstore.Store
}

func NewReportRepository(store *docstore.Store) *ReportRepository {
	return &ReportRepository{store: store}
}

// Upsert stores the report, replacing content and submitted_at of an existing
// report for the same user and date instead of adding a second one.
func (r *ReportRepository) Upsert(ctx context.Context, report models.Report) (models.Report, error) {
	filter := docstore.Filter{"user_id": report.UserID, "date": report.Date}
	return claim(ctx, r.store, CollectionReports, filter, func(existing *models.Report) (models.Report, bool, error) {
		if existing == nil {
			return report, true, nil
		}
		existing.Content = report.Content
		existing.SubmittedAt = report.SubmittedAt
		return *existing, true, nil
	})
}

func (r *ReportRepository) Get(ctx context.Context, userID int64, date string) (models.Report, error) {
	return findFirst[models.Report](ctx, r.store, CollectionReports, docstore.Filter{"user_id": userID, "date": date}, ErrReportNotFound)
}

func (r *ReportRepository) ListByUser(ctx context.Context, userID int64) ([]models.Report, error) {
	return decodeAll[models.Report](r.store.FindMany(ctx, CollectionReports, docstore.Filter{"user_id": userID}))
}

func (r *ReportRepository) ListByDate(ctx context.Context, date string) ([]models.Report, error) {
	return decodeAll[models.Report](r.store.FindMany(ctx, CollectionReports, docstore.Filter{"date": date}))
}
