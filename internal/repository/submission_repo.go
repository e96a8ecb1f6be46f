package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/flagforge/flagforge-api/internal/models"
)

// SubmissionRepository is the append-only attempt ledger. There is no update
// or delete: rows are audit history.
type SubmissionRepository interface {
	Record(ctx context.Context, submission *models.Submission) error
	ListCorrectInWindow(ctx context.Context, userIDs []uint, from, to time.Time) ([]models.Submission, error)
	ListByUser(ctx context.Context, userID uint, limit int) ([]models.Submission, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the ledger.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Record(ctx context.Context, submission *models.Submission) error {
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(submission).Error
}

// ListCorrectInWindow returns correct submissions for the given users inside
// [from, to], ascending by timestamp, for aggregation consumers.
func (r *submissionRepository) ListCorrectInWindow(ctx context.Context, userIDs []uint, from, to time.Time) ([]models.Submission, error) {
	if len(userIDs) == 0 {
		return []models.Submission{}, nil
	}

	var submissions []models.Submission
	err := r.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Where("is_correct = ?", true).
		Where("submitted_at >= ? AND submitted_at <= ?", from, to).
		Order("submitted_at ASC").
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *submissionRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]models.Submission, error) {
	if limit <= 0 {
		limit = 50
	}

	var submissions []models.Submission
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("submitted_at DESC").
		Limit(limit).
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}
	return submissions, nil
}
