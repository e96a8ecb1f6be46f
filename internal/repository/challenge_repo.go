package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/flagforge/flagforge-api/internal/models"
)

var (
	// ErrDuplicateName indicates a challenge with the same name already exists.
	ErrDuplicateName = errors.New("challenge name already exists")
	// ErrSolveExists indicates the (challenge, user) pair already has a solve
	// row. The unique index raises this under concurrency even when the
	// application-level pre-check passed.
	ErrSolveExists = errors.New("solve already recorded")
)

// ChallengeFilter narrows challenge listings.
type ChallengeFilter struct {
	Category    string
	Difficulty  string
	VisibleOnly bool
}

// ChallengeRepository defines data operations for challenges.
type ChallengeRepository interface {
	Create(ctx context.Context, challenge *models.Challenge) error
	GetByID(ctx context.Context, id uint) (models.Challenge, error)
	List(ctx context.Context, filter ChallengeFilter) ([]models.Challenge, error)
	Update(ctx context.Context, challenge *models.Challenge) error
	ReplaceHints(ctx context.Context, challengeID uint, hints []models.Hint) error
	ReplaceFiles(ctx context.Context, challengeID uint, files []models.ChallengeFile) error
	Delete(ctx context.Context, id uint) error
	AppendSolve(ctx context.Context, challengeID, userID uint, solvedAt time.Time) error
}

type challengeRepository struct {
	db *gorm.DB
}

// NewChallengeRepository instantiates the repository.
func NewChallengeRepository(db *gorm.DB) ChallengeRepository {
	return &challengeRepository{db: db}
}

func (r *challengeRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Challenge{}).
		Preload("Hints", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC, id ASC") }).
		Preload("Files", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC, id ASC") }).
		Preload("Solves").
		Preload("CreatedBy")
}

func (r *challengeRepository) Create(ctx context.Context, challenge *models.Challenge) error {
	if err := r.db.WithContext(ctx).Create(challenge).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateName
		}
		return err
	}
	return nil
}

func (r *challengeRepository) GetByID(ctx context.Context, id uint) (models.Challenge, error) {
	var challenge models.Challenge
	if err := r.baseQuery(ctx).First(&challenge, id).Error; err != nil {
		return models.Challenge{}, err
	}
	return challenge, nil
}

func (r *challengeRepository) List(ctx context.Context, filter ChallengeFilter) ([]models.Challenge, error) {
	query := r.baseQuery(ctx)

	if filter.VisibleOnly {
		query = query.Where("is_visible = ?", true)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Difficulty != "" {
		query = query.Where("difficulty = ?", filter.Difficulty)
	}

	var challenges []models.Challenge
	if err := query.Order("points ASC, id ASC").Find(&challenges).Error; err != nil {
		return nil, err
	}
	return challenges, nil
}

func (r *challengeRepository) Update(ctx context.Context, challenge *models.Challenge) error {
	err := r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: false}).
		Omit("Hints", "Files", "Solves", "CreatedBy").
		Save(challenge).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateName
	}
	return err
}

func (r *challengeRepository) ReplaceHints(ctx context.Context, challengeID uint, hints []models.Hint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("challenge_id = ?", challengeID).Delete(&models.Hint{}).Error; err != nil {
			return err
		}
		if len(hints) == 0 {
			return nil
		}
		for i := range hints {
			hints[i].ID = 0
			hints[i].ChallengeID = challengeID
			hints[i].Position = i
		}
		return tx.Create(&hints).Error
	})
}

func (r *challengeRepository) ReplaceFiles(ctx context.Context, challengeID uint, files []models.ChallengeFile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("challenge_id = ?", challengeID).Delete(&models.ChallengeFile{}).Error; err != nil {
			return err
		}
		if len(files) == 0 {
			return nil
		}
		for i := range files {
			files[i].ID = 0
			files[i].ChallengeID = challengeID
			files[i].Position = i
		}
		return tx.Create(&files).Error
	})
}

func (r *challengeRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Challenge{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AppendSolve inserts the solve row. The composite unique index on
// (challenge_id, user_id) makes this the single authority on "already
// solved": of two concurrent inserts exactly one succeeds.
func (r *challengeRepository) AppendSolve(ctx context.Context, challengeID, userID uint, solvedAt time.Time) error {
	solve := models.Solve{
		ChallengeID: challengeID,
		UserID:      userID,
		SolvedAt:    solvedAt,
	}
	if err := r.db.WithContext(ctx).Create(&solve).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrSolveExists
		}
		return err
	}
	return nil
}
