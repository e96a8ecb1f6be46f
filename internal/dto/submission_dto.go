package dto

import (
	"time"

	"github.com/flagforge/flagforge-api/internal/models"
)

// SubmitFlagRequest is the payload for a flag submission attempt.
type SubmitFlagRequest struct {
	ChallengeID uint   `json:"challengeId" validate:"required,gt=0"`
	UserID      uint   `json:"userId" validate:"required,gt=0"`
	Flag        string `json:"flag" validate:"required"`
}

// SubmitFlagResponse acknowledges a correct submission.
type SubmitFlagResponse struct {
	Message string `json:"message"`
	Points  int    `json:"points"`
}

// SubmissionResponse serializes one ledger row.
type SubmissionResponse struct {
	ID          uint      `json:"id"`
	UserID      uint      `json:"user_id"`
	ChallengeID uint      `json:"challenge_id"`
	Flag        string    `json:"flag"`
	IsCorrect   bool      `json:"is_correct"`
	Points      int       `json:"points"`
	IPAddress   string    `json:"ip_address"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// NewSubmissionResponse converts a ledger row into its API shape.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:          model.ID,
		UserID:      model.UserID,
		ChallengeID: model.ChallengeID,
		Flag:        model.Flag,
		IsCorrect:   model.IsCorrect,
		Points:      model.Points,
		IPAddress:   model.IPAddress,
		SubmittedAt: model.SubmittedAt,
	}
}
