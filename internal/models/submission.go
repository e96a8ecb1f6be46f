package models

import "time"

// Submission is one row of the append-only attempt ledger. Rows are written
// for every attempt, correct or not, and are never updated or deleted. The
// stored flag text is the sanitized form, never raw input.
type Submission struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index:idx_submission_user_time,priority:1" json:"user_id"`
	ChallengeID uint      `gorm:"not null;index:idx_submission_challenge_time,priority:1" json:"challenge_id"`
	Flag        string    `gorm:"size:128;not null" json:"flag"`
	IsCorrect   bool      `gorm:"not null;index" json:"is_correct"`
	Points      int       `gorm:"not null;default:0" json:"points"`
	IPAddress   string    `gorm:"size:45" json:"ip_address"`
	SubmittedAt time.Time `gorm:"not null;index:idx_submission_user_time,priority:2;index:idx_submission_challenge_time,priority:2" json:"submitted_at"`
}
