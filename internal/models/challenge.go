package models

import (
	"time"

	"gorm.io/datatypes"
)

// Category is the closed set of challenge categories.
type Category string

// Challenge categories. Both "crypto" and "cryptography" are accepted because
// historical records used either spelling.
const (
	CategoryWeb          Category = "web"
	CategoryCrypto       Category = "crypto"
	CategoryCryptography Category = "cryptography"
	CategoryForensics    Category = "forensics"
	CategoryPwn          Category = "pwn"
	CategoryReverse      Category = "reverse"
	CategoryMisc         Category = "misc"
	CategoryOSINT        Category = "osint"
)

// Difficulty is the closed set of challenge difficulty ratings.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyInsane Difficulty = "insane"
)

// ValidCategory reports whether the value is a known category.
func ValidCategory(value string) bool {
	switch Category(value) {
	case CategoryWeb, CategoryCrypto, CategoryCryptography, CategoryForensics,
		CategoryPwn, CategoryReverse, CategoryMisc, CategoryOSINT:
		return true
	}
	return false
}

// ValidDifficulty reports whether the value is a known difficulty.
func ValidDifficulty(value string) bool {
	switch Difficulty(value) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyInsane:
		return true
	}
	return false
}

// Challenge is a CTF challenge definition. FlagCipher and FlagIV are set
// together by the vault; a record without an IV stores a legacy plaintext
// flag. Neither field is ever serialized to API responses.
type Challenge struct {
	ID            uint                       `gorm:"primaryKey" json:"id"`
	Name          string                     `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Description   string                     `gorm:"type:text;not null" json:"description"`
	Category      Category                   `gorm:"size:32;not null;index" json:"category"`
	Points        int                        `gorm:"not null" json:"points"`
	Difficulty    Difficulty                 `gorm:"size:16;not null;default:medium;index" json:"difficulty"`
	FlagCipher    string                     `gorm:"column:flag;size:512;not null" json:"-"`
	FlagIV        string                     `gorm:"column:flag_iv;size:64" json:"-"`
	ChallengeLink string                     `gorm:"size:512" json:"challenge_link"`
	Tags          datatypes.JSONSlice[string] `gorm:"type:json" json:"tags"`
	// No column default on purpose: gorm skips zero-valued fields that
	// carry one on INSERT, which would flip created-hidden challenges to
	// visible. The service layer decides the default.
	IsVisible     bool                       `gorm:"not null;index" json:"is_visible"`
	CreatedByID   uint                       `gorm:"not null" json:"created_by_id"`
	CreatedBy     User                       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	Hints         []Hint                     `gorm:"constraint:OnDelete:CASCADE" json:"hints"`
	Files         []ChallengeFile            `gorm:"constraint:OnDelete:CASCADE" json:"files"`
	Solves        []Solve                    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt     time.Time                  `json:"created_at"`
	UpdatedAt     time.Time                  `json:"updated_at"`
}

// HasEncryptedFlag reports whether the stored flag went through the vault.
func (c Challenge) HasEncryptedFlag() bool {
	return c.FlagIV != ""
}

// SolvedBy reports whether the given user already solved this challenge.
// Relies on Solves being preloaded.
func (c Challenge) SolvedBy(userID uint) bool {
	for _, solve := range c.Solves {
		if solve.UserID == userID {
			return true
		}
	}
	return false
}

// Hint is an orderable paid hint attached to a challenge.
type Hint struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	ChallengeID uint   `gorm:"not null;index" json:"-"`
	Position    int    `gorm:"not null;default:0" json:"position"`
	Content     string `gorm:"type:text;not null" json:"content"`
	Cost        int    `gorm:"not null;default:0" json:"cost"`
}

// ChallengeFile is an attachment available to participants.
type ChallengeFile struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	ChallengeID uint   `gorm:"not null;index" json:"-"`
	Position    int    `gorm:"not null;default:0" json:"position"`
	Name        string `gorm:"size:255;not null" json:"name"`
	URL         string `gorm:"size:512;not null" json:"url"`
	Size        int64  `gorm:"not null;default:0" json:"size"`
}

// Solve records one user solving one challenge. The composite unique index
// makes the store, not the application, the authority on solve uniqueness:
// concurrent correct submissions race on this insert and only one wins.
type Solve struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ChallengeID uint      `gorm:"not null;uniqueIndex:idx_solve_challenge_user" json:"challenge_id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_solve_challenge_user" json:"user_id"`
	SolvedAt    time.Time `gorm:"not null" json:"solved_at"`
}
