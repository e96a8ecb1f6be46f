package dto

import (
	"time"

	"github.com/flagforge/flagforge-api/internal/models"
)

// HintPayload describes a paid hint supplied when creating or updating a challenge.
type HintPayload struct {
	Content string `json:"content" validate:"required"`
	Cost    int    `json:"cost" validate:"gte=0"`
}

// FilePayload describes an attachment reference supplied by the admin UI
// after a successful upload.
type FilePayload struct {
	Name string `json:"name" validate:"required"`
	URL  string `json:"url" validate:"required"`
	Size int64  `json:"size" validate:"gte=0"`
}

// AdminGate carries the credentials re-entered by an elevated user for
// destructive operations.
type AdminGate struct {
	UserID        uint   `json:"userId" validate:"required,gt=0"`
	AdminPassword string `json:"adminPassword" validate:"required"`
}

// ChallengeCreateRequest is the payload for creating a challenge. The flag
// arrives in plaintext exactly once and is encrypted before persistence.
type ChallengeCreateRequest struct {
	AdminGate
	Name          string        `json:"name" validate:"required,max=255"`
	Description   string        `json:"description" validate:"required"`
	Category      string        `json:"category" validate:"required"`
	Points        int           `json:"points" validate:"required,gt=0"`
	Flag          string        `json:"flag" validate:"required"`
	Difficulty    string        `json:"difficulty" validate:"omitempty"`
	ChallengeLink string        `json:"challengeLink"`
	Tags          []string      `json:"tags"`
	Hints         []HintPayload `json:"hints" validate:"dive"`
	Files         []FilePayload `json:"files" validate:"dive"`
	IsVisible     *bool         `json:"isVisible"`
}

// ChallengeUpdateRequest is a partial update. An absent or empty flag leaves
// the stored ciphertext untouched; a non-empty flag triggers re-encryption.
type ChallengeUpdateRequest struct {
	AdminGate
	Name          *string       `json:"name" validate:"omitempty,max=255"`
	Description   *string       `json:"description"`
	Category      *string       `json:"category"`
	Points        *int          `json:"points" validate:"omitempty,gt=0"`
	Flag          string        `json:"flag"`
	Difficulty    *string       `json:"difficulty"`
	ChallengeLink *string       `json:"challengeLink"`
	Tags          []string      `json:"tags"`
	Hints         []HintPayload `json:"hints" validate:"dive"`
	Files         []FilePayload `json:"files" validate:"dive"`
	IsVisible     *bool         `json:"isVisible"`
}

// ChallengeFilter narrows challenge listings.
type ChallengeFilter struct {
	UserID     uint
	Category   string
	Difficulty string
	AsAdmin    bool
}

// HintResponse serializes a hint.
type HintResponse struct {
	Content string `json:"content"`
	Cost    int    `json:"cost"`
}

// FileResponse serializes an attachment.
type FileResponse struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// ChallengeResponse is returned to API clients. It never carries the flag
// ciphertext or IV.
type ChallengeResponse struct {
	ID            uint           `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Category      string         `json:"category"`
	Points        int            `json:"points"`
	Difficulty    string         `json:"difficulty"`
	ChallengeLink string         `json:"challengeLink,omitempty"`
	Tags          []string       `json:"tags"`
	Hints         []HintResponse `json:"hints"`
	Files         []FileResponse `json:"files"`
	IsVisible     bool           `json:"isVisible"`
	CreatedBy     string         `json:"createdBy"`
	IsSolved      bool           `json:"isSolved"`
	SolveCount    int            `json:"solveCount"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// NewChallengeResponse converts a Challenge model into its API shape,
// deriving isSolved and solveCount instead of storing them.
func NewChallengeResponse(model models.Challenge, viewerID uint) ChallengeResponse {
	hints := make([]HintResponse, 0, len(model.Hints))
	for _, hint := range model.Hints {
		hints = append(hints, HintResponse{Content: hint.Content, Cost: hint.Cost})
	}

	files := make([]FileResponse, 0, len(model.Files))
	for _, file := range model.Files {
		files = append(files, FileResponse{Name: file.Name, URL: file.URL, Size: file.Size})
	}

	tags := make([]string, 0, len(model.Tags))
	tags = append(tags, model.Tags...)

	return ChallengeResponse{
		ID:            model.ID,
		Name:          model.Name,
		Description:   model.Description,
		Category:      string(model.Category),
		Points:        model.Points,
		Difficulty:    string(model.Difficulty),
		ChallengeLink: model.ChallengeLink,
		Tags:          tags,
		Hints:         hints,
		Files:         files,
		IsVisible:     model.IsVisible,
		CreatedBy:     model.CreatedBy.Username,
		IsSolved:      viewerID != 0 && model.SolvedBy(viewerID),
		SolveCount:    len(model.Solves),
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

// NewChallengeResponseSlice maps a slice of models.
func NewChallengeResponseSlice(items []models.Challenge, viewerID uint) []ChallengeResponse {
	responses := make([]ChallengeResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewChallengeResponse(item, viewerID))
	}
	return responses
}
