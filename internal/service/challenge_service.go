package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/flagforge/flagforge-api/internal/dto"
	"github.com/flagforge/flagforge-api/internal/models"
	"github.com/flagforge/flagforge-api/internal/repository"
	"github.com/flagforge/flagforge-api/internal/vault"
)

var (
	// ErrUnauthorizedAdmin indicates an unknown admin or a bad re-entered password.
	ErrUnauthorizedAdmin = errors.New("invalid admin credentials")
	// ErrForbidden indicates the account lacks the elevated role.
	ErrForbidden = errors.New("sudo access required")
	// ErrDuplicateChallengeName indicates the challenge name is taken.
	ErrDuplicateChallengeName = errors.New("challenge name already exists")
	// ErrInvalidCategory indicates an unknown challenge category.
	ErrInvalidCategory = errors.New("invalid challenge category")
	// ErrInvalidDifficulty indicates an unknown difficulty rating.
	ErrInvalidDifficulty = errors.New("invalid challenge difficulty")
)

// ChallengeService manages challenge definitions. Flags are encrypted on the
// way in and never leave the service in any shape.
type ChallengeService interface {
	Create(ctx context.Context, payload dto.ChallengeCreateRequest) (dto.ChallengeResponse, error)
	Get(ctx context.Context, id, viewerID uint) (dto.ChallengeResponse, error)
	List(ctx context.Context, filter dto.ChallengeFilter) ([]dto.ChallengeResponse, error)
	Update(ctx context.Context, id uint, payload dto.ChallengeUpdateRequest) (dto.ChallengeResponse, error)
	Delete(ctx context.Context, id uint, gate dto.AdminGate) error
}

type challengeService struct {
	challenges repository.ChallengeRepository
	users      repository.UserRepository
	vault      *vault.Vault
	validator  *validator.Validate
	sanitizer  *bluemonday.Policy
	logger     zerolog.Logger
}

// NewChallengeService constructs the challenge service.
func NewChallengeService(
	challenges repository.ChallengeRepository,
	users repository.UserRepository,
	flagVault *vault.Vault,
	validate *validator.Validate,
	logger zerolog.Logger,
) ChallengeService {
	return &challengeService{
		challenges: challenges,
		users:      users,
		vault:      flagVault,
		validator:  validate,
		sanitizer:  bluemonday.UGCPolicy(),
		logger:     logger.With().Str("component", "challenge_service").Logger(),
	}
}

func (s *challengeService) authorizeAdmin(ctx context.Context, gate dto.AdminGate) (models.User, error) {
	return verifyAdmin(ctx, s.users, gate.UserID, gate.AdminPassword)
}

func (s *challengeService) Create(ctx context.Context, payload dto.ChallengeCreateRequest) (dto.ChallengeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ChallengeResponse{}, err
	}

	actor, err := s.authorizeAdmin(ctx, payload.AdminGate)
	if err != nil {
		return dto.ChallengeResponse{}, err
	}

	if !models.ValidCategory(payload.Category) {
		return dto.ChallengeResponse{}, ErrInvalidCategory
	}

	difficulty := payload.Difficulty
	if difficulty == "" {
		difficulty = string(models.DifficultyMedium)
	}
	if !models.ValidDifficulty(difficulty) {
		return dto.ChallengeResponse{}, ErrInvalidDifficulty
	}

	ciphertext, iv, err := s.vault.Encrypt(strings.TrimSpace(payload.Flag))
	if err != nil {
		return dto.ChallengeResponse{}, err
	}

	visible := true
	if payload.IsVisible != nil {
		visible = *payload.IsVisible
	}

	challenge := models.Challenge{
		Name:          strings.TrimSpace(payload.Name),
		Description:   s.sanitizer.Sanitize(payload.Description),
		Category:      models.Category(payload.Category),
		Points:        payload.Points,
		Difficulty:    models.Difficulty(difficulty),
		FlagCipher:    ciphertext,
		FlagIV:        iv,
		ChallengeLink: payload.ChallengeLink,
		Tags:          payload.Tags,
		IsVisible:     visible,
		CreatedByID:   actor.ID,
		Hints:         buildHints(payload.Hints),
		Files:         buildFiles(payload.Files),
	}

	if err := s.challenges.Create(ctx, &challenge); err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			return dto.ChallengeResponse{}, ErrDuplicateChallengeName
		}
		return dto.ChallengeResponse{}, err
	}

	s.logger.Info().
		Uint("challenge_id", challenge.ID).
		Str("name", challenge.Name).
		Uint("created_by", actor.ID).
		Msg("challenge created")

	created, err := s.challenges.GetByID(ctx, challenge.ID)
	if err != nil {
		return dto.ChallengeResponse{}, err
	}

	return dto.NewChallengeResponse(created, 0), nil
}

func (s *challengeService) Get(ctx context.Context, id, viewerID uint) (dto.ChallengeResponse, error) {
	viewer, err := s.users.GetByID(ctx, viewerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ChallengeResponse{}, ErrInvalidUser
		}
		return dto.ChallengeResponse{}, err
	}

	challenge, err := s.challenges.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ChallengeResponse{}, ErrChallengeNotFound
		}
		return dto.ChallengeResponse{}, err
	}

	// Hidden challenges do not exist as far as regular participants know.
	if !challenge.IsVisible && !viewer.IsElevated() {
		return dto.ChallengeResponse{}, ErrChallengeNotFound
	}

	return dto.NewChallengeResponse(challenge, viewer.ID), nil
}

func (s *challengeService) List(ctx context.Context, filter dto.ChallengeFilter) ([]dto.ChallengeResponse, error) {
	viewer, err := s.users.GetByID(ctx, filter.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidUser
		}
		return nil, err
	}

	repoFilter := repository.ChallengeFilter{
		Category:    filter.Category,
		Difficulty:  filter.Difficulty,
		VisibleOnly: !(filter.AsAdmin && viewer.IsElevated()),
	}

	challenges, err := s.challenges.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	return dto.NewChallengeResponseSlice(challenges, viewer.ID), nil
}

func (s *challengeService) Update(ctx context.Context, id uint, payload dto.ChallengeUpdateRequest) (dto.ChallengeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ChallengeResponse{}, err
	}

	if _, err := s.authorizeAdmin(ctx, payload.AdminGate); err != nil {
		return dto.ChallengeResponse{}, err
	}

	challenge, err := s.challenges.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ChallengeResponse{}, ErrChallengeNotFound
		}
		return dto.ChallengeResponse{}, err
	}

	if payload.Name != nil {
		challenge.Name = strings.TrimSpace(*payload.Name)
	}
	if payload.Description != nil {
		challenge.Description = s.sanitizer.Sanitize(*payload.Description)
	}
	if payload.Category != nil {
		if !models.ValidCategory(*payload.Category) {
			return dto.ChallengeResponse{}, ErrInvalidCategory
		}
		challenge.Category = models.Category(*payload.Category)
	}
	if payload.Points != nil {
		challenge.Points = *payload.Points
	}
	if payload.Difficulty != nil {
		if !models.ValidDifficulty(*payload.Difficulty) {
			return dto.ChallengeResponse{}, ErrInvalidDifficulty
		}
		challenge.Difficulty = models.Difficulty(*payload.Difficulty)
	}
	if payload.ChallengeLink != nil {
		challenge.ChallengeLink = *payload.ChallengeLink
	}
	if payload.Tags != nil {
		challenge.Tags = payload.Tags
	}
	if payload.IsVisible != nil {
		challenge.IsVisible = *payload.IsVisible
	}

	// An empty flag means "keep the stored secret"; only a new plaintext
	// triggers re-encryption.
	if trimmed := strings.TrimSpace(payload.Flag); trimmed != "" {
		ciphertext, iv, err := s.vault.Encrypt(trimmed)
		if err != nil {
			return dto.ChallengeResponse{}, err
		}
		challenge.FlagCipher = ciphertext
		challenge.FlagIV = iv
	}

	if err := s.challenges.Update(ctx, &challenge); err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			return dto.ChallengeResponse{}, ErrDuplicateChallengeName
		}
		return dto.ChallengeResponse{}, err
	}

	if payload.Hints != nil {
		if err := s.challenges.ReplaceHints(ctx, challenge.ID, buildHints(payload.Hints)); err != nil {
			return dto.ChallengeResponse{}, err
		}
	}
	if payload.Files != nil {
		if err := s.challenges.ReplaceFiles(ctx, challenge.ID, buildFiles(payload.Files)); err != nil {
			return dto.ChallengeResponse{}, err
		}
	}

	updated, err := s.challenges.GetByID(ctx, challenge.ID)
	if err != nil {
		return dto.ChallengeResponse{}, err
	}

	s.logger.Info().Uint("challenge_id", challenge.ID).Msg("challenge updated")

	return dto.NewChallengeResponse(updated, 0), nil
}

func (s *challengeService) Delete(ctx context.Context, id uint, gate dto.AdminGate) error {
	if err := s.validator.Struct(gate); err != nil {
		return err
	}

	if _, err := s.authorizeAdmin(ctx, gate); err != nil {
		return err
	}

	if err := s.challenges.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrChallengeNotFound
		}
		return err
	}

	s.logger.Info().Uint("challenge_id", id).Msg("challenge deleted")

	return nil
}

func buildHints(payloads []dto.HintPayload) []models.Hint {
	hints := make([]models.Hint, 0, len(payloads))
	for i, hint := range payloads {
		hints = append(hints, models.Hint{
			Position: i,
			Content:  hint.Content,
			Cost:     hint.Cost,
		})
	}
	return hints
}

func buildFiles(payloads []dto.FilePayload) []models.ChallengeFile {
	files := make([]models.ChallengeFile, 0, len(payloads))
	for i, file := range payloads {
		files = append(files, models.ChallengeFile{
			Position: i,
			Name:     file.Name,
			URL:      file.URL,
			Size:     file.Size,
		})
	}
	return files
}
