package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/flagforge/flagforge-api/internal/dto"
	"github.com/flagforge/flagforge-api/internal/models"
	"github.com/flagforge/flagforge-api/internal/observability"
	"github.com/flagforge/flagforge-api/internal/repository"
	"github.com/flagforge/flagforge-api/internal/vault"
)

var (
	// ErrMissingFields indicates a required submission field was absent.
	ErrMissingFields = errors.New("missing required fields")
	// ErrChallengeNotFound indicates the referenced challenge does not exist.
	ErrChallengeNotFound = errors.New("challenge not found")
	// ErrInvalidUser indicates the submitting user is unknown.
	ErrInvalidUser = errors.New("invalid user")
	// ErrAlreadySolved indicates this user already solved the challenge.
	ErrAlreadySolved = errors.New("challenge already solved")
	// ErrInvalidFlagFormat indicates the flag failed sanitization bounds.
	ErrInvalidFlagFormat = errors.New("invalid flag format")
	// ErrIncorrectFlag indicates the submitted flag did not match.
	ErrIncorrectFlag = errors.New("incorrect flag")
)

const maxFlagLength = 100

// SubmitResult reports a correct submission.
type SubmitResult struct {
	Points int
}

// ScoringService is the coordinator for flag submissions: it judges
// correctness, appends the attempt ledger and applies the solve plus score
// increment exactly once per (user, challenge).
type ScoringService interface {
	Submit(ctx context.Context, payload dto.SubmitFlagRequest, sourceIP string) (SubmitResult, error)
}

type scoringService struct {
	challenges  repository.ChallengeRepository
	submissions repository.SubmissionRepository
	users       repository.UserRepository
	vault       *vault.Vault
	feed        SolveFeed
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewScoringService constructs the scoring coordinator. feed may be nil when
// no live solve feed is configured.
func NewScoringService(
	challenges repository.ChallengeRepository,
	submissions repository.SubmissionRepository,
	users repository.UserRepository,
	flagVault *vault.Vault,
	feed SolveFeed,
	validate *validator.Validate,
	logger zerolog.Logger,
) ScoringService {
	return &scoringService{
		challenges:  challenges,
		submissions: submissions,
		users:       users,
		vault:       flagVault,
		feed:        feed,
		validator:   validate,
		logger:      logger.With().Str("component", "scoring_service").Logger(),
		tracer:      otel.Tracer("github.com/flagforge/flagforge-api/internal/service/scoring"),
		now:         time.Now,
	}
}

func (s *scoringService) Submit(ctx context.Context, payload dto.SubmitFlagRequest, sourceIP string) (SubmitResult, error) {
	ctx, span := s.tracer.Start(ctx, "scoring.submit")
	defer span.End()
	span.SetAttributes(
		attribute.Int("challenge.id", int(payload.ChallengeID)),
		attribute.Int("user.id", int(payload.UserID)),
	)

	start := s.now()
	defer func() {
		observability.ScoringLatency().Observe(time.Since(start).Seconds())
	}()

	outcome, result, err := s.submit(ctx, payload, sourceIP)
	span.SetAttributes(attribute.String("scoring.outcome", outcome))
	observability.Submissions().WithLabelValues(outcome).Inc()
	return result, err
}

func (s *scoringService) submit(ctx context.Context, payload dto.SubmitFlagRequest, sourceIP string) (string, SubmitResult, error) {
	if err := s.validator.Struct(payload); err != nil {
		return "input_error", SubmitResult{}, ErrMissingFields
	}

	challenge, err := s.challenges.GetByID(ctx, payload.ChallengeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "not_found", SubmitResult{}, ErrChallengeNotFound
		}
		return "error", SubmitResult{}, err
	}

	user, err := s.users.GetByID(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "unauthorized", SubmitResult{}, ErrInvalidUser
		}
		return "error", SubmitResult{}, err
	}

	// Fast path. The solve insert below is the authoritative check; this one
	// just avoids ledger noise from obvious repeats.
	if challenge.SolvedBy(user.ID) {
		return "already_solved", SubmitResult{}, ErrAlreadySolved
	}

	sanitized := SanitizeFlag(payload.Flag)
	if sanitized == "" || len(sanitized) > maxFlagLength {
		return "invalid_format", SubmitResult{}, ErrInvalidFlagFormat
	}

	correctFlag, flagAvailable := s.storedFlag(challenge)
	isCorrect := flagAvailable && sanitized == strings.TrimSpace(correctFlag)

	points := 0
	if isCorrect {
		points = challenge.Points
	}

	submission := models.Submission{
		UserID:      user.ID,
		ChallengeID: challenge.ID,
		Flag:        sanitized,
		IsCorrect:   isCorrect,
		Points:      points,
		IPAddress:   sourceIP,
		SubmittedAt: s.now(),
	}
	if err := s.submissions.Record(ctx, &submission); err != nil {
		return "error", SubmitResult{}, err
	}

	if !isCorrect {
		s.logger.Info().
			Uint("challenge_id", challenge.ID).
			Uint("user_id", user.ID).
			Str("submitted_flag", sanitized).
			Msg("incorrect flag attempt")
		return "incorrect", SubmitResult{}, ErrIncorrectFlag
	}

	solvedAt := s.now()
	if err := s.challenges.AppendSolve(ctx, challenge.ID, user.ID, solvedAt); err != nil {
		if errors.Is(err, repository.ErrSolveExists) {
			// Lost the race to a concurrent correct submission; that one
			// already took the score credit.
			return "already_solved", SubmitResult{}, ErrAlreadySolved
		}
		return "error", SubmitResult{}, err
	}

	if err := s.users.IncrementScore(ctx, user.ID, challenge.Points); err != nil {
		return "error", SubmitResult{}, err
	}

	s.logger.Info().
		Uint("challenge_id", challenge.ID).
		Uint("user_id", user.ID).
		Int("points", challenge.Points).
		Msg("challenge solved")

	if s.feed != nil {
		s.feed.PublishSolve(ctx, SolveEvent{
			ChallengeID:   challenge.ID,
			ChallengeName: challenge.Name,
			UserID:        user.ID,
			Username:      user.Username,
			Points:        challenge.Points,
			SolvedAt:      solvedAt,
		})
	}

	return "correct", SubmitResult{Points: challenge.Points}, nil
}

// storedFlag resolves the plaintext to compare against. A record without an
// IV predates encryption and stores the flag directly; a decryption failure
// is reported but forces correctness to false rather than failing the
// request.
func (s *scoringService) storedFlag(challenge models.Challenge) (string, bool) {
	if !challenge.HasEncryptedFlag() {
		return challenge.FlagCipher, challenge.FlagCipher != ""
	}

	plaintext, err := s.vault.Decrypt(challenge.FlagCipher, challenge.FlagIV)
	if err != nil {
		observability.VaultFailures().Inc()
		s.logger.Error().
			Err(err).
			Uint("challenge_id", challenge.ID).
			Msg("stored flag could not be decrypted; treating submission as incorrect")
		return "", false
	}
	return plaintext, true
}

// SanitizeFlag trims whitespace and strips every character outside
// [A-Za-z0-9_{}-]. Sanitization runs before comparison and before the ledger
// write so raw attacker input is never persisted.
func SanitizeFlag(input string) string {
	trimmed := strings.TrimSpace(input)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '_', r == '{', r == '}', r == '-':
			return r
		}
		return -1
	}, trimmed)
}
