package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/flagforge/flagforge-api/internal/dto"
	"github.com/flagforge/flagforge-api/internal/models"
	"github.com/flagforge/flagforge-api/internal/repository"
)

var (
	// ErrUserNotFound indicates the account does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials indicates a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const publicLeaderboardSize = 50

// rollNumberPattern matches institutional addresses of the form
// name.rollno@domain, from which the roll number becomes the username.
var rollNumberPattern = regexp.MustCompile(`^[a-zA-Z0-9]+\.([a-z0-9]+)@`)

// UserService manages accounts. Authentication stays a plain credential
// check on purpose: the surrounding app stores the profile client-side and
// no tokens are issued.
type UserService interface {
	Register(ctx context.Context, payload dto.RegisterRequest) (dto.UserResponse, error)
	Login(ctx context.Context, payload dto.LoginRequest) (dto.UserResponse, error)
	Get(ctx context.Context, id uint) (dto.UserResponse, error)
	List(ctx context.Context, asAdmin bool) ([]dto.UserResponse, error)
	AdminUpdate(ctx context.Context, id uint, payload dto.UserUpdateRequest) (dto.UserResponse, error)
	AdminDelete(ctx context.Context, id uint, payload dto.UserDeleteRequest) error
}

type userService struct {
	users       repository.UserRepository
	leaderboard LeaderboardService
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewUserService constructs the account service.
func NewUserService(users repository.UserRepository, leaderboard LeaderboardService, validate *validator.Validate, logger zerolog.Logger) UserService {
	return &userService{
		users:       users,
		leaderboard: leaderboard,
		validator:   validate,
		logger:      logger.With().Str("component", "user_service").Logger(),
	}
}

func (s *userService) Register(ctx context.Context, payload dto.RegisterRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return dto.UserResponse{}, err
	}

	role := models.RoleStandard
	if payload.Role != "" {
		role = models.Role(payload.Role)
	}

	user := models.User{
		Username:     usernameFromEmail(email),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}

	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return dto.UserResponse{}, ErrEmailTaken
		}
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Str("username", user.Username).Msg("user registered")

	return dto.NewUserResponse(user), nil
}

func (s *userService) Login(ctx context.Context, payload dto.LoginRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrInvalidCredentials
		}
		return dto.UserResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
		return dto.UserResponse{}, ErrInvalidCredentials
	}

	return dto.NewUserResponse(user), nil
}

func (s *userService) Get(ctx context.Context, id uint) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	return dto.NewUserResponse(user), nil
}

// List returns the full account listing for admins, and the public top-50
// leaderboard otherwise.
func (s *userService) List(ctx context.Context, asAdmin bool) ([]dto.UserResponse, error) {
	if asAdmin {
		users, err := s.users.List(ctx)
		if err != nil {
			return nil, err
		}
		return dto.NewUserResponseSlice(users), nil
	}

	return s.leaderboard.TopUsers(ctx, publicLeaderboardSize)
}

func (s *userService) AdminUpdate(ctx context.Context, id uint, payload dto.UserUpdateRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	if _, err := verifyAdmin(ctx, s.users, payload.AdminID, payload.AdminPassword); err != nil {
		return dto.UserResponse{}, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	if payload.Username != nil {
		user.Username = strings.TrimSpace(*payload.Username)
	}
	if payload.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*payload.Email))
	}
	if payload.Score != nil {
		user.Score = *payload.Score
	}
	if payload.Role != nil {
		user.Role = models.Role(*payload.Role)
	}
	if payload.IsVerified != nil {
		user.IsVerified = *payload.IsVerified
	}

	if err := s.users.Update(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return dto.UserResponse{}, ErrEmailTaken
		}
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Uint("admin_id", payload.AdminID).Msg("user updated by admin")

	return dto.NewUserResponse(user), nil
}

func (s *userService) AdminDelete(ctx context.Context, id uint, payload dto.UserDeleteRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	if _, err := verifyAdmin(ctx, s.users, payload.AdminID, payload.AdminPassword); err != nil {
		return err
	}

	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	s.logger.Info().Uint("user_id", id).Uint("admin_id", payload.AdminID).Msg("user deleted by admin")

	return nil
}

// usernameFromEmail derives the display name. Institutional addresses use
// the roll-number segment uppercased; anything else falls back to the local
// part.
func usernameFromEmail(email string) string {
	if match := rollNumberPattern.FindStringSubmatch(email); match != nil {
		return strings.ToUpper(match[1])
	}

	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}
