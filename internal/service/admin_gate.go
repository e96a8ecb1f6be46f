package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/flagforge/flagforge-api/internal/models"
	"github.com/flagforge/flagforge-api/internal/repository"
)

// AdminVerifier re-checks elevated credentials for gated routes that live
// outside a single service, like attachment uploads.
type AdminVerifier interface {
	Verify(ctx context.Context, actorID uint, password string) (models.User, error)
}

type adminVerifier struct {
	users repository.UserRepository
}

// NewAdminVerifier constructs a standalone gate backed by the user store.
func NewAdminVerifier(users repository.UserRepository) AdminVerifier {
	return adminVerifier{users: users}
}

func (v adminVerifier) Verify(ctx context.Context, actorID uint, password string) (models.User, error) {
	return verifyAdmin(ctx, v.users, actorID, password)
}

// verifyAdmin enforces the administrative gate used by every destructive
// operation: the actor must exist, hold the elevated role and re-prove their
// password against the stored hash. Role failures and credential failures
// are reported separately so handlers can distinguish 401 from 403.
func verifyAdmin(ctx context.Context, users repository.UserRepository, actorID uint, password string) (models.User, error) {
	actor, err := users.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUnauthorizedAdmin
		}
		return models.User{}, err
	}

	if !actor.IsElevated() {
		return models.User{}, ErrForbidden
	}

	if err := bcrypt.CompareHashAndPassword([]byte(actor.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrUnauthorizedAdmin
	}

	return actor, nil
}
