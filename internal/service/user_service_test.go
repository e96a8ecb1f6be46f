package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/flagforge/flagforge-api/internal/dto"
	"github.com/flagforge/flagforge-api/internal/models"
	"github.com/flagforge/flagforge-api/internal/repository"
)

func newUserServiceFixture(t *testing.T) (UserService, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	leaderboard := NewLeaderboardService(
		userRepo,
		repository.NewSubmissionRepository(db),
		nil,
		time.Minute,
		zerolog.Nop(),
	)
	svc := NewUserService(userRepo, leaderboard, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
	return svc, db
}

func TestRegisterDerivesUsername(t *testing.T) {
	svc, db := newUserServiceFixture(t)
	ctx := context.Background()

	// Institutional addresses expose the roll number after the dot.
	user, err := svc.Register(ctx, dto.RegisterRequest{
		Email:    "Jane.21bcs042@college.edu",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	require.Equal(t, "21BCS042", user.Username)
	require.Equal(t, "jane.21bcs042@college.edu", user.Email)
	require.Equal(t, string(models.RoleStandard), user.Role)
	require.Zero(t, user.Score)

	// Plain addresses fall back to the local part.
	user, err = svc.Register(ctx, dto.RegisterRequest{
		Email:    "solo@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	require.Equal(t, "solo", user.Username)

	// The stored hash is never the raw password.
	var stored models.User
	require.NoError(t, db.Where("email = ?", "solo@example.com").First(&stored).Error)
	require.NotEqual(t, "hunter2hunter2", stored.PasswordHash)
	require.NotEmpty(t, stored.PasswordHash)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newUserServiceFixture(t)
	ctx := context.Background()

	payload := dto.RegisterRequest{Email: "dup@example.com", Password: "hunter2hunter2"}
	_, err := svc.Register(ctx, payload)
	require.NoError(t, err)

	_, err = svc.Register(ctx, payload)
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newUserServiceFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, dto.RegisterRequest{Email: "not-an-email", Password: "hunter2hunter2"})
	require.Error(t, err)

	_, err = svc.Register(ctx, dto.RegisterRequest{Email: "short@example.com", Password: "short"})
	require.Error(t, err)
}

func TestLogin(t *testing.T) {
	svc, _ := newUserServiceFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, dto.RegisterRequest{Email: "login@example.com", Password: "hunter2hunter2"})
	require.NoError(t, err)

	user, err := svc.Login(ctx, dto.LoginRequest{Email: "Login@Example.com", Password: "hunter2hunter2"})
	require.NoError(t, err)
	require.Equal(t, "login@example.com", user.Email)

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "login@example.com", Password: "wrong-password"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown accounts and bad passwords are indistinguishable.
	_, err = svc.Login(ctx, dto.LoginRequest{Email: "ghost@example.com", Password: "hunter2hunter2"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserListAdminVersusPublic(t *testing.T) {
	svc, db := newUserServiceFixture(t)
	ctx := context.Background()

	for _, seed := range []struct {
		name  string
		score int
	}{
		{"alpha", 50},
		{"beta", 150},
		{"gamma", 0},
	} {
		user := createTestUser(t, db, seed.name, models.RoleStandard)
		require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Update("score", seed.score).Error)
	}

	adminView, err := svc.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, adminView, 3)

	publicView, err := svc.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, publicView, 3)
	require.Equal(t, "beta", publicView[0].Username)
	require.Equal(t, "alpha", publicView[1].Username)
}

func TestAdminUpdateUser(t *testing.T) {
	svc, db := newUserServiceFixture(t)
	ctx := context.Background()

	admin := createTestUser(t, db, "admin", models.RoleElevated)
	target := createTestUser(t, db, "target", models.RoleStandard)

	newName := "renamed"
	newScore := 500
	updated, err := svc.AdminUpdate(ctx, target.ID, dto.UserUpdateRequest{
		AdminID:       admin.ID,
		AdminPassword: testPassword,
		Username:      &newName,
		Score:         &newScore,
	})
	require.NoError(t, err)
	require.Equal(t, "renamed", updated.Username)
	require.Equal(t, 500, updated.Score)

	_, err = svc.AdminUpdate(ctx, target.ID, dto.UserUpdateRequest{
		AdminID:       admin.ID,
		AdminPassword: "wrong-password",
		Username:      &newName,
	})
	require.ErrorIs(t, err, ErrUnauthorizedAdmin)

	_, err = svc.AdminUpdate(ctx, target.ID, dto.UserUpdateRequest{
		AdminID:       target.ID,
		AdminPassword: testPassword,
		Username:      &newName,
	})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.AdminUpdate(ctx, 9999, dto.UserUpdateRequest{
		AdminID:       admin.ID,
		AdminPassword: testPassword,
		Username:      &newName,
	})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestAdminDeleteUser(t *testing.T) {
	svc, db := newUserServiceFixture(t)
	ctx := context.Background()

	admin := createTestUser(t, db, "admin", models.RoleElevated)
	target := createTestUser(t, db, "target", models.RoleStandard)

	require.NoError(t, svc.AdminDelete(ctx, target.ID, dto.UserDeleteRequest{
		AdminID:       admin.ID,
		AdminPassword: testPassword,
	}))

	_, err := svc.Get(ctx, target.ID)
	require.ErrorIs(t, err, ErrUserNotFound)

	err = svc.AdminDelete(ctx, target.ID, dto.UserDeleteRequest{
		AdminID:       admin.ID,
		AdminPassword: testPassword,
	})
	require.ErrorIs(t, err, ErrUserNotFound)
}
