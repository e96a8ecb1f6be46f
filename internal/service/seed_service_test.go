package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/flagforge/flagforge-api/internal/models"
	"github.com/flagforge/flagforge-api/internal/repository"
)

func TestSeedChallengesGuards(t *testing.T) {
	db := newTestDB(t)
	v := newTestVault(t)
	challenges := repository.NewChallengeRepository(db)
	users := repository.NewUserRepository(db)

	disabled := NewSeedService(challenges, users, v, false, "token", zerolog.Nop())
	_, err := disabled.SeedChallenges(context.Background(), "token")
	require.ErrorIs(t, err, ErrSeedDisabled)

	enabled := NewSeedService(challenges, users, v, true, "token", zerolog.Nop())
	_, err = enabled.SeedChallenges(context.Background(), "wrong")
	require.ErrorIs(t, err, ErrSeedUnauthorized)

	// An empty configured token never matches anything.
	tokenless := NewSeedService(challenges, users, v, true, "", zerolog.Nop())
	_, err = tokenless.SeedChallenges(context.Background(), "")
	require.ErrorIs(t, err, ErrSeedUnauthorized)

	// No elevated account to own the seeds.
	createTestUser(t, db, "player", models.RoleStandard)
	_, err = enabled.SeedChallenges(context.Background(), "token")
	require.ErrorIs(t, err, ErrNoAdminAccount)
}

func TestSeedChallenges(t *testing.T) {
	db := newTestDB(t)
	v := newTestVault(t)
	ctx := context.Background()

	admin := createTestUser(t, db, "admin", models.RoleElevated)

	svc := NewSeedService(
		repository.NewChallengeRepository(db),
		repository.NewUserRepository(db),
		v,
		true,
		"token",
		zerolog.Nop(),
	)

	result, err := svc.SeedChallenges(ctx, "token")
	require.NoError(t, err)
	require.Len(t, result.Created, len(sampleChallenges))
	require.Empty(t, result.Skipped)

	var caesar models.Challenge
	require.NoError(t, db.Preload("Hints").Where("name = ?", "Caesar's Secret").First(&caesar).Error)
	require.Equal(t, 75, caesar.Points)
	require.Equal(t, models.CategoryCrypto, caesar.Category)
	require.Equal(t, admin.ID, caesar.CreatedByID)
	require.Len(t, caesar.Hints, 2)

	// Flags are stored encrypted, never in the clear.
	require.NotEmpty(t, caesar.FlagIV)
	require.NotEqual(t, "flag{c4es4r_c1ph3r_s0lv3d}", caesar.FlagCipher)
	plaintext, err := v.Decrypt(caesar.FlagCipher, caesar.FlagIV)
	require.NoError(t, err)
	require.Equal(t, "flag{c4es4r_c1ph3r_s0lv3d}", plaintext)

	// Re-running skips every existing name.
	second, err := svc.SeedChallenges(ctx, "token")
	require.NoError(t, err)
	require.Empty(t, second.Created)
	require.Len(t, second.Skipped, len(sampleChallenges))

	var count int64
	require.NoError(t, db.Model(&models.Challenge{}).Count(&count).Error)
	require.Equal(t, int64(len(sampleChallenges)), count)
}
