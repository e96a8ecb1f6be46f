package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/flagforge/flagforge-api/internal/dto"
	"github.com/flagforge/flagforge-api/internal/models"
	"github.com/flagforge/flagforge-api/internal/repository"
	"github.com/flagforge/flagforge-api/internal/vault"
)

type challengeFixture struct {
	db     *gorm.DB
	svc    ChallengeService
	vault  *vault.Vault
	admin  models.User
	player models.User
}

func newChallengeFixture(t *testing.T) challengeFixture {
	t.Helper()

	db := newTestDB(t)
	v := newTestVault(t)

	admin := createTestUser(t, db, "admin", models.RoleElevated)
	player := createTestUser(t, db, "player", models.RoleStandard)

	svc := NewChallengeService(
		repository.NewChallengeRepository(db),
		repository.NewUserRepository(db),
		v,
		validator.New(validator.WithRequiredStructEnabled()),
		zerolog.Nop(),
	)

	return challengeFixture{db: db, svc: svc, vault: v, admin: admin, player: player}
}

func (fx challengeFixture) gate() dto.AdminGate {
	return dto.AdminGate{UserID: fx.admin.ID, AdminPassword: testPassword}
}

func (fx challengeFixture) createRequest(name string) dto.ChallengeCreateRequest {
	return dto.ChallengeCreateRequest{
		AdminGate:   fx.gate(),
		Name:        name,
		Description: "decode the message",
		Category:    "crypto",
		Points:      75,
		Flag:        "flag{c4es4r_c1ph3r_s0lv3d}",
		Difficulty:  "easy",
		Tags:        []string{"caesar", "classical"},
		Hints: []dto.HintPayload{
			{Content: "shift by three", Cost: 5},
		},
	}
}

func TestChallengeCreateEncryptsFlag(t *testing.T) {
	fx := newChallengeFixture(t)
	ctx := context.Background()

	created, err := fx.svc.Create(ctx, fx.createRequest("Caesar's Secret"))
	require.NoError(t, err)
	require.Equal(t, "Caesar's Secret", created.Name)
	require.Equal(t, 75, created.Points)
	require.Len(t, created.Hints, 1)

	var stored models.Challenge
	require.NoError(t, fx.db.First(&stored, created.ID).Error)
	require.NotEmpty(t, stored.FlagIV)
	require.NotEqual(t, "flag{c4es4r_c1ph3r_s0lv3d}", stored.FlagCipher)

	plaintext, err := fx.vault.Decrypt(stored.FlagCipher, stored.FlagIV)
	require.NoError(t, err)
	require.Equal(t, "flag{c4es4r_c1ph3r_s0lv3d}", plaintext)
}

func TestChallengeCreateAdminGate(t *testing.T) {
	fx := newChallengeFixture(t)
	ctx := context.Background()

	payload := fx.createRequest("Gated")
	payload.AdminGate = dto.AdminGate{UserID: fx.admin.ID, AdminPassword: "wrong-password"}
	_, err := fx.svc.Create(ctx, payload)
	require.ErrorIs(t, err, ErrUnauthorizedAdmin)

	payload.AdminGate = dto.AdminGate{UserID: fx.player.ID, AdminPassword: testPassword}
	_, err = fx.svc.Create(ctx, payload)
	require.ErrorIs(t, err, ErrForbidden)

	payload.AdminGate = dto.AdminGate{UserID: 9999, AdminPassword: testPassword}
	_, err = fx.svc.Create(ctx, payload)
	require.ErrorIs(t, err, ErrUnauthorizedAdmin)
}

func TestChallengeCreateValidation(t *testing.T) {
	fx := newChallengeFixture(t)
	ctx := context.Background()

	payload := fx.createRequest("Bad Category")
	payload.Category = "quantum"
	_, err := fx.svc.Create(ctx, payload)
	require.ErrorIs(t, err, ErrInvalidCategory)

	payload = fx.createRequest("Bad Difficulty")
	payload.Difficulty = "extreme"
	_, err = fx.svc.Create(ctx, payload)
	require.ErrorIs(t, err, ErrInvalidDifficulty)
}

func TestChallengeCreateDuplicateName(t *testing.T) {
	fx := newChallengeFixture(t)
	ctx := context.Background()

	_, err := fx.svc.Create(ctx, fx.createRequest("Unique Name"))
	require.NoError(t, err)

	_, err = fx.svc.Create(ctx, fx.createRequest("Unique Name"))
	require.ErrorIs(t, err, ErrDuplicateChallengeName)
}

func TestChallengeCreateSanitizesDescription(t *testing.T) {
	fx := newChallengeFixture(t)
	ctx := context.Background()

	payload := fx.createRequest("XSS Attempt")
	payload.Description = `decode this <script>alert("pwned")</script> message`

	created, err := fx.svc.Create(ctx, payload)
	require.NoError(t, err)
	require.NotContains(t, created.Description, "<script>")
	require.Contains(t, created.Description, "decode this")
}

func TestChallengeResponseNeverCarriesFlag(t *testing.T) {
	fx := newChallengeFixture(t)
	ctx := context.Background()

	created, err := fx.svc.Create(ctx, fx.createRequest("Secret Keeper"))
	require.NoError(t, err)

	fetched, err := fx.svc.Get(ctx, created.ID, fx.player.ID)
	require.NoError(t, err)
	require.NotContains(t, fetched.Description, "flag{c4es4r_c1ph3r_s0lv3d}")

	// The response type has no field that could carry the secret; make sure
	// the description did not absorb it either.
	require.Equal(t, "decode the message", fetched.Description)
}

func TestChallengeVisibilityForPlayers(t *testing.T) {
	fx := newChallengeFixture(t)
	ctx := context.Background()

	hidden := fx.createRequest("Hidden Gem")
	visible := false
	hidden.IsVisible = &visible

	created, err := fx.svc.Create(ctx, hidden)
	require.NoError(t, err)

	_, err = fx.svc.Get(ctx, created.ID, fx.player.ID)
	require.ErrorIs(t, err, ErrChallengeNotFound)

	_, err = fx.svc.Get(ctx, created.ID, fx.admin.ID)
	require.NoError(t, err)

	playerList, err := fx.svc.List(ctx, dto.ChallengeFilter{UserID: fx.player.ID, AsAdmin: true})
	require.NoError(t, err)
	require.Empty(t, playerList)

	adminList, err := fx.svc.List(ctx, dto.ChallengeFilter{UserID: fx.admin.ID, AsAdmin: true})
	require.NoError(t, err)
	require.Len(t, adminList, 1)
}

func TestChallengeListFiltersAndSolveState(t *testing.T) {
	fx := newChallengeFixture(t)
	ctx := context.Background()

	_, err := fx.svc.Create(ctx, fx.createRequest("Crypto One"))
	require.NoError(t, err)

	webPayload := fx.createRequest("Web One")
	webPayload.Category = "web"
	webPayload.Difficulty = "hard"
	web, err := fx.svc.Create(ctx, webPayload)
	require.NoError(t, err)

	repo := repository.NewChallengeRepository(fx.db)
	require.NoError(t, repo.AppendSolve(ctx, web.ID, fx.player.ID, fx.player.CreatedAt))

	all, err := fx.svc.List(ctx, dto.ChallengeFilter{UserID: fx.player.ID})
	require.NoError(t, err)
	require.Len(t, all, 2)

	webOnly, err := fx.svc.List(ctx, dto.ChallengeFilter{UserID: fx.player.ID, Category: "web"})
	require.NoError(t, err)
	require.Len(t, webOnly, 1)
	require.Equal(t, "Web One", webOnly[0].Name)
	require.True(t, webOnly[0].IsSolved)
	require.Equal(t, 1, webOnly[0].SolveCount)

	hardOnly, err := fx.svc.List(ctx, dto.ChallengeFilter{UserID: fx.player.ID, Difficulty: "hard"})
	require.NoError(t, err)
	require.Len(t, hardOnly, 1)

	_, err = fx.svc.List(ctx, dto.ChallengeFilter{UserID: 9999})
	require.ErrorIs(t, err, ErrInvalidUser)
}

func TestChallengeUpdatePartial(t *testing.T) {
	fx := newChallengeFixture(t)
	ctx := context.Background()

	created, err := fx.svc.Create(ctx, fx.createRequest("Mutable"))
	require.NoError(t, err)

	var before models.Challenge
	require.NoError(t, fx.db.First(&before, created.ID).Error)

	newPoints := 120
	updated, err := fx.svc.Update(ctx, created.ID, dto.ChallengeUpdateRequest{
		AdminGate: fx.gate(),
		Points:    &newPoints,
	})
	require.NoError(t, err)
	require.Equal(t, 120, updated.Points)
	require.Equal(t, "Mutable", updated.Name)

	// An empty flag leaves the stored ciphertext alone.
	var after models.Challenge
	require.NoError(t, fx.db.First(&after, created.ID).Error)
	require.Equal(t, before.FlagCipher, after.FlagCipher)
	require.Equal(t, before.FlagIV, after.FlagIV)
}

func TestChallengeUpdateReEncryptsNewFlag(t *testing.T) {
	fx := newChallengeFixture(t)
	ctx := context.Background()

	created, err := fx.svc.Create(ctx, fx.createRequest("Rotating"))
	require.NoError(t, err)

	var before models.Challenge
	require.NoError(t, fx.db.First(&before, created.ID).Error)

	_, err = fx.svc.Update(ctx, created.ID, dto.ChallengeUpdateRequest{
		AdminGate: fx.gate(),
		Flag:      "flag{rotated_secret}",
	})
	require.NoError(t, err)

	var after models.Challenge
	require.NoError(t, fx.db.First(&after, created.ID).Error)
	require.NotEqual(t, before.FlagCipher, after.FlagCipher)

	plaintext, err := fx.vault.Decrypt(after.FlagCipher, after.FlagIV)
	require.NoError(t, err)
	require.Equal(t, "flag{rotated_secret}", plaintext)
}

func TestChallengeUpdateReplacesHints(t *testing.T) {
	fx := newChallengeFixture(t)
	ctx := context.Background()

	created, err := fx.svc.Create(ctx, fx.createRequest("Hinted"))
	require.NoError(t, err)

	updated, err := fx.svc.Update(ctx, created.ID, dto.ChallengeUpdateRequest{
		AdminGate: fx.gate(),
		Hints: []dto.HintPayload{
			{Content: "first new hint", Cost: 10},
			{Content: "second new hint", Cost: 20},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Hints, 2)
	require.Equal(t, "first new hint", updated.Hints[0].Content)
}

func TestChallengeDelete(t *testing.T) {
	fx := newChallengeFixture(t)
	ctx := context.Background()

	created, err := fx.svc.Create(ctx, fx.createRequest("Doomed"))
	require.NoError(t, err)

	require.NoError(t, fx.svc.Delete(ctx, created.ID, fx.gate()))

	_, err = fx.svc.Get(ctx, created.ID, fx.admin.ID)
	require.ErrorIs(t, err, ErrChallengeNotFound)

	err = fx.svc.Delete(ctx, created.ID, fx.gate())
	require.ErrorIs(t, err, ErrChallengeNotFound)
}
