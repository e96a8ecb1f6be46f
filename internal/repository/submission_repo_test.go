package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flagforge/flagforge-api/internal/models"
)

func TestRecordDefaultsTimestamp(t *testing.T) {
	db := newTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	submission := models.Submission{UserID: 1, ChallengeID: 1, Flag: "flag{x}"}
	require.NoError(t, repo.Record(ctx, &submission))
	require.False(t, submission.SubmittedAt.IsZero())

	explicit := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	second := models.Submission{UserID: 1, ChallengeID: 1, Flag: "flag{y}", SubmittedAt: explicit}
	require.NoError(t, repo.Record(ctx, &second))
	require.Equal(t, explicit, second.SubmittedAt.UTC())
}

func TestListCorrectInWindow(t *testing.T) {
	db := newTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []models.Submission{
		{UserID: 1, ChallengeID: 1, Flag: "a", IsCorrect: true, Points: 100, SubmittedAt: base.Add(2 * time.Hour)},
		{UserID: 1, ChallengeID: 2, Flag: "b", IsCorrect: true, Points: 50, SubmittedAt: base.Add(1 * time.Hour)},
		{UserID: 1, ChallengeID: 3, Flag: "c", IsCorrect: false, Points: 0, SubmittedAt: base.Add(90 * time.Minute)},
		{UserID: 2, ChallengeID: 1, Flag: "d", IsCorrect: true, Points: 100, SubmittedAt: base.Add(3 * time.Hour)},
		{UserID: 1, ChallengeID: 4, Flag: "e", IsCorrect: true, Points: 25, SubmittedAt: base.Add(48 * time.Hour)},
	}
	for i := range rows {
		require.NoError(t, repo.Record(ctx, &rows[i]))
	}

	got, err := repo.ListCorrectInWindow(ctx, []uint{1}, base, base.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Ascending by timestamp, incorrect and out-of-window rows excluded.
	require.Equal(t, uint(2), got[0].ChallengeID)
	require.Equal(t, uint(1), got[1].ChallengeID)

	both, err := repo.ListCorrectInWindow(ctx, []uint{1, 2}, base, base.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, both, 3)

	none, err := repo.ListCorrectInWindow(ctx, nil, base, base.Add(24*time.Hour))
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestListByUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Record(ctx, &models.Submission{
			UserID:      1,
			ChallengeID: uint(i + 1),
			Flag:        "flag{x}",
			SubmittedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	got, err := repo.ListByUser(ctx, 1, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	// Newest first.
	require.Equal(t, uint(5), got[0].ChallengeID)
	require.Equal(t, uint(3), got[2].ChallengeID)
}
