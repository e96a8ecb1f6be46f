package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/flagforge/flagforge-api/internal/dto"
	"github.com/flagforge/flagforge-api/internal/models"
	"github.com/flagforge/flagforge-api/internal/repository"
)

const (
	defaultProgressHours = 24
	defaultProgressLimit = 10
	maxProgressHours     = 24 * 14
	maxProgressLimit     = 50
)

// seriesPalette is cycled by rank index so each plotted user keeps a stable
// color within one response.
var seriesPalette = []string{
	"#8b5cf6", "#06b6d4", "#10b981", "#f59e0b", "#ef4444",
	"#ec4899", "#84cc16", "#6366f1", "#f97316", "#14b8a6",
}

// LeaderboardService derives ranked standings and time-bucketed cumulative
// score series from the submission ledger. Read-only; slightly stale results
// are acceptable and served from cache.
type LeaderboardService interface {
	Progress(ctx context.Context, hours, limit int) (dto.ProgressResponse, error)
	TopUsers(ctx context.Context, limit int) ([]dto.UserResponse, error)
}

type leaderboardService struct {
	users       repository.UserRepository
	submissions repository.SubmissionRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewLeaderboardService builds the aggregator. cache may be nil, which
// disables caching.
func NewLeaderboardService(
	users repository.UserRepository,
	submissions repository.SubmissionRepository,
	cache *redis.Client,
	ttl time.Duration,
	logger zerolog.Logger,
) LeaderboardService {
	return &leaderboardService{
		users:       users,
		submissions: submissions,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "leaderboard_service").Logger(),
		now:         time.Now,
	}
}

func (s *leaderboardService) Progress(ctx context.Context, hours, limit int) (dto.ProgressResponse, error) {
	if hours <= 0 {
		hours = defaultProgressHours
	}
	if hours > maxProgressHours {
		hours = maxProgressHours
	}
	if limit <= 0 {
		limit = defaultProgressLimit
	}
	if limit > maxProgressLimit {
		limit = maxProgressLimit
	}

	cacheKey := fmt.Sprintf("leaderboard:progress:%d:%d", hours, limit)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.ProgressResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Str("key", cacheKey).Msg("progress cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read progress cache")
		}
	}

	// UTC keeps the response identical across the JSON cache round-trip.
	endTime := s.now().UTC()
	startTime := endTime.Add(-time.Duration(hours) * time.Hour)

	topUsers, err := s.users.TopByScore(ctx, limit)
	if err != nil {
		return dto.ProgressResponse{}, err
	}

	response := dto.ProgressResponse{
		ProgressData: []dto.UserProgress{},
		TimeRange:    dto.TimeRange{Start: startTime, End: endTime, Hours: hours},
	}

	if len(topUsers) == 0 {
		return response, nil
	}

	userIDs := make([]uint, 0, len(topUsers))
	for _, user := range topUsers {
		userIDs = append(userIDs, user.ID)
	}

	submissions, err := s.submissions.ListCorrectInWindow(ctx, userIDs, startTime, endTime)
	if err != nil {
		return dto.ProgressResponse{}, err
	}

	checkpoints := buildCheckpoints(startTime, hours)
	response.ProgressData = buildSeries(topUsers, submissions, checkpoints)

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store progress cache")
			}
		}
	}

	return response, nil
}

// TopUsers is the plain ranking used by the public leaderboard page. Unlike
// Progress it retains users without recent solves.
func (s *leaderboardService) TopUsers(ctx context.Context, limit int) ([]dto.UserResponse, error) {
	if limit <= 0 {
		limit = 50
	}

	users, err := s.users.TopByScore(ctx, limit)
	if err != nil {
		return nil, err
	}

	return dto.NewUserResponseSlice(users), nil
}

type checkpoint struct {
	at    time.Time
	label string
}

// buildCheckpoints produces hours+1 evenly spaced instants covering the
// window inclusive of both endpoints.
func buildCheckpoints(start time.Time, hours int) []checkpoint {
	checkpoints := make([]checkpoint, 0, hours+1)
	for i := 0; i <= hours; i++ {
		at := start.Add(time.Duration(i) * time.Hour)
		checkpoints = append(checkpoints, checkpoint{
			at:    at,
			label: at.Format("15:04"),
		})
	}
	return checkpoints
}

// buildSeries computes each user's cumulative correct-submission points at
// every checkpoint. Users whose whole series is zero are dropped from the
// plotted data while keeping their rank-based color assignment.
func buildSeries(topUsers []models.User, submissions []models.Submission, checkpoints []checkpoint) []dto.UserProgress {
	byUser := make(map[uint][]models.Submission, len(topUsers))
	for _, submission := range submissions {
		byUser[submission.UserID] = append(byUser[submission.UserID], submission)
	}

	series := make([]dto.UserProgress, 0, len(topUsers))
	for rank, user := range topUsers {
		userSubmissions := byUser[user.ID]

		points := make([]dto.ProgressPoint, 0, len(checkpoints))
		active := false
		cumulative := 0
		next := 0
		for _, cp := range checkpoints {
			// Submissions arrive ordered by timestamp, so a single cursor
			// accumulates each user's step function.
			for next < len(userSubmissions) && !userSubmissions[next].SubmittedAt.After(cp.at) {
				cumulative += userSubmissions[next].Points
				next++
			}
			if cumulative > 0 {
				active = true
			}
			points = append(points, dto.ProgressPoint{
				Time:      cp.label,
				Score:     cumulative,
				Timestamp: cp.at,
			})
		}

		if !active {
			continue
		}

		series = append(series, dto.UserProgress{
			UserID:       user.ID,
			Username:     user.Username,
			CurrentScore: user.Score,
			Color:        seriesPalette[rank%len(seriesPalette)],
			Points:       points,
		})
	}

	return series
}
