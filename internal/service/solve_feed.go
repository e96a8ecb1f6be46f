package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// SolveEvent is broadcast whenever a challenge is solved.
type SolveEvent struct {
	ChallengeID   uint      `json:"challengeId"`
	ChallengeName string    `json:"challengeName"`
	UserID        uint      `json:"userId"`
	Username      string    `json:"username"`
	Points        int       `json:"points"`
	SolvedAt      time.Time `json:"solvedAt"`
}

// SolveFeed publishes solve events for live scoreboard consumers.
type SolveFeed interface {
	PublishSolve(ctx context.Context, event SolveEvent)
}

type natsSolveFeed struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewSolveFeed wraps a NATS connection as a best-effort solve feed. A nil
// connection yields a feed that drops every event.
func NewSolveFeed(conn *nats.Conn, subject string, logger zerolog.Logger) SolveFeed {
	return &natsSolveFeed{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "solve_feed").Logger(),
	}
}

// PublishSolve serialises and publishes the event. Failures are logged and
// swallowed: the feed must never affect scoring.
func (f *natsSolveFeed) PublishSolve(_ context.Context, event SolveEvent) {
	if f.conn == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		f.logger.Warn().Err(err).Msg("failed to encode solve event")
		return
	}

	if err := f.conn.Publish(f.subject, payload); err != nil {
		f.logger.Warn().Err(err).Uint("challenge_id", event.ChallengeID).Msg("failed to publish solve event")
		return
	}

	f.logger.Debug().
		Uint("challenge_id", event.ChallengeID).
		Uint("user_id", event.UserID).
		Msg("solve event published")
}
