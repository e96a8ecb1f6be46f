package dto

import "time"

// ProgressPoint is one checkpoint in a user's cumulative score series.
type ProgressPoint struct {
	Time      string    `json:"time"`
	Score     int       `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

// UserProgress is one user's series in the leaderboard progress graph.
type UserProgress struct {
	UserID       uint            `json:"userId"`
	Username     string          `json:"username"`
	CurrentScore int             `json:"currentScore"`
	Color        string          `json:"color"`
	Points       []ProgressPoint `json:"points"`
}

// TimeRange describes the window the progress data covers.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Hours int       `json:"hours"`
}

// ProgressResponse is the leaderboard progress payload.
type ProgressResponse struct {
	ProgressData []UserProgress `json:"progressData"`
	TimeRange    TimeRange      `json:"timeRange"`
}
