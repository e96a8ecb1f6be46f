package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/flagforge/flagforge-api/internal/handler"
	"github.com/flagforge/flagforge-api/internal/service"
	"github.com/flagforge/flagforge-api/internal/utils"
)

type stubSeedService struct {
	result service.SeedResult
	err    error
	token  string
}

func (s *stubSeedService) SeedChallenges(_ context.Context, token string) (service.SeedResult, error) {
	s.token = token
	return s.result, s.err
}

func newSeedApp(seeds service.SeedService) *fiber.App {
	app := fiber.New()
	h := handler.NewSeedHandler(seeds, zerolog.Nop())
	h.Register(app.Group("/api/v1/seed"))
	return app
}

func TestSeedChallengesEndpoint(t *testing.T) {
	stub := &stubSeedService{result: service.SeedResult{Created: []string{"Caesar's Secret"}, Skipped: []string{}}}
	app := newSeedApp(stub)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/seed/challenges", nil)
	req.Header.Set("X-Seed-Token", "sesame")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "sesame", stub.token)

	var body utils.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.True(t, body.Success)
}

func TestSeedChallengesRejections(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"disabled", service.ErrSeedDisabled, http.StatusForbidden},
		{"bad token", service.ErrSeedUnauthorized, http.StatusForbidden},
		{"no admin", service.ErrNoAdminAccount, http.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newSeedApp(&stubSeedService{err: tc.err})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/seed/challenges", nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
