package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"gamelog/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newGameApp registers the game routes, with the admin routes behind the same
// Locals-injecting shim the other handler tests use.
func newGameApp(s *Server, adminID uint) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", adminID)
		return c.Next()
	})

	app.Get("/games", s.GetGames)
	app.Get("/games/:id", s.GetGame)
	app.Get("/games/:id/reviews", s.GetGameReviews)
	app.Post("/games", s.CreateGame)
	app.Delete("/games/:id", s.DeleteGame)
	app.Post("/games/:gameId/recompute-rating", s.RecomputeGameRating)

	return app
}

func TestGetGame_ByIDAndSlug(t *testing.T) {
	s, db := newTestServer(t)
	admin := seedHandlerUser(t, db, "admin")
	seedHandlerGame(t, db, "hollow-depths")
	app := newGameApp(s, admin.ID)

	for _, path := range []string{"/games/1", "/games/hollow-depths"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)

		var game models.Game
		decodeBody(t, resp, &game)
		assert.Equal(t, "hollow-depths", game.Slug)
	}

	for _, path := range []string{"/games/999", "/games/no-such-game"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestGetGames(t *testing.T) {
	s, db := newTestServer(t)
	admin := seedHandlerUser(t, db, "admin")
	for _, slug := range []string{"alpha", "beta", "gamma"} {
		seedHandlerGame(t, db, slug)
	}
	app := newGameApp(s, admin.ID)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/games", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Games []models.Game `json:"games"`
		Count int           `json:"count"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, 3, body.Count)
	assert.Len(t, body.Games, 3)
}

func TestCreateGame(t *testing.T) {
	s, db := newTestServer(t)
	admin := seedHandlerUser(t, db, "admin")
	app := newGameApp(s, admin.ID)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/games",
		`{"title":"Hollow Depths","slug":"hollow-depths","release_year":2025}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var game models.Game
	decodeBody(t, resp, &game)
	assert.Equal(t, "hollow-depths", game.Slug)
	assert.Equal(t, 2025, game.ReleaseYear)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"missing title", `{"slug":"other"}`, http.StatusBadRequest},
		{"invalid slug", `{"title":"Other","slug":"Not A Slug!"}`, http.StatusBadRequest},
		{"duplicate slug", `{"title":"Again","slug":"hollow-depths"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(jsonRequest(http.MethodPost, "/games", tt.body))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}

	var count int64
	require.NoError(t, db.Model(&models.Game{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestDeleteGame(t *testing.T) {
	s, db := newTestServer(t)
	admin := seedHandlerUser(t, db, "admin")
	seedHandlerGame(t, db, "hollow-depths")
	app := newGameApp(s, admin.ID)

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/games/1", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/games/1", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp2, err := app.Test(httptest.NewRequest(http.MethodDelete, "/games/99", nil))
	require.NoError(t, err)
	defer func() { _ = resp2.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestRecomputeGameRating_Handler(t *testing.T) {
	s, db := newTestServer(t)
	admin := seedHandlerUser(t, db, "admin")
	game := seedHandlerGame(t, db, "hollow-depths")
	app := newGameApp(s, admin.ID)

	require.NoError(t, db.Create(&models.Review{
		UserID: admin.ID, GameID: game.ID, Rating: 8.0, IsPublished: true,
	}).Error)

	// Drift the stored aggregate, then repair it through the endpoint.
	require.NoError(t, db.Model(&models.Game{}).Where("id = ?", game.ID).
		Updates(map[string]interface{}{"average_rating": 3.0, "review_count": 7}).Error)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/games/1/recompute-rating", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var repaired models.Game
	decodeBody(t, resp, &repaired)
	assert.Equal(t, 8.0, repaired.AverageRating)
	assert.Equal(t, 1, repaired.ReviewCount)
}
