package server

import (
	"gamelog/internal/cache"
	"gamelog/internal/models"
	"gamelog/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// GetGames handles GET /api/games
// @Summary List games
// @Tags games
// @Produce json
// @Param limit query int false "Page size (default 20, max 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} object{games=[]models.Game,count=int}
// @Router /games [get]
func (s *Server) GetGames(c *fiber.Ctx) error {
	p := parsePagination(c, 20)

	games, err := s.gameRepo.List(c.Context(), p.Limit, p.Offset)
	if err != nil {
		return respondAppError(c, err)
	}

	return c.JSON(fiber.Map{"games": games, "count": len(games)})
}

// GetGame handles GET /api/games/:id
// @Summary Get a game
// @Description Get a game by numeric ID or slug, including its rating aggregate
// @Tags games
// @Produce json
// @Param id path string true "Game ID or slug"
// @Success 200 {object} models.Game
// @Failure 404 {object} models.ErrorResponse
// @Router /games/{id} [get]
func (s *Server) GetGame(c *fiber.Ctx) error {
	// Accept either a numeric ID or a slug in the same position.
	if id, err := c.ParamsInt("id"); err == nil && id > 0 {
		game, err := s.gameRepo.GetByID(c.Context(), uint(id))
		if err != nil {
			return respondAppError(c, err)
		}
		return c.JSON(game)
	}

	slug := c.Params("id")
	var game models.Game
	if err := cache.CacheAside(c.Context(), cache.GameKey(slug), &game, cache.GameTTL, func() error {
		g, err := s.gameRepo.GetBySlug(c.Context(), slug)
		if err != nil {
			return err
		}
		game = *g
		return nil
	}); err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(&game)
}

// GetGameReviews handles GET /api/games/:id/reviews
// @Summary List reviews for a game
// @Description Published reviews for a game, newest first
// @Tags games
// @Produce json
// @Param id path int true "Game ID"
// @Param limit query int false "Page size (default 20, max 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} object{reviews=[]models.Review,count=int}
// @Failure 404 {object} models.ErrorResponse
// @Router /games/{id}/reviews [get]
func (s *Server) GetGameReviews(c *fiber.Ctx) error {
	gameID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	p := parsePagination(c, 20)

	if _, err := s.gameRepo.GetByID(c.Context(), gameID); err != nil {
		return respondAppError(c, err)
	}

	reviews, err := s.reviewRepo.ListByGame(c.Context(), gameID, true, p.Limit, p.Offset)
	if err != nil {
		return respondAppError(c, err)
	}

	return c.JSON(fiber.Map{"reviews": reviews, "count": len(reviews)})
}

// CreateGame handles POST /api/games (admin)
// @Summary Create a game
// @Tags games
// @Accept json
// @Produce json
// @Param request body object{title=string,slug=string,description=string,cover_url=string,release_year=int} true "Game"
// @Success 201 {object} models.Game
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /games [post]
// @Security BearerAuth
func (s *Server) CreateGame(c *fiber.Ctx) error {
	var req struct {
		Title       string `json:"title"`
		Slug        string `json:"slug"`
		Description string `json:"description"`
		CoverURL    string `json:"cover_url"`
		ReleaseYear int    `json:"release_year"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.Title == "" || req.Slug == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Title and slug are required"))
	}
	if err := validation.ValidateSlug(req.Slug); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	game := &models.Game{
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
		CoverURL:    req.CoverURL,
		ReleaseYear: req.ReleaseYear,
	}
	if err := s.gameRepo.Create(c.Context(), game); err != nil {
		return respondAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(game)
}

// DeleteGame handles DELETE /api/games/:id (admin)
// @Summary Delete a game
// @Tags games
// @Produce json
// @Param id path int true "Game ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /games/{id} [delete]
// @Security BearerAuth
func (s *Server) DeleteGame(c *fiber.Ctx) error {
	gameID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	game, err := s.gameRepo.GetByID(c.Context(), gameID)
	if err != nil {
		return respondAppError(c, err)
	}
	if err := s.gameRepo.Delete(c.Context(), gameID); err != nil {
		return respondAppError(c, err)
	}
	_ = cache.Delete(c.Context(), cache.GameKey(game.Slug))

	return c.SendStatus(fiber.StatusNoContent)
}

// RecomputeGameRating handles POST /api/games/:gameId/recompute-rating (admin)
// @Summary Recompute a game's rating aggregate
// @Description Operational escape hatch that rebuilds average_rating and review_count from published reviews
// @Tags games
// @Produce json
// @Param gameId path int true "Game ID"
// @Success 200 {object} models.Game
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /games/{gameId}/recompute-rating [post]
// @Security BearerAuth
func (s *Server) RecomputeGameRating(c *fiber.Ctx) error {
	gameID, err := s.parseID(c, "gameId")
	if err != nil {
		return nil
	}

	game, err := s.reviewService.RecomputeGameRating(c.Context(), gameID)
	if err != nil {
		return respondAppError(c, err)
	}
	_ = cache.Delete(c.Context(), cache.GameKey(game.Slug))

	return c.JSON(game)
}
