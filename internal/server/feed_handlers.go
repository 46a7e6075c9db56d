package server

import (
	"time"

	"gamelog/internal/models"
	"gamelog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetFeed handles GET /api/feed
// @Summary Activity feed
// @Description Merged, time-ordered activity feed for the authenticated user
// @Tags feed
// @Produce json
// @Param limit query int false "Page size (default 20, max 50)"
// @Param page query int false "Page number"
// @Param type query string false "Filter by activity type (REVIEW or FOLLOW)"
// @Param before query string false "Continuation cursor (RFC3339 timestamp from meta.next_cursor)"
// @Success 200 {object} models.FeedPage
// @Failure 400 {object} models.ErrorResponse
// @Router /feed [get]
// @Security BearerAuth
func (s *Server) GetFeed(c *fiber.Ctx) error {
	viewerID := c.Locals("userID").(uint)

	q := service.FeedQuery{
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", 0),
	}

	if typ := c.Query("type"); typ != "" {
		switch models.ActivityType(typ) {
		case models.ActivityTypeReview, models.ActivityTypeFollow:
			q.Type = models.ActivityType(typ)
		default:
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Unknown activity type"))
		}
	}

	if before := c.Query("before"); before != "" {
		ts, err := time.Parse(time.RFC3339Nano, before)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid before cursor, expected RFC3339 timestamp"))
		}
		q.Before = &ts
	}

	page, err := s.feedService.GetActivityFeed(c.Context(), viewerID, q)
	if err != nil {
		return respondAppError(c, err)
	}

	return c.JSON(page)
}

// GetSuggestions handles GET /api/suggestions
// @Summary Follow suggestions
// @Description Ranked follow candidates for the authenticated user, by mutual connections
// @Tags suggestions
// @Produce json
// @Param limit query int false "Number of suggestions (default 10)"
// @Success 200 {object} object{suggestions=[]models.FollowSuggestion}
// @Router /suggestions [get]
// @Security BearerAuth
func (s *Server) GetSuggestions(c *fiber.Ctx) error {
	viewerID := c.Locals("userID").(uint)
	limit := c.QueryInt("limit", 0)

	suggestions, err := s.suggestionService.GetSuggestions(c.Context(), viewerID, limit)
	if err != nil {
		return respondAppError(c, err)
	}

	return c.JSON(fiber.Map{"suggestions": suggestions})
}
