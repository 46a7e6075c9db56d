package server

import (
	"gamelog/internal/models"
	"gamelog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateReview handles POST /api/games/:gameId/reviews
// @Summary Create a review
// @Description Create the authenticated user's review for a game (one per game)
// @Tags reviews
// @Accept json
// @Produce json
// @Param gameId path int true "Game ID"
// @Param request body object{rating=number,title=string,content=string,is_published=bool,is_spoiler=bool} true "Review"
// @Success 201 {object} models.Review
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /games/{gameId}/reviews [post]
// @Security BearerAuth
func (s *Server) CreateReview(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	gameID, err := s.parseID(c, "gameId")
	if err != nil {
		return nil
	}

	var req struct {
		Rating      float64 `json:"rating"`
		Title       string  `json:"title"`
		Content     string  `json:"content"`
		IsPublished *bool   `json:"is_published"`
		IsSpoiler   bool    `json:"is_spoiler"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	// Reviews are published unless the request says otherwise.
	published := true
	if req.IsPublished != nil {
		published = *req.IsPublished
	}

	review, err := s.reviewService.CreateReview(c.Context(), service.CreateReviewInput{
		UserID:      userID,
		GameID:      gameID,
		Rating:      req.Rating,
		Title:       req.Title,
		Content:     req.Content,
		IsPublished: published,
		IsSpoiler:   req.IsSpoiler,
	})
	if err != nil {
		return respondAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(review)
}

// GetMyGameReview handles GET /api/games/:gameId/reviews/me
// @Summary Get the authenticated user's review for a game
// @Tags reviews
// @Produce json
// @Param gameId path int true "Game ID"
// @Success 200 {object} models.Review
// @Failure 404 {object} models.ErrorResponse
// @Router /games/{gameId}/reviews/me [get]
// @Security BearerAuth
func (s *Server) GetMyGameReview(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	gameID, err := s.parseID(c, "gameId")
	if err != nil {
		return nil
	}

	review, err := s.reviewRepo.GetByUserAndGame(c.Context(), userID, gameID)
	if err != nil {
		return respondAppError(c, err)
	}

	return c.JSON(review)
}

// GetReview handles GET /api/reviews/:id
// @Summary Get a review
// @Tags reviews
// @Produce json
// @Param id path int true "Review ID"
// @Success 200 {object} models.Review
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews/{id} [get]
// @Security BearerAuth
func (s *Server) GetReview(c *fiber.Ctx) error {
	reviewID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	review, err := s.reviewRepo.GetByID(c.Context(), reviewID)
	if err != nil {
		return respondAppError(c, err)
	}

	return c.JSON(review)
}

// UpdateReview handles PATCH /api/reviews/:id
// @Summary Update a review
// @Description Partially update the authenticated user's review; rating and publication changes recompute the game aggregate
// @Tags reviews
// @Accept json
// @Produce json
// @Param id path int true "Review ID"
// @Param request body object{rating=number,title=string,content=string,is_published=bool,is_spoiler=bool} true "Fields to update"
// @Success 200 {object} models.Review
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews/{id} [patch]
// @Security BearerAuth
func (s *Server) UpdateReview(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	reviewID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Rating      *float64 `json:"rating"`
		Title       *string  `json:"title"`
		Content     *string  `json:"content"`
		IsPublished *bool    `json:"is_published"`
		IsSpoiler   *bool    `json:"is_spoiler"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	review, err := s.reviewService.UpdateReview(c.Context(), service.UpdateReviewInput{
		UserID:      userID,
		ReviewID:    reviewID,
		Rating:      req.Rating,
		Title:       req.Title,
		Content:     req.Content,
		IsPublished: req.IsPublished,
		IsSpoiler:   req.IsSpoiler,
	})
	if err != nil {
		return respondAppError(c, err)
	}

	return c.JSON(review)
}

// DeleteReview handles DELETE /api/reviews/:id
// @Summary Delete a review
// @Description Delete the authenticated user's review; deleting a published review recomputes the game aggregate
// @Tags reviews
// @Produce json
// @Param id path int true "Review ID"
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews/{id} [delete]
// @Security BearerAuth
func (s *Server) DeleteReview(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	reviewID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.reviewService.DeleteReview(c.Context(), userID, reviewID); err != nil {
		return respondAppError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// PublishReview handles POST /api/reviews/:id/publish
// @Summary Publish a review
// @Tags reviews
// @Produce json
// @Param id path int true "Review ID"
// @Success 200 {object} models.Review
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews/{id}/publish [post]
// @Security BearerAuth
func (s *Server) PublishReview(c *fiber.Ctx) error {
	return s.setReviewPublished(c, true)
}

// UnpublishReview handles POST /api/reviews/:id/unpublish
// @Summary Unpublish a review
// @Tags reviews
// @Produce json
// @Param id path int true "Review ID"
// @Success 200 {object} models.Review
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews/{id}/unpublish [post]
// @Security BearerAuth
func (s *Server) UnpublishReview(c *fiber.Ctx) error {
	return s.setReviewPublished(c, false)
}

func (s *Server) setReviewPublished(c *fiber.Ctx, published bool) error {
	userID := c.Locals("userID").(uint)
	reviewID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	review, err := s.reviewService.SetPublished(c.Context(), userID, reviewID, published)
	if err != nil {
		return respondAppError(c, err)
	}

	return c.JSON(review)
}
