package server

import (
	"gamelog/internal/cache"
	"gamelog/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
// @Summary Get own profile
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Router /users/me [get]
// @Security BearerAuth
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	user, err := s.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		return respondAppError(c, err)
	}

	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me
// @Summary Update own profile
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{bio=string,avatar=string} true "Profile fields"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /users/me [put]
// @Security BearerAuth
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Bio    *string `json:"bio"`
		Avatar *string `json:"avatar"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		return respondAppError(c, err)
	}

	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Avatar != nil {
		user.Avatar = *req.Avatar
	}

	if err := s.userRepo.Update(c.Context(), user); err != nil {
		return respondAppError(c, err)
	}

	// Profile changed, drop the cached projection.
	_ = cache.Delete(c.Context(), cache.UserKey(userID))

	return c.JSON(user)
}

// GetUserProfile handles GET /api/users/:userId/profile
// @Summary Get a user's public profile
// @Tags users
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {object} models.UserSummary
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{userId}/profile [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	var summary models.UserSummary
	cacheErr := cache.CacheAside(c.Context(), cache.UserKey(userID), &summary, cache.UserTTL, func() error {
		user, err := s.userRepo.GetByID(c.Context(), userID)
		if err != nil {
			return err
		}
		summary = user.Summary()
		return nil
	})
	if cacheErr != nil {
		return respondAppError(c, cacheErr)
	}

	return c.JSON(summary)
}
