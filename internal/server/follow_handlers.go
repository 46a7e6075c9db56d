package server

import (
	"gamelog/internal/models"

	"github.com/gofiber/fiber/v2"
)

// FollowUser handles POST /api/users/:userId/follow
// @Summary Follow a user
// @Description Create a follow edge from the authenticated user to the target user
// @Tags follows
// @Produce json
// @Param userId path int true "Target user ID"
// @Success 201 {object} models.Follow
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /users/{userId}/follow [post]
// @Security BearerAuth
func (s *Server) FollowUser(c *fiber.Ctx) error {
	viewerID := c.Locals("userID").(uint)
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	follow, err := s.followService.Follow(c.Context(), viewerID, targetID)
	if err != nil {
		return respondAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(follow)
}

// UnfollowUser handles DELETE /api/users/:userId/follow
// @Summary Unfollow a user
// @Description Remove the follow edge from the authenticated user to the target user
// @Tags follows
// @Produce json
// @Param userId path int true "Target user ID"
// @Success 204
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /users/{userId}/follow [delete]
// @Security BearerAuth
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	viewerID := c.Locals("userID").(uint)
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	if err := s.followService.Unfollow(c.Context(), viewerID, targetID); err != nil {
		return respondAppError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetFollowStatus handles GET /api/users/:userId/follow-status
// @Summary Follow status
// @Description Report whether the authenticated user follows the target user
// @Tags follows
// @Produce json
// @Param userId path int true "Target user ID"
// @Success 200 {object} object{following=bool}
// @Failure 400 {object} models.ErrorResponse
// @Router /users/{userId}/follow-status [get]
// @Security BearerAuth
func (s *Server) GetFollowStatus(c *fiber.Ctx) error {
	viewerID := c.Locals("userID").(uint)
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	following, err := s.followService.IsFollowing(c.Context(), viewerID, targetID)
	if err != nil {
		return respondAppError(c, err)
	}

	return c.JSON(fiber.Map{"following": following})
}

// GetMutualFollows handles GET /api/users/:userId/mutual-follows
// @Summary Mutual follows
// @Description Users followed by both the authenticated user and the target user
// @Tags follows
// @Produce json
// @Param userId path int true "Target user ID"
// @Success 200 {object} object{users=[]models.UserSummary,count=int}
// @Failure 400 {object} models.ErrorResponse
// @Router /users/{userId}/mutual-follows [get]
// @Security BearerAuth
func (s *Server) GetMutualFollows(c *fiber.Ctx) error {
	viewerID := c.Locals("userID").(uint)
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	ids, err := s.followService.GetMutualFollows(c.Context(), viewerID, targetID)
	if err != nil {
		return respondAppError(c, err)
	}

	users, err := s.summarizeUsers(c, ids)
	if err != nil {
		return respondAppError(c, err)
	}

	return c.JSON(fiber.Map{"users": users, "count": len(users)})
}

// GetFollowing handles GET /api/users/:userId/following
// @Summary List following
// @Description Users the target user follows
// @Tags follows
// @Produce json
// @Param userId path int true "Target user ID"
// @Success 200 {object} object{users=[]models.UserSummary,count=int}
// @Failure 400 {object} models.ErrorResponse
// @Router /users/{userId}/following [get]
// @Security BearerAuth
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	ids, err := s.followService.GetFollowing(c.Context(), targetID)
	if err != nil {
		return respondAppError(c, err)
	}

	users, err := s.summarizeUsers(c, ids)
	if err != nil {
		return respondAppError(c, err)
	}

	return c.JSON(fiber.Map{"users": users, "count": len(users)})
}

// GetFollowers handles GET /api/users/:userId/followers
// @Summary List followers
// @Description Users following the target user
// @Tags follows
// @Produce json
// @Param userId path int true "Target user ID"
// @Success 200 {object} object{users=[]models.UserSummary,count=int}
// @Failure 400 {object} models.ErrorResponse
// @Router /users/{userId}/followers [get]
// @Security BearerAuth
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	ids, err := s.followService.GetFollowers(c.Context(), targetID)
	if err != nil {
		return respondAppError(c, err)
	}

	users, err := s.summarizeUsers(c, ids)
	if err != nil {
		return respondAppError(c, err)
	}

	return c.JSON(fiber.Map{"users": users, "count": len(users)})
}

// summarizeUsers loads the given user IDs and returns their public
// projections, preserving the input order.
func (s *Server) summarizeUsers(c *fiber.Ctx, ids []uint) ([]models.UserSummary, error) {
	users, err := s.userRepo.GetByIDs(c.Context(), ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]models.UserSummary, len(users))
	for i := range users {
		byID[users[i].ID] = users[i].Summary()
	}

	out := make([]models.UserSummary, 0, len(ids))
	for _, id := range ids {
		if summary, ok := byID[id]; ok {
			out = append(out, summary)
		}
	}
	return out, nil
}
