// Package service implements the business logic of the application.
package service

import (
	"context"
	"sort"

	"gamelog/internal/cache"
	"gamelog/internal/models"
	"gamelog/internal/observability"
	"gamelog/internal/repository"
)

// FollowService maintains the directed follow graph: idempotency guarantees,
// self-follow protection, and the set views the feed and suggestion logic
// build on.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

// NewFollowService returns a new FollowService.
func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowService {
	return &FollowService{followRepo: followRepo, userRepo: userRepo}
}

// Follow creates the edge follower -> followee. A duplicate follow surfaces a
// conflict (no silent upsert) and a self-follow is rejected before any write.
func (s *FollowService) Follow(ctx context.Context, followerID, followeeID uint) (*models.Follow, error) {
	if followerID == followeeID {
		observability.FollowMutationsTotal.WithLabelValues("follow", "rejected").Inc()
		return nil, models.NewValidationError("Cannot follow yourself")
	}

	if _, err := s.userRepo.GetByID(ctx, followeeID); err != nil {
		return nil, err
	}

	follow := &models.Follow{FollowerID: followerID, FolloweeID: followeeID}
	if err := s.followRepo.Create(ctx, follow); err != nil {
		outcome := "error"
		if appErr, ok := err.(*models.AppError); ok && appErr.Code == models.CodeConflict {
			outcome = "conflict"
		}
		observability.FollowMutationsTotal.WithLabelValues("follow", outcome).Inc()
		return nil, err
	}

	// The viewer's own follow set changed, so their cached suggestions are stale.
	_ = cache.Delete(ctx, cache.SuggestionsKey(followerID))

	observability.FollowMutationsTotal.WithLabelValues("follow", "ok").Inc()
	return follow, nil
}

// Unfollow removes the edge follower -> followee. Removing an edge that does
// not exist surfaces a conflict.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followeeID uint) error {
	deleted, err := s.followRepo.Delete(ctx, followerID, followeeID)
	if err != nil {
		observability.FollowMutationsTotal.WithLabelValues("unfollow", "error").Inc()
		return err
	}
	if !deleted {
		observability.FollowMutationsTotal.WithLabelValues("unfollow", "conflict").Inc()
		return models.NewConflictError("Not following this user")
	}

	_ = cache.Delete(ctx, cache.SuggestionsKey(followerID))

	observability.FollowMutationsTotal.WithLabelValues("unfollow", "ok").Inc()
	return nil
}

// IsFollowing reports whether follower currently follows followee.
func (s *FollowService) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	return s.followRepo.Exists(ctx, followerID, followeeID)
}

// GetFollowing returns the set of users followed by userID.
func (s *FollowService) GetFollowing(ctx context.Context, userID uint) ([]uint, error) {
	return s.followRepo.ListFollowees(ctx, userID)
}

// GetFollowers returns the set of users following userID.
func (s *FollowService) GetFollowers(ctx context.Context, userID uint) ([]uint, error) {
	return s.followRepo.ListFollowers(ctx, userID)
}

// GetMutualFollows returns the users followed by both a and b, sorted
// ascending for a stable response. Symmetric in its arguments.
func (s *FollowService) GetMutualFollows(ctx context.Context, userIDA, userIDB uint) ([]uint, error) {
	followingA, err := s.followRepo.ListFollowees(ctx, userIDA)
	if err != nil {
		return nil, err
	}
	followingB, err := s.followRepo.ListFollowees(ctx, userIDB)
	if err != nil {
		return nil, err
	}

	inA := make(map[uint]struct{}, len(followingA))
	for _, id := range followingA {
		inA[id] = struct{}{}
	}

	mutual := make([]uint, 0)
	for _, id := range followingB {
		if _, ok := inA[id]; ok {
			mutual = append(mutual, id)
		}
	}
	sort.Slice(mutual, func(i, j int) bool { return mutual[i] < mutual[j] })
	return mutual, nil
}
