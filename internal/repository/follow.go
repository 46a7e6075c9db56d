package repository

import (
	"context"
	"errors"
	"time"

	"gamelog/internal/models"

	"gorm.io/gorm"
)

// FollowRepository owns the directed follow-edge set. The composite unique
// index on (follower_id, followee_id) makes the duplicate check and insert
// atomic: of two concurrent Follow calls for the same pair exactly one
// succeeds, the other surfaces a conflict.
type FollowRepository interface {
	Create(ctx context.Context, follow *models.Follow) error
	Delete(ctx context.Context, followerID, followeeID uint) (bool, error)
	Exists(ctx context.Context, followerID, followeeID uint) (bool, error)
	ListFollowees(ctx context.Context, followerID uint) ([]uint, error)
	ListFollowers(ctx context.Context, followeeID uint) ([]uint, error)
	ListEdgesFrom(ctx context.Context, followerIDs []uint) ([]models.Follow, error)
	FetchByFollowers(ctx context.Context, followerIDs []uint, limit int, before *time.Time) ([]models.Follow, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository returns a new FollowRepository implementation.
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Create(ctx context.Context, follow *models.Follow) error {
	if err := r.db.WithContext(ctx).Create(follow).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.NewConflictError("Already following this user")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes the edge and reports whether it existed.
func (r *followRepository) Delete(ctx context.Context, followerID, followeeID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followeeID uint) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&cnt).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return cnt > 0, nil
}

func (r *followRepository) ListFollowees(ctx context.Context, followerID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ?", followerID).
		Pluck("followee_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *followRepository) ListFollowers(ctx context.Context, followeeID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("followee_id = ?", followeeID).
		Pluck("follower_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

// ListEdgesFrom returns every edge whose follower is in followerIDs. Used to
// build the adjacency view for mutual-follow counting and suggestions in two
// round trips instead of one query per user.
func (r *followRepository) ListEdgesFrom(ctx context.Context, followerIDs []uint) ([]models.Follow, error) {
	if len(followerIDs) == 0 {
		return nil, nil
	}
	var edges []models.Follow
	if err := r.db.WithContext(ctx).
		Where("follower_id IN ?", followerIDs).
		Find(&edges).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return edges, nil
}

// FetchByFollowers returns up to limit follow edges created by any of the
// given followers, newest first, optionally bounded to created_at < before.
func (r *followRepository) FetchByFollowers(ctx context.Context, followerIDs []uint, limit int, before *time.Time) ([]models.Follow, error) {
	if len(followerIDs) == 0 {
		return nil, nil
	}
	q := r.db.WithContext(ctx).
		Where("follower_id IN ?", followerIDs).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Preload("Follower").
		Preload("Followee")
	if before != nil {
		q = q.Where("created_at < ?", *before)
	}
	var edges []models.Follow
	if err := q.Find(&edges).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return edges, nil
}
