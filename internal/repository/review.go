package repository

import (
	"context"
	"errors"
	"time"

	"gamelog/internal/models"

	"gorm.io/gorm"
)

// ReviewRepository defines persistence operations for reviews.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id uint) (*models.Review, error)
	GetByUserAndGame(ctx context.Context, userID, gameID uint) (*models.Review, error)
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id uint) error
	ListByGame(ctx context.Context, gameID uint, publishedOnly bool, limit, offset int) ([]models.Review, error)
	FetchPublishedByAuthors(ctx context.Context, authorIDs []uint, limit int, before *time.Time) ([]models.Review, error)
}

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository returns a new ReviewRepository implementation.
// Pass a transaction handle to scope operations to that transaction.
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.NewConflictError("You have already reviewed this game")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reviewRepository) GetByID(ctx context.Context, id uint) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).Preload("User").Preload("Game").First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Review", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &review, nil
}

func (r *reviewRepository) GetByUserAndGame(ctx context.Context, userID, gameID uint) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND game_id = ?", userID, gameID).
		First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Review for game", gameID)
		}
		return nil, models.NewInternalError(err)
	}
	return &review, nil
}

func (r *reviewRepository) Update(ctx context.Context, review *models.Review) error {
	if err := r.db.WithContext(ctx).Save(review).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reviewRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Review{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reviewRepository) ListByGame(ctx context.Context, gameID uint, publishedOnly bool, limit, offset int) ([]models.Review, error) {
	q := r.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Preload("User")
	if publishedOnly {
		q = q.Where("is_published = ?", true)
	}
	var reviews []models.Review
	if err := q.Find(&reviews).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reviews, nil
}

// FetchPublishedByAuthors returns up to limit published reviews authored by
// any of the given users, newest first, optionally bounded to
// created_at < before.
func (r *reviewRepository) FetchPublishedByAuthors(ctx context.Context, authorIDs []uint, limit int, before *time.Time) ([]models.Review, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}
	q := r.db.WithContext(ctx).
		Where("user_id IN ? AND is_published = ?", authorIDs, true).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Preload("User").
		Preload("Game")
	if before != nil {
		q = q.Where("created_at < ?", *before)
	}
	var reviews []models.Review
	if err := q.Find(&reviews).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reviews, nil
}
