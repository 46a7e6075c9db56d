package service

import (
	"context"

	"gamelog/internal/models"
	"gamelog/internal/observability"
	"gamelog/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// ReviewService implements review mutations and keeps the game rating
// aggregate transactionally consistent with them. Every mutation that changes
// publication state or rating recomputes the aggregate inside the same
// transaction, under a lock on the game row, so the committed aggregate is
// never stale and concurrent mutations on one game cannot lose updates.
type ReviewService struct {
	db         *gorm.DB
	gameRepo   repository.GameRepository
	reviewRepo repository.ReviewRepository
}

// NewReviewService returns a new ReviewService bound to the given DB handle.
// The handle is used to open the transactions that pair review writes with
// aggregate recomputation.
func NewReviewService(db *gorm.DB, gameRepo repository.GameRepository, reviewRepo repository.ReviewRepository) *ReviewService {
	return &ReviewService{db: db, gameRepo: gameRepo, reviewRepo: reviewRepo}
}

// CreateReviewInput carries the fields for a new review.
type CreateReviewInput struct {
	UserID      uint
	GameID      uint
	Rating      float64
	Title       string
	Content     string
	IsPublished bool
	IsSpoiler   bool
}

// UpdateReviewInput carries a partial review update. Nil fields are left
// untouched.
type UpdateReviewInput struct {
	UserID      uint
	ReviewID    uint
	Rating      *float64
	Title       *string
	Content     *string
	IsPublished *bool
	IsSpoiler   *bool
}

// CreateReview creates the user's review for a game. A second review for the
// same (user, game) pair is a conflict. When the review is created published,
// the game aggregate is recomputed in the same transaction.
func (s *ReviewService) CreateReview(ctx context.Context, in CreateReviewInput) (*models.Review, error) {
	if !models.ValidRating(in.Rating) {
		return nil, models.NewValidationError("Rating must be between 0.0 and 10.0")
	}

	if _, err := s.gameRepo.GetByID(ctx, in.GameID); err != nil {
		return nil, err
	}

	review := &models.Review{
		UserID:      in.UserID,
		GameID:      in.GameID,
		Rating:      models.NormalizeRating(in.Rating),
		Title:       in.Title,
		Content:     in.Content,
		IsPublished: in.IsPublished,
		IsSpoiler:   in.IsSpoiler,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewReviewRepository(tx).Create(ctx, review); err != nil {
			return err
		}
		if review.IsPublished {
			return s.recomputeLocked(ctx, tx, in.GameID, "create")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.reviewRepo.GetByID(ctx, review.ID)
}

// UpdateReview applies a partial update to the author's review. The aggregate
// is recomputed only when publication state toggles or the rating changes
// while the review is published; content-only edits never trigger the
// O(reviews) recompute.
func (s *ReviewService) UpdateReview(ctx context.Context, in UpdateReviewInput) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, in.ReviewID)
	if err != nil {
		return nil, err
	}
	if review.UserID != in.UserID {
		return nil, models.NewUnauthorizedError("You can only edit your own review")
	}

	wasPublished := review.IsPublished

	ratingChanged := false
	if in.Rating != nil {
		if !models.ValidRating(*in.Rating) {
			return nil, models.NewValidationError("Rating must be between 0.0 and 10.0")
		}
		normalized := models.NormalizeRating(*in.Rating)
		if normalized != review.Rating {
			review.Rating = normalized
			ratingChanged = true
		}
	}

	publishToggled := in.IsPublished != nil && *in.IsPublished != wasPublished
	if publishToggled {
		review.IsPublished = *in.IsPublished
	}
	if in.Title != nil {
		review.Title = *in.Title
	}
	if in.Content != nil {
		review.Content = *in.Content
	}
	if in.IsSpoiler != nil {
		review.IsSpoiler = *in.IsSpoiler
	}

	// A rating change on a review that is and stays unpublished does not
	// affect the aggregate; a publish toggle always does.
	needsRecompute := publishToggled || (ratingChanged && wasPublished)
	trigger := "rating_change"
	if publishToggled {
		trigger = "publish_toggle"
	}

	// Clear preloaded associations so Save only touches the review row.
	review.User = models.User{}
	review.Game = models.Game{}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewReviewRepository(tx).Update(ctx, review); err != nil {
			return err
		}
		if needsRecompute {
			return s.recomputeLocked(ctx, tx, review.GameID, trigger)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.reviewRepo.GetByID(ctx, review.ID)
}

// SetPublished toggles the publication state of the author's review.
func (s *ReviewService) SetPublished(ctx context.Context, userID, reviewID uint, published bool) (*models.Review, error) {
	return s.UpdateReview(ctx, UpdateReviewInput{
		UserID:      userID,
		ReviewID:    reviewID,
		IsPublished: &published,
	})
}

// DeleteReview removes the author's review. Deleting a published review
// recomputes the aggregate in the same transaction, so the review disappears
// from the aggregate and the feed atomically.
func (s *ReviewService) DeleteReview(ctx context.Context, userID, reviewID uint) error {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if review.UserID != userID {
		return models.NewUnauthorizedError("You can only delete your own review")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewReviewRepository(tx).Delete(ctx, reviewID); err != nil {
			return err
		}
		if review.IsPublished {
			return s.recomputeLocked(ctx, tx, review.GameID, "delete")
		}
		return nil
	})
}

// RecomputeGameRating recomputes a game's aggregate outside any review
// mutation. Operational escape hatch, not part of the normal write path.
func (s *ReviewService) RecomputeGameRating(ctx context.Context, gameID uint) (*models.Game, error) {
	if _, err := s.gameRepo.GetByID(ctx, gameID); err != nil {
		return nil, err
	}

	var game *models.Game
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.recomputeLocked(ctx, tx, gameID, "manual"); err != nil {
			return err
		}
		var loadErr error
		game, loadErr = repository.NewGameRepository(tx).GetByID(ctx, gameID)
		return loadErr
	})
	if err != nil {
		return nil, err
	}
	return game, nil
}

// recomputeLocked serializes with concurrent mutations on the same game by
// locking its row, then recomputes the aggregate. A failure here is a
// consistency error: it aborts the surrounding transaction so the triggering
// review write rolls back with it.
func (s *ReviewService) recomputeLocked(ctx context.Context, tx *gorm.DB, gameID uint, trigger string) error {
	span, ctx := observability.NewSpan(ctx, "rating.recompute")
	defer span.End()
	span.AddAttributes(
		attribute.Int("game.id", int(gameID)),
		attribute.String("trigger", trigger),
	)

	games := repository.NewGameRepository(tx)
	if _, err := games.LockForAggregate(ctx, gameID); err != nil {
		span.SetError(err)
		return err
	}
	if _, err := games.RecomputeRating(ctx, gameID); err != nil {
		err = models.NewConsistencyError("game rating aggregate could not be updated", err)
		span.SetError(err)
		return err
	}

	observability.RatingRecomputeTotal.WithLabelValues(trigger).Inc()
	return nil
}
