package repository

import (
	"context"
	"errors"

	"gamelog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GameRepository defines persistence operations for games, including the
// denormalized rating aggregate.
type GameRepository interface {
	Create(ctx context.Context, game *models.Game) error
	GetByID(ctx context.Context, id uint) (*models.Game, error)
	GetBySlug(ctx context.Context, slug string) (*models.Game, error)
	List(ctx context.Context, limit, offset int) ([]models.Game, error)
	Delete(ctx context.Context, id uint) error
	LockForAggregate(ctx context.Context, id uint) (*models.Game, error)
	RecomputeRating(ctx context.Context, gameID uint) (*models.Game, error)
}

type gameRepository struct {
	db *gorm.DB
}

// NewGameRepository returns a new GameRepository implementation.
// Pass a transaction handle to scope operations to that transaction.
func NewGameRepository(db *gorm.DB) GameRepository {
	return &gameRepository{db: db}
}

func (r *gameRepository) Create(ctx context.Context, game *models.Game) error {
	if err := r.db.WithContext(ctx).Create(game).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.NewConflictError("A game with this slug already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *gameRepository) GetByID(ctx context.Context, id uint) (*models.Game, error) {
	var game models.Game
	if err := r.db.WithContext(ctx).First(&game, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Game", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &game, nil
}

func (r *gameRepository) GetBySlug(ctx context.Context, slug string) (*models.Game, error) {
	var game models.Game
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&game).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Game", slug)
		}
		return nil, models.NewInternalError(err)
	}
	return &game, nil
}

func (r *gameRepository) List(ctx context.Context, limit, offset int) ([]models.Game, error) {
	var games []models.Game
	if err := r.db.WithContext(ctx).Limit(limit).Offset(offset).Order("title ASC").Find(&games).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return games, nil
}

func (r *gameRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Game{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// LockForAggregate loads the game row under a row-level write lock so that
// concurrent review mutations on the same game serialize their recompute.
// SQLite has a single writer and no FOR UPDATE, so the clause is applied only
// on dialects that support it.
func (r *gameRepository) LockForAggregate(ctx context.Context, id uint) (*models.Game, error) {
	q := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var game models.Game
	if err := q.First(&game, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Game", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &game, nil
}

// RecomputeRating recalculates average_rating and review_count from the
// game's published reviews and writes both fields to the game row. Callers
// must hold the game row lock (LockForAggregate) in the same transaction.
func (r *gameRepository) RecomputeRating(ctx context.Context, gameID uint) (*models.Game, error) {
	var agg struct {
		Average float64
		Count   int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("game_id = ? AND is_published = ?", gameID, true).
		Scan(&agg).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	updates := map[string]interface{}{
		"average_rating": agg.Average,
		"review_count":   agg.Count,
	}
	res := r.db.WithContext(ctx).Model(&models.Game{}).Where("id = ?", gameID).Updates(updates)
	if res.Error != nil {
		return nil, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.NewNotFoundError("Game", gameID)
	}

	return &models.Game{ID: gameID, AverageRating: agg.Average, ReviewCount: int(agg.Count)}, nil
}
