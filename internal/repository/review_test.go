package repository

import (
	"context"
	"testing"
	"time"

	"gamelog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createTestGame(t *testing.T, db *gorm.DB, slug string) *models.Game {
	t.Helper()
	game := &models.Game{Title: slug, Slug: slug}
	require.NoError(t, db.Create(game).Error)
	return game
}

func TestReviewRepository_SecondReviewForGameIsConflict(t *testing.T) {
	t.Parallel()
	db := setupRepoTestDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "alice")
	game := createTestGame(t, db, "hollow-depths")
	other := createTestGame(t, db, "star-courier")

	require.NoError(t, repo.Create(ctx, &models.Review{UserID: user.ID, GameID: game.ID, Rating: 8.0}))

	err := repo.Create(ctx, &models.Review{UserID: user.ID, GameID: game.ID, Rating: 5.0})
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, models.CodeConflict, appErr.Code)

	// A different game is fine.
	require.NoError(t, repo.Create(ctx, &models.Review{UserID: user.ID, GameID: other.ID, Rating: 5.0}))
}

func TestReviewRepository_GetByUserAndGame(t *testing.T) {
	t.Parallel()
	db := setupRepoTestDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "alice")
	game := createTestGame(t, db, "hollow-depths")

	_, err := repo.GetByUserAndGame(ctx, user.ID, game.ID)
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, models.CodeNotFound, appErr.Code)

	require.NoError(t, repo.Create(ctx, &models.Review{UserID: user.ID, GameID: game.ID, Rating: 8.0}))

	got, err := repo.GetByUserAndGame(ctx, user.ID, game.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 8.0, got.Rating)
}

func TestReviewRepository_FetchPublishedByAuthors(t *testing.T) {
	t.Parallel()
	db := setupRepoTestDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")
	game := createTestGame(t, db, "hollow-depths")
	other := createTestGame(t, db, "star-courier")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reviews := []models.Review{
		{UserID: alice.ID, GameID: game.ID, Rating: 8.0, IsPublished: true, CreatedAt: base},
		{UserID: bob.ID, GameID: game.ID, Rating: 6.0, IsPublished: true, CreatedAt: base.Add(2 * time.Hour)},
		{UserID: alice.ID, GameID: other.ID, Rating: 7.0, IsPublished: false, CreatedAt: base.Add(3 * time.Hour)},
		{UserID: carol.ID, GameID: game.ID, Rating: 9.0, IsPublished: true, CreatedAt: base.Add(4 * time.Hour)},
	}
	for i := range reviews {
		require.NoError(t, db.Create(&reviews[i]).Error)
	}

	// Unpublished reviews and other authors never appear.
	got, err := repo.FetchPublishedByAuthors(ctx, []uint{alice.ID, bob.ID}, 10, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, bob.ID, got[0].UserID)
	assert.Equal(t, alice.ID, got[1].UserID)
	assert.Equal(t, "hollow-depths", got[0].Game.Slug)

	// Limit truncates to the newest rows.
	got, err = repo.FetchPublishedByAuthors(ctx, []uint{alice.ID, bob.ID, carol.ID}, 2, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, carol.ID, got[0].UserID)
	assert.Equal(t, bob.ID, got[1].UserID)
}
