// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"gamelog/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedOptions tunes how the factory generates data.
type SeedOptions struct {
	// SkipBcrypt stores a plaintext marker instead of hashing, for fast
	// large-volume dev seeding. Never used by the server itself.
	SkipBcrypt bool
	// MaxDays is how far back generated timestamps spread. Defaults to 90.
	MaxDays int
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts SeedOptions
	rng  *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts SeedOptions) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:   db,
		opts: opts,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// pastTime returns a timestamp spread over the last MaxDays days.
func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	daysBack := f.rng.Intn(maxDays)
	hoursBack := f.rng.Intn(24)
	minsBack := f.rng.Intn(60)
	return time.Now().Add(-time.Duration(daysBack)*24*time.Hour -
		time.Duration(hoursBack)*time.Hour -
		time.Duration(minsBack)*time.Minute)
}

// CreateUser constructs and persists a sample user.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Username: gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		Email:    gofakeit.Email(),
		Bio:      gofakeit.Sentence(10),
		Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
	}

	if f.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.Password = string(hashedPassword)
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateGame constructs and persists a sample game.
func (f *Factory) CreateGame(overrides ...func(*models.Game)) (*models.Game, error) {
	title := fmt.Sprintf("%s %s", gofakeit.HipsterWord(), gofakeit.NounAbstract())
	game := &models.Game{
		Title:       titleCase(title),
		Slug:        slugify(title) + fmt.Sprintf("-%d", gofakeit.Number(100, 999)),
		Description: gofakeit.Paragraph(1, 3, 8, "\n"),
		CoverURL:    fmt.Sprintf("https://picsum.photos/seed/%s/600/800", gofakeit.UUID()),
		ReleaseYear: gofakeit.Number(1990, 2025),
	}

	for _, override := range overrides {
		override(game)
	}

	if err := f.db.Create(game).Error; err != nil {
		return nil, err
	}
	return game, nil
}

// CreateReview constructs and persists a review by user for game.
// Ratings land on one decimal, matching the storage precision.
func (f *Factory) CreateReview(user *models.User, game *models.Game, overrides ...func(*models.Review)) (*models.Review, error) {
	review := &models.Review{
		UserID:      user.ID,
		GameID:      game.ID,
		Rating:      models.NormalizeRating(f.rng.Float64() * models.RatingMax),
		Title:       gofakeit.Sentence(4),
		Content:     gofakeit.Paragraph(1, 4, 10, "\n"),
		IsPublished: f.rng.Intn(10) < 8,
		IsSpoiler:   f.rng.Intn(10) < 2,
		CreatedAt:   f.pastTime(),
	}

	for _, override := range overrides {
		override(review)
	}

	if err := f.db.Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

// CreateFollow persists the edge follower -> followee.
func (f *Factory) CreateFollow(follower, followee *models.User, overrides ...func(*models.Follow)) (*models.Follow, error) {
	follow := &models.Follow{
		FollowerID: follower.ID,
		FolloweeID: followee.ID,
		CreatedAt:  f.pastTime(),
	}

	for _, override := range overrides {
		override(follow)
	}

	if err := f.db.Create(follow).Error; err != nil {
		return nil, err
	}
	return follow, nil
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-' || r == '_':
			return '-'
		default:
			return -1
		}
	}, s)
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return strings.Trim(s, "-")
}
