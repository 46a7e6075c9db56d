package seed

import (
	"fmt"
	"log"

	"gamelog/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumGames    int
	ShouldClean bool
	SkipBcrypt  bool
}

// Seeder populates the database with a connected social mesh: users, games,
// reviews, and a follow graph dense enough that feeds and suggestions have
// material to work with.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a Seeder bound to the given DB handle.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{
		db:      db,
		factory: NewFactory(db, SeedOptions{SkipBcrypt: opts.SkipBcrypt}),
	}
}

// ClearAll removes all seeded rows. Order respects foreign keys.
func (s *Seeder) ClearAll() error {
	for _, model := range []interface{}{
		&models.Review{},
		&models.Follow{},
		&models.Game{},
		&models.User{},
	} {
		if err := s.db.Unscoped().Where("1 = 1").Delete(model).Error; err != nil {
			return fmt.Errorf("clearing %T: %w", model, err)
		}
	}
	return nil
}

// Run seeds users, games, reviews, and follows, then rebuilds every game's
// rating aggregate so the denormalized columns match the seeded reviews.
func (s *Seeder) Run(opts Options) error {
	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			return fmt.Errorf("seeding user: %w", err)
		}
		users = append(users, user)
	}
	log.Printf("Seeded %d users", len(users))

	games := make([]*models.Game, 0, opts.NumGames)
	for i := 0; i < opts.NumGames; i++ {
		game, err := s.factory.CreateGame()
		if err != nil {
			return fmt.Errorf("seeding game: %w", err)
		}
		games = append(games, game)
	}
	log.Printf("Seeded %d games", len(games))

	// Each user reviews a random subset of games, at most once per game.
	reviewCount := 0
	for _, user := range users {
		perUser := s.factory.rng.Intn(len(games)/2 + 1)
		perm := s.factory.rng.Perm(len(games))
		for _, gi := range perm[:perUser] {
			if _, err := s.factory.CreateReview(user, games[gi]); err != nil {
				return fmt.Errorf("seeding review: %w", err)
			}
			reviewCount++
		}
	}
	log.Printf("Seeded %d reviews", reviewCount)

	// Follow mesh: each user follows a handful of others, no self-follows,
	// no duplicates.
	followCount := 0
	for i, user := range users {
		perUser := 2 + s.factory.rng.Intn(6)
		perm := s.factory.rng.Perm(len(users))
		for _, ui := range perm {
			if perUser == 0 {
				break
			}
			if ui == i {
				continue
			}
			if _, err := s.factory.CreateFollow(user, users[ui]); err != nil {
				return fmt.Errorf("seeding follow: %w", err)
			}
			followCount++
			perUser--
		}
	}
	log.Printf("Seeded %d follows", followCount)

	// Rebuild the aggregates so seeded games carry correct averages.
	for _, game := range games {
		if err := s.recomputeAggregate(game.ID); err != nil {
			return fmt.Errorf("recomputing aggregate for game %d: %w", game.ID, err)
		}
	}
	log.Printf("Recomputed aggregates for %d games", len(games))

	return nil
}

func (s *Seeder) recomputeAggregate(gameID uint) error {
	var agg struct {
		Average float64
		Count   int64
	}
	if err := s.db.
		Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("game_id = ? AND is_published = ?", gameID, true).
		Scan(&agg).Error; err != nil {
		return err
	}
	return s.db.Model(&models.Game{}).Where("id = ?", gameID).Updates(map[string]interface{}{
		"average_rating": agg.Average,
		"review_count":   agg.Count,
	}).Error
}
