// Command main runs the database seeder for Gamelog.
package main

import (
	"flag"
	"log"

	"gamelog/internal/config"
	"gamelog/internal/database"
	"gamelog/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numGames := flag.Int("games", 30, "Number of games to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	skipBcrypt := flag.Bool("skip-bcrypt", false, "Store plaintext passwords for faster bulk seeding (dev only)")
	flag.Parse()

	log.Println("Database Seeder")
	log.Println("===============")
	log.Printf("Target: %d users, %d games, clean=%v\n", *numUsers, *numGames, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	opts := seed.Options{
		NumUsers:    *numUsers,
		NumGames:    *numGames,
		ShouldClean: *shouldClean,
		SkipBcrypt:  *skipBcrypt,
	}
	s := seed.NewSeeder(db, opts)

	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	if err := s.Run(opts); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Seeding complete")
}
