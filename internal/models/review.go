package models

import (
	"math"
	"time"
)

// Rating bounds. Ratings are stored with one decimal of precision.
const (
	RatingMin = 0.0
	RatingMax = 10.0
)

// Review represents a user's rating and write-up for a game.
// A user has at most one review per game.
type Review struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_reviews_user_game" json:"user_id"`
	GameID      uint      `gorm:"not null;uniqueIndex:idx_reviews_user_game;index" json:"game_id"`
	Rating      float64   `gorm:"not null" json:"rating"`
	Title       string    `json:"title"`
	Content     string    `gorm:"type:text" json:"content"`
	IsPublished bool      `gorm:"not null;index" json:"is_published"`
	IsSpoiler   bool      `gorm:"not null" json:"is_spoiler"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Game Game `gorm:"foreignKey:GameID" json:"game,omitempty"`
}

// TableName specifies the table name for GORM
func (Review) TableName() string {
	return "reviews"
}

// NormalizeRating rounds a rating to the one-decimal storage precision.
func NormalizeRating(r float64) float64 {
	return math.Round(r*10) / 10
}

// ValidRating reports whether r is inside the allowed rating range.
func ValidRating(r float64) bool {
	return r >= RatingMin && r <= RatingMax
}
