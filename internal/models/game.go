package models

import (
	"time"

	"gorm.io/gorm"
)

// Game represents a game that users can review.
//
// AverageRating and ReviewCount are a denormalized aggregate over the game's
// published reviews. They are recomputed inside the same transaction as any
// review mutation that changes publication state or rating, so a committed
// review mutation is never observable with a stale aggregate.
type Game struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Title         string         `gorm:"not null" json:"title"`
	Slug          string         `gorm:"unique;not null" json:"slug"`
	Description   string         `gorm:"type:text" json:"description"`
	CoverURL      string         `json:"cover_url"`
	ReleaseYear   int            `json:"release_year"`
	AverageRating float64        `gorm:"not null;default:0" json:"average_rating"`
	ReviewCount   int            `gorm:"not null;default:0" json:"review_count"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	Reviews       []Review       `gorm:"foreignKey:GameID" json:"reviews,omitempty"`
}

// TableName specifies the table name for GORM
func (Game) TableName() string {
	return "games"
}
