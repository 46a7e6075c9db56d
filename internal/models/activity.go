package models

import (
	"fmt"
	"time"
)

// ActivityType discriminates the kinds of items a feed can carry.
type ActivityType string

const (
	// ActivityTypeReview is a published review event.
	ActivityTypeReview ActivityType = "REVIEW"
	// ActivityTypeFollow is a follow-edge creation event.
	ActivityTypeFollow ActivityType = "FOLLOW"
)

// ActivityItem is a feed-only representation of a review or follow event.
// It is synthesized per request from the underlying rows and never persisted.
// Its ID is derived from the source row (e.g. "review_42") so the same row
// can never appear twice in a merged page.
type ActivityItem struct {
	ID        string       `json:"id"`
	Type      ActivityType `json:"type"`
	ActorID   uint         `json:"actor_id"`
	CreatedAt time.Time    `json:"created_at"`
	Payload   interface{}  `json:"payload"`

	// RowID is the numeric ID of the underlying row, kept for deterministic
	// tie-breaking when two items share a timestamp. Not serialized.
	RowID uint `json:"-"`
}

// ReviewActivityPayload is the payload of a REVIEW activity item.
type ReviewActivityPayload struct {
	ReviewID  uint        `json:"review_id"`
	Rating    float64     `json:"rating"`
	Title     string      `json:"title"`
	IsSpoiler bool        `json:"is_spoiler"`
	Author    UserSummary `json:"author"`
	Game      GameSummary `json:"game"`
}

// FollowActivityPayload is the payload of a FOLLOW activity item.
type FollowActivityPayload struct {
	Follower UserSummary `json:"follower"`
	Followee UserSummary `json:"followee"`
}

// GameSummary is the public projection of a game embedded in feed items.
type GameSummary struct {
	ID       uint   `json:"id"`
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	CoverURL string `json:"cover_url,omitempty"`
}

// Summary returns the public projection of the game.
func (g *Game) Summary() GameSummary {
	return GameSummary{ID: g.ID, Title: g.Title, Slug: g.Slug, CoverURL: g.CoverURL}
}

// ReviewActivityID builds the feed identity of a review row.
func ReviewActivityID(reviewID uint) string {
	return fmt.Sprintf("review_%d", reviewID)
}

// FollowActivityID builds the feed identity of a follow row.
func FollowActivityID(followID uint) string {
	return fmt.Sprintf("follow_%d", followID)
}

// FollowSuggestion is a ranked candidate for the viewer to follow,
// computed at request time and never stored.
type FollowSuggestion struct {
	User               UserSummary `json:"user"`
	MutualFollowsCount int         `json:"mutual_follows_count"`
}

// FeedMeta describes the pagination window of a feed page.
//
// Total and TotalPages are computed over the merged window after truncation,
// not as a global count across all sources; they are an approximation kept
// for response-shape stability. Degraded is set when a source missed the
// request deadline and the page was assembled from the sources that finished.
type FeedMeta struct {
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	Total      int    `json:"total"`
	TotalPages int    `json:"total_pages"`
	HasNext    bool   `json:"has_next"`
	HasPrev    bool   `json:"has_prev"`
	NextCursor string `json:"next_cursor,omitempty"`
	Degraded   bool   `json:"degraded,omitempty"`
}

// FeedPage is one page of a viewer's activity feed.
type FeedPage struct {
	Items []ActivityItem `json:"items"`
	Meta  FeedMeta       `json:"meta"`
}
