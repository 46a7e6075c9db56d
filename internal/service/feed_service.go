package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"gamelog/internal/middleware"
	"gamelog/internal/models"
	"gamelog/internal/observability"
	"gamelog/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// Feed pagination bounds.
const (
	FeedDefaultLimit = 20
	FeedMaxLimit     = 50
)

// ActivitySource is a read-only adapter over one kind of activity row. Fetch
// returns up to limit items authored by the given users, newest first,
// bounded to created_at < before when set. The second return reports whether
// the source is exhausted: fewer than limit rows means no more data exists
// below the current window.
type ActivitySource interface {
	Name() string
	Type() models.ActivityType
	Fetch(ctx context.Context, authorIDs []uint, limit int, before *time.Time) ([]models.ActivityItem, bool, error)
}

type reviewActivitySource struct {
	reviews repository.ReviewRepository
}

// NewReviewActivitySource adapts published reviews into feed items.
func NewReviewActivitySource(reviews repository.ReviewRepository) ActivitySource {
	return &reviewActivitySource{reviews: reviews}
}

func (s *reviewActivitySource) Name() string             { return "reviews" }
func (s *reviewActivitySource) Type() models.ActivityType { return models.ActivityTypeReview }

func (s *reviewActivitySource) Fetch(ctx context.Context, authorIDs []uint, limit int, before *time.Time) ([]models.ActivityItem, bool, error) {
	defer func(start time.Time) { observability.ObserveSourceFetch(s.Name(), start) }(time.Now())

	rows, err := s.reviews.FetchPublishedByAuthors(ctx, authorIDs, limit, before)
	if err != nil {
		return nil, false, err
	}

	items := make([]models.ActivityItem, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		items = append(items, models.ActivityItem{
			ID:        models.ReviewActivityID(r.ID),
			Type:      models.ActivityTypeReview,
			ActorID:   r.UserID,
			CreatedAt: r.CreatedAt,
			RowID:     r.ID,
			Payload: models.ReviewActivityPayload{
				ReviewID:  r.ID,
				Rating:    r.Rating,
				Title:     r.Title,
				IsSpoiler: r.IsSpoiler,
				Author:    r.User.Summary(),
				Game:      r.Game.Summary(),
			},
		})
	}
	return items, len(rows) < limit, nil
}

type followActivitySource struct {
	follows repository.FollowRepository
}

// NewFollowActivitySource adapts follow-edge creations into feed items.
func NewFollowActivitySource(follows repository.FollowRepository) ActivitySource {
	return &followActivitySource{follows: follows}
}

func (s *followActivitySource) Name() string             { return "follows" }
func (s *followActivitySource) Type() models.ActivityType { return models.ActivityTypeFollow }

func (s *followActivitySource) Fetch(ctx context.Context, authorIDs []uint, limit int, before *time.Time) ([]models.ActivityItem, bool, error) {
	defer func(start time.Time) { observability.ObserveSourceFetch(s.Name(), start) }(time.Now())

	rows, err := s.follows.FetchByFollowers(ctx, authorIDs, limit, before)
	if err != nil {
		return nil, false, err
	}

	items := make([]models.ActivityItem, 0, len(rows))
	for i := range rows {
		f := &rows[i]
		items = append(items, models.ActivityItem{
			ID:        models.FollowActivityID(f.ID),
			Type:      models.ActivityTypeFollow,
			ActorID:   f.FollowerID,
			CreatedAt: f.CreatedAt,
			RowID:     f.ID,
			Payload: models.FollowActivityPayload{
				Follower: f.Follower.Summary(),
				Followee: f.Followee.Summary(),
			},
		})
	}
	return items, len(rows) < limit, nil
}

// FeedQuery is a feed page request.
type FeedQuery struct {
	Page   int
	Limit  int
	Type   models.ActivityType // empty means all types
	Before *time.Time          // continuation cursor from the previous page
}

// FeedService merges the independently paginated activity sources into one
// globally time-ordered feed for a viewer.
type FeedService struct {
	followRepo    repository.FollowRepository
	sources       []ActivitySource
	sourceTimeout time.Duration
}

// NewFeedService returns a FeedService drawing from the given sources.
// sourceTimeout bounds each source fetch; a source missing it degrades the
// page instead of failing it.
func NewFeedService(followRepo repository.FollowRepository, sourceTimeout time.Duration, sources ...ActivitySource) *FeedService {
	return &FeedService{followRepo: followRepo, sources: sources, sourceTimeout: sourceTimeout}
}

type sourceResult struct {
	items     []models.ActivityItem
	exhausted bool
	err       error
}

// GetActivityFeed assembles one page of the viewer's feed.
//
// Every enabled source is queried concurrently with the full page limit
// (deliberate oversampling: with independent timestamp distributions this
// guarantees a full merged page without a second fetch round). The results
// are deduplicated by item identity, sorted by created_at descending with a
// deterministic tie-break, and truncated to the page limit.
func (s *FeedService) GetActivityFeed(ctx context.Context, viewerID uint, q FeedQuery) (*models.FeedPage, error) {
	span, ctx := observability.NewSpan(ctx, "feed.merge")
	defer span.End()
	defer func(start time.Time) {
		observability.FeedMergeLatency.Observe(time.Since(start).Seconds())
	}(time.Now())

	limit := q.Limit
	if limit <= 0 {
		limit = FeedDefaultLimit
	}
	if limit > FeedMaxLimit {
		limit = FeedMaxLimit
	}
	page := q.Page
	if page < 1 {
		page = 1
	}

	enabled := make([]ActivitySource, 0, len(s.sources))
	for _, src := range s.sources {
		if q.Type == "" || src.Type() == q.Type {
			enabled = append(enabled, src)
		}
	}
	if q.Type != "" && len(enabled) == 0 {
		return nil, models.NewValidationError("Unknown activity type")
	}

	// Interest set: the viewer always sees their own activity.
	followees, err := s.followRepo.ListFollowees(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	interest := append(followees, viewerID)

	span.AddAttributes(
		attribute.Int("feed.viewer_id", int(viewerID)),
		attribute.Int("feed.interest_size", len(interest)),
		attribute.Int("feed.limit", limit),
	)

	// Fan out to all enabled sources concurrently; they are independent reads.
	results := make([]sourceResult, len(enabled))
	var wg sync.WaitGroup
	for i, src := range enabled {
		wg.Add(1)
		go func(i int, src ActivitySource) {
			defer wg.Done()
			fctx, cancel := context.WithTimeout(ctx, s.sourceTimeout)
			defer cancel()

			items, exhausted, err := src.Fetch(fctx, interest, limit, q.Before)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) || errors.Is(fctx.Err(), context.DeadlineExceeded) {
					err = models.NewPartialDataError(src.Name(), err)
				}
				results[i] = sourceResult{err: err}
				return
			}
			results[i] = sourceResult{items: items, exhausted: exhausted}
		}(i, src)
	}
	wg.Wait()

	degraded := false
	anyNotExhausted := false
	merged := make([]models.ActivityItem, 0, limit*len(enabled))
	seen := make(map[string]struct{}, limit*len(enabled))
	for i, res := range results {
		if res.err != nil {
			var appErr *models.AppError
			if !errors.As(res.err, &appErr) || appErr.Code != models.CodePartialData {
				return nil, res.err
			}
			// A slow source degrades the page rather than failing it; the
			// degradation is flagged in the response meta and observable.
			degraded = true
			observability.FeedDegradedTotal.WithLabelValues(enabled[i].Name()).Inc()
			middleware.Logger.WarnContext(ctx, "activity source timed out, serving degraded feed",
				"source", enabled[i].Name(), "viewer_id", viewerID, "error", res.err)
			continue
		}
		if !res.exhausted {
			anyNotExhausted = true
		}
		for _, item := range res.items {
			if _, dup := seen[item.ID]; dup {
				continue
			}
			seen[item.ID] = struct{}{}
			merged = append(merged, item)
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.RowID < b.RowID
	})

	total := len(merged)
	items := merged
	if len(items) > limit {
		items = items[:limit]
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	meta := models.FeedMeta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    total > limit || anyNotExhausted,
		HasPrev:    page > 1 || q.Before != nil,
		Degraded:   degraded,
	}
	if len(items) > 0 && meta.HasNext {
		meta.NextCursor = items[len(items)-1].CreatedAt.UTC().Format(time.RFC3339Nano)
	}

	return &models.FeedPage{Items: items, Meta: meta}, nil
}
