package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"gamelog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource is an in-memory ActivitySource for merge tests.
type stubSource struct {
	name    string
	typ     models.ActivityType
	fetchFn func(ctx context.Context, authorIDs []uint, limit int, before *time.Time) ([]models.ActivityItem, bool, error)
}

func (s *stubSource) Name() string              { return s.name }
func (s *stubSource) Type() models.ActivityType { return s.typ }

func (s *stubSource) Fetch(ctx context.Context, authorIDs []uint, limit int, before *time.Time) ([]models.ActivityItem, bool, error) {
	return s.fetchFn(ctx, authorIDs, limit, before)
}

func reviewItem(rowID uint, actorID uint, at time.Time) models.ActivityItem {
	return models.ActivityItem{
		ID:        models.ReviewActivityID(rowID),
		Type:      models.ActivityTypeReview,
		ActorID:   actorID,
		CreatedAt: at,
		RowID:     rowID,
	}
}

func followItem(rowID uint, actorID uint, at time.Time) models.ActivityItem {
	return models.ActivityItem{
		ID:        models.FollowActivityID(rowID),
		Type:      models.ActivityTypeFollow,
		ActorID:   actorID,
		CreatedAt: at,
		RowID:     rowID,
	}
}

func staticSource(name string, typ models.ActivityType, items ...models.ActivityItem) *stubSource {
	return &stubSource{
		name: name,
		typ:  typ,
		fetchFn: func(ctx context.Context, authorIDs []uint, limit int, before *time.Time) ([]models.ActivityItem, bool, error) {
			allowed := make(map[uint]struct{}, len(authorIDs))
			for _, id := range authorIDs {
				allowed[id] = struct{}{}
			}
			out := make([]models.ActivityItem, 0, len(items))
			for _, item := range items {
				if _, ok := allowed[item.ActorID]; !ok {
					continue
				}
				if before != nil && !item.CreatedAt.Before(*before) {
					continue
				}
				if len(out) == limit {
					break
				}
				out = append(out, item)
			}
			return out, len(out) < limit, nil
		},
	}
}

func feedFollowRepo(followees ...uint) *stubFollowRepo {
	return &stubFollowRepo{
		listFolloweesFn: func(ctx context.Context, followerID uint) ([]uint, error) {
			return followees, nil
		},
	}
}

func TestFeedService_MergesSourcesNewestFirst(t *testing.T) {
	t.Parallel()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	reviews := staticSource("reviews", models.ActivityTypeReview,
		reviewItem(1, 2, base.Add(3*time.Hour)),
		reviewItem(2, 3, base.Add(1*time.Hour)),
	)
	follows := staticSource("follows", models.ActivityTypeFollow,
		followItem(10, 2, base.Add(2*time.Hour)),
		followItem(11, 3, base),
	)

	svc := NewFeedService(feedFollowRepo(2, 3), time.Second, reviews, follows)

	page, err := svc.GetActivityFeed(context.Background(), 1, FeedQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 4)
	assert.Equal(t, "review_1", page.Items[0].ID)
	assert.Equal(t, "follow_10", page.Items[1].ID)
	assert.Equal(t, "review_2", page.Items[2].ID)
	assert.Equal(t, "follow_11", page.Items[3].ID)
	assert.False(t, page.Meta.HasNext)
	assert.False(t, page.Meta.Degraded)
	assert.Empty(t, page.Meta.NextCursor)
}

func TestFeedService_InterestSetIsFolloweesPlusViewer(t *testing.T) {
	t.Parallel()
	var gotAuthors []uint
	src := &stubSource{
		name: "reviews",
		typ:  models.ActivityTypeReview,
		fetchFn: func(ctx context.Context, authorIDs []uint, limit int, before *time.Time) ([]models.ActivityItem, bool, error) {
			gotAuthors = authorIDs
			return nil, true, nil
		},
	}

	svc := NewFeedService(feedFollowRepo(2, 3), time.Second, src)

	_, err := svc.GetActivityFeed(context.Background(), 1, FeedQuery{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{1, 2, 3}, gotAuthors)
}

func TestFeedService_ViewerIsolation(t *testing.T) {
	t.Parallel()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Viewer 1 follows 2 and 3 but not 4; activity by 4 never appears.
	reviews := staticSource("reviews", models.ActivityTypeReview,
		reviewItem(1, 2, base.Add(2*time.Hour)),
		reviewItem(2, 4, base.Add(1*time.Hour)),
		reviewItem(3, 3, base),
	)

	svc := NewFeedService(feedFollowRepo(2, 3), time.Second, reviews)

	page, err := svc.GetActivityFeed(context.Background(), 1, FeedQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "review_1", page.Items[0].ID)
	assert.Equal(t, "review_3", page.Items[1].ID)
}

func TestFeedService_DeduplicatesByItemIdentity(t *testing.T) {
	t.Parallel()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	dup := reviewItem(1, 2, base)

	a := staticSource("reviews", models.ActivityTypeReview, dup)
	b := staticSource("reviews_replica", models.ActivityTypeReview, dup)

	svc := NewFeedService(feedFollowRepo(2), time.Second, a, b)

	page, err := svc.GetActivityFeed(context.Background(), 1, FeedQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "review_1", page.Items[0].ID)
}

func TestFeedService_TimestampTieBreakIsDeterministic(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	reviews := staticSource("reviews", models.ActivityTypeReview,
		reviewItem(5, 2, at),
		reviewItem(3, 2, at),
	)
	follows := staticSource("follows", models.ActivityTypeFollow,
		followItem(9, 2, at),
	)

	svc := NewFeedService(feedFollowRepo(2), time.Second, reviews, follows)

	page, err := svc.GetActivityFeed(context.Background(), 1, FeedQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	// FOLLOW sorts before REVIEW on equal timestamps, then ascending row ID.
	assert.Equal(t, "follow_9", page.Items[0].ID)
	assert.Equal(t, "review_3", page.Items[1].ID)
	assert.Equal(t, "review_5", page.Items[2].ID)
}

func TestFeedService_SlowSourceDegradesPage(t *testing.T) {
	t.Parallel()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	reviews := staticSource("reviews", models.ActivityTypeReview,
		reviewItem(1, 2, base),
	)
	follows := &stubSource{
		name: "follows",
		typ:  models.ActivityTypeFollow,
		fetchFn: func(ctx context.Context, authorIDs []uint, limit int, before *time.Time) ([]models.ActivityItem, bool, error) {
			return nil, false, context.DeadlineExceeded
		},
	}

	svc := NewFeedService(feedFollowRepo(2), time.Second, reviews, follows)

	page, err := svc.GetActivityFeed(context.Background(), 1, FeedQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "review_1", page.Items[0].ID)
	assert.True(t, page.Meta.Degraded)
}

func TestFeedService_SourceErrorFailsPage(t *testing.T) {
	t.Parallel()
	boom := errors.New("connection reset")
	src := &stubSource{
		name: "reviews",
		typ:  models.ActivityTypeReview,
		fetchFn: func(ctx context.Context, authorIDs []uint, limit int, before *time.Time) ([]models.ActivityItem, bool, error) {
			return nil, false, boom
		},
	}

	svc := NewFeedService(feedFollowRepo(2), time.Second, src)

	_, err := svc.GetActivityFeed(context.Background(), 1, FeedQuery{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestFeedService_TypeFilter(t *testing.T) {
	t.Parallel()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	followsQueried := false
	reviews := staticSource("reviews", models.ActivityTypeReview,
		reviewItem(1, 2, base),
	)
	follows := &stubSource{
		name: "follows",
		typ:  models.ActivityTypeFollow,
		fetchFn: func(ctx context.Context, authorIDs []uint, limit int, before *time.Time) ([]models.ActivityItem, bool, error) {
			followsQueried = true
			return nil, true, nil
		},
	}

	svc := NewFeedService(feedFollowRepo(2), time.Second, reviews, follows)

	page, err := svc.GetActivityFeed(context.Background(), 1, FeedQuery{Type: models.ActivityTypeReview})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, models.ActivityTypeReview, page.Items[0].Type)
	assert.False(t, followsQueried, "filtered-out sources must not be queried")

	_, err = svc.GetActivityFeed(context.Background(), 1, FeedQuery{Type: "LIKE"})
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, models.CodeValidation, appErr.Code)
}

func TestFeedService_TruncationAndCursor(t *testing.T) {
	t.Parallel()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	items := make([]models.ActivityItem, 0, 5)
	for i := 0; i < 5; i++ {
		items = append(items, reviewItem(uint(i+1), 2, base.Add(-time.Duration(i)*time.Hour)))
	}
	reviews := staticSource("reviews", models.ActivityTypeReview, items...)

	svc := NewFeedService(feedFollowRepo(2), time.Second, reviews)

	page, err := svc.GetActivityFeed(context.Background(), 1, FeedQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.True(t, page.Meta.HasNext)
	assert.False(t, page.Meta.HasPrev)

	cursor, err := time.Parse(time.RFC3339Nano, page.Meta.NextCursor)
	require.NoError(t, err)
	assert.True(t, cursor.Equal(page.Items[1].CreatedAt))

	// The next page starts strictly below the cursor.
	next, err := svc.GetActivityFeed(context.Background(), 1, FeedQuery{Limit: 2, Before: &cursor})
	require.NoError(t, err)
	require.Len(t, next.Items, 2)
	assert.Equal(t, "review_3", next.Items[0].ID)
	assert.Equal(t, "review_4", next.Items[1].ID)
	assert.True(t, next.Meta.HasPrev)
}

func TestFeedService_CursorBoundaryTieSkipsRemainingTies(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Three items share the exact timestamp that becomes the page cursor.
	// The cursor is strictly exclusive, so the tied item that missed the
	// first page is skipped on the second; this is the accepted tolerance
	// for identical timestamps at a page boundary, in exchange for never
	// duplicating an item across pages.
	reviews := staticSource("reviews", models.ActivityTypeReview,
		reviewItem(1, 2, at),
		reviewItem(2, 2, at),
		reviewItem(3, 2, at),
		reviewItem(4, 2, at.Add(-time.Hour)),
	)

	svc := NewFeedService(feedFollowRepo(2), time.Second, reviews)

	first, err := svc.GetActivityFeed(context.Background(), 1, FeedQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.Equal(t, "review_1", first.Items[0].ID)
	assert.Equal(t, "review_2", first.Items[1].ID)
	require.True(t, first.Meta.HasNext)

	cursor, err := time.Parse(time.RFC3339Nano, first.Meta.NextCursor)
	require.NoError(t, err)
	require.True(t, cursor.Equal(at))

	second, err := svc.GetActivityFeed(context.Background(), 1, FeedQuery{Limit: 2, Before: &cursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "review_4", second.Items[0].ID)

	// No item appears twice; review_3, tied at the boundary, is the one lost.
	seen := map[string]int{}
	for _, item := range append(first.Items, second.Items...) {
		seen[item.ID]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "item %s duplicated across pages", id)
	}
	assert.NotContains(t, seen, "review_3")
}

func TestFeedService_EmptyFeed(t *testing.T) {
	t.Parallel()
	reviews := staticSource("reviews", models.ActivityTypeReview)

	svc := NewFeedService(feedFollowRepo(), time.Second, reviews)

	page, err := svc.GetActivityFeed(context.Background(), 1, FeedQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.False(t, page.Meta.HasNext)
	assert.Empty(t, page.Meta.NextCursor)
	assert.Equal(t, 0, page.Meta.TotalPages)
}

func TestFeedService_LimitBounds(t *testing.T) {
	t.Parallel()
	var gotLimit int
	src := &stubSource{
		name: "reviews",
		typ:  models.ActivityTypeReview,
		fetchFn: func(ctx context.Context, authorIDs []uint, limit int, before *time.Time) ([]models.ActivityItem, bool, error) {
			gotLimit = limit
			return nil, true, nil
		},
	}
	svc := NewFeedService(feedFollowRepo(), time.Second, src)

	_, err := svc.GetActivityFeed(context.Background(), 1, FeedQuery{Limit: 0})
	require.NoError(t, err)
	assert.Equal(t, FeedDefaultLimit, gotLimit)

	_, err = svc.GetActivityFeed(context.Background(), 1, FeedQuery{Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, FeedMaxLimit, gotLimit)
}
