package service

import (
	"context"
	"sort"

	"gamelog/internal/cache"
	"gamelog/internal/featureflags"
	"gamelog/internal/models"
	"gamelog/internal/observability"
	"gamelog/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// Suggestion list bounds.
const (
	SuggestionsDefaultLimit = 10
	SuggestionsCachedMax    = 50
)

// SuggestionService ranks follow candidates for a viewer by mutual-follow
// overlap: users the viewer does not yet follow, ordered by how many users
// the viewer and the candidate both follow.
type SuggestionService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	flags      *featureflags.Manager
}

// NewSuggestionService returns a new SuggestionService. flags may be nil;
// the "suggestions_no_cache" flag is an operational kill switch that bypasses
// the per-viewer cache for flagged users.
func NewSuggestionService(followRepo repository.FollowRepository, userRepo repository.UserRepository, flags *featureflags.Manager) *SuggestionService {
	return &SuggestionService{followRepo: followRepo, userRepo: userRepo, flags: flags}
}

// GetSuggestions returns up to limit ranked follow suggestions for the viewer.
//
// The ranked list is cached per viewer; the cache is invalidated whenever the
// viewer's own follow set changes, so a freshly followed user never reappears
// as a suggestion. Staleness from other users' follow activity is bounded by
// the cache TTL.
func (s *SuggestionService) GetSuggestions(ctx context.Context, viewerID uint, limit int) ([]models.FollowSuggestion, error) {
	if limit <= 0 {
		limit = SuggestionsDefaultLimit
	}
	if limit > SuggestionsCachedMax {
		limit = SuggestionsCachedMax
	}

	var ranked []models.FollowSuggestion
	if s.flags.Enabled("suggestions_no_cache", viewerID) {
		var err error
		ranked, err = s.rank(ctx, viewerID)
		if err != nil {
			return nil, err
		}
	} else {
		err := cache.CacheAside(ctx, cache.SuggestionsKey(viewerID), &ranked, cache.SuggestionsTTL, func() error {
			var rankErr error
			ranked, rankErr = s.rank(ctx, viewerID)
			return rankErr
		})
		if err != nil {
			return nil, err
		}
	}

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// rank builds the full candidate ranking from the follow graph in two batched
// edge queries: one over the viewer's followees discovers the candidates, one
// over the candidates yields their followee sets. A candidate's score is the
// size of the intersection of the viewer's and the candidate's followee sets,
// the same definition GetMutualFollows uses.
func (s *SuggestionService) rank(ctx context.Context, viewerID uint) ([]models.FollowSuggestion, error) {
	span, ctx := observability.NewSpan(ctx, "suggestions.rank")
	defer span.End()

	followees, err := s.followRepo.ListFollowees(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if len(followees) == 0 {
		return []models.FollowSuggestion{}, nil
	}

	followeeSet := make(map[uint]struct{}, len(followees))
	excluded := make(map[uint]struct{}, len(followees)+1)
	excluded[viewerID] = struct{}{}
	for _, id := range followees {
		followeeSet[id] = struct{}{}
		excluded[id] = struct{}{}
	}

	// Candidates: everyone the viewer's followees follow, minus the viewer
	// and anyone already followed.
	edges, err := s.followRepo.ListEdgesFrom(ctx, followees)
	if err != nil {
		return nil, err
	}
	candidates := make(map[uint]struct{})
	for _, e := range edges {
		if _, skip := excluded[e.FolloweeID]; skip {
			continue
		}
		candidates[e.FolloweeID] = struct{}{}
	}
	if len(candidates) == 0 {
		return []models.FollowSuggestion{}, nil
	}

	candidateIDs := make([]uint, 0, len(candidates))
	for id := range candidates {
		candidateIDs = append(candidateIDs, id)
	}

	// Score: each edge candidate -> X with X also followed by the viewer is
	// one mutual follow. A candidate following nobody the viewer follows
	// scores zero but stays in the list.
	candidateEdges, err := s.followRepo.ListEdgesFrom(ctx, candidateIDs)
	if err != nil {
		return nil, err
	}
	mutualCounts := make(map[uint]int, len(candidates))
	for _, e := range candidateEdges {
		if _, mutual := followeeSet[e.FolloweeID]; mutual {
			mutualCounts[e.FollowerID]++
		}
	}
	users, err := s.userRepo.GetByIDs(ctx, candidateIDs)
	if err != nil {
		return nil, err
	}

	suggestions := make([]models.FollowSuggestion, 0, len(users))
	recency := make(map[uint]int64, len(users))
	for i := range users {
		u := &users[i]
		suggestions = append(suggestions, models.FollowSuggestion{
			User:               u.Summary(),
			MutualFollowsCount: mutualCounts[u.ID],
		})
		recency[u.ID] = u.CreatedAt.UnixNano()
	}

	// Mutual count descending, then newer accounts first, then ID for a
	// stable order.
	sort.Slice(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if a.MutualFollowsCount != b.MutualFollowsCount {
			return a.MutualFollowsCount > b.MutualFollowsCount
		}
		if recency[a.User.ID] != recency[b.User.ID] {
			return recency[a.User.ID] > recency[b.User.ID]
		}
		return a.User.ID < b.User.ID
	})

	if len(suggestions) > SuggestionsCachedMax {
		suggestions = suggestions[:SuggestionsCachedMax]
	}

	span.AddAttributes(
		attribute.Int("suggestions.viewer_id", int(viewerID)),
		attribute.Int("suggestions.candidates", len(suggestions)),
	)
	return suggestions, nil
}
