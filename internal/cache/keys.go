package cache

import (
	"fmt"
	"time"
)

const (
	UserKeyPrefix        = "user:%d"
	GameKeyPrefix        = "game:%s"
	SuggestionsKeyPrefix = "suggestions:%d"
)

const (
	UserTTL        = 5 * time.Minute
	GameTTL        = 10 * time.Minute
	SuggestionsTTL = 5 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func GameKey(slug string) string {
	return fmt.Sprintf(GameKeyPrefix, slug)
}

// SuggestionsKey is invalidated whenever the viewer's own follow set changes;
// suggestions derived from second-degree changes may be up to SuggestionsTTL stale.
func SuggestionsKey(viewerID uint) string {
	return fmt.Sprintf(SuggestionsKeyPrefix, viewerID)
}
