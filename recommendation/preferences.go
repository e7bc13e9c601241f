package recommendation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"closetapi/models"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	ristretto_store "github.com/eko/gocache/store/ristretto/v4"
	"github.com/getsentry/sentry-go"
	"gorm.io/gorm"
)

// preference snapshots are cheap to rebuild, a short TTL keeps them fresh
// without hammering the oracle on every generation
const preferenceCacheTTL = 10 * time.Minute

// liked outfits considered when learning preferences
const preferenceWindow = 20

// feedback at or above this rating counts as an endorsement
const likedRatingThreshold = 4

// UserPreferences is the learned taste profile fed into the
// user_preference strategy and persisted as a snapshot row.
type UserPreferences struct {
	FavoriteColors       []string `json:"favorite_colors"`
	PreferredStyles      []string `json:"preferred_styles"`
	UsualFormality       string   `json:"usual_formality"`
	FavoriteCombinations []string `json:"favorite_combinations"`
	Confidence           float64  `json:"confidence"`
}

// EmptyPreferences is the profile of a user with no liked outfits yet.
func EmptyPreferences() UserPreferences {
	return UserPreferences{
		FavoriteColors:       []string{},
		PreferredStyles:      []string{},
		FavoriteCombinations: []string{},
		UsualFormality:       "",
		Confidence:           0,
	}
}

type preferenceCache struct {
	cache *cache.LoadableCache[UserPreferences]
}

func newPreferenceCache(load func(ctx context.Context, userID uint) (UserPreferences, error)) (*preferenceCache, error) {
	ristrettoCache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     1 << 24,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ristretto cache: %w", err)
	}

	ristrettoStore := ristretto_store.NewRistretto(ristrettoCache)

	loadFunction := func(ctx context.Context, key any) (UserPreferences, []store.Option, error) {
		userID, ok := key.(uint)
		if !ok {
			return EmptyPreferences(), nil, fmt.Errorf("invalid preference cache key: expected uint, got %T", key)
		}
		prefs, err := load(ctx, userID)
		return prefs, []store.Option{store.WithExpiration(preferenceCacheTTL)}, err
	}

	return &preferenceCache{
		cache: cache.NewLoadable[UserPreferences](
			loadFunction,
			cache.New[UserPreferences](ristrettoStore),
		),
	}, nil
}

func (p *preferenceCache) Get(ctx context.Context, userID uint) (UserPreferences, error) {
	return p.cache.Get(ctx, userID)
}

func (p *preferenceCache) Invalidate(ctx context.Context, userID uint) {
	if err := p.cache.Delete(ctx, userID); err != nil {
		fmt.Printf("[Preferences] Failed to invalidate cache for user %d: %v\n", userID, err)
	}
}

// UserPreferencesFor returns the cached taste profile, learning it on a miss.
func (e *Engine) UserPreferencesFor(ctx context.Context, userID uint) UserPreferences {
	prefs, err := e.prefs.Get(ctx, userID)
	if err != nil {
		fmt.Printf("[Preferences] Falling back to empty preferences for user %d: %v\n", userID, err)
		return EmptyPreferences()
	}
	return prefs
}

// likedOutfit is what the learner shows the oracle about one endorsed outfit.
type likedOutfit struct {
	Event    string   `json:"event"`
	Strategy string   `json:"strategy"`
	Rating   int      `json:"rating"`
	Items    []string `json:"items"`
}

// LearnPreferences rebuilds a user's taste profile from their recent liked
// outfits. A user with no liked history gets the empty profile without a
// single oracle call.
func (e *Engine) LearnPreferences(ctx context.Context, userID uint) (UserPreferences, error) {
	liked, err := e.collectLikedOutfits(userID)
	if err != nil {
		return EmptyPreferences(), err
	}
	if len(liked) == 0 {
		return EmptyPreferences(), nil
	}

	likedJSON, _ := json.Marshal(liked)
	prompt := fmt.Sprintf(`Analyze the outfits this user liked and extract their style preferences.

LIKED OUTFITS: %s

MANDATORY RESPONSE:
Return ONLY a valid JSON object in this format:
{"favorite_colors": ["..."], "preferred_styles": ["..."], "usual_formality": "...", "favorite_combinations": ["..."], "confidence": 0.8}`, likedJSON)

	var prefs UserPreferences
	if !e.decodeOracle(ctx, prompt, &prefs, "[Preferences]") {
		return EmptyPreferences(), nil
	}
	return prefs, nil
}

// collectLikedOutfits walks the user's most recent outfits and keeps the
// ones endorsed with a high rating, together with their item descriptions.
func (e *Engine) collectLikedOutfits(userID uint) ([]likedOutfit, error) {
	var outfits []models.Outfit
	err := e.DB.Where("owner_id = ?", userID).
		Order("id desc").Limit(preferenceWindow).Find(&outfits).Error
	if err != nil {
		sentry.CaptureException(err)
		return nil, err
	}

	var liked []likedOutfit
	for _, outfit := range outfits {
		var feedback models.OutfitFeedback
		err := e.DB.Where("outfit_id = ? AND rating >= ?", outfit.ID, likedRatingThreshold).
			Order("id desc").First(&feedback).Error
		if err != nil {
			if err != gorm.ErrRecordNotFound {
				sentry.CaptureException(err)
			}
			continue
		}
		liked = append(liked, likedOutfit{
			Event:    outfit.EventRaw,
			Strategy: outfit.Strategy,
			Rating:   feedback.Rating,
			Items:    e.describeOutfitItems(outfit),
		})
	}
	return liked, nil
}

func (e *Engine) describeOutfitItems(outfit models.Outfit) []string {
	items, err := e.OutfitItemsFull(outfit.ItemIDs)
	if err != nil {
		return nil
	}
	descriptions := make([]string, 0, len(items))
	for _, item := range items {
		descriptions = append(descriptions, fmt.Sprintf("%s (%s, %s)", item.Name, item.Color, item.Style))
	}
	return descriptions
}
