package recommendation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"closetapi/models"
	"closetapi/services"

	"github.com/getsentry/sentry-go"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Engine is the outfit generation pipeline. One instance is shared across
// requests, it holds no per-request state.
type Engine struct {
	DB     *gorm.DB
	Oracle services.TextOracleProvider
	Trends TrendConfig

	prefs *preferenceCache
}

func NewEngine(db *gorm.DB, oracle services.TextOracleProvider, trends TrendConfig) (*Engine, error) {
	e := &Engine{DB: db, Oracle: oracle, Trends: trends}
	prefs, err := newPreferenceCache(func(ctx context.Context, userID uint) (UserPreferences, error) {
		return e.LearnPreferences(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	e.prefs = prefs
	return e, nil
}

// Result is everything the generation pipeline produces for one request.
type Result struct {
	Outfit         models.Outfit         `json:"outfit"`
	Items          []models.ClothingItem `json:"items"`
	Recommendation string                `json:"recommendation"`
	Confidence     float64               `json:"confidence"`
	EventContext   EventContext          `json:"event_context"`
	Validation     ValidationResult      `json:"validation"`
}

// decodeOracle runs one oracle prompt and decodes the first JSON object out
// of the answer. False means the caller should use its stage fallback.
func (e *Engine) decodeOracle(ctx context.Context, prompt string, v any, tag string) bool {
	response, err := e.Oracle.Complete(ctx, prompt)
	if err != nil {
		fmt.Printf("%s Oracle failed: %v\n", tag, err)
		return false
	}
	if !decodeFirstJSON(response, v) {
		fmt.Printf("%s Unparseable oracle response: %q\n", tag, response)
		return false
	}
	return true
}

// GenerateOutfit runs the full pipeline for one user and event. The only
// errors it returns are a *GenerationError (no viable outfit) or a
// persistence failure; oracle trouble at any stage degrades to that
// stage's fallback instead.
func (e *Engine) GenerateOutfit(ctx context.Context, userID uint, eventRaw string, eventJSON string, gender string) (*Result, error) {
	started := time.Now()

	var wardrobe []models.ClothingItem
	if err := e.DB.Where("owner_id = ?", userID).Find(&wardrobe).Error; err != nil {
		sentry.CaptureException(err)
		return nil, err
	}
	if len(wardrobe) == 0 {
		return nil, &GenerationError{Message: "Your wardrobe is empty. Add some clothing items before generating an outfit."}
	}

	eventContext := e.analyzeEventContext(ctx, eventRaw, eventJSON)
	prefs := e.UserPreferencesFor(ctx, userID)
	scored := e.scoreItemsForEvent(ctx, prepareItemDescriptions(wardrobe), eventContext, gender)

	sel, genErr := e.assembleWithStrategies(ctx, eventRaw, eventContext, scored, prefs, gender)
	if genErr != nil {
		return nil, genErr
	}

	itemIDs := make(pq.Int64Array, 0, len(sel.ItemIDs))
	for _, id := range sel.ItemIDs {
		itemIDs = append(itemIDs, int64(id))
	}
	items, err := e.OutfitItemsFull(itemIDs)
	if err != nil {
		sentry.CaptureException(err)
		return nil, err
	}

	validation := e.validateOutfit(ctx, items, eventContext)
	recommendation := e.narrateOutfit(ctx, eventRaw, items, eventContext, validation)

	outfit := models.Outfit{
		OwnerID:  userID,
		EventRaw: eventRaw,
		ItemIDs:  itemIDs,
		Strategy: sel.Strategy,
	}
	if eventJSON != "" {
		outfit.EventJSON = services.StrPointer(eventJSON)
	}
	if err := e.DB.Create(&outfit).Error; err != nil {
		sentry.CaptureException(err)
		return nil, err
	}

	e.recordAnalytics(outfit, validation, time.Since(started))

	return &Result{
		Outfit:         outfit,
		Items:          items,
		Recommendation: recommendation,
		Confidence:     validation.Confidence,
		EventContext:   eventContext,
		Validation:     validation,
	}, nil
}

// recordAnalytics is best-effort, an analytics write failure never fails a
// generation that already persisted its outfit.
func (e *Engine) recordAnalytics(outfit models.Outfit, validation ValidationResult, elapsed time.Duration) {
	seconds := elapsed.Seconds()
	row := models.OutfitAnalytics{
		OwnerID:                 outfit.OwnerID,
		OutfitID:                outfit.ID,
		StrategyUsed:            outfit.Strategy,
		ConfidenceScore:         validation.Confidence,
		ValidationScore:         validation.Score,
		ColorHarmonyScore:       validation.ColorHarmony,
		StyleCompatibilityScore: validation.StyleCompatibility,
		GenerationTime:          &seconds,
	}
	if err := e.DB.Create(&row).Error; err != nil {
		fmt.Printf("[Analytics] Failed to record generation analytics for outfit %d: %v\n", outfit.ID, err)
		sentry.CaptureException(err)
	}
}

// OutfitItemsFull resolves outfit item ids back to full item records,
// preserving the stored order. Missing ids are skipped silently, items may
// have been deleted since the outfit was saved.
func (e *Engine) OutfitItemsFull(ids pq.Int64Array) ([]models.ClothingItem, error) {
	if len(ids) == 0 {
		return []models.ClothingItem{}, nil
	}
	var fetched []models.ClothingItem
	if err := e.DB.Where("id IN ?", []int64(ids)).Find(&fetched).Error; err != nil {
		return nil, err
	}
	byID := make(map[int64]models.ClothingItem, len(fetched))
	for _, item := range fetched {
		byID[int64(item.ID)] = item
	}
	ordered := make([]models.ClothingItem, 0, len(ids))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			ordered = append(ordered, item)
		}
	}
	return ordered, nil
}

// RecordFeedback stores a rating for one of the user's outfits and drops
// the cached preference snapshot so the next generation sees fresh taste.
func (e *Engine) RecordFeedback(ctx context.Context, userID uint, outfitID uint, rating int, comment string) (*models.OutfitFeedback, error) {
	var outfit models.Outfit
	err := e.DB.Where("id = ? AND owner_id = ?", outfitID, userID).First(&outfit).Error
	if err != nil {
		return nil, err
	}

	feedback := models.OutfitFeedback{
		OwnerID:  userID,
		OutfitID: outfit.ID,
		Rating:   rating,
		Comment:  comment,
	}
	if err := e.DB.Create(&feedback).Error; err != nil {
		sentry.CaptureException(err)
		return nil, err
	}

	e.prefs.Invalidate(ctx, userID)
	return &feedback, nil
}

// AnalyticsSummary aggregates a user's generation history.
type AnalyticsSummary struct {
	TotalOutfits   int64           `json:"total_outfits"`
	AverageRating  float64         `json:"average_rating"`
	StrategyCounts map[string]int  `json:"strategy_counts"`
	MostUsedItems  []ItemUsage     `json:"most_used_items"`
	RecentOutfits  []models.Outfit `json:"recent_outfits"`
}

type ItemUsage struct {
	Item models.ClothingItem `json:"item"`
	Uses int                 `json:"uses"`
}

const mostUsedItemsLimit = 5
const recentOutfitsLimit = 10

// Analytics summarizes the user's outfit history. It is computed from the
// outfit rows directly rather than the analytics table so deleted analytics
// rows never skew the counts.
func (e *Engine) Analytics(userID uint) (*AnalyticsSummary, error) {
	var outfits []models.Outfit
	if err := e.DB.Where("owner_id = ?", userID).Order("id desc").Find(&outfits).Error; err != nil {
		return nil, err
	}

	summary := &AnalyticsSummary{
		TotalOutfits:   int64(len(outfits)),
		StrategyCounts: map[string]int{},
		MostUsedItems:  []ItemUsage{},
		RecentOutfits:  outfits,
	}
	if len(outfits) > recentOutfitsLimit {
		summary.RecentOutfits = outfits[:recentOutfitsLimit]
	}

	usage := map[int64]int{}
	for _, outfit := range outfits {
		summary.StrategyCounts[outfit.Strategy]++
		for _, id := range outfit.ItemIDs {
			usage[id]++
		}
	}

	var avg sql.NullFloat64
	err := e.DB.Model(&models.OutfitFeedback{}).
		Where("owner_id = ?", userID).
		Select("avg(rating)").Scan(&avg).Error
	if err != nil {
		sentry.CaptureException(err)
	} else if avg.Valid {
		summary.AverageRating = avg.Float64
	}

	summary.MostUsedItems = e.topUsedItems(usage)
	return summary, nil
}

func (e *Engine) topUsedItems(usage map[int64]int) []ItemUsage {
	ids := make(pq.Int64Array, 0, len(usage))
	for id := range usage {
		ids = append(ids, id)
	}
	items, err := e.OutfitItemsFull(ids)
	if err != nil {
		sentry.CaptureException(err)
		return []ItemUsage{}
	}

	ranked := make([]ItemUsage, 0, len(items))
	for _, item := range items {
		ranked = append(ranked, ItemUsage{Item: item, Uses: usage[int64(item.ID)]})
	}
	// highest use count first, id as tiebreaker for stable output
	for i := 0; i < len(ranked); i++ {
		for j := i + 1; j < len(ranked); j++ {
			if ranked[j].Uses > ranked[i].Uses ||
				(ranked[j].Uses == ranked[i].Uses && ranked[j].Item.ID < ranked[i].Item.ID) {
				ranked[i], ranked[j] = ranked[j], ranked[i]
			}
		}
	}
	if len(ranked) > mostUsedItemsLimit {
		ranked = ranked[:mostUsedItemsLimit]
	}
	return ranked
}
