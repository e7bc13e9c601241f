package recommendation

import (
	"context"
	"testing"

	"closetapi/dbhelper"
	"closetapi/models"
	"closetapi/test"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}) (*Engine, func()) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	engine, err := NewEngine(db, oracle, DefaultTrends())
	require.NoError(t, err)
	return engine, cleaner
}

func TestEventContextFallbackOnGarbage(t *testing.T) {
	oracle := &test.GarbageOracle{}
	engine, err := NewEngine(nil, oracle, DefaultTrends())
	require.NoError(t, err)

	got := engine.analyzeEventContext(context.Background(), "wedding in the evening", "")
	assert.Equal(t, FallbackEventContext(), got)
	assert.Equal(t, 1, oracle.Calls)
}

func TestEventContextFallbackOnOutage(t *testing.T) {
	oracle := &test.FailingOracle{}
	engine, err := NewEngine(nil, oracle, DefaultTrends())
	require.NoError(t, err)

	got := engine.analyzeEventContext(context.Background(), "casual friday", "")
	assert.Equal(t, FallbackEventContext(), got)
}

func TestGenerateOutfitEmptyWardrobe(t *testing.T) {
	oracle := &test.FailingOracle{}
	engine, cleaner := newTestEngine(t, oracle)
	defer cleaner()
	user := test.FakeUser(engine.DB)

	result, err := engine.GenerateOutfit(context.Background(), user.ID, "dinner party", "", user.Gender)
	require.Nil(t, result)
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Contains(t, genErr.Message, "empty")
	assert.Equal(t, 0, oracle.Calls, "empty wardrobe must not reach the oracle")

	var outfitCount int64
	engine.DB.Model(&models.Outfit{}).Count(&outfitCount)
	assert.Equal(t, int64(0), outfitCount)
}

func TestGenerateOutfitMissingCategories(t *testing.T) {
	oracle := &test.FailingOracle{}
	engine, cleaner := newTestEngine(t, oracle)
	defer cleaner()
	user := test.FakeUser(engine.DB)
	test.FakeItem(engine.DB, user.ID, "White Shirt", "TOP")

	result, err := engine.GenerateOutfit(context.Background(), user.ID, "job interview", "", user.Gender)
	require.Nil(t, result)
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.ElementsMatch(t, []Category{CategoryBottom, CategoryShoes}, genErr.Missing)
	assert.Contains(t, genErr.Message, "BOTTOM")
	// context + scoring only, no strategy calls for an uncoverable wardrobe
	assert.Equal(t, 2, oracle.Calls)
}

func TestGenerateOutfitFullFallback(t *testing.T) {
	oracle := &test.FailingOracle{}
	engine, cleaner := newTestEngine(t, oracle)
	defer cleaner()
	user := test.FakeUser(engine.DB)
	top := test.FakeItem(engine.DB, user.ID, "White Shirt", "TOP")
	bottom := test.FakeItem(engine.DB, user.ID, "Black Jeans", "BOTTOM")
	shoes := test.FakeItem(engine.DB, user.ID, "Sneakers", "SHOES")

	result, err := engine.GenerateOutfit(context.Background(), user.ID, "coffee with friends", "", user.Gender)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "fallback", result.Outfit.Strategy)
	assert.Equal(t, pq.Int64Array{int64(top.ID), int64(bottom.ID), int64(shoes.ID)}, result.Outfit.ItemIDs)
	assert.Equal(t, FallbackEventContext(), result.EventContext)
	assert.Equal(t, neutralValidation(), result.Validation)
	assert.Equal(t, fallbackRecommendation, result.Recommendation)
	assert.Len(t, result.Items, 3)

	var saved models.Outfit
	require.NoError(t, engine.DB.First(&saved, result.Outfit.ID).Error)
	assert.Equal(t, user.ID, saved.OwnerID)

	var analytics models.OutfitAnalytics
	require.NoError(t, engine.DB.Where("outfit_id = ?", saved.ID).First(&analytics).Error)
	assert.Equal(t, "fallback", analytics.StrategyUsed)
	assert.InDelta(t, 0.7, analytics.ConfidenceScore, 0.001)
}

func TestGenerateOutfitScriptedOracle(t *testing.T) {
	engine, cleaner := newTestEngine(t, nil)
	defer cleaner()
	user := test.FakeUser(engine.DB)
	top := test.FakeItem(engine.DB, user.ID, "Linen Shirt", "TOP")
	bottom := test.FakeItem(engine.DB, user.ID, "Chinos", "BOTTOM")
	shoes := test.FakeItem(engine.DB, user.ID, "Loafers", "SHOES")

	oracle := &test.OracleStub{Responses: map[string]string{
		"Analyze this event": `{"formality": "semi-formal", "setting": "outdoor", "time_of_day": "evening",
			"suggested_climate": "mild", "recommended_styles": ["smart casual"],
			"recommended_colors": ["beige"], "event_category": "social", "estimated_duration": "long"}`,
		"For each clothing item": test.JsonString(map[string]interface{}{
			"scores": []map[string]interface{}{
				{"id": top.ID, "score": 9.1, "reason": "great fit", "category": "TOP"},
				{"id": bottom.ID, "score": 8.4, "reason": "matches", "category": "BOTTOM"},
				{"id": shoes.ID, "score": 8.9, "reason": "elegant", "category": "SHOES"},
			},
		}),
		"AVAILABLE ITEMS PER CATEGORY": test.JsonString(map[string]interface{}{
			"outfit":     []uint{top.ID, bottom.ID, shoes.ID},
			"confidence": 0.93,
		}),
		"Evaluate this outfit": `{"valid": true, "confidence": 0.91, "score": 8.8, "color_harmony": 8.5,
			"style_compatibility": 9.0, "strengths": ["cohesive palette"], "improvements": []}`,
		"Write a short, warm recommendation": "The linen shirt with chinos and loafers is a natural match for a garden party.",
	}}
	engine.Oracle = oracle

	result, err := engine.GenerateOutfit(context.Background(), user.ID, "garden party", `{"venue": "rooftop"}`, user.Gender)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "best_scored", result.Outfit.Strategy)
	assert.Equal(t, pq.Int64Array{int64(top.ID), int64(bottom.ID), int64(shoes.ID)}, result.Outfit.ItemIDs)
	assert.Equal(t, "semi-formal", result.EventContext.Formality)
	assert.InDelta(t, 0.91, result.Confidence, 0.001)
	assert.Contains(t, result.Recommendation, "linen shirt")
	require.NotNil(t, result.Outfit.EventJSON)
	assert.JSONEq(t, `{"venue": "rooftop"}`, *result.Outfit.EventJSON)
}

func TestAssemblyFallbackPicksBestScore(t *testing.T) {
	oracle := &test.FailingOracle{}
	engine, err := NewEngine(nil, oracle, DefaultTrends())
	require.NoError(t, err)

	scored := []ScoredItem{
		{ID: 2, Score: 3.0, Category: CategoryTop},
		{ID: 1, Score: 9.0, Category: CategoryTop},
		{ID: 3, Score: 5.0, Category: CategoryBottom},
		{ID: 4, Score: 7.5, Category: CategoryShoes},
		{ID: 5, Score: 7.5, Category: CategoryShoes},
	}
	sel, genErr := engine.assembleWithStrategies(context.Background(), "picnic", FallbackEventContext(), scored, EmptyPreferences(), "male")
	require.Nil(t, genErr)
	require.NotNil(t, sel)
	assert.Equal(t, "fallback", sel.Strategy)
	// best top wins, equal shoe scores keep first-seen order
	assert.Equal(t, []uint{1, 3, 4}, sel.ItemIDs)
	// one failed call per strategy
	assert.Equal(t, 4, oracle.Calls)
}

func TestFallbackSourcesMarketplaceItems(t *testing.T) {
	engine, cleaner := newTestEngine(t, &test.FailingOracle{})
	defer cleaner()
	seller := test.FakeUserV2(engine.DB, "Seller", "seller@example.com")

	storeShoes := test.FakeItem(engine.DB, seller.ID, "Store Sneakers", "SHOES")
	storeShoes.ForSale = true
	engine.DB.Save(storeShoes)
	// not for sale, must never be sourced
	test.FakeItem(engine.DB, seller.ID, "Private Boots", "SHOES")

	groups := map[Category][]ScoredItem{
		CategoryTop:    {{ID: 1, Score: 8.0, Category: CategoryTop}},
		CategoryBottom: {{ID: 2, Score: 7.0, Category: CategoryBottom}},
	}
	sel, genErr := engine.fallbackSelection(groups)
	require.Nil(t, genErr)
	require.NotNil(t, sel)
	assert.Equal(t, []uint{1, 2, storeShoes.ID}, sel.ItemIDs)
}

func TestFallbackReportsUnsourceableCategories(t *testing.T) {
	engine, cleaner := newTestEngine(t, &test.FailingOracle{})
	defer cleaner()

	groups := map[Category][]ScoredItem{
		CategoryTop:    {{ID: 1, Score: 8.0, Category: CategoryTop}},
		CategoryBottom: {{ID: 2, Score: 7.0, Category: CategoryBottom}},
	}
	sel, genErr := engine.fallbackSelection(groups)
	require.Nil(t, sel)
	require.NotNil(t, genErr)
	assert.Equal(t, []Category{CategoryShoes}, genErr.Missing)
	assert.Contains(t, genErr.Message, "SHOES")
}

func TestLearnPreferencesZeroHistory(t *testing.T) {
	oracle := &test.FailingOracle{}
	engine, cleaner := newTestEngine(t, oracle)
	defer cleaner()
	user := test.FakeUser(engine.DB)

	prefs, err := engine.LearnPreferences(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, EmptyPreferences(), prefs)
	assert.Equal(t, 0, oracle.Calls, "no liked history must not reach the oracle")
}

func TestLearnPreferencesFromLikedOutfits(t *testing.T) {
	engine, cleaner := newTestEngine(t, nil)
	defer cleaner()
	user := test.FakeUser(engine.DB)
	top := test.FakeItem(engine.DB, user.ID, "Navy Blazer", "TOP")

	outfit := models.Outfit{
		OwnerID:  user.ID,
		EventRaw: "dinner",
		ItemIDs:  pq.Int64Array{int64(top.ID)},
		Strategy: "best_scored",
	}
	require.NoError(t, engine.DB.Create(&outfit).Error)
	require.NoError(t, engine.DB.Create(&models.OutfitFeedback{
		OwnerID:  user.ID,
		OutfitID: outfit.ID,
		Rating:   5,
		Comment:  "loved it",
	}).Error)

	oracle := &test.OracleStub{Responses: map[string]string{
		"outfits this user liked": `{"favorite_colors": ["navy"], "preferred_styles": ["smart casual"],
			"usual_formality": "semi-formal", "favorite_combinations": ["blazer + jeans"], "confidence": 0.8}`,
	}}
	engine.Oracle = oracle

	prefs, err := engine.LearnPreferences(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"navy"}, prefs.FavoriteColors)
	assert.Equal(t, "semi-formal", prefs.UsualFormality)
	assert.InDelta(t, 0.8, prefs.Confidence, 0.001)
	assert.Equal(t, 1, oracle.Calls)
}

func TestLowRatedOutfitsIgnoredByLearner(t *testing.T) {
	oracle := &test.FailingOracle{}
	engine, cleaner := newTestEngine(t, oracle)
	defer cleaner()
	user := test.FakeUser(engine.DB)
	top := test.FakeItem(engine.DB, user.ID, "Old Sweater", "TOP")

	outfit := models.Outfit{
		OwnerID:  user.ID,
		EventRaw: "errands",
		ItemIDs:  pq.Int64Array{int64(top.ID)},
		Strategy: "fallback",
	}
	require.NoError(t, engine.DB.Create(&outfit).Error)
	require.NoError(t, engine.DB.Create(&models.OutfitFeedback{
		OwnerID:  user.ID,
		OutfitID: outfit.ID,
		Rating:   2,
	}).Error)

	prefs, err := engine.LearnPreferences(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, EmptyPreferences(), prefs)
	assert.Equal(t, 0, oracle.Calls)
}

func TestRecordFeedbackOwnership(t *testing.T) {
	engine, cleaner := newTestEngine(t, &test.FailingOracle{})
	defer cleaner()
	owner := test.FakeUser(engine.DB)
	stranger := test.FakeUserV2(engine.DB, "Other", "other@example.com")

	outfit := models.Outfit{OwnerID: owner.ID, EventRaw: "brunch", Strategy: "fallback"}
	require.NoError(t, engine.DB.Create(&outfit).Error)

	feedback, err := engine.RecordFeedback(context.Background(), owner.ID, outfit.ID, 5, "great")
	require.NoError(t, err)
	assert.Equal(t, 5, feedback.Rating)

	_, err = engine.RecordFeedback(context.Background(), stranger.ID, outfit.ID, 4, "")
	assert.Error(t, err)
}

func TestOutfitItemsFullPreservesOrderAndSkipsMissing(t *testing.T) {
	engine, cleaner := newTestEngine(t, &test.FailingOracle{})
	defer cleaner()
	user := test.FakeUser(engine.DB)
	a := test.FakeItem(engine.DB, user.ID, "A", "TOP")
	b := test.FakeItem(engine.DB, user.ID, "B", "BOTTOM")

	items, err := engine.OutfitItemsFull(pq.Int64Array{int64(b.ID), 999999, int64(a.ID)})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, b.ID, items[0].ID)
	assert.Equal(t, a.ID, items[1].ID)
}

func TestAnalyticsSummary(t *testing.T) {
	engine, cleaner := newTestEngine(t, &test.FailingOracle{})
	defer cleaner()
	user := test.FakeUser(engine.DB)
	top := test.FakeItem(engine.DB, user.ID, "Tee", "TOP")
	bottom := test.FakeItem(engine.DB, user.ID, "Shorts", "BOTTOM")

	first := models.Outfit{OwnerID: user.ID, EventRaw: "walk", ItemIDs: pq.Int64Array{int64(top.ID), int64(bottom.ID)}, Strategy: "fallback"}
	second := models.Outfit{OwnerID: user.ID, EventRaw: "run", ItemIDs: pq.Int64Array{int64(top.ID)}, Strategy: "best_scored"}
	require.NoError(t, engine.DB.Create(&first).Error)
	require.NoError(t, engine.DB.Create(&second).Error)
	require.NoError(t, engine.DB.Create(&models.OutfitFeedback{OwnerID: user.ID, OutfitID: first.ID, Rating: 4}).Error)
	require.NoError(t, engine.DB.Create(&models.OutfitFeedback{OwnerID: user.ID, OutfitID: second.ID, Rating: 2}).Error)

	summary, err := engine.Analytics(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.TotalOutfits)
	assert.InDelta(t, 3.0, summary.AverageRating, 0.001)
	assert.Equal(t, 1, summary.StrategyCounts["fallback"])
	assert.Equal(t, 1, summary.StrategyCounts["best_scored"])
	require.NotEmpty(t, summary.MostUsedItems)
	assert.Equal(t, top.ID, summary.MostUsedItems[0].Item.ID)
	assert.Equal(t, 2, summary.MostUsedItems[0].Uses)
}

func TestAnalyticsEmptyHistory(t *testing.T) {
	engine, cleaner := newTestEngine(t, &test.FailingOracle{})
	defer cleaner()
	user := test.FakeUser(engine.DB)

	summary, err := engine.Analytics(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.TotalOutfits)
	assert.Equal(t, 0.0, summary.AverageRating)
	assert.Empty(t, summary.MostUsedItems)
	assert.Empty(t, summary.RecentOutfits)
}
