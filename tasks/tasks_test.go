package tasks

import (
	"context"
	"testing"

	"closetapi/dbhelper"
	"closetapi/models"
	"closetapi/recommendation"
	"closetapi/test"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlePreferenceRefreshTask(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()

	user := test.FakeUser(db)
	top := test.FakeItem(db, user.ID, "Navy Blazer", "TOP")
	outfit := models.Outfit{
		OwnerID:  user.ID,
		EventRaw: "dinner",
		ItemIDs:  pq.Int64Array{int64(top.ID)},
		Strategy: "best_scored",
	}
	require.NoError(t, db.Create(&outfit).Error)
	require.NoError(t, db.Create(&models.OutfitFeedback{
		OwnerID:  user.ID,
		OutfitID: outfit.ID,
		Rating:   5,
	}).Error)

	oracle := &test.OracleStub{Responses: map[string]string{
		"outfits this user liked": `{"favorite_colors": ["navy"], "preferred_styles": ["smart casual"],
			"usual_formality": "semi-formal", "favorite_combinations": ["blazer + chinos"], "confidence": 0.85}`,
	}}
	engine, err := recommendation.NewEngine(db, oracle, recommendation.DefaultTrends())
	require.NoError(t, err)

	task, err := NewPreferenceRefreshTask(user.ID)
	require.NoError(t, err)

	handler := HandlePreferenceRefreshTask(db, engine)
	require.NoError(t, handler(context.Background(), task))

	var snapshot models.UserPreference
	require.NoError(t, db.Where("owner_id = ?", user.ID).First(&snapshot).Error)
	assert.Equal(t, pq.StringArray{"navy"}, snapshot.PreferredColors)
	assert.Equal(t, "semi-formal", snapshot.UsualFormality)
	assert.InDelta(t, 0.85, snapshot.Confidence, 0.001)

	// running again overwrites the snapshot instead of duplicating it
	require.NoError(t, handler(context.Background(), task))
	var count int64
	db.Model(&models.UserPreference{}).Where("owner_id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestHandlePreferenceRefreshTaskNoHistory(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()

	user := test.FakeUser(db)
	oracle := &test.FailingOracle{}
	engine, err := recommendation.NewEngine(db, oracle, recommendation.DefaultTrends())
	require.NoError(t, err)

	task, err := NewPreferenceRefreshTask(user.ID)
	require.NoError(t, err)

	require.NoError(t, HandlePreferenceRefreshTask(db, engine)(context.Background(), task))
	assert.Equal(t, 0, oracle.Calls)

	var snapshot models.UserPreference
	require.NoError(t, db.Where("owner_id = ?", user.ID).First(&snapshot).Error)
	assert.InDelta(t, 0.0, snapshot.Confidence, 0.001)
}
