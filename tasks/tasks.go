package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"closetapi/models"
	"closetapi/recommendation"
	"closetapi/services"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const TypePreferenceRefresh = "preferences:refresh"

type PreferenceRefreshPayload struct {
	UserID uint `json:"user_id"`
}

// NewClient initializes an asynq client for enqueuing tasks
func NewClient() (*asynq.Client, error) {
	return asynq.NewClient(asynq.RedisClientOpt{Addr: services.GetEnv("ASYNC_BROKER_ADDRESS", "localhost:6379")}), nil
}

func NewInspector() *asynq.Inspector {
	return asynq.NewInspector(asynq.RedisClientOpt{Addr: services.GetEnv("ASYNC_BROKER_ADDRESS", "localhost:6379")})
}

func NewPreferenceRefreshTask(userID uint) (*asynq.Task, error) {
	payload, err := json.Marshal(PreferenceRefreshPayload{UserID: userID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePreferenceRefresh, payload), nil
}

// HandlePreferenceRefreshTask relearns a user's taste profile and persists
// the snapshot row. One row per user, newer snapshots overwrite older ones.
func HandlePreferenceRefreshTask(db *gorm.DB, engine *recommendation.Engine) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload PreferenceRefreshPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("unmarshal preference refresh payload: %v: %w", err, asynq.SkipRetry)
		}
		fmt.Printf("[User: %v] Refreshing preference snapshot..\n", payload.UserID)

		prefs, err := engine.LearnPreferences(ctx, payload.UserID)
		if err != nil {
			sentry.CaptureException(err)
			return err
		}

		row := models.UserPreference{
			OwnerID:              payload.UserID,
			PreferredColors:      pq.StringArray(prefs.FavoriteColors),
			PreferredStyles:      pq.StringArray(prefs.PreferredStyles),
			UsualFormality:       prefs.UsualFormality,
			FavoriteCombinations: pq.StringArray(prefs.FavoriteCombinations),
			Confidence:           prefs.Confidence,
		}
		err = db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "owner_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"preferred_colors", "preferred_styles", "usual_formality",
				"favorite_combinations", "confidence", "updated_at",
			}),
		}).Create(&row).Error
		if err != nil {
			sentry.CaptureException(err)
			return err
		}
		fmt.Printf("[User: %v] Preference snapshot saved, confidence %.2f\n", payload.UserID, prefs.Confidence)
		return nil
	}
}
