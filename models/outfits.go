package models

import (
	"github.com/lib/pq"
)

// Outfit is written once by the recommendation pipeline and never mutated.
// Feedback lives in its own table.
type Outfit struct {
	JsonModel
	Owner   UserAccount `json:"-"`
	OwnerID uint        `json:"-"`

	EventRaw  string        `gorm:"type:text" json:"event_raw"`
	EventJSON *string       `gorm:"type:jsonb" json:"event_json"` // opaque, caller-supplied
	ItemIDs   pq.Int64Array `gorm:"type:integer[]" json:"item_ids"`
	Strategy  string        `json:"strategy"` // which generation strategy produced it
}

type OutfitFeedback struct {
	JsonModel
	Owner    UserAccount `json:"-"`
	OwnerID  uint        `json:"-"`
	Outfit   Outfit      `json:"-"`
	OutfitID uint        `json:"outfit_id"`

	Rating  int    `json:"rating"` // 1-5, validated at the API boundary
	Comment string `gorm:"type:text" json:"comment"`
}

// UserPreference is a derived cache row, recomputed by the worker's
// preference-refresh task whenever a high rating lands. One row per user.
type UserPreference struct {
	JsonModel
	Owner   UserAccount `json:"-"`
	OwnerID uint        `gorm:"uniqueIndex" json:"-"`

	PreferredColors      pq.StringArray `gorm:"type:text[]" json:"preferred_colors"`
	PreferredStyles      pq.StringArray `gorm:"type:text[]" json:"preferred_styles"`
	UsualFormality       string         `json:"usual_formality"`
	FavoriteCombinations pq.StringArray `gorm:"type:text[]" json:"favorite_combinations"`
	Confidence           float64        `json:"confidence"`
}

// OutfitAnalytics records per-generation metrics for observability and the
// analytics endpoint. Purely additive, never read by the pipeline itself.
type OutfitAnalytics struct {
	JsonModel
	Owner    UserAccount `json:"-"`
	OwnerID  uint        `json:"-"`
	Outfit   Outfit      `json:"-"`
	OutfitID uint        `json:"outfit_id"`

	StrategyUsed            string   `json:"strategy_used"`
	ConfidenceScore         float64  `json:"confidence_score"`
	ValidationScore         float64  `json:"validation_score"`
	ColorHarmonyScore       float64  `json:"color_harmony_score"`
	StyleCompatibilityScore float64  `json:"style_compatibility_score"`
	GenerationTime          *float64 `json:"generation_time"` // seconds
}
