package recommendation

import (
	"context"
	"encoding/json"
	"fmt"

	"closetapi/models"
)

const fallbackRecommendation = "Here is an outfit put together for your event. The pieces were picked to match the occasion and work well with each other."

// narrateOutfit turns the final selection into a short text for the user.
// Narration never fails the pipeline, a generic line covers oracle outages.
func (e *Engine) narrateOutfit(ctx context.Context, eventRaw string, items []models.ClothingItem, eventContext EventContext, validation ValidationResult) string {
	descriptions, _ := json.Marshal(prepareItemDescriptions(items))
	contextJSON, _ := json.Marshal(eventContext)
	validationJSON, _ := json.Marshal(validation)

	prompt := fmt.Sprintf(`Write a short, warm recommendation for this outfit.

EVENT: %s
OUTFIT: %s
CONTEXT: %s
EVALUATION: %s

Describe in 2-3 sentences why this outfit works for the event. Address the
user directly, mention the items by name, no JSON, no lists, plain text only.`,
		eventRaw, descriptions, contextJSON, validationJSON)

	response, err := e.Oracle.Complete(ctx, prompt)
	if err != nil || response == "" {
		fmt.Printf("[Narration] Falling back to generic recommendation: %v\n", err)
		return fallbackRecommendation
	}
	return response
}
