package recommendation

import (
	"context"
	"encoding/json"
	"fmt"

	"closetapi/models"
)

// ValidationResult grades an assembled outfit. When the oracle cannot be
// reached or answers garbage the outfit is accepted with neutral grades,
// validation is advisory and never blocks a result on its own.
type ValidationResult struct {
	Valid              bool     `json:"valid"`
	Confidence         float64  `json:"confidence"`
	Score              float64  `json:"score"`
	ColorHarmony       float64  `json:"color_harmony"`
	StyleCompatibility float64  `json:"style_compatibility"`
	Strengths          []string `json:"strengths"`
	Improvements       []string `json:"improvements"`
}

func neutralValidation() ValidationResult {
	return ValidationResult{
		Valid:              true,
		Confidence:         0.7,
		Score:              neutralScore,
		ColorHarmony:       neutralScore,
		StyleCompatibility: neutralScore,
	}
}

func (e *Engine) validateOutfit(ctx context.Context, items []models.ClothingItem, eventContext EventContext) ValidationResult {
	descriptions, _ := json.Marshal(prepareItemDescriptions(items))
	contextJSON, _ := json.Marshal(eventContext)

	prompt := fmt.Sprintf(`Evaluate this outfit for the given event context.

OUTFIT: %s
CONTEXT: %s

Grade color harmony, style compatibility and appropriateness for the
occasion. Scores are on a 0-10 scale, confidence on a 0-1 scale.

MANDATORY RESPONSE:
Return ONLY a valid JSON object in this format:
{"valid": true, "confidence": 0.9, "score": 8.5, "color_harmony": 8.0, "style_compatibility": 9.0, "strengths": ["..."], "improvements": ["..."]}`,
		descriptions, contextJSON)

	var result ValidationResult
	if !e.decodeOracle(ctx, prompt, &result, "[Validation]") {
		return neutralValidation()
	}
	return result
}
