package recommendation

import (
	"context"
	"fmt"
)

// EventContext is the structured reading of a free-text event description.
// Ephemeral, never persisted.
type EventContext struct {
	Formality         string   `json:"formality"`          // casual, semi-formal, formal
	Setting           string   `json:"setting"`            // indoor, outdoor, mixed
	TimeOfDay         string   `json:"time_of_day"`        // morning, afternoon, evening
	SuggestedClimate  string   `json:"suggested_climate"`  // hot, cold, mild
	RecommendedStyles []string `json:"recommended_styles"`
	RecommendedColors []string `json:"recommended_colors"`
	EventCategory     string   `json:"event_category"`
	EstimatedDuration string   `json:"estimated_duration"` // short, medium, long
}

// FallbackEventContext is what downstream stages see when the oracle fails or
// returns garbage. Always the full constant, never a partial merge.
func FallbackEventContext() EventContext {
	return EventContext{
		Formality:         "casual",
		Setting:           "indoor",
		TimeOfDay:         "afternoon",
		SuggestedClimate:  "mild",
		RecommendedStyles: []string{"casual"},
		RecommendedColors: []string{"neutral"},
		EventCategory:     "general",
		EstimatedDuration: "medium",
	}
}

func (e *Engine) analyzeEventContext(ctx context.Context, eventRaw string, eventJSON string) EventContext {
	prompt := fmt.Sprintf(`Analyze this event and extract the information relevant to choosing an outfit:

Event: %s
Details: %s

Consider:
- Kind of event (work, social, sports, etc.)
- Required formality
- Setting (indoor/outdoor)
- Likely time of day
- Suggested climate/season
- Expected audience

Return ONLY a valid JSON object in this format:
{
    "formality": "casual|semi-formal|formal",
    "setting": "indoor|outdoor|mixed",
    "time_of_day": "morning|afternoon|evening",
    "suggested_climate": "hot|cold|mild",
    "recommended_styles": ["list", "of", "styles"],
    "recommended_colors": ["list", "of", "colors"],
    "event_category": "category of the event",
    "estimated_duration": "short|medium|long"
}`, eventRaw, eventJSON)

	response, err := e.Oracle.Complete(ctx, prompt)
	if err != nil {
		fmt.Printf("[Event Context] Oracle failed, using fallback context: %v\n", err)
		return FallbackEventContext()
	}
	var parsed EventContext
	if !decodeFirstJSON(response, &parsed) {
		fmt.Printf("[Event Context] Unparseable oracle response, using fallback context: %q\n", response)
		return FallbackEventContext()
	}
	return parsed
}
