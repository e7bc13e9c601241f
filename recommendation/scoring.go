package recommendation

import (
	"context"
	"encoding/json"
	"fmt"

	"closetapi/models"
)

// ScoredItem pairs an item with its suitability score for the current event.
// Produced fresh per request, never persisted.
type ScoredItem struct {
	ID       uint     `json:"id"`
	Score    float64  `json:"score"` // 0-10
	Reason   string   `json:"reason"`
	Category Category `json:"category"`
}

// neutralScore is handed to every item when scoring fails, so assembly can
// always proceed.
const neutralScore = 7.0

// itemDescription is the wire shape of an item inside scoring and strategy
// prompts.
type itemDescription struct {
	ID              uint     `json:"id"`
	Name            string   `json:"name"`
	Type            string   `json:"type"`
	Color           string   `json:"color"`
	State           string   `json:"state"`
	Season          []string `json:"season"`
	Category        string   `json:"category"`
	Style           string   `json:"style"`
	Characteristics []string `json:"characteristics"`
	ForSale         bool     `json:"for_sale"`
	Price           *float64 `json:"price"`
}

func prepareItemDescriptions(items []models.ClothingItem) []itemDescription {
	descriptions := make([]itemDescription, 0, len(items))
	for _, item := range items {
		descriptions = append(descriptions, itemDescription{
			ID:              item.ID,
			Name:            item.Name,
			Type:            item.Type,
			Color:           item.Color,
			State:           item.State,
			Season:          item.Season,
			Category:        item.Category,
			Style:           item.Style,
			Characteristics: item.Characteristics,
			ForSale:         item.ForSale,
			Price:           item.Price,
		})
	}
	return descriptions
}

type scoredItemWire struct {
	ID       flexID  `json:"id"`
	Score    float64 `json:"score"`
	Reason   string  `json:"reason"`
	Category string  `json:"category"`
}

type scoresWire struct {
	Scores []scoredItemWire `json:"scores"`
}

// scoreItemsForEvent asks the oracle for a 0-10 suitability score per item.
// The weighting scheme lives in the prompt only, it is guidance for the
// oracle, not something the code enforces.
func (e *Engine) scoreItemsForEvent(ctx context.Context, items []itemDescription, eventContext EventContext, gender string) []ScoredItem {
	contextJSON, _ := json.Marshal(eventContext)
	trendsJSON, _ := json.Marshal(map[string][]string{"colors": e.Trends.Colors, "styles": e.Trends.Styles})
	itemsJSON, _ := json.Marshal(items)

	prompt := fmt.Sprintf(`Event context: %s
User gender: %s
Trends %s: %s

For each clothing item, give a score from 0-10 considering:
- Fit for the event (40%%)
- Season/climate fit (25%%)
- Item condition (15%%)
- Trend alignment (20%%)

Items: %s

Return ONLY a valid JSON object:
{
    "scores": [
        {
            "id": "item_id",
            "score": 8.5,
            "reason": "reason for the score",
            "category": "TOP|BOTTOM|SHOES"
        }
    ]
}`, contextJSON, gender, e.Trends.Season, trendsJSON, itemsJSON)

	response, err := e.Oracle.Complete(ctx, prompt)
	if err == nil {
		var parsed scoresWire
		if decodeFirstJSON(response, &parsed) && len(parsed.Scores) > 0 {
			scored := make([]ScoredItem, 0, len(parsed.Scores))
			for _, s := range parsed.Scores {
				if s.ID == 0 {
					continue
				}
				scored = append(scored, ScoredItem{
					ID:       uint(s.ID),
					Score:    s.Score,
					Reason:   s.Reason,
					Category: ParseCategory(s.Category),
				})
			}
			if len(scored) > 0 {
				return scored
			}
		}
		fmt.Printf("[Scoring] Unparseable oracle response, falling back to neutral scores: %q\n", response)
	} else {
		fmt.Printf("[Scoring] Oracle failed, falling back to neutral scores: %v\n", err)
	}

	// Fallback: flat neutral score, category taken from the item record.
	scored := make([]ScoredItem, 0, len(items))
	for _, item := range items {
		scored = append(scored, ScoredItem{
			ID:       item.ID,
			Score:    neutralScore,
			Reason:   "Default score",
			Category: ParseCategory(item.Category),
		})
	}
	return scored
}
