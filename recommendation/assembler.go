package recommendation

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"closetapi/models"

	"github.com/getsentry/sentry-go"
	"gorm.io/gorm"
)

// GenerationError is the structured terminal failure of the pipeline. It is
// reported to the caller as data, never as a raw panic or stack trace.
type GenerationError struct {
	Message string     `json:"error"`
	Missing []Category `json:"missing,omitempty"`
}

func (e *GenerationError) Error() string {
	if len(e.Missing) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (missing: %v)", e.Message, e.Missing)
}

// selection is the assembler's successful output: exactly one item id per
// required category plus the name of the strategy that produced it.
type selection struct {
	ItemIDs  []uint
	Strategy string
}

// strategyOrder is fixed; the engine stops at the first strategy whose oracle
// answer contains exactly one id per required category.
var strategyOrder = []string{"best_scored", "trend_focused", "user_preference", "color_harmony"}

// candidates per category handed to a strategy prompt
const maxStrategyCandidates = 5

type outfitWire struct {
	Outfit     []flexID `json:"outfit"`
	Confidence float64  `json:"confidence"`
}

// groupByCategory buckets scored items into the closed category set and
// drops anything unclassified, those items are invisible to assembly.
func groupByCategory(scored []ScoredItem) map[Category][]ScoredItem {
	groups := make(map[Category][]ScoredItem)
	for _, item := range scored {
		if item.Category == CategoryUnclassified {
			continue
		}
		groups[item.Category] = append(groups[item.Category], item)
	}
	// order by score, stable so equal scores keep first-seen order
	for category := range groups {
		group := groups[category]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Score > group[j].Score
		})
	}
	return groups
}

func missingCategories(groups map[Category][]ScoredItem) []Category {
	var missing []Category
	for _, required := range RequiredCategories {
		if len(groups[required]) == 0 {
			missing = append(missing, required)
		}
	}
	return missing
}

// assembleWithStrategies runs the strategy state machine over the scored
// wardrobe. A wardrobe missing a required category outright fails here with
// zero strategy calls, that is a cheap short-circuit.
func (e *Engine) assembleWithStrategies(ctx context.Context, eventRaw string, eventContext EventContext, scored []ScoredItem, prefs UserPreferences, gender string) (*selection, *GenerationError) {
	groups := groupByCategory(scored)

	if missing := missingCategories(groups); len(missing) > 0 {
		return nil, &GenerationError{
			Message: explainMissingItems(missing),
			Missing: missing,
		}
	}

	for _, strategy := range strategyOrder {
		itemIDs, err := e.tryStrategy(ctx, eventRaw, eventContext, groups, prefs, strategy, gender)
		if err != nil {
			fmt.Printf("[Assembly] Strategy %s failed: %v\n", strategy, err)
			continue
		}
		if len(itemIDs) == len(RequiredCategories) {
			fmt.Printf("[Assembly] Strategy %s succeeded: %v\n", strategy, itemIDs)
			return &selection{ItemIDs: itemIDs, Strategy: strategy}, nil
		}
	}

	return e.fallbackSelection(groups)
}

func (e *Engine) tryStrategy(ctx context.Context, eventRaw string, eventContext EventContext, groups map[Category][]ScoredItem, prefs UserPreferences, strategy string, gender string) ([]uint, error) {
	prefsJSON, _ := json.Marshal(prefs)
	strategyGuidance := map[string]string{
		"best_scored":     "Prioritize the items with the best overall scores",
		"trend_focused":   fmt.Sprintf("Focus on the %s trends: colors %v and styles %v", e.Trends.Season, e.Trends.Colors, e.Trends.Styles),
		"user_preference": fmt.Sprintf("Take the user's preferences into account: %s", prefsJSON),
		"color_harmony":   "Prioritize color harmony and elegant combinations",
	}

	contextJSON, _ := json.Marshal(eventContext)
	topJSON, _ := json.Marshal(topCandidates(groups[CategoryTop]))
	bottomJSON, _ := json.Marshal(topCandidates(groups[CategoryBottom]))
	shoesJSON, _ := json.Marshal(topCandidates(groups[CategoryShoes]))

	prompt := fmt.Sprintf(`EVENT: %s
USER GENDER: %s
CONTEXT: %s
STRATEGY: %s

AVAILABLE ITEMS PER CATEGORY:
TOP: %s
BOTTOM: %s
SHOES: %s

INSTRUCTIONS:
1. Pick EXACTLY 1 item from each category (TOP, BOTTOM, SHOES)
2. Consider the scores, the event context and the strategy
3. Ensure harmony of colors and styles
4. Align with the %s trends

MANDATORY RESPONSE:
Return ONLY a valid JSON object in this format:
{"outfit": ["top_id", "bottom_id", "shoes_id"], "confidence": 0.95}`,
		eventRaw, gender, contextJSON, strategyGuidance[strategy],
		topJSON, bottomJSON, shoesJSON, e.Trends.Season)

	response, err := e.Oracle.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var parsed outfitWire
	if !decodeFirstJSON(response, &parsed) {
		return nil, fmt.Errorf("unparseable strategy response: %q", response)
	}
	if len(parsed.Outfit) != len(RequiredCategories) {
		return nil, fmt.Errorf("strategy returned %d items, want %d", len(parsed.Outfit), len(RequiredCategories))
	}
	known := make(map[uint]bool)
	for _, group := range groups {
		for _, item := range group {
			known[item.ID] = true
		}
	}
	itemIDs := make([]uint, 0, len(parsed.Outfit))
	for _, id := range parsed.Outfit {
		if id == 0 || !known[uint(id)] {
			return nil, fmt.Errorf("strategy returned unknown item id in %q", response)
		}
		itemIDs = append(itemIDs, uint(id))
	}
	return itemIDs, nil
}

func topCandidates(group []ScoredItem) []ScoredItem {
	if len(group) > maxStrategyCandidates {
		return group[:maxStrategyCandidates]
	}
	return group
}

// fallbackSelection deterministically picks the highest-scored item per
// required category. The short-circuit already confirmed every category has
// items, but a group that emptied anyway is handled by sourcing one
// marketplace item per hole before giving up.
func (e *Engine) fallbackSelection(groups map[Category][]ScoredItem) (*selection, *GenerationError) {
	itemIDs := make([]uint, 0, len(RequiredCategories))
	var missing []Category
	for _, category := range RequiredCategories {
		if group := groups[category]; len(group) > 0 {
			itemIDs = append(itemIDs, group[0].ID)
		} else {
			missing = append(missing, category)
		}
	}

	if len(missing) > 0 {
		fmt.Printf("[Assembly] Looking for marketplace items for missing categories: %v\n", missing)
		sourced, stillMissing := e.findItemsForSale(missing)
		for _, item := range sourced {
			itemIDs = append(itemIDs, item.ID)
		}
		if len(stillMissing) > 0 || len(itemIDs) < len(RequiredCategories) {
			return nil, &GenerationError{
				Message: explainMissingItems(stillMissing),
				Missing: stillMissing,
			}
		}
	}

	fmt.Printf("[Assembly] Fallback selection: %v\n", itemIDs)
	return &selection{ItemIDs: itemIDs, Strategy: "fallback"}, nil
}

// findItemsForSale sources at most one for-sale item per missing category
// from any owner, first match by id. Sourced items enter the candidate
// pool with the neutral score.
func (e *Engine) findItemsForSale(missing []Category) ([]ScoredItem, []Category) {
	var found []ScoredItem
	var stillMissing []Category
	for _, category := range missing {
		var item models.ClothingItem
		err := e.DB.Where("for_sale = ? AND category = ?", true, string(category)).
			Order("id").First(&item).Error
		if err != nil {
			if err != gorm.ErrRecordNotFound {
				sentry.CaptureException(fmt.Errorf("[Assembly] Error looking up marketplace items for %s: %v", category, err))
			}
			stillMissing = append(stillMissing, category)
			continue
		}
		found = append(found, ScoredItem{
			ID:       item.ID,
			Score:    neutralScore,
			Reason:   "Available in store",
			Category: category,
		})
	}
	return found, stillMissing
}

func explainMissingItems(missing []Category) string {
	names := make([]string, 0, len(missing))
	for _, category := range missing {
		names = append(names, string(category))
	}
	return "Could not assemble a complete outfit because the following categories are missing: " +
		strings.Join(names, ", ") +
		". Consider adding items in these categories or buying new ones available in the store."
}
