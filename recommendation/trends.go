package recommendation

import (
	"os"
	"strings"
)

// TrendConfig is the seasonal trend vocabulary fed into scoring, strategy
// prompts and narration. It is injected configuration, not compiled-in
// business logic, so the vocabulary can change without touching the engine.
type TrendConfig struct {
	Season string
	Colors []string
	Styles []string
}

func DefaultTrends() TrendConfig {
	return TrendConfig{
		Season: "2025",
		Colors: []string{"sage green", "warm terracotta", "indigo blue", "soft beige", "deep burgundy"},
		Styles: []string{"oversized controlled", "vintage modern", "colorful minimalism", "texture mixing"},
	}
}

// TrendsFromEnv overrides the defaults from TREND_SEASON, TREND_COLORS and
// TREND_STYLES (comma separated) when set.
func TrendsFromEnv() TrendConfig {
	trends := DefaultTrends()
	if season := os.Getenv("TREND_SEASON"); season != "" {
		trends.Season = season
	}
	if colors := splitEnvList(os.Getenv("TREND_COLORS")); len(colors) > 0 {
		trends.Colors = colors
	}
	if styles := splitEnvList(os.Getenv("TREND_STYLES")); len(styles) > 0 {
		trends.Styles = styles
	}
	return trends
}

func splitEnvList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
