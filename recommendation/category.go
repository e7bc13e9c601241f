package recommendation

import (
	"strconv"
	"strings"
)

// Category is the closed set the assembler works with. Item rows carry
// free-text categories; anything we don't recognize becomes Unclassified and
// is invisible to assembly.
type Category string

const (
	CategoryTop          Category = "TOP"
	CategoryBottom       Category = "BOTTOM"
	CategoryShoes        Category = "SHOES"
	CategoryUnclassified Category = "UNCLASSIFIED"
)

// RequiredCategories are the slots an outfit must fill, in assembly order.
var RequiredCategories = []Category{CategoryTop, CategoryBottom, CategoryShoes}

func ParseCategory(raw string) Category {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "TOP", "TOPS":
		return CategoryTop
	case "BOTTOM", "BOTTOMS":
		return CategoryBottom
	case "SHOES", "SHOE":
		return CategoryShoes
	default:
		return CategoryUnclassified
	}
}

// flexID tolerates the oracle returning item ids either as JSON numbers or
// as strings ("12" vs 12), which it does unpredictably.
type flexID uint

func (f *flexID) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		// unparseable id, treat as absent rather than failing the whole object
		*f = 0
		return nil
	}
	*f = flexID(n)
	return nil
}
