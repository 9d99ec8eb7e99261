package engine

import (
	"sort"
	"strconv"
	"strings"
)

// Request is one suggestion query. A nil bound means that constraint is not
// applied.
type Request struct {
	UserIngredients   []string
	BannedIngredients []string
	MaxTime           *int64
	MaxCalories       *int64
}

// Fingerprint returns the deterministic cache key for the request. Ingredient
// lists are lowercased and sorted so ordering does not matter; duplicates are
// kept. Unset bounds serialize as "none".
func (r Request) Fingerprint() string {
	return strings.Join([]string{
		strings.Join(lowerSorted(r.UserIngredients), ","),
		strings.Join(lowerSorted(r.BannedIngredients), ","),
		boundKey(r.MaxTime),
		boundKey(r.MaxCalories),
	}, "_")
}

func lowerSorted(items []string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = strings.ToLower(item)
	}
	sort.Strings(out)
	return out
}

func boundKey(v *int64) string {
	if v == nil {
		return "none"
	}
	return strconv.FormatInt(*v, 10)
}
