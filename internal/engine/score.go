package engine

import (
	"strings"

	"pantrychef/internal/recipe"
)

// Scoring weights. The base score rewards matched ingredient weight and
// penalizes missing weight at half rate; the remaining terms are bonuses for
// coverage ratio and for finishing under the requested time/calorie budgets.
const (
	penaltyFactor    = 0.5
	matchRatioWeight = 2.0
	timeWeight       = 0.1
	calorieWeight    = 0.01
	minMatchRatio    = 0.3
)

// Category classifies a recipe's ingredient set against the user's pantry:
// "exact" means the pantry covers every recipe ingredient, "full_with_extras"
// means the recipe's ingredient set contains the entire pantry.
type Category string

const (
	CategoryExact          Category = "exact"
	CategoryFullWithExtras Category = "full_with_extras"
	CategoryPartial        Category = "partial"
)

// Match is one scored recipe. Matches are immutable once built:
// MatchedCount + len(MissingIngredients) == TotalIngredients always holds,
// and TotalIngredients is never zero.
type Match struct {
	Recipe             *recipe.Recipe `json:"recipe"`
	MatchedCount       int            `json:"matched_count"`
	TotalIngredients   int            `json:"total_ingredients"`
	CurrentIngredients []string       `json:"current_ingredients"`
	MissingIngredients []string       `json:"missing_ingredients"`
	WeightedScore      float64        `json:"weighted_score"`
	Category           Category       `json:"match_category"`
}

// evaluate runs the filter stage and the scorer for a single candidate.
// ok is false when any filter drops the candidate.
func (e *Engine) evaluate(r *recipe.Recipe, userTokens map[string]struct{}, req Request) (Match, bool) {
	if containsBanned(r.Ingredients, req.BannedIngredients) {
		return Match{}, false
	}

	totalTime := r.TotalTime()
	if req.MaxTime != nil && int64(totalTime) > *req.MaxTime {
		return Match{}, false
	}
	if req.MaxCalories != nil && int64(r.Calories) > *req.MaxCalories {
		return Match{}, false
	}
	if len(r.Ingredients) == 0 {
		return Match{}, false
	}

	// Single pass: count matches, accumulate weights, and collect both the
	// satisfied (display) and missing (substitution) ingredient lists with
	// the one shared matcher.
	var (
		matchedCount  int
		matchedWeight float64
		missingWeight float64
		current       []string
		missing       []string
	)
	for _, ing := range r.Ingredients {
		weight := e.weightFor(ing)
		if e.matcher.Satisfied(ing, userTokens) {
			matchedCount++
			matchedWeight += weight
			current = append(current, ing)
		} else {
			missingWeight += weight
			missing = append(missing, ing)
		}
	}

	matchRatio := float64(matchedCount) / float64(len(r.Ingredients))
	if matchRatio < minMatchRatio {
		return Match{}, false
	}

	score := matchedWeight - penaltyFactor*missingWeight + matchRatio*matchRatioWeight
	if req.MaxTime != nil {
		if saved := *req.MaxTime - int64(totalTime); saved > 0 {
			score += float64(saved) * timeWeight
		}
	}
	if req.MaxCalories != nil {
		if saved := *req.MaxCalories - int64(r.Calories); saved > 0 {
			score += float64(saved) * calorieWeight
		}
	}

	return Match{
		Recipe:             r,
		MatchedCount:       matchedCount,
		TotalIngredients:   len(r.Ingredients),
		CurrentIngredients: current,
		MissingIngredients: missing,
		WeightedScore:      score,
		Category:           categorize(r.Ingredients, userTokens),
	}, true
}

// weightFor looks up the ingredient's weight, defaulting to 1.0 for tokens
// absent from the table.
func (e *Engine) weightFor(ingredient string) float64 {
	if w, ok := e.weights[Normalize(ingredient)]; ok {
		return w
	}
	return 1.0
}

// categorize compares the normalized ingredient sets. Exact is tested first;
// the two containment checks are mutually exclusive only through that order.
func categorize(recipeIngredients []string, userTokens map[string]struct{}) Category {
	recipeSet := NormalizeSet(recipeIngredients)

	if containsAll(userTokens, recipeSet) {
		return CategoryExact
	}
	if containsAll(recipeSet, userTokens) {
		return CategoryFullWithExtras
	}
	return CategoryPartial
}

func containsAll(outer, inner map[string]struct{}) bool {
	for token := range inner {
		if _, ok := outer[token]; !ok {
			return false
		}
	}
	return true
}

// containsBanned reports whether any recipe ingredient contains any banned
// token as a substring, so "unsmoked bacon strips" is excluded by a ban on
// "bacon".
func containsBanned(ingredients, banned []string) bool {
	for _, b := range banned {
		token := Normalize(b)
		if token == "" {
			continue
		}
		for _, ing := range ingredients {
			if strings.Contains(strings.ToLower(ing), token) {
				return true
			}
		}
	}
	return false
}
