package engine

// Tables is the static configuration injected into the engine: ingredient
// weights, synonym classes, and the ordered substitution table. Injecting
// them keeps the engine free of package-level mutable state and lets tests
// supply their own tables.
type Tables struct {
	Weights       map[string]float64
	Synonyms      map[string][]string
	Substitutions []Substitution
}

// DefaultTables returns the production tables.
func DefaultTables() Tables {
	return Tables{
		Weights:       defaultWeights(),
		Synonyms:      defaultSynonyms(),
		Substitutions: defaultSubstitutions(),
	}
}

// Proteins weigh more than pantry staples so that matching the ingredients
// that define a dish dominates the score.
func defaultWeights() map[string]float64 {
	return map[string]float64{
		"chicken": 2.0,
		"beef":    2.0,
		"pork":    2.0,
		"bacon":   2.0,
		"salt":    0.5,
		"sugar":   0.5,
	}
}

func defaultSynonyms() map[string][]string {
	return map[string][]string{
		"basil":      {"fresh basil", "dried basil"},
		"garlic":     {"garlic powder", "minced garlic"},
		"chicken":    {"roasted chicken", "grilled chicken", "chicken thighs"},
		"lettuce":    {"romaine lettuce"},
		"sesame oil": {"toasted sesame oil"},
		"pepper":     {"black pepper"},
		"cheese":     {"parmesan cheese", "cheddar", "fresh mozzarella", "blue cheese crumbles"},
		"olive oil":  {"extra virgin olive oil"},
		"bacon":      {"unsmoked back bacon", "unsmoked bacon"},
		"feta":       {"greek feta", "avocado feta"},
		"beef":       {"ground beef"},
	}
}

func defaultSubstitutions() []Substitution {
	return []Substitution{
		{Ingredient: "butter", Substitute: "margarine"},
		{Ingredient: "sour cream", Substitute: "plain yogurt"},
		{Ingredient: "egg", Substitute: "flax egg (1 tbsp ground flaxseed + 3 tbsp water)"},
	}
}
