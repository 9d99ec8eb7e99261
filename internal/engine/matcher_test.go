package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "chicken", Normalize("  Chicken "))
	assert.Equal(t, "olive oil", Normalize("Olive Oil"))
	assert.Equal(t, "", Normalize("   "))
}

func TestNormalizeSet(t *testing.T) {
	set := NormalizeSet([]string{"Egg", " egg ", "FLOUR"})
	assert.Len(t, set, 2)
	assert.Contains(t, set, "egg")
	assert.Contains(t, set, "flour")
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshtein("tomato", "tomato"))
	assert.Equal(t, 1, levenshtein("tomato", "tomatoe"))
	assert.Equal(t, 1, levenshtein("peper", "pepper"))
	assert.Equal(t, 3, levenshtein("kitten", "sitting"))
	assert.Equal(t, 6, levenshtein("", "tomato"))
	assert.Equal(t, 6, levenshtein("tomato", ""))
	assert.Equal(t, 0, levenshtein("", ""))
}

func TestMatcherExactTier(t *testing.T) {
	m := NewMatcher(nil)
	users := NormalizeSet([]string{"Chicken", "salt"})

	assert.True(t, m.Satisfied("chicken", users))
	assert.True(t, m.Satisfied("  SALT ", users))
	assert.False(t, m.Satisfied("pepper", users))
}

func TestMatcherFuzzyTier(t *testing.T) {
	m := NewMatcher(nil)
	users := NormalizeSet([]string{"tomato"})

	// One edit away.
	assert.True(t, m.Satisfied("tomatoe", users))
	// Two edits away.
	assert.True(t, m.Satisfied("tomatos", NormalizeSet([]string{"tomatoee"})))
	// Three edits away is not a match.
	assert.False(t, m.Satisfied("potatoes", NormalizeSet([]string{"combato"})))
}

func TestMatcherSynonymTier(t *testing.T) {
	m := NewMatcher(map[string][]string{
		"cheese": {"parmesan cheese", "cheddar"},
		"garlic": {"garlic powder", "minced garlic"},
	})

	// Recipe names an alternate, user holds the canonical token.
	assert.True(t, m.Satisfied("parmesan cheese", NormalizeSet([]string{"cheese"})))
	// Recipe names the canonical token, user holds an alternate.
	assert.True(t, m.Satisfied("garlic", NormalizeSet([]string{"Minced Garlic"})))
	// Both sides are alternates of the same class.
	assert.True(t, m.Satisfied("cheddar", NormalizeSet([]string{"parmesan cheese"})))
	// User token within fuzzy reach of the canonical token.
	assert.True(t, m.Satisfied("cheddar", NormalizeSet([]string{"chese"})))
	// Unrelated class does not bridge.
	assert.False(t, m.Satisfied("parmesan cheese", NormalizeSet([]string{"garlic powder"})))
}

func TestMatcherRequiresClassMembership(t *testing.T) {
	m := NewMatcher(map[string][]string{"pepper": {"black pepper"}})

	// "salt" is neither exact, fuzzy, nor in the pepper class.
	assert.False(t, m.Satisfied("black pepper", NormalizeSet([]string{"salt"})))
}
