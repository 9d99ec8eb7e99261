package engine

import (
	"sort"
	"strings"
)

// fuzzyThreshold is the maximum edit distance at which two ingredient tokens
// are still considered the same ingredient.
const fuzzyThreshold = 2

// Normalize canonicalizes an ingredient string for comparison: trimmed and
// lowercased. Both the user side and the recipe side must go through this
// before any matching, or the comparisons degenerate.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeSet normalizes every item and collapses duplicates into a set.
func NormalizeSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[Normalize(item)] = struct{}{}
	}
	return set
}

// SynonymClass groups a canonical ingredient token with alternate tokens
// treated as equivalent during matching.
type SynonymClass struct {
	Canonical  string
	Alternates map[string]struct{}
}

func (sc SynonymClass) contains(token string) bool {
	if token == sc.Canonical {
		return true
	}
	_, ok := sc.Alternates[token]
	return ok
}

// Matcher decides whether a recipe ingredient is satisfied by the user's
// pantry. It is shared by the scoring pipeline and the display annotation so
// "matched" always means the same thing.
type Matcher struct {
	synonyms []SynonymClass
}

// NewMatcher builds a matcher from a canonical-token -> alternates table.
// Tokens are normalized and classes ordered by canonical token so behavior
// does not depend on map iteration order.
func NewMatcher(synonyms map[string][]string) *Matcher {
	classes := make([]SynonymClass, 0, len(synonyms))
	for canonical, alternates := range synonyms {
		class := SynonymClass{
			Canonical:  Normalize(canonical),
			Alternates: NormalizeSet(alternates),
		}
		classes = append(classes, class)
	}
	sort.Slice(classes, func(i, j int) bool {
		return classes[i].Canonical < classes[j].Canonical
	})
	return &Matcher{synonyms: classes}
}

// Satisfied reports whether recipeIngredient is covered by the user's
// ingredient set. userTokens must already be normalized (see NormalizeSet).
// Three tiers, short-circuiting on the first hit:
//
//  1. exact token equality
//  2. edit distance <= 2 against any user token
//  3. synonym class membership, where the user token may equal the canonical
//     token, be an alternate, or sit within edit distance 2 of either
func (m *Matcher) Satisfied(recipeIngredient string, userTokens map[string]struct{}) bool {
	norm := Normalize(recipeIngredient)

	if _, ok := userTokens[norm]; ok {
		return true
	}

	for token := range userTokens {
		if levenshtein(norm, token) <= fuzzyThreshold {
			return true
		}
	}

	for _, class := range m.synonyms {
		if !class.contains(norm) {
			continue
		}
		for token := range userTokens {
			if class.contains(token) {
				return true
			}
			if levenshtein(token, class.Canonical) <= fuzzyThreshold {
				return true
			}
			for alt := range class.Alternates {
				if levenshtein(token, alt) <= fuzzyThreshold {
					return true
				}
			}
		}
	}

	return false
}

// levenshtein returns the classic edit distance between a and b, with
// insertion, deletion and substitution each costing 1. Single-row DP.
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr := make([]int, len(b)+1)
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, min(prev[j]+1, prev[j-1]+cost))
		}
		prev = curr
	}
	return prev[len(b)]
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
