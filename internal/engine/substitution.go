package engine

import (
	"fmt"
	"strings"
)

// Substitution maps an ingredient name fragment to a suggested replacement.
type Substitution struct {
	Ingredient string
	Substitute string
}

// Advisor turns missing ingredients into substitution suggestions from a
// fixed, ordered table. Order matters: for overlapping keys the first entry
// in table order wins.
type Advisor struct {
	table []Substitution
}

// NewAdvisor normalizes the table keys and keeps the given order.
func NewAdvisor(table []Substitution) *Advisor {
	normalized := make([]Substitution, 0, len(table))
	for _, sub := range table {
		normalized = append(normalized, Substitution{
			Ingredient: Normalize(sub.Ingredient),
			Substitute: sub.Substitute,
		})
	}
	return &Advisor{table: normalized}
}

// Suggestions returns one human-readable line per missing ingredient whose
// lowercased name contains a table key as a substring.
func (a *Advisor) Suggestions(missing []string) []string {
	var out []string
	for _, m := range missing {
		lower := strings.ToLower(m)
		for _, sub := range a.table {
			if strings.Contains(lower, sub.Ingredient) {
				out = append(out, fmt.Sprintf("For %q, consider using %q.", m, sub.Substitute))
				break
			}
		}
	}
	return out
}
