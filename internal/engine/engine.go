// Package engine filters, scores and ranks candidate recipes against a
// user's available ingredients.
package engine

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"pantrychef/internal/recipe"
)

// Store supplies candidate recipes whose ingredient lists intersect the given
// tokens. The store pre-filters by exact token containment only; the engine
// re-evaluates every candidate with its own matcher.
type Store interface {
	FindByAnyIngredient(ctx context.Context, ingredients []string) ([]*recipe.Recipe, error)
}

// Engine runs the suggestion pipeline: cache lookup, candidate fetch, filter
// and score per candidate, rank, cache write. Everything after the fetch is
// pure CPU work over read-only tables.
type Engine struct {
	store   Store
	matcher *Matcher
	weights map[string]float64
	advisor *Advisor
	cache   *resultCache
	logger  *zap.Logger
}

// New builds an engine around a candidate store and its static tables.
func New(store Store, tables Tables, cacheCfg CacheConfig, logger *zap.Logger) *Engine {
	weights := make(map[string]float64, len(tables.Weights))
	for token, w := range tables.Weights {
		weights[Normalize(token)] = w
	}
	return &Engine{
		store:   store,
		matcher: NewMatcher(tables.Synonyms),
		weights: weights,
		advisor: NewAdvisor(tables.Substitutions),
		cache:   newResultCache(cacheCfg),
		logger:  logger,
	}
}

// Suggest returns recipes ranked by weighted score, best first. An empty
// ingredient list yields an empty result, not an error; only a store failure
// propagates. Results for a fingerprint are memoized, so repeated identical
// queries skip the pipeline entirely.
func (e *Engine) Suggest(ctx context.Context, req Request) ([]Match, error) {
	if len(req.UserIngredients) == 0 {
		return nil, nil
	}

	fingerprint := req.Fingerprint()
	if matches, ok := e.cache.Get(fingerprint); ok {
		e.logger.Debug("suggestion cache hit", zap.String("fingerprint", fingerprint))
		return matches, nil
	}

	candidates, err := e.store.FindByAnyIngredient(ctx, req.UserIngredients)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	userTokens := NormalizeSet(req.UserIngredients)
	matches := make([]Match, 0, len(candidates))
	for _, candidate := range candidates {
		if m, ok := e.evaluate(candidate, userTokens, req); ok {
			matches = append(matches, m)
		}
	}

	// Stable sort: equal scores keep candidate-store order, which the store
	// pins by recipe id.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].WeightedScore > matches[j].WeightedScore
	})

	e.cache.Put(fingerprint, matches)
	e.logger.Debug("suggestions computed",
		zap.Int("candidates", len(candidates)),
		zap.Int("matches", len(matches)),
		zap.String("fingerprint", fingerprint),
	)
	return matches, nil
}

// Substitutions maps missing ingredients to suggestion strings via the
// advisor table.
func (e *Engine) Substitutions(missing []string) []string {
	return e.advisor.Suggestions(missing)
}

// CacheStats exposes the memoization cache counters.
func (e *Engine) CacheStats() CacheStats {
	return e.cache.Stats()
}
