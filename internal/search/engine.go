package search

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/insightql/insightql/internal/store"
)

// ErrNilDependency is returned when a required dependency is nil.
var ErrNilDependency = errors.New("nil dependency")

// strategy is one retrieval pass: (tokens, limit) -> ranked results.
// Strategies are tried in a fixed priority order until one yields a
// non-empty result set.
type strategy struct {
	name string
	run  func(ctx context.Context, terms []string, limit int) ([]Result, error)
}

// Engine orchestrates the retrieval strategy cascade over a document store.
type Engine struct {
	store      *store.Store
	strategies []strategy
}

// NewEngine creates a search engine over the given store.
func NewEngine(s *store.Store) (*Engine, error) {
	if s == nil {
		return nil, ErrNilDependency
	}
	e := &Engine{store: s}
	e.strategies = []strategy{
		{name: "fulltext", run: e.fullText},
		{name: "inverted", run: e.invertedIndex},
		{name: "prefix", run: e.prefixFallback},
	}
	return e, nil
}

// Search tokenizes the query and runs the strategy cascade, returning at most
// limit results ordered best-first. A query that produces no tokens returns an
// empty result set without touching storage, and a query matching nothing at
// every tier is likewise not an error.
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	terms := store.Tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	for _, st := range e.strategies {
		results, err := st.run(ctx, terms, limit)
		if err != nil {
			return nil, err
		}
		if len(results) > 0 {
			slog.Debug("search_strategy_hit",
				slog.String("strategy", st.name),
				slog.Int("results", len(results)))
			return results, nil
		}
	}

	return nil, nil
}

// fullText asks the FTS5 index for a relevance-ranked disjunction over the
// query terms. Native bm25 rank is surfaced as the score without
// renormalization. Any runtime fault permanently disables the capability and
// falls through to the next strategy.
func (e *Engine) fullText(ctx context.Context, terms []string, limit int) ([]Result, error) {
	if !e.store.FullTextEnabled() {
		return nil, nil
	}

	hits, err := e.store.SearchFullText(ctx, terms, limit)
	if err != nil {
		e.store.DisableFullText("search failed: " + err.Error())
		return nil, nil
	}

	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		meta, err := e.store.GetMetadata(ctx, h.DocID)
		if err != nil {
			return nil, err
		}
		results = append(results, Result{
			DocID:    h.DocID,
			Metadata: meta,
			Score:    h.Rank,
			Strategy: "fulltext",
		})
	}
	return results, nil
}

// invertedIndex looks up postings for the distinct query terms and scores
// each candidate document by term coverage and accumulated frequency:
//
//	score = (matched terms / distinct query terms) * 3 + total frequency
//
// Ties break on ascending doc id so rankings are reproducible.
func (e *Engine) invertedIndex(ctx context.Context, terms []string, limit int) ([]Result, error) {
	distinct := store.DistinctTerms(terms)

	postings, err := e.store.LookupPostings(ctx, distinct)
	if err != nil {
		return nil, err
	}
	if len(postings) == 0 {
		return nil, nil
	}

	type docMatch struct {
		matches   int
		totalFreq int
	}
	matches := make(map[string]*docMatch)
	for _, p := range postings {
		m := matches[p.DocID]
		if m == nil {
			m = &docMatch{}
			matches[p.DocID] = m
		}
		m.matches++
		m.totalFreq += p.Frequency
	}

	scored := make([]Result, 0, len(matches))
	for docID, m := range matches {
		coverage := float64(m.matches) / float64(len(distinct))
		scored = append(scored, Result{
			DocID:    docID,
			Score:    coverage*coverageWeight + float64(m.totalFreq),
			Strategy: "inverted",
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].DocID < scored[j].DocID
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}

	for i := range scored {
		meta, err := e.store.GetMetadata(ctx, scored[i].DocID)
		if err != nil {
			return nil, err
		}
		scored[i].Metadata = meta
	}
	return scored, nil
}

// prefixFallback matches postings sharing the first three runes of each query
// term longer than three runes, scoring documents by raw match count. Used
// only when both prior strategies return nothing.
func (e *Engine) prefixFallback(ctx context.Context, terms []string, limit int) ([]Result, error) {
	var prefixes []string
	for _, t := range store.DistinctTerms(terms) {
		if len([]rune(t)) > prefixLength {
			prefixes = append(prefixes, store.TermPrefix(t, prefixLength))
		}
	}
	prefixes = store.DistinctTerms(prefixes)
	if len(prefixes) == 0 {
		return nil, nil
	}

	hits, err := e.store.LookupPostingsByPrefix(ctx, prefixes, limit)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		meta, err := e.store.GetMetadata(ctx, h.DocID)
		if err != nil {
			return nil, err
		}
		results = append(results, Result{
			DocID:    h.DocID,
			Metadata: meta,
			Score:    float64(h.Matches),
			Strategy: "prefix",
		})
	}
	return results, nil
}
