// Package search implements cascading multi-strategy retrieval over the
// document store: full text when the capability is available, then the
// inverted index with coverage scoring, then a prefix fallback.
package search

import "github.com/insightql/insightql/internal/store"

// DefaultLimit is the result limit applied when the caller passes none.
const DefaultLimit = 5

// prefixLength is the number of leading runes used by the prefix fallback.
// Terms of prefixLength or fewer runes are ignored there; a window this small
// would match too permissively.
const prefixLength = 3

// coverageWeight multiplies term coverage in the inverted-index score so that
// matching more distinct query terms outweighs repeating a single term.
const coverageWeight = 3.0

// Result is a single ranked search hit.
// Score is strategy-local: the full-text strategy surfaces the native FTS5
// rank (lower is better), the other strategies use higher-is-better scores.
// Scores from different strategies are not comparable.
type Result struct {
	DocID    string         `json:"doc_id"`
	Metadata store.Metadata `json:"metadata"`
	Score    float64        `json:"score"`
	Strategy string         `json:"strategy"`
}
