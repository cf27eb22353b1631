// Package store provides the SQLite-backed document store: durable document
// rows, the inverted term index maintained on write, and the optional FTS5
// full-text capability.
package store

// Metadata is the per-document metadata mapping persisted alongside content.
// Values are stored as strings; chunk ordinals use their decimal form so a
// stored document round-trips exactly.
type Metadata map[string]string

// Well-known metadata keys written by the ingestion pipeline.
const (
	MetaSource      = "source"       // origin file path
	MetaFilename    = "filename"     // base name of the origin file
	MetaExtension   = "extension"    // origin file extension, including the dot
	MetaDirectory   = "directory"    // directory of the origin file
	MetaChunk       = "chunk"        // 0-based chunk index within the origin file
	MetaTotalChunks = "total_chunks" // number of chunks derived from the origin file
)

// Posting links one term to one document with frequency and position data.
// There is at most one posting per (term, doc_id) pair, and Frequency always
// equals len(Positions).
type Posting struct {
	Term      string
	DocID     string
	Frequency int
	Positions []int // token offsets of the term within the document
}

// FullTextHit is a single result from the FTS5 full-text index.
// Rank is the native FTS5 bm25 relevance (negative, lower is better); it is
// surfaced unrenormalized.
type FullTextHit struct {
	DocID string
	Rank  float64
}

// PrefixHit is a grouped result from the prefix fallback lookup.
// Matches counts postings whose term shares the requested prefix, not the
// summed term frequency.
type PrefixHit struct {
	DocID   string
	Matches int
}
