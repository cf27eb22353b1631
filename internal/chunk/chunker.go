// Package chunk splits raw source text into overlapping, boundary-aware
// segments before indexing.
package chunk

// Default chunking parameters, in runes.
const (
	DefaultMaxChunkChars = 2000
	DefaultOverlapChars  = 200

	// smallRemainderChars guards against a degenerate near-duplicate final
	// chunk: when less than this much text remains past a cut point, the next
	// window starts at the cut instead of re-including overlap.
	smallRemainderChars = 50
)

// Options configures the chunker.
type Options struct {
	MaxChunkChars int // maximum chunk length in runes
	OverlapChars  int // repeated context between consecutive chunks, in runes
}

// Chunker splits text into bounded overlapping segments, preferring
// linguistic boundaries: paragraph break, then sentence end, then space,
// then a hard mid-word cut.
type Chunker struct {
	options Options
}

// New creates a chunker with default options.
func New() *Chunker {
	return NewWithOptions(Options{})
}

// NewWithOptions creates a chunker with custom options.
// Zero or negative values fall back to the defaults.
func NewWithOptions(opts Options) *Chunker {
	if opts.MaxChunkChars <= 0 {
		opts.MaxChunkChars = DefaultMaxChunkChars
	}
	if opts.OverlapChars < 0 {
		opts.OverlapChars = DefaultOverlapChars
	}
	return &Chunker{options: opts}
}

// Chunk splits text into ordered segments of at most MaxChunkChars runes,
// except when no acceptable break point exists within bounds. Text that fits
// in a single chunk is returned whole.
//
// For each window [start, start+max] the cut is chosen in priority order:
// the last paragraph break after the window midpoint, else the last sentence
// end after the midpoint, else the last space, else a hard cut at the window
// edge. The next window starts at max(start+1, end-overlap), which guarantees
// forward progress even when overlap >= max.
func (c *Chunker) Chunk(text string) []string {
	size := c.options.MaxChunkChars
	overlap := c.options.OverlapChars

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := min(start+size, len(runes))

		// Prefer a paragraph boundary past the midpoint
		if end < len(runes) {
			if pb := lastIndexWithin(runes, "\n\n", start, end); pb > start+size/2 {
				end = pb + 2
			}
		}

		// Then a sentence boundary past the midpoint
		if end < len(runes) && end == start+size {
			se := max(
				lastIndexWithin(runes, ". ", start, end),
				lastIndexWithin(runes, "! ", start, end),
				lastIndexWithin(runes, "? ", start, end),
			)
			if se > start+size/2 {
				end = se + 2
			}
		}

		// Then any word boundary
		if end < len(runes) && end == start+size {
			if sp := lastIndexWithin(runes, " ", start, end); sp > start {
				end = sp + 1
			}
		}

		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}

		start = max(start+1, end-overlap)
		if len(runes)-end < smallRemainderChars {
			start = end
		}
	}

	return chunks
}

// lastIndexWithin returns the largest index i in [start, end-len(pattern)]
// where pattern occurs in runes, or -1 when it does not occur in the window.
func lastIndexWithin(runes []rune, pattern string, start, end int) int {
	pat := []rune(pattern)
	for i := end - len(pat); i >= start; i-- {
		match := true
		for j, r := range pat {
			if runes[i+j] != r {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
