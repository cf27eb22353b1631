package chunk

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_ShortTextPassesThrough(t *testing.T) {
	c := New()

	text := "fits in one chunk"
	chunks := c.Chunk(text)

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestChunk_EmptyText(t *testing.T) {
	c := New()

	chunks := c.Chunk("")
	require.Len(t, chunks, 1)
	assert.Equal(t, "", chunks[0])
}

func TestChunk_SizeBound_UniformText(t *testing.T) {
	// 10,000 characters, no paragraphs, no punctuation, no spaces
	c := NewWithOptions(Options{MaxChunkChars: 2000, OverlapChars: 200})
	text := strings.Repeat("abcde", 2000)

	chunks := c.Chunk(text)
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), 2000, "chunk %d exceeds max size", i)
	}
}

func TestChunk_PrefersParagraphBreak(t *testing.T) {
	// Paragraph break sits past the window midpoint
	c := NewWithOptions(Options{MaxChunkChars: 100, OverlapChars: 10})
	text := strings.Repeat("a", 70) + "\n\n" + strings.Repeat("b", 100)

	chunks := c.Chunk(text)
	require.NotEmpty(t, chunks)

	// First chunk cuts immediately after the paragraph break
	assert.Equal(t, strings.Repeat("a", 70)+"\n\n", chunks[0])
}

func TestChunk_IgnoresParagraphBreakBeforeMidpoint(t *testing.T) {
	c := NewWithOptions(Options{MaxChunkChars: 100, OverlapChars: 0})
	// Break at position 20, midpoint is 50: too early to use
	text := strings.Repeat("a", 20) + "\n\n" + strings.Repeat("b", 200)

	chunks := c.Chunk(text)
	require.NotEmpty(t, chunks)
	assert.Len(t, []rune(chunks[0]), 100, "early paragraph break must not shorten the window")
}

func TestChunk_PrefersSentenceEnd(t *testing.T) {
	c := NewWithOptions(Options{MaxChunkChars: 100, OverlapChars: 10})
	// No paragraph break; sentence ends at position 80 (past midpoint 50)
	text := strings.Repeat("a", 79) + ". " + strings.Repeat("b", 100)

	chunks := c.Chunk(text)
	require.NotEmpty(t, chunks)
	assert.Equal(t, strings.Repeat("a", 79)+". ", chunks[0])
}

func TestChunk_FallsBackToSpace(t *testing.T) {
	c := NewWithOptions(Options{MaxChunkChars: 100, OverlapChars: 10})
	// Single space at position 90, no paragraph or sentence boundaries
	text := strings.Repeat("a", 90) + " " + strings.Repeat("b", 100)

	chunks := c.Chunk(text)
	require.NotEmpty(t, chunks)
	assert.Equal(t, strings.Repeat("a", 90)+" ", chunks[0])
}

func TestChunk_HardBreakWithoutBoundaries(t *testing.T) {
	c := NewWithOptions(Options{MaxChunkChars: 100, OverlapChars: 10})
	text := strings.Repeat("x", 250)

	chunks := c.Chunk(text)
	require.NotEmpty(t, chunks)
	assert.Len(t, []rune(chunks[0]), 100, "no boundary means a hard cut at max size")
}

func TestChunk_OverlapBetweenConsecutiveChunks(t *testing.T) {
	c := NewWithOptions(Options{MaxChunkChars: 100, OverlapChars: 20})
	text := strings.Repeat("y", 300)

	chunks := c.Chunk(text)
	require.Greater(t, len(chunks), 1)

	// Hard-cut windows repeat exactly overlap runes of context
	first := []rune(chunks[0])
	second := []rune(chunks[1])
	assert.Equal(t, string(first[len(first)-20:]), string(second[:20]))
}

func TestChunk_ReassemblyCoversWholeText(t *testing.T) {
	// Distinct numbered words make overlap detection unambiguous
	var b strings.Builder
	for i := 0; b.Len() < 12000; i++ {
		fmt.Fprintf(&b, "word%06d ", i)
	}
	text := b.String()

	c := NewWithOptions(Options{MaxChunkChars: 2000, OverlapChars: 200})
	chunks := c.Chunk(text)
	require.Greater(t, len(chunks), 1)

	// Strip each chunk's overlap with the assembled prefix and concatenate;
	// the result must reconstruct the source with no gaps
	assembled := chunks[0]
	for _, chunk := range chunks[1:] {
		k := overlapLen(assembled, chunk)
		assembled += chunk[k:]
	}
	assert.Equal(t, text, assembled)
}

// overlapLen returns the length of the longest suffix of a that is a prefix of b.
func overlapLen(a, b string) int {
	maxLen := min(len(a), len(b))
	for k := maxLen; k > 0; k-- {
		if strings.HasSuffix(a, b[:k]) {
			return k
		}
	}
	return 0
}

func TestChunk_ForwardProgressWhenOverlapExceedsMax(t *testing.T) {
	c := NewWithOptions(Options{MaxChunkChars: 10, OverlapChars: 20})
	text := strings.Repeat("z", 100)

	chunks := c.Chunk(text)
	require.NotEmpty(t, chunks)

	// Must terminate and still cover the full text
	total := 0
	for _, chunk := range chunks {
		total += len(chunk)
	}
	assert.GreaterOrEqual(t, total, len(text))
}

func TestChunk_SmallRemainderSkipsOverlap(t *testing.T) {
	// 2030 chars: the 30-char tail is below the small-remainder guard,
	// so the final window starts at the previous cut instead of rewinding
	c := NewWithOptions(Options{MaxChunkChars: 2000, OverlapChars: 200})
	text := strings.Repeat("q", 2030)

	chunks := c.Chunk(text)
	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0], 2000)
	assert.Len(t, chunks[1], 30)
}

func TestChunk_TerminatesAtExactTextEnd(t *testing.T) {
	// Final window lands exactly on the end of the text; the chunker must
	// stop rather than re-emit overlapping tails
	c := NewWithOptions(Options{MaxChunkChars: 2000, OverlapChars: 200})
	text := strings.Repeat("m", 3000)

	chunks := c.Chunk(text)
	assert.Len(t, chunks, 2)
}

func TestChunk_MultibyteRunesCountAsOneChar(t *testing.T) {
	c := NewWithOptions(Options{MaxChunkChars: 100, OverlapChars: 10})
	text := strings.Repeat("é", 250)

	chunks := c.Chunk(text)
	require.NotEmpty(t, chunks)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), 100, "chunk %d exceeds max runes", i)
	}
}
