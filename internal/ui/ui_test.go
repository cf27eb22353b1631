package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTTY_Buffer(t *testing.T) {
	// A bytes.Buffer is never a terminal
	assert.False(t, IsTTY(&bytes.Buffer{}))
	assert.False(t, IsTTY(nil))
}

func TestDetectNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.True(t, DetectNoColor())
}

func TestStylesFor_BufferIsPlain(t *testing.T) {
	st := StylesFor(&bytes.Buffer{})
	// Plain styles render text unchanged
	assert.Equal(t, "hello", st.Header.Render("hello"))
}

func TestRenderResults_Empty(t *testing.T) {
	out := RenderResults(nil, NoColorStyles())
	assert.Contains(t, out, "No results found")
}

func TestRenderResults_FormatsHits(t *testing.T) {
	hits := []ResultView{
		{Rank: 1, DocID: "a", Source: "docs/guide.llm", Strategy: "fulltext", Score: -1.25},
		{Rank: 2, DocID: "b", Strategy: "inverted", Score: 6.5},
	}

	out := RenderResults(hits, NoColorStyles())
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 2)

	assert.Contains(t, lines[0], "docs/guide.llm")
	assert.Contains(t, lines[0], "[fulltext]")
	assert.Contains(t, lines[0], "score=-1.25")

	// A hit without a source falls back to its document ID
	assert.Contains(t, lines[1], "b")
	assert.Contains(t, lines[1], "score=6.50")
}
