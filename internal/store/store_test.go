package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/insightql/insightql/internal/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_AddAndGetDocument_RoundTrip(t *testing.T) {
	// Given: an empty store
	s := newTestStore(t)
	ctx := context.Background()

	meta := Metadata{
		MetaSource:      "docs/guide.llm",
		MetaFilename:    "guide.llm",
		MetaExtension:   ".llm",
		MetaDirectory:   "docs",
		MetaChunk:       "0",
		MetaTotalChunks: "3",
	}

	// When: a document is added
	id, err := s.AddDocument(ctx, "The quick brown fox.", meta)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// Then: content and metadata round-trip exactly
	content, gotMeta, err := s.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "The quick brown fox.", content)
	assert.Equal(t, meta, gotMeta)
}

func TestStore_GetDocument_BypassesCache(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.AddDocument(ctx, "cached content", Metadata{MetaSource: "a.txt"})
	require.NoError(t, err)

	// Purge the read cache to force the database path
	s.cache.Purge()

	content, meta, err := s.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "cached content", content)
	assert.Equal(t, Metadata{MetaSource: "a.txt"}, meta)
}

func TestStore_GetDocument_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, _, err := s.GetDocument(context.Background(), "no-such-id")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestStore_DocumentCount_MatchesAdds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	count, err := s.DocumentCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	for i := 0; i < 5; i++ {
		_, err := s.AddDocument(ctx, fmt.Sprintf("document number %d", i), Metadata{MetaChunk: "0"})
		require.NoError(t, err)
	}

	count, err = s.DocumentCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestStore_IDsAreUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		id, err := s.AddDocument(ctx, "same content every time", nil)
		require.NoError(t, err)
		assert.False(t, seen[id], "id %s reused", id)
		seen[id] = true
	}
}

func TestStore_PostingsFrequencyAndPositions(t *testing.T) {
	// Given: a document with repeated terms
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.AddDocument(ctx, "alpha beta alpha gamma alpha", nil)
	require.NoError(t, err)

	// When: postings are looked up
	postings, err := s.LookupPostings(ctx, []string{"alpha", "beta", "gamma"})
	require.NoError(t, err)
	require.Len(t, postings, 3)

	byTerm := make(map[string]Posting)
	for _, p := range postings {
		assert.Equal(t, id, p.DocID)
		// Frequency always equals the number of recorded positions
		assert.Equal(t, p.Frequency, len(p.Positions))
		byTerm[p.Term] = p
	}

	// Then: frequencies and token offsets match the content
	assert.Equal(t, 3, byTerm["alpha"].Frequency)
	assert.Equal(t, []int{0, 2, 4}, byTerm["alpha"].Positions)
	assert.Equal(t, []int{1}, byTerm["beta"].Positions)
	assert.Equal(t, []int{3}, byTerm["gamma"].Positions)
}

func TestStore_LookupPostings_EmptyTerms(t *testing.T) {
	s := newTestStore(t)

	postings, err := s.LookupPostings(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, postings)
}

func TestStore_FullTextProbeAndSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// modernc.org/sqlite ships FTS5, so the probe should succeed
	require.True(t, s.FullTextEnabled())

	id, err := s.AddDocument(ctx, "sqlite powers the document store", nil)
	require.NoError(t, err)

	hits, err := s.SearchFullText(ctx, []string{"sqlite", "missingterm"}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, id, hits[0].DocID)
	// Native FTS5 bm25 rank is negative (lower is better)
	assert.Less(t, hits[0].Rank, 0.0)
}

func TestStore_DisableFullText_OneWay(t *testing.T) {
	s := newTestStore(t)

	require.True(t, s.FullTextEnabled())
	s.DisableFullText("test")
	assert.False(t, s.FullTextEnabled())

	// Flag stays off
	s.DisableFullText("again")
	assert.False(t, s.FullTextEnabled())
}

func TestStore_AddDocument_WorksWithFullTextDisabled(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.DisableFullText("test")

	id, err := s.AddDocument(ctx, "still indexed through postings", nil)
	require.NoError(t, err)

	postings, err := s.LookupPostings(ctx, []string{"indexed"})
	require.NoError(t, err)
	require.Len(t, postings, 1)
	assert.Equal(t, id, postings[0].DocID)
}

func TestStore_LookupPostingsByPrefix(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id1, err := s.AddDocument(ctx, "database data datum", nil)
	require.NoError(t, err)
	id2, err := s.AddDocument(ctx, "datacenter", nil)
	require.NoError(t, err)
	_, err = s.AddDocument(ctx, "unrelated words", nil)
	require.NoError(t, err)

	hits, err := s.LookupPostingsByPrefix(ctx, []string{"dat"}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	// doc1 has three distinct matching terms, doc2 has one
	assert.Equal(t, id1, hits[0].DocID)
	assert.Equal(t, 3, hits[0].Matches)
	assert.Equal(t, id2, hits[1].DocID)
	assert.Equal(t, 1, hits[1].Matches)
}

func TestStore_LookupPostingsByPrefix_UnderscoreIsLiteral(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.AddDocument(ctx, "big_table layout", nil)
	require.NoError(t, err)
	// "bigXtable" must NOT match a "big_" prefix if underscore were a wildcard
	_, err = s.AddDocument(ctx, "bigstable layout", nil)
	require.NoError(t, err)

	hits, err := s.LookupPostingsByPrefix(ctx, []string{"big_"}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, id, hits[0].DocID)
}

func TestStore_Close_Idempotent(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	// Operations after close fail cleanly
	_, err = s.AddDocument(context.Background(), "late", nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeStoreClosed, apperrors.GetCode(err))
}

func TestStore_ReadsAfterCloseFailCleanly(t *testing.T) {
	ctx := context.Background()
	s, err := Open("")
	require.NoError(t, err)

	id, err := s.AddDocument(ctx, "short lived", Metadata{MetaSource: "f.llm"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Every read path reports the same closed-store code, even for cached ids
	_, _, err = s.GetDocument(ctx, id)
	assert.Equal(t, apperrors.ErrCodeStoreClosed, apperrors.GetCode(err))

	_, err = s.GetMetadata(ctx, id)
	assert.Equal(t, apperrors.ErrCodeStoreClosed, apperrors.GetCode(err))

	_, err = s.AllMetadata(ctx)
	assert.Equal(t, apperrors.ErrCodeStoreClosed, apperrors.GetCode(err))

	_, err = s.DocumentCount(ctx)
	assert.Equal(t, apperrors.ErrCodeStoreClosed, apperrors.GetCode(err))
}

func TestStore_SearchFullText_ErrorsWhenIndexLost(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.True(t, s.FullTextEnabled())

	_, err := s.AddDocument(ctx, "observability pipeline metrics", nil)
	require.NoError(t, err)

	// Simulate a damaged full-text index
	_, err = s.db.Exec(`DROP TABLE fts_documents`)
	require.NoError(t, err)

	_, err = s.SearchFullText(ctx, []string{"metrics"}, 5)
	require.Error(t, err)

	// The degrade decision belongs to callers; the query itself only reports
	assert.True(t, s.FullTextEnabled())
}

func TestStore_AddDocument_DegradesWhenFullTextInsertFails(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.True(t, s.FullTextEnabled())

	_, err := s.db.Exec(`DROP TABLE fts_documents`)
	require.NoError(t, err)

	// The write commits; only the capability flips
	id, err := s.AddDocument(ctx, "write survives index loss", nil)
	require.NoError(t, err)
	assert.False(t, s.FullTextEnabled())

	content, _, err := s.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "write survives index loss", content)
}

func TestStore_FileBacked_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)

	id, err := s.AddDocument(ctx, "durable content", Metadata{MetaSource: "f.llm"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Reopen and read back
	s2, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = s2.Close() }()

	content, meta, err := s2.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "durable content", content)
	assert.Equal(t, "f.llm", meta[MetaSource])
}

func TestStore_FileBacked_SecondOpenIsLocked(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	_, err = Open(path)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeStoreLocked, apperrors.GetCode(err))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `big\_table`, escapeLike("big_table"))
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `plain`, escapeLike("plain"))
}
