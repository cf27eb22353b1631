package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	apperrors "github.com/insightql/insightql/internal/errors"
)

// docCacheSize is the maximum number of documents kept in the read cache.
const docCacheSize = 512

// Store is the SQLite-backed document store.
// Writes are serialized (one mutation in flight at a time) and each
// AddDocument commits a single transaction covering the document row, all
// posting rows, and the optional full-text row. Reads only observe committed
// documents.
type Store struct {
	mu     sync.Mutex // serializes the write path
	db     *sql.DB
	path   string
	lock   *flock.Flock
	cache  *lru.Cache[string, cachedDoc]
	fts    atomic.Bool // full-text capability flag, one-way off
	closed atomic.Bool
}

type cachedDoc struct {
	content string
	meta    Metadata
}

// Open opens (or creates) a document store at path.
// An empty path opens an in-memory store for testing. File-backed stores take
// an advisory lock next to the database so only one process writes at a time.
func Open(path string) (*Store, error) {
	return OpenWithCacheSize(path, docCacheSize)
}

// OpenWithCacheSize opens a store with an explicit read-cache capacity.
func OpenWithCacheSize(path string, cacheSize int) (*Store, error) {
	if cacheSize <= 0 {
		cacheSize = docCacheSize
	}

	var dsn string
	var lock *flock.Flock

	if path == "" {
		dsn = ":memory:"
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, apperrors.StorageError(fmt.Sprintf("failed to create directory %s", dir), err)
		}

		lock = flock.New(path + ".lock")
		locked, err := lock.TryLock()
		if err != nil {
			return nil, apperrors.StorageError("failed to acquire store lock", err)
		}
		if !locked {
			return nil, apperrors.New(apperrors.ErrCodeStoreLocked,
				fmt.Sprintf("store is locked by another process: %s", path), nil)
		}

		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		if lock != nil {
			_ = lock.Unlock()
		}
		return nil, apperrors.StorageError("failed to open database", err)
	}

	// Single connection: SQLite allows one writer, and the in-memory DSN is
	// per-connection state.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Pragmas must be set via statements; modernc.org/sqlite ignores DSN params.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			if lock != nil {
				_ = lock.Unlock()
			}
			return nil, apperrors.StorageError("failed to set pragma", err)
		}
	}

	cache, err := lru.New[string, cachedDoc](cacheSize)
	if err != nil {
		_ = db.Close()
		if lock != nil {
			_ = lock.Unlock()
		}
		return nil, apperrors.StorageError("failed to create document cache", err)
	}

	s := &Store{
		db:    db,
		path:  path,
		lock:  lock,
		cache: cache,
	}

	if err := s.initSchema(); err != nil {
		_ = db.Close()
		if lock != nil {
			_ = lock.Unlock()
		}
		return nil, apperrors.StorageError("failed to initialize schema", err)
	}

	return s, nil
}

// initSchema creates the document and posting tables, then probes the FTS5
// capability once. A failed probe disables full text for the session; it is
// never fatal.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		metadata TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS postings (
		term TEXT NOT NULL,
		doc_id TEXT NOT NULL,
		frequency INTEGER NOT NULL,
		positions TEXT NOT NULL,
		UNIQUE(term, doc_id)
	);

	CREATE INDEX IF NOT EXISTS idx_postings_term ON postings(term);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// FTS5 probe. doc_id is stored but not searchable.
	_, err := s.db.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS fts_documents USING fts5(
			content,
			doc_id UNINDEXED
		)`)
	if err != nil {
		slog.Warn("fulltext_capability_unavailable", slog.String("error", err.Error()))
		s.fts.Store(false)
		return nil
	}
	s.fts.Store(true)
	return nil
}

// FullTextEnabled reports whether the accelerated full-text index is usable.
func (s *Store) FullTextEnabled() bool {
	return s.fts.Load()
}

// DisableFullText turns the full-text capability off for the remainder of the
// session. The flip is one-way; full text is an optimization, not a
// correctness requirement.
func (s *Store) DisableFullText(reason string) {
	if s.fts.CompareAndSwap(true, false) {
		slog.Warn("fulltext_capability_disabled", slog.String("reason", reason))
	}
}

// AddDocument persists content and metadata under a fresh unique id, updating
// the inverted index (and the full-text index when enabled) in the same
// transaction. The transaction is committed before returning, so queries
// issued afterwards observe the new document.
func (s *Store) AddDocument(ctx context.Context, content string, meta Metadata) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return "", apperrors.New(apperrors.ErrCodeStoreClosed, "store is closed", nil)
	}

	docID := uuid.NewString()

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return "", apperrors.StorageError("failed to encode metadata", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", apperrors.StorageError("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (id, content, metadata) VALUES (?, ?, ?)`,
		docID, content, string(metaJSON)); err != nil {
		return "", apperrors.StorageError(fmt.Sprintf("failed to insert document %s", docID), err)
	}

	if s.fts.Load() {
		// A failed full-text insert degrades the capability instead of
		// failing the write; SQLite rolls back only the statement.
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO fts_documents (doc_id, content) VALUES (?, ?)`,
			docID, content); err != nil {
			s.DisableFullText("insert failed: " + err.Error())
		}
	}

	if err := s.insertPostings(ctx, tx, docID, content); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", apperrors.StorageError("failed to commit document", err)
	}

	s.cache.Add(docID, cachedDoc{content: content, meta: meta.clone()})
	return docID, nil
}

// insertPostings tokenizes content and writes one posting per distinct term.
func (s *Store) insertPostings(ctx context.Context, tx *sql.Tx, docID, content string) error {
	terms := Tokenize(content)

	counts := make(map[string]int)
	positions := make(map[string][]int)
	var order []string
	for pos, term := range terms {
		if counts[term] == 0 {
			order = append(order, term)
		}
		counts[term]++
		positions[term] = append(positions[term], pos)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO postings (term, doc_id, frequency, positions) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return apperrors.StorageError("failed to prepare posting statement", err)
	}
	defer stmt.Close()

	for _, term := range order {
		posJSON, err := json.Marshal(positions[term])
		if err != nil {
			return apperrors.StorageError("failed to encode positions", err)
		}
		if _, err := stmt.ExecContext(ctx, term, docID, counts[term], string(posJSON)); err != nil {
			return apperrors.StorageError(fmt.Sprintf("failed to index term %q", term), err)
		}
	}
	return nil
}

// GetDocument returns the content and metadata stored under docID.
// Returns a NotFound error when the id is absent.
func (s *Store) GetDocument(ctx context.Context, docID string) (string, Metadata, error) {
	if s.closed.Load() {
		return "", nil, apperrors.New(apperrors.ErrCodeStoreClosed, "store is closed", nil)
	}

	if doc, ok := s.cache.Get(docID); ok {
		return doc.content, doc.meta.clone(), nil
	}

	var content, metaJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT content, metadata FROM documents WHERE id = ?`, docID).
		Scan(&content, &metaJSON)
	if stderrors.Is(err, sql.ErrNoRows) {
		return "", nil, apperrors.NotFound(docID)
	}
	if err != nil {
		return "", nil, apperrors.StorageError(fmt.Sprintf("failed to read document %s", docID), err)
	}

	meta, err := decodeMetadata(metaJSON)
	if err != nil {
		return "", nil, err
	}

	s.cache.Add(docID, cachedDoc{content: content, meta: meta.clone()})
	return content, meta, nil
}

// GetMetadata returns only the metadata stored under docID.
func (s *Store) GetMetadata(ctx context.Context, docID string) (Metadata, error) {
	if s.closed.Load() {
		return nil, apperrors.New(apperrors.ErrCodeStoreClosed, "store is closed", nil)
	}

	if doc, ok := s.cache.Get(docID); ok {
		return doc.meta.clone(), nil
	}

	var metaJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT metadata FROM documents WHERE id = ?`, docID).Scan(&metaJSON)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound(docID)
	}
	if err != nil {
		return nil, apperrors.StorageError(fmt.Sprintf("failed to read metadata for %s", docID), err)
	}
	return decodeMetadata(metaJSON)
}

// AllMetadata returns the metadata of every stored document, keyed by
// document ID. Content is not loaded.
func (s *Store) AllMetadata(ctx context.Context) (map[string]Metadata, error) {
	if s.closed.Load() {
		return nil, apperrors.New(apperrors.ErrCodeStoreClosed, "store is closed", nil)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, metadata FROM documents`)
	if err != nil {
		return nil, apperrors.StorageError("failed to list metadata", err)
	}
	defer rows.Close()

	metas := make(map[string]Metadata)
	for rows.Next() {
		var docID, metaJSON string
		if err := rows.Scan(&docID, &metaJSON); err != nil {
			return nil, apperrors.StorageError("failed to scan metadata row", err)
		}
		meta, err := decodeMetadata(metaJSON)
		if err != nil {
			return nil, err
		}
		metas[docID] = meta
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.StorageError("failed to list metadata", err)
	}
	return metas, nil
}

// DocumentCount returns the total number of stored documents.
func (s *Store) DocumentCount(ctx context.Context) (int, error) {
	if s.closed.Load() {
		return 0, apperrors.New(apperrors.ErrCodeStoreClosed, "store is closed", nil)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
		return 0, apperrors.StorageError("failed to count documents", err)
	}
	return count, nil
}

// SearchFullText runs a disjunctive FTS5 query over the given terms and
// returns up to limit hits ordered by native bm25 rank (best first).
// Callers own the degrade-on-error policy; this method only reports the fault.
func (s *Store) SearchFullText(ctx context.Context, terms []string, limit int) ([]FullTextHit, error) {
	query := strings.Join(terms, " OR ")

	rows, err := s.db.QueryContext(ctx, `
		SELECT doc_id, rank
		FROM fts_documents
		WHERE fts_documents MATCH ?
		ORDER BY rank
		LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("fulltext query failed: %w", err)
	}
	defer rows.Close()

	var hits []FullTextHit
	for rows.Next() {
		var h FullTextHit
		if err := rows.Scan(&h.DocID, &h.Rank); err != nil {
			return nil, fmt.Errorf("fulltext scan failed: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// LookupPostings returns all postings for the given distinct terms.
func (s *Store) LookupPostings(ctx context.Context, terms []string) ([]Posting, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(terms))
	args := make([]any, len(terms))
	for i, t := range terms {
		placeholders[i] = "?"
		args[i] = t
	}

	query := fmt.Sprintf(`
		SELECT term, doc_id, frequency, positions
		FROM postings
		WHERE term IN (%s)`, strings.Join(placeholders, ","))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.StorageError("posting lookup failed", err)
	}
	defer rows.Close()

	var postings []Posting
	for rows.Next() {
		var p Posting
		var posJSON string
		if err := rows.Scan(&p.Term, &p.DocID, &p.Frequency, &posJSON); err != nil {
			return nil, apperrors.StorageError("posting scan failed", err)
		}
		if posJSON != "" {
			if err := json.Unmarshal([]byte(posJSON), &p.Positions); err != nil {
				return nil, apperrors.StorageError("failed to decode positions", err)
			}
		}
		postings = append(postings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.StorageError("posting iteration failed", err)
	}
	return postings, nil
}

// LookupPostingsByPrefix groups postings whose term starts with any of the
// given prefixes, scored by match count. Results are ordered by descending
// match count with ascending doc id as the tie-break, truncated to limit.
func (s *Store) LookupPostingsByPrefix(ctx context.Context, prefixes []string, limit int) ([]PrefixHit, error) {
	if len(prefixes) == 0 {
		return nil, nil
	}

	conds := make([]string, len(prefixes))
	args := make([]any, 0, len(prefixes)+1)
	for i, p := range prefixes {
		conds[i] = `term LIKE ? ESCAPE '\'`
		args = append(args, escapeLike(p)+"%")
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT doc_id, COUNT(*) AS matches
		FROM postings
		WHERE %s
		GROUP BY doc_id
		ORDER BY matches DESC, doc_id ASC
		LIMIT ?`, strings.Join(conds, " OR "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.StorageError("prefix lookup failed", err)
	}
	defer rows.Close()

	var hits []PrefixHit
	for rows.Next() {
		var h PrefixHit
		if err := rows.Scan(&h.DocID, &h.Matches); err != nil {
			return nil, apperrors.StorageError("prefix scan failed", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.StorageError("prefix iteration failed", err)
	}
	return hits, nil
}

// Close releases the database and the process lock. Idempotent.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Checkpoint before close so the WAL does not outlive the process.
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	err := s.db.Close()

	if s.lock != nil {
		_ = s.lock.Unlock()
	}

	if err != nil {
		return apperrors.StorageError("failed to close database", err)
	}
	return nil
}

// Path returns the database path ("" for in-memory stores).
func (s *Store) Path() string {
	return s.path
}

// clone returns a copy of the metadata so cached entries stay immutable.
func (m Metadata) clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func decodeMetadata(metaJSON string) (Metadata, error) {
	var meta Metadata
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return nil, apperrors.StorageError("failed to decode metadata", err)
	}
	return meta, nil
}

// escapeLike escapes LIKE wildcards in a literal prefix.
// Terms may contain underscores, which LIKE treats as a single-char wildcard.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
