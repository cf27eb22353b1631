// Package ingest drives the ingestion pipeline: file discovery, chunking, and
// handing chunks to the document store.
package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/insightql/insightql/internal/chunk"
	apperrors "github.com/insightql/insightql/internal/errors"
	"github.com/insightql/insightql/internal/store"
)

// DefaultPattern matches the resource files indexed by default.
const DefaultPattern = "**/*.llm"

// DefaultMaxFileSize skips files larger than 10 MB.
const DefaultMaxFileSize = 10 * 1024 * 1024

// excludedDirs are never descended into during discovery.
var excludedDirs = map[string]struct{}{
	".git":         {},
	".insightql":   {},
	"node_modules": {},
	"vendor":       {},
	"__pycache__":  {},
	"dist":         {},
	"build":        {},
}

// Options configures a Loader.
type Options struct {
	// RootDir is the directory to discover resource files under.
	RootDir string
	// Pattern is the glob matched against discovered files. A "**/" prefix
	// matches at any depth. Default: DefaultPattern.
	Pattern string
	// MaxFileSize skips larger files. Default: DefaultMaxFileSize.
	MaxFileSize int64
	// Workers bounds concurrent file reads. Writes to the store always run on
	// a single goroutine. Default: runtime.NumCPU().
	Workers int
}

// Stats summarizes one ingestion run.
type Stats struct {
	Files   int           // files successfully chunked and indexed
	Chunks  int           // document chunks added to the store
	Failed  int           // files that failed to read or decode
	Elapsed time.Duration
}

// Loader reads resource files, chunks them, and adds each chunk to the store
// with its position metadata.
type Loader struct {
	store   *store.Store
	chunker *chunk.Chunker
	opts    Options
}

// NewLoader creates a loader over the given store and chunker.
func NewLoader(s *store.Store, c *chunk.Chunker, opts Options) (*Loader, error) {
	if s == nil {
		return nil, apperrors.ValidationError("store is required", nil)
	}
	if c == nil {
		c = chunk.New()
	}
	if opts.RootDir == "" {
		opts.RootDir = "."
	}
	if opts.Pattern == "" {
		opts.Pattern = DefaultPattern
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Loader{store: s, chunker: c, opts: opts}, nil
}

type fileResult struct {
	path    string
	content string
	err     error
}

// Run discovers matching files and indexes them. File reads run on a bounded
// worker pool; chunking and store writes run on this goroutine only. A file
// that fails to read or decode is logged and counted, never fatal; a storage
// fault during a write aborts the run and is surfaced to the caller.
func (l *Loader) Run(ctx context.Context) (*Stats, error) {
	start := time.Now()

	paths, err := l.discover(ctx)
	if err != nil {
		return nil, err
	}

	// Cancel releases readers blocked on the results channel when the consumer
	// stops early.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan fileResult, l.opts.Workers)
	var g errgroup.Group
	g.SetLimit(l.opts.Workers)

	go func() {
		defer close(results)
		for _, path := range paths {
			g.Go(func() error {
				res := readFile(path)
				select {
				case results <- res:
				case <-ctx.Done():
				}
				return nil
			})
		}
		_ = g.Wait()
	}()

	stats := &Stats{}
	for res := range results {
		if res.err != nil {
			itemErr := apperrors.IngestItemError(res.path, res.err)
			slog.Warn("ingest_item_failed",
				slog.String("path", res.path),
				slog.String("error", itemErr.Error()))
			stats.Failed++
			continue
		}

		added, err := l.indexFile(ctx, res.path, res.content)
		if err != nil {
			cancel()
			for range results {
			}
			return stats, err
		}
		stats.Files++
		stats.Chunks += added
	}

	if err := ctx.Err(); err != nil {
		return stats, err
	}

	stats.Elapsed = time.Since(start)
	slog.Info("ingest_complete",
		slog.Int("files", stats.Files),
		slog.Int("chunks", stats.Chunks),
		slog.Int("failed", stats.Failed),
		slog.Duration("elapsed", stats.Elapsed))
	return stats, nil
}

// indexFile chunks one file and adds every chunk to the store.
func (l *Loader) indexFile(ctx context.Context, path, content string) (int, error) {
	chunks := l.chunker.Chunk(content)

	for i, c := range chunks {
		meta := store.Metadata{
			store.MetaSource:      path,
			store.MetaFilename:    filepath.Base(path),
			store.MetaExtension:   filepath.Ext(path),
			store.MetaDirectory:   filepath.Dir(path),
			store.MetaChunk:       strconv.Itoa(i),
			store.MetaTotalChunks: strconv.Itoa(len(chunks)),
		}
		if _, err := l.store.AddDocument(ctx, c, meta); err != nil {
			return i, fmt.Errorf("failed to index chunk %d of %s: %w", i, path, err)
		}
	}

	slog.Debug("ingest_file_indexed",
		slog.String("path", path),
		slog.Int("chunks", len(chunks)))
	return len(chunks), nil
}

// discover walks the root directory and returns matching file paths in a
// deterministic order.
func (l *Loader) discover(ctx context.Context) ([]string, error) {
	root := l.opts.RootDir

	info, err := os.Stat(root)
	if err != nil {
		return nil, apperrors.ValidationError(fmt.Sprintf("resources directory not found: %s", root), err)
	}
	if !info.IsDir() {
		return nil, apperrors.ValidationError(fmt.Sprintf("not a directory: %s", root), nil)
	}

	var paths []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("ingest_walk_error", slog.String("path", path), slog.String("error", err.Error()))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := excludedDirs[d.Name()]; skip {
				return fs.SkipDir
			}
			if strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		if !matchPattern(l.opts.Pattern, rel) {
			return nil
		}

		fi, infoErr := d.Info()
		if infoErr == nil && fi.Size() > l.opts.MaxFileSize {
			slog.Warn("ingest_file_too_large",
				slog.String("path", path),
				slog.Int64("size", fi.Size()))
			return nil
		}

		paths = append(paths, path)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Strings(paths)
	return paths, nil
}

// matchPattern matches a path relative to the root against a glob pattern.
// A "**/" prefix matches the remainder against the base name at any depth.
func matchPattern(pattern, rel string) bool {
	if rest, ok := strings.CutPrefix(pattern, "**/"); ok {
		ok, err := filepath.Match(rest, filepath.Base(rel))
		return err == nil && ok
	}
	ok, err := filepath.Match(pattern, filepath.ToSlash(rel))
	return err == nil && ok
}

// readFile reads one file and validates it decodes as UTF-8.
func readFile(path string) fileResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileResult{path: path, err: err}
	}
	if !utf8.Valid(data) {
		return fileResult{path: path, err: fmt.Errorf("not valid UTF-8")}
	}
	return fileResult{path: path, content: string(data)}
}
