package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/insightql/insightql/internal/chunk"
	"github.com/insightql/insightql/internal/ingest"
	"github.com/insightql/insightql/internal/output"
)

// indexOptions holds CLI flags for index.
type indexOptions struct {
	dir          string
	pattern      string
	chunkSize    int
	chunkOverlap int
	workers      int
}

func newIndexCmd() *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index resource files into the document store",
		Long: `Discover resource files, split them into overlapping chunks, and add
every chunk to the document store with its source metadata.

Examples:
  insightql index
  insightql index --dir ./docs --pattern "**/*.md"
  insightql index --chunk-size 1000 --chunk-overlap 100`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.dir, "dir", "d", "", "Resources directory (default from config)")
	cmd.Flags().StringVarP(&opts.pattern, "pattern", "p", "", "File glob pattern (default from config)")
	cmd.Flags().IntVar(&opts.chunkSize, "chunk-size", 0, "Maximum chunk length in characters")
	cmd.Flags().IntVar(&opts.chunkOverlap, "chunk-overlap", 0, "Overlap between chunks in characters")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Concurrent file readers (default: CPU count)")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, opts indexOptions) error {
	out := output.New(cmd.OutOrStdout())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if opts.dir != "" {
		cfg.Ingest.RootDir = opts.dir
	}
	if opts.pattern != "" {
		cfg.Ingest.Pattern = opts.pattern
	}
	if opts.chunkSize > 0 {
		cfg.Ingest.ChunkSize = opts.chunkSize
	}
	if opts.chunkOverlap > 0 {
		cfg.Ingest.ChunkOverlap = opts.chunkOverlap
	}
	if opts.workers > 0 {
		cfg.Ingest.Workers = opts.workers
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	chunker := chunk.NewWithOptions(chunk.Options{
		MaxChunkChars: cfg.Ingest.ChunkSize,
		OverlapChars:  cfg.Ingest.ChunkOverlap,
	})

	loader, err := ingest.NewLoader(s, chunker, ingest.Options{
		RootDir:     cfg.Ingest.RootDir,
		Pattern:     cfg.Ingest.Pattern,
		MaxFileSize: int64(cfg.Ingest.MaxFileSizeMB) * 1024 * 1024,
		Workers:     cfg.Ingest.Workers,
	})
	if err != nil {
		return err
	}

	out.Statusf("📂", "Indexing %s (%s)", cfg.Ingest.RootDir, cfg.Ingest.Pattern)

	stats, err := loader.Run(ctx)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	if !s.FullTextEnabled() {
		out.Warning("Full-text search unavailable, falling back to inverted index")
	}
	if stats.Failed > 0 {
		out.Warningf("%d file(s) failed to load (see logs)", stats.Failed)
	}

	slog.Info("index_command_complete",
		slog.Int("files", stats.Files),
		slog.Int("chunks", stats.Chunks),
		slog.Int("failed", stats.Failed))

	out.Successf("Indexed %d files into %d chunks in %s",
		stats.Files, stats.Chunks, stats.Elapsed.Round(time.Millisecond))
	return nil
}
