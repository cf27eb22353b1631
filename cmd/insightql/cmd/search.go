package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/insightql/insightql/internal/output"
	"github.com/insightql/insightql/internal/search"
	"github.com/insightql/insightql/internal/store"
	"github.com/insightql/insightql/internal/ui"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit  int
	format string // "text", "json"
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed documents",
		Long: `Search the document store. Strategies are tried in order until one
produces results: FTS5 full-text search, the inverted index with
coverage scoring, then a prefix fallback for partial matches.

Examples:
  insightql search "billing configuration"
  insightql search "deploy" --limit 10
  insightql search "setup instructions" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	out := output.New(cmd.OutOrStdout())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	limit := opts.limit
	if limit <= 0 {
		limit = cfg.Search.MaxResults
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	engine, err := search.NewEngine(s)
	if err != nil {
		return err
	}

	slog.Info("search_started", slog.String("query", query), slog.Int("limit", limit))
	results, err := engine.Search(ctx, query, limit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	slog.Info("search_complete", slog.Int("results", len(results)))

	switch opts.format {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	default:
		return formatText(cmd, out, query, results)
	}
}

// formatText renders results for the terminal.
func formatText(cmd *cobra.Command, out *output.Writer, query string, results []search.Result) error {
	if len(results) == 0 {
		out.Status("", fmt.Sprintf("No results found for %q", query))
		return nil
	}

	out.Statusf("🔍", "Found %d results for %q:", len(results), query)
	out.Newline()

	hits := make([]ui.ResultView, 0, len(results))
	for i, r := range results {
		hits = append(hits, ui.ResultView{
			Rank:     i + 1,
			DocID:    r.DocID,
			Source:   r.Metadata[store.MetaSource],
			Strategy: r.Strategy,
			Score:    r.Score,
		})
	}

	st := ui.StylesFor(cmd.OutOrStdout())
	out.Printf("%s", ui.RenderResults(hits, st))
	return nil
}
