package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/insightql/insightql/internal/output"
	"github.com/insightql/insightql/internal/store"
)

// storeStats summarizes the state of the document store.
type storeStats struct {
	Path      string `json:"path"`
	Documents int    `json:"documents"`
	Sources   int    `json:"sources"`
	FullText  bool   `json:"full_text"`
}

func newStatsCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show document store statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runStats(cmd *cobra.Command, format string) error {
	out := output.New(cmd.OutOrStdout())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	ctx := cmd.Context()

	count, err := s.DocumentCount(ctx)
	if err != nil {
		return err
	}

	metas, err := s.AllMetadata(ctx)
	if err != nil {
		return err
	}
	sources := make(map[string]struct{})
	for _, meta := range metas {
		if src := meta[store.MetaSource]; src != "" {
			sources[src] = struct{}{}
		}
	}

	stats := storeStats{
		Path:      s.Path(),
		Documents: count,
		Sources:   len(sources),
		FullText:  s.FullTextEnabled(),
	}

	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	out.Statusf("📊", "Store: %s", stats.Path)
	out.Statusf("", "Documents:  %d", stats.Documents)
	out.Statusf("", "Sources:    %d", stats.Sources)
	if stats.FullText {
		out.Statusf("", "Full text:  enabled")
	} else {
		out.Statusf("", "Full text:  disabled")
	}
	return nil
}
