package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	apperrors "github.com/insightql/insightql/internal/errors"
	"github.com/insightql/insightql/internal/output"
	"github.com/insightql/insightql/internal/store"
)

// getOptions holds CLI flags for get.
type getOptions struct {
	format       string // "text", "json"
	metadataOnly bool
}

func newGetCmd() *cobra.Command {
	var opts getOptions

	cmd := &cobra.Command{
		Use:   "get <doc-id>",
		Short: "Fetch a document by ID",
		Long: `Fetch a stored document chunk by its ID, as returned by search.

Examples:
  insightql get 4c2f8a1e-...
  insightql get 4c2f8a1e-... --format json
  insightql get 4c2f8a1e-... --metadata-only`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.metadataOnly, "metadata-only", false, "Print metadata without content")

	return cmd
}

func runGet(cmd *cobra.Command, docID string, opts getOptions) error {
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

	var content string
	var meta store.Metadata
	if opts.metadataOnly {
		meta, err = s.GetMetadata(ctx, docID)
	} else {
		content, meta, err = s.GetDocument(ctx, docID)
	}
	if apperrors.IsNotFound(err) {
		return fmt.Errorf("document not found: %s", docID)
	}
	if err != nil {
		return err
	}

	if opts.format == "json" {
		doc := struct {
			ID       string         `json:"id"`
			Content  string         `json:"content,omitempty"`
			Metadata store.Metadata `json:"metadata"`
		}{ID: docID, Content: content, Metadata: meta}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	if source := meta[store.MetaSource]; source != "" {
		out.Statusf("📄", "%s (chunk %s/%s)", source, meta[store.MetaChunk], meta[store.MetaTotalChunks])
	} else {
		out.Statusf("📄", "%s", docID)
	}
	if !opts.metadataOnly {
		out.Newline()
		out.Println(content)
	}
	return nil
}
