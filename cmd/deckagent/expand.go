package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/qixuan-zhu/deckagent"
	"github.com/qixuan-zhu/deckagent/expand"
	"github.com/qixuan-zhu/deckagent/export"
	"github.com/qixuan-zhu/deckagent/outline"
)

var (
	expandSlides string
	expandTypes  []string
	expandOutDir string
)

func init() {
	expandCmd.Flags().StringVar(&expandSlides, "slides", "", "comma separated slide indexes as shown by outline (default: every body slide)")
	expandCmd.Flags().StringSliceVar(&expandTypes, "types", nil, "content types to expand when --slides is empty (body, image_page, ...)")
	expandCmd.Flags().StringVar(&expandOutDir, "output", "", "directory to write Markdown and JSON result files into")
}

var expandCmd = &cobra.Command{
	Use:   "expand <deck-id>",
	Short: "Generate teaching material for slides of an ingested deck",
	Long: `Expand sends the selected slides to the chat model and stores the
generated explanations, code examples, references and quiz questions.
Without --slides every slide classified as body content is expanded;
a repeated full run replaces the previous results.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseDeckID(args[0])
		if err != nil {
			return err
		}
		indexes, err := parseSlideList(expandSlides)
		if err != nil {
			return err
		}
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		var opts []deckagent.ExpandOption
		if len(expandTypes) > 0 {
			types := make([]outline.ContentType, len(expandTypes))
			for i, t := range expandTypes {
				types[i] = outline.ContentType(strings.TrimSpace(t))
			}
			opts = append(opts, deckagent.WithExpandTypes(types...))
		}

		results, err := eng.Expand(cmd.Context(), id, indexes, opts...)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println("nothing to expand")
			return nil
		}
		for _, r := range results {
			if r.Skipped {
				fmt.Printf("slide %d  skipped: %s\n", r.SlideIndex, r.SkipReason)
				continue
			}
			fmt.Printf("slide %d  %d explanations  %d examples  %d references  %d quiz  %d tokens\n",
				r.SlideIndex, len(r.Explanations), len(r.CodeExamples), len(r.References), len(r.Quiz), r.TotalTokens)
		}

		if expandOutDir != "" {
			return writeExpansionFiles(cmd.Context(), eng, id, results, expandOutDir)
		}
		return nil
	},
}

// parseSlideList turns "3,5,7" into slide indexes. Empty input selects
// the default set.
func parseSlideList(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var indexes []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid slide index %q", part)
		}
		indexes = append(indexes, n)
	}
	return indexes, nil
}

// writeExpansionFiles saves the results next to each other as
// <name>_expanded_<timestamp>.json and .md inside dir.
func writeExpansionFiles(ctx context.Context, eng deckagent.Engine, deckID int64, results []expand.Result, dir string) error {
	dk, err := eng.GetDeck(ctx, deckID)
	if err != nil {
		return err
	}
	slides, _, err := eng.Records(ctx, deckID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	now := time.Now()
	base := strings.TrimSuffix(dk.Filename, filepath.Ext(dk.Filename))
	stamp := now.Format("20060102_150405")

	data, err := export.ExpansionsJSON(export.ExpansionExport{
		Source:      dk.Filename,
		ProcessedAt: now,
		TotalSlides: dk.SlideCount,
		Results:     results,
	})
	if err != nil {
		return err
	}
	jsonPath := filepath.Join(dir, fmt.Sprintf("%s_expanded_%s.json", base, stamp))
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return err
	}
	fmt.Println("wrote", jsonPath)

	md := export.ExpansionMarkdown(dk.Filename, now, slides, results)
	mdPath := filepath.Join(dir, fmt.Sprintf("%s_expanded_%s.md", base, stamp))
	if err := os.WriteFile(mdPath, []byte(md), 0o644); err != nil {
		return err
	}
	fmt.Println("wrote", mdPath)
	return nil
}
