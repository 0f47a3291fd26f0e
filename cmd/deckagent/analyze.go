package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qixuan-zhu/deckagent/deck"
	"github.com/qixuan-zhu/deckagent/export"
	"github.com/qixuan-zhu/deckagent/outline"
)

var (
	analyzeJSONOut string
	analyzeMDOut   string
	analyzeXLSXOut string
)

func init() {
	analyzeCmd.Flags().StringVar(&analyzeJSONOut, "json", "", "write the full analysis as JSON to this file")
	analyzeCmd.Flags().StringVar(&analyzeMDOut, "markdown", "", "write the outline as Markdown to this file")
	analyzeCmd.Flags().StringVar(&analyzeXLSXOut, "xlsx", "", "write the structure workbook to this file")
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <deck-file>",
	Short: "Classify a deck's structure without storing anything",
	Long: `Analyze decodes a deck file, classifies every slide and prints the
resulting structure. Nothing touches the database; use ingest to make
a deck searchable and expandable.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		d, err := deck.Open(path)
		if err != nil {
			return err
		}
		slides, records := outline.NewAnalyzer(loadConfig().Analyzer).AnalyzeDeck(d)

		if analyzeJSONOut != "" {
			data, err := export.AnalysisJSON(export.Analysis{
				Source:     path,
				Format:     string(d.Format),
				SlideCount: len(slides),
				Slides:     slides,
				Structure:  records,
			})
			if err != nil {
				return err
			}
			if err := os.WriteFile(analyzeJSONOut, data, 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", analyzeJSONOut)
		}
		if analyzeMDOut != "" {
			md := export.OutlineMarkdown(filepath.Base(path), slides, records)
			if err := os.WriteFile(analyzeMDOut, []byte(md), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", analyzeMDOut)
		}
		if analyzeXLSXOut != "" {
			f, err := os.Create(analyzeXLSXOut)
			if err != nil {
				return err
			}
			info := export.DeckInfo{
				Filename:   filepath.Base(path),
				Path:       path,
				Format:     string(d.Format),
				SlideCount: len(slides),
			}
			if err := export.StructureWorkbook(f, info, slides, records); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Println("wrote", analyzeXLSXOut)
		}

		if analyzeJSONOut == "" && analyzeMDOut == "" && analyzeXLSXOut == "" {
			printStructure(slides, records)
			fmt.Printf("\n%d slides (%s)\n", len(slides), d.Format)
		}
		return nil
	},
}

// printStructure renders one line per slide, indented by outline level.
func printStructure(slides []outline.SlideRecord, records []outline.StructureRecord) {
	for _, rec := range records {
		title := ""
		if rec.SlideIndex >= 0 && rec.SlideIndex < len(slides) {
			title = slides[rec.SlideIndex].Title
		}
		if title == "" {
			title = "(untitled)"
		}
		indent := ""
		if rec.Level > 1 {
			indent = strings.Repeat("  ", rec.Level-1)
		}
		fmt.Printf("%3d  %s[%s] %s\n", rec.SlideIndex, indent, rec.Type, clip(title, 60))
	}
}
