package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qixuan-zhu/deckagent/export"
)

var (
	exportFormat string
	exportOut    string
)

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "xlsx", "output format: xlsx, json or markdown")
	exportCmd.Flags().StringVar(&exportOut, "output", "", "output file (default <deck>_structure.<ext>)")
}

var exportCmd = &cobra.Command{
	Use:   "export <deck-id>",
	Short: "Write a deck's stored structure analysis to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseDeckID(args[0])
		if err != nil {
			return err
		}
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		dk, err := eng.GetDeck(cmd.Context(), id)
		if err != nil {
			return err
		}
		slides, records, err := eng.Records(cmd.Context(), id)
		if err != nil {
			return err
		}

		base := strings.TrimSuffix(dk.Filename, filepath.Ext(dk.Filename))
		out := exportOut

		switch exportFormat {
		case "xlsx":
			if out == "" {
				out = base + "_structure.xlsx"
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			info := export.DeckInfo{
				Filename:   dk.Filename,
				Path:       dk.Path,
				Format:     dk.Format,
				SlideCount: dk.SlideCount,
				Status:     dk.Status,
				CreatedAt:  dk.CreatedAt,
			}
			if err := export.StructureWorkbook(f, info, slides, records); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
		case "json":
			if out == "" {
				out = base + "_structure.json"
			}
			data, err := export.AnalysisJSON(export.Analysis{
				Source:     dk.Filename,
				Format:     dk.Format,
				SlideCount: dk.SlideCount,
				Slides:     slides,
				Structure:  records,
			})
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
		case "markdown", "md":
			if out == "" {
				out = base + "_structure.md"
			}
			md := export.OutlineMarkdown(dk.Filename, slides, records)
			if err := os.WriteFile(out, []byte(md), 0o644); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown format %q (want xlsx, json or markdown)", exportFormat)
		}

		fmt.Println("wrote", out)
		return nil
	},
}
