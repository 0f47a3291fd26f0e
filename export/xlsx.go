package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/qixuan-zhu/deckagent/outline"
)

// DeckInfo carries the deck metadata shown on the Overview sheet.
type DeckInfo struct {
	Filename   string
	Path       string
	Format     string
	SlideCount int
	Status     string
	CreatedAt  string
}

// orderedTypes fixes the row order of the per-type counts.
var orderedTypes = []outline.ContentType{
	outline.MainTitle, outline.TOC, outline.ChapterTitle, outline.SectionTitle,
	outline.Body, outline.ImagePage, outline.EndPage, outline.Acknowledgement,
	outline.References, outline.QA, outline.EmptyPage,
}

type sheetWriter struct {
	f   *excelize.File
	err error
}

func (sw *sheetWriter) setRow(sheet, cell string, values []interface{}) {
	if sw.err != nil {
		return
	}
	sw.err = sw.f.SetSheetRow(sheet, cell, &values)
}

// StructureWorkbook writes an xlsx report of a classified deck: an
// Overview sheet with metadata and per-type counts, a Slides sheet with
// one row per structure record, and an Elements sheet.
func StructureWorkbook(w io.Writer, info DeckInfo, slides []outline.SlideRecord, records []outline.StructureRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Overview"); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	if _, err := f.NewSheet("Slides"); err != nil {
		return fmt.Errorf("creating Slides sheet: %w", err)
	}
	if _, err := f.NewSheet("Elements"); err != nil {
		return fmt.Errorf("creating Elements sheet: %w", err)
	}

	bySlide := make(map[int]outline.SlideRecord, len(slides))
	for _, s := range slides {
		bySlide[s.Index] = s
	}

	sw := &sheetWriter{f: f}

	// Overview sheet: metadata block, then per-type counts.
	row := 1
	for _, kv := range [][2]interface{}{
		{"Filename", info.Filename},
		{"Path", info.Path},
		{"Format", info.Format},
		{"Slide Count", info.SlideCount},
		{"Status", info.Status},
		{"Created At", info.CreatedAt},
	} {
		sw.setRow("Overview", fmt.Sprintf("A%d", row), []interface{}{kv[0], kv[1]})
		row++
	}
	row++
	sw.setRow("Overview", fmt.Sprintf("A%d", row), []interface{}{"Content Type", "Count"})
	row++

	counts := make(map[outline.ContentType]int)
	for _, rec := range records {
		counts[rec.Type]++
	}
	for _, t := range orderedTypes {
		if counts[t] == 0 {
			continue
		}
		sw.setRow("Overview", fmt.Sprintf("A%d", row), []interface{}{string(t), counts[t]})
		row++
	}

	// Slides sheet: one row per structure record.
	sw.setRow("Slides", "A1", []interface{}{
		"Index", "Type", "Level", "Path", "Title", "Weight", "Flags",
	})
	for i, rec := range records {
		s := bySlide[rec.SlideIndex]
		sw.setRow("Slides", fmt.Sprintf("A%d", i+2), []interface{}{
			rec.SlideIndex,
			string(rec.Type),
			rec.Level,
			strings.Join(rec.ParentPath, " > "),
			s.Title,
			s.Weight(),
			flagString(rec.Flags),
		})
	}

	// Elements sheet: every annotated element.
	sw.setRow("Elements", "A1", []interface{}{
		"Slide", "Position", "Kind", "Importance", "Text",
	})
	elemRow := 2
	for _, rec := range records {
		for pos, el := range rec.Elements {
			sw.setRow("Elements", fmt.Sprintf("A%d", elemRow), []interface{}{
				rec.SlideIndex, pos, string(el.Kind), string(el.Importance), el.Text,
			})
			elemRow++
		}
	}
	if sw.err != nil {
		return fmt.Errorf("writing workbook rows: %w", sw.err)
	}

	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		f.SetCellStyle("Slides", "A1", "G1", style)
		f.SetCellStyle("Elements", "A1", "E1", style)
	}
	f.SetColWidth("Slides", "D", "E", 40)
	f.SetColWidth("Elements", "E", "E", 60)
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// flagString renders the set flags of a record as a compact
// comma-separated list.
func flagString(fl outline.Flags) string {
	var parts []string
	if fl.HasImages {
		parts = append(parts, "images")
	}
	if fl.HasTables {
		parts = append(parts, "tables")
	}
	if fl.HasCode {
		parts = append(parts, "code")
	}
	if fl.IsTitlePage {
		parts = append(parts, "title_page")
	}
	if fl.IsTOC {
		parts = append(parts, "toc")
	}
	if fl.IsEmpty {
		parts = append(parts, "empty")
	}
	if fl.IsEndSection {
		parts = append(parts, "end_section")
	}
	return strings.Join(parts, ",")
}
