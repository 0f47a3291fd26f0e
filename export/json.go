package export

import (
	"encoding/json"
	"time"

	"github.com/qixuan-zhu/deckagent/expand"
	"github.com/qixuan-zhu/deckagent/outline"
)

// Analysis bundles the full classification output of one deck for a
// lossless JSON export.
type Analysis struct {
	Source     string                    `json:"source"`
	Format     string                    `json:"format,omitempty"`
	SlideCount int                       `json:"slide_count"`
	Slides     []outline.SlideRecord     `json:"slides"`
	Structure  []outline.StructureRecord `json:"structure"`
}

// AnalysisJSON marshals an Analysis with indentation.
func AnalysisJSON(a Analysis) ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

// ExpansionExport is the JSON envelope for expansion results.
type ExpansionExport struct {
	Source      string          `json:"source_file"`
	ProcessedAt time.Time       `json:"processed_at"`
	TotalSlides int             `json:"total_slides"`
	Results     []expand.Result `json:"results"`
}

// ExpansionsJSON marshals expansion results with indentation.
func ExpansionsJSON(e ExpansionExport) ([]byte, error) {
	return json.MarshalIndent(e, "", "  ")
}
