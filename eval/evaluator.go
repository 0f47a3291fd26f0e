package eval

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/qixuan-zhu/deckagent/deck"
	"github.com/qixuan-zhu/deckagent/outline"
)

// Evaluator classifies labeled decks and scores the outcome.
type Evaluator struct {
	analyzer *outline.Analyzer
}

// NewEvaluator creates an evaluator using the given classifier thresholds.
func NewEvaluator(cfg outline.Config) *Evaluator {
	return &Evaluator{analyzer: outline.NewAnalyzer(cfg)}
}

// SlideResult is the judgment for one labeled slide.
type SlideResult struct {
	SlideIndex int      `json:"slide_index"`
	Title      string   `json:"title,omitempty"`
	WantType   string   `json:"want_type"`
	GotType    string   `json:"got_type"`
	TypeMatch  bool     `json:"type_match"`
	WantLevel  int      `json:"want_level,omitempty"`
	GotLevel   int      `json:"got_level,omitempty"`
	LevelMatch bool     `json:"level_match"`
	WantPath   []string `json:"want_path,omitempty"`
	GotPath    []string `json:"got_path,omitempty"`
	PathMatch  bool     `json:"path_match"`
	Error      string   `json:"error,omitempty"`
}

// TypeMetrics is precision/recall/F1 for one content type, computed over
// the labeled slides only.
type TypeMetrics struct {
	ContentType string  `json:"content_type"`
	Support     int     `json:"support"`
	Predicted   int     `json:"predicted"`
	Correct     int     `json:"correct"`
	Precision   float64 `json:"precision"`
	Recall      float64 `json:"recall"`
	F1          float64 `json:"f1"`
}

// Report holds the results of one evaluation run.
type Report struct {
	Dataset        string                    `json:"dataset"`
	Deck           string                    `json:"deck"`
	TotalSlides    int                       `json:"total_slides"`
	Labeled        int                       `json:"labeled"`
	TypeCorrect    int                       `json:"type_correct"`
	TypeAccuracy   float64                   `json:"type_accuracy"`
	LevelsAsserted int                       `json:"levels_asserted,omitempty"`
	LevelCorrect   int                       `json:"level_correct,omitempty"`
	LevelAccuracy  float64                   `json:"level_accuracy,omitempty"`
	PathsAsserted  int                       `json:"paths_asserted,omitempty"`
	PathCorrect    int                       `json:"path_correct,omitempty"`
	PathAccuracy   float64                   `json:"path_accuracy,omitempty"`
	PerType        []TypeMetrics             `json:"per_type"`
	Confusion      map[string]map[string]int `json:"confusion,omitempty"`
	Results        []SlideResult             `json:"results"`
	RunTime        time.Duration             `json:"run_time"`
}

// Run analyzes the dataset's deck and scores every label against the
// classifier output.
func (e *Evaluator) Run(ds *Dataset) (*Report, error) {
	start := time.Now()

	d, err := deck.Open(ds.Deck)
	if err != nil {
		return nil, fmt.Errorf("opening deck %s: %w", ds.Deck, err)
	}
	slides, records := e.analyzer.AnalyzeDeck(d)

	byIndex := make(map[int]outline.StructureRecord, len(records))
	for _, rec := range records {
		byIndex[rec.SlideIndex] = rec
	}

	rep := &Report{
		Dataset:     ds.Name,
		Deck:        ds.Deck,
		TotalSlides: len(slides),
		Labeled:     len(ds.Labels),
		Confusion:   make(map[string]map[string]int),
	}
	support := make(map[string]int)
	predicted := make(map[string]int)
	correct := make(map[string]int)

	for _, label := range ds.Labels {
		res := SlideResult{
			SlideIndex: label.SlideIndex,
			WantType:   label.ContentType,
			WantLevel:  label.Level,
			WantPath:   label.ParentPath,
		}
		rec, ok := byIndex[label.SlideIndex]
		if !ok {
			res.Error = fmt.Sprintf("slide %d not in deck (%d slides)", label.SlideIndex, len(slides))
			rep.Results = append(rep.Results, res)
			support[label.ContentType]++
			continue
		}
		if label.SlideIndex < len(slides) {
			res.Title = slides[label.SlideIndex].Title
		}
		res.GotType = string(rec.Type)
		res.GotLevel = rec.Level
		res.GotPath = rec.ParentPath

		res.TypeMatch = res.GotType == label.ContentType
		support[label.ContentType]++
		predicted[res.GotType]++
		if res.TypeMatch {
			correct[label.ContentType]++
			rep.TypeCorrect++
		}
		if rep.Confusion[label.ContentType] == nil {
			rep.Confusion[label.ContentType] = make(map[string]int)
		}
		rep.Confusion[label.ContentType][res.GotType]++

		res.LevelMatch = true
		if label.Level > 0 {
			rep.LevelsAsserted++
			res.LevelMatch = rec.Level == label.Level
			if res.LevelMatch {
				rep.LevelCorrect++
			}
		}

		res.PathMatch = true
		if label.ParentPath != nil {
			rep.PathsAsserted++
			res.PathMatch = samePath(rec.ParentPath, label.ParentPath)
			if res.PathMatch {
				rep.PathCorrect++
			}
		}

		rep.Results = append(rep.Results, res)
	}

	if rep.Labeled > 0 {
		rep.TypeAccuracy = float64(rep.TypeCorrect) / float64(rep.Labeled)
	}
	if rep.LevelsAsserted > 0 {
		rep.LevelAccuracy = float64(rep.LevelCorrect) / float64(rep.LevelsAsserted)
	}
	if rep.PathsAsserted > 0 {
		rep.PathAccuracy = float64(rep.PathCorrect) / float64(rep.PathsAsserted)
	}

	types := make([]string, 0, len(support))
	for t := range support {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		m := TypeMetrics{
			ContentType: t,
			Support:     support[t],
			Predicted:   predicted[t],
			Correct:     correct[t],
		}
		if m.Predicted > 0 {
			m.Precision = float64(m.Correct) / float64(m.Predicted)
		}
		if m.Support > 0 {
			m.Recall = float64(m.Correct) / float64(m.Support)
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		rep.PerType = append(rep.PerType, m)
	}

	rep.RunTime = time.Since(start)
	return rep, nil
}

// Summary renders the report as a compact text table.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "dataset: %s (%s)\n", r.Dataset, r.Deck)
	fmt.Fprintf(&b, "slides: %d, labeled: %d\n", r.TotalSlides, r.Labeled)
	fmt.Fprintf(&b, "type accuracy:  %d/%d = %.1f%%\n", r.TypeCorrect, r.Labeled, 100*r.TypeAccuracy)
	if r.LevelsAsserted > 0 {
		fmt.Fprintf(&b, "level accuracy: %d/%d = %.1f%%\n", r.LevelCorrect, r.LevelsAsserted, 100*r.LevelAccuracy)
	}
	if r.PathsAsserted > 0 {
		fmt.Fprintf(&b, "path accuracy:  %d/%d = %.1f%%\n", r.PathCorrect, r.PathsAsserted, 100*r.PathAccuracy)
	}
	b.WriteString("\ntype             support  predicted  correct  precision  recall     f1\n")
	for _, m := range r.PerType {
		fmt.Fprintf(&b, "%-16s %7d  %9d  %7d  %9.2f  %6.2f  %5.2f\n",
			m.ContentType, m.Support, m.Predicted, m.Correct, m.Precision, m.Recall, m.F1)
	}
	var misses []string
	for _, res := range r.Results {
		if res.Error != "" {
			misses = append(misses, fmt.Sprintf("  slide %d: %s", res.SlideIndex, res.Error))
			continue
		}
		if !res.TypeMatch || !res.LevelMatch || !res.PathMatch {
			misses = append(misses, fmt.Sprintf("  slide %d (%s): want %s L%d, got %s L%d",
				res.SlideIndex, res.Title, res.WantType, res.WantLevel, res.GotType, res.GotLevel))
		}
	}
	if len(misses) > 0 {
		b.WriteString("\nmisses:\n")
		b.WriteString(strings.Join(misses, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}

func samePath(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
