package outline

import (
	"strings"
	"unicode/utf8"
)

// analysisState is the mutable state carried across one left-to-right pass
// over a deck. A fresh value is created per Analyze call, so concurrent
// analyses never share it.
type analysisState struct {
	path        []string
	prevType    ContentType
	tocRunStart int
}

// push records a heading in the running hierarchy path. The path is cut
// back to the heading's parent depth, then the title is appended. Empty
// titles and titles equal to the current tail are not appended.
func (st *analysisState) push(level int, title string) {
	depth := level - 1
	if depth < 0 {
		depth = 0
	}
	if depth > len(st.path) {
		depth = len(st.path)
	}
	st.path = st.path[:depth]
	if title == "" {
		return
	}
	if n := len(st.path); n > 0 && st.path[n-1] == title {
		return
	}
	st.path = append(st.path, title)
}

func copyPath(path []string) []string {
	if len(path) == 0 {
		return nil
	}
	out := make([]string, len(path))
	copy(out, path)
	return out
}

// Analyze classifies an ordered slide sequence in a single pass and
// returns one StructureRecord per slide, elements included. An empty
// input yields an empty output; no synthetic slides are invented.
func (a *Analyzer) Analyze(slides []SlideRecord) []StructureRecord {
	records := make([]StructureRecord, 0, len(slides))
	if len(slides) == 0 {
		return records
	}
	st := &analysisState{tocRunStart: -1}
	for i, slide := range slides {
		rec := a.classify(slide, i, i == len(slides)-1, st)
		rec.Elements = AnnotateElements(slide, rec.Type)
		records = append(records, rec)
	}
	return records
}

// classify assigns one slide its content type and level, snapshots the
// hierarchy path as it stood before the slide, then applies the slide's
// effect on the running state.
func (a *Analyzer) classify(slide SlideRecord, index int, last bool, st *analysisState) StructureRecord {
	weight := slide.Weight()
	ctype, level := a.decide(slide, index, last, weight, st)

	rec := StructureRecord{
		SlideIndex:  slide.Index,
		Type:        ctype,
		Level:       level,
		ParentPath:  copyPath(st.path),
		TOCRunStart: -1,
		Flags: Flags{
			HasImages:    len(slide.Images) > 0,
			HasCode:      hasCodeHints(slide),
			IsTitlePage:  ctype == MainTitle,
			IsTOC:        ctype == TOC,
			IsEmpty:      ctype == EmptyPage,
			IsEndSection: ctype.IsEnding(),
		},
	}

	switch ctype {
	case TOC:
		if st.prevType != TOC || st.tocRunStart < 0 {
			st.tocRunStart = index
		}
		rec.TOCRunStart = st.tocRunStart
	case MainTitle, ChapterTitle, ImagePage:
		st.push(level, slide.Title)
	}
	st.prevType = ctype
	return rec
}

// decide runs the classification rules in their fixed order; the first
// match wins and later rules never override it.
func (a *Analyzer) decide(slide SlideRecord, index int, last bool, weight int, st *analysisState) (ContentType, int) {
	if slide.IsBlank() {
		return EmptyPage, len(st.path) + 1
	}
	if index == 0 && a.isMainTitle(slide, weight) {
		return MainTitle, 1
	}
	if isTOCSlide(slide) {
		return TOC, 1
	}
	if last {
		if t, ok := a.endingType(slide, weight); ok {
			return t, 1
		}
	}
	if weight <= a.cfg.HeadingWeightMax && a.isChapterTitle(slide.Title) {
		return ChapterTitle, 2
	}
	if len(slide.Images) > 0 && weight < a.cfg.ImageWeightMax {
		return ImagePage, len(st.path) + 1
	}
	if weight <= a.cfg.HeadingWeightMax && a.isSectionTitle(slide.Title) {
		return SectionTitle, 3
	}
	if slide.Title != "" || len(slide.Paragraphs) > 0 || len(slide.Bullets) > 0 {
		return Body, len(st.path) + 1
	}
	return EmptyPage, len(st.path) + 1
}

// isMainTitle applies the cover-page rule: a short title plus either a
// separator, an indicator keyword, or low overall weight.
func (a *Analyzer) isMainTitle(slide SlideRecord, weight int) bool {
	if utf8.RuneCountInString(slide.Title) > a.cfg.TitleMaxRunes {
		return false
	}
	if strings.ContainsAny(slide.Title, titleSeparators) {
		return true
	}
	if containsKeyword(slide.Title, titleIndicatorKeywords) {
		return true
	}
	return weight < a.cfg.MainTitleWeightMax
}

func isTOCSlide(slide SlideRecord) bool {
	if ContainsTOCKeyword(slide.Title) {
		return true
	}
	for _, p := range slide.Paragraphs {
		if ContainsTOCKeyword(p) {
			return true
		}
	}
	for _, b := range slide.Bullets {
		if ContainsTOCKeyword(b) {
			return true
		}
	}
	return false
}

// endingType sub-classifies the last slide. Vocabulary checks run from the
// most specific set to the generic one; a nearly text-free last slide is
// an end page even without a keyword.
func (a *Analyzer) endingType(slide SlideRecord, weight int) (ContentType, bool) {
	text := slide.joinedText()
	switch {
	case containsKeyword(text, ackKeywords):
		return Acknowledgement, true
	case containsKeyword(text, refKeywords):
		return References, true
	case containsKeyword(text, qaKeywords):
		return QA, true
	case containsKeyword(text, endKeywords):
		return EndPage, true
	case weight < a.cfg.EndingWeightMax:
		return EndPage, true
	}
	return "", false
}

func (a *Analyzer) isChapterTitle(title string) bool {
	if title == "" {
		return false
	}
	if MatchesChapterNumbering(title) {
		return true
	}
	return containsKeyword(title, chapterKeywords) &&
		utf8.RuneCountInString(title) < a.cfg.ChapterTitleMaxRunes
}

func (a *Analyzer) isSectionTitle(title string) bool {
	if title == "" {
		return false
	}
	if MatchesSectionNumbering(title) {
		return true
	}
	return containsKeyword(title, sectionKeywords) &&
		utf8.RuneCountInString(title) < a.cfg.SectionTitleMaxRunes
}

// joinedText flattens title, paragraphs and bullets for keyword scans.
func (s SlideRecord) joinedText() string {
	parts := make([]string, 0, 1+len(s.Paragraphs)+len(s.Bullets))
	if s.Title != "" {
		parts = append(parts, s.Title)
	}
	parts = append(parts, s.Paragraphs...)
	parts = append(parts, s.Bullets...)
	return strings.Join(parts, " ")
}
