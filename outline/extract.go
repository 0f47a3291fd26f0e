package outline

import (
	"fmt"
	"unicode/utf8"

	"github.com/qixuan-zhu/deckagent/deck"
)

// ExtractSlide normalizes one raw slide into a SlideRecord.
//
// Shape texts are sanitized and split into a title, paragraphs and bullets.
// The title is the first text block short enough to qualify; any other
// short block is demoted into the paragraph/bullet pool rather than lost.
// Bullet detection looks at the sanitized text for glyphs and list markers
// and at the raw text for leading indentation.
func (a *Analyzer) ExtractSlide(s deck.Slide) SlideRecord {
	rec := SlideRecord{Index: s.Index}

	type block struct {
		raw   string
		clean string
	}
	blocks := make([]block, 0, len(s.Shapes))
	for _, sh := range s.Shapes {
		clean := Sanitize(sh.Text)
		if clean == "" {
			continue
		}
		blocks = append(blocks, block{raw: sh.Text, clean: clean})
	}

	titleIdx := -1
	for i, b := range blocks {
		if utf8.RuneCountInString(b.clean) <= a.cfg.TitleMaxRunes {
			rec.Title = b.clean
			titleIdx = i
			break
		}
	}

	for i, b := range blocks {
		if i == titleIdx {
			continue
		}
		if isBulletText(b.raw, b.clean) {
			rec.Bullets = append(rec.Bullets, b.clean)
		} else {
			rec.Paragraphs = append(rec.Paragraphs, b.clean)
		}
	}

	n := 0
	for _, sh := range s.Shapes {
		if sh.IsPicture || sh.HasImageFill {
			rec.Images = append(rec.Images, imageToken(s.Index, n))
			n++
		}
	}
	if n == 0 && s.BackgroundPicture {
		rec.Images = append(rec.Images, imageToken(s.Index, 0))
	}

	rec.Notes = Sanitize(s.Notes)
	rec.NaiveLevel = naiveTitleLevel(rec.Title)
	return rec
}

// ExtractDeck normalizes every slide of a decoded deck, in order.
func (a *Analyzer) ExtractDeck(d *deck.Deck) []SlideRecord {
	out := make([]SlideRecord, 0, len(d.Slides))
	for _, s := range d.Slides {
		out = append(out, a.ExtractSlide(s))
	}
	return out
}

// AnalyzeDeck extracts and classifies a decoded deck in one call.
func (a *Analyzer) AnalyzeDeck(d *deck.Deck) ([]SlideRecord, []StructureRecord) {
	slides := a.ExtractDeck(d)
	return slides, a.Analyze(slides)
}

// imageToken builds the positional placeholder for one image. Image tokens
// carry position only, never content.
func imageToken(slide, n int) string {
	return fmt.Sprintf("slide_%d_image_%d", slide, n)
}
