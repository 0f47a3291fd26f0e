package outline

import "unicode/utf8"

// shortPhraseMaxRunes splits paragraph elements into short phrases and
// full paragraphs.
const shortPhraseMaxRunes = 50

// firstParagraphMinRunes is the length above which the leading paragraph
// is promoted to medium importance.
const firstParagraphMinRunes = 10

// AnnotateElements expands a slide into typed content elements. The output
// order is stable: heading, paragraphs, bullets, images, note. The result
// is deterministic for a given slide and content type.
func AnnotateElements(slide SlideRecord, ctype ContentType) []ContentElement {
	var out []ContentElement

	if slide.Title != "" {
		out = append(out, ContentElement{
			Kind:       KindHeading,
			Text:       slide.Title,
			Importance: headingImportance(ctype),
		})
	}

	for i, p := range slide.Paragraphs {
		kind := KindParagraph
		if utf8.RuneCountInString(p) < shortPhraseMaxRunes {
			kind = KindShortPhrase
		}
		imp := ImportanceLow
		if i == 0 && utf8.RuneCountInString(p) > firstParagraphMinRunes {
			imp = ImportanceMedium
		}
		out = append(out, ContentElement{Kind: kind, Text: p, Importance: imp})
	}

	for _, b := range slide.Bullets {
		out = append(out, ContentElement{Kind: KindBullet, Text: b, Importance: ImportanceMedium})
	}

	for _, img := range slide.Images {
		imp := ImportanceMedium
		if ctype == ImagePage {
			imp = ImportanceHigh
		}
		out = append(out, ContentElement{Kind: KindImage, Text: img, Importance: imp})
	}

	if slide.Notes != "" {
		out = append(out, ContentElement{Kind: KindNote, Text: slide.Notes, Importance: ImportanceLow})
	}
	return out
}

func headingImportance(t ContentType) Importance {
	switch t {
	case MainTitle, ChapterTitle, ImagePage:
		return ImportanceHigh
	case TOC, EndPage, Acknowledgement:
		return ImportanceMedium
	}
	return ImportanceLow
}
