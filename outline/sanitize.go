package outline

import (
	"strings"
	"unicode"
)

// allowedRanges lists the non-ASCII code points that survive Sanitize:
// CJK scripts and punctuation, fullwidth forms, enclosed numerals and the
// usual bullet glyphs. The table must stay sorted.
var allowedRanges = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x00b7, Hi: 0x00b7, Stride: 1}, // middle dot
		{Lo: 0x1100, Hi: 0x11ff, Stride: 1}, // hangul jamo
		{Lo: 0x2010, Hi: 0x2027, Stride: 1}, // dashes, quotes, bullets, ellipsis
		{Lo: 0x203b, Hi: 0x203b, Stride: 1}, // reference mark
		{Lo: 0x2043, Hi: 0x2043, Stride: 1}, // hyphen bullet
		{Lo: 0x2219, Hi: 0x2219, Stride: 1}, // bullet operator
		{Lo: 0x2460, Hi: 0x24ff, Stride: 1}, // enclosed alphanumerics
		{Lo: 0x25a0, Hi: 0x25ff, Stride: 1}, // geometric shapes
		{Lo: 0x2605, Hi: 0x2606, Stride: 1}, // stars
		{Lo: 0x27a2, Hi: 0x27a4, Stride: 2}, // arrowhead bullets
		{Lo: 0x3000, Hi: 0x303f, Stride: 1}, // CJK punctuation
		{Lo: 0x3040, Hi: 0x30ff, Stride: 1}, // hiragana, katakana
		{Lo: 0x3400, Hi: 0x4dbf, Stride: 1}, // CJK extension A
		{Lo: 0x4e00, Hi: 0x9fff, Stride: 1}, // CJK unified ideographs
		{Lo: 0xac00, Hi: 0xd7a3, Stride: 1}, // hangul syllables
		{Lo: 0xf900, Hi: 0xfaff, Stride: 1}, // CJK compatibility ideographs
		{Lo: 0xff00, Hi: 0xffef, Stride: 1}, // fullwidth and halfwidth forms
	},
	R32: []unicode.Range32{
		{Lo: 0x20000, Hi: 0x2a6df, Stride: 1}, // CJK extension B
		{Lo: 0x2f800, Hi: 0x2fa1f, Stride: 1}, // CJK compatibility supplement
	},
}

func allowedRune(r rune) bool {
	switch r {
	case '\t', '\n', '\r':
		return true
	}
	if r >= 0x20 && r <= 0x7e {
		return true
	}
	return unicode.Is(allowedRanges, r)
}

// Sanitize strips a raw text block down to the allow-list and normalizes
// whitespace. Every disallowed code point becomes a space, runs of
// whitespace collapse to one space and the ends are trimmed. Applying
// Sanitize twice gives the same result as applying it once.
func Sanitize(text string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if allowedRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
