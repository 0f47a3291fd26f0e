// Package deck decodes slide-deck files into a format-independent shape
// model. Decoders deliver raw text exactly as stored; normalization is the
// analyzer's job.
package deck

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies the container a deck was decoded from.
type Format string

const (
	FormatPPTX     Format = "pptx"
	FormatPDF      Format = "pdf"
	FormatMarkdown Format = "markdown"
)

// ErrUnsupportedFormat is returned by Open for file types no decoder claims.
var ErrUnsupportedFormat = errors.New("deck: unsupported file format")

// Shape is one drawable element on a slide.
type Shape struct {
	Text         string `json:"text,omitempty"`
	IsPicture    bool   `json:"is_picture,omitempty"`
	HasImageFill bool   `json:"has_image_fill,omitempty"`
}

// Slide is the decoder-level view of one slide: ordered shapes, optional
// speaker notes and a 0-based index. Immutable once produced.
type Slide struct {
	Index             int     `json:"index"`
	Shapes            []Shape `json:"shapes,omitempty"`
	Notes             string  `json:"notes,omitempty"`
	BackgroundPicture bool    `json:"background_picture,omitempty"`
}

// Deck is a decoded slide-deck file.
type Deck struct {
	Source string  `json:"source"`
	Format Format  `json:"format"`
	Slides []Slide `json:"slides"`
}

// Open decodes the deck file at path, picking the decoder by extension.
// A file that cannot be opened at all is a hard error; individual broken
// slides or shapes inside an otherwise readable file are skipped.
func Open(path string) (*Deck, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pptx":
		return OpenPPTX(path)
	case ".pdf":
		return OpenPDF(path)
	case ".md", ".markdown":
		return OpenMarkdown(path)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// SupportedExtensions lists the file extensions Open accepts.
func SupportedExtensions() []string {
	return []string{".pptx", ".pdf", ".md", ".markdown"}
}
