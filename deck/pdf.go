package deck

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// OpenPDF decodes a PDF as a deck, one slide per page. Each non-blank
// line of page text becomes its own shape so short heading lines stay
// separable from body text. Pages that fail to extract stay in the deck
// as empty slides; only a file that cannot be opened at all is an error.
func OpenPDF(path string) (*Deck, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	d := &Deck{Source: path, Format: FormatPDF}
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		slide := Slide{Index: i - 1}
		page := reader.Page(i)
		if !page.V.IsNull() {
			text, err := page.GetPlainText(nil)
			if err != nil {
				slog.Debug("pdf: skipping unreadable page", "page", i, "error", err)
			} else {
				for _, line := range strings.Split(text, "\n") {
					if strings.TrimSpace(line) == "" {
						continue
					}
					slide.Shapes = append(slide.Shapes, Shape{Text: line})
				}
			}
		}
		d.Slides = append(d.Slides, slide)
	}
	if len(d.Slides) == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}
	return d, nil
}
