package deck

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/net/html/charset"
)

// OpenPPTX decodes a .pptx file into a Deck.
func OpenPPTX(path string) (*Deck, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening pptx: %w", err)
	}
	defer r.Close()

	d, err := decodePPTX(&r.Reader)
	if err != nil {
		return nil, err
	}
	d.Source = path
	return d, nil
}

// DecodePPTX decodes pptx bytes already in memory, as arriving from an
// upload.
func DecodePPTX(data []byte) (*Deck, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening pptx: %w", err)
	}
	return decodePPTX(zr)
}

func decodePPTX(zr *zip.Reader) (*Deck, error) {
	// Build file index for quick lookup
	fileIndex := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		fileIndex[f.Name] = f
	}

	// Collect slide files (ppt/slides/slide1.xml, slide2.xml, ...)
	slideFiles := make(map[int]*zip.File)
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") {
			if num := slideNumber(f.Name); num > 0 {
				slideFiles[num] = f
			}
		}
	}
	if len(slideFiles) == 0 {
		return nil, fmt.Errorf("pptx has no slides")
	}

	nums := make([]int, 0, len(slideFiles))
	for n := range slideFiles {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	d := &Deck{Format: FormatPPTX}
	for i, num := range nums {
		slide := Slide{Index: i}
		data, err := readZipFile(slideFiles[num])
		if err != nil {
			slog.Debug("pptx: skipping unreadable slide", "slide", num, "error", err)
			d.Slides = append(d.Slides, slide)
			continue
		}
		slide = decodeSlideXML(data)
		slide.Index = i
		slide.Notes = pptxNotesText(fileIndex, num)
		d.Slides = append(d.Slides, slide)
	}
	return d, nil
}

// pptxSlide is the simplified XML structure of one slide part. Element
// names match on local name, so the p:/a: prefixes never appear here.
type pptxSlide struct {
	CSld struct {
		Bg *struct {
			BgPr *struct {
				BlipFill *struct{} `xml:"blipFill"`
			} `xml:"bgPr"`
		} `xml:"bg"`
		SpTree struct {
			SPs  []pptxSP   `xml:"sp"`
			Pics []struct{} `xml:"pic"`
		} `xml:"spTree"`
	} `xml:"cSld"`
}

type pptxSP struct {
	SpPr *struct {
		BlipFill *struct{} `xml:"blipFill"`
	} `xml:"spPr"`
	TxBody *pptxTxBody `xml:"txBody"`
}

type pptxTxBody struct {
	Paras []pptxPara `xml:"p"`
}

type pptxPara struct {
	Runs []pptxRun `xml:"r"`
}

type pptxRun struct {
	Text string `xml:"t"`
}

// decodeSlideXML turns one slide part into shapes. Text is delivered as
// stored, one shape per sp element with paragraphs joined by newlines;
// pic elements and image fills become picture shapes. A malformed part
// yields an empty slide rather than an error.
func decodeSlideXML(data []byte) Slide {
	var sl pptxSlide
	if err := unmarshalXML(data, &sl); err != nil {
		slog.Debug("pptx: skipping malformed slide xml", "error", err)
		return Slide{}
	}

	var s Slide
	for _, sp := range sl.CSld.SpTree.SPs {
		sh := Shape{HasImageFill: sp.SpPr != nil && sp.SpPr.BlipFill != nil}
		if sp.TxBody != nil {
			var lines []string
			for _, para := range sp.TxBody.Paras {
				var line strings.Builder
				for _, run := range para.Runs {
					line.WriteString(run.Text)
				}
				if strings.TrimSpace(line.String()) != "" {
					lines = append(lines, line.String())
				}
			}
			sh.Text = strings.Join(lines, "\n")
		}
		if sh.Text == "" && !sh.HasImageFill {
			continue
		}
		s.Shapes = append(s.Shapes, sh)
	}
	for range sl.CSld.SpTree.Pics {
		s.Shapes = append(s.Shapes, Shape{IsPicture: true})
	}
	if bg := sl.CSld.Bg; bg != nil && bg.BgPr != nil && bg.BgPr.BlipFill != nil {
		s.BackgroundPicture = true
	}
	return s
}

// pptxNotesText pulls the speaker notes for a slide, if any. Notes parts
// share the slide XML layout, so the same decode walk applies.
func pptxNotesText(fileIndex map[string]*zip.File, num int) string {
	f := fileIndex[fmt.Sprintf("ppt/notesSlides/notesSlide%d.xml", num)]
	if f == nil {
		return ""
	}
	data, err := readZipFile(f)
	if err != nil {
		return ""
	}
	sl := decodeSlideXML(data)
	var parts []string
	for _, sh := range sl.Shapes {
		if sh.Text != "" {
			parts = append(parts, sh.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// unmarshalXML decodes an OOXML part, tolerating the non-UTF8 encoding
// declarations some legacy authoring tools emit.
func unmarshalXML(data []byte, v interface{}) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel
	return dec.Decode(v)
}

func slideNumber(name string) int {
	// Extract number from "ppt/slides/slide1.xml"
	name = strings.TrimPrefix(name, "ppt/slides/slide")
	name = strings.TrimSuffix(name, ".xml")
	var num int
	fmt.Sscanf(name, "%d", &num)
	return num
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
