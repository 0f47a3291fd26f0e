package deck

import (
	"archive/zip"
	"bytes"
	"testing"
)

const slideXMLHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`

func buildPPTX(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("creating zip entry %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("writing zip entry %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

func TestDecodePPTXShapesAndText(t *testing.T) {
	slide1 := slideXMLHeader + `
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:cSld>
    <p:spTree>
      <p:sp><p:txBody><a:p><a:r><a:t>课程汇报：机器学习</a:t></a:r></a:p></p:txBody></p:sp>
      <p:sp><p:txBody><a:p><a:r><a:t>第一行</a:t></a:r></a:p><a:p><a:r><a:t>第二行</a:t></a:r></a:p></p:txBody></p:sp>
      <p:pic><p:blipFill><a:blip r:embed="rId2" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"/></p:blipFill></p:pic>
    </p:spTree>
  </p:cSld>
</p:sld>`

	data := buildPPTX(t, map[string]string{
		"ppt/slides/slide1.xml": slide1,
	})

	d, err := DecodePPTX(data)
	if err != nil {
		t.Fatalf("DecodePPTX: %v", err)
	}
	if d.Format != FormatPPTX {
		t.Errorf("Format = %q, want %q", d.Format, FormatPPTX)
	}
	if len(d.Slides) != 1 {
		t.Fatalf("got %d slides, want 1", len(d.Slides))
	}
	s := d.Slides[0]
	if len(s.Shapes) != 3 {
		t.Fatalf("got %d shapes, want 3: %+v", len(s.Shapes), s.Shapes)
	}
	if s.Shapes[0].Text != "课程汇报：机器学习" {
		t.Errorf("shape 0 Text = %q", s.Shapes[0].Text)
	}
	if s.Shapes[1].Text != "第一行\n第二行" {
		t.Errorf("shape 1 Text = %q, want paragraphs joined by newline", s.Shapes[1].Text)
	}
	if !s.Shapes[2].IsPicture {
		t.Error("shape 2 should be a picture")
	}
}

func TestDecodePPTXSlideOrderIsNumeric(t *testing.T) {
	mkSlide := func(text string) string {
		return slideXMLHeader + `
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>` + text + `</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld>
</p:sld>`
	}
	data := buildPPTX(t, map[string]string{
		"ppt/slides/slide10.xml": mkSlide("十"),
		"ppt/slides/slide2.xml":  mkSlide("二"),
		"ppt/slides/slide1.xml":  mkSlide("一"),
	})
	d, err := DecodePPTX(data)
	if err != nil {
		t.Fatalf("DecodePPTX: %v", err)
	}
	var got []string
	for _, s := range d.Slides {
		got = append(got, s.Shapes[0].Text)
	}
	want := []string{"一", "二", "十"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("slide order = %v, want %v", got, want)
		}
	}
	for i, s := range d.Slides {
		if s.Index != i {
			t.Errorf("slide %d has Index %d", i, s.Index)
		}
	}
}

func TestDecodePPTXNotesAndBackground(t *testing.T) {
	slide1 := slideXMLHeader + `
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:cSld>
    <p:bg><p:bgPr><a:blipFill><a:blip/></a:blipFill></p:bgPr></p:bg>
    <p:spTree>
      <p:sp><p:txBody><a:p><a:r><a:t>封面</a:t></a:r></a:p></p:txBody></p:sp>
    </p:spTree>
  </p:cSld>
</p:sld>`
	notes1 := slideXMLHeader + `
<p:notes xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>演讲者备注</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld>
</p:notes>`

	data := buildPPTX(t, map[string]string{
		"ppt/slides/slide1.xml":           slide1,
		"ppt/notesSlides/notesSlide1.xml": notes1,
	})
	d, err := DecodePPTX(data)
	if err != nil {
		t.Fatalf("DecodePPTX: %v", err)
	}
	s := d.Slides[0]
	if s.Notes != "演讲者备注" {
		t.Errorf("Notes = %q, want %q", s.Notes, "演讲者备注")
	}
	if !s.BackgroundPicture {
		t.Error("BackgroundPicture should be set")
	}
}

func TestDecodePPTXImageFillShape(t *testing.T) {
	slide1 := slideXMLHeader + `
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:cSld><p:spTree>
    <p:sp><p:spPr><a:blipFill><a:blip/></a:blipFill></p:spPr></p:sp>
  </p:spTree></p:cSld>
</p:sld>`
	data := buildPPTX(t, map[string]string{"ppt/slides/slide1.xml": slide1})
	d, err := DecodePPTX(data)
	if err != nil {
		t.Fatalf("DecodePPTX: %v", err)
	}
	s := d.Slides[0]
	if len(s.Shapes) != 1 || !s.Shapes[0].HasImageFill {
		t.Errorf("Shapes = %+v, want one image-fill shape", s.Shapes)
	}
}

func TestDecodePPTXMalformedSlideKeepsCount(t *testing.T) {
	good := slideXMLHeader + `
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>好页</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld>
</p:sld>`
	data := buildPPTX(t, map[string]string{
		"ppt/slides/slide1.xml": "this is not xml <<<",
		"ppt/slides/slide2.xml": good,
	})
	d, err := DecodePPTX(data)
	if err != nil {
		t.Fatalf("DecodePPTX: %v", err)
	}
	if len(d.Slides) != 2 {
		t.Fatalf("got %d slides, want 2 (broken slide kept as empty)", len(d.Slides))
	}
	if len(d.Slides[0].Shapes) != 0 {
		t.Errorf("broken slide should have no shapes, got %+v", d.Slides[0].Shapes)
	}
	if d.Slides[1].Shapes[0].Text != "好页" {
		t.Errorf("slide 2 Text = %q", d.Slides[1].Shapes[0].Text)
	}
}

func TestDecodePPTXNoSlides(t *testing.T) {
	data := buildPPTX(t, map[string]string{"docProps/core.xml": "<x/>"})
	if _, err := DecodePPTX(data); err == nil {
		t.Error("expected an error for a pptx without slides")
	}
}

func TestDecodePPTXNotAZip(t *testing.T) {
	if _, err := DecodePPTX([]byte("garbage")); err == nil {
		t.Error("expected an error for non-zip input")
	}
}

func TestSlideNumber(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"ppt/slides/slide1.xml", 1},
		{"ppt/slides/slide42.xml", 42},
		{"ppt/slides/_rels/slide1.xml.rels", 0},
		{"ppt/slideLayouts/slideLayout1.xml", 0},
	}
	for _, tt := range tests {
		if got := slideNumber(tt.name); got != tt.want {
			t.Errorf("slideNumber(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}
