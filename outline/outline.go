// Package outline reconstructs the logical structure of a slide deck.
//
// A deck arrives as a flat, ordered list of raw slides. The package
// normalizes each slide into a SlideRecord, then walks the sequence once,
// assigning every slide exactly one content type and a nesting level and
// producing one StructureRecord per slide. The walk carries a running
// hierarchy path so chapter headers open new branches and body slides
// attach to whichever branch is in effect when they appear.
package outline

// ContentType is the closed set of classifications a slide can receive.
type ContentType string

const (
	MainTitle       ContentType = "main_title"
	TOC             ContentType = "toc"
	ChapterTitle    ContentType = "chapter_title"
	SectionTitle    ContentType = "section_title"
	ImagePage       ContentType = "image_page"
	Body            ContentType = "body"
	EndPage         ContentType = "end_page"
	Acknowledgement ContentType = "acknowledgement"
	References      ContentType = "references"
	QA              ContentType = "qa"
	EmptyPage       ContentType = "empty_page"
)

// IsEnding reports whether the type is one of the closing-page types.
func (t ContentType) IsEnding() bool {
	switch t {
	case EndPage, Acknowledgement, References, QA:
		return true
	}
	return false
}

// IsHeading reports whether the type opens a new branch in the outline.
func (t ContentType) IsHeading() bool {
	switch t {
	case MainTitle, ChapterTitle, SectionTitle:
		return true
	}
	return false
}

// ElementKind tags one content element inside a structure record.
type ElementKind string

const (
	KindHeading     ElementKind = "heading"
	KindShortPhrase ElementKind = "short_phrase"
	KindParagraph   ElementKind = "paragraph"
	KindBullet      ElementKind = "bullet"
	KindImage       ElementKind = "image"
	KindNote        ElementKind = "note"
)

// Importance ranks an element for downstream prompt building.
type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

// SlideRecord is the normalized form of one raw slide. Records are created
// once by extraction and never mutated afterwards.
type SlideRecord struct {
	Index      int      `json:"index"`
	Title      string   `json:"title"`
	Paragraphs []string `json:"paragraphs,omitempty"`
	Bullets    []string `json:"bullets,omitempty"`
	Images     []string `json:"images,omitempty"`
	Notes      string   `json:"notes,omitempty"`
	NaiveLevel int      `json:"naive_level"`
}

// IsBlank reports whether the slide carries no title, no text and no images.
func (s SlideRecord) IsBlank() bool {
	return s.Title == "" && len(s.Paragraphs) == 0 && len(s.Bullets) == 0 && len(s.Images) == 0
}

// Weight is the slide's text weight: CJK ideographs, Latin letters and
// digits across title, paragraphs and bullets. Notes do not count.
func (s SlideRecord) Weight() int {
	w := TextWeight(s.Title)
	for _, p := range s.Paragraphs {
		w += TextWeight(p)
	}
	for _, b := range s.Bullets {
		w += TextWeight(b)
	}
	return w
}

// Flags are the structural booleans carried by every structure record.
// HasTables is always false; table detection is intentionally disabled.
type Flags struct {
	HasImages    bool `json:"has_images"`
	HasTables    bool `json:"has_tables"`
	HasCode      bool `json:"has_code"`
	IsTitlePage  bool `json:"is_title_page"`
	IsTOC        bool `json:"is_toc"`
	IsEmpty      bool `json:"is_empty"`
	IsEndSection bool `json:"is_end_section"`
}

// ContentElement is one typed piece of slide content. Elements have no
// identity of their own; each lives inside exactly one StructureRecord.
type ContentElement struct {
	Kind       ElementKind `json:"kind"`
	Text       string      `json:"text"`
	Importance Importance  `json:"importance"`
}

// StructureRecord is the classification outcome for one slide.
//
// ParentPath is a private copy of the hierarchy path in effect when the
// slide was classified; later slides never see their path mutated by
// earlier records. TOCRunStart is the index of the first slide of the
// table-of-contents run this record belongs to, or -1 for non-TOC slides.
type StructureRecord struct {
	SlideIndex  int              `json:"slide_index"`
	Type        ContentType      `json:"content_type"`
	Level       int              `json:"level"`
	ParentPath  []string         `json:"parent_path,omitempty"`
	TOCRunStart int              `json:"toc_run_start"`
	Flags       Flags            `json:"flags"`
	Elements    []ContentElement `json:"elements,omitempty"`
}

// Config carries the tunable thresholds of the classifier. The defaults
// are the empirically chosen cut-offs; zero values are replaced with the
// defaults by NewAnalyzer.
type Config struct {
	// TitleMaxRunes caps how long a text block may be to qualify as a title.
	TitleMaxRunes int `json:"title_max_runes" yaml:"title_max_runes"`
	// HeadingWeightMax gates chapter/section recognition by slide weight.
	HeadingWeightMax int `json:"heading_weight_max" yaml:"heading_weight_max"`
	// MainTitleWeightMax is the weight below which the first slide counts
	// as a cover page even without a separator or indicator keyword.
	MainTitleWeightMax int `json:"main_title_weight_max" yaml:"main_title_weight_max"`
	// ImageWeightMax is the weight below which a slide with images counts
	// as an image page.
	ImageWeightMax int `json:"image_weight_max" yaml:"image_weight_max"`
	// EndingWeightMax is the weight below which the last slide counts as an
	// end page even without an ending keyword.
	EndingWeightMax int `json:"ending_weight_max" yaml:"ending_weight_max"`
	// ChapterTitleMaxRunes caps the title length for the keyword-based
	// chapter rule.
	ChapterTitleMaxRunes int `json:"chapter_title_max_runes" yaml:"chapter_title_max_runes"`
	// SectionTitleMaxRunes caps the title length for the keyword-based
	// section rule.
	SectionTitleMaxRunes int `json:"section_title_max_runes" yaml:"section_title_max_runes"`
}

// DefaultConfig returns the classifier thresholds used when none are set.
func DefaultConfig() Config {
	return Config{
		TitleMaxRunes:        50,
		HeadingWeightMax:     50,
		MainTitleWeightMax:   100,
		ImageWeightMax:       10,
		EndingWeightMax:      10,
		ChapterTitleMaxRunes: 30,
		SectionTitleMaxRunes: 25,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.TitleMaxRunes <= 0 {
		c.TitleMaxRunes = def.TitleMaxRunes
	}
	if c.HeadingWeightMax <= 0 {
		c.HeadingWeightMax = def.HeadingWeightMax
	}
	if c.MainTitleWeightMax <= 0 {
		c.MainTitleWeightMax = def.MainTitleWeightMax
	}
	if c.ImageWeightMax <= 0 {
		c.ImageWeightMax = def.ImageWeightMax
	}
	if c.EndingWeightMax <= 0 {
		c.EndingWeightMax = def.EndingWeightMax
	}
	if c.ChapterTitleMaxRunes <= 0 {
		c.ChapterTitleMaxRunes = def.ChapterTitleMaxRunes
	}
	if c.SectionTitleMaxRunes <= 0 {
		c.SectionTitleMaxRunes = def.SectionTitleMaxRunes
	}
	return c
}

// Analyzer classifies decks. It holds only immutable configuration, so one
// Analyzer may serve any number of decks concurrently; every Analyze call
// runs with its own path and TOC-run state.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer returns an Analyzer using cfg with zero fields defaulted.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg.withDefaults()}
}

// Config returns the resolved configuration the analyzer runs with.
func (a *Analyzer) Config() Config { return a.cfg }
