// Package deckagent turns lecture slide decks into a queryable knowledge
// base. Decks are decoded into slides, each slide is classified into a
// hierarchical structure (cover, table of contents, chapters, sections,
// body, endings), the annotated content is indexed for hybrid vector+FTS
// search, and an LLM agent expands selected slides into study material.
package deckagent

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/qixuan-zhu/deckagent/deck"
	"github.com/qixuan-zhu/deckagent/expand"
	"github.com/qixuan-zhu/deckagent/llm"
	"github.com/qixuan-zhu/deckagent/outline"
	"github.com/qixuan-zhu/deckagent/search"
	"github.com/qixuan-zhu/deckagent/store"
)

// Engine is the main entry point for the deck analysis pipeline.
type Engine interface {
	// Ingest decodes, classifies and indexes a deck file. Unchanged
	// content (same hash, status ready) is skipped unless forced;
	// otherwise prior data for the deck is replaced.
	Ingest(ctx context.Context, path string, opts ...IngestOption) (*IngestResult, error)

	// Analyze decodes and classifies a deck without persisting anything.
	Analyze(ctx context.Context, path string) ([]outline.SlideRecord, []outline.StructureRecord, error)

	// Records returns the stored slide and structure records of an
	// ingested deck, elements included, for exports.
	Records(ctx context.Context, deckID int64) ([]outline.SlideRecord, []outline.StructureRecord, error)

	// Outline returns the stored structure of a deck as a tree.
	Outline(ctx context.Context, deckID int64) ([]*OutlineNode, error)

	// Expand runs the expansion agent over the given slides and persists
	// the generated material. Empty slideIndexes selects every body slide.
	Expand(ctx context.Context, deckID int64, slideIndexes []int, opts ...ExpandOption) ([]expand.Result, error)

	// Expansions returns the stored expansion results of a deck.
	Expansions(ctx context.Context, deckID int64) ([]expand.Result, error)

	// Search runs hybrid retrieval over indexed slide elements.
	Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error)

	// Reindex embeds stored elements that have no embedding yet, for
	// decks ingested before an embedding model was configured. Returns
	// the number of elements embedded.
	Reindex(ctx context.Context, deckID int64) (int, error)

	// ListDecks returns all ingested decks.
	ListDecks(ctx context.Context) ([]Deck, error)

	// GetDeck returns one deck by ID.
	GetDeck(ctx context.Context, deckID int64) (*Deck, error)

	// GetSlide returns one slide with its structure classification.
	GetSlide(ctx context.Context, deckID int64, slideIndex int) (*SlideDetail, error)

	// DeleteDeck removes a deck and all associated data.
	DeleteDeck(ctx context.Context, deckID int64) error

	// Stats returns row counts of the underlying database.
	Stats(ctx context.Context) (*store.DBStats, error)

	// Store returns the underlying store for direct access (exports,
	// diagnostic queries).
	Store() *store.Store

	// Close cleanly shuts down the engine.
	Close() error
}

// Deck represents an ingested deck.
type Deck struct {
	ID          int64             `json:"id"`
	Path        string            `json:"path"`
	Filename    string            `json:"filename"`
	Format      string            `json:"format"`
	ContentHash string            `json:"content_hash"`
	SlideCount  int               `json:"slide_count"`
	Status      string            `json:"status"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   string            `json:"created_at"`
	UpdatedAt   string            `json:"updated_at"`
}

// IngestResult reports the outcome of one ingestion.
type IngestResult struct {
	DeckID     int64          `json:"deck_id"`
	Filename   string         `json:"filename"`
	Format     string         `json:"format"`
	SlideCount int            `json:"slide_count"`
	Elements   int            `json:"elements"`
	Embedded   int            `json:"embedded"`
	TypeCounts map[string]int `json:"type_counts,omitempty"`
	Unchanged  bool           `json:"unchanged,omitempty"`
	ElapsedMs  int64          `json:"elapsed_ms"`
}

// OutlineNode is one slide in the outline tree of a deck.
type OutlineNode struct {
	SlideIndex  int            `json:"slide_index"`
	Title       string         `json:"title"`
	ContentType string         `json:"content_type"`
	Level       int            `json:"level"`
	Children    []*OutlineNode `json:"children,omitempty"`
}

// SlideDetail is one slide with its structure classification.
type SlideDetail struct {
	DeckID      int64         `json:"deck_id"`
	SlideIndex  int           `json:"slide_index"`
	Title       string        `json:"title"`
	Paragraphs  []string      `json:"paragraphs,omitempty"`
	Bullets     []string      `json:"bullets,omitempty"`
	Images      []string      `json:"images,omitempty"`
	Notes       string        `json:"notes,omitempty"`
	NaiveLevel  int           `json:"naive_level"`
	ContentType string        `json:"content_type,omitempty"`
	Level       int           `json:"level,omitempty"`
	ParentPath  []string      `json:"parent_path,omitempty"`
	Flags       outline.Flags `json:"flags"`
}

// SearchHit is one retrieval result with its slide context.
type SearchHit struct {
	ElementID   int64    `json:"element_id"`
	DeckID      int64    `json:"deck_id"`
	Filename    string   `json:"filename"`
	SlideIndex  int      `json:"slide_index"`
	Title       string   `json:"title"`
	ContentType string   `json:"content_type"`
	Level       int      `json:"level"`
	ParentPath  []string `json:"parent_path,omitempty"`
	Kind        string   `json:"kind"`
	Text        string   `json:"text"`
	Snippet     string   `json:"snippet,omitempty"`
	Score       float64  `json:"score"`
}

// SearchResponse is the result of one search operation.
type SearchResponse struct {
	Query   string              `json:"query"`
	Results []SearchHit         `json:"results"`
	Trace   *search.SearchTrace `json:"trace,omitempty"`
}

// Option configures the engine at construction.
type Option func(*engine)

// WithLogger routes pipeline logging through the given logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *engine) { e.log = l }
}

// WithLLM injects a chat provider, overriding the configured one.
func WithLLM(p llm.Provider) Option {
	return func(e *engine) { e.chatLLM = p }
}

// WithEmbedder injects an embedding provider, overriding the configured one.
func WithEmbedder(p llm.Provider) Option {
	return func(e *engine) { e.embedLLM = p }
}

// DecoderFunc opens a deck file. The default is deck.Open.
type DecoderFunc func(path string) (*deck.Deck, error)

// WithDecoder replaces the deck decoder.
func WithDecoder(d DecoderFunc) Option {
	return func(e *engine) { e.decode = d }
}

// IngestOption configures ingestion behavior.
type IngestOption func(*ingestOptions)

type ingestOptions struct {
	force    bool
	metadata map[string]string
}

// WithForce re-ingests even if the content hash hasn't changed.
func WithForce() IngestOption {
	return func(o *ingestOptions) { o.force = true }
}

// WithMetadata attaches custom metadata to the ingested deck.
func WithMetadata(metadata map[string]string) IngestOption {
	return func(o *ingestOptions) { o.metadata = metadata }
}

// ExpandOption configures expansion behavior.
type ExpandOption func(*expandOptions)

type expandOptions struct {
	types []outline.ContentType
}

// WithExpandTypes changes which content types are selected when no
// explicit slide indexes are given. The default is body slides only.
func WithExpandTypes(types ...outline.ContentType) ExpandOption {
	return func(o *expandOptions) { o.types = types }
}

// SearchOption configures search behavior.
type SearchOption func(*searchOptions)

type searchOptions struct {
	deckID     int64
	maxResults int
	weightVec  float64
	weightFTS  float64
}

// WithDeck restricts the search to a single deck.
func WithDeck(deckID int64) SearchOption {
	return func(o *searchOptions) { o.deckID = deckID }
}

// WithMaxResults sets the maximum number of results to return.
func WithMaxResults(n int) SearchOption {
	return func(o *searchOptions) { o.maxResults = n }
}

// WithWeights overrides the retrieval fusion weights for this search.
func WithWeights(vec, fts float64) SearchOption {
	return func(o *searchOptions) {
		o.weightVec = vec
		o.weightFTS = fts
	}
}

// engine is the concrete implementation of Engine.
type engine struct {
	cfg      Config
	log      *slog.Logger
	store    *store.Store
	chatLLM  llm.Provider
	embedLLM llm.Provider
	decode   DecoderFunc
	analyzer *outline.Analyzer
	searcher *search.Engine
	expander *expand.Agent
}

// New creates a deckagent engine from the given configuration. Providers
// and the decoder can be replaced through options; a missing chat or
// embedding provider disables the operations that need it rather than
// failing construction.
func New(cfg Config, opts ...Option) (Engine, error) {
	if cfg.EmbeddingDim == 0 {
		cfg.EmbeddingDim = 1024
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = envAPIKey(cfg.LLM.Provider)
	}
	if cfg.Embedder.APIKey == "" {
		cfg.Embedder.APIKey = envAPIKey(cfg.Embedder.Provider)
	}

	e := &engine{
		cfg:    cfg,
		log:    slog.Default(),
		decode: deck.Open,
	}
	for _, o := range opts {
		o(e)
	}

	s, err := store.New(cfg.resolveDBPath(), cfg.EmbeddingDim)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	e.store = s

	if e.chatLLM == nil && cfg.LLM.Provider != "" {
		p, err := llm.NewProvider(cfg.LLM)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("creating chat provider: %w", err)
		}
		e.chatLLM = p
	}
	if e.embedLLM == nil && cfg.Embedder.Provider != "" {
		p, err := llm.NewProvider(cfg.Embedder)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("creating embedding provider: %w", err)
		}
		e.embedLLM = p
	}

	e.analyzer = outline.NewAnalyzer(cfg.Analyzer)
	e.searcher = search.New(s, e.embedLLM, cfg.Search)
	if e.chatLLM != nil {
		e.expander = expand.New(e.chatLLM, cfg.Expand)
	}
	return e, nil
}

// Ingest processes a deck file through the full pipeline.
func (e *engine) Ingest(ctx context.Context, path string, opts ...IngestOption) (*IngestResult, error) {
	options := &ingestOptions{}
	for _, o := range opts {
		o(options)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	hash, err := fileHash(absPath)
	if err != nil {
		return nil, fmt.Errorf("hashing file: %w", err)
	}

	// Skip unchanged decks that already ingested cleanly.
	if !options.force {
		existing, err := e.store.GetDeckByPath(ctx, absPath)
		if err == nil && existing.ContentHash == hash && existing.Status == "ready" {
			return &IngestResult{
				DeckID:     existing.ID,
				Filename:   existing.Filename,
				Format:     existing.Format,
				SlideCount: existing.SlideCount,
				Unchanged:  true,
			}, nil
		}
	}

	start := time.Now()
	d, err := e.decode(absPath)
	if err != nil {
		if errors.Is(err, deck.ErrUnsupportedFormat) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(absPath))
		}
		return nil, fmt.Errorf("%w: %v", ErrDecodingFailed, err)
	}

	var metadataJSON string
	if options.metadata != nil {
		data, _ := json.Marshal(options.metadata)
		metadataJSON = string(data)
	}

	filename := filepath.Base(absPath)
	deckID, err := e.store.UpsertDeck(ctx, store.Deck{
		Path:        absPath,
		Filename:    filename,
		Format:      string(d.Format),
		ContentHash: hash,
		SlideCount:  len(d.Slides),
		Status:      "processing",
		Metadata:    metadataJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("upserting deck: %w", err)
	}

	e.log.Info("ingest: deck decoded",
		"file", filename, "format", d.Format, "slides", len(d.Slides), "deck_id", deckID)

	slides, records := e.analyzer.AnalyzeDeck(d)

	// Replace any previous data for this deck.
	if err := e.store.DeleteDeckData(ctx, deckID); err != nil {
		return nil, fmt.Errorf("cleaning old data: %w", err)
	}

	slideRows := make([]store.Slide, len(slides))
	for i, s := range slides {
		slideRows[i] = store.Slide{
			DeckID:     deckID,
			SlideIndex: s.Index,
			Title:      s.Title,
			Paragraphs: s.Paragraphs,
			Bullets:    s.Bullets,
			Images:     s.Images,
			Notes:      s.Notes,
			NaiveLevel: s.NaiveLevel,
		}
	}
	slideIDs, err := e.store.InsertSlides(ctx, slideRows)
	if err != nil {
		e.store.UpdateDeckStatus(ctx, deckID, "error")
		return nil, fmt.Errorf("inserting slides: %w", err)
	}

	structRows := make([]store.Structure, len(records))
	for i, r := range records {
		structRows[i] = structureRow(slideIDs[i], deckID, r)
	}
	if err := e.store.InsertStructures(ctx, structRows); err != nil {
		e.store.UpdateDeckStatus(ctx, deckID, "error")
		return nil, fmt.Errorf("inserting structure: %w", err)
	}

	// Flatten annotated elements in slide order. Each element is embedded
	// with its slide title as context so short bullets stay
	// distinguishable across slides.
	var elemRows []store.Element
	var embedTexts []string
	for i, r := range records {
		for pos, el := range r.Elements {
			elemRows = append(elemRows, store.Element{
				SlideID:    slideIDs[i],
				DeckID:     deckID,
				Position:   pos,
				Kind:       string(el.Kind),
				Text:       el.Text,
				Importance: string(el.Importance),
			})
			embedTexts = append(embedTexts, embedText(slides[i].Title, el.Text))
		}
	}
	elementIDs, err := e.store.InsertElements(ctx, elemRows)
	if err != nil {
		e.store.UpdateDeckStatus(ctx, deckID, "error")
		return nil, fmt.Errorf("inserting elements: %w", err)
	}

	embedded := 0
	if e.embedLLM != nil && len(elemRows) > 0 {
		e.log.Info("ingest: generating embeddings", "file", filename, "elements", len(elemRows))
		embedStart := time.Now()
		embedded, err = e.embedElements(ctx, embedTexts, elementIDs)
		if err != nil {
			e.store.UpdateDeckStatus(ctx, deckID, "error")
			return nil, fmt.Errorf("embedding elements: %w", err)
		}
		e.log.Info("ingest: embeddings complete",
			"file", filename, "embedded", embedded,
			"elapsed", time.Since(embedStart).Round(time.Millisecond))
	} else if e.embedLLM == nil && len(elemRows) > 0 {
		e.log.Warn("ingest: no embedding provider, vector search disabled for this deck",
			"file", filename)
	}

	if err := e.store.UpdateDeckStatus(ctx, deckID, "ready"); err != nil {
		return nil, fmt.Errorf("updating status: %w", err)
	}

	res := &IngestResult{
		DeckID:     deckID,
		Filename:   filename,
		Format:     string(d.Format),
		SlideCount: len(slides),
		Elements:   len(elemRows),
		Embedded:   embedded,
		TypeCounts: typeCounts(records),
		ElapsedMs:  time.Since(start).Milliseconds(),
	}
	e.log.Info("ingest: deck ready",
		"file", filename, "deck_id", deckID, "slides", len(slides),
		"elements", len(elemRows), "elapsed", time.Since(start).Round(time.Millisecond))
	return res, nil
}

// Analyze decodes and classifies a deck without touching the store.
func (e *engine) Analyze(ctx context.Context, path string) ([]outline.SlideRecord, []outline.StructureRecord, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving path: %w", err)
	}
	d, err := e.decode(absPath)
	if err != nil {
		if errors.Is(err, deck.ErrUnsupportedFormat) {
			return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(absPath))
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrDecodingFailed, err)
	}
	slides, records := e.analyzer.AnalyzeDeck(d)
	return slides, records, nil
}

// Records reconstructs the stored slide and structure records of a deck.
func (e *engine) Records(ctx context.Context, deckID int64) ([]outline.SlideRecord, []outline.StructureRecord, error) {
	if _, err := e.getDeckRow(ctx, deckID); err != nil {
		return nil, nil, err
	}
	slideRows, err := e.store.GetSlidesByDeck(ctx, deckID)
	if err != nil {
		return nil, nil, err
	}
	structRows, err := e.store.GetStructuresByDeck(ctx, deckID)
	if err != nil {
		return nil, nil, err
	}
	elemRows, err := e.store.GetElementsByDeck(ctx, deckID)
	if err != nil {
		return nil, nil, err
	}

	slides := make([]outline.SlideRecord, len(slideRows))
	for i, s := range slideRows {
		slides[i] = outline.SlideRecord{
			Index:      s.SlideIndex,
			Title:      s.Title,
			Paragraphs: s.Paragraphs,
			Bullets:    s.Bullets,
			Images:     s.Images,
			Notes:      s.Notes,
			NaiveLevel: s.NaiveLevel,
		}
	}

	elements := make(map[int64][]outline.ContentElement)
	for _, el := range elemRows {
		elements[el.SlideID] = append(elements[el.SlideID], outline.ContentElement{
			Kind:       outline.ElementKind(el.Kind),
			Text:       el.Text,
			Importance: outline.Importance(el.Importance),
		})
	}

	records := make([]outline.StructureRecord, len(structRows))
	for i, st := range structRows {
		records[i] = outline.StructureRecord{
			SlideIndex:  st.SlideIndex,
			Type:        outline.ContentType(st.ContentType),
			Level:       st.Level,
			ParentPath:  st.ParentPath,
			TOCRunStart: st.TOCRunStart,
			Flags: outline.Flags{
				HasImages:    st.HasImages,
				HasTables:    st.HasTables,
				HasCode:      st.HasCode,
				IsTitlePage:  st.IsTitlePage,
				IsTOC:        st.IsTOC,
				IsEmpty:      st.IsEmpty,
				IsEndSection: st.IsEndSection,
			},
			Elements: elements[st.SlideID],
		}
	}
	return slides, records, nil
}

// Outline returns the stored structure of a deck as a tree.
func (e *engine) Outline(ctx context.Context, deckID int64) ([]*OutlineNode, error) {
	d, err := e.getDeckRow(ctx, deckID)
	if err != nil {
		return nil, err
	}
	entries, err := e.store.GetOutline(ctx, deckID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 && d.SlideCount > 0 {
		return nil, fmt.Errorf("%w: deck %d", ErrDeckNotIndexed, deckID)
	}
	return buildOutlineTree(entries), nil
}

// Expand runs the expansion agent over selected slides and stores the
// results. A run over the default selection replaces the deck's previous
// expansion set; a run over explicit slide indexes appends to it.
func (e *engine) Expand(ctx context.Context, deckID int64, slideIndexes []int, opts ...ExpandOption) ([]expand.Result, error) {
	if e.expander == nil {
		return nil, ErrNoLLM
	}
	options := &expandOptions{types: []outline.ContentType{outline.Body}}
	for _, o := range opts {
		o(options)
	}

	d, err := e.getDeckRow(ctx, deckID)
	if err != nil {
		return nil, err
	}
	structures, err := e.store.GetStructuresByDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}
	if len(structures) == 0 {
		if d.SlideCount > 0 {
			return nil, fmt.Errorf("%w: deck %d", ErrDeckNotIndexed, deckID)
		}
		return nil, nil
	}

	indexes := slideIndexes
	fullRun := len(indexes) == 0
	if fullRun {
		for _, st := range structures {
			if typeSelected(st.ContentType, options.types) {
				indexes = append(indexes, st.SlideIndex)
			}
		}
	}
	if len(indexes) == 0 {
		return nil, nil
	}

	rows, err := e.store.GetSlidesByIndexes(ctx, deckID, indexes)
	if err != nil {
		return nil, err
	}
	slides := make([]expand.Slide, len(rows))
	slideIDs := make([]int64, len(rows))
	for i, s := range rows {
		slides[i] = expand.Slide{
			Index:      s.SlideIndex,
			Title:      s.Title,
			Paragraphs: s.Paragraphs,
			Bullets:    s.Bullets,
		}
		slideIDs[i] = s.ID
	}

	e.log.Info("expand: starting", "deck_id", deckID, "slides", len(slides))
	results, err := e.expander.ExpandSlides(ctx, slides)
	if err != nil {
		return nil, err
	}

	if fullRun {
		if err := e.store.DeleteExpansionsByDeck(ctx, deckID); err != nil {
			return nil, fmt.Errorf("clearing previous expansions: %w", err)
		}
	}
	for i, r := range results {
		for _, row := range expansionRows(slideIDs[i], deckID, r) {
			if _, err := e.store.InsertExpansion(ctx, row); err != nil {
				return results, fmt.Errorf("storing expansion: %w", err)
			}
		}
	}
	return results, nil
}

// Expansions returns the stored expansion results of a deck, titles
// filled in from the slides.
func (e *engine) Expansions(ctx context.Context, deckID int64) ([]expand.Result, error) {
	if _, err := e.getDeckRow(ctx, deckID); err != nil {
		return nil, err
	}
	rows, err := e.store.GetExpansionsByDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}
	results := resultsFromRows(rows)
	if len(results) == 0 {
		return results, nil
	}

	slides, err := e.store.GetSlidesByDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}
	titles := make(map[int]string, len(slides))
	for _, s := range slides {
		titles[s.SlideIndex] = s.Title
	}
	for i := range results {
		if results[i].Title == "" {
			results[i].Title = titles[results[i].SlideIndex]
		}
	}
	return results, nil
}

// Search runs hybrid retrieval and maps the fused results into hits with
// display snippets.
func (e *engine) Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error) {
	options := &searchOptions{}
	for _, o := range opts {
		o(options)
	}

	results, trace, err := e.searcher.Search(ctx, query, search.SearchOptions{
		DeckID:     options.deckID,
		MaxResults: options.maxResults,
		WeightVec:  options.weightVec,
		WeightFTS:  options.weightFTS,
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	terms := queryTerms(query)
	resp := &SearchResponse{
		Query:   query,
		Results: make([]SearchHit, 0, len(results)),
		Trace:   trace,
	}
	for _, r := range results {
		hit := SearchHit{
			ElementID:   r.ElementID,
			DeckID:      r.DeckID,
			Filename:    r.Filename,
			SlideIndex:  r.SlideIndex,
			Title:       r.Title,
			ContentType: r.ContentType,
			Level:       r.Level,
			ParentPath:  r.ParentPath,
			Kind:        r.Kind,
			Text:        r.Text,
			Score:       r.Score,
		}
		if len(r.Text) > snippetMaxLen {
			hit.Snippet = extractSnippet(r.Text, terms)
		}
		resp.Results = append(resp.Results, hit)
	}
	return resp, nil
}

// Reindex embeds stored elements that have no embedding yet.
func (e *engine) Reindex(ctx context.Context, deckID int64) (int, error) {
	if e.embedLLM == nil {
		return 0, ErrNoEmbedder
	}
	if _, err := e.getDeckRow(ctx, deckID); err != nil {
		return 0, err
	}

	elements, err := e.store.GetElementsByDeck(ctx, deckID)
	if err != nil {
		return 0, err
	}
	slides, err := e.store.GetSlidesByDeck(ctx, deckID)
	if err != nil {
		return 0, err
	}
	titles := make(map[int64]string, len(slides))
	for _, s := range slides {
		titles[s.ID] = s.Title
	}

	var texts []string
	var ids []int64
	for _, el := range elements {
		has, err := e.store.ElementHasEmbedding(ctx, el.ID)
		if err != nil {
			return 0, err
		}
		if has {
			continue
		}
		texts = append(texts, embedText(titles[el.SlideID], el.Text))
		ids = append(ids, el.ID)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	e.log.Info("reindex: embedding missing elements", "deck_id", deckID, "elements", len(ids))
	return e.embedElements(ctx, texts, ids)
}

// ListDecks returns all ingested decks.
func (e *engine) ListDecks(ctx context.Context) ([]Deck, error) {
	rows, err := e.store.ListDecks(ctx)
	if err != nil {
		return nil, err
	}
	decks := make([]Deck, len(rows))
	for i, d := range rows {
		decks[i] = deckFromRow(d)
	}
	return decks, nil
}

// GetDeck returns one deck by ID.
func (e *engine) GetDeck(ctx context.Context, deckID int64) (*Deck, error) {
	row, err := e.getDeckRow(ctx, deckID)
	if err != nil {
		return nil, err
	}
	d := deckFromRow(*row)
	return &d, nil
}

// GetSlide returns one slide with its structure classification.
func (e *engine) GetSlide(ctx context.Context, deckID int64, slideIndex int) (*SlideDetail, error) {
	s, err := e.store.GetSlide(ctx, deckID, slideIndex)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: deck %d slide %d", ErrNotFound, deckID, slideIndex)
		}
		return nil, err
	}

	detail := &SlideDetail{
		DeckID:     deckID,
		SlideIndex: s.SlideIndex,
		Title:      s.Title,
		Paragraphs: s.Paragraphs,
		Bullets:    s.Bullets,
		Images:     s.Images,
		Notes:      s.Notes,
		NaiveLevel: s.NaiveLevel,
	}

	structures, err := e.store.GetStructuresByDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}
	for _, st := range structures {
		if st.SlideIndex == s.SlideIndex {
			detail.ContentType = st.ContentType
			detail.Level = st.Level
			detail.ParentPath = st.ParentPath
			detail.Flags = outline.Flags{
				HasImages:    st.HasImages,
				HasTables:    st.HasTables,
				HasCode:      st.HasCode,
				IsTitlePage:  st.IsTitlePage,
				IsTOC:        st.IsTOC,
				IsEmpty:      st.IsEmpty,
				IsEndSection: st.IsEndSection,
			}
			break
		}
	}
	return detail, nil
}

// DeleteDeck removes a deck and all its associated data.
func (e *engine) DeleteDeck(ctx context.Context, deckID int64) error {
	if _, err := e.getDeckRow(ctx, deckID); err != nil {
		return err
	}
	return e.store.DeleteDeck(ctx, deckID)
}

// Stats returns row counts of the underlying database.
func (e *engine) Stats(ctx context.Context) (*store.DBStats, error) {
	return e.store.Stats(ctx)
}

// Store returns the underlying store for direct access.
func (e *engine) Store() *store.Store {
	return e.store
}

// Close shuts down the engine.
func (e *engine) Close() error {
	return e.store.Close()
}

// getDeckRow fetches a deck row, mapping a missing row to ErrNotFound.
func (e *engine) getDeckRow(ctx context.Context, deckID int64) (*store.Deck, error) {
	d, err := e.store.GetDeck(ctx, deckID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: deck %d", ErrNotFound, deckID)
		}
		return nil, err
	}
	return d, nil
}

// embedElements generates embeddings in batches. A failed batch falls
// back to per-text embedding so one bad text does not lose the batch.
func (e *engine) embedElements(ctx context.Context, texts []string, ids []int64) (int, error) {
	const batchSize = 32
	var done int

	for i := 0; i < len(texts); i += batchSize {
		end := i + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[i:end]

		embeddings, err := e.embedLLM.Embed(ctx, batch)
		if err != nil || len(embeddings) != len(batch) {
			e.log.Warn("ingest: embedding batch failed, retrying individually",
				"batch_start", i, "batch_end", end, "error", err)
			for j, text := range batch {
				single, serr := e.embedLLM.Embed(ctx, []string{text})
				if serr != nil || len(single) == 0 || len(single[0]) == 0 {
					e.log.Warn("ingest: embedding element failed",
						"element_id", ids[i+j], "error", serr)
					continue
				}
				if serr := e.store.InsertEmbedding(ctx, ids[i+j], single[0]); serr != nil {
					e.log.Warn("ingest: storing embedding failed",
						"element_id", ids[i+j], "error", serr)
					continue
				}
				done++
			}
			continue
		}

		for j, emb := range embeddings {
			if err := e.store.InsertEmbedding(ctx, ids[i+j], emb); err != nil {
				e.log.Warn("ingest: storing embedding failed",
					"element_id", ids[i+j], "error", err)
				continue
			}
			done++
		}
	}

	if len(texts) > 0 && done == 0 {
		return 0, fmt.Errorf("all %d elements failed embedding", len(texts))
	}
	if done < len(texts) {
		e.log.Warn("ingest: some embeddings failed",
			"failed", len(texts)-done, "total", len(texts))
	}
	return done, nil
}

// embedText prefixes an element with its slide title for embedding.
func embedText(title, text string) string {
	if title == "" || title == text {
		return text
	}
	return title + ": " + text
}

// buildOutlineTree nests outline entries under the headings that precede
// them. Headings attach by level and stay open for later slides; body,
// image and empty slides attach to the deepest open heading; table of
// contents and ending slides always sit at the root.
func buildOutlineTree(entries []store.OutlineEntry) []*OutlineNode {
	var roots []*OutlineNode
	var stack []*OutlineNode // open headings, shallowest first

	attach := func(node *OutlineNode) {
		if len(stack) == 0 {
			roots = append(roots, node)
			return
		}
		parent := stack[len(stack)-1]
		parent.Children = append(parent.Children, node)
	}

	for _, entry := range entries {
		node := &OutlineNode{
			SlideIndex:  entry.SlideIndex,
			Title:       entry.Title,
			ContentType: entry.ContentType,
			Level:       entry.Level,
		}
		t := outline.ContentType(entry.ContentType)
		switch {
		case t.IsHeading():
			for len(stack) > 0 && stack[len(stack)-1].Level >= node.Level {
				stack = stack[:len(stack)-1]
			}
			attach(node)
			stack = append(stack, node)
		case t == outline.TOC || t.IsEnding():
			roots = append(roots, node)
		default:
			attach(node)
		}
	}
	return roots
}

// structureRow maps one classification record onto its store row.
func structureRow(slideID, deckID int64, r outline.StructureRecord) store.Structure {
	return store.Structure{
		SlideID:      slideID,
		DeckID:       deckID,
		SlideIndex:   r.SlideIndex,
		ContentType:  string(r.Type),
		Level:        r.Level,
		ParentPath:   r.ParentPath,
		TOCRunStart:  r.TOCRunStart,
		HasImages:    r.Flags.HasImages,
		HasTables:    r.Flags.HasTables,
		HasCode:      r.Flags.HasCode,
		IsTitlePage:  r.Flags.IsTitlePage,
		IsTOC:        r.Flags.IsTOC,
		IsEmpty:      r.Flags.IsEmpty,
		IsEndSection: r.Flags.IsEndSection,
	}
}

// typeCounts tallies structure records by content type.
func typeCounts(records []outline.StructureRecord) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		counts[string(r.Type)]++
	}
	return counts
}

// typeSelected reports whether a content type is in the selection set.
func typeSelected(contentType string, types []outline.ContentType) bool {
	for _, t := range types {
		if contentType == string(t) {
			return true
		}
	}
	return false
}

// expansionRows flattens one expansion result into store rows, one per
// generated section. Usage counters are slide level and ride on the
// first row.
func expansionRows(slideID, deckID int64, r expand.Result) []store.Expansion {
	base := store.Expansion{
		SlideID:    slideID,
		DeckID:     deckID,
		SlideIndex: r.SlideIndex,
	}

	if r.Skipped {
		row := base
		row.TaskType = "slide"
		row.Skipped = true
		row.SkipReason = r.SkipReason
		return []store.Expansion{row}
	}

	var rows []store.Expansion
	add := func(taskType string, v interface{}) {
		data, err := json.Marshal(v)
		if err != nil {
			return
		}
		row := base
		row.TaskType = taskType
		row.Content = string(data)
		rows = append(rows, row)
	}
	if len(r.Explanations) > 0 {
		add("explanation", r.Explanations)
	}
	if len(r.CodeExamples) > 0 {
		add("code_examples", r.CodeExamples)
	}
	if len(r.References) > 0 {
		add("references", r.References)
	}
	if len(r.Quiz) > 0 {
		add("quiz", r.Quiz)
	}
	if len(rows) == 0 {
		row := base
		row.TaskType = "slide"
		rows = append(rows, row)
	}

	rows[0].ModelUsed = r.ModelUsed
	rows[0].PromptTokens = r.PromptTokens
	rows[0].CompletionTokens = r.CompletionTokens
	rows[0].TotalTokens = r.TotalTokens
	return rows
}

// resultsFromRows reassembles stored expansion rows into per-slide
// results, in slide order.
func resultsFromRows(rows []store.Expansion) []expand.Result {
	var order []int
	byIndex := make(map[int]*expand.Result)

	for _, row := range rows {
		r, ok := byIndex[row.SlideIndex]
		if !ok {
			r = &expand.Result{SlideIndex: row.SlideIndex}
			byIndex[row.SlideIndex] = r
			order = append(order, row.SlideIndex)
		}

		if row.ModelUsed != "" {
			r.ModelUsed = row.ModelUsed
		}
		r.PromptTokens += row.PromptTokens
		r.CompletionTokens += row.CompletionTokens
		r.TotalTokens += row.TotalTokens

		switch row.TaskType {
		case "slide":
			if row.Skipped {
				r.Skipped = true
				r.SkipReason = row.SkipReason
			}
		case "explanation":
			_ = json.Unmarshal([]byte(row.Content), &r.Explanations)
		case "code_examples":
			_ = json.Unmarshal([]byte(row.Content), &r.CodeExamples)
		case "references":
			_ = json.Unmarshal([]byte(row.Content), &r.References)
		case "quiz":
			_ = json.Unmarshal([]byte(row.Content), &r.Quiz)
		}
	}

	results := make([]expand.Result, 0, len(order))
	for _, idx := range order {
		results = append(results, *byIndex[idx])
	}
	return results
}

// deckFromRow maps a store row onto the public deck type.
func deckFromRow(d store.Deck) Deck {
	out := Deck{
		ID:          d.ID,
		Path:        d.Path,
		Filename:    d.Filename,
		Format:      d.Format,
		ContentHash: d.ContentHash,
		SlideCount:  d.SlideCount,
		Status:      d.Status,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.Metadata != "" {
		_ = json.Unmarshal([]byte(d.Metadata), &out.Metadata)
	}
	return out
}

// fileHash computes the SHA-256 hash of a file's content.
func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
