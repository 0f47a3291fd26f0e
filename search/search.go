// Package search implements hybrid retrieval over annotated slide
// elements: a vector KNN search and an FTS5 keyword search run
// concurrently, and their rankings are fused with weighted Reciprocal
// Rank Fusion.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/qixuan-zhu/deckagent/llm"
	"github.com/qixuan-zhu/deckagent/store"
)

// ---------------------------------------------------------------------------
// Structure-reference detection for query routing.
// When a query names a specific chapter, section, or slide (第3章,
// "section 2.1", "slide 12") we boost FTS weight and reduce vector
// weight so exact-match retrieval is preferred over semantic similarity.
// ---------------------------------------------------------------------------
var structureRefPatterns = []*regexp.Regexp{
	// Dotted section numbers: 3.2, 4.1.1
	regexp.MustCompile(`\b\d+(?:\.\d+)+\b`),
	// Chinese chapter/section references: 第3章, 第 一 讲, 第2节
	regexp.MustCompile(`第\s*[一二三四五六七八九十百千\d]+\s*[章讲节部篇课]`),
	// Latin chapter/section references: chapter 3, Section 2
	regexp.MustCompile(`(?i)\b(?:chapter|section|part|unit|lecture|lesson)\s*\d+`),
	// Slide/page references: slide 12, page 5, 第7页
	regexp.MustCompile(`(?i)\b(?:slide|page)\s*\d+`),
	regexp.MustCompile(`第\s*\d+\s*[页张]`),
}

// detectStructureRefs returns true if the query points at a specific
// location in a deck rather than describing content.
func detectStructureRefs(query string) bool {
	for _, p := range structureRefPatterns {
		if p.MatchString(query) {
			return true
		}
	}
	return false
}

// Config holds search engine configuration.
type Config struct {
	WeightVector float64 `json:"weight_vector" yaml:"weight_vector"`
	WeightFTS    float64 `json:"weight_fts" yaml:"weight_fts"`
}

// DefaultConfig returns equal weighting for both retrieval methods.
func DefaultConfig() Config {
	return Config{WeightVector: 1.0, WeightFTS: 1.0}
}

// SearchOptions configures a single search operation.
type SearchOptions struct {
	DeckID     int64 // 0 = search across all decks
	MaxResults int
	WeightVec  float64
	WeightFTS  float64
}

// SearchTrace records the full breakdown of a hybrid search operation.
type SearchTrace struct {
	VecResults    int                       `json:"vec_results"`
	FTSResults    int                       `json:"fts_results"`
	FusedResults  int                       `json:"fused_results"`
	VecWeight     float64                   `json:"vec_weight"`
	FTSWeight     float64                   `json:"fts_weight"`
	StructureRefs bool                      `json:"structure_refs"`
	MaxRequested  int                       `json:"max_requested"`
	FTSQuery      string                    `json:"fts_query"`
	ElapsedMs     int64                     `json:"elapsed_ms"`
	PerResult     map[int64]FusedResultInfo `json:"per_result,omitempty"`
}

// Engine performs hybrid retrieval combining vector and FTS search.
type Engine struct {
	store    *store.Store
	embedder llm.Provider
	cfg      Config
}

// New creates a search engine. embedder may be nil, in which case only
// FTS retrieval is available.
func New(s *store.Store, embedder llm.Provider, cfg Config) *Engine {
	if cfg.WeightVector == 0 && cfg.WeightFTS == 0 {
		cfg = DefaultConfig()
	}
	return &Engine{store: s, embedder: embedder, cfg: cfg}
}

// Search performs hybrid retrieval using RRF to fuse vector and FTS
// rankings. Returns fused results and a SearchTrace with the breakdown.
func (e *Engine) Search(ctx context.Context, query string, opts SearchOptions) ([]store.SearchResult, *SearchTrace, error) {
	if opts.MaxResults == 0 {
		opts.MaxResults = 10
	}
	if opts.WeightVec == 0 {
		opts.WeightVec = e.cfg.WeightVector
	}
	if opts.WeightFTS == 0 {
		opts.WeightFTS = e.cfg.WeightFTS
	}

	trace := &SearchTrace{
		VecWeight:    opts.WeightVec,
		FTSWeight:    opts.WeightFTS,
		MaxRequested: opts.MaxResults,
	}

	// Location queries (第3章, "section 2.1") want exact token matches,
	// so boost FTS weight by 2x and halve vector weight.
	if detectStructureRefs(query) {
		slog.Debug("search: structure reference detected, boosting FTS weight",
			"query", query,
			"original_fts", opts.WeightFTS,
			"original_vec", opts.WeightVec)
		opts.WeightFTS *= 2.0
		opts.WeightVec *= 0.5
		trace.StructureRefs = true
		trace.VecWeight = opts.WeightVec
		trace.FTSWeight = opts.WeightFTS
	}

	ftsQuery := sanitizeFTSQuery(query)
	trace.FTSQuery = ftsQuery

	// When scoped to a single deck the store queries run unscoped, so
	// over-fetch and filter afterwards.
	fetchK := opts.MaxResults
	if opts.DeckID != 0 {
		fetchK *= 4
	}

	slog.Debug("search: starting hybrid search",
		"query_len", len(query), "max_results", opts.MaxResults, "deck_id", opts.DeckID,
		"weights", fmt.Sprintf("vec=%.1f fts=%.1f", opts.WeightVec, opts.WeightFTS))
	searchStart := time.Now()

	type result struct {
		results []store.SearchResult
		err     error
	}

	vecCh := make(chan result, 1)
	ftsCh := make(chan result, 1)

	go func() {
		r, err := e.vectorSearch(ctx, query, fetchK)
		vecCh <- result{r, err}
	}()

	go func() {
		r, err := e.store.FTSSearch(ctx, ftsQuery, fetchK)
		ftsCh <- result{r, err}
	}()

	vecRes := <-vecCh
	ftsRes := <-ftsCh

	if vecRes.err != nil {
		slog.Warn("search: vector search failed", "error", vecRes.err)
	}
	if ftsRes.err != nil {
		slog.Warn("search: fts search failed", "error", ftsRes.err)
	}

	vecResults := filterByDeck(vecRes.results, opts.DeckID)
	ftsResults := filterByDeck(ftsRes.results, opts.DeckID)
	trace.VecResults = len(vecResults)
	trace.FTSResults = len(ftsResults)

	slog.Debug("search: searches complete",
		"vec_results", len(vecResults), "fts_results", len(ftsResults),
		"elapsed", time.Since(searchStart).Round(time.Millisecond))

	fused, infoMap := fuseRRF(
		vecResults, ftsResults,
		opts.WeightVec, opts.WeightFTS,
		opts.MaxResults,
	)

	trace.FusedResults = len(fused)
	trace.PerResult = infoMap
	trace.ElapsedMs = time.Since(searchStart).Milliseconds()

	if err := e.store.LogSearch(ctx, store.SearchLog{
		Query:       query,
		Method:      methodLabel(opts.WeightVec, opts.WeightFTS),
		TopK:        opts.MaxResults,
		ResultCount: len(fused),
		DurationMS:  trace.ElapsedMs,
	}); err != nil {
		slog.Warn("search: failed to log search", "error", err)
	}

	if len(fused) == 0 {
		// If both methods failed, return the first error
		if vecRes.err != nil {
			return nil, trace, fmt.Errorf("vector search: %w", vecRes.err)
		}
		if ftsRes.err != nil {
			return nil, trace, fmt.Errorf("fts search: %w", ftsRes.err)
		}
	}

	return fused, trace, nil
}

// vectorSearch generates an embedding for the query and searches
// vec_elements.
func (e *Engine) vectorSearch(ctx context.Context, query string, k int) ([]store.SearchResult, error) {
	if e.embedder == nil {
		return nil, fmt.Errorf("no embedding provider configured")
	}
	embeddings, err := e.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, fmt.Errorf("empty embedding returned")
	}
	return e.store.VectorSearch(ctx, embeddings[0], k)
}

// filterByDeck keeps only results from the given deck. deckID 0 means
// no filtering.
func filterByDeck(results []store.SearchResult, deckID int64) []store.SearchResult {
	if deckID == 0 {
		return results
	}
	var filtered []store.SearchResult
	for _, r := range results {
		if r.DeckID == deckID {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func methodLabel(weightVec, weightFTS float64) string {
	switch {
	case weightVec > 0 && weightFTS > 0:
		return "hybrid"
	case weightVec > 0:
		return "vector"
	default:
		return "fts"
	}
}
