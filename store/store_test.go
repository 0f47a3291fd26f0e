//go:build cgo

package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath, 4) // dim=4 for test vectors
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ---------------------------------------------------------------------------
// Schema / construction
// ---------------------------------------------------------------------------

func TestNew(t *testing.T) {
	s := newTestStore(t)
	if s.EmbeddingDim() != 4 {
		t.Fatalf("expected embedding dim 4, got %d", s.EmbeddingDim())
	}
	if s.DB() == nil {
		t.Fatal("expected non-nil *sql.DB")
	}
}

func TestNewCreatesParentDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sub", "dir")
	dbPath := filepath.Join(dir, "test.db")
	s, err := New(dbPath, 4)
	if err != nil {
		t.Fatalf("creating store in nested dir: %v", err)
	}
	s.Close()
}

// ---------------------------------------------------------------------------
// Deck CRUD
// ---------------------------------------------------------------------------

func sampleDeck(path string) Deck {
	return Deck{
		Path:        path,
		Filename:    "lecture.pptx",
		Format:      "pptx",
		ContentHash: "abc123",
		SlideCount:  12,
		Status:      "pending",
		Metadata:    `{"uploader":"cli"}`,
	}
}

func TestUpsertAndGetDeck(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d := sampleDeck("/tmp/lecture.pptx")
	id, err := s.UpsertDeck(ctx, d)
	if err != nil {
		t.Fatalf("upserting deck: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero deck id")
	}

	got, err := s.GetDeck(ctx, id)
	if err != nil {
		t.Fatalf("getting deck by id: %v", err)
	}
	if got.Path != d.Path {
		t.Errorf("path: got %q, want %q", got.Path, d.Path)
	}
	if got.Filename != d.Filename {
		t.Errorf("filename: got %q, want %q", got.Filename, d.Filename)
	}
	if got.SlideCount != 12 {
		t.Errorf("slide_count: got %d, want 12", got.SlideCount)
	}
	if got.Status != "pending" {
		t.Errorf("status: got %q, want %q", got.Status, "pending")
	}
}

func TestGetDeckByPath(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d := sampleDeck("/decks/算法设计.pptx")
	if _, err := s.UpsertDeck(ctx, d); err != nil {
		t.Fatalf("upserting: %v", err)
	}

	got, err := s.GetDeckByPath(ctx, "/decks/算法设计.pptx")
	if err != nil {
		t.Fatalf("getting by path: %v", err)
	}
	if got.ContentHash != "abc123" {
		t.Errorf("content_hash: got %q, want %q", got.ContentHash, "abc123")
	}
}

func TestGetDeckByPathNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetDeckByPath(ctx, "/nonexistent")
	if err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestUpsertDeckUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d := sampleDeck("/tmp/update.pptx")
	id1, err := s.UpsertDeck(ctx, d)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	// Upsert again with different hash -- same path triggers UPDATE.
	d.ContentHash = "def456"
	d.Status = "analyzed"
	id2, err := s.UpsertDeck(ctx, d)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if id2 != id1 {
		t.Fatalf("upsert returned different id: %d vs %d", id2, id1)
	}

	got, err := s.GetDeck(ctx, id1)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.ContentHash != "def456" {
		t.Errorf("content_hash not updated: got %q", got.ContentHash)
	}
	if got.Status != "analyzed" {
		t.Errorf("status not updated: got %q", got.Status)
	}
}

func TestListDecks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, p := range []string{"/a.pptx", "/b.pdf", "/c.md"} {
		d := sampleDeck(p)
		d.Filename = p
		if _, err := s.UpsertDeck(ctx, d); err != nil {
			t.Fatalf("insert deck %d: %v", i, err)
		}
	}

	decks, err := s.ListDecks(ctx)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(decks) != 3 {
		t.Fatalf("expected 3 decks, got %d", len(decks))
	}
}

func TestUpdateDeckStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.UpsertDeck(ctx, sampleDeck("/status.pptx"))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := s.UpdateDeckStatus(ctx, id, "ready"); err != nil {
		t.Fatalf("update status: %v", err)
	}

	got, err := s.GetDeck(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != "ready" {
		t.Errorf("status: got %q, want %q", got.Status, "ready")
	}
}

// ---------------------------------------------------------------------------
// Slide operations
// ---------------------------------------------------------------------------

func TestInsertAndGetSlides(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	deckID, err := s.UpsertDeck(ctx, sampleDeck("/slides.pptx"))
	if err != nil {
		t.Fatalf("upsert deck: %v", err)
	}

	slides := []Slide{
		{DeckID: deckID, SlideIndex: 0, Title: "机器学习导论", Paragraphs: []string{"汇报人：张三"}, NaiveLevel: 4},
		{DeckID: deckID, SlideIndex: 1, Title: "目录", Bullets: []string{"引言", "方法"}, NaiveLevel: 4},
		{DeckID: deckID, SlideIndex: 2, Title: "实验结果", Images: []string{"slide_2_image_0"}, Notes: "讲满五分钟", NaiveLevel: 4},
	}

	ids, err := s.InsertSlides(ctx, slides)
	if err != nil {
		t.Fatalf("inserting slides: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 ids, got %d", len(ids))
	}

	got, err := s.GetSlidesByDeck(ctx, deckID)
	if err != nil {
		t.Fatalf("getting slides: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 slides, got %d", len(got))
	}

	// Verify ordering by slide_index and JSON roundtrip.
	if got[0].Title != "机器学习导论" {
		t.Errorf("first slide title: got %q", got[0].Title)
	}
	if len(got[1].Bullets) != 2 || got[1].Bullets[0] != "引言" {
		t.Errorf("bullets roundtrip: got %v", got[1].Bullets)
	}
	if len(got[2].Images) != 1 || got[2].Images[0] != "slide_2_image_0" {
		t.Errorf("images roundtrip: got %v", got[2].Images)
	}
	if got[2].Notes != "讲满五分钟" {
		t.Errorf("notes: got %q", got[2].Notes)
	}
	if got[0].Bullets != nil {
		t.Errorf("empty bullet list should scan as nil, got %v", got[0].Bullets)
	}
}

func TestGetSlide(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	deckID, _ := s.UpsertDeck(ctx, sampleDeck("/single.pptx"))
	if _, err := s.InsertSlides(ctx, []Slide{
		{DeckID: deckID, SlideIndex: 0, Title: "封面", NaiveLevel: 4},
		{DeckID: deckID, SlideIndex: 1, Title: "第一章", NaiveLevel: 1},
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.GetSlide(ctx, deckID, 1)
	if err != nil {
		t.Fatalf("get slide: %v", err)
	}
	if got.Title != "第一章" {
		t.Errorf("title: got %q", got.Title)
	}
	if got.NaiveLevel != 1 {
		t.Errorf("naive_level: got %d, want 1", got.NaiveLevel)
	}

	if _, err := s.GetSlide(ctx, deckID, 99); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows for missing index, got %v", err)
	}
}

func TestGetSlidesByIndexes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	deckID, _ := s.UpsertDeck(ctx, sampleDeck("/pick.pptx"))
	var slides []Slide
	for i := 0; i < 5; i++ {
		slides = append(slides, Slide{DeckID: deckID, SlideIndex: i, Title: "页", NaiveLevel: 4})
	}
	if _, err := s.InsertSlides(ctx, slides); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.GetSlidesByIndexes(ctx, deckID, []int{1, 3})
	if err != nil {
		t.Fatalf("get by indexes: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 slides, got %d", len(got))
	}
	if got[0].SlideIndex != 1 || got[1].SlideIndex != 3 {
		t.Errorf("indexes: got %d, %d", got[0].SlideIndex, got[1].SlideIndex)
	}

	empty, err := s.GetSlidesByIndexes(ctx, deckID, nil)
	if err != nil {
		t.Fatalf("empty indexes: %v", err)
	}
	if empty != nil {
		t.Errorf("expected nil for empty index list, got %v", empty)
	}
}

// ---------------------------------------------------------------------------
// Structure operations
// ---------------------------------------------------------------------------

func TestInsertAndGetStructures(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	deckID, _ := s.UpsertDeck(ctx, sampleDeck("/struct.pptx"))
	slideIDs, err := s.InsertSlides(ctx, []Slide{
		{DeckID: deckID, SlideIndex: 0, Title: "课程汇报", NaiveLevel: 4},
		{DeckID: deckID, SlideIndex: 1, Title: "第一章 绪论", NaiveLevel: 1},
	})
	if err != nil {
		t.Fatalf("insert slides: %v", err)
	}

	structures := []Structure{
		{SlideID: slideIDs[0], DeckID: deckID, SlideIndex: 0, ContentType: "main_title", Level: 1, TOCRunStart: -1, IsTitlePage: true},
		{SlideID: slideIDs[1], DeckID: deckID, SlideIndex: 1, ContentType: "chapter_title", Level: 2,
			ParentPath: []string{"课程汇报"}, TOCRunStart: -1, HasCode: true},
	}
	if err := s.InsertStructures(ctx, structures); err != nil {
		t.Fatalf("insert structures: %v", err)
	}

	got, err := s.GetStructuresByDeck(ctx, deckID)
	if err != nil {
		t.Fatalf("get structures: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 structures, got %d", len(got))
	}
	if got[0].ContentType != "main_title" || !got[0].IsTitlePage {
		t.Errorf("first structure: %+v", got[0])
	}
	if got[0].ParentPath != nil {
		t.Errorf("empty parent_path should scan as nil, got %v", got[0].ParentPath)
	}
	if got[1].Level != 2 || !got[1].HasCode {
		t.Errorf("second structure: %+v", got[1])
	}
	if len(got[1].ParentPath) != 1 || got[1].ParentPath[0] != "课程汇报" {
		t.Errorf("parent_path roundtrip: got %v", got[1].ParentPath)
	}
	if got[0].TOCRunStart != -1 {
		t.Errorf("toc_run_start: got %d, want -1", got[0].TOCRunStart)
	}
}

func TestGetOutline(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	deckID, _ := s.UpsertDeck(ctx, sampleDeck("/outline.pptx"))
	slideIDs, _ := s.InsertSlides(ctx, []Slide{
		{DeckID: deckID, SlideIndex: 0, Title: "动态规划专题", NaiveLevel: 4},
		{DeckID: deckID, SlideIndex: 1, Title: "1.1 状态定义", NaiveLevel: 4},
	})
	if err := s.InsertStructures(ctx, []Structure{
		{SlideID: slideIDs[0], DeckID: deckID, SlideIndex: 0, ContentType: "main_title", Level: 1, TOCRunStart: -1},
		{SlideID: slideIDs[1], DeckID: deckID, SlideIndex: 1, ContentType: "section_title", Level: 3,
			ParentPath: []string{"动态规划专题"}, TOCRunStart: -1},
	}); err != nil {
		t.Fatalf("insert structures: %v", err)
	}

	entries, err := s.GetOutline(ctx, deckID)
	if err != nil {
		t.Fatalf("get outline: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Title != "动态规划专题" || entries[0].ContentType != "main_title" {
		t.Errorf("first entry: %+v", entries[0])
	}
	if entries[1].Level != 3 || len(entries[1].ParentPath) != 1 {
		t.Errorf("second entry: %+v", entries[1])
	}
}

// ---------------------------------------------------------------------------
// Element operations
// ---------------------------------------------------------------------------

// seedElements creates a deck with one slide and one structure row per
// text so that search joins resolve. Returns the deck ID and element IDs.
func seedElements(t *testing.T, s *Store, path string, texts []string) (int64, []int64) {
	t.Helper()
	ctx := context.Background()

	deckID, err := s.UpsertDeck(ctx, sampleDeck(path))
	if err != nil {
		t.Fatalf("upsert deck: %v", err)
	}

	var slides []Slide
	for i := range texts {
		slides = append(slides, Slide{DeckID: deckID, SlideIndex: i, Title: "页", NaiveLevel: 4})
	}
	slideIDs, err := s.InsertSlides(ctx, slides)
	if err != nil {
		t.Fatalf("insert slides: %v", err)
	}

	var structures []Structure
	var elements []Element
	for i, text := range texts {
		structures = append(structures, Structure{
			SlideID: slideIDs[i], DeckID: deckID, SlideIndex: i,
			ContentType: "body", Level: 2, TOCRunStart: -1,
		})
		elements = append(elements, Element{
			SlideID: slideIDs[i], DeckID: deckID, Position: 0,
			Kind: "paragraph", Text: text, Importance: "medium",
		})
	}
	if err := s.InsertStructures(ctx, structures); err != nil {
		t.Fatalf("insert structures: %v", err)
	}
	ids, err := s.InsertElements(ctx, elements)
	if err != nil {
		t.Fatalf("insert elements: %v", err)
	}
	return deckID, ids
}

func TestInsertAndGetElements(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	deckID, ids := seedElements(t, s, "/elems.pptx", []string{"第一段", "第二段"})
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}

	got, err := s.GetElementsByDeck(ctx, deckID)
	if err != nil {
		t.Fatalf("get elements: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(got))
	}
	if got[0].Text != "第一段" || got[0].Kind != "paragraph" {
		t.Errorf("first element: %+v", got[0])
	}

	bySlide, err := s.GetElementsBySlide(ctx, got[0].SlideID)
	if err != nil {
		t.Fatalf("get by slide: %v", err)
	}
	if len(bySlide) != 1 {
		t.Fatalf("expected 1 element for slide, got %d", len(bySlide))
	}
}

// ---------------------------------------------------------------------------
// Embedding / vector search
// ---------------------------------------------------------------------------

func TestInsertEmbeddingAndVectorSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, ids := seedElements(t, s, "/vec.pptx", []string{"分治法的基本思想", "动态规划的状态转移"})

	// Orthogonal embeddings so distance is clear.
	if err := s.InsertEmbedding(ctx, ids[0], []float32{1, 0, 0, 0}); err != nil {
		t.Fatalf("embedding 0: %v", err)
	}
	if err := s.InsertEmbedding(ctx, ids[1], []float32{0, 1, 0, 0}); err != nil {
		t.Fatalf("embedding 1: %v", err)
	}

	// Query vector close to first embedding.
	results, err := s.VectorSearch(ctx, []float32{1, 0, 0, 0}, 2)
	if err != nil {
		t.Fatalf("vector search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	if results[0].Text != "分治法的基本思想" {
		t.Errorf("expected nearest to be the first element, got %q", results[0].Text)
	}
	if results[0].Filename != "lecture.pptx" {
		t.Errorf("filename: got %q, want %q", results[0].Filename, "lecture.pptx")
	}
	if results[0].ContentType != "body" {
		t.Errorf("content_type: got %q, want %q", results[0].ContentType, "body")
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("expected first result score (%f) > second (%f)", results[0].Score, results[1].Score)
	}
}

func TestVectorSearchTopK(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, ids := seedElements(t, s, "/topk.pptx", []string{"e1", "e2", "e3"})
	_ = s.InsertEmbedding(ctx, ids[0], []float32{1, 0, 0, 0})
	_ = s.InsertEmbedding(ctx, ids[1], []float32{0, 1, 0, 0})
	_ = s.InsertEmbedding(ctx, ids[2], []float32{0, 0, 1, 0})

	// Request only top-1.
	results, err := s.VectorSearch(ctx, []float32{0, 0, 1, 0}, 1)
	if err != nil {
		t.Fatalf("vector search k=1: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Text != "e3" {
		t.Errorf("expected e3, got %q", results[0].Text)
	}
}

func TestElementHasEmbedding(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, ids := seedElements(t, s, "/has.pptx", []string{"a", "b"})
	_ = s.InsertEmbedding(ctx, ids[0], []float32{1, 0, 0, 0})

	has, err := s.ElementHasEmbedding(ctx, ids[0])
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !has {
		t.Error("expected element 0 to have an embedding")
	}

	has, err = s.ElementHasEmbedding(ctx, ids[1])
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if has {
		t.Error("expected element 1 to have no embedding")
	}
}

// ---------------------------------------------------------------------------
// FTS search
// ---------------------------------------------------------------------------

func TestFTSSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedElements(t, s, "/fts.pptx", []string{
		"the quick brown fox jumps over the lazy dog",
		"artificial intelligence and machine learning",
		"quantum computing uses qubits",
	})

	results, err := s.FTSSearch(ctx, "artificial intelligence", 10)
	if err != nil {
		t.Fatalf("fts search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one FTS result")
	}
	if results[0].Text != "artificial intelligence and machine learning" {
		t.Errorf("top FTS result: got %q", results[0].Text)
	}
	if results[0].Score <= 0 {
		t.Errorf("expected positive score, got %f", results[0].Score)
	}
}

func TestFTSSearchChinese(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// unicode61 keeps CJK runs as single tokens, so space-delimited terms
	// are matchable.
	seedElements(t, s, "/fts_zh.pptx", []string{
		"动态规划 的 基本思想",
		"贪心算法 与 局部最优",
	})

	results, err := s.FTSSearch(ctx, "动态规划", 10)
	if err != nil {
		t.Fatalf("fts search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Text != "动态规划 的 基本思想" {
		t.Errorf("top result: got %q", results[0].Text)
	}
}

func TestFTSSearchNoMatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedElements(t, s, "/fts2.pptx", []string{"hello world"})

	results, err := s.FTSSearch(ctx, "zzzyyyxxx", 10)
	if err != nil {
		t.Fatalf("fts search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected 0 results for nonsense query, got %d", len(results))
	}
}

// ---------------------------------------------------------------------------
// Expansion operations
// ---------------------------------------------------------------------------

func TestInsertAndGetExpansions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	deckID, _ := seedElements(t, s, "/exp.pptx", []string{"归并排序"})
	slides, err := s.GetSlidesByDeck(ctx, deckID)
	if err != nil {
		t.Fatalf("get slides: %v", err)
	}
	slideID := slides[0].ID

	exps := []Expansion{
		{SlideID: slideID, DeckID: deckID, SlideIndex: 0, TaskType: "explanation",
			Content: "归并排序是一种分治算法。", ModelUsed: "deepseek-ai/DeepSeek-V3.2-Exp",
			PromptTokens: 120, CompletionTokens: 250, TotalTokens: 370},
		{SlideID: slideID, DeckID: deckID, SlideIndex: 0, TaskType: "quiz",
			Skipped: true, SkipReason: "slide has no quizzable content"},
	}
	for _, e := range exps {
		if _, err := s.InsertExpansion(ctx, e); err != nil {
			t.Fatalf("insert expansion: %v", err)
		}
	}

	got, err := s.GetExpansionsByDeck(ctx, deckID)
	if err != nil {
		t.Fatalf("get by deck: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 expansions, got %d", len(got))
	}
	if got[0].TaskType != "explanation" || got[0].TotalTokens != 370 {
		t.Errorf("first expansion: %+v", got[0])
	}
	if !got[1].Skipped || got[1].SkipReason == "" {
		t.Errorf("second expansion should be skipped with a reason: %+v", got[1])
	}
	if got[0].CreatedAt == "" {
		t.Error("expected created_at to be populated")
	}

	bySlide, err := s.GetExpansionsBySlide(ctx, slideID)
	if err != nil {
		t.Fatalf("get by slide: %v", err)
	}
	if len(bySlide) != 2 {
		t.Fatalf("expected 2 expansions for slide, got %d", len(bySlide))
	}
}

func TestDeleteExpansionsByDeck(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	deckID, _ := seedElements(t, s, "/expdel.pptx", []string{"内容"})
	slides, _ := s.GetSlidesByDeck(ctx, deckID)
	if _, err := s.InsertExpansion(ctx, Expansion{
		SlideID: slides[0].ID, DeckID: deckID, SlideIndex: 0,
		TaskType: "explanation", Content: "x",
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := s.DeleteExpansionsByDeck(ctx, deckID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := s.GetExpansionsByDeck(ctx, deckID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected 0 expansions after delete, got %d", len(got))
	}
}

// ---------------------------------------------------------------------------
// Deletion cascades
// ---------------------------------------------------------------------------

func TestDeleteDeck(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	deckID, ids := seedElements(t, s, "/del.pptx", []string{"a", "b"})
	_ = s.InsertEmbedding(ctx, ids[0], []float32{1, 0, 0, 0})
	slides, _ := s.GetSlidesByDeck(ctx, deckID)
	s.InsertExpansion(ctx, Expansion{SlideID: slides[0].ID, DeckID: deckID, TaskType: "explanation", Content: "x"})

	if err := s.DeleteDeck(ctx, deckID); err != nil {
		t.Fatalf("delete deck: %v", err)
	}

	if _, err := s.GetDeck(ctx, deckID); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows after delete, got %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Slides != 0 || stats.Elements != 0 || stats.Embeddings != 0 || stats.Expansions != 0 {
		t.Errorf("expected all related rows deleted, got %+v", stats)
	}
}

func TestDeleteDeckData(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	deckID, ids := seedElements(t, s, "/deldata.pptx", []string{"a"})
	_ = s.InsertEmbedding(ctx, ids[0], []float32{1, 0, 0, 0})

	if err := s.DeleteDeckData(ctx, deckID); err != nil {
		t.Fatalf("delete deck data: %v", err)
	}

	// Deck record survives, everything else is gone.
	if _, err := s.GetDeck(ctx, deckID); err != nil {
		t.Fatalf("deck should still exist: %v", err)
	}
	stats, _ := s.Stats(ctx)
	if stats.Decks != 1 {
		t.Errorf("expected 1 deck, got %d", stats.Decks)
	}
	if stats.Slides != 0 || stats.Elements != 0 || stats.Embeddings != 0 {
		t.Errorf("expected related rows deleted, got %+v", stats)
	}
}

// ---------------------------------------------------------------------------
// Search log / stats
// ---------------------------------------------------------------------------

func TestLogSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.LogSearch(ctx, SearchLog{
		Query:       "动态规划",
		Method:      "hybrid",
		TopK:        5,
		ResultCount: 3,
		DurationMS:  42,
	}); err != nil {
		t.Fatalf("log search: %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Searches != 1 {
		t.Errorf("expected 1 logged search, got %d", stats.Searches)
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	deckID, ids := seedElements(t, s, "/stats.pptx", []string{"a", "b", "c"})
	_ = s.InsertEmbedding(ctx, ids[0], []float32{1, 0, 0, 0})
	_ = deckID

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Decks != 1 {
		t.Errorf("decks: got %d, want 1", stats.Decks)
	}
	if stats.Slides != 3 {
		t.Errorf("slides: got %d, want 3", stats.Slides)
	}
	if stats.Elements != 3 {
		t.Errorf("elements: got %d, want 3", stats.Elements)
	}
	if stats.Embeddings != 1 {
		t.Errorf("embeddings: got %d, want 1", stats.Embeddings)
	}
}
