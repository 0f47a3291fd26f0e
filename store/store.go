package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

// Deck represents a row in the decks table.
type Deck struct {
	ID          int64  `json:"id"`
	Path        string `json:"path"`
	Filename    string `json:"filename"`
	Format      string `json:"format"`
	ContentHash string `json:"content_hash"`
	SlideCount  int    `json:"slide_count"`
	Status      string `json:"status"`
	Metadata    string `json:"metadata,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// Slide represents a row in the slides table. The paragraph, bullet and
// image lists are stored as JSON arrays.
type Slide struct {
	ID         int64    `json:"id"`
	DeckID     int64    `json:"deck_id"`
	SlideIndex int      `json:"slide_index"`
	Title      string   `json:"title"`
	Paragraphs []string `json:"paragraphs,omitempty"`
	Bullets    []string `json:"bullets,omitempty"`
	Images     []string `json:"images,omitempty"`
	Notes      string   `json:"notes,omitempty"`
	NaiveLevel int      `json:"naive_level"`
}

// Structure represents a row in the structure table.
type Structure struct {
	ID           int64    `json:"id"`
	SlideID      int64    `json:"slide_id"`
	DeckID       int64    `json:"deck_id"`
	SlideIndex   int      `json:"slide_index"`
	ContentType  string   `json:"content_type"`
	Level        int      `json:"level"`
	ParentPath   []string `json:"parent_path,omitempty"`
	TOCRunStart  int      `json:"toc_run_start"`
	HasImages    bool     `json:"has_images"`
	HasTables    bool     `json:"has_tables"`
	HasCode      bool     `json:"has_code"`
	IsTitlePage  bool     `json:"is_title_page"`
	IsTOC        bool     `json:"is_toc"`
	IsEmpty      bool     `json:"is_empty"`
	IsEndSection bool     `json:"is_end_section"`
}

// Element represents a row in the elements table.
type Element struct {
	ID         int64  `json:"id"`
	SlideID    int64  `json:"slide_id"`
	DeckID     int64  `json:"deck_id"`
	Position   int    `json:"position"`
	Kind       string `json:"kind"`
	Text       string `json:"text"`
	Importance string `json:"importance"`
}

// Expansion represents a row in the expansions table.
type Expansion struct {
	ID               int64  `json:"id"`
	SlideID          int64  `json:"slide_id"`
	DeckID           int64  `json:"deck_id"`
	SlideIndex       int    `json:"slide_index"`
	TaskType         string `json:"task_type"`
	Content          string `json:"content,omitempty"`
	Skipped          bool   `json:"skipped"`
	SkipReason       string `json:"skip_reason,omitempty"`
	ModelUsed        string `json:"model_used,omitempty"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	CreatedAt        string `json:"created_at"`
}

// SearchLog represents a row in the search_log table.
type SearchLog struct {
	Query       string `json:"query"`
	Method      string `json:"method"`
	TopK        int    `json:"top_k"`
	ResultCount int    `json:"result_count"`
	DurationMS  int64  `json:"duration_ms"`
}

// SearchResult holds an element with its retrieval score and slide context.
type SearchResult struct {
	ElementID   int64    `json:"element_id"`
	SlideID     int64    `json:"slide_id"`
	DeckID      int64    `json:"deck_id"`
	SlideIndex  int      `json:"slide_index"`
	Kind        string   `json:"kind"`
	Text        string   `json:"text"`
	Title       string   `json:"title"`
	ContentType string   `json:"content_type"`
	Level       int      `json:"level"`
	ParentPath  []string `json:"parent_path,omitempty"`
	Filename    string   `json:"filename"`
	Path        string   `json:"path"`
	Score       float64  `json:"score"`
}

// OutlineEntry is one row of a deck outline, ordered by slide index.
type OutlineEntry struct {
	SlideIndex  int      `json:"slide_index"`
	Title       string   `json:"title"`
	ContentType string   `json:"content_type"`
	Level       int      `json:"level"`
	ParentPath  []string `json:"parent_path,omitempty"`
}

// Store wraps the SQLite database for all deckagent persistence.
type Store struct {
	db           *sql.DB
	embeddingDim int
}

// New opens (or creates) a SQLite database at the given path and
// initialises the schema including sqlite-vec and FTS5 virtual tables.
func New(dbPath string, embeddingDim int) (*Store, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Create schema
	if _, err := db.Exec(schemaSQL(embeddingDim)); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	// Connection pool settings for SQLite.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db, embeddingDim: embeddingDim}

	// Run pending migrations.
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// EmbeddingDim returns the configured embedding dimension.
func (s *Store) EmbeddingDim() int {
	return s.embeddingDim
}

// --- Deck operations ---

// UpsertDeck inserts or updates a deck record. Returns the deck ID.
func (s *Store) UpsertDeck(ctx context.Context, d Deck) (int64, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decks (path, filename, format, content_hash, slide_count, status, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			filename = excluded.filename,
			format = excluded.format,
			content_hash = excluded.content_hash,
			slide_count = excluded.slide_count,
			status = excluded.status,
			metadata = excluded.metadata,
			updated_at = CURRENT_TIMESTAMP
	`, d.Path, d.Filename, d.Format, d.ContentHash, d.SlideCount, d.Status, d.Metadata)
	if err != nil {
		return 0, err
	}

	// The UPDATE arm of the upsert does not set last_insert_rowid, so the
	// id is always read back by path.
	var id int64
	if err := s.db.QueryRowContext(ctx,
		"SELECT id FROM decks WHERE path = ?", d.Path).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// GetDeck retrieves a deck by ID.
func (s *Store) GetDeck(ctx context.Context, id int64) (*Deck, error) {
	d := &Deck{}
	var metadata sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, path, filename, format, content_hash, slide_count, status, metadata, created_at, updated_at
		FROM decks WHERE id = ?
	`, id).Scan(&d.ID, &d.Path, &d.Filename, &d.Format,
		&d.ContentHash, &d.SlideCount, &d.Status,
		&metadata, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.Metadata = metadata.String
	return d, nil
}

// GetDeckByPath retrieves a deck by its file path.
func (s *Store) GetDeckByPath(ctx context.Context, path string) (*Deck, error) {
	d := &Deck{}
	var metadata sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, path, filename, format, content_hash, slide_count, status, metadata, created_at, updated_at
		FROM decks WHERE path = ?
	`, path).Scan(&d.ID, &d.Path, &d.Filename, &d.Format,
		&d.ContentHash, &d.SlideCount, &d.Status,
		&metadata, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.Metadata = metadata.String
	return d, nil
}

// ListDecks returns all decks ordered by creation time.
func (s *Store) ListDecks(ctx context.Context) ([]Deck, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, path, filename, format, content_hash, slide_count, status, metadata, created_at, updated_at
		FROM decks ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var decks []Deck
	for rows.Next() {
		var d Deck
		var metadata sql.NullString
		if err := rows.Scan(&d.ID, &d.Path, &d.Filename, &d.Format,
			&d.ContentHash, &d.SlideCount, &d.Status,
			&metadata, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		d.Metadata = metadata.String
		decks = append(decks, d)
	}
	return decks, rows.Err()
}

// UpdateDeckStatus updates just the status field.
func (s *Store) UpdateDeckStatus(ctx context.Context, id int64, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE decks SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		status, id)
	return err
}

// DeleteDeck removes a deck and cascades to all related data.
func (s *Store) DeleteDeck(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM expansions WHERE deck_id = ?", id); err != nil {
			return err
		}

		// Delete vec embeddings
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM vec_elements WHERE element_id IN (
				SELECT id FROM elements WHERE deck_id = ?
			)`, id); err != nil {
			return err
		}

		// Delete elements (triggers will clean up FTS)
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM elements WHERE deck_id = ?", id); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			"DELETE FROM structure WHERE deck_id = ?", id); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			"DELETE FROM slides WHERE deck_id = ?", id); err != nil {
			return err
		}

		// Delete the deck
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM decks WHERE id = ?", id); err != nil {
			return err
		}

		return nil
	})
}

// DeleteDeckData removes all slides, structure, elements, embeddings and
// expansions for a deck but keeps the deck record itself. Used before
// re-analyzing a changed file.
func (s *Store) DeleteDeckData(ctx context.Context, deckID int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM expansions WHERE deck_id = ?", deckID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			DELETE FROM vec_elements WHERE element_id IN (
				SELECT id FROM elements WHERE deck_id = ?
			)`, deckID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			"DELETE FROM elements WHERE deck_id = ?", deckID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			"DELETE FROM structure WHERE deck_id = ?", deckID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			"DELETE FROM slides WHERE deck_id = ?", deckID); err != nil {
			return err
		}

		return nil
	})
}

// --- Slide operations ---

// InsertSlides inserts a batch of slides and returns their IDs.
func (s *Store) InsertSlides(ctx context.Context, slides []Slide) ([]int64, error) {
	ids := make([]int64, len(slides))

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO slides (deck_id, slide_index, title, paragraphs, bullets, images, notes, naive_level)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, sl := range slides {
			res, err := stmt.ExecContext(ctx,
				sl.DeckID, sl.SlideIndex, sl.Title,
				marshalStrings(sl.Paragraphs), marshalStrings(sl.Bullets), marshalStrings(sl.Images),
				sl.Notes, sl.NaiveLevel)
			if err != nil {
				return err
			}
			ids[i], err = res.LastInsertId()
			if err != nil {
				return err
			}
		}
		return nil
	})

	return ids, err
}

// GetSlidesByDeck returns all slides for a deck ordered by slide index.
func (s *Store) GetSlidesByDeck(ctx context.Context, deckID int64) ([]Slide, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, deck_id, slide_index, title, paragraphs, bullets, images, notes, naive_level
		FROM slides WHERE deck_id = ? ORDER BY slide_index
	`, deckID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSlides(rows)
}

// GetSlide retrieves a single slide by deck ID and slide index.
func (s *Store) GetSlide(ctx context.Context, deckID int64, slideIndex int) (*Slide, error) {
	var sl Slide
	var title, notes sql.NullString
	var paragraphs, bullets, images sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, deck_id, slide_index, title, paragraphs, bullets, images, notes, naive_level
		FROM slides WHERE deck_id = ? AND slide_index = ?
	`, deckID, slideIndex).Scan(&sl.ID, &sl.DeckID, &sl.SlideIndex, &title,
		&paragraphs, &bullets, &images, &notes, &sl.NaiveLevel)
	if err != nil {
		return nil, err
	}
	sl.Title = title.String
	sl.Notes = notes.String
	sl.Paragraphs = scanStrings(paragraphs)
	sl.Bullets = scanStrings(bullets)
	sl.Images = scanStrings(images)
	return &sl, nil
}

// GetSlidesByIndexes returns the slides of a deck matching the given
// indexes. Used for selective re-expansion.
func (s *Store) GetSlidesByIndexes(ctx context.Context, deckID int64, indexes []int) ([]Slide, error) {
	if len(indexes) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, deck_id, slide_index, title, paragraphs, bullets, images, notes, naive_level
		FROM slides WHERE deck_id = ? AND slide_index IN (?` +
		repeatPlaceholders(len(indexes)-1) + `) ORDER BY slide_index`

	args := make([]interface{}, 0, len(indexes)+1)
	args = append(args, deckID)
	for _, idx := range indexes {
		args = append(args, idx)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSlides(rows)
}

func scanSlides(rows *sql.Rows) ([]Slide, error) {
	var slides []Slide
	for rows.Next() {
		var sl Slide
		var title, notes sql.NullString
		var paragraphs, bullets, images sql.NullString
		if err := rows.Scan(&sl.ID, &sl.DeckID, &sl.SlideIndex, &title,
			&paragraphs, &bullets, &images, &notes, &sl.NaiveLevel); err != nil {
			return nil, err
		}
		sl.Title = title.String
		sl.Notes = notes.String
		sl.Paragraphs = scanStrings(paragraphs)
		sl.Bullets = scanStrings(bullets)
		sl.Images = scanStrings(images)
		slides = append(slides, sl)
	}
	return slides, rows.Err()
}

// --- Structure operations ---

// InsertStructures inserts the classification results for a deck.
func (s *Store) InsertStructures(ctx context.Context, structures []Structure) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO structure (slide_id, deck_id, slide_index, content_type, level, parent_path,
				toc_run_start, has_images, has_tables, has_code, is_title_page, is_toc, is_empty, is_end_section)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, st := range structures {
			if _, err := stmt.ExecContext(ctx,
				st.SlideID, st.DeckID, st.SlideIndex, st.ContentType, st.Level,
				marshalStrings(st.ParentPath), st.TOCRunStart,
				st.HasImages, st.HasTables, st.HasCode,
				st.IsTitlePage, st.IsTOC, st.IsEmpty, st.IsEndSection); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetStructuresByDeck returns the classification rows for a deck ordered
// by slide index.
func (s *Store) GetStructuresByDeck(ctx context.Context, deckID int64) ([]Structure, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, slide_id, deck_id, slide_index, content_type, level, parent_path,
			toc_run_start, has_images, has_tables, has_code, is_title_page, is_toc, is_empty, is_end_section
		FROM structure WHERE deck_id = ? ORDER BY slide_index
	`, deckID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var structures []Structure
	for rows.Next() {
		var st Structure
		var parentPath sql.NullString
		if err := rows.Scan(&st.ID, &st.SlideID, &st.DeckID, &st.SlideIndex,
			&st.ContentType, &st.Level, &parentPath, &st.TOCRunStart,
			&st.HasImages, &st.HasTables, &st.HasCode,
			&st.IsTitlePage, &st.IsTOC, &st.IsEmpty, &st.IsEndSection); err != nil {
			return nil, err
		}
		st.ParentPath = scanStrings(parentPath)
		structures = append(structures, st)
	}
	return structures, rows.Err()
}

// GetOutline returns the deck outline joining slide titles with their
// classification.
func (s *Store) GetOutline(ctx context.Context, deckID int64) ([]OutlineEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT st.slide_index, COALESCE(sl.title, ''), st.content_type, st.level, st.parent_path
		FROM structure st
		JOIN slides sl ON sl.id = st.slide_id
		WHERE st.deck_id = ?
		ORDER BY st.slide_index
	`, deckID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []OutlineEntry
	for rows.Next() {
		var e OutlineEntry
		var parentPath sql.NullString
		if err := rows.Scan(&e.SlideIndex, &e.Title, &e.ContentType, &e.Level, &parentPath); err != nil {
			return nil, err
		}
		e.ParentPath = scanStrings(parentPath)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// --- Element operations ---

// InsertElements inserts a batch of elements and returns their IDs.
func (s *Store) InsertElements(ctx context.Context, elements []Element) ([]int64, error) {
	ids := make([]int64, len(elements))

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO elements (slide_id, deck_id, position, kind, text, importance)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, e := range elements {
			res, err := stmt.ExecContext(ctx,
				e.SlideID, e.DeckID, e.Position, e.Kind, e.Text, e.Importance)
			if err != nil {
				return err
			}
			ids[i], err = res.LastInsertId()
			if err != nil {
				return err
			}
		}
		return nil
	})

	return ids, err
}

// GetElementsBySlide returns the elements of one slide in position order.
func (s *Store) GetElementsBySlide(ctx context.Context, slideID int64) ([]Element, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, slide_id, deck_id, position, kind, text, importance
		FROM elements WHERE slide_id = ? ORDER BY position
	`, slideID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanElements(rows)
}

// GetElementsByDeck returns all elements of a deck, ordered by slide and
// position. Used by the embedding pipeline.
func (s *Store) GetElementsByDeck(ctx context.Context, deckID int64) ([]Element, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, slide_id, deck_id, position, kind, text, importance
		FROM elements WHERE deck_id = ? ORDER BY slide_id, position
	`, deckID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanElements(rows)
}

func scanElements(rows *sql.Rows) ([]Element, error) {
	var elements []Element
	for rows.Next() {
		var e Element
		if err := rows.Scan(&e.ID, &e.SlideID, &e.DeckID, &e.Position, &e.Kind, &e.Text, &e.Importance); err != nil {
			return nil, err
		}
		elements = append(elements, e)
	}
	return elements, rows.Err()
}

// --- Embedding operations ---

// InsertEmbedding stores a vector embedding for an element.
func (s *Store) InsertEmbedding(ctx context.Context, elementID int64, embedding []float32) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO vec_elements (element_id, embedding) VALUES (?, ?)",
		elementID, serializeFloat32(embedding))
	return err
}

// ElementHasEmbedding checks if a specific element has a vector embedding.
func (s *Store) ElementHasEmbedding(ctx context.Context, elementID int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM vec_elements WHERE element_id = ?", elementID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// VectorSearch performs a KNN search returning the top-k nearest elements.
func (s *Store) VectorSearch(ctx context.Context, queryEmbedding []float32, k int) ([]SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.element_id, v.distance,
			e.slide_id, e.deck_id, e.kind, e.text,
			sl.slide_index, COALESCE(sl.title, ''), st.content_type,
			st.level, st.parent_path, d.filename, d.path
		FROM vec_elements v
		JOIN elements e ON e.id = v.element_id
		JOIN slides sl ON sl.id = e.slide_id
		JOIN structure st ON st.slide_id = e.slide_id
		JOIN decks d ON d.id = e.deck_id
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance
	`, serializeFloat32(queryEmbedding), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var distance float64
		var parentPath sql.NullString
		if err := rows.Scan(&r.ElementID, &distance,
			&r.SlideID, &r.DeckID, &r.Kind, &r.Text,
			&r.SlideIndex, &r.Title, &r.ContentType,
			&r.Level, &parentPath, &r.Filename, &r.Path); err != nil {
			return nil, err
		}
		r.ParentPath = scanStrings(parentPath)
		// Convert distance to similarity score (1 - distance for cosine)
		r.Score = 1.0 - distance
		results = append(results, r)
	}
	return results, rows.Err()
}

// FTSSearch performs a full-text search using FTS5 BM25 ranking.
func (s *Store) FTSSearch(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.rowid, f.rank,
			e.slide_id, e.deck_id, e.kind, e.text,
			sl.slide_index, COALESCE(sl.title, ''), st.content_type,
			st.level, st.parent_path, d.filename, d.path
		FROM elements_fts f
		JOIN elements e ON e.id = f.rowid
		JOIN slides sl ON sl.id = e.slide_id
		JOIN structure st ON st.slide_id = e.slide_id
		JOIN decks d ON d.id = e.deck_id
		WHERE elements_fts MATCH ?
		ORDER BY f.rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var rank float64
		var parentPath sql.NullString
		if err := rows.Scan(&r.ElementID, &rank,
			&r.SlideID, &r.DeckID, &r.Kind, &r.Text,
			&r.SlideIndex, &r.Title, &r.ContentType,
			&r.Level, &parentPath, &r.Filename, &r.Path); err != nil {
			return nil, err
		}
		r.ParentPath = scanStrings(parentPath)
		// FTS5 rank is negative (lower = better), convert to positive score
		r.Score = -rank
		results = append(results, r)
	}
	return results, rows.Err()
}

// --- Expansion operations ---

// InsertExpansion stores one LLM expansion result.
func (s *Store) InsertExpansion(ctx context.Context, e Expansion) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO expansions (slide_id, deck_id, slide_index, task_type, content,
			skipped, skip_reason, model_used, prompt_tokens, completion_tokens, total_tokens)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.SlideID, e.DeckID, e.SlideIndex, e.TaskType, e.Content,
		e.Skipped, e.SkipReason, e.ModelUsed,
		e.PromptTokens, e.CompletionTokens, e.TotalTokens)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetExpansionsByDeck returns all expansions for a deck ordered by slide
// index and insertion order.
func (s *Store) GetExpansionsByDeck(ctx context.Context, deckID int64) ([]Expansion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, slide_id, deck_id, slide_index, task_type, content,
			skipped, skip_reason, model_used, prompt_tokens, completion_tokens, total_tokens, created_at
		FROM expansions WHERE deck_id = ? ORDER BY slide_index, id
	`, deckID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanExpansions(rows)
}

// GetExpansionsBySlide returns the expansions of one slide.
func (s *Store) GetExpansionsBySlide(ctx context.Context, slideID int64) ([]Expansion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, slide_id, deck_id, slide_index, task_type, content,
			skipped, skip_reason, model_used, prompt_tokens, completion_tokens, total_tokens, created_at
		FROM expansions WHERE slide_id = ? ORDER BY id
	`, slideID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanExpansions(rows)
}

// DeleteExpansionsByDeck removes all expansions for a deck before a re-run.
func (s *Store) DeleteExpansionsByDeck(ctx context.Context, deckID int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM expansions WHERE deck_id = ?", deckID)
	return err
}

func scanExpansions(rows *sql.Rows) ([]Expansion, error) {
	var expansions []Expansion
	for rows.Next() {
		var e Expansion
		var content, skipReason, modelUsed sql.NullString
		if err := rows.Scan(&e.ID, &e.SlideID, &e.DeckID, &e.SlideIndex, &e.TaskType,
			&content, &e.Skipped, &skipReason, &modelUsed,
			&e.PromptTokens, &e.CompletionTokens, &e.TotalTokens, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Content = content.String
		e.SkipReason = skipReason.String
		e.ModelUsed = modelUsed.String
		expansions = append(expansions, e)
	}
	return expansions, rows.Err()
}

// --- Search log ---

// LogSearch writes an entry to the search audit log.
func (s *Store) LogSearch(ctx context.Context, l SearchLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO search_log (query, method, top_k, result_count, duration_ms)
		VALUES (?, ?, ?, ?, ?)
	`, l.Query, l.Method, l.TopK, l.ResultCount, l.DurationMS)
	return err
}

// --- Diagnostics ---

// DBStats holds counts of key database objects.
type DBStats struct {
	Decks      int `json:"decks"`
	Slides     int `json:"slides"`
	Elements   int `json:"elements"`
	Embeddings int `json:"embeddings"`
	Expansions int `json:"expansions"`
	Searches   int `json:"searches"`
}

// Stats returns counts of decks, slides, elements, embeddings, expansions
// and logged searches.
func (s *Store) Stats(ctx context.Context) (*DBStats, error) {
	stats := &DBStats{}
	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM decks", &stats.Decks},
		{"SELECT COUNT(*) FROM slides", &stats.Slides},
		{"SELECT COUNT(*) FROM elements", &stats.Elements},
		{"SELECT COUNT(*) FROM vec_elements", &stats.Embeddings},
		{"SELECT COUNT(*) FROM expansions", &stats.Expansions},
		{"SELECT COUNT(*) FROM search_log", &stats.Searches},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("counting %s: %w", q.query, err)
		}
	}
	return stats, nil
}

// --- helpers ---

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func repeatPlaceholders(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		s += ", ?"
	}
	return s
}

// marshalStrings encodes a string slice as a JSON column value, NULL when
// empty.
func marshalStrings(v []string) interface{} {
	if len(v) == 0 {
		return nil
	}
	b, _ := json.Marshal(v)
	return string(b)
}

// scanStrings decodes a JSON array column; NULL and malformed values scan
// as nil.
func scanStrings(ns sql.NullString) []string {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		return nil
	}
	return out
}

// serializeFloat32 converts a float32 slice to little-endian bytes for sqlite-vec.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
