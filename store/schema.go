package store

import "fmt"

// schemaSQL returns the DDL for all tables. embeddingDim controls the
// vec0 virtual table dimension.
func schemaSQL(embeddingDim int) string {
	return fmt.Sprintf(`
-- Deck registry with hash-based change detection
CREATE TABLE IF NOT EXISTS decks (
    id INTEGER PRIMARY KEY,
    path TEXT NOT NULL UNIQUE,
    filename TEXT NOT NULL,
    format TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    slide_count INTEGER DEFAULT 0,
    status TEXT DEFAULT 'pending',
    metadata JSON,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Extracted slide content, one row per slide
CREATE TABLE IF NOT EXISTS slides (
    id INTEGER PRIMARY KEY,
    deck_id INTEGER NOT NULL REFERENCES decks(id) ON DELETE CASCADE,
    slide_index INTEGER NOT NULL,
    title TEXT,
    paragraphs JSON,
    bullets JSON,
    images JSON,
    notes TEXT,
    naive_level INTEGER,
    UNIQUE(deck_id, slide_index)
);

-- Hierarchy classification, one row per slide
CREATE TABLE IF NOT EXISTS structure (
    id INTEGER PRIMARY KEY,
    slide_id INTEGER NOT NULL UNIQUE REFERENCES slides(id) ON DELETE CASCADE,
    deck_id INTEGER NOT NULL REFERENCES decks(id) ON DELETE CASCADE,
    slide_index INTEGER NOT NULL,
    content_type TEXT NOT NULL,
    level INTEGER NOT NULL,
    parent_path JSON,
    toc_run_start INTEGER DEFAULT -1,
    has_images INTEGER DEFAULT 0,
    has_tables INTEGER DEFAULT 0,
    has_code INTEGER DEFAULT 0,
    is_title_page INTEGER DEFAULT 0,
    is_toc INTEGER DEFAULT 0,
    is_empty INTEGER DEFAULT 0,
    is_end_section INTEGER DEFAULT 0
);

-- Annotated slide elements, the retrieval unit
CREATE TABLE IF NOT EXISTS elements (
    id INTEGER PRIMARY KEY,
    slide_id INTEGER NOT NULL REFERENCES slides(id) ON DELETE CASCADE,
    deck_id INTEGER NOT NULL REFERENCES decks(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    kind TEXT NOT NULL,
    text TEXT NOT NULL,
    importance TEXT NOT NULL
);

-- Vector embeddings via sqlite-vec
CREATE VIRTUAL TABLE IF NOT EXISTS vec_elements USING vec0(
    element_id INTEGER PRIMARY KEY,
    embedding float[%d]
);

-- Full-text search via FTS5
CREATE VIRTUAL TABLE IF NOT EXISTS elements_fts USING fts5(
    text,
    content='elements',
    content_rowid='id',
    tokenize='porter unicode61'
);

-- FTS triggers to keep index in sync
CREATE TRIGGER IF NOT EXISTS elements_ai AFTER INSERT ON elements BEGIN
    INSERT INTO elements_fts(rowid, text) VALUES (new.id, new.text);
END;
CREATE TRIGGER IF NOT EXISTS elements_ad AFTER DELETE ON elements BEGIN
    INSERT INTO elements_fts(elements_fts, rowid, text) VALUES ('delete', old.id, old.text);
END;
CREATE TRIGGER IF NOT EXISTS elements_au AFTER UPDATE ON elements BEGIN
    INSERT INTO elements_fts(elements_fts, rowid, text) VALUES ('delete', old.id, old.text);
    INSERT INTO elements_fts(rowid, text) VALUES (new.id, new.text);
END;

-- LLM expansion results, one row per slide and task
CREATE TABLE IF NOT EXISTS expansions (
    id INTEGER PRIMARY KEY,
    slide_id INTEGER NOT NULL REFERENCES slides(id) ON DELETE CASCADE,
    deck_id INTEGER NOT NULL REFERENCES decks(id) ON DELETE CASCADE,
    slide_index INTEGER NOT NULL,
    task_type TEXT NOT NULL,
    content TEXT,
    skipped INTEGER DEFAULT 0,
    skip_reason TEXT,
    model_used TEXT,
    prompt_tokens INTEGER DEFAULT 0,
    completion_tokens INTEGER DEFAULT 0,
    total_tokens INTEGER DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Search audit log
CREATE TABLE IF NOT EXISTS search_log (
    id INTEGER PRIMARY KEY,
    query TEXT NOT NULL,
    method TEXT,
    top_k INTEGER,
    result_count INTEGER,
    duration_ms INTEGER,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Indexes
CREATE INDEX IF NOT EXISTS idx_slides_deck ON slides(deck_id);
CREATE INDEX IF NOT EXISTS idx_structure_deck ON structure(deck_id);
CREATE INDEX IF NOT EXISTS idx_structure_type ON structure(content_type);
CREATE INDEX IF NOT EXISTS idx_elements_slide ON elements(slide_id);
CREATE INDEX IF NOT EXISTS idx_elements_deck ON elements(deck_id);
CREATE INDEX IF NOT EXISTS idx_expansions_slide ON expansions(slide_id);
CREATE INDEX IF NOT EXISTS idx_expansions_deck ON expansions(deck_id);
CREATE INDEX IF NOT EXISTS idx_decks_hash ON decks(content_hash);
`, embeddingDim)
}
