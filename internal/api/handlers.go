package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/qixuan-zhu/deckagent"
	"github.com/qixuan-zhu/deckagent/deck"
	"github.com/qixuan-zhu/deckagent/export"
	"github.com/qixuan-zhu/deckagent/outline"
)

// GET /
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "deckagent",
		"endpoints": map[string]string{
			"upload":     "POST /api/upload",
			"decks":      "GET /api/decks",
			"deck":       "GET /api/decks/{id}",
			"outline":    "GET /api/decks/{id}/outline",
			"slide":      "GET /api/decks/{id}/slides/{index}",
			"expand":     "POST /api/decks/{id}/expand",
			"expansions": "GET /api/decks/{id}/expansions",
			"download":   "GET /api/decks/{id}/download?format=markdown|json|xlsx",
			"search":     "POST /api/search",
			"stats":      "GET /api/stats",
		},
	})
}

// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// POST /api/upload
// Multipart upload: "file" plus optional "description" and "force" fields.
// The file is stored under the upload directory and ingested.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUpload+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !supportedExt(filename) {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("unsupported file type %s, supported: %s",
				filepath.Ext(filename), strings.Join(deck.SupportedExtensions(), ", ")))
		return
	}

	// Unique name so repeated uploads of the same filename never collide.
	dstPath := filepath.Join(s.opts.UploadDir, uuid.New().String()+"_"+filename)
	dst, err := os.Create(dstPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store file")
		slog.Error("creating upload file", "path", dstPath, "error", err)
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(dstPath)
		writeError(w, http.StatusInternalServerError, "failed to store file")
		slog.Error("saving upload", "path", dstPath, "error", err)
		return
	}
	dst.Close()

	meta := map[string]string{"original_filename": filename}
	if desc := r.FormValue("description"); desc != "" {
		meta["description"] = desc
	}
	opts := []deckagent.IngestOption{deckagent.WithMetadata(meta)}
	if r.FormValue("force") == "true" {
		opts = append(opts, deckagent.WithForce())
	}

	res, err := s.engine.Ingest(ctx, dstPath, opts...)
	if err != nil {
		os.Remove(dstPath)
		writeEngineError(w, err, "ingestion failed")
		slog.Error("ingest error", "file", filename, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// GET /api/decks
func (s *Server) handleListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := s.engine.ListDecks(r.Context())
	if err != nil {
		writeEngineError(w, err, "failed to list decks")
		slog.Error("list decks error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"decks": decks})
}

// GET /api/decks/{deckID}
func (s *Server) handleGetDeck(w http.ResponseWriter, r *http.Request) {
	id, ok := deckID(w, r)
	if !ok {
		return
	}
	d, err := s.engine.GetDeck(r.Context(), id)
	if err != nil {
		writeEngineError(w, err, "failed to get deck")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// DELETE /api/decks/{deckID}
func (s *Server) handleDeleteDeck(w http.ResponseWriter, r *http.Request) {
	id, ok := deckID(w, r)
	if !ok {
		return
	}
	if err := s.engine.DeleteDeck(r.Context(), id); err != nil {
		writeEngineError(w, err, "delete failed")
		slog.Error("delete error", "deck_id", id, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GET /api/decks/{deckID}/outline
func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	id, ok := deckID(w, r)
	if !ok {
		return
	}
	roots, err := s.engine.Outline(r.Context(), id)
	if err != nil {
		writeEngineError(w, err, "failed to build outline")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deck_id": id,
		"outline": roots,
	})
}

// GET /api/decks/{deckID}/slides/{index}
func (s *Server) handleGetSlide(w http.ResponseWriter, r *http.Request) {
	id, ok := deckID(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		writeError(w, http.StatusBadRequest, "invalid slide index")
		return
	}
	detail, err := s.engine.GetSlide(r.Context(), id, index)
	if err != nil {
		writeEngineError(w, err, "failed to get slide")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// POST /api/decks/{deckID}/expand
func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	id, ok := deckID(w, r)
	if !ok {
		return
	}

	var req struct {
		SlideIndexes []int    `json:"slide_indexes,omitempty"`
		Types        []string `json:"types,omitempty"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
	}

	var opts []deckagent.ExpandOption
	if len(req.Types) > 0 {
		types := make([]outline.ContentType, len(req.Types))
		for i, t := range req.Types {
			types[i] = outline.ContentType(t)
		}
		opts = append(opts, deckagent.WithExpandTypes(types...))
	}

	results, err := s.engine.Expand(ctx, id, req.SlideIndexes, opts...)
	if err != nil {
		writeEngineError(w, err, "expansion failed")
		slog.Error("expand error", "deck_id", id, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deck_id":  id,
		"expanded": len(results),
		"results":  results,
	})
}

// GET /api/decks/{deckID}/expansions
func (s *Server) handleExpansions(w http.ResponseWriter, r *http.Request) {
	id, ok := deckID(w, r)
	if !ok {
		return
	}
	results, err := s.engine.Expansions(r.Context(), id)
	if err != nil {
		writeEngineError(w, err, "failed to load expansions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deck_id": id,
		"total":   len(results),
		"results": results,
	})
}

// POST /api/decks/{deckID}/reindex
func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	id, ok := deckID(w, r)
	if !ok {
		return
	}
	n, err := s.engine.Reindex(ctx, id)
	if err != nil {
		writeEngineError(w, err, "reindex failed")
		slog.Error("reindex error", "deck_id", id, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deck_id":  id,
		"embedded": n,
	})
}

// GET /api/decks/{deckID}/download?format=markdown|json|xlsx
// markdown and json deliver the expansion results; xlsx delivers the
// structure analysis workbook.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, ok := deckID(w, r)
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "markdown"
	}

	d, err := s.engine.GetDeck(r.Context(), id)
	if err != nil {
		writeEngineError(w, err, "failed to get deck")
		return
	}
	slides, records, err := s.engine.Records(r.Context(), id)
	if err != nil {
		writeEngineError(w, err, "failed to load deck records")
		return
	}
	base := strings.TrimSuffix(d.Filename, filepath.Ext(d.Filename))

	switch format {
	case "markdown", "json":
		results, err := s.engine.Expansions(r.Context(), id)
		if err != nil {
			writeEngineError(w, err, "failed to load expansions")
			return
		}
		if len(results) == 0 {
			writeError(w, http.StatusNotFound, "no expansion results for this deck")
			return
		}
		if format == "json" {
			data, err := export.ExpansionsJSON(export.ExpansionExport{
				Source:      d.Filename,
				ProcessedAt: time.Now(),
				TotalSlides: d.SlideCount,
				Results:     results,
			})
			if err != nil {
				writeError(w, http.StatusInternalServerError, "export failed")
				return
			}
			sendAttachment(w, base+"_expanded.json", "application/json", data)
			return
		}
		md := export.ExpansionMarkdown(d.Filename, time.Now(), slides, results)
		sendAttachment(w, base+"_expanded.md", "text/markdown; charset=utf-8", []byte(md))

	case "xlsx":
		w.Header().Set("Content-Type",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", base+"_structure.xlsx"))
		info := export.DeckInfo{
			Filename:   d.Filename,
			Path:       d.Path,
			Format:     d.Format,
			SlideCount: d.SlideCount,
			Status:     d.Status,
			CreatedAt:  d.CreatedAt,
		}
		if err := export.StructureWorkbook(w, info, slides, records); err != nil {
			slog.Error("workbook export error", "deck_id", id, "error", err)
		}

	default:
		writeError(w, http.StatusBadRequest, "format must be markdown, json or xlsx")
	}
}

// POST /api/search
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	var req struct {
		Query        string  `json:"query"`
		DeckID       int64   `json:"deck_id,omitempty"`
		Limit        int     `json:"limit,omitempty"`
		WeightVector float64 `json:"weight_vector,omitempty"`
		WeightFTS    float64 `json:"weight_fts,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.Limit < 0 || req.Limit > 100 {
		req.Limit = 0 // use default
	}

	var opts []deckagent.SearchOption
	if req.DeckID > 0 {
		opts = append(opts, deckagent.WithDeck(req.DeckID))
	}
	if req.Limit > 0 {
		opts = append(opts, deckagent.WithMaxResults(req.Limit))
	}
	if req.WeightVector > 0 || req.WeightFTS > 0 {
		opts = append(opts, deckagent.WithWeights(req.WeightVector, req.WeightFTS))
	}

	resp, err := s.engine.Search(ctx, req.Query, opts...)
	if err != nil {
		writeEngineError(w, err, "search failed")
		slog.Error("search error", "query", req.Query, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Stats(r.Context())
	if err != nil {
		writeEngineError(w, err, "failed to read stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// deckID parses the {deckID} route parameter, writing a 400 on failure.
func deckID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "deckID"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid deck id")
		return 0, false
	}
	return id, true
}

// writeEngineError maps engine sentinel errors onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, deckagent.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, deckagent.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, deckagent.ErrDeckNotIndexed):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, deckagent.ErrNoLLM), errors.Is(err, deckagent.ErrNoEmbedder):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, deckagent.ErrDecodingFailed):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func supportedExt(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range deck.SupportedExtensions() {
		if ext == e {
			return true
		}
	}
	return false
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}

func sendAttachment(w http.ResponseWriter, filename, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
