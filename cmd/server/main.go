// Command server runs the deckagent HTTP API.
//
// Configuration comes from an optional JSON config file plus environment
// variables:
//
//	DECKAGENT_DB_PATH         SQLite database file
//	DECKAGENT_CHAT_PROVIDER   chat model provider (siliconflow, deepseek, ...)
//	DECKAGENT_CHAT_MODEL      chat model name
//	DECKAGENT_CHAT_BASE_URL   chat endpoint override
//	DECKAGENT_CHAT_API_KEY    chat API key
//	DECKAGENT_EMBED_PROVIDER  embedding provider
//	DECKAGENT_EMBED_MODEL     embedding model name
//	DECKAGENT_EMBED_BASE_URL  embedding endpoint override
//	DECKAGENT_EMBED_API_KEY   embedding API key
//	DECKAGENT_API_KEY         bearer token protecting /api routes
//	DECKAGENT_CORS_ORIGINS    Access-Control-Allow-Origin value
//	DECKAGENT_UPLOAD_DIR      upload directory (default "uploads")
//	DECKAGENT_MAX_UPLOAD_MB   upload size limit (default 100)
//
// Unset chat/embed API keys fall back to the provider's conventional
// variable, e.g. SILICONFLOW_API_KEY.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/qixuan-zhu/deckagent"
	"github.com/qixuan-zhu/deckagent/internal/api"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (JSON)")
	addr := flag.String("addr", ":8010", "Listen address")
	flag.Parse()

	// Structured JSON logging.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg := deckagent.DefaultConfig()
	if *configPath != "" {
		f, err := os.Open(*configPath)
		if err != nil {
			slog.Error("opening config", "error", err)
			os.Exit(1)
		}
		if err := json.NewDecoder(f).Decode(&cfg); err != nil {
			f.Close()
			slog.Error("parsing config", "error", err)
			os.Exit(1)
		}
		f.Close()
	}

	// Override from environment variables.
	if v := os.Getenv("DECKAGENT_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("DECKAGENT_CHAT_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("DECKAGENT_CHAT_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("DECKAGENT_CHAT_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("DECKAGENT_CHAT_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("DECKAGENT_EMBED_PROVIDER"); v != "" {
		cfg.Embedder.Provider = v
	}
	if v := os.Getenv("DECKAGENT_EMBED_MODEL"); v != "" {
		cfg.Embedder.Model = v
	}
	if v := os.Getenv("DECKAGENT_EMBED_BASE_URL"); v != "" {
		cfg.Embedder.BaseURL = v
	}
	if v := os.Getenv("DECKAGENT_EMBED_API_KEY"); v != "" {
		cfg.Embedder.APIKey = v
	}

	opts := api.Options{
		APIKey:      os.Getenv("DECKAGENT_API_KEY"),
		CORSOrigins: os.Getenv("DECKAGENT_CORS_ORIGINS"),
		UploadDir:   os.Getenv("DECKAGENT_UPLOAD_DIR"),
	}
	if opts.UploadDir == "" {
		opts.UploadDir = "uploads"
	}
	if err := os.MkdirAll(opts.UploadDir, 0o755); err != nil {
		slog.Error("creating upload dir", "dir", opts.UploadDir, "error", err)
		os.Exit(1)
	}
	if v := os.Getenv("DECKAGENT_MAX_UPLOAD_MB"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			opts.MaxUpload = n << 20
		}
	}

	engine, err := deckagent.New(cfg)
	if err != nil {
		slog.Error("creating engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	srv := &http.Server{
		Addr:         *addr,
		Handler:      api.NewServer(engine, opts),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // expansion requests can run for minutes
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", *addr, "upload_dir", opts.UploadDir)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}
