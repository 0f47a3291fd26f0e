package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/qixuan-zhu/deckagent"
)

var (
	cfgFile string
	dbPath  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "deckagent",
	Short: "Analyze slide decks and expand them into teaching material",
	Long: `deckagent classifies the hierarchical structure of lecture slide
decks (PPTX, PDF, Markdown), indexes their content for hybrid search
and generates explanations, code examples, references and quiz
questions for selected slides.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./config.yaml, then $HOME/.deckagent/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(outlineCmd)
	rootCmd.AddCommand(slideCmd)
	rootCmd.AddCommand(expandCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(decksCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// initConfig wires viper before any command runs: defaults mirror
// deckagent.DefaultConfig, then an optional YAML config file, then
// DECKAGENT_* environment variables on top.
func initConfig() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	def := deckagent.DefaultConfig()
	viper.SetDefault("db_path", "")
	viper.SetDefault("embedding_dim", def.EmbeddingDim)
	viper.SetDefault("llm.provider", def.LLM.Provider)
	viper.SetDefault("llm.model", def.LLM.Model)
	viper.SetDefault("llm.base_url", "")
	viper.SetDefault("llm.api_key", "")
	viper.SetDefault("embedder.provider", def.Embedder.Provider)
	viper.SetDefault("embedder.model", def.Embedder.Model)
	viper.SetDefault("embedder.base_url", "")
	viper.SetDefault("embedder.api_key", "")
	viper.SetDefault("search.weight_vector", def.Search.WeightVector)
	viper.SetDefault("search.weight_fts", def.Search.WeightFTS)
	viper.SetDefault("expand.model", def.Expand.Model)
	viper.SetDefault("expand.concurrency", def.Expand.Concurrency)
	viper.SetDefault("expand.temperature", def.Expand.Temperature)
	viper.SetDefault("expand.max_tokens", def.Expand.MaxTokens)
	viper.SetDefault("expand.max_attempts", def.Expand.MaxAttempts)
	viper.SetDefault("server.api_key", "")
	viper.SetDefault("server.cors_origins", "")
	viper.SetDefault("server.upload_dir", "uploads")
	viper.SetDefault("server.max_upload_mb", 100)

	viper.SetEnvPrefix("DECKAGENT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".deckagent"))
		}
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			cobra.CheckErr(fmt.Errorf("read config: %w", err))
		}
	}
}

// loadConfig materializes the engine configuration from viper's merged
// view. The --db flag wins over everything.
func loadConfig() deckagent.Config {
	cfg := deckagent.DefaultConfig()
	cfg.DBPath = viper.GetString("db_path")
	cfg.EmbeddingDim = viper.GetInt("embedding_dim")
	cfg.LLM.Provider = viper.GetString("llm.provider")
	cfg.LLM.Model = viper.GetString("llm.model")
	cfg.LLM.BaseURL = viper.GetString("llm.base_url")
	cfg.LLM.APIKey = viper.GetString("llm.api_key")
	cfg.Embedder.Provider = viper.GetString("embedder.provider")
	cfg.Embedder.Model = viper.GetString("embedder.model")
	cfg.Embedder.BaseURL = viper.GetString("embedder.base_url")
	cfg.Embedder.APIKey = viper.GetString("embedder.api_key")
	cfg.Search.WeightVector = viper.GetFloat64("search.weight_vector")
	cfg.Search.WeightFTS = viper.GetFloat64("search.weight_fts")
	cfg.Expand.Model = viper.GetString("expand.model")
	cfg.Expand.Concurrency = viper.GetInt("expand.concurrency")
	cfg.Expand.Temperature = viper.GetFloat64("expand.temperature")
	cfg.Expand.MaxTokens = viper.GetInt("expand.max_tokens")
	cfg.Expand.MaxAttempts = viper.GetUint("expand.max_attempts")
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	return cfg
}

func newEngine() (deckagent.Engine, error) {
	return deckagent.New(loadConfig())
}

func parseDeckID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid deck id %q", arg)
	}
	return id, nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// clip shortens s to at most n runes for one-line terminal output.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
