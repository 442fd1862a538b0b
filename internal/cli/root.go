// Package cli implements the ragwire CLI commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/ragwire/internal/config"
	"github.com/rcliao/ragwire/internal/ctxlog"
	"github.com/rcliao/ragwire/internal/embedding"
	"github.com/rcliao/ragwire/internal/llm"
	"github.com/rcliao/ragwire/internal/remote"
	"github.com/rcliao/ragwire/internal/store"
)

var (
	configPath string
	dbPath     string
	backendURL string
	logLevel   string
	logFormat  string

	cfg    config.Config
	logger *slog.Logger
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "ragwire",
	Short: "Wire a document pipeline together and chat with it",
	Long: "ragwire runs a retrieval-augmented pipeline backend and a chat session that " +
		"activates pipeline stages as their nodes are connected.",
	PersistentPreRun: setup,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $RAGWIRE_DB or ~/.ragwire/ragwire.db)")
	RootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "Backend URL (default: $RAGWIRE_BACKEND_URL or http://localhost:8000)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	RootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")
}

func setup(cmd *cobra.Command, args []string) {
	logger = ctxlog.New(os.Stderr, logLevel, logFormat)
	slog.SetDefault(logger)
	cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))

	c, err := config.Load(configPath)
	if err != nil {
		exitErr("load config", err)
	}
	if dbPath != "" {
		c.DB = dbPath
	}
	if backendURL != "" {
		c.BackendURL = backendURL
	}
	cfg = c
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(cfg.DB)
}

func newRemote() *remote.Client {
	return remote.New(cfg.BackendURL, cfg.RequestTimeout)
}

func newEmbedder() embedding.Embedder {
	return embedding.New(embedding.Options{
		Provider: cfg.OpenAI.EmbedProvider,
		BaseURL:  cfg.OpenAI.BaseURL,
		APIKey:   cfg.OpenAI.APIKey,
		Model:    cfg.OpenAI.EmbedModel,
		Dims:     cfg.OpenAI.EmbedDims,
	})
}

func newCompleter() llm.Completer {
	if cfg.OpenAI.APIKey == "" && cfg.OpenAI.BaseURL == "" {
		return nil
	}
	return llm.NewOpenAICompleter(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, cfg.OpenAI.ChatModel)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
