package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rcliao/ragwire/internal/chunker"
	"github.com/rcliao/ragwire/internal/rag"
	"github.com/rcliao/ragwire/internal/server"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pipeline backend",
		Long:  "Serve /upload_pdfs, /process_pdfs and /query over HTTP until interrupted.",
		Run:   runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (default: $RAGWIRE_ADDR or :8000)")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Addr = addr
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	embedder := newEmbedder()
	completer := newCompleter()
	if embedder == nil {
		logger.Warn("no embedding provider configured, processing will fail")
	}
	if completer == nil {
		logger.Warn("no language model configured, queries will fail")
	}

	svc := rag.NewService(s, embedder, completer, rag.Options{
		Chunk:       chunker.Options{Size: cfg.Pipeline.ChunkSize, Overlap: cfg.Pipeline.ChunkOverlap},
		TopK:        cfg.Pipeline.TopK,
		MaxTokens:   cfg.Pipeline.MaxTokens,
		Concurrency: cfg.Pipeline.Concurrency,
	})
	srv := server.New(svc, logger, server.Options{AllowedOrigins: cfg.AllowedOrigins})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx, cfg.Addr); err != nil {
		exitErr("serve", err)
	}
}
