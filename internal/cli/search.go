package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rcliao/ragwire/internal/embedding"
	"github.com/rcliao/ragwire/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [text]",
		Short: "Search indexed chunks by similarity",
		Long:  "Embed the text and show the closest indexed chunks from the local store, without asking the language model.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().IntP("limit", "l", 0, "Max results (default: top_k from config)")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		limit = cfg.Pipeline.TopK
	}
	text := strings.Join(args, " ")

	embedder := newEmbedder()
	if embedder == nil {
		exitErr("search", embedding.ErrDisabled)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	vecs, err := embedder.Embed(cmd.Context(), []string{text})
	if err != nil {
		exitErr("embed query", err)
	}

	results, err := s.Search(cmd.Context(), store.SearchParams{
		Vector: vecs[0],
		Limit:  limit,
	})
	if err != nil {
		exitErr("search", err)
	}

	if len(results) == 0 {
		fmt.Println("[]")
		return
	}

	b, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(b))
}
