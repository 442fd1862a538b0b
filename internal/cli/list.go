package cli

import (
	"encoding/json"
	"fmt"

	"github.com/rcliao/ragwire/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List uploaded documents",
		Run:   runList,
	}

	cmd.Flags().Bool("pending", false, "Only documents not yet indexed")
	cmd.Flags().IntP("limit", "l", 20, "Max results")
	cmd.Flags().Bool("names-only", false, "Only output id and filename")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	pending, _ := cmd.Flags().GetBool("pending")
	limit, _ := cmd.Flags().GetInt("limit")
	namesOnly, _ := cmd.Flags().GetBool("names-only")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	docs, err := s.List(cmd.Context(), store.ListParams{
		PendingOnly: pending,
		Limit:       limit,
	})
	if err != nil {
		exitErr("list", err)
	}

	if namesOnly {
		for _, d := range docs {
			fmt.Printf("%s\t%s\n", d.ID, d.Filename)
		}
		return
	}

	for i := range docs {
		if r := []rune(docs[i].Content); len(r) > 200 {
			docs[i].Content = string(r[:200]) + "..."
		}
	}
	b, _ := json.MarshalIndent(docs, "", "  ")
	fmt.Println(string(b))
}
