package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/ragwire/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show document and index statistics",
		Long: "Report how many documents were uploaded, how many still wait for " +
			"/process_pdfs, and how many chunks the index holds.",
		Run: runStats,
	}

	cmd.Flags().Bool("json", false, "Output JSON")

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	asJSON, _ := cmd.Flags().GetBool("json")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	stats, err := s.Stats(cmd.Context(), cfg.DB)
	if err != nil {
		exitErr("stats", err)
	}

	if asJSON {
		b, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(b))
		return
	}
	fmt.Print(formatStats(stats))
}

func formatStats(st *store.Stats) string {
	indexed := st.TotalDocuments - st.PendingDocuments
	state := "empty"
	switch {
	case st.TotalChunks > 0 && st.PendingDocuments > 0:
		state = "stale, run process"
	case st.TotalChunks > 0:
		state = "ready"
	case st.PendingDocuments > 0:
		state = "not built, run process"
	}
	return fmt.Sprintf("database:  %s (%d bytes)\n"+
		"documents: %d uploaded, %d indexed, %d pending\n"+
		"index:     %d chunks, %s\n",
		st.DBPath, st.DBSizeBytes,
		st.TotalDocuments, indexed, st.PendingDocuments,
		st.TotalChunks, state)
}
