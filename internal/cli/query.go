package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "query [text]",
		Short: "Ask the backend a question",
		Args:  cobra.MinimumNArgs(1),
		Run:   runQuery,
	}

	cmd.Flags().BoolP("use-index", "i", false, "Ground the answer in indexed documents")

	RootCmd.AddCommand(cmd)
}

func runQuery(cmd *cobra.Command, args []string) {
	useIndex, _ := cmd.Flags().GetBool("use-index")
	text := strings.Join(args, " ")
	if strings.TrimSpace(text) == "" {
		exitErr("query", fmt.Errorf("text is required"))
	}

	answer, err := newRemote().QueryPipeline(cmd.Context(), text, useIndex)
	if err != nil {
		exitErr("query", err)
	}
	fmt.Println(answer)
}
