package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Build the index from uploaded documents",
		Run:   runProcess,
	}

	RootCmd.AddCommand(cmd)
}

func runProcess(cmd *cobra.Command, args []string) {
	msg, err := newRemote().ProcessIngestedDocuments(cmd.Context())
	if err != nil {
		exitErr("process", err)
	}
	fmt.Println(msg)
}
