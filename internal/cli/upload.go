package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rcliao/ragwire/internal/ingest"
	"github.com/rcliao/ragwire/internal/pipeline"
)

func init() {
	cmd := &cobra.Command{
		Use:   "upload [file|dir]...",
		Short: "Upload documents to the ingest stage",
		Long:  "Upload PDF, text or markdown files. Directories are walked for supported files.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runUpload,
	}

	RootCmd.AddCommand(cmd)
}

func runUpload(cmd *cobra.Command, args []string) {
	files, err := readFiles(args)
	if err != nil {
		exitErr("upload", err)
	}

	msg, err := newRemote().UploadDocuments(cmd.Context(), files)
	if err != nil {
		exitErr("upload", err)
	}
	fmt.Println(msg)
}

// readFiles expands paths and loads every supported file.
func readFiles(paths []string) ([]pipeline.File, error) {
	names, err := ingest.CollectFiles(paths)
	if err != nil {
		return nil, err
	}
	var files []pipeline.File
	for _, name := range names {
		if !ingest.Supported(name) {
			return nil, fmt.Errorf("%s: %w", name, ingest.ErrUnsupportedType)
		}
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, err
		}
		files = append(files, pipeline.File{Name: filepath.Base(name), Data: data})
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no supported files in %v", paths)
	}
	return files, nil
}
