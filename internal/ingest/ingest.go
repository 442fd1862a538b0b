// Package ingest extracts plain text from uploaded documents.
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedType is returned for file extensions ingest cannot read.
var ErrUnsupportedType = errors.New("unsupported file type")

// AllowedExt lists the extensions ingest can read.
var AllowedExt = map[string]bool{
	".pdf": true,
	".txt": true,
	".md":  true,
}

// Supported reports whether name has a readable extension.
func Supported(name string) bool {
	return AllowedExt[strings.ToLower(filepath.Ext(name))]
}

// ExtractText returns the text of the document called name whose bytes are
// available through r.
func ExtractText(name string, r io.ReaderAt, size int64) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return extractPDF(r, size)
	case ".txt", ".md":
		b, err := io.ReadAll(io.NewSectionReader(r, 0, size))
		if err != nil {
			return "", fmt.Errorf("read %s: %w", name, err)
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, name)
	}
}

// ExtractBytes is ExtractText over an in-memory document.
func ExtractBytes(name string, data []byte) (string, error) {
	return ExtractText(name, bytes.NewReader(data), int64(len(data)))
}

func extractPDF(r io.ReaderAt, size int64) (text string, err error) {
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("malformed pdf: %v", p)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	return buf.String(), nil
}

// CollectFiles expands paths into the readable files they name, walking
// directories recursively. Plain files are returned even when their
// extension is unsupported so the caller can report them.
func CollectFiles(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && Supported(path) {
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
