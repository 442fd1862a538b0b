// Package chunker splits extracted document text into chunks for embedding.
package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultSize    = 1000
	DefaultOverlap = 0
)

// Options configures chunking behavior. Size is measured in bytes.
type Options struct {
	Size    int
	Overlap int
}

// DefaultOptions returns default chunking options.
func DefaultOptions() Options {
	return Options{Size: DefaultSize, Overlap: DefaultOverlap}
}

// ChunkResult is a chunk and its byte offset in the original text.
type ChunkResult struct {
	Text   string
	Offset int
}

// Chunk splits text into chunks of at most opts.Size bytes. Paragraphs are
// kept together when they fit; longer ones are cut on rune boundaries.
func Chunk(text string, opts Options) []ChunkResult {
	if opts.Size <= 0 {
		opts = DefaultOptions()
	}
	if opts.Overlap < 0 || opts.Overlap >= opts.Size {
		opts.Overlap = 0
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	return mergeBlocks(splitBlocks(text), opts)
}

// block is a paragraph and where it starts in the source text.
type block struct {
	text   string
	offset int
}

// splitBlocks splits text on blank lines.
func splitBlocks(text string) []block {
	var blocks []block
	pos := 0
	for _, para := range strings.SplitAfter(text, "\n\n") {
		trimmed := strings.TrimSpace(para)
		if trimmed != "" {
			lead := strings.Index(para, trimmed)
			blocks = append(blocks, block{text: trimmed, offset: pos + lead})
		}
		pos += len(para)
	}
	return blocks
}

// mergeBlocks packs consecutive paragraphs up to opts.Size and hard-splits
// any paragraph that is larger on its own.
func mergeBlocks(blocks []block, opts Options) []ChunkResult {
	var results []ChunkResult
	var accum block

	flush := func() {
		if accum.text != "" {
			results = append(results, ChunkResult{Text: accum.text, Offset: accum.offset})
		}
		accum = block{}
	}

	for _, b := range blocks {
		if len(b.text) > opts.Size {
			flush()
			results = append(results, hardSplit(b, opts)...)
			continue
		}
		if accum.text == "" {
			accum = b
			continue
		}
		combined := accum.text + "\n\n" + b.text
		if len(combined) <= opts.Size {
			accum.text = combined
			continue
		}
		flush()
		accum = b
	}
	flush()

	return results
}

// hardSplit cuts b into windows of opts.Size bytes, stepping back
// opts.Overlap bytes between windows. Cuts never land inside a rune.
func hardSplit(b block, opts Options) []ChunkResult {
	var results []ChunkResult
	text := b.text
	start := 0
	for start < len(text) {
		end := start + opts.Size
		if end >= len(text) {
			end = len(text)
		} else {
			for end > start && !utf8.RuneStart(text[end]) {
				end--
			}
			// A window smaller than one rune still takes the whole rune.
			if end == start {
				_, n := utf8.DecodeRuneInString(text[start:])
				end = start + n
			}
		}
		window := text[start:end]
		if t := strings.TrimSpace(window); t != "" {
			lead := len(window) - len(strings.TrimLeftFunc(window, unicode.IsSpace))
			results = append(results, ChunkResult{Text: t, Offset: b.offset + start + lead})
		}
		if end == len(text) {
			break
		}
		next := end - opts.Overlap
		for next > start && !utf8.RuneStart(text[next]) {
			next--
		}
		if next <= start {
			next = end
		}
		start = next
	}
	return results
}
