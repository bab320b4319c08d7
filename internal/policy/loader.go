package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Chunking parameters. Chunks overlap so sentences spanning a boundary
// remain searchable from both sides.
const (
	chunkSize    = 500
	chunkOverlap = 50
)

// ChunkText splits text into overlapping chunks, preferring paragraph and
// sentence boundaries in the second half of each chunk.
func ChunkText(text string, size, overlap int) []string {
	if len(text) <= size {
		return []string{text}
	}

	var chunks []string
	start := 0

	for start < len(text) {
		end := start + size

		if end < len(text) {
			if pos := strings.LastIndex(text[start:end], "\n\n"); pos > size/2 {
				end = start + pos
			} else if pos := strings.LastIndex(text[start:end], ". "); pos > size/2 {
				end = start + pos + 1
			}
		} else {
			end = len(text)
		}

		if chunk := strings.TrimSpace(text[start:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= len(text) {
			break
		}
		start = end - overlap
	}

	return chunks
}

// LoadDir reads every *.md file in dir and returns its chunks as documents
// ready for indexing. A missing directory yields no documents and no error
// so first runs do not fail before ingestion.
func LoadDir(dir string) ([]Document, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("listing policy files: %w", err)
	}

	var docs []Document
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		title := titleFor(path, string(content))
		for i, chunk := range ChunkText(string(content), chunkSize, chunkOverlap) {
			docs = append(docs, Document{
				ID:         fmt.Sprintf("%s_%d", filepath.Base(path), i),
				Content:    chunk,
				Title:      title,
				Source:     path,
				ChunkIndex: i,
			})
		}
	}

	return docs, nil
}

// titleFor extracts the first markdown heading, falling back to a
// title-cased file stem.
func titleFor(path, content string) string {
	for _, line := range strings.Split(content, "\n") {
		if after, ok := strings.CutPrefix(line, "# "); ok {
			return strings.TrimSpace(after)
		}
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	words := strings.Split(strings.ReplaceAll(stem, "_", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
