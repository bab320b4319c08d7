// Package policy implements the company policy retrieval index.
//
// Policy documents are chunked, embedded, and stored in PostgreSQL with
// pgvector. Search embeds the question and ranks chunks by cosine
// similarity. The index is read-mostly: ingestion happens at startup or
// via the ingest command, searches happen per tool call.
package policy

import "time"

// Document is one chunk of a policy document ready for indexing.
type Document struct {
	ID         string
	Content    string
	Title      string
	Source     string
	ChunkIndex int
	CreatedAt  time.Time
}

// Snippet is a single search result, best-first ordering is by Score.
type Snippet struct {
	Content string
	Title   string
	Source  string
	Score   float32 // cosine similarity, higher is better
}
