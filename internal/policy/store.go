package policy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

// searchTimeout bounds vector search queries so a slow index cannot block
// a conversation turn indefinitely.
const searchTimeout = 10 * time.Second

// DB is the subset of pgxpool.Pool the store needs.
// Defined by the consumer so tests can substitute a fake.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store manages policy chunks with vector search.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db       DB
	embedder ai.Embedder
	logger   *slog.Logger
}

// NewStore creates a Store. logger may be nil.
func NewStore(db DB, embedder ai.Embedder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, embedder: embedder, logger: logger}
}

// Add upserts one policy chunk, embedding its content.
func (s *Store) Add(ctx context.Context, doc Document) error {
	embedding, err := s.embed(ctx, doc.Content)
	if err != nil {
		return fmt.Errorf("embedding chunk %q: %w", doc.ID, err)
	}

	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO policy_chunks (id, content, title, source, chunk_index, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			title = EXCLUDED.title,
			source = EXCLUDED.source,
			chunk_index = EXCLUDED.chunk_index,
			embedding = EXCLUDED.embedding`,
		doc.ID, doc.Content, doc.Title, doc.Source, doc.ChunkIndex, embedding, createdAt)
	if err != nil {
		return fmt.Errorf("upserting chunk %q: %w", doc.ID, err)
	}

	s.logger.Debug("indexed policy chunk", "id", doc.ID, "content_length", len(doc.Content))
	return nil
}

// Search returns up to topK chunks ranked by cosine similarity to the
// question, best-first. An empty index yields an empty slice, not an error.
func (s *Store) Search(ctx context.Context, question string, topK int) ([]Snippet, error) {
	if topK < 1 {
		topK = 3
	}

	queryCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	embedding, err := s.embed(queryCtx, question)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("embedding question timed out: %w", err)
		}
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	rows, err := s.db.Query(queryCtx, `
		SELECT content, title, source, 1 - (embedding <=> $1) AS similarity
		FROM policy_chunks
		ORDER BY embedding <=> $1
		LIMIT $2`,
		embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("searching policy chunks: %w", err)
	}
	defer rows.Close()

	var snippets []Snippet
	for rows.Next() {
		var sn Snippet
		if err := rows.Scan(&sn.Content, &sn.Title, &sn.Source, &sn.Score); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		snippets = append(snippets, sn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading search results: %w", err)
	}

	s.logger.Debug("policy search", "question_length", len(question), "results", len(snippets))
	return snippets, nil
}

// Count returns the number of indexed chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM policy_chunks").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting policy chunks: %w", err)
	}
	return count, nil
}

// Clear removes all indexed chunks.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, "DELETE FROM policy_chunks"); err != nil {
		return fmt.Errorf("clearing policy chunks: %w", err)
	}
	return nil
}

func (s *Store) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{ai.DocumentFromText(text, nil)},
	})
	if err != nil {
		return pgvector.Vector{}, err
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return pgvector.Vector{}, errors.New("embedder returned no embedding")
	}
	return pgvector.NewVector(resp.Embeddings[0].Embedding), nil
}
