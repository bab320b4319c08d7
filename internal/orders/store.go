package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Sentinel errors for query execution.
var (
	// ErrNotReadOnly indicates the statement is not a SELECT query.
	// Generated SQL must never mutate the store.
	ErrNotReadOnly = errors.New("only SELECT queries are allowed")

	// ErrExecutionFailed indicates the engine rejected the query at runtime
	// (unknown column, bad join, syntax error past the prefix check).
	ErrExecutionFailed = errors.New("query execution failed")
)

// Store provides read-only query access to the orders database.
//
// Store is safe for concurrent use; database/sql serializes access to the
// underlying SQLite connection pool.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore creates a Store. logger may be nil.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// ExecuteQuery runs a read-only SQL query and returns rows as column→value
// maps in result-set order.
//
// Fails with ErrNotReadOnly for any statement that is not a SELECT, and
// with ErrExecutionFailed (wrapping the engine message) for runtime errors.
func (s *Store) ExecuteQuery(ctx context.Context, query string) ([]map[string]any, error) {
	normalized := strings.ToUpper(strings.TrimSpace(query))
	if !strings.HasPrefix(normalized, "SELECT") {
		return nil, fmt.Errorf("%w for safety reasons", ErrNotReadOnly)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExecutionFailed, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExecutionFailed, err)
	}

	var results []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}

		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrExecutionFailed, err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			// SQLite TEXT scans as []byte through database/sql;
			// convert so JSON rendering produces strings, not base64.
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExecutionFailed, err)
	}

	s.logger.Debug("executed query", "rows", len(results))
	return results, nil
}
