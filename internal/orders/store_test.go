package orders

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

// openSeeded opens a migrated, seeded database in a temp directory.
func openSeeded(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "orders.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	if err := Seed(context.Background(), db); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}
	return db
}

func TestStore_ExecuteQuery_RejectsWrites(t *testing.T) {
	t.Parallel()

	store := NewStore(openSeeded(t), nil)

	writes := []string{
		"INSERT INTO customers (name, email) VALUES ('x', 'x@example.com')",
		"UPDATE orders SET status = 'delivered'",
		"DELETE FROM products",
		"DROP TABLE customers",
		"  update orders set status = 'x'", // case and whitespace insensitive
	}

	for _, q := range writes {
		if _, err := store.ExecuteQuery(context.Background(), q); !errors.Is(err, ErrNotReadOnly) {
			t.Errorf("ExecuteQuery(%q) = %v, want ErrNotReadOnly", q, err)
		}
	}
}

func TestStore_ExecuteQuery_RuntimeError(t *testing.T) {
	t.Parallel()

	store := NewStore(openSeeded(t), nil)

	_, err := store.ExecuteQuery(context.Background(), "SELECT no_such_column FROM customers")
	if !errors.Is(err, ErrExecutionFailed) {
		t.Fatalf("ExecuteQuery() = %v, want ErrExecutionFailed", err)
	}
}

func TestStore_ExecuteQuery_Rows(t *testing.T) {
	t.Parallel()

	store := NewStore(openSeeded(t), nil)

	rows, err := store.ExecuteQuery(context.Background(),
		"SELECT status FROM orders WHERE customer_id = (SELECT id FROM customers WHERE name='Alice Johnson') ORDER BY id LIMIT 1")
	if err != nil {
		t.Fatalf("ExecuteQuery() error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if got := rows[0]["status"]; got != "delivered" {
		t.Errorf("status = %v, want %q", got, "delivered")
	}
}

func TestStore_ExecuteQuery_EmptyResult(t *testing.T) {
	t.Parallel()

	store := NewStore(openSeeded(t), nil)

	rows, err := store.ExecuteQuery(context.Background(),
		"SELECT * FROM customers WHERE name = 'Nobody'")
	if err != nil {
		t.Fatalf("ExecuteQuery() error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rows))
	}
}

func TestSeed_Idempotent(t *testing.T) {
	t.Parallel()

	db := openSeeded(t)
	if err := Seed(context.Background(), db); err != nil {
		t.Fatalf("second Seed() error: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM customers").Scan(&count); err != nil {
		t.Fatalf("counting customers: %v", err)
	}
	if count != 5 {
		t.Errorf("customer count after double seed = %d, want 5", count)
	}
}
