package orders

import (
	"context"
	"database/sql"
	"fmt"
)

// Seed populates the orders database with sample data.
// It is idempotent: a store that already has customers is left untouched.
func Seed(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers").Scan(&count); err != nil {
		return fmt.Errorf("checking seed state: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	customers := []struct {
		name, email, phone string
	}{
		{"Alice Johnson", "alice@example.com", "555-0101"},
		{"Bob Smith", "bob@example.com", "555-0102"},
		{"Carol White", "carol@example.com", "555-0103"},
		{"David Brown", "david@example.com", "555-0104"},
		{"Eva Martinez", "eva@example.com", "555-0105"},
	}
	for _, c := range customers {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO customers (name, email, phone) VALUES (?, ?, ?)",
			c.name, c.email, c.phone); err != nil {
			return fmt.Errorf("seeding customers: %w", err)
		}
	}

	products := []struct {
		name, description string
		price             float64
		stock             int
		category          string
	}{
		{"Wireless Headphones", "Premium noise-canceling headphones", 149.99, 50, "Electronics"},
		{"USB-C Hub", "7-in-1 USB-C adapter", 49.99, 120, "Electronics"},
		{"Mechanical Keyboard", "RGB mechanical keyboard with Cherry MX switches", 129.99, 35, "Electronics"},
		{"Laptop Stand", "Adjustable aluminum laptop stand", 39.99, 80, "Accessories"},
		{"Webcam HD", "1080p webcam with microphone", 79.99, 45, "Electronics"},
		{"Mouse Pad XL", "Extended gaming mouse pad", 24.99, 200, "Accessories"},
		{"Monitor Light", "LED monitor light bar", 59.99, 60, "Accessories"},
		{"Cable Organizer", "Desktop cable management kit", 19.99, 150, "Accessories"},
	}
	for _, p := range products {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO products (name, description, price, stock_quantity, category) VALUES (?, ?, ?, ?, ?)",
			p.name, p.description, p.price, p.stock, p.category); err != nil {
			return fmt.Errorf("seeding products: %w", err)
		}
	}

	orderRows := []struct {
		customerID int
		status     string
		total      float64
		address    string
		tracking   any // nil for orders without a tracking number
	}{
		{1, "delivered", 199.98, "123 Main St, City A", "TRK001234"},
		{1, "shipped", 129.99, "123 Main St, City A", "TRK001235"},
		{2, "processing", 49.99, "456 Oak Ave, City B", nil},
		{3, "pending", 169.98, "789 Pine Rd, City C", nil},
		{4, "delivered", 79.99, "321 Elm St, City D", "TRK001236"},
		{5, "cancelled", 149.99, "654 Maple Dr, City E", nil},
	}
	for _, o := range orderRows {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO orders (customer_id, status, total_amount, shipping_address, tracking_number) VALUES (?, ?, ?, ?, ?)",
			o.customerID, o.status, o.total, o.address, o.tracking); err != nil {
			return fmt.Errorf("seeding orders: %w", err)
		}
	}

	items := []struct {
		orderID, productID, quantity int
		unitPrice                    float64
	}{
		{1, 1, 1, 149.99},
		{1, 2, 1, 49.99},
		{2, 3, 1, 129.99},
		{3, 2, 1, 49.99},
		{4, 1, 1, 149.99},
		{4, 8, 1, 19.99},
		{5, 5, 1, 79.99},
		{6, 1, 1, 149.99},
	}
	for _, it := range items {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO order_items (order_id, product_id, quantity, unit_price) VALUES (?, ?, ?, ?)",
			it.orderID, it.productID, it.quantity, it.unitPrice); err != nil {
			return fmt.Errorf("seeding order items: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed data: %w", err)
	}
	return nil
}
