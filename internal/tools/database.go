package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/silacode/customer-support-agent/internal/sqlgen"
)

// OrdersToolName is the tool the model calls for order and product
// questions.
const OrdersToolName = "query_orders_database"

const ordersToolDescription = "Query the customer orders database to get information about orders, " +
	"customers, products, and stock levels. Describe the information you need in natural language. " +
	"Available tables: customers (id, name, email, phone), " +
	"products (id, name, description, price, stock_quantity, category), " +
	"orders (id, customer_id, status, total_amount, shipping_address, tracking_number, created_at), " +
	"order_items (id, order_id, product_id, quantity, unit_price)"

// QueryResolver answers natural-language questions against the orders
// database.
type QueryResolver interface {
	Resolve(ctx context.Context, question string, activity sqlgen.Activity) (sqlgen.Result, error)
}

// DatabaseTool returns the registration for the orders-database tool.
// It is activity-aware: the resolver's generate/execute/review cycle
// emits progress through the dispatch-time observer.
func DatabaseTool(resolver QueryResolver) Registration {
	return Registration{
		Name:          OrdersToolName,
		Description:   ordersToolDescription,
		ActivityAware: true,
		Handler: func(ctx context.Context, args map[string]any, activity ActivityFunc) (string, error) {
			question, ok := args["query"].(string)
			if !ok || question == "" {
				return "", errors.New("missing required argument: query")
			}
			res, err := resolver.Resolve(ctx, question, sqlgen.Activity(activity))
			if err != nil {
				return "", fmt.Errorf("resolving query: %w", err)
			}
			return res.Text, nil
		},
	}
}
