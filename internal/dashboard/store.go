package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/DevSheroz/glori82-admin/internal/db"
)

// Metrics is the headline dashboard summary.
type Metrics struct {
	ProductCount     int64           `json:"product_count"`
	SalesCount       int64           `json:"sales_count"`
	CompletedRevenue decimal.Decimal `json:"completed_revenue_uzs"`
	LowStockCount    int64           `json:"low_stock_count"`
}

// SalesPoint is one day of completed sales.
type SalesPoint struct {
	Day        time.Time       `json:"day"`
	Orders     int64           `json:"orders"`
	RevenueUZS decimal.Decimal `json:"revenue_uzs"`
}

// TopProduct is one row of the best-sellers report.
type TopProduct struct {
	ProductName  string          `json:"product_name"`
	QuantitySold int64           `json:"quantity_sold"`
	RevenueUSD   decimal.Decimal `json:"revenue_usd"`
}

// Store runs the dashboard aggregate queries.
type Store struct {
	DB db.DBTX
}

// Metrics computes the headline numbers in one round trip per aggregate.
func (s *Store) Metrics(ctx context.Context) (Metrics, error) {
	var (
		m       Metrics
		revenue pgtype.Numeric
	)
	err := s.DB.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM products WHERE is_active),
			(SELECT count(*) FROM orders WHERE status = 'completed'),
			(SELECT COALESCE(SUM(final_amount_uzs), 0) FROM orders WHERE status = 'completed'),
			(SELECT count(*) FROM products
				WHERE is_active AND stock_status <> 'pre_order'
					AND stock_quantity <= reorder_level)`).
		Scan(&m.ProductCount, &m.SalesCount, &revenue, &m.LowStockCount)
	if err != nil {
		return Metrics{}, fmt.Errorf("dashboard metrics: %w", err)
	}
	m.CompletedRevenue = db.Decimal(revenue)
	return m, nil
}

// SalesOverTime buckets completed orders per day, inclusive of from and
// exclusive of to.
func (s *Store) SalesOverTime(ctx context.Context, from, to time.Time) ([]SalesPoint, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT date_trunc('day', created_at) AS day,
			count(*),
			COALESCE(SUM(final_amount_uzs), 0)
		FROM orders
		WHERE status = 'completed' AND created_at >= $1 AND created_at < $2
		GROUP BY day
		ORDER BY day`, from, to)
	if err != nil {
		return nil, fmt.Errorf("sales over time: %w", err)
	}
	defer rows.Close()
	points := []SalesPoint{}
	for rows.Next() {
		var (
			p       SalesPoint
			revenue pgtype.Numeric
		)
		if err := rows.Scan(&p.Day, &p.Orders, &revenue); err != nil {
			return nil, err
		}
		p.RevenueUZS = db.Decimal(revenue)
		points = append(points, p)
	}
	return points, rows.Err()
}

// TopProducts ranks order lines of completed orders by quantity sold.
func (s *Store) TopProducts(ctx context.Context, limit int) ([]TopProduct, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT oi.product_name,
			SUM(oi.quantity),
			COALESCE(SUM(oi.quantity * oi.unit_price), 0)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.status = 'completed'
		GROUP BY oi.product_name
		ORDER BY SUM(oi.quantity) DESC, oi.product_name
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	defer rows.Close()
	products := []TopProduct{}
	for rows.Next() {
		var (
			t       TopProduct
			revenue pgtype.Numeric
		)
		if err := rows.Scan(&t.ProductName, &t.QuantitySold, &revenue); err != nil {
			return nil, err
		}
		t.RevenueUSD = db.Decimal(revenue)
		products = append(products, t)
	}
	return products, rows.Err()
}
