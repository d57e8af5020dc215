package order

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/DevSheroz/glori82-admin/internal/common"
	"github.com/DevSheroz/glori82-admin/internal/db"
	"github.com/DevSheroz/glori82-admin/internal/payment"
)

// Order lifecycle statuses.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// ValidStatus reports whether s is a known order status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Order is the persisted order row with its flattened items. CustomerName is
// joined from the customers table for listings and sorting.
type Order struct {
	ID             int64            `json:"id"`
	OrderNumber    string           `json:"order_number"`
	CustomerID     *int64           `json:"customer_id"`
	CustomerName   string           `json:"customer_name"`
	Status         string           `json:"status"`
	PaymentStatus  payment.Status   `json:"payment_status"`
	ServiceFee     decimal.Decimal  `json:"service_fee"`
	PaidCard       decimal.Decimal  `json:"paid_card"`
	PaidCash       decimal.Decimal  `json:"paid_cash"`
	FinalAmountUZS *decimal.Decimal `json:"final_amount_uzs"`
	ShippingNumber *string          `json:"shipping_number"`
	Notes          *string          `json:"notes"`
	Items          []Item           `json:"items"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// Item is a flattened order line. Product fields are copied at submit time so
// the line survives catalog deletions.
type Item struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   *int64          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int32           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	WeightGrams *int32          `json:"weight_grams"`
}

// ListFilter narrows and orders order listings.
type ListFilter struct {
	Status        string
	PaymentStatus string
	CustomerID    *int64
	From          *time.Time
	To            *time.Time
	Sort          string
	Page          int
	PerPage       int
}

// Store persists orders and their items.
type Store struct {
	DB   db.DBTX
	Pool db.TxStarter
}

const orderColumns = `o.id, COALESCE(o.order_number, '') AS order_number, o.customer_id,
	COALESCE(c.full_name, '') AS customer_name, o.status, o.payment_status,
	o.service_fee, o.paid_card, o.paid_cash, o.final_amount_uzs,
	o.shipping_number, o.notes, o.created_at, o.updated_at`

const orderFrom = " FROM orders o LEFT JOIN customers c ON c.id = o.customer_id"

var orderSortColumns = map[string]string{
	"created_at":    "o.created_at",
	"status":        "o.status",
	"customer_name": "customer_name",
	"order_number":  "o.order_number",
}

// List returns a filtered page of orders (items included) plus the
// unpaginated total.
func (s *Store) List(ctx context.Context, f ListFilter) ([]Order, int, error) {
	where, args := f.whereClause()

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT count(*)"+orderFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	order := orderClause(f.Sort)
	limitPos := len(args) + 1
	args = append(args, f.PerPage, (f.Page-1)*f.PerPage)
	query := fmt.Sprintf("SELECT %s%s%s ORDER BY %s LIMIT $%d OFFSET $%d",
		orderColumns, orderFrom, where, order, limitPos, limitPos+1)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0, f.PerPage)
	ids := make([]int64, 0, f.PerPage)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := s.attachItems(ctx, orders, ids); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// Get fetches one order with items.
func (s *Store) Get(ctx context.Context, id int64) (Order, error) {
	row := s.DB.QueryRow(ctx,
		fmt.Sprintf("SELECT %s%s WHERE o.id = $1", orderColumns, orderFrom), id)
	o, err := scanOrder(row)
	if err != nil {
		if db.IsNotFound(err) {
			return Order{}, common.NewAppError("NOT_FOUND", "order not found", http.StatusNotFound, err)
		}
		return Order{}, err
	}
	orders := []Order{o}
	if err := s.attachItems(ctx, orders, []int64{o.ID}); err != nil {
		return Order{}, err
	}
	return orders[0], nil
}

// Create inserts the order and its items in one transaction, deriving the
// ORD-%04d order number from the generated id.
func (s *Store) Create(ctx context.Context, o Order) (Order, error) {
	var id int64
	err := db.InTx(ctx, s.Pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO orders (customer_id, status, payment_status, service_fee,
				paid_card, paid_cash, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			o.CustomerID, o.Status, string(o.PaymentStatus), db.Numeric(o.ServiceFee),
			db.Numeric(o.PaidCard), db.Numeric(o.PaidCash), o.Notes).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if _, err := tx.Exec(ctx,
			"UPDATE orders SET order_number = $2 WHERE id = $1",
			id, fmt.Sprintf("ORD-%04d", id)); err != nil {
			return fmt.Errorf("number order: %w", err)
		}
		return insertItems(ctx, tx, id, o.Items)
	})
	if err != nil {
		return Order{}, err
	}
	return s.Get(ctx, id)
}

// Update rewrites the order row and replaces its items in one transaction.
func (s *Store) Update(ctx context.Context, o Order) (Order, error) {
	err := db.InTx(ctx, s.Pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE orders SET customer_id = $2, status = $3, payment_status = $4,
				service_fee = $5, paid_card = $6, paid_cash = $7,
				final_amount_uzs = $8, notes = $9, updated_at = now()
			WHERE id = $1`,
			o.ID, o.CustomerID, o.Status, string(o.PaymentStatus),
			db.Numeric(o.ServiceFee), db.Numeric(o.PaidCard), db.Numeric(o.PaidCash),
			db.NumericPtr(o.FinalAmountUZS), o.Notes)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return common.NewAppError("NOT_FOUND", "order not found", http.StatusNotFound, nil)
		}
		if _, err := tx.Exec(ctx, "DELETE FROM order_items WHERE order_id = $1", o.ID); err != nil {
			return fmt.Errorf("clear order items: %w", err)
		}
		return insertItems(ctx, tx, o.ID, o.Items)
	})
	if err != nil {
		return Order{}, err
	}
	return s.Get(ctx, o.ID)
}

// Delete removes an order; items cascade.
func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM orders WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewAppError("NOT_FOUND", "order not found", http.StatusNotFound, nil)
	}
	return nil
}

func insertItems(ctx context.Context, tx pgx.Tx, orderID int64, items []Item) error {
	for _, it := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, quantity,
				unit_price, weight_grams)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			orderID, it.ProductID, it.ProductName, it.Quantity,
			db.Numeric(it.UnitPrice), it.WeightGrams); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (s *Store) attachItems(ctx context.Context, orders []Order, ids []int64) error {
	byID := map[int64]int{}
	for i := range orders {
		orders[i].Items = []Item{}
		byID[orders[i].ID] = i
	}
	if len(ids) == 0 {
		return nil
	}
	rows, err := s.DB.Query(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, unit_price, weight_grams
		FROM order_items WHERE order_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			it    Item
			price pgtype.Numeric
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName,
			&it.Quantity, &price, &it.WeightGrams); err != nil {
			return err
		}
		it.UnitPrice = db.Decimal(price)
		if i, ok := byID[it.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	return rows.Err()
}

func (f ListFilter) whereClause() (string, []any) {
	conds := []string{}
	args := []any{}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("o.status = $%d", len(args)))
	}
	if f.PaymentStatus != "" {
		args = append(args, f.PaymentStatus)
		conds = append(conds, fmt.Sprintf("o.payment_status = $%d", len(args)))
	}
	if f.CustomerID != nil {
		args = append(args, *f.CustomerID)
		conds = append(conds, fmt.Sprintf("o.customer_id = $%d", len(args)))
	}
	if f.From != nil {
		args = append(args, *f.From)
		conds = append(conds, fmt.Sprintf("o.created_at >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		conds = append(conds, fmt.Sprintf("o.created_at < $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderClause(sort string) string {
	trimmed := strings.TrimSpace(sort)
	if trimmed == "" {
		return "o.created_at DESC"
	}
	dir := "ASC"
	if strings.HasPrefix(trimmed, "-") {
		dir = "DESC"
		trimmed = trimmed[1:]
	}
	col, ok := orderSortColumns[trimmed]
	if !ok {
		return "o.created_at DESC"
	}
	return col + " " + dir
}

type scannable interface {
	Scan(dest ...any) error
}

func scanOrder(row scannable) (Order, error) {
	var (
		o                     Order
		status                string
		fee, card, cash, lock pgtype.Numeric
	)
	err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &o.CustomerName,
		&o.Status, &status, &fee, &card, &cash, &lock,
		&o.ShippingNumber, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	o.PaymentStatus = payment.Status(status)
	o.ServiceFee = db.Decimal(fee)
	o.PaidCard = db.Decimal(card)
	o.PaidCash = db.Decimal(cash)
	o.FinalAmountUZS = db.DecimalPtr(lock)
	return o, nil
}
