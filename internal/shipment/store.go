package shipment

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/DevSheroz/glori82-admin/internal/common"
	"github.com/DevSheroz/glori82-admin/internal/db"
)

// Shipment lifecycle statuses for a consolidated cargo batch.
const (
	StatusPending   = "pending"
	StatusInTransit = "in_transit"
	StatusCustoms   = "customs"
	StatusArrived   = "arrived"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

// ValidStatus reports whether s is a known shipment status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInTransit, StatusCustoms, StatusArrived, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Shipment is a consolidated batch of orders travelling together.
type Shipment struct {
	ID             int64     `json:"id"`
	ShipmentNumber string    `json:"shipment_number"`
	Status         string    `json:"status"`
	ShippingNumber *string   `json:"shipping_number"`
	Notes          *string   `json:"notes"`
	OrderCount     int       `json:"order_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MemberOrder is the slice of an order a shipment listing needs.
type MemberOrder struct {
	ID               int64  `json:"id"`
	OrderNumber      string `json:"order_number"`
	CustomerName     string `json:"customer_name"`
	Status           string `json:"status"`
	TotalWeightGrams int64  `json:"total_weight_grams"`
}

// HistoryEntry is one append-only status log line.
type HistoryEntry struct {
	ID         int64     `json:"id"`
	ShipmentID int64     `json:"shipment_id"`
	Status     string    `json:"status"`
	Note       *string   `json:"note"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store persists shipments, their order memberships, and the history log.
type Store struct {
	DB   db.DBTX
	Pool db.TxStarter
}

const shipmentColumns = `s.id, COALESCE(s.shipment_number, '') AS shipment_number,
	s.status, s.shipping_number, s.notes,
	(SELECT count(*) FROM shipment_orders so WHERE so.shipment_id = s.id) AS order_count,
	s.created_at, s.updated_at`

// List returns a page of shipments plus the unpaginated total.
func (s *Store) List(ctx context.Context, status string, page, perPage int) ([]Shipment, int, error) {
	where := ""
	args := []any{}
	if strings.TrimSpace(status) != "" {
		where = " WHERE s.status = $1"
		args = append(args, strings.TrimSpace(status))
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT count(*) FROM shipments s"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count shipments: %w", err)
	}

	limitPos := len(args) + 1
	args = append(args, perPage, (page-1)*perPage)
	rows, err := s.DB.Query(ctx, fmt.Sprintf(
		"SELECT %s FROM shipments s%s ORDER BY s.created_at DESC LIMIT $%d OFFSET $%d",
		shipmentColumns, where, limitPos, limitPos+1), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list shipments: %w", err)
	}
	defer rows.Close()

	items := make([]Shipment, 0, perPage)
	for rows.Next() {
		sh, err := scanShipment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, sh)
	}
	return items, total, rows.Err()
}

// Get fetches one shipment.
func (s *Store) Get(ctx context.Context, id int64) (Shipment, error) {
	row := s.DB.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM shipments s WHERE s.id = $1", shipmentColumns), id)
	sh, err := scanShipment(row)
	if err != nil {
		if db.IsNotFound(err) {
			return Shipment{}, common.NewAppError("NOT_FOUND", "shipment not found", http.StatusNotFound, err)
		}
		return Shipment{}, err
	}
	return sh, nil
}

// Create inserts a shipment, deriving the SH-%04d number from the generated
// id, and logs the initial status.
func (s *Store) Create(ctx context.Context, shippingNumber, notes *string) (Shipment, error) {
	var id int64
	err := db.InTx(ctx, s.Pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			"INSERT INTO shipments (shipping_number, notes) VALUES ($1, $2) RETURNING id",
			shippingNumber, notes).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert shipment: %w", err)
		}
		if _, err := tx.Exec(ctx,
			"UPDATE shipments SET shipment_number = $2 WHERE id = $1",
			id, fmt.Sprintf("SH-%04d", id)); err != nil {
			return fmt.Errorf("number shipment: %w", err)
		}
		_, err = tx.Exec(ctx,
			"INSERT INTO shipment_history (shipment_id, status) VALUES ($1, $2)",
			id, StatusPending)
		return err
	})
	if err != nil {
		return Shipment{}, err
	}
	return s.Get(ctx, id)
}

// UpdateStatus moves the shipment, appends to the history log, and cascades
// the mapped order status to member orders when one applies.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status string, note *string, cascadeOrderStatus string) (Shipment, error) {
	err := db.InTx(ctx, s.Pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			"UPDATE shipments SET status = $2, updated_at = now() WHERE id = $1", id, status)
		if err != nil {
			return fmt.Errorf("update shipment status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return common.NewAppError("NOT_FOUND", "shipment not found", http.StatusNotFound, nil)
		}
		if _, err := tx.Exec(ctx,
			"INSERT INTO shipment_history (shipment_id, status, note) VALUES ($1, $2, $3)",
			id, status, note); err != nil {
			return fmt.Errorf("append shipment history: %w", err)
		}
		if cascadeOrderStatus != "" {
			if _, err := tx.Exec(ctx, `
				UPDATE orders SET status = $2, updated_at = now()
				WHERE id IN (SELECT order_id FROM shipment_orders WHERE shipment_id = $1)
					AND status <> 'cancelled'`,
				id, cascadeOrderStatus); err != nil {
				return fmt.Errorf("cascade order status: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return Shipment{}, err
	}
	return s.Get(ctx, id)
}

// AttachOrder adds an order to the shipment and stamps the shipment number
// onto the order. An order can belong to at most one shipment.
func (s *Store) AttachOrder(ctx context.Context, shipmentID, orderID int64) error {
	return db.InTx(ctx, s.Pool, func(tx pgx.Tx) error {
		var number string
		err := tx.QueryRow(ctx,
			"SELECT COALESCE(shipment_number, '') FROM shipments WHERE id = $1", shipmentID).Scan(&number)
		if err != nil {
			if db.IsNotFound(err) {
				return common.NewAppError("NOT_FOUND", "shipment not found", http.StatusNotFound, err)
			}
			return err
		}
		if _, err := tx.Exec(ctx,
			"INSERT INTO shipment_orders (shipment_id, order_id) VALUES ($1, $2)",
			shipmentID, orderID); err != nil {
			if db.IsUniqueViolation(err) {
				return common.NewAppError("CONFLICT", "order already belongs to a shipment", http.StatusConflict, err)
			}
			return fmt.Errorf("attach order: %w", err)
		}
		tag, err := tx.Exec(ctx,
			"UPDATE orders SET shipping_number = $2, updated_at = now() WHERE id = $1",
			orderID, number)
		if err != nil {
			return fmt.Errorf("stamp shipping number: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return common.NewAppError("NOT_FOUND", "order not found", http.StatusNotFound, nil)
		}
		return nil
	})
}

// DetachOrder removes an order from the shipment and clears its shipping number.
func (s *Store) DetachOrder(ctx context.Context, shipmentID, orderID int64) error {
	return db.InTx(ctx, s.Pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			"DELETE FROM shipment_orders WHERE shipment_id = $1 AND order_id = $2",
			shipmentID, orderID)
		if err != nil {
			return fmt.Errorf("detach order: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return common.NewAppError("NOT_FOUND", "order is not in this shipment", http.StatusNotFound, nil)
		}
		_, err = tx.Exec(ctx,
			"UPDATE orders SET shipping_number = NULL, updated_at = now() WHERE id = $1", orderID)
		return err
	})
}

// Delete removes a shipment, clearing the shipping number of member orders.
func (s *Store) Delete(ctx context.Context, id int64) error {
	return db.InTx(ctx, s.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			UPDATE orders SET shipping_number = NULL, updated_at = now()
			WHERE id IN (SELECT order_id FROM shipment_orders WHERE shipment_id = $1)`, id); err != nil {
			return fmt.Errorf("clear shipping numbers: %w", err)
		}
		tag, err := tx.Exec(ctx, "DELETE FROM shipments WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("delete shipment: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return common.NewAppError("NOT_FOUND", "shipment not found", http.StatusNotFound, nil)
		}
		return nil
	})
}

// MemberOrders lists the orders in a shipment with their summed item weight.
func (s *Store) MemberOrders(ctx context.Context, shipmentID int64) ([]MemberOrder, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT o.id, COALESCE(o.order_number, ''), COALESCE(c.full_name, ''), o.status,
			COALESCE((SELECT SUM(oi.quantity * COALESCE(oi.weight_grams, 0))
				FROM order_items oi WHERE oi.order_id = o.id), 0)
		FROM shipment_orders so
		JOIN orders o ON o.id = so.order_id
		LEFT JOIN customers c ON c.id = o.customer_id
		WHERE so.shipment_id = $1
		ORDER BY o.id`, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("list member orders: %w", err)
	}
	defer rows.Close()
	orders := []MemberOrder{}
	for rows.Next() {
		var m MemberOrder
		if err := rows.Scan(&m.ID, &m.OrderNumber, &m.CustomerName, &m.Status, &m.TotalWeightGrams); err != nil {
			return nil, err
		}
		orders = append(orders, m)
	}
	return orders, rows.Err()
}

// History returns the append-only status log, newest first.
func (s *Store) History(ctx context.Context, shipmentID int64) ([]HistoryEntry, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, shipment_id, status, note, created_at
		FROM shipment_history WHERE shipment_id = $1 ORDER BY id DESC`, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("list shipment history: %w", err)
	}
	defer rows.Close()
	entries := []HistoryEntry{}
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.ShipmentID, &e.Status, &e.Note, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanShipment(row scannable) (Shipment, error) {
	var sh Shipment
	err := row.Scan(&sh.ID, &sh.ShipmentNumber, &sh.Status, &sh.ShippingNumber,
		&sh.Notes, &sh.OrderCount, &sh.CreatedAt, &sh.UpdatedAt)
	if err != nil {
		return Shipment{}, err
	}
	return sh, nil
}
