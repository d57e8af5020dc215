package customer

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/DevSheroz/glori82-admin/internal/common"
	"github.com/DevSheroz/glori82-admin/internal/db"
)

// Customer is a shop buyer referenced by orders.
type Customer struct {
	ID          int64     `json:"id"`
	FullName    string    `json:"full_name"`
	PhoneNumber *string   `json:"phone_number"`
	Address     *string   `json:"address"`
	Notes       *string   `json:"notes"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListFilter narrows customer listings.
type ListFilter struct {
	Search   string
	IsActive *bool
	Page     int
	PerPage  int
}

// Store persists customers.
type Store struct {
	DB db.DBTX
}

const customerColumns = "id, full_name, phone_number, address, notes, is_active, created_at, updated_at"

// List returns a filtered page of customers plus the unpaginated total.
func (s *Store) List(ctx context.Context, f ListFilter) ([]Customer, int, error) {
	conds := []string{}
	args := []any{}
	if strings.TrimSpace(f.Search) != "" {
		args = append(args, "%"+strings.TrimSpace(f.Search)+"%")
		conds = append(conds, fmt.Sprintf("(full_name ILIKE $%d OR phone_number ILIKE $%d)", len(args), len(args)))
	}
	if f.IsActive != nil {
		args = append(args, *f.IsActive)
		conds = append(conds, fmt.Sprintf("is_active = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT count(*) FROM customers"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	limitPos := len(args) + 1
	args = append(args, f.PerPage, (f.Page-1)*f.PerPage)
	rows, err := s.DB.Query(ctx, fmt.Sprintf(
		"SELECT %s FROM customers%s ORDER BY full_name LIMIT $%d OFFSET $%d",
		customerColumns, where, limitPos, limitPos+1), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	items := make([]Customer, 0, f.PerPage)
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.FullName, &c.PhoneNumber, &c.Address, &c.Notes,
			&c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

// Get fetches one customer by id.
func (s *Store) Get(ctx context.Context, id int64) (Customer, error) {
	var c Customer
	err := s.DB.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM customers WHERE id = $1", customerColumns), id).
		Scan(&c.ID, &c.FullName, &c.PhoneNumber, &c.Address, &c.Notes,
			&c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if db.IsNotFound(err) {
			return Customer{}, common.NewAppError("NOT_FOUND", "customer not found", http.StatusNotFound, err)
		}
		return Customer{}, err
	}
	return c, nil
}

// Create inserts a customer.
func (s *Store) Create(ctx context.Context, c Customer) (Customer, error) {
	err := s.DB.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO customers (full_name, phone_number, address, notes, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING %s`, customerColumns),
		c.FullName, c.PhoneNumber, c.Address, c.Notes, c.IsActive).
		Scan(&c.ID, &c.FullName, &c.PhoneNumber, &c.Address, &c.Notes,
			&c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Customer{}, fmt.Errorf("create customer: %w", err)
	}
	return c, nil
}

// Update replaces the mutable fields of a customer.
func (s *Store) Update(ctx context.Context, c Customer) (Customer, error) {
	err := s.DB.QueryRow(ctx, fmt.Sprintf(`
		UPDATE customers SET full_name = $2, phone_number = $3, address = $4,
			notes = $5, is_active = $6, updated_at = now()
		WHERE id = $1
		RETURNING %s`, customerColumns),
		c.ID, c.FullName, c.PhoneNumber, c.Address, c.Notes, c.IsActive).
		Scan(&c.ID, &c.FullName, &c.PhoneNumber, &c.Address, &c.Notes,
			&c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if db.IsNotFound(err) {
			return Customer{}, common.NewAppError("NOT_FOUND", "customer not found", http.StatusNotFound, err)
		}
		return Customer{}, err
	}
	return c, nil
}

// Delete removes a customer. Orders referencing them keep the flattened name.
func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM customers WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewAppError("NOT_FOUND", "customer not found", http.StatusNotFound, nil)
	}
	return nil
}

// GetOrCreateByName resolves an inline order customer: an exact name match
// wins, otherwise a minimal active record is created.
func (s *Store) GetOrCreateByName(ctx context.Context, fullName string) (Customer, error) {
	name := strings.TrimSpace(fullName)
	if name == "" {
		return Customer{}, common.NewAppError("VALIDATION_ERROR", "customer name is required", http.StatusBadRequest, nil)
	}
	var c Customer
	err := s.DB.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM customers WHERE lower(full_name) = lower($1) LIMIT 1", customerColumns), name).
		Scan(&c.ID, &c.FullName, &c.PhoneNumber, &c.Address, &c.Notes,
			&c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err == nil {
		return c, nil
	}
	if !db.IsNotFound(err) {
		return Customer{}, err
	}
	return s.Create(ctx, Customer{FullName: name, IsActive: true})
}
