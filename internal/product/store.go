package product

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/DevSheroz/glori82-admin/internal/common"
	"github.com/DevSheroz/glori82-admin/internal/db"
)

// Stock statuses carried on the product row.
const (
	StockInStock  = "in_stock"
	StockLow      = "low_stock"
	StockOut      = "out_of_stock"
	StockPreOrder = "pre_order"
)

// Product is the persisted inventory model. Cost is in KRW, selling price in
// USD with a cached UZS conversion.
type Product struct {
	ID                  int64             `json:"id"`
	Name                string            `json:"name"`
	CategoryID          *int64            `json:"category_id"`
	Brand               *string           `json:"brand"`
	CostPrice           *decimal.Decimal  `json:"cost_price"`
	SellingPrice        *decimal.Decimal  `json:"selling_price"`
	SellingPriceUZS     *decimal.Decimal  `json:"selling_price_uzs"`
	PackagedWeightGrams *int32            `json:"packaged_weight_grams"`
	StockQuantity       int32             `json:"stock_quantity"`
	ReorderLevel        int32             `json:"reorder_level"`
	StockStatus         string            `json:"stock_status"`
	IsActive            bool              `json:"is_active"`
	Attributes          map[string]string `json:"attributes"`
	ImageURL            *string           `json:"image_url"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// ListFilter narrows and orders product listings.
type ListFilter struct {
	CategoryID *int64
	Brand      string
	IsActive   *bool
	Search     string
	Sort       string
	Page       int
	PerPage    int
}

// Store persists products.
type Store struct {
	DB db.DBTX
}

const productColumns = `id, name, category_id, brand, cost_price, selling_price,
	selling_price_uzs, packaged_weight_grams, stock_quantity, reorder_level,
	stock_status, is_active, attributes, image_url, created_at, updated_at`

var productSortColumns = map[string]string{
	"name":           "name",
	"created_at":     "created_at",
	"stock_quantity": "stock_quantity",
	"cost_price":     "cost_price",
}

// List returns a filtered page of products plus the unpaginated total.
func (s *Store) List(ctx context.Context, f ListFilter) ([]Product, int, error) {
	where, args := f.whereClause()

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT count(*) FROM products"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	order := orderClause(f.Sort, productSortColumns, "created_at DESC")
	limitPos := len(args) + 1
	args = append(args, f.PerPage, (f.Page-1)*f.PerPage)
	query := fmt.Sprintf("SELECT %s FROM products%s ORDER BY %s LIMIT $%d OFFSET $%d",
		productColumns, where, order, limitPos, limitPos+1)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	items := make([]Product, 0, f.PerPage)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

// Get fetches one product by id.
func (s *Store) Get(ctx context.Context, id int64) (Product, error) {
	row := s.DB.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM products WHERE id = $1", productColumns), id)
	p, err := scanProduct(row)
	if err != nil {
		if db.IsNotFound(err) {
			return Product{}, common.NewAppError("NOT_FOUND", "product not found", http.StatusNotFound, err)
		}
		return Product{}, err
	}
	return p, nil
}

// Create inserts a product and returns the stored row.
func (s *Store) Create(ctx context.Context, p Product) (Product, error) {
	row := s.DB.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO products (name, category_id, brand, cost_price, selling_price,
			selling_price_uzs, packaged_weight_grams, stock_quantity, reorder_level,
			stock_status, is_active, attributes, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING %s`, productColumns),
		p.Name, p.CategoryID, p.Brand,
		db.NumericPtr(p.CostPrice), db.NumericPtr(p.SellingPrice), db.NumericPtr(p.SellingPriceUZS),
		p.PackagedWeightGrams, p.StockQuantity, p.ReorderLevel,
		p.StockStatus, p.IsActive, attributesOrEmpty(p.Attributes), p.ImageURL)
	return scanProduct(row)
}

// Update replaces the mutable fields of a product.
func (s *Store) Update(ctx context.Context, p Product) (Product, error) {
	row := s.DB.QueryRow(ctx, fmt.Sprintf(`
		UPDATE products SET name = $2, category_id = $3, brand = $4, cost_price = $5,
			selling_price = $6, selling_price_uzs = $7, packaged_weight_grams = $8,
			stock_quantity = $9, reorder_level = $10, stock_status = $11,
			is_active = $12, attributes = $13, image_url = $14, updated_at = now()
		WHERE id = $1
		RETURNING %s`, productColumns),
		p.ID, p.Name, p.CategoryID, p.Brand,
		db.NumericPtr(p.CostPrice), db.NumericPtr(p.SellingPrice), db.NumericPtr(p.SellingPriceUZS),
		p.PackagedWeightGrams, p.StockQuantity, p.ReorderLevel,
		p.StockStatus, p.IsActive, attributesOrEmpty(p.Attributes), p.ImageURL)
	updated, err := scanProduct(row)
	if err != nil {
		if db.IsNotFound(err) {
			return Product{}, common.NewAppError("NOT_FOUND", "product not found", http.StatusNotFound, err)
		}
		return Product{}, err
	}
	return updated, nil
}

// Delete removes a product. Order items referencing it keep their flattened
// name and prices; the foreign key nulls out.
func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewAppError("NOT_FOUND", "product not found", http.StatusNotFound, nil)
	}
	return nil
}

// Brands lists distinct brand names, optionally scoped to a category.
func (s *Store) Brands(ctx context.Context, categoryID *int64) ([]string, error) {
	query := "SELECT DISTINCT brand FROM products WHERE brand IS NOT NULL AND brand <> ''"
	args := []any{}
	if categoryID != nil {
		query += " AND category_id = $1"
		args = append(args, *categoryID)
	}
	query += " ORDER BY brand"
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	defer rows.Close()
	brands := []string{}
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, err
		}
		brands = append(brands, b)
	}
	return brands, rows.Err()
}

// LowStock returns active products at or below their reorder level.
func (s *Store) LowStock(ctx context.Context) ([]Product, error) {
	rows, err := s.DB.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM products
		WHERE is_active AND stock_status <> '%s' AND stock_quantity <= reorder_level
		ORDER BY stock_quantity ASC`, productColumns, StockPreOrder))
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	defer rows.Close()
	items := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (f ListFilter) whereClause() (string, []any) {
	conds := []string{}
	args := []any{}
	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		conds = append(conds, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if strings.TrimSpace(f.Brand) != "" {
		args = append(args, strings.TrimSpace(f.Brand))
		conds = append(conds, fmt.Sprintf("brand = $%d", len(args)))
	}
	if f.IsActive != nil {
		args = append(args, *f.IsActive)
		conds = append(conds, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if strings.TrimSpace(f.Search) != "" {
		args = append(args, "%"+strings.TrimSpace(f.Search)+"%")
		conds = append(conds, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type scannable interface {
	Scan(dest ...any) error
}

func scanProduct(row scannable) (Product, error) {
	var (
		p                  Product
		cost, selling, uzs pgtype.Numeric
	)
	err := row.Scan(&p.ID, &p.Name, &p.CategoryID, &p.Brand, &cost, &selling, &uzs,
		&p.PackagedWeightGrams, &p.StockQuantity, &p.ReorderLevel, &p.StockStatus,
		&p.IsActive, &p.Attributes, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	p.CostPrice = db.DecimalPtr(cost)
	p.SellingPrice = db.DecimalPtr(selling)
	p.SellingPriceUZS = db.DecimalPtr(uzs)
	if p.Attributes == nil {
		p.Attributes = map[string]string{}
	}
	return p, nil
}

func attributesOrEmpty(attrs map[string]string) map[string]string {
	if attrs == nil {
		return map[string]string{}
	}
	return attrs
}

// orderClause maps a user-supplied sort token ("-name" for descending) onto a
// whitelisted column, falling back to the given default.
func orderClause(sort string, allowed map[string]string, fallback string) string {
	trimmed := strings.TrimSpace(sort)
	if trimmed == "" {
		return fallback
	}
	dir := "ASC"
	if strings.HasPrefix(trimmed, "-") {
		dir = "DESC"
		trimmed = trimmed[1:]
	}
	col, ok := allowed[trimmed]
	if !ok {
		return fallback
	}
	return col + " " + dir
}
