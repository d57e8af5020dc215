package category

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/DevSheroz/glori82-admin/internal/common"
	"github.com/DevSheroz/glori82-admin/internal/db"
)

// Category groups products and carries its attribute definitions.
type Category struct {
	ID         int64       `json:"id"`
	Name       string      `json:"name"`
	CreatedAt  time.Time   `json:"created_at"`
	Attributes []Attribute `json:"attributes"`
}

// Attribute is a per-category product attribute definition.
type Attribute struct {
	ID         int64  `json:"id"`
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
	SortOrder  int32  `json:"sort_order"`
}

// Store persists categories and their attribute definitions.
type Store struct {
	DB db.DBTX
}

// List returns all categories with attributes ordered by sort order.
func (s *Store) List(ctx context.Context) ([]Category, error) {
	rows, err := s.DB.Query(ctx, "SELECT id, name, created_at FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []Category{}
	index := map[int64]int{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Attributes = []Attribute{}
		index[c.ID] = len(categories)
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	attrRows, err := s.DB.Query(ctx, `
		SELECT id, category_id, name, sort_order
		FROM category_attributes ORDER BY category_id, sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("list category attributes: %w", err)
	}
	defer attrRows.Close()
	for attrRows.Next() {
		var a Attribute
		if err := attrRows.Scan(&a.ID, &a.CategoryID, &a.Name, &a.SortOrder); err != nil {
			return nil, err
		}
		if i, ok := index[a.CategoryID]; ok {
			categories[i].Attributes = append(categories[i].Attributes, a)
		}
	}
	return categories, attrRows.Err()
}

// Get returns one category with its attributes.
func (s *Store) Get(ctx context.Context, id int64) (Category, error) {
	var c Category
	err := s.DB.QueryRow(ctx, "SELECT id, name, created_at FROM categories WHERE id = $1", id).
		Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		if db.IsNotFound(err) {
			return Category{}, common.NewAppError("NOT_FOUND", "category not found", http.StatusNotFound, err)
		}
		return Category{}, err
	}
	c.Attributes = []Attribute{}
	rows, err := s.DB.Query(ctx, `
		SELECT id, category_id, name, sort_order
		FROM category_attributes WHERE category_id = $1 ORDER BY sort_order, name`, id)
	if err != nil {
		return Category{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var a Attribute
		if err := rows.Scan(&a.ID, &a.CategoryID, &a.Name, &a.SortOrder); err != nil {
			return Category{}, err
		}
		c.Attributes = append(c.Attributes, a)
	}
	return c, rows.Err()
}

// Create inserts a category.
func (s *Store) Create(ctx context.Context, name string) (Category, error) {
	var c Category
	err := s.DB.QueryRow(ctx,
		"INSERT INTO categories (name) VALUES ($1) RETURNING id, name, created_at", name).
		Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Category{}, common.NewAppError("CONFLICT", "category name already exists", http.StatusConflict, err)
		}
		return Category{}, err
	}
	c.Attributes = []Attribute{}
	return c, nil
}

// Rename updates a category name.
func (s *Store) Rename(ctx context.Context, id int64, name string) (Category, error) {
	tag, err := s.DB.Exec(ctx, "UPDATE categories SET name = $2 WHERE id = $1", id, name)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Category{}, common.NewAppError("CONFLICT", "category name already exists", http.StatusConflict, err)
		}
		return Category{}, err
	}
	if tag.RowsAffected() == 0 {
		return Category{}, common.NewAppError("NOT_FOUND", "category not found", http.StatusNotFound, nil)
	}
	return s.Get(ctx, id)
}

// Delete removes a category; products keep a NULL category reference.
func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewAppError("NOT_FOUND", "category not found", http.StatusNotFound, nil)
	}
	return nil
}

// AddAttribute appends an attribute definition to a category.
func (s *Store) AddAttribute(ctx context.Context, categoryID int64, name string, sortOrder int32) (Attribute, error) {
	var a Attribute
	err := s.DB.QueryRow(ctx, `
		INSERT INTO category_attributes (category_id, name, sort_order)
		VALUES ($1, $2, $3)
		RETURNING id, category_id, name, sort_order`, categoryID, name, sortOrder).
		Scan(&a.ID, &a.CategoryID, &a.Name, &a.SortOrder)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Attribute{}, common.NewAppError("CONFLICT", "attribute already exists for this category", http.StatusConflict, err)
		}
		return Attribute{}, err
	}
	return a, nil
}

// UpdateAttribute renames or reorders an attribute definition.
func (s *Store) UpdateAttribute(ctx context.Context, id int64, name string, sortOrder int32) (Attribute, error) {
	var a Attribute
	err := s.DB.QueryRow(ctx, `
		UPDATE category_attributes SET name = $2, sort_order = $3
		WHERE id = $1
		RETURNING id, category_id, name, sort_order`, id, name, sortOrder).
		Scan(&a.ID, &a.CategoryID, &a.Name, &a.SortOrder)
	if err != nil {
		if db.IsNotFound(err) {
			return Attribute{}, common.NewAppError("NOT_FOUND", "attribute not found", http.StatusNotFound, err)
		}
		if db.IsUniqueViolation(err) {
			return Attribute{}, common.NewAppError("CONFLICT", "attribute already exists for this category", http.StatusConflict, err)
		}
		return Attribute{}, err
	}
	return a, nil
}

// DeleteAttribute removes an attribute definition.
func (s *Store) DeleteAttribute(ctx context.Context, id int64) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM category_attributes WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete attribute: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewAppError("NOT_FOUND", "attribute not found", http.StatusNotFound, nil)
	}
	return nil
}
