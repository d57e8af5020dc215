package product

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/DevSheroz/glori82-admin/internal/common"
	"github.com/DevSheroz/glori82-admin/internal/currency"
	"github.com/DevSheroz/glori82-admin/internal/pricing"
)

// ProductStore is the persistence surface the service needs.
type ProductStore interface {
	List(ctx context.Context, f ListFilter) ([]Product, int, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, p Product) (Product, error)
	Delete(ctx context.Context, id int64) error
	Brands(ctx context.Context, categoryID *int64) ([]string, error)
	LowStock(ctx context.Context) ([]Product, error)
}

// RateSource supplies the current FX snapshot for sale-price autofill.
type RateSource interface {
	Rates(ctx context.Context) (currency.Snapshot, error)
}

// Service applies inventory business rules on top of the store.
type Service struct {
	Store  ProductStore
	FX     RateSource
	Markup decimal.Decimal
}

// Input is the create/update payload. Nil pointer fields on update mean
// "keep the current value".
type Input struct {
	Name                string            `json:"name" validate:"required"`
	CategoryID          *int64            `json:"category_id"`
	Brand               *string           `json:"brand"`
	CostPrice           *decimal.Decimal  `json:"cost_price"`
	SellingPrice        *decimal.Decimal  `json:"selling_price"`
	SellingPriceUZS     *decimal.Decimal  `json:"selling_price_uzs"`
	PackagedWeightGrams *int32            `json:"packaged_weight_grams"`
	StockQuantity       int32             `json:"stock_quantity"`
	ReorderLevel        int32             `json:"reorder_level"`
	StockStatus         *string           `json:"stock_status"`
	IsActive            *bool             `json:"is_active"`
	Attributes          map[string]string `json:"attributes"`
	ImageURL            *string           `json:"image_url"`
}

// List returns a filtered product page.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Product, int, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PerPage <= 0 {
		f.PerPage = 20
	}
	return s.Store.List(ctx, f)
}

// Get fetches one product.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	return s.Store.Get(ctx, id)
}

// Create stores a new product, autofilling the USD/UZS selling prices from
// the cost when the caller did not set them.
func (s *Service) Create(ctx context.Context, in Input) (Product, error) {
	if err := common.ValidateStruct(in); err != nil {
		return Product{}, err
	}
	p := s.apply(Product{IsActive: true}, in)
	return s.Store.Create(ctx, s.autofill(ctx, p, in, true))
}

// Update modifies a product. Selling prices are recomputed only when the cost
// itself changed; a manually edited sale price survives otherwise.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Product, error) {
	if err := common.ValidateStruct(in); err != nil {
		return Product{}, err
	}
	existing, err := s.Store.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	costChanged := !decimalPtrEqual(existing.CostPrice, in.CostPrice)
	p := s.apply(existing, in)
	return s.Store.Update(ctx, s.autofill(ctx, p, in, costChanged))
}

// CreatePreOrder stores a minimal placeholder product for a free-text order
// item. Prices and weight stay empty until a moderator fills them in.
func (s *Service) CreatePreOrder(ctx context.Context, name string) (Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Product{}, common.NewAppError("VALIDATION_ERROR", "product name is required", http.StatusBadRequest, nil)
	}
	return s.Store.Create(ctx, Product{
		Name:        name,
		StockStatus: StockPreOrder,
		IsActive:    true,
		Attributes:  map[string]string{},
	})
}

// Delete removes a product.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.Store.Delete(ctx, id)
}

// Brands lists distinct brands, optionally per category.
func (s *Service) Brands(ctx context.Context, categoryID *int64) ([]string, error) {
	return s.Store.Brands(ctx, categoryID)
}

// LowStock lists products needing reorder.
func (s *Service) LowStock(ctx context.Context) ([]Product, error) {
	return s.Store.LowStock(ctx)
}

func (s *Service) apply(p Product, in Input) Product {
	p.Name = strings.TrimSpace(in.Name)
	p.CategoryID = in.CategoryID
	p.Brand = in.Brand
	p.CostPrice = in.CostPrice
	if in.SellingPrice != nil {
		p.SellingPrice = in.SellingPrice
	}
	if in.SellingPriceUZS != nil {
		p.SellingPriceUZS = in.SellingPriceUZS
	}
	p.PackagedWeightGrams = in.PackagedWeightGrams
	p.StockQuantity = in.StockQuantity
	p.ReorderLevel = in.ReorderLevel
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if in.Attributes != nil {
		p.Attributes = in.Attributes
	}
	if in.ImageURL != nil {
		p.ImageURL = in.ImageURL
	}
	p.StockStatus = stockStatus(in.StockStatus, p.StockQuantity, p.ReorderLevel)
	return p
}

// autofill fills selling prices from the cost when the cost changed and the
// caller supplied no explicit price.
func (s *Service) autofill(ctx context.Context, p Product, in Input, costChanged bool) Product {
	if !costChanged || p.CostPrice == nil || s.FX == nil {
		return p
	}
	snap, err := s.FX.Rates(ctx)
	if err != nil || !snap.Valid() {
		return p
	}
	rates := pricing.Rates{KRWToUSD: snap.KRWToUSD, USDToUZS: snap.USDToUZS}
	if in.SellingPrice == nil {
		usd := pricing.SuggestSalePriceUSD(*p.CostPrice, rates, s.Markup)
		if usd.Sign() > 0 {
			p.SellingPrice = &usd
			if in.SellingPriceUZS == nil {
				uzs := pricing.RoundUZS(usd.Mul(snap.USDToUZS))
				p.SellingPriceUZS = &uzs
			}
		}
	}
	return p
}

func stockStatus(explicit *string, qty, reorder int32) string {
	if explicit != nil {
		switch *explicit {
		case StockInStock, StockLow, StockOut, StockPreOrder:
			return *explicit
		}
	}
	switch {
	case qty <= 0:
		return StockOut
	case qty <= reorder:
		return StockLow
	default:
		return StockInStock
	}
}

func decimalPtrEqual(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
