package search

import (
	"context"

	catalog "github.com/storecraft/backend/internal/catalog/domain"
)

// FacetCount is a per-attribute-value product count.
type FacetCount struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	ProductCount int64  `json:"product_count"`
}

// PriceRange holds the min/max price over a result set. Both are nil
// when the set is empty.
type PriceRange struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// Facets aggregates a filtered result set for the filter UI.
type Facets struct {
	PriceRange PriceRange   `json:"price_range"`
	Categories []FacetCount `json:"categories"`
	Brands     []FacetCount `json:"brands"`
}

// Facets computes price range and category/brand counts over the set of
// products matched by the filters. Read-only aggregation.
func (e *Engine) Facets(ctx context.Context, f Filters) (*Facets, error) {
	matched, err := e.filterQuery(ctx, f, true)
	if err != nil {
		return nil, err
	}
	idSub := matched.Select("products.id")

	var prices PriceRange
	err = e.db.WithContext(ctx).Model(&catalog.Product{}).
		Where("products.id IN (?)", idSub).
		Select("MIN(products.price) AS min, MAX(products.price) AS max").
		Scan(&prices).Error
	if err != nil {
		return nil, err
	}

	var categories []FacetCount
	err = e.db.WithContext(ctx).Model(&catalog.Category{}).
		Joins("JOIN products ON products.category_id = categories.id").
		Where("products.id IN (?)", idSub).
		Group("categories.id, categories.name").
		Select("categories.id AS id, categories.name AS name, COUNT(products.id) AS product_count").
		Order("product_count DESC").
		Scan(&categories).Error
	if err != nil {
		return nil, err
	}

	var brands []FacetCount
	err = e.db.WithContext(ctx).Model(&catalog.Brand{}).
		Joins("JOIN products ON products.brand_id = brands.id").
		Where("products.id IN (?)", idSub).
		Group("brands.id, brands.name").
		Select("brands.id AS id, brands.name AS name, COUNT(products.id) AS product_count").
		Order("product_count DESC").
		Scan(&brands).Error
	if err != nil {
		return nil, err
	}

	return &Facets{
		PriceRange: prices,
		Categories: categories,
		Brands:     brands,
	}, nil
}
