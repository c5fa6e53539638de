package query

import (
	"context"
	"fmt"

	catalog "github.com/storecraft/backend/internal/catalog/domain"
	"github.com/storecraft/backend/internal/search"
)

// SearchProductsQuery represents a product search request
type SearchProductsQuery struct {
	Filters search.Filters
}

// SearchProductsHandler handles product search queries
type SearchProductsHandler struct {
	engine *search.Engine
}

// NewSearchProductsHandler creates a new search products handler
func NewSearchProductsHandler(engine *search.Engine) *SearchProductsHandler {
	return &SearchProductsHandler{engine: engine}
}

// Handle executes the search query
func (h *SearchProductsHandler) Handle(ctx context.Context, q SearchProductsQuery) ([]catalog.Product, error) {
	if q.Filters.Limit < 0 || q.Filters.Offset < 0 {
		return nil, fmt.Errorf("limit and offset must not be negative")
	}

	products, err := h.engine.Search(ctx, q.Filters)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	return products, nil
}
