package query

import (
	"context"
	"fmt"

	catalog "github.com/storecraft/backend/internal/catalog/domain"
	"github.com/storecraft/backend/internal/recommend"
)

// Default listing sizes
const (
	DefaultBoughtTogetherLimit = 4
	DefaultRelatedLimit        = 6
	DefaultPopularLimit        = 10
	DefaultPersonalizedLimit   = 10
)

// GetBoughtTogetherQuery asks for frequently-bought-together products
type GetBoughtTogetherQuery struct {
	ProductID uint
	Limit     int
}

// GetBoughtTogetherHandler handles frequently-bought-together queries
type GetBoughtTogetherHandler struct {
	engine *recommend.Engine
}

func NewGetBoughtTogetherHandler(engine *recommend.Engine) *GetBoughtTogetherHandler {
	return &GetBoughtTogetherHandler{engine: engine}
}

func (h *GetBoughtTogetherHandler) Handle(ctx context.Context, q GetBoughtTogetherQuery) ([]catalog.Product, error) {
	if q.ProductID == 0 {
		return nil, fmt.Errorf("product_id is required")
	}
	if q.Limit <= 0 {
		q.Limit = DefaultBoughtTogetherLimit
	}
	return h.engine.FrequentlyBoughtTogether(ctx, q.ProductID, q.Limit)
}

// GetRelatedQuery asks for category/brand-similar products
type GetRelatedQuery struct {
	ProductID uint
	Limit     int
}

// GetRelatedHandler handles related-products queries
type GetRelatedHandler struct {
	engine *recommend.Engine
}

func NewGetRelatedHandler(engine *recommend.Engine) *GetRelatedHandler {
	return &GetRelatedHandler{engine: engine}
}

func (h *GetRelatedHandler) Handle(ctx context.Context, q GetRelatedQuery) ([]catalog.Product, error) {
	if q.ProductID == 0 {
		return nil, fmt.Errorf("product_id is required")
	}
	if q.Limit <= 0 {
		q.Limit = DefaultRelatedLimit
	}
	return h.engine.RelatedByCategory(ctx, q.ProductID, q.Limit)
}
