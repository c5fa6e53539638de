package query

import (
	"context"

	catalog "github.com/storecraft/backend/internal/catalog/domain"
	"github.com/storecraft/backend/internal/recommend"
)

// GetPopularQuery asks for globally popular products
type GetPopularQuery struct {
	Limit int
}

// GetPopularHandler handles popular-products queries
type GetPopularHandler struct {
	engine *recommend.Engine
}

func NewGetPopularHandler(engine *recommend.Engine) *GetPopularHandler {
	return &GetPopularHandler{engine: engine}
}

func (h *GetPopularHandler) Handle(ctx context.Context, q GetPopularQuery) ([]catalog.Product, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultPopularLimit
	}
	return h.engine.Popular(ctx, q.Limit)
}

// GetPersonalizedQuery asks for user-specific recommendations. UserID
// zero means anonymous; ViewedProductIDs is most-recent-first.
type GetPersonalizedQuery struct {
	UserID           uint
	ViewedProductIDs []uint
	Limit            int
}

// GetPersonalizedHandler handles personalized recommendation queries
type GetPersonalizedHandler struct {
	engine *recommend.Engine
}

func NewGetPersonalizedHandler(engine *recommend.Engine) *GetPersonalizedHandler {
	return &GetPersonalizedHandler{engine: engine}
}

func (h *GetPersonalizedHandler) Handle(ctx context.Context, q GetPersonalizedQuery) ([]catalog.Product, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultPersonalizedLimit
	}
	return h.engine.Personalized(ctx, q.UserID, q.ViewedProductIDs, q.Limit)
}
