package query

import (
	"context"
	"fmt"

	"github.com/storecraft/backend/internal/search"
)

// GetFacetsQuery represents a facet aggregation request
type GetFacetsQuery struct {
	Filters search.Filters
}

// GetFacetsHandler handles facet aggregation queries
type GetFacetsHandler struct {
	engine *search.Engine
}

// NewGetFacetsHandler creates a new get facets handler
func NewGetFacetsHandler(engine *search.Engine) *GetFacetsHandler {
	return &GetFacetsHandler{engine: engine}
}

// Handle executes the facet aggregation
func (h *GetFacetsHandler) Handle(ctx context.Context, q GetFacetsQuery) (*search.Facets, error) {
	facets, err := h.engine.Facets(ctx, q.Filters)
	if err != nil {
		return nil, fmt.Errorf("facet aggregation failed: %w", err)
	}
	return facets, nil
}
