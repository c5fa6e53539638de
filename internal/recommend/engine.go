package recommend

import (
	"context"
	"fmt"
	"sort"
	"time"

	catalog "github.com/storecraft/backend/internal/catalog/domain"
	order "github.com/storecraft/backend/internal/order/domain"
	"gorm.io/gorm"
)

// popularWindow is the trailing window for popularity counting.
const popularWindow = 30 * 24 * time.Hour

const avgRatingExpr = "(SELECT COALESCE(AVG(r.rating), 0) FROM reviews r WHERE r.product_id = products.id)"

// Engine produces product recommendations. Every listing runs a strict
// fallback chain (primary, then secondary, then tertiary source), with
// each stage deduplicating against everything already selected and
// truncation applied only at the very end.
type Engine struct {
	db      *gorm.DB
	catalog catalog.CatalogRepository
	orders  order.OrderRepository
}

func NewEngine(db *gorm.DB, catalogRepo catalog.CatalogRepository, orderRepo order.OrderRepository) *Engine {
	return &Engine{db: db, catalog: catalogRepo, orders: orderRepo}
}

// FrequentlyBoughtTogether returns the products most often appearing in
// the same orders as the given product, by descending co-purchase count
// (ties by ascending product ID). With no co-purchase history it falls
// back to RelatedByCategory.
func (e *Engine) FrequentlyBoughtTogether(ctx context.Context, productID uint, limit int) ([]catalog.Product, error) {
	orderIDs, err := e.orders.OrderIDsContainingProduct(productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders for product %d: %w", productID, err)
	}

	coIDs, err := e.orders.CoPurchasedProductIDs(orderIDs, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load co-purchased products: %w", err)
	}

	if len(coIDs) == 0 {
		return e.RelatedByCategory(ctx, productID, limit)
	}

	counts := make(map[uint]int)
	for _, id := range coIDs {
		counts[id]++
	}

	ranked := make([]uint, 0, len(counts))
	for id := range counts {
		ranked = append(ranked, id)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	products, err := e.catalog.FindActiveProductsByIDs(ranked)
	if err != nil {
		return nil, err
	}

	// FindActiveProductsByIDs does not preserve input order.
	byID := make(map[uint]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	ordered := make([]catalog.Product, 0, len(ranked))
	for _, id := range ranked {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

// RelatedByCategory returns products similar to the given one: same
// category first, widened to the parent category and then the same
// brand while the pool is short of limit. The union is ordered by mean
// rating descending, then creation time descending.
func (e *Engine) RelatedByCategory(ctx context.Context, productID uint, limit int) ([]catalog.Product, error) {
	product, err := e.catalog.FindProductByID(productID)
	if err != nil {
		return nil, err
	}

	pool := make(map[uint]bool)

	sameCategory, err := e.activeIDsWhere(ctx, "products.category_id = ?", product.CategoryID, product.ID)
	if err != nil {
		return nil, err
	}
	for _, id := range sameCategory {
		pool[id] = true
	}

	if len(pool) < limit && product.Category != nil && product.Category.ParentID != nil {
		parent, err := e.activeIDsWhere(ctx, "products.category_id = ?", *product.Category.ParentID, product.ID)
		if err != nil {
			return nil, err
		}
		for _, id := range parent {
			pool[id] = true
		}
	}

	if len(pool) < limit {
		sameBrand, err := e.activeIDsWhere(ctx, "products.brand_id = ?", product.BrandID, product.ID)
		if err != nil {
			return nil, err
		}
		for _, id := range sameBrand {
			pool[id] = true
		}
	}

	if len(pool) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(pool))
	for id := range pool {
		ids = append(ids, id)
	}

	var related []catalog.Product
	err = e.db.WithContext(ctx).Model(&catalog.Product{}).
		Select("products.*, "+avgRatingExpr+" AS avg_rating").
		Where("products.id IN ?", ids).
		Order("avg_rating DESC").
		Order("products.created_at DESC").
		Limit(limit).
		Find(&related).Error
	if err != nil {
		return nil, err
	}
	return related, nil
}

// Popular returns active products ranked by order count in the trailing
// 30 days, padded with the highest-rated remaining products when the
// window alone cannot fill the limit.
func (e *Engine) Popular(ctx context.Context, limit int) ([]catalog.Product, error) {
	cutoff := time.Now().Add(-popularWindow)

	recentOrders := "(SELECT COUNT(*) FROM order_items oi JOIN orders o ON o.id = oi.order_id WHERE oi.product_id = products.id AND o.created_at >= ?)"

	var popular []catalog.Product
	err := e.db.WithContext(ctx).Model(&catalog.Product{}).
		Select("products.*, "+recentOrders+" AS recent_orders", cutoff).
		Where("products.is_active = ?", true).
		Where("EXISTS (SELECT 1 FROM order_items oi JOIN orders o ON o.id = oi.order_id WHERE oi.product_id = products.id AND o.created_at >= ?)", cutoff).
		Order("recent_orders DESC").
		Limit(limit).
		Find(&popular).Error
	if err != nil {
		return nil, err
	}

	if len(popular) < limit {
		c := newCollector(limit)
		c.add(popular...)

		q := e.db.WithContext(ctx).Model(&catalog.Product{}).
			Select("products.*, " + avgRatingExpr + " AS avg_rating").
			Where("products.is_active = ?", true).
			Order("avg_rating DESC").
			Limit(limit)
		if ids := c.seenIDs(); len(ids) > 0 {
			q = q.Where("products.id NOT IN ?", ids)
		}

		var topRated []catalog.Product
		if err := q.Find(&topRated).Error; err != nil {
			return nil, err
		}
		c.add(topRated...)
		return c.result(), nil
	}

	return dedupe(popular), nil
}

// Personalized blends purchase-history affinity, view history and
// global popularity for a user. Anonymous callers get Popular.
func (e *Engine) Personalized(ctx context.Context, userID uint, viewed []uint, limit int) ([]catalog.Product, error) {
	if userID == 0 {
		return e.Popular(ctx, limit)
	}

	purchased, err := e.orders.PurchasedProductIDs(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load purchase history: %w", err)
	}

	c := newCollector(limit)
	c.exclude(purchased...)

	// Highly rated products from categories the user has bought from.
	if len(purchased) > 0 {
		var categoryIDs []uint
		err := e.db.WithContext(ctx).Model(&catalog.Product{}).
			Where("products.id IN ?", purchased).
			Distinct().
			Pluck("products.category_id", &categoryIDs).Error
		if err != nil {
			return nil, err
		}

		if len(categoryIDs) > 0 {
			var affinity []catalog.Product
			err := e.db.WithContext(ctx).Model(&catalog.Product{}).
				Select("products.*, "+avgRatingExpr+" AS avg_rating").
				Where("products.category_id IN ?", categoryIDs).
				Where("products.is_active = ?", true).
				Where("products.id NOT IN ?", purchased).
				Order("avg_rating DESC").
				Limit(limit).
				Find(&affinity).Error
			if err != nil {
				return nil, err
			}
			c.add(affinity...)
		}
	}

	// Viewed but not purchased, most recent first.
	if !c.full() && len(viewed) > 0 {
		viewedProducts, err := e.catalog.FindActiveProductsByIDs(viewed)
		if err != nil {
			return nil, err
		}
		byID := make(map[uint]catalog.Product, len(viewedProducts))
		for _, p := range viewedProducts {
			byID[p.ID] = p
		}
		for _, id := range viewed {
			if p, ok := byID[id]; ok {
				c.add(p)
			}
		}
	}

	// Global popularity fallback.
	if !c.full() {
		popular, err := e.Popular(ctx, limit)
		if err != nil {
			return nil, err
		}
		c.add(popular...)
	}

	return c.result(), nil
}

func (e *Engine) activeIDsWhere(ctx context.Context, cond string, arg interface{}, excludeID uint) ([]uint, error) {
	var ids []uint
	err := e.db.WithContext(ctx).Model(&catalog.Product{}).
		Where(cond, arg).
		Where("products.is_active = ?", true).
		Where("products.id <> ?", excludeID).
		Pluck("products.id", &ids).Error
	return ids, err
}

func dedupe(products []catalog.Product) []catalog.Product {
	seen := make(map[uint]bool, len(products))
	out := products[:0]
	for _, p := range products {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out
}
