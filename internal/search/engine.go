package search

import (
	"context"
	"strings"
	"time"

	catalog "github.com/storecraft/backend/internal/catalog/domain"
	"gorm.io/gorm"
)

// Sort modes accepted by the search endpoints.
const (
	SortPriceLow   = "price_low"
	SortPriceHigh  = "price_high"
	SortNewest     = "newest"
	SortRating     = "rating"
	SortPopularity = "popularity"
	SortBestseller = "bestseller"
)

// bestsellerWindow is the trailing window for the bestseller sort.
const bestsellerWindow = 30 * 24 * time.Hour

// Filters carries the free-text query and facet filters of a search.
type Filters struct {
	Query       string
	SortBy      string
	PriceMin    *float64
	PriceMax    *float64
	CategoryIDs []uint
	BrandIDs    []uint
	Limit       int
	Offset      int
}

// CategoryExpander expands category IDs to their full subtrees.
type CategoryExpander interface {
	SubtreeIDs(ids []uint) ([]uint, error)
}

// Engine filters and ranks products. Two strategies are used: a
// case-insensitive substring match that works on any store, and a
// weighted full-text ranking that requires PostgreSQL. The ranked
// strategy serves non-empty queries when available and falls back to
// the substring strategy otherwise.
type Engine struct {
	db         *gorm.DB
	categories CategoryExpander
}

func NewEngine(db *gorm.DB, categories CategoryExpander) *Engine {
	return &Engine{db: db, categories: categories}
}

// Search returns the filtered, ordered, deduplicated product list.
func (e *Engine) Search(ctx context.Context, f Filters) ([]catalog.Product, error) {
	if e.rankedAvailable() && strings.TrimSpace(f.Query) != "" {
		return e.searchRanked(ctx, f)
	}
	return e.searchSubstring(ctx, f)
}

func (e *Engine) rankedAvailable() bool {
	return e.db.Dialector.Name() == "postgres"
}

// filterQuery applies the active flag, substring match, price bounds,
// category-subtree membership and brand membership. Category filters
// are expanded to the full descendant set before matching.
func (e *Engine) filterQuery(ctx context.Context, f Filters, withQuery bool) (*gorm.DB, error) {
	q := e.db.WithContext(ctx).Model(&catalog.Product{}).
		Joins("LEFT JOIN brands ON brands.id = products.brand_id").
		Joins("LEFT JOIN categories ON categories.id = products.category_id").
		Where("products.is_active = ?", true)

	if withQuery {
		if needle := strings.TrimSpace(f.Query); needle != "" {
			pattern := "%" + strings.ToLower(needle) + "%"
			q = q.Where(
				"LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ? OR LOWER(products.short_description) LIKE ? OR LOWER(brands.name) LIKE ? OR LOWER(categories.name) LIKE ?",
				pattern, pattern, pattern, pattern, pattern,
			)
		}
	}

	if f.PriceMin != nil {
		q = q.Where("products.price >= ?", *f.PriceMin)
	}
	if f.PriceMax != nil {
		q = q.Where("products.price <= ?", *f.PriceMax)
	}

	if len(f.CategoryIDs) > 0 {
		expanded, err := e.categories.SubtreeIDs(f.CategoryIDs)
		if err != nil {
			return nil, err
		}
		if len(expanded) > 0 {
			q = q.Where("products.category_id IN ?", expanded)
		}
	}

	if len(f.BrandIDs) > 0 {
		q = q.Where("products.brand_id IN ?", f.BrandIDs)
	}

	return q, nil
}

func (e *Engine) searchSubstring(ctx context.Context, f Filters) ([]catalog.Product, error) {
	q, err := e.filterQuery(ctx, f, true)
	if err != nil {
		return nil, err
	}

	selects := []string{"products.*"}
	var args []interface{}
	var orders []string

	if f.SortBy != "" {
		sel, selArgs, order := sortClause(f.SortBy)
		if sel != "" {
			selects = append(selects, sel)
			args = append(args, selArgs...)
		}
		orders = append(orders, order)
	} else {
		// Featured first, then best rated, then name.
		selects = append(selects, avgRatingExpr+" AS avg_rating")
		orders = append(orders, "products.featured DESC", "avg_rating DESC", "products.name ASC")
	}

	q = q.Select(strings.Join(selects, ", "), args...)
	for _, o := range orders {
		q = q.Order(o)
	}
	q = applyWindow(q, f)

	var products []catalog.Product
	if err := q.Find(&products).Error; err != nil {
		return nil, err
	}
	return dedupe(products), nil
}

const avgRatingExpr = "(SELECT COALESCE(AVG(r.rating), 0) FROM reviews r WHERE r.product_id = products.id)"

// searchVector weighs name highest, short description and brand/category
// names next, and the long description lowest.
const searchVector = "setweight(to_tsvector('english', coalesce(products.name, '')), 'A') || " +
	"setweight(to_tsvector('english', coalesce(products.short_description, '')), 'B') || " +
	"setweight(to_tsvector('english', coalesce(brands.name, '') || ' ' || coalesce(categories.name, '')), 'B') || " +
	"setweight(to_tsvector('english', coalesce(products.description, '')), 'C')"

func (e *Engine) searchRanked(ctx context.Context, f Filters) ([]catalog.Product, error) {
	q, err := e.filterQuery(ctx, f, false)
	if err != nil {
		return nil, err
	}

	selects := []string{
		"products.*",
		"ts_rank(" + searchVector + ", plainto_tsquery('english', ?)) AS search_rank",
	}
	args := []interface{}{f.Query}
	var orders []string

	q = q.Where(searchVector+" @@ plainto_tsquery('english', ?)", f.Query)

	if f.SortBy != "" {
		sel, selArgs, order := sortClause(f.SortBy)
		if sel != "" {
			selects = append(selects, sel)
			args = append(args, selArgs...)
		}
		orders = append(orders, order)
	} else {
		orders = append(orders, "search_rank DESC", "products.featured DESC")
	}

	q = q.Select(strings.Join(selects, ", "), args...)
	for _, o := range orders {
		q = q.Order(o)
	}
	q = applyWindow(q, f)

	var products []catalog.Product
	if err := q.Find(&products).Error; err != nil {
		return nil, err
	}
	return dedupe(products), nil
}

// sortClause returns an optional computed select column (with args) and
// the matching ORDER BY clause for a sort mode.
func sortClause(mode string) (string, []interface{}, string) {
	switch mode {
	case SortPriceLow:
		return "", nil, "products.price ASC"
	case SortPriceHigh:
		return "", nil, "products.price DESC"
	case SortNewest:
		return "", nil, "products.created_at DESC"
	case SortRating:
		return avgRatingExpr + " AS avg_rating", nil, "avg_rating DESC"
	case SortPopularity:
		return "(SELECT COUNT(*) FROM order_items oi WHERE oi.product_id = products.id) AS sales_count",
			nil, "sales_count DESC"
	case SortBestseller:
		cutoff := time.Now().Add(-bestsellerWindow)
		return "(SELECT COUNT(*) FROM order_items oi JOIN orders o ON o.id = oi.order_id WHERE oi.product_id = products.id AND o.created_at >= ?) AS recent_sales",
			[]interface{}{cutoff}, "recent_sales DESC"
	default:
		return "", nil, "products.name ASC"
	}
}

func applyWindow(q *gorm.DB, f Filters) *gorm.DB {
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	return q
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
