package recommend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	catalogdomain "github.com/storecraft/backend/internal/catalog/domain"
	catalogrepo "github.com/storecraft/backend/internal/catalog/repository"
	orderdomain "github.com/storecraft/backend/internal/order/domain"
	orderrepo "github.com/storecraft/backend/internal/order/repository"
)

type engineFixture struct {
	db     *gorm.DB
	engine *Engine
}

func setupEngine(t *testing.T) *engineFixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&catalogdomain.Category{},
		&catalogdomain.Brand{},
		&catalogdomain.Product{},
		&catalogdomain.Review{},
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
	))

	return &engineFixture{
		db:     db,
		engine: NewEngine(db, catalogrepo.NewGormCatalogRepository(db), orderrepo.NewGormOrderRepository(db)),
	}
}

func (f *engineFixture) product(t *testing.T, name string, categoryID, brandID uint) *catalogdomain.Product {
	p := &catalogdomain.Product{
		Name:       name,
		SKU:        name,
		Price:      10,
		Stock:      5,
		IsActive:   true,
		CategoryID: categoryID,
		BrandID:    brandID,
	}
	require.NoError(t, f.db.Create(p).Error)
	return p
}

func (f *engineFixture) category(t *testing.T, name string, parentID *uint) *catalogdomain.Category {
	c := &catalogdomain.Category{Name: name, Slug: name, ParentID: parentID}
	require.NoError(t, f.db.Create(c).Error)
	return c
}

func (f *engineFixture) orderWith(t *testing.T, number string, userID uint, at time.Time, productIDs ...uint) *orderdomain.Order {
	o := &orderdomain.Order{OrderNumber: number, UserID: userID, Status: orderdomain.StatusPaid, Total: 10}
	require.NoError(t, f.db.Create(o).Error)
	require.NoError(t, f.db.Model(o).UpdateColumn("created_at", at).Error)
	for _, pid := range productIDs {
		require.NoError(t, f.db.Create(&orderdomain.OrderItem{
			OrderID: o.ID, ProductID: pid, Quantity: 1, UnitPrice: 10,
		}).Error)
	}
	return o
}

func (f *engineFixture) review(t *testing.T, productID uint, rating int) {
	require.NoError(t, f.db.Create(&catalogdomain.Review{
		ProductID: productID, UserID: 99, Rating: rating,
	}).Error)
}

func ids(products []catalogdomain.Product) []uint {
	out := make([]uint, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestFrequentlyBoughtTogetherRanksByCoPurchaseCount(t *testing.T) {
	f := setupEngine(t)
	cat := f.category(t, "gadgets", nil)
	p := f.product(t, "anchor", cat.ID, 0)
	a := f.product(t, "often", cat.ID, 0)
	b := f.product(t, "once", cat.ID, 0)

	now := time.Now()
	f.orderWith(t, "O1", 1, now, p.ID, a.ID)
	f.orderWith(t, "O2", 2, now, p.ID, a.ID, b.ID)
	f.orderWith(t, "O3", 3, now, p.ID, a.ID)

	got, err := f.engine.FrequentlyBoughtTogether(context.Background(), p.ID, 4)
	require.NoError(t, err)

	assert.Equal(t, []uint{a.ID, b.ID}, ids(got))
}

func TestFrequentlyBoughtTogetherBreaksTiesByProductID(t *testing.T) {
	f := setupEngine(t)
	cat := f.category(t, "gadgets", nil)
	p := f.product(t, "anchor", cat.ID, 0)
	a := f.product(t, "first", cat.ID, 0)
	b := f.product(t, "second", cat.ID, 0)

	now := time.Now()
	f.orderWith(t, "O1", 1, now, p.ID, a.ID, b.ID)

	got, err := f.engine.FrequentlyBoughtTogether(context.Background(), p.ID, 4)
	require.NoError(t, err)

	assert.Equal(t, []uint{a.ID, b.ID}, ids(got))
}

func TestFrequentlyBoughtTogetherTruncatesToLimit(t *testing.T) {
	f := setupEngine(t)
	cat := f.category(t, "gadgets", nil)
	p := f.product(t, "anchor", cat.ID, 0)
	others := make([]uint, 0, 6)
	for _, name := range []string{"c1", "c2", "c3", "c4", "c5", "c6"} {
		others = append(others, f.product(t, name, cat.ID, 0).ID)
	}

	f.orderWith(t, "O1", 1, time.Now(), append([]uint{p.ID}, others...)...)

	got, err := f.engine.FrequentlyBoughtTogether(context.Background(), p.ID, 4)
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestFrequentlyBoughtTogetherSkipsInactiveProducts(t *testing.T) {
	f := setupEngine(t)
	cat := f.category(t, "gadgets", nil)
	p := f.product(t, "anchor", cat.ID, 0)
	active := f.product(t, "active", cat.ID, 0)
	inactive := f.product(t, "inactive", cat.ID, 0)
	require.NoError(t, f.db.Model(inactive).UpdateColumn("is_active", false).Error)

	f.orderWith(t, "O1", 1, time.Now(), p.ID, active.ID, inactive.ID)

	got, err := f.engine.FrequentlyBoughtTogether(context.Background(), p.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, []uint{active.ID}, ids(got))
}

func TestFrequentlyBoughtTogetherFallsBackToRelated(t *testing.T) {
	f := setupEngine(t)
	cat := f.category(t, "gadgets", nil)
	p := f.product(t, "anchor", cat.ID, 0)
	sibling := f.product(t, "sibling", cat.ID, 0)

	// No orders at all: fallback must serve category relatives.
	got, err := f.engine.FrequentlyBoughtTogether(context.Background(), p.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, []uint{sibling.ID}, ids(got))
}

func TestRelatedByCategoryOrdersByRatingThenRecency(t *testing.T) {
	f := setupEngine(t)
	cat := f.category(t, "gadgets", nil)
	p := f.product(t, "anchor", cat.ID, 0)
	low := f.product(t, "low", cat.ID, 0)
	high := f.product(t, "high", cat.ID, 0)

	f.review(t, low.ID, 2)
	f.review(t, high.ID, 5)

	got, err := f.engine.RelatedByCategory(context.Background(), p.ID, 6)
	require.NoError(t, err)

	assert.Equal(t, []uint{high.ID, low.ID}, ids(got))
}

func TestRelatedByCategoryWidensToParentThenBrand(t *testing.T) {
	f := setupEngine(t)
	parent := f.category(t, "electronics", nil)
	child := f.category(t, "phones", &parent.ID)

	brand := &catalogdomain.Brand{Name: "acme", Slug: "acme"}
	require.NoError(t, f.db.Create(brand).Error)

	p := f.product(t, "anchor", child.ID, brand.ID)
	inParent := f.product(t, "charger", parent.ID, 0)
	sameBrand := f.product(t, "headset", 0, brand.ID)

	got, err := f.engine.RelatedByCategory(context.Background(), p.ID, 6)
	require.NoError(t, err)

	assert.ElementsMatch(t, []uint{inParent.ID, sameBrand.ID}, ids(got))
}

func TestRelatedByCategoryExcludesSelf(t *testing.T) {
	f := setupEngine(t)
	cat := f.category(t, "gadgets", nil)
	p := f.product(t, "anchor", cat.ID, 0)
	f.product(t, "sibling", cat.ID, 0)

	got, err := f.engine.RelatedByCategory(context.Background(), p.ID, 6)
	require.NoError(t, err)
	assert.NotContains(t, ids(got), p.ID)
}

func TestPopularRanksByRecentOrderCount(t *testing.T) {
	f := setupEngine(t)
	cat := f.category(t, "gadgets", nil)
	hot := f.product(t, "hot", cat.ID, 0)
	warm := f.product(t, "warm", cat.ID, 0)

	now := time.Now()
	f.orderWith(t, "O1", 1, now, hot.ID)
	f.orderWith(t, "O2", 2, now, hot.ID)
	f.orderWith(t, "O3", 3, now, warm.ID)

	got, err := f.engine.Popular(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, []uint{hot.ID, warm.ID}, ids(got))
}

func TestPopularIgnoresStaleOrders(t *testing.T) {
	f := setupEngine(t)
	cat := f.category(t, "gadgets", nil)
	stale := f.product(t, "stale", cat.ID, 0)
	fresh := f.product(t, "fresh", cat.ID, 0)

	f.orderWith(t, "O1", 1, time.Now().Add(-40*24*time.Hour), stale.ID)
	f.orderWith(t, "O2", 2, time.Now(), fresh.ID)

	got, err := f.engine.Popular(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, []uint{fresh.ID}, ids(got))
}

func TestPopularPadsWithTopRated(t *testing.T) {
	f := setupEngine(t)
	cat := f.category(t, "gadgets", nil)
	ordered := f.product(t, "ordered", cat.ID, 0)
	rated := f.product(t, "rated", cat.ID, 0)
	filler := f.product(t, "filler", cat.ID, 0)

	f.orderWith(t, "O1", 1, time.Now(), ordered.ID)
	f.review(t, rated.ID, 5)
	f.review(t, filler.ID, 1)

	got, err := f.engine.Popular(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, []uint{ordered.ID, rated.ID}, ids(got))
}

func TestPersonalizedAnonymousFallsBackToPopular(t *testing.T) {
	f := setupEngine(t)
	cat := f.category(t, "gadgets", nil)
	hot := f.product(t, "hot", cat.ID, 0)
	f.orderWith(t, "O1", 1, time.Now(), hot.ID)

	popular, err := f.engine.Popular(context.Background(), 5)
	require.NoError(t, err)

	personalized, err := f.engine.Personalized(context.Background(), 0, nil, 5)
	require.NoError(t, err)

	assert.Equal(t, ids(popular), ids(personalized))
}

func TestPersonalizedPrefersPurchasedCategoriesAndExcludesPurchased(t *testing.T) {
	f := setupEngine(t)
	cat := f.category(t, "gadgets", nil)
	other := f.category(t, "books", nil)

	bought := f.product(t, "bought", cat.ID, 0)
	affinity := f.product(t, "affinity", cat.ID, 0)
	elsewhere := f.product(t, "elsewhere", other.ID, 0)

	f.review(t, affinity.ID, 5)
	f.review(t, elsewhere.ID, 5)
	f.orderWith(t, "O1", 42, time.Now(), bought.ID)

	got, err := f.engine.Personalized(context.Background(), 42, nil, 1)
	require.NoError(t, err)

	assert.Equal(t, []uint{affinity.ID}, ids(got))
}

func TestPersonalizedAppendsViewedNotPurchased(t *testing.T) {
	f := setupEngine(t)
	cat := f.category(t, "gadgets", nil)
	other := f.category(t, "books", nil)

	bought := f.product(t, "bought", cat.ID, 0)
	affinity := f.product(t, "affinity", cat.ID, 0)
	viewedA := f.product(t, "viewedA", other.ID, 0)
	viewedB := f.product(t, "viewedB", other.ID, 0)

	f.orderWith(t, "O1", 42, time.Now(), bought.ID)

	// Most recent first: viewedB, then viewedA; bought is filtered out.
	got, err := f.engine.Personalized(context.Background(), 42, []uint{viewedB.ID, viewedA.ID, bought.ID}, 5)
	require.NoError(t, err)

	assert.Equal(t, []uint{affinity.ID, viewedB.ID, viewedA.ID}, ids(got))
}

func TestPersonalizedTruncatesAtLimit(t *testing.T) {
	f := setupEngine(t)
	cat := f.category(t, "gadgets", nil)

	bought := f.product(t, "bought", cat.ID, 0)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		f.product(t, name, cat.ID, 0)
	}
	f.orderWith(t, "O1", 42, time.Now(), bought.ID)

	got, err := f.engine.Personalized(context.Background(), 42, nil, 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.NotContains(t, ids(got), bought.ID)
}
