package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/storecraft/backend/internal/catalog/domain"
)

func setupCatalog(t *testing.T) (*gorm.DB, *GormCatalogRepository) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	repo := NewGormCatalogRepository(db)
	require.NoError(t, repo.AutoMigrate())
	return db, repo
}

func category(t *testing.T, db *gorm.DB, name string, parentID *uint) *domain.Category {
	c := &domain.Category{Name: name, Slug: name, ParentID: parentID}
	require.NoError(t, db.Create(c).Error)
	return c
}

func TestSubtreeIDsExpandsDescendants(t *testing.T) {
	db, repo := setupCatalog(t)

	root := category(t, db, "furniture", nil)
	chairs := category(t, db, "chairs", &root.ID)
	office := category(t, db, "office-chairs", &chairs.ID)
	category(t, db, "kitchen", nil)

	got, err := repo.SubtreeIDs([]uint{root.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{root.ID, chairs.ID, office.ID}, got)
}

func TestSubtreeIDsWithSeedInsideAnotherSeedsSubtree(t *testing.T) {
	db, repo := setupCatalog(t)

	root := category(t, db, "furniture", nil)
	chairs := category(t, db, "chairs", &root.ID)

	got, err := repo.SubtreeIDs([]uint{root.ID, chairs.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{root.ID, chairs.ID}, got)
}

func TestSubtreeIDsIgnoresUnknownSeeds(t *testing.T) {
	db, repo := setupCatalog(t)
	root := category(t, db, "furniture", nil)

	got, err := repo.SubtreeIDs([]uint{root.ID, 9999})
	require.NoError(t, err)
	assert.Equal(t, []uint{root.ID}, got)
}

func TestSubtreeIDsTerminatesOnCyclicParentLinks(t *testing.T) {
	db, repo := setupCatalog(t)

	a := category(t, db, "a", nil)
	b := category(t, db, "b", &a.ID)
	// Corrupt the store: a's parent points back to its own child.
	require.NoError(t, db.Model(a).UpdateColumn("parent_id", b.ID).Error)

	got, err := repo.SubtreeIDs([]uint{a.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{a.ID, b.ID}, got)
}

func TestDecrementStock(t *testing.T) {
	db, repo := setupCatalog(t)

	p := &domain.Product{Name: "widget", SKU: "W-1", Price: 5, Stock: 10, IsActive: true}
	require.NoError(t, db.Create(p).Error)

	require.NoError(t, repo.DecrementStock(p.ID, 4))

	got, err := repo.FindProductByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Stock)
}

func TestFindActiveProductsByIDsFiltersInactive(t *testing.T) {
	db, repo := setupCatalog(t)

	active := &domain.Product{Name: "a", SKU: "a", IsActive: true}
	inactive := &domain.Product{Name: "b", SKU: "b", IsActive: true}
	require.NoError(t, db.Create(active).Error)
	require.NoError(t, db.Create(inactive).Error)
	require.NoError(t, db.Model(inactive).UpdateColumn("is_active", false).Error)

	got, err := repo.FindActiveProductsByIDs([]uint{active.ID, inactive.ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, active.ID, got[0].ID)
}
