package command

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	catalogdomain "github.com/storecraft/backend/internal/catalog/domain"
	catalogrepo "github.com/storecraft/backend/internal/catalog/repository"
	"github.com/storecraft/backend/internal/wishlist/domain"
	"github.com/storecraft/backend/internal/wishlist/repository"
)

type fixture struct {
	db        *gorm.DB
	wishlists *repository.GormWishlistRepository
	catalog   *catalogrepo.GormCatalogRepository
}

func setupFixture(t *testing.T) *fixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	wishlists := repository.NewGormWishlistRepository(db)
	require.NoError(t, wishlists.AutoMigrate())
	require.NoError(t, db.AutoMigrate(&catalogdomain.Product{}))

	return &fixture{
		db:        db,
		wishlists: wishlists,
		catalog:   catalogrepo.NewGormCatalogRepository(db),
	}
}

func (f *fixture) seedProduct(t *testing.T, name string) *catalogdomain.Product {
	p := &catalogdomain.Product{Name: name, SKU: name, Price: 10, IsActive: true}
	require.NoError(t, f.db.Create(p).Error)
	return p
}

func TestCreateWishlistDefaultsName(t *testing.T) {
	f := setupFixture(t)

	handler := NewCreateWishlistHandler(f.wishlists)
	wishlist, err := handler.Handle(CreateWishlistCommand{UserID: 7})
	require.NoError(t, err)

	assert.Equal(t, "Default Wishlist", wishlist.Name)
	assert.EqualValues(t, 7, wishlist.UserID)
}

func TestCreateWishlistRejectsDuplicateNamePerUser(t *testing.T) {
	f := setupFixture(t)
	handler := NewCreateWishlistHandler(f.wishlists)

	_, err := handler.Handle(CreateWishlistCommand{UserID: 7, Name: "Birthday"})
	require.NoError(t, err)

	_, err = handler.Handle(CreateWishlistCommand{UserID: 7, Name: "Birthday"})
	assert.ErrorIs(t, err, domain.ErrDuplicateName)

	// Another user may reuse the name.
	_, err = handler.Handle(CreateWishlistCommand{UserID: 8, Name: "Birthday"})
	assert.NoError(t, err)
}

func TestCreateWishlistKeepsSingleDefault(t *testing.T) {
	f := setupFixture(t)
	handler := NewCreateWishlistHandler(f.wishlists)

	first, err := handler.Handle(CreateWishlistCommand{UserID: 7, Name: "First", IsDefault: true})
	require.NoError(t, err)
	second, err := handler.Handle(CreateWishlistCommand{UserID: 7, Name: "Second", IsDefault: true})
	require.NoError(t, err)

	reloaded, err := f.wishlists.FindByID(first.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsDefault)
	assert.True(t, second.IsDefault)
}

func TestAddItemRejectsDuplicateProduct(t *testing.T) {
	f := setupFixture(t)
	wishlist, err := NewCreateWishlistHandler(f.wishlists).Handle(CreateWishlistCommand{UserID: 7, Name: "Stuff"})
	require.NoError(t, err)
	product := f.seedProduct(t, "widget")

	handler := NewAddItemHandler(f.wishlists, f.catalog)

	_, err = handler.Handle(AddItemCommand{WishlistID: wishlist.ID, UserID: 7, ProductID: product.ID})
	require.NoError(t, err)

	_, err = handler.Handle(AddItemCommand{WishlistID: wishlist.ID, UserID: 7, ProductID: product.ID})
	assert.ErrorIs(t, err, domain.ErrDuplicateItem)
}

func TestAddItemRejectsForeignWishlist(t *testing.T) {
	f := setupFixture(t)
	wishlist, err := NewCreateWishlistHandler(f.wishlists).Handle(CreateWishlistCommand{UserID: 7, Name: "Stuff"})
	require.NoError(t, err)
	product := f.seedProduct(t, "widget")

	handler := NewAddItemHandler(f.wishlists, f.catalog)
	_, err = handler.Handle(AddItemCommand{WishlistID: wishlist.ID, UserID: 8, ProductID: product.ID})

	assert.ErrorIs(t, err, domain.ErrNotOwner)
}

func TestAddItemRejectsUnknownProduct(t *testing.T) {
	f := setupFixture(t)
	wishlist, err := NewCreateWishlistHandler(f.wishlists).Handle(CreateWishlistCommand{UserID: 7, Name: "Stuff"})
	require.NoError(t, err)

	handler := NewAddItemHandler(f.wishlists, f.catalog)
	_, err = handler.Handle(AddItemCommand{WishlistID: wishlist.ID, UserID: 7, ProductID: 9999})

	assert.ErrorIs(t, err, catalogdomain.ErrProductNotFound)
}

func TestItemsOrderedByPriorityThenAddedAt(t *testing.T) {
	f := setupFixture(t)
	wishlist, err := NewCreateWishlistHandler(f.wishlists).Handle(CreateWishlistCommand{UserID: 7, Name: "Stuff"})
	require.NoError(t, err)

	normal := f.seedProduct(t, "normal")
	urgent := f.seedProduct(t, "urgent")

	handler := NewAddItemHandler(f.wishlists, f.catalog)
	_, err = handler.Handle(AddItemCommand{WishlistID: wishlist.ID, UserID: 7, ProductID: normal.ID, Priority: domain.PriorityNormal})
	require.NoError(t, err)
	_, err = handler.Handle(AddItemCommand{WishlistID: wishlist.ID, UserID: 7, ProductID: urgent.ID, Priority: domain.PriorityHighest})
	require.NoError(t, err)

	items, err := f.wishlists.ItemsByWishlist(wishlist.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, urgent.ID, items[0].ProductID)
	assert.Equal(t, normal.ID, items[1].ProductID)
}

func TestRemoveItem(t *testing.T) {
	f := setupFixture(t)
	wishlist, err := NewCreateWishlistHandler(f.wishlists).Handle(CreateWishlistCommand{UserID: 7, Name: "Stuff"})
	require.NoError(t, err)
	product := f.seedProduct(t, "widget")

	_, err = NewAddItemHandler(f.wishlists, f.catalog).Handle(AddItemCommand{WishlistID: wishlist.ID, UserID: 7, ProductID: product.ID})
	require.NoError(t, err)

	handler := NewRemoveItemHandler(f.wishlists)
	require.NoError(t, handler.Handle(RemoveItemCommand{WishlistID: wishlist.ID, UserID: 7, ProductID: product.ID}))

	err = handler.Handle(RemoveItemCommand{WishlistID: wishlist.ID, UserID: 7, ProductID: product.ID})
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestShareWishlistMintsTokenAndHashesPassword(t *testing.T) {
	f := setupFixture(t)
	wishlist, err := NewCreateWishlistHandler(f.wishlists).Handle(CreateWishlistCommand{UserID: 7, Name: "Stuff"})
	require.NoError(t, err)

	handler := NewShareWishlistHandler(f.wishlists)
	share, err := handler.Handle(ShareWishlistCommand{
		WishlistID: wishlist.ID,
		UserID:     7,
		Password:   "hunter2",
		TTL:        time.Hour,
	})
	require.NoError(t, err)

	assert.Len(t, share.Token, 32)
	assert.NotEqual(t, "hunter2", share.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(share.PasswordHash), []byte("hunter2")))
	require.NotNil(t, share.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *share.ExpiresAt, time.Minute)
}

func TestShareWishlistWithoutPasswordOrTTL(t *testing.T) {
	f := setupFixture(t)
	wishlist, err := NewCreateWishlistHandler(f.wishlists).Handle(CreateWishlistCommand{UserID: 7, Name: "Stuff"})
	require.NoError(t, err)

	share, err := NewShareWishlistHandler(f.wishlists).Handle(ShareWishlistCommand{WishlistID: wishlist.ID, UserID: 7})
	require.NoError(t, err)

	assert.False(t, share.IsProtected())
	assert.Nil(t, share.ExpiresAt)
	assert.False(t, share.IsExpired(time.Now()))
}
