package repository

import (
	"errors"

	"github.com/storecraft/backend/internal/catalog/domain"
	"gorm.io/gorm"
)

type GormCatalogRepository struct {
	db *gorm.DB
}

func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

func (r *GormCatalogRepository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&domain.Category{},
		&domain.Brand{},
		&domain.Product{},
		&domain.Review{},
	)
}

func (r *GormCatalogRepository) FindProductByID(id uint) (*domain.Product, error) {
	var product domain.Product
	err := r.db.Preload("Category").Preload("Brand").First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormCatalogRepository) FindActiveProductsByIDs(ids []uint) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []domain.Product
	err := r.db.Where("id IN ? AND is_active = ?", ids, true).Find(&products).Error
	return products, err
}

func (r *GormCatalogRepository) FindCategoryByID(id uint) (*domain.Category, error) {
	var category domain.Category
	err := r.db.First(&category, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// SubtreeIDs expands each category to itself plus all strict descendants.
// The walk carries a visited set; the store is not trusted to keep the
// parent links acyclic.
func (r *GormCatalogRepository) SubtreeIDs(ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	type edge struct {
		ID       uint
		ParentID *uint
	}
	var edges []edge
	if err := r.db.Model(&domain.Category{}).Select("id", "parent_id").Scan(&edges).Error; err != nil {
		return nil, err
	}

	children := make(map[uint][]uint, len(edges))
	exists := make(map[uint]bool, len(edges))
	for _, e := range edges {
		exists[e.ID] = true
		if e.ParentID != nil {
			children[*e.ParentID] = append(children[*e.ParentID], e.ID)
		}
	}

	visited := make(map[uint]bool)
	var out []uint
	queue := make([]uint, 0, len(ids))
	for _, id := range ids {
		if exists[id] && !visited[id] {
			visited[id] = true
			queue = append(queue, id)
			out = append(out, id)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range children[current] {
			// Already-visited nodes are skipped: a seed may sit inside
			// another seed's subtree, and broken parent links may loop.
			if visited[child] {
				continue
			}
			visited[child] = true
			queue = append(queue, child)
			out = append(out, child)
		}
	}

	return out, nil
}

func (r *GormCatalogRepository) DecrementStock(productID uint, quantity int) error {
	return r.db.Model(&domain.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity)).Error
}

func (r *GormCatalogRepository) AverageRating(productID uint) (float64, error) {
	var avg float64
	err := r.db.Model(&domain.Review{}).
		Where("product_id = ?", productID).
		Select("COALESCE(AVG(rating), 0)").
		Scan(&avg).Error
	return avg, err
}
