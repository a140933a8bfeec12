package store

import (
	"context"
	"errors"

	"github.com/diewo77/agro-gestion/internal/models"
	"gorm.io/gorm"
)

// CatalogStore owns product reads and the one stock mutation point used by
// the sale path.
type CatalogStore struct {
	DB *gorm.DB
}

func NewCatalogStore(db *gorm.DB) *CatalogStore { return &CatalogStore{DB: db} }

func (s *CatalogStore) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := s.DB.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ProductNotFoundError{ProductID: id}
		}
		return nil, &PersistenceError{Op: "get_product", Err: err}
	}
	return &p, nil
}

// ReserveStock decrements stock for an active product in a single conditional
// UPDATE, so two concurrent reservations against the same product cannot both
// pass the availability check and jointly overdraw it. On success the product
// row's updated_at moves forward with the new stock value. Zero rows affected
// means the condition failed; the follow-up read tells the caller why.
func (s *CatalogStore) ReserveStock(ctx context.Context, id uint, quantity float64) (*models.Product, error) {
	res := s.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND active = ? AND stock >= ?", id, true, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return nil, &PersistenceError{Op: "reserve_stock", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		p, err := s.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		if !p.Active {
			return nil, &ProductInactiveError{ProductID: p.ID, Name: p.Name}
		}
		return nil, &InsufficientStockError{ProductID: p.ID, Name: p.Name, Requested: quantity, Available: p.Stock, Unit: p.Unit}
	}
	return s.GetProduct(ctx, id)
}

// ReleaseStock is the compensating increment for a reservation made in the
// same request. It ignores the active flag: stock taken must come back even
// if the product was deactivated in between.
func (s *CatalogStore) ReleaseStock(ctx context.Context, id uint, quantity float64) error {
	res := s.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", quantity))
	if res.Error != nil {
		return &PersistenceError{Op: "release_stock", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return &ProductNotFoundError{ProductID: id}
	}
	return nil
}
