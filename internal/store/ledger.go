package store

import (
	"context"
	"errors"
	"time"

	"github.com/diewo77/agro-gestion/internal/models"
	"gorm.io/gorm"
)

// LedgerStore owns the sale records. Creation is append-only; later writes
// touch only status and notes.
type LedgerStore struct {
	DB *gorm.DB
}

func NewLedgerStore(db *gorm.DB) *LedgerStore { return &LedgerStore{DB: db} }

// CommitSale persists the sale with its items and an audit row in one
// database transaction. For credit sales the transaction also holds the
// authoritative credit check: the client row is updated first so concurrent
// credit sales for the same client serialize on its row lock, and the
// outstanding sum each of them reads includes every previously committed
// sale. The service's pre-reservation check is only a fast path; this one
// decides.
func (s *LedgerStore) CommitSale(ctx context.Context, sale *models.Sale) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if sale.PaymentMethod == models.PaymentCredit {
			res := tx.Model(&models.Client{}).Where("id = ?", sale.ClientID).Update("updated_at", time.Now())
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrClientNotFound
			}
			var c models.Client
			if err := tx.First(&c, sale.ClientID).Error; err != nil {
				return err
			}
			if c.CreditLimit <= 0 {
				return ErrCreditNotAssigned
			}
			var outstanding float64
			err := tx.Model(&models.Sale{}).
				Where("client_id = ? AND payment_method = ? AND status <> ?", sale.ClientID, models.PaymentCredit, models.SaleStatusCancelled).
				Select("COALESCE(SUM(total_amount), 0)").
				Scan(&outstanding).Error
			if err != nil {
				return err
			}
			available := c.CreditLimit - outstanding
			if sale.TotalAmount > available {
				return &CreditExceededError{Limit: c.CreditLimit, Available: available, Requested: sale.TotalAmount}
			}
		}
		if err := tx.Create(sale).Error; err != nil {
			return err
		}
		audit := models.AuditLog{UserID: sale.CreatedByID, EntityType: "Sale", EntityID: sale.ID, Action: "create", Detail: sale.Number}
		return tx.Create(&audit).Error
	})
	if err != nil {
		var exceeded *CreditExceededError
		if errors.Is(err, ErrClientNotFound) || errors.Is(err, ErrCreditNotAssigned) || errors.As(err, &exceeded) {
			return err
		}
		return &PersistenceError{Op: "commit_sale", Err: err}
	}
	return nil
}

func (s *LedgerStore) Get(ctx context.Context, id uint) (*models.Sale, error) {
	var sale models.Sale
	err := s.DB.WithContext(ctx).
		Preload("Client").
		Preload("Items.Product").
		Preload("CreatedBy").
		First(&sale, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, &PersistenceError{Op: "get_sale", Err: err}
	}
	return &sale, nil
}

// List returns sales newest first with client and product references
// resolved, plus the unpaginated total.
func (s *LedgerStore) List(ctx context.Context, limit, offset int) ([]models.Sale, int64, error) {
	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.Sale{}).Count(&total).Error; err != nil {
		return nil, 0, &PersistenceError{Op: "count_sales", Err: err}
	}
	var sales []models.Sale
	err := s.DB.WithContext(ctx).
		Preload("Client").
		Preload("Items.Product").
		Preload("CreatedBy").
		Order("id desc").
		Limit(limit).Offset(offset).
		Find(&sales).Error
	if err != nil {
		return nil, 0, &PersistenceError{Op: "list_sales", Err: err}
	}
	return sales, total, nil
}

// UpdateStatus applies the pending -> completed|cancelled state machine.
// Completed and cancelled are terminal. The transition is a single
// conditional UPDATE keyed on the pending status, the same way stock
// reservation is keyed on availability: of two concurrent transitions
// exactly one affects a row, the other gets ErrInvalidTransition.
func (s *LedgerStore) UpdateStatus(ctx context.Context, id uint, status, notes string, actorID uint) error {
	if status != models.SaleStatusCompleted && status != models.SaleStatusCancelled {
		return ErrInvalidTransition
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{"status": status}
		if notes != "" {
			updates["notes"] = notes
		}
		res := tx.Model(&models.Sale{}).
			Where("id = ? AND status = ?", id, models.SaleStatusPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Sale{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrSaleNotFound
			}
			return ErrInvalidTransition
		}
		audit := models.AuditLog{UserID: actorID, EntityType: "Sale", EntityID: id, Action: "status_change", Detail: status}
		return tx.Create(&audit).Error
	})
	if err != nil {
		if errors.Is(err, ErrSaleNotFound) || errors.Is(err, ErrInvalidTransition) {
			return err
		}
		return &PersistenceError{Op: "update_sale_status", Err: err}
	}
	return nil
}

// Remove hard-deletes the sale and its items, reporting whether the sale was
// still pending when it died. The pending state is claimed with the same
// conditional UPDATE as UpdateStatus before deleting, so a concurrent
// cancellation and deletion of the same sale cannot both be told to release
// its stock.
func (s *LedgerStore) Remove(ctx context.Context, id uint, actorID uint) (bool, error) {
	wasPending := false
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Sale{}).
			Where("id = ? AND status = ?", id, models.SaleStatusPending).
			Update("status", models.SaleStatusCancelled)
		if res.Error != nil {
			return res.Error
		}
		wasPending = res.RowsAffected == 1
		if err := tx.Where("sale_id = ?", id).Delete(&models.SaleItem{}).Error; err != nil {
			return err
		}
		del := tx.Delete(&models.Sale{}, id)
		if del.Error != nil {
			return del.Error
		}
		if del.RowsAffected == 0 {
			return ErrSaleNotFound
		}
		audit := models.AuditLog{UserID: actorID, EntityType: "Sale", EntityID: id, Action: "delete"}
		return tx.Create(&audit).Error
	})
	if errors.Is(err, ErrSaleNotFound) {
		return false, ErrSaleNotFound
	}
	if err != nil {
		return false, &PersistenceError{Op: "remove_sale", Err: err}
	}
	return wasPending, nil
}
