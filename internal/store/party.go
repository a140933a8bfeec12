package store

import (
	"context"
	"errors"

	"github.com/diewo77/agro-gestion/internal/models"
	"gorm.io/gorm"
)

// PartyStore owns client reads and the credit availability check.
type PartyStore struct {
	DB *gorm.DB
}

func NewPartyStore(db *gorm.DB) *PartyStore { return &PartyStore{DB: db} }

func (s *PartyStore) GetClient(ctx context.Context, id uint) (*models.Client, error) {
	var c models.Client
	if err := s.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, &PersistenceError{Op: "get_client", Err: err}
	}
	return &c, nil
}

// OutstandingCredit sums the total amounts of the client's credit sales that
// are still on the books (anything not cancelled). Cancelled sales released
// both their stock and their claim on the credit line.
func (s *PartyStore) OutstandingCredit(ctx context.Context, clientID uint) (float64, error) {
	var total float64
	err := s.DB.WithContext(ctx).Model(&models.Sale{}).
		Where("client_id = ? AND payment_method = ? AND status <> ?", clientID, models.PaymentCredit, models.SaleStatusCancelled).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, &PersistenceError{Op: "outstanding_credit", Err: err}
	}
	return total, nil
}

// CheckCredit verifies that amount fits in the client's remaining credit
// line: creditLimit minus outstanding credit sales. A limit of zero means no
// credit was ever assigned.
func (s *PartyStore) CheckCredit(ctx context.Context, clientID uint, amount float64) error {
	c, err := s.GetClient(ctx, clientID)
	if err != nil {
		return err
	}
	if c.CreditLimit <= 0 {
		return ErrCreditNotAssigned
	}
	outstanding, err := s.OutstandingCredit(ctx, clientID)
	if err != nil {
		return err
	}
	available := c.CreditLimit - outstanding
	if amount > available {
		return &CreditExceededError{Limit: c.CreditLimit, Available: available, Requested: amount}
	}
	return nil
}
