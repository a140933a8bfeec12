package services

import (
	"context"
	"errors"
	"log"

	"github.com/diewo77/agro-gestion/internal/events"
	"github.com/diewo77/agro-gestion/internal/models"
	"github.com/diewo77/agro-gestion/internal/store"
	"github.com/google/uuid"
)

var ErrMixedCurrency = errors.New("mixed_currency")

// SaleItemInput is one requested line item, in caller order.
type SaleItemInput struct {
	ProductID uint
	Quantity  float64
	UnitPrice float64
	Currency  string
}

type CreateSaleInput struct {
	ClientID      uint
	Items         []SaleItemInput
	PaymentMethod string // cash, credit, other
	Notes         string
	ActorID       uint
}

// SaleService orchestrates validation, stock reservation, pricing and the
// ledger commit for one sale request. Any failure after the first
// reservation releases every reservation made in the same request, so a
// request either fully commits or leaves stock exactly as it found it.
type SaleService struct {
	Catalog   *store.CatalogStore
	Party     *store.PartyStore
	Ledger    *store.LedgerStore
	Publisher *events.Publisher // optional, nil-safe
}

func NewSaleService(catalog *store.CatalogStore, party *store.PartyStore, ledger *store.LedgerStore, pub *events.Publisher) *SaleService {
	return &SaleService{Catalog: catalog, Party: party, Ledger: ledger, Publisher: pub}
}

type reservation struct {
	productID uint
	quantity  float64
}

func (s *SaleService) releaseAll(ctx context.Context, reserved []reservation) {
	// Compensation must not be skipped on partial failure; log and keep going.
	for i := len(reserved) - 1; i >= 0; i-- {
		if err := s.Catalog.ReleaseStock(ctx, reserved[i].productID, reserved[i].quantity); err != nil {
			log.Printf("release stock product=%d qty=%g failed: %v", reserved[i].productID, reserved[i].quantity, err)
		}
	}
}

// Create runs the sale transaction. Validation order is fixed: client, then
// payment terms, then per-item stock in input order, then the aggregate
// credit check, then the ledger commit.
func (s *SaleService) Create(ctx context.Context, in CreateSaleInput) (*models.Sale, error) {
	client, err := s.Party.GetClient(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}
	if client.Status == models.PartyStatusBlocked {
		return nil, store.ErrClientBlocked
	}
	// Fail fast before touching any stock.
	if in.PaymentMethod == models.PaymentCredit && client.CreditLimit <= 0 {
		return nil, store.ErrCreditNotAssigned
	}
	currency := ""
	for _, it := range in.Items {
		c := it.Currency
		if c == "" {
			c = "ARS"
		}
		if currency == "" {
			currency = c
		} else if c != currency {
			return nil, ErrMixedCurrency
		}
	}

	reserved := make([]reservation, 0, len(in.Items))
	items := make([]models.SaleItem, 0, len(in.Items))
	var total float64
	for _, it := range in.Items {
		p, err := s.Catalog.ReserveStock(ctx, it.ProductID, it.Quantity)
		if err != nil {
			s.releaseAll(ctx, reserved)
			return nil, err
		}
		reserved = append(reserved, reservation{productID: p.ID, quantity: it.Quantity})
		total += it.Quantity * it.UnitPrice
		items = append(items, models.SaleItem{ProductID: p.ID, Quantity: it.Quantity, UnitPrice: it.UnitPrice, Currency: currency})
	}

	if in.PaymentMethod == models.PaymentCredit {
		// Fast path only: the authoritative check runs again inside the
		// commit transaction, where concurrent credit sales serialize on
		// the client row.
		if err := s.Party.CheckCredit(ctx, in.ClientID, total); err != nil {
			s.releaseAll(ctx, reserved)
			return nil, err
		}
	}

	sale := &models.Sale{
		Number:        uuid.NewString(),
		ClientID:      in.ClientID,
		Items:         items,
		TotalAmount:   total,
		Currency:      currency,
		PaymentMethod: in.PaymentMethod,
		Status:        models.SaleStatusPending,
		Notes:         in.Notes,
		CreatedByID:   in.ActorID,
	}
	if err := s.Ledger.CommitSale(ctx, sale); err != nil {
		s.releaseAll(ctx, reserved)
		return nil, err
	}

	committed, err := s.Ledger.Get(ctx, sale.ID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, committed)
	return committed, nil
}

// UpdateStatus applies pending -> completed|cancelled. Cancelling releases
// the sale's reserved stock back to the catalog; the ledger's conditional
// transition guarantees at most one caller is told it won, so the release
// runs at most once per sale.
func (s *SaleService) UpdateStatus(ctx context.Context, id uint, status, notes string, actorID uint) (*models.Sale, error) {
	// Items are immutable after creation; snapshot them before the
	// transition so the release does not depend on a re-read that a
	// concurrent delete could invalidate.
	sale, err := s.Ledger.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Ledger.UpdateStatus(ctx, id, status, notes, actorID); err != nil {
		return nil, err
	}
	if status == models.SaleStatusCancelled {
		for _, it := range sale.Items {
			if err := s.Catalog.ReleaseStock(ctx, it.ProductID, it.Quantity); err != nil {
				log.Printf("release stock on cancel sale=%d product=%d: %v", sale.ID, it.ProductID, err)
			}
		}
	}
	if fresh, err := s.Ledger.Get(ctx, id); err == nil {
		sale = fresh
	} else {
		// Deleted out from under us after the transition; report the
		// snapshot with the applied changes.
		sale.Status = status
		if notes != "" {
			sale.Notes = notes
		}
	}
	s.publish(ctx, sale)
	return sale, nil
}

// Remove hard-deletes a sale. A pending sale still holds its reservations;
// the ledger claims the pending state atomically while deleting and reports
// it back, and only then is the stock released. Completed and cancelled
// sales leave stock untouched (goods delivered, or stock already restored
// on cancellation).
func (s *SaleService) Remove(ctx context.Context, id uint, actorID uint) error {
	// Items are immutable after creation, so the snapshot can be read
	// outside the delete transaction.
	sale, err := s.Ledger.Get(ctx, id)
	if err != nil {
		return err
	}
	wasPending, err := s.Ledger.Remove(ctx, id, actorID)
	if err != nil {
		return err
	}
	if wasPending {
		for _, it := range sale.Items {
			if err := s.Catalog.ReleaseStock(ctx, it.ProductID, it.Quantity); err != nil {
				log.Printf("release stock on delete sale=%d product=%d: %v", sale.ID, it.ProductID, err)
			}
		}
	}
	return nil
}

func (s *SaleService) publish(ctx context.Context, sale *models.Sale) {
	if s.Publisher == nil {
		return
	}
	ev := events.SaleEvent{
		Number:        sale.Number,
		ClientID:      sale.ClientID,
		TotalAmount:   sale.TotalAmount,
		Currency:      sale.Currency,
		PaymentMethod: sale.PaymentMethod,
		Status:        sale.Status,
	}
	if err := s.Publisher.Publish(ctx, ev); err != nil {
		log.Printf("publish sale event %s: %v", sale.Number, err)
	}
}
