package store

import (
	"context"
	"errors"
	"testing"

	"github.com/diewo77/agro-gestion/internal/models"
	"gorm.io/gorm"
)

func seedSale(t *testing.T, db *gorm.DB, status string) *models.Sale {
	t.Helper()
	u := seedUser(t, db)
	c := seedClient(t, db, "30-55555555-5", 0)
	p := seedProduct(t, db, "LG-1", 100, true)
	sale := &models.Sale{
		Number:        "S-" + t.Name(),
		ClientID:      c.ID,
		Items:         []models.SaleItem{{ProductID: p.ID, Quantity: 10, UnitPrice: 350, Currency: "ARS"}},
		TotalAmount:   3500,
		Currency:      "ARS",
		PaymentMethod: models.PaymentCash,
		Status:        status,
		CreatedByID:   u.ID,
	}
	return sale
}

func TestCommitSaleWritesItemsAndAudit(t *testing.T) {
	db := setupStoreDB(t)
	s := NewLedgerStore(db)
	sale := seedSale(t, db, models.SaleStatusPending)

	if err := s.CommitSale(context.Background(), sale); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if sale.ID == 0 {
		t.Fatal("expected sale id to be assigned")
	}

	got, err := s.Get(context.Background(), sale.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].Quantity != 10 {
		t.Fatalf("items not persisted: %+v", got.Items)
	}
	if got.Client.ID != sale.ClientID || got.Items[0].Product.ID == 0 {
		t.Fatal("expected client and product preloaded")
	}

	var audits int64
	db.Model(&models.AuditLog{}).Where("entity_type = ? AND entity_id = ? AND action = ?", "Sale", sale.ID, "create").Count(&audits)
	if audits != 1 {
		t.Fatalf("expected one audit row got %d", audits)
	}
}

// The commit transaction re-checks the credit line; a sale that no longer
// fits is rejected there even if an earlier check passed.
func TestCommitCreditSaleEnforcesLimit(t *testing.T) {
	db := setupStoreDB(t)
	s := NewLedgerStore(db)
	u := seedUser(t, db)
	c := seedClient(t, db, "30-66666666-6", 1000)

	first := &models.Sale{Number: "S-credit-1", ClientID: c.ID, TotalAmount: 800, Currency: "ARS", PaymentMethod: models.PaymentCredit, Status: models.SaleStatusPending, CreatedByID: u.ID}
	if err := s.CommitSale(context.Background(), first); err != nil {
		t.Fatalf("first commit: %v", err)
	}

	second := &models.Sale{Number: "S-credit-2", ClientID: c.ID, TotalAmount: 300, Currency: "ARS", PaymentMethod: models.PaymentCredit, Status: models.SaleStatusPending, CreatedByID: u.ID}
	err := s.CommitSale(context.Background(), second)
	var exceeded *CreditExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("expected CreditExceededError got %v", err)
	}
	if exceeded.Available != 200 || exceeded.Requested != 300 {
		t.Fatalf("unexpected detail: %+v", exceeded)
	}
	var sales int64
	db.Model(&models.Sale{}).Count(&sales)
	if sales != 1 {
		t.Fatalf("rejected sale must not persist, got %d", sales)
	}
}

func TestGetSaleNotFound(t *testing.T) {
	db := setupStoreDB(t)
	s := NewLedgerStore(db)

	if _, err := s.Get(context.Background(), 777); !errors.Is(err, ErrSaleNotFound) {
		t.Fatalf("expected ErrSaleNotFound got %v", err)
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	db := setupStoreDB(t)
	s := NewLedgerStore(db)
	sale := seedSale(t, db, models.SaleStatusPending)
	if err := s.CommitSale(context.Background(), sale); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if err := s.UpdateStatus(context.Background(), sale.ID, "shipped", "", 1); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("unknown status must be rejected, got %v", err)
	}

	if err := s.UpdateStatus(context.Background(), sale.ID, models.SaleStatusCompleted, "entregado", 1); err != nil {
		t.Fatalf("complete: %v", err)
	}
	got, err := s.Get(context.Background(), sale.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != models.SaleStatusCompleted || got.Notes != "entregado" {
		t.Fatalf("unexpected sale after update: status=%s notes=%q", got.Status, got.Notes)
	}

	// Completed is terminal.
	if err := s.UpdateStatus(context.Background(), sale.ID, models.SaleStatusCancelled, "", 1); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("completed sale must not move, got %v", err)
	}
}

func TestRemoveSaleDeletesItems(t *testing.T) {
	db := setupStoreDB(t)
	s := NewLedgerStore(db)
	sale := seedSale(t, db, models.SaleStatusPending)
	if err := s.CommitSale(context.Background(), sale); err != nil {
		t.Fatalf("commit: %v", err)
	}

	wasPending, err := s.Remove(context.Background(), sale.ID, 1)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !wasPending {
		t.Fatal("removing a pending sale must report the pending claim")
	}
	if _, err := s.Get(context.Background(), sale.ID); !errors.Is(err, ErrSaleNotFound) {
		t.Fatalf("sale must be gone, got %v", err)
	}
	var items int64
	db.Model(&models.SaleItem{}).Where("sale_id = ?", sale.ID).Count(&items)
	if items != 0 {
		t.Fatalf("expected no orphan items, got %d", items)
	}

	if _, err := s.Remove(context.Background(), sale.ID, 1); !errors.Is(err, ErrSaleNotFound) {
		t.Fatalf("second remove must report not found, got %v", err)
	}
}

// A cancelled sale was already compensated; deleting it must not claim the
// pending state again.
func TestRemoveCancelledSaleReportsNotPending(t *testing.T) {
	db := setupStoreDB(t)
	s := NewLedgerStore(db)
	sale := seedSale(t, db, models.SaleStatusPending)
	if err := s.CommitSale(context.Background(), sale); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := s.UpdateStatus(context.Background(), sale.ID, models.SaleStatusCancelled, "", 1); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	wasPending, err := s.Remove(context.Background(), sale.ID, 1)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if wasPending {
		t.Fatal("cancelled sale must not report a pending claim")
	}
}

// The transition is a conditional UPDATE on the pending status: of two
// transitions racing for the same sale only one may affect a row.
func TestUpdateStatusClaimsPendingOnce(t *testing.T) {
	db := setupStoreDB(t)
	s := NewLedgerStore(db)
	sale := seedSale(t, db, models.SaleStatusPending)
	if err := s.CommitSale(context.Background(), sale); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if err := s.UpdateStatus(context.Background(), sale.ID, models.SaleStatusCancelled, "", 1); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	if err := s.UpdateStatus(context.Background(), sale.ID, models.SaleStatusCancelled, "", 1); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second cancel must lose the claim, got %v", err)
	}

	var audits int64
	db.Model(&models.AuditLog{}).Where("entity_type = ? AND entity_id = ? AND action = ?", "Sale", sale.ID, "status_change").Count(&audits)
	if audits != 1 {
		t.Fatalf("expected one status_change audit row got %d", audits)
	}
}
