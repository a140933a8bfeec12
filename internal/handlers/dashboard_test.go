package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diewo77/agro-gestion/internal/models"
)

func TestDashboardSummary(t *testing.T) {
	db, u := setupTestDB(t)
	h := NewDashboardHandler(db)

	c := models.Client{Name: "Estancia", DocumentType: "CUIT", DocumentNumber: "30-11111111-1", PaymentTermsDays: 30, Status: models.PartyStatusActive, CreatedByID: u.ID}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("client: %v", err)
	}
	p := models.Product{Name: "Soja", SKU: "GR-SOJA", Stock: 2, MinStock: 10, Unit: "kg", Price: 350, Currency: "ARS", PriceUpdatedAt: time.Now(), Active: true, CreatedByID: u.ID}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("product: %v", err)
	}
	sales := []models.Sale{
		{Number: "S-1", ClientID: c.ID, TotalAmount: 1000, Currency: "ARS", PaymentMethod: models.PaymentCash, Status: models.SaleStatusPending, CreatedByID: u.ID},
		{Number: "S-2", ClientID: c.ID, TotalAmount: 500, Currency: "ARS", PaymentMethod: models.PaymentCash, Status: models.SaleStatusCompleted, CreatedByID: u.ID},
	}
	for i := range sales {
		if err := db.Create(&sales[i]).Error; err != nil {
			t.Fatalf("sale: %v", err)
		}
	}

	rec := httptest.NewRecorder()
	h.Summary(rec, jsonRequest(t, http.MethodGet, "/dashboard/summary", nil, u.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: %d %s", rec.Code, rec.Body)
	}
	body := decodeBody(t, rec)

	counts := body["counts"].(map[string]any)
	if counts["products"].(float64) != 1 || counts["clients"].(float64) != 1 || counts["sales"].(float64) != 2 {
		t.Fatalf("counts: %v", counts)
	}
	// Only the pending sale contributes to the open total.
	if body["pendingSalesTotal"].(float64) != 1000 {
		t.Fatalf("pendingSalesTotal: %v", body["pendingSalesTotal"])
	}
	if low := body["lowStockProducts"].([]any); len(low) != 1 {
		t.Fatalf("expected 1 low-stock product got %d", len(low))
	}
	if recent := body["recentSales"].([]any); len(recent) != 2 {
		t.Fatalf("expected 2 recent sales got %d", len(recent))
	}
}
