package handlers

import (
	"net/http"

	"github.com/diewo77/agro-gestion/httpx"
	"github.com/diewo77/agro-gestion/internal/models"
	"gorm.io/gorm"
)

type DashboardHandler struct {
	DB *gorm.DB
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler { return &DashboardHandler{DB: db} }

// Summary feeds the front-end dashboard: entity counts, recent sales and
// products under their stock threshold.
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	var productCount, clientCount, supplierCount, saleCount int64
	h.DB.Model(&models.Product{}).Count(&productCount)
	h.DB.Model(&models.Client{}).Count(&clientCount)
	h.DB.Model(&models.Supplier{}).Count(&supplierCount)
	h.DB.Model(&models.Sale{}).Count(&saleCount)

	var pendingTotal float64
	h.DB.Model(&models.Sale{}).
		Where("status = ?", models.SaleStatusPending).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&pendingTotal)

	var recentSales []models.Sale
	h.DB.Preload("Client").Order("created_at desc").Limit(5).Find(&recentSales)

	var lowStock []models.Product
	h.DB.Where("active = ? AND min_stock > 0 AND stock <= min_stock", true).
		Order("stock asc").Limit(10).Find(&lowStock)

	httpx.JSON(w, http.StatusOK, map[string]any{
		"counts": map[string]int64{
			"products":  productCount,
			"clients":   clientCount,
			"suppliers": supplierCount,
			"sales":     saleCount,
		},
		"pendingSalesTotal": pendingTotal,
		"recentSales":       recentSales,
		"lowStockProducts":  lowStock,
	})
}
