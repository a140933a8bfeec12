package handlers

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/agro-gestion/auth"
	"github.com/diewo77/agro-gestion/httpx"
	"github.com/diewo77/agro-gestion/internal/models"
	"github.com/diewo77/agro-gestion/validation"
	"gorm.io/gorm"
)

type ProductHandler struct {
	DB *gorm.DB
}

func NewProductHandler(db *gorm.DB) *ProductHandler { return &ProductHandler{DB: db} }

var searchSafe = regexp.MustCompile(`[^a-zA-Z0-9 \-_]`)

func pagination(r *http.Request) (limit, offset int) {
	limit = 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			offset = (n - 1) * limit
		}
	}
	return limit, offset
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	dbq := h.DB.Model(&models.Product{})
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		like := "%" + strings.ToLower(searchSafe.ReplaceAllString(q, "")) + "%"
		dbq = dbq.Where("lower(name) LIKE ? OR lower(sku) LIKE ? OR lower(category) LIKE ?", like, like, like)
	}
	if v := r.URL.Query().Get("active"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			dbq = dbq.Where("active = ?", b)
		}
	}
	var total int64
	dbq.Count(&total)
	var products []models.Product
	if err := dbq.Preload("Supplier").Order("id desc").Limit(limit).Offset(offset).Find(&products).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_products", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": products, "total": total, "limit": limit, "offset": offset})
}

// LowStock lists active products at or under their minimum-stock threshold.
func (h *ProductHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	var products []models.Product
	err := h.DB.Where("active = ? AND min_stock > 0 AND stock <= min_stock", true).
		Order("stock asc").Find(&products).Error
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_products", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": products, "total": len(products)})
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.URL.Query().Get("id"))
	if id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var p models.Product
	if err := h.DB.Preload("Supplier").First(&p, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name       string  `json:"name"`
		Category   string  `json:"category"`
		SKU        string  `json:"sku"`
		Stock      float64 `json:"stock"`
		Unit       string  `json:"unit"`
		Price      float64 `json:"price"`
		Currency   string  `json:"currency"`
		MinStock   float64 `json:"min_stock"`
		SupplierID *uint   `json:"supplier_id"`
	}
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.Required("sku", in.SKU, v)
	validation.PositiveFloat("price", in.Price, v)
	validation.NonNegativeFloat("stock", in.Stock, v)
	validation.NonNegativeFloat("min_stock", in.MinStock, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	if uid == 0 {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	if in.SupplierID != nil {
		var count int64
		h.DB.Model(&models.Supplier{}).Where("id = ?", *in.SupplierID).Count(&count)
		if count == 0 {
			httpx.JSONError(w, http.StatusBadRequest, "supplier_not_found", nil)
			return
		}
	}
	p := models.Product{
		Name:           in.Name,
		Category:       in.Category,
		SKU:            strings.ToUpper(strings.TrimSpace(in.SKU)),
		Stock:          in.Stock,
		Unit:           choose(in.Unit, "kg"),
		Price:          in.Price,
		Currency:       choose(in.Currency, "ARS"),
		PriceUpdatedAt: time.Now(),
		Active:         true,
		MinStock:       in.MinStock,
		SupplierID:     in.SupplierID,
		CreatedByID:    uid,
	}
	if err := h.DB.Create(&p).Error; err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "duplicate") || strings.Contains(strings.ToLower(err.Error()), "unique") {
			httpx.JSONError(w, http.StatusConflict, "sku_already_exists", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "product_create_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

// Update edits catalog fields. Stock is deliberately absent here outside the
// dedicated adjustment: sale-path stock changes go through the catalog store
// only. A price change refreshes the price timestamp.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	id, _ := strconv.Atoi(r.URL.Query().Get("id"))
	if id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var p models.Product
	if err := h.DB.First(&p, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	var in struct {
		Name       *string  `json:"name"`
		Category   *string  `json:"category"`
		Unit       *string  `json:"unit"`
		Price      *float64 `json:"price"`
		Currency   *string  `json:"currency"`
		MinStock   *float64 `json:"min_stock"`
		Active     *bool    `json:"active"`
		Stock      *float64 `json:"stock"`
		SupplierID *uint    `json:"supplier_id"`
	}
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Unit != nil {
		p.Unit = *in.Unit
	}
	if in.Price != nil {
		if *in.Price <= 0 {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"price": "must_be_positive"})
			return
		}
		p.Price = *in.Price
		p.PriceUpdatedAt = time.Now()
	}
	if in.Currency != nil {
		p.Currency = *in.Currency
	}
	if in.MinStock != nil {
		if *in.MinStock < 0 {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"min_stock": "must_not_be_negative"})
			return
		}
		p.MinStock = *in.MinStock
	}
	if in.Active != nil {
		p.Active = *in.Active
	}
	if in.Stock != nil {
		// Inventory correction, not a reservation. Negative stock stays out.
		if *in.Stock < 0 {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"stock": "must_not_be_negative"})
			return
		}
		p.Stock = *in.Stock
	}
	if in.SupplierID != nil {
		var count int64
		h.DB.Model(&models.Supplier{}).Where("id = ?", *in.SupplierID).Count(&count)
		if count == 0 {
			httpx.JSONError(w, http.StatusBadRequest, "supplier_not_found", nil)
			return
		}
		p.SupplierID = in.SupplierID
	}
	if err := h.DB.Save(&p).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "update_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	id, _ := strconv.Atoi(r.URL.Query().Get("id"))
	if id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	res := h.DB.Delete(&models.Product{}, id)
	if res.Error != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "delete_failed", nil)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": id})
}

func choose(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
