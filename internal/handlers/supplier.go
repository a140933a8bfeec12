package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/diewo77/agro-gestion/auth"
	"github.com/diewo77/agro-gestion/httpx"
	"github.com/diewo77/agro-gestion/internal/models"
	"github.com/diewo77/agro-gestion/validation"
	"gorm.io/gorm"
)

type SupplierHandler struct {
	DB *gorm.DB
}

func NewSupplierHandler(db *gorm.DB) *SupplierHandler { return &SupplierHandler{DB: db} }

func (h *SupplierHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	dbq := h.DB.Model(&models.Supplier{})
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		like := "%" + strings.ToLower(searchSafe.ReplaceAllString(q, "")) + "%"
		dbq = dbq.Where("lower(name) LIKE ? OR lower(cuit) LIKE ?", like, like)
	}
	var total int64
	dbq.Count(&total)
	var suppliers []models.Supplier
	if err := dbq.Order("id desc").Limit(limit).Offset(offset).Find(&suppliers).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_suppliers", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": suppliers, "total": total, "limit": limit, "offset": offset})
}

func (h *SupplierHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.URL.Query().Get("id"))
	if id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var s models.Supplier
	if err := h.DB.First(&s, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}

func (h *SupplierHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name             string `json:"name"`
		Email            string `json:"email"`
		Phone            string `json:"phone"`
		Street           string `json:"street"`
		City             string `json:"city"`
		Province         string `json:"province"`
		ZipCode          string `json:"zip_code"`
		Country          string `json:"country"`
		BusinessName     string `json:"business_name"`
		TaxCategory      string `json:"tax_category"`
		CUIT             string `json:"cuit"`
		PaymentTermsDays int    `json:"payment_terms_days"`
		Notes            string `json:"notes"`
	}
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.Required("email", in.Email, v)
	validation.Required("phone", in.Phone, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	if uid == 0 {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	terms := in.PaymentTermsDays
	if terms == 0 {
		terms = 30
	}
	s := models.Supplier{
		Name:             in.Name,
		Email:            strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:            in.Phone,
		Street:           in.Street,
		City:             in.City,
		Province:         in.Province,
		ZipCode:          in.ZipCode,
		Country:          choose(in.Country, "Argentina"),
		BusinessName:     in.BusinessName,
		TaxCategory:      in.TaxCategory,
		CUIT:             in.CUIT,
		PaymentTermsDays: terms,
		Status:           models.PartyStatusActive,
		Notes:            in.Notes,
		CreatedByID:      uid,
	}
	if err := h.DB.Create(&s).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "supplier_create_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, s)
}

func (h *SupplierHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	id, _ := strconv.Atoi(r.URL.Query().Get("id"))
	if id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var s models.Supplier
	if err := h.DB.First(&s, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	var in struct {
		Name             *string `json:"name"`
		Email            *string `json:"email"`
		Phone            *string `json:"phone"`
		Street           *string `json:"street"`
		City             *string `json:"city"`
		Province         *string `json:"province"`
		ZipCode          *string `json:"zip_code"`
		Country          *string `json:"country"`
		BusinessName     *string `json:"business_name"`
		TaxCategory      *string `json:"tax_category"`
		CUIT             *string `json:"cuit"`
		PaymentTermsDays *int    `json:"payment_terms_days"`
		Status           *string `json:"status"`
		Notes            *string `json:"notes"`
	}
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if in.Name != nil {
		s.Name = *in.Name
	}
	if in.Email != nil {
		s.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.Phone != nil {
		s.Phone = *in.Phone
	}
	if in.Street != nil {
		s.Street = *in.Street
	}
	if in.City != nil {
		s.City = *in.City
	}
	if in.Province != nil {
		s.Province = *in.Province
	}
	if in.ZipCode != nil {
		s.ZipCode = *in.ZipCode
	}
	if in.Country != nil {
		s.Country = *in.Country
	}
	if in.BusinessName != nil {
		s.BusinessName = *in.BusinessName
	}
	if in.TaxCategory != nil {
		s.TaxCategory = *in.TaxCategory
	}
	if in.CUIT != nil {
		s.CUIT = *in.CUIT
	}
	if in.PaymentTermsDays != nil {
		s.PaymentTermsDays = *in.PaymentTermsDays
	}
	if in.Status != nil {
		v := validation.Violations{}
		validation.OneOf("status", *in.Status, []string{models.PartyStatusActive, models.PartyStatusInactive, models.PartyStatusBlocked}, v)
		if !v.Empty() {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
			return
		}
		s.Status = *in.Status
	}
	if in.Notes != nil {
		s.Notes = *in.Notes
	}
	if err := h.DB.Save(&s).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "update_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}

func (h *SupplierHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	id, _ := strconv.Atoi(r.URL.Query().Get("id"))
	if id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	// Products keep a weak reference; detach them instead of blocking the delete.
	if err := h.DB.Model(&models.Product{}).Where("supplier_id = ?", id).Update("supplier_id", nil).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "delete_failed", nil)
		return
	}
	res := h.DB.Delete(&models.Supplier{}, id)
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
