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

type ClientHandler struct {
	DB *gorm.DB
}

func NewClientHandler(db *gorm.DB) *ClientHandler { return &ClientHandler{DB: db} }

func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	dbq := h.DB.Model(&models.Client{})
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		like := "%" + strings.ToLower(searchSafe.ReplaceAllString(q, "")) + "%"
		dbq = dbq.Where("lower(name) LIKE ? OR document_number LIKE ?", like, like)
	}
	var total int64
	dbq.Count(&total)
	var clients []models.Client
	if err := dbq.Order("id desc").Limit(limit).Offset(offset).Find(&clients).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_clients", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": clients, "total": total, "limit": limit, "offset": offset})
}

func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.URL.Query().Get("id"))
	if id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var c models.Client
	if err := h.DB.First(&c, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name             string  `json:"name"`
		DocumentType     string  `json:"document_type"`
		DocumentNumber   string  `json:"document_number"`
		Email            string  `json:"email"`
		Phone            string  `json:"phone"`
		Address          string  `json:"address"`
		City             string  `json:"city"`
		Province         string  `json:"province"`
		CreditLimit      float64 `json:"credit_limit"`
		PaymentTermsDays int     `json:"payment_terms_days"`
		Notes            string  `json:"notes"`
	}
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.Required("document_type", in.DocumentType, v)
	validation.Required("document_number", in.DocumentNumber, v)
	validation.OneOf("document_type", in.DocumentType, []string{"DNI", "CUIT", "CUIL"}, v)
	validation.NonNegativeFloat("credit_limit", in.CreditLimit, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	if uid == 0 {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var count int64
	h.DB.Model(&models.Client{}).Where("document_type = ? AND document_number = ?", in.DocumentType, in.DocumentNumber).Count(&count)
	if count > 0 {
		httpx.JSONError(w, http.StatusConflict, "document_already_registered", nil)
		return
	}
	terms := in.PaymentTermsDays
	if terms == 0 {
		terms = 30
	}
	c := models.Client{
		Name:             in.Name,
		DocumentType:     in.DocumentType,
		DocumentNumber:   in.DocumentNumber,
		Email:            in.Email,
		Phone:            in.Phone,
		Address:          in.Address,
		City:             in.City,
		Province:         in.Province,
		CreditLimit:      in.CreditLimit,
		PaymentTermsDays: terms,
		Status:           models.PartyStatusActive,
		Notes:            in.Notes,
		CreatedByID:      uid,
	}
	if err := h.DB.Create(&c).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "client_create_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	id, _ := strconv.Atoi(r.URL.Query().Get("id"))
	if id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var c models.Client
	if err := h.DB.First(&c, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	var in struct {
		Name             *string  `json:"name"`
		Email            *string  `json:"email"`
		Phone            *string  `json:"phone"`
		Address          *string  `json:"address"`
		City             *string  `json:"city"`
		Province         *string  `json:"province"`
		CreditLimit      *float64 `json:"credit_limit"`
		PaymentTermsDays *int     `json:"payment_terms_days"`
		Status           *string  `json:"status"`
		Notes            *string  `json:"notes"`
	}
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Email != nil {
		c.Email = *in.Email
	}
	if in.Phone != nil {
		c.Phone = *in.Phone
	}
	if in.Address != nil {
		c.Address = *in.Address
	}
	if in.City != nil {
		c.City = *in.City
	}
	if in.Province != nil {
		c.Province = *in.Province
	}
	if in.CreditLimit != nil {
		if *in.CreditLimit < 0 {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"credit_limit": "must_not_be_negative"})
			return
		}
		c.CreditLimit = *in.CreditLimit
	}
	if in.PaymentTermsDays != nil {
		c.PaymentTermsDays = *in.PaymentTermsDays
	}
	if in.Status != nil {
		v := validation.Violations{}
		validation.OneOf("status", *in.Status, []string{models.PartyStatusActive, models.PartyStatusInactive, models.PartyStatusBlocked}, v)
		if !v.Empty() {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
			return
		}
		c.Status = *in.Status
	}
	if in.Notes != nil {
		c.Notes = *in.Notes
	}
	if err := h.DB.Save(&c).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "update_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	id, _ := strconv.Atoi(r.URL.Query().Get("id"))
	if id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	res := h.DB.Delete(&models.Client{}, id)
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
