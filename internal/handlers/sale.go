package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/diewo77/agro-gestion/auth"
	"github.com/diewo77/agro-gestion/httpx"
	"github.com/diewo77/agro-gestion/internal/models"
	"github.com/diewo77/agro-gestion/internal/services"
	"github.com/diewo77/agro-gestion/internal/store"
	"github.com/diewo77/agro-gestion/validation"
)

// SaleHandler exposes the sale transaction service. Unlike the other
// handlers it never touches the database directly; every mutation goes
// through the service so the reservation/compensation semantics hold.
type SaleHandler struct {
	Svc    *services.SaleService
	Ledger *store.LedgerStore
}

func NewSaleHandler(svc *services.SaleService, ledger *store.LedgerStore) *SaleHandler {
	return &SaleHandler{Svc: svc, Ledger: ledger}
}

func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	sales, total, err := h.Ledger.List(r.Context(), limit, offset)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_sales", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": sales, "total": total, "limit": limit, "offset": offset})
}

func (h *SaleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.URL.Query().Get("id"))
	if id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	sale, err := h.Ledger.Get(r.Context(), uint(id))
	if err != nil {
		if errors.Is(err, store.ErrSaleNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_sale", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	if uid == 0 {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	type itemReq struct {
		ProductID uint    `json:"product_id"`
		Quantity  float64 `json:"quantity"`
		UnitPrice float64 `json:"unit_price"`
		Currency  string  `json:"currency"`
	}
	var in struct {
		ClientID      uint      `json:"client_id"`
		Items         []itemReq `json:"items"`
		PaymentMethod string    `json:"payment_method"`
		Notes         string    `json:"notes"`
	}
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	if in.ClientID == 0 {
		v["client_id"] = "required"
	}
	if len(in.Items) == 0 {
		v["items"] = "required"
	}
	validation.Required("payment_method", in.PaymentMethod, v)
	validation.OneOf("payment_method", in.PaymentMethod, []string{models.PaymentCash, models.PaymentCredit, models.PaymentOther}, v)
	for _, it := range in.Items {
		if it.ProductID == 0 || it.Quantity <= 0 || it.UnitPrice <= 0 {
			v["items"] = "invalid_product_quantity_or_price"
			break
		}
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	input := services.CreateSaleInput{
		ClientID:      in.ClientID,
		PaymentMethod: in.PaymentMethod,
		Notes:         in.Notes,
		ActorID:       uid,
	}
	for _, it := range in.Items {
		input.Items = append(input.Items, services.SaleItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Currency:  it.Currency,
		})
	}
	sale, err := h.Svc.Create(r.Context(), input)
	if err != nil {
		h.writeSaleError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

// writeSaleError maps the transaction error taxonomy onto HTTP statuses,
// keeping enough detail for the caller to act on.
func (h *SaleHandler) writeSaleError(w http.ResponseWriter, err error) {
	var notFound *store.ProductNotFoundError
	var inactive *store.ProductInactiveError
	var insufficient *store.InsufficientStockError
	var exceeded *store.CreditExceededError
	var persistence *store.PersistenceError
	switch {
	case errors.Is(err, store.ErrClientNotFound):
		httpx.JSONError(w, http.StatusNotFound, "client_not_found", nil)
	case errors.Is(err, store.ErrClientBlocked):
		httpx.JSONError(w, http.StatusConflict, "client_blocked", nil)
	case errors.Is(err, store.ErrCreditNotAssigned):
		httpx.JSONError(w, http.StatusConflict, "credit_not_assigned", nil)
	case errors.Is(err, services.ErrMixedCurrency):
		httpx.JSONError(w, http.StatusBadRequest, "mixed_currency", nil)
	case errors.As(err, &notFound):
		httpx.JSONError(w, http.StatusNotFound, "product_not_found", map[string]any{"product_id": notFound.ProductID})
	case errors.As(err, &inactive):
		httpx.JSONError(w, http.StatusConflict, "product_inactive", map[string]any{"product_id": inactive.ProductID, "name": inactive.Name})
	case errors.As(err, &insufficient):
		httpx.JSONError(w, http.StatusConflict, "insufficient_stock", map[string]any{
			"product_id": insufficient.ProductID,
			"name":       insufficient.Name,
			"requested":  insufficient.Requested,
			"available":  insufficient.Available,
			"unit":       insufficient.Unit,
		})
	case errors.As(err, &exceeded):
		httpx.JSONError(w, http.StatusConflict, "credit_exceeded", map[string]any{
			"limit":     exceeded.Limit,
			"available": exceeded.Available,
			"requested": exceeded.Requested,
		})
	case errors.As(err, &persistence):
		// Retryable: stores were compensated, state is as before the request.
		httpx.JSONError(w, http.StatusServiceUnavailable, "persistence_failure", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "sale_create_failed", nil)
	}
}

// Update changes status and/or notes; pending -> completed|cancelled only.
func (h *SaleHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	id, _ := strconv.Atoi(r.URL.Query().Get("id"))
	if id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var in struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	sale, err := h.Svc.UpdateStatus(r.Context(), uint(id), in.Status, in.Notes, uid)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrSaleNotFound):
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		case errors.Is(err, store.ErrInvalidTransition):
			httpx.JSONError(w, http.StatusConflict, "invalid_status_transition", nil)
		default:
			httpx.JSONError(w, http.StatusInternalServerError, "update_failed", nil)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *SaleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	id, _ := strconv.Atoi(r.URL.Query().Get("id"))
	if id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := h.Svc.Remove(r.Context(), uint(id), uid); err != nil {
		if errors.Is(err, store.ErrSaleNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "delete_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": id})
}
