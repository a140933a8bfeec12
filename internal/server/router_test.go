package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/diewo77/agro-gestion/internal/db"
	"github.com/diewo77/agro-gestion/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type env struct {
	db     *gorm.DB
	server *httptest.Server
	client *http.Client
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=10000", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	srv := httptest.NewServer(New(gdb, nil))
	t.Cleanup(srv.Close)
	jar, _ := cookiejar.New(nil)
	return &env{db: gdb, server: srv, client: &http.Client{Jar: jar}}
}

func (e *env) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func (e *env) signup(t *testing.T, email string) {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/signup", map[string]string{"email": email, "password": "secret123", "name": "Test"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup: %d %v", resp.StatusCode, body)
	}
}

func TestHealthEndpoints(t *testing.T) {
	e := newEnv(t)
	for _, path := range []string{"/health", "/healthz"} {
		resp, body := e.do(t, http.MethodGet, path, nil)
		if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
			t.Fatalf("%s: %d %v", path, resp.StatusCode, body)
		}
	}
}

func TestRoutesRequireSession(t *testing.T) {
	e := newEnv(t)
	for _, path := range []string{"/products", "/products/get", "/clients", "/clients/get", "/suppliers", "/suppliers/get", "/sales", "/sales/get", "/dashboard/summary", "/me"} {
		resp, _ := e.do(t, http.MethodGet, path, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s without session: expected 401 got %d", path, resp.StatusCode)
		}
	}
}

// Full walk through the sale flow over HTTP: catalog setup, a committed sale,
// a refused oversell, cancellation restoring stock.
func TestSaleFlowOverHTTP(t *testing.T) {
	e := newEnv(t)
	e.signup(t, "vendedor@agro.test")

	resp, product := e.do(t, http.MethodPost, "/products", map[string]any{
		"name": "Soja", "category": "granos", "sku": "GR-SOJA", "stock": 10,
		"unit": "kg", "price": 350, "currency": "ARS",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create product: %d %v", resp.StatusCode, product)
	}
	productID := product["id"].(float64)

	resp, client := e.do(t, http.MethodPost, "/clients", map[string]any{
		"name": "Estancia La Loma", "document_type": "CUIT", "document_number": "30-11111111-1",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create client: %d %v", resp.StatusCode, client)
	}
	clientID := client["id"].(float64)

	resp, sale := e.do(t, http.MethodPost, "/sales", map[string]any{
		"client_id":      clientID,
		"payment_method": "cash",
		"items":          []map[string]any{{"product_id": productID, "quantity": 6, "unit_price": 350}},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create sale: %d %v", resp.StatusCode, sale)
	}
	if sale["totalAmount"].(float64) != 2100 {
		t.Fatalf("total: %v", sale["totalAmount"])
	}
	saleID := sale["id"].(float64)

	// 6 of the 4 remaining units: refused with the stock detail.
	resp, refused := e.do(t, http.MethodPost, "/sales", map[string]any{
		"client_id":      clientID,
		"payment_method": "cash",
		"items":          []map[string]any{{"product_id": productID, "quantity": 6, "unit_price": 350}},
	})
	if resp.StatusCode != http.StatusConflict || refused["error"] != "insufficient_stock" {
		t.Fatalf("oversell: %d %v", resp.StatusCode, refused)
	}
	details := refused["details"].(map[string]any)
	if details["available"].(float64) != 4 || details["requested"].(float64) != 6 {
		t.Fatalf("details: %v", details)
	}

	// Credit without an assigned limit is refused before stock moves.
	resp, credit := e.do(t, http.MethodPost, "/sales", map[string]any{
		"client_id":      clientID,
		"payment_method": "credit",
		"items":          []map[string]any{{"product_id": productID, "quantity": 1, "unit_price": 350}},
	})
	if resp.StatusCode != http.StatusConflict || credit["error"] != "credit_not_assigned" {
		t.Fatalf("credit: %d %v", resp.StatusCode, credit)
	}

	// Cancel the sale: stock goes back to 10.
	resp, cancelled := e.do(t, http.MethodPost, fmt.Sprintf("/sales/update?id=%.0f", saleID), map[string]any{"status": "cancelled"})
	if resp.StatusCode != http.StatusOK || cancelled["status"] != "cancelled" {
		t.Fatalf("cancel: %d %v", resp.StatusCode, cancelled)
	}
	var p models.Product
	if err := e.db.First(&p, uint(productID)).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if p.Stock != 10 {
		t.Fatalf("expected stock 10 after cancel, got %g", p.Stock)
	}

	resp, got := e.do(t, http.MethodGet, fmt.Sprintf("/sales/get?id=%.0f", saleID), nil)
	if resp.StatusCode != http.StatusOK || got["status"] != "cancelled" {
		t.Fatalf("get sale: %d %v", resp.StatusCode, got)
	}

	resp, list := e.do(t, http.MethodGet, "/sales", nil)
	if resp.StatusCode != http.StatusOK || list["total"].(float64) != 1 {
		t.Fatalf("list sales: %d %v", resp.StatusCode, list)
	}
}

func TestUnknownClientAndProductOverHTTP(t *testing.T) {
	e := newEnv(t)
	e.signup(t, "vendedor@agro.test")

	resp, body := e.do(t, http.MethodPost, "/sales", map[string]any{
		"client_id":      9999,
		"payment_method": "cash",
		"items":          []map[string]any{{"product_id": 1, "quantity": 1, "unit_price": 10}},
	})
	if resp.StatusCode != http.StatusNotFound || body["error"] != "client_not_found" {
		t.Fatalf("client: %d %v", resp.StatusCode, body)
	}

	resp, client := e.do(t, http.MethodPost, "/clients", map[string]any{
		"name": "Chacra El Ombú", "document_type": "DNI", "document_number": "30111222",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create client: %d %v", resp.StatusCode, client)
	}
	resp, body = e.do(t, http.MethodPost, "/sales", map[string]any{
		"client_id":      client["id"],
		"payment_method": "cash",
		"items":          []map[string]any{{"product_id": 9999, "quantity": 1, "unit_price": 10}},
	})
	if resp.StatusCode != http.StatusNotFound || body["error"] != "product_not_found" {
		t.Fatalf("product: %d %v", resp.StatusCode, body)
	}
}

func TestUserRoutesAreAdminOnly(t *testing.T) {
	e := newEnv(t)
	e.signup(t, "vendedor@agro.test")

	resp, _ := e.do(t, http.MethodGet, "/users", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("plain user on /users: expected 403 got %d", resp.StatusCode)
	}

	// Promote via direct DB access and retry.
	adminRole := models.Role{Name: "admin"}
	if err := e.db.Where(models.Role{Name: "admin"}).FirstOrCreate(&adminRole).Error; err != nil {
		t.Fatalf("admin role: %v", err)
	}
	if err := e.db.Model(&models.User{}).Where("email = ?", "vendedor@agro.test").Update("role_id", adminRole.ID).Error; err != nil {
		t.Fatalf("promote: %v", err)
	}
	resp, body := e.do(t, http.MethodGet, "/users", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin on /users: %d %v", resp.StatusCode, body)
	}
}

func TestLoginAndMe(t *testing.T) {
	e := newEnv(t)
	role := models.Role{Name: "user"}
	if err := e.db.Create(&role).Error; err != nil {
		t.Fatalf("role: %v", err)
	}
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	u := models.User{Email: "ana@agro.test", Password: string(hash), Name: "Ana", RoleID: role.ID}
	if err := e.db.Create(&u).Error; err != nil {
		t.Fatalf("user: %v", err)
	}

	resp, body := e.do(t, http.MethodPost, "/login", map[string]string{"email": "ana@agro.test", "password": "wrong"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad password: %d %v", resp.StatusCode, body)
	}
	resp, body = e.do(t, http.MethodPost, "/login", map[string]string{"email": "Ana@Agro.Test", "password": "secret123"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: %d %v", resp.StatusCode, body)
	}
	resp, body = e.do(t, http.MethodGet, "/me", nil)
	if resp.StatusCode != http.StatusOK || body["email"] != "ana@agro.test" {
		t.Fatalf("me: %d %v", resp.StatusCode, body)
	}

	resp, _ = e.do(t, http.MethodPost, "/logout", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: %d", resp.StatusCode)
	}
	resp, _ = e.do(t, http.MethodGet, "/me", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("me after logout: expected 401 got %d", resp.StatusCode)
	}
}
