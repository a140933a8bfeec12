package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/diewo77/agro-gestion/auth"
	"github.com/diewo77/agro-gestion/httpx"
	"github.com/diewo77/agro-gestion/internal/events"
	"github.com/diewo77/agro-gestion/internal/handlers"
	"github.com/diewo77/agro-gestion/internal/models"
	"github.com/diewo77/agro-gestion/internal/services"
	"github.com/diewo77/agro-gestion/internal/store"
	"gorm.io/gorm"
)

// New constructs the root http.Handler with all routes and middlewares applied.
// pub may be nil when no broker is configured.
func New(db *gorm.DB, pub *events.Publisher) http.Handler {
	mux := http.NewServeMux()

	// Configure a user verifier so RequireAuth can ensure the user still exists.
	auth.SetUserVerifier(func(_ context.Context, uid uint) bool {
		var count int64
		if err := db.Model(&models.User{}).Where("id = ?", uid).Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})
	auth.SetRoleResolver(func(_ context.Context, uid uint) (string, bool) {
		var user models.User
		if err := db.Preload("Role").First(&user, uid).Error; err != nil {
			return "", false
		}
		return user.Role.Name, true
	})

	// --- Health endpoints ---
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		// Lightweight DB check (SELECT 1) – detailed errors stay out of the body
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth endpoints
	authHandler := handlers.NewAuthHandler(db)
	authHandler.Register(mux)
	mux.Handle("/me", auth.Middleware(auth.RequireAuth(http.HandlerFunc(authHandler.Me))))

	requireAuth := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(auth.RequireAuth(h))
	}
	requireAdmin := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(auth.RequireAdmin(h))
	}
	listCreate := func(list, create http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				list(w, r)
			case http.MethodPost:
				create(w, r)
			default:
				w.Header().Set("Allow", "GET,POST")
				httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
			}
		}
	}

	// Product endpoints
	ph := handlers.NewProductHandler(db)
	mux.Handle("/products", requireAuth(listCreate(ph.List, ph.Create)))
	mux.Handle("/products/get", requireAuth(ph.Get))
	mux.Handle("/products/update", requireAuth(ph.Update))
	mux.Handle("/products/delete", requireAuth(ph.Delete))
	mux.Handle("/products/low-stock", requireAuth(ph.LowStock))

	// Client endpoints
	ch := handlers.NewClientHandler(db)
	mux.Handle("/clients", requireAuth(listCreate(ch.List, ch.Create)))
	mux.Handle("/clients/get", requireAuth(ch.Get))
	mux.Handle("/clients/update", requireAuth(ch.Update))
	mux.Handle("/clients/delete", requireAuth(ch.Delete))

	// Supplier endpoints
	sph := handlers.NewSupplierHandler(db)
	mux.Handle("/suppliers", requireAuth(listCreate(sph.List, sph.Create)))
	mux.Handle("/suppliers/get", requireAuth(sph.Get))
	mux.Handle("/suppliers/update", requireAuth(sph.Update))
	mux.Handle("/suppliers/delete", requireAuth(sph.Delete))

	// Sale endpoints: the transaction service behind the JSON boundary
	saleSvc := services.NewSaleService(store.NewCatalogStore(db), store.NewPartyStore(db), store.NewLedgerStore(db), pub)
	sh := handlers.NewSaleHandler(saleSvc, store.NewLedgerStore(db))
	mux.Handle("/sales", requireAuth(listCreate(sh.List, sh.Create)))
	mux.Handle("/sales/get", requireAuth(sh.Get))
	mux.Handle("/sales/update", requireAuth(sh.Update))
	mux.Handle("/sales/delete", requireAuth(sh.Delete))

	// User management (admin only)
	uh := handlers.NewUserHandler(db)
	mux.Handle("/users", requireAdmin(listCreate(uh.List, uh.Create)))
	mux.Handle("/users/update", requireAdmin(uh.Update))
	mux.Handle("/users/delete", requireAdmin(uh.Delete))

	// Dashboard
	dh := handlers.NewDashboardHandler(db)
	mux.Handle("/dashboard/summary", requireAuth(dh.Summary))

	return withRecover(withLogging(mux))
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
