package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gdg-garage/mess-billing/internal/auth"
)

var cookieAuth = func(o *huma.Operation) {
	o.Security = []map[string][]string{{"cookieAuth": {}}, {"apiKeyAuth": {}}}
}

// RegisterRoutes mounts the API on r. A nil metrics handler leaves
// /metrics unmounted.
func RegisterRoutes(r *chi.Mux, authHandler *auth.AuthHandler, messHandler *MessHandler, apiKeyHandler *APIKeyHandler, metrics http.Handler) huma.API {
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(authHandler.Session)

	// Initialize Huma API
	config := huma.DefaultConfig("Mess Billing API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: auth.CookieName,
		},
		"apiKeyAuth": {
			Type: "apiKey",
			In:   "header",
			Name: "X-API-KEY",
		},
	}
	api := humachi.New(r, config)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Get("/auth/discord/login", authHandler.HandleLogin)
	r.Get("/auth/discord/callback", authHandler.HandleCallback)

	if metrics != nil {
		r.With(authHandler.RequireAdmin).Handle("/metrics", metrics)
	}

	// Member routes
	huma.Get(api, "/me", authHandler.HandleMe, cookieAuth)
	huma.Get(api, "/home", messHandler.HandleHome, cookieAuth)
	huma.Get(api, "/bills", messHandler.HandleMyBills, cookieAuth)
	huma.Get(api, "/bills/{id}", messHandler.HandleBillDetail, cookieAuth)
	huma.Get(api, "/attendance/history", messHandler.HandleHistory, cookieAuth)
	huma.Get(api, "/api-keys", apiKeyHandler.HandleList, cookieAuth)
	huma.Post(api, "/api-keys", apiKeyHandler.HandleCreate, cookieAuth)
	huma.Delete(api, "/api-keys/{id}", apiKeyHandler.HandleDelete, cookieAuth)

	// Admin routes
	huma.Get(api, "/admin/attendance", messHandler.HandleBoard, cookieAuth)
	huma.Post(api, "/admin/attendance", messHandler.HandleMarkAttendance, cookieAuth)
	huma.Post(api, "/admin/attendance/auto-mark-drinks", messHandler.HandleAutoMarkDrinks, cookieAuth)
	huma.Post(api, "/admin/bills/generate", messHandler.HandleGenerateBills, cookieAuth)
	huma.Get(api, "/admin/bills", messHandler.HandleAllBills, cookieAuth)
	huma.Get(api, "/admin/bills/monthly", messHandler.HandleMonthlyReport, cookieAuth)
	huma.Post(api, "/admin/bills/{id}/paid", messHandler.HandleMarkPaid, cookieAuth)
	huma.Post(api, "/admin/bills/{id}/unpaid", messHandler.HandleMarkUnpaid, cookieAuth)
	huma.Delete(api, "/admin/bills/{id}", messHandler.HandleDeleteBill, cookieAuth)
	huma.Get(api, "/admin/dashboard", messHandler.HandleDashboard, cookieAuth)
	huma.Get(api, "/admin/menu", messHandler.HandleListMenu, cookieAuth)
	huma.Post(api, "/admin/menu", messHandler.HandleAddMenuItem, cookieAuth)
	huma.Put(api, "/admin/menu/{id}", messHandler.HandleUpdateMenuItem, cookieAuth)
	huma.Delete(api, "/admin/menu/{id}", messHandler.HandleDeleteMenuItem, cookieAuth)

	return api
}
