package www

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"chefbridge/catalog"
	"chefbridge/chef"
	"chefbridge/dispatch"
	"chefbridge/messaging"
	"chefbridge/store"
)

type Handlers struct {
	db         *store.DB
	dispatcher *dispatch.Dispatcher
	catalog    *catalog.Manager
	chef       *chef.Client
	msg        *messaging.Client
}

func NewRouter(db *store.DB, d *dispatch.Dispatcher, cat *catalog.Manager, chefClient *chef.Client, msg *messaging.Client) http.Handler {
	h := &Handlers{
		db:         db,
		dispatcher: d,
		catalog:    cat,
		chef:       chefClient,
		msg:        msg,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.apiHealthCheck)

		// Tenant-scoped routes
		r.Group(func(r chi.Router) {
			r.Use(h.requireTenant)
			r.Post("/orders", h.apiPlaceOrder)
			r.Get("/orders", h.apiListOrders)
			r.Get("/orders/{id}", h.apiGetOrder)
			r.Get("/orders/{id}/status", h.apiOrderStatus)
			r.Get("/orders/{id}/history", h.apiOrderHistory)
			r.Post("/orders/{id}/cancel", h.apiCancelOrder)
			r.Post("/orders/{id}/served", h.apiMarkServed)
			r.Post("/orders/{id}/pay", h.apiMarkPaid)
			r.Get("/menu", h.apiListMenu)
			r.Get("/tables", h.apiListTables)
		})
	})

	return r
}

type ctxKey int

const tenantKey ctxKey = 0

// requireTenant resolves the tenant from the X-Tenant-ID header. Every
// order and catalog route is tenant-scoped; there is no cross-tenant
// surface.
func (h *Handlers) requireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := r.Header.Get(chef.TenantHeader)
		if tenantID == "" {
			h.jsonError(w, "missing "+chef.TenantHeader+" header", http.StatusBadRequest)
			return
		}
		if _, err := h.db.GetTenant(tenantID); err != nil {
			h.jsonError(w, "unknown tenant", http.StatusNotFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), tenantKey, tenantID)))
	})
}

func tenantFrom(r *http.Request) string {
	tenantID, _ := r.Context().Value(tenantKey).(string)
	return tenantID
}
