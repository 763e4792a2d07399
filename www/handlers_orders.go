package www

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"chefbridge/chef"
	"chefbridge/dispatch"
)

func (h *Handlers) apiPlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req dispatch.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Items) == 0 {
		h.jsonError(w, "order has no items", http.StatusBadRequest)
		return
	}

	result, err := h.dispatcher.PlaceOrder(r.Context(), tenantFrom(r), &req)
	if err != nil {
		switch {
		case errors.Is(err, dispatch.ErrNoValidItems):
			h.jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, dispatch.ErrNoTables):
			h.jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		case chef.IsUnavailable(err):
			h.jsonError(w, "kitchen service unavailable", http.StatusBadGateway)
		default:
			h.jsonError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(result)
}

func (h *Handlers) apiListOrders(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	orders, err := h.db.ListOrders(tenantFrom(r), status, limit)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, orders)
}

func (h *Handlers) apiGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	order, err := h.db.GetOrder(tenantFrom(r), id)
	if errors.Is(err, sql.ErrNoRows) {
		h.jsonError(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, order)
}

// apiOrderStatus refreshes the order from the kitchen service when it
// is still in flight there.
func (h *Handlers) apiOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	order, err := h.dispatcher.OrderStatus(r.Context(), tenantFrom(r), id)
	if errors.Is(err, sql.ErrNoRows) {
		h.jsonError(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, order)
}

func (h *Handlers) apiOrderHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	if _, err := h.db.GetOrder(tenantFrom(r), id); err != nil {
		h.jsonError(w, "not found", http.StatusNotFound)
		return
	}
	history, err := h.db.ListOrderHistory(id)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, history)
}

func (h *Handlers) apiCancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&body)
	}

	order, err := h.dispatcher.Cancel(r.Context(), tenantFrom(r), id, body.Reason)
	if err != nil {
		h.transitionError(w, err)
		return
	}
	h.jsonOK(w, order)
}

// transitionError maps a failed order transition onto a status code:
// unknown order 404, lifecycle conflict 409, kitchen unreachable 502,
// anything else 500.
func (h *Handlers) transitionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		h.jsonError(w, "not found", http.StatusNotFound)
	case errors.Is(err, dispatch.ErrInvalidTransition):
		h.jsonError(w, err.Error(), http.StatusConflict)
	case chef.IsUnavailable(err):
		h.jsonError(w, "kitchen service unavailable", http.StatusBadGateway)
	default:
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handlers) apiMarkServed(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	order, err := h.dispatcher.MarkServed(r.Context(), tenantFrom(r), id)
	if err != nil {
		h.transitionError(w, err)
		return
	}
	h.jsonOK(w, order)
}

func (h *Handlers) apiMarkPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	order, err := h.dispatcher.MarkPaid(r.Context(), tenantFrom(r), id)
	if err != nil {
		h.transitionError(w, err)
		return
	}
	h.jsonOK(w, order)
}

func (h *Handlers) orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
