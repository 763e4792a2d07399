package www

import (
	"net/http"
)

func (h *Handlers) apiListMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.Menu(r.Context(), tenantFrom(r))
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, items)
}

func (h *Handlers) apiListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.catalog.Tables(r.Context(), tenantFrom(r))
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, tables)
}

func (h *Handlers) apiHealthCheck(w http.ResponseWriter, r *http.Request) {
	healthy, checkedAt := h.chef.Health().Snapshot()
	resp := map[string]any{
		"status":        "ok",
		"kitchen":       healthy,
		"kitchen_since": checkedAt,
	}
	if h.msg != nil {
		resp["messaging"] = h.msg.IsConnected()
	}
	h.jsonOK(w, resp)
}
