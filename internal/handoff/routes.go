package handoff

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lawdesk/matterflow/internal/authz"
)

// RegisterRoutes mounts handoff endpoints under /api/handoffs. Results are
// always scoped to the authenticated caller's organization.
func RegisterRoutes(r chi.Router, store *Store, auth authz.Authenticator) {
	r.Route("/api/handoffs", func(r chi.Router) {
		r.Get("/", handleList(store, auth))
	})
}

func handleList(store *Store, auth authz.Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := auth.Authenticate(r.Context(), r)
		if err != nil {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}

		q := r.URL.Query()

		// The caller's organization wins over any query parameter.
		filter := ListFilter{
			OrganizationID: id.OrganizationID,
			MatterID:       q.Get("matter_id"),
		}
		if v := q.Get("delivered"); v != "" {
			delivered := v == "true" || v == "1"
			filter.Delivered = &delivered
		}
		if v := q.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Limit = n
			}
		}

		notifications, err := store.List(r.Context(), filter)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if notifications == nil {
			notifications = []Notification{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(notifications)
	}
}
