package actor

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lawdesk/matterflow/internal/authz"
	"github.com/lawdesk/matterflow/internal/matter"
	"github.com/lawdesk/matterflow/internal/present"
)

// RegisterRoutes mounts the matter formation endpoints.
func RegisterRoutes(r chi.Router, a *Actor, auth authz.Authenticator) {
	r.Route("/api/orgs/{orgID}/matters/{matterID}", func(r chi.Router) {
		r.Post("/advance", handleAdvance(a, auth))
		r.Get("/status", handleStatus(a, auth))
		r.Get("/checklist", handleChecklist(a, auth))
		r.Get("/summary.html", handleSummaryHTML(a, auth))
		r.Get("/present", handlePresent(a, auth))
	})
}

func handleAdvance(a *Actor, auth authz.Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID := chi.URLParam(r, "orgID")
		matterID := chi.URLParam(r, "matterID")

		id, err := auth.Authenticate(r.Context(), r)
		if err != nil {
			writeAuthError(w, err)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "reading request body")
			return
		}

		ev := matter.ParseEvent(body)
		ev.OrganizationID = orgID
		ev.MatterID = matterID
		if key := r.Header.Get("Idempotency-Key"); key != "" {
			ev.IdempotencyKey = key
		}

		resp, err := a.Advance(r.Context(), id, orgID, matterID, ev)
		if err != nil {
			writeActorError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func handleStatus(a *Actor, auth authz.Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := auth.Authenticate(r.Context(), r)
		if err != nil {
			writeAuthError(w, err)
			return
		}

		resp, err := a.Status(r.Context(), id, chi.URLParam(r, "orgID"), chi.URLParam(r, "matterID"))
		if err != nil {
			writeActorError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleChecklist(a *Actor, auth authz.Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := auth.Authenticate(r.Context(), r)
		if err != nil {
			writeAuthError(w, err)
			return
		}

		resp, err := a.Status(r.Context(), id, chi.URLParam(r, "orgID"), chi.URLParam(r, "matterID"))
		if err != nil {
			writeActorError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"checklist": resp.Checklist,
			"stage":     resp.Stage,
			"completed": resp.Completed,
		})
	}
}

func handleSummaryHTML(a *Actor, auth authz.Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := auth.Authenticate(r.Context(), r)
		if err != nil {
			writeAuthError(w, err)
			return
		}

		state, err := a.State(r.Context(), id, chi.URLParam(r, "orgID"), chi.URLParam(r, "matterID"))
		if err != nil {
			writeActorError(w, err)
			return
		}
		if state.CaseBrief == nil {
			writeJSONError(w, http.StatusNotFound, "matter has no case brief yet")
			return
		}

		html, err := present.RenderSummaryHTML(state.CaseBrief)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(html)
	}
}

func handlePresent(a *Actor, auth authz.Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := auth.Authenticate(r.Context(), r)
		if err != nil {
			writeAuthError(w, err)
			return
		}

		state, err := a.State(r.Context(), id, chi.URLParam(r, "orgID"), chi.URLParam(r, "matterID"))
		if err != nil {
			writeActorError(w, err)
			return
		}

		if err := present.StreamSSE(w, state.Stage, state.CaseBrief); err != nil {
			log.Printf("actor: streaming presentation: %v", err)
		}
	}
}

func writeAuthError(w http.ResponseWriter, err error) {
	if errors.Is(err, authz.ErrForbidden) {
		writeJSONError(w, http.StatusForbidden, "forbidden")
		return
	}
	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func writeActorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authz.ErrUnauthorized):
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, authz.ErrForbidden):
		writeJSONError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "matter not found")
	default:
		log.Printf("actor: request failed: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
