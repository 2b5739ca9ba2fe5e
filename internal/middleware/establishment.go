package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type contextKey string

const establishmentKey contextKey = "establishment_id"

// RequireEstablishment parses the {eid} route parameter and stores it in the
// request context. Whether the establishment exists is left to the services.
func RequireEstablishment(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		eidStr := chi.URLParam(r, "eid")
		if eidStr == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing establishment ID"})
			return
		}

		eid, err := uuid.Parse(eidStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid establishment ID"})
			return
		}

		ctx := context.WithValue(r.Context(), establishmentKey, eid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// EstablishmentFromContext returns the establishment set by
// RequireEstablishment, or uuid.Nil.
func EstablishmentFromContext(ctx context.Context) uuid.UUID {
	eid, _ := ctx.Value(establishmentKey).(uuid.UUID)
	return eid
}

// WithEstablishment returns a copy of ctx scoped to eid.
func WithEstablishment(ctx context.Context, eid uuid.UUID) context.Context {
	return context.WithValue(ctx, establishmentKey, eid)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
