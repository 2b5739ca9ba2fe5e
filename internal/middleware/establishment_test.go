package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/comanda-pos/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func scopedRouter(next http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.Route("/establishments/{eid}", func(r chi.Router) {
		r.Use(middleware.RequireEstablishment)
		r.Get("/ping", next)
	})
	return r
}

func TestRequireEstablishment_SetsContext(t *testing.T) {
	eid := uuid.New()
	var got uuid.UUID
	h := scopedRouter(func(w http.ResponseWriter, r *http.Request) {
		got = middleware.EstablishmentFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/establishments/"+eid.String()+"/ping", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got != eid {
		t.Fatalf("establishment in context = %s, want %s", got, eid)
	}
}

func TestRequireEstablishment_InvalidID(t *testing.T) {
	called := false
	h := scopedRouter(func(w http.ResponseWriter, r *http.Request) { called = true })

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/establishments/not-a-uuid/ping", nil))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if called {
		t.Fatal("handler should not run for an invalid establishment ID")
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
}

func TestEstablishmentFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := middleware.EstablishmentFromContext(req.Context()); got != uuid.Nil {
		t.Fatalf("expected uuid.Nil, got %s", got)
	}
	eid := uuid.New()
	if got := middleware.EstablishmentFromContext(middleware.WithEstablishment(req.Context(), eid)); got != eid {
		t.Fatalf("WithEstablishment: got %s", got)
	}
}

func TestRequestLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	log := logrus.NewEntry(logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(log))
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) })
	r.Get("/missing", func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) })
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) })

	tests := []struct {
		path   string
		status int
		level  logrus.Level
	}{
		{"/ok", http.StatusOK, logrus.InfoLevel},
		{"/missing", http.StatusNotFound, logrus.WarnLevel},
		{"/boom", http.StatusInternalServerError, logrus.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			hook.Reset()
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			entry := hook.LastEntry()
			if entry == nil {
				t.Fatal("no log entry")
			}
			if entry.Level != tt.level {
				t.Errorf("level = %s, want %s", entry.Level, tt.level)
			}
			if entry.Data["status"] != tt.status || entry.Data["path"] != tt.path || entry.Data["method"] != http.MethodGet {
				t.Errorf("fields = %v", entry.Data)
			}
			if entry.Data["request_id"] == "" {
				t.Error("request_id missing")
			}
		})
	}
}
