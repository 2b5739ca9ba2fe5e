package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/comanda-pos/api/internal/config"
	"github.com/comanda-pos/api/internal/router"
	"github.com/comanda-pos/api/internal/ws"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func newRouter() http.Handler {
	l, _ := test.NewNullLogger()
	log := logrus.NewEntry(l)
	cfg := &config.Config{CORSOrigins: []string{"http://localhost:5173"}}
	return router.New(cfg, router.Services{}, ws.NewHub(log), log)
}

func TestHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	newRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Body.String() != `{"status":"ok","version":"1.0.0"}` {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/establishments/x/orders", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rr := httptest.NewRecorder()
	newRouter().ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("allow origin = %q", got)
	}
}

func TestEstablishmentRoutesRequireValidID(t *testing.T) {
	for _, path := range []string{
		"/establishments/not-a-uuid/orders",
		"/establishments/not-a-uuid/tables",
		"/establishments/not-a-uuid/availability",
		"/establishments/not-a-uuid/preparation-time",
	} {
		rr := httptest.NewRecorder()
		newRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, rr.Code)
		}
	}
}
