package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/comanda-pos/api/internal/availability"
	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/handler"
	"github.com/comanda-pos/api/internal/middleware"
	"github.com/comanda-pos/api/internal/prepestimate"
	"github.com/comanda-pos/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// --- Mock services ---

type mockOrderService struct {
	createFn  func(ctx context.Context, req service.CreateOrderRequest) (*service.OrderDetail, error)
	getFn     func(ctx context.Context, eid, id uuid.UUID) (*service.OrderDetail, error)
	listFn    func(ctx context.Context, req service.ListOrdersRequest) ([]database.Order, error)
	advanceFn func(ctx context.Context, req service.AdvanceRequest) (*service.AdvanceResult, error)
	cancelFn  func(ctx context.Context, eid, id uuid.UUID) (*service.AdvanceResult, error)
}

func (m *mockOrderService) CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.OrderDetail, error) {
	return m.createFn(ctx, req)
}

func (m *mockOrderService) GetOrder(ctx context.Context, eid, id uuid.UUID) (*service.OrderDetail, error) {
	if m.getFn != nil {
		return m.getFn(ctx, eid, id)
	}
	return nil, service.ErrOrderNotFound
}

func (m *mockOrderService) ListOrders(ctx context.Context, req service.ListOrdersRequest) ([]database.Order, error) {
	if m.listFn != nil {
		return m.listFn(ctx, req)
	}
	return []database.Order{}, nil
}

func (m *mockOrderService) Advance(ctx context.Context, req service.AdvanceRequest) (*service.AdvanceResult, error) {
	return m.advanceFn(ctx, req)
}

func (m *mockOrderService) CancelOrder(ctx context.Context, eid, id uuid.UUID) (*service.AdvanceResult, error) {
	return m.cancelFn(ctx, eid, id)
}

type mockCloseOutService struct {
	closeOrderFn func(ctx context.Context, req service.CloseOrderRequest) (*service.CloseOutResult, error)
	closeTabFn   func(ctx context.Context, req service.CloseTabRequest) (*service.CloseOutResult, error)
}

func (m *mockCloseOutService) CloseOrder(ctx context.Context, req service.CloseOrderRequest) (*service.CloseOutResult, error) {
	return m.closeOrderFn(ctx, req)
}

func (m *mockCloseOutService) ReconcileAndClose(ctx context.Context, req service.CloseTabRequest) (*service.CloseOutResult, error) {
	return m.closeTabFn(ctx, req)
}

type mockTabService struct {
	summaryFn  func(ctx context.Context, eid, tableID uuid.UUID) (*service.TabView, error)
	listOpenFn func(ctx context.Context, eid uuid.UUID) ([]service.TabView, error)
}

func (m *mockTabService) Summary(ctx context.Context, eid, tableID uuid.UUID) (*service.TabView, error) {
	return m.summaryFn(ctx, eid, tableID)
}

func (m *mockTabService) ListOpen(ctx context.Context, eid uuid.UUID) ([]service.TabView, error) {
	return m.listOpenFn(ctx, eid)
}

type mockAvailabilityService struct {
	statusFn func(ctx context.Context, eid uuid.UUID) (availability.Status, error)
	slotsFn  func(ctx context.Context, eid uuid.UUID, date string) ([]string, error)
	daysFn   func(ctx context.Context, eid uuid.UUID, count int) ([]availability.AvailableDay, error)
}

func (m *mockAvailabilityService) Status(ctx context.Context, eid uuid.UUID) (availability.Status, error) {
	return m.statusFn(ctx, eid)
}

func (m *mockAvailabilityService) Slots(ctx context.Context, eid uuid.UUID, date string) ([]string, error) {
	return m.slotsFn(ctx, eid, date)
}

func (m *mockAvailabilityService) Days(ctx context.Context, eid uuid.UUID, count int) ([]availability.AvailableDay, error) {
	return m.daysFn(ctx, eid, count)
}

type mockEstimateService struct {
	estimateFn func(ctx context.Context, eid uuid.UUID) (prepestimate.Estimate, error)
}

func (m *mockEstimateService) Estimate(ctx context.Context, eid uuid.UUID) (prepestimate.Estimate, error) {
	return m.estimateFn(ctx, eid)
}

// --- Helpers ---

func nullLog() (*logrus.Entry, *test.Hook) {
	l, hook := test.NewNullLogger()
	return logrus.NewEntry(l), hook
}

// scoped mounts register under /establishments/{eid}/<prefix> the way the
// router does.
func scoped(prefix string, register func(chi.Router)) http.Handler {
	r := chi.NewRouter()
	r.Route("/establishments/{eid}", func(r chi.Router) {
		r.Use(middleware.RequireEstablishment)
		r.Route(prefix, register)
	})
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return out
}

func numeric(s string) pgtype.Numeric {
	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		panic(err)
	}
	return n
}

func testOrder(eid uuid.UUID, status string) database.Order {
	return database.Order{
		ID:              uuid.New(),
		EstablishmentID: eid,
		OrderNumber:     7,
		OrderType:       "delivery",
		Status:          status,
		CustomerName:    pgtype.Text{String: "Ana", Valid: true},
		Subtotal:        numeric("30.25"),
		DeliveryFee:     numeric("5.00"),
		Total:           numeric("35.25"),
	}
}

var _ handler.OrderServicer = (*service.OrderService)(nil)
var _ handler.OrderCloser = (*service.CloseOutService)(nil)
var _ handler.TabCloser = (*service.CloseOutService)(nil)
var _ handler.TabServicer = (*service.TabService)(nil)
var _ handler.AvailabilityServicer = (*service.AvailabilityService)(nil)
var _ handler.EstimateServicer = (*service.EstimateService)(nil)

type logrusHook struct {
	*test.Hook
}

func (h *logrusHook) hasLevel(level logrus.Level) bool {
	for _, e := range h.AllEntries() {
		if e.Level == level {
			return true
		}
	}
	return false
}
