package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/comanda-pos/api/internal/closeout"
	"github.com/comanda-pos/api/internal/middleware"
	"github.com/comanda-pos/api/internal/service"
	"github.com/comanda-pos/api/internal/statusflow"
	"github.com/comanda-pos/api/internal/tab"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TabServicer reads table tabs. Satisfied by *service.TabService.
type TabServicer interface {
	Summary(ctx context.Context, establishmentID, tableID uuid.UUID) (*service.TabView, error)
	ListOpen(ctx context.Context, establishmentID uuid.UUID) ([]service.TabView, error)
}

// TabCloser reconciles and closes a tab. Satisfied by *service.CloseOutService.
type TabCloser interface {
	ReconcileAndClose(ctx context.Context, req service.CloseTabRequest) (*service.CloseOutResult, error)
}

// TableHandler handles table tab endpoints.
type TableHandler struct {
	tabs   TabServicer
	closer TabCloser
	log    *logrus.Entry
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(tabs TabServicer, closer TabCloser, log *logrus.Entry) *TableHandler {
	return &TableHandler{tabs: tabs, closer: closer, log: log.WithField("component", "table_handler")}
}

// RegisterRoutes registers table endpoints on the given Chi router.
// Expected to be mounted at /establishments/{eid}/tables.
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.ListOpen)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/close", h.Close)
}

type closeTabRequest struct {
	Payments []paymentRequest `json:"payments" validate:"dive"`
}

type paymentRequest struct {
	Method string `json:"method" validate:"required"`
	Amount string `json:"amount" validate:"required,numeric"`
}

type tabResponse struct {
	TableID     uuid.UUID        `json:"table_id"`
	TableNumber string           `json:"table_number"`
	Status      string           `json:"status"`
	OpenedAt    time.Time        `json:"opened_at"`
	CustomerID  *uuid.UUID       `json:"customer_id"`
	Total       string           `json:"total"`
	OrderCount  int              `json:"order_count"`
	ItemCounts  tab.ItemCounts   `json:"item_counts"`
	Orders      []tabOrderResult `json:"orders"`
}

type tabOrderResult struct {
	ID          uuid.UUID     `json:"id"`
	OrderNumber int32         `json:"order_number"`
	OrderType   string        `json:"order_type"`
	Status      string        `json:"status"`
	Column      string        `json:"column"`
	Total       string        `json:"total"`
	Paid        bool          `json:"paid"`
	Items       []tabItemLine `json:"items"`
}

type tabItemLine struct {
	ProductName string `json:"product_name"`
	Quantity    int32  `json:"quantity"`
	LineTotal   string `json:"line_total"`
}

type tableCloseResponse struct {
	closeOutResponse
	Tab   *tabResponse   `json:"tab,omitempty"`
	Table *tableResponse `json:"table,omitempty"`
}

// ListOpen handles GET /establishments/{eid}/tables.
func (h *TableHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	eid := middleware.EstablishmentFromContext(r.Context())

	views, err := h.tabs.ListOpen(r.Context(), eid)
	if err != nil {
		writeServiceError(w, h.log, "list open tabs", err)
		return
	}

	resp := make([]tabResponse, len(views))
	for i, v := range views {
		resp[i] = toTabResponse(v.Summary, v.Status)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tables": resp})
}

// Get handles GET /establishments/{eid}/tables/{id}.
func (h *TableHandler) Get(w http.ResponseWriter, r *http.Request) {
	eid := middleware.EstablishmentFromContext(r.Context())
	tableID, ok := uuidParam(w, r, "id", "table")
	if !ok {
		return
	}

	view, err := h.tabs.Summary(r.Context(), eid, tableID)
	if err != nil {
		writeServiceError(w, h.log, "get tab", err)
		return
	}
	writeJSON(w, http.StatusOK, toTabResponse(view.Summary, view.Status))
}

// Close handles POST /establishments/{eid}/tables/{id}/close.
func (h *TableHandler) Close(w http.ResponseWriter, r *http.Request) {
	eid := middleware.EstablishmentFromContext(r.Context())
	tableID, ok := uuidParam(w, r, "id", "table")
	if !ok {
		return
	}

	var req closeTabRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	payments := make([]closeout.Payment, len(req.Payments))
	for i, p := range req.Payments {
		amount, err := parseMoney(p.Amount)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		payments[i] = closeout.Payment{Method: p.Method, Amount: amount}
	}

	result, err := h.closer.ReconcileAndClose(r.Context(), service.CloseTabRequest{
		EstablishmentID: eid,
		TableID:         tableID,
		Payments:        payments,
	})
	if err != nil {
		writeServiceError(w, h.log, "close tab", err)
		return
	}

	resp := tableCloseResponse{closeOutResponse: toCloseOutResponse(result)}
	if result.Table != nil {
		t := toTableResponse(*result.Table)
		resp.Table = &t
	}
	if result.Summary != nil {
		status := ""
		if result.Table != nil {
			status = result.Table.Status
		}
		tr := toTabResponse(*result.Summary, status)
		resp.Tab = &tr
	}
	writeJSON(w, http.StatusOK, resp)
}

func toTabResponse(s tab.Summary, status string) tabResponse {
	resp := tabResponse{
		TableID:     s.TableID,
		TableNumber: s.TableNumber,
		Status:      status,
		OpenedAt:    s.OpenedAt,
		CustomerID:  s.CustomerID,
		Total:       s.Total.StringFixed(2),
		OrderCount:  s.OrderCount,
		ItemCounts:  s.ItemCounts,
		Orders:      make([]tabOrderResult, len(s.Orders)),
	}
	for i, o := range s.Orders {
		items := make([]tabItemLine, len(o.Items))
		for j, it := range o.Items {
			items[j] = tabItemLine{ProductName: it.ProductName, Quantity: it.Quantity, LineTotal: it.LineTotal.StringFixed(2)}
		}
		col, _ := statusflow.ColumnFor(o.Status)
		resp.Orders[i] = tabOrderResult{
			ID:          o.ID,
			OrderNumber: o.OrderNumber,
			OrderType:   o.OrderType,
			Status:      o.Status,
			Column:      string(col),
			Total:       o.Total.StringFixed(2),
			Paid:        o.Paid,
			Items:       items,
		}
	}
	return resp
}
