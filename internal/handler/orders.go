package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/middleware"
	"github.com/comanda-pos/api/internal/service"
	"github.com/comanda-pos/api/internal/statusflow"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.OrderDetail, error)
	GetOrder(ctx context.Context, establishmentID, orderID uuid.UUID) (*service.OrderDetail, error)
	ListOrders(ctx context.Context, req service.ListOrdersRequest) ([]database.Order, error)
	Advance(ctx context.Context, req service.AdvanceRequest) (*service.AdvanceResult, error)
	CancelOrder(ctx context.Context, establishmentID, orderID uuid.UUID) (*service.AdvanceResult, error)
}

// OrderCloser pays a standalone order. Satisfied by *service.CloseOutService.
type OrderCloser interface {
	CloseOrder(ctx context.Context, req service.CloseOrderRequest) (*service.CloseOutResult, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc    OrderServicer
	closer OrderCloser
	log    *logrus.Entry
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, closer OrderCloser, log *logrus.Entry) *OrderHandler {
	return &OrderHandler{svc: svc, closer: closer, log: log.WithField("component", "order_handler")}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted inside an establishment-scoped subrouter:
// /establishments/{eid}/orders
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/advance", h.Advance)
	r.Post("/{id}/cancel", h.Cancel)
	r.Post("/{id}/close", h.Close)
}

// --- Request / Response types ---

type createOrderRequest struct {
	OrderType       string                   `json:"order_type" validate:"required,oneof=delivery pickup dine_in"`
	CustomerName    string                   `json:"customer_name" validate:"max=120"`
	CustomerPhone   string                   `json:"customer_phone" validate:"max=40"`
	DeliveryAddress string                   `json:"delivery_address"`
	ScheduledFor    *time.Time               `json:"scheduled_for"`
	PaymentMethod   string                   `json:"payment_method"`
	ChangeFor       string                   `json:"change_for" validate:"omitempty,numeric"`
	Notes           string                   `json:"notes"`
	TableNumber     string                   `json:"table_number" validate:"required_if=OrderType dine_in"`
	Items           []createOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type createOrderItemRequest struct {
	ProductName string                    `json:"product_name" validate:"required"`
	UnitPrice   string                    `json:"unit_price" validate:"required,numeric"`
	Quantity    int32                     `json:"quantity" validate:"gt=0"`
	Observation string                    `json:"observation"`
	Addons      []createOrderAddonRequest `json:"addons" validate:"dive"`
}

type createOrderAddonRequest struct {
	Name      string `json:"name" validate:"required"`
	UnitPrice string `json:"unit_price" validate:"required,numeric"`
	Quantity  int32  `json:"quantity" validate:"gt=0"`
}

type advanceRequest struct {
	To string `json:"to"`
}

type closeOrderRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required"`
}

type orderResponse struct {
	ID              uuid.UUID           `json:"id"`
	EstablishmentID uuid.UUID           `json:"establishment_id"`
	OrderNumber     int32               `json:"order_number"`
	OrderType       string              `json:"order_type"`
	Status          string              `json:"status"`
	Column          string              `json:"column"`
	CustomerName    *string             `json:"customer_name"`
	CustomerPhone   *string             `json:"customer_phone"`
	DeliveryAddress *string             `json:"delivery_address"`
	ScheduledFor    *time.Time          `json:"scheduled_for"`
	Subtotal        string              `json:"subtotal"`
	DeliveryFee     string              `json:"delivery_fee"`
	Total           string              `json:"total"`
	PaymentMethod   *string             `json:"payment_method"`
	ChangeFor       *string             `json:"change_for"`
	Notes           *string             `json:"notes"`
	TableID         *uuid.UUID          `json:"table_id"`
	PaidAt          *time.Time          `json:"paid_at"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	Items           []orderItemResponse `json:"items,omitempty"`
	History         []historyResponse   `json:"history,omitempty"`
	Table           *tableResponse      `json:"table,omitempty"`
}

type orderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductName string          `json:"product_name"`
	UnitPrice   string          `json:"unit_price"`
	Quantity    int32           `json:"quantity"`
	LineTotal   string          `json:"line_total"`
	Observation *string         `json:"observation"`
	Addons      []addonResponse `json:"addons"`
}

type addonResponse struct {
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int32  `json:"quantity"`
}

type historyResponse struct {
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type tableResponse struct {
	ID          uuid.UUID  `json:"id"`
	TableNumber string     `json:"table_number"`
	Status      string     `json:"status"`
	OpenedAt    time.Time  `json:"opened_at"`
	ClosedAt    *time.Time `json:"closed_at"`
}

// orderListResponse wraps a list of orders with pagination metadata.
type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type boardColumnResponse struct {
	Column string          `json:"column"`
	Orders []orderResponse `json:"orders"`
}

type boardResponse struct {
	Columns []boardColumnResponse `json:"columns"`
}

type advanceResponse struct {
	Order   orderResponse          `json:"order"`
	From    string                 `json:"from"`
	Receipt *service.ReceiptResult `json:"receipt,omitempty"`
}

type closeOutResponse struct {
	ID         uuid.UUID       `json:"id"`
	TableID    *uuid.UUID      `json:"table_id"`
	OrderID    *uuid.UUID      `json:"order_id"`
	Target     string          `json:"target"`
	Paid       string          `json:"paid"`
	Remaining  string          `json:"remaining"`
	Payments   json.RawMessage `json:"payments"`
	PaidOrders []orderResponse `json:"paid_orders"`
	CreatedAt  time.Time       `json:"created_at"`
}

// --- Handlers ---

// Create handles POST /establishments/{eid}/orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	eid := middleware.EstablishmentFromContext(r.Context())

	var req createOrderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	svcReq, err := req.toService(eid)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	detail, err := h.svc.CreateOrder(r.Context(), svcReq)
	if err != nil {
		writeServiceError(w, h.log, "create order", err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderDetailResponse(detail))
}

func (req createOrderRequest) toService(eid uuid.UUID) (service.CreateOrderRequest, error) {
	out := service.CreateOrderRequest{
		EstablishmentID: eid,
		OrderType:       req.OrderType,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		DeliveryAddress: req.DeliveryAddress,
		ScheduledFor:    req.ScheduledFor,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
		TableNumber:     req.TableNumber,
		Items:           make([]service.CreateOrderItemRequest, len(req.Items)),
	}
	if req.ChangeFor != "" {
		d, err := parseMoney(req.ChangeFor)
		if err != nil {
			return out, err
		}
		out.ChangeFor = &d
	}
	for i, item := range req.Items {
		price, err := parseMoney(item.UnitPrice)
		if err != nil {
			return out, err
		}
		addons := make([]service.CreateOrderAddonRequest, len(item.Addons))
		for j, a := range item.Addons {
			ap, err := parseMoney(a.UnitPrice)
			if err != nil {
				return out, err
			}
			addons[j] = service.CreateOrderAddonRequest{Name: a.Name, UnitPrice: ap, Quantity: a.Quantity}
		}
		out.Items[i] = service.CreateOrderItemRequest{
			ProductName: item.ProductName,
			UnitPrice:   price,
			Quantity:    item.Quantity,
			Observation: item.Observation,
			Addons:      addons,
		}
	}
	return out, nil
}

// List handles GET /establishments/{eid}/orders.
//
// Query: status, type, since (RFC 3339 or YYYY-MM-DD), limit, offset, and
// view=board to group the result into board columns.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	eid := middleware.EstablishmentFromContext(r.Context())
	q := r.URL.Query()

	limit := 100
	if s := q.Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 500 {
		limit = 500
	}

	offset := 0
	if s := q.Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	req := service.ListOrdersRequest{
		EstablishmentID: eid,
		Status:          q.Get("status"),
		OrderType:       q.Get("type"),
		Limit:           int32(limit),
		Offset:          int32(offset),
	}
	if s := q.Get("since"); s != "" {
		since, err := parseSince(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since, use RFC 3339 or YYYY-MM-DD")
			return
		}
		req.Since = &since
	}

	orders, err := h.svc.ListOrders(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, "list orders", err)
		return
	}

	if q.Get("view") == "board" {
		writeJSON(w, http.StatusOK, toBoardResponse(orders))
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, orderListResponse{Orders: resp, Limit: limit, Offset: offset})
}

func parseSince(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// Get handles GET /establishments/{eid}/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	eid := middleware.EstablishmentFromContext(r.Context())
	orderID, ok := uuidParam(w, r, "id", "order")
	if !ok {
		return
	}

	detail, err := h.svc.GetOrder(r.Context(), eid, orderID)
	if err != nil {
		writeServiceError(w, h.log, "get order", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDetailResponse(detail))
}

// Advance handles POST /establishments/{eid}/orders/{id}/advance.
// An empty body or {"to": ""} moves the order to its next status.
func (h *OrderHandler) Advance(w http.ResponseWriter, r *http.Request) {
	eid := middleware.EstablishmentFromContext(r.Context())
	orderID, ok := uuidParam(w, r, "id", "order")
	if !ok {
		return
	}

	var req advanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.Advance(r.Context(), service.AdvanceRequest{
		EstablishmentID: eid,
		OrderID:         orderID,
		To:              req.To,
	})
	if err != nil {
		writeServiceError(w, h.log, "advance order", err)
		return
	}
	writeJSON(w, http.StatusOK, toAdvanceResponse(result))
}

// Cancel handles POST /establishments/{eid}/orders/{id}/cancel.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	eid := middleware.EstablishmentFromContext(r.Context())
	orderID, ok := uuidParam(w, r, "id", "order")
	if !ok {
		return
	}

	result, err := h.svc.CancelOrder(r.Context(), eid, orderID)
	if err != nil {
		writeServiceError(w, h.log, "cancel order", err)
		return
	}
	writeJSON(w, http.StatusOK, toAdvanceResponse(result))
}

// Close handles POST /establishments/{eid}/orders/{id}/close. The order is
// paid in full with a single method; tab orders are closed through their table.
func (h *OrderHandler) Close(w http.ResponseWriter, r *http.Request) {
	eid := middleware.EstablishmentFromContext(r.Context())
	orderID, ok := uuidParam(w, r, "id", "order")
	if !ok {
		return
	}

	var req closeOrderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.closer.CloseOrder(r.Context(), service.CloseOrderRequest{
		EstablishmentID: eid,
		OrderID:         orderID,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		writeServiceError(w, h.log, "close order", err)
		return
	}
	writeJSON(w, http.StatusOK, toCloseOutResponse(result))
}

// --- Conversion helpers ---

func toOrderResponse(o database.Order) orderResponse {
	resp := orderResponse{
		ID:              o.ID,
		EstablishmentID: o.EstablishmentID,
		OrderNumber:     o.OrderNumber,
		OrderType:       o.OrderType,
		Status:          o.Status,
		CustomerName:    optionalString(o.CustomerName),
		CustomerPhone:   optionalString(o.CustomerPhone),
		DeliveryAddress: optionalString(o.DeliveryAddress),
		Subtotal:        numericToString(o.Subtotal),
		DeliveryFee:     numericToString(o.DeliveryFee),
		Total:           numericToString(o.Total),
		PaymentMethod:   optionalString(o.PaymentMethod),
		ChangeFor:       optionalNumericString(o.ChangeFor),
		Notes:           optionalString(o.Notes),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	if col, ok := statusflow.ColumnFor(o.Status); ok {
		resp.Column = string(col)
	}
	if o.ScheduledFor.Valid {
		t := o.ScheduledFor.Time
		resp.ScheduledFor = &t
	}
	if o.TableID.Valid {
		id := uuid.UUID(o.TableID.Bytes)
		resp.TableID = &id
	}
	if o.PaidAt.Valid {
		t := o.PaidAt.Time
		resp.PaidAt = &t
	}
	return resp
}

func toOrderDetailResponse(d *service.OrderDetail) orderResponse {
	resp := toOrderResponse(d.Order)

	resp.Items = make([]orderItemResponse, len(d.Items))
	for i, it := range d.Items {
		addons := make([]addonResponse, len(it.Addons))
		for j, a := range it.Addons {
			addons[j] = addonResponse{Name: a.Name, UnitPrice: numericToString(a.UnitPrice), Quantity: a.Quantity}
		}
		resp.Items[i] = orderItemResponse{
			ID:          it.Item.ID,
			ProductName: it.Item.ProductName,
			UnitPrice:   numericToString(it.Item.UnitPrice),
			Quantity:    it.Item.Quantity,
			LineTotal:   numericToString(it.Item.LineTotal),
			Observation: optionalString(it.Item.Observation),
			Addons:      addons,
		}
	}

	resp.History = make([]historyResponse, len(d.History))
	for i, hst := range d.History {
		resp.History[i] = historyResponse{Status: hst.Status, CreatedAt: hst.CreatedAt}
	}

	if d.Table != nil {
		t := toTableResponse(*d.Table)
		resp.Table = &t
	}
	return resp
}

func toTableResponse(t database.Table) tableResponse {
	resp := tableResponse{
		ID:          t.ID,
		TableNumber: t.TableNumber,
		Status:      t.Status,
		OpenedAt:    t.OpenedAt,
	}
	if t.ClosedAt.Valid {
		c := t.ClosedAt.Time
		resp.ClosedAt = &c
	}
	return resp
}

func toBoardResponse(orders []database.Order) boardResponse {
	grouped := statusflow.GroupByColumn(orders, func(o database.Order) string { return o.Status })
	resp := boardResponse{Columns: make([]boardColumnResponse, len(statusflow.Columns))}
	for i, col := range statusflow.Columns {
		in := grouped[col]
		out := make([]orderResponse, len(in))
		for j, o := range in {
			out[j] = toOrderResponse(o)
		}
		resp.Columns[i] = boardColumnResponse{Column: string(col), Orders: out}
	}
	return resp
}

func toAdvanceResponse(r *service.AdvanceResult) advanceResponse {
	return advanceResponse{Order: toOrderResponse(r.Order), From: r.From, Receipt: r.Receipt}
}

func toCloseOutResponse(r *service.CloseOutResult) closeOutResponse {
	co := r.CloseOut
	resp := closeOutResponse{
		ID:         co.ID,
		Target:     numericToString(co.Target),
		Paid:       numericToString(co.Paid),
		Remaining:  r.Remaining.StringFixed(2),
		Payments:   json.RawMessage(co.Payments),
		PaidOrders: make([]orderResponse, len(r.PaidOrders)),
		CreatedAt:  co.CreatedAt,
	}
	if len(co.Payments) == 0 {
		resp.Payments = json.RawMessage("[]")
	}
	if co.TableID.Valid {
		id := uuid.UUID(co.TableID.Bytes)
		resp.TableID = &id
	}
	if co.OrderID.Valid {
		id := uuid.UUID(co.OrderID.Bytes)
		resp.OrderID = &id
	}
	for i, o := range r.PaidOrders {
		resp.PaidOrders[i] = toOrderResponse(o)
	}
	return resp
}
