package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/comanda-pos/api/internal/availability"
	"github.com/comanda-pos/api/internal/cache"
	"github.com/comanda-pos/api/internal/closeout"
	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/enum"
	"github.com/comanda-pos/api/internal/events"
	"github.com/comanda-pos/api/internal/printing"
	"github.com/comanda-pos/api/internal/statusflow"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const maxCreateRetries = 3

// Unique constraints a concurrent CreateOrder can trip over.
const (
	orderNumberConstraint = "orders_establishment_id_order_number_key"
	openTableConstraint   = "tables_open_number_key"
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// DB is a connection pool: queries outside a transaction plus Begin.
// Satisfied by *pgxpool.Pool.
type DB interface {
	database.DBTX
	TxBeginner
}

// OrderStore defines the DB methods the order service needs.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	EstablishmentStore
	GetNextOrderNumber(ctx context.Context, establishmentID uuid.UUID) (int32, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	CreateOrderItemAddon(ctx context.Context, arg database.CreateOrderItemAddonParams) (database.OrderItemAddon, error)
	CreateStatusHistory(ctx context.Context, arg database.CreateStatusHistoryParams) (database.OrderStatusHistory, error)
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	ListOrderItemAddonsByOrderItem(ctx context.Context, orderItemID uuid.UUID) ([]database.OrderItemAddon, error)
	ListStatusHistoryByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderStatusHistory, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	GetTable(ctx context.Context, arg database.GetTableParams) (database.Table, error)
	GetOpenTableByNumber(ctx context.Context, arg database.GetOpenTableByNumberParams) (database.Table, error)
	CreateTable(ctx context.Context, arg database.CreateTableParams) (database.Table, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// CreateOrderRequest is the validated input for creating an order. Prices
// come from the caller; the catalog lives outside this service.
type CreateOrderRequest struct {
	EstablishmentID uuid.UUID
	OrderType       string
	CustomerName    string
	CustomerPhone   string
	DeliveryAddress string
	ScheduledFor    *time.Time
	PaymentMethod   string
	ChangeFor       *decimal.Decimal
	Notes           string
	TableNumber     string
	Items           []CreateOrderItemRequest
}

// CreateOrderItemRequest is a single line of the order.
type CreateOrderItemRequest struct {
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int32
	Observation string
	Addons      []CreateOrderAddonRequest
}

// CreateOrderAddonRequest is an addon on an order line, priced per unit of
// the line.
type CreateOrderAddonRequest struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int32
}

// OrderItemDetail is an item with its addons.
type OrderItemDetail struct {
	Item   database.OrderItem
	Addons []database.OrderItemAddon
}

// OrderDetail is an order with everything written alongside it.
type OrderDetail struct {
	Order   database.Order
	Items   []OrderItemDetail
	History []database.OrderStatusHistory
	Table   *database.Table
}

// ListOrdersRequest filters ListOrders. Empty fields do not filter.
type ListOrdersRequest struct {
	EstablishmentID uuid.UUID
	Status          string
	OrderType       string
	Since           *time.Time
	Limit           int32
	Offset          int32
}

// AdvanceRequest moves an order to To. An empty To means the next status in
// the order's flow.
type AdvanceRequest struct {
	EstablishmentID uuid.UUID
	OrderID         uuid.UUID
	To              string
}

// ReceiptResult reports the kitchen receipt produced on confirmation.
type ReceiptResult struct {
	Printed bool   `json:"printed"`
	Text    string `json:"text"`
	Error   string `json:"error,omitempty"`
}

// AdvanceResult is the order after a successful transition.
type AdvanceResult struct {
	Order   database.Order
	From    string
	Receipt *ReceiptResult
}

// OrderService owns order creation and every status change.
type OrderService struct {
	db       DB
	newStore NewOrderStore
	flow     *statusflow.Engine
	inFlight cache.Locker
	printer  printing.Printer
	events   events.Sink
	now      func() time.Time
	log      *logrus.Entry
}

// NewOrderService creates a new OrderService.
func NewOrderService(db DB, newStore NewOrderStore, log *logrus.Entry) *OrderService {
	return &OrderService{
		db:       db,
		newStore: newStore,
		flow:     statusflow.New(log),
		inFlight: cache.NewLocalLocker(),
		now:      time.Now,
		log:      log,
	}
}

// WithPrinter enables receipt printing on confirmation.
func (s *OrderService) WithPrinter(p printing.Printer) *OrderService {
	s.printer = p
	return s
}

// WithPublisher sets where order events go.
func (s *OrderService) WithPublisher(sink events.Sink) *OrderService {
	s.events = sink
	return s
}

// WithClock overrides time.Now.
func (s *OrderService) WithClock(now func() time.Time) *OrderService {
	s.now = now
	return s
}

// lineItem holds a priced order line ready to insert.
type lineItem struct {
	params database.CreateOrderItemParams
	addons []database.CreateOrderItemAddonParams
}

// CreateOrder validates and prices an order and writes it with its items,
// addons and initial history row in one transaction. Dine-in orders are
// attached to the open tab of their table, opening one if needed.
// Retries up to maxCreateRetries times on order-number or open-tab races.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderDetail, error) {
	if !statusflow.IsValidOrderType(req.OrderType) {
		return nil, ErrInvalidOrderType
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	if req.OrderType == enum.OrderTypeDineIn && req.TableNumber == "" {
		return nil, ErrTableRequired
	}

	lines, subtotal, err := priceItems(req.Items)
	if err != nil {
		return nil, err
	}

	est, err := LoadEstablishment(ctx, s.newStore(s.db), req.EstablishmentID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	engine := est.Availability()
	if req.ScheduledFor != nil {
		if err := engine.ValidateScheduledFor(*req.ScheduledFor, now); err != nil {
			return nil, err
		}
	} else if !engine.IsOpenNow(now) {
		return nil, availability.ErrStoreClosed
	}

	if req.PaymentMethod != "" {
		if err := closeout.CheckMethod(req.PaymentMethod, est.Row.PaymentMethods); err != nil {
			return nil, err
		}
	}

	deliveryFee := decimal.Zero
	if req.OrderType == enum.OrderTypeDelivery {
		deliveryFee = est.DeliveryFee
	}

	var lastErr error
	for attempt := 0; attempt < maxCreateRetries; attempt++ {
		detail, err := s.createOrderTx(ctx, req, lines, subtotal, deliveryFee)
		if err == nil {
			s.publish(ctx, enum.EventOrderCreated, req.EstablishmentID, orderEventPayload(detail.Order, "", detail.Order.Status))
			return detail, nil
		}
		if isUniqueViolation(err, orderNumberConstraint, openTableConstraint) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// priceItems computes each line total as
// (unit_price + Σ addon unit_price × addon quantity) × quantity.
func priceItems(items []CreateOrderItemRequest) ([]lineItem, decimal.Decimal, error) {
	subtotal := decimal.Zero
	lines := make([]lineItem, 0, len(items))

	for i, item := range items {
		if item.Quantity <= 0 {
			return nil, decimal.Zero, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		if item.UnitPrice.IsNegative() {
			return nil, decimal.Zero, fmt.Errorf("item[%d]: %w", i, ErrInvalidPrice)
		}

		unit := item.UnitPrice
		var addons []database.CreateOrderItemAddonParams
		for j, a := range item.Addons {
			if a.Quantity <= 0 {
				return nil, decimal.Zero, fmt.Errorf("item[%d].addons[%d]: %w", i, j, ErrInvalidQuantity)
			}
			if a.UnitPrice.IsNegative() {
				return nil, decimal.Zero, fmt.Errorf("item[%d].addons[%d]: %w", i, j, ErrInvalidPrice)
			}
			unit = unit.Add(a.UnitPrice.Mul(decimal.NewFromInt32(a.Quantity)))
			addons = append(addons, database.CreateOrderItemAddonParams{
				Name:      a.Name,
				UnitPrice: decimalToNumeric(a.UnitPrice),
				Quantity:  a.Quantity,
			})
		}

		lineTotal := unit.Mul(decimal.NewFromInt32(item.Quantity))
		subtotal = subtotal.Add(lineTotal)

		lines = append(lines, lineItem{
			params: database.CreateOrderItemParams{
				ProductName: item.ProductName,
				UnitPrice:   decimalToNumeric(item.UnitPrice),
				Quantity:    item.Quantity,
				LineTotal:   decimalToNumeric(lineTotal),
				Observation: optionalText(item.Observation),
			},
			addons: addons,
		})
	}
	return lines, subtotal, nil
}

// createOrderTx executes the full order creation in a single transaction.
func (s *OrderService) createOrderTx(ctx context.Context, req CreateOrderRequest, lines []lineItem, subtotal, deliveryFee decimal.Decimal) (*OrderDetail, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	nextNum, err := store.GetNextOrderNumber(ctx, req.EstablishmentID)
	if err != nil {
		return nil, fmt.Errorf("get next order number: %w", err)
	}

	var table *database.Table
	tableID := pgtype.UUID{}
	if req.OrderType == enum.OrderTypeDineIn {
		t, err := openTab(ctx, store, req.EstablishmentID, req.TableNumber)
		if err != nil {
			return nil, err
		}
		table = &t
		tableID = optionalUUID(t.ID)
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		EstablishmentID: req.EstablishmentID,
		OrderNumber:     nextNum,
		OrderType:       req.OrderType,
		Status:          enum.OrderStatusPending,
		CustomerName:    optionalText(req.CustomerName),
		CustomerPhone:   optionalText(req.CustomerPhone),
		DeliveryAddress: optionalText(req.DeliveryAddress),
		ScheduledFor:    optionalTime(req.ScheduledFor),
		Subtotal:        decimalToNumeric(subtotal),
		DeliveryFee:     decimalToNumeric(deliveryFee),
		Total:           decimalToNumeric(subtotal.Add(deliveryFee)),
		PaymentMethod:   optionalText(req.PaymentMethod),
		ChangeFor:       optionalNumeric(req.ChangeFor),
		Notes:           optionalText(req.Notes),
		TableID:         tableID,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	items := make([]OrderItemDetail, 0, len(lines))
	for _, li := range lines {
		li.params.OrderID = order.ID
		item, err := store.CreateOrderItem(ctx, li.params)
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}

		var addons []database.OrderItemAddon
		for _, a := range li.addons {
			a.OrderItemID = item.ID
			addon, err := store.CreateOrderItemAddon(ctx, a)
			if err != nil {
				return nil, fmt.Errorf("create order item addon: %w", err)
			}
			addons = append(addons, addon)
		}
		items = append(items, OrderItemDetail{Item: item, Addons: addons})
	}

	history, err := store.CreateStatusHistory(ctx, database.CreateStatusHistoryParams{
		OrderID: order.ID,
		Status:  order.Status,
	})
	if err != nil {
		return nil, fmt.Errorf("create status history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &OrderDetail{
		Order:   order,
		Items:   items,
		History: []database.OrderStatusHistory{history},
		Table:   table,
	}, nil
}

// openTab returns the open tab for tableNumber, opening one if none exists.
func openTab(ctx context.Context, store OrderStore, establishmentID uuid.UUID, tableNumber string) (database.Table, error) {
	t, err := store.GetOpenTableByNumber(ctx, database.GetOpenTableByNumberParams{
		EstablishmentID: establishmentID,
		TableNumber:     tableNumber,
	})
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return database.Table{}, fmt.Errorf("get open table: %w", err)
	}

	t, err = store.CreateTable(ctx, database.CreateTableParams{
		EstablishmentID: establishmentID,
		TableNumber:     tableNumber,
	})
	if err != nil {
		return database.Table{}, fmt.Errorf("open table: %w", err)
	}
	return t, nil
}

// GetOrder returns an order with its items, addons, history and table.
func (s *OrderService) GetOrder(ctx context.Context, establishmentID, orderID uuid.UUID) (*OrderDetail, error) {
	store := s.newStore(s.db)

	order, err := store.GetOrder(ctx, database.GetOrderParams{ID: orderID, EstablishmentID: establishmentID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := loadItems(ctx, store, order.ID)
	if err != nil {
		return nil, err
	}

	history, err := store.ListStatusHistoryByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list status history: %w", err)
	}

	detail := &OrderDetail{Order: order, Items: items, History: history}
	if order.TableID.Valid {
		t, err := store.GetTable(ctx, database.GetTableParams{ID: order.TableID.Bytes, EstablishmentID: establishmentID})
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get table: %w", err)
		}
		if err == nil {
			detail.Table = &t
		}
	}
	return detail, nil
}

func loadItems(ctx context.Context, store OrderStore, orderID uuid.UUID) ([]OrderItemDetail, error) {
	items, err := store.ListOrderItemsByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	out := make([]OrderItemDetail, 0, len(items))
	for _, it := range items {
		addons, err := store.ListOrderItemAddonsByOrderItem(ctx, it.ID)
		if err != nil {
			return nil, fmt.Errorf("list order item addons: %w", err)
		}
		out = append(out, OrderItemDetail{Item: it, Addons: addons})
	}
	return out, nil
}

// ListOrders returns orders newest first.
func (s *OrderService) ListOrders(ctx context.Context, req ListOrdersRequest) ([]database.Order, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}
	orders, err := s.newStore(s.db).ListOrders(ctx, database.ListOrdersParams{
		EstablishmentID: req.EstablishmentID,
		Status:          optionalText(req.Status),
		OrderType:       optionalText(req.OrderType),
		Since:           optionalTime(req.Since),
		Limit:           limit,
		Offset:          req.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Advance is the only way an order's status changes.
//
// When the target is confirmed and the establishment has a printer, the print
// target is opened before anything is written; a failed write releases it.
// The status update is conditional on the status that was read, so a
// concurrent change surfaces as ErrStatusConflict instead of being
// overwritten. Printer failures never fail the transition.
func (s *OrderService) Advance(ctx context.Context, req AdvanceRequest) (*AdvanceResult, error) {
	release, err := s.inFlight.Acquire(ctx, "order:"+req.OrderID.String(), 0)
	if err != nil {
		if errors.Is(err, cache.ErrLocked) {
			return nil, ErrTransitionInFlight
		}
		return nil, err
	}
	defer release()

	store := s.newStore(s.db)
	order, err := store.GetOrder(ctx, database.GetOrderParams{ID: req.OrderID, EstablishmentID: req.EstablishmentID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	from := order.Status
	to := req.To
	if to == "" {
		next, ok := s.flow.NextStatus(order.OrderType, from)
		if !ok {
			return nil, &statusflow.TransitionError{OrderType: order.OrderType, From: from, To: "(next)"}
		}
		to = next
	}
	if err := s.flow.ValidateTransition(order.OrderType, from, to); err != nil {
		return nil, err
	}
	if to == enum.OrderStatusCancelled && order.PaidAt.Valid {
		return nil, ErrOrderAlreadyPaid
	}

	log := s.log.WithFields(logrus.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"from":         from,
		"to":           to,
	})

	var est *Establishment
	var target printing.Target
	var printErr error
	if to == enum.OrderStatusConfirmed {
		est, err = LoadEstablishment(ctx, store, req.EstablishmentID)
		if err != nil {
			return nil, err
		}
		if name := est.PrinterName(); name != "" && s.printer != nil {
			target, printErr = s.printer.Open(ctx, name)
			if printErr != nil {
				log.WithError(printErr).Warn("open print target")
			}
		}
	}

	updated, err := s.transition(ctx, order, to)
	if err != nil {
		if target != nil {
			target.Release()
		}
		return nil, err
	}

	result := &AdvanceResult{Order: updated, From: from}
	if to == enum.OrderStatusConfirmed {
		result.Receipt = s.printReceipt(ctx, est, updated, target, printErr, log)
	}

	log.Info("order status changed")
	s.publish(ctx, enum.EventOrderStatusChanged, updated.EstablishmentID, orderEventPayload(updated, from, to))
	return result, nil
}

// CancelOrder cancels a non-terminal order that has not been paid.
func (s *OrderService) CancelOrder(ctx context.Context, establishmentID, orderID uuid.UUID) (*AdvanceResult, error) {
	return s.Advance(ctx, AdvanceRequest{
		EstablishmentID: establishmentID,
		OrderID:         orderID,
		To:              enum.OrderStatusCancelled,
	})
}

// transition writes the new status and its history row atomically.
func (s *OrderService) transition(ctx context.Context, order database.Order, to string) (database.Order, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	updated, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:              order.ID,
		EstablishmentID: order.EstablishmentID,
		Status:          to,
		Status_2:        order.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrStatusConflict
		}
		return database.Order{}, fmt.Errorf("update order status: %w", err)
	}

	if _, err := store.CreateStatusHistory(ctx, database.CreateStatusHistoryParams{
		OrderID: updated.ID,
		Status:  to,
	}); err != nil {
		return database.Order{}, fmt.Errorf("create status history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}
	return updated, nil
}

// printReceipt renders the receipt and sends it to target when one was
// opened. The rendered text is always returned for client-side printing.
func (s *OrderService) printReceipt(ctx context.Context, est *Establishment, order database.Order, target printing.Target, openErr error, log *logrus.Entry) *ReceiptResult {
	if target != nil {
		defer target.Release()
	}

	store := s.newStore(s.db)
	receipt, err := s.buildReceipt(ctx, store, est, order)
	if err != nil {
		log.WithError(err).Error("build receipt")
		return &ReceiptResult{Error: err.Error()}
	}
	data := printing.Render(receipt)
	res := &ReceiptResult{Text: string(data)}

	switch {
	case openErr != nil:
		res.Error = openErr.Error()
	case target != nil:
		if err := target.Print(ctx, data); err != nil {
			log.WithError(err).Warn("print receipt")
			res.Error = err.Error()
		} else {
			res.Printed = true
		}
	}
	return res
}

func (s *OrderService) buildReceipt(ctx context.Context, store OrderStore, est *Establishment, order database.Order) (printing.Receipt, error) {
	items, err := loadItems(ctx, store, order.ID)
	if err != nil {
		return printing.Receipt{}, err
	}

	r := printing.Receipt{
		EstablishmentName: est.Row.Name,
		OrderNumber:       order.OrderNumber,
		OrderType:         order.OrderType,
		CreatedAt:         order.CreatedAt.In(est.Location),
		CustomerName:      order.CustomerName.String,
		CustomerPhone:     order.CustomerPhone.String,
		DeliveryAddress:   order.DeliveryAddress.String,
		Subtotal:          numericToDecimal(order.Subtotal),
		DeliveryFee:       numericToDecimal(order.DeliveryFee),
		Total:             numericToDecimal(order.Total),
		PaymentMethod:     order.PaymentMethod.String,
		Notes:             order.Notes.String,
	}
	if order.ScheduledFor.Valid {
		t := order.ScheduledFor.Time.In(est.Location)
		r.ScheduledFor = &t
	}
	if order.ChangeFor.Valid {
		c := numericToDecimal(order.ChangeFor)
		r.ChangeFor = &c
	}
	if order.TableID.Valid {
		t, err := store.GetTable(ctx, database.GetTableParams{ID: order.TableID.Bytes, EstablishmentID: order.EstablishmentID})
		if err == nil {
			r.TableNumber = t.TableNumber
		}
	}

	for _, it := range items {
		ri := printing.ReceiptItem{
			Name:        it.Item.ProductName,
			Quantity:    it.Item.Quantity,
			LineTotal:   numericToDecimal(it.Item.LineTotal),
			Observation: it.Item.Observation.String,
		}
		for _, a := range it.Addons {
			ri.Addons = append(ri.Addons, printing.ReceiptAddon{Name: a.Name, Quantity: a.Quantity})
		}
		r.Items = append(r.Items, ri)
	}
	return r, nil
}

// OrderEvent is the payload of order events.
type OrderEvent struct {
	OrderID     uuid.UUID  `json:"order_id"`
	OrderNumber int32      `json:"order_number"`
	OrderType   string     `json:"order_type"`
	From        string     `json:"from,omitempty"`
	Status      string     `json:"status"`
	TableID     *uuid.UUID `json:"table_id,omitempty"`
	Total       string     `json:"total"`
}

func orderEventPayload(o database.Order, from, to string) OrderEvent {
	e := OrderEvent{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		OrderType:   o.OrderType,
		From:        from,
		Status:      to,
		Total:       numericToDecimal(o.Total).StringFixed(2),
	}
	if o.TableID.Valid {
		id := uuid.UUID(o.TableID.Bytes)
		e.TableID = &id
	}
	return e
}

func (s *OrderService) publish(ctx context.Context, eventType string, establishmentID uuid.UUID, payload interface{}) {
	publishEvent(ctx, s.events, s.log, eventType, establishmentID, payload)
}

func publishEvent(ctx context.Context, sink events.Sink, log *logrus.Entry, eventType string, establishmentID uuid.UUID, payload interface{}) {
	if sink == nil {
		return
	}
	err := sink.Publish(ctx, events.Event{
		Type:            eventType,
		EstablishmentID: establishmentID,
		Payload:         payload,
	})
	if err != nil {
		log.WithError(err).WithField("event", eventType).Warn("publish event")
	}
}
