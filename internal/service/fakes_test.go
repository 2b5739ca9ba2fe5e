package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/enum"
	"github.com/comanda-pos/api/internal/events"
	"github.com/comanda-pos/api/internal/printing"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// --- Mock implementations ---

// mockTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
type mockTx struct {
	commitErr error
	commits   int
	rollbacks int
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	m.commits++
	return nil
}
func (m *mockTx) Rollback(ctx context.Context) error {
	m.rollbacks++
	return nil
}
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockPool implements DB. Queries go through the fake store, never here.
type mockPool struct {
	tx       *mockTx
	beginErr error
}

func (m *mockPool) Begin(ctx context.Context) (pgx.Tx, error) {
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	return m.tx, nil
}
func (m *mockPool) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}

// fakeStore is an in-memory stand-in for *database.Queries. It implements
// every store interface of the package. Transactions are not isolated:
// tests that need "nothing written" assert that no write was attempted.
type fakeStore struct {
	mu sync.Mutex

	establishments map[uuid.UUID]database.Establishment
	orders         map[uuid.UUID]database.Order
	items          map[uuid.UUID][]database.OrderItem
	addons         map[uuid.UUID][]database.OrderItemAddon
	history        map[uuid.UUID][]database.OrderStatusHistory
	tables         map[uuid.UUID]database.Table
	closeOuts      []database.CloseOut
	timings        []database.ListOrderTimingsRow

	clock time.Time
	calls []string

	// Fault injection.
	createOrderErrs  []error
	beforeUpdate     func(arg database.UpdateOrderStatusParams)
	markPaidErr      error
	getEstablishErr  error
	listTimingsCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		establishments: map[uuid.UUID]database.Establishment{},
		orders:         map[uuid.UUID]database.Order{},
		items:          map[uuid.UUID][]database.OrderItem{},
		addons:         map[uuid.UUID][]database.OrderItemAddon{},
		history:        map[uuid.UUID][]database.OrderStatusHistory{},
		tables:         map[uuid.UUID]database.Table{},
		clock:          time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStore) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeStore) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeStore) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeStore) GetEstablishment(ctx context.Context, id uuid.UUID) (database.Establishment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getEstablishErr != nil {
		return database.Establishment{}, f.getEstablishErr
	}
	e, ok := f.establishments[id]
	if !ok {
		return database.Establishment{}, pgx.ErrNoRows
	}
	return e, nil
}

func (f *fakeStore) ListAutoEstimateEstablishments(ctx context.Context) ([]database.Establishment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []database.Establishment{}
	for _, e := range f.establishments {
		if e.PrepTimeMode == enum.PrepTimeModeAutoDaily {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) GetNextOrderNumber(ctx context.Context, establishmentID uuid.UUID) (int32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var max int32
	for _, o := range f.orders {
		if o.EstablishmentID == establishmentID && o.OrderNumber > max {
			max = o.OrderNumber
		}
	}
	return max + 1, nil
}

func (f *fakeStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create_order")
	if len(f.createOrderErrs) > 0 {
		err := f.createOrderErrs[0]
		f.createOrderErrs = f.createOrderErrs[1:]
		if err != nil {
			return database.Order{}, err
		}
	}
	now := f.tick()
	o := database.Order{
		ID:              uuid.New(),
		EstablishmentID: arg.EstablishmentID,
		OrderNumber:     arg.OrderNumber,
		OrderType:       arg.OrderType,
		Status:          arg.Status,
		CustomerName:    arg.CustomerName,
		CustomerPhone:   arg.CustomerPhone,
		DeliveryAddress: arg.DeliveryAddress,
		ScheduledFor:    arg.ScheduledFor,
		Subtotal:        arg.Subtotal,
		DeliveryFee:     arg.DeliveryFee,
		Total:           arg.Total,
		PaymentMethod:   arg.PaymentMethod,
		ChangeFor:       arg.ChangeFor,
		Notes:           arg.Notes,
		TableID:         arg.TableID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeStore) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it := database.OrderItem{
		ID:          uuid.New(),
		OrderID:     arg.OrderID,
		ProductName: arg.ProductName,
		UnitPrice:   arg.UnitPrice,
		Quantity:    arg.Quantity,
		LineTotal:   arg.LineTotal,
		Observation: arg.Observation,
	}
	f.items[arg.OrderID] = append(f.items[arg.OrderID], it)
	return it, nil
}

func (f *fakeStore) CreateOrderItemAddon(ctx context.Context, arg database.CreateOrderItemAddonParams) (database.OrderItemAddon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := database.OrderItemAddon{
		ID:          uuid.New(),
		OrderItemID: arg.OrderItemID,
		Name:        arg.Name,
		UnitPrice:   arg.UnitPrice,
		Quantity:    arg.Quantity,
	}
	f.addons[arg.OrderItemID] = append(f.addons[arg.OrderItemID], a)
	return a, nil
}

func (f *fakeStore) CreateStatusHistory(ctx context.Context, arg database.CreateStatusHistoryParams) (database.OrderStatusHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h := database.OrderStatusHistory{ID: uuid.New(), OrderID: arg.OrderID, Status: arg.Status, CreatedAt: f.tick()}
	f.history[arg.OrderID] = append(f.history[arg.OrderID], h)
	return h, nil
}

func (f *fakeStore) GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[arg.ID]
	if !ok || o.EstablishmentID != arg.EstablishmentID {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (f *fakeStore) sortedOrders(keep func(database.Order) bool) []database.Order {
	out := []database.Order{}
	for _, o := range f.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (f *fakeStore) ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	asc := f.sortedOrders(func(o database.Order) bool {
		return o.EstablishmentID == arg.EstablishmentID &&
			(!arg.Status.Valid || o.Status == arg.Status.String) &&
			(!arg.OrderType.Valid || o.OrderType == arg.OrderType.String) &&
			(!arg.Since.Valid || !o.CreatedAt.Before(arg.Since.Time))
	})
	out := []database.Order{}
	for i := len(asc) - 1 - int(arg.Offset); i >= 0 && len(out) < int(arg.Limit); i-- {
		out = append(out, asc[i])
	}
	return out, nil
}

func (f *fakeStore) ListOrdersByTable(ctx context.Context, tableID pgtype.UUID) ([]database.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sortedOrders(func(o database.Order) bool {
		return o.TableID.Valid && o.TableID.Bytes == tableID.Bytes
	}), nil
}

func (f *fakeStore) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]database.OrderItem{}, f.items[orderID]...), nil
}

func (f *fakeStore) ListOrderItemAddonsByOrderItem(ctx context.Context, orderItemID uuid.UUID) ([]database.OrderItemAddon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]database.OrderItemAddon{}, f.addons[orderItemID]...), nil
}

func (f *fakeStore) ListStatusHistoryByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderStatusHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]database.OrderStatusHistory{}, f.history[orderID]...), nil
}

func (f *fakeStore) UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
	if f.beforeUpdate != nil {
		f.beforeUpdate(arg)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("update_status")
	o, ok := f.orders[arg.ID]
	if !ok || o.EstablishmentID != arg.EstablishmentID || o.Status != arg.Status_2 {
		return database.Order{}, pgx.ErrNoRows
	}
	if arg.Status == enum.OrderStatusCancelled && o.PaidAt.Valid {
		return database.Order{}, pgx.ErrNoRows
	}
	o.Status = arg.Status
	o.UpdatedAt = f.tick()
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeStore) MarkOrderPaid(ctx context.Context, arg database.MarkOrderPaidParams) (database.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("mark_paid")
	if f.markPaidErr != nil {
		return database.Order{}, f.markPaidErr
	}
	o, ok := f.orders[arg.ID]
	if !ok || o.EstablishmentID != arg.EstablishmentID || o.PaidAt.Valid || o.Status == enum.OrderStatusCancelled {
		return database.Order{}, pgx.ErrNoRows
	}
	o.PaidAt = pgtype.Timestamptz{Time: f.tick(), Valid: true}
	if arg.PaymentMethod.Valid {
		o.PaymentMethod = arg.PaymentMethod
	}
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeStore) GetTable(ctx context.Context, arg database.GetTableParams) (database.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tables[arg.ID]
	if !ok || t.EstablishmentID != arg.EstablishmentID {
		return database.Table{}, pgx.ErrNoRows
	}
	return t, nil
}

func (f *fakeStore) GetTableForUpdate(ctx context.Context, arg database.GetTableForUpdateParams) (database.Table, error) {
	return f.GetTable(ctx, database.GetTableParams{ID: arg.ID, EstablishmentID: arg.EstablishmentID})
}

func (f *fakeStore) GetOpenTableByNumber(ctx context.Context, arg database.GetOpenTableByNumberParams) (database.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tables {
		if t.EstablishmentID == arg.EstablishmentID && t.TableNumber == arg.TableNumber && t.Status == enum.TableStatusOpen {
			return t, nil
		}
	}
	return database.Table{}, pgx.ErrNoRows
}

func (f *fakeStore) CreateTable(ctx context.Context, arg database.CreateTableParams) (database.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tables {
		if t.EstablishmentID == arg.EstablishmentID && t.TableNumber == arg.TableNumber && t.Status == enum.TableStatusOpen {
			return database.Table{}, &pgconn.PgError{Code: "23505", ConstraintName: openTableConstraint}
		}
	}
	t := database.Table{
		ID:              uuid.New(),
		EstablishmentID: arg.EstablishmentID,
		TableNumber:     arg.TableNumber,
		Status:          enum.TableStatusOpen,
		CustomerID:      arg.CustomerID,
		OpenedAt:        f.tick(),
	}
	f.tables[t.ID] = t
	return t, nil
}

func (f *fakeStore) ListOpenTables(ctx context.Context, establishmentID uuid.UUID) ([]database.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []database.Table{}
	for _, t := range f.tables {
		if t.EstablishmentID == establishmentID && t.Status == enum.TableStatusOpen {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.Before(out[j].OpenedAt) })
	return out, nil
}

func (f *fakeStore) CloseTable(ctx context.Context, arg database.CloseTableParams) (database.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("close_table")
	t, ok := f.tables[arg.ID]
	if !ok || t.EstablishmentID != arg.EstablishmentID || t.Status != enum.TableStatusOpen {
		return database.Table{}, pgx.ErrNoRows
	}
	t.Status = enum.TableStatusClosed
	t.ClosedAt = pgtype.Timestamptz{Time: f.tick(), Valid: true}
	f.tables[t.ID] = t
	return t, nil
}

func (f *fakeStore) CreateCloseOut(ctx context.Context, arg database.CreateCloseOutParams) (database.CloseOut, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create_close_out")
	c := database.CloseOut{
		ID:              uuid.New(),
		EstablishmentID: arg.EstablishmentID,
		TableID:         arg.TableID,
		OrderID:         arg.OrderID,
		Target:          arg.Target,
		Paid:            arg.Paid,
		Payments:        arg.Payments,
		CreatedAt:       f.tick(),
	}
	f.closeOuts = append(f.closeOuts, c)
	return c, nil
}

func (f *fakeStore) ListOrderTimings(ctx context.Context, arg database.ListOrderTimingsParams) ([]database.ListOrderTimingsRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listTimingsCalls++
	out := []database.ListOrderTimingsRow{}
	for _, t := range f.timings {
		if !t.CreatedAt.Before(arg.Since) {
			out = append(out, t)
		}
	}
	return out, nil
}

// --- Collaborators ---

type fakeTarget struct {
	p *fakePrinter
}

func (t *fakeTarget) Print(ctx context.Context, receipt []byte) error {
	t.p.mu.Lock()
	defer t.p.mu.Unlock()
	if t.p.printErr != nil {
		return t.p.printErr
	}
	t.p.printed = append(t.p.printed, string(receipt))
	return nil
}

func (t *fakeTarget) Release() {
	t.p.mu.Lock()
	defer t.p.mu.Unlock()
	t.p.released++
}

// fakePrinter records Open into the store's call log so tests can check
// ordering against writes.
type fakePrinter struct {
	mu       sync.Mutex
	store    *fakeStore
	openErr  error
	printErr error
	opened   []string
	printed  []string
	released int
}

func (p *fakePrinter) Open(ctx context.Context, printerName string) (printing.Target, error) {
	p.store.mu.Lock()
	p.store.record("open_printer")
	p.store.mu.Unlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.opened = append(p.opened, printerName)
	if p.openErr != nil {
		return nil, p.openErr
	}
	return &fakeTarget{p: p}, nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (s *recordingSink) Publish(ctx context.Context, e events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

// --- Test helpers ---

func nullLog() *logrus.Entry {
	l, _ := test.NewNullLogger()
	return logrus.NewEntry(l)
}

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func numericEquals(n pgtype.Numeric, expected string) bool {
	return numericToDecimal(n).StringFixed(2) == expected
}

// seedEstablishment adds an always-open establishment accepting every
// payment method, with a printer and a 5.00 delivery fee.
func seedEstablishment(f *fakeStore, mutate ...func(*database.Establishment)) uuid.UUID {
	e := database.Establishment{
		ID:                 uuid.New(),
		Name:               "Cantina Central",
		Slug:               "cantina-central",
		Timezone:           "UTC",
		PrepTimeMode:       enum.PrepTimeModeManual,
		PreparationMinutes: 25,
		DeliveryMinutes:    15,
		DeliveryFee:        makeNumeric("5.00"),
		PaymentMethods:     append([]string(nil), enum.AllPaymentMethods...),
		PrinterName:        pgtype.Text{String: "kitchen", Valid: true},
	}
	for _, m := range mutate {
		m(&e)
	}
	f.mu.Lock()
	f.establishments[e.ID] = e
	f.mu.Unlock()
	return e.ID
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type harness struct {
	store    *fakeStore
	tx       *mockTx
	pool     *mockPool
	printer  *fakePrinter
	sink     *recordingSink
	orders   *OrderService
	closeOut *CloseOutService
	eid      uuid.UUID
}

func newHarness(mutate ...func(*database.Establishment)) *harness {
	store := newFakeStore()
	tx := &mockTx{}
	pool := &mockPool{tx: tx}
	printer := &fakePrinter{store: store}
	sink := &recordingSink{}

	orders := NewOrderService(pool, func(database.DBTX) OrderStore { return store }, nullLog()).
		WithPrinter(printer).
		WithPublisher(sink).
		WithClock(fixedClock(store.clock))
	closeOut := NewCloseOutService(pool, func(database.DBTX) CloseOutStore { return store }, nil, time.Second, nullLog()).
		WithPublisher(sink)

	return &harness{
		store:    store,
		tx:       tx,
		pool:     pool,
		printer:  printer,
		sink:     sink,
		orders:   orders,
		closeOut: closeOut,
		eid:      seedEstablishment(store, mutate...),
	}
}
