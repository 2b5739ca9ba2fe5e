package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/comanda-pos/api/internal/cache"
	"github.com/comanda-pos/api/internal/closeout"
	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/enum"
	"github.com/comanda-pos/api/internal/events"
	"github.com/comanda-pos/api/internal/tab"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// CloseOutStore defines the DB methods needed to close tabs and orders.
// Satisfied by *database.Queries (and its WithTx variant).
type CloseOutStore interface {
	EstablishmentStore
	TabReader
	GetTableForUpdate(ctx context.Context, arg database.GetTableForUpdateParams) (database.Table, error)
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	MarkOrderPaid(ctx context.Context, arg database.MarkOrderPaidParams) (database.Order, error)
	CreateCloseOut(ctx context.Context, arg database.CreateCloseOutParams) (database.CloseOut, error)
	CloseTable(ctx context.Context, arg database.CloseTableParams) (database.Table, error)
}

// NewCloseOutStore creates a CloseOutStore from a DBTX (pool or tx).
type NewCloseOutStore func(db database.DBTX) CloseOutStore

// CloseTabRequest closes a table's tab against declared payments.
type CloseTabRequest struct {
	EstablishmentID uuid.UUID
	TableID         uuid.UUID
	Payments        []closeout.Payment
}

// CloseOrderRequest pays a standalone order in full with one method.
type CloseOrderRequest struct {
	EstablishmentID uuid.UUID
	OrderID         uuid.UUID
	PaymentMethod   string
}

// CloseOutResult is a committed close-out.
type CloseOutResult struct {
	CloseOut   database.CloseOut
	Summary    *tab.Summary
	Table      *database.Table
	PaidOrders []database.Order
	Remaining  decimal.Decimal
}

// CloseOutService applies reconciled payments. Everything for one close-out
// happens in a single transaction.
type CloseOutService struct {
	db       DB
	newStore NewCloseOutStore
	locker   cache.Locker
	lockTTL  time.Duration
	events   events.Sink
	log      *logrus.Entry
}

// NewCloseOutService creates a CloseOutService. locker serialises close-outs
// of the same table across requests (and instances, when Redis backed).
func NewCloseOutService(db DB, newStore NewCloseOutStore, locker cache.Locker, lockTTL time.Duration, log *logrus.Entry) *CloseOutService {
	if locker == nil {
		locker = cache.NewLocalLocker()
	}
	return &CloseOutService{
		db:       db,
		newStore: newStore,
		locker:   locker,
		lockTTL:  lockTTL,
		log:      log,
	}
}

// WithPublisher sets where close-out events go.
func (s *CloseOutService) WithPublisher(sink events.Sink) *CloseOutService {
	s.events = sink
	return s
}

// ReconcileAndClose reconciles payments against the tab total and, when they
// match, marks every non-cancelled order paid, records the close-out and
// closes the table. Nothing is written on a mismatch.
func (s *CloseOutService) ReconcileAndClose(ctx context.Context, req CloseTabRequest) (*CloseOutResult, error) {
	release, err := s.locker.Acquire(ctx, "tab:"+req.TableID.String(), s.lockTTL)
	if err != nil {
		if errors.Is(err, cache.ErrLocked) {
			return nil, ErrTabBusy
		}
		return nil, err
	}
	defer release()

	est, err := LoadEstablishment(ctx, s.newStore(s.db), req.EstablishmentID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	table, err := store.GetTableForUpdate(ctx, database.GetTableForUpdateParams{
		ID:              req.TableID,
		EstablishmentID: req.EstablishmentID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("lock table: %w", err)
	}
	if table.Status != enum.TableStatusOpen {
		return nil, ErrTableClosed
	}

	loaded, err := loadTab(ctx, store, table)
	if err != nil {
		return nil, err
	}
	summary := tab.Aggregate(loaded)

	rec, err := closeout.Reconcile(summary.Total, req.Payments, est.Row.PaymentMethods)
	if err != nil {
		return nil, err
	}

	// A tab paid with a single method records that method on its orders.
	method := ""
	if len(rec.Payments) == 1 {
		method = rec.Payments[0].Method
	}

	paid := make([]database.Order, 0, len(summary.Orders))
	for _, o := range summary.Orders {
		if o.Paid {
			continue
		}
		updated, err := store.MarkOrderPaid(ctx, database.MarkOrderPaidParams{
			ID:              o.ID,
			EstablishmentID: req.EstablishmentID,
			PaymentMethod:   optionalText(method),
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("order %d: %w", o.OrderNumber, ErrOrderAlreadyPaid)
			}
			return nil, fmt.Errorf("mark order paid: %w", err)
		}
		paid = append(paid, updated)
	}

	record, err := s.recordCloseOut(ctx, store, database.CreateCloseOutParams{
		EstablishmentID: req.EstablishmentID,
		TableID:         optionalUUID(table.ID),
	}, rec)
	if err != nil {
		return nil, err
	}

	closed, err := store.CloseTable(ctx, database.CloseTableParams{
		ID:              table.ID,
		EstablishmentID: req.EstablishmentID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTableClosed
		}
		return nil, fmt.Errorf("close table: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"table_id":     table.ID,
		"table_number": table.TableNumber,
		"total":        summary.Total.StringFixed(2),
		"orders":       len(paid),
	}).Info("tab closed")

	for _, o := range paid {
		publishEvent(ctx, s.events, s.log, enum.EventOrderPaid, req.EstablishmentID, orderEventPayload(o, "", o.Status))
	}
	publishEvent(ctx, s.events, s.log, enum.EventTableClosed, req.EstablishmentID, TableClosedEvent{
		TableID:     closed.ID,
		TableNumber: closed.TableNumber,
		Total:       summary.Total.StringFixed(2),
		OrderCount:  summary.OrderCount,
	})

	return &CloseOutResult{
		CloseOut:   record,
		Summary:    &summary,
		Table:      &closed,
		PaidOrders: paid,
		Remaining:  rec.Remaining,
	}, nil
}

// CloseOrder pays a single order that is not on a tab with one method for
// its full total.
func (s *CloseOutService) CloseOrder(ctx context.Context, req CloseOrderRequest) (*CloseOutResult, error) {
	est, err := LoadEstablishment(ctx, s.newStore(s.db), req.EstablishmentID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrder(ctx, database.GetOrderParams{ID: req.OrderID, EstablishmentID: req.EstablishmentID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	switch {
	case order.Status == enum.OrderStatusCancelled:
		return nil, ErrOrderCancelled
	case order.TableID.Valid:
		return nil, ErrOrderOnTab
	case order.PaidAt.Valid:
		return nil, ErrOrderAlreadyPaid
	}

	rec, err := closeout.ReconcileSingle(req.PaymentMethod, numericToDecimal(order.Total), est.Row.PaymentMethods)
	if err != nil {
		return nil, err
	}

	updated, err := store.MarkOrderPaid(ctx, database.MarkOrderPaidParams{
		ID:              order.ID,
		EstablishmentID: req.EstablishmentID,
		PaymentMethod:   optionalText(req.PaymentMethod),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderAlreadyPaid
		}
		return nil, fmt.Errorf("mark order paid: %w", err)
	}

	record, err := s.recordCloseOut(ctx, store, database.CreateCloseOutParams{
		EstablishmentID: req.EstablishmentID,
		OrderID:         optionalUUID(order.ID),
	}, rec)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	publishEvent(ctx, s.events, s.log, enum.EventOrderPaid, req.EstablishmentID, orderEventPayload(updated, "", updated.Status))

	return &CloseOutResult{
		CloseOut:   record,
		PaidOrders: []database.Order{updated},
		Remaining:  rec.Remaining,
	}, nil
}

// storedPayment is the JSON shape of a payment inside close_outs.payments.
type storedPayment struct {
	Method string `json:"method"`
	Amount string `json:"amount"`
}

func (s *CloseOutService) recordCloseOut(ctx context.Context, store CloseOutStore, arg database.CreateCloseOutParams, rec closeout.Result) (database.CloseOut, error) {
	stored := make([]storedPayment, 0, len(rec.Payments))
	for _, p := range rec.Payments {
		stored = append(stored, storedPayment{Method: p.Method, Amount: p.Amount.StringFixed(2)})
	}
	payments, err := json.Marshal(stored)
	if err != nil {
		return database.CloseOut{}, fmt.Errorf("marshal payments: %w", err)
	}

	arg.Target = decimalToNumeric(rec.Target)
	arg.Paid = decimalToNumeric(rec.Paid)
	arg.Payments = payments

	record, err := store.CreateCloseOut(ctx, arg)
	if err != nil {
		return database.CloseOut{}, fmt.Errorf("create close-out: %w", err)
	}
	return record, nil
}

// TableClosedEvent is the payload of table.closed.
type TableClosedEvent struct {
	TableID     uuid.UUID `json:"table_id"`
	TableNumber string    `json:"table_number"`
	Total       string    `json:"total"`
	OrderCount  int       `json:"order_count"`
}
