package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/tab"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// TabReader reads a table's orders and their items.
type TabReader interface {
	ListOrdersByTable(ctx context.Context, tableID pgtype.UUID) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
}

// TabStore defines the DB methods needed to read tabs.
// Satisfied by *database.Queries.
type TabStore interface {
	TabReader
	GetTable(ctx context.Context, arg database.GetTableParams) (database.Table, error)
	ListOpenTables(ctx context.Context, establishmentID uuid.UUID) ([]database.Table, error)
}

// TabService serves the read side of table tabs.
type TabService struct {
	store TabStore
}

func NewTabService(store TabStore) *TabService {
	return &TabService{store: store}
}

// TabView is a tab summary plus the table's lifecycle fields.
type TabView struct {
	tab.Summary
	Status string
}

// Summary aggregates one table's tab. Closed tables can still be read.
func (s *TabService) Summary(ctx context.Context, establishmentID, tableID uuid.UUID) (*TabView, error) {
	t, err := s.store.GetTable(ctx, database.GetTableParams{ID: tableID, EstablishmentID: establishmentID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("get table: %w", err)
	}
	loaded, err := loadTab(ctx, s.store, t)
	if err != nil {
		return nil, err
	}
	return &TabView{Summary: tab.Aggregate(loaded), Status: t.Status}, nil
}

// ListOpen aggregates every open tab of an establishment, oldest first.
func (s *TabService) ListOpen(ctx context.Context, establishmentID uuid.UUID) ([]TabView, error) {
	tables, err := s.store.ListOpenTables(ctx, establishmentID)
	if err != nil {
		return nil, fmt.Errorf("list open tables: %w", err)
	}
	out := make([]TabView, 0, len(tables))
	for _, t := range tables {
		loaded, err := loadTab(ctx, s.store, t)
		if err != nil {
			return nil, err
		}
		out = append(out, TabView{Summary: tab.Aggregate(loaded), Status: t.Status})
	}
	return out, nil
}

// loadTab builds the aggregator input for t.
func loadTab(ctx context.Context, store TabReader, t database.Table) (tab.Table, error) {
	orders, err := store.ListOrdersByTable(ctx, optionalUUID(t.ID))
	if err != nil {
		return tab.Table{}, fmt.Errorf("list orders by table: %w", err)
	}

	out := tab.Table{
		ID:          t.ID,
		TableNumber: t.TableNumber,
		OpenedAt:    t.OpenedAt,
		Orders:      make([]tab.Order, 0, len(orders)),
	}
	if t.CustomerID.Valid {
		id := uuid.UUID(t.CustomerID.Bytes)
		out.CustomerID = &id
	}

	for _, o := range orders {
		items, err := store.ListOrderItemsByOrder(ctx, o.ID)
		if err != nil {
			return tab.Table{}, fmt.Errorf("list order items: %w", err)
		}
		to := tab.Order{
			ID:          o.ID,
			OrderNumber: o.OrderNumber,
			OrderType:   o.OrderType,
			Status:      o.Status,
			Total:       numericToDecimal(o.Total),
			Paid:        o.PaidAt.Valid,
			Items:       make([]tab.Item, 0, len(items)),
		}
		for _, it := range items {
			to.Items = append(to.Items, tab.Item{
				ProductName: it.ProductName,
				Quantity:    it.Quantity,
				LineTotal:   numericToDecimal(it.LineTotal),
			})
		}
		out.Orders = append(out.Orders, to)
	}
	return out, nil
}
