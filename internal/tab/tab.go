// Package tab folds the orders attached to a table into one running bill.
// It is a read-side projection with no mutation authority.
package tab

import (
	"time"

	"github.com/comanda-pos/api/internal/enum"
	"github.com/comanda-pos/api/internal/statusflow"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is an order line as seen by the aggregator.
type Item struct {
	ProductName string
	Quantity    int32
	LineTotal   decimal.Decimal
}

// Order is one order on the tab.
type Order struct {
	ID          uuid.UUID
	OrderNumber int32
	OrderType   string
	Status      string
	Total       decimal.Decimal
	Paid        bool
	Items       []Item
}

// Table is a tab with its attached orders, cancelled ones included.
type Table struct {
	ID          uuid.UUID
	TableNumber string
	OpenedAt    time.Time
	CustomerID  *uuid.UUID
	Orders      []Order
}

// ItemCounts buckets item lines by their parent order's status.
type ItemCounts struct {
	Pending   int `json:"pending"`
	Preparing int `json:"preparing"`
	Ready     int `json:"ready"`
	Delivered int `json:"delivered"`
}

// Summary is the aggregated view of a tab.
type Summary struct {
	TableID     uuid.UUID
	TableNumber string
	OpenedAt    time.Time
	CustomerID  *uuid.UUID
	Total       decimal.Decimal
	OrderCount  int
	ItemCounts  ItemCounts
	Orders      []Order
}

// Aggregate computes the tab summary. Cancelled orders are excluded from the
// total, the order count, the item counts, and Summary.Orders.
func Aggregate(t Table) Summary {
	s := Summary{
		TableID:     t.ID,
		TableNumber: t.TableNumber,
		OpenedAt:    t.OpenedAt,
		CustomerID:  t.CustomerID,
		Total:       decimal.Zero,
		Orders:      []Order{},
	}
	for _, o := range t.Orders {
		if o.Status == enum.OrderStatusCancelled {
			continue
		}
		s.Total = s.Total.Add(o.Total)
		s.OrderCount++
		s.Orders = append(s.Orders, o)
		for range o.Items {
			s.ItemCounts.add(o.Status)
		}
	}
	return s
}

// Total returns the sum of non-cancelled order totals.
func Total(t Table) decimal.Decimal {
	return Aggregate(t).Total
}

// OrderCount returns the number of non-cancelled orders.
func OrderCount(t Table) int {
	return Aggregate(t).OrderCount
}

func (c *ItemCounts) add(status string) {
	switch {
	case status == enum.OrderStatusPending || status == enum.OrderStatusConfirmed:
		c.Pending++
	case status == enum.OrderStatusPreparing:
		c.Preparing++
	case statusflow.IsReadyEquivalent(status) || status == enum.OrderStatusOutForDelivery:
		c.Ready++
	case status == enum.OrderStatusDelivered || status == enum.OrderStatusPickedUp || status == enum.OrderStatusServed:
		c.Delivered++
	}
}
