package statusflow

import "github.com/comanda-pos/api/internal/enum"

// Column is a board column that merges equivalent statuses across order types.
type Column string

const (
	ColumnPending        Column = "pending"
	ColumnConfirmed      Column = "confirmed"
	ColumnPreparing      Column = "preparing"
	ColumnReady          Column = "ready"
	ColumnOutForDelivery Column = "out_for_delivery"
	ColumnCompleted      Column = "completed"
	ColumnCancelled      Column = "cancelled"
)

// Columns lists board columns in display order.
var Columns = []Column{
	ColumnPending,
	ColumnConfirmed,
	ColumnPreparing,
	ColumnReady,
	ColumnOutForDelivery,
	ColumnCompleted,
	ColumnCancelled,
}

var columnOf = map[string]Column{
	enum.OrderStatusPending:        ColumnPending,
	enum.OrderStatusConfirmed:      ColumnConfirmed,
	enum.OrderStatusPreparing:      ColumnPreparing,
	enum.OrderStatusReady:          ColumnReady,
	enum.OrderStatusReadyForPickup: ColumnReady,
	enum.OrderStatusReadyToServe:   ColumnReady,
	enum.OrderStatusOutForDelivery: ColumnOutForDelivery,
	enum.OrderStatusDelivered:      ColumnCompleted,
	enum.OrderStatusPickedUp:       ColumnCompleted,
	enum.OrderStatusServed:         ColumnCompleted,
	enum.OrderStatusCancelled:      ColumnCancelled,
}

// ColumnFor returns the board column of status. ok is false for unknown statuses.
func ColumnFor(status string) (Column, bool) {
	c, ok := columnOf[status]
	return c, ok
}

// GroupByColumn buckets items by the column of their status. Every column is
// present in the result; items with an unknown status are dropped.
func GroupByColumn[T any](items []T, statusOf func(T) string) map[Column][]T {
	out := make(map[Column][]T, len(Columns))
	for _, c := range Columns {
		out[c] = []T{}
	}
	for _, it := range items {
		c, ok := columnOf[statusOf(it)]
		if !ok {
			continue
		}
		out[c] = append(out[c], it)
	}
	return out
}
