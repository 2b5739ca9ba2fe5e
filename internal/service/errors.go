package service

import "errors"

// Errors returned by the services. Engine errors (statusflow, availability,
// closeout, printing) pass through unchanged.
var (
	ErrEstablishmentNotFound = errors.New("establishment not found")
	ErrOrderNotFound         = errors.New("order not found")
	ErrStatusConflict        = errors.New("order status changed concurrently")
	ErrTransitionInFlight    = errors.New("a status change for this order is already in progress")
	ErrOrderAlreadyPaid      = errors.New("order is already paid")
	ErrOrderCancelled        = errors.New("order is cancelled")
	ErrOrderOnTab            = errors.New("order belongs to a table tab; close the tab instead")

	ErrTableNotFound = errors.New("table not found")
	ErrTableClosed   = errors.New("table is already closed")
	ErrTabBusy       = errors.New("table is being closed by another request")

	ErrEmptyItems       = errors.New("items are required")
	ErrInvalidOrderType = errors.New("invalid order_type")
	ErrInvalidQuantity  = errors.New("quantity must be > 0")
	ErrInvalidPrice     = errors.New("price must not be negative")
	ErrTableRequired    = errors.New("table_number is required for dine_in orders")
	ErrInvalidDate      = errors.New("date must be YYYY-MM-DD")
)
