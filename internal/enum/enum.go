package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	OrderStatusPending        = "pending"
	OrderStatusConfirmed      = "confirmed"
	OrderStatusPreparing      = "preparing"
	OrderStatusReady          = "ready"
	OrderStatusOutForDelivery = "out_for_delivery"
	OrderStatusDelivered      = "delivered"
	OrderStatusReadyForPickup = "ready_for_pickup"
	OrderStatusPickedUp       = "picked_up"
	OrderStatusReadyToServe   = "ready_to_serve"
	OrderStatusServed         = "served"
	OrderStatusCancelled      = "cancelled"
)

const (
	TableStatusOpen   = "open"
	TableStatusClosed = "closed"
)

// ── Group C: Borderline (CHECK constrained in DB) ──

const (
	OrderTypeDelivery = "delivery"
	OrderTypePickup   = "pickup"
	OrderTypeDineIn   = "dine_in"
)

const (
	PrepTimeModeManual    = "manual"
	PrepTimeModeAutoDaily = "auto_daily"
)

// ── Group B: Configurable labels (no DB constraint) ──

const (
	PaymentMethodCash   = "cash"
	PaymentMethodPix    = "pix"
	PaymentMethodCredit = "credit"
	PaymentMethodDebit  = "debit"
)

// AllPaymentMethods lists every method an establishment may enable.
var AllPaymentMethods = []string{
	PaymentMethodCash,
	PaymentMethodPix,
	PaymentMethodCredit,
	PaymentMethodDebit,
}

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderPaid          = "order.paid"
	EventTableClosed        = "table.closed"
)
