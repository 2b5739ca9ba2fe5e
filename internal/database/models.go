package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Establishment struct {
	ID                 uuid.UUID      `json:"id"`
	Name               string         `json:"name"`
	Slug               string         `json:"slug"`
	Timezone           string         `json:"timezone"`
	OpeningHours       []byte         `json:"opening_hours"`
	TemporaryClosed    bool           `json:"temporary_closed"`
	PrepTimeMode       string         `json:"prep_time_mode"`
	PreparationMinutes int32          `json:"preparation_minutes"`
	DeliveryMinutes    int32          `json:"delivery_minutes"`
	DeliveryFee        pgtype.Numeric `json:"delivery_fee"`
	PaymentMethods     []string       `json:"payment_methods"`
	PrinterName        pgtype.Text    `json:"printer_name"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

type Table struct {
	ID              uuid.UUID          `json:"id"`
	EstablishmentID uuid.UUID          `json:"establishment_id"`
	TableNumber     string             `json:"table_number"`
	Status          string             `json:"status"`
	CustomerID      pgtype.UUID        `json:"customer_id"`
	OpenedAt        time.Time          `json:"opened_at"`
	ClosedAt        pgtype.Timestamptz `json:"closed_at"`
}

type Order struct {
	ID              uuid.UUID          `json:"id"`
	EstablishmentID uuid.UUID          `json:"establishment_id"`
	OrderNumber     int32              `json:"order_number"`
	OrderType       string             `json:"order_type"`
	Status          string             `json:"status"`
	CustomerName    pgtype.Text        `json:"customer_name"`
	CustomerPhone   pgtype.Text        `json:"customer_phone"`
	DeliveryAddress pgtype.Text        `json:"delivery_address"`
	ScheduledFor    pgtype.Timestamptz `json:"scheduled_for"`
	Subtotal        pgtype.Numeric     `json:"subtotal"`
	DeliveryFee     pgtype.Numeric     `json:"delivery_fee"`
	Total           pgtype.Numeric     `json:"total"`
	PaymentMethod   pgtype.Text        `json:"payment_method"`
	ChangeFor       pgtype.Numeric     `json:"change_for"`
	Notes           pgtype.Text        `json:"notes"`
	TableID         pgtype.UUID        `json:"table_id"`
	PaidAt          pgtype.Timestamptz `json:"paid_at"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

type OrderItem struct {
	ID          uuid.UUID      `json:"id"`
	OrderID     uuid.UUID      `json:"order_id"`
	ProductName string         `json:"product_name"`
	UnitPrice   pgtype.Numeric `json:"unit_price"`
	Quantity    int32          `json:"quantity"`
	LineTotal   pgtype.Numeric `json:"line_total"`
	Observation pgtype.Text    `json:"observation"`
}

type OrderItemAddon struct {
	ID          uuid.UUID      `json:"id"`
	OrderItemID uuid.UUID      `json:"order_item_id"`
	Name        string         `json:"name"`
	UnitPrice   pgtype.Numeric `json:"unit_price"`
	Quantity    int32          `json:"quantity"`
}

type OrderStatusHistory struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type CloseOut struct {
	ID              uuid.UUID      `json:"id"`
	EstablishmentID uuid.UUID      `json:"establishment_id"`
	TableID         pgtype.UUID    `json:"table_id"`
	OrderID         pgtype.UUID    `json:"order_id"`
	Target          pgtype.Numeric `json:"target"`
	Paid            pgtype.Numeric `json:"paid"`
	Payments        []byte         `json:"payments"`
	CreatedAt       time.Time      `json:"created_at"`
}
