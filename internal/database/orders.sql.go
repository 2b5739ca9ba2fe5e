package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, establishment_id, order_number, order_type, status, customer_name, customer_phone,
    delivery_address, scheduled_for, subtotal, delivery_fee, total, payment_method, change_for, notes,
    table_id, paid_at, created_at, updated_at`

func scanOrder(row scanner) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.EstablishmentID,
		&i.OrderNumber,
		&i.OrderType,
		&i.Status,
		&i.CustomerName,
		&i.CustomerPhone,
		&i.DeliveryAddress,
		&i.ScheduledFor,
		&i.Subtotal,
		&i.DeliveryFee,
		&i.Total,
		&i.PaymentMethod,
		&i.ChangeFor,
		&i.Notes,
		&i.TableID,
		&i.PaidAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		i, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getNextOrderNumber = `-- name: GetNextOrderNumber :one
SELECT (COALESCE(MAX(order_number), 0) + 1)::int4 AS next_number
FROM orders
WHERE establishment_id = $1`

func (q *Queries) GetNextOrderNumber(ctx context.Context, establishmentID uuid.UUID) (int32, error) {
	row := q.db.QueryRow(ctx, getNextOrderNumber, establishmentID)
	var next int32
	err := row.Scan(&next)
	return next, err
}

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (establishment_id, order_number, order_type, status, customer_name, customer_phone,
    delivery_address, scheduled_for, subtotal, delivery_fee, total, payment_method, change_for, notes, table_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING ` + orderColumns

type CreateOrderParams struct {
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
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.EstablishmentID,
		arg.OrderNumber,
		arg.OrderType,
		arg.Status,
		arg.CustomerName,
		arg.CustomerPhone,
		arg.DeliveryAddress,
		arg.ScheduledFor,
		arg.Subtotal,
		arg.DeliveryFee,
		arg.Total,
		arg.PaymentMethod,
		arg.ChangeFor,
		arg.Notes,
		arg.TableID,
	)
	return scanOrder(row)
}

const createOrderItem = `-- name: CreateOrderItem :one
INSERT INTO order_items (order_id, product_name, unit_price, quantity, line_total, observation)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, order_id, product_name, unit_price, quantity, line_total, observation`

type CreateOrderItemParams struct {
	OrderID     uuid.UUID      `json:"order_id"`
	ProductName string         `json:"product_name"`
	UnitPrice   pgtype.Numeric `json:"unit_price"`
	Quantity    int32          `json:"quantity"`
	LineTotal   pgtype.Numeric `json:"line_total"`
	Observation pgtype.Text    `json:"observation"`
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID,
		arg.ProductName,
		arg.UnitPrice,
		arg.Quantity,
		arg.LineTotal,
		arg.Observation,
	)
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.ProductName,
		&i.UnitPrice,
		&i.Quantity,
		&i.LineTotal,
		&i.Observation,
	)
	return i, err
}

const createOrderItemAddon = `-- name: CreateOrderItemAddon :one
INSERT INTO order_item_addons (order_item_id, name, unit_price, quantity)
VALUES ($1, $2, $3, $4)
RETURNING id, order_item_id, name, unit_price, quantity`

type CreateOrderItemAddonParams struct {
	OrderItemID uuid.UUID      `json:"order_item_id"`
	Name        string         `json:"name"`
	UnitPrice   pgtype.Numeric `json:"unit_price"`
	Quantity    int32          `json:"quantity"`
}

func (q *Queries) CreateOrderItemAddon(ctx context.Context, arg CreateOrderItemAddonParams) (OrderItemAddon, error) {
	row := q.db.QueryRow(ctx, createOrderItemAddon,
		arg.OrderItemID,
		arg.Name,
		arg.UnitPrice,
		arg.Quantity,
	)
	var i OrderItemAddon
	err := row.Scan(
		&i.ID,
		&i.OrderItemID,
		&i.Name,
		&i.UnitPrice,
		&i.Quantity,
	)
	return i, err
}

const createStatusHistory = `-- name: CreateStatusHistory :one
INSERT INTO order_status_history (order_id, status)
VALUES ($1, $2)
RETURNING id, order_id, status, created_at`

type CreateStatusHistoryParams struct {
	OrderID uuid.UUID `json:"order_id"`
	Status  string    `json:"status"`
}

func (q *Queries) CreateStatusHistory(ctx context.Context, arg CreateStatusHistoryParams) (OrderStatusHistory, error) {
	row := q.db.QueryRow(ctx, createStatusHistory, arg.OrderID, arg.Status)
	var i OrderStatusHistory
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.Status,
		&i.CreatedAt,
	)
	return i, err
}

const getOrder = `-- name: GetOrder :one
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1 AND establishment_id = $2`

type GetOrderParams struct {
	ID              uuid.UUID `json:"id"`
	EstablishmentID uuid.UUID `json:"establishment_id"`
}

func (q *Queries) GetOrder(ctx context.Context, arg GetOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, getOrder, arg.ID, arg.EstablishmentID)
	return scanOrder(row)
}

const listOrders = `-- name: ListOrders :many
SELECT ` + orderColumns + `
FROM orders
WHERE establishment_id = $1
  AND ($2::text IS NULL OR status = $2)
  AND ($3::text IS NULL OR order_type = $3)
  AND ($4::timestamptz IS NULL OR created_at >= $4)
ORDER BY created_at DESC
LIMIT $5 OFFSET $6`

type ListOrdersParams struct {
	EstablishmentID uuid.UUID          `json:"establishment_id"`
	Status          pgtype.Text        `json:"status"`
	OrderType       pgtype.Text        `json:"order_type"`
	Since           pgtype.Timestamptz `json:"since"`
	Limit           int32              `json:"limit"`
	Offset          int32              `json:"offset"`
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders,
		arg.EstablishmentID,
		arg.Status,
		arg.OrderType,
		arg.Since,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

const listOrdersByTable = `-- name: ListOrdersByTable :many
SELECT ` + orderColumns + `
FROM orders
WHERE table_id = $1
ORDER BY created_at`

func (q *Queries) ListOrdersByTable(ctx context.Context, tableID pgtype.UUID) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersByTable, tableID)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

const listOrderItemsByOrder = `-- name: ListOrderItemsByOrder :many
SELECT id, order_id, product_name, unit_price, quantity, line_total, observation
FROM order_items
WHERE order_id = $1
ORDER BY id`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []OrderItem{}
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(
			&i.ID,
			&i.OrderID,
			&i.ProductName,
			&i.UnitPrice,
			&i.Quantity,
			&i.LineTotal,
			&i.Observation,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listOrderItemAddonsByOrderItem = `-- name: ListOrderItemAddonsByOrderItem :many
SELECT id, order_item_id, name, unit_price, quantity
FROM order_item_addons
WHERE order_item_id = $1
ORDER BY id`

func (q *Queries) ListOrderItemAddonsByOrderItem(ctx context.Context, orderItemID uuid.UUID) ([]OrderItemAddon, error) {
	rows, err := q.db.Query(ctx, listOrderItemAddonsByOrderItem, orderItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []OrderItemAddon{}
	for rows.Next() {
		var i OrderItemAddon
		if err := rows.Scan(
			&i.ID,
			&i.OrderItemID,
			&i.Name,
			&i.UnitPrice,
			&i.Quantity,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listStatusHistoryByOrder = `-- name: ListStatusHistoryByOrder :many
SELECT id, order_id, status, created_at
FROM order_status_history
WHERE order_id = $1
ORDER BY created_at`

func (q *Queries) ListStatusHistoryByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderStatusHistory, error) {
	rows, err := q.db.Query(ctx, listStatusHistoryByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []OrderStatusHistory{}
	for rows.Next() {
		var i OrderStatusHistory
		if err := rows.Scan(
			&i.ID,
			&i.OrderID,
			&i.Status,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateOrderStatus = `-- name: UpdateOrderStatus :one
UPDATE orders
SET status = $3, updated_at = now()
WHERE id = $1 AND establishment_id = $2 AND status = $4
    AND ($3::text <> 'cancelled' OR paid_at IS NULL)
RETURNING ` + orderColumns

type UpdateOrderStatusParams struct {
	ID              uuid.UUID `json:"id"`
	EstablishmentID uuid.UUID `json:"establishment_id"`
	Status          string    `json:"status"`
	Status_2        string    `json:"status_2"`
}

// UpdateOrderStatus only writes when the stored status still equals Status_2
// and never cancels a paid order; otherwise it returns pgx.ErrNoRows.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderStatus,
		arg.ID,
		arg.EstablishmentID,
		arg.Status,
		arg.Status_2,
	)
	return scanOrder(row)
}

const markOrderPaid = `-- name: MarkOrderPaid :one
UPDATE orders
SET paid_at = now(), payment_method = COALESCE($3, payment_method), updated_at = now()
WHERE id = $1 AND establishment_id = $2 AND paid_at IS NULL AND status <> 'cancelled'
RETURNING ` + orderColumns

type MarkOrderPaidParams struct {
	ID              uuid.UUID   `json:"id"`
	EstablishmentID uuid.UUID   `json:"establishment_id"`
	PaymentMethod   pgtype.Text `json:"payment_method"`
}

func (q *Queries) MarkOrderPaid(ctx context.Context, arg MarkOrderPaidParams) (Order, error) {
	row := q.db.QueryRow(ctx, markOrderPaid, arg.ID, arg.EstablishmentID, arg.PaymentMethod)
	return scanOrder(row)
}

const listOrderTimings = `-- name: ListOrderTimings :many
SELECT o.id, o.order_type, o.status, o.created_at,
    (SELECT MIN(h.created_at) FROM order_status_history h
        WHERE h.order_id = o.id AND h.status = 'confirmed')::timestamptz AS confirmed_at,
    (SELECT MIN(h.created_at) FROM order_status_history h
        WHERE h.order_id = o.id AND h.status IN ('ready', 'ready_for_pickup', 'ready_to_serve'))::timestamptz AS ready_at
FROM orders o
WHERE o.establishment_id = $1 AND o.created_at >= $2 AND o.status <> 'cancelled'
ORDER BY o.created_at`

type ListOrderTimingsParams struct {
	EstablishmentID uuid.UUID `json:"establishment_id"`
	Since           time.Time `json:"since"`
}

type ListOrderTimingsRow struct {
	ID          uuid.UUID          `json:"id"`
	OrderType   string             `json:"order_type"`
	Status      string             `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	ConfirmedAt pgtype.Timestamptz `json:"confirmed_at"`
	ReadyAt     pgtype.Timestamptz `json:"ready_at"`
}

func (q *Queries) ListOrderTimings(ctx context.Context, arg ListOrderTimingsParams) ([]ListOrderTimingsRow, error) {
	rows, err := q.db.Query(ctx, listOrderTimings, arg.EstablishmentID, arg.Since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListOrderTimingsRow{}
	for rows.Next() {
		var i ListOrderTimingsRow
		if err := rows.Scan(
			&i.ID,
			&i.OrderType,
			&i.Status,
			&i.CreatedAt,
			&i.ConfirmedAt,
			&i.ReadyAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
