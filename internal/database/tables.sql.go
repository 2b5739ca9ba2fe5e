package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const tableColumns = `id, establishment_id, table_number, status, customer_id, opened_at, closed_at`

func scanTable(row scanner) (Table, error) {
	var i Table
	err := row.Scan(
		&i.ID,
		&i.EstablishmentID,
		&i.TableNumber,
		&i.Status,
		&i.CustomerID,
		&i.OpenedAt,
		&i.ClosedAt,
	)
	return i, err
}

const createTable = `-- name: CreateTable :one
INSERT INTO tables (establishment_id, table_number, customer_id)
VALUES ($1, $2, $3)
RETURNING ` + tableColumns

type CreateTableParams struct {
	EstablishmentID uuid.UUID   `json:"establishment_id"`
	TableNumber     string      `json:"table_number"`
	CustomerID      pgtype.UUID `json:"customer_id"`
}

func (q *Queries) CreateTable(ctx context.Context, arg CreateTableParams) (Table, error) {
	row := q.db.QueryRow(ctx, createTable, arg.EstablishmentID, arg.TableNumber, arg.CustomerID)
	return scanTable(row)
}

const getTable = `-- name: GetTable :one
SELECT ` + tableColumns + `
FROM tables
WHERE id = $1 AND establishment_id = $2`

type GetTableParams struct {
	ID              uuid.UUID `json:"id"`
	EstablishmentID uuid.UUID `json:"establishment_id"`
}

func (q *Queries) GetTable(ctx context.Context, arg GetTableParams) (Table, error) {
	row := q.db.QueryRow(ctx, getTable, arg.ID, arg.EstablishmentID)
	return scanTable(row)
}

const getTableForUpdate = `-- name: GetTableForUpdate :one
SELECT ` + tableColumns + `
FROM tables
WHERE id = $1 AND establishment_id = $2
FOR UPDATE`

type GetTableForUpdateParams struct {
	ID              uuid.UUID `json:"id"`
	EstablishmentID uuid.UUID `json:"establishment_id"`
}

func (q *Queries) GetTableForUpdate(ctx context.Context, arg GetTableForUpdateParams) (Table, error) {
	row := q.db.QueryRow(ctx, getTableForUpdate, arg.ID, arg.EstablishmentID)
	return scanTable(row)
}

const getOpenTableByNumber = `-- name: GetOpenTableByNumber :one
SELECT ` + tableColumns + `
FROM tables
WHERE establishment_id = $1 AND table_number = $2 AND status = 'open'
FOR SHARE`

type GetOpenTableByNumberParams struct {
	EstablishmentID uuid.UUID `json:"establishment_id"`
	TableNumber     string    `json:"table_number"`
}

// GetOpenTableByNumber share-locks the tab so it cannot close under a new
// order. A close that wins the race leaves no open row and pgx.ErrNoRows.
func (q *Queries) GetOpenTableByNumber(ctx context.Context, arg GetOpenTableByNumberParams) (Table, error) {
	row := q.db.QueryRow(ctx, getOpenTableByNumber, arg.EstablishmentID, arg.TableNumber)
	return scanTable(row)
}

const listOpenTables = `-- name: ListOpenTables :many
SELECT ` + tableColumns + `
FROM tables
WHERE establishment_id = $1 AND status = 'open'
ORDER BY opened_at`

func (q *Queries) ListOpenTables(ctx context.Context, establishmentID uuid.UUID) ([]Table, error) {
	rows, err := q.db.Query(ctx, listOpenTables, establishmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Table{}
	for rows.Next() {
		i, err := scanTable(rows)
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

const closeTable = `-- name: CloseTable :one
UPDATE tables
SET status = 'closed', closed_at = now()
WHERE id = $1 AND establishment_id = $2 AND status = 'open'
RETURNING ` + tableColumns

type CloseTableParams struct {
	ID              uuid.UUID `json:"id"`
	EstablishmentID uuid.UUID `json:"establishment_id"`
}

// CloseTable returns pgx.ErrNoRows when the table is not open.
func (q *Queries) CloseTable(ctx context.Context, arg CloseTableParams) (Table, error) {
	row := q.db.QueryRow(ctx, closeTable, arg.ID, arg.EstablishmentID)
	return scanTable(row)
}

const createCloseOut = `-- name: CreateCloseOut :one
INSERT INTO close_outs (establishment_id, table_id, order_id, target, paid, payments)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, establishment_id, table_id, order_id, target, paid, payments, created_at`

type CreateCloseOutParams struct {
	EstablishmentID uuid.UUID      `json:"establishment_id"`
	TableID         pgtype.UUID    `json:"table_id"`
	OrderID         pgtype.UUID    `json:"order_id"`
	Target          pgtype.Numeric `json:"target"`
	Paid            pgtype.Numeric `json:"paid"`
	Payments        []byte         `json:"payments"`
}

func (q *Queries) CreateCloseOut(ctx context.Context, arg CreateCloseOutParams) (CloseOut, error) {
	row := q.db.QueryRow(ctx, createCloseOut,
		arg.EstablishmentID,
		arg.TableID,
		arg.OrderID,
		arg.Target,
		arg.Paid,
		arg.Payments,
	)
	var i CloseOut
	err := row.Scan(
		&i.ID,
		&i.EstablishmentID,
		&i.TableID,
		&i.OrderID,
		&i.Target,
		&i.Paid,
		&i.Payments,
		&i.CreatedAt,
	)
	return i, err
}
