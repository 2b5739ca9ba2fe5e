package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const establishmentColumns = `id, name, slug, timezone, opening_hours, temporary_closed, prep_time_mode,
    preparation_minutes, delivery_minutes, delivery_fee, payment_methods, printer_name, created_at, updated_at`

func scanEstablishment(row scanner) (Establishment, error) {
	var i Establishment
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Slug,
		&i.Timezone,
		&i.OpeningHours,
		&i.TemporaryClosed,
		&i.PrepTimeMode,
		&i.PreparationMinutes,
		&i.DeliveryMinutes,
		&i.DeliveryFee,
		&i.PaymentMethods,
		&i.PrinterName,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createEstablishment = `-- name: CreateEstablishment :one
INSERT INTO establishments (name, slug, timezone, opening_hours, temporary_closed, prep_time_mode,
    preparation_minutes, delivery_minutes, delivery_fee, payment_methods, printer_name)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + establishmentColumns

type CreateEstablishmentParams struct {
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
}

func (q *Queries) CreateEstablishment(ctx context.Context, arg CreateEstablishmentParams) (Establishment, error) {
	row := q.db.QueryRow(ctx, createEstablishment,
		arg.Name,
		arg.Slug,
		arg.Timezone,
		arg.OpeningHours,
		arg.TemporaryClosed,
		arg.PrepTimeMode,
		arg.PreparationMinutes,
		arg.DeliveryMinutes,
		arg.DeliveryFee,
		arg.PaymentMethods,
		arg.PrinterName,
	)
	return scanEstablishment(row)
}

const getEstablishment = `-- name: GetEstablishment :one
SELECT ` + establishmentColumns + `
FROM establishments
WHERE id = $1`

func (q *Queries) GetEstablishment(ctx context.Context, id uuid.UUID) (Establishment, error) {
	row := q.db.QueryRow(ctx, getEstablishment, id)
	return scanEstablishment(row)
}

const getEstablishmentBySlug = `-- name: GetEstablishmentBySlug :one
SELECT ` + establishmentColumns + `
FROM establishments
WHERE slug = $1`

func (q *Queries) GetEstablishmentBySlug(ctx context.Context, slug string) (Establishment, error) {
	row := q.db.QueryRow(ctx, getEstablishmentBySlug, slug)
	return scanEstablishment(row)
}

const listAutoEstimateEstablishments = `-- name: ListAutoEstimateEstablishments :many
SELECT ` + establishmentColumns + `
FROM establishments
WHERE prep_time_mode = 'auto_daily'
ORDER BY name`

func (q *Queries) ListAutoEstimateEstablishments(ctx context.Context) ([]Establishment, error) {
	rows, err := q.db.Query(ctx, listAutoEstimateEstablishments)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Establishment{}
	for rows.Next() {
		i, err := scanEstablishment(rows)
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
