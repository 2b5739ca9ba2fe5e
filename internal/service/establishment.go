package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/comanda-pos/api/internal/availability"
	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/prepestimate"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// EstablishmentStore loads establishment settings.
// Satisfied by *database.Queries.
type EstablishmentStore interface {
	GetEstablishment(ctx context.Context, id uuid.UUID) (database.Establishment, error)
}

// Establishment is a decoded establishments row.
type Establishment struct {
	Row         database.Establishment
	Hours       availability.OpeningHours
	Location    *time.Location
	DeliveryFee decimal.Decimal
}

// LoadEstablishment fetches and decodes an establishment. A null or empty
// opening_hours column means always open.
func LoadEstablishment(ctx context.Context, store EstablishmentStore, id uuid.UUID) (*Establishment, error) {
	row, err := store.GetEstablishment(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEstablishmentNotFound
		}
		return nil, fmt.Errorf("get establishment: %w", err)
	}
	return DecodeEstablishment(row)
}

// DecodeEstablishment parses the JSON and timezone columns of row.
func DecodeEstablishment(row database.Establishment) (*Establishment, error) {
	var hours availability.OpeningHours
	if len(row.OpeningHours) > 0 && string(row.OpeningHours) != "null" {
		if err := json.Unmarshal(row.OpeningHours, &hours); err != nil {
			return nil, fmt.Errorf("decode opening hours: %w", err)
		}
		if len(hours) == 0 {
			hours = nil
		}
	}

	loc := time.UTC
	if row.Timezone != "" {
		l, err := time.LoadLocation(row.Timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", row.Timezone, err)
		}
		loc = l
	}

	return &Establishment{
		Row:         row,
		Hours:       hours,
		Location:    loc,
		DeliveryFee: numericToDecimal(row.DeliveryFee),
	}, nil
}

// Availability returns the engine evaluating this establishment's hours.
func (e *Establishment) Availability() *availability.Engine {
	return availability.New(e.Hours, e.Row.TemporaryClosed, e.Location)
}

// PrepConfig returns the preparation-time setting.
func (e *Establishment) PrepConfig() prepestimate.Config {
	return prepestimate.Config{
		Mode:               e.Row.PrepTimeMode,
		PreparationMinutes: int(e.Row.PreparationMinutes),
		DeliveryMinutes:    int(e.Row.DeliveryMinutes),
	}
}

// PrinterName returns the configured receipt printer, or "" when none is set.
func (e *Establishment) PrinterName() string {
	if !e.Row.PrinterName.Valid {
		return ""
	}
	return e.Row.PrinterName.String
}
