package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/comanda-pos/api/internal/availability"
	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/enum"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// seedFile is the YAML layout of an establishment seed.
type seedFile struct {
	Name               string                    `yaml:"name"`
	Slug               string                    `yaml:"slug"`
	Timezone           string                    `yaml:"timezone"`
	OpeningHours       availability.OpeningHours `yaml:"opening_hours"`
	TemporaryClosed    bool                      `yaml:"temporary_closed"`
	PrepTimeMode       string                    `yaml:"prep_time_mode"`
	PreparationMinutes int32                     `yaml:"preparation_minutes"`
	DeliveryMinutes    int32                     `yaml:"delivery_minutes"`
	DeliveryFee        string                    `yaml:"delivery_fee"`
	PaymentMethods     []string                  `yaml:"payment_methods"`
	PrinterName        string                    `yaml:"printer_name"`
	Tables             []string                  `yaml:"tables"`
}

func parseSeed(raw []byte) (*seedFile, error) {
	s := &seedFile{
		Timezone:           "America/Sao_Paulo",
		PrepTimeMode:       enum.PrepTimeModeManual,
		PreparationMinutes: 30,
		DeliveryMinutes:    30,
		DeliveryFee:        "0",
		PaymentMethods:     enum.AllPaymentMethods,
	}
	if err := yaml.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	if s.Name == "" || s.Slug == "" {
		return nil, errors.New("seed file: name and slug are required")
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return nil, fmt.Errorf("seed file timezone: %w", err)
	}
	if err := s.OpeningHours.Validate(); err != nil {
		return nil, fmt.Errorf("seed file: %w", err)
	}
	if s.PrepTimeMode != enum.PrepTimeModeManual && s.PrepTimeMode != enum.PrepTimeModeAutoDaily {
		return nil, fmt.Errorf("seed file: unknown prep_time_mode %q", s.PrepTimeMode)
	}
	for _, m := range s.PaymentMethods {
		if !isKnownMethod(m) {
			return nil, fmt.Errorf("seed file: unknown payment method %q", m)
		}
	}
	if _, err := decimal.NewFromString(s.DeliveryFee); err != nil {
		return nil, fmt.Errorf("seed file delivery_fee: %w", err)
	}
	return s, nil
}

func isKnownMethod(m string) bool {
	for _, known := range enum.AllPaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

func (s *seedFile) params() (database.CreateEstablishmentParams, error) {
	var hours []byte
	if len(s.OpeningHours) > 0 {
		b, err := json.Marshal(s.OpeningHours)
		if err != nil {
			return database.CreateEstablishmentParams{}, fmt.Errorf("encode opening hours: %w", err)
		}
		hours = b
	}

	var fee pgtype.Numeric
	if err := fee.Scan(decimal.RequireFromString(s.DeliveryFee).StringFixed(2)); err != nil {
		return database.CreateEstablishmentParams{}, fmt.Errorf("delivery fee: %w", err)
	}

	return database.CreateEstablishmentParams{
		Name:               s.Name,
		Slug:               s.Slug,
		Timezone:           s.Timezone,
		OpeningHours:       hours,
		TemporaryClosed:    s.TemporaryClosed,
		PrepTimeMode:       s.PrepTimeMode,
		PreparationMinutes: s.PreparationMinutes,
		DeliveryMinutes:    s.DeliveryMinutes,
		DeliveryFee:        fee,
		PaymentMethods:     s.PaymentMethods,
		PrinterName:        pgtype.Text{String: s.PrinterName, Valid: s.PrinterName != ""},
	}, nil
}
