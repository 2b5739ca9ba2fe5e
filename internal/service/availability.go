package service

import (
	"context"
	"fmt"
	"time"

	"github.com/comanda-pos/api/internal/availability"
	"github.com/google/uuid"
)

// AvailabilityService answers storefront availability questions.
type AvailabilityService struct {
	store EstablishmentStore
	now   func() time.Time
}

func NewAvailabilityService(store EstablishmentStore) *AvailabilityService {
	return &AvailabilityService{store: store, now: time.Now}
}

// WithClock overrides time.Now.
func (s *AvailabilityService) WithClock(now func() time.Time) *AvailabilityService {
	s.now = now
	return s
}

func (s *AvailabilityService) engine(ctx context.Context, establishmentID uuid.UUID) (*availability.Engine, error) {
	est, err := LoadEstablishment(ctx, s.store, establishmentID)
	if err != nil {
		return nil, err
	}
	return est.Availability(), nil
}

// Status reports whether the store is open and when it next opens.
func (s *AvailabilityService) Status(ctx context.Context, establishmentID uuid.UUID) (availability.Status, error) {
	e, err := s.engine(ctx, establishmentID)
	if err != nil {
		return availability.Status{}, err
	}
	return e.Status(s.now()), nil
}

// Slots lists the scheduling slots of date (a calendar day in the
// establishment's timezone, "2006-01-02").
func (s *AvailabilityService) Slots(ctx context.Context, establishmentID uuid.UUID, date string) ([]string, error) {
	e, err := s.engine(ctx, establishmentID)
	if err != nil {
		return nil, err
	}
	day, err := time.ParseInLocation("2006-01-02", date, e.Location())
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return e.AvailableScheduleSlots(day, s.now()), nil
}

// Days lists up to count upcoming days that accept scheduled orders.
func (s *AvailabilityService) Days(ctx context.Context, establishmentID uuid.UUID, count int) ([]availability.AvailableDay, error) {
	e, err := s.engine(ctx, establishmentID)
	if err != nil {
		return nil, err
	}
	return e.NextAvailableDays(s.now(), count), nil
}
