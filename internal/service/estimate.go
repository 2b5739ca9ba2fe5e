package service

import (
	"context"
	"fmt"
	"time"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/enum"
	"github.com/comanda-pos/api/internal/prepestimate"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// EstimateStore defines the DB methods needed to estimate preparation time.
// Satisfied by *database.Queries.
type EstimateStore interface {
	EstablishmentStore
	ListAutoEstimateEstablishments(ctx context.Context) ([]database.Establishment, error)
	ListOrderTimings(ctx context.Context, arg database.ListOrderTimingsParams) ([]database.ListOrderTimingsRow, error)
}

// EstimateCache stores computed auto_daily estimates.
// Satisfied by *cache.EstimateCache.
type EstimateCache interface {
	Get(ctx context.Context, establishmentID uuid.UUID) (prepestimate.Estimate, bool, error)
	Set(ctx context.Context, establishmentID uuid.UUID, est prepestimate.Estimate) error
}

// EstimateService serves preparation-time estimates.
type EstimateService struct {
	store EstimateStore
	cache EstimateCache
	now   func() time.Time
	log   *logrus.Entry
}

func NewEstimateService(store EstimateStore, log *logrus.Entry) *EstimateService {
	return &EstimateService{store: store, now: time.Now, log: log}
}

// WithCache enables caching of auto_daily estimates.
func (s *EstimateService) WithCache(c EstimateCache) *EstimateService {
	s.cache = c
	return s
}

// WithClock overrides time.Now.
func (s *EstimateService) WithClock(now func() time.Time) *EstimateService {
	s.now = now
	return s
}

// Estimate returns the establishment's current estimate. Manual settings are
// returned as configured; auto_daily results come from the cache when warm.
func (s *EstimateService) Estimate(ctx context.Context, establishmentID uuid.UUID) (prepestimate.Estimate, error) {
	est, err := LoadEstablishment(ctx, s.store, establishmentID)
	if err != nil {
		return prepestimate.Estimate{}, err
	}

	cfg := est.PrepConfig()
	if cfg.Mode != enum.PrepTimeModeAutoDaily {
		return prepestimate.Compute(cfg, nil, s.now(), est.Location), nil
	}

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, establishmentID)
		if err != nil {
			s.log.WithError(err).WithField("establishment_id", establishmentID).Warn("read estimate cache")
		} else if ok {
			return cached, nil
		}
	}

	return s.refresh(ctx, est)
}

// RefreshAll recomputes every auto_daily establishment and returns how many
// were refreshed. One failing establishment does not stop the rest.
func (s *EstimateService) RefreshAll(ctx context.Context) (int, error) {
	rows, err := s.store.ListAutoEstimateEstablishments(ctx)
	if err != nil {
		return 0, fmt.Errorf("list auto estimate establishments: %w", err)
	}

	n := 0
	for _, row := range rows {
		log := s.log.WithField("establishment_id", row.ID)
		est, err := DecodeEstablishment(row)
		if err != nil {
			log.WithError(err).Warn("decode establishment")
			continue
		}
		if _, err := s.refresh(ctx, est); err != nil {
			log.WithError(err).Warn("refresh estimate")
			continue
		}
		n++
	}
	return n, nil
}

func (s *EstimateService) refresh(ctx context.Context, est *Establishment) (prepestimate.Estimate, error) {
	now := s.now()
	rows, err := s.store.ListOrderTimings(ctx, database.ListOrderTimingsParams{
		EstablishmentID: est.Row.ID,
		Since:           prepestimate.Since(now, est.Location),
	})
	if err != nil {
		return prepestimate.Estimate{}, fmt.Errorf("list order timings: %w", err)
	}

	timings := make([]prepestimate.Timing, 0, len(rows))
	for _, r := range rows {
		t := prepestimate.Timing{
			OrderID:   r.ID,
			OrderType: r.OrderType,
			Status:    r.Status,
			CreatedAt: r.CreatedAt,
		}
		if r.ConfirmedAt.Valid {
			t.ConfirmedAt = r.ConfirmedAt.Time
		}
		if r.ReadyAt.Valid {
			t.ReadyAt = r.ReadyAt.Time
		}
		timings = append(timings, t)
	}

	result := prepestimate.Compute(est.PrepConfig(), timings, now, est.Location)
	if s.cache != nil {
		if err := s.cache.Set(ctx, est.Row.ID, result); err != nil {
			s.log.WithError(err).WithField("establishment_id", est.Row.ID).Warn("write estimate cache")
		}
	}
	return result, nil
}
