package service

import (
	"context"
	"testing"
	"time"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/enum"
	"github.com/comanda-pos/api/internal/prepestimate"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type memoryEstimateCache struct {
	entries map[uuid.UUID]prepestimate.Estimate
	gets    int
}

func (c *memoryEstimateCache) Get(ctx context.Context, id uuid.UUID) (prepestimate.Estimate, bool, error) {
	c.gets++
	e, ok := c.entries[id]
	return e, ok, nil
}

func (c *memoryEstimateCache) Set(ctx context.Context, id uuid.UUID, est prepestimate.Estimate) error {
	c.entries[id] = est
	return nil
}

func timing(created time.Time, confirmAfter, readyAfter time.Duration) database.ListOrderTimingsRow {
	return database.ListOrderTimingsRow{
		ID:          uuid.New(),
		OrderType:   enum.OrderTypeDelivery,
		Status:      enum.OrderStatusDelivered,
		CreatedAt:   created,
		ConfirmedAt: pgtype.Timestamptz{Time: created.Add(confirmAfter), Valid: true},
		ReadyAt:     pgtype.Timestamptz{Time: created.Add(readyAfter), Valid: true},
	}
}

func TestEstimate_Manual(t *testing.T) {
	store := newFakeStore()
	eid := seedEstablishment(store)
	svc := NewEstimateService(store, nullLog()).WithClock(fixedClock(store.clock))

	est, err := svc.Estimate(context.Background(), eid)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	want := prepestimate.Estimate{Preparation: 25, Delivery: 15, Total: 40, Source: prepestimate.SourceManual}
	if est != want {
		t.Errorf("estimate = %+v, want %+v", est, want)
	}
	if store.listTimingsCalls != 0 {
		t.Errorf("manual mode must not read timings")
	}
}

func TestEstimate_AutoDailyUsesCache(t *testing.T) {
	store := newFakeStore()
	eid := seedEstablishment(store, func(e *database.Establishment) { e.PrepTimeMode = enum.PrepTimeModeAutoDaily })
	now := store.clock // Monday 12:00 UTC
	store.timings = []database.ListOrderTimingsRow{
		timing(now.Add(-2*time.Hour), time.Minute, 21*time.Minute), // 20 min
		timing(now.Add(-time.Hour), time.Minute, 31*time.Minute),   // 30 min
	}
	cache := &memoryEstimateCache{entries: map[uuid.UUID]prepestimate.Estimate{}}
	svc := NewEstimateService(store, nullLog()).WithClock(fixedClock(now)).WithCache(cache)

	est, err := svc.Estimate(context.Background(), eid)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if est.Preparation != 25 || est.Source != prepestimate.SourceToday || est.SampleSize != 2 {
		t.Errorf("estimate = %+v", est)
	}

	if _, err := svc.Estimate(context.Background(), eid); err != nil {
		t.Fatal(err)
	}
	if store.listTimingsCalls != 1 {
		t.Errorf("second call should hit the cache, timings read %d times", store.listTimingsCalls)
	}
}

func TestEstimate_AutoDailyFallsBackToDefault(t *testing.T) {
	store := newFakeStore()
	eid := seedEstablishment(store, func(e *database.Establishment) { e.PrepTimeMode = enum.PrepTimeModeAutoDaily })
	svc := NewEstimateService(store, nullLog()).WithClock(fixedClock(store.clock))

	est, err := svc.Estimate(context.Background(), eid)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if est.Preparation != prepestimate.DefaultMinutes || est.Source != prepestimate.SourceDefault {
		t.Errorf("estimate = %+v", est)
	}
}

func TestEstimate_NotFound(t *testing.T) {
	store := newFakeStore()
	svc := NewEstimateService(store, nullLog())
	if _, err := svc.Estimate(context.Background(), uuid.New()); err != ErrEstablishmentNotFound {
		t.Fatalf("expected ErrEstablishmentNotFound, got %v", err)
	}
}

func TestRefreshAll(t *testing.T) {
	store := newFakeStore()
	auto := func(e *database.Establishment) { e.PrepTimeMode = enum.PrepTimeModeAutoDaily }
	a := seedEstablishment(store, auto)
	b := seedEstablishment(store, auto, func(e *database.Establishment) { e.Name = "Zeca Bar" })
	manual := seedEstablishment(store)
	cache := &memoryEstimateCache{entries: map[uuid.UUID]prepestimate.Estimate{}}
	svc := NewEstimateService(store, nullLog()).WithClock(fixedClock(store.clock)).WithCache(cache)

	n, err := svc.RefreshAll(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if n != 2 {
		t.Errorf("refreshed %d, want 2", n)
	}
	for _, id := range []uuid.UUID{a, b} {
		if _, ok := cache.entries[id]; !ok {
			t.Errorf("establishment %s not cached", id)
		}
	}
	if _, ok := cache.entries[manual]; ok {
		t.Errorf("manual establishment should not be refreshed")
	}
}

func TestRefreshAll_SkipsBadTimezone(t *testing.T) {
	store := newFakeStore()
	seedEstablishment(store, func(e *database.Establishment) {
		e.PrepTimeMode = enum.PrepTimeModeAutoDaily
		e.Timezone = "Mars/Olympus_Mons"
	})
	seedEstablishment(store, func(e *database.Establishment) { e.PrepTimeMode = enum.PrepTimeModeAutoDaily })
	svc := NewEstimateService(store, nullLog()).WithClock(fixedClock(store.clock))

	n, err := svc.RefreshAll(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("refresh = %d, %v; want 1, nil", n, err)
	}
}
