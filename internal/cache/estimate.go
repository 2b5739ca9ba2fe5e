package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/comanda-pos/api/internal/prepestimate"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EstimateCache stores computed preparation estimates per establishment.
type EstimateCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewEstimateCache(rdb redis.Cmdable, ttl time.Duration) *EstimateCache {
	return &EstimateCache{rdb: rdb, ttl: ttl}
}

func estimateKey(establishmentID uuid.UUID) string {
	return "estimate:" + establishmentID.String()
}

// Get reports found=false on a cache miss.
func (c *EstimateCache) Get(ctx context.Context, establishmentID uuid.UUID) (prepestimate.Estimate, bool, error) {
	raw, err := c.rdb.Get(ctx, estimateKey(establishmentID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return prepestimate.Estimate{}, false, nil
	}
	if err != nil {
		return prepestimate.Estimate{}, false, fmt.Errorf("get estimate: %w", err)
	}

	var est prepestimate.Estimate
	if err := json.Unmarshal(raw, &est); err != nil {
		return prepestimate.Estimate{}, false, fmt.Errorf("decode estimate: %w", err)
	}
	return est, true, nil
}

func (c *EstimateCache) Set(ctx context.Context, establishmentID uuid.UUID, est prepestimate.Estimate) error {
	raw, err := json.Marshal(est)
	if err != nil {
		return fmt.Errorf("encode estimate: %w", err)
	}
	if err := c.rdb.Set(ctx, estimateKey(establishmentID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set estimate: %w", err)
	}
	return nil
}

func (c *EstimateCache) Invalidate(ctx context.Context, establishmentID uuid.UUID) error {
	return c.rdb.Del(ctx, estimateKey(establishmentID)).Err()
}
