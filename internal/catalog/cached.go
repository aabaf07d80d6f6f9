package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/railzwaylabs/planchange/internal/domain/plan"
)

const listKey = "plans"

// ErrInvalidPlan marks a stored plan that fails validation. It is always
// wrapped together with plan.ErrPlanNotFound since the plan cannot be sold.
var ErrInvalidPlan = errors.New("invalid plan record")

// Cached decorates a catalog with a cache. Lookups that fail, including
// unknown ids, are never stored.
type Cached struct {
	next     plan.Catalog
	cache    Cache
	validate *validator.Validate
	logger   *zap.Logger
}

func NewCached(next plan.Catalog, cache Cache, logger *zap.Logger) *Cached {
	return &Cached{
		next:     next,
		cache:    cache,
		validate: validator.New(),
		logger:   logger,
	}
}

func (c *Cached) GetPlan(ctx context.Context, id string) (*plan.Plan, error) {
	key := cacheKey("plan", id)

	var cached plan.Plan
	if c.load(ctx, key, &cached) {
		return &cached, nil
	}

	p, err := c.next.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.check(p); err != nil {
		return nil, err
	}

	c.store(ctx, key, p)
	return p, nil
}

func (c *Cached) ListPlans(ctx context.Context) ([]plan.Plan, error) {
	var cached []plan.Plan
	if c.load(ctx, listKey, &cached) {
		return cached, nil
	}

	plans, err := c.next.ListPlans(ctx)
	if err != nil {
		return nil, err
	}

	valid := make([]plan.Plan, 0, len(plans))
	for i := range plans {
		if err := c.check(&plans[i]); err != nil {
			continue
		}
		valid = append(valid, plans[i])
	}

	c.store(ctx, listKey, valid)
	return valid, nil
}

// Invalidate drops every cached entry.
func (c *Cached) Invalidate(ctx context.Context) error {
	return c.cache.Purge(ctx)
}

func (c *Cached) check(p *plan.Plan) error {
	if err := c.validate.Struct(p); err != nil {
		c.logger.Warn("catalog_plan_invalid", zap.String("plan_id", p.ID), zap.Error(err))
		return fmt.Errorf("%w: %w: %s", plan.ErrPlanNotFound, ErrInvalidPlan, p.ID)
	}
	return nil
}

func (c *Cached) load(ctx context.Context, key string, out any) bool {
	raw, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("catalog_cache_get_failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.logger.Warn("catalog_cache_decode_failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *Cached) store(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, raw); err != nil {
		c.logger.Warn("catalog_cache_set_failed", zap.String("key", key), zap.Error(err))
	}
}
