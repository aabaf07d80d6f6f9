package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/railzwaylabs/planchange/internal/domain/plan"
)

type countingCatalog struct {
	plan.Catalog
	gets  int
	lists int
}

func (c *countingCatalog) GetPlan(ctx context.Context, id string) (*plan.Plan, error) {
	c.gets++
	return c.Catalog.GetPlan(ctx, id)
}

func (c *countingCatalog) ListPlans(ctx context.Context) ([]plan.Plan, error) {
	c.lists++
	return c.Catalog.ListPlans(ctx)
}

func newCounting(plans []plan.Plan) *countingCatalog {
	return &countingCatalog{Catalog: NewStatic(plans)}
}

func TestCached_GetPlanHitsSourceOnce(t *testing.T) {
	src := newCounting(DefaultPlans())
	c := NewCached(src, NewMemoryCache(10, time.Minute), zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p, err := c.GetPlan(ctx, plan.EnterpriseMonthly)
		require.NoError(t, err)
		assert.Equal(t, int64(599000), p.Price)
		assert.True(t, p.IsUnlimited())
	}
	assert.Equal(t, 1, src.gets)
}

func TestCached_NotFoundIsNotCached(t *testing.T) {
	src := newCounting(DefaultPlans())
	c := NewCached(src, NewMemoryCache(10, time.Minute), zap.NewNop())
	ctx := context.Background()

	_, err := c.GetPlan(ctx, "gold")
	assert.ErrorIs(t, err, plan.ErrPlanNotFound)
	_, err = c.GetPlan(ctx, "gold")
	assert.ErrorIs(t, err, plan.ErrPlanNotFound)

	assert.Equal(t, 2, src.gets)
}

func TestCached_RejectsInvalidRecords(t *testing.T) {
	plans := []plan.Plan{
		{ID: "broken", Name: "Broken", Price: -10, Interval: plan.IntervalMonthly, MaxMembers: 1},
		{ID: "ok", Name: "Ok", Price: 10, Interval: plan.IntervalMonthly, MaxMembers: 1},
		{ID: "zero-cap", Name: "Zero", Price: 10, Interval: plan.IntervalYearly, MaxMembers: 0},
	}
	c := NewCached(newCounting(plans), NewMemoryCache(10, time.Minute), zap.NewNop())
	ctx := context.Background()

	_, err := c.GetPlan(ctx, "broken")
	assert.ErrorIs(t, err, ErrInvalidPlan)
	assert.ErrorIs(t, err, plan.ErrPlanNotFound)

	_, err = c.GetPlan(ctx, "zero-cap")
	assert.ErrorIs(t, err, ErrInvalidPlan)

	list, err := c.ListPlans(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ok", list[0].ID)
}

func TestCached_Invalidate(t *testing.T) {
	src := newCounting(DefaultPlans())
	c := NewCached(src, NewMemoryCache(10, time.Minute), zap.NewNop())
	ctx := context.Background()

	_, err := c.ListPlans(ctx)
	require.NoError(t, err)
	_, err = c.ListPlans(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, src.lists)

	require.NoError(t, c.Invalidate(ctx))

	_, err = c.ListPlans(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.lists)
}

func TestCached_WithRedis(t *testing.T) {
	client, _ := setupRedis(t)
	src := newCounting(DefaultPlans())
	c := NewCached(src, NewRedisCache(client, "test", time.Hour), zap.NewNop())
	ctx := context.Background()

	first, err := c.GetPlan(ctx, plan.ProfessionalYearly)
	require.NoError(t, err)
	second, err := c.GetPlan(ctx, plan.ProfessionalYearly)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.gets)
}
