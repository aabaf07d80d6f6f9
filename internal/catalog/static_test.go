package catalog

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railzwaylabs/planchange/internal/domain/plan"
)

func TestDefaultPlans_AreValid(t *testing.T) {
	v := validator.New()
	for _, p := range DefaultPlans() {
		assert.NoError(t, v.Struct(p), p.ID)
	}
}

func TestStatic_GetPlan(t *testing.T) {
	c := NewStatic(DefaultPlans())
	ctx := context.Background()

	p, err := c.GetPlan(ctx, plan.ProfessionalMonthly)
	require.NoError(t, err)
	assert.Equal(t, int64(299000), p.Price)
	assert.Equal(t, plan.IntervalMonthly, p.Interval)

	_, err = c.GetPlan(ctx, "gold")
	assert.ErrorIs(t, err, plan.ErrPlanNotFound)
}

func TestStatic_ListPlansSortedByPrice(t *testing.T) {
	c := NewStatic(DefaultPlans())

	plans, err := c.ListPlans(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 5)

	ids := make([]string, 0, len(plans))
	for _, p := range plans {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{
		plan.Basic,
		plan.ProfessionalMonthly,
		plan.EnterpriseMonthly,
		plan.ProfessionalYearly,
		plan.EnterpriseYearly,
	}, ids)
}

func TestStatic_ReturnsCopies(t *testing.T) {
	c := NewStatic(DefaultPlans())
	ctx := context.Background()

	p, err := c.GetPlan(ctx, plan.Basic)
	require.NoError(t, err)
	p.Price = 1

	again, err := c.GetPlan(ctx, plan.Basic)
	require.NoError(t, err)
	assert.Equal(t, int64(0), again.Price)
}
