package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterval_Valid(t *testing.T) {
	assert.True(t, IntervalMonthly.Valid())
	assert.True(t, IntervalYearly.Valid())
	assert.False(t, Interval("weekly").Valid())
	assert.False(t, Interval("").Valid())
}

func TestPlan_Members(t *testing.T) {
	capped := Plan{MaxMembers: 5}
	unlimited := Plan{MaxMembers: Unlimited}

	assert.True(t, capped.AllowsMembers(5))
	assert.False(t, capped.AllowsMembers(6))
	assert.False(t, capped.IsUnlimited())

	assert.True(t, unlimited.IsUnlimited())
	assert.True(t, unlimited.AllowsMembers(10000))
}

func TestPlan_HasFeature(t *testing.T) {
	p := Plan{Features: map[string]Feature{
		"payroll":   {Enabled: true},
		"marketing": {Enabled: false, Value: "coming soon"},
	}}

	assert.True(t, p.HasFeature("payroll"))
	assert.False(t, p.HasFeature("marketing"))
	assert.False(t, p.HasFeature("unknown"))
}

func TestClassifyChange(t *testing.T) {
	basic := &Plan{Price: 0, Interval: IntervalMonthly}
	pro := &Plan{Price: 299000, Interval: IntervalMonthly}
	proYearly := &Plan{Price: 299000 * 12, Interval: IntervalYearly}
	enterprise := &Plan{Price: 599000, Interval: IntervalMonthly}

	tests := []struct {
		name    string
		current *Plan
		target  *Plan
		want    ChangeKind
	}{
		{"basic to pro", basic, pro, ChangeUpgrade},
		{"enterprise to pro", enterprise, pro, ChangeDowngrade},
		{"pro monthly to pro yearly", pro, proYearly, ChangeLateral},
		{"pro to basic", pro, basic, ChangeDowngrade},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyChange(tt.current, tt.target))
		})
	}
}
