package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/dukapos/dukapos/internal/domain/billing/valueobjects"
)

func TestNewPlan(t *testing.T) {
	plan, err := NewPlan("starter", "Starter", "entry plan", 100_00, 2000_00, 20000_00, 1, 3, 500, 14)
	require.NoError(t, err)

	assert.Equal(t, "starter", plan.Code())
	assert.Equal(t, PlanStatusActive, plan.Status())
	assert.True(t, plan.GrantsTrial())
	assert.Equal(t, 1, plan.Version())
}

func TestNewPlan_Validation(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		planName  string
		trialDays int
	}{
		{"empty code", "", "Starter", 14},
		{"empty name", "starter", "", 14},
		{"negative trial days", "starter", "Starter", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPlan(tt.code, tt.planName, "", 0, 0, 0, 1, 1, 1, tt.trialDays)
			assert.Error(t, err)
		})
	}
}

func TestPlanPriceFor(t *testing.T) {
	plan, err := NewPlan("starter", "Starter", "", 100_00, 2000_00, 20000_00, 1, 3, 500, 0)
	require.NoError(t, err)

	daily, err := plan.PriceFor(vo.BillingCycleDaily)
	require.NoError(t, err)
	assert.Equal(t, uint64(100_00), daily)

	monthly, err := plan.PriceFor(vo.BillingCycleMonthly)
	require.NoError(t, err)
	assert.Equal(t, uint64(2000_00), monthly)

	annual, err := plan.PriceFor(vo.BillingCycleAnnual)
	require.NoError(t, err)
	assert.Equal(t, uint64(20000_00), annual)

	_, err = plan.PriceFor(vo.BillingCycle("weekly"))
	assert.ErrorIs(t, err, ErrInvalidBillingCycle)
}

func TestPlanLimitFor(t *testing.T) {
	plan, err := NewPlan("starter", "Starter", "", 100_00, 2000_00, 20000_00, 1, 3, 500, 0)
	require.NoError(t, err)

	shops, err := plan.LimitFor(vo.ResourceShops)
	require.NoError(t, err)
	assert.Equal(t, uint(1), shops)

	employees, err := plan.LimitFor(vo.ResourceEmployees)
	require.NoError(t, err)
	assert.Equal(t, uint(3), employees)

	products, err := plan.LimitFor(vo.ResourceProducts)
	require.NoError(t, err)
	assert.Equal(t, uint(500), products)
}

func TestPlanLifecycle(t *testing.T) {
	plan, err := NewPlan("starter", "Starter", "", 0, 0, 0, 1, 1, 1, 0)
	require.NoError(t, err)

	plan.Deactivate()
	assert.Equal(t, PlanStatusInactive, plan.Status())
	assert.False(t, plan.IsActive())
	assert.Equal(t, 2, plan.Version())

	plan.Activate()
	assert.True(t, plan.IsActive())

	plan.Deprecate()
	assert.Equal(t, PlanStatusDeprecated, plan.Status())

	// idempotent
	version := plan.Version()
	plan.Deprecate()
	assert.Equal(t, version, plan.Version())
}

func TestReconstructPlan_InvalidStatus(t *testing.T) {
	_, err := ReconstructPlan(1, "starter", "Starter", "", 0, 0, 0, 1, 1, 1, 0, "retired", 1,
		testTime(t), testTime(t))
	assert.Error(t, err)
}
