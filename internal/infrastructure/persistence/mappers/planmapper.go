package mappers

import (
	"fmt"

	"github.com/dukapos/dukapos/internal/domain/billing"
	"github.com/dukapos/dukapos/internal/infrastructure/persistence/models"
	"github.com/dukapos/dukapos/internal/shared/mapper"
)

type PlanMapper struct{}

func NewPlanMapper() *PlanMapper {
	return &PlanMapper{}
}

func (m *PlanMapper) ToModel(plan *billing.Plan) (*models.PlanModel, error) {
	if plan == nil {
		return nil, fmt.Errorf("plan entity is nil")
	}

	return &models.PlanModel{
		ID:           plan.ID(),
		Code:         plan.Code(),
		Name:         plan.Name(),
		Description:  plan.Description(),
		DailyPrice:   plan.DailyPrice(),
		MonthlyPrice: plan.MonthlyPrice(),
		AnnualPrice:  plan.AnnualPrice(),
		MaxShops:     plan.MaxShops(),
		MaxEmployees: plan.MaxEmployees(),
		MaxProducts:  plan.MaxProducts(),
		TrialDays:    plan.TrialDays(),
		Status:       string(plan.Status()),
		Version:      plan.Version(),
		CreatedAt:    plan.CreatedAt(),
		UpdatedAt:    plan.UpdatedAt(),
	}, nil
}

func (m *PlanMapper) ToEntity(model *models.PlanModel) (*billing.Plan, error) {
	if model == nil {
		return nil, fmt.Errorf("plan model is nil")
	}

	return billing.ReconstructPlan(
		model.ID,
		model.Code,
		model.Name,
		model.Description,
		model.DailyPrice,
		model.MonthlyPrice,
		model.AnnualPrice,
		model.MaxShops,
		model.MaxEmployees,
		model.MaxProducts,
		model.TrialDays,
		model.Status,
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

func (m *PlanMapper) ToEntities(planModels []*models.PlanModel) ([]*billing.Plan, error) {
	return mapper.MapSliceWithError(planModels, m.ToEntity)
}
