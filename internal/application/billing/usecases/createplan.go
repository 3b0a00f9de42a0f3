package usecases

import (
	"context"
	"fmt"

	"github.com/dukapos/dukapos/internal/application/billing/dto"
	"github.com/dukapos/dukapos/internal/domain/billing"
	"github.com/dukapos/dukapos/internal/shared/logger"
)

type CreatePlanCommand struct {
	Code         string
	Name         string
	Description  string
	DailyPrice   uint64
	MonthlyPrice uint64
	AnnualPrice  uint64
	MaxShops     uint
	MaxEmployees uint
	MaxProducts  uint
	TrialDays    int
}

// CreatePlanUseCase adds a plan to the catalog. Codes are unique.
type CreatePlanUseCase struct {
	planRepo billing.PlanRepository
	logger   logger.Interface
}

func NewCreatePlanUseCase(planRepo billing.PlanRepository, logger logger.Interface) *CreatePlanUseCase {
	return &CreatePlanUseCase{planRepo: planRepo, logger: logger}
}

func (uc *CreatePlanUseCase) Execute(ctx context.Context, cmd CreatePlanCommand) (*dto.PlanDTO, error) {
	existing, err := uc.planRepo.GetByCode(ctx, cmd.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to check plan code: %w", err)
	}
	if existing != nil {
		return nil, billing.ErrPlanCodeExists
	}

	plan, err := billing.NewPlan(
		cmd.Code, cmd.Name, cmd.Description,
		cmd.DailyPrice, cmd.MonthlyPrice, cmd.AnnualPrice,
		cmd.MaxShops, cmd.MaxEmployees, cmd.MaxProducts,
		cmd.TrialDays,
	)
	if err != nil {
		return nil, err
	}

	if err := uc.planRepo.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	uc.logger.Infow("plan created", "plan_code", plan.Code(), "plan_id", plan.ID())

	result := dto.PlanToDTO(plan)
	return &result, nil
}
