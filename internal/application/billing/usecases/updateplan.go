package usecases

import (
	"context"
	"fmt"

	"github.com/dukapos/dukapos/internal/application/billing/dto"
	"github.com/dukapos/dukapos/internal/domain/billing"
	"github.com/dukapos/dukapos/internal/shared/logger"
)

type UpdatePlanCommand struct {
	Code         string
	DailyPrice   *uint64
	MonthlyPrice *uint64
	AnnualPrice  *uint64
	MaxShops     *uint
	MaxEmployees *uint
	MaxProducts  *uint
	Status       *string
}

// UpdatePlanUseCase edits catalog prices, limits, or availability. Edits
// never touch existing subscriptions; they apply from the next payment or
// signup that reads the catalog.
type UpdatePlanUseCase struct {
	planRepo billing.PlanRepository
	logger   logger.Interface
}

func NewUpdatePlanUseCase(planRepo billing.PlanRepository, logger logger.Interface) *UpdatePlanUseCase {
	return &UpdatePlanUseCase{planRepo: planRepo, logger: logger}
}

func (uc *UpdatePlanUseCase) Execute(ctx context.Context, cmd UpdatePlanCommand) (*dto.PlanDTO, error) {
	plan, err := uc.planRepo.GetByCode(ctx, cmd.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	if plan == nil {
		return nil, billing.ErrPlanNotFound
	}

	if cmd.DailyPrice != nil || cmd.MonthlyPrice != nil || cmd.AnnualPrice != nil {
		daily := plan.DailyPrice()
		monthly := plan.MonthlyPrice()
		annual := plan.AnnualPrice()
		if cmd.DailyPrice != nil {
			daily = *cmd.DailyPrice
		}
		if cmd.MonthlyPrice != nil {
			monthly = *cmd.MonthlyPrice
		}
		if cmd.AnnualPrice != nil {
			annual = *cmd.AnnualPrice
		}
		plan.UpdatePrices(daily, monthly, annual)
	}

	if cmd.MaxShops != nil || cmd.MaxEmployees != nil || cmd.MaxProducts != nil {
		shops := plan.MaxShops()
		employees := plan.MaxEmployees()
		products := plan.MaxProducts()
		if cmd.MaxShops != nil {
			shops = *cmd.MaxShops
		}
		if cmd.MaxEmployees != nil {
			employees = *cmd.MaxEmployees
		}
		if cmd.MaxProducts != nil {
			products = *cmd.MaxProducts
		}
		plan.UpdateLimits(shops, employees, products)
	}

	if cmd.Status != nil {
		switch billing.PlanStatus(*cmd.Status) {
		case billing.PlanStatusActive:
			plan.Activate()
		case billing.PlanStatusInactive:
			plan.Deactivate()
		case billing.PlanStatusDeprecated:
			plan.Deprecate()
		default:
			return nil, fmt.Errorf("invalid plan status: %s", *cmd.Status)
		}
	}

	if err := uc.planRepo.Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}

	uc.logger.Infow("plan updated", "plan_code", plan.Code())

	result := dto.PlanToDTO(plan)
	return &result, nil
}
