package usecases

import (
	"context"

	"github.com/dukapos/dukapos/internal/application/billing/dto"
	"github.com/dukapos/dukapos/internal/domain/billing"
	"github.com/dukapos/dukapos/internal/shared/logger"
)

// ListPlansUseCase lists catalog plans.
type ListPlansUseCase struct {
	planRepo billing.PlanRepository
	logger   logger.Interface
}

func NewListPlansUseCase(planRepo billing.PlanRepository, logger logger.Interface) *ListPlansUseCase {
	return &ListPlansUseCase{planRepo: planRepo, logger: logger}
}

func (uc *ListPlansUseCase) Execute(ctx context.Context, includeInactive bool) ([]dto.PlanDTO, error) {
	plans, err := uc.planRepo.List(ctx, includeInactive)
	if err != nil {
		return nil, err
	}

	result := make([]dto.PlanDTO, 0, len(plans))
	for _, plan := range plans {
		result = append(result, dto.PlanToDTO(plan))
	}
	return result, nil
}
