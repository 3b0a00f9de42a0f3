package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/dukapos/dukapos/internal/domain/billing"
	"github.com/dukapos/dukapos/internal/infrastructure/persistence/mappers"
	"github.com/dukapos/dukapos/internal/infrastructure/persistence/models"
	"github.com/dukapos/dukapos/internal/shared/db"
	"github.com/dukapos/dukapos/internal/shared/logger"
)

type PlanRepositoryImpl struct {
	db     *gorm.DB
	mapper *mappers.PlanMapper
	logger logger.Interface
}

func NewPlanRepository(database *gorm.DB, logger logger.Interface) *PlanRepositoryImpl {
	return &PlanRepositoryImpl{
		db:     database,
		mapper: mappers.NewPlanMapper(),
		logger: logger,
	}
}

func (r *PlanRepositoryImpl) Create(ctx context.Context, plan *billing.Plan) error {
	model, err := r.mapper.ToModel(plan)
	if err != nil {
		return fmt.Errorf("failed to map plan entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create plan", "code", plan.Code(), "error", err)
		return fmt.Errorf("failed to create plan: %w", err)
	}

	if plan.ID() == 0 {
		if err := plan.SetID(model.ID); err != nil {
			return err
		}
	}

	r.logger.Infow("plan created", "id", model.ID, "code", model.Code)
	return nil
}

func (r *PlanRepositoryImpl) Update(ctx context.Context, plan *billing.Plan) error {
	model, err := r.mapper.ToModel(plan)
	if err != nil {
		return fmt.Errorf("failed to map plan entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.WithContext(ctx).Model(&models.PlanModel{}).
		Where("id = ? AND version < ?", model.ID, model.Version).
		Updates(map[string]interface{}{
			"name":          model.Name,
			"description":   model.Description,
			"daily_price":   model.DailyPrice,
			"monthly_price": model.MonthlyPrice,
			"annual_price":  model.AnnualPrice,
			"max_shops":     model.MaxShops,
			"max_employees": model.MaxEmployees,
			"max_products":  model.MaxProducts,
			"trial_days":    model.TrialDays,
			"status":        model.Status,
			"version":       model.Version,
			"updated_at":    model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update plan", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update plan: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return billing.ErrConcurrentModification
	}

	r.logger.Infow("plan updated", "id", model.ID, "code", model.Code)
	return nil
}

func (r *PlanRepositoryImpl) GetByID(ctx context.Context, id uint) (*billing.Plan, error) {
	var model models.PlanModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query plan: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

func (r *PlanRepositoryImpl) GetByCode(ctx context.Context, code string) (*billing.Plan, error) {
	var model models.PlanModel
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query plan: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

func (r *PlanRepositoryImpl) List(ctx context.Context, includeInactive bool) ([]*billing.Plan, error) {
	query := r.db.WithContext(ctx).Model(&models.PlanModel{})
	if !includeInactive {
		query = query.Where("status = ?", string(billing.PlanStatusActive))
	}

	var planModels []*models.PlanModel
	if err := query.Order("id ASC").Find(&planModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return r.mapper.ToEntities(planModels)
}
