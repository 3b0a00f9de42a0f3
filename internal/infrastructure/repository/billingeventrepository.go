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

type BillingEventRepositoryImpl struct {
	db     *gorm.DB
	mapper *mappers.BillingEventMapper
	logger logger.Interface
}

func NewBillingEventRepository(database *gorm.DB, logger logger.Interface) *BillingEventRepositoryImpl {
	return &BillingEventRepositoryImpl{
		db:     database,
		mapper: mappers.NewBillingEventMapper(),
		logger: logger,
	}
}

func (r *BillingEventRepositoryImpl) Create(ctx context.Context, event *billing.BillingEvent) error {
	model, err := r.mapper.ToModel(event)
	if err != nil {
		return fmt.Errorf("failed to map billing event entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create billing event", "eid", event.EID(), "error", err)
		return fmt.Errorf("failed to create billing event: %w", err)
	}

	if event.ID() == 0 {
		if err := event.SetID(model.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *BillingEventRepositoryImpl) Update(ctx context.Context, event *billing.BillingEvent) error {
	model, err := r.mapper.ToModel(event)
	if err != nil {
		return fmt.Errorf("failed to map billing event entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.WithContext(ctx).Model(&models.BillingEventModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"processed_at":  model.ProcessedAt,
			"process_error": model.ProcessError,
			"updated_at":    model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update billing event", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update billing event: %w", result.Error)
	}
	return nil
}

func (r *BillingEventRepositoryImpl) GetByEID(ctx context.Context, eid string) (*billing.BillingEvent, error) {
	var model models.BillingEventModel
	if err := r.db.WithContext(ctx).Where("eid = ?", eid).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query billing event: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

func (r *BillingEventRepositoryImpl) FindUnprocessed(ctx context.Context, limit int) ([]*billing.BillingEvent, error) {
	var eventModels []*models.BillingEventModel
	query := r.db.WithContext(ctx).
		Where("processed_at IS NULL").
		Order("occurred_at ASC, received_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&eventModels).Error; err != nil {
		return nil, fmt.Errorf("failed to query unprocessed billing events: %w", err)
	}
	return r.mapper.ToEntities(eventModels)
}

func (r *BillingEventRepositoryImpl) FindUnprocessedByTenant(ctx context.Context, tenantID uint) ([]*billing.BillingEvent, error) {
	var eventModels []*models.BillingEventModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND processed_at IS NULL", tenantID).
		Order("occurred_at ASC, received_at ASC").
		Find(&eventModels).Error; err != nil {
		return nil, fmt.Errorf("failed to query tenant billing events: %w", err)
	}
	return r.mapper.ToEntities(eventModels)
}
