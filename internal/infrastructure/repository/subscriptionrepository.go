// Package repository provides GORM-backed implementations of the billing
// domain repositories.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dukapos/dukapos/internal/domain/billing"
	vo "github.com/dukapos/dukapos/internal/domain/billing/valueobjects"
	"github.com/dukapos/dukapos/internal/infrastructure/persistence/mappers"
	"github.com/dukapos/dukapos/internal/infrastructure/persistence/models"
	"github.com/dukapos/dukapos/internal/shared/db"
	"github.com/dukapos/dukapos/internal/shared/logger"
)

type SubscriptionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mappers.SubscriptionMapper
	logger logger.Interface
}

func NewSubscriptionRepository(database *gorm.DB, logger logger.Interface) *SubscriptionRepositoryImpl {
	return &SubscriptionRepositoryImpl{
		db:     database,
		mapper: mappers.NewSubscriptionMapper(),
		logger: logger,
	}
}

func (r *SubscriptionRepositoryImpl) Create(ctx context.Context, sub *billing.Subscription) error {
	model, err := r.mapper.ToModel(sub)
	if err != nil {
		return fmt.Errorf("failed to map subscription entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create subscription", "tenant_id", sub.TenantID(), "error", err)
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	if sub.ID() == 0 {
		if err := sub.SetID(model.ID); err != nil {
			return err
		}
	}

	r.logger.Infow("subscription created", "id", model.ID, "sid", model.SID, "tenant_id", model.TenantID)
	return nil
}

// Update persists the aggregate guarded by its version: the row is only
// written when the stored version is still behind the aggregate's, so two
// writers racing on the same record cannot silently overwrite each other.
func (r *SubscriptionRepositoryImpl) Update(ctx context.Context, sub *billing.Subscription) error {
	model, err := r.mapper.ToModel(sub)
	if err != nil {
		return fmt.Errorf("failed to map subscription entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.WithContext(ctx).Model(&models.SubscriptionModel{}).
		Where("id = ? AND version < ?", model.ID, model.Version).
		Updates(map[string]interface{}{
			"plan_id":                    model.PlanID,
			"plan_code":                  model.PlanCode,
			"billing_cycle":              model.BillingCycle,
			"number_of_days":             model.NumberOfDays,
			"status":                     model.Status,
			"current_period_start":       model.CurrentPeriodStart,
			"current_period_end":         model.CurrentPeriodEnd,
			"grace_period_end_date":      model.GracePeriodEndDate,
			"trial_end_date":             model.TrialEndDate,
			"is_trial_used":              model.IsTrialUsed,
			"current_price":              model.CurrentPrice,
			"auto_renew":                 model.AutoRenew,
			"pending_upgrade_plan_id":    model.PendingUpgradePlanID,
			"pending_upgrade_plan_code":  model.PendingUpgradePlanCode,
			"pending_upgrade_expires_at": model.PendingUpgradeExpiresAt,
			"cancelled_at":               model.CancelledAt,
			"cancel_reason":              model.CancelReason,
			"metadata":                   model.Metadata,
			"version":                    model.Version,
			"updated_at":                 model.UpdatedAt,
		})

	if result.Error != nil {
		r.logger.Errorw("failed to update subscription", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update subscription: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return billing.ErrConcurrentModification
	}

	r.logger.Debugw("subscription updated", "id", model.ID, "version", model.Version)
	return nil
}

func (r *SubscriptionRepositoryImpl) GetByID(ctx context.Context, id uint) (*billing.Subscription, error) {
	var model models.SubscriptionModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query subscription: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

func (r *SubscriptionRepositoryImpl) GetBySID(ctx context.Context, sid string) (*billing.Subscription, error) {
	var model models.SubscriptionModel
	if err := r.db.WithContext(ctx).Where("sid = ?", sid).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query subscription: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

func (r *SubscriptionRepositoryImpl) GetByTenantID(ctx context.Context, tenantID uint) (*billing.Subscription, error) {
	var model models.SubscriptionModel
	if err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query subscription: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

func (r *SubscriptionRepositoryImpl) List(ctx context.Context, filter billing.SubscriptionFilter) ([]*billing.Subscription, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SubscriptionModel{})

	if filter.TenantID != 0 {
		query = query.Where("tenant_id = ?", filter.TenantID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status.String())
	}
	if filter.PlanCode != "" {
		query = query.Where("plan_code = ?", filter.PlanCode)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	var subModels []*models.SubscriptionModel
	if err := query.
		Order("id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&subModels).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	entities, err := r.mapper.ToEntities(subModels)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to map subscriptions: %w", err)
	}
	return entities, total, nil
}

func (r *SubscriptionRepositoryImpl) FindDueForEvaluation(ctx context.Context, now time.Time) ([]*billing.Subscription, error) {
	var subModels []*models.SubscriptionModel
	if err := r.db.WithContext(ctx).
		Where("(status IN ? AND current_period_end <= ?) OR (status = ? AND grace_period_end_date IS NOT NULL AND grace_period_end_date <= ?)",
			[]string{vo.StatusTrial.String(), vo.StatusActive.String()}, now,
			vo.StatusPastDue.String(), now).
		Order("current_period_end ASC").
		Find(&subModels).Error; err != nil {
		r.logger.Errorw("failed to query due subscriptions", "error", err)
		return nil, fmt.Errorf("failed to query due subscriptions: %w", err)
	}
	return r.mapper.ToEntities(subModels)
}

func (r *SubscriptionRepositoryImpl) FindByStatus(ctx context.Context, status vo.SubscriptionStatus) ([]*billing.Subscription, error) {
	var subModels []*models.SubscriptionModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", status.String()).
		Order("id ASC").
		Find(&subModels).Error; err != nil {
		return nil, fmt.Errorf("failed to query subscriptions by status: %w", err)
	}
	return r.mapper.ToEntities(subModels)
}

func (r *SubscriptionRepositoryImpl) FindByBillingCycle(ctx context.Context, cycle vo.BillingCycle) ([]*billing.Subscription, error) {
	var subModels []*models.SubscriptionModel
	if err := r.db.WithContext(ctx).
		Where("billing_cycle = ?", cycle.String()).
		Order("id ASC").
		Find(&subModels).Error; err != nil {
		return nil, fmt.Errorf("failed to query subscriptions by cycle: %w", err)
	}
	return r.mapper.ToEntities(subModels)
}

func resourceColumn(resource vo.Resource) (string, error) {
	switch resource {
	case vo.ResourceShops:
		return "shop_count", nil
	case vo.ResourceEmployees:
		return "employee_count", nil
	case vo.ResourceProducts:
		return "product_count", nil
	default:
		return "", fmt.Errorf("invalid resource: %s", resource)
	}
}

// IncrementUsage bumps a counter with a single atomic SQL expression so
// concurrent instances cannot lose updates. The counter columns are not
// version-guarded; they are eventually-consistent mirrors repaired by
// SyncUsage.
func (r *SubscriptionRepositoryImpl) IncrementUsage(ctx context.Context, tenantID uint, resource vo.Resource, delta uint) error {
	column, err := resourceColumn(resource)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&models.SubscriptionModel{}).
		Where("tenant_id = ?", tenantID).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta))
	if result.Error != nil {
		return fmt.Errorf("failed to increment usage: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return billing.ErrSubscriptionNotFound
	}
	return nil
}

// DecrementUsage lowers a counter atomically, clamping at zero. The CASE
// expression is portable across MySQL and the sqlite driver used in tests.
func (r *SubscriptionRepositoryImpl) DecrementUsage(ctx context.Context, tenantID uint, resource vo.Resource, delta uint) error {
	column, err := resourceColumn(resource)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&models.SubscriptionModel{}).
		Where("tenant_id = ?", tenantID).
		UpdateColumn(column, gorm.Expr(
			"CASE WHEN "+column+" > ? THEN "+column+" - ? ELSE 0 END", delta, delta))
	if result.Error != nil {
		return fmt.Errorf("failed to decrement usage: %w", result.Error)
	}
	// RowsAffected is 0 both for a missing row and for a counter already at
	// zero, so absence is not distinguishable here.
	return nil
}

func (r *SubscriptionRepositoryImpl) SyncUsage(ctx context.Context, tenantID uint, shops, employees, products uint) error {
	result := r.db.WithContext(ctx).Model(&models.SubscriptionModel{}).
		Where("tenant_id = ?", tenantID).
		Updates(map[string]interface{}{
			"shop_count":     shops,
			"employee_count": employees,
			"product_count":  products,
			"updated_at":     time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to sync usage counts: %w", result.Error)
	}
	return nil
}
