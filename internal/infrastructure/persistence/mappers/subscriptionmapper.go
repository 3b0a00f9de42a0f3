// Package mappers converts between domain aggregates and persistence models.
package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/dukapos/dukapos/internal/domain/billing"
	"github.com/dukapos/dukapos/internal/infrastructure/persistence/models"
	"github.com/dukapos/dukapos/internal/shared/mapper"
)

type SubscriptionMapper struct{}

func NewSubscriptionMapper() *SubscriptionMapper {
	return &SubscriptionMapper{}
}

func (m *SubscriptionMapper) ToModel(sub *billing.Subscription) (*models.SubscriptionModel, error) {
	if sub == nil {
		return nil, fmt.Errorf("subscription entity is nil")
	}

	var metadata datatypes.JSON
	if len(sub.Metadata()) > 0 {
		data, err := json.Marshal(sub.Metadata())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadata = data
	}

	return &models.SubscriptionModel{
		ID:                      sub.ID(),
		SID:                     sub.SID(),
		TenantID:                sub.TenantID(),
		PlanID:                  sub.PlanID(),
		PlanCode:                sub.PlanCode(),
		BillingCycle:            sub.BillingCycle().String(),
		NumberOfDays:            sub.NumberOfDays(),
		Status:                  sub.Status().String(),
		CurrentPeriodStart:      sub.CurrentPeriodStart(),
		CurrentPeriodEnd:        sub.CurrentPeriodEnd(),
		GracePeriodEndDate:      sub.GracePeriodEndDate(),
		TrialEndDate:            sub.TrialEndDate(),
		IsTrialUsed:             sub.IsTrialUsed(),
		CurrentPrice:            sub.CurrentPrice(),
		AutoRenew:               sub.AutoRenew(),
		ShopCount:               sub.ShopCount(),
		EmployeeCount:           sub.EmployeeCount(),
		ProductCount:            sub.ProductCount(),
		PendingUpgradePlanID:    sub.PendingUpgradePlanID(),
		PendingUpgradePlanCode:  sub.PendingUpgradePlanCode(),
		PendingUpgradeExpiresAt: sub.PendingUpgradeExpiresAt(),
		CancelledAt:             sub.CancelledAt(),
		CancelReason:            sub.CancelReason(),
		Metadata:                metadata,
		Version:                 sub.Version(),
		CreatedAt:               sub.CreatedAt(),
		UpdatedAt:               sub.UpdatedAt(),
	}, nil
}

func (m *SubscriptionMapper) ToEntity(model *models.SubscriptionModel) (*billing.Subscription, error) {
	if model == nil {
		return nil, fmt.Errorf("subscription model is nil")
	}

	var metadata map[string]any
	if len(model.Metadata) > 0 {
		if err := json.Unmarshal(model.Metadata, &metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return billing.ReconstructSubscription(billing.ReconstructSubscriptionParams{
		ID:                      model.ID,
		SID:                     model.SID,
		TenantID:                model.TenantID,
		PlanID:                  model.PlanID,
		PlanCode:                model.PlanCode,
		BillingCycle:            model.BillingCycle,
		NumberOfDays:            model.NumberOfDays,
		Status:                  model.Status,
		CurrentPeriodStart:      model.CurrentPeriodStart,
		CurrentPeriodEnd:        model.CurrentPeriodEnd,
		GracePeriodEndDate:      model.GracePeriodEndDate,
		TrialEndDate:            model.TrialEndDate,
		IsTrialUsed:             model.IsTrialUsed,
		CurrentPrice:            model.CurrentPrice,
		AutoRenew:               model.AutoRenew,
		ShopCount:               model.ShopCount,
		EmployeeCount:           model.EmployeeCount,
		ProductCount:            model.ProductCount,
		PendingUpgradePlanID:    model.PendingUpgradePlanID,
		PendingUpgradePlanCode:  model.PendingUpgradePlanCode,
		PendingUpgradeExpiresAt: model.PendingUpgradeExpiresAt,
		CancelledAt:             model.CancelledAt,
		CancelReason:            model.CancelReason,
		Metadata:                metadata,
		Version:                 model.Version,
		CreatedAt:               model.CreatedAt,
		UpdatedAt:               model.UpdatedAt,
	})
}

func (m *SubscriptionMapper) ToEntities(subModels []*models.SubscriptionModel) ([]*billing.Subscription, error) {
	return mapper.MapSliceWithError(subModels, m.ToEntity)
}
