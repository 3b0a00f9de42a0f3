package mappers

import (
	"fmt"

	"github.com/dukapos/dukapos/internal/domain/billing"
	"github.com/dukapos/dukapos/internal/infrastructure/persistence/models"
	"github.com/dukapos/dukapos/internal/shared/mapper"
)

type BillingEventMapper struct{}

func NewBillingEventMapper() *BillingEventMapper {
	return &BillingEventMapper{}
}

func (m *BillingEventMapper) ToModel(event *billing.BillingEvent) (*models.BillingEventModel, error) {
	if event == nil {
		return nil, fmt.Errorf("billing event entity is nil")
	}

	return &models.BillingEventModel{
		ID:           event.ID(),
		EID:          event.EID(),
		TenantID:     event.TenantID(),
		EventType:    string(event.EventType()),
		Amount:       event.Amount(),
		Currency:     event.Currency(),
		Reference:    event.Reference(),
		OccurredAt:   event.OccurredAt(),
		ReceivedAt:   event.ReceivedAt(),
		ProcessedAt:  event.ProcessedAt(),
		ProcessError: event.ProcessError(),
		CreatedAt:    event.CreatedAt(),
		UpdatedAt:    event.UpdatedAt(),
	}, nil
}

func (m *BillingEventMapper) ToEntity(model *models.BillingEventModel) (*billing.BillingEvent, error) {
	if model == nil {
		return nil, fmt.Errorf("billing event model is nil")
	}

	return billing.ReconstructBillingEvent(billing.ReconstructBillingEventParams{
		ID:           model.ID,
		EID:          model.EID,
		TenantID:     model.TenantID,
		EventType:    model.EventType,
		Amount:       model.Amount,
		Currency:     model.Currency,
		Reference:    model.Reference,
		OccurredAt:   model.OccurredAt,
		ReceivedAt:   model.ReceivedAt,
		ProcessedAt:  model.ProcessedAt,
		ProcessError: model.ProcessError,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	})
}

func (m *BillingEventMapper) ToEntities(eventModels []*models.BillingEventModel) ([]*billing.BillingEvent, error) {
	return mapper.MapSliceWithError(eventModels, m.ToEntity)
}
