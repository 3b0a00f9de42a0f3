package billing

import (
	"fmt"
	"time"

	"github.com/dukapos/dukapos/internal/shared/id"
)

type BillingEventType string

const (
	EventPaymentSucceeded BillingEventType = "payment_succeeded"
	EventPaymentFailed    BillingEventType = "payment_failed"
)

var validBillingEventTypes = map[BillingEventType]bool{
	EventPaymentSucceeded: true,
	EventPaymentFailed:    true,
}

// BillingEvent is an inbox record for a payment outcome reported by an
// external provider. Events are persisted first and applied later by the
// lifecycle engine, ordered by when the provider says they occurred, not
// by when we received them. A processed event is never applied twice.
type BillingEvent struct {
	id           uint
	eid          string
	tenantID     uint
	eventType    BillingEventType
	amount       uint64
	currency     string
	reference    string
	occurredAt   time.Time
	receivedAt   time.Time
	processedAt  *time.Time
	processError *string
	createdAt    time.Time
	updatedAt    time.Time
}

func NewBillingEvent(tenantID uint, eventType BillingEventType, amount uint64, currency, reference string, occurredAt, now time.Time) (*BillingEvent, error) {
	if tenantID == 0 {
		return nil, fmt.Errorf("tenant ID cannot be zero")
	}
	if !validBillingEventTypes[eventType] {
		return nil, fmt.Errorf("invalid billing event type: %s", eventType)
	}
	if occurredAt.IsZero() {
		return nil, fmt.Errorf("occurred at cannot be zero")
	}

	now = now.UTC()
	return &BillingEvent{
		eid:        id.NewBillingEventID(),
		tenantID:   tenantID,
		eventType:  eventType,
		amount:     amount,
		currency:   currency,
		reference:  reference,
		occurredAt: occurredAt.UTC(),
		receivedAt: now,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

type ReconstructBillingEventParams struct {
	ID           uint
	EID          string
	TenantID     uint
	EventType    string
	Amount       uint64
	Currency     string
	Reference    string
	OccurredAt   time.Time
	ReceivedAt   time.Time
	ProcessedAt  *time.Time
	ProcessError *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func ReconstructBillingEvent(params ReconstructBillingEventParams) (*BillingEvent, error) {
	if params.ID == 0 {
		return nil, fmt.Errorf("billing event ID cannot be zero")
	}

	eventType := BillingEventType(params.EventType)
	if !validBillingEventTypes[eventType] {
		return nil, fmt.Errorf("invalid billing event type: %s", params.EventType)
	}

	return &BillingEvent{
		id:           params.ID,
		eid:          params.EID,
		tenantID:     params.TenantID,
		eventType:    eventType,
		amount:       params.Amount,
		currency:     params.Currency,
		reference:    params.Reference,
		occurredAt:   params.OccurredAt,
		receivedAt:   params.ReceivedAt,
		processedAt:  params.ProcessedAt,
		processError: params.ProcessError,
		createdAt:    params.CreatedAt,
		updatedAt:    params.UpdatedAt,
	}, nil
}

func (e *BillingEvent) ID() uint                    { return e.id }
func (e *BillingEvent) EID() string                 { return e.eid }
func (e *BillingEvent) TenantID() uint              { return e.tenantID }
func (e *BillingEvent) EventType() BillingEventType { return e.eventType }
func (e *BillingEvent) Amount() uint64              { return e.amount }
func (e *BillingEvent) Currency() string            { return e.currency }
func (e *BillingEvent) Reference() string           { return e.reference }
func (e *BillingEvent) OccurredAt() time.Time       { return e.occurredAt }
func (e *BillingEvent) ReceivedAt() time.Time       { return e.receivedAt }
func (e *BillingEvent) ProcessedAt() *time.Time     { return e.processedAt }
func (e *BillingEvent) ProcessError() *string       { return e.processError }
func (e *BillingEvent) CreatedAt() time.Time        { return e.createdAt }
func (e *BillingEvent) UpdatedAt() time.Time        { return e.updatedAt }

func (e *BillingEvent) SetID(eventID uint) error {
	if e.id != 0 {
		return fmt.Errorf("billing event ID is already set")
	}
	if eventID == 0 {
		return fmt.Errorf("billing event ID cannot be zero")
	}
	e.id = eventID
	return nil
}

func (e *BillingEvent) IsProcessed() bool {
	return e.processedAt != nil
}

// MarkProcessed stamps the event as applied. Marking twice is an error so
// that a double application shows up as a bug instead of silent data loss.
func (e *BillingEvent) MarkProcessed(now time.Time) error {
	if e.processedAt != nil {
		return fmt.Errorf("billing event %s already processed", e.eid)
	}
	now = now.UTC()
	e.processedAt = &now
	e.processError = nil
	e.updatedAt = now
	return nil
}

// MarkFailed records a processing failure. The event stays unprocessed so
// the next engine pass retries it.
func (e *BillingEvent) MarkFailed(now time.Time, processErr error) {
	now = now.UTC()
	msg := processErr.Error()
	e.processError = &msg
	e.updatedAt = now
}
