package models

import (
	"time"

	"github.com/dukapos/dukapos/internal/shared/constants"
)

// BillingEventModel is the database persistence model for the payment
// event inbox.
type BillingEventModel struct {
	ID           uint      `gorm:"primarykey"`
	EID          string    `gorm:"column:eid;uniqueIndex;not null;size:50;comment:Stripe-style ID: evt_xxx"`
	TenantID     uint      `gorm:"not null;index:idx_event_tenant"`
	EventType    string    `gorm:"not null;size:40"`
	Amount       uint64    `gorm:"not null;default:0"`
	Currency     string    `gorm:"size:10"`
	Reference    string    `gorm:"size:100"`
	OccurredAt   time.Time `gorm:"not null;index:idx_event_occurred"`
	ReceivedAt   time.Time `gorm:"not null"`
	ProcessedAt  *time.Time `gorm:"index:idx_event_processed"`
	ProcessError *string    `gorm:"size:500"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName specifies the table name for GORM
func (BillingEventModel) TableName() string {
	return constants.TableBillingEvents
}
