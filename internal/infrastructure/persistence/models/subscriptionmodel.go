package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dukapos/dukapos/internal/shared/constants"
)

// SubscriptionModel is the database persistence model for subscriptions.
// This is the anti-corruption layer between domain and database.
type SubscriptionModel struct {
	ID                      uint      `gorm:"primarykey"`
	SID                     string    `gorm:"column:sid;uniqueIndex;not null;size:50;comment:Stripe-style ID: sub_xxx"`
	TenantID                uint      `gorm:"uniqueIndex;not null"`
	PlanID                  uint      `gorm:"not null;index:idx_plan_subscription"`
	PlanCode                string    `gorm:"not null;size:100"`
	BillingCycle            string    `gorm:"not null;size:20"`
	NumberOfDays            int       `gorm:"not null;default:1"`
	Status                  string    `gorm:"not null;size:20;index:idx_status"`
	CurrentPeriodStart      time.Time `gorm:"not null"`
	CurrentPeriodEnd        time.Time `gorm:"not null;index:idx_period_end"`
	GracePeriodEndDate      *time.Time
	TrialEndDate            *time.Time
	IsTrialUsed             bool   `gorm:"not null;default:false"`
	CurrentPrice            uint64 `gorm:"not null;default:0"`
	AutoRenew               bool   `gorm:"not null;default:true"`
	ShopCount               uint   `gorm:"not null;default:0"`
	EmployeeCount           uint   `gorm:"not null;default:0"`
	ProductCount            uint   `gorm:"not null;default:0"`
	PendingUpgradePlanID    *uint
	PendingUpgradePlanCode  *string `gorm:"size:100"`
	PendingUpgradeExpiresAt *time.Time
	CancelledAt             *time.Time
	CancelReason            *string `gorm:"size:500"`
	Metadata                datatypes.JSON
	Version                 int `gorm:"not null;default:1"`
	CreatedAt               time.Time
	UpdatedAt               time.Time
	DeletedAt               gorm.DeletedAt `gorm:"index"`
}

// TableName specifies the table name for GORM
func (SubscriptionModel) TableName() string {
	return constants.TableSubscriptions
}

// BeforeCreate hook for GORM
func (s *SubscriptionModel) BeforeCreate(tx *gorm.DB) error {
	if s.Version == 0 {
		s.Version = 1
	}
	return nil
}
