package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/dukapos/dukapos/internal/shared/constants"
)

// PlanModel is the database persistence model for catalog plans.
type PlanModel struct {
	ID           uint   `gorm:"primarykey"`
	Code         string `gorm:"uniqueIndex;not null;size:100"`
	Name         string `gorm:"not null;size:200"`
	Description  string `gorm:"size:1000"`
	DailyPrice   uint64 `gorm:"not null;default:0;comment:minor currency units"`
	MonthlyPrice uint64 `gorm:"not null;default:0;comment:minor currency units"`
	AnnualPrice  uint64 `gorm:"not null;default:0;comment:minor currency units"`
	MaxShops     uint   `gorm:"not null;default:0"`
	MaxEmployees uint   `gorm:"not null;default:0"`
	MaxProducts  uint   `gorm:"not null;default:0"`
	TrialDays    int    `gorm:"not null;default:0"`
	Status       string `gorm:"not null;size:20;default:active;index:idx_plan_status"`
	Version      int    `gorm:"not null;default:1"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

// TableName specifies the table name for GORM
func (PlanModel) TableName() string {
	return constants.TablePlans
}
