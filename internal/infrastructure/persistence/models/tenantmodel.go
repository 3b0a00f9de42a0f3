package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/dukapos/dukapos/internal/shared/constants"
)

// TenantModel is the minimal view of the platform's tenant table the
// billing core needs. The wider platform owns the full schema.
type TenantModel struct {
	ID        uint   `gorm:"primarykey"`
	Name      string `gorm:"not null;size:200"`
	Status    string `gorm:"not null;size:20;default:active"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName specifies the table name for GORM
func (TenantModel) TableName() string {
	return constants.TableTenants
}
