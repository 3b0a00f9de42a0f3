package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/dukapos/dukapos/internal/infrastructure/persistence/models"
	"github.com/dukapos/dukapos/internal/shared/logger"
)

// TenantDirectoryImpl reads the platform's tenant table directly. Only
// active tenants are visible to billing.
type TenantDirectoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewTenantDirectory(database *gorm.DB, logger logger.Interface) *TenantDirectoryImpl {
	return &TenantDirectoryImpl{db: database, logger: logger}
}

func (d *TenantDirectoryImpl) ListTenantIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	if err := d.db.WithContext(ctx).
		Model(&models.TenantModel{}).
		Where("status = ?", "active").
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	return ids, nil
}

func (d *TenantDirectoryImpl) Exists(ctx context.Context, tenantID uint) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).
		Model(&models.TenantModel{}).
		Where("id = ? AND status = ?", tenantID, "active").
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check tenant: %w", err)
	}
	return count > 0, nil
}
