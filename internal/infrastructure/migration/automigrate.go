package migration

import (
	"github.com/dukapos/dukapos/internal/infrastructure/persistence/models"
)

// AutoMigrateModels lists every billing-owned model in dependency order.
// TenantModel is excluded: the platform owns that table.
func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.PlanModel{},
		&models.SubscriptionModel{},
		&models.BillingEventModel{},
	}
}
