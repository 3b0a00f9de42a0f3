package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// Default pagination
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	// Context keys
	ContextKeyTenantID  = "tenant_id"
	ContextKeyRequestID = "request_id"

	// Database table names
	TableSubscriptions = "subscriptions"
	TablePlans         = "plans"
	TableBillingEvents = "billing_events"
	TableTenants       = "tenants"

	// Error messages
	ErrMsgInternalServerError = "Internal server error occurred"
	ErrMsgResourceNotFound    = "Resource not found"
	ErrMsgValidationFailed    = "Validation failed"
	ErrMsgForbidden           = "Access forbidden"
)
