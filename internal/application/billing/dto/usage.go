package dto

// UsageCheckResult reports headroom for one resource under the active plan.
type UsageCheckResult struct {
	TenantID  uint   `json:"tenant_id"`
	Resource  string `json:"resource"`
	Current   uint   `json:"current"`
	Limit     uint   `json:"limit"`
	Remaining uint   `json:"remaining"`
	Allowed   bool   `json:"allowed"`
}

// UsageSummary reports all counters and limits for one tenant.
type UsageSummary struct {
	TenantID uint               `json:"tenant_id"`
	PlanCode string             `json:"plan_code"`
	Items    []UsageCheckResult `json:"items"`
}
