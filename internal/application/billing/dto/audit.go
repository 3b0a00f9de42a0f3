package dto

import "time"

// Audit check names. A full audit runs all of them in this order.
const (
	AuditCheckDailyCyclePeriod = "daily_cycle_period"
	AuditCheckStaleTrial       = "stale_trial"
	AuditCheckStaleActive      = "stale_active"
	AuditCheckOrphanedTenant   = "orphaned_tenant"
	AuditCheckPlanCodeDrift    = "plan_code_drift"
)

// AuditIssue is one discrepancy detected by a reconciliation check.
type AuditIssue struct {
	Check    string `json:"check"`
	TenantID uint   `json:"tenant_id,omitempty"`
	SID      string `json:"sid,omitempty"`
	Detail   string `json:"detail"`
	Fixed    bool   `json:"fixed"`
}

// CheckResult is the outcome of one reconciliation check.
type CheckResult struct {
	Check  string       `json:"check"`
	Issues []AuditIssue `json:"issues"`
	Fixed  int          `json:"fixed"`
	Errors []string     `json:"errors,omitempty"`
}

// AuditReport aggregates a full reconciliation run.
type AuditReport struct {
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`
	DryRun      bool          `json:"dry_run"`
	Checks      []CheckResult `json:"checks"`
	TotalIssues int           `json:"total_issues"`
	TotalFixed  int           `json:"total_fixed"`
}

func (r *AuditReport) AddCheck(result CheckResult) {
	r.Checks = append(r.Checks, result)
	r.TotalIssues += len(result.Issues)
	r.TotalFixed += result.Fixed
}
