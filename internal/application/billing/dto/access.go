package dto

// Access levels in descending order of capability.
const (
	AccessFull     = "full"
	AccessReadOnly = "read_only"
	AccessBlocked  = "blocked"
	AccessNone     = "none"
)

// Operation kinds evaluated against an access level.
const (
	OperationRead    = "read"
	OperationWrite   = "write"
	OperationDelete  = "delete"
	OperationPOS     = "pos"
	OperationReports = "reports"
)

// Warning severities, ordered by urgency.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// SubscriptionSummary is the short subscription view attached to an access
// result for UI consumption.
type SubscriptionSummary struct {
	SID              string `json:"sid"`
	PlanCode         string `json:"plan_code"`
	Status           string `json:"status"`
	BillingCycle     string `json:"billing_cycle"`
	CurrentPeriodEnd string `json:"current_period_end"`
	AutoRenew        bool   `json:"auto_renew"`
}

// AccessResult is the evaluator's answer for one tenant at one instant.
// Degraded reports that the result was produced under the fail-open rule
// because infrastructure was unavailable.
type AccessResult struct {
	TenantID       uint                 `json:"tenant_id"`
	Level          string               `json:"level"`
	Status         string               `json:"status,omitempty"`
	Message        string               `json:"message,omitempty"`
	DaysRemaining  int                  `json:"days_remaining"`
	CanMakePayment bool                 `json:"can_make_payment"`
	Summary        *SubscriptionSummary `json:"subscription_summary,omitempty"`
	Degraded       bool                 `json:"degraded,omitempty"`
}

func (r AccessResult) AllowsWrite() bool {
	return r.Level == AccessFull
}

func (r AccessResult) AllowsRead() bool {
	return r.Level == AccessFull || r.Level == AccessReadOnly
}

// Warning is a user-facing heads-up about an approaching or arrived billing
// boundary.
type Warning struct {
	Severity      string `json:"severity"`
	Code          string `json:"code"`
	Message       string `json:"message"`
	DaysRemaining int    `json:"days_remaining"`
	ActionLabel   string `json:"action_label,omitempty"`
	ActionURL     string `json:"action_url,omitempty"`
}

// OperationDecision is the allow/deny verdict for one operation kind.
type OperationDecision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}
