// Package dto defines the data transfer objects exchanged between the
// billing application layer and its callers.
package dto

import (
	"time"

	"github.com/dukapos/dukapos/internal/domain/billing"
)

type SubscriptionDTO struct {
	SID                string         `json:"sid"`
	TenantID           uint           `json:"tenant_id"`
	PlanCode           string         `json:"plan_code"`
	BillingCycle       string         `json:"billing_cycle"`
	NumberOfDays       int            `json:"number_of_days,omitempty"`
	Status             string         `json:"status"`
	CurrentPeriodStart time.Time      `json:"current_period_start"`
	CurrentPeriodEnd   time.Time      `json:"current_period_end"`
	GracePeriodEndDate *time.Time     `json:"grace_period_end_date,omitempty"`
	TrialEndDate       *time.Time     `json:"trial_end_date,omitempty"`
	IsTrialUsed        bool           `json:"is_trial_used"`
	CurrentPrice       uint64         `json:"current_price"`
	AutoRenew          bool           `json:"auto_renew"`
	ShopCount          uint           `json:"shop_count"`
	EmployeeCount      uint           `json:"employee_count"`
	ProductCount       uint           `json:"product_count"`
	PendingUpgradePlan *string        `json:"pending_upgrade_plan,omitempty"`
	CancelledAt        *time.Time     `json:"cancelled_at,omitempty"`
	CancelReason       *string        `json:"cancel_reason,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

func SubscriptionToDTO(sub *billing.Subscription) SubscriptionDTO {
	return SubscriptionDTO{
		SID:                sub.SID(),
		TenantID:           sub.TenantID(),
		PlanCode:           sub.PlanCode(),
		BillingCycle:       sub.BillingCycle().String(),
		NumberOfDays:       sub.NumberOfDays(),
		Status:             sub.Status().String(),
		CurrentPeriodStart: sub.CurrentPeriodStart(),
		CurrentPeriodEnd:   sub.CurrentPeriodEnd(),
		GracePeriodEndDate: sub.GracePeriodEndDate(),
		TrialEndDate:       sub.TrialEndDate(),
		IsTrialUsed:        sub.IsTrialUsed(),
		CurrentPrice:       sub.CurrentPrice(),
		AutoRenew:          sub.AutoRenew(),
		ShopCount:          sub.ShopCount(),
		EmployeeCount:      sub.EmployeeCount(),
		ProductCount:       sub.ProductCount(),
		PendingUpgradePlan: sub.PendingUpgradePlanCode(),
		CancelledAt:        sub.CancelledAt(),
		CancelReason:       sub.CancelReason(),
		Metadata:           sub.Metadata(),
		CreatedAt:          sub.CreatedAt(),
		UpdatedAt:          sub.UpdatedAt(),
	}
}

type PlanDTO struct {
	ID           uint      `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	DailyPrice   uint64    `json:"daily_price"`
	MonthlyPrice uint64    `json:"monthly_price"`
	AnnualPrice  uint64    `json:"annual_price"`
	MaxShops     uint      `json:"max_shops"`
	MaxEmployees uint      `json:"max_employees"`
	MaxProducts  uint      `json:"max_products"`
	TrialDays    int       `json:"trial_days"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func PlanToDTO(plan *billing.Plan) PlanDTO {
	return PlanDTO{
		ID:           plan.ID(),
		Code:         plan.Code(),
		Name:         plan.Name(),
		Description:  plan.Description(),
		DailyPrice:   plan.DailyPrice(),
		MonthlyPrice: plan.MonthlyPrice(),
		AnnualPrice:  plan.AnnualPrice(),
		MaxShops:     plan.MaxShops(),
		MaxEmployees: plan.MaxEmployees(),
		MaxProducts:  plan.MaxProducts(),
		TrialDays:    plan.TrialDays(),
		Status:       string(plan.Status()),
		CreatedAt:    plan.CreatedAt(),
		UpdatedAt:    plan.UpdatedAt(),
	}
}

type BillingEventDTO struct {
	EID          string     `json:"eid"`
	TenantID     uint       `json:"tenant_id"`
	EventType    string     `json:"event_type"`
	Amount       uint64     `json:"amount"`
	Currency     string     `json:"currency,omitempty"`
	Reference    string     `json:"reference,omitempty"`
	OccurredAt   time.Time  `json:"occurred_at"`
	ReceivedAt   time.Time  `json:"received_at"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
	ProcessError *string    `json:"process_error,omitempty"`
}

func BillingEventToDTO(event *billing.BillingEvent) BillingEventDTO {
	return BillingEventDTO{
		EID:          event.EID(),
		TenantID:     event.TenantID(),
		EventType:    string(event.EventType()),
		Amount:       event.Amount(),
		Currency:     event.Currency(),
		Reference:    event.Reference(),
		OccurredAt:   event.OccurredAt(),
		ReceivedAt:   event.ReceivedAt(),
		ProcessedAt:  event.ProcessedAt(),
		ProcessError: event.ProcessError(),
	}
}
