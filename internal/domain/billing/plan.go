package billing

import (
	"fmt"
	"time"

	vo "github.com/dukapos/dukapos/internal/domain/billing/valueobjects"
)

type PlanStatus string

const (
	PlanStatusActive     PlanStatus = "active"
	PlanStatusInactive   PlanStatus = "inactive"
	PlanStatusDeprecated PlanStatus = "deprecated"
)

var validPlanStatuses = map[PlanStatus]bool{
	PlanStatusActive:     true,
	PlanStatusInactive:   true,
	PlanStatusDeprecated: true,
}

// Plan is the reference catalog entry a subscription bills against.
// Prices are stored in minor currency units. Limits are absolute caps on
// the tenant's countable resources; a subscription snapshots the price at
// payment time, so catalog edits never apply retroactively.
type Plan struct {
	id           uint
	code         string
	name         string
	description  string
	dailyPrice   uint64
	monthlyPrice uint64
	annualPrice  uint64
	maxShops     uint
	maxEmployees uint
	maxProducts  uint
	trialDays    int
	status       PlanStatus
	version      int
	createdAt    time.Time
	updatedAt    time.Time
}

func NewPlan(code, name, description string, dailyPrice, monthlyPrice, annualPrice uint64,
	maxShops, maxEmployees, maxProducts uint, trialDays int) (*Plan, error) {

	if code == "" {
		return nil, fmt.Errorf("plan code is required")
	}
	if name == "" {
		return nil, fmt.Errorf("plan name is required")
	}
	if len(code) > 100 {
		return nil, fmt.Errorf("plan code too long (max 100 characters)")
	}
	if trialDays < 0 {
		return nil, fmt.Errorf("trial days cannot be negative")
	}

	now := time.Now().UTC()
	return &Plan{
		code:         code,
		name:         name,
		description:  description,
		dailyPrice:   dailyPrice,
		monthlyPrice: monthlyPrice,
		annualPrice:  annualPrice,
		maxShops:     maxShops,
		maxEmployees: maxEmployees,
		maxProducts:  maxProducts,
		trialDays:    trialDays,
		status:       PlanStatusActive,
		version:      1,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

func ReconstructPlan(id uint, code, name, description string,
	dailyPrice, monthlyPrice, annualPrice uint64,
	maxShops, maxEmployees, maxProducts uint, trialDays int, status string,
	version int, createdAt, updatedAt time.Time) (*Plan, error) {

	if id == 0 {
		return nil, fmt.Errorf("plan ID cannot be zero")
	}

	planStatus := PlanStatus(status)
	if !validPlanStatuses[planStatus] {
		return nil, fmt.Errorf("invalid plan status: %s", status)
	}

	return &Plan{
		id:           id,
		code:         code,
		name:         name,
		description:  description,
		dailyPrice:   dailyPrice,
		monthlyPrice: monthlyPrice,
		annualPrice:  annualPrice,
		maxShops:     maxShops,
		maxEmployees: maxEmployees,
		maxProducts:  maxProducts,
		trialDays:    trialDays,
		status:       planStatus,
		version:      version,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}, nil
}

func (p *Plan) ID() uint {
	return p.id
}

func (p *Plan) SetID(id uint) error {
	if p.id != 0 {
		return fmt.Errorf("plan ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("plan ID cannot be zero")
	}
	p.id = id
	return nil
}

func (p *Plan) Code() string {
	return p.code
}

func (p *Plan) Name() string {
	return p.name
}

func (p *Plan) Description() string {
	return p.description
}

func (p *Plan) DailyPrice() uint64 {
	return p.dailyPrice
}

func (p *Plan) MonthlyPrice() uint64 {
	return p.monthlyPrice
}

func (p *Plan) AnnualPrice() uint64 {
	return p.annualPrice
}

func (p *Plan) MaxShops() uint {
	return p.maxShops
}

func (p *Plan) MaxEmployees() uint {
	return p.maxEmployees
}

func (p *Plan) MaxProducts() uint {
	return p.maxProducts
}

func (p *Plan) TrialDays() int {
	return p.trialDays
}

func (p *Plan) Status() PlanStatus {
	return p.status
}

func (p *Plan) Version() int {
	return p.version
}

func (p *Plan) CreatedAt() time.Time {
	return p.createdAt
}

func (p *Plan) UpdatedAt() time.Time {
	return p.updatedAt
}

func (p *Plan) IsActive() bool {
	return p.status == PlanStatusActive
}

// GrantsTrial reports whether new tenants on this plan start with a free trial.
func (p *Plan) GrantsTrial() bool {
	return p.trialDays > 0
}

// PriceFor returns the catalog price for the given billing cycle.
func (p *Plan) PriceFor(cycle vo.BillingCycle) (uint64, error) {
	switch cycle {
	case vo.BillingCycleDaily:
		return p.dailyPrice, nil
	case vo.BillingCycleMonthly:
		return p.monthlyPrice, nil
	case vo.BillingCycleAnnual:
		return p.annualPrice, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrInvalidBillingCycle, cycle)
	}
}

// LimitFor returns the resource cap for the given resource kind.
func (p *Plan) LimitFor(resource vo.Resource) (uint, error) {
	switch resource {
	case vo.ResourceShops:
		return p.maxShops, nil
	case vo.ResourceEmployees:
		return p.maxEmployees, nil
	case vo.ResourceProducts:
		return p.maxProducts, nil
	default:
		return 0, fmt.Errorf("invalid resource: %s", resource)
	}
}

func (p *Plan) Activate() {
	if p.status == PlanStatusActive {
		return
	}
	p.status = PlanStatusActive
	p.updatedAt = time.Now().UTC()
	p.version++
}

func (p *Plan) Deactivate() {
	if p.status == PlanStatusInactive {
		return
	}
	p.status = PlanStatusInactive
	p.updatedAt = time.Now().UTC()
	p.version++
}

func (p *Plan) Deprecate() {
	if p.status == PlanStatusDeprecated {
		return
	}
	p.status = PlanStatusDeprecated
	p.updatedAt = time.Now().UTC()
	p.version++
}

func (p *Plan) UpdatePrices(dailyPrice, monthlyPrice, annualPrice uint64) {
	p.dailyPrice = dailyPrice
	p.monthlyPrice = monthlyPrice
	p.annualPrice = annualPrice
	p.updatedAt = time.Now().UTC()
	p.version++
}

func (p *Plan) UpdateLimits(maxShops, maxEmployees, maxProducts uint) {
	p.maxShops = maxShops
	p.maxEmployees = maxEmployees
	p.maxProducts = maxProducts
	p.updatedAt = time.Now().UTC()
	p.version++
}
