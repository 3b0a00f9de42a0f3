package valueobjects

import (
	"fmt"
	"strings"
	"time"
)

type BillingCycle string

const (
	BillingCycleDaily   BillingCycle = "daily"
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleAnnual  BillingCycle = "annual"
)

var ValidBillingCycles = map[BillingCycle]bool{
	BillingCycleDaily:   true,
	BillingCycleMonthly: true,
	BillingCycleAnnual:  true,
}

func ParseBillingCycle(value string) (BillingCycle, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	cycle := BillingCycle(normalized)

	if normalized == "" {
		return "", fmt.Errorf("billing cycle cannot be empty")
	}

	if !ValidBillingCycles[cycle] {
		return "", fmt.Errorf("invalid billing cycle: %s", value)
	}

	return cycle, nil
}

func (b BillingCycle) String() string {
	return string(b)
}

func (b BillingCycle) IsValid() bool {
	return ValidBillingCycles[b]
}

// NextPeriodEnd returns the end of a billing period that starts at `from`.
// Daily cycles use numberOfDays (a zero or negative value counts as one day);
// monthly and annual cycles use calendar arithmetic.
func (b BillingCycle) NextPeriodEnd(from time.Time, numberOfDays int) time.Time {
	switch b {
	case BillingCycleDaily:
		if numberOfDays < 1 {
			numberOfDays = 1
		}
		return from.AddDate(0, 0, numberOfDays)
	case BillingCycleMonthly:
		return from.AddDate(0, 1, 0)
	case BillingCycleAnnual:
		return from.AddDate(1, 0, 0)
	default:
		return time.Time{}
	}
}

func (b BillingCycle) MarshalJSON() ([]byte, error) {
	return []byte(`"` + b.String() + `"`), nil
}

func (b *BillingCycle) UnmarshalJSON(data []byte) error {
	str := string(data)
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}

	cycle, err := ParseBillingCycle(str)
	if err != nil {
		return err
	}

	*b = cycle
	return nil
}
