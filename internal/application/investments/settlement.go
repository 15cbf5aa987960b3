package investments

import (
	"fmt"

	"coinease-backend/internal/pkg/money"

	"github.com/shopspring/decimal"
)

const (
	SettlementAccrual = "accrual"
	SettlementLumpSum = "lump_sum"
)

// SettlementPolicy decides how much return each payout period credits and
// how much is left for the final settlement. Both policies settle every unpaid
// period, so a tick missed while the driver was down is paid late, not lost.
type SettlementPolicy interface {
	Name() string
	PeriodReturn(daily, paid decimal.Decimal, duration int) decimal.Decimal
	FinalReturn(daily, paid decimal.Decimal, duration int) decimal.Decimal
}

func remaining(daily, paid decimal.Decimal, duration int) decimal.Decimal {
	left := TotalReturn(daily, duration).Sub(paid)
	if left.IsNegative() {
		return decimal.Zero
	}
	return left
}

// AccrualPolicy pays the daily return every period and settles whatever is
// still owed. The sum never exceeds daily * duration.
type AccrualPolicy struct{}

func (AccrualPolicy) Name() string { return SettlementAccrual }

func (AccrualPolicy) PeriodReturn(daily, paid decimal.Decimal, duration int) decimal.Decimal {
	return money.Min(daily, remaining(daily, paid, duration))
}

func (AccrualPolicy) FinalReturn(daily, paid decimal.Decimal, duration int) decimal.Decimal {
	return remaining(daily, paid, duration)
}

// LumpSumPolicy pays nothing per period and everything owed at settlement.
type LumpSumPolicy struct{}

func (LumpSumPolicy) Name() string { return SettlementLumpSum }

func (LumpSumPolicy) PeriodReturn(decimal.Decimal, decimal.Decimal, int) decimal.Decimal {
	return decimal.Zero
}

func (LumpSumPolicy) FinalReturn(daily, paid decimal.Decimal, duration int) decimal.Decimal {
	return remaining(daily, paid, duration)
}

// PolicyByName maps the PAYOUT_SETTLEMENT setting to a policy.
func PolicyByName(name string) (SettlementPolicy, error) {
	switch name {
	case "", SettlementAccrual:
		return AccrualPolicy{}, nil
	case SettlementLumpSum:
		return LumpSumPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown settlement policy %q", name)
}
