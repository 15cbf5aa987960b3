package investments

import (
	"math"
	"time"

	"coinease-backend/internal/domain"
	"coinease-backend/internal/pkg/money"

	"github.com/shopspring/decimal"
)

// Progress is the elapsed share of the investment window as a percentage with
// two decimals. It only reaches 100 once the window has elapsed or the
// investment is completed.
func Progress(start, end time.Time, status domain.InvestmentStatus, now time.Time) float64 {
	if status == domain.InvestmentCompleted {
		return 100
	}
	total := end.Sub(start)
	if total <= 0 {
		return 100
	}
	elapsed := now.Sub(start)
	if elapsed <= 0 {
		return 0
	}
	if elapsed >= total {
		return 100
	}
	p := math.Round(float64(elapsed)/float64(total)*100*100) / 100
	return math.Min(p, 99.99)
}

// DailyReturn is amount * roi / 100, rounded half up to cents.
func DailyReturn(amount, dailyROI decimal.Decimal) decimal.Decimal {
	return money.Percent(amount, dailyROI)
}

// TotalReturn is what the plan promises over its whole duration.
func TotalReturn(daily decimal.Decimal, duration int) decimal.Decimal {
	return money.Quantize(daily.Mul(decimal.NewFromInt(int64(duration))))
}
