package investments

import (
	"context"
	"errors"
	"time"

	"coinease-backend/internal/application/entitlement"
	"coinease-backend/internal/application/ledger"
	"coinease-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Outcome says what a single ProcessPayout call did.
type Outcome string

const (
	OutcomeInactive    Outcome = "inactive"
	OutcomeScheduled   Outcome = "scheduled"
	OutcomeNotEntitled Outcome = "not_entitled"
	OutcomeNotDue      Outcome = "not_due"
	OutcomePartial     Outcome = "partial_payout"
	OutcomeSettled     Outcome = "settled"
)

// Paid reports whether the call advanced the payout schedule.
func (o Outcome) Paid() bool {
	return o == OutcomePartial || o == OutcomeSettled
}

type Result struct {
	Outcome    Outcome
	Credited   decimal.Decimal
	Investment *domain.Investment
}

// Engine applies at most one payout per investment per payout window.
type Engine struct {
	DB     *gorm.DB
	Period time.Duration
	Policy SettlementPolicy
}

func NewEngine(db *gorm.DB, period time.Duration, policy SettlementPolicy) *Engine {
	if policy == nil {
		policy = AccrualPolicy{}
	}
	return &Engine{DB: db, Period: period, Policy: policy}
}

// ProcessPayout evaluates investment id at now. The investment and its owner
// are locked for the whole step and the investment is written back through a
// version check, so overlapping callers cannot pay the same window twice.
func (e *Engine) ProcessPayout(ctx context.Context, id uuid.UUID, now time.Time) (Result, error) {
	var res Result
	err := e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := lockInvestment(tx, id)
		if err != nil {
			return err
		}
		res.Investment = inv
		res.Credited = decimal.Zero

		if !inv.Status.Payable() {
			res.Outcome = OutcomeInactive
			return nil
		}

		if inv.NextPayoutAt == nil {
			next := now.Add(e.Period)
			if err := compareAndSwap(tx, inv, map[string]interface{}{"next_payout_at": next}); err != nil {
				return err
			}
			inv.NextPayoutAt = &next
			res.Outcome = OutcomeScheduled
			return nil
		}

		user, err := ledger.LockUser(tx, inv.UserID)
		if err != nil {
			return err
		}
		if !entitlement.Active(now, user.SignalStrength, user.SignalExpiresAt) {
			res.Outcome = OutcomeNotEntitled
			return nil
		}

		if now.Before(*inv.NextPayoutAt) {
			res.Outcome = OutcomeNotDue
			return nil
		}

		var plan domain.InvestmentPlan
		if err := tx.Where("id = ?", inv.PlanID).First(&plan).Error; err != nil {
			return err
		}
		inv.Plan = &plan
		daily := DailyReturn(inv.Amount, plan.DailyROI)

		if !now.Before(inv.EndAt) {
			res.Credited, err = e.settle(tx, inv, user, daily, now)
			res.Outcome = OutcomeSettled
			return err
		}
		res.Credited, err = e.payPeriod(tx, inv, user, daily, now)
		res.Outcome = OutcomePartial
		return err
	})
	if err != nil {
		return Result{}, err
	}
	if res.Outcome.Paid() {
		log.Info().
			Str("investment_id", id.String()).
			Str("outcome", string(res.Outcome)).
			Str("credited", res.Credited.StringFixed(2)).
			Msg("Investment payout applied")
	}
	return res, nil
}

func (e *Engine) payPeriod(tx *gorm.DB, inv *domain.Investment, user *domain.User, daily decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	amount := e.Policy.PeriodReturn(daily, inv.TotalReturns, inv.Plan.Duration)
	if amount.IsPositive() {
		if _, err := ledger.Post(tx, user, ledger.Posting{
			Entry:        ledger.InvestmentReturn{Amt: amount, PlanName: inv.Plan.Name()},
			Status:       domain.TransactionSuccessful,
			Currency:     inv.Currency,
			InvestmentID: &inv.ID,
		}); err != nil {
			return decimal.Zero, err
		}
	}

	status := inv.Status
	if status == domain.InvestmentOngoing && Progress(inv.StartAt, inv.EndAt, status, now) >= 50 {
		status = domain.InvestmentHalfway
	}
	next := now.Add(e.Period)
	total := inv.TotalReturns.Add(amount)
	if err := compareAndSwap(tx, inv, map[string]interface{}{
		"total_returns":  total,
		"last_payout_at": now,
		"next_payout_at": next,
		"status":         status,
	}); err != nil {
		return decimal.Zero, err
	}
	inv.TotalReturns = total
	inv.LastPayoutAt = &now
	inv.NextPayoutAt = &next
	inv.Status = status
	return amount, nil
}

func (e *Engine) settle(tx *gorm.DB, inv *domain.Investment, user *domain.User, daily decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	final := e.Policy.FinalReturn(daily, inv.TotalReturns, inv.Plan.Duration)
	if final.IsPositive() {
		if _, err := ledger.Post(tx, user, ledger.Posting{
			Entry:        ledger.InvestmentReturn{Amt: final, PlanName: inv.Plan.Name(), Final: true},
			Status:       domain.TransactionSuccessful,
			Currency:     inv.Currency,
			InvestmentID: &inv.ID,
		}); err != nil {
			return decimal.Zero, err
		}
	}
	if _, err := ledger.Post(tx, user, ledger.Posting{
		Entry:        ledger.InvestmentCompleted{Amt: inv.Amount, PlanName: inv.Plan.Name()},
		Status:       domain.TransactionSuccessful,
		Currency:     inv.Currency,
		InvestmentID: &inv.ID,
	}); err != nil {
		return decimal.Zero, err
	}

	total := inv.TotalReturns.Add(final)
	if err := compareAndSwap(tx, inv, map[string]interface{}{
		"total_returns":  total,
		"last_payout_at": now,
		"next_payout_at": nil,
		"status":         domain.InvestmentCompleted,
	}); err != nil {
		return decimal.Zero, err
	}
	inv.TotalReturns = total
	inv.LastPayoutAt = &now
	inv.NextPayoutAt = nil
	inv.Status = domain.InvestmentCompleted
	return final.Add(inv.Amount), nil
}

func lockInvestment(tx *gorm.DB, id uuid.UUID) (*domain.Investment, error) {
	var inv domain.Investment
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrInvestmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// compareAndSwap writes updates only if the stored version still matches inv.
func compareAndSwap(tx *gorm.DB, inv *domain.Investment, updates map[string]interface{}) error {
	updates["version"] = inv.Version + 1
	res := tx.Model(&domain.Investment{}).
		Where("id = ? AND version = ?", inv.ID, inv.Version).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrConcurrencyConflict
	}
	inv.Version++
	return nil
}
