package investments

import (
	"context"
	"errors"
	"fmt"

	"coinease-backend/internal/domain"
	"coinease-backend/internal/pkg/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ListPlans returns active plans.
func (s *Service) ListPlans(ctx context.Context) ([]domain.InvestmentPlan, error) {
	var plans []domain.InvestmentPlan
	err := s.DB.WithContext(ctx).Where("is_active = ?", true).Order("tier ASC, min_deposit ASC").Find(&plans).Error
	return plans, err
}

const (
	// MaxPlanDuration caps a plan at roughly ten years of daily periods.
	MaxPlanDuration = 3650
)

// daily_roi is numeric(5,2).
var maxDailyROI = decimal.NewFromInt(1000)

type PlanInput struct {
	Tier       domain.PlanTier
	Level      domain.PlanLevel
	DailyROI   decimal.Decimal
	MinDeposit decimal.Decimal
	MaxDeposit decimal.Decimal
	Duration   int
	IsActive   bool
}

// PlanUpdate carries the fields an admin may change; nil means unchanged.
type PlanUpdate struct {
	DailyROI   *decimal.Decimal
	MinDeposit *decimal.Decimal
	MaxDeposit *decimal.Decimal
	Duration   *int
	IsActive   *bool
}

func validatePlan(p *domain.InvestmentPlan) error {
	if !p.Tier.Valid() {
		return domain.NewValidationError("Tier must be starter or pro")
	}
	if !p.Level.Valid() {
		return domain.NewValidationError("Level must be silver, gold or platinum")
	}
	if !money.Positive(p.DailyROI) || p.DailyROI.GreaterThanOrEqual(maxDailyROI) {
		return domain.NewValidationError("Daily ROI must be greater than zero and below 1000")
	}
	if p.MinDeposit.IsNegative() || p.MinDeposit.GreaterThan(p.MaxDeposit) {
		return domain.NewValidationError("Minimum deposit must be between zero and the maximum deposit")
	}
	if p.Duration <= 0 || p.Duration > MaxPlanDuration {
		return domain.NewValidationError(fmt.Sprintf("Duration must be between 1 and %d periods", MaxPlanDuration))
	}
	return nil
}

func (s *Service) CreatePlan(ctx context.Context, in PlanInput) (*domain.InvestmentPlan, error) {
	plan := &domain.InvestmentPlan{
		Tier:       in.Tier,
		Level:      in.Level,
		DailyROI:   in.DailyROI.Round(2),
		MinDeposit: money.Quantize(in.MinDeposit),
		MaxDeposit: money.Quantize(in.MaxDeposit),
		Duration:   in.Duration,
		IsActive:   in.IsActive,
	}
	if err := validatePlan(plan); err != nil {
		return nil, err
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.InvestmentPlan{}).Where("tier = ? AND level = ?", plan.Tier, plan.Level).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrPlanExists
		}
		return tx.Create(plan).Error
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// UpdatePlan applies the non-nil fields of up. Once an investment references
// the plan only IsActive may change.
func (s *Service) UpdatePlan(ctx context.Context, id uuid.UUID, up PlanUpdate) (*domain.InvestmentPlan, error) {
	var plan domain.InvestmentPlan
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&plan).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrPlanNotFound
			}
			return err
		}
		changes := map[string]interface{}{}
		if up.DailyROI != nil {
			plan.DailyROI = up.DailyROI.Round(2)
			changes["daily_roi"] = plan.DailyROI
		}
		if up.MinDeposit != nil {
			plan.MinDeposit = money.Quantize(*up.MinDeposit)
			changes["min_deposit"] = plan.MinDeposit
		}
		if up.MaxDeposit != nil {
			plan.MaxDeposit = money.Quantize(*up.MaxDeposit)
			changes["max_deposit"] = plan.MaxDeposit
		}
		if up.Duration != nil {
			plan.Duration = *up.Duration
			changes["duration"] = plan.Duration
		}
		if up.IsActive != nil {
			plan.IsActive = *up.IsActive
			changes["is_active"] = plan.IsActive
		}
		if len(changes) == 0 {
			return nil
		}
		if terms := len(changes) - boolToInt(up.IsActive != nil); terms > 0 {
			var n int64
			if err := tx.Model(&domain.Investment{}).Where("plan_id = ?", id).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return domain.ErrPlanInUse
			}
		}
		if err := validatePlan(&plan); err != nil {
			return err
		}
		return tx.Model(&domain.InvestmentPlan{}).Where("id = ?", id).Updates(changes).Error
	})
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
