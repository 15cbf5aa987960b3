package investments

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"coinease-backend/internal/application/ledger"
	"coinease-backend/internal/domain"
	"coinease-backend/internal/pkg/money"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service struct {
	DB              *gorm.DB
	Engine          *Engine
	DefaultCurrency string
	Now             func() time.Time
}

func NewService(db *gorm.DB, engine *Engine, defaultCurrency string) *Service {
	return &Service{DB: db, Engine: engine, DefaultCurrency: defaultCurrency, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// View is an investment plus the values derived from it at read time.
type View struct {
	*domain.Investment
	Progress    float64         `json:"progress"`
	DailyReturn decimal.Decimal `json:"daily_return"`
	PlanName    string          `json:"plan_name"`
}

func newView(inv *domain.Investment, now time.Time) View {
	v := View{
		Investment:  inv,
		Progress:    Progress(inv.StartAt, inv.EndAt, inv.Status, now),
		DailyReturn: decimal.Zero,
	}
	if inv.Plan != nil {
		v.DailyReturn = DailyReturn(inv.Amount, inv.Plan.DailyROI)
		v.PlanName = inv.Plan.Name()
	}
	return v
}

type CreateInput struct {
	PlanID   uuid.UUID
	Amount   decimal.Decimal
	Currency string
}

// CreateInvestment debits the user's balance and opens an investment. The
// first payout falls due one period after creation.
func (s *Service) CreateInvestment(ctx context.Context, userID uuid.UUID, in CreateInput) (*View, error) {
	amount := money.Quantize(in.Amount)
	if !money.Positive(amount) {
		return nil, domain.ErrInvalidAmount
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = s.DefaultCurrency
	}

	var plan domain.InvestmentPlan
	err := s.DB.WithContext(ctx).Where("id = ? AND is_active = ?", in.PlanID, true).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	if amount.LessThan(plan.MinDeposit) {
		return nil, fmt.Errorf("%w: minimum deposit for this plan is %s", domain.ErrAmountOutOfRange, money.Format(plan.MinDeposit))
	}
	if amount.GreaterThan(plan.MaxDeposit) {
		return nil, fmt.Errorf("%w: maximum deposit for this plan is %s", domain.ErrAmountOutOfRange, money.Format(plan.MaxDeposit))
	}

	now := s.now()
	period := s.Engine.Period
	end, err := investmentWindow(now, period, plan.Duration)
	if err != nil {
		log.Error().Str("plan_id", plan.ID.String()).Int("duration", plan.Duration).Msg("Plan duration gives no usable investment window")
		return nil, err
	}
	inv := &domain.Investment{
		ID:           uuid.New(),
		UserID:       userID,
		PlanID:       plan.ID,
		Amount:       amount,
		Currency:     currency,
		Status:       domain.InvestmentOngoing,
		StartAt:      now,
		EndAt:        end,
		TotalReturns: decimal.Zero,
	}
	next := now.Add(period)
	inv.NextPayoutAt = &next

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := ledger.LockUser(tx, userID)
		if err != nil {
			return err
		}
		txn, err := ledger.Post(tx, user, ledger.Posting{
			Entry:        ledger.InvestmentDebit{Amt: amount, PlanName: plan.Name()},
			Status:       domain.TransactionSuccessful,
			Currency:     currency,
			InvestmentID: &inv.ID,
		})
		if err != nil {
			return err
		}
		inv.TransactionID = txn.ID
		return tx.Create(inv).Error
	})
	if err != nil {
		return nil, err
	}
	inv.Plan = &plan

	log.Info().Str("user_id", userID.String()).Str("investment_id", inv.ID.String()).
		Str("plan", plan.Name()).Str("amount", money.Format(amount)).Msg("Investment created")
	v := newView(inv, now)
	return &v, nil
}

// investmentWindow returns the end of a duration-period investment opened at
// start. The end must fall strictly after start.
func investmentWindow(start time.Time, period time.Duration, duration int) (time.Time, error) {
	if period <= 0 || duration <= 0 || int64(duration) > math.MaxInt64/int64(period) {
		return time.Time{}, domain.ErrPlanWindow
	}
	end := start.Add(time.Duration(duration) * period)
	if !end.After(start) {
		return time.Time{}, domain.ErrPlanWindow
	}
	return end, nil
}

// GetInvestment runs a payout check before reading, so a due payout shows up
// in the returned state. A concurrent payout in flight is not an error here.
func (s *Service) GetInvestment(ctx context.Context, userID, id uuid.UUID) (*View, error) {
	if _, err := s.findOwned(ctx, userID, id); err != nil {
		return nil, err
	}
	now := s.now()
	if _, err := s.Engine.ProcessPayout(ctx, id, now); err != nil {
		if !errors.Is(err, domain.ErrConcurrencyConflict) {
			return nil, err
		}
		log.Warn().Str("investment_id", id.String()).Msg("Payout skipped on read: concurrent update")
	}
	inv, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	v := newView(inv, now)
	return &v, nil
}

func (s *Service) findOwned(ctx context.Context, userID, id uuid.UUID) (*domain.Investment, error) {
	var inv domain.Investment
	err := s.DB.WithContext(ctx).Preload("Plan").Where("id = ? AND user_id = ?", id, userID).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrInvestmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// ListInvestments returns the user's investments, newest first.
func (s *Service) ListInvestments(ctx context.Context, userID uuid.UUID, status string) ([]View, error) {
	q := s.DB.WithContext(ctx).Preload("Plan").Where("user_id = ?", userID)
	if status != "" {
		if !domain.InvestmentStatus(status).Valid() {
			return nil, domain.NewValidationError("Invalid investment status")
		}
		q = q.Where("status = ?", status)
	}
	var rows []domain.Investment
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]View, 0, len(rows))
	for i := range rows {
		out = append(out, newView(&rows[i], now))
	}
	return out, nil
}

// PayableIDs lists investments the scheduler should evaluate.
func (s *Service) PayableIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.DB.WithContext(ctx).Model(&domain.Investment{}).
		Where("status IN ?", []domain.InvestmentStatus{domain.InvestmentOngoing, domain.InvestmentHalfway}).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// CancelInvestment stops an ongoing or halfway investment and returns its
// principal. Returns already paid stay with the user.
func (s *Service) CancelInvestment(ctx context.Context, id uuid.UUID) (*View, error) {
	now := s.now()
	var inv *domain.Investment
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if inv, err = lockInvestment(tx, id); err != nil {
			return err
		}
		if !inv.Status.Payable() {
			return domain.ErrInvalidState
		}
		var plan domain.InvestmentPlan
		if err := tx.Where("id = ?", inv.PlanID).First(&plan).Error; err != nil {
			return err
		}
		inv.Plan = &plan
		user, err := ledger.LockUser(tx, inv.UserID)
		if err != nil {
			return err
		}
		if _, err := ledger.Post(tx, user, ledger.Posting{
			Entry:        ledger.InvestmentCompleted{Amt: inv.Amount, PlanName: plan.Name(), Cancelled: true},
			Status:       domain.TransactionSuccessful,
			Currency:     inv.Currency,
			InvestmentID: &inv.ID,
		}); err != nil {
			return err
		}
		if err := compareAndSwap(tx, inv, map[string]interface{}{
			"status":         domain.InvestmentCancelled,
			"next_payout_at": nil,
		}); err != nil {
			return err
		}
		inv.Status = domain.InvestmentCancelled
		inv.NextPayoutAt = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("investment_id", id.String()).Msg("Investment cancelled")
	v := newView(inv, now)
	return &v, nil
}

// BackfillNextPayouts schedules payable investments that have no next payout
// time. It returns the number of rows updated.
func (s *Service) BackfillNextPayouts(ctx context.Context, now time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&domain.Investment{}).
		Where("next_payout_at IS NULL AND status IN ?", []domain.InvestmentStatus{domain.InvestmentOngoing, domain.InvestmentHalfway}).
		Updates(map[string]interface{}{
			"next_payout_at": now.Add(s.Engine.Period),
			"version":        gorm.Expr("version + 1"),
		})
	return res.RowsAffected, res.Error
}
