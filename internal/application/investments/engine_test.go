package investments

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"coinease-backend/internal/domain"
	"coinease-backend/internal/pkg/testdb"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const day = 24 * time.Hour

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	db   *gorm.DB
	svc  *Service
	user *domain.User
	plan *domain.InvestmentPlan
}

// newFixture funds a user with 1000 and opens a 1000 investment in a 2% x 5
// period plan at t0.
func newFixture(t *testing.T, policy SettlementPolicy, strength int, expires *time.Time) (*fixture, *View) {
	t.Helper()
	db := testdb.Open(t)
	user := testdb.SeedUser(t, db, testdb.UserOpts{Balance: "1000.00", SignalStrength: strength, SignalExpiresAt: expires})
	plan := testdb.SeedPlan(t, db, "2.00", 5)

	svc := NewService(db, NewEngine(db, day, policy), "USDT")
	svc.Now = func() time.Time { return t0 }
	inv, err := svc.CreateInvestment(context.Background(), user.ID, CreateInput{PlanID: plan.ID, Amount: decimal.NewFromInt(1000)})
	require.NoError(t, err)
	return &fixture{db: db, svc: svc, user: user, plan: plan}, inv
}

func entitled() *time.Time {
	e := t0.Add(30 * day)
	return &e
}

func (f *fixture) balance(t *testing.T) decimal.Decimal {
	return testdb.ReloadUser(t, f.db, f.user.ID).Balance
}

func (f *fixture) investment(t *testing.T, id uuid.UUID) domain.Investment {
	var inv domain.Investment
	require.NoError(t, f.db.First(&inv, "id = ?", id).Error)
	return inv
}

func (f *fixture) count(t *testing.T, typ domain.TransactionType) int64 {
	var n int64
	require.NoError(t, f.db.Model(&domain.Transaction{}).Where("user_id = ? AND type = ?", f.user.ID, typ).Count(&n).Error)
	return n
}

func TestProcessPayout_AccrualFullLifecycle(t *testing.T) {
	f, inv := newFixture(t, AccrualPolicy{}, 3, entitled())
	ctx := context.Background()
	assert.True(t, f.balance(t).IsZero())
	assert.True(t, inv.DailyReturn.Equal(decimal.NewFromInt(20)))

	wantStatus := []domain.InvestmentStatus{
		domain.InvestmentOngoing,
		domain.InvestmentOngoing,
		domain.InvestmentHalfway,
		domain.InvestmentHalfway,
	}
	for k := 1; k <= 4; k++ {
		res, err := f.svc.Engine.ProcessPayout(ctx, inv.ID, t0.Add(time.Duration(k)*day))
		require.NoError(t, err)
		assert.Equal(t, OutcomePartial, res.Outcome, "tick %d", k)
		assert.True(t, res.Credited.Equal(decimal.NewFromInt(20)), "tick %d credited %s", k, res.Credited)
		assert.Equal(t, wantStatus[k-1], res.Investment.Status, "tick %d", k)
	}
	assert.True(t, f.balance(t).Equal(decimal.NewFromInt(80)))

	res, err := f.svc.Engine.ProcessPayout(ctx, inv.ID, t0.Add(5*day))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSettled, res.Outcome)
	assert.True(t, res.Credited.Equal(decimal.NewFromInt(1020)))

	stored := f.investment(t, inv.ID)
	assert.Equal(t, domain.InvestmentCompleted, stored.Status)
	assert.Nil(t, stored.NextPayoutAt)
	assert.True(t, stored.TotalReturns.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 100.0, Progress(stored.StartAt, stored.EndAt, stored.Status, t0))
	assert.True(t, f.balance(t).Equal(decimal.NewFromInt(1100)))
	assert.EqualValues(t, 5, f.count(t, domain.TransactionInvestmentReturn))
	assert.EqualValues(t, 1, f.count(t, domain.TransactionInvestmentCompleted))

	res, err = f.svc.Engine.ProcessPayout(ctx, inv.ID, t0.Add(6*day))
	require.NoError(t, err)
	assert.Equal(t, OutcomeInactive, res.Outcome)
	assert.True(t, f.balance(t).Equal(decimal.NewFromInt(1100)))
}

func TestProcessPayout_LumpSumFullLifecycle(t *testing.T) {
	f, inv := newFixture(t, LumpSumPolicy{}, 4, entitled())
	ctx := context.Background()

	for k := 1; k <= 4; k++ {
		res, err := f.svc.Engine.ProcessPayout(ctx, inv.ID, t0.Add(time.Duration(k)*day))
		require.NoError(t, err)
		assert.Equal(t, OutcomePartial, res.Outcome)
		assert.True(t, res.Credited.IsZero())
	}
	assert.True(t, f.balance(t).IsZero())
	assert.Equal(t, domain.InvestmentHalfway, f.investment(t, inv.ID).Status)

	res, err := f.svc.Engine.ProcessPayout(ctx, inv.ID, t0.Add(5*day))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSettled, res.Outcome)
	assert.True(t, f.balance(t).Equal(decimal.NewFromInt(1100)))
	assert.EqualValues(t, 1, f.count(t, domain.TransactionInvestmentReturn))
}

func TestProcessPayout_BoundaryIsInclusive(t *testing.T) {
	f, inv := newFixture(t, AccrualPolicy{}, 3, entitled())
	ctx := context.Background()
	due := t0.Add(day)

	res, err := f.svc.Engine.ProcessPayout(ctx, inv.ID, due.Add(-time.Second))
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotDue, res.Outcome)
	assert.True(t, f.balance(t).IsZero())

	res, err = f.svc.Engine.ProcessPayout(ctx, inv.ID, due)
	require.NoError(t, err)
	assert.Equal(t, OutcomePartial, res.Outcome)
	assert.True(t, f.balance(t).Equal(decimal.NewFromInt(20)))
}

func TestProcessPayout_IdempotentWithinWindow(t *testing.T) {
	f, inv := newFixture(t, AccrualPolicy{}, 3, entitled())
	ctx := context.Background()
	now := t0.Add(day).Add(time.Minute)

	first, err := f.svc.Engine.ProcessPayout(ctx, inv.ID, now)
	require.NoError(t, err)
	assert.Equal(t, OutcomePartial, first.Outcome)

	for i := 0; i < 3; i++ {
		res, err := f.svc.Engine.ProcessPayout(ctx, inv.ID, now)
		require.NoError(t, err)
		assert.Equal(t, OutcomeNotDue, res.Outcome)
	}
	assert.EqualValues(t, 1, f.count(t, domain.TransactionInvestmentReturn))
	assert.True(t, f.balance(t).Equal(decimal.NewFromInt(20)))
	assert.True(t, f.investment(t, inv.ID).TotalReturns.Equal(decimal.NewFromInt(20)))
}

func TestProcessPayout_ConcurrentCallsPayOnce(t *testing.T) {
	f, inv := newFixture(t, AccrualPolicy{}, 3, entitled())
	now := t0.Add(day)

	const callers = 8
	var wg sync.WaitGroup
	outcomes := make(chan Outcome, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.Engine.ProcessPayout(context.Background(), inv.ID, now)
			if err != nil {
				outcomes <- Outcome("error: " + err.Error())
				return
			}
			outcomes <- res.Outcome
		}()
	}
	wg.Wait()
	close(outcomes)

	paid := 0
	for o := range outcomes {
		if o.Paid() {
			paid++
			continue
		}
		assert.Equal(t, OutcomeNotDue, o)
	}
	assert.Equal(t, 1, paid)
	assert.EqualValues(t, 1, f.count(t, domain.TransactionInvestmentReturn))
	assert.True(t, f.balance(t).Equal(decimal.NewFromInt(20)))
}

func TestProcessPayout_EntitlementGatesPayouts(t *testing.T) {
	expiredAt := t0.Add(12 * time.Hour)
	cases := []struct {
		name     string
		strength int
		expires  *time.Time
	}{
		{"strength below threshold", 2, entitled()},
		{"expired grant", 4, &expiredAt},
		{"no expiry", 3, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, inv := newFixture(t, AccrualPolicy{}, tc.strength, tc.expires)
			before := f.investment(t, inv.ID)

			for k := 1; k <= 7; k++ {
				res, err := f.svc.Engine.ProcessPayout(context.Background(), inv.ID, t0.Add(time.Duration(k)*day))
				require.NoError(t, err)
				assert.Equal(t, OutcomeNotEntitled, res.Outcome)
			}

			after := f.investment(t, inv.ID)
			assert.True(t, f.balance(t).IsZero())
			assert.Equal(t, domain.InvestmentOngoing, after.Status)
			assert.Equal(t, before.Version, after.Version)
			require.NotNil(t, after.NextPayoutAt)
			assert.True(t, before.NextPayoutAt.Equal(*after.NextPayoutAt))
			assert.EqualValues(t, 0, f.count(t, domain.TransactionInvestmentReturn))
		})
	}
}

func TestProcessPayout_ResumesAfterEntitlementRestored(t *testing.T) {
	f, inv := newFixture(t, AccrualPolicy{}, 2, entitled())
	ctx := context.Background()

	res, err := f.svc.Engine.ProcessPayout(ctx, inv.ID, t0.Add(day))
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotEntitled, res.Outcome)

	require.NoError(t, f.db.Model(&domain.User{}).Where("id = ?", f.user.ID).Update("signal_strength", 3).Error)
	res, err = f.svc.Engine.ProcessPayout(ctx, inv.ID, t0.Add(day+time.Hour))
	require.NoError(t, err)
	assert.Equal(t, OutcomePartial, res.Outcome)
	assert.True(t, f.balance(t).Equal(decimal.NewFromInt(20)))
}

func TestProcessPayout_SchedulesMissingNextPayout(t *testing.T) {
	f, inv := newFixture(t, AccrualPolicy{}, 3, entitled())
	require.NoError(t, f.db.Model(&domain.Investment{}).Where("id = ?", inv.ID).Update("next_payout_at", nil).Error)

	now := t0.Add(2 * day)
	res, err := f.svc.Engine.ProcessPayout(context.Background(), inv.ID, now)
	require.NoError(t, err)
	assert.Equal(t, OutcomeScheduled, res.Outcome)

	stored := f.investment(t, inv.ID)
	require.NotNil(t, stored.NextPayoutAt)
	assert.True(t, stored.NextPayoutAt.Equal(now.Add(day)))
	assert.True(t, f.balance(t).IsZero())
}

func TestProcessPayout_UnknownInvestment(t *testing.T) {
	f, _ := newFixture(t, AccrualPolicy{}, 3, entitled())
	_, err := f.svc.Engine.ProcessPayout(context.Background(), uuid.New(), t0)
	assert.ErrorIs(t, err, domain.ErrInvestmentNotFound)
}

func TestCompareAndSwap_StaleVersionConflicts(t *testing.T) {
	f, inv := newFixture(t, AccrualPolicy{}, 3, entitled())
	stale := f.investment(t, inv.ID)
	fresh := stale

	require.NoError(t, compareAndSwap(f.db, &fresh, map[string]interface{}{"status": domain.InvestmentHalfway}))
	assert.Equal(t, stale.Version+1, fresh.Version)

	err := compareAndSwap(f.db, &stale, map[string]interface{}{"status": domain.InvestmentCancelled})
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
	assert.Equal(t, domain.InvestmentHalfway, f.investment(t, inv.ID).Status)
}

func TestReturnsNeverDecrease(t *testing.T) {
	f, inv := newFixture(t, AccrualPolicy{}, 3, entitled())
	prev := decimal.Zero
	for h := 0; h <= 7*24; h += 7 {
		_, err := f.svc.Engine.ProcessPayout(context.Background(), inv.ID, t0.Add(time.Duration(h)*time.Hour))
		require.NoError(t, err)
		cur := f.investment(t, inv.ID).TotalReturns
		assert.True(t, cur.GreaterThanOrEqual(prev))
		prev = cur
	}
	assert.True(t, prev.Equal(decimal.NewFromInt(100)))
	assert.True(t, f.balance(t).Equal(decimal.NewFromInt(1100)))
}

// beforeInvestmentUpdate runs fn inside every UPDATE on the investments table.
func beforeInvestmentUpdate(t *testing.T, db *gorm.DB, fn func(*gorm.DB)) {
	t.Helper()
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:investment_update", func(d *gorm.DB) {
		if d.Statement.Table == "investments" {
			fn(d)
		}
	}))
}

func TestProcessPayout_FailedWriteRollsBackCredit(t *testing.T) {
	f, inv := newFixture(t, AccrualPolicy{}, 3, entitled())
	failing := true
	beforeInvestmentUpdate(t, f.db, func(d *gorm.DB) {
		if failing {
			_ = d.AddError(errors.New("disk full"))
		}
	})

	_, err := f.svc.Engine.ProcessPayout(context.Background(), inv.ID, t0.Add(day))
	require.Error(t, err)
	assert.True(t, f.balance(t).IsZero())
	assert.EqualValues(t, 0, f.count(t, domain.TransactionInvestmentReturn))
	stored := f.investment(t, inv.ID)
	assert.True(t, stored.TotalReturns.IsZero())
	assert.True(t, stored.NextPayoutAt.Equal(t0.Add(day)))

	failing = false
	res, err := f.svc.Engine.ProcessPayout(context.Background(), inv.ID, t0.Add(day))
	require.NoError(t, err)
	assert.Equal(t, OutcomePartial, res.Outcome)
	assert.True(t, f.balance(t).Equal(decimal.NewFromInt(20)))
}

func TestProcessPayout_FailedSettlementKeepsPrincipalLocked(t *testing.T) {
	f, inv := newFixture(t, AccrualPolicy{}, 3, entitled())
	beforeInvestmentUpdate(t, f.db, func(d *gorm.DB) {
		_ = d.AddError(errors.New("disk full"))
	})

	_, err := f.svc.Engine.ProcessPayout(context.Background(), inv.ID, t0.Add(5*day))
	require.Error(t, err)
	assert.True(t, f.balance(t).IsZero())
	assert.EqualValues(t, 0, f.count(t, domain.TransactionInvestmentReturn))
	assert.EqualValues(t, 0, f.count(t, domain.TransactionInvestmentCompleted))
	assert.Equal(t, domain.InvestmentOngoing, f.investment(t, inv.ID).Status)
}

func TestProcessPayout_VersionBumpedMidStepConflicts(t *testing.T) {
	f, inv := newFixture(t, AccrualPolicy{}, 3, entitled())
	bumped := false
	beforeInvestmentUpdate(t, f.db, func(d *gorm.DB) {
		if bumped {
			return
		}
		bumped = true
		_, err := d.Statement.ConnPool.ExecContext(d.Statement.Context,
			"UPDATE investments SET version = version + 1 WHERE id = ?", inv.ID)
		require.NoError(t, err)
	})
	before := f.investment(t, inv.ID)

	_, err := f.svc.Engine.ProcessPayout(context.Background(), inv.ID, t0.Add(day))
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
	assert.True(t, f.balance(t).IsZero())
	assert.EqualValues(t, 0, f.count(t, domain.TransactionInvestmentReturn))
	assert.Equal(t, before.Version, f.investment(t, inv.ID).Version)

	res, err := f.svc.Engine.ProcessPayout(context.Background(), inv.ID, t0.Add(day))
	require.NoError(t, err)
	assert.Equal(t, OutcomePartial, res.Outcome)
	assert.True(t, f.balance(t).Equal(decimal.NewFromInt(20)))
	assert.EqualValues(t, 1, f.count(t, domain.TransactionInvestmentReturn))
}

func TestProcessPayout_AccrualSettlesMissedPeriods(t *testing.T) {
	f, inv := newFixture(t, AccrualPolicy{}, 3, entitled())
	ctx := context.Background()

	for k := 1; k <= 2; k++ {
		_, err := f.svc.Engine.ProcessPayout(ctx, inv.ID, t0.Add(time.Duration(k)*day))
		require.NoError(t, err)
	}
	assert.True(t, f.balance(t).Equal(decimal.NewFromInt(40)))

	res, err := f.svc.Engine.ProcessPayout(ctx, inv.ID, t0.Add(7*day))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSettled, res.Outcome)
	assert.True(t, res.Credited.Equal(decimal.NewFromInt(1060)))
	assert.True(t, f.balance(t).Equal(decimal.NewFromInt(1100)))
	assert.True(t, f.investment(t, inv.ID).TotalReturns.Equal(decimal.NewFromInt(100)))
}
