package testdb

import (
	"testing"
	"time"

	"coinease-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Credentials given to users created by SeedUser.
const (
	TestPin      = "1234"
	TestPassword = "Passw0rd!"
)

// UserOpts tweaks SeedUser.
type UserOpts struct {
	Email           string
	Balance         string
	Role            string
	SignalStrength  int
	SignalExpiresAt *time.Time
}

// SeedUser inserts a user with TestPin as the transaction PIN.
func SeedUser(t testing.TB, db *gorm.DB, o UserOpts) *domain.User {
	t.Helper()
	if o.Email == "" {
		o.Email = uuid.NewString()[:8] + "@example.com"
	}
	if o.Balance == "" {
		o.Balance = "0"
	}
	if o.Role == "" {
		o.Role = "user"
	}
	if o.SignalStrength == 0 {
		o.SignalStrength = 1
	}
	pin, err := bcrypt.GenerateFromPassword([]byte(TestPin), bcrypt.MinCost)
	require.NoError(t, err)
	pw, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	require.NoError(t, err)

	u := &domain.User{
		Email:              o.Email,
		FullName:           "Test User",
		PasswordHash:       string(pw),
		TransactionPinHash: string(pin),
		Role:               o.Role,
		Balance:            decimal.RequireFromString(o.Balance),
		SignalStrength:     o.SignalStrength,
		SignalExpiresAt:    o.SignalExpiresAt,
		ReferralCode:       uuid.NewString()[:10],
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// SeedPlan inserts an active plan with the given daily ROI and duration.
func SeedPlan(t testing.TB, db *gorm.DB, roi string, duration int) *domain.InvestmentPlan {
	t.Helper()
	p := &domain.InvestmentPlan{
		Tier:       domain.TierStarter,
		Level:      domain.PlanLevel([]string{"silver", "gold", "platinum"}[countPlans(t, db)%3]),
		DailyROI:   decimal.RequireFromString(roi),
		MinDeposit: decimal.NewFromInt(100),
		MaxDeposit: decimal.NewFromInt(10000),
		Duration:   duration,
		IsActive:   true,
	}
	if countPlans(t, db) >= 3 {
		p.Tier = domain.TierPro
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func countPlans(t testing.TB, db *gorm.DB) int {
	var n int64
	require.NoError(t, db.Model(&domain.InvestmentPlan{}).Count(&n).Error)
	return int(n)
}

// ReloadUser reads the user row back.
func ReloadUser(t testing.TB, db *gorm.DB, id uuid.UUID) *domain.User {
	t.Helper()
	var u domain.User
	require.NoError(t, db.First(&u, "id = ?", id).Error)
	return &u
}

// Entries returns the user's ledger entries, oldest first.
func Entries(t testing.TB, db *gorm.DB, userID uuid.UUID) []domain.Transaction {
	t.Helper()
	var out []domain.Transaction
	require.NoError(t, db.Where("user_id = ?", userID).Order("created_at ASC").Find(&out).Error)
	return out
}
