package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PlanTier string

const (
	TierStarter PlanTier = "starter"
	TierPro     PlanTier = "pro"
)

func (t PlanTier) Valid() bool { return t == TierStarter || t == TierPro }

type PlanLevel string

const (
	LevelSilver   PlanLevel = "silver"
	LevelGold     PlanLevel = "gold"
	LevelPlatinum PlanLevel = "platinum"
)

func (l PlanLevel) Valid() bool {
	return l == LevelSilver || l == LevelGold || l == LevelPlatinum
}

// InvestmentPlan is a product a user can commit balance to. Duration counts
// payout periods.
type InvestmentPlan struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Tier       PlanTier        `gorm:"column:tier;type:varchar(20);not null;uniqueIndex:idx_plan_tier_level" json:"tier"`
	Level      PlanLevel       `gorm:"column:level;type:varchar(20);not null;uniqueIndex:idx_plan_tier_level" json:"level"`
	DailyROI   decimal.Decimal `gorm:"column:daily_roi;type:numeric(5,2);not null" json:"daily_roi"`
	MinDeposit decimal.Decimal `gorm:"column:min_deposit;type:numeric(15,2);not null" json:"min_deposit"`
	MaxDeposit decimal.Decimal `gorm:"column:max_deposit;type:numeric(15,2);not null" json:"max_deposit"`
	Duration   int             `gorm:"column:duration;not null" json:"duration"`
	IsActive   bool            `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt  time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (InvestmentPlan) TableName() string {
	return "investment_plans"
}

func (p *InvestmentPlan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Name renders e.g. "Starter Gold Plan".
func (p InvestmentPlan) Name() string {
	return titleCase(string(p.Tier)) + " " + titleCase(string(p.Level)) + " Plan"
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
