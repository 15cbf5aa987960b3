package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InvestmentStatus string

const (
	InvestmentOngoing   InvestmentStatus = "ongoing"
	InvestmentHalfway   InvestmentStatus = "halfway"
	InvestmentCompleted InvestmentStatus = "completed"
	InvestmentCancelled InvestmentStatus = "cancelled"
)

// Payable reports whether the payout engine may still act on the investment.
func (s InvestmentStatus) Payable() bool {
	return s == InvestmentOngoing || s == InvestmentHalfway
}

func (s InvestmentStatus) Valid() bool {
	switch s {
	case InvestmentOngoing, InvestmentHalfway, InvestmentCompleted, InvestmentCancelled:
		return true
	}
	return false
}

// Investment is a user's commitment of principal to a plan. Version is bumped
// on every engine write and compared on update.
type Investment struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	PlanID        uuid.UUID        `gorm:"column:plan_id;type:uuid;not null;index" json:"plan_id"`
	Plan          *InvestmentPlan  `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	TransactionID uuid.UUID        `gorm:"column:transaction_id;type:uuid;not null" json:"transaction_id"`
	Amount        decimal.Decimal  `gorm:"column:amount;type:numeric(15,2);not null" json:"amount"`
	Currency      string           `gorm:"column:currency;type:varchar(10);not null" json:"currency"`
	Status        InvestmentStatus `gorm:"column:status;type:varchar(20);not null;index" json:"status"`
	StartAt       time.Time        `gorm:"column:start_at;not null" json:"start_date"`
	EndAt         time.Time        `gorm:"column:end_at;not null" json:"end_date"`
	TotalReturns  decimal.Decimal  `gorm:"column:total_returns;type:numeric(15,2);not null" json:"total_returns"`
	LastPayoutAt  *time.Time       `gorm:"column:last_payout_at" json:"last_payout_date"`
	NextPayoutAt  *time.Time       `gorm:"column:next_payout_at;index" json:"next_payout_date"`
	Version       int64            `gorm:"column:version;not null" json:"-"`
	CreatedAt     time.Time        `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"column:updated_at" json:"updated_at"`
}

func (Investment) TableName() string {
	return "investments"
}

func (i *Investment) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
