package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TransactionDeposit             TransactionType = "deposit"
	TransactionWithdrawal          TransactionType = "withdrawal"
	TransactionInvestment          TransactionType = "investment"
	TransactionInvestmentReturn    TransactionType = "investment_return"
	TransactionInvestmentCompleted TransactionType = "investment_completed"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionDeposit, TransactionWithdrawal, TransactionInvestment,
		TransactionInvestmentReturn, TransactionInvestmentCompleted:
		return true
	}
	return false
}

type TransactionStatus string

const (
	TransactionPending    TransactionStatus = "pending"
	TransactionSuccessful TransactionStatus = "successful"
	TransactionFailed     TransactionStatus = "failed"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionPending, TransactionSuccessful, TransactionFailed:
		return true
	}
	return false
}

// Transaction is a ledger entry. Rows are append-only; the single permitted
// mutation is a pending deposit moving to successful or failed on review.
type Transaction struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	InvestmentID *uuid.UUID        `gorm:"column:investment_id;type:uuid;index" json:"investment_id,omitempty"`
	Type         TransactionType   `gorm:"column:type;type:varchar(20);not null;index" json:"type"`
	Status       TransactionStatus `gorm:"column:status;type:varchar(20);not null;index" json:"status"`
	Amount       decimal.Decimal   `gorm:"column:amount;type:numeric(18,2);not null" json:"amount"`
	Currency     string            `gorm:"column:currency;type:varchar(10);not null" json:"currency"`
	Description  string            `gorm:"column:description" json:"description"`
	Details      datatypes.JSON    `gorm:"column:details" json:"details,omitempty"`
	ReviewedBy   *uuid.UUID        `gorm:"column:reviewed_by;type:uuid" json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time        `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt    time.Time         `gorm:"column:created_at;index" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"column:updated_at" json:"updated_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
