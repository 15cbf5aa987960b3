package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// User is an account holder. Balance is written only by the ledger package
// while the row is locked.
type User struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email              string          `gorm:"column:email;not null;uniqueIndex" json:"email"`
	FullName           string          `gorm:"column:full_name;not null" json:"full_name"`
	PasswordHash       string          `gorm:"column:password_hash;not null" json:"-"`
	TransactionPinHash string          `gorm:"column:transaction_pin_hash" json:"-"`
	Role               string          `gorm:"column:role;type:varchar(20);not null" json:"role"`
	Balance            decimal.Decimal `gorm:"column:balance;type:numeric(18,2);not null" json:"balance"`
	SignalStrength     int             `gorm:"column:signal_strength;not null" json:"signal_strength"`
	SignalExpiresAt    *time.Time      `gorm:"column:signal_expires_at;index" json:"signal_expires_at"`
	ReferralCode       string          `gorm:"column:referral_code;type:varchar(10);uniqueIndex" json:"referral_code"`
	PhoneNumber        *string         `gorm:"column:phone_number" json:"phone_number"`
	Address            *string         `gorm:"column:address" json:"address"`
	Occupation         *string         `gorm:"column:occupation" json:"occupation"`
	Country            *string         `gorm:"column:country" json:"country"`
	WalletNetwork      *string         `gorm:"column:wallet_network" json:"wallet_network"`
	WalletAddress      *string         `gorm:"column:wallet_address" json:"wallet_address"`
	CreatedAt          time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Signal strength bounds.
const (
	MinSignalStrength = 1
	MaxSignalStrength = 4
)
