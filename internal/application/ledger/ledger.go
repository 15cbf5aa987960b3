// Package ledger appends transaction entries and is the only writer of
// users.balance. Callers run inside a gorm transaction and lock the user row
// with LockUser before posting.
package ledger

import (
	"encoding/json"
	"errors"
	"time"

	"coinease-backend/internal/domain"
	"coinease-backend/internal/pkg/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LockUser loads the user row with SELECT ... FOR UPDATE.
func LockUser(tx *gorm.DB, userID uuid.UUID) (*domain.User, error) {
	var u domain.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", userID).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Posting is an entry bound to its owner and lifecycle status.
type Posting struct {
	Entry        Entry
	Status       domain.TransactionStatus
	Currency     string
	InvestmentID *uuid.UUID
}

// Post records p for user. A successful posting also moves the balance; if
// the balance cannot cover a debit nothing is written.
func Post(tx *gorm.DB, user *domain.User, p Posting) (*domain.Transaction, error) {
	amount := money.Quantize(p.Entry.Amount())
	if !money.Positive(amount) {
		return nil, domain.ErrInvalidAmount
	}

	newBalance := user.Balance
	if p.Status == domain.TransactionSuccessful {
		var err error
		if newBalance, err = p.Entry.ApplyToBalance(user.Balance); err != nil {
			return nil, err
		}
	}

	details, err := json.Marshal(p.Entry.Details())
	if err != nil {
		return nil, err
	}
	txn := &domain.Transaction{
		UserID:       user.ID,
		InvestmentID: p.InvestmentID,
		Type:         p.Entry.Type(),
		Status:       p.Status,
		Amount:       amount,
		Currency:     p.Currency,
		Description:  p.Entry.Describe(),
		Details:      datatypes.JSON(details),
	}
	if err := tx.Create(txn).Error; err != nil {
		return nil, err
	}

	if p.Status == domain.TransactionSuccessful {
		if err := setBalance(tx, user, newBalance); err != nil {
			return nil, err
		}
	}
	return txn, nil
}

// Resolve settles a pending deposit. Approval credits the balance; rejection
// only marks the entry failed. Any other state yields ErrInvalidState.
func Resolve(tx *gorm.DB, user *domain.User, txn *domain.Transaction, approve bool, reviewer uuid.UUID, now time.Time) error {
	if txn.Type != domain.TransactionDeposit || txn.Status != domain.TransactionPending {
		return domain.ErrInvalidState
	}
	status := domain.TransactionFailed
	if approve {
		status = domain.TransactionSuccessful
	}

	res := tx.Model(&domain.Transaction{}).
		Where("id = ? AND status = ?", txn.ID, domain.TransactionPending).
		Updates(map[string]interface{}{
			"status":      status,
			"reviewed_by": reviewer,
			"reviewed_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrInvalidState
	}
	txn.Status = status
	txn.ReviewedBy = &reviewer
	txn.ReviewedAt = &now

	if !approve {
		return nil
	}
	newBalance, err := Deposit{Amt: txn.Amount}.ApplyToBalance(user.Balance)
	if err != nil {
		return err
	}
	return setBalance(tx, user, newBalance)
}

func setBalance(tx *gorm.DB, user *domain.User, balance decimal.Decimal) error {
	if err := tx.Model(&domain.User{}).Where("id = ?", user.ID).Update("balance", balance).Error; err != nil {
		return err
	}
	user.Balance = balance
	return nil
}
