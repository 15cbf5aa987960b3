package transactions

import (
	"context"
	"errors"
	"strings"
	"time"

	"coinease-backend/internal/application/emails"
	"coinease-backend/internal/application/ledger"
	"coinease-backend/internal/domain"
	"coinease-backend/internal/pkg/money"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Service struct {
	DB              *gorm.DB
	Mailer          emails.Sender
	AdminEmail      string
	DefaultCurrency string
	Now             func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *Service) currency(c string) (string, error) {
	c = strings.ToUpper(strings.TrimSpace(c))
	if c == "" {
		c = s.DefaultCurrency
	}
	if c == "" {
		return "", domain.NewValidationError("Currency is required")
	}
	return c, nil
}

type DepositInput struct {
	Amount        decimal.Decimal
	Currency      string
	WalletAddress string
	Network       string
	Description   string
}

// CreateDeposit records a pending deposit for staff review. The balance only
// moves once the deposit is approved.
func (s *Service) CreateDeposit(ctx context.Context, userID uuid.UUID, in DepositInput) (*domain.Transaction, error) {
	if !money.Positive(in.Amount) {
		return nil, domain.ErrInvalidAmount
	}
	if strings.TrimSpace(in.WalletAddress) == "" {
		return nil, domain.NewValidationError("Wallet address is required")
	}
	currency, err := s.currency(in.Currency)
	if err != nil {
		return nil, err
	}

	var txn *domain.Transaction
	var user *domain.User
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err = ledger.LockUser(tx, userID)
		if err != nil {
			return err
		}
		txn, err = ledger.Post(tx, user, ledger.Posting{
			Entry: ledger.Deposit{
				Amt:           in.Amount,
				WalletAddress: strings.TrimSpace(in.WalletAddress),
				Network:       strings.TrimSpace(in.Network),
				Note:          strings.TrimSpace(in.Description),
			},
			Status:   domain.TransactionPending,
			Currency: currency,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.Mailer != nil {
		alert := emails.DepositAlert{
			UserName:      user.FullName,
			UserEmail:     user.Email,
			Amount:        money.Format(txn.Amount),
			Currency:      currency,
			WalletAddress: in.WalletAddress,
			Network:       in.Network,
			TransactionID: txn.ID.String(),
		}
		if err := s.Mailer.SendDepositAlert(ctx, s.AdminEmail, alert); err != nil {
			log.Error().Err(err).Str("transaction_id", txn.ID.String()).Msg("Failed to send deposit alert")
		}
	}
	return txn, nil
}

// ReviewDeposit approves or rejects a pending deposit.
func (s *Service) ReviewDeposit(ctx context.Context, id uuid.UUID, approve bool, reviewer uuid.UUID) (*domain.Transaction, error) {
	var txn domain.Transaction
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&txn).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrTransactionNotFound
			}
			return err
		}
		user, err := ledger.LockUser(tx, txn.UserID)
		if err != nil {
			return err
		}
		return ledger.Resolve(tx, user, &txn, approve, reviewer, s.now())
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("transaction_id", id.String()).Str("status", string(txn.Status)).
		Str("reviewer", reviewer.String()).Msg("Deposit reviewed")
	return &txn, nil
}

// ListPendingDeposits returns deposits awaiting review, oldest first.
func (s *Service) ListPendingDeposits(ctx context.Context) ([]domain.Transaction, error) {
	var out []domain.Transaction
	err := s.DB.WithContext(ctx).
		Where("type = ? AND status = ?", domain.TransactionDeposit, domain.TransactionPending).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

type WithdrawalInput struct {
	Amount   decimal.Decimal
	Currency string
	Address  string
	Network  string
	Method   string
	Pin      string
}

// CreateWithdrawal debits the balance after checking the transaction PIN.
// Nothing is written when the balance cannot cover the amount.
func (s *Service) CreateWithdrawal(ctx context.Context, userID uuid.UUID, in WithdrawalInput) (*domain.Transaction, error) {
	if !money.Positive(in.Amount) {
		return nil, domain.ErrInvalidAmount
	}
	if strings.TrimSpace(in.Address) == "" {
		return nil, domain.NewValidationError("Withdrawal address is required")
	}
	if in.Pin == "" {
		return nil, domain.NewValidationError("Transaction PIN is required")
	}
	currency, err := s.currency(in.Currency)
	if err != nil {
		return nil, err
	}
	method := strings.TrimSpace(in.Method)
	if method == "" {
		method = "crypto"
	}

	var txn *domain.Transaction
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := ledger.LockUser(tx, userID)
		if err != nil {
			return err
		}
		if user.TransactionPinHash == "" || bcrypt.CompareHashAndPassword([]byte(user.TransactionPinHash), []byte(in.Pin)) != nil {
			return domain.ErrInvalidPin
		}
		txn, err = ledger.Post(tx, user, ledger.Posting{
			Entry: ledger.Withdrawal{
				Amt:     in.Amount,
				Address: strings.TrimSpace(in.Address),
				Network: strings.TrimSpace(in.Network),
				Method:  method,
			},
			Status:   domain.TransactionSuccessful,
			Currency: currency,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("user_id", userID.String()).Str("transaction_id", txn.ID.String()).
		Str("amount", money.Format(txn.Amount)).Msg("Withdrawal processed")
	return txn, nil
}

// ListTransactions returns the user's entries, newest first, optionally
// filtered by type and status.
func (s *Service) ListTransactions(ctx context.Context, userID uuid.UUID, typ, status string) ([]domain.Transaction, error) {
	q := s.DB.WithContext(ctx).Where("user_id = ?", userID)
	if typ != "" {
		if !domain.TransactionType(typ).Valid() {
			return nil, domain.NewValidationError("Invalid transaction type")
		}
		q = q.Where("type = ?", typ)
	}
	if status != "" {
		if !domain.TransactionStatus(status).Valid() {
			return nil, domain.NewValidationError("Invalid transaction status")
		}
		q = q.Where("status = ?", status)
	}
	out := []domain.Transaction{}
	err := q.Order("created_at DESC").Find(&out).Error
	return out, err
}

func (s *Service) GetTransaction(ctx context.Context, userID, id uuid.UUID) (*domain.Transaction, error) {
	var txn domain.Transaction
	err := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}
