package user

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"coinease-backend/internal/application/emails"
	"coinease-backend/internal/application/entitlement"
	"coinease-backend/internal/domain"
	"coinease-backend/internal/pkg/constants"
	"coinease-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Service holds DB and mailer for user operations.
type Service struct {
	DB     *gorm.DB
	Mailer emails.Sender
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

type RegisterInput struct {
	Email          string
	FullName       string
	Password       string
	TransactionPin string
	WalletNetwork  string
	WalletAddress  string
}

// Register creates an account with zero balance and base signal strength.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if !validation.IsValidEmail(email) {
		return nil, domain.NewValidationError("Invalid email format")
	}
	if !validation.IsValidPassword(in.Password) {
		return nil, domain.NewValidationError("Password must be at least 8 characters with a letter, a number and a special character")
	}
	fullName := strings.TrimSpace(in.FullName)
	if !validation.IsValidFullname(fullName) {
		return nil, domain.NewValidationError("Full name contains invalid characters (only letters, spaces, hyphens, and apostrophes allowed)")
	}
	if !validation.IsValidPin(in.TransactionPin) {
		return nil, domain.NewValidationError("Transaction PIN must be 4 digits")
	}

	var n int64
	if err := s.DB.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, domain.ErrEmailTaken
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), 10)
	if err != nil {
		return nil, err
	}
	pinHash, err := bcrypt.GenerateFromPassword([]byte(in.TransactionPin), 10)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		Email:              email,
		FullName:           titleCaseAndNormalize(fullName),
		PasswordHash:       string(pwHash),
		TransactionPinHash: string(pinHash),
		Role:               constants.User,
		Balance:            decimal.Zero,
		SignalStrength:     domain.MinSignalStrength,
		ReferralCode:       newReferralCode(),
		WalletNetwork:      optional(in.WalletNetwork),
		WalletAddress:      optional(in.WalletAddress),
	}
	if err := s.DB.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}

	if s.Mailer != nil {
		if err := s.Mailer.SendWelcome(ctx, u.Email, u.FullName); err != nil {
			log.Error().Err(err).Str("user_id", u.ID.String()).Msg("Failed to send welcome email")
		}
	}
	return u, nil
}

// ProfileUpdate lists the profile fields a user may change; nil means unchanged.
type ProfileUpdate struct {
	FullName      *string
	PhoneNumber   *string
	Address       *string
	Occupation    *string
	Country       *string
	WalletNetwork *string
	WalletAddress *string
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, up ProfileUpdate) (*domain.User, error) {
	changes := map[string]interface{}{}
	if up.FullName != nil {
		name := strings.TrimSpace(*up.FullName)
		if !validation.IsValidFullname(name) {
			return nil, domain.NewValidationError("Full name contains invalid characters")
		}
		changes["full_name"] = titleCaseAndNormalize(name)
	}
	for col, v := range map[string]*string{
		"phone_number":   up.PhoneNumber,
		"address":        up.Address,
		"occupation":     up.Occupation,
		"country":        up.Country,
		"wallet_network": up.WalletNetwork,
		"wallet_address": up.WalletAddress,
	} {
		if v != nil {
			changes[col] = optional(*v)
		}
	}
	if len(changes) == 0 {
		return nil, domain.NewValidationError("No valid update fields provided")
	}

	res := s.DB.WithContext(ctx).Model(&domain.User{}).Where("id = ?", userID).Updates(changes)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrUserNotFound
	}
	return s.Get(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var u domain.User
	err := s.DB.WithContext(ctx).Where("id = ?", userID).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// BalanceView is the balance screen: funds plus payout entitlement.
type BalanceView struct {
	Balance         decimal.Decimal `json:"balance"`
	SignalStrength  int             `json:"signal_strength"`
	SignalExpiresAt *time.Time      `json:"signal_expires_at"`
	PayoutsActive   bool            `json:"payouts_active"`
}

func (s *Service) Balance(ctx context.Context, userID uuid.UUID) (*BalanceView, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &BalanceView{
		Balance:         u.Balance,
		SignalStrength:  u.SignalStrength,
		SignalExpiresAt: u.SignalExpiresAt,
		PayoutsActive:   entitlement.Active(s.now(), u.SignalStrength, u.SignalExpiresAt),
	}, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func newReferralCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// titleCaseAndNormalize collapses whitespace and capitalises each word.
func titleCaseAndNormalize(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		if len(r) > 0 {
			r[0] = unicode.ToUpper(r[0])
		}
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
