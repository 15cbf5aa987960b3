package signals

import (
	"context"
	"errors"
	"math"
	"time"

	"coinease-backend/internal/application/emails"
	"coinease-backend/internal/application/entitlement"
	"coinease-backend/internal/application/ledger"
	"coinease-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	WarningWindow = 24 * time.Hour
	ExpiredWindow = time.Hour
)

type Service struct {
	DB     *gorm.DB
	Mailer emails.Sender
}

// Grant sets a user's signal strength and expiry. Level 1 clears the expiry.
func (s *Service) Grant(ctx context.Context, userID uuid.UUID, level int, expiresAt *time.Time, now time.Time) (*domain.User, error) {
	if level < domain.MinSignalStrength || level > domain.MaxSignalStrength {
		return nil, domain.NewValidationError("Signal strength must be between 1 and 4")
	}
	if level > domain.MinSignalStrength && (expiresAt == nil || !expiresAt.After(now)) {
		return nil, domain.NewValidationError("An elevated signal needs an expiry in the future")
	}
	if level == domain.MinSignalStrength {
		expiresAt = nil
	}

	var u domain.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", userID).First(&u).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrUserNotFound
			}
			return err
		}
		u.SignalStrength = level
		u.SignalExpiresAt = expiresAt
		return tx.Model(&domain.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
			"signal_strength":   level,
			"signal_expires_at": expiresAt,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("user_id", userID.String()).Int("signal_strength", level).Msg("Signal granted")
	return &u, nil
}

// ExpiryReport counts what CheckExpirations did.
type ExpiryReport struct {
	Warned     int `json:"warned"`
	Expired    int `json:"expired"`
	MailFailed int `json:"mail_failed"`
}

// CheckExpirations warns users whose elevated signal lapses within a day and
// resets users whose signal lapsed within the last hour. Mail failures are
// logged and never block a reset.
func (s *Service) CheckExpirations(ctx context.Context, now time.Time) (ExpiryReport, error) {
	var rep ExpiryReport
	var users []domain.User
	err := s.DB.WithContext(ctx).
		Where("signal_strength > ? AND signal_expires_at IS NOT NULL", domain.MinSignalStrength).
		Find(&users).Error
	if err != nil {
		return rep, err
	}

	for i := range users {
		u := &users[i]
		switch {
		case entitlement.ExpiringWithin(now, u.SignalStrength, u.SignalExpiresAt, WarningWindow):
			hoursLeft := int(math.Floor(u.SignalExpiresAt.Sub(now).Hours()))
			if err := s.mail(ctx, func(m emails.Sender) error {
				return m.SendSignalExpiring(ctx, u.Email, u.FullName, hoursLeft)
			}); err != nil {
				rep.MailFailed++
				log.Error().Err(err).Str("user_id", u.ID.String()).Msg("Failed to send expiration warning")
				continue
			}
			rep.Warned++
		case entitlement.JustExpired(now, u.SignalStrength, u.SignalExpiresAt, ExpiredWindow):
			reset, err := s.reset(ctx, u, now)
			if err != nil {
				return rep, err
			}
			if !reset {
				continue
			}
			rep.Expired++
			if err := s.mail(ctx, func(m emails.Sender) error {
				return m.SendSignalExpired(ctx, u.Email, u.FullName)
			}); err != nil {
				rep.MailFailed++
				log.Error().Err(err).Str("user_id", u.ID.String()).Msg("Failed to send expiration notice")
			}
		}
	}
	log.Info().Int("warned", rep.Warned).Int("expired", rep.Expired).Msg("Signal expirations checked")
	return rep, nil
}

// reset drops the user to the base level. The row is re-read under lock so a
// renewal racing the job wins.
func (s *Service) reset(ctx context.Context, u *domain.User, now time.Time) (bool, error) {
	done := false
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := ledger.LockUser(tx, u.ID)
		if err != nil {
			return err
		}
		if !entitlement.JustExpired(now, locked.SignalStrength, locked.SignalExpiresAt, ExpiredWindow) {
			return nil
		}
		done = true
		return tx.Model(&domain.User{}).Where("id = ?", u.ID).Update("signal_strength", domain.MinSignalStrength).Error
	})
	if err != nil {
		return false, err
	}
	if done {
		u.SignalStrength = domain.MinSignalStrength
	}
	return done, nil
}

func (s *Service) mail(ctx context.Context, send func(emails.Sender) error) error {
	if s.Mailer == nil {
		return nil
	}
	return send(s.Mailer)
}
