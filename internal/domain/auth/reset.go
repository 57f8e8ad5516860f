package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"melodia/internal/core/apperror"
	"melodia/internal/core/tx"
	"melodia/pkg/logger"
)

// OTPTTL is the validity window of a reset code.
const OTPTTL = 180 * time.Second

// OTPRecord is the single live reset request for an email. A new request
// overwrites the code and expiry in place, never appends.
type OTPRecord struct {
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	ExpiredAt time.Time `json:"expiredAt"`
}

// OTPStore persists OTP records keyed by email. Implementations may attach
// their own TTL, but expiry is still checked explicitly at verification.
type OTPStore interface {
	// Upsert stores the record, replacing any live record for the email.
	Upsert(ctx context.Context, rec OTPRecord) error

	// Get returns the live record for the email, apperror.NewNotFound otherwise.
	Get(ctx context.Context, email string) (OTPRecord, error)

	// Delete removes the record. Deleting a missing record is not an error.
	Delete(ctx context.Context, email string) error
}

// ResetNotifier delivers the code to the user. Delivery is best-effort and
// outside the success contract of RequestReset.
type ResetNotifier interface {
	NotifyPasswordReset(ctx context.Context, email, code string) error
}

// PasswordResetService implements the time-boxed OTP reset flow.
type PasswordResetService struct {
	users     UserRepository
	otps      OTPStore
	notifier  ResetNotifier
	txManager tx.Manager

	now func() time.Time
}

// NewPasswordResetService creates a new reset service.
func NewPasswordResetService(users UserRepository, otps OTPStore, notifier ResetNotifier, txManager tx.Manager) *PasswordResetService {
	return &PasswordResetService{
		users:     users,
		otps:      otps,
		notifier:  notifier,
		txManager: txManager,
		now:       time.Now,
	}
}

// RequestReset issues a fresh 6-digit code for the email, valid for 180
// seconds. The record is durably stored before success is signaled; whether
// the notification arrives is not part of the contract. The response never
// reveals whether the email belongs to an account.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	if email == "" {
		return apperror.NewValidation("email is required").WithDetail("field", "email")
	}

	code, err := generateOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	rec := OTPRecord{
		Email:     email,
		Code:      code,
		ExpiredAt: s.now().Add(OTPTTL),
	}
	if err := s.otps.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyPasswordReset(ctx, email, code); err != nil {
			logger.Warn(ctx, "password reset notification failed", "error", err)
		}
	}

	return nil
}

// VerifyAndReset checks the (email, code) pair, consumes the record and
// persists the new password. Wrong code, consumed code and expired code all
// surface as the same OtpInvalid.
func (s *PasswordResetService) VerifyAndReset(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < 6 {
		return apperror.NewValidation("password must be at least 6 characters").WithDetail("field", "password")
	}

	rec, err := s.otps.Get(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewOtpInvalid()
		}
		return fmt.Errorf("load otp: %w", err)
	}
	if rec.Code != code {
		return apperror.NewOtpInvalid()
	}
	// The store may keep a stale record past its window, so the expiry check
	// here is mandatory even on an exact code match.
	if !s.now().Before(rec.ExpiredAt) {
		return apperror.NewOtpInvalid()
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewOtpInvalid()
		}
		return fmt.Errorf("find user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	// Single use: the record is gone before the new password lands.
	if err := s.otps.Delete(ctx, email); err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.users.UpdatePassword(ctx, user.ID, string(hash))
	})
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	logger.Info(ctx, "password reset completed", "user_id", user.ID)
	return nil
}

// generateOTP returns a uniformly random 6-digit code, zero-padded.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
