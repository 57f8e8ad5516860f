package auth

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"melodia/internal/core/apperror"
)

type fakeOTPStore struct {
	records map[string]OTPRecord
}

func newFakeOTPStore() *fakeOTPStore {
	return &fakeOTPStore{records: make(map[string]OTPRecord)}
}

func (s *fakeOTPStore) Upsert(ctx context.Context, rec OTPRecord) error {
	s.records[rec.Email] = rec
	return nil
}

func (s *fakeOTPStore) Get(ctx context.Context, email string) (OTPRecord, error) {
	rec, ok := s.records[email]
	if !ok {
		return OTPRecord{}, apperror.NewNotFound("otp", email)
	}
	return rec, nil
}

func (s *fakeOTPStore) Delete(ctx context.Context, email string) error {
	delete(s.records, email)
	return nil
}

type recordingNotifier struct {
	emails []string
	codes  []string
}

func (n *recordingNotifier) NotifyPasswordReset(ctx context.Context, email, code string) error {
	n.emails = append(n.emails, email)
	n.codes = append(n.codes, code)
	return nil
}

func newResetFixture(t *testing.T) (*PasswordResetService, *fakeOTPStore, *recordingNotifier, *User) {
	t.Helper()
	user := testUser(t, "oldpass")
	otps := newFakeOTPStore()
	notifier := &recordingNotifier{}
	svc := NewPasswordResetService(newFakeUserRepo(user), otps, notifier, nopTxManager{})
	return svc, otps, notifier, user
}

func TestReset_RoundTrip(t *testing.T) {
	svc, otps, notifier, user := newResetFixture(t)
	ctx := context.Background()

	if err := svc.RequestReset(ctx, user.Email); err != nil {
		t.Fatalf("request: %v", err)
	}
	if len(notifier.codes) != 1 {
		t.Fatalf("expected one notification, got %d", len(notifier.codes))
	}
	code := notifier.codes[0]
	if len(code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", code)
	}

	if err := svc.VerifyAndReset(ctx, user.Email, code, "brand-new-pass"); err != nil {
		t.Fatalf("verify: %v", err)
	}

	// New password is live.
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("brand-new-pass")); err != nil {
		t.Error("expected new password to be persisted")
	}

	// Single use: the record is gone, replay fails.
	if _, ok := otps.records[user.Email]; ok {
		t.Error("expected OTP record to be consumed")
	}
	err := svc.VerifyAndReset(ctx, user.Email, code, "another-pass")
	if !apperror.HasCode(err, apperror.CodeOtpInvalid) {
		t.Fatalf("expected OtpInvalid on reuse, got %v", err)
	}
}

func TestReset_WrongCode(t *testing.T) {
	svc, _, notifier, user := newResetFixture(t)
	ctx := context.Background()

	if err := svc.RequestReset(ctx, user.Email); err != nil {
		t.Fatalf("request: %v", err)
	}
	wrong := "000000"
	if notifier.codes[0] == wrong {
		wrong = "000001"
	}

	err := svc.VerifyAndReset(ctx, user.Email, wrong, "newpass123")
	if !apperror.HasCode(err, apperror.CodeOtpInvalid) {
		t.Fatalf("expected OtpInvalid, got %v", err)
	}
}

func TestReset_ExpiredCodeRejectedEvenIfStillStored(t *testing.T) {
	svc, otps, notifier, user := newResetFixture(t)
	ctx := context.Background()

	if err := svc.RequestReset(ctx, user.Email); err != nil {
		t.Fatalf("request: %v", err)
	}
	code := notifier.codes[0]

	// Move the clock past the window. The record is still in the store,
	// only the explicit expiry check can reject it.
	svc.now = func() time.Time { return time.Now().Add(OTPTTL + time.Second) }

	err := svc.VerifyAndReset(ctx, user.Email, code, "newpass123")
	if !apperror.HasCode(err, apperror.CodeOtpInvalid) {
		t.Fatalf("expected OtpInvalid for expired code, got %v", err)
	}
	if _, ok := otps.records[user.Email]; !ok {
		t.Error("expired record was not supposed to be swept")
	}
}

func TestReset_ResendOverwritesInPlace(t *testing.T) {
	svc, otps, notifier, user := newResetFixture(t)
	ctx := context.Background()

	if err := svc.RequestReset(ctx, user.Email); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if err := svc.RequestReset(ctx, user.Email); err != nil {
		t.Fatalf("second request: %v", err)
	}

	if len(otps.records) != 1 {
		t.Fatalf("expected a single live record, got %d", len(otps.records))
	}
	latest := notifier.codes[len(notifier.codes)-1]
	if err := svc.VerifyAndReset(ctx, user.Email, latest, "newpass123"); err != nil {
		t.Fatalf("verify with latest code: %v", err)
	}
}

func TestReset_UnknownEmail(t *testing.T) {
	svc, _, _, _ := newResetFixture(t)
	ctx := context.Background()

	// Requesting for an unknown email still succeeds, to avoid revealing
	// whether the address belongs to an account.
	if err := svc.RequestReset(ctx, "stranger@example.com"); err != nil {
		t.Fatalf("request: %v", err)
	}
}
