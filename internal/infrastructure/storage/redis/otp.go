// Package redis holds Redis-backed stores.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"melodia/internal/core/apperror"
	"melodia/internal/domain/auth"
)

const otpKeyPrefix = "otp:reset:"

// OTPStore implements auth.OTPStore on Redis. One record per email; a new
// request overwrites the previous record in place. The key TTL mirrors the
// record's own expiry, so stale records vanish without a sweeper.
type OTPStore struct {
	client *redis.Client
}

// NewOTPStore creates a new OTP store.
func NewOTPStore(client *redis.Client) *OTPStore {
	return &OTPStore{client: client}
}

func otpKey(email string) string {
	return otpKeyPrefix + email
}

// Upsert stores the record, replacing any previous one for the email.
func (s *OTPStore) Upsert(ctx context.Context, rec auth.OTPRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal otp record: %w", err)
	}

	ttl := time.Until(rec.ExpiredAt)
	if ttl <= 0 {
		ttl = time.Second
	}

	if err := s.client.Set(ctx, otpKey(rec.Email), raw, ttl).Err(); err != nil {
		return fmt.Errorf("store otp record: %w", err)
	}

	return nil
}

// Get returns the stored record for the email.
func (s *OTPStore) Get(ctx context.Context, email string) (auth.OTPRecord, error) {
	var rec auth.OTPRecord

	raw, err := s.client.Get(ctx, otpKey(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return rec, apperror.NewNotFound("otp", email)
	}
	if err != nil {
		return rec, fmt.Errorf("load otp record: %w", err)
	}

	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, fmt.Errorf("unmarshal otp record: %w", err)
	}

	return rec, nil
}

// Delete removes the record. Deleting a missing record is not an error.
func (s *OTPStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, otpKey(email)).Err(); err != nil {
		return fmt.Errorf("delete otp record: %w", err)
	}
	return nil
}

// Ensure interface compliance
var _ auth.OTPStore = (*OTPStore)(nil)
