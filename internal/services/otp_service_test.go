package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/storefront/domain"
	"github.com/you/storefront/internal/mocks"
)

func newOTPFixture(t *testing.T) (domain.OTPService, *mocks.MockNotificationService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	notifier := mocks.NewMockNotificationService()
	svc := NewOTPService(notifier, client, OTPConfig{
		Length:       6,
		TTL:          5 * time.Minute,
		MaxAttempts:  3,
		ResendWindow: time.Minute,
	})
	return svc, notifier, mr
}

func TestOTPService_GenerateAndVerify(t *testing.T) {
	ctx := context.Background()
	svc, notifier, _ := newOTPFixture(t)

	grant, err := svc.Generate(ctx, domain.MethodPhone, "+4512345678")
	require.NoError(t, err)
	assert.Len(t, grant.Code, 6)
	assert.Equal(t, "+4512345678", grant.Identifier)

	sms := notifier.SentSMS()
	require.Len(t, sms, 1)
	assert.Equal(t, "+4512345678", sms[0].To)
	assert.Contains(t, sms[0].Body, grant.Code)

	valid, err := svc.Verify(ctx, "+4512345678", grant.Code)
	require.NoError(t, err)
	assert.True(t, valid)

	// A consumed code cannot be replayed.
	_, err = svc.Verify(ctx, "+4512345678", grant.Code)
	assert.ErrorIs(t, err, domain.ErrOTPNotFound)
}

func TestOTPService_EmailDelivery(t *testing.T) {
	ctx := context.Background()
	svc, notifier, _ := newOTPFixture(t)

	grant, err := svc.Generate(ctx, domain.MethodEmail, "dana@example.com")
	require.NoError(t, err)

	emails := notifier.SentEmails()
	require.Len(t, emails, 1)
	assert.Equal(t, "dana@example.com", emails[0].To)
	assert.Contains(t, emails[0].Body, grant.Code)
	assert.Empty(t, notifier.SentSMS())
}

func TestOTPService_WrongCodeCountsAttempts(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newOTPFixture(t)

	grant, err := svc.Generate(ctx, domain.MethodEmail, "dana@example.com")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := svc.Verify(ctx, "dana@example.com", "000000")
		assert.ErrorIs(t, err, domain.ErrOTPInvalid)
	}

	// Third attempt with the right code still works.
	valid, err := svc.Verify(ctx, "dana@example.com", grant.Code)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestOTPService_MaxAttemptsInvalidatesCode(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newOTPFixture(t)

	grant, err := svc.Generate(ctx, domain.MethodEmail, "dana@example.com")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.Verify(ctx, "dana@example.com", "000000")
		assert.ErrorIs(t, err, domain.ErrOTPInvalid)
	}

	// The fourth attempt is over the limit even with the right code.
	_, err = svc.Verify(ctx, "dana@example.com", grant.Code)
	assert.ErrorIs(t, err, domain.ErrOTPMaxAttempts)
}

func TestOTPService_ResendThrottle(t *testing.T) {
	ctx := context.Background()
	svc, _, mr := newOTPFixture(t)

	_, err := svc.Generate(ctx, domain.MethodEmail, "dana@example.com")
	require.NoError(t, err)

	_, err = svc.Generate(ctx, domain.MethodEmail, "dana@example.com")
	assert.ErrorIs(t, err, domain.ErrOTPResendLimit)

	canResend, wait, err := svc.CanResend(ctx, "dana@example.com")
	require.NoError(t, err)
	assert.False(t, canResend)
	assert.Positive(t, wait)

	// Once the window elapses a new code can go out.
	mr.FastForward(time.Minute + time.Second)
	_, err = svc.Generate(ctx, domain.MethodEmail, "dana@example.com")
	assert.NoError(t, err)
}

func TestOTPService_ExpiredCode(t *testing.T) {
	ctx := context.Background()
	svc, _, mr := newOTPFixture(t)

	grant, err := svc.Generate(ctx, domain.MethodEmail, "dana@example.com")
	require.NoError(t, err)

	mr.FastForward(6 * time.Minute)

	_, err = svc.Verify(ctx, "dana@example.com", grant.Code)
	assert.ErrorIs(t, err, domain.ErrOTPNotFound)
}

func TestOTPService_DeliveryFailureReleasesThrottle(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	notifier := mocks.NewMockNotificationService()
	notifier.SendEmailFunc = func(to, subject, body string) error {
		return errors.New("smtp unavailable")
	}
	svc := NewOTPService(notifier, client, OTPConfig{
		Length: 6, TTL: 5 * time.Minute, MaxAttempts: 3, ResendWindow: time.Minute,
	})

	_, err := svc.Generate(ctx, domain.MethodEmail, "dana@example.com")
	require.Error(t, err)

	// The user is not locked out by a code that never reached them.
	canResend, _, err := svc.CanResend(ctx, "dana@example.com")
	require.NoError(t, err)
	assert.True(t, canResend)
}
