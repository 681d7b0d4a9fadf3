package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/exeat-service/internal/config"
	"github.com/spec-kit/exeat-service/internal/domain"
)

func newTwoFactorFixture() (*TwoFactorService, *fakeUserRepo, *fakeAuditRepo) {
	users := newFakeUserRepo()
	audit := &fakeAuditRepo{}
	cfg := config.TwoFactorConfig{Issuer: "Exeat System", Skew: 1}
	return NewTwoFactorService(users, NewAuditService(audit, zap.NewNop()), cfg), users, audit
}

func TestTwoFactorSetupAndVerify(t *testing.T) {
	service, users, audit := newTwoFactorFixture()
	ctx := context.Background()

	user := &domain.User{Email: "head@example.com", Role: domain.RoleHeadmaster, IsActive: true}
	require.NoError(t, users.Create(ctx, user))

	setup, err := service.Setup(ctx, user)
	require.NoError(t, err)
	assert.NotEmpty(t, setup.Secret)
	assert.True(t, strings.HasPrefix(setup.QRCode, "data:image/png;base64,"))

	stored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.TwoFactorSecret)
	assert.False(t, stored.TwoFactorEnabled)

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, service.Verify(ctx, stored, code, "10.0.0.1"))

	enabled, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, enabled.TwoFactorEnabled)
	assert.Contains(t, audit.actions(), domain.AuditTwoFactorEnabled)
}

func TestTwoFactorVerifyRejectsBadCode(t *testing.T) {
	service, users, _ := newTwoFactorFixture()
	ctx := context.Background()

	user := &domain.User{Email: "head@example.com", Role: domain.RoleHeadmaster, IsActive: true}
	require.NoError(t, users.Create(ctx, user))
	_, err := service.Setup(ctx, user)
	require.NoError(t, err)

	stored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)

	// A code from far outside the tolerance window can never validate.
	staleCode, err := totp.GenerateCode(*stored.TwoFactorSecret, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	err = service.Verify(ctx, stored, staleCode, "")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", domainCode(err))

	unchanged, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, unchanged.TwoFactorEnabled)
}

func TestTwoFactorSetupRejectedWhenAlreadyEnabled(t *testing.T) {
	service, users, _ := newTwoFactorFixture()
	ctx := context.Background()

	secret := "ABCDEF"
	user := &domain.User{Email: "head@example.com", TwoFactorSecret: &secret, TwoFactorEnabled: true}
	require.NoError(t, users.Create(ctx, user))

	_, err := service.Setup(ctx, user)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", domainCode(err))
}

func TestTwoFactorDisableClearsSecret(t *testing.T) {
	service, users, audit := newTwoFactorFixture()
	ctx := context.Background()

	secret := "ABCDEF"
	user := &domain.User{Email: "head@example.com", TwoFactorSecret: &secret, TwoFactorEnabled: true}
	require.NoError(t, users.Create(ctx, user))

	require.NoError(t, service.Disable(ctx, user, ""))
	stored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.TwoFactorSecret)
	assert.False(t, stored.TwoFactorEnabled)
	assert.Contains(t, audit.actions(), domain.AuditTwoFactorDisabled)
}
