package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/exeat-service/internal/domain"
)

func newSettingsFixture() (*SettingsService, *fakeSettingRepo, *fakeAuditRepo) {
	settings := &fakeSettingRepo{}
	audit := &fakeAuditRepo{}
	service := NewSettingsService(settings, nil, 30*time.Second, NewAuditService(audit, zap.NewNop()), zap.NewNop())
	return service, settings, audit
}

func TestCurrentFallsBackToDefaults(t *testing.T) {
	service, _, _ := newSettingsFixture()

	current, err := service.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), current)
}

func TestCurrentReflectsStoredRows(t *testing.T) {
	service, settings, _ := newSettingsFixture()
	settings.set(domain.SettingMaxRequestsPerSemester, "5")
	settings.set(domain.SettingAllowStudentEdit, "false")

	current, err := service.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, current.MaxRequestsPerSemester)
	assert.False(t, current.AllowStudentEdit)
}

func TestUpdateUpsertsAndAudits(t *testing.T) {
	service, settings, audit := newSettingsFixture()
	headmaster := testHeadmaster("hd1")

	updated, err := service.Update(context.Background(), headmaster, "request_expiry_hours", "24", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "24", updated.Value)
	assert.Len(t, settings.rows, 1)
	assert.Contains(t, audit.actions(), domain.AuditSettingUpdated)

	current, err := service.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 24, current.RequestExpiryHours)
}

func TestUpdateRejectsEmptyKey(t *testing.T) {
	service, _, _ := newSettingsFixture()

	_, err := service.Update(context.Background(), testHeadmaster("hd1"), "  ", "1", "")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", domainCode(err))
}
