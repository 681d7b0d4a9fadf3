package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/exeat-service/internal/domain"
	apperrors "github.com/spec-kit/exeat-service/pkg/util/errorutil"
)

type requestServiceFixture struct {
	service  *RequestService
	requests *fakeRequestRepo
	notes    *fakeNoteRepo
	settings *fakeSettingRepo
	audit    *fakeAuditRepo
}

func newRequestServiceFixture() *requestServiceFixture {
	requests := newFakeRequestRepo()
	notes := &fakeNoteRepo{}
	settings := &fakeSettingRepo{}
	audit := &fakeAuditRepo{}

	auditService := NewAuditService(audit, zap.NewNop())
	settingsService := NewSettingsService(settings, nil, 30*time.Second, auditService, zap.NewNop())

	return &requestServiceFixture{
		service: NewRequestService(RequestDependencies{
			RequestRepo: requests,
			NoteRepo:    notes,
			Settings:    settingsService,
			Audit:       auditService,
		}),
		requests: requests,
		notes:    notes,
		settings: settings,
		audit:    audit,
	}
}

func testStudent(id, houseID string) *domain.User {
	return &domain.User{
		ID:        id,
		FirstName: "Ama",
		LastName:  "Mensah",
		Role:      domain.RoleStudent,
		HouseID:   &houseID,
		IsActive:  true,
	}
}

func testHousemaster(id, houseID string) *domain.User {
	return &domain.User{
		ID:        id,
		FirstName: "Kwame",
		LastName:  "Boateng",
		Role:      domain.RoleHousemaster,
		HouseID:   &houseID,
		IsActive:  true,
	}
}

func testHeadmaster(id string) *domain.User {
	return &domain.User{
		ID:        id,
		FirstName: "Yaw",
		LastName:  "Osei",
		Role:      domain.RoleHeadmaster,
		IsActive:  true,
	}
}

func validInput() RequestCreateInput {
	return RequestCreateInput{
		DepartureDate: time.Now().AddDate(0, 0, 3),
		DepartureTime: "09:00",
		Duration:      "2 days",
		Destination:   "Home",
		Reason:        "Family visit",
		GuardianName:  "Mr. Mensah",
		GuardianPhone: "0244000000",
	}
}

func domainCode(err error) string {
	var de *apperrors.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

func TestCreateEnforcesSemesterQuota(t *testing.T) {
	fx := newRequestServiceFixture()
	fx.settings.set(domain.SettingMaxRequestsPerSemester, "3")
	student := testStudent("s1", "h1")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		req, err := fx.service.Create(ctx, student, validInput(), "10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, domain.RequestStatusPending, req.Status)
	}

	_, err := fx.service.Create(ctx, student, validInput(), "10.0.0.1")
	require.Error(t, err)
	assert.Equal(t, "QUOTA_EXCEEDED", domainCode(err))
	assert.Contains(t, fx.audit.actions(), domain.AuditRequestDeniedLimit)
}

func TestCreateSetsExpiryAndSemesterTags(t *testing.T) {
	fx := newRequestServiceFixture()
	fx.settings.set(domain.SettingRequestExpiryHours, "48")
	fx.settings.set(domain.SettingCurrentSemester, "2")
	fx.settings.set(domain.SettingCurrentAcademicYear, "2026/2027")
	student := testStudent("s1", "h1")

	before := time.Now()
	req, err := fx.service.Create(context.Background(), student, validInput(), "")
	require.NoError(t, err)

	assert.Equal(t, "2", req.Semester)
	assert.Equal(t, "2026/2027", req.AcademicYear)
	assert.Equal(t, "h1", req.HouseID)
	expectedExpiry := before.Add(48 * time.Hour)
	assert.WithinDuration(t, expectedExpiry, req.ExpiresAt, time.Minute)
}

func TestCreateValidatesRequiredFields(t *testing.T) {
	fx := newRequestServiceFixture()
	student := testStudent("s1", "h1")

	input := validInput()
	input.Destination = " "
	_, err := fx.service.Create(context.Background(), student, input, "")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", domainCode(err))
}

func TestApproveHouseScope(t *testing.T) {
	fx := newRequestServiceFixture()
	student := testStudent("s1", "h1")
	ctx := context.Background()

	req, err := fx.service.Create(ctx, student, validInput(), "")
	require.NoError(t, err)

	_, err = fx.service.Approve(ctx, testHousemaster("hm2", "h2"), req.ID, "")
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", domainCode(err))

	approved, err := fx.service.Approve(ctx, testHousemaster("hm1", "h1"), req.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, "hm1", *approved.ApprovedBy)
	assert.NotNil(t, approved.ApprovedAt)
}

func TestApproveNonPendingFails(t *testing.T) {
	fx := newRequestServiceFixture()
	student := testStudent("s1", "h1")
	headmaster := testHeadmaster("hd1")
	ctx := context.Background()

	req, err := fx.service.Create(ctx, student, validInput(), "")
	require.NoError(t, err)
	_, err = fx.service.Approve(ctx, headmaster, req.ID, "")
	require.NoError(t, err)

	_, err = fx.service.Approve(ctx, headmaster, req.ID, "")
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", domainCode(err))
}

func TestRejectRequiresReason(t *testing.T) {
	fx := newRequestServiceFixture()
	student := testStudent("s1", "h1")
	ctx := context.Background()

	req, err := fx.service.Create(ctx, student, validInput(), "")
	require.NoError(t, err)

	_, err = fx.service.Reject(ctx, testHeadmaster("hd1"), req.ID, "  ", "")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", domainCode(err))

	rejected, err := fx.service.Reject(ctx, testHeadmaster("hd1"), req.ID, "Exams next week", "")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "Exams next week", *rejected.RejectionReason)
	assert.Nil(t, rejected.CancelledBy)
}

func TestCancelStoresCancellationMetadata(t *testing.T) {
	fx := newRequestServiceFixture()
	student := testStudent("s1", "h1")
	ctx := context.Background()

	req, err := fx.service.Create(ctx, student, validInput(), "")
	require.NoError(t, err)

	cancelled, err := fx.service.Cancel(ctx, student, req.ID, "Plans changed", "")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusRejected, cancelled.Status)
	require.NotNil(t, cancelled.CancelledBy)
	assert.Equal(t, student.ID, *cancelled.CancelledBy)
	require.NotNil(t, cancelled.CancellationReason)
	assert.Equal(t, "Plans changed", *cancelled.CancellationReason)
	assert.Nil(t, cancelled.RejectedBy)
	assert.Nil(t, cancelled.RejectionReason)
}

func TestCancelRespectsToggle(t *testing.T) {
	fx := newRequestServiceFixture()
	fx.settings.set(domain.SettingAllowStudentCancel, "false")
	student := testStudent("s1", "h1")
	ctx := context.Background()

	req, err := fx.service.Create(ctx, student, validInput(), "")
	require.NoError(t, err)

	_, err = fx.service.Cancel(ctx, student, req.ID, "", "")
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", domainCode(err))
}

func TestEditRespectsToggleAndOwnership(t *testing.T) {
	fx := newRequestServiceFixture()
	student := testStudent("s1", "h1")
	other := testStudent("s2", "h1")
	ctx := context.Background()

	req, err := fx.service.Create(ctx, student, validInput(), "")
	require.NoError(t, err)

	_, err = fx.service.Edit(ctx, other, req.ID, validInput(), "")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", domainCode(err))

	input := validInput()
	input.Destination = "Kumasi"
	edited, err := fx.service.Edit(ctx, student, req.ID, input, "")
	require.NoError(t, err)
	assert.Equal(t, "Kumasi", edited.Destination)
	assert.NotNil(t, edited.EditedAt)

	fx.settings.set(domain.SettingAllowStudentEdit, "false")
	_, err = fx.service.Edit(ctx, student, req.ID, input, "")
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", domainCode(err))
}

func TestEditOnlyWhilePending(t *testing.T) {
	fx := newRequestServiceFixture()
	student := testStudent("s1", "h1")
	ctx := context.Background()

	req, err := fx.service.Create(ctx, student, validInput(), "")
	require.NoError(t, err)
	_, err = fx.service.Approve(ctx, testHeadmaster("hd1"), req.ID, "")
	require.NoError(t, err)

	_, err = fx.service.Edit(ctx, student, req.ID, validInput(), "")
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", domainCode(err))
}

func TestBatchApproveSilentlyExcludesIneligible(t *testing.T) {
	fx := newRequestServiceFixture()
	ctx := context.Background()
	ownHouse := testStudent("s1", "h1")
	otherHouse := testStudent("s2", "h2")

	eligible, err := fx.service.Create(ctx, ownHouse, validInput(), "")
	require.NoError(t, err)
	foreign, err := fx.service.Create(ctx, otherHouse, validInput(), "")
	require.NoError(t, err)
	decided, err := fx.service.Create(ctx, ownHouse, validInput(), "")
	require.NoError(t, err)
	_, err = fx.service.Approve(ctx, testHousemaster("hm1", "h1"), decided.ID, "")
	require.NoError(t, err)

	ids := []string{eligible.ID, foreign.ID, decided.ID, "missing-id"}
	approved, err := fx.service.BatchApprove(ctx, testHousemaster("hm1", "h1"), ids, "")
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, eligible.ID, approved[0].ID)
	assert.Equal(t, domain.RequestStatusApproved, approved[0].Status)
}

func TestExpireSweepIsIdempotent(t *testing.T) {
	fx := newRequestServiceFixture()
	student := testStudent("s1", "h1")
	ctx := context.Background()

	req, err := fx.service.Create(ctx, student, validInput(), "")
	require.NoError(t, err)
	fx.requests.requests[req.ID].ExpiresAt = time.Now().Add(-time.Hour)

	count, err := fx.requests.MarkExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = fx.requests.MarkExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	swept, err := fx.requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, swept.IsExpired)
	assert.Equal(t, domain.RequestStatusPending, swept.Status)
}

func TestListAppliesRoleScope(t *testing.T) {
	fx := newRequestServiceFixture()
	ctx := context.Background()
	s1 := testStudent("s1", "h1")
	s2 := testStudent("s2", "h2")

	_, err := fx.service.Create(ctx, s1, validInput(), "")
	require.NoError(t, err)
	_, err = fx.service.Create(ctx, s2, validInput(), "")
	require.NoError(t, err)

	own, err := fx.service.List(ctx, s1, RequestListFilter{})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "s1", own[0].StudentID)

	house, err := fx.service.List(ctx, testHousemaster("hm2", "h2"), RequestListFilter{})
	require.NoError(t, err)
	require.Len(t, house, 1)
	assert.Equal(t, "h2", house[0].HouseID)

	all, err := fx.service.List(ctx, testHeadmaster("hd1"), RequestListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAddNoteAllowedOnDecidedRequests(t *testing.T) {
	fx := newRequestServiceFixture()
	student := testStudent("s1", "h1")
	headmaster := testHeadmaster("hd1")
	ctx := context.Background()

	req, err := fx.service.Create(ctx, student, validInput(), "")
	require.NoError(t, err)
	_, err = fx.service.Approve(ctx, headmaster, req.ID, "")
	require.NoError(t, err)

	note, err := fx.service.AddNote(ctx, headmaster, req.ID, "Returned on time", "")
	require.NoError(t, err)
	assert.Equal(t, "Returned on time", note.Body)

	_, err = fx.service.AddNote(ctx, headmaster, req.ID, "  ", "")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", domainCode(err))
}

func TestGetHidesForeignRequests(t *testing.T) {
	fx := newRequestServiceFixture()
	ctx := context.Background()
	s1 := testStudent("s1", "h1")
	s2 := testStudent("s2", "h2")

	req, err := fx.service.Create(ctx, s1, validInput(), "")
	require.NoError(t, err)

	_, _, err = fx.service.Get(ctx, s2, req.ID)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", domainCode(err))

	got, notes, err := fx.service.Get(ctx, s1, req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, got.ID)
	assert.Empty(t, notes)
}
