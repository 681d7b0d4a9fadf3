package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/exeat-service/internal/domain"
)

type directoryFixture struct {
	service *DirectoryService
	users   *fakeUserRepo
	houses  *fakeHouseRepo
	audit   *fakeAuditRepo
}

func newDirectoryFixture() *directoryFixture {
	users := newFakeUserRepo()
	houses := &fakeHouseRepo{houses: []domain.House{
		{ID: "h1", Name: "Aggrey House"},
		{ID: "h2", Name: "Cadbury House"},
	}}
	audit := &fakeAuditRepo{}
	auditService := NewAuditService(audit, zap.NewNop())
	return &directoryFixture{
		service: NewDirectoryService(users, houses, auditService, bcrypt.MinCost),
		users:   users,
		houses:  houses,
		audit:   audit,
	}
}

func validStudentInput(houseID string) StudentInput {
	return StudentInput{
		StudentCode:   "GH-1001",
		FirstName:     "Ama",
		LastName:      "Mensah",
		Email:         "ama.mensah@example.com",
		Password:      "starting-password",
		Class:         "Form 2A",
		HouseID:       houseID,
		GuardianName:  "Mr. Mensah",
		GuardianPhone: "0244000000",
	}
}

func TestAddStudentHashesPasswordAndAudits(t *testing.T) {
	fx := newDirectoryFixture()
	headmaster := testHeadmaster("hd1")

	student, err := fx.service.AddStudent(context.Background(), headmaster, validStudentInput("h1"), "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStudent, student.Role)
	assert.True(t, student.IsActive)
	assert.Empty(t, student.PasswordHash)

	stored := fx.users.users[student.ID]
	require.NotNil(t, stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("starting-password")))
	assert.Contains(t, fx.audit.actions(), domain.AuditStudentAdded)
}

func TestAddStudentRejectsDuplicates(t *testing.T) {
	fx := newDirectoryFixture()
	headmaster := testHeadmaster("hd1")
	ctx := context.Background()

	_, err := fx.service.AddStudent(ctx, headmaster, validStudentInput("h1"), "")
	require.NoError(t, err)

	_, err = fx.service.AddStudent(ctx, headmaster, validStudentInput("h1"), "")
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", domainCode(err))
}

func TestAddStudentHousemasterScopedToOwnHouse(t *testing.T) {
	fx := newDirectoryFixture()
	housemaster := testHousemaster("hm1", "h1")

	_, err := fx.service.AddStudent(context.Background(), housemaster, validStudentInput("h2"), "")
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", domainCode(err))

	_, err = fx.service.AddStudent(context.Background(), housemaster, validStudentInput("h1"), "")
	require.NoError(t, err)
}

func TestUpdateStudentHousemasterCannotReassignHouse(t *testing.T) {
	fx := newDirectoryFixture()
	housemaster := testHousemaster("hm1", "h1")
	ctx := context.Background()

	student, err := fx.service.AddStudent(ctx, housemaster, validStudentInput("h1"), "")
	require.NoError(t, err)

	input := validStudentInput("h2")
	input.Password = ""
	_, err = fx.service.UpdateStudent(ctx, housemaster, student.ID, input, "")
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", domainCode(err))

	headmaster := testHeadmaster("hd1")
	moved, err := fx.service.UpdateStudent(ctx, headmaster, student.ID, input, "")
	require.NoError(t, err)
	require.NotNil(t, moved.HouseID)
	assert.Equal(t, "h2", *moved.HouseID)
}

func TestRemoveAndReactivateStudent(t *testing.T) {
	fx := newDirectoryFixture()
	headmaster := testHeadmaster("hd1")
	ctx := context.Background()

	student, err := fx.service.AddStudent(ctx, headmaster, validStudentInput("h1"), "")
	require.NoError(t, err)

	require.NoError(t, fx.service.RemoveStudent(ctx, headmaster, student.ID, ""))
	assert.False(t, fx.users.users[student.ID].IsActive)

	restored, err := fx.service.ReactivateStudent(ctx, headmaster, student.ID, "")
	require.NoError(t, err)
	assert.True(t, restored.IsActive)
	assert.Contains(t, fx.audit.actions(), domain.AuditStudentRemoved)
	assert.Contains(t, fx.audit.actions(), domain.AuditStudentReactivated)
}

func TestRemoveStudentOutOfScopeIsNotFound(t *testing.T) {
	fx := newDirectoryFixture()
	headmaster := testHeadmaster("hd1")
	ctx := context.Background()

	student, err := fx.service.AddStudent(ctx, headmaster, validStudentInput("h2"), "")
	require.NoError(t, err)

	err = fx.service.RemoveStudent(ctx, testHousemaster("hm1", "h1"), student.ID, "")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", domainCode(err))
}

func TestResetPasswordRehashes(t *testing.T) {
	fx := newDirectoryFixture()
	headmaster := testHeadmaster("hd1")
	ctx := context.Background()

	student, err := fx.service.AddStudent(ctx, headmaster, validStudentInput("h1"), "")
	require.NoError(t, err)
	oldHash := fx.users.users[student.ID].PasswordHash

	require.NoError(t, fx.service.ResetPassword(ctx, headmaster, student.ID, "fresh-password", ""))
	newHash := fx.users.users[student.ID].PasswordHash
	assert.NotEqual(t, oldHash, newHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(newHash), []byte("fresh-password")))
	assert.Contains(t, fx.audit.actions(), domain.AuditPasswordReset)
}

func TestToggleUserActiveRejectsSelf(t *testing.T) {
	fx := newDirectoryFixture()
	headmaster := testHeadmaster("hd1")
	fx.users.users["hd1"] = headmaster

	_, err := fx.service.ToggleUserActive(context.Background(), headmaster, "hd1", "")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", domainCode(err))
}
