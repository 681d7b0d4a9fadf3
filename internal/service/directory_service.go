package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/exeat-service/internal/auth"
	"github.com/spec-kit/exeat-service/internal/domain"
	"github.com/spec-kit/exeat-service/internal/repository"
	apperrors "github.com/spec-kit/exeat-service/pkg/util/errorutil"
)

// DirectoryService manages student records and the wider user directory.
// Housemasters operate on their own house only; the headmaster is unscoped.
// Accounts are soft-removed by clearing the active flag, never deleted.
type DirectoryService struct {
	users      repository.UserRepository
	houses     repository.HouseRepository
	audit      *AuditService
	bcryptCost int
}

// NewDirectoryService builds the service.
func NewDirectoryService(users repository.UserRepository, houses repository.HouseRepository, audit *AuditService, bcryptCost int) *DirectoryService {
	return &DirectoryService{users: users, houses: houses, audit: audit, bcryptCost: bcryptCost}
}

// StudentInput carries the writable fields of a student record. Password is
// consumed only on create and reset.
type StudentInput struct {
	StudentCode   string
	FirstName     string
	LastName      string
	Email         string
	Password      string
	Phone         string
	Class         string
	HouseID       string
	GuardianName  string
	GuardianPhone string
}

// ListHouses returns the house reference data.
func (s *DirectoryService) ListHouses(ctx context.Context) ([]domain.House, error) {
	houses, err := s.houses.List(ctx)
	if err != nil {
		return nil, err
	}
	if houses == nil {
		houses = []domain.House{}
	}
	return houses, nil
}

// ListStudents returns students visible to the caller, grouped by house.
func (s *DirectoryService) ListStudents(ctx context.Context, caller *domain.User) ([]domain.User, error) {
	var houseScope *string
	if caller.Role == domain.RoleHousemaster {
		if caller.HouseID == nil {
			return nil, apperrors.NewForbidden("no house assigned")
		}
		houseScope = caller.HouseID
	}

	students, err := s.users.ListStudents(ctx, houseScope)
	if err != nil {
		return nil, err
	}
	return sanitizeAll(students), nil
}

// AddStudent creates a student account. Student code and email must be
// unique; a housemaster may only add to their own house.
func (s *DirectoryService) AddStudent(ctx context.Context, caller *domain.User, input StudentInput, ip string) (*domain.User, error) {
	if err := validateStudentInput(input, true); err != nil {
		return nil, err
	}
	if err := s.checkHouseScope(caller, input.HouseID); err != nil {
		return nil, err
	}
	if _, err := s.houses.GetByID(ctx, input.HouseID); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewValidationError("unknown house", nil)
		}
		return nil, err
	}

	exists, err := s.users.ExistsStudentCodeOrEmail(ctx, input.StudentCode, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.NewConflict("a student with this ID or email already exists", nil)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	code := strings.TrimSpace(input.StudentCode)
	houseID := input.HouseID
	student := &domain.User{
		StudentCode:   &code,
		FirstName:     strings.TrimSpace(input.FirstName),
		LastName:      strings.TrimSpace(input.LastName),
		Email:         strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash:  hash,
		Phone:         input.Phone,
		Class:         input.Class,
		Role:          domain.RoleStudent,
		HouseID:       &houseID,
		GuardianName:  input.GuardianName,
		GuardianPhone: input.GuardianPhone,
		IsActive:      true,
	}
	if err := s.users.Create(ctx, student); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, caller.ID, domain.AuditStudentAdded,
		fmt.Sprintf("Added student %s (%s)", student.FullName(), code), ip)
	return s.sanitizedByID(ctx, student.ID)
}

// UpdateStudent updates profile fields. Housemasters cannot move a student
// to another house.
func (s *DirectoryService) UpdateStudent(ctx context.Context, caller *domain.User, id string, input StudentInput, ip string) (*domain.User, error) {
	if err := validateStudentInput(input, false); err != nil {
		return nil, err
	}

	student, err := s.getStudentScoped(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if input.HouseID != "" && (student.HouseID == nil || *student.HouseID != input.HouseID) {
		if caller.Role == domain.RoleHousemaster {
			return nil, apperrors.NewForbidden("housemasters cannot reassign students to another house")
		}
		if _, err := s.houses.GetByID(ctx, input.HouseID); err != nil {
			if err == pgx.ErrNoRows {
				return nil, apperrors.NewValidationError("unknown house", nil)
			}
			return nil, err
		}
		houseID := input.HouseID
		student.HouseID = &houseID
	}

	code := strings.TrimSpace(input.StudentCode)
	student.StudentCode = &code
	student.FirstName = strings.TrimSpace(input.FirstName)
	student.LastName = strings.TrimSpace(input.LastName)
	student.Email = strings.ToLower(strings.TrimSpace(input.Email))
	student.Phone = input.Phone
	student.Class = input.Class
	student.GuardianName = input.GuardianName
	student.GuardianPhone = input.GuardianPhone
	if err := s.users.Update(ctx, student); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, caller.ID, domain.AuditStudentUpdated,
		fmt.Sprintf("Updated student %s (%s)", student.FullName(), code), ip)
	return s.sanitizedByID(ctx, student.ID)
}

// RemoveStudent deactivates the account. The record and its request history
// are kept.
func (s *DirectoryService) RemoveStudent(ctx context.Context, caller *domain.User, id, ip string) error {
	student, err := s.getStudentScoped(ctx, caller, id)
	if err != nil {
		return err
	}

	if err := s.users.SetActive(ctx, student.ID, false); err != nil {
		return err
	}
	s.audit.Log(ctx, caller.ID, domain.AuditStudentRemoved,
		fmt.Sprintf("Removed student %s", student.FullName()), ip)
	return nil
}

// ReactivateStudent restores a deactivated account. Headmaster-only
// (enforced at the route).
func (s *DirectoryService) ReactivateStudent(ctx context.Context, caller *domain.User, id, ip string) (*domain.User, error) {
	student, err := s.getStudentScoped(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if err := s.users.SetActive(ctx, student.ID, true); err != nil {
		return nil, err
	}
	s.audit.Log(ctx, caller.ID, domain.AuditStudentReactivated,
		fmt.Sprintf("Reactivated student %s", student.FullName()), ip)
	return s.sanitizedByID(ctx, student.ID)
}

// ResetPassword rehashes and stores a new password for a student.
func (s *DirectoryService) ResetPassword(ctx context.Context, caller *domain.User, id, newPassword, ip string) error {
	if strings.TrimSpace(newPassword) == "" {
		return apperrors.NewValidationError("new password is required", nil)
	}

	student, err := s.getStudentScoped(ctx, caller, id)
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, student.ID, hash); err != nil {
		return err
	}

	s.audit.Log(ctx, caller.ID, domain.AuditPasswordReset,
		fmt.Sprintf("Reset password for %s", student.FullName()), ip)
	return nil
}

// ListUsers is the headmaster directory view over every account, with
// optional role/house/search filters.
func (s *DirectoryService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	users, err := s.users.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, err
	}
	return sanitizeAll(users), nil
}

// ToggleUserActive flips the active flag on any account. Headmaster-only
// (enforced at the route); a deactivated account fails authentication on
// its next request.
func (s *DirectoryService) ToggleUserActive(ctx context.Context, caller *domain.User, id, ip string) (*domain.User, error) {
	if id == caller.ID {
		return nil, apperrors.NewValidationError("cannot change your own account status", nil)
	}

	user, err := s.users.ToggleActive(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user")
		}
		return nil, err
	}

	state := "deactivated"
	if user.IsActive {
		state = "activated"
	}
	s.audit.Log(ctx, caller.ID, domain.AuditUserStatusChanged,
		fmt.Sprintf("Account %s for %s", state, user.FullName()), ip)
	sanitized := user.Sanitized()
	return &sanitized, nil
}

// getStudentScoped loads a student record and verifies the caller may act
// on it. Out-of-scope records are reported as NotFound.
func (s *DirectoryService) getStudentScoped(ctx context.Context, caller *domain.User, id string) (*domain.User, error) {
	student, err := s.users.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("student")
		}
		return nil, err
	}
	if student.Role != domain.RoleStudent {
		return nil, apperrors.NewNotFound("student")
	}
	if caller.Role == domain.RoleHousemaster {
		if caller.HouseID == nil || student.HouseID == nil || *caller.HouseID != *student.HouseID {
			return nil, apperrors.NewNotFound("student")
		}
	}
	return student, nil
}

func (s *DirectoryService) checkHouseScope(caller *domain.User, houseID string) error {
	if caller.Role != domain.RoleHousemaster {
		return nil
	}
	if caller.HouseID == nil || *caller.HouseID != houseID {
		return apperrors.NewForbidden("students can only be added to your own house")
	}
	return nil
}

func (s *DirectoryService) sanitizedByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sanitized := user.Sanitized()
	return &sanitized, nil
}

func validateStudentInput(input StudentInput, requirePassword bool) error {
	missing := []string{}
	if strings.TrimSpace(input.StudentCode) == "" {
		missing = append(missing, "student_id")
	}
	if strings.TrimSpace(input.FirstName) == "" {
		missing = append(missing, "first_name")
	}
	if strings.TrimSpace(input.LastName) == "" {
		missing = append(missing, "last_name")
	}
	if strings.TrimSpace(input.Email) == "" {
		missing = append(missing, "email")
	}
	if requirePassword {
		if strings.TrimSpace(input.Password) == "" {
			missing = append(missing, "password")
		}
		if strings.TrimSpace(input.HouseID) == "" {
			missing = append(missing, "house_id")
		}
	}
	if len(missing) > 0 {
		return apperrors.NewValidationError("missing required fields", map[string]any{"fields": missing})
	}
	return nil
}

func sanitizeAll(users []domain.User) []domain.User {
	result := make([]domain.User, 0, len(users))
	for _, u := range users {
		result = append(result, u.Sanitized())
	}
	return result
}
