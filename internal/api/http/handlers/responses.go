package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/exeat-service/internal/api/dto"
	"github.com/spec-kit/exeat-service/internal/auth"
	"github.com/spec-kit/exeat-service/internal/domain"
	apperrors "github.com/spec-kit/exeat-service/pkg/util/errorutil"
)

func success(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"success": true, "data": data})
}

func created(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": data})
}

func successMessage(c *fiber.Ctx, message string) error {
	return c.JSON(fiber.Map{"success": true, "message": message})
}

func requirePrincipal(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal.User, nil
}

func userResponse(u *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:               u.ID,
		StudentCode:      u.StudentCode,
		StaffCode:        u.StaffCode,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Email:            u.Email,
		Phone:            u.Phone,
		Class:            u.Class,
		Role:             string(u.Role),
		HouseID:          u.HouseID,
		HouseName:        u.HouseName,
		GuardianName:     u.GuardianName,
		GuardianPhone:    u.GuardianPhone,
		IsActive:         u.IsActive,
		TwoFactorEnabled: u.TwoFactorEnabled,
		LastLogin:        u.LastLogin,
		CreatedAt:        u.CreatedAt,
	}
}

func userResponses(users []domain.User) []dto.UserResponse {
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return items
}

func requestResponse(r *domain.ExeatRequest) dto.RequestResponse {
	return dto.RequestResponse{
		ID:                 r.ID,
		StudentID:          r.StudentID,
		StudentName:        r.StudentName,
		StudentCode:        r.StudentCode,
		StudentClass:       r.StudentClass,
		HouseID:            r.HouseID,
		HouseName:          r.HouseName,
		DepartureDate:      r.DepartureDate.Format("2006-01-02"),
		DepartureTime:      r.DepartureTime,
		Duration:           r.Duration,
		Destination:        r.Destination,
		Reason:             r.Reason,
		GuardianName:       r.GuardianName,
		GuardianPhone:      r.GuardianPhone,
		Status:             string(r.Status),
		Semester:           r.Semester,
		AcademicYear:       r.AcademicYear,
		ApprovedBy:         r.ApprovedBy,
		ApprovedByName:     r.ApprovedByName,
		ApprovedAt:         r.ApprovedAt,
		RejectedBy:         r.RejectedBy,
		RejectedByName:     r.RejectedByName,
		RejectedAt:         r.RejectedAt,
		RejectionReason:    r.RejectionReason,
		CancelledBy:        r.CancelledBy,
		CancelledAt:        r.CancelledAt,
		CancellationReason: r.CancellationReason,
		EditedAt:           r.EditedAt,
		ExpiresAt:          r.ExpiresAt,
		IsExpired:          r.IsExpired,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func requestResponses(requests []domain.ExeatRequest) []dto.RequestResponse {
	items := make([]dto.RequestResponse, 0, len(requests))
	for i := range requests {
		items = append(items, requestResponse(&requests[i]))
	}
	return items
}

func noteResponse(n *domain.RequestNote) dto.NoteResponse {
	return dto.NoteResponse{
		ID:         n.ID,
		RequestID:  n.RequestID,
		AuthorID:   n.AuthorID,
		AuthorName: n.AuthorName,
		AuthorRole: string(n.AuthorRole),
		Note:       n.Body,
		CreatedAt:  n.CreatedAt,
	}
}

func settingResponse(s *domain.SystemSetting) dto.SettingResponse {
	return dto.SettingResponse{
		Key:       s.Key,
		Value:     s.Value,
		UpdatedBy: s.UpdatedBy,
		UpdatedAt: s.UpdatedAt,
	}
}

func auditResponse(e *domain.AuditLogEntry) dto.AuditLogResponse {
	return dto.AuditLogResponse{
		ID:        e.ID,
		UserID:    e.UserID,
		UserName:  e.UserName,
		UserRole:  string(e.UserRole),
		Action:    e.Action,
		Details:   e.Details,
		IPAddress: e.IPAddress,
		CreatedAt: e.CreatedAt,
	}
}
