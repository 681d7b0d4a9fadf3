package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/exeat-service/internal/api/dto"
	"github.com/spec-kit/exeat-service/internal/service"
	apperrors "github.com/spec-kit/exeat-service/pkg/util/errorutil"
)

// StudentsHandler serves the student directory endpoints.
type StudentsHandler struct {
	directory *service.DirectoryService
}

// NewStudentsHandler constructs handler.
func NewStudentsHandler(directory *service.DirectoryService) *StudentsHandler {
	return &StudentsHandler{directory: directory}
}

// List GET /api/users/students.
func (h *StudentsHandler) List(c *fiber.Ctx) error {
	caller, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	students, err := h.directory.ListStudents(c.UserContext(), caller)
	if err != nil {
		return err
	}
	return success(c, userResponses(students))
}

// Create POST /api/users/students.
func (h *StudentsHandler) Create(c *fiber.Ctx) error {
	caller, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	input, err := parseStudentBody(c)
	if err != nil {
		return err
	}
	student, err := h.directory.AddStudent(c.UserContext(), caller, input, c.IP())
	if err != nil {
		return err
	}
	return created(c, userResponse(student))
}

// Update PUT /api/users/students/:id.
func (h *StudentsHandler) Update(c *fiber.Ctx) error {
	caller, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	input, err := parseStudentBody(c)
	if err != nil {
		return err
	}
	student, err := h.directory.UpdateStudent(c.UserContext(), caller, c.Params("id"), input, c.IP())
	if err != nil {
		return err
	}
	return success(c, userResponse(student))
}

// Remove DELETE /api/users/students/:id.
func (h *StudentsHandler) Remove(c *fiber.Ctx) error {
	caller, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	if err := h.directory.RemoveStudent(c.UserContext(), caller, c.Params("id"), c.IP()); err != nil {
		return err
	}
	return successMessage(c, "student removed")
}

// Reactivate PUT /api/users/students/:id/reactivate.
func (h *StudentsHandler) Reactivate(c *fiber.Ctx) error {
	caller, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	student, err := h.directory.ReactivateStudent(c.UserContext(), caller, c.Params("id"), c.IP())
	if err != nil {
		return err
	}
	return success(c, userResponse(student))
}

// ResetPassword POST /api/users/students/:id/reset-password.
func (h *StudentsHandler) ResetPassword(c *fiber.Ctx) error {
	caller, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var body dto.ResetPasswordRequest
	if err := c.BodyParser(&body); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.directory.ResetPassword(c.UserContext(), caller, c.Params("id"), body.NewPassword, c.IP()); err != nil {
		return err
	}
	return successMessage(c, "password reset")
}

func parseStudentBody(c *fiber.Ctx) (service.StudentInput, error) {
	var body dto.StudentRequest
	if err := c.BodyParser(&body); err != nil {
		return service.StudentInput{}, apperrors.NewValidationError("invalid payload", nil)
	}
	return service.StudentInput{
		StudentCode:   body.StudentID,
		FirstName:     body.FirstName,
		LastName:      body.LastName,
		Email:         body.Email,
		Password:      body.Password,
		Phone:         body.Phone,
		Class:         body.Class,
		HouseID:       body.HouseID,
		GuardianName:  body.GuardianName,
		GuardianPhone: body.GuardianPhone,
	}, nil
}
