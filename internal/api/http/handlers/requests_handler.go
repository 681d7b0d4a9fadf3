package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/exeat-service/internal/api/dto"
	"github.com/spec-kit/exeat-service/internal/domain"
	"github.com/spec-kit/exeat-service/internal/service"
	apperrors "github.com/spec-kit/exeat-service/pkg/util/errorutil"
)

const departureDateLayout = "2006-01-02"

// RequestsHandler serves the exeat request lifecycle endpoints.
type RequestsHandler struct {
	requests *service.RequestService
	reports  *service.ReportService
	passes   *service.PassService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requests *service.RequestService, reports *service.ReportService, passes *service.PassService) *RequestsHandler {
	return &RequestsHandler{requests: requests, reports: reports, passes: passes}
}

// List GET /api/requests.
func (h *RequestsHandler) List(c *fiber.Ctx) error {
	caller, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	requests, err := h.requests.List(c.UserContext(), caller, parseRequestQuery(c))
	if err != nil {
		return err
	}
	return success(c, requestResponses(requests))
}

// Export GET /api/requests/export.
func (h *RequestsHandler) Export(c *fiber.Ctx) error {
	caller, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	data, filename, err := h.reports.ExportCSV(c.UserContext(), caller, parseRequestQuery(c))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}

// Get GET /api/requests/:id.
func (h *RequestsHandler) Get(c *fiber.Ctx) error {
	caller, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	req, notes, err := h.requests.Get(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	detail := dto.RequestDetailResponse{RequestResponse: requestResponse(req)}
	detail.Notes = make([]dto.NoteResponse, 0, len(notes))
	for i := range notes {
		detail.Notes = append(detail.Notes, noteResponse(&notes[i]))
	}
	return success(c, detail)
}

// Pass GET /api/requests/:id/pass.
func (h *RequestsHandler) Pass(c *fiber.Ctx) error {
	caller, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	page, err := h.passes.Render(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(page)
}

// Create POST /api/requests.
func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	caller, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	input, err := parseRequestBody(c)
	if err != nil {
		return err
	}
	req, err := h.requests.Create(c.UserContext(), caller, input, c.IP())
	if err != nil {
		return err
	}
	return created(c, requestResponse(req))
}

// Update PUT /api/requests/:id.
func (h *RequestsHandler) Update(c *fiber.Ctx) error {
	caller, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	input, err := parseRequestBody(c)
	if err != nil {
		return err
	}
	req, err := h.requests.Edit(c.UserContext(), caller, c.Params("id"), input, c.IP())
	if err != nil {
		return err
	}
	return success(c, requestResponse(req))
}

// Cancel POST /api/requests/:id/cancel.
func (h *RequestsHandler) Cancel(c *fiber.Ctx) error {
	caller, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var body dto.CancelRequestRequest
	_ = c.BodyParser(&body)
	req, err := h.requests.Cancel(c.UserContext(), caller, c.Params("id"), body.Reason, c.IP())
	if err != nil {
		return err
	}
	return success(c, requestResponse(req))
}

// Approve POST /api/requests/:id/approve.
func (h *RequestsHandler) Approve(c *fiber.Ctx) error {
	caller, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	req, err := h.requests.Approve(c.UserContext(), caller, c.Params("id"), c.IP())
	if err != nil {
		return err
	}
	return success(c, requestResponse(req))
}

// BatchApprove POST /api/requests/batch/approve.
func (h *RequestsHandler) BatchApprove(c *fiber.Ctx) error {
	caller, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var body dto.BatchApproveRequest
	if err := c.BodyParser(&body); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if len(body.IDs) == 0 {
		return apperrors.NewValidationError("ids required", nil)
	}
	approved, err := h.requests.BatchApprove(c.UserContext(), caller, body.IDs, c.IP())
	if err != nil {
		return err
	}
	return success(c, fiber.Map{
		"approved": requestResponses(approved),
		"count":    len(approved),
	})
}

// Reject POST /api/requests/:id/reject.
func (h *RequestsHandler) Reject(c *fiber.Ctx) error {
	caller, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var body dto.RejectRequestRequest
	if err := c.BodyParser(&body); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	req, err := h.requests.Reject(c.UserContext(), caller, c.Params("id"), body.Reason, c.IP())
	if err != nil {
		return err
	}
	return success(c, requestResponse(req))
}

// AddNote POST /api/requests/:id/notes.
func (h *RequestsHandler) AddNote(c *fiber.Ctx) error {
	caller, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var body dto.AddNoteRequest
	if err := c.BodyParser(&body); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	note, err := h.requests.AddNote(c.UserContext(), caller, c.Params("id"), body.Note, c.IP())
	if err != nil {
		return err
	}
	return created(c, noteResponse(note))
}

// StatsOverview GET /api/requests/stats/overview.
func (h *RequestsHandler) StatsOverview(c *fiber.Ctx) error {
	caller, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	stats, err := h.requests.Stats(c.UserContext(), caller)
	if err != nil {
		return err
	}
	return success(c, stats)
}

// StatsHouses GET /api/requests/stats/houses.
func (h *RequestsHandler) StatsHouses(c *fiber.Ctx) error {
	if _, err := requirePrincipal(c); err != nil {
		return err
	}
	stats, err := h.requests.StatsByHouse(c.UserContext())
	if err != nil {
		return err
	}
	return success(c, stats)
}

func parseRequestBody(c *fiber.Ctx) (service.RequestCreateInput, error) {
	var body dto.SubmitRequestRequest
	if err := c.BodyParser(&body); err != nil {
		return service.RequestCreateInput{}, apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.RequestCreateInput{
		DepartureTime: body.DepartureTime,
		Duration:      body.Duration,
		Destination:   body.Destination,
		Reason:        body.Reason,
		GuardianName:  body.GuardianName,
		GuardianPhone: body.GuardianPhone,
	}
	if body.DepartureDate != "" {
		parsed, err := time.Parse(departureDateLayout, body.DepartureDate)
		if err != nil {
			return service.RequestCreateInput{}, apperrors.NewValidationError("departure_date must be YYYY-MM-DD", nil)
		}
		input.DepartureDate = parsed
	}
	return input, nil
}

func parseRequestQuery(c *fiber.Ctx) service.RequestListFilter {
	filter := service.RequestListFilter{}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		s := domain.RequestStatus(status)
		filter.Status = &s
	}
	if houseID := strings.TrimSpace(c.Query("house_id")); houseID != "" {
		filter.HouseID = &houseID
	}
	if studentID := strings.TrimSpace(c.Query("student_id")); studentID != "" {
		filter.StudentID = &studentID
	}
	if semester := strings.TrimSpace(c.Query("semester")); semester != "" {
		filter.Semester = &semester
	}
	if year := strings.TrimSpace(c.Query("academic_year")); year != "" {
		filter.AcademicYear = &year
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter.Search = &search
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 50)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
