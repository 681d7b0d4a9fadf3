package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/exeat-service/internal/api/dto"
	"github.com/spec-kit/exeat-service/internal/domain"
	"github.com/spec-kit/exeat-service/internal/repository"
	"github.com/spec-kit/exeat-service/internal/service"
	apperrors "github.com/spec-kit/exeat-service/pkg/util/errorutil"
)

// AdminHandler serves headmaster-only administration endpoints: audit trail,
// settings, the full user directory and analytics.
type AdminHandler struct {
	audit     *service.AuditService
	settings  *service.SettingsService
	directory *service.DirectoryService
	analytics *service.AnalyticsService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(audit *service.AuditService, settings *service.SettingsService, directory *service.DirectoryService, analytics *service.AnalyticsService) *AdminHandler {
	return &AdminHandler{audit: audit, settings: settings, directory: directory, analytics: analytics}
}

// AuditLogs GET /api/admin/audit-logs.
func (h *AdminHandler) AuditLogs(c *fiber.Ctx) error {
	filter := repository.AuditFilter{}
	if userID := strings.TrimSpace(c.Query("user_id")); userID != "" {
		filter.UserID = &userID
	}
	if action := strings.TrimSpace(c.Query("action")); action != "" {
		filter.Action = &action
	}
	filter.From = parseTime(c.Query("from"))
	filter.To = parseTime(c.Query("to"))
	filter.Limit = parseInt(c.Query("limit"), 0)

	entries, err := h.audit.Query(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.AuditLogResponse, 0, len(entries))
	for i := range entries {
		items = append(items, auditResponse(&entries[i]))
	}
	return success(c, items)
}

// AuditStats GET /api/admin/audit-logs/stats.
func (h *AdminHandler) AuditStats(c *fiber.Ctx) error {
	stats, err := h.audit.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return success(c, stats)
}

// Settings GET /api/admin/settings.
func (h *AdminHandler) Settings(c *fiber.Ctx) error {
	rows, err := h.settings.List(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.SettingResponse, 0, len(rows))
	for i := range rows {
		items = append(items, settingResponse(&rows[i]))
	}
	return success(c, items)
}

// UpdateSetting PUT /api/admin/settings/:key.
func (h *AdminHandler) UpdateSetting(c *fiber.Ctx) error {
	caller, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var body dto.UpdateSettingRequest
	if err := c.BodyParser(&body); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	setting, err := h.settings.Update(c.UserContext(), caller, c.Params("key"), body.Value, c.IP())
	if err != nil {
		return err
	}
	return success(c, settingResponse(setting))
}

// Users GET /api/admin/users.
func (h *AdminHandler) Users(c *fiber.Ctx) error {
	filter := repository.UserFilter{}
	if roleStr := strings.TrimSpace(c.Query("role")); roleStr != "" {
		role := domain.Role(roleStr)
		if !role.Valid() {
			return apperrors.NewValidationError("unknown role", nil)
		}
		filter.Role = &role
	}
	if houseID := strings.TrimSpace(c.Query("house_id")); houseID != "" {
		filter.HouseID = &houseID
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter.Search = &search
	}

	users, err := h.directory.ListUsers(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return success(c, userResponses(users))
}

// ToggleUserActive PUT /api/admin/users/:id/toggle-active.
func (h *AdminHandler) ToggleUserActive(c *fiber.Ctx) error {
	caller, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	user, err := h.directory.ToggleUserActive(c.UserContext(), caller, c.Params("id"), c.IP())
	if err != nil {
		return err
	}
	return success(c, userResponse(user))
}

// Analytics GET /api/admin/analytics/comprehensive.
func (h *AdminHandler) Analytics(c *fiber.Ctx) error {
	report, err := h.analytics.Report(c.UserContext(), parseTime(c.Query("from")), parseTime(c.Query("to")))
	if err != nil {
		return err
	}
	return success(c, report)
}

// parseTime accepts RFC3339 or a bare date.
func parseTime(val string) *time.Time {
	val = strings.TrimSpace(val)
	if val == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return &t
	}
	if t, err := time.Parse("2006-01-02", val); err == nil {
		return &t
	}
	return nil
}
