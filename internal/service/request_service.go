package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/exeat-service/internal/domain"
	"github.com/spec-kit/exeat-service/internal/events"
	"github.com/spec-kit/exeat-service/internal/repository"
	apperrors "github.com/spec-kit/exeat-service/pkg/util/errorutil"
)

// RequestService coordinates the exeat request lifecycle: creation under a
// per-semester quota, edits and cancellations gated by settings toggles,
// approval/rejection under house scoping, notes, and the expiry sweep.
type RequestService struct {
	requests   repository.RequestRepository
	notes      repository.NoteRepository
	settings   *SettingsService
	audit      *AuditService
	dispatcher events.Dispatcher
}

// RequestDependencies bundles collaborators for the request service.
type RequestDependencies struct {
	RequestRepo repository.RequestRepository
	NoteRepo    repository.NoteRepository
	Settings    *SettingsService
	Audit       *AuditService
	Dispatcher  events.Dispatcher
}

// RequestCreateInput describes the trip details of a new request.
type RequestCreateInput struct {
	DepartureDate time.Time
	DepartureTime string
	Duration      string
	Destination   string
	Reason        string
	GuardianName  string
	GuardianPhone string
}

// RequestListFilter describes caller-supplied list filters; role scoping is
// intersected with these before querying.
type RequestListFilter struct {
	Status       *domain.RequestStatus
	HouseID      *string
	StudentID    *string
	Semester     *string
	AcademicYear *string
	Search       *string
	Limit        int
	Offset       int
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	return &RequestService{
		requests:   deps.RequestRepo,
		notes:      deps.NoteRepo,
		settings:   deps.Settings,
		audit:      deps.Audit,
		dispatcher: deps.Dispatcher,
	}
}

// Create submits a new request for a student, enforcing the per-semester
// quota. The request is tagged with the active semester/year and expires
// request_expiry_hours after creation.
func (s *RequestService) Create(ctx context.Context, student *domain.User, input RequestCreateInput, ip string) (*domain.ExeatRequest, error) {
	if err := validateDetails(input); err != nil {
		return nil, err
	}
	if student.HouseID == nil {
		return nil, apperrors.NewValidationError("student has no house assigned", nil)
	}

	settings, err := s.settings.Current(ctx)
	if err != nil {
		return nil, err
	}

	count, err := s.requests.CountForSemester(ctx, student.ID, settings.CurrentSemester, settings.CurrentAcademicYear)
	if err != nil {
		return nil, err
	}
	if count >= int64(settings.MaxRequestsPerSemester) {
		s.audit.Log(ctx, student.ID, domain.AuditRequestDeniedLimit,
			fmt.Sprintf("Request denied: semester limit of %d reached", settings.MaxRequestsPerSemester), ip)
		return nil, apperrors.NewQuotaExceeded(
			fmt.Sprintf("you have reached the limit of %d requests this semester", settings.MaxRequestsPerSemester),
			map[string]any{"limit": settings.MaxRequestsPerSemester})
	}

	req := &domain.ExeatRequest{
		StudentID:     student.ID,
		HouseID:       *student.HouseID,
		DepartureDate: input.DepartureDate,
		DepartureTime: input.DepartureTime,
		Duration:      strings.TrimSpace(input.Duration),
		Destination:   strings.TrimSpace(input.Destination),
		Reason:        strings.TrimSpace(input.Reason),
		GuardianName:  input.GuardianName,
		GuardianPhone: input.GuardianPhone,
		Status:        domain.RequestStatusPending,
		Semester:      settings.CurrentSemester,
		AcademicYear:  settings.CurrentAcademicYear,
		ExpiresAt:     time.Now().Add(time.Duration(settings.RequestExpiryHours) * time.Hour),
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, student.ID, domain.AuditRequestCreated,
		fmt.Sprintf("Submitted exeat request to %s", req.Destination), ip)
	s.publish(ctx, events.Event{
		Type:      events.EventRequestCreated,
		RequestID: req.ID,
		Actor:     events.Actor{UserID: student.ID, Role: student.Role},
		Payload: events.RequestCreatedPayload{
			StudentID:   req.StudentID,
			HouseID:     req.HouseID,
			Destination: req.Destination,
			ExpiresAt:   req.ExpiresAt,
		},
	})
	return s.requests.GetByID(ctx, req.ID)
}

// Edit updates the trip details of the caller's own pending request, when
// the allow_student_edit toggle is on.
func (s *RequestService) Edit(ctx context.Context, student *domain.User, id string, input RequestCreateInput, ip string) (*domain.ExeatRequest, error) {
	settings, err := s.settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	if !settings.AllowStudentEdit {
		return nil, apperrors.NewForbidden("editing requests is currently disabled")
	}
	if err := validateDetails(input); err != nil {
		return nil, err
	}

	req, err := s.getOwned(ctx, student, id)
	if err != nil {
		return nil, err
	}
	if !req.Pending() {
		return nil, apperrors.NewForbidden("only pending requests can be edited")
	}

	now := time.Now()
	req.DepartureDate = input.DepartureDate
	req.DepartureTime = input.DepartureTime
	req.Duration = strings.TrimSpace(input.Duration)
	req.Destination = strings.TrimSpace(input.Destination)
	req.Reason = strings.TrimSpace(input.Reason)
	req.GuardianName = input.GuardianName
	req.GuardianPhone = input.GuardianPhone
	req.EditedAt = &now
	if err := s.requests.Update(ctx, req); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, student.ID, domain.AuditRequestEdited,
		fmt.Sprintf("Edited exeat request %s", req.ID), ip)
	return s.requests.GetByID(ctx, req.ID)
}

// Cancel withdraws the caller's own pending request, when the
// allow_student_cancel toggle is on. Stored as a rejection with
// cancellation metadata so the paths stay distinguishable.
func (s *RequestService) Cancel(ctx context.Context, student *domain.User, id, reason, ip string) (*domain.ExeatRequest, error) {
	settings, err := s.settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	if !settings.AllowStudentCancel {
		return nil, apperrors.NewForbidden("cancelling requests is currently disabled")
	}

	req, err := s.getOwned(ctx, student, id)
	if err != nil {
		return nil, err
	}
	if !req.Pending() {
		return nil, apperrors.NewForbidden("only pending requests can be cancelled")
	}

	now := time.Now()
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "Cancelled by student"
	}
	req.Status = domain.RequestStatusRejected
	req.CancelledBy = &student.ID
	req.CancelledAt = &now
	req.CancellationReason = &reason
	if err := s.requests.Update(ctx, req); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, student.ID, domain.AuditRequestCancelled,
		fmt.Sprintf("Cancelled exeat request %s", req.ID), ip)
	s.publish(ctx, events.Event{
		Type:      events.EventRequestCancelled,
		RequestID: req.ID,
		Actor:     events.Actor{UserID: student.ID, Role: student.Role},
		Payload: events.RequestDecidedPayload{
			StudentID: req.StudentID,
			HouseID:   req.HouseID,
			NewStatus: req.Status,
			Reason:    reason,
		},
	})
	return s.requests.GetByID(ctx, req.ID)
}

// Approve moves a pending request to approved. A housemaster may only
// approve requests in their own house.
func (s *RequestService) Approve(ctx context.Context, approver *domain.User, id, ip string) (*domain.ExeatRequest, error) {
	req, err := s.getScoped(ctx, approver, id)
	if err != nil {
		return nil, err
	}
	if !req.Pending() {
		return nil, apperrors.NewForbidden("request is no longer pending")
	}

	now := time.Now()
	req.Status = domain.RequestStatusApproved
	req.ApprovedBy = &approver.ID
	req.ApprovedAt = &now
	if err := s.requests.Update(ctx, req); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, approver.ID, domain.AuditRequestApproved,
		fmt.Sprintf("Approved exeat request %s for %s", req.ID, req.StudentName), ip)
	s.publish(ctx, events.Event{
		Type:      events.EventRequestApproved,
		RequestID: req.ID,
		Actor:     events.Actor{UserID: approver.ID, Role: approver.Role},
		Payload: events.RequestDecidedPayload{
			StudentID: req.StudentID,
			HouseID:   req.HouseID,
			NewStatus: req.Status,
		},
	})
	return s.requests.GetByID(ctx, req.ID)
}

// BatchApprove approves every pending request in ids the caller could
// approve individually. Non-matching ids are silently excluded from the
// result rather than individually errored.
func (s *RequestService) BatchApprove(ctx context.Context, approver *domain.User, ids []string, ip string) ([]domain.ExeatRequest, error) {
	var houseScope *string
	if approver.Role == domain.RoleHousemaster {
		if approver.HouseID == nil {
			return nil, apperrors.NewForbidden("no house assigned")
		}
		houseScope = approver.HouseID
	}

	pending, err := s.requests.ListPendingByIDs(ctx, ids, houseScope)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	approved := make([]domain.ExeatRequest, 0, len(pending))
	for i := range pending {
		req := pending[i]
		req.Status = domain.RequestStatusApproved
		req.ApprovedBy = &approver.ID
		req.ApprovedAt = &now
		if err := s.requests.Update(ctx, &req); err != nil {
			return nil, err
		}
		approved = append(approved, req)
	}

	if len(approved) > 0 {
		s.audit.Log(ctx, approver.ID, domain.AuditRequestApproved,
			fmt.Sprintf("Batch approved %d exeat requests", len(approved)), ip)
	}
	return approved, nil
}

// Reject moves a pending request to rejected. Requires a non-empty reason;
// same house scoping as Approve.
func (s *RequestService) Reject(ctx context.Context, approver *domain.User, id, reason, ip string) (*domain.ExeatRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("rejection reason is required", nil)
	}

	req, err := s.getScoped(ctx, approver, id)
	if err != nil {
		return nil, err
	}
	if !req.Pending() {
		return nil, apperrors.NewForbidden("request is no longer pending")
	}

	now := time.Now()
	req.Status = domain.RequestStatusRejected
	req.RejectedBy = &approver.ID
	req.RejectedAt = &now
	req.RejectionReason = &reason
	if err := s.requests.Update(ctx, req); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, approver.ID, domain.AuditRequestRejected,
		fmt.Sprintf("Rejected exeat request %s: %s", req.ID, reason), ip)
	s.publish(ctx, events.Event{
		Type:      events.EventRequestRejected,
		RequestID: req.ID,
		Actor:     events.Actor{UserID: approver.ID, Role: approver.Role},
		Payload: events.RequestDecidedPayload{
			StudentID: req.StudentID,
			HouseID:   req.HouseID,
			NewStatus: req.Status,
			Reason:    reason,
		},
	})
	return s.requests.GetByID(ctx, req.ID)
}

// AddNote appends an annotation to a request. Allowed regardless of the
// request's status; housemasters are limited to their own house.
func (s *RequestService) AddNote(ctx context.Context, author *domain.User, id, body, ip string) (*domain.RequestNote, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("note text is required", nil)
	}

	req, err := s.getScoped(ctx, author, id)
	if err != nil {
		return nil, err
	}

	note := &domain.RequestNote{
		RequestID:  req.ID,
		AuthorID:   author.ID,
		Body:       body,
		AuthorName: author.FullName(),
		AuthorRole: author.Role,
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, author.ID, domain.AuditNoteAdded,
		fmt.Sprintf("Added note to exeat request %s", req.ID), ip)
	s.publish(ctx, events.Event{
		Type:      events.EventNoteAdded,
		RequestID: req.ID,
		Actor:     events.Actor{UserID: author.ID, Role: author.Role},
		Payload: events.NoteAddedPayload{
			NoteID:      note.ID,
			BodyPreview: preview(body, 120),
		},
	})
	return note, nil
}

// Get returns one request with its notes, enforcing role scope.
func (s *RequestService) Get(ctx context.Context, caller *domain.User, id string) (*domain.ExeatRequest, []domain.RequestNote, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil, apperrors.NewNotFound("request")
		}
		return nil, nil, err
	}
	if !s.canAccess(caller, req) {
		return nil, nil, apperrors.NewNotFound("request")
	}

	notes, err := s.notes.ListByRequest(ctx, req.ID)
	if err != nil {
		return nil, nil, err
	}
	if notes == nil {
		notes = []domain.RequestNote{}
	}
	return req, notes, nil
}

// ExpireSweep flips the expired flag on pending requests whose expiry
// timestamp has passed. Idempotent; invoked opportunistically before
// list/stat reads.
func (s *RequestService) ExpireSweep(ctx context.Context) error {
	count, err := s.requests.MarkExpired(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		s.publish(ctx, events.Event{
			Type:    events.EventRequestsExpired,
			Payload: events.RequestsExpiredPayload{Count: count},
		})
	}
	return nil
}

// List returns the requests visible to the caller, newest first, after
// running the expiry sweep.
func (s *RequestService) List(ctx context.Context, caller *domain.User, filter RequestListFilter) ([]domain.ExeatRequest, error) {
	if err := s.ExpireSweep(ctx); err != nil {
		return nil, err
	}

	repoFilter := repository.RequestFilter{
		Status:       filter.Status,
		HouseID:      filter.HouseID,
		StudentID:    filter.StudentID,
		Semester:     filter.Semester,
		AcademicYear: filter.AcademicYear,
		Search:       filter.Search,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}
	if err := s.applyScope(caller, &repoFilter); err != nil {
		return nil, err
	}

	result, err := s.requests.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = []domain.ExeatRequest{}
	}
	return result, nil
}

// Stats returns role-scoped aggregate counts.
func (s *RequestService) Stats(ctx context.Context, caller *domain.User) (*domain.RequestStats, error) {
	if err := s.ExpireSweep(ctx); err != nil {
		return nil, err
	}

	var filter repository.RequestFilter
	if err := s.applyScope(caller, &filter); err != nil {
		return nil, err
	}
	return s.requests.Stats(ctx, filter)
}

// StatsByHouse returns per-house aggregates. Headmaster-only (enforced at
// the route).
func (s *RequestService) StatsByHouse(ctx context.Context) ([]domain.HouseRequestStats, error) {
	if err := s.ExpireSweep(ctx); err != nil {
		return nil, err
	}
	stats, err := s.requests.StatsByHouse(ctx)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = []domain.HouseRequestStats{}
	}
	return stats, nil
}

// applyScope narrows a filter to what the caller may see: students their
// own requests, housemasters their house, headmaster everything.
func (s *RequestService) applyScope(caller *domain.User, filter *repository.RequestFilter) error {
	switch caller.Role {
	case domain.RoleStudent:
		filter.StudentID = &caller.ID
	case domain.RoleHousemaster:
		if caller.HouseID == nil {
			return apperrors.NewForbidden("no house assigned")
		}
		filter.HouseID = caller.HouseID
	case domain.RoleHeadmaster:
	default:
		return apperrors.NewForbidden("insufficient permissions")
	}
	return nil
}

func (s *RequestService) canAccess(caller *domain.User, req *domain.ExeatRequest) bool {
	switch caller.Role {
	case domain.RoleStudent:
		return req.StudentID == caller.ID
	case domain.RoleHousemaster:
		return caller.HouseID != nil && *caller.HouseID == req.HouseID
	case domain.RoleHeadmaster:
		return true
	}
	return false
}

// getOwned loads a request and verifies the student owns it. Missing and
// not-owned are both reported as NotFound so ids cannot be probed.
func (s *RequestService) getOwned(ctx context.Context, student *domain.User, id string) (*domain.ExeatRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("request")
		}
		return nil, err
	}
	if req.StudentID != student.ID {
		return nil, apperrors.NewNotFound("request")
	}
	return req, nil
}

// getScoped loads a request for an approver, enforcing house scope for
// housemasters.
func (s *RequestService) getScoped(ctx context.Context, approver *domain.User, id string) (*domain.ExeatRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("request")
		}
		return nil, err
	}
	if approver.Role == domain.RoleHousemaster {
		if approver.HouseID == nil || *approver.HouseID != req.HouseID {
			return nil, apperrors.NewForbidden("request belongs to another house")
		}
	}
	return req, nil
}

func (s *RequestService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func validateDetails(input RequestCreateInput) error {
	missing := []string{}
	if input.DepartureDate.IsZero() {
		missing = append(missing, "departure_date")
	}
	if strings.TrimSpace(input.Duration) == "" {
		missing = append(missing, "duration")
	}
	if strings.TrimSpace(input.Destination) == "" {
		missing = append(missing, "destination")
	}
	if strings.TrimSpace(input.Reason) == "" {
		missing = append(missing, "reason")
	}
	if len(missing) > 0 {
		return apperrors.NewValidationError("missing required fields", map[string]any{"fields": missing})
	}
	return nil
}

func preview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
