package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/exeat-service/internal/domain"
	"github.com/spec-kit/exeat-service/internal/repository"
)

// In-memory repository fakes backing the service tests.

type fakeRequestRepo struct {
	seq      int
	requests map[string]*domain.ExeatRequest
	order    []string
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: map[string]*domain.ExeatRequest{}}
}

func (f *fakeRequestRepo) Create(_ context.Context, req *domain.ExeatRequest) error {
	f.seq++
	req.ID = fmt.Sprintf("req-%d", f.seq)
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	stored := *req
	f.requests[req.ID] = &stored
	f.order = append(f.order, req.ID)
	return nil
}

func (f *fakeRequestRepo) Update(_ context.Context, req *domain.ExeatRequest) error {
	if _, ok := f.requests[req.ID]; !ok {
		return pgx.ErrNoRows
	}
	req.UpdatedAt = time.Now()
	stored := *req
	f.requests[req.ID] = &stored
	return nil
}

func (f *fakeRequestRepo) GetByID(_ context.Context, id string) (*domain.ExeatRequest, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *req
	return &copied, nil
}

func matchesFilter(req *domain.ExeatRequest, filter repository.RequestFilter) bool {
	if filter.StudentID != nil && req.StudentID != *filter.StudentID {
		return false
	}
	if filter.HouseID != nil && req.HouseID != *filter.HouseID {
		return false
	}
	if filter.Status != nil && req.Status != *filter.Status {
		return false
	}
	if filter.Semester != nil && req.Semester != *filter.Semester {
		return false
	}
	if filter.AcademicYear != nil && req.AcademicYear != *filter.AcademicYear {
		return false
	}
	if filter.Search != nil {
		needle := strings.ToLower(*filter.Search)
		if !strings.Contains(strings.ToLower(req.StudentName), needle) &&
			!strings.Contains(strings.ToLower(req.StudentCode), needle) {
			return false
		}
	}
	return true
}

func (f *fakeRequestRepo) ListWithFilter(_ context.Context, filter repository.RequestFilter) ([]domain.ExeatRequest, error) {
	var result []domain.ExeatRequest
	for i := len(f.order) - 1; i >= 0; i-- {
		req := f.requests[f.order[i]]
		if matchesFilter(req, filter) {
			result = append(result, *req)
		}
	}
	return result, nil
}

func (f *fakeRequestRepo) ListPendingByIDs(_ context.Context, ids []string, houseID *string) ([]domain.ExeatRequest, error) {
	var result []domain.ExeatRequest
	for _, id := range ids {
		req, ok := f.requests[id]
		if !ok || req.Status != domain.RequestStatusPending {
			continue
		}
		if houseID != nil && req.HouseID != *houseID {
			continue
		}
		result = append(result, *req)
	}
	return result, nil
}

func (f *fakeRequestRepo) CountForSemester(_ context.Context, studentID, semester, academicYear string) (int64, error) {
	var count int64
	for _, req := range f.requests {
		if req.StudentID == studentID && req.Semester == semester && req.AcademicYear == academicYear {
			count++
		}
	}
	return count, nil
}

func (f *fakeRequestRepo) MarkExpired(_ context.Context) (int64, error) {
	var count int64
	now := time.Now()
	for _, req := range f.requests {
		if req.Status == domain.RequestStatusPending && !req.IsExpired && req.ExpiresAt.Before(now) {
			req.IsExpired = true
			count++
		}
	}
	return count, nil
}

func (f *fakeRequestRepo) Stats(_ context.Context, filter repository.RequestFilter) (*domain.RequestStats, error) {
	stats := &domain.RequestStats{}
	for _, req := range f.requests {
		if !matchesFilter(req, filter) {
			continue
		}
		stats.Total++
		switch req.Status {
		case domain.RequestStatusPending:
			stats.Pending++
		case domain.RequestStatusApproved:
			stats.Approved++
		case domain.RequestStatusRejected:
			stats.Rejected++
		}
		if req.IsExpired {
			stats.Expired++
		}
	}
	return stats, nil
}

func (f *fakeRequestRepo) StatsByHouse(_ context.Context) ([]domain.HouseRequestStats, error) {
	byHouse := map[string]*domain.HouseRequestStats{}
	for _, req := range f.requests {
		hs, ok := byHouse[req.HouseID]
		if !ok {
			hs = &domain.HouseRequestStats{HouseID: req.HouseID, HouseName: req.HouseName}
			byHouse[req.HouseID] = hs
		}
		hs.Total++
		switch req.Status {
		case domain.RequestStatusPending:
			hs.Pending++
		case domain.RequestStatusApproved:
			hs.Approved++
		case domain.RequestStatusRejected:
			hs.Rejected++
		}
	}
	result := make([]domain.HouseRequestStats, 0, len(byHouse))
	for _, hs := range byHouse {
		result = append(result, *hs)
	}
	return result, nil
}

type fakeNoteRepo struct {
	seq   int
	notes []domain.RequestNote
}

func (f *fakeNoteRepo) Create(_ context.Context, note *domain.RequestNote) error {
	f.seq++
	note.ID = fmt.Sprintf("note-%d", f.seq)
	note.CreatedAt = time.Now()
	f.notes = append(f.notes, *note)
	return nil
}

func (f *fakeNoteRepo) ListByRequest(_ context.Context, requestID string) ([]domain.RequestNote, error) {
	var result []domain.RequestNote
	for _, note := range f.notes {
		if note.RequestID == requestID {
			result = append(result, note)
		}
	}
	return result, nil
}

type fakeSettingRepo struct {
	rows []domain.SystemSetting
}

func (f *fakeSettingRepo) List(_ context.Context) ([]domain.SystemSetting, error) {
	return append([]domain.SystemSetting{}, f.rows...), nil
}

func (f *fakeSettingRepo) Upsert(_ context.Context, key, value, updatedBy string) (*domain.SystemSetting, error) {
	for i := range f.rows {
		if f.rows[i].Key == key {
			f.rows[i].Value = value
			f.rows[i].UpdatedBy = &updatedBy
			f.rows[i].UpdatedAt = time.Now()
			return &f.rows[i], nil
		}
	}
	row := domain.SystemSetting{Key: key, Value: value, UpdatedBy: &updatedBy, UpdatedAt: time.Now()}
	f.rows = append(f.rows, row)
	return &row, nil
}

func (f *fakeSettingRepo) set(key, value string) {
	for i := range f.rows {
		if f.rows[i].Key == key {
			f.rows[i].Value = value
			return
		}
	}
	f.rows = append(f.rows, domain.SystemSetting{Key: key, Value: value, UpdatedAt: time.Now()})
}

type fakeAuditRepo struct {
	entries []domain.AuditLogEntry
}

func (f *fakeAuditRepo) Create(_ context.Context, entry *domain.AuditLogEntry) error {
	f.seqID(entry)
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) seqID(entry *domain.AuditLogEntry) {
	entry.ID = fmt.Sprintf("audit-%d", len(f.entries)+1)
	entry.CreatedAt = time.Now()
}

func (f *fakeAuditRepo) ListWithFilter(_ context.Context, filter repository.AuditFilter) ([]domain.AuditLogEntry, error) {
	var result []domain.AuditLogEntry
	for _, entry := range f.entries {
		if filter.UserID != nil && (entry.UserID == nil || *entry.UserID != *filter.UserID) {
			continue
		}
		if filter.Action != nil && entry.Action != *filter.Action {
			continue
		}
		result = append(result, entry)
	}
	return result, nil
}

func (f *fakeAuditRepo) StatsByAction(_ context.Context) ([]domain.AuditActionStats, error) {
	counts := map[string]*domain.AuditActionStats{}
	for _, entry := range f.entries {
		stats, ok := counts[entry.Action]
		if !ok {
			stats = &domain.AuditActionStats{Action: entry.Action}
			counts[entry.Action] = stats
		}
		stats.Count++
		if entry.CreatedAt.After(stats.LastOccurrence) {
			stats.LastOccurrence = entry.CreatedAt
		}
	}
	result := make([]domain.AuditActionStats, 0, len(counts))
	for _, stats := range counts {
		result = append(result, *stats)
	}
	return result, nil
}

func (f *fakeAuditRepo) actions() []string {
	result := make([]string, 0, len(f.entries))
	for _, entry := range f.entries {
		result = append(result, entry.Action)
	}
	return result
}

type fakeUserRepo struct {
	seq   int
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	f.seq++
	user.ID = fmt.Sprintf("user-%d", f.seq)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range f.users {
		if strings.EqualFold(user.Email, email) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) ListStudents(_ context.Context, houseID *string) ([]domain.User, error) {
	var result []domain.User
	for _, user := range f.users {
		if user.Role != domain.RoleStudent {
			continue
		}
		if houseID != nil && (user.HouseID == nil || *user.HouseID != *houseID) {
			continue
		}
		result = append(result, *user)
	}
	return result, nil
}

func (f *fakeUserRepo) ListWithFilter(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	var result []domain.User
	for _, user := range f.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.HouseID != nil && (user.HouseID == nil || *user.HouseID != *filter.HouseID) {
			continue
		}
		result = append(result, *user)
	}
	return result, nil
}

func (f *fakeUserRepo) ExistsStudentCodeOrEmail(_ context.Context, studentCode, email string) (bool, error) {
	for _, user := range f.users {
		if strings.EqualFold(user.Email, email) {
			return true, nil
		}
		if user.StudentCode != nil && *user.StudentCode == studentCode {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) SetActive(_ context.Context, id string, active bool) error {
	user, ok := f.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.IsActive = active
	return nil
}

func (f *fakeUserRepo) ToggleActive(_ context.Context, id string) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	user.IsActive = !user.IsActive
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	user, ok := f.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.PasswordHash = passwordHash
	return nil
}

func (f *fakeUserRepo) SetTwoFactor(_ context.Context, id string, secret *string, enabled bool) error {
	user, ok := f.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.TwoFactorSecret = secret
	user.TwoFactorEnabled = enabled
	return nil
}

func (f *fakeUserRepo) TouchLastLogin(_ context.Context, id string) error {
	user, ok := f.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	now := time.Now()
	user.LastLogin = &now
	return nil
}

type fakeHouseRepo struct {
	houses []domain.House
}

func (f *fakeHouseRepo) List(_ context.Context) ([]domain.House, error) {
	return append([]domain.House{}, f.houses...), nil
}

func (f *fakeHouseRepo) GetByID(_ context.Context, id string) (*domain.House, error) {
	for _, house := range f.houses {
		if house.ID == id {
			copied := house
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}
