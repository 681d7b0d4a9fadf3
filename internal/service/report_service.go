package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/spec-kit/exeat-service/internal/domain"
)

var csvHeader = []string{
	"Student Name", "House", "Class", "Date", "Time",
	"Duration", "Destination", "Reason", "Status", "Submitted",
}

// ReportService renders role-scoped request exports.
type ReportService struct {
	requests *RequestService
}

// NewReportService builds the service.
func NewReportService(requests *RequestService) *ReportService {
	return &ReportService{requests: requests}
}

// ExportCSV renders the requests visible to the caller as CSV, applying the
// same scoping and filters as the list endpoint. Returns the file bytes and
// a suggested filename.
func (s *ReportService) ExportCSV(ctx context.Context, caller *domain.User, filter RequestListFilter) ([]byte, string, error) {
	requests, err := s.requests.List(ctx, caller, filter)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, "", err
	}
	for i := range requests {
		if err := w.Write(csvRow(&requests[i])); err != nil {
			return nil, "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("exeat-requests-%s.csv", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

func csvRow(r *domain.ExeatRequest) []string {
	return []string{
		r.StudentName,
		r.HouseName,
		r.StudentClass,
		r.DepartureDate.Format("2006-01-02"),
		r.DepartureTime,
		r.Duration,
		r.Destination,
		r.Reason,
		string(r.Status),
		r.CreatedAt.Format("2006-01-02 15:04"),
	}
}
