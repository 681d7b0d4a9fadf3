package service

import (
	"context"
	"time"

	"github.com/spec-kit/exeat-service/internal/repository"
)

// AnalyticsReport is the full payload of the reporting dashboard.
type AnalyticsReport struct {
	Overview     *repository.AnalyticsOverview  `json:"overview"`
	BySemester   []repository.SemesterBreakdown `json:"by_semester"`
	TopRequester []repository.TopRequester      `json:"top_requesters"`
}

// AnalyticsService serves read-only reporting for the headmaster dashboard.
type AnalyticsService struct {
	analytics repository.AnalyticsRepository
	requests  *RequestService
}

// NewAnalyticsService builds the service.
func NewAnalyticsService(analytics repository.AnalyticsRepository, requests *RequestService) *AnalyticsService {
	return &AnalyticsService{analytics: analytics, requests: requests}
}

// Report runs the expiry sweep and returns the aggregate view over the
// optional date window.
func (s *AnalyticsService) Report(ctx context.Context, from, to *time.Time) (*AnalyticsReport, error) {
	if err := s.requests.ExpireSweep(ctx); err != nil {
		return nil, err
	}

	overview, err := s.analytics.Overview(ctx, from, to)
	if err != nil {
		return nil, err
	}
	bySemester, err := s.analytics.BySemester(ctx)
	if err != nil {
		return nil, err
	}
	if bySemester == nil {
		bySemester = []repository.SemesterBreakdown{}
	}
	top, err := s.analytics.TopRequesters(ctx, 10)
	if err != nil {
		return nil, err
	}
	if top == nil {
		top = []repository.TopRequester{}
	}

	return &AnalyticsReport{
		Overview:     overview,
		BySemester:   bySemester,
		TopRequester: top,
	}, nil
}
