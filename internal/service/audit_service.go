package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/exeat-service/internal/domain"
	"github.com/spec-kit/exeat-service/internal/repository"
)

// AuditService writes and queries the append-only audit trail.
//
// Writes are best-effort: a failed audit insert is logged server-side and
// never aborts the operation that triggered it, so a caller can see their
// mutation succeed even when its audit record was lost.
type AuditService struct {
	audits repository.AuditRepository
	logger *zap.Logger
}

// NewAuditService builds the service.
func NewAuditService(audits repository.AuditRepository, logger *zap.Logger) *AuditService {
	return &AuditService{audits: audits, logger: logger}
}

// Log records a mutating action.
func (s *AuditService) Log(ctx context.Context, actorID, action, details, ipAddress string) {
	entry := &domain.AuditLogEntry{
		Action:    action,
		Details:   details,
		IPAddress: ipAddress,
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if err := s.audits.Create(ctx, entry); err != nil {
		s.logger.Error("failed to write audit log",
			zap.String("action", action),
			zap.String("details", details),
			zap.Error(err))
	}
}

// Query returns audit entries matching the filter, newest first, capped.
func (s *AuditService) Query(ctx context.Context, filter repository.AuditFilter) ([]domain.AuditLogEntry, error) {
	entries, err := s.audits.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.AuditLogEntry{}
	}
	return entries, nil
}

// Stats returns per-action counts with the most recent occurrence.
func (s *AuditService) Stats(ctx context.Context) ([]domain.AuditActionStats, error) {
	stats, err := s.audits.StatsByAction(ctx)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = []domain.AuditActionStats{}
	}
	return stats, nil
}
