package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/exeat-service/internal/domain"
	"github.com/spec-kit/exeat-service/internal/persistence"
	"github.com/spec-kit/exeat-service/internal/repository"
	apperrors "github.com/spec-kit/exeat-service/pkg/util/errorutil"
)

const settingsCacheKey = "exeat:settings"

// SettingsService manages system-wide configuration. The lifecycle service
// reads settings on every relevant operation, so the read path is cached in
// Redis with a short TTL; upserts delete the cache key. Cache failures are
// treated as misses.
type SettingsService struct {
	settings repository.SettingRepository
	cache    *persistence.Redis
	cacheTTL time.Duration
	audit    *AuditService
	logger   *zap.Logger
}

// NewSettingsService builds the service.
func NewSettingsService(settings repository.SettingRepository, cache *persistence.Redis, cacheTTL time.Duration, audit *AuditService, logger *zap.Logger) *SettingsService {
	return &SettingsService{
		settings: settings,
		cache:    cache,
		cacheTTL: cacheTTL,
		audit:    audit,
		logger:   logger,
	}
}

// List returns all raw setting rows for the admin screen.
func (s *SettingsService) List(ctx context.Context) ([]domain.SystemSetting, error) {
	rows, err := s.settings.List(ctx)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []domain.SystemSetting{}
	}
	return rows, nil
}

// Current returns the typed settings consulted by the request lifecycle.
func (s *SettingsService) Current(ctx context.Context) (domain.Settings, error) {
	if cached, ok := s.fromCache(ctx); ok {
		return cached, nil
	}

	rows, err := s.settings.List(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	parsed := domain.ParseSettings(rows)
	s.toCache(ctx, parsed)
	return parsed, nil
}

// Update upserts one setting by key. Headmaster-only (enforced at the
// route), audited.
func (s *SettingsService) Update(ctx context.Context, actor *domain.User, key, value, ip string) (*domain.SystemSetting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, apperrors.NewValidationError("setting key required", nil)
	}

	setting, err := s.settings.Upsert(ctx, key, value, actor.ID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.cache.Client != nil {
		if err := s.cache.Client.Del(ctx, settingsCacheKey).Err(); err != nil {
			s.logger.Warn("failed to invalidate settings cache", zap.Error(err))
		}
	}

	s.audit.Log(ctx, actor.ID, domain.AuditSettingUpdated,
		fmt.Sprintf("Updated setting: %s = %s", key, value), ip)
	return setting, nil
}

func (s *SettingsService) fromCache(ctx context.Context) (domain.Settings, bool) {
	if s.cache == nil || s.cache.Client == nil {
		return domain.Settings{}, false
	}
	raw, err := s.cache.Client.Get(ctx, settingsCacheKey).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Debug("settings cache read failed", zap.Error(err))
		}
		return domain.Settings{}, false
	}
	var parsed domain.Settings
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return domain.Settings{}, false
	}
	return parsed, true
}

func (s *SettingsService) toCache(ctx context.Context, settings domain.Settings) {
	if s.cache == nil || s.cache.Client == nil {
		return
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return
	}
	if err := s.cache.Client.Set(ctx, settingsCacheKey, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Debug("settings cache write failed", zap.Error(err))
	}
}
