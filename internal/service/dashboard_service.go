package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/alhisab/school-fees-api/internal/models"
	appErrors "github.com/alhisab/school-fees-api/pkg/errors"
)

// Cached dashboard payloads live under this key prefix; every mutation of the
// financial tables invalidates the whole prefix.
const dashboardCachePattern = "dash:*"

type dashboardRepository interface {
	Summary(ctx context.Context, month string) (*models.FinancialSummary, error)
	SchoolBreakdown(ctx context.Context) ([]models.SchoolBreakdown, error)
}

// DashboardConfig governs caching of dashboard payloads.
type DashboardConfig struct {
	CacheTTL time.Duration
}

// DashboardService assembles the financial overview.
type DashboardService struct {
	repo   dashboardRepository
	cache  *CacheService
	cfg    DashboardConfig
	logger *zap.Logger
}

// NewDashboardService constructs the dashboard service.
func NewDashboardService(repo dashboardRepository, cache *CacheService, cfg DashboardConfig, logger *zap.Logger) *DashboardService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{repo: repo, cache: cache, cfg: cfg, logger: logger}
}

// Summary returns the headline financial numbers, cached per month key. The
// second return value reports whether the payload came from cache.
func (s *DashboardService) Summary(ctx context.Context, month string) (*models.FinancialSummary, bool, error) {
	if month != "" && !monthKeyPattern.MatchString(month) {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "month must be formatted YYYY-MM")
	}

	key := fmt.Sprintf("dash:summary:%s", month)
	var cached models.FinancialSummary
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	summary, err := s.repo.Summary(ctx, month)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build dashboard summary")
	}
	if err := s.cache.Set(ctx, key, summary, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
	return summary, false, nil
}

// SchoolBreakdown returns the per-school collection slices, cached.
func (s *DashboardService) SchoolBreakdown(ctx context.Context) ([]models.SchoolBreakdown, bool, error) {
	const key = "dash:schools"
	var cached []models.SchoolBreakdown
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, true, nil
	}

	rows, err := s.repo.SchoolBreakdown(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build school breakdown")
	}
	if err := s.cache.Set(ctx, key, rows, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
	return rows, false, nil
}
