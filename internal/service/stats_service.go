package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/backoffice-service/internal/domain"
	"github.com/spec-kit/backoffice-service/internal/policy"
	"github.com/spec-kit/backoffice-service/internal/repository"
	apperrors "github.com/spec-kit/backoffice-service/pkg/util"
)

// DashboardStats is the aggregate snapshot behind the dashboard. Agent
// scoped snapshots cover only the agent's book; the revenue and expense
// windows look back thirty days.
type DashboardStats struct {
	ClientCounts       map[domain.ClientStatus]int64 `json:"client_counts"`
	OpenTickets        int64                         `json:"open_tickets"`
	OutstandingBalance float64                       `json:"outstanding_balance"`
	RevenueLast30Days  float64                       `json:"revenue_last_30_days"`
	ExpensesLast30Days float64                       `json:"expenses_last_30_days"`
	GeneratedAt        time.Time                     `json:"generated_at"`
}

// StatsService computes dashboard aggregates, caching each actor scope in
// Redis for a short TTL. A cache failure degrades to a direct query, it
// never fails the request.
type StatsService struct {
	stats    repository.StatsRepository
	policies *policy.Engine
	cache    *redis.Client
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// StatsDependencies bundles the collaborators for the stats service.
type StatsDependencies struct {
	StatsRepo repository.StatsRepository
	Policies  *policy.Engine
	Cache     *redis.Client
	CacheTTL  time.Duration
	Logger    *zap.Logger
	Now       func() time.Time
}

// NewStatsService instantiates the stats service.
func NewStatsService(deps StatsDependencies) *StatsService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{
		stats:    deps.StatsRepo,
		policies: deps.Policies,
		cache:    deps.Cache,
		ttl:      deps.CacheTTL,
		logger:   logger,
		now:      now,
	}
}

// Dashboard returns the stats snapshot for the actor's scope.
func (s *StatsService) Dashboard(ctx context.Context, actor domain.Actor) (*DashboardStats, error) {
	scope, ok := s.policies.ForActor(actor).StatsScope()
	if !ok {
		return nil, forbidden()
	}
	var agentID *string
	cacheKey := "stats:dashboard:all"
	if scope.AgentID != nil {
		agentID = scope.AgentID
		cacheKey = fmt.Sprintf("stats:dashboard:agent:%s", *scope.AgentID)
	} else if !scope.All {
		return nil, forbidden()
	}

	if cached := s.fromCache(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	stats, err := s.compute(ctx, agentID)
	if err != nil {
		return nil, err
	}
	s.toCache(ctx, cacheKey, stats)
	return stats, nil
}

func (s *StatsService) compute(ctx context.Context, agentID *string) (*DashboardStats, error) {
	since := s.now().AddDate(0, 0, -30)

	counts, err := s.stats.ClientCounts(ctx, agentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	openTickets, err := s.stats.OpenTicketCount(ctx, agentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	outstanding, err := s.stats.OutstandingPlanBalance(ctx, agentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	revenue, err := s.stats.CompletedPaymentTotal(ctx, since, agentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	stats := &DashboardStats{
		ClientCounts:       counts,
		OpenTickets:        openTickets,
		OutstandingBalance: outstanding,
		RevenueLast30Days:  revenue,
		GeneratedAt:        s.now(),
	}
	// Expenses are company wide; agent scoped snapshots omit them.
	if agentID == nil {
		expenses, err := s.stats.ExpenseTotal(ctx, since)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		stats.ExpensesLast30Days = expenses
	}
	return stats, nil
}

func (s *StatsService) fromCache(ctx context.Context, key string) *DashboardStats {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("stats cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil
	}
	var stats DashboardStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		s.logger.Warn("stats cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil
	}
	return &stats
}

func (s *StatsService) toCache(ctx context.Context, key string, stats *DashboardStats) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		s.logger.Warn("stats cache write failed", zap.String("key", key), zap.Error(err))
	}
}
