package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/backoffice-service/internal/domain"
	"github.com/spec-kit/backoffice-service/internal/policy"
)

type stubStatsRepo struct {
	counts      map[domain.ClientStatus]int64
	openTickets int64
	outstanding float64
	revenue     float64
	expenses    float64

	lastAgentID *string
	lastSince   time.Time
}

func (r *stubStatsRepo) ClientCounts(_ context.Context, agentID *string) (map[domain.ClientStatus]int64, error) {
	r.lastAgentID = agentID
	return r.counts, nil
}

func (r *stubStatsRepo) OpenTicketCount(_ context.Context, _ *string) (int64, error) {
	return r.openTickets, nil
}

func (r *stubStatsRepo) OutstandingPlanBalance(_ context.Context, _ *string) (float64, error) {
	return r.outstanding, nil
}

func (r *stubStatsRepo) CompletedPaymentTotal(_ context.Context, since time.Time, _ *string) (float64, error) {
	r.lastSince = since
	return r.revenue, nil
}

func (r *stubStatsRepo) ExpenseTotal(_ context.Context, _ time.Time) (float64, error) {
	return r.expenses, nil
}

func newStatsFixture(repo *stubStatsRepo) *StatsService {
	return NewStatsService(StatsDependencies{
		StatsRepo: repo,
		Policies:  policy.NewEngine(newStubClientRepo()),
		Now:       func() time.Time { return fixedNow },
	})
}

func TestDashboardAdminIncludesExpenses(t *testing.T) {
	repo := &stubStatsRepo{
		counts:      map[domain.ClientStatus]int64{domain.ClientStatusActive: 4},
		openTickets: 7,
		outstanding: 1500,
		revenue:     900,
		expenses:    300,
	}
	svc := newStatsFixture(repo)

	stats, err := svc.Dashboard(context.Background(), adminActor)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if repo.lastAgentID != nil {
		t.Errorf("admin snapshot queried with agent scope %v", *repo.lastAgentID)
	}
	if stats.OpenTickets != 7 || stats.OutstandingBalance != 1500 {
		t.Errorf("aggregates wrong: %+v", stats)
	}
	if stats.ExpensesLast30Days != 300 {
		t.Errorf("expenses = %v, want 300", stats.ExpensesLast30Days)
	}
	wantSince := fixedNow.AddDate(0, 0, -30)
	if !repo.lastSince.Equal(wantSince) {
		t.Errorf("revenue window since %v, want %v", repo.lastSince, wantSince)
	}
	if !stats.GeneratedAt.Equal(fixedNow) {
		t.Errorf("generated at %v, want %v", stats.GeneratedAt, fixedNow)
	}
}

func TestDashboardAgentScopeOmitsExpenses(t *testing.T) {
	repo := &stubStatsRepo{
		counts:   map[domain.ClientStatus]int64{domain.ClientStatusActive: 1},
		expenses: 300,
	}
	svc := newStatsFixture(repo)

	stats, err := svc.Dashboard(context.Background(), domain.Actor{ID: "agent-1", Role: domain.RoleAgent})
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if repo.lastAgentID == nil || *repo.lastAgentID != "agent-1" {
		t.Errorf("agent snapshot not scoped: %v", repo.lastAgentID)
	}
	if stats.ExpensesLast30Days != 0 {
		t.Errorf("agent snapshot carries expenses: %v", stats.ExpensesLast30Days)
	}
}

func TestDashboardDeniedForClients(t *testing.T) {
	svc := newStatsFixture(&stubStatsRepo{})

	_, err := svc.Dashboard(context.Background(), domain.Actor{ID: "owner-1", Role: domain.RoleClient})
	if code := domainCode(t, err); code != "FORBIDDEN" {
		t.Errorf("error code = %s, want FORBIDDEN", code)
	}
}
