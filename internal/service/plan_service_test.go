package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/backoffice-service/internal/domain"
	"github.com/spec-kit/backoffice-service/internal/policy"
	"github.com/spec-kit/backoffice-service/internal/repository"
)

type planFixture struct {
	plans    *stubPlanRepo
	payments *stubPaymentRepo
	clients  *stubClientRepo
	users    *stubUserRepo
	svc      *PaymentPlanService
}

func newPlanFixture() *planFixture {
	plans := newStubPlanRepo()
	payments := newStubPaymentRepo()
	clients := newStubClientRepo()
	users := newStubUserRepo()
	svc := NewPaymentPlanService(PlanDependencies{
		PlanRepo:    plans,
		PaymentRepo: payments,
		ClientRepo:  clients,
		UserRepo:    users,
		Policies:    policy.NewEngine(clients),
		Now:         func() time.Time { return fixedNow },
	})
	return &planFixture{plans: plans, payments: payments, clients: clients, users: users, svc: svc}
}

func (f *planFixture) seedUser(t *testing.T, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{
		Name:   "Jordan",
		Email:  "jordan@example.test",
		Role:   role,
		Status: domain.UserStatusActive,
	}
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestCreatePlanStartsWithFullBalance(t *testing.T) {
	f := newPlanFixture()
	user := f.seedUser(t, domain.RoleClient)

	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	plan, err := f.svc.CreatePlan(context.Background(), adminActor, PlanCreateInput{
		UserID:       user.ID,
		Name:         "Hardware financing",
		TotalAmount:  1200,
		Installments: 12,
		StartDate:    start,
	})
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	if plan.RemainingAmount != plan.TotalAmount {
		t.Errorf("remaining = %v, want the full %v", plan.RemainingAmount, plan.TotalAmount)
	}
	wantNext := start.AddDate(0, 1, 0)
	if !plan.NextPaymentDate.Equal(wantNext) {
		t.Errorf("next payment date = %v, want %v", plan.NextPaymentDate, wantNext)
	}
}

func TestCreatePlanUnknownUserIsNotFound(t *testing.T) {
	f := newPlanFixture()

	_, err := f.svc.CreatePlan(context.Background(), adminActor, PlanCreateInput{
		UserID:       "ghost",
		Name:         "Plan",
		TotalAmount:  100,
		Installments: 2,
	})
	if code := domainCode(t, err); code != "NOT_FOUND" {
		t.Errorf("error code = %s, want NOT_FOUND", code)
	}
}

func TestUpdatePlanCannotTouchBalance(t *testing.T) {
	f := newPlanFixture()
	user := f.seedUser(t, domain.RoleClient)
	plan, err := f.svc.CreatePlan(context.Background(), adminActor, PlanCreateInput{
		UserID:       user.ID,
		Name:         "Plan",
		TotalAmount:  600,
		Installments: 6,
	})
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}

	name := "Renamed plan"
	installments := 3
	updated, err := f.svc.UpdatePlan(context.Background(), adminActor, plan.ID, PlanUpdateInput{
		Name:         &name,
		Installments: &installments,
	})
	if err != nil {
		t.Fatalf("update plan: %v", err)
	}
	if updated.Name != "Renamed plan" || updated.Installments != 3 {
		t.Errorf("descriptive fields not applied: %+v", updated)
	}
	if updated.TotalAmount != 600 || updated.RemainingAmount != 600 {
		t.Errorf("balance fields changed: total=%v remaining=%v", updated.TotalAmount, updated.RemainingAmount)
	}
}

func TestDeletePlanWithPaymentsConflicts(t *testing.T) {
	f := newPlanFixture()
	user := f.seedUser(t, domain.RoleClient)
	plan, err := f.svc.CreatePlan(context.Background(), adminActor, PlanCreateInput{
		UserID:       user.ID,
		Name:         "Plan",
		TotalAmount:  600,
		Installments: 6,
	})
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	payment := &domain.Payment{
		ReceiptKey:    generateReferenceCode("PAY"),
		ClientID:      "client-x",
		PaymentPlanID: &plan.ID,
		Amount:        100,
		Type:          domain.PaymentTypePaymentPlan,
		Status:        domain.PaymentStatusPending,
		PaymentDate:   fixedNow,
	}
	if err := f.payments.Create(context.Background(), payment); err != nil {
		t.Fatalf("seed payment: %v", err)
	}

	err = f.svc.DeletePlan(context.Background(), adminActor, plan.ID)
	if code := domainCode(t, err); code != "CONFLICT" {
		t.Errorf("error code = %s, want CONFLICT", code)
	}
	if _, err := f.plans.GetByID(context.Background(), plan.ID); err != nil {
		t.Errorf("plan was deleted despite recorded payments")
	}
}

func TestListPlansAgentScope(t *testing.T) {
	f := newPlanFixture()
	agentID := "agent-1"
	booked := &domain.Client{OwnerUserID: "owner-1", AgentID: &agentID, Name: "A", Email: "a@x.test", Status: domain.ClientStatusActive}
	loose := &domain.Client{OwnerUserID: "owner-2", Name: "B", Email: "b@x.test", Status: domain.ClientStatusActive}
	for _, c := range []*domain.Client{booked, loose} {
		if err := f.clients.Create(context.Background(), c); err != nil {
			t.Fatalf("seed client: %v", err)
		}
	}
	for _, userID := range []string{"owner-1", "owner-2"} {
		plan := &domain.PaymentPlan{UserID: userID, Name: "P", TotalAmount: 100, RemainingAmount: 100, Installments: 1}
		if err := f.plans.Create(context.Background(), plan); err != nil {
			t.Fatalf("seed plan: %v", err)
		}
	}

	mine, err := f.svc.ListPlans(context.Background(), domain.Actor{ID: agentID, Role: domain.RoleAgent}, repository.PaymentPlanFilter{})
	if err != nil {
		t.Fatalf("agent list: %v", err)
	}
	if len(mine) != 1 || mine[0].UserID != "owner-1" {
		t.Errorf("agent sees %d plans, want only the booked owner's", len(mine))
	}

	none, err := f.svc.ListPlans(context.Background(), domain.Actor{ID: "agent-empty", Role: domain.RoleAgent}, repository.PaymentPlanFilter{})
	if err != nil {
		t.Fatalf("empty-book agent list: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("agent with empty book sees %d plans, want 0", len(none))
	}
}
