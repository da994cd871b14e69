package policy

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/backoffice-service/internal/domain"
)

// resolverStub serves the ownership chain from fixed maps, answering
// pgx.ErrNoRows for anything unknown like the real repository does.
type resolverStub struct {
	byID    map[string]*domain.Client
	byOwner map[string]*domain.Client
}

func (r *resolverStub) GetByID(_ context.Context, id string) (*domain.Client, error) {
	if c, ok := r.byID[id]; ok {
		return c, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *resolverStub) GetByOwnerUserID(_ context.Context, userID string) (*domain.Client, error) {
	if c, ok := r.byOwner[userID]; ok {
		return c, nil
	}
	return nil, pgx.ErrNoRows
}

func newTestEngine() *Engine {
	agent := "agent-1"
	booked := &domain.Client{ID: "client-1", OwnerUserID: "owner-1", AgentID: &agent}
	loose := &domain.Client{ID: "client-2", OwnerUserID: "owner-2"}
	return NewEngine(&resolverStub{
		byID:    map[string]*domain.Client{"client-1": booked, "client-2": loose},
		byOwner: map[string]*domain.Client{"owner-1": booked, "owner-2": loose},
	})
}

func TestUnknownRoleDeniesEverything(t *testing.T) {
	engine := newTestEngine()
	p := engine.ForActor(domain.Actor{ID: "x", Role: "SUPERUSER"})

	v, err := p.Ticket(context.Background(), ActionRead, &domain.Ticket{ClientID: "x"})
	if err != nil {
		t.Fatalf("ticket check: %v", err)
	}
	if v.Allowed {
		t.Errorf("unknown role allowed a ticket read")
	}
	if _, ok := p.TicketListScope(); ok {
		t.Errorf("unknown role received a list scope")
	}
	if v := p.Finance(ActionRead); v.Allowed {
		t.Errorf("unknown role allowed finance access")
	}
}

func TestAdminAllowsEverything(t *testing.T) {
	engine := newTestEngine()
	p := engine.ForActor(domain.Actor{ID: "admin-1", Role: domain.RoleAdmin})

	checks := []struct {
		name string
		run  func() (Verdict, error)
	}{
		{"client delete", func() (Verdict, error) {
			return p.Client(context.Background(), ActionDelete, &domain.Client{ID: "client-2"})
		}},
		{"ticket update", func() (Verdict, error) {
			return p.Ticket(context.Background(), ActionUpdate, &domain.Ticket{ClientID: "owner-2"})
		}},
		{"payment delete", func() (Verdict, error) {
			return p.Payment(context.Background(), ActionDelete, &domain.Payment{ClientID: "client-2"})
		}},
		{"plan update", func() (Verdict, error) {
			return p.PaymentPlan(context.Background(), ActionUpdate, &domain.PaymentPlan{UserID: "owner-2"})
		}},
	}
	for _, check := range checks {
		v, err := check.run()
		if err != nil {
			t.Fatalf("%s: %v", check.name, err)
		}
		if !v.Allowed {
			t.Errorf("%s: admin denied", check.name)
		}
		if v.Fields != nil {
			t.Errorf("%s: admin verdict restricts fields", check.name)
		}
	}

	scope, ok := p.StatsScope()
	if !ok || !scope.All {
		t.Errorf("admin stats scope = %+v, want All", scope)
	}
}

func TestAgentScopedToBook(t *testing.T) {
	engine := newTestEngine()
	p := engine.ForActor(domain.Actor{ID: "agent-1", Role: domain.RoleAgent})
	ctx := context.Background()

	v, err := p.Payment(ctx, ActionRead, &domain.Payment{ClientID: "client-1"})
	if err != nil || !v.Allowed {
		t.Errorf("booked client payment read denied (err=%v)", err)
	}
	v, err = p.Payment(ctx, ActionRead, &domain.Payment{ClientID: "client-2"})
	if err != nil || v.Allowed {
		t.Errorf("foreign client payment read allowed (err=%v)", err)
	}
	v, err = p.Payment(ctx, ActionRead, &domain.Payment{ClientID: "missing"})
	if err != nil || v.Allowed {
		t.Errorf("payment for unknown client allowed (err=%v)", err)
	}

	v, err = p.PaymentPlan(ctx, ActionUpdate, &domain.PaymentPlan{UserID: "owner-1"})
	if err != nil || !v.Allowed {
		t.Errorf("booked owner plan update denied (err=%v)", err)
	}
	v, err = p.PaymentPlan(ctx, ActionDelete, &domain.PaymentPlan{UserID: "owner-1"})
	if err != nil || v.Allowed {
		t.Errorf("agent plan delete allowed (err=%v)", err)
	}

	v, err = p.Client(ctx, ActionUpdate, &domain.Client{ID: "client-1", AgentID: strp("agent-1")})
	if err != nil || v.Allowed {
		t.Errorf("agent client update allowed (err=%v)", err)
	}
}

func TestAgentTicketPoolRule(t *testing.T) {
	engine := newTestEngine()
	p := engine.ForActor(domain.Actor{ID: "agent-1", Role: domain.RoleAgent})
	ctx := context.Background()

	cases := []struct {
		name    string
		agentID *string
		want    bool
	}{
		{"own assignment", strp("agent-1"), true},
		{"unassigned pool", nil, true},
		{"someone else's", strp("agent-2"), false},
	}
	for _, tc := range cases {
		v, err := p.Ticket(ctx, ActionUpdate, &domain.Ticket{ClientID: "owner-1", AssignedAgentID: tc.agentID})
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if v.Allowed != tc.want {
			t.Errorf("%s: allowed = %v, want %v", tc.name, v.Allowed, tc.want)
		}
	}

	scope, ok := p.TicketListScope()
	if !ok || scope.AgentID == nil || *scope.AgentID != "agent-1" || !scope.IncludeUnassigned {
		t.Errorf("agent ticket scope = %+v, want book plus unassigned pool", scope)
	}
}

func TestTechnicianAssignmentOnly(t *testing.T) {
	engine := newTestEngine()
	p := engine.ForActor(domain.Actor{ID: "tech-1", Role: domain.RoleTechnician})
	ctx := context.Background()

	v, err := p.Ticket(ctx, ActionUpdate, &domain.Ticket{AssignedTechID: strp("tech-1")})
	if err != nil || !v.Allowed {
		t.Errorf("assigned ticket update denied (err=%v)", err)
	}
	v, err = p.Ticket(ctx, ActionUpdate, &domain.Ticket{AssignedTechID: strp("tech-2")})
	if err != nil || v.Allowed {
		t.Errorf("foreign ticket update allowed (err=%v)", err)
	}
	v, err = p.Ticket(ctx, ActionDelete, &domain.Ticket{AssignedTechID: strp("tech-1")})
	if err != nil || v.Allowed {
		t.Errorf("technician ticket delete allowed (err=%v)", err)
	}

	v, err = p.Payment(ctx, ActionRead, &domain.Payment{ClientID: "client-1"})
	if err != nil || v.Allowed {
		t.Errorf("technician payment read allowed (err=%v)", err)
	}
	if _, ok := p.PaymentListScope(); ok {
		t.Errorf("technician received a payment list scope")
	}
}

func TestClientTicketFieldRestriction(t *testing.T) {
	engine := newTestEngine()
	p := engine.ForActor(domain.Actor{ID: "owner-1", Role: domain.RoleClient})
	ctx := context.Background()

	v, err := p.Ticket(ctx, ActionUpdate, &domain.Ticket{ClientID: "owner-1", Status: domain.TicketStatusOpen})
	if err != nil {
		t.Fatalf("ticket check: %v", err)
	}
	if !v.Allowed {
		t.Fatalf("own open ticket update denied")
	}
	for _, field := range []string{FieldTitle, FieldDescription, FieldPriority} {
		if !v.FieldAllowed(field) {
			t.Errorf("field %s should be writable", field)
		}
	}
	for _, field := range []string{FieldStatus, FieldAssignedAgent, FieldAssignedTech} {
		if v.FieldAllowed(field) {
			t.Errorf("field %s should be restricted", field)
		}
	}

	v, err = p.Ticket(ctx, ActionUpdate, &domain.Ticket{ClientID: "owner-1", Status: domain.TicketStatusInProgress})
	if err != nil || v.Allowed {
		t.Errorf("update after pickup allowed (err=%v)", err)
	}
	v, err = p.Ticket(ctx, ActionUpdate, &domain.Ticket{ClientID: "owner-2", Status: domain.TicketStatusOpen})
	if err != nil || v.Allowed {
		t.Errorf("foreign ticket update allowed (err=%v)", err)
	}
}

func TestClientReadsHideInternalNotes(t *testing.T) {
	engine := newTestEngine()
	p := engine.ForActor(domain.Actor{ID: "owner-1", Role: domain.RoleClient})
	ctx := context.Background()

	v, err := p.Ticket(ctx, ActionRead, &domain.Ticket{ClientID: "owner-1"})
	if err != nil || !v.Allowed {
		t.Fatalf("own ticket read denied (err=%v)", err)
	}
	if !v.HideInternalNotes {
		t.Errorf("client ticket read does not hide internal notes")
	}

	v, err = p.TicketNote(ctx, &domain.Ticket{ClientID: "owner-1"}, true)
	if err != nil || v.Allowed {
		t.Errorf("client internal note allowed (err=%v)", err)
	}
	v, err = p.TicketNote(ctx, &domain.Ticket{ClientID: "owner-1"}, false)
	if err != nil || !v.Allowed {
		t.Errorf("client public note denied (err=%v)", err)
	}
}

func TestClientFinancialRowsReadOnly(t *testing.T) {
	engine := newTestEngine()
	p := engine.ForActor(domain.Actor{ID: "owner-1", Role: domain.RoleClient})
	ctx := context.Background()

	v, err := p.Payment(ctx, ActionRead, &domain.Payment{ClientID: "client-1"})
	if err != nil || !v.Allowed {
		t.Errorf("own payment read denied (err=%v)", err)
	}
	v, err = p.Payment(ctx, ActionUpdate, &domain.Payment{ClientID: "client-1"})
	if err != nil || v.Allowed {
		t.Errorf("client payment write allowed (err=%v)", err)
	}
	v, err = p.Payment(ctx, ActionRead, &domain.Payment{ClientID: "client-2"})
	if err != nil || v.Allowed {
		t.Errorf("foreign payment read allowed (err=%v)", err)
	}

	v, err = p.PaymentPlan(ctx, ActionRead, &domain.PaymentPlan{UserID: "owner-1"})
	if err != nil || !v.Allowed {
		t.Errorf("own plan read denied (err=%v)", err)
	}
	v, err = p.PaymentPlan(ctx, ActionUpdate, &domain.PaymentPlan{UserID: "owner-1"})
	if err != nil || v.Allowed {
		t.Errorf("client plan write allowed (err=%v)", err)
	}

	if v := p.Finance(ActionRead); v.Allowed {
		t.Errorf("client finance access allowed")
	}
	if _, ok := p.StatsScope(); ok {
		t.Errorf("client received a stats scope")
	}
}

func TestZeroVerdictDenies(t *testing.T) {
	var v Verdict
	if v.Allowed {
		t.Errorf("zero verdict allows")
	}
	if v.FieldAllowed(FieldTitle) {
		t.Errorf("zero verdict permits a field write")
	}
}

func strp(s string) *string { return &s }
