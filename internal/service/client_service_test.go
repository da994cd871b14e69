package service

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/backoffice-service/internal/domain"
	"github.com/spec-kit/backoffice-service/internal/policy"
	"github.com/spec-kit/backoffice-service/internal/repository"
)

type clientFixture struct {
	clients  *stubClientRepo
	users    *stubUserRepo
	subs     *stubSubscriptionRepo
	tickets  *stubTicketRepo
	notes    *stubNoteRepo
	payments *stubPaymentRepo
	svc      *ClientService
}

func newClientFixture() *clientFixture {
	clients := newStubClientRepo()
	users := newStubUserRepo()
	subs := newStubSubscriptionRepo()
	tickets := newStubTicketRepo()
	notes := newStubNoteRepo()
	payments := newStubPaymentRepo()
	svc := NewClientService(ClientDependencies{
		ClientRepo:       clients,
		UserRepo:         users,
		SubscriptionRepo: subs,
		TicketRepo:       tickets,
		NoteRepo:         notes,
		PaymentRepo:      payments,
		Tx:               &stubTx{},
		Policies:         policy.NewEngine(clients),
		BcryptCost:       bcrypt.MinCost,
	})
	return &clientFixture{clients: clients, users: users, subs: subs, tickets: tickets, notes: notes, payments: payments, svc: svc}
}

func (f *clientFixture) seedAgent(t *testing.T) *domain.User {
	t.Helper()
	agent := &domain.User{Name: "Agent", Email: "agent@example.test", Role: domain.RoleAgent, Status: domain.UserStatusActive}
	if err := f.users.Create(context.Background(), agent); err != nil {
		t.Fatalf("seed agent: %v", err)
	}
	return agent
}

func TestCreateClientProvisionsOwnerAccount(t *testing.T) {
	f := newClientFixture()
	agent := f.seedAgent(t)

	detail, err := f.svc.CreateClient(context.Background(), adminActor, ClientCreateInput{
		Name:    "Acme Corp",
		Email:   "Billing@Acme.Test",
		AgentID: &agent.ID,
	})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	if detail.Owner == nil || detail.Owner.Role != domain.RoleClient {
		t.Fatalf("owner account missing or wrong role: %+v", detail.Owner)
	}
	if detail.Client.OwnerUserID != detail.Owner.ID {
		t.Errorf("client owner = %s, want %s", detail.Client.OwnerUserID, detail.Owner.ID)
	}
	if detail.Client.Email != "billing@acme.test" {
		t.Errorf("email = %s, want lowercased", detail.Client.Email)
	}
	if detail.Client.Status != domain.ClientStatusActive {
		t.Errorf("status = %s, want the ACTIVE default", detail.Client.Status)
	}
	if detail.Owner.PasswordHash == "" {
		t.Errorf("owner account has no password hash")
	}
}

func TestCreateClientRejectsNonAgentAssignment(t *testing.T) {
	f := newClientFixture()
	tech := &domain.User{Name: "Tech", Email: "tech@example.test", Role: domain.RoleTechnician, Status: domain.UserStatusActive}
	if err := f.users.Create(context.Background(), tech); err != nil {
		t.Fatalf("seed tech: %v", err)
	}

	_, err := f.svc.CreateClient(context.Background(), adminActor, ClientCreateInput{
		Name:    "Acme Corp",
		Email:   "billing@acme.test",
		AgentID: &tech.ID,
	})
	if code := domainCode(t, err); code != "INVARIANT_VIOLATION" {
		t.Errorf("error code = %s, want INVARIANT_VIOLATION", code)
	}
}

func TestCreateClientDuplicateEmailConflicts(t *testing.T) {
	f := newClientFixture()

	if _, err := f.svc.CreateClient(context.Background(), adminActor, ClientCreateInput{
		Name: "Acme Corp", Email: "billing@acme.test",
	}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := f.svc.CreateClient(context.Background(), adminActor, ClientCreateInput{
		Name: "Acme Again", Email: "billing@acme.test",
	})
	if code := domainCode(t, err); code != "CONFLICT" {
		t.Errorf("error code = %s, want CONFLICT", code)
	}
}

func TestAgentCannotCreateClient(t *testing.T) {
	f := newClientFixture()

	_, err := f.svc.CreateClient(context.Background(), domain.Actor{ID: "agent-1", Role: domain.RoleAgent}, ClientCreateInput{
		Name: "Acme Corp", Email: "billing@acme.test",
	})
	if code := domainCode(t, err); code != "FORBIDDEN" {
		t.Errorf("error code = %s, want FORBIDDEN", code)
	}
}

func TestGetClientDetailFiltersByRole(t *testing.T) {
	f := newClientFixture()
	detail, err := f.svc.CreateClient(context.Background(), adminActor, ClientCreateInput{
		Name: "Acme Corp", Email: "billing@acme.test",
	})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	ownerID := detail.Owner.ID

	ticket := &domain.Ticket{
		ExternalKey: generateReferenceCode("TKT"),
		ClientID:    ownerID,
		Title:       "Broken",
		Description: "Very broken",
		Status:      domain.TicketStatusOpen,
		Priority:    domain.TicketPriorityMedium,
	}
	if err := f.tickets.Create(context.Background(), ticket); err != nil {
		t.Fatalf("seed ticket: %v", err)
	}
	author := adminActor.ID
	for _, note := range []domain.TicketNote{
		{TicketID: ticket.ID, AuthorID: &author, Content: "internal", IsInternal: true},
		{TicketID: ticket.ID, AuthorID: &author, Content: "public"},
	} {
		n := note
		if err := f.notes.Create(context.Background(), &n); err != nil {
			t.Fatalf("seed note: %v", err)
		}
	}
	payment := &domain.Payment{
		ReceiptKey:  generateReferenceCode("PAY"),
		ClientID:    detail.Client.ID,
		Amount:      100,
		Type:        domain.PaymentTypeSubscription,
		Status:      domain.PaymentStatusCompleted,
		PaymentDate: fixedNow,
	}
	if err := f.payments.Create(context.Background(), payment); err != nil {
		t.Fatalf("seed payment: %v", err)
	}

	staffView, err := f.svc.GetClient(context.Background(), adminActor, detail.Client.ID)
	if err != nil {
		t.Fatalf("staff get: %v", err)
	}
	if len(staffView.Payments) != 1 {
		t.Errorf("staff sees %d payments, want 1", len(staffView.Payments))
	}
	if len(staffView.Tickets) != 1 || len(staffView.Tickets[0].Notes) != 2 {
		t.Errorf("staff ticket view incomplete: %+v", staffView.Tickets)
	}

	ownView, err := f.svc.GetOwnClient(context.Background(), domain.Actor{ID: ownerID, Role: domain.RoleClient})
	if err != nil {
		t.Fatalf("own get: %v", err)
	}
	if len(ownView.Payments) != 0 {
		t.Errorf("client sees %d payments in detail view, want none", len(ownView.Payments))
	}
	if len(ownView.Tickets) != 1 || len(ownView.Tickets[0].Notes) != 1 {
		t.Errorf("client should see only the public note: %+v", ownView.Tickets)
	}

	_, err = f.svc.GetClient(context.Background(), domain.Actor{ID: "someone-else", Role: domain.RoleClient}, detail.Client.ID)
	if code := domainCode(t, err); code != "FORBIDDEN" {
		t.Errorf("error code = %s, want FORBIDDEN", code)
	}
}

func TestUpdateClientPropagatesIdentityToOwner(t *testing.T) {
	f := newClientFixture()
	detail, err := f.svc.CreateClient(context.Background(), adminActor, ClientCreateInput{
		Name: "Acme Corp", Email: "billing@acme.test",
	})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}

	name := "Acme International"
	email := "accounts@acme.test"
	if _, err := f.svc.UpdateClient(context.Background(), adminActor, detail.Client.ID, ClientUpdateInput{
		Name:  &name,
		Email: &email,
	}); err != nil {
		t.Fatalf("update client: %v", err)
	}

	owner, err := f.users.GetByID(context.Background(), detail.Owner.ID)
	if err != nil {
		t.Fatalf("reload owner: %v", err)
	}
	if owner.Name != "Acme International" || owner.Email != "accounts@acme.test" {
		t.Errorf("owner identity not synced: %s / %s", owner.Name, owner.Email)
	}
}

func TestUpdateClientCanUnassignAgent(t *testing.T) {
	f := newClientFixture()
	agent := f.seedAgent(t)
	detail, err := f.svc.CreateClient(context.Background(), adminActor, ClientCreateInput{
		Name: "Acme Corp", Email: "billing@acme.test", AgentID: &agent.ID,
	})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}

	updated, err := f.svc.UpdateClient(context.Background(), adminActor, detail.Client.ID, ClientUpdateInput{
		AgentID: OptionalString{Set: true, Value: nil},
	})
	if err != nil {
		t.Fatalf("update client: %v", err)
	}
	if updated.AgentID != nil {
		t.Errorf("agent assignment not cleared: %v", *updated.AgentID)
	}
}

func TestDeleteClientRemovesOwnerAccount(t *testing.T) {
	f := newClientFixture()
	detail, err := f.svc.CreateClient(context.Background(), adminActor, ClientCreateInput{
		Name: "Acme Corp", Email: "billing@acme.test",
	})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}

	if err := f.svc.DeleteClient(context.Background(), adminActor, detail.Client.ID); err != nil {
		t.Fatalf("delete client: %v", err)
	}
	if _, err := f.clients.GetByID(context.Background(), detail.Client.ID); err == nil {
		t.Errorf("client row still present")
	}
	if _, err := f.users.GetByID(context.Background(), detail.Owner.ID); err == nil {
		t.Errorf("owner account still present")
	}
}

func TestListClientsScopesByActor(t *testing.T) {
	f := newClientFixture()
	agent := f.seedAgent(t)
	booked, err := f.svc.CreateClient(context.Background(), adminActor, ClientCreateInput{
		Name: "Booked", Email: "booked@x.test", AgentID: &agent.ID,
	})
	if err != nil {
		t.Fatalf("create booked client: %v", err)
	}
	if _, err := f.svc.CreateClient(context.Background(), adminActor, ClientCreateInput{
		Name: "Loose", Email: "loose@x.test",
	}); err != nil {
		t.Fatalf("create loose client: %v", err)
	}

	all, err := f.svc.ListClients(context.Background(), adminActor, repository.ClientFilter{})
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("admin sees %d clients, want 2", len(all))
	}

	mine, err := f.svc.ListClients(context.Background(), domain.Actor{ID: agent.ID, Role: domain.RoleAgent}, repository.ClientFilter{})
	if err != nil {
		t.Fatalf("agent list: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != booked.Client.ID {
		t.Errorf("agent sees %d clients, want only the booked one", len(mine))
	}

	_, err = f.svc.ListClients(context.Background(), domain.Actor{ID: "tech-1", Role: domain.RoleTechnician}, repository.ClientFilter{})
	if code := domainCode(t, err); code != "FORBIDDEN" {
		t.Errorf("error code = %s, want FORBIDDEN", code)
	}
}
