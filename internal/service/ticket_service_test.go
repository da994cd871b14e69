package service

import (
	"context"
	"testing"

	"github.com/spec-kit/backoffice-service/internal/domain"
	"github.com/spec-kit/backoffice-service/internal/policy"
	"github.com/spec-kit/backoffice-service/internal/repository"
)

type ticketFixture struct {
	tickets *stubTicketRepo
	notes   *stubNoteRepo
	clients *stubClientRepo
	svc     *TicketService
}

func newTicketFixture() *ticketFixture {
	tickets := newStubTicketRepo()
	notes := newStubNoteRepo()
	clients := newStubClientRepo()
	svc := NewTicketService(TicketDependencies{
		TicketRepo: tickets,
		NoteRepo:   notes,
		Policies:   policy.NewEngine(clients),
	})
	return &ticketFixture{tickets: tickets, notes: notes, clients: clients, svc: svc}
}

func (f *ticketFixture) seedTicket(t *testing.T, clientUserID string, status domain.TicketStatus, agentID, techID *string) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		ExternalKey:     generateReferenceCode("TKT"),
		ClientID:        clientUserID,
		AssignedAgentID: agentID,
		AssignedTechID:  techID,
		Title:           "Printer on fire",
		Description:     "It started smoking",
		Status:          status,
		Priority:        domain.TicketPriorityMedium,
	}
	if err := f.tickets.Create(context.Background(), ticket); err != nil {
		t.Fatalf("seed ticket: %v", err)
	}
	return ticket
}

func strPtr(s string) *string { return &s }

func TestClientCreateForcesOwnershipAndDropsAssignments(t *testing.T) {
	f := newTicketFixture()
	actor := domain.Actor{ID: "user-7", Role: domain.RoleClient}

	ticket, err := f.svc.CreateTicket(context.Background(), actor, TicketCreateInput{
		ClientID:        "somebody-else",
		Title:           "Help",
		Description:     "Things are broken",
		AssignedAgentID: strPtr("agent-1"),
	})
	if err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	if ticket.ClientID != "user-7" {
		t.Errorf("client id = %s, want the actor's own id", ticket.ClientID)
	}
	if ticket.AssignedAgentID != nil {
		t.Errorf("client-created ticket carries an agent assignment")
	}
	if ticket.Status != domain.TicketStatusOpen {
		t.Errorf("status = %s, want OPEN", ticket.Status)
	}
	if ticket.Priority != domain.TicketPriorityMedium {
		t.Errorf("priority = %s, want the MEDIUM default", ticket.Priority)
	}
}

func TestStaffCreateWithAssignmentStartsAssigned(t *testing.T) {
	f := newTicketFixture()

	ticket, err := f.svc.CreateTicket(context.Background(), adminActor, TicketCreateInput{
		ClientID:        "user-7",
		Title:           "Monitor flickers",
		Description:     "Intermittent on boot",
		AssignedAgentID: strPtr("agent-1"),
	})
	if err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	if ticket.Status != domain.TicketStatusAssigned {
		t.Errorf("status = %s, want ASSIGNED", ticket.Status)
	}
}

func TestClientUpdateDropsRestrictedFields(t *testing.T) {
	f := newTicketFixture()
	actor := domain.Actor{ID: "user-7", Role: domain.RoleClient}
	ticket := f.seedTicket(t, "user-7", domain.TicketStatusOpen, nil, nil)

	closed := domain.TicketStatusClosed
	title := "Updated title"
	updated, err := f.svc.UpdateTicket(context.Background(), actor, ticket.ID, TicketUpdateInput{
		Title:  &title,
		Status: &closed,
	})
	if err != nil {
		t.Fatalf("update ticket: %v", err)
	}
	if updated.Title != "Updated title" {
		t.Errorf("title = %q, want the permitted change applied", updated.Title)
	}
	if updated.Status != domain.TicketStatusOpen {
		t.Errorf("status = %s, want OPEN (status is not client-writable)", updated.Status)
	}

	stored, err := f.tickets.GetByID(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("reload ticket: %v", err)
	}
	if stored.Status != domain.TicketStatusOpen {
		t.Errorf("stored status = %s, want OPEN", stored.Status)
	}
}

func TestClientUpdateWithOnlyRestrictedFieldsIsNoop(t *testing.T) {
	f := newTicketFixture()
	actor := domain.Actor{ID: "user-7", Role: domain.RoleClient}
	ticket := f.seedTicket(t, "user-7", domain.TicketStatusOpen, nil, nil)

	closed := domain.TicketStatusClosed
	updated, err := f.svc.UpdateTicket(context.Background(), actor, ticket.ID, TicketUpdateInput{
		Status:          &closed,
		AssignedAgentID: OptionalString{Set: true, Value: strPtr("agent-1")},
	})
	if err != nil {
		t.Fatalf("update ticket: %v", err)
	}
	if updated.Status != domain.TicketStatusOpen || updated.AssignedAgentID != nil {
		t.Errorf("restricted-only payload changed the ticket: %+v", updated)
	}
}

func TestClientCannotUpdateAfterPickup(t *testing.T) {
	f := newTicketFixture()
	actor := domain.Actor{ID: "user-7", Role: domain.RoleClient}
	ticket := f.seedTicket(t, "user-7", domain.TicketStatusInProgress, strPtr("agent-1"), nil)

	title := "New title"
	_, err := f.svc.UpdateTicket(context.Background(), actor, ticket.ID, TicketUpdateInput{Title: &title})
	if code := domainCode(t, err); code != "FORBIDDEN" {
		t.Errorf("error code = %s, want FORBIDDEN", code)
	}
}

func TestAgentUpdateOnForeignAssignmentDenied(t *testing.T) {
	f := newTicketFixture()
	ticket := f.seedTicket(t, "user-7", domain.TicketStatusAssigned, strPtr("agent-2"), nil)

	status := domain.TicketStatusInProgress
	_, err := f.svc.UpdateTicket(context.Background(), domain.Actor{ID: "agent-1", Role: domain.RoleAgent}, ticket.ID, TicketUpdateInput{
		Status: &status,
	})
	if code := domainCode(t, err); code != "FORBIDDEN" {
		t.Errorf("error code = %s, want FORBIDDEN", code)
	}
}

func TestAgentCanClaimUnassignedTicket(t *testing.T) {
	f := newTicketFixture()
	ticket := f.seedTicket(t, "user-7", domain.TicketStatusOpen, nil, nil)

	updated, err := f.svc.UpdateTicket(context.Background(), domain.Actor{ID: "agent-1", Role: domain.RoleAgent}, ticket.ID, TicketUpdateInput{
		AssignedAgentID: OptionalString{Set: true, Value: strPtr("agent-1")},
	})
	if err != nil {
		t.Fatalf("update ticket: %v", err)
	}
	if updated.AssignedAgentID == nil || *updated.AssignedAgentID != "agent-1" {
		t.Errorf("assignment not applied: %+v", updated.AssignedAgentID)
	}
}

func TestGetTicketHidesInternalNotesFromClient(t *testing.T) {
	f := newTicketFixture()
	ticket := f.seedTicket(t, "user-7", domain.TicketStatusOpen, nil, nil)

	if _, err := f.svc.AddNote(context.Background(), adminActor, ticket.ID, "internal triage note", true); err != nil {
		t.Fatalf("add internal note: %v", err)
	}
	if _, err := f.svc.AddNote(context.Background(), adminActor, ticket.ID, "we are on it", false); err != nil {
		t.Fatalf("add public note: %v", err)
	}

	detail, err := f.svc.GetTicket(context.Background(), domain.Actor{ID: "user-7", Role: domain.RoleClient}, ticket.ID)
	if err != nil {
		t.Fatalf("client get ticket: %v", err)
	}
	if len(detail.Notes) != 1 || detail.Notes[0].IsInternal {
		t.Errorf("client sees %d notes, want only the public one", len(detail.Notes))
	}

	staffDetail, err := f.svc.GetTicket(context.Background(), adminActor, ticket.ID)
	if err != nil {
		t.Fatalf("admin get ticket: %v", err)
	}
	if len(staffDetail.Notes) != 2 {
		t.Errorf("admin sees %d notes, want 2", len(staffDetail.Notes))
	}
}

func TestClientCannotWriteInternalNote(t *testing.T) {
	f := newTicketFixture()
	ticket := f.seedTicket(t, "user-7", domain.TicketStatusOpen, nil, nil)

	_, err := f.svc.AddNote(context.Background(), domain.Actor{ID: "user-7", Role: domain.RoleClient}, ticket.ID, "sneaky", true)
	if code := domainCode(t, err); code != "FORBIDDEN" {
		t.Errorf("error code = %s, want FORBIDDEN", code)
	}
}

func TestListTicketsScopesByActor(t *testing.T) {
	f := newTicketFixture()
	f.seedTicket(t, "user-7", domain.TicketStatusOpen, nil, nil)
	f.seedTicket(t, "user-8", domain.TicketStatusAssigned, strPtr("agent-1"), nil)
	f.seedTicket(t, "user-9", domain.TicketStatusInProgress, strPtr("agent-2"), strPtr("tech-1"))

	all, err := f.svc.ListTickets(context.Background(), adminActor, repository.TicketFilter{})
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("admin sees %d tickets, want 3", len(all))
	}

	pool, err := f.svc.ListTickets(context.Background(), domain.Actor{ID: "agent-1", Role: domain.RoleAgent}, repository.TicketFilter{})
	if err != nil {
		t.Fatalf("agent list: %v", err)
	}
	// own assignment plus the unassigned pool
	if len(pool) != 2 {
		t.Errorf("agent sees %d tickets, want 2", len(pool))
	}

	assigned, err := f.svc.ListTickets(context.Background(), domain.Actor{ID: "tech-1", Role: domain.RoleTechnician}, repository.TicketFilter{})
	if err != nil {
		t.Fatalf("tech list: %v", err)
	}
	if len(assigned) != 1 || assigned[0].AssignedTechID == nil || *assigned[0].AssignedTechID != "tech-1" {
		t.Errorf("technician sees %d tickets, want only the assignment", len(assigned))
	}

	own, err := f.svc.ListTickets(context.Background(), domain.Actor{ID: "user-7", Role: domain.RoleClient}, repository.TicketFilter{})
	if err != nil {
		t.Fatalf("client list: %v", err)
	}
	if len(own) != 1 || own[0].ClientID != "user-7" {
		t.Errorf("client sees %d tickets, want only their own", len(own))
	}
}

func TestTechnicianCannotDeleteTicket(t *testing.T) {
	f := newTicketFixture()
	ticket := f.seedTicket(t, "user-7", domain.TicketStatusInProgress, nil, strPtr("tech-1"))

	err := f.svc.DeleteTicket(context.Background(), domain.Actor{ID: "tech-1", Role: domain.RoleTechnician}, ticket.ID)
	if code := domainCode(t, err); code != "FORBIDDEN" {
		t.Errorf("error code = %s, want FORBIDDEN", code)
	}
}

func TestUpdateMissingTicketIsNotFound(t *testing.T) {
	f := newTicketFixture()

	title := "anything"
	_, err := f.svc.UpdateTicket(context.Background(), adminActor, "nope", TicketUpdateInput{Title: &title})
	if code := domainCode(t, err); code != "NOT_FOUND" {
		t.Errorf("error code = %s, want NOT_FOUND", code)
	}
}
