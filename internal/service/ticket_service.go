package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/spec-kit/backoffice-service/internal/domain"
	"github.com/spec-kit/backoffice-service/internal/events"
	"github.com/spec-kit/backoffice-service/internal/policy"
	"github.com/spec-kit/backoffice-service/internal/repository"
	apperrors "github.com/spec-kit/backoffice-service/pkg/util"
)

// TicketService coordinates support ticket workflows under the access
// policy. Field-restricted writes are filtered here: disallowed fields
// are dropped silently, never rejected, so a mixed payload applies its
// permitted subset.
type TicketService struct {
	tickets    repository.TicketRepository
	notes      repository.TicketNoteRepository
	policies   *policy.Engine
	dispatcher events.Dispatcher
}

// TicketDependencies bundles the collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	NoteRepo   repository.TicketNoteRepository
	Policies   *policy.Engine
	Dispatcher events.Dispatcher
}

// NewTicketService instantiates the ticket service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		notes:      deps.NoteRepo,
		policies:   deps.Policies,
		dispatcher: deps.Dispatcher,
	}
}

// OptionalString distinguishes "absent" from "explicitly null" for
// nullable assignment fields.
type OptionalString struct {
	Set   bool
	Value *string
}

// TicketCreateInput describes a new ticket. ClientID is ignored for
// client actors, whose tickets always belong to themselves.
type TicketCreateInput struct {
	ClientID        string
	Title           string
	Description     string
	Priority        domain.TicketPriority
	AssignedAgentID *string
	AssignedTechID  *string
}

// TicketUpdateInput carries the mutable ticket fields.
type TicketUpdateInput struct {
	Title           *string
	Description     *string
	Priority        *domain.TicketPriority
	Status          *domain.TicketStatus
	AssignedAgentID OptionalString
	AssignedTechID  OptionalString
}

// TicketDetail pairs a ticket with its visible notes.
type TicketDetail struct {
	Ticket domain.Ticket
	Notes  []domain.TicketNote
}

func validTicketStatus(s domain.TicketStatus) bool {
	switch s {
	case domain.TicketStatusOpen, domain.TicketStatusAssigned, domain.TicketStatusInProgress,
		domain.TicketStatusWaitingClient, domain.TicketStatusResolved, domain.TicketStatusClosed:
		return true
	}
	return false
}

func validTicketPriority(p domain.TicketPriority) bool {
	switch p {
	case domain.TicketPriorityLow, domain.TicketPriorityMedium,
		domain.TicketPriorityHigh, domain.TicketPriorityUrgent:
		return true
	}
	return false
}

// CreateTicket opens a ticket. Client actors always file for themselves
// and cannot pre-assign staff; staff actors choose the client and may
// assign on creation, which starts the ticket in ASSIGNED.
func (s *TicketService) CreateTicket(ctx context.Context, actor domain.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	if actor.Role == domain.RoleClient {
		input.ClientID = actor.ID
		input.AssignedAgentID = nil
		input.AssignedTechID = nil
	}

	fieldErrors := map[string]any{}
	if input.ClientID == "" {
		fieldErrors["client_id"] = "client_id is required"
	}
	if strings.TrimSpace(input.Title) == "" {
		fieldErrors["title"] = "title is required"
	}
	if strings.TrimSpace(input.Description) == "" {
		fieldErrors["description"] = "description is required"
	}
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityMedium
	}
	if !validTicketPriority(input.Priority) {
		fieldErrors["priority"] = fmt.Sprintf("unknown priority %q", input.Priority)
	}
	if len(fieldErrors) > 0 {
		return nil, apperrors.NewValidationError("invalid ticket payload", fieldErrors)
	}

	status := domain.TicketStatusOpen
	if input.AssignedAgentID != nil || input.AssignedTechID != nil {
		status = domain.TicketStatusAssigned
	}
	ticket := &domain.Ticket{
		ExternalKey:     generateReferenceCode("TKT"),
		ClientID:        input.ClientID,
		AssignedAgentID: input.AssignedAgentID,
		AssignedTechID:  input.AssignedTechID,
		Title:           strings.TrimSpace(input.Title),
		Description:     input.Description,
		Status:          status,
		Priority:        input.Priority,
	}
	if _, err := requireVerdict(s.policies.ForActor(actor).Ticket(ctx, policy.ActionCreate, ticket)); err != nil {
		return nil, err
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventTicketCreated,
		Subject: ticket.ID,
		Actor:   actorEvent(actor),
		Payload: events.TicketCreatedPayload{
			ClientID: ticket.ClientID,
			Priority: ticket.Priority,
			Title:    ticket.Title,
		},
	})
	return ticket, nil
}

// GetTicket loads a ticket and its notes. Internal notes are filtered at
// the query level when the actor's verdict hides them.
func (s *TicketService) GetTicket(ctx context.Context, actor domain.Actor, id string) (*TicketDetail, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "ticket")
	}
	verdict, err := requireVerdict(s.policies.ForActor(actor).Ticket(ctx, policy.ActionRead, ticket))
	if err != nil {
		return nil, err
	}
	notes, err := s.notes.ListByTicket(ctx, ticket.ID, !verdict.HideInternalNotes)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &TicketDetail{Ticket: *ticket, Notes: notes}, nil
}

// ListTickets returns tickets narrowed to the actor's visibility. Agents
// see their assignments plus the unassigned pool; technicians only their
// assignments; clients only their own tickets.
func (s *TicketService) ListTickets(ctx context.Context, actor domain.Actor, filter repository.TicketFilter) ([]domain.Ticket, error) {
	scope, ok := s.policies.ForActor(actor).TicketListScope()
	if !ok {
		return nil, forbidden()
	}
	switch {
	case scope.All:
	case scope.AgentID != nil:
		filter.AgentID = scope.AgentID
		filter.IncludeUnassigned = scope.IncludeUnassigned
		filter.ClientID = nil
		filter.TechID = nil
	case scope.TechID != nil:
		filter.TechID = scope.TechID
		filter.ClientID = nil
		filter.AgentID = nil
		filter.IncludeUnassigned = false
	case scope.SelfUserID != nil:
		filter.ClientID = scope.SelfUserID
		filter.AgentID = nil
		filter.TechID = nil
		filter.IncludeUnassigned = false
	default:
		return nil, forbidden()
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// UpdateTicket applies the permitted subset of the payload. Fields the
// actor's verdict excludes are dropped without error; if nothing
// permitted remains the write is a no-op that still returns the ticket.
func (s *TicketService) UpdateTicket(ctx context.Context, actor domain.Actor, id string, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "ticket")
	}
	verdict, err := requireVerdict(s.policies.ForActor(actor).Ticket(ctx, policy.ActionUpdate, ticket))
	if err != nil {
		return nil, err
	}

	fieldErrors := map[string]any{}
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		fieldErrors["title"] = "title cannot be empty"
	}
	if input.Priority != nil && !validTicketPriority(*input.Priority) {
		fieldErrors["priority"] = fmt.Sprintf("unknown priority %q", *input.Priority)
	}
	if input.Status != nil && !validTicketStatus(*input.Status) {
		fieldErrors["status"] = fmt.Sprintf("unknown status %q", *input.Status)
	}
	if len(fieldErrors) > 0 {
		return nil, apperrors.NewValidationError("invalid ticket payload", fieldErrors)
	}

	oldStatus := ticket.Status
	var applied []string
	if input.Title != nil && verdict.FieldAllowed(policy.FieldTitle) {
		ticket.Title = strings.TrimSpace(*input.Title)
		applied = append(applied, policy.FieldTitle)
	}
	if input.Description != nil && verdict.FieldAllowed(policy.FieldDescription) {
		ticket.Description = *input.Description
		applied = append(applied, policy.FieldDescription)
	}
	if input.Priority != nil && verdict.FieldAllowed(policy.FieldPriority) {
		ticket.Priority = *input.Priority
		applied = append(applied, policy.FieldPriority)
	}
	if input.Status != nil && verdict.FieldAllowed(policy.FieldStatus) {
		ticket.Status = *input.Status
		applied = append(applied, policy.FieldStatus)
	}
	if input.AssignedAgentID.Set && verdict.FieldAllowed(policy.FieldAssignedAgent) {
		ticket.AssignedAgentID = input.AssignedAgentID.Value
		applied = append(applied, policy.FieldAssignedAgent)
	}
	if input.AssignedTechID.Set && verdict.FieldAllowed(policy.FieldAssignedTech) {
		ticket.AssignedTechID = input.AssignedTechID.Value
		applied = append(applied, policy.FieldAssignedTech)
	}
	if len(applied) == 0 {
		return ticket, nil
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventTicketUpdated,
		Subject: ticket.ID,
		Actor:   actorEvent(actor),
		Payload: events.TicketUpdatedPayload{
			OldStatus: oldStatus,
			NewStatus: ticket.Status,
			Fields:    applied,
		},
	})
	return ticket, nil
}

// DeleteTicket removes a ticket.
func (s *TicketService) DeleteTicket(ctx context.Context, actor domain.Actor, id string) error {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "ticket")
	}
	if _, err := requireVerdict(s.policies.ForActor(actor).Ticket(ctx, policy.ActionDelete, ticket)); err != nil {
		return err
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// AddNote appends a note to a ticket and bumps its updated_at. Clients
// can never write internal notes.
func (s *TicketService) AddNote(ctx context.Context, actor domain.Actor, ticketID, content string, isInternal bool) (*domain.TicketNote, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket")
	}
	if _, err := requireVerdict(s.policies.ForActor(actor).TicketNote(ctx, ticket, isInternal)); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.NewValidationError("invalid note payload", map[string]any{
			"content": "content is required",
		})
	}
	authorID := actor.ID
	note := &domain.TicketNote{
		TicketID:   ticket.ID,
		AuthorID:   &authorID,
		Content:    content,
		IsInternal: isInternal,
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.tickets.Touch(ctx, ticket.ID); err != nil {
		return nil, apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventTicketNoteAdded,
		Subject: ticket.ID,
		Actor:   actorEvent(actor),
		Payload: events.TicketNoteAddedPayload{
			NoteID:     note.ID,
			IsInternal: note.IsInternal,
			Preview:    stringPreview(note.Content, 80),
		},
	})
	return note, nil
}

// ListNotes returns the notes the actor may see on the ticket.
func (s *TicketService) ListNotes(ctx context.Context, actor domain.Actor, ticketID string) ([]domain.TicketNote, error) {
	detail, err := s.GetTicket(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	return detail.Notes, nil
}
