package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/spec-kit/backoffice-service/internal/auth"
	"github.com/spec-kit/backoffice-service/internal/domain"
	"github.com/spec-kit/backoffice-service/internal/events"
	"github.com/spec-kit/backoffice-service/internal/policy"
	"github.com/spec-kit/backoffice-service/internal/repository"
	apperrors "github.com/spec-kit/backoffice-service/pkg/util"
)

// ClientService manages client records and the user accounts that own
// them.
type ClientService struct {
	clients       repository.ClientRepository
	users         repository.UserRepository
	subscriptions repository.SubscriptionRepository
	tickets       repository.TicketRepository
	notes         repository.TicketNoteRepository
	payments      repository.PaymentRepository
	tx            repository.TxRunner
	policies      *policy.Engine
	dispatcher    events.Dispatcher
	bcryptCost    int
}

// ClientDependencies bundles the collaborators for the client service.
type ClientDependencies struct {
	ClientRepo       repository.ClientRepository
	UserRepo         repository.UserRepository
	SubscriptionRepo repository.SubscriptionRepository
	TicketRepo       repository.TicketRepository
	NoteRepo         repository.TicketNoteRepository
	PaymentRepo      repository.PaymentRepository
	Tx               repository.TxRunner
	Policies         *policy.Engine
	Dispatcher       events.Dispatcher
	BcryptCost       int
}

// NewClientService instantiates the client service.
func NewClientService(deps ClientDependencies) *ClientService {
	return &ClientService{
		clients:       deps.ClientRepo,
		users:         deps.UserRepo,
		subscriptions: deps.SubscriptionRepo,
		tickets:       deps.TicketRepo,
		notes:         deps.NoteRepo,
		payments:      deps.PaymentRepo,
		tx:            deps.Tx,
		policies:      deps.Policies,
		dispatcher:    deps.Dispatcher,
		bcryptCost:    deps.BcryptCost,
	}
}

// ClientCreateInput describes a new client and its owning user account.
type ClientCreateInput struct {
	Name     string
	Email    string
	Password string
	AgentID  *string
	Status   domain.ClientStatus
}

// ClientUpdateInput carries the mutable client fields.
type ClientUpdateInput struct {
	Name    *string
	Email   *string
	Status  *domain.ClientStatus
	AgentID OptionalString
}

// ClientDetail is the enriched client view. Collections are populated
// according to who is asking: clients see their subscriptions and
// tickets (internal notes removed), staff additionally see payments.
type ClientDetail struct {
	Client        domain.Client
	Owner         *domain.User
	Subscriptions []domain.Subscription
	Tickets       []TicketDetail
	Payments      []domain.Payment
}

func validClientStatus(s domain.ClientStatus) bool {
	switch s {
	case domain.ClientStatusActive, domain.ClientStatusInactive,
		domain.ClientStatusDelinquent, domain.ClientStatusCancelled:
		return true
	}
	return false
}

// CreateClient provisions the owning user account and the client row in
// one transaction. When no password is supplied the account gets an
// unguessable placeholder and must go through password reset to log in.
func (s *ClientService) CreateClient(ctx context.Context, actor domain.Actor, input ClientCreateInput) (*ClientDetail, error) {
	fieldErrors := map[string]any{}
	if strings.TrimSpace(input.Name) == "" {
		fieldErrors["name"] = "name is required"
	}
	if !strings.Contains(input.Email, "@") {
		fieldErrors["email"] = "a valid email is required"
	}
	if input.Status == "" {
		input.Status = domain.ClientStatusActive
	}
	if !validClientStatus(input.Status) {
		fieldErrors["status"] = fmt.Sprintf("unknown client status %q", input.Status)
	}
	if len(fieldErrors) > 0 {
		return nil, apperrors.NewValidationError("invalid client payload", fieldErrors)
	}

	if _, err := requireVerdict(s.policies.ForActor(actor).Client(ctx, policy.ActionCreate, &domain.Client{})); err != nil {
		return nil, err
	}
	if input.AgentID != nil {
		agent, err := s.users.GetByID(ctx, *input.AgentID)
		if err != nil {
			return nil, notFoundOr(err, "agent")
		}
		if agent.Role != domain.RoleAgent {
			return nil, apperrors.NewInvariantViolation("assigned user is not an agent", map[string]any{
				"agent_id": agent.ID,
			})
		}
	}
	if existing, err := s.users.GetByEmail(ctx, input.Email); err == nil && existing != nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": input.Email})
	}

	password := input.Password
	if password == "" {
		password = uuid.NewString()
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	owner := &domain.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.ToLower(input.Email),
		PasswordHash: hash,
		Role:         domain.RoleClient,
		Status:       domain.UserStatusActive,
	}
	client := &domain.Client{
		ReferenceCode: generateReferenceCode("CLI"),
		AgentID:       input.AgentID,
		Name:          owner.Name,
		Email:         owner.Email,
		Status:        input.Status,
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, owner); err != nil {
			return err
		}
		client.OwnerUserID = owner.ID
		return s.clients.Create(ctx, client)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventClientCreated,
		Subject: client.ID,
		Actor:   actorEvent(actor),
		Payload: events.ClientCreatedPayload{
			ClientID:      client.ID,
			ReferenceCode: client.ReferenceCode,
			AgentID:       client.AgentID,
		},
	})
	return &ClientDetail{Client: *client, Owner: owner}, nil
}

// GetClient loads the enriched view of one client.
func (s *ClientService) GetClient(ctx context.Context, actor domain.Actor, id string) (*ClientDetail, error) {
	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "client")
	}
	verdict, err := requireVerdict(s.policies.ForActor(actor).Client(ctx, policy.ActionRead, client))
	if err != nil {
		return nil, err
	}
	return s.buildDetail(ctx, actor, client, verdict)
}

// GetOwnClient resolves the calling client account to its enriched view.
func (s *ClientService) GetOwnClient(ctx context.Context, actor domain.Actor) (*ClientDetail, error) {
	client, err := s.clients.GetByOwnerUserID(ctx, actor.ID)
	if err != nil {
		return nil, notFoundOr(err, "client")
	}
	verdict, err := requireVerdict(s.policies.ForActor(actor).Client(ctx, policy.ActionRead, client))
	if err != nil {
		return nil, err
	}
	return s.buildDetail(ctx, actor, client, verdict)
}

func (s *ClientService) buildDetail(ctx context.Context, actor domain.Actor, client *domain.Client, verdict policy.Verdict) (*ClientDetail, error) {
	detail := &ClientDetail{Client: *client}

	owner, err := s.users.GetByID(ctx, client.OwnerUserID)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	detail.Owner = owner

	subs, err := s.subscriptions.ListWithFilter(ctx, repository.SubscriptionFilter{UserID: &client.OwnerUserID})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	detail.Subscriptions = subs

	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{ClientID: &client.OwnerUserID})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	detail.Tickets = make([]TicketDetail, 0, len(tickets))
	for _, t := range tickets {
		notes, err := s.notes.ListByTicket(ctx, t.ID, !verdict.HideInternalNotes)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		detail.Tickets = append(detail.Tickets, TicketDetail{Ticket: t, Notes: notes})
	}

	if actor.Role.Staff() {
		payments, err := s.payments.ListWithFilter(ctx, repository.PaymentFilter{ClientID: &client.ID})
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		detail.Payments = payments
	}
	return detail, nil
}

// ListClients returns clients narrowed to the actor's visibility.
func (s *ClientService) ListClients(ctx context.Context, actor domain.Actor, filter repository.ClientFilter) ([]domain.Client, error) {
	scope, ok := s.policies.ForActor(actor).ClientListScope()
	if !ok {
		return nil, forbidden()
	}
	switch {
	case scope.All:
	case scope.AgentID != nil:
		filter.AgentID = scope.AgentID
		filter.OwnerUserID = nil
	case scope.SelfUserID != nil:
		filter.OwnerUserID = scope.SelfUserID
		filter.AgentID = nil
	default:
		return nil, forbidden()
	}
	clients, err := s.clients.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return clients, nil
}

// UpdateClient edits a client record. Name and email changes propagate to
// the owning user account so login identity stays in sync.
func (s *ClientService) UpdateClient(ctx context.Context, actor domain.Actor, id string, input ClientUpdateInput) (*domain.Client, error) {
	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "client")
	}
	if _, err := requireVerdict(s.policies.ForActor(actor).Client(ctx, policy.ActionUpdate, client)); err != nil {
		return nil, err
	}

	fieldErrors := map[string]any{}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		fieldErrors["name"] = "name cannot be empty"
	}
	if input.Email != nil && !strings.Contains(*input.Email, "@") {
		fieldErrors["email"] = "a valid email is required"
	}
	if input.Status != nil && !validClientStatus(*input.Status) {
		fieldErrors["status"] = fmt.Sprintf("unknown client status %q", *input.Status)
	}
	if len(fieldErrors) > 0 {
		return nil, apperrors.NewValidationError("invalid client payload", fieldErrors)
	}
	if input.AgentID.Set && input.AgentID.Value != nil {
		agent, err := s.users.GetByID(ctx, *input.AgentID.Value)
		if err != nil {
			return nil, notFoundOr(err, "agent")
		}
		if agent.Role != domain.RoleAgent {
			return nil, apperrors.NewInvariantViolation("assigned user is not an agent", map[string]any{
				"agent_id": agent.ID,
			})
		}
	}

	if input.Name != nil {
		client.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		client.Email = strings.ToLower(*input.Email)
	}
	if input.Status != nil {
		client.Status = *input.Status
	}
	if input.AgentID.Set {
		client.AgentID = input.AgentID.Value
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.clients.Update(ctx, client); err != nil {
			return err
		}
		if input.Name == nil && input.Email == nil {
			return nil
		}
		owner, err := s.users.GetByID(ctx, client.OwnerUserID)
		if err != nil {
			return err
		}
		owner.Name = client.Name
		owner.Email = client.Email
		return s.users.Update(ctx, owner)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return client, nil
}

// DeleteClient removes the client row and its owning user account.
func (s *ClientService) DeleteClient(ctx context.Context, actor domain.Actor, id string) error {
	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "client")
	}
	if _, err := requireVerdict(s.policies.ForActor(actor).Client(ctx, policy.ActionDelete, client)); err != nil {
		return err
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.clients.Delete(ctx, client.ID); err != nil {
			return err
		}
		return s.users.Delete(ctx, client.OwnerUserID)
	})
	if err != nil {
		return apperrors.MapError(err)
	}
	return nil
}
