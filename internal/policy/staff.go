package policy

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/backoffice-service/internal/domain"
)

// Ticket field names used in restricted write sets.
const (
	FieldTitle         = "title"
	FieldDescription   = "description"
	FieldPriority      = "priority"
	FieldStatus        = "status"
	FieldAssignedAgent = "assigned_agent_id"
	FieldAssignedTech  = "assigned_tech_id"
)

// adminPolicy grants full access to every resource.
type adminPolicy struct{}

func (adminPolicy) Client(context.Context, Action, *domain.Client) (Verdict, error) {
	return allow(), nil
}
func (adminPolicy) ClientListScope() (ListScope, bool) { return scopeAll(), true }

func (adminPolicy) Ticket(context.Context, Action, *domain.Ticket) (Verdict, error) {
	return allow(), nil
}
func (adminPolicy) TicketListScope() (ListScope, bool) { return scopeAll(), true }
func (adminPolicy) TicketNote(context.Context, *domain.Ticket, bool) (Verdict, error) {
	return allow(), nil
}

func (adminPolicy) PaymentPlan(context.Context, Action, *domain.PaymentPlan) (Verdict, error) {
	return allow(), nil
}
func (adminPolicy) PlanListScope() (ListScope, bool) { return scopeAll(), true }

func (adminPolicy) Payment(context.Context, Action, *domain.Payment) (Verdict, error) {
	return allow(), nil
}
func (adminPolicy) PaymentListScope() (ListScope, bool) { return scopeAll(), true }

func (adminPolicy) Subscription(context.Context, Action, *domain.Subscription) (Verdict, error) {
	return allow(), nil
}
func (adminPolicy) SubscriptionListScope() (ListScope, bool) { return scopeAll(), true }

func (adminPolicy) Finance(Action) Verdict        { return allow() }
func (adminPolicy) StatsScope() (ListScope, bool) { return scopeAll(), true }

// agentPolicy scopes access to the agent's client book. Tickets extend the
// book with the unassigned pool; financial records reach the book through
// the client ownership chain.
type agentPolicy struct {
	actorID string
	clients OwnershipResolver
}

func (p agentPolicy) ownsClient(client *domain.Client) bool {
	return client != nil && client.AgentID != nil && *client.AgentID == p.actorID
}

// ownsUserAccount resolves the client row owned by userID and compares its
// agent assignment. A user with no client row belongs to nobody's book.
func (p agentPolicy) ownsUserAccount(ctx context.Context, userID string) (bool, error) {
	client, err := p.clients.GetByOwnerUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return p.ownsClient(client), nil
}

func (p agentPolicy) ownsClientRow(ctx context.Context, clientID string) (bool, error) {
	client, err := p.clients.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return p.ownsClient(client), nil
}

func (p agentPolicy) Client(_ context.Context, action Action, client *domain.Client) (Verdict, error) {
	switch action {
	case ActionRead, ActionList:
		if p.ownsClient(client) {
			return allow(), nil
		}
	}
	// agents never create, update or delete client records
	return deny(), nil
}

func (p agentPolicy) ClientListScope() (ListScope, bool) {
	return scopeAgent(p.actorID, false), true
}

func (p agentPolicy) Ticket(_ context.Context, action Action, ticket *domain.Ticket) (Verdict, error) {
	if action == ActionDelete {
		return deny(), nil
	}
	if ticket.AssignedAgentID == nil || *ticket.AssignedAgentID == p.actorID {
		return allow(), nil
	}
	return deny(), nil
}

func (p agentPolicy) TicketListScope() (ListScope, bool) {
	return scopeAgent(p.actorID, true), true
}

func (p agentPolicy) TicketNote(ctx context.Context, ticket *domain.Ticket, _ bool) (Verdict, error) {
	return p.Ticket(ctx, ActionUpdate, ticket)
}

func (p agentPolicy) PaymentPlan(ctx context.Context, action Action, plan *domain.PaymentPlan) (Verdict, error) {
	if action == ActionDelete {
		return deny(), nil
	}
	owns, err := p.ownsUserAccount(ctx, plan.UserID)
	if err != nil {
		return deny(), err
	}
	if owns {
		return allow(), nil
	}
	return deny(), nil
}

func (p agentPolicy) PlanListScope() (ListScope, bool) {
	return scopeAgent(p.actorID, false), true
}

func (p agentPolicy) Payment(ctx context.Context, action Action, payment *domain.Payment) (Verdict, error) {
	if action == ActionDelete {
		return deny(), nil
	}
	owns, err := p.ownsClientRow(ctx, payment.ClientID)
	if err != nil {
		return deny(), err
	}
	if owns {
		return allow(), nil
	}
	return deny(), nil
}

func (p agentPolicy) PaymentListScope() (ListScope, bool) {
	return scopeAgent(p.actorID, false), true
}

func (p agentPolicy) Subscription(ctx context.Context, action Action, sub *domain.Subscription) (Verdict, error) {
	if action == ActionDelete {
		return deny(), nil
	}
	owns, err := p.ownsUserAccount(ctx, sub.UserID)
	if err != nil {
		return deny(), err
	}
	if owns {
		return allow(), nil
	}
	return deny(), nil
}

func (p agentPolicy) SubscriptionListScope() (ListScope, bool) {
	return scopeAgent(p.actorID, false), true
}

func (p agentPolicy) Finance(Action) Verdict { return deny() }

func (p agentPolicy) StatsScope() (ListScope, bool) {
	return scopeAgent(p.actorID, true), true
}

// technicianPolicy sees only tickets assigned to the technician.
type technicianPolicy struct {
	actorID string
}

func (p technicianPolicy) assigned(ticket *domain.Ticket) bool {
	return ticket.AssignedTechID != nil && *ticket.AssignedTechID == p.actorID
}

func (p technicianPolicy) Client(context.Context, Action, *domain.Client) (Verdict, error) {
	return deny(), nil
}
func (p technicianPolicy) ClientListScope() (ListScope, bool) { return ListScope{}, false }

func (p technicianPolicy) Ticket(_ context.Context, action Action, ticket *domain.Ticket) (Verdict, error) {
	if action == ActionDelete {
		return deny(), nil
	}
	if p.assigned(ticket) {
		return allow(), nil
	}
	return deny(), nil
}

func (p technicianPolicy) TicketListScope() (ListScope, bool) {
	return scopeTech(p.actorID), true
}

func (p technicianPolicy) TicketNote(ctx context.Context, ticket *domain.Ticket, _ bool) (Verdict, error) {
	return p.Ticket(ctx, ActionUpdate, ticket)
}

func (p technicianPolicy) PaymentPlan(context.Context, Action, *domain.PaymentPlan) (Verdict, error) {
	return deny(), nil
}
func (p technicianPolicy) PlanListScope() (ListScope, bool) { return ListScope{}, false }
func (p technicianPolicy) Payment(context.Context, Action, *domain.Payment) (Verdict, error) {
	return deny(), nil
}
func (p technicianPolicy) PaymentListScope() (ListScope, bool) { return ListScope{}, false }
func (p technicianPolicy) Subscription(context.Context, Action, *domain.Subscription) (Verdict, error) {
	return deny(), nil
}
func (p technicianPolicy) SubscriptionListScope() (ListScope, bool) { return ListScope{}, false }
func (p technicianPolicy) Finance(Action) Verdict                   { return deny() }
func (p technicianPolicy) StatsScope() (ListScope, bool)            { return ListScope{}, false }
