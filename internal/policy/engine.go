package policy

import (
	"context"

	"github.com/spec-kit/backoffice-service/internal/domain"
)

// OwnershipResolver is the single reusable lookup for the client ownership
// chain (client row -> owning user -> assigned agent). Every policy check
// that needs the indirect join goes through it. ClientRepository satisfies
// the interface directly.
type OwnershipResolver interface {
	GetByID(ctx context.Context, id string) (*domain.Client, error)
	GetByOwnerUserID(ctx context.Context, userID string) (*domain.Client, error)
}

// ActorPolicy answers authorization questions for one resolved actor.
// Implementations exist per role; unknown roles fall through to a deny-all
// policy so the system fails closed.
//
// Resource checks take the loaded row: callers resolve existence first, so
// a missing resource is reported as not-found before any permission
// decision is made (uniform 404-before-403 ordering).
type ActorPolicy interface {
	Client(ctx context.Context, action Action, client *domain.Client) (Verdict, error)
	ClientListScope() (ListScope, bool)

	Ticket(ctx context.Context, action Action, ticket *domain.Ticket) (Verdict, error)
	TicketListScope() (ListScope, bool)
	// TicketNote authorizes appending a note to the ticket.
	TicketNote(ctx context.Context, ticket *domain.Ticket, isInternal bool) (Verdict, error)

	PaymentPlan(ctx context.Context, action Action, plan *domain.PaymentPlan) (Verdict, error)
	PlanListScope() (ListScope, bool)

	Payment(ctx context.Context, action Action, payment *domain.Payment) (Verdict, error)
	PaymentListScope() (ListScope, bool)

	Subscription(ctx context.Context, action Action, sub *domain.Subscription) (Verdict, error)
	SubscriptionListScope() (ListScope, bool)

	// Finance covers expenses and company accounts.
	Finance(action Action) Verdict
	StatsScope() (ListScope, bool)
}

// Engine selects the capability set for an actor. One selection per
// request; every subsequent check dispatches through the role's
// implementation instead of re-testing the role string.
type Engine struct {
	clients OwnershipResolver
}

// NewEngine builds the policy engine around the ownership chain resolver.
func NewEngine(clients OwnershipResolver) *Engine {
	return &Engine{clients: clients}
}

// ForActor returns the policy for the actor's role.
func (e *Engine) ForActor(actor domain.Actor) ActorPolicy {
	switch actor.Role {
	case domain.RoleAdmin:
		return adminPolicy{}
	case domain.RoleAgent:
		return agentPolicy{actorID: actor.ID, clients: e.clients}
	case domain.RoleTechnician:
		return technicianPolicy{actorID: actor.ID}
	case domain.RoleClient:
		return clientPolicy{actorID: actor.ID, clients: e.clients}
	default:
		return denyAllPolicy{}
	}
}

// denyAllPolicy refuses everything; unknown roles land here.
type denyAllPolicy struct{}

func (denyAllPolicy) Client(context.Context, Action, *domain.Client) (Verdict, error) {
	return deny(), nil
}
func (denyAllPolicy) ClientListScope() (ListScope, bool) { return ListScope{}, false }
func (denyAllPolicy) Ticket(context.Context, Action, *domain.Ticket) (Verdict, error) {
	return deny(), nil
}
func (denyAllPolicy) TicketListScope() (ListScope, bool) { return ListScope{}, false }
func (denyAllPolicy) TicketNote(context.Context, *domain.Ticket, bool) (Verdict, error) {
	return deny(), nil
}
func (denyAllPolicy) PaymentPlan(context.Context, Action, *domain.PaymentPlan) (Verdict, error) {
	return deny(), nil
}
func (denyAllPolicy) PlanListScope() (ListScope, bool) { return ListScope{}, false }
func (denyAllPolicy) Payment(context.Context, Action, *domain.Payment) (Verdict, error) {
	return deny(), nil
}
func (denyAllPolicy) PaymentListScope() (ListScope, bool) { return ListScope{}, false }
func (denyAllPolicy) Subscription(context.Context, Action, *domain.Subscription) (Verdict, error) {
	return deny(), nil
}
func (denyAllPolicy) SubscriptionListScope() (ListScope, bool) { return ListScope{}, false }
func (denyAllPolicy) Finance(Action) Verdict                   { return deny() }
func (denyAllPolicy) StatsScope() (ListScope, bool)            { return ListScope{}, false }
