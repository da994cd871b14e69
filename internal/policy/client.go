package policy

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/backoffice-service/internal/domain"
)

// clientPolicy confines a client account to its own rows. Reads of the
// client's tickets hide internal notes; ticket writes are restricted to a
// narrow field set and only while the ticket is still open.
type clientPolicy struct {
	actorID string
	clients OwnershipResolver
}

func (p clientPolicy) Client(_ context.Context, action Action, client *domain.Client) (Verdict, error) {
	if action != ActionRead {
		return deny(), nil
	}
	if client.OwnerUserID == p.actorID {
		v := allow()
		v.HideInternalNotes = true
		return v, nil
	}
	return deny(), nil
}

func (p clientPolicy) ClientListScope() (ListScope, bool) {
	return scopeSelf(p.actorID), true
}

func (p clientPolicy) Ticket(_ context.Context, action Action, ticket *domain.Ticket) (Verdict, error) {
	if ticket.ClientID != p.actorID {
		return deny(), nil
	}
	switch action {
	case ActionRead, ActionList:
		v := allow()
		v.HideInternalNotes = true
		return v, nil
	case ActionCreate:
		return allowFields(FieldTitle, FieldDescription, FieldPriority), nil
	case ActionUpdate:
		// clients may touch their ticket only before staff picks it up,
		// and never its status or assignments
		if ticket.Status != domain.TicketStatusOpen {
			return deny(), nil
		}
		return allowFields(FieldTitle, FieldDescription, FieldPriority), nil
	}
	return deny(), nil
}

func (p clientPolicy) TicketListScope() (ListScope, bool) {
	return scopeSelf(p.actorID), true
}

func (p clientPolicy) TicketNote(_ context.Context, ticket *domain.Ticket, isInternal bool) (Verdict, error) {
	if ticket.ClientID != p.actorID {
		return deny(), nil
	}
	if isInternal {
		return deny(), nil
	}
	v := allow()
	v.HideInternalNotes = true
	return v, nil
}

func (p clientPolicy) PaymentPlan(_ context.Context, action Action, plan *domain.PaymentPlan) (Verdict, error) {
	if action != ActionRead && action != ActionList {
		return deny(), nil
	}
	if plan.UserID == p.actorID {
		return allow(), nil
	}
	return deny(), nil
}

func (p clientPolicy) PlanListScope() (ListScope, bool) {
	return scopeSelf(p.actorID), true
}

func (p clientPolicy) Payment(ctx context.Context, action Action, payment *domain.Payment) (Verdict, error) {
	if action != ActionRead && action != ActionList {
		return deny(), nil
	}
	client, err := p.clients.GetByID(ctx, payment.ClientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return deny(), nil
		}
		return deny(), err
	}
	if client.OwnerUserID == p.actorID {
		return allow(), nil
	}
	return deny(), nil
}

func (p clientPolicy) PaymentListScope() (ListScope, bool) {
	return scopeSelf(p.actorID), true
}

func (p clientPolicy) Subscription(_ context.Context, action Action, sub *domain.Subscription) (Verdict, error) {
	if action != ActionRead && action != ActionList {
		return deny(), nil
	}
	if sub.UserID == p.actorID {
		return allow(), nil
	}
	return deny(), nil
}

func (p clientPolicy) SubscriptionListScope() (ListScope, bool) {
	return scopeSelf(p.actorID), true
}

func (p clientPolicy) Finance(Action) Verdict { return deny() }

func (p clientPolicy) StatsScope() (ListScope, bool) { return ListScope{}, false }
