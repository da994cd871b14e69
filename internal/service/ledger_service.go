package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/backoffice-service/internal/domain"
	"github.com/spec-kit/backoffice-service/internal/events"
	"github.com/spec-kit/backoffice-service/internal/policy"
	"github.com/spec-kit/backoffice-service/internal/repository"
	apperrors "github.com/spec-kit/backoffice-service/pkg/util"
)

// LedgerService coordinates payment recording and the plan balance it
// drives. A payment reaching COMPLETED while linked to a plan decrements
// the plan's remaining balance exactly once, atomically with the payment
// write.
type LedgerService struct {
	payments   repository.PaymentRepository
	plans      repository.PaymentPlanRepository
	clients    repository.ClientRepository
	tx         repository.TxRunner
	policies   *policy.Engine
	dispatcher events.Dispatcher
	now        func() time.Time
}

// LedgerDependencies bundles the collaborators for the ledger service.
type LedgerDependencies struct {
	PaymentRepo repository.PaymentRepository
	PlanRepo    repository.PaymentPlanRepository
	ClientRepo  repository.ClientRepository
	Tx          repository.TxRunner
	Policies    *policy.Engine
	Dispatcher  events.Dispatcher
	Now         func() time.Time
}

// NewLedgerService instantiates the ledger service.
func NewLedgerService(deps LedgerDependencies) *LedgerService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &LedgerService{
		payments:   deps.PaymentRepo,
		plans:      deps.PlanRepo,
		clients:    deps.ClientRepo,
		tx:         deps.Tx,
		policies:   deps.Policies,
		dispatcher: deps.Dispatcher,
		now:        now,
	}
}

// PaymentCreateInput describes a new ledger entry.
type PaymentCreateInput struct {
	ClientID      string
	PaymentPlanID *string
	Amount        float64
	Type          domain.PaymentType
	Status        domain.PaymentStatus
	PaymentDate   time.Time
	Description   *string
}

// PaymentUpdateInput carries the mutable payment fields. Nil pointers
// mean "leave unchanged".
type PaymentUpdateInput struct {
	Amount      *float64
	Status      *domain.PaymentStatus
	PaymentDate *time.Time
	Description *string
}

// validStatusTransition enumerates the payment settlement state machine.
// A no-op write of the current status is always accepted.
func validStatusTransition(from, to domain.PaymentStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case domain.PaymentStatusPending:
		return to == domain.PaymentStatusCompleted || to == domain.PaymentStatusFailed
	case domain.PaymentStatusCompleted:
		return to == domain.PaymentStatusRefunded
	default:
		return false
	}
}

func validPaymentType(t domain.PaymentType) bool {
	switch t {
	case domain.PaymentTypeSubscription, domain.PaymentTypePaymentPlan, domain.PaymentTypeCapitalContribution:
		return true
	}
	return false
}

func validPaymentStatus(s domain.PaymentStatus) bool {
	switch s {
	case domain.PaymentStatusPending, domain.PaymentStatusCompleted,
		domain.PaymentStatusFailed, domain.PaymentStatusRefunded:
		return true
	}
	return false
}

// RecordPayment validates and stores a new payment. When the payment is
// plan-linked and already COMPLETED at creation, the plan decrement runs
// in the same transaction as the insert; a failure on either side rolls
// both back.
func (s *LedgerService) RecordPayment(ctx context.Context, actor domain.Actor, input PaymentCreateInput) (*domain.Payment, error) {
	fieldErrors := map[string]any{}
	if input.ClientID == "" {
		fieldErrors["client_id"] = "client_id is required"
	}
	if input.Amount <= 0 {
		fieldErrors["amount"] = "amount must be greater than zero"
	}
	if !validPaymentType(input.Type) {
		fieldErrors["type"] = fmt.Sprintf("unknown payment type %q", input.Type)
	}
	if input.Status == "" {
		input.Status = domain.PaymentStatusPending
	}
	if !validPaymentStatus(input.Status) {
		fieldErrors["status"] = fmt.Sprintf("unknown payment status %q", input.Status)
	}
	if len(fieldErrors) > 0 {
		return nil, apperrors.NewValidationError("invalid payment payload", fieldErrors)
	}

	client, err := s.clients.GetByID(ctx, input.ClientID)
	if err != nil {
		return nil, notFoundOr(err, "client")
	}

	payment := &domain.Payment{
		ReceiptKey:    generateReferenceCode("PAY"),
		ClientID:      client.ID,
		PaymentPlanID: input.PaymentPlanID,
		Amount:        input.Amount,
		Type:          input.Type,
		Status:        input.Status,
		PaymentDate:   input.PaymentDate,
		Description:   input.Description,
	}
	if payment.PaymentDate.IsZero() {
		payment.PaymentDate = s.now()
	}

	if _, err := requireVerdict(s.policies.ForActor(actor).Payment(ctx, policy.ActionCreate, payment)); err != nil {
		return nil, err
	}

	var plan *domain.PaymentPlan
	if input.PaymentPlanID != nil {
		plan, err = s.plans.GetByID(ctx, *input.PaymentPlanID)
		if err != nil {
			return nil, notFoundOr(err, "payment plan")
		}
		// The plan belongs to the client's owning user account; a payment
		// may never fund somebody else's plan.
		if plan.UserID != client.OwnerUserID {
			return nil, apperrors.NewInvariantViolation("payment plan does not belong to the client", map[string]any{
				"client_id":       client.ID,
				"payment_plan_id": plan.ID,
			})
		}
	}

	var settledPlan *domain.PaymentPlan
	if payment.Status == domain.PaymentStatusCompleted && payment.PaymentPlanID != nil {
		err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := s.payments.Create(ctx, payment); err != nil {
				return err
			}
			locked, err := s.plans.GetByIDForUpdate(ctx, *payment.PaymentPlanID)
			if err != nil {
				return err
			}
			s.applyCompletion(locked, payment.Amount)
			if err := s.plans.Update(ctx, locked); err != nil {
				return err
			}
			if locked.Settled() {
				settledPlan = locked
			}
			return nil
		})
	} else {
		err = s.payments.Create(ctx, payment)
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventPaymentRecorded,
		Subject: payment.ID,
		Actor:   actorEvent(actor),
		Payload: events.PaymentRecordedPayload{
			PaymentID:     payment.ID,
			ClientID:      payment.ClientID,
			PaymentPlanID: payment.PaymentPlanID,
			Amount:        payment.Amount,
			Status:        payment.Status,
		},
	})
	if settledPlan != nil {
		publishEvent(ctx, s.dispatcher, events.Event{
			Type:    events.EventPlanSettled,
			Subject: settledPlan.ID,
			Actor:   actorEvent(actor),
			Payload: events.PlanSettledPayload{PlanID: settledPlan.ID, UserID: settledPlan.UserID},
		})
	}
	return payment, nil
}

// UpdatePayment applies field changes to an existing payment. The plan
// decrement fires only on the edge into COMPLETED; the amount used is the
// one stored before this update, so a simultaneous amount change never
// alters the decrement. Re-asserting COMPLETED, or editing other fields of
// an already-completed payment, leaves the plan untouched.
func (s *LedgerService) UpdatePayment(ctx context.Context, actor domain.Actor, paymentID string, input PaymentUpdateInput) (*domain.Payment, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, notFoundOr(err, "payment")
	}
	if _, err := requireVerdict(s.policies.ForActor(actor).Payment(ctx, policy.ActionUpdate, payment)); err != nil {
		return nil, err
	}

	fieldErrors := map[string]any{}
	if input.Amount != nil && *input.Amount <= 0 {
		fieldErrors["amount"] = "amount must be greater than zero"
	}
	if input.Status != nil {
		if !validPaymentStatus(*input.Status) {
			fieldErrors["status"] = fmt.Sprintf("unknown payment status %q", *input.Status)
		} else if !validStatusTransition(payment.Status, *input.Status) {
			fieldErrors["status"] = fmt.Sprintf("cannot transition from %s to %s", payment.Status, *input.Status)
		}
	}
	if len(fieldErrors) > 0 {
		return nil, apperrors.NewValidationError("invalid payment payload", fieldErrors)
	}

	completing := payment.PaymentPlanID != nil &&
		input.Status != nil &&
		*input.Status == domain.PaymentStatusCompleted &&
		payment.Status != domain.PaymentStatusCompleted
	// Decrement with the amount on record before the update is applied.
	decrementAmount := payment.Amount
	oldStatus := payment.Status

	if input.Amount != nil {
		payment.Amount = *input.Amount
	}
	if input.Status != nil {
		payment.Status = *input.Status
	}
	if input.PaymentDate != nil {
		payment.PaymentDate = *input.PaymentDate
	}
	if input.Description != nil {
		payment.Description = input.Description
	}

	var settledPlan *domain.PaymentPlan
	if completing {
		err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := s.payments.Update(ctx, payment); err != nil {
				return err
			}
			locked, err := s.plans.GetByIDForUpdate(ctx, *payment.PaymentPlanID)
			if err != nil {
				return err
			}
			s.applyCompletion(locked, decrementAmount)
			if err := s.plans.Update(ctx, locked); err != nil {
				return err
			}
			if locked.Settled() {
				settledPlan = locked
			}
			return nil
		})
	} else {
		err = s.payments.Update(ctx, payment)
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if input.Status != nil && oldStatus != payment.Status {
		publishEvent(ctx, s.dispatcher, events.Event{
			Type:    events.EventPaymentStatusChanged,
			Subject: payment.ID,
			Actor:   actorEvent(actor),
			Payload: events.PaymentStatusChangedPayload{
				PaymentID: payment.ID,
				OldStatus: oldStatus,
				NewStatus: payment.Status,
			},
		})
	}
	if settledPlan != nil {
		publishEvent(ctx, s.dispatcher, events.Event{
			Type:    events.EventPlanSettled,
			Subject: settledPlan.ID,
			Actor:   actorEvent(actor),
			Payload: events.PlanSettledPayload{PlanID: settledPlan.ID, UserID: settledPlan.UserID},
		})
	}
	return payment, nil
}

// applyCompletion decrements the plan balance, clamping at zero, and
// advances the next due date one calendar month from now.
func (s *LedgerService) applyCompletion(plan *domain.PaymentPlan, amount float64) {
	remaining := plan.RemainingAmount - amount
	if remaining < 0 {
		remaining = 0
	}
	plan.RemainingAmount = remaining
	plan.NextPaymentDate = s.now().AddDate(0, 1, 0)
}

// GetPayment loads a single payment under the actor's policy.
func (s *LedgerService) GetPayment(ctx context.Context, actor domain.Actor, id string) (*domain.Payment, error) {
	payment, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "payment")
	}
	if _, err := requireVerdict(s.policies.ForActor(actor).Payment(ctx, policy.ActionRead, payment)); err != nil {
		return nil, err
	}
	return payment, nil
}

// ListPayments returns payments narrowed to the actor's visibility.
func (s *LedgerService) ListPayments(ctx context.Context, actor domain.Actor, filter repository.PaymentFilter) ([]domain.Payment, error) {
	scope, ok := s.policies.ForActor(actor).PaymentListScope()
	if !ok {
		return nil, forbidden()
	}
	switch {
	case scope.All:
	case scope.AgentID != nil:
		ids, _, err := bookClientIDs(ctx, s.clients, *scope.AgentID)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []domain.Payment{}, nil
		}
		filter.ClientID = nil
		filter.ClientIDs = ids
	case scope.SelfUserID != nil:
		client, err := s.clients.GetByOwnerUserID(ctx, *scope.SelfUserID)
		if err != nil {
			// An account without a client row simply has no payments.
			if errors.Is(err, pgx.ErrNoRows) {
				return []domain.Payment{}, nil
			}
			return nil, apperrors.MapError(err)
		}
		filter.ClientIDs = nil
		filter.ClientID = &client.ID
	default:
		return nil, forbidden()
	}
	payments, err := s.payments.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return payments, nil
}

// ListPlanPayments returns every payment funding the plan, readable only
// when the actor may read the plan itself.
func (s *LedgerService) ListPlanPayments(ctx context.Context, actor domain.Actor, planID string) ([]domain.Payment, error) {
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, notFoundOr(err, "payment plan")
	}
	if _, err := requireVerdict(s.policies.ForActor(actor).PaymentPlan(ctx, policy.ActionRead, plan)); err != nil {
		return nil, err
	}
	payments, err := s.payments.ListWithFilter(ctx, repository.PaymentFilter{PaymentPlanID: &plan.ID})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return payments, nil
}

// DeletePayment removes a ledger entry. The plan balance is never
// re-credited; removal is an administrative correction, not a refund.
func (s *LedgerService) DeletePayment(ctx context.Context, actor domain.Actor, id string) error {
	payment, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "payment")
	}
	if _, err := requireVerdict(s.policies.ForActor(actor).Payment(ctx, policy.ActionDelete, payment)); err != nil {
		return err
	}
	if err := s.payments.Delete(ctx, id); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}
