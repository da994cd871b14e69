package service

import (
	"context"
	"time"

	"github.com/spec-kit/backoffice-service/internal/domain"
	"github.com/spec-kit/backoffice-service/internal/policy"
	"github.com/spec-kit/backoffice-service/internal/repository"
	apperrors "github.com/spec-kit/backoffice-service/pkg/util"
)

// PaymentPlanService manages installment financing records. Balance
// mutation is not here: only the ledger moves RemainingAmount.
type PaymentPlanService struct {
	plans    repository.PaymentPlanRepository
	payments repository.PaymentRepository
	clients  repository.ClientRepository
	users    repository.UserRepository
	policies *policy.Engine
	now      func() time.Time
}

// PlanDependencies bundles the collaborators for the plan service.
type PlanDependencies struct {
	PlanRepo    repository.PaymentPlanRepository
	PaymentRepo repository.PaymentRepository
	ClientRepo  repository.ClientRepository
	UserRepo    repository.UserRepository
	Policies    *policy.Engine
	Now         func() time.Time
}

// NewPaymentPlanService instantiates the plan service.
func NewPaymentPlanService(deps PlanDependencies) *PaymentPlanService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &PaymentPlanService{
		plans:    deps.PlanRepo,
		payments: deps.PaymentRepo,
		clients:  deps.ClientRepo,
		users:    deps.UserRepo,
		policies: deps.Policies,
		now:      now,
	}
}

// PlanCreateInput describes a new payment plan.
type PlanCreateInput struct {
	UserID       string
	Name         string
	TotalAmount  float64
	Installments int
	StartDate    time.Time
}

// PlanUpdateInput carries the mutable descriptive fields. Balance fields
// are deliberately absent.
type PlanUpdateInput struct {
	Name            *string
	Installments    *int
	NextPaymentDate *time.Time
}

// CreatePlan opens a new plan with the full balance outstanding.
func (s *PaymentPlanService) CreatePlan(ctx context.Context, actor domain.Actor, input PlanCreateInput) (*domain.PaymentPlan, error) {
	fieldErrors := map[string]any{}
	if input.UserID == "" {
		fieldErrors["user_id"] = "user_id is required"
	}
	if input.Name == "" {
		fieldErrors["name"] = "name is required"
	}
	if input.TotalAmount <= 0 {
		fieldErrors["total_amount"] = "total_amount must be greater than zero"
	}
	if input.Installments <= 0 {
		fieldErrors["installments"] = "installments must be greater than zero"
	}
	if len(fieldErrors) > 0 {
		return nil, apperrors.NewValidationError("invalid payment plan payload", fieldErrors)
	}

	if _, err := s.users.GetByID(ctx, input.UserID); err != nil {
		return nil, notFoundOr(err, "user")
	}

	start := input.StartDate
	if start.IsZero() {
		start = s.now()
	}
	plan := &domain.PaymentPlan{
		UserID:          input.UserID,
		Name:            input.Name,
		TotalAmount:     input.TotalAmount,
		RemainingAmount: input.TotalAmount,
		Installments:    input.Installments,
		StartDate:       start,
		NextPaymentDate: start.AddDate(0, 1, 0),
	}
	if _, err := requireVerdict(s.policies.ForActor(actor).PaymentPlan(ctx, policy.ActionCreate, plan)); err != nil {
		return nil, err
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, apperrors.MapError(err)
	}
	return plan, nil
}

// GetPlan loads a plan under the actor's policy.
func (s *PaymentPlanService) GetPlan(ctx context.Context, actor domain.Actor, id string) (*domain.PaymentPlan, error) {
	plan, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "payment plan")
	}
	if _, err := requireVerdict(s.policies.ForActor(actor).PaymentPlan(ctx, policy.ActionRead, plan)); err != nil {
		return nil, err
	}
	return plan, nil
}

// ListPlans returns plans narrowed to the actor's visibility.
func (s *PaymentPlanService) ListPlans(ctx context.Context, actor domain.Actor, filter repository.PaymentPlanFilter) ([]domain.PaymentPlan, error) {
	scope, ok := s.policies.ForActor(actor).PlanListScope()
	if !ok {
		return nil, forbidden()
	}
	switch {
	case scope.All:
	case scope.AgentID != nil:
		_, userIDs, err := bookClientIDs(ctx, s.clients, *scope.AgentID)
		if err != nil {
			return nil, err
		}
		if len(userIDs) == 0 {
			return []domain.PaymentPlan{}, nil
		}
		filter.UserID = nil
		filter.UserIDs = userIDs
	case scope.SelfUserID != nil:
		filter.UserIDs = nil
		filter.UserID = scope.SelfUserID
	default:
		return nil, forbidden()
	}
	plans, err := s.plans.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return plans, nil
}

// UpdatePlan edits descriptive fields. TotalAmount and RemainingAmount
// cannot be written here under any role.
func (s *PaymentPlanService) UpdatePlan(ctx context.Context, actor domain.Actor, id string, input PlanUpdateInput) (*domain.PaymentPlan, error) {
	plan, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "payment plan")
	}
	if _, err := requireVerdict(s.policies.ForActor(actor).PaymentPlan(ctx, policy.ActionUpdate, plan)); err != nil {
		return nil, err
	}
	fieldErrors := map[string]any{}
	if input.Name != nil && *input.Name == "" {
		fieldErrors["name"] = "name cannot be empty"
	}
	if input.Installments != nil && *input.Installments <= 0 {
		fieldErrors["installments"] = "installments must be greater than zero"
	}
	if len(fieldErrors) > 0 {
		return nil, apperrors.NewValidationError("invalid payment plan payload", fieldErrors)
	}
	if input.Name != nil {
		plan.Name = *input.Name
	}
	if input.Installments != nil {
		plan.Installments = *input.Installments
	}
	if input.NextPaymentDate != nil {
		plan.NextPaymentDate = *input.NextPaymentDate
	}
	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, apperrors.MapError(err)
	}
	return plan, nil
}

// DeletePlan removes a plan that has no payments recorded against it.
func (s *PaymentPlanService) DeletePlan(ctx context.Context, actor domain.Actor, id string) error {
	plan, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "payment plan")
	}
	if _, err := requireVerdict(s.policies.ForActor(actor).PaymentPlan(ctx, policy.ActionDelete, plan)); err != nil {
		return err
	}
	count, err := s.payments.CountByPlan(ctx, id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if count > 0 {
		return apperrors.NewConflict("payment plan has recorded payments", map[string]any{
			"payment_count": count,
		})
	}
	if err := s.plans.Delete(ctx, id); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}
