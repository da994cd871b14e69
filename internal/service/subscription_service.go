package service

import (
	"context"
	"fmt"
	"time"

	"github.com/spec-kit/backoffice-service/internal/domain"
	"github.com/spec-kit/backoffice-service/internal/policy"
	"github.com/spec-kit/backoffice-service/internal/repository"
	apperrors "github.com/spec-kit/backoffice-service/pkg/util"
)

// SubscriptionService manages recurring service records.
type SubscriptionService struct {
	subscriptions repository.SubscriptionRepository
	clients       repository.ClientRepository
	users         repository.UserRepository
	policies      *policy.Engine
	now           func() time.Time
}

// SubscriptionDependencies bundles the collaborators for the
// subscription service.
type SubscriptionDependencies struct {
	SubscriptionRepo repository.SubscriptionRepository
	ClientRepo       repository.ClientRepository
	UserRepo         repository.UserRepository
	Policies         *policy.Engine
	Now              func() time.Time
}

// NewSubscriptionService instantiates the subscription service.
func NewSubscriptionService(deps SubscriptionDependencies) *SubscriptionService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &SubscriptionService{
		subscriptions: deps.SubscriptionRepo,
		clients:       deps.ClientRepo,
		users:         deps.UserRepo,
		policies:      deps.Policies,
		now:           now,
	}
}

// SubscriptionCreateInput describes a new subscription.
type SubscriptionCreateInput struct {
	UserID    string
	Type      domain.SubscriptionType
	Price     float64
	StartDate time.Time
	EndDate   *time.Time
}

// SubscriptionUpdateInput carries the mutable subscription fields.
type SubscriptionUpdateInput struct {
	Type    *domain.SubscriptionType
	Status  *domain.SubscriptionStatus
	Price   *float64
	EndDate *time.Time
}

func validSubscriptionType(t domain.SubscriptionType) bool {
	switch t {
	case domain.SubscriptionTypeMonthly, domain.SubscriptionTypeAnnual, domain.SubscriptionTypeCustom:
		return true
	}
	return false
}

func validSubscriptionStatus(s domain.SubscriptionStatus) bool {
	switch s {
	case domain.SubscriptionStatusActive, domain.SubscriptionStatusOverdue,
		domain.SubscriptionStatusCancelled, domain.SubscriptionStatusPaused:
		return true
	}
	return false
}

// CreateSubscription starts a new subscription in ACTIVE state.
func (s *SubscriptionService) CreateSubscription(ctx context.Context, actor domain.Actor, input SubscriptionCreateInput) (*domain.Subscription, error) {
	fieldErrors := map[string]any{}
	if input.UserID == "" {
		fieldErrors["user_id"] = "user_id is required"
	}
	if !validSubscriptionType(input.Type) {
		fieldErrors["type"] = fmt.Sprintf("unknown subscription type %q", input.Type)
	}
	if input.Price <= 0 {
		fieldErrors["price"] = "price must be greater than zero"
	}
	if len(fieldErrors) > 0 {
		return nil, apperrors.NewValidationError("invalid subscription payload", fieldErrors)
	}

	if _, err := s.users.GetByID(ctx, input.UserID); err != nil {
		return nil, notFoundOr(err, "user")
	}

	start := input.StartDate
	if start.IsZero() {
		start = s.now()
	}
	sub := &domain.Subscription{
		UserID:    input.UserID,
		Type:      input.Type,
		Status:    domain.SubscriptionStatusActive,
		Price:     input.Price,
		StartDate: start,
		EndDate:   input.EndDate,
	}
	if _, err := requireVerdict(s.policies.ForActor(actor).Subscription(ctx, policy.ActionCreate, sub)); err != nil {
		return nil, err
	}
	if err := s.subscriptions.Create(ctx, sub); err != nil {
		return nil, apperrors.MapError(err)
	}
	return sub, nil
}

// GetSubscription loads a subscription under the actor's policy.
func (s *SubscriptionService) GetSubscription(ctx context.Context, actor domain.Actor, id string) (*domain.Subscription, error) {
	sub, err := s.subscriptions.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "subscription")
	}
	if _, err := requireVerdict(s.policies.ForActor(actor).Subscription(ctx, policy.ActionRead, sub)); err != nil {
		return nil, err
	}
	return sub, nil
}

// ListSubscriptions returns subscriptions narrowed to the actor's
// visibility.
func (s *SubscriptionService) ListSubscriptions(ctx context.Context, actor domain.Actor, filter repository.SubscriptionFilter) ([]domain.Subscription, error) {
	scope, ok := s.policies.ForActor(actor).SubscriptionListScope()
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
			return []domain.Subscription{}, nil
		}
		filter.UserID = nil
		filter.UserIDs = userIDs
	case scope.SelfUserID != nil:
		filter.UserIDs = nil
		filter.UserID = scope.SelfUserID
	default:
		return nil, forbidden()
	}
	subs, err := s.subscriptions.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return subs, nil
}

// UpdateSubscription edits a subscription.
func (s *SubscriptionService) UpdateSubscription(ctx context.Context, actor domain.Actor, id string, input SubscriptionUpdateInput) (*domain.Subscription, error) {
	sub, err := s.subscriptions.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "subscription")
	}
	if _, err := requireVerdict(s.policies.ForActor(actor).Subscription(ctx, policy.ActionUpdate, sub)); err != nil {
		return nil, err
	}

	fieldErrors := map[string]any{}
	if input.Type != nil && !validSubscriptionType(*input.Type) {
		fieldErrors["type"] = fmt.Sprintf("unknown subscription type %q", *input.Type)
	}
	if input.Status != nil && !validSubscriptionStatus(*input.Status) {
		fieldErrors["status"] = fmt.Sprintf("unknown subscription status %q", *input.Status)
	}
	if input.Price != nil && *input.Price <= 0 {
		fieldErrors["price"] = "price must be greater than zero"
	}
	if len(fieldErrors) > 0 {
		return nil, apperrors.NewValidationError("invalid subscription payload", fieldErrors)
	}

	if input.Type != nil {
		sub.Type = *input.Type
	}
	if input.Status != nil {
		sub.Status = *input.Status
	}
	if input.Price != nil {
		sub.Price = *input.Price
	}
	if input.EndDate != nil {
		sub.EndDate = input.EndDate
	}
	if err := s.subscriptions.Update(ctx, sub); err != nil {
		return nil, apperrors.MapError(err)
	}
	return sub, nil
}

// DeleteSubscription removes a subscription record.
func (s *SubscriptionService) DeleteSubscription(ctx context.Context, actor domain.Actor, id string) error {
	sub, err := s.subscriptions.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "subscription")
	}
	if _, err := requireVerdict(s.policies.ForActor(actor).Subscription(ctx, policy.ActionDelete, sub)); err != nil {
		return err
	}
	if err := s.subscriptions.Delete(ctx, id); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}
