package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/backoffice-service/internal/api/dto"
	"github.com/spec-kit/backoffice-service/internal/domain"
	"github.com/spec-kit/backoffice-service/internal/repository"
	"github.com/spec-kit/backoffice-service/internal/service"
	apperrors "github.com/spec-kit/backoffice-service/pkg/util"
)

// SubscriptionsHandler manages subscription endpoints.
type SubscriptionsHandler struct {
	service *service.SubscriptionService
}

// NewSubscriptionsHandler constructs handler.
func NewSubscriptionsHandler(subscriptionService *service.SubscriptionService) *SubscriptionsHandler {
	return &SubscriptionsHandler{service: subscriptionService}
}

// CreateSubscription POST /subscriptions.
func (h *SubscriptionsHandler) CreateSubscription(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input := service.SubscriptionCreateInput{
		UserID:  req.UserID,
		Type:    req.Type,
		Price:   req.Price,
		EndDate: req.EndDate,
	}
	if req.StartDate != nil {
		input.StartDate = *req.StartDate
	}
	sub, err := h.service.CreateSubscription(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": subscriptionResponse(sub)})
}

// ListSubscriptions GET /subscriptions.
func (h *SubscriptionsHandler) ListSubscriptions(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	limit, offset := parsePagination(c)
	filter := repository.SubscriptionFilter{Limit: limit, Offset: offset}
	if status := c.Query("status"); status != "" {
		filter.Statuses = []domain.SubscriptionStatus{domain.SubscriptionStatus(status)}
	}
	if userID := c.Query("user_id"); userID != "" {
		filter.UserID = &userID
	}
	subs, err := h.service.ListSubscriptions(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.SubscriptionResponse, 0, len(subs))
	for i := range subs {
		items = append(items, subscriptionResponse(&subs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetSubscription GET /subscriptions/:id.
func (h *SubscriptionsHandler) GetSubscription(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	sub, err := h.service.GetSubscription(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": subscriptionResponse(sub)})
}

// UpdateSubscription PATCH /subscriptions/:id.
func (h *SubscriptionsHandler) UpdateSubscription(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	sub, err := h.service.UpdateSubscription(c.UserContext(), actor, c.Params("id"), service.SubscriptionUpdateInput{
		Type:    req.Type,
		Status:  req.Status,
		Price:   req.Price,
		EndDate: req.EndDate,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": subscriptionResponse(sub)})
}

// DeleteSubscription DELETE /subscriptions/:id.
func (h *SubscriptionsHandler) DeleteSubscription(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteSubscription(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func subscriptionResponse(sub *domain.Subscription) dto.SubscriptionResponse {
	return dto.SubscriptionResponse{
		ID:        sub.ID,
		UserID:    sub.UserID,
		Type:      sub.Type,
		Status:    sub.Status,
		Price:     sub.Price,
		StartDate: sub.StartDate,
		EndDate:   sub.EndDate,
		CreatedAt: sub.CreatedAt,
		UpdatedAt: sub.UpdatedAt,
	}
}
