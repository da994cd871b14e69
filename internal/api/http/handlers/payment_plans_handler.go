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

// PaymentPlansHandler manages payment plan endpoints.
type PaymentPlansHandler struct {
	plans  *service.PaymentPlanService
	ledger *service.LedgerService
}

// NewPaymentPlansHandler constructs handler.
func NewPaymentPlansHandler(planService *service.PaymentPlanService, ledgerService *service.LedgerService) *PaymentPlansHandler {
	return &PaymentPlansHandler{plans: planService, ledger: ledgerService}
}

// CreatePlan POST /payment-plans.
func (h *PaymentPlansHandler) CreatePlan(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.CreatePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input := service.PlanCreateInput{
		UserID:       req.UserID,
		Name:         req.Name,
		TotalAmount:  req.TotalAmount,
		Installments: req.Installments,
	}
	if req.StartDate != nil {
		input.StartDate = *req.StartDate
	}
	plan, err := h.plans.CreatePlan(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": planResponse(plan)})
}

// ListPlans GET /payment-plans.
func (h *PaymentPlansHandler) ListPlans(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	limit, offset := parsePagination(c)
	filter := repository.PaymentPlanFilter{Limit: limit, Offset: offset}
	if userID := c.Query("user_id"); userID != "" {
		filter.UserID = &userID
	}
	plans, err := h.plans.ListPlans(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.PlanResponse, 0, len(plans))
	for i := range plans {
		items = append(items, planResponse(&plans[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetPlan GET /payment-plans/:id.
func (h *PaymentPlansHandler) GetPlan(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	plan, err := h.plans.GetPlan(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": planResponse(plan)})
}

// ListPlanPayments GET /payment-plans/:id/payments.
func (h *PaymentPlansHandler) ListPlanPayments(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	payments, err := h.ledger.ListPlanPayments(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.PaymentResponse, 0, len(payments))
	for i := range payments {
		items = append(items, paymentResponse(&payments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// RecordPlanPayment POST /payment-plans/:id/payments.
func (h *PaymentPlansHandler) RecordPlanPayment(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.CreatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	planID := c.Params("id")
	input := service.PaymentCreateInput{
		ClientID:      req.ClientID,
		PaymentPlanID: &planID,
		Amount:        req.Amount,
		Type:          req.Type,
		Status:        req.Status,
		Description:   req.Description,
	}
	if req.PaymentDate != nil {
		input.PaymentDate = *req.PaymentDate
	}
	payment, err := h.ledger.RecordPayment(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": paymentResponse(payment)})
}

// UpdatePlan PATCH /payment-plans/:id.
func (h *PaymentPlansHandler) UpdatePlan(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdatePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	plan, err := h.plans.UpdatePlan(c.UserContext(), actor, c.Params("id"), service.PlanUpdateInput{
		Name:            req.Name,
		Installments:    req.Installments,
		NextPaymentDate: req.NextPaymentDate,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": planResponse(plan)})
}

// DeletePlan DELETE /payment-plans/:id.
func (h *PaymentPlansHandler) DeletePlan(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	if err := h.plans.DeletePlan(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func planResponse(plan *domain.PaymentPlan) dto.PlanResponse {
	return dto.PlanResponse{
		ID:              plan.ID,
		UserID:          plan.UserID,
		Name:            plan.Name,
		TotalAmount:     plan.TotalAmount,
		RemainingAmount: plan.RemainingAmount,
		Installments:    plan.Installments,
		StartDate:       plan.StartDate,
		NextPaymentDate: plan.NextPaymentDate,
		Settled:         plan.Settled(),
		CreatedAt:       plan.CreatedAt,
		UpdatedAt:       plan.UpdatedAt,
	}
}
