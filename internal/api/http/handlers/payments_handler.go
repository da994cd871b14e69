package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/backoffice-service/internal/api/dto"
	"github.com/spec-kit/backoffice-service/internal/domain"
	"github.com/spec-kit/backoffice-service/internal/repository"
	"github.com/spec-kit/backoffice-service/internal/service"
	apperrors "github.com/spec-kit/backoffice-service/pkg/util"
)

// PaymentsHandler manages ledger endpoints.
type PaymentsHandler struct {
	service *service.LedgerService
}

// NewPaymentsHandler constructs handler.
func NewPaymentsHandler(ledgerService *service.LedgerService) *PaymentsHandler {
	return &PaymentsHandler{service: ledgerService}
}

// CreatePayment POST /payments.
func (h *PaymentsHandler) CreatePayment(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.CreatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input := service.PaymentCreateInput{
		ClientID:      req.ClientID,
		PaymentPlanID: req.PaymentPlanID,
		Amount:        req.Amount,
		Type:          req.Type,
		Status:        req.Status,
		Description:   req.Description,
	}
	if req.PaymentDate != nil {
		input.PaymentDate = *req.PaymentDate
	}
	payment, err := h.service.RecordPayment(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": paymentResponse(payment)})
}

// ListPayments GET /payments.
func (h *PaymentsHandler) ListPayments(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	payments, err := h.service.ListPayments(c.UserContext(), actor, parsePaymentFilter(c))
	if err != nil {
		return err
	}
	items := make([]dto.PaymentResponse, 0, len(payments))
	for i := range payments {
		items = append(items, paymentResponse(&payments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetPayment GET /payments/:id.
func (h *PaymentsHandler) GetPayment(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	payment, err := h.service.GetPayment(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": paymentResponse(payment)})
}

// UpdatePayment PATCH /payments/:id.
func (h *PaymentsHandler) UpdatePayment(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	payment, err := h.service.UpdatePayment(c.UserContext(), actor, c.Params("id"), service.PaymentUpdateInput{
		Amount:      req.Amount,
		Status:      req.Status,
		PaymentDate: req.PaymentDate,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": paymentResponse(payment)})
}

// DeletePayment DELETE /payments/:id.
func (h *PaymentsHandler) DeletePayment(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	if err := h.service.DeletePayment(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parsePaymentFilter(c *fiber.Ctx) repository.PaymentFilter {
	limit, offset := parsePagination(c)
	filter := repository.PaymentFilter{Limit: limit, Offset: offset}
	if clientID := c.Query("client_id"); clientID != "" {
		filter.ClientID = &clientID
	}
	if planID := c.Query("payment_plan_id"); planID != "" {
		filter.PaymentPlanID = &planID
	}
	if status := c.Query("status"); status != "" {
		filter.Statuses = []domain.PaymentStatus{domain.PaymentStatus(status)}
	}
	if paymentType := c.Query("type"); paymentType != "" {
		filter.Types = []domain.PaymentType{domain.PaymentType(paymentType)}
	}
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			filter.From = &t
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			filter.To = &t
		}
	}
	return filter
}

func paymentResponse(payment *domain.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:            payment.ID,
		ReceiptKey:    payment.ReceiptKey,
		ClientID:      payment.ClientID,
		PaymentPlanID: payment.PaymentPlanID,
		Amount:        payment.Amount,
		Type:          payment.Type,
		Status:        payment.Status,
		PaymentDate:   payment.PaymentDate,
		Description:   payment.Description,
		CreatedAt:     payment.CreatedAt,
		UpdatedAt:     payment.UpdatedAt,
	}
}
