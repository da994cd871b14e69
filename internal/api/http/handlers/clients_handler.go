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

// ClientsHandler manages client endpoints.
type ClientsHandler struct {
	service *service.ClientService
}

// NewClientsHandler constructs handler.
func NewClientsHandler(clientService *service.ClientService) *ClientsHandler {
	return &ClientsHandler{service: clientService}
}

// CreateClient POST /clients.
func (h *ClientsHandler) CreateClient(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateClientRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	detail, err := h.service.CreateClient(c.UserContext(), actor, service.ClientCreateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		AgentID:  req.AgentID,
		Status:   req.Status,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": clientDetailResponse(detail)})
}

// ListClients GET /clients.
func (h *ClientsHandler) ListClients(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	limit, offset := parsePagination(c)
	filter := repository.ClientFilter{Limit: limit, Offset: offset}
	if status := c.Query("status"); status != "" {
		filter.Statuses = []domain.ClientStatus{domain.ClientStatus(status)}
	}
	clients, err := h.service.ListClients(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.ClientSummary, 0, len(clients))
	for i := range clients {
		items = append(items, clientSummary(&clients[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetClient GET /clients/:id.
func (h *ClientsHandler) GetClient(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	detail, err := h.service.GetClient(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": clientDetailResponse(detail)})
}

// GetOwnClient GET /clients/me.
func (h *ClientsHandler) GetOwnClient(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	detail, err := h.service.GetOwnClient(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": clientDetailResponse(detail)})
}

// UpdateClient PATCH /clients/:id.
func (h *ClientsHandler) UpdateClient(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateClientRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	client, err := h.service.UpdateClient(c.UserContext(), actor, c.Params("id"), service.ClientUpdateInput{
		Name:   req.Name,
		Email:  req.Email,
		Status: req.Status,
		AgentID: service.OptionalString{
			Set:   req.AgentID.Set,
			Value: req.AgentID.Value,
		},
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": clientSummary(client)})
}

// DeleteClient DELETE /clients/:id.
func (h *ClientsHandler) DeleteClient(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteClient(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func clientSummary(client *domain.Client) dto.ClientSummary {
	return dto.ClientSummary{
		ID:            client.ID,
		ReferenceCode: client.ReferenceCode,
		Name:          client.Name,
		Email:         client.Email,
		Status:        client.Status,
		AgentID:       client.AgentID,
		CreatedAt:     client.CreatedAt,
		UpdatedAt:     client.UpdatedAt,
	}
}

func clientDetailResponse(detail *service.ClientDetail) dto.ClientDetailResponse {
	resp := dto.ClientDetailResponse{
		ClientSummary: clientSummary(&detail.Client),
		Subscriptions: make([]dto.SubscriptionResponse, 0, len(detail.Subscriptions)),
		Tickets:       make([]dto.TicketDetailResponse, 0, len(detail.Tickets)),
	}
	if detail.Owner != nil {
		owner := userResponse(detail.Owner)
		resp.Owner = &owner
	}
	for i := range detail.Subscriptions {
		resp.Subscriptions = append(resp.Subscriptions, subscriptionResponse(&detail.Subscriptions[i]))
	}
	for i := range detail.Tickets {
		resp.Tickets = append(resp.Tickets, ticketDetailResponse(&detail.Tickets[i]))
	}
	for i := range detail.Payments {
		resp.Payments = append(resp.Payments, paymentResponse(&detail.Payments[i]))
	}
	return resp
}
