package dto

import (
	"time"

	"github.com/spec-kit/backoffice-service/internal/domain"
)

// CreateClientRequest payload.
type CreateClientRequest struct {
	Name     string              `json:"name"`
	Email    string              `json:"email"`
	Password string              `json:"password,omitempty"`
	AgentID  *string             `json:"agent_id"`
	Status   domain.ClientStatus `json:"status"`
}

// UpdateClientRequest payload.
type UpdateClientRequest struct {
	Name    *string              `json:"name"`
	Email   *string              `json:"email"`
	Status  *domain.ClientStatus `json:"status"`
	AgentID NullableString       `json:"agent_id"`
}

// ClientSummary response.
type ClientSummary struct {
	ID            string              `json:"id"`
	ReferenceCode string              `json:"reference_code"`
	Name          string              `json:"name"`
	Email         string              `json:"email"`
	Status        domain.ClientStatus `json:"status"`
	AgentID       *string             `json:"agent_id"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// ClientDetailResponse is the enriched client view.
type ClientDetailResponse struct {
	ClientSummary
	Owner         *UserResponse          `json:"owner,omitempty"`
	Subscriptions []SubscriptionResponse `json:"subscriptions"`
	Tickets       []TicketDetailResponse `json:"tickets"`
	Payments      []PaymentResponse      `json:"payments,omitempty"`
}
