package dto

import (
	"time"

	"github.com/spec-kit/backoffice-service/internal/domain"
)

// CreateTicketRequest payload. ClientID is honored for staff callers
// only; clients always file for themselves.
type CreateTicketRequest struct {
	ClientID        string                `json:"client_id"`
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	Priority        domain.TicketPriority `json:"priority"`
	AssignedAgentID *string               `json:"assigned_agent_id"`
	AssignedTechID  *string               `json:"assigned_tech_id"`
}

// UpdateTicketRequest payload. Fields outside the caller's permitted set
// are dropped silently.
type UpdateTicketRequest struct {
	Title           *string                `json:"title"`
	Description     *string                `json:"description"`
	Priority        *domain.TicketPriority `json:"priority"`
	Status          *domain.TicketStatus   `json:"status"`
	AssignedAgentID NullableString         `json:"assigned_agent_id"`
	AssignedTechID  NullableString         `json:"assigned_tech_id"`
}

// TicketSummary response.
type TicketSummary struct {
	ID              string                `json:"id"`
	ExternalKey     string                `json:"external_key"`
	ClientID        string                `json:"client_id"`
	AssignedAgentID *string               `json:"assigned_agent_id"`
	AssignedTechID  *string               `json:"assigned_tech_id"`
	Title           string                `json:"title"`
	Status          domain.TicketStatus   `json:"status"`
	Priority        domain.TicketPriority `json:"priority"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info with visible notes.
type TicketDetailResponse struct {
	TicketSummary
	Description string               `json:"description"`
	Notes       []TicketNoteResponse `json:"notes"`
}

// TicketNoteResponse represents a note on a ticket.
type TicketNoteResponse struct {
	ID         string    `json:"id"`
	AuthorID   *string   `json:"author_id"`
	Content    string    `json:"content"`
	IsInternal bool      `json:"is_internal"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateNoteRequest payload.
type CreateNoteRequest struct {
	Content    string `json:"content"`
	IsInternal bool   `json:"is_internal"`
}
