package events

import (
	"time"

	"github.com/spec-kit/backoffice-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventClientCreated        EventType = "client_created"
	EventTicketCreated        EventType = "ticket_created"
	EventTicketUpdated        EventType = "ticket_updated"
	EventTicketNoteAdded      EventType = "ticket_note_added"
	EventPaymentRecorded      EventType = "payment_recorded"
	EventPaymentStatusChanged EventType = "payment_status_changed"
	EventPlanSettled          EventType = "plan_settled"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID   string      `json:"id"`
	Role domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Subject   string      `json:"subject"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ClientCreatedPayload payload.
type ClientCreatedPayload struct {
	ClientID      string  `json:"client_id"`
	ReferenceCode string  `json:"reference_code"`
	AgentID       *string `json:"agent_id,omitempty"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ClientID string                `json:"client_id"`
	Priority domain.TicketPriority `json:"priority"`
	Title    string                `json:"title"`
}

// TicketUpdatedPayload payload.
type TicketUpdatedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Fields    []string            `json:"fields,omitempty"`
}

// TicketNoteAddedPayload payload.
type TicketNoteAddedPayload struct {
	NoteID     string `json:"note_id"`
	IsInternal bool   `json:"is_internal"`
	Preview    string `json:"preview"`
}

// PaymentRecordedPayload payload.
type PaymentRecordedPayload struct {
	PaymentID     string               `json:"payment_id"`
	ClientID      string               `json:"client_id"`
	PaymentPlanID *string              `json:"payment_plan_id,omitempty"`
	Amount        float64              `json:"amount"`
	Status        domain.PaymentStatus `json:"status"`
}

// PaymentStatusChangedPayload payload.
type PaymentStatusChangedPayload struct {
	PaymentID string               `json:"payment_id"`
	OldStatus domain.PaymentStatus `json:"old_status"`
	NewStatus domain.PaymentStatus `json:"new_status"`
}

// PlanSettledPayload payload.
type PlanSettledPayload struct {
	PlanID string `json:"plan_id"`
	UserID string `json:"user_id"`
}
