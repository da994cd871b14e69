package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen          TicketStatus = "OPEN"
	TicketStatusAssigned      TicketStatus = "ASSIGNED"
	TicketStatusInProgress    TicketStatus = "IN_PROGRESS"
	TicketStatusWaitingClient TicketStatus = "WAITING_CLIENT"
	TicketStatusResolved      TicketStatus = "RESOLVED"
	TicketStatusClosed        TicketStatus = "CLOSED"
)

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Ticket is the aggregate for support requests. ClientID carries the id of
// the client's owning user account; agent and technician assignments are
// optional and independent of each other.
type Ticket struct {
	ID              string
	ExternalKey     string
	ClientID        string
	AssignedAgentID *string
	AssignedTechID  *string
	Title           string
	Description     string
	Status          TicketStatus
	Priority        TicketPriority
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TicketNote is an annotation on a ticket. Internal notes are visible to
// staff roles only and must never reach the client.
type TicketNote struct {
	ID         string
	TicketID   string
	AuthorID   *string
	Content    string
	IsInternal bool
	CreatedAt  time.Time
}
