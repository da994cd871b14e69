package domain

import "time"

// ClientStatus enumerates commercial states of a client.
type ClientStatus string

const (
	ClientStatusActive     ClientStatus = "ACTIVE"
	ClientStatusInactive   ClientStatus = "INACTIVE"
	ClientStatusDelinquent ClientStatus = "DELINQUENT"
	ClientStatusCancelled  ClientStatus = "CANCELLED"
)

// Client is a billed customer. Each client is owned by exactly one user
// account and may be assigned to one agent's book.
type Client struct {
	ID            string
	ReferenceCode string
	OwnerUserID   string
	AgentID       *string
	Name          string
	Email         string
	Status        ClientStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
