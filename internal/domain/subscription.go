package domain

import "time"

// SubscriptionType enumerates billing cadences.
type SubscriptionType string

const (
	SubscriptionTypeMonthly SubscriptionType = "MONTHLY"
	SubscriptionTypeAnnual  SubscriptionType = "ANNUAL"
	SubscriptionTypeCustom  SubscriptionType = "CUSTOM"
)

// SubscriptionStatus enumerates subscription states.
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "ACTIVE"
	SubscriptionStatusOverdue   SubscriptionStatus = "OVERDUE"
	SubscriptionStatusCancelled SubscriptionStatus = "CANCELLED"
	SubscriptionStatusPaused    SubscriptionStatus = "PAUSED"
)

// Subscription is a recurring service charged to a client's user account.
type Subscription struct {
	ID        string
	UserID    string
	Type      SubscriptionType
	Status    SubscriptionStatus
	Price     float64
	StartDate time.Time
	EndDate   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
