package dto

import (
	"time"

	"github.com/spec-kit/backoffice-service/internal/domain"
)

// CreateSubscriptionRequest payload.
type CreateSubscriptionRequest struct {
	UserID    string                  `json:"user_id"`
	Type      domain.SubscriptionType `json:"type"`
	Price     float64                 `json:"price"`
	StartDate *time.Time              `json:"start_date"`
	EndDate   *time.Time              `json:"end_date"`
}

// UpdateSubscriptionRequest payload.
type UpdateSubscriptionRequest struct {
	Type    *domain.SubscriptionType   `json:"type"`
	Status  *domain.SubscriptionStatus `json:"status"`
	Price   *float64                   `json:"price"`
	EndDate *time.Time                 `json:"end_date"`
}

// SubscriptionResponse response.
type SubscriptionResponse struct {
	ID        string                    `json:"id"`
	UserID    string                    `json:"user_id"`
	Type      domain.SubscriptionType   `json:"type"`
	Status    domain.SubscriptionStatus `json:"status"`
	Price     float64                   `json:"price"`
	StartDate time.Time                 `json:"start_date"`
	EndDate   *time.Time                `json:"end_date"`
	CreatedAt time.Time                 `json:"created_at"`
	UpdatedAt time.Time                 `json:"updated_at"`
}
