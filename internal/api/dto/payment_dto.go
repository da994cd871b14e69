package dto

import (
	"time"

	"github.com/spec-kit/backoffice-service/internal/domain"
)

// CreatePaymentRequest payload.
type CreatePaymentRequest struct {
	ClientID      string               `json:"client_id"`
	PaymentPlanID *string              `json:"payment_plan_id"`
	Amount        float64              `json:"amount"`
	Type          domain.PaymentType   `json:"type"`
	Status        domain.PaymentStatus `json:"status"`
	PaymentDate   *time.Time           `json:"payment_date"`
	Description   *string              `json:"description"`
}

// UpdatePaymentRequest payload.
type UpdatePaymentRequest struct {
	Amount      *float64              `json:"amount"`
	Status      *domain.PaymentStatus `json:"status"`
	PaymentDate *time.Time            `json:"payment_date"`
	Description *string               `json:"description"`
}

// PaymentResponse response.
type PaymentResponse struct {
	ID            string               `json:"id"`
	ReceiptKey    string               `json:"receipt_key"`
	ClientID      string               `json:"client_id"`
	PaymentPlanID *string              `json:"payment_plan_id"`
	Amount        float64              `json:"amount"`
	Type          domain.PaymentType   `json:"type"`
	Status        domain.PaymentStatus `json:"status"`
	PaymentDate   time.Time            `json:"payment_date"`
	Description   *string              `json:"description"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// CreatePlanRequest payload.
type CreatePlanRequest struct {
	UserID       string     `json:"user_id"`
	Name         string     `json:"name"`
	TotalAmount  float64    `json:"total_amount"`
	Installments int        `json:"installments"`
	StartDate    *time.Time `json:"start_date"`
}

// UpdatePlanRequest payload.
type UpdatePlanRequest struct {
	Name            *string    `json:"name"`
	Installments    *int       `json:"installments"`
	NextPaymentDate *time.Time `json:"next_payment_date"`
}

// PlanResponse response.
type PlanResponse struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Name            string    `json:"name"`
	TotalAmount     float64   `json:"total_amount"`
	RemainingAmount float64   `json:"remaining_amount"`
	Installments    int       `json:"installments"`
	StartDate       time.Time `json:"start_date"`
	NextPaymentDate time.Time `json:"next_payment_date"`
	Settled         bool      `json:"settled"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
