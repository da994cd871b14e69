package dto

import (
	"time"

	"github.com/spec-kit/backoffice-service/internal/domain"
)

// ExpenseRequest payload for create and update.
type ExpenseRequest struct {
	Name        string                 `json:"name"`
	Amount      float64                `json:"amount"`
	Category    domain.ExpenseCategory `json:"category"`
	IsRecurring bool                   `json:"is_recurring"`
	DueDate     *time.Time             `json:"due_date"`
	PaidDate    *time.Time             `json:"paid_date"`
}

// ExpenseResponse response.
type ExpenseResponse struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Amount      float64                `json:"amount"`
	Category    domain.ExpenseCategory `json:"category"`
	IsRecurring bool                   `json:"is_recurring"`
	DueDate     *time.Time             `json:"due_date"`
	PaidDate    *time.Time             `json:"paid_date"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// AccountRequest payload for create and update.
type AccountRequest struct {
	Name     string             `json:"name"`
	Type     domain.AccountType `json:"type"`
	Balance  float64            `json:"balance"`
	Currency string             `json:"currency"`
}

// AccountResponse response.
type AccountResponse struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Type      domain.AccountType `json:"type"`
	Balance   float64            `json:"balance"`
	Currency  string             `json:"currency"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}
