package domain

import "time"

// PaymentType identifies what a payment funds.
type PaymentType string

const (
	PaymentTypeSubscription        PaymentType = "SUBSCRIPTION"
	PaymentTypePaymentPlan         PaymentType = "PAYMENT_PLAN"
	PaymentTypeCapitalContribution PaymentType = "CAPITAL_CONTRIBUTION"
)

// PaymentStatus enumerates payment settlement states.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// Payment is an append-only ledger entry. ClientID references the client
// row; PaymentPlanID, when set, ties the payment to the plan it funds.
type Payment struct {
	ID            string
	ReceiptKey    string
	ClientID      string
	PaymentPlanID *string
	Amount        float64
	Type          PaymentType
	Status        PaymentStatus
	PaymentDate   time.Time
	Description   *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
