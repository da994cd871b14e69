package domain

import "time"

// PaymentPlan is an installment financing record. RemainingAmount only
// decreases, driven exclusively by payments transitioning to COMPLETED,
// and is always within [0, TotalAmount].
type PaymentPlan struct {
	ID              string
	UserID          string
	Name            string
	TotalAmount     float64
	RemainingAmount float64
	Installments    int
	StartDate       time.Time
	NextPaymentDate time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Settled reports whether the plan is fully paid.
func (p *PaymentPlan) Settled() bool {
	return p.RemainingAmount <= 0
}
