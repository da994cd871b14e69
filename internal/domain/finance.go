package domain

import "time"

// ExpenseCategory buckets operating expenses.
type ExpenseCategory string

const (
	ExpenseCategorySalaries    ExpenseCategory = "SALARIES"
	ExpenseCategoryServices    ExpenseCategory = "SERVICES"
	ExpenseCategorySoftware    ExpenseCategory = "SOFTWARE"
	ExpenseCategoryMarketing   ExpenseCategory = "MARKETING"
	ExpenseCategoryMaintenance ExpenseCategory = "MAINTENANCE"
	ExpenseCategoryOther       ExpenseCategory = "OTHER"
)

// Expense is an operating cost entry, visible to administrators only.
type Expense struct {
	ID          string
	Name        string
	Amount      float64
	Category    ExpenseCategory
	IsRecurring bool
	DueDate     *time.Time
	PaidDate    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AccountType enumerates where company funds are held.
type AccountType string

const (
	AccountTypeBank   AccountType = "BANK"
	AccountTypeCrypto AccountType = "CRYPTO"
	AccountTypeOther  AccountType = "OTHER"
)

// Account is a company balance holder, administrators only.
type Account struct {
	ID        string
	Name      string
	Type      AccountType
	Balance   float64
	Currency  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
