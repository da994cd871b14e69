package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/backoffice-service/internal/domain"
	"github.com/spec-kit/backoffice-service/internal/policy"
	"github.com/spec-kit/backoffice-service/internal/repository"
	apperrors "github.com/spec-kit/backoffice-service/pkg/util"
)

// FinanceService manages operating expenses and company accounts. Every
// operation is gated by the finance policy, which only administrators
// pass.
type FinanceService struct {
	expenses repository.ExpenseRepository
	accounts repository.AccountRepository
	policies *policy.Engine
}

// FinanceDependencies bundles the collaborators for the finance service.
type FinanceDependencies struct {
	ExpenseRepo repository.ExpenseRepository
	AccountRepo repository.AccountRepository
	Policies    *policy.Engine
}

// NewFinanceService instantiates the finance service.
func NewFinanceService(deps FinanceDependencies) *FinanceService {
	return &FinanceService{
		expenses: deps.ExpenseRepo,
		accounts: deps.AccountRepo,
		policies: deps.Policies,
	}
}

// ExpenseInput describes an expense create or full update.
type ExpenseInput struct {
	Name        string
	Amount      float64
	Category    domain.ExpenseCategory
	IsRecurring bool
	DueDate     *time.Time
	PaidDate    *time.Time
}

// AccountInput describes an account create or full update.
type AccountInput struct {
	Name     string
	Type     domain.AccountType
	Balance  float64
	Currency string
}

func validExpenseCategory(c domain.ExpenseCategory) bool {
	switch c {
	case domain.ExpenseCategorySalaries, domain.ExpenseCategoryServices,
		domain.ExpenseCategorySoftware, domain.ExpenseCategoryMarketing,
		domain.ExpenseCategoryMaintenance, domain.ExpenseCategoryOther:
		return true
	}
	return false
}

func validAccountType(t domain.AccountType) bool {
	switch t {
	case domain.AccountTypeBank, domain.AccountTypeCrypto, domain.AccountTypeOther:
		return true
	}
	return false
}

func (s *FinanceService) authorize(actor domain.Actor, action policy.Action) error {
	if v := s.policies.ForActor(actor).Finance(action); !v.Allowed {
		return forbidden()
	}
	return nil
}

func validateExpense(input ExpenseInput) error {
	fieldErrors := map[string]any{}
	if strings.TrimSpace(input.Name) == "" {
		fieldErrors["name"] = "name is required"
	}
	if input.Amount <= 0 {
		fieldErrors["amount"] = "amount must be greater than zero"
	}
	if !validExpenseCategory(input.Category) {
		fieldErrors["category"] = fmt.Sprintf("unknown expense category %q", input.Category)
	}
	if len(fieldErrors) > 0 {
		return apperrors.NewValidationError("invalid expense payload", fieldErrors)
	}
	return nil
}

// CreateExpense records an operating expense.
func (s *FinanceService) CreateExpense(ctx context.Context, actor domain.Actor, input ExpenseInput) (*domain.Expense, error) {
	if err := s.authorize(actor, policy.ActionCreate); err != nil {
		return nil, err
	}
	if err := validateExpense(input); err != nil {
		return nil, err
	}
	expense := &domain.Expense{
		Name:        strings.TrimSpace(input.Name),
		Amount:      input.Amount,
		Category:    input.Category,
		IsRecurring: input.IsRecurring,
		DueDate:     input.DueDate,
		PaidDate:    input.PaidDate,
	}
	if err := s.expenses.Create(ctx, expense); err != nil {
		return nil, apperrors.MapError(err)
	}
	return expense, nil
}

// UpdateExpense replaces the expense's fields.
func (s *FinanceService) UpdateExpense(ctx context.Context, actor domain.Actor, id string, input ExpenseInput) (*domain.Expense, error) {
	if err := s.authorize(actor, policy.ActionUpdate); err != nil {
		return nil, err
	}
	expense, err := s.expenses.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "expense")
	}
	if err := validateExpense(input); err != nil {
		return nil, err
	}
	expense.Name = strings.TrimSpace(input.Name)
	expense.Amount = input.Amount
	expense.Category = input.Category
	expense.IsRecurring = input.IsRecurring
	expense.DueDate = input.DueDate
	expense.PaidDate = input.PaidDate
	if err := s.expenses.Update(ctx, expense); err != nil {
		return nil, apperrors.MapError(err)
	}
	return expense, nil
}

// DeleteExpense removes an expense entry.
func (s *FinanceService) DeleteExpense(ctx context.Context, actor domain.Actor, id string) error {
	if err := s.authorize(actor, policy.ActionDelete); err != nil {
		return err
	}
	if _, err := s.expenses.GetByID(ctx, id); err != nil {
		return notFoundOr(err, "expense")
	}
	if err := s.expenses.Delete(ctx, id); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// ListExpenses returns expenses, newest first.
func (s *FinanceService) ListExpenses(ctx context.Context, actor domain.Actor, limit, offset int) ([]domain.Expense, error) {
	if err := s.authorize(actor, policy.ActionList); err != nil {
		return nil, err
	}
	expenses, err := s.expenses.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return expenses, nil
}

// CreateAccount registers a company balance holder.
func (s *FinanceService) CreateAccount(ctx context.Context, actor domain.Actor, input AccountInput) (*domain.Account, error) {
	if err := s.authorize(actor, policy.ActionCreate); err != nil {
		return nil, err
	}
	fieldErrors := map[string]any{}
	if strings.TrimSpace(input.Name) == "" {
		fieldErrors["name"] = "name is required"
	}
	if !validAccountType(input.Type) {
		fieldErrors["type"] = fmt.Sprintf("unknown account type %q", input.Type)
	}
	if input.Currency == "" {
		input.Currency = "USD"
	}
	if len(fieldErrors) > 0 {
		return nil, apperrors.NewValidationError("invalid account payload", fieldErrors)
	}
	account := &domain.Account{
		Name:     strings.TrimSpace(input.Name),
		Type:     input.Type,
		Balance:  input.Balance,
		Currency: input.Currency,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, apperrors.MapError(err)
	}
	return account, nil
}

// UpdateAccount replaces the account's fields.
func (s *FinanceService) UpdateAccount(ctx context.Context, actor domain.Actor, id string, input AccountInput) (*domain.Account, error) {
	if err := s.authorize(actor, policy.ActionUpdate); err != nil {
		return nil, err
	}
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "account")
	}
	fieldErrors := map[string]any{}
	if strings.TrimSpace(input.Name) == "" {
		fieldErrors["name"] = "name is required"
	}
	if !validAccountType(input.Type) {
		fieldErrors["type"] = fmt.Sprintf("unknown account type %q", input.Type)
	}
	if len(fieldErrors) > 0 {
		return nil, apperrors.NewValidationError("invalid account payload", fieldErrors)
	}
	account.Name = strings.TrimSpace(input.Name)
	account.Type = input.Type
	account.Balance = input.Balance
	if input.Currency != "" {
		account.Currency = input.Currency
	}
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, apperrors.MapError(err)
	}
	return account, nil
}

// DeleteAccount removes an account record.
func (s *FinanceService) DeleteAccount(ctx context.Context, actor domain.Actor, id string) error {
	if err := s.authorize(actor, policy.ActionDelete); err != nil {
		return err
	}
	if _, err := s.accounts.GetByID(ctx, id); err != nil {
		return notFoundOr(err, "account")
	}
	if err := s.accounts.Delete(ctx, id); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// ListAccounts returns all company accounts.
func (s *FinanceService) ListAccounts(ctx context.Context, actor domain.Actor) ([]domain.Account, error) {
	if err := s.authorize(actor, policy.ActionList); err != nil {
		return nil, err
	}
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return accounts, nil
}
