package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/backoffice-service/internal/api/dto"
	"github.com/spec-kit/backoffice-service/internal/domain"
	"github.com/spec-kit/backoffice-service/internal/service"
	apperrors "github.com/spec-kit/backoffice-service/pkg/util"
)

// FinanceHandler manages expense and account endpoints.
type FinanceHandler struct {
	service *service.FinanceService
}

// NewFinanceHandler constructs handler.
func NewFinanceHandler(financeService *service.FinanceService) *FinanceHandler {
	return &FinanceHandler{service: financeService}
}

// CreateExpense POST /finance/expenses.
func (h *FinanceHandler) CreateExpense(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.ExpenseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	expense, err := h.service.CreateExpense(c.UserContext(), actor, expenseInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": expenseResponse(expense)})
}

// ListExpenses GET /finance/expenses.
func (h *FinanceHandler) ListExpenses(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	limit, offset := parsePagination(c)
	expenses, err := h.service.ListExpenses(c.UserContext(), actor, limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.ExpenseResponse, 0, len(expenses))
	for i := range expenses {
		items = append(items, expenseResponse(&expenses[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateExpense PUT /finance/expenses/:id.
func (h *FinanceHandler) UpdateExpense(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.ExpenseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	expense, err := h.service.UpdateExpense(c.UserContext(), actor, c.Params("id"), expenseInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": expenseResponse(expense)})
}

// DeleteExpense DELETE /finance/expenses/:id.
func (h *FinanceHandler) DeleteExpense(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteExpense(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// CreateAccount POST /finance/accounts.
func (h *FinanceHandler) CreateAccount(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.AccountRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	account, err := h.service.CreateAccount(c.UserContext(), actor, accountInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": accountResponse(account)})
}

// ListAccounts GET /finance/accounts.
func (h *FinanceHandler) ListAccounts(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	accounts, err := h.service.ListAccounts(c.UserContext(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.AccountResponse, 0, len(accounts))
	for i := range accounts {
		items = append(items, accountResponse(&accounts[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateAccount PUT /finance/accounts/:id.
func (h *FinanceHandler) UpdateAccount(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.AccountRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	account, err := h.service.UpdateAccount(c.UserContext(), actor, c.Params("id"), accountInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": accountResponse(account)})
}

// DeleteAccount DELETE /finance/accounts/:id.
func (h *FinanceHandler) DeleteAccount(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteAccount(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func expenseInput(req dto.ExpenseRequest) service.ExpenseInput {
	return service.ExpenseInput{
		Name:        req.Name,
		Amount:      req.Amount,
		Category:    req.Category,
		IsRecurring: req.IsRecurring,
		DueDate:     req.DueDate,
		PaidDate:    req.PaidDate,
	}
}

func accountInput(req dto.AccountRequest) service.AccountInput {
	return service.AccountInput{
		Name:     req.Name,
		Type:     req.Type,
		Balance:  req.Balance,
		Currency: req.Currency,
	}
}

func expenseResponse(expense *domain.Expense) dto.ExpenseResponse {
	return dto.ExpenseResponse{
		ID:          expense.ID,
		Name:        expense.Name,
		Amount:      expense.Amount,
		Category:    expense.Category,
		IsRecurring: expense.IsRecurring,
		DueDate:     expense.DueDate,
		PaidDate:    expense.PaidDate,
		CreatedAt:   expense.CreatedAt,
		UpdatedAt:   expense.UpdatedAt,
	}
}

func accountResponse(account *domain.Account) dto.AccountResponse {
	return dto.AccountResponse{
		ID:        account.ID,
		Name:      account.Name,
		Type:      account.Type,
		Balance:   account.Balance,
		Currency:  account.Currency,
		CreatedAt: account.CreatedAt,
		UpdatedAt: account.UpdatedAt,
	}
}
