package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/backoffice-service/internal/domain"
)

// ExpenseRepository encapsulates expense persistence.
type ExpenseRepository interface {
	Create(ctx context.Context, expense *domain.Expense) error
	Update(ctx context.Context, expense *domain.Expense) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Expense, error)
	List(ctx context.Context, limit, offset int) ([]domain.Expense, error)
}

type expenseRepository struct {
	db *DB
}

// NewExpenseRepository instantiates repository.
func NewExpenseRepository(db *DB) ExpenseRepository {
	return &expenseRepository{db: db}
}

const expenseColumns = `id, name, amount, category, is_recurring, due_date, paid_date, created_at, updated_at`

func (r *expenseRepository) Create(ctx context.Context, expense *domain.Expense) error {
	const query = `
        INSERT INTO expenses (name, amount, category, is_recurring, due_date, paid_date)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.db.querier(ctx).QueryRow(ctx, query,
		expense.Name,
		expense.Amount,
		expense.Category,
		expense.IsRecurring,
		expense.DueDate,
		expense.PaidDate,
	).Scan(&expense.ID, &expense.CreatedAt, &expense.UpdatedAt)
}

func (r *expenseRepository) Update(ctx context.Context, expense *domain.Expense) error {
	const query = `
        UPDATE expenses SET name=$1, amount=$2, category=$3, is_recurring=$4, due_date=$5, paid_date=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := r.db.querier(ctx).Exec(ctx, query,
		expense.Name,
		expense.Amount,
		expense.Category,
		expense.IsRecurring,
		expense.DueDate,
		expense.PaidDate,
		expense.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *expenseRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.querier(ctx).Exec(ctx, `DELETE FROM expenses WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *expenseRepository) GetByID(ctx context.Context, id string) (*domain.Expense, error) {
	const query = `SELECT ` + expenseColumns + ` FROM expenses WHERE id=$1`
	var expense domain.Expense
	if err := r.db.querier(ctx).QueryRow(ctx, query, id).Scan(
		&expense.ID,
		&expense.Name,
		&expense.Amount,
		&expense.Category,
		&expense.IsRecurring,
		&expense.DueDate,
		&expense.PaidDate,
		&expense.CreatedAt,
		&expense.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *expenseRepository) List(ctx context.Context, limit, offset int) ([]domain.Expense, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `SELECT ` + expenseColumns + ` FROM expenses ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.querier(ctx).Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Expense
	for rows.Next() {
		var expense domain.Expense
		if err := rows.Scan(
			&expense.ID,
			&expense.Name,
			&expense.Amount,
			&expense.Category,
			&expense.IsRecurring,
			&expense.DueDate,
			&expense.PaidDate,
			&expense.CreatedAt,
			&expense.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, expense)
	}
	return result, rows.Err()
}
