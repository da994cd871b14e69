package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/backoffice-service/internal/domain"
)

// PaymentPlanFilter captures plan listing parameters.
type PaymentPlanFilter struct {
	UserID  *string
	UserIDs []string
	Limit   int
	Offset  int
}

// PaymentPlanRepository encapsulates payment plan persistence.
type PaymentPlanRepository interface {
	Create(ctx context.Context, plan *domain.PaymentPlan) error
	Update(ctx context.Context, plan *domain.PaymentPlan) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.PaymentPlan, error)
	// GetByIDForUpdate locks the plan row for the remainder of the ambient
	// transaction so concurrent balance decrements serialize.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.PaymentPlan, error)
	ListWithFilter(ctx context.Context, filter PaymentPlanFilter) ([]domain.PaymentPlan, error)
}

type paymentPlanRepository struct {
	db *DB
}

// NewPaymentPlanRepository instantiates repository.
func NewPaymentPlanRepository(db *DB) PaymentPlanRepository {
	return &paymentPlanRepository{db: db}
}

const planColumns = `id, user_id, name, total_amount, remaining_amount, installments,
               start_date, next_payment_date, created_at, updated_at`

func (r *paymentPlanRepository) Create(ctx context.Context, plan *domain.PaymentPlan) error {
	const query = `
        INSERT INTO payment_plans (user_id, name, total_amount, remaining_amount, installments, start_date, next_payment_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.db.querier(ctx).QueryRow(ctx, query,
		plan.UserID,
		plan.Name,
		plan.TotalAmount,
		plan.RemainingAmount,
		plan.Installments,
		plan.StartDate,
		plan.NextPaymentDate,
	).Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt)
}

func (r *paymentPlanRepository) Update(ctx context.Context, plan *domain.PaymentPlan) error {
	const query = `
        UPDATE payment_plans SET name=$1, total_amount=$2, remaining_amount=$3, installments=$4,
            start_date=$5, next_payment_date=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := r.db.querier(ctx).Exec(ctx, query,
		plan.Name,
		plan.TotalAmount,
		plan.RemainingAmount,
		plan.Installments,
		plan.StartDate,
		plan.NextPaymentDate,
		plan.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *paymentPlanRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.querier(ctx).Exec(ctx, `DELETE FROM payment_plans WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *paymentPlanRepository) GetByID(ctx context.Context, id string) (*domain.PaymentPlan, error) {
	return r.fetchSingle(ctx, `SELECT `+planColumns+` FROM payment_plans WHERE id=$1`, id)
}

func (r *paymentPlanRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.PaymentPlan, error) {
	return r.fetchSingle(ctx, `SELECT `+planColumns+` FROM payment_plans WHERE id=$1 FOR UPDATE`, id)
}

func (r *paymentPlanRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.PaymentPlan, error) {
	var plan domain.PaymentPlan
	if err := r.db.querier(ctx).QueryRow(ctx, query, arg).Scan(
		&plan.ID,
		&plan.UserID,
		&plan.Name,
		&plan.TotalAmount,
		&plan.RemainingAmount,
		&plan.Installments,
		&plan.StartDate,
		&plan.NextPaymentDate,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *paymentPlanRepository) ListWithFilter(ctx context.Context, filter PaymentPlanFilter) ([]domain.PaymentPlan, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id=$%d", len(args)))
	}
	if len(filter.UserIDs) > 0 {
		placeholders := make([]string, len(filter.UserIDs))
		for i, id := range filter.UserIDs {
			args = append(args, id)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("user_id IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM payment_plans WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		planColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.PaymentPlan
	for rows.Next() {
		var plan domain.PaymentPlan
		if err := rows.Scan(
			&plan.ID,
			&plan.UserID,
			&plan.Name,
			&plan.TotalAmount,
			&plan.RemainingAmount,
			&plan.Installments,
			&plan.StartDate,
			&plan.NextPaymentDate,
			&plan.CreatedAt,
			&plan.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, plan)
	}
	return result, rows.Err()
}
