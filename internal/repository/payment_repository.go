package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/backoffice-service/internal/domain"
)

// PaymentFilter captures payment listing parameters.
type PaymentFilter struct {
	ClientID      *string
	ClientIDs     []string
	PaymentPlanID *string
	Statuses      []domain.PaymentStatus
	Types         []domain.PaymentType
	From          *time.Time
	To            *time.Time
	Limit         int
	Offset        int
}

// PaymentRepository encapsulates payment persistence.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	Update(ctx context.Context, payment *domain.Payment) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	ListWithFilter(ctx context.Context, filter PaymentFilter) ([]domain.Payment, error)
	CountByPlan(ctx context.Context, planID string) (int64, error)
}

type paymentRepository struct {
	db *DB
}

// NewPaymentRepository instantiates repository.
func NewPaymentRepository(db *DB) PaymentRepository {
	return &paymentRepository{db: db}
}

const paymentColumns = `id, receipt_key, client_id, payment_plan_id, amount, type, status,
               payment_date, description, created_at, updated_at`

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	const query = `
        INSERT INTO payments (receipt_key, client_id, payment_plan_id, amount, type, status, payment_date, description)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.db.querier(ctx).QueryRow(ctx, query,
		payment.ReceiptKey,
		payment.ClientID,
		payment.PaymentPlanID,
		payment.Amount,
		payment.Type,
		payment.Status,
		payment.PaymentDate,
		payment.Description,
	).Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)
}

func (r *paymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	const query = `
        UPDATE payments SET amount=$1, status=$2, payment_date=$3, description=$4, updated_at=NOW()
        WHERE id=$5`
	cmd, err := r.db.querier(ctx).Exec(ctx, query,
		payment.Amount,
		payment.Status,
		payment.PaymentDate,
		payment.Description,
		payment.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *paymentRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.querier(ctx).Exec(ctx, `DELETE FROM payments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	const query = `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1`
	var payment domain.Payment
	if err := r.db.querier(ctx).QueryRow(ctx, query, id).Scan(
		&payment.ID,
		&payment.ReceiptKey,
		&payment.ClientID,
		&payment.PaymentPlanID,
		&payment.Amount,
		&payment.Type,
		&payment.Status,
		&payment.PaymentDate,
		&payment.Description,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) CountByPlan(ctx context.Context, planID string) (int64, error) {
	var count int64
	err := r.db.querier(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM payments WHERE payment_plan_id=$1`, planID).Scan(&count)
	return count, err
}

func (r *paymentRepository) ListWithFilter(ctx context.Context, filter PaymentFilter) ([]domain.Payment, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		clauses = append(clauses, fmt.Sprintf("client_id=$%d", len(args)))
	}
	if len(filter.ClientIDs) > 0 {
		placeholders := make([]string, len(filter.ClientIDs))
		for i, id := range filter.ClientIDs {
			args = append(args, id)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("client_id IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.PaymentPlanID != nil {
		args = append(args, *filter.PaymentPlanID)
		clauses = append(clauses, fmt.Sprintf("payment_plan_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Types) > 0 {
		placeholders := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			args = append(args, t)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("type IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		clauses = append(clauses, fmt.Sprintf("payment_date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		clauses = append(clauses, fmt.Sprintf("payment_date <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM payments WHERE %s ORDER BY payment_date DESC LIMIT %d OFFSET %d`,
		paymentColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPayments(rows)
}

func scanPayments(rows pgx.Rows) ([]domain.Payment, error) {
	var result []domain.Payment
	for rows.Next() {
		var payment domain.Payment
		if err := rows.Scan(
			&payment.ID,
			&payment.ReceiptKey,
			&payment.ClientID,
			&payment.PaymentPlanID,
			&payment.Amount,
			&payment.Type,
			&payment.Status,
			&payment.PaymentDate,
			&payment.Description,
			&payment.CreatedAt,
			&payment.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, payment)
	}
	return result, rows.Err()
}
