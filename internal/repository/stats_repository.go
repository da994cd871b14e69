package repository

import (
	"context"
	"time"

	"github.com/spec-kit/backoffice-service/internal/domain"
)

// StatsRepository aggregates dashboard figures. Passing a non-nil agentID
// narrows every figure to that agent's client book.
type StatsRepository interface {
	ClientCounts(ctx context.Context, agentID *string) (map[domain.ClientStatus]int64, error)
	OpenTicketCount(ctx context.Context, agentID *string) (int64, error)
	OutstandingPlanBalance(ctx context.Context, agentID *string) (float64, error)
	CompletedPaymentTotal(ctx context.Context, since time.Time, agentID *string) (float64, error)
	ExpenseTotal(ctx context.Context, since time.Time) (float64, error)
}

type statsRepository struct {
	db *DB
}

// NewStatsRepository instantiates repository.
func NewStatsRepository(db *DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) ClientCounts(ctx context.Context, agentID *string) (map[domain.ClientStatus]int64, error) {
	query := `SELECT status, COUNT(*) FROM clients`
	args := []any{}
	if agentID != nil {
		query += ` WHERE agent_id=$1`
		args = append(args, *agentID)
	}
	query += ` GROUP BY status`

	rows, err := r.db.querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.ClientStatus]int64)
	for rows.Next() {
		var status domain.ClientStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *statsRepository) OpenTicketCount(ctx context.Context, agentID *string) (int64, error) {
	query := `SELECT COUNT(*) FROM tickets WHERE status NOT IN ('RESOLVED','CLOSED')`
	args := []any{}
	if agentID != nil {
		query += ` AND (assigned_agent_id=$1 OR assigned_agent_id IS NULL)`
		args = append(args, *agentID)
	}
	var count int64
	err := r.db.querier(ctx).QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

func (r *statsRepository) OutstandingPlanBalance(ctx context.Context, agentID *string) (float64, error) {
	query := `SELECT COALESCE(SUM(p.remaining_amount), 0) FROM payment_plans p`
	args := []any{}
	if agentID != nil {
		query += ` JOIN clients c ON c.owner_user_id = p.user_id WHERE c.agent_id=$1`
		args = append(args, *agentID)
	}
	var total float64
	err := r.db.querier(ctx).QueryRow(ctx, query, args...).Scan(&total)
	return total, err
}

func (r *statsRepository) CompletedPaymentTotal(ctx context.Context, since time.Time, agentID *string) (float64, error) {
	query := `SELECT COALESCE(SUM(p.amount), 0) FROM payments p WHERE p.status='COMPLETED' AND p.payment_date >= $1`
	args := []any{since}
	if agentID != nil {
		query = `SELECT COALESCE(SUM(p.amount), 0) FROM payments p
                 JOIN clients c ON c.id = p.client_id
                 WHERE p.status='COMPLETED' AND p.payment_date >= $1 AND c.agent_id=$2`
		args = append(args, *agentID)
	}
	var total float64
	err := r.db.querier(ctx).QueryRow(ctx, query, args...).Scan(&total)
	return total, err
}

func (r *statsRepository) ExpenseTotal(ctx context.Context, since time.Time) (float64, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE created_at >= $1`
	var total float64
	err := r.db.querier(ctx).QueryRow(ctx, query, since).Scan(&total)
	return total, err
}
