package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/tax-backoffice/internal/domain"
)

// QueryRepository persists customer queries, employee replies and feedback.
type QueryRepository interface {
	CreateQuery(ctx context.Context, query *domain.CustomerQuery) error
	GetQueryByID(ctx context.Context, id string) (*domain.CustomerQuery, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.CustomerQuery, error)
	SetReply(ctx context.Context, queryID string, reply domain.QueryReply) error
	CreateFeedback(ctx context.Context, feedback *domain.Feedback) error
}

type queryRepository struct {
	pool *pgxpool.Pool
}

// NewQueryRepository constructs repository.
func NewQueryRepository(pool *pgxpool.Pool) QueryRepository {
	return &queryRepository{pool: pool}
}

func (r *queryRepository) CreateQuery(ctx context.Context, query *domain.CustomerQuery) error {
	const stmt = `
        INSERT INTO customer_queries (customer_id, service_id, subject, body)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, stmt,
		query.CustomerID,
		query.ServiceID,
		query.Subject,
		query.Body,
	).Scan(&query.ID, &query.CreatedAt)
}

func (r *queryRepository) GetQueryByID(ctx context.Context, id string) (*domain.CustomerQuery, error) {
	const stmt = `
        SELECT id, customer_id, service_id, subject, body, reply, created_at
        FROM customer_queries WHERE id=$1`
	var (
		query domain.CustomerQuery
		reply []byte
	)
	if err := r.pool.QueryRow(ctx, stmt, id).Scan(
		&query.ID,
		&query.CustomerID,
		&query.ServiceID,
		&query.Subject,
		&query.Body,
		&reply,
		&query.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(reply) > 0 {
		query.Reply = &domain.QueryReply{}
		if err := json.Unmarshal(reply, query.Reply); err != nil {
			return nil, err
		}
	}
	return &query, nil
}

func (r *queryRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.CustomerQuery, error) {
	const stmt = `
        SELECT id, customer_id, service_id, subject, body, reply, created_at
        FROM customer_queries WHERE customer_id=$1
        ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, stmt, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CustomerQuery
	for rows.Next() {
		var (
			query domain.CustomerQuery
			reply []byte
		)
		if err := rows.Scan(
			&query.ID,
			&query.CustomerID,
			&query.ServiceID,
			&query.Subject,
			&query.Body,
			&reply,
			&query.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(reply) > 0 {
			query.Reply = &domain.QueryReply{}
			if err := json.Unmarshal(reply, query.Reply); err != nil {
				return nil, err
			}
		}
		result = append(result, query)
	}
	return result, rows.Err()
}

func (r *queryRepository) SetReply(ctx context.Context, queryID string, reply domain.QueryReply) error {
	payload, err := json.Marshal(reply)
	if err != nil {
		return err
	}
	const stmt = `UPDATE customer_queries SET reply=$1 WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, stmt, payload, queryID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *queryRepository) CreateFeedback(ctx context.Context, feedback *domain.Feedback) error {
	const stmt = `
        INSERT INTO feedback (customer_id, rating, comments)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, stmt,
		feedback.CustomerID,
		feedback.Rating,
		feedback.Comments,
	).Scan(&feedback.ID, &feedback.CreatedAt)
}
