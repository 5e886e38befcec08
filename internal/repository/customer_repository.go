package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/tax-backoffice/internal/domain"
)

// CustomerRepository defines persistence access for customers and their
// embedded service orders. Orders have no independent rows; every order
// mutation goes through Save on the owning customer, whose version column
// provides the optimistic write guard.
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	Save(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
	GetByOrderID(ctx context.Context, orderID string) (*domain.Customer, error)
	ListWithPendingReviews(ctx context.Context) ([]domain.Customer, error)
	ListByAssignedEmployee(ctx context.Context, employeeID string) ([]domain.Customer, error)
}

type customerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a Postgres-backed implementation.
func NewCustomerRepository(pool *pgxpool.Pool) CustomerRepository {
	return &customerRepository{pool: pool}
}

const customerColumns = `id, name, email, password_hash, phone, services, version, created_at, updated_at`

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	services, err := marshalServices(customer.Services)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO customers (name, email, password_hash, phone, services)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, version, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		customer.Name,
		customer.Email,
		customer.PasswordHash,
		customer.Phone,
		services,
	).Scan(&customer.ID, &customer.Version, &customer.CreatedAt, &customer.UpdatedAt)
}

// Save persists the whole customer record. The write only lands when the
// in-memory version matches the stored one; a mismatch means a concurrent
// writer won and ErrVersionConflict is returned.
func (r *customerRepository) Save(ctx context.Context, customer *domain.Customer) error {
	services, err := marshalServices(customer.Services)
	if err != nil {
		return err
	}
	const query = `
        UPDATE customers
        SET name=$1, email=$2, password_hash=$3, phone=$4, services=$5,
            version=version+1, updated_at=NOW()
        WHERE id=$6 AND version=$7`
	cmd, err := r.pool.Exec(ctx, query,
		customer.Name,
		customer.Email,
		customer.PasswordHash,
		customer.Phone,
		services,
		customer.ID,
		customer.Version,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	customer.Version++
	return nil
}

func (r *customerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *customerRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *customerRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE services @> $1`
	needle, err := json.Marshal([]map[string]string{{"order_id": orderID}})
	if err != nil {
		return nil, err
	}
	return r.fetchSingle(ctx, query, needle)
}

func (r *customerRepository) ListWithPendingReviews(ctx context.Context) ([]domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE services @> $1`
	needle, err := json.Marshal([]map[string]domain.OrderStatus{{"status": domain.OrderStatusPendingReview}})
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, query, needle)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCustomers(rows)
}

func (r *customerRepository) ListByAssignedEmployee(ctx context.Context, employeeID string) ([]domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE services @> $1`
	needle, err := json.Marshal([]map[string]string{{"employee_id": employeeID}})
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, query, needle)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCustomers(rows)
}

func (r *customerRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Customer, error) {
	var (
		customer domain.Customer
		services []byte
	)
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
		&customer.PasswordHash,
		&customer.Phone,
		&services,
		&customer.Version,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := unmarshalServices(services, &customer.Services); err != nil {
		return nil, err
	}
	return &customer, nil
}

func scanCustomers(rows pgx.Rows) ([]domain.Customer, error) {
	var result []domain.Customer
	for rows.Next() {
		var (
			customer domain.Customer
			services []byte
		)
		if err := rows.Scan(
			&customer.ID,
			&customer.Name,
			&customer.Email,
			&customer.PasswordHash,
			&customer.Phone,
			&services,
			&customer.Version,
			&customer.CreatedAt,
			&customer.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if err := unmarshalServices(services, &customer.Services); err != nil {
			return nil, err
		}
		result = append(result, customer)
	}
	return result, rows.Err()
}

func marshalServices(services []domain.ServiceOrder) ([]byte, error) {
	if services == nil {
		services = []domain.ServiceOrder{}
	}
	return json.Marshal(services)
}

func unmarshalServices(raw []byte, target *[]domain.ServiceOrder) error {
	if len(raw) == 0 {
		*target = []domain.ServiceOrder{}
		return nil
	}
	return json.Unmarshal(raw, target)
}
