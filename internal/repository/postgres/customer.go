package postgres

import (
	"context"
	"database/sql"
	"errors"

	"haul/internal/domain"
	"haul/internal/repository"
)

// CustomerRepository implements repository.CustomerRepository using PostgreSQL.
type CustomerRepository struct {
	db *sql.DB
}

// NewCustomerRepository creates a new CustomerRepository.
func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// Create adds a new customer account.
func (r *CustomerRepository) Create(ctx context.Context, customer *domain.CustomerAccount) error {
	query := `INSERT INTO customers (id, username, email, phone, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query,
		customer.ID,
		customer.Username,
		customer.Email,
		customer.Phone,
		customer.PasswordHash,
		customer.CreatedAt,
	)
	return err
}

// GetByID retrieves a customer by ID.
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*domain.CustomerAccount, error) {
	query := `SELECT id, username, email, phone, password_hash, created_at FROM customers WHERE id = $1`
	return r.scan(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a customer by email.
func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*domain.CustomerAccount, error) {
	query := `SELECT id, username, email, phone, password_hash, created_at FROM customers WHERE email = $1`
	return r.scan(r.db.QueryRowContext(ctx, query, email))
}

// UpdatePassword replaces the stored password hash.
func (r *CustomerRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE customers SET password_hash = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (r *CustomerRepository) scan(row *sql.Row) (*domain.CustomerAccount, error) {
	var customer domain.CustomerAccount
	err := row.Scan(
		&customer.ID,
		&customer.Username,
		&customer.Email,
		&customer.Phone,
		&customer.PasswordHash,
		&customer.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}

// Ensure CustomerRepository implements repository.CustomerRepository.
var _ repository.CustomerRepository = (*CustomerRepository)(nil)
