package repository

import (
	"context"

	"haul/internal/domain"
)

// CustomerRepository defines the persistence operations for customers.
type CustomerRepository interface {
	// Create adds a new customer account.
	Create(ctx context.Context, customer *domain.CustomerAccount) error

	// GetByID retrieves a customer by ID.
	GetByID(ctx context.Context, id string) (*domain.CustomerAccount, error)

	// GetByEmail retrieves a customer by email.
	GetByEmail(ctx context.Context, email string) (*domain.CustomerAccount, error)

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}
