package repository

import (
	"context"

	"haul/internal/domain"
)

// DriverRepository defines the persistence operations for driver profiles.
type DriverRepository interface {
	// Create adds a new driver profile.
	Create(ctx context.Context, driver *domain.DriverProfile) error

	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id string) (*domain.DriverProfile, error)

	// GetByPhone retrieves a driver by phone number.
	GetByPhone(ctx context.Context, phone string) (*domain.DriverProfile, error)

	// Update overwrites the mutable profile fields (name, phone, address,
	// document URLs).
	Update(ctx context.Context, driver *domain.DriverProfile) error

	// UpdateApproval updates the driver's approval status.
	UpdateApproval(ctx context.Context, id string, status domain.ApprovalStatus) error

	// SetActiveShift records the driver's active shift ID. An empty shiftID
	// clears it.
	SetActiveShift(ctx context.Context, id, shiftID string) error
}
