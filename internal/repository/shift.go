package repository

import (
	"context"
	"time"

	"haul/internal/domain"
)

// ShiftRepository defines the persistence operations for driver shifts and
// the weekly rollover bookkeeping.
type ShiftRepository interface {
	// Create persists a new shift.
	Create(ctx context.Context, shift *domain.DriverShift) error

	// GetByID retrieves a shift by ID.
	GetByID(ctx context.Context, id string) (*domain.DriverShift, error)

	// GetActiveByDriverID retrieves the open shift for a driver.
	// Returns nil if no shift is active.
	GetActiveByDriverID(ctx context.Context, driverID string) (*domain.DriverShift, error)

	// End stamps the shift's end time. The record is kept.
	End(ctx context.Context, id string, at time.Time) error

	// AddCompletion increments total_earnings by price and completed_rides
	// by one in a single statement, so concurrent completions never lose
	// updates.
	AddCompletion(ctx context.Context, id string, price float64) error

	// ListSince returns a driver's shifts with StartTime at or after since.
	ListSince(ctx context.Context, driverID string, since time.Time) ([]*domain.DriverShift, error)

	// ListUnrolled returns shifts not yet exported by a weekly rollover,
	// across all drivers.
	ListUnrolled(ctx context.Context) ([]*domain.DriverShift, error)

	// MarkRolledOver stamps the given shifts as exported, retiring them
	// from the active weekly window.
	MarkRolledOver(ctx context.Context, ids []string, at time.Time) error

	// CreateReport persists a weekly report row.
	CreateReport(ctx context.Context, report *domain.WeeklyReport) error

	// LastRollover returns the instant the rollover last ran.
	// Returns the zero time if it has never run.
	LastRollover(ctx context.Context) (time.Time, error)

	// SetLastRollover persists the rollover marker.
	SetLastRollover(ctx context.Context, at time.Time) error
}
