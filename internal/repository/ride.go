package repository

import (
	"context"

	"haul/internal/domain"
)

// RideRequestRepository defines the persistence operations for ride requests.
//
// A request is stored twice: a dispatch-queue copy visible to all drivers and
// a private booking copy scoped to the owning customer. The Create/Get/List
// methods without a Booking suffix operate on the queue copy.
type RideRequestRepository interface {
	// Create persists the dispatch-queue copy of a request.
	Create(ctx context.Context, req *domain.RideRequest) error

	// CreateBooking persists the customer's private copy of a request.
	CreateBooking(ctx context.Context, req *domain.RideRequest) error

	// GetByID retrieves the dispatch-queue copy by request ID.
	GetByID(ctx context.Context, id string) (*domain.RideRequest, error)

	// GetBooking retrieves a customer's private copy by booking ID.
	GetBooking(ctx context.Context, customerID, bookingID string) (*domain.RideRequest, error)

	// ListPending returns all queue copies in PENDING state, oldest first.
	ListPending(ctx context.Context) ([]*domain.RideRequest, error)

	// ListAssigned returns a driver's non-terminal queue copies.
	ListAssigned(ctx context.Context, driverID string) ([]*domain.RideRequest, error)

	// ListBookings returns a customer's private copies, newest first.
	ListBookings(ctx context.Context, customerID string) ([]*domain.RideRequest, error)

	// UpdateStatusIf writes the request's status, driver-assignment fields
	// and transition timestamps to the queue copy, but only if the stored
	// status still equals expected. Returns ErrStaleStatus when another
	// writer got there first, ErrNotFound when the request does not exist.
	UpdateStatusIf(ctx context.Context, req *domain.RideRequest, expected domain.RideStatus) error

	// UpdateBooking mirrors status, driver-assignment fields and transition
	// timestamps onto the customer's private copy.
	UpdateBooking(ctx context.Context, req *domain.RideRequest) error
}
