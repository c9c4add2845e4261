package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"haul/internal/domain"
	"haul/internal/repository"
)

// RideRequestRepository is a PostgreSQL implementation of
// repository.RideRequestRepository. The dispatch-queue copy lives in
// dispatch_queue, the private copy in customer_bookings.
type RideRequestRepository struct {
	q Querier
}

// NewRideRequestRepository creates a new PostgreSQL ride request repository.
func NewRideRequestRepository(db *sql.DB) *RideRequestRepository {
	return &RideRequestRepository{q: db}
}

// NewRideRequestRepositoryWithTx creates a ride request repository using a transaction.
func NewRideRequestRepositoryWithTx(tx *sql.Tx) *RideRequestRepository {
	return &RideRequestRepository{q: tx}
}

const rideColumns = `id, customer_id, customer_booking_id, pickup, dropoff,
	pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
	vehicle, price, status, driver_id, driver_name,
	booking_time, accepted_at, completed_at, declined_at, declined_by`

// Create persists the dispatch-queue copy of a request.
func (r *RideRequestRepository) Create(ctx context.Context, req *domain.RideRequest) error {
	query := `
		INSERT INTO dispatch_queue (` + rideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	args := rideInsertArgs(req)
	_, err := r.q.ExecContext(ctx, query, args...)
	return err
}

// CreateBooking persists the customer's private copy of a request.
func (r *RideRequestRepository) CreateBooking(ctx context.Context, req *domain.RideRequest) error {
	query := `
		INSERT INTO customer_bookings (` + rideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	args := rideInsertArgs(req)
	_, err := r.q.ExecContext(ctx, query, args...)
	return err
}

// GetByID retrieves the dispatch-queue copy by request ID.
func (r *RideRequestRepository) GetByID(ctx context.Context, id string) (*domain.RideRequest, error) {
	query := `SELECT ` + rideColumns + ` FROM dispatch_queue WHERE id = $1`
	return scanRide(r.q.QueryRowContext(ctx, query, id))
}

// GetBooking retrieves a customer's private copy by booking ID.
func (r *RideRequestRepository) GetBooking(ctx context.Context, customerID, bookingID string) (*domain.RideRequest, error) {
	query := `SELECT ` + rideColumns + ` FROM customer_bookings
		WHERE customer_id = $1 AND customer_booking_id = $2`
	return scanRide(r.q.QueryRowContext(ctx, query, customerID, bookingID))
}

// ListPending returns all queue copies in PENDING state, oldest first.
func (r *RideRequestRepository) ListPending(ctx context.Context) ([]*domain.RideRequest, error) {
	query := `SELECT ` + rideColumns + ` FROM dispatch_queue
		WHERE status = $1 ORDER BY booking_time ASC`
	return r.list(ctx, query, domain.RideStatusPending)
}

// ListAssigned returns a driver's non-terminal queue copies.
func (r *RideRequestRepository) ListAssigned(ctx context.Context, driverID string) ([]*domain.RideRequest, error) {
	query := `SELECT ` + rideColumns + ` FROM dispatch_queue
		WHERE driver_id = $1 AND status NOT IN ($2, $3)
		ORDER BY booking_time ASC`
	return r.list(ctx, query, driverID, domain.RideStatusCompleted, domain.RideStatusDeclined)
}

// ListBookings returns a customer's private copies, newest first.
func (r *RideRequestRepository) ListBookings(ctx context.Context, customerID string) ([]*domain.RideRequest, error) {
	query := `SELECT ` + rideColumns + ` FROM customer_bookings
		WHERE customer_id = $1 ORDER BY booking_time DESC`
	return r.list(ctx, query, customerID)
}

// UpdateStatusIf writes status, driver fields and timestamps to the queue
// copy, guarded by the expected pre-state. A zero-row update is disambiguated
// with a follow-up read: missing row means ErrNotFound, otherwise another
// writer won and the caller gets ErrStaleStatus.
func (r *RideRequestRepository) UpdateStatusIf(ctx context.Context, req *domain.RideRequest, expected domain.RideStatus) error {
	query := `
		UPDATE dispatch_queue
		SET status = $1, driver_id = $2, driver_name = $3,
			accepted_at = $4, completed_at = $5, declined_at = $6, declined_by = $7
		WHERE id = $8 AND status = $9
	`
	result, err := r.q.ExecContext(ctx, query,
		req.Status,
		nullString(req.DriverID),
		nullString(req.DriverName),
		nullTime(req.AcceptedAt),
		nullTime(req.CompletedAt),
		nullTime(req.DeclinedAt),
		nullString(req.DeclinedBy),
		req.ID,
		expected,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		var current string
		err := r.q.QueryRowContext(ctx, `SELECT status FROM dispatch_queue WHERE id = $1`, req.ID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrNotFound
		}
		if err != nil {
			return err
		}
		return repository.ErrStaleStatus
	}

	return nil
}

// UpdateBooking mirrors status, driver fields and timestamps onto the
// customer's private copy.
func (r *RideRequestRepository) UpdateBooking(ctx context.Context, req *domain.RideRequest) error {
	query := `
		UPDATE customer_bookings
		SET status = $1, driver_id = $2, driver_name = $3,
			accepted_at = $4, completed_at = $5, declined_at = $6, declined_by = $7
		WHERE customer_id = $8 AND customer_booking_id = $9
	`
	result, err := r.q.ExecContext(ctx, query,
		domain.MirrorStatus(req.Status),
		nullString(req.DriverID),
		nullString(req.DriverName),
		nullTime(req.AcceptedAt),
		nullTime(req.CompletedAt),
		nullTime(req.DeclinedAt),
		nullString(req.DeclinedBy),
		req.CustomerID,
		req.CustomerBookingID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *RideRequestRepository) list(ctx context.Context, query string, args ...any) ([]*domain.RideRequest, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []*domain.RideRequest
	for rows.Next() {
		req, err := scanRideRow(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func rideInsertArgs(req *domain.RideRequest) []any {
	var pickupLat, pickupLng, dropoffLat, dropoffLng sql.NullFloat64
	if req.PickupCoords != nil {
		pickupLat = sql.NullFloat64{Float64: req.PickupCoords.Lat, Valid: true}
		pickupLng = sql.NullFloat64{Float64: req.PickupCoords.Lng, Valid: true}
	}
	if req.DropoffCoords != nil {
		dropoffLat = sql.NullFloat64{Float64: req.DropoffCoords.Lat, Valid: true}
		dropoffLng = sql.NullFloat64{Float64: req.DropoffCoords.Lng, Valid: true}
	}

	return []any{
		req.ID,
		req.CustomerID,
		req.CustomerBookingID,
		req.Pickup,
		req.Dropoff,
		pickupLat,
		pickupLng,
		dropoffLat,
		dropoffLng,
		req.Vehicle,
		req.Price,
		req.Status,
		nullString(req.DriverID),
		nullString(req.DriverName),
		req.BookingTime,
		nullTime(req.AcceptedAt),
		nullTime(req.CompletedAt),
		nullTime(req.DeclinedAt),
		nullString(req.DeclinedBy),
	}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row *sql.Row) (*domain.RideRequest, error) {
	req, err := scanRideRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

func scanRideRow(s rowScanner) (*domain.RideRequest, error) {
	var req domain.RideRequest
	var pickupLat, pickupLng, dropoffLat, dropoffLng sql.NullFloat64
	var driverID, driverName, declinedBy sql.NullString
	var acceptedAt, completedAt, declinedAt sql.NullTime

	err := s.Scan(
		&req.ID,
		&req.CustomerID,
		&req.CustomerBookingID,
		&req.Pickup,
		&req.Dropoff,
		&pickupLat,
		&pickupLng,
		&dropoffLat,
		&dropoffLng,
		&req.Vehicle,
		&req.Price,
		&req.Status,
		&driverID,
		&driverName,
		&req.BookingTime,
		&acceptedAt,
		&completedAt,
		&declinedAt,
		&declinedBy,
	)
	if err != nil {
		return nil, err
	}

	if pickupLat.Valid && pickupLng.Valid {
		req.PickupCoords = &domain.Coordinates{Lat: pickupLat.Float64, Lng: pickupLng.Float64}
	}
	if dropoffLat.Valid && dropoffLng.Valid {
		req.DropoffCoords = &domain.Coordinates{Lat: dropoffLat.Float64, Lng: dropoffLng.Float64}
	}
	if driverID.Valid {
		req.DriverID = driverID.String
	}
	if driverName.Valid {
		req.DriverName = driverName.String
	}
	if acceptedAt.Valid {
		req.AcceptedAt = acceptedAt.Time
	}
	if completedAt.Valid {
		req.CompletedAt = completedAt.Time
	}
	if declinedAt.Valid {
		req.DeclinedAt = declinedAt.Time
	}
	if declinedBy.Valid {
		req.DeclinedBy = declinedBy.String
	}

	return &req, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

// Ensure RideRequestRepository implements repository.RideRequestRepository.
var _ repository.RideRequestRepository = (*RideRequestRepository)(nil)
