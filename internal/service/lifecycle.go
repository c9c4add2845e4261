package service

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"haul/internal/domain"
	"haul/internal/geocode"
	"haul/internal/redis"
	"haul/internal/repository"
	"haul/internal/repository/postgres"
)

// LifecycleService owns ride request creation and status transitions.
//
// A request lives in two places at once: the shared dispatch queue and the
// owning customer's private booking collection. Creation writes both copies
// in one transaction. A transition is a conditional write on the queue copy
// (the authoritative one) followed by a best-effort mirror to the private
// copy; a failed mirror is reported, not fatal, because the queue copy is
// already correct and the booking read side is eventually consistent.
type LifecycleService struct {
	db       *sql.DB
	rideRepo repository.RideRequestRepository
	geocoder geocode.Resolver
	feed     redis.QueueFeedInterface
}

// NewLifecycleService creates a new LifecycleService.
func NewLifecycleService(
	db *sql.DB,
	rideRepo repository.RideRequestRepository,
	geocoder geocode.Resolver,
	feed redis.QueueFeedInterface,
) *LifecycleService {
	return &LifecycleService{
		db:       db,
		rideRepo: rideRepo,
		geocoder: geocoder,
		feed:     feed,
	}
}

// CreateRequestInput contains the parameters for creating a ride request.
type CreateRequestInput struct {
	CustomerID string
	Pickup     string
	Dropoff    string
	Vehicle    domain.VehicleCategory
}

// CreateRequest validates input, resolves both addresses, prices the booking
// and persists the queue copy and the private copy atomically.
func (s *LifecycleService) CreateRequest(ctx context.Context, input CreateRequestInput) (*domain.RideRequest, error) {
	if input.CustomerID == "" {
		return nil, ErrInvalidCustomerID
	}
	if input.Pickup == "" {
		return nil, ErrEmptyPickupAddress
	}
	if input.Dropoff == "" {
		return nil, ErrEmptyDropoffAddress
	}
	if _, ok := domain.ParseVehicleCategory(string(input.Vehicle)); !ok {
		return nil, ErrUnknownVehicle
	}

	pickupCoords, err := s.resolve(ctx, input.Pickup, ErrUnresolvedPickup)
	if err != nil {
		return nil, err
	}
	dropoffCoords, err := s.resolve(ctx, input.Dropoff, ErrUnresolvedDropoff)
	if err != nil {
		return nil, err
	}

	req := &domain.RideRequest{
		ID:                uuid.New().String(),
		CustomerID:        input.CustomerID,
		CustomerBookingID: uuid.New().String(),
		Pickup:            input.Pickup,
		Dropoff:           input.Dropoff,
		PickupCoords:      pickupCoords,
		DropoffCoords:     dropoffCoords,
		Vehicle:           input.Vehicle,
		Price:             QuotePrice(input.Vehicle, pickupCoords, dropoffCoords),
		Status:            domain.RideStatusPending,
		BookingTime:       time.Now(),
	}

	// Both copies commit or neither does. The upstream system wrote them
	// as two unguarded calls and could strand a queue entry without its
	// booking cross-link; a transaction closes that hole.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	txRideRepo := postgres.NewRideRequestRepositoryWithTx(tx)

	if err = txRideRepo.Create(ctx, req); err != nil {
		return nil, err
	}

	if err = txRideRepo.CreateBooking(ctx, req); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	s.notifyChanged(ctx)

	return req, nil
}

// resolve geocodes an address. No candidates is the caller's validation
// error; the request proceeds without coordinates only if no resolver is
// configured.
func (s *LifecycleService) resolve(ctx context.Context, address string, noMatch error) (*domain.Coordinates, error) {
	if s.geocoder == nil {
		return nil, nil
	}

	coords, err := s.geocoder.Resolve(ctx, address)
	if err != nil {
		if errors.Is(err, geocode.ErrNoMatch) {
			return nil, noMatch
		}
		return nil, err
	}
	return coords, nil
}

// Actor identifies who is driving a transition.
type Actor struct {
	DriverID   string
	DriverName string
}

// TransitionResult reports a completed transition. MirrorApplied is false
// when the queue copy was updated but the private copy could not be: the
// transition itself succeeded and the booking read side will lag until
// repaired.
type TransitionResult struct {
	Request       *domain.RideRequest
	MirrorApplied bool
}

// Transition moves a request to newStatus, enforcing the state machine and
// stamping the transition's timestamp and actor fields.
//
// The queue-copy write is conditional on the status observed here, so two
// racing drivers cannot both win: the loser's write matches zero rows and
// maps to ErrAlreadyTaken (for accepts) or ErrInvalidTransition.
func (s *LifecycleService) Transition(ctx context.Context, requestID string, newStatus domain.RideStatus, actor Actor) (*TransitionResult, error) {
	if requestID == "" {
		return nil, ErrInvalidRequestID
	}

	req, err := s.rideRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	observed := req.Status
	if !domain.CanTransition(observed, newStatus) {
		// A late accept is the same race as a stale accept, whether it
		// lost at the read or at the write.
		if newStatus == domain.RideStatusAccepted &&
			(observed == domain.RideStatusAccepted || observed == domain.RideStatusCompleted) {
			return nil, ErrAlreadyTaken
		}
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	req.Status = newStatus
	switch newStatus {
	case domain.RideStatusAccepted:
		req.DriverID = actor.DriverID
		req.DriverName = actor.DriverName
		req.AcceptedAt = now
	case domain.RideStatusCompleted:
		req.CompletedAt = now
	case domain.RideStatusDeclined:
		req.DeclinedAt = now
		req.DeclinedBy = actor.DriverID
	}

	if err := s.rideRepo.UpdateStatusIf(ctx, req, observed); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			if newStatus == domain.RideStatusAccepted {
				return nil, ErrAlreadyTaken
			}
			return nil, ErrInvalidTransition
		}
		return nil, err
	}

	result := &TransitionResult{Request: req, MirrorApplied: true}

	if req.CustomerBookingID == "" {
		// Cross-link missing: the queue copy is updated and that is all
		// that can be done.
		result.MirrorApplied = false
	} else if err := s.rideRepo.UpdateBooking(ctx, req); err != nil {
		log.Printf("booking mirror for request %s not applied: %v", req.ID, err)
		result.MirrorApplied = false
	}

	s.notifyChanged(ctx)

	return result, nil
}

// GetRequest retrieves the dispatch-queue copy of a request.
func (s *LifecycleService) GetRequest(ctx context.Context, requestID string) (*domain.RideRequest, error) {
	if requestID == "" {
		return nil, ErrInvalidRequestID
	}
	return s.rideRepo.GetByID(ctx, requestID)
}

func (s *LifecycleService) notifyChanged(ctx context.Context) {
	if s.feed == nil {
		return
	}
	if err := s.feed.NotifyChanged(ctx); err != nil {
		log.Printf("queue change notify failed: %v", err)
	}
}
