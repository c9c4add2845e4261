package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"haul/internal/domain"
	"haul/internal/service"
)

// newLifecycle wires a LifecycleService over mocks. The nil db is fine for
// transition paths; creation is exercised against a real database.
func newLifecycle(rideRepo *MockRideRequestRepository, feed *MockQueueFeed) *service.LifecycleService {
	return service.NewLifecycleService(nil, rideRepo, nil, feed)
}

func pendingRequest(id, customerID string) *domain.RideRequest {
	return &domain.RideRequest{
		ID:                id,
		CustomerID:        customerID,
		CustomerBookingID: id + "-booking",
		Pickup:            "12 Harbour Rd",
		Dropoff:           "3 Mill St",
		Vehicle:           domain.VehicleVan,
		Price:             150,
		Status:            domain.RideStatusPending,
		BookingTime:       time.Now(),
	}
}

func TestTransition_AcceptStampsDriverAndMirrorsBooking(t *testing.T) {
	ctx := context.Background()

	rideRepo := NewMockRideRequestRepository()
	feed := NewMockQueueFeed()
	lifecycle := newLifecycle(rideRepo, feed)

	rideRepo.AddRequest(pendingRequest("req-1", "cust-1"))

	result, err := lifecycle.Transition(ctx, "req-1", domain.RideStatusAccepted, service.Actor{
		DriverID:   "driver-1",
		DriverName: "Sipho M",
	})
	if err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if !result.MirrorApplied {
		t.Error("expected mirror to be applied")
	}

	queueCopy := rideRepo.GetQueueCopy("req-1")
	if queueCopy.Status != domain.RideStatusAccepted {
		t.Errorf("queue copy status = %s, want ACCEPTED", queueCopy.Status)
	}
	if queueCopy.DriverID != "driver-1" || queueCopy.DriverName != "Sipho M" {
		t.Errorf("driver fields not stamped: %q %q", queueCopy.DriverID, queueCopy.DriverName)
	}
	if queueCopy.AcceptedAt.IsZero() {
		t.Error("AcceptedAt not stamped")
	}

	bookingCopy := rideRepo.GetBookingCopy("req-1-booking")
	if bookingCopy.Status != domain.RideStatusAccepted {
		t.Errorf("booking copy status = %s, want ACCEPTED", bookingCopy.Status)
	}
	if bookingCopy.DriverName != "Sipho M" {
		t.Errorf("booking copy driver name = %q", bookingCopy.DriverName)
	}

	if feed.NotifyCallCount == 0 {
		t.Error("expected a queue change notification")
	}
}

func TestTransition_DeclineMirrorsAsDriverDeclined(t *testing.T) {
	ctx := context.Background()

	rideRepo := NewMockRideRequestRepository()
	lifecycle := newLifecycle(rideRepo, NewMockQueueFeed())

	rideRepo.AddRequest(pendingRequest("req-1", "cust-1"))

	if _, err := lifecycle.Transition(ctx, "req-1", domain.RideStatusDeclined, service.Actor{DriverID: "driver-1"}); err != nil {
		t.Fatalf("decline failed: %v", err)
	}

	// The two copies deliberately diverge: the shared queue records
	// DECLINED, the customer's private copy DRIVER_DECLINED.
	queueCopy := rideRepo.GetQueueCopy("req-1")
	if queueCopy.Status != domain.RideStatusDeclined {
		t.Errorf("queue copy status = %s, want DECLINED", queueCopy.Status)
	}
	if queueCopy.DeclinedBy != "driver-1" {
		t.Errorf("DeclinedBy = %q, want driver-1", queueCopy.DeclinedBy)
	}
	if queueCopy.DeclinedAt.IsZero() {
		t.Error("DeclinedAt not stamped")
	}

	bookingCopy := rideRepo.GetBookingCopy("req-1-booking")
	if bookingCopy.Status != domain.RideStatusDriverDeclined {
		t.Errorf("booking copy status = %s, want DRIVER_DECLINED", bookingCopy.Status)
	}
}

func TestTransition_RejectsInvalidMoves(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name string
		from domain.RideStatus
		to   domain.RideStatus
	}{
		{"pending to completed", domain.RideStatusPending, domain.RideStatusCompleted},
		{"accepted to declined", domain.RideStatusAccepted, domain.RideStatusDeclined},
		{"completed is terminal", domain.RideStatusCompleted, domain.RideStatusDeclined},
		{"declined is terminal", domain.RideStatusDeclined, domain.RideStatusAccepted},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rideRepo := NewMockRideRequestRepository()
			lifecycle := newLifecycle(rideRepo, NewMockQueueFeed())

			req := pendingRequest("req-1", "cust-1")
			req.Status = tc.from
			rideRepo.AddRequest(req)

			_, err := lifecycle.Transition(ctx, "req-1", tc.to, service.Actor{DriverID: "driver-1"})
			if !errors.Is(err, service.ErrInvalidTransition) {
				t.Errorf("err = %v, want ErrInvalidTransition", err)
			}

			if got := rideRepo.GetQueueCopy("req-1").Status; got != tc.from {
				t.Errorf("status changed to %s on rejected transition", got)
			}
		})
	}
}

func TestTransition_StaleAcceptIsAlreadyTaken(t *testing.T) {
	ctx := context.Background()

	rideRepo := NewMockRideRequestRepository()
	lifecycle := newLifecycle(rideRepo, NewMockQueueFeed())

	rideRepo.AddRequest(pendingRequest("req-1", "cust-1"))

	// First driver wins.
	if _, err := lifecycle.Transition(ctx, "req-1", domain.RideStatusAccepted, service.Actor{DriverID: "driver-1", DriverName: "A"}); err != nil {
		t.Fatalf("first accept failed: %v", err)
	}

	// Second driver's accept observed PENDING no longer holding.
	_, err := lifecycle.Transition(ctx, "req-1", domain.RideStatusAccepted, service.Actor{DriverID: "driver-2", DriverName: "B"})
	if !errors.Is(err, service.ErrAlreadyTaken) {
		t.Fatalf("err = %v, want ErrAlreadyTaken", err)
	}

	if got := rideRepo.GetQueueCopy("req-1").DriverID; got != "driver-1" {
		t.Errorf("assigned driver = %s, want driver-1", got)
	}
}

func TestTransition_MirrorFailureDoesNotFailTransition(t *testing.T) {
	ctx := context.Background()

	rideRepo := NewMockRideRequestRepository()
	lifecycle := newLifecycle(rideRepo, NewMockQueueFeed())

	rideRepo.AddRequest(pendingRequest("req-1", "cust-1"))
	rideRepo.UpdateBookingError = errors.New("booking store down")

	result, err := lifecycle.Transition(ctx, "req-1", domain.RideStatusAccepted, service.Actor{DriverID: "driver-1"})
	if err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if result.MirrorApplied {
		t.Error("expected MirrorApplied=false when the booking write fails")
	}

	// The authoritative copy moved; the private copy lags.
	if got := rideRepo.GetQueueCopy("req-1").Status; got != domain.RideStatusAccepted {
		t.Errorf("queue copy status = %s, want ACCEPTED", got)
	}
	if got := rideRepo.GetBookingCopy("req-1-booking").Status; got != domain.RideStatusPending {
		t.Errorf("booking copy status = %s, want PENDING", got)
	}
}

func TestTransition_MissingCrossLinkReportsUnmirrored(t *testing.T) {
	ctx := context.Background()

	rideRepo := NewMockRideRequestRepository()
	lifecycle := newLifecycle(rideRepo, NewMockQueueFeed())

	req := pendingRequest("req-1", "cust-1")
	req.CustomerBookingID = ""
	rideRepo.AddRequest(req)

	result, err := lifecycle.Transition(ctx, "req-1", domain.RideStatusAccepted, service.Actor{DriverID: "driver-1"})
	if err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if result.MirrorApplied {
		t.Error("expected MirrorApplied=false without a booking cross-link")
	}
}

func TestCreateRequest_ValidatesInput(t *testing.T) {
	ctx := context.Background()

	resolver := NewMockResolver()
	lifecycle := service.NewLifecycleService(nil, NewMockRideRequestRepository(), resolver, nil)

	cases := []struct {
		name  string
		input service.CreateRequestInput
		want  error
	}{
		{
			"missing customer",
			service.CreateRequestInput{Pickup: "a", Dropoff: "b", Vehicle: domain.VehicleVan},
			service.ErrInvalidCustomerID,
		},
		{
			"missing pickup",
			service.CreateRequestInput{CustomerID: "c", Dropoff: "b", Vehicle: domain.VehicleVan},
			service.ErrEmptyPickupAddress,
		},
		{
			"missing dropoff",
			service.CreateRequestInput{CustomerID: "c", Pickup: "a", Vehicle: domain.VehicleVan},
			service.ErrEmptyDropoffAddress,
		},
		{
			"unknown vehicle",
			service.CreateRequestInput{CustomerID: "c", Pickup: "a", Dropoff: "b", Vehicle: "HOVERCRAFT"},
			service.ErrUnknownVehicle,
		},
		{
			"unresolvable pickup",
			service.CreateRequestInput{CustomerID: "c", Pickup: "nowhere", Dropoff: "b", Vehicle: domain.VehicleVan},
			service.ErrUnresolvedPickup,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := lifecycle.CreateRequest(ctx, tc.input)
			if !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCreateRequest_UnresolvableDropoff(t *testing.T) {
	ctx := context.Background()

	resolver := NewMockResolver()
	resolver.AddAddress("12 Harbour Rd", -33.92, 18.42)
	lifecycle := service.NewLifecycleService(nil, NewMockRideRequestRepository(), resolver, nil)

	_, err := lifecycle.CreateRequest(ctx, service.CreateRequestInput{
		CustomerID: "cust-1",
		Pickup:     "12 Harbour Rd",
		Dropoff:    "nowhere",
		Vehicle:    domain.VehicleVan,
	})
	if !errors.Is(err, service.ErrUnresolvedDropoff) {
		t.Errorf("err = %v, want ErrUnresolvedDropoff", err)
	}
}

// Creation pairing: both copies carry the same identity fields and the
// cross-link resolves in both directions.
func TestCreation_PairsQueueAndBookingCopies(t *testing.T) {
	ctx := context.Background()

	rideRepo := NewMockRideRequestRepository()

	req := pendingRequest("req-1", "cust-1")
	if err := rideRepo.Create(ctx, req); err != nil {
		t.Fatalf("queue create failed: %v", err)
	}
	if err := rideRepo.CreateBooking(ctx, req); err != nil {
		t.Fatalf("booking create failed: %v", err)
	}

	queueCopy, err := rideRepo.GetByID(ctx, "req-1")
	if err != nil {
		t.Fatalf("queue copy missing: %v", err)
	}
	bookingCopy, err := rideRepo.GetBooking(ctx, "cust-1", queueCopy.CustomerBookingID)
	if err != nil {
		t.Fatalf("booking copy missing: %v", err)
	}

	if bookingCopy.ID != queueCopy.ID {
		t.Errorf("cross-link broken: booking ID %s, queue ID %s", bookingCopy.ID, queueCopy.ID)
	}
	if bookingCopy.Price != queueCopy.Price || bookingCopy.Pickup != queueCopy.Pickup {
		t.Error("copies disagree on immutable fields")
	}

	// Another customer cannot read this booking.
	if _, err := rideRepo.GetBooking(ctx, "cust-2", queueCopy.CustomerBookingID); err == nil {
		t.Error("booking visible to a different customer")
	}
}
