package domain

import "time"

// RideStatus represents the current status of a ride request.
type RideStatus string

const (
	// RideStatusPending is the initial state: the request sits in the
	// dispatch queue waiting for a driver.
	RideStatusPending RideStatus = "PENDING"

	// RideStatusAccepted means a driver has claimed the request.
	RideStatusAccepted RideStatus = "ACCEPTED"

	// RideStatusCompleted is terminal.
	RideStatusCompleted RideStatus = "COMPLETED"

	// RideStatusDeclined is terminal on the dispatch-queue copy.
	RideStatusDeclined RideStatus = "DECLINED"

	// RideStatusDriverDeclined is the private-copy mirror of DECLINED.
	// It never appears on the dispatch-queue copy.
	RideStatusDriverDeclined RideStatus = "DRIVER_DECLINED"
)

// ParseRideStatus validates a status string at the boundary.
// Unknown strings are rejected rather than stored.
func ParseRideStatus(s string) (RideStatus, bool) {
	switch RideStatus(s) {
	case RideStatusPending, RideStatusAccepted, RideStatusCompleted,
		RideStatusDeclined, RideStatusDriverDeclined:
		return RideStatus(s), true
	}
	return "", false
}

// CanTransition reports whether a ride may move from one status to another.
// PENDING -> ACCEPTED -> COMPLETED, with a side branch PENDING -> DECLINED.
// Terminal states have no exits.
func CanTransition(from, to RideStatus) bool {
	switch from {
	case RideStatusPending:
		return to == RideStatusAccepted || to == RideStatusDeclined
	case RideStatusAccepted:
		return to == RideStatusCompleted
	}
	return false
}

// MirrorStatus maps a dispatch-queue status to the status written on the
// customer's private copy. Only DECLINED differs.
func MirrorStatus(s RideStatus) RideStatus {
	if s == RideStatusDeclined {
		return RideStatusDriverDeclined
	}
	return s
}

// Coordinates is a resolved latitude/longitude pair.
type Coordinates struct {
	Lat float64
	Lng float64
}

// RideRequest is the unit of work flowing through the system.
//
// Every active request has two physical copies: one in the shared dispatch
// queue (globally visible to drivers) and one in the owning customer's
// private booking collection. ID and CustomerBookingID cross-link the pair.
// Status and the driver-assignment fields are the only data mutated after
// creation; everything else is immutable.
type RideRequest struct {
	ID                string
	CustomerID        string
	CustomerBookingID string
	Pickup            string
	Dropoff           string
	PickupCoords      *Coordinates
	DropoffCoords     *Coordinates
	Vehicle           VehicleCategory
	Price             float64
	Status            RideStatus
	DriverID          string
	DriverName        string
	BookingTime       time.Time
	AcceptedAt        time.Time
	CompletedAt       time.Time
	DeclinedAt        time.Time
	DeclinedBy        string
}

// Terminal reports whether the request can no longer transition.
func (r *RideRequest) Terminal() bool {
	return r.Status == RideStatusCompleted ||
		r.Status == RideStatusDeclined ||
		r.Status == RideStatusDriverDeclined
}
